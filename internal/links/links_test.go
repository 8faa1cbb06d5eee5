//go:build unit

package links

import (
	"net/url"
	"testing"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse %q: %v", raw, err)
	}
	return u
}

func TestResolve(t *testing.T) {
	base := mustParse(t, "http://old.example.ru")

	cases := []struct {
		name string
		href string
		want string
	}{
		{"absolute http", "http://other.ru/page", "http://other.ru/page"},
		{"absolute https", "https://old.example.ru/x", "https://old.example.ru/x"},
		{"protocol relative", "//cdn.example.ru/a.js", "http://cdn.example.ru/a.js"},
		{"mailto", "mailto:info@example.ru", "mailto:info@example.ru"},
		{"tel", "tel:+70000000000", "tel:+70000000000"},
		{"root relative", "/docs/a.pdf", "http://old.example.ru/docs/a.pdf"},
		{"bare relative", "news.html", "http://old.example.ru/news.html"},
		{"whitespace trimmed", "  /a.html ", "http://old.example.ru/a.html"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Resolve(tc.href, base); got != tc.want {
				t.Errorf("Resolve(%q) = %q, want %q", tc.href, got, tc.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name     string
		abs      string
		internal bool
		file     bool
	}{
		{"internal page", "http://old.example.ru/about.html", true, false},
		{"internal file", "http://old.example.ru/_files/doc.pdf", true, true},
		{"www tolerated", "http://www.old.example.ru/a.html", true, false},
		{"external page", "http://other.ru/", false, false},
		{"external file", "http://other.ru/v.mp4", false, true},
		{"pure path internal", "/local/path", true, false},
		{"extensionless is page", "http://old.example.ru/news", true, false},
		{"case-insensitive ext", "http://old.example.ru/A.PDF", true, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.abs, "old.example.ru")
			if got.Internal != tc.internal || got.File != tc.file {
				t.Errorf("Classify(%q) = %+v, want internal=%v file=%v", tc.abs, got, tc.internal, tc.file)
			}
		})
	}
}

// Classification must be stable: resolving an already-resolved URL and
// classifying again yields the same class.
func TestResolveClassify_RoundTrip(t *testing.T) {
	base := mustParse(t, "http://old.example.ru")
	hrefs := []string{
		"/a.html", "docs/b.pdf", "http://other.ru/c", "//www.old.example.ru/d.mp4",
		"/news?page=2", "e.doc",
	}
	for _, href := range hrefs {
		abs := Resolve(href, base)
		first := Classify(abs, base.Host)
		again := Classify(Resolve(abs, base), base.Host)
		if first != again {
			t.Errorf("classification of %q unstable: %+v then %+v", href, first, again)
		}
	}
}

func TestSkippable(t *testing.T) {
	for _, href := range []string{"", "   ", "#", "#top", "javascript:void(0)", "JavaScript:history.back()"} {
		if !Skippable(href) {
			t.Errorf("expected %q to be skippable", href)
		}
	}
	for _, href := range []string{"/a", "http://x.ru", "mailto:x@y.z"} {
		if Skippable(href) {
			t.Errorf("expected %q not to be skippable", href)
		}
	}
}

func TestPathFor(t *testing.T) {
	if got := PathFor("http://old.example.ru/news?page=2"); got != "/news?page=2" {
		t.Errorf("expected query preserved, got %q", got)
	}
	if got := PathFor("http://old.example.ru"); got != "/" {
		t.Errorf("expected bare origin to map to /, got %q", got)
	}
}
