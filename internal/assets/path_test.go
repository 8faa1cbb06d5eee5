//go:build unit

package assets

import (
	"net/http"
	"testing"
)

func TestTargetPath(t *testing.T) {
	cases := []struct {
		name   string
		url    string
		dir    string
		header http.Header
		body   []byte
		want   string
	}{
		{
			name: "plain file path",
			url:  "http://old.example.ru/_files/doc.pdf",
			dir:  "files/imported",
			want: "files/imported/_files/doc.pdf",
		},
		{
			name: "percent-decoded path",
			url:  "http://old.example.ru/files/%D0%B4%D0%BE%D0%BA.pdf",
			dir:  "files/imported",
			want: "files/imported/files/док.pdf",
		},
		{
			name: "traversal stripped",
			url:  "http://old.example.ru/../../etc/passwd.txt",
			dir:  "files/imported",
			want: "files/imported/etc/passwd.txt",
		},
		{
			name: "query suffix",
			url:  "http://old.example.ru/img/logo.png?v=12",
			dir:  "images/imported",
			want: "images/imported/img/logo.png__v_12",
		},
		{
			name:   "extension from content type",
			url:    "http://old.example.ru/download/42",
			dir:    "files/imported",
			header: http.Header{"Content-Type": []string{"application/pdf"}},
			want:   "files/imported/download/42.pdf",
		},
		{
			name:   "extension from content disposition",
			url:    "http://old.example.ru/get",
			dir:    "files/imported",
			header: http.Header{"Content-Disposition": []string{`attachment; filename="report.XLSX"`}},
			want:   "files/imported/get.xlsx",
		},
		{
			name: "extension sniffed from body",
			url:  "http://old.example.ru/asset",
			dir:  "files/imported",
			body: []byte("%PDF-1.4 fake pdf content"),
			want: "files/imported/asset.pdf",
		},
		{
			name: "generic fallback extension",
			url:  "http://old.example.ru/asset2",
			dir:  "files/imported",
			body: nil,
			want: "files/imported/asset2.bin",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			header := tc.header
			if header == nil {
				header = http.Header{}
			}
			got := TargetPath(tc.url, tc.dir, header, tc.body)
			if got != tc.want {
				t.Errorf("TargetPath(%q) = %q, want %q", tc.url, got, tc.want)
			}
		})
	}
}

// The derivation is the cross-run dedup key: the same URL must always map
// to the same target path.
func TestTargetPath_Stable(t *testing.T) {
	url := "http://old.example.ru/files/doc.pdf?v=3"
	first := TargetPath(url, "files/imported", http.Header{}, nil)
	second := TargetPath(url, "files/imported", http.Header{}, nil)
	if first != second {
		t.Errorf("target path not stable: %q vs %q", first, second)
	}
}
