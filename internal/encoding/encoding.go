// Package encoding converts legacy HTML into UTF-8 before any parsing.
// Legacy pages frequently declare windows-1251 or KOI8-R, and sometimes
// declare one charset while actually using another, so conversion is
// best-effort: on any failure the input is returned unchanged and the
// HTML parser is left to cope with the mojibake.
package encoding

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/htmlindex"
)

var (
	reMetaCharset = regexp.MustCompile(`(?i)<meta[^>]+charset\s*=\s*["']?\s*([a-zA-Z0-9_\-]+)`)
)

// sniffable lists the charsets the statistical detector is allowed to pick.
// Keys are chardet's charset names, lowercased.
var sniffable = map[string]bool{
	"utf-8":        true,
	"windows-1251": true,
	"koi8-r":       true,
	"iso-8859-1":   true,
}

// Normalize returns raw converted to UTF-8. It prefers the charset declared
// in a <meta> tag, falls back to statistical detection, and returns the
// input unchanged when the content is already UTF-8 or conversion fails.
func Normalize(raw []byte) string {
	name := DeclaredCharset(raw)
	if name == "" {
		name = sniffCharset(raw)
	}

	if name == "" || isUTF8Name(name) {
		return string(raw)
	}

	converted, ok := decode(raw, name)
	if !ok {
		return string(raw)
	}
	return converted
}

// DeclaredCharset extracts the charset declared in a <meta charset=...> or
// <meta http-equiv="Content-Type" content="...; charset=..."> tag. Returns
// an empty string when no declaration is found. Only the document head is
// scanned; a charset declaration past the first 4KB is ignored.
func DeclaredCharset(raw []byte) string {
	head := raw
	if len(head) > 4096 {
		head = head[:4096]
	}
	if m := reMetaCharset.FindSubmatch(head); m != nil {
		return strings.ToLower(string(m[1]))
	}
	return ""
}

// sniffCharset runs the statistical detector and returns the best candidate
// restricted to the charsets legacy pages are known to use. An empty string
// means detection failed or produced an unexpected charset.
func sniffCharset(raw []byte) string {
	detector := chardet.NewTextDetector()
	results, err := detector.DetectAll(raw)
	if err != nil {
		return ""
	}
	for _, r := range results {
		name := strings.ToLower(r.Charset)
		if sniffable[name] {
			return name
		}
	}
	return ""
}

// decode converts raw from the named charset to UTF-8. The second return
// value is false when the charset is unknown or conversion fails.
func decode(raw []byte, name string) (string, bool) {
	enc, err := htmlindex.Get(name)
	if err != nil || enc == nil {
		return "", false
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	if !utf8.Valid(out) {
		return "", false
	}
	return string(out), true
}

func isUTF8Name(name string) bool {
	switch strings.ToLower(name) {
	case "utf-8", "utf8":
		return true
	}
	return false
}
