// Package links resolves legacy hrefs to absolute URLs and classifies them
// as internal/external page or file links relative to a base origin.
package links

import (
	"net/url"
	"path"
	"strings"
)

// Class is the classification of an absolute URL relative to a base host.
type Class struct {
	Internal bool
	File     bool
}

// fileExtensions is the fixed set of extensions treated as downloadable
// documents/media rather than page routes.
var fileExtensions = map[string]bool{
	"pdf": true, "doc": true, "docx": true,
	"xls": true, "xlsx": true, "ppt": true, "pptx": true,
	"rtf": true, "txt": true, "zip": true, "rar": true,
	"mp4": true, "webm": true, "ogg": true, "mp3": true,
}

// nonFetchableSchemes are returned unchanged by Resolve and never downloaded.
var nonFetchableSchemes = []string{"mailto:", "tel:", "data:", "blob:"}

// Skippable reports whether the href carries no navigable target at all:
// empty strings, pure fragments, and javascript pseudo-links.
func Skippable(href string) bool {
	trimmed := strings.TrimSpace(href)
	if trimmed == "" {
		return true
	}
	if strings.HasPrefix(trimmed, "#") {
		return true
	}
	return strings.HasPrefix(strings.ToLower(trimmed), "javascript:")
}

// NonFetchable reports whether the href uses a scheme that is navigable but
// never fetched (mailto, tel, data, blob).
func NonFetchable(href string) bool {
	lower := strings.ToLower(strings.TrimSpace(href))
	for _, scheme := range nonFetchableSchemes {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	return false
}

// Resolve turns an href found in legacy markup into an absolute URL against
// the base origin. Already-absolute and non-fetchable hrefs are returned
// unchanged; protocol-relative hrefs adopt the base scheme; root-relative
// and bare-relative paths are appended to the base origin.
func Resolve(href string, base *url.URL) string {
	trimmed := strings.TrimSpace(href)
	lower := strings.ToLower(trimmed)

	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return trimmed
	case strings.HasPrefix(trimmed, "//"):
		return base.Scheme + ":" + trimmed
	case NonFetchable(trimmed):
		return trimmed
	case strings.HasPrefix(trimmed, "/"):
		return origin(base) + trimmed
	default:
		return origin(base) + "/" + trimmed
	}
}

// Classify reports whether the absolute URL is internal to the base host and
// whether its path names a recognized file extension. Unparseable URLs are
// treated as external pages.
func Classify(absURL, baseHost string) Class {
	u, err := url.Parse(absURL)
	if err != nil {
		return Class{Internal: false, File: false}
	}
	return Class{
		Internal: u.Host == "" || SameHost(u.Host, baseHost),
		File:     IsFilePath(u.Path),
	}
}

// SameHost compares two hosts case-insensitively, tolerating a www. prefix
// on either side.
func SameHost(host, baseHost string) bool {
	h := strings.ToLower(host)
	b := strings.ToLower(baseHost)
	if h == b {
		return true
	}
	return h == "www."+b || b == "www."+h
}

// IsFilePath reports whether the path's extension is in the recognized
// document/media set. Extensionless paths are assumed to be page routes.
func IsFilePath(p string) bool {
	return fileExtensions[Ext(p)]
}

// Ext returns the lowercase extension of a path without the leading dot.
func Ext(p string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
}

// PathFor returns the root-relative form of an absolute URL (path plus any
// query string), used when rewriting internal page links.
func PathFor(absURL string) string {
	u, err := url.Parse(absURL)
	if err != nil {
		return absURL
	}
	p := u.Path
	if p == "" {
		p = "/"
	}
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return p
}

// origin returns scheme://host for the base URL.
func origin(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}
