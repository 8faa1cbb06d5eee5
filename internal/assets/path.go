package assets

import (
	"mime"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// reUnsafeQuery matches query-string characters that cannot appear in a
// filename suffix.
var reUnsafeQuery = regexp.MustCompile(`[^a-zA-Z0-9_\-]+`)

// extByContentType maps declared Content-Type values to extensions. The
// table covers the types legacy sites actually serve; anything else falls
// through to content sniffing.
var extByContentType = map[string]string{
	"application/pdf":    "pdf",
	"application/msword": "doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "docx",
	"application/vnd.ms-excel": "xls",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": "xlsx",
	"application/vnd.ms-powerpoint":                                     "ppt",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": "pptx",
	"application/rtf":  "rtf",
	"application/zip":  "zip",
	"application/x-rar-compressed": "rar",
	"text/plain":       "txt",
	"image/jpeg":       "jpg",
	"image/png":        "png",
	"image/gif":        "gif",
	"image/webp":       "webp",
	"image/svg+xml":    "svg",
	"video/mp4":        "mp4",
	"video/webm":       "webm",
	"audio/mpeg":       "mp3",
	"audio/ogg":        "ogg",
}

// TargetPath derives the storage-relative path an asset URL is saved under.
// The rule is the cross-run dedup key and must stay stable:
// {dir}/{url path, percent-decoded, with ".." and backslashes stripped}
// {"__" + sanitized query when present}{"." + guessed extension when the
// path has none}.
func TargetPath(absURL, dir string, header http.Header, body []byte) string {
	u, err := url.Parse(absURL)
	if err != nil {
		return path.Join(dir, sanitizeRelPath(absURL))
	}

	rel := sanitizeRelPath(u.Path)
	if rel == "" {
		rel = "index"
	}

	target := strings.TrimRight(dir, "/") + "/" + rel
	if u.RawQuery != "" {
		target += "__" + sanitizeQuery(u.RawQuery)
	}
	if path.Ext(rel) == "" {
		if ext := guessExtension(header, body); ext != "" {
			target += "." + ext
		}
	}
	return target
}

// sanitizeRelPath percent-decodes a URL path and strips traversal sequences
// so the result can never escape the target directory.
func sanitizeRelPath(p string) string {
	decoded, err := url.PathUnescape(p)
	if err != nil {
		decoded = p
	}
	decoded = strings.ReplaceAll(decoded, "\\", "")
	decoded = strings.ReplaceAll(decoded, "..", "")
	return strings.Trim(decoded, "/")
}

// sanitizeQuery turns a raw query string into a filename-safe suffix, so
// ?v=1 variants of the same path do not collide.
func sanitizeQuery(q string) string {
	return strings.Trim(reUnsafeQuery.ReplaceAllString(q, "_"), "_")
}

// guessExtension picks an extension for an extensionless URL path:
// Content-Disposition filename first, then the declared Content-Type,
// then sniffing the body bytes, then a generic fallback.
func guessExtension(header http.Header, body []byte) string {
	if cd := header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if ext := path.Ext(params["filename"]); ext != "" {
				return strings.ToLower(strings.TrimPrefix(ext, "."))
			}
		}
	}

	if ct := header.Get("Content-Type"); ct != "" {
		if media, _, err := mime.ParseMediaType(ct); err == nil {
			if ext, ok := extByContentType[media]; ok {
				return ext
			}
		}
	}

	if len(body) > 0 {
		if ext := mimetype.Detect(body).Extension(); ext != "" {
			return strings.TrimPrefix(ext, ".")
		}
	}
	return "bin"
}

// attachmentDisposition reports whether the response declares itself an
// attachment, which overrides HTML sniffing: some legacy servers send
// downloads with a text/html Content-Type.
func attachmentDisposition(header http.Header) bool {
	return strings.Contains(strings.ToLower(header.Get("Content-Disposition")), "attachment")
}

// looksLikeHTML reports whether the leading bytes of a body are an HTML
// document rather than binary content.
func looksLikeHTML(body []byte) bool {
	head := strings.ToLower(strings.TrimSpace(string(body[:min(len(body), 256)])))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}
