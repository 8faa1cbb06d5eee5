package content

import "github.com/microcosm-cc/bluemonday"

// NewPolicy builds the sanitization policy applied to extracted body HTML
// before it is persisted. It keeps the structural and inline elements legacy
// pages actually use and the attributes the rewriter emits; scripts, styles
// and event handlers never survive.
func NewPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "hr",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li",
		"table", "thead", "tbody", "tfoot", "tr", "td", "th", "caption",
		"b", "i", "u", "s", "strong", "em", "sub", "sup",
		"blockquote", "pre", "code",
		"span", "div",
		"a", "img",
		"video", "audio", "source",
	)

	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowAttrs("src", "alt", "title", "width", "height").OnElements("img")
	p.AllowAttrs("colspan", "rowspan").OnElements("td", "th")
	p.AllowAttrs("src", "controls", "width", "height").OnElements("video", "audio")
	p.AllowAttrs("src", "type").OnElements("source")
	p.AllowAttrs("action", "method").OnElements("form")
	p.AllowElements("form")

	return p
}
