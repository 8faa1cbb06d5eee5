// Package sitemap parses a manually-authored HTML sitemap page (a nested
// <ul> of links) into an ordered tree of nodes. This is not sitemap.xml:
// legacy sites of the era carried a hand-written "Карта сайта" page whose
// list nesting mirrors the navigational structure.
package sitemap

import (
	"fmt"
	"regexp"
	"strings"

	"go-site-importer/internal/encoding"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/afero"
)

var reWhitespace = regexp.MustCompile(`\s+`)

// Node is one entry of the parsed sitemap tree.
type Node struct {
	Title    string
	Href     string
	Children []Node
}

// headingMarkers identify the heading that precedes the sitemap list.
var headingMarkers = []string{"site map", "sitemap", "карта сайта"}

// containerSelectors are tried in order when no marked heading is found.
var containerSelectors = []string{"#content ul", ".content ul", ".middle_second ul"}

// Parse extracts the sitemap tree from an HTML document. The root <ul> is
// located by preference order: a list following a "Site map"/"Карта сайта"
// heading, the first list inside a known content container, the first list
// in the document. Returns nil when the document has no list at all.
func Parse(html string) ([]Node, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse sitemap html: %w", err)
	}

	root := findRootList(doc)
	if root == nil || root.Length() == 0 {
		return nil, nil
	}
	return parseList(root), nil
}

// ParseFile reads a local sitemap file, normalizes its encoding, and parses it.
func ParseFile(fs afero.Fs, path string) ([]Node, error) {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sitemap file %s: %w", path, err)
	}
	return Parse(encoding.Normalize(raw))
}

// findRootList applies the three-tier lookup for the sitemap's root <ul>.
func findRootList(doc *goquery.Document) *goquery.Selection {
	var marked *goquery.Selection
	doc.Find("h1, h2, h3").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		text := strings.ToLower(CollapseWhitespace(h.Text()))
		for _, marker := range headingMarkers {
			if strings.Contains(text, marker) {
				if ul := h.NextAllFiltered("ul").First(); ul.Length() > 0 {
					marked = ul
					return false
				}
				// The list may be wrapped in a div that follows the heading.
				if ul := h.Parent().Find("ul").First(); ul.Length() > 0 {
					marked = ul
					return false
				}
			}
		}
		return true
	})
	if marked != nil {
		return marked
	}

	for _, sel := range containerSelectors {
		if ul := doc.Find(sel).First(); ul.Length() > 0 {
			return ul
		}
	}
	return doc.Find("ul").First()
}

// parseList converts one <ul> into an ordered node slice, recursing into
// nested lists. Items without a usable title or href are skipped.
func parseList(ul *goquery.Selection) []Node {
	var nodes []Node
	ul.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		link := li.ChildrenFiltered("a").First()
		if link.Length() == 0 {
			link = li.Find("a").First()
		}
		if link.Length() == 0 {
			return
		}

		title := CollapseWhitespace(link.Text())
		href := strings.TrimSpace(link.AttrOr("href", ""))
		if title == "" || href == "" {
			return
		}

		node := Node{Title: title, Href: href}
		li.ChildrenFiltered("ul").Each(func(_ int, nested *goquery.Selection) {
			node.Children = append(node.Children, parseList(nested)...)
		})
		if len(node.Children) == 0 {
			if nested := li.Find("ul").First(); nested.Length() > 0 {
				node.Children = parseList(nested)
			}
		}
		nodes = append(nodes, node)
	})
	return nodes
}

// CollapseWhitespace trims the string and folds internal whitespace runs
// into single spaces.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))
}
