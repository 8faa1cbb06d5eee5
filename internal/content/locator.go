package content

import (
	"github.com/PuerkitoBio/goquery"
)

// Locator holds the selectors and marker names that identify the content
// region of a legacy template family. The defaults target the fixed
// table-based layout the old site was built on; other template families can
// supply their own Locator without touching the extractor.
type Locator struct {
	// ContainerSelectors name the "main content" containers, tried in order.
	ContainerSelectors []string
	// DateSelectors name the elements that carry the publication date label.
	DateSelectors []string
	// ChromeSelectors match page chrome removed outright from the content
	// region (print buttons, breadcrumbs, status bars).
	ChromeSelectors []string
	// OrnamentNames are filename substrings of decorative images that must
	// never be picked up by the fallback preview-image heuristic.
	OrnamentNames []string
}

// DefaultLocator returns the marker set for the legacy table layout.
func DefaultLocator() Locator {
	return Locator{
		ContainerSelectors: []string{".middle_second", "#content", ".content"},
		DateSelectors:      []string{".date", ".news_date", ".data"},
		ChromeSelectors:    []string{".print", ".print_block", ".path", ".breadcrumbs", ".status_bar"},
		OrnamentNames:      []string{"logo", "spacer", "arrow", "dot", "bullet", "print", "pix", "corner", "bg_"},
	}
}

// container returns the first matching main-content container, or nil.
func (l Locator) container(doc *goquery.Document) *goquery.Selection {
	for _, sel := range l.ContainerSelectors {
		if found := doc.Find(sel).First(); found.Length() > 0 {
			return found
		}
	}
	return nil
}

// region applies the ordered content-location fallbacks inside a container:
// the table cell enclosing the first h1, then the first valign=top cell of
// the container's first table, then the container itself. A nil return means
// the page has no extractable content.
func (l Locator) region(container *goquery.Selection) *goquery.Selection {
	if container == nil {
		return nil
	}

	if h1 := container.Find("h1").First(); h1.Length() > 0 {
		if cell := h1.Closest("td"); cell.Length() > 0 {
			return cell
		}
	}

	if table := container.Find("table").First(); table.Length() > 0 {
		if cell := table.Find(`td[valign="top"]`).First(); cell.Length() > 0 {
			return cell
		}
	}

	return container
}

// ornament reports whether an image filename is a known decorative asset.
func (l Locator) ornament(name string) bool {
	for _, marker := range l.OrnamentNames {
		if containsFold(name, marker) {
			return true
		}
	}
	return false
}
