package importer

import (
	"io"

	"go-site-importer/internal/content"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Stats accumulates the outcome counters of one run. Every operation
// returns the same shape so commands can render and evaluate them uniformly.
type Stats struct {
	NodesVisited int

	PagesCreated   int
	PagesUpdated   int
	PagesSkipped   int
	PagesFailed    int
	ContentMissing int

	MenuItemsCreated int
	MenuItemsUpdated int

	LinksInternal int
	LinksExternal int
	LinksFile     int

	ImagesDownloaded int
	ImagesSkipped    int
	ImagesFailed     int

	FilesDownloaded int
	FilesSkipped    int
	FilesFailed     int

	PagesRelinked int
}

// AddTally merges one extraction's reference counters into the run stats.
func (s *Stats) AddTally(t content.Tally) {
	s.LinksInternal += t.LinksInternal
	s.LinksExternal += t.LinksExternal
	s.LinksFile += t.LinksFile
	s.ImagesDownloaded += t.ImagesDownloaded
	s.ImagesSkipped += t.ImagesSkipped
	s.ImagesFailed += t.ImagesFailed
	s.FilesDownloaded += t.FilesDownloaded
	s.FilesSkipped += t.FilesSkipped
	s.FilesFailed += t.FilesFailed
}

// Failed returns the aggregate failed-item count used for the exit-code
// policy of download-oriented commands.
func (s *Stats) Failed() int {
	return s.PagesFailed + s.ImagesFailed + s.FilesFailed
}

// Render writes the run summary as a table.
func (s *Stats) Render(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Metric", "Count"})
	t.AppendRows([]table.Row{
		{"Nodes visited", s.NodesVisited},
		{"Pages created", s.PagesCreated},
		{"Pages updated", s.PagesUpdated},
		{"Pages skipped", s.PagesSkipped},
		{"Pages failed", s.PagesFailed},
		{"Content missing", s.ContentMissing},
		{"Menu items created", s.MenuItemsCreated},
		{"Menu items updated", s.MenuItemsUpdated},
		{"Links internal", s.LinksInternal},
		{"Links external", s.LinksExternal},
		{"Links file", s.LinksFile},
		{"Images downloaded", s.ImagesDownloaded},
		{"Images skipped", s.ImagesSkipped},
		{"Images failed", s.ImagesFailed},
		{"Files downloaded", s.FilesDownloaded},
		{"Files skipped", s.FilesSkipped},
		{"Files failed", s.FilesFailed},
		{"Pages relinked", s.PagesRelinked},
	})
	t.Render()
}
