package cli

import (
	"go-site-importer/internal/importer"

	"github.com/spf13/cobra"
)

func newRelinkFileLinksCmd() *cobra.Command {
	var (
		baseURL   string
		fileDir   string
		limit     int
		pageIDs   []int64
		showLinks bool
	)

	cmd := &cobra.Command{
		Use:   "relink-file-links",
		Short: "Download internal file links of stored pages and rewrite them to storage paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(baseURL)
			if err != nil {
				return err
			}
			defer app.Close()

			if _, err := app.requireBase(); err != nil {
				return err
			}
			if fileDir == "" {
				fileDir = app.cfg.Import.FileDir
			}

			r := importer.NewFileRelinker(app.stores.Pages, app.downloader, app.base, app.cfg.Storage.PublicPrefix, app.log)
			stats, err := r.Run(cmd.Context(), importer.RelinkOptions{
				PageIDs:   pageIDs,
				Limit:     limit,
				ShowLinks: showLinks,
				FileDir:   fileDir,
			})
			if err != nil {
				stats.Render(cmd.OutOrStdout())
				return err
			}
			return finish(cmd, stats)
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "legacy site base origin")
	cmd.Flags().StringVar(&fileDir, "file-dir", "", "storage-relative file directory")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of pages to process (0 = unbounded)")
	cmd.Flags().Int64SliceVar(&pageIDs, "page-id", nil, "restrict the run to these page ids (repeatable)")
	cmd.Flags().BoolVar(&showLinks, "show-links", false, "log every rewritten link")
	return cmd
}

func newRelinkPageMP4Cmd() *cobra.Command {
	var (
		pageURL   string
		baseURL   string
		fileDir   string
		showLinks bool
	)

	cmd := &cobra.Command{
		Use:   "relink-page-mp4",
		Short: "Stream-download the mp4 references of one page and rewrite them",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(baseURL)
			if err != nil {
				return err
			}
			defer app.Close()

			if _, err := app.requireBase(); err != nil {
				return err
			}
			if fileDir == "" {
				fileDir = app.cfg.Import.FileDir
			}

			r := importer.NewMP4Relinker(app.stores.Pages, app.downloader, app.base, app.cfg.Storage.PublicPrefix, app.log)
			stats, err := r.Run(cmd.Context(), importer.MP4Options{
				PageURL:   pageURL,
				ShowLinks: showLinks,
				FileDir:   fileDir,
			})
			if err != nil {
				stats.Render(cmd.OutOrStdout())
				return err
			}
			return finish(cmd, stats)
		},
	}

	cmd.Flags().StringVar(&pageURL, "page-url", "", "normalized URL of the page to process")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "legacy site base origin")
	cmd.Flags().StringVar(&fileDir, "file-dir", "", "storage-relative file directory")
	cmd.Flags().BoolVar(&showLinks, "show-links", false, "log every rewritten reference")
	_ = cmd.MarkFlagRequired("page-url")
	return cmd
}
