package cli

import (
	"go-site-importer/internal/importer"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newTreeContentImportCmd() *cobra.Command {
	var (
		sitemapFile    string
		baseURL        string
		depth          int
		disk           bool
		imageDir       string
		limit          int
		updateExisting bool
	)

	cmd := &cobra.Command{
		Use:   "tree-content-import",
		Short: "Crawl and import page content breadth-first from the sitemap tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(baseURL)
			if err != nil {
				return err
			}
			defer app.Close()

			if _, err := app.requireBase(); err != nil {
				return err
			}

			ctx := cmd.Context()
			nodes, err := app.loadSitemap(ctx, "", sitemapFile)
			if err != nil {
				return err
			}

			crawler := importer.NewTreeCrawler(app.client, app.extractor(), app.stores, app.base, app.log)
			stats, err := crawler.Run(ctx, nodes, importer.TreeOptions{
				CrawlOptions: app.crawlOptions(disk, imageDir, limit, updateExisting),
				Depth:        depth,
			})
			if err != nil {
				stats.Render(cmd.OutOrStdout())
				return err
			}
			return finish(cmd, stats)
		},
	}

	cmd.Flags().StringVar(&sitemapFile, "sitemap-file", "", "local sitemap HTML file to seed the crawl")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "legacy site base origin")
	cmd.Flags().IntVar(&depth, "deep", 1, "crawl depth, 1..3")
	cmd.Flags().BoolVar(&disk, "disk", false, "download images to local storage")
	cmd.Flags().StringVar(&imageDir, "image-dir", "", "storage-relative image directory")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of pages to import (0 = unbounded)")
	cmd.Flags().BoolVar(&updateExisting, "update-existing", false, "refresh metadata on existing pages")
	return cmd
}

func newPageContentImportCmd() *cobra.Command {
	var (
		path           string
		baseURL        string
		disk           bool
		imageDir       string
		limit          int
		updateExisting bool
	)

	cmd := &cobra.Command{
		Use:   "page-content-import",
		Short: "Import saved legacy pages from a local directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(baseURL)
			if err != nil {
				return err
			}
			defer app.Close()

			if _, err := app.requireBase(); err != nil {
				return err
			}

			imp := importer.NewDirectoryImporter(afero.NewOsFs(), app.extractor(), app.stores, app.log)
			stats, err := imp.Run(cmd.Context(), importer.DirectoryOptions{
				CrawlOptions: app.crawlOptions(disk, imageDir, limit, updateExisting),
				Path:         path,
			})
			if err != nil {
				stats.Render(cmd.OutOrStdout())
				return err
			}
			return finish(cmd, stats)
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "directory holding saved legacy pages")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "legacy site base origin")
	cmd.Flags().BoolVar(&disk, "disk", false, "download images to local storage")
	cmd.Flags().StringVar(&imageDir, "image-dir", "", "storage-relative image directory")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of files to import (0 = unbounded)")
	cmd.Flags().BoolVar(&updateExisting, "update-existing", false, "refresh metadata on existing pages")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}

func newNewsImportCmd() *cobra.Command {
	var (
		start          int
		end            int
		baseURL        string
		disk           bool
		imageDir       string
		parentURL      string
		updateExisting bool
	)

	cmd := &cobra.Command{
		Use:   "news-import",
		Short: "Import news items from the legacy site's paginated list",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(baseURL)
			if err != nil {
				return err
			}
			defer app.Close()

			if _, err := app.requireBase(); err != nil {
				return err
			}

			crawler := importer.NewNewsCrawler(app.client, app.extractor(), app.stores, app.base, app.log)
			stats, err := crawler.Run(cmd.Context(), importer.NewsOptions{
				CrawlOptions: app.crawlOptions(disk, imageDir, 0, updateExisting),
				Start:        start,
				End:          end,
				ParentURL:    parentURL,
			})
			if err != nil {
				stats.Render(cmd.OutOrStdout())
				return err
			}
			return finish(cmd, stats)
		},
	}

	cmd.Flags().IntVar(&start, "start", 1, "first list page number")
	cmd.Flags().IntVar(&end, "end", 1, "last list page number")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "legacy site base origin")
	cmd.Flags().BoolVar(&disk, "disk", false, "download images to local storage")
	cmd.Flags().StringVar(&imageDir, "image-dir", "", "storage-relative image directory")
	cmd.Flags().StringVar(&parentURL, "parent-url", "", "URL of the page imported news are parented under")
	cmd.Flags().BoolVar(&updateExisting, "update-existing", false, "refresh metadata on existing pages")
	return cmd
}
