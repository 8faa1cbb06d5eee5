package cli

import (
	"fmt"
	"strings"

	"go-site-importer/internal/importer"

	"github.com/spf13/cobra"
)

// navbarMenu is the menu name the --navbar shortcut imports into.
const navbarMenu = "NAVBAR"

func newSitemapImportCmd() *cobra.Command {
	var (
		sitemapURL     string
		sitemapFile    string
		baseURL        string
		menu           string
		wipe           bool
		truncate       bool
		updateExisting bool
		dryRun         bool
		navbar         bool
		navbarTitles   string
	)

	cmd := &cobra.Command{
		Use:   "sitemap-import",
		Short: "Import the legacy sitemap tree as pages and menu items",
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
			nodes, err := app.loadSitemap(ctx, sitemapURL, sitemapFile)
			if err != nil {
				return err
			}

			opts := importer.SitemapOptions{
				Menu:           menu,
				UpdateExisting: updateExisting,
				DryRun:         dryRun,
				Truncate:       truncate,
				Wipe:           wipe,
			}
			if navbar {
				opts.Menu = navbarMenu
			}
			if navbarTitles != "" {
				for _, title := range strings.Split(navbarTitles, ",") {
					if trimmed := strings.TrimSpace(title); trimmed != "" {
						opts.RootTitles = append(opts.RootTitles, trimmed)
					}
				}
			}
			if opts.Menu == "" {
				return fmt.Errorf("a menu name is required; pass --menu or --navbar")
			}

			imp := importer.NewSitemapImporter(importer.NewTxRunner(app.db), app.base, app.log)
			stats, err := imp.Run(ctx, nodes, opts)
			if err != nil {
				stats.Render(cmd.OutOrStdout())
				return err
			}
			return finish(cmd, stats)
		},
	}

	cmd.Flags().StringVar(&sitemapURL, "url", "", "sitemap page URL on the legacy site")
	cmd.Flags().StringVar(&sitemapFile, "file", "", "local sitemap HTML file")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "legacy site base origin")
	cmd.Flags().StringVar(&menu, "menu", "", "target menu name")
	cmd.Flags().BoolVar(&wipe, "wipe", false, "delete ALL menu items and pages before importing")
	cmd.Flags().BoolVar(&truncate, "truncate", false, "delete the target menu's items before importing")
	cmd.Flags().BoolVar(&updateExisting, "update-existing", false, "overwrite title and parent on existing pages")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "classify and count without writing")
	cmd.Flags().BoolVar(&navbar, "navbar", false, fmt.Sprintf("import into the %s menu", navbarMenu))
	cmd.Flags().StringVar(&navbarTitles, "navbar-titles", "", "comma-separated allow-list of top-level titles")
	return cmd
}
