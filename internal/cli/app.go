package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"go-site-importer/internal/assets"
	"go-site-importer/internal/cache"
	"go-site-importer/internal/config"
	"go-site-importer/internal/content"
	"go-site-importer/internal/data"
	"go-site-importer/internal/encoding"
	"go-site-importer/internal/fetch"
	"go-site-importer/internal/importer"
	"go-site-importer/internal/logger"
	"go-site-importer/internal/sitemap"
	"go-site-importer/internal/storage"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// app bundles the wired pipeline dependencies for one command invocation.
type app struct {
	cfg        *config.Config
	log        logger.Logger
	db         *sqlx.DB
	pageCache  *cache.Cache
	client     *fetch.Client
	blobs      *storage.DiskStore
	downloader *assets.Downloader
	stores     importer.Stores
	base       *url.URL
}

// newApp loads configuration and wires the shared dependencies. baseURL
// overrides the configured import.base_url; an unparseable base URL is a
// setup error.
func newApp(baseURL string) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log := logger.New(cfg.Log, os.Stderr)

	a := &app{cfg: cfg, log: log}

	if baseURL == "" {
		baseURL = cfg.Import.BaseURL
	}
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid base url %q", baseURL)
		}
		a.base = u
	}

	a.client = fetch.NewClient(cfg.HTTP, log)
	if cfg.Cache.Enabled {
		pc, err := cache.New(cfg.Cache)
		if err != nil {
			log.Warn(fmt.Sprintf("page cache disabled: %v", err))
		} else {
			a.pageCache = pc
			a.client.WithPageCache(pc)
		}
	}
	a.blobs = storage.NewDiskStore(afero.NewOsFs(), cfg.Storage.Root, cfg.Storage.PublicPrefix)

	db, err := data.NewDB(cfg.DB.DSN)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.db = db
	a.stores = importer.NewStores(db)
	a.downloader = assets.NewDownloader(a.client, a.blobs, data.NewSQLStoredFileRepository(db), log)
	return a, nil
}

// Close releases the database and cache handles.
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.pageCache != nil {
		a.pageCache.Close()
	}
}

// requireBase returns the base origin or a setup error when none is
// configured.
func (a *app) requireBase() (*url.URL, error) {
	if a.base == nil {
		return nil, fmt.Errorf("a base url is required; pass --base-url or set import.base_url")
	}
	return a.base, nil
}

// extractor builds the content extractor for the configured base origin.
func (a *app) extractor() *content.Extractor {
	return content.NewExtractor(a.downloader, a.base, content.DefaultLocator(), a.log)
}

// loadSitemap parses the sitemap tree either from a remote URL or a local
// file. Exactly one source must be given.
func (a *app) loadSitemap(ctx context.Context, remoteURL, file string) ([]sitemap.Node, error) {
	switch {
	case remoteURL != "" && file != "":
		return nil, fmt.Errorf("pass either a sitemap url or a sitemap file, not both")
	case remoteURL != "":
		body, err := a.client.GetPage(ctx, remoteURL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch sitemap %s: %w", remoteURL, err)
		}
		return sitemap.Parse(encoding.Normalize(body))
	case file != "":
		return sitemap.ParseFile(afero.NewOsFs(), file)
	default:
		return nil, fmt.Errorf("a sitemap url or file is required")
	}
}

// crawlOptions maps the shared command flags onto the crawler options.
func (a *app) crawlOptions(disk bool, imageDir string, limit int, updateExisting bool) importer.CrawlOptions {
	if imageDir == "" {
		imageDir = a.cfg.Import.ImageDir
	}
	return importer.CrawlOptions{
		UpdateExisting: updateExisting,
		DownloadImages: disk,
		ImageDir:       imageDir,
		FileDir:        a.cfg.Import.FileDir,
		Limit:          limit,
	}
}

// finish renders the stats and applies the exit-code policy: any failed
// items surface as an error after the table is printed.
func finish(cmd *cobra.Command, stats *importer.Stats) error {
	stats.Render(cmd.OutOrStdout())
	if n := stats.Failed(); n > 0 {
		return fmt.Errorf("%d items failed; see the run summary above", n)
	}
	return nil
}
