package cli

import (
	"fmt"

	"go-site-importer/internal/config"
	"go-site-importer/internal/data"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	var migrationsPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if err := data.ApplyMigrations(cfg.DB.DSN, migrationsPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}

	cmd.Flags().StringVar(&migrationsPath, "path", "migrations", "directory holding the migration files")
	return cmd
}

func newWipePagesCmd() *cobra.Command {
	var pageType string

	cmd := &cobra.Command{
		Use:   "wipe-pages",
		Short: "Bulk-delete every page of one type",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp("")
			if err != nil {
				return err
			}
			defer app.Close()

			count, err := app.stores.Pages.BulkDeleteByType(cmd.Context(), pageType)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d pages of type %q\n", count, pageType)
			return nil
		},
	}

	cmd.Flags().StringVar(&pageType, "type", "", "page type to delete (page, news, document)")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}
