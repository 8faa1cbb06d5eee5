// Package cli defines the command tree of the import pipeline. Every
// command prints its run statistics regardless of outcome; a non-zero exit
// is reserved for setup errors and nonzero failed-item counts.
package cli

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "importer",
		Short:        "Import a legacy site's structure and content into the new CMS",
		SilenceUsage: true,
	}
	cmd.AddCommand(
		newSitemapImportCmd(),
		newTreeContentImportCmd(),
		newPageContentImportCmd(),
		newNewsImportCmd(),
		newRelinkFileLinksCmd(),
		newRelinkPageMP4Cmd(),
		newMigrateCmd(),
		newWipePagesCmd(),
	)
	return cmd
}

// Execute runs the command tree.
func Execute() error {
	return newRootCmd().Execute()
}
