package cmd

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "slate",
	Short: "Schema-driven layout server for CRM front-ends",
	Long: `slate serves layout configurations to CRM front-ends: it loads and
validates YAML layout schemas, resolves them into renderable component
trees, and tracks each user's active layout per entity type.

The serve command runs the HTTP server; validate checks layout schemas
offline and can apply safe auto-fixes.`,
	SilenceUsage: true,
}

// Execute runs the root command. cobra prints the error; the caller only
// needs the exit status.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to configuration file")
}
