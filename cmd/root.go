package cmd

import (
	"github.com/marut/grasp/internal/api"
	"github.com/marut/grasp/internal/store"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "grasp",
	Short: "Learn documents as knowledge graphs",
	Long:  "Grasp is a terminal client for a knowledge-graph learning service: upload a document, watch the graph build, then quiz yourself concept by concept.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("server", "", "Graph service base URL (overrides GRASP_SERVER env var)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides GRASP_DB env var)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(historiesCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(updateCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then GRASP_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// resolveConfig builds the API config from env, letting --server win.
func resolveConfig(cmd *cobra.Command) api.Config {
	cfg := api.ConfigFromEnv()
	if u, _ := cmd.Flags().GetString("server"); u != "" {
		cfg.BaseURL = u
	}
	return cfg
}
