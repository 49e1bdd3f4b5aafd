package main

import (
	"os"

	"github.com/spf13/cobra"

	"library-backend/internal/platform/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:          "library-backend",
		Short:        "Library management API (catalog, members, lending)",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", config.DefaultPath, "path to config.yaml")

	root.AddCommand(
		newServeCmd(&cfgPath),
		newMigrateCmd(&cfgPath),
		newUserCmd(&cfgPath),
	)
	return root
}
