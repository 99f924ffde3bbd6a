// Package commands implements the manode CLI's subcommands.
package commands

import (
	"github.com/spf13/cobra"
)

// Version information injected at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "manode <state-dir>",
	Short: "manode - a storage node in a monitored file-replication network",
	Long: `manode runs a storage node: it registers with a manager, reports its
inventory and capacity to an assigned monitor, pulls replica copies the
monitor directs it to hold, and pushes newly uploaded files outward for
replication.

Use "manode [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called once by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(inventoryCmd)
	rootCmd.AddCommand(versionCmd)
}
