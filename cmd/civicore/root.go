package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Civicore CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "civicore",
		Short: "Civicore - a community volunteering platform",
		Long: `Civicore is the backend for a community volunteering platform:
NGOs publish events, volunteers join them, and event pages carry a
message board. Accounts use email/password credentials and signed
bearer tokens.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
