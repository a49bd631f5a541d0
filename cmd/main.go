package main

import (
	"os"

	_ "session_auth/docs"

	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// @title        session-auth API
// @version      1.0
// @description  User registration and cookie-session authentication.
// @BasePath     /
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd creates the root command; running it without a subcommand serves HTTP.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "session-auth",
		Short:        "User registration and session authentication service",
		SilenceUsage: true,
		RunE:         runServe,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default configs/config.yml)")
	addServeFlags(cmd.Flags())

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	return cmd
}
