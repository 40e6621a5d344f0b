package main

import (
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "habit-server",
		Short: "Habit tracker HTTP API",
		Long: `habit-server runs the habit tracker REST API: registration, login,
and token-protected habit, tag and user routes backed by PostgreSQL.`,
		SilenceUsage: true,
		// Running without a subcommand starts the server.
		RunE: runServe,
	}
	cmd.Flags().AddFlagSet(serveFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	return cmd
}
