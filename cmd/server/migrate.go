package main

import (
	"habit_tracker/internal/platform/config"
	"habit_tracker/internal/platform/database"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Run database migrations",
		Long:      `Apply pending migrations (up, the default), roll back the latest one (down) or print their status.`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE:      runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, args []string) error {
	direction := "up"
	if len(args) == 1 {
		direction = args[0]
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	cmd.Println("Connecting to database...")
	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer db.Close()

	switch direction {
	case "down":
		err = database.MigrateDown(ctx, db)
	case "status":
		err = database.MigrationStatus(ctx, db)
	default:
		err = database.Migrate(ctx, db)
	}
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("direction", direction).Wrap(err)
	}

	cmd.Printf("Migrations %s completed successfully\n", direction)
	return nil
}
