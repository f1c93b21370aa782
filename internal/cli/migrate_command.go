package cli

import (
	"fmt"

	"mediashelf/internal/logging"
	"mediashelf/internal/repository"

	"github.com/spf13/cobra"
)

func NewMigrateCommand(globalOptions *GlobalOptions) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Manage database schema versions. Use subcommands 'up', 'down', or 'status'.`,
	}

	subcommands := []struct{ use, short string }{
		{"up", "Migrate the database to the most recent version"},
		{"down", "Roll back the database by one version"},
		{"status", "Dump the migration status for the current DB"},
	}
	for _, sub := range subcommands {
		command := sub.use
		migrateCmd.AddCommand(&cobra.Command{
			Use:   command,
			Short: sub.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigration(command, globalOptions)
			},
		})
	}

	return migrateCmd
}

func runMigration(command string, globalOptions *GlobalOptions) error {
	repo, err := repository.NewRepository(globalOptions.Conf)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer repo.Close()

	logging.Log.Infof("Running migration command: %s", command)

	switch command {
	case "up":
		err = repo.MigrateUp()
	case "down":
		err = repo.MigrateDown()
	case "status":
		err = repo.MigrationStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	logging.Log.Info("Migration operation completed successfully.")
	return nil
}
