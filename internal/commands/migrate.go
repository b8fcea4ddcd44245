package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/expense-importer/pkg/config"
	"github.com/FACorreiaa/expense-importer/pkg/db"
)

var migrateCommands = map[string]bool{"up": true, "down": true, "status": true, "version": true}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status|version]",
		Short:     "Manage the database schema",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down", "status", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) == 1 {
				command = args[0]
			}
			if !migrateCommands[command] {
				return fmt.Errorf("unknown migrate command %q", command)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(os.Stderr, cfg.Observability.LogLevel)

			database, err := db.New(cmd.Context(), db.Config{DSN: cfg.Database.DSN()}, logger)
			if err != nil {
				return err
			}
			defer database.Close()

			return database.Migrate(cmd.Context(), command)
		},
	}
}
