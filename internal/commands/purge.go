package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/expense-importer/pkg/config"
	"github.com/FACorreiaa/expense-importer/pkg/cron"
	"github.com/FACorreiaa/expense-importer/pkg/storage"
)

func newPurgeCommand() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "purge-uploads",
		Short: "Delete archived uploads older than the retention period",
		Long: `Run the upload retention job once, outside the server's schedule.
The retention period comes from RETENTION_UPLOAD_DAYS unless --days is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("days") {
				cfg.Retention.UploadDays = days
			}
			if cfg.Retention.UploadDays <= 0 {
				return fmt.Errorf("retention must be at least one day, got %d", cfg.Retention.UploadDays)
			}

			store, err := storage.New(&cfg.Storage)
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("upload archiving is disabled")
			}

			logger := newLogger(cmd.ErrOrStderr(), cfg.Observability.LogLevel)
			retention := time.Duration(cfg.Retention.UploadDays) * 24 * time.Hour
			removed, err := cron.NewScheduler(store, retention, logger).RunNow(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "removed %d uploads\n", removed)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "retention in days, overriding RETENTION_UPLOAD_DAYS")
	return cmd
}
