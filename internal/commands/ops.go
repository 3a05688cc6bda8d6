package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rupeeriser/budget-buddy/internal/backup"
	"github.com/rupeeriser/budget-buddy/internal/domain"
	infraBQ "github.com/rupeeriser/budget-buddy/internal/infra/bigquery"
	boltstore "github.com/rupeeriser/budget-buddy/internal/store/bolt"
)

var errExportDisabled = errors.New("BUDGET_BQ_PROJECT is not set")

func newMigrateCommand(env *environment) *cobra.Command {
	var appliedBy string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the BigQuery export tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := env.config()
			if err != nil {
				return err
			}
			if !cfg.ExportEnabled() {
				return errExportDisabled
			}
			log := env.logger(cmd, cfg)

			exporter, err := infraBQ.NewExporter(cmd.Context(), cfg.BigQueryProject, cfg.BigQueryDataset)
			if err != nil {
				return err
			}
			defer exporter.Close()

			applied, err := exporter.Migrate(cmd.Context(), appliedBy, log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) to %s.%s\n", applied, cfg.BigQueryProject, cfg.BigQueryDataset)
			return nil
		},
	}

	cmd.Flags().StringVar(&appliedBy, "applied-by", "budget-cli", "name recorded in schema_migrations")
	return cmd
}

func newBackupCommand(env *environment) *cobra.Command {
	var bucket string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Upload a snapshot of the bolt database to Cloud Storage",
		Long:  "Upload a snapshot of BUDGET_BOLT_PATH. The API server must not hold the database open.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := env.config()
			if err != nil {
				return err
			}
			if bucket == "" {
				bucket = cfg.BackupBucket
			}
			if bucket == "" {
				return errors.New("no bucket: pass --bucket or set BUDGET_BACKUP_BUCKET")
			}
			log := env.logger(cmd, cfg)

			db, err := boltstore.Open(cfg.BoltPath)
			if err != nil {
				return err
			}
			defer db.Close()

			gcs, err := backup.NewGCSStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer gcs.Close()

			uri, err := backup.Snapshot(cmd.Context(), db.DB(), gcs, bucket, time.Now(), log)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), uri)
			return nil
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "", "destination bucket (default BUDGET_BACKUP_BUCKET)")
	return cmd
}

func newRestoreCommand(env *environment) *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "restore <gs://bucket/backups/snapshot.db>",
		Short: "Replace the bolt database with a snapshot from Cloud Storage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := env.config()
			if err != nil {
				return err
			}
			if target == "" {
				target = cfg.BoltPath
			}
			log := env.logger(cmd, cfg)

			gcs, err := backup.NewGCSStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer gcs.Close()

			if err := backup.Restore(cmd.Context(), gcs, args[0], target, log); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %s to %s\n", backup.Filename(args[0]), target)
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "to", "", "database file to write (default BUDGET_BOLT_PATH)")
	return cmd
}

func newReportCommand(env *environment) *cobra.Command {
	var (
		userID string
		from   string
		to     string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show exported totals per category from BigQuery",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := env.config()
			if err != nil {
				return err
			}
			if !cfg.ExportEnabled() {
				return errExportDisabled
			}
			start, end, err := reportRange(from, to, time.Now())
			if err != nil {
				return err
			}
			if userID == "" {
				userID = cfg.DefaultUser
			}

			exporter, err := infraBQ.NewExporter(cmd.Context(), cfg.BigQueryProject, cfg.BigQueryDataset)
			if err != nil {
				return err
			}
			defer exporter.Close()

			totals, err := exporter.CategoryTotals(cmd.Context(), userID, start, end)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			color.New(color.Bold).Fprintf(w, "%s to %s for %s\n", start.Format(domain.DateLayout), end.Format(domain.DateLayout), userID)
			for _, t := range totals {
				c := color.New(color.FgRed)
				if t.Direction == string(domain.TypeIncome) {
					c = color.New(color.FgGreen)
				}
				c.Fprintf(w, "  %-14s %-8s %12.2f  (%d)\n", t.Category, t.Direction, t.TotalFloat(), t.Count)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user to report on (default BUDGET_DEFAULT_USER)")
	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD (default start of this month)")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD (default today)")
	return cmd
}

// reportRange resolves the --from/--to flags against now.
func reportRange(from, to string, now time.Time) (time.Time, time.Time, error) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := now
	var err error
	if from != "" {
		if start, err = time.Parse(domain.DateLayout, from); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from %q: want YYYY-MM-DD", from)
		}
	}
	if to != "" {
		if end, err = time.Parse(domain.DateLayout, to); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to %q: want YYYY-MM-DD", to)
		}
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to %s is before --from %s", end.Format(domain.DateLayout), start.Format(domain.DateLayout))
	}
	return start, end, nil
}
