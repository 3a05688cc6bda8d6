package jobs

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rupeeriser/budget-buddy/internal/domain"
)

// TransactionSink receives mirrored transaction changes.
type TransactionSink interface {
	UpsertTransaction(ctx context.Context, tx domain.Transaction) error
	DeleteTransaction(ctx context.Context, userID, transactionID string) error
}

// NewExportHandler returns a JobHandler that applies export jobs to sink.
// A nil sink turns every job into a logged no-op.
func NewExportHandler(sink TransactionSink, log zerolog.Logger) JobHandler {
	return func(ctx context.Context, job Job) error {
		export, ok := job.(*ExportTransactionJob)
		if !ok {
			return fmt.Errorf("export handler: unsupported job type %s", job.GetType())
		}

		if sink == nil {
			log.Debug().
				Str("job_id", export.JobID).
				Str("transaction_id", export.TransactionID).
				Msg("Export disabled, skipping job")
			return nil
		}

		switch export.Op {
		case ExportUpsert:
			if export.Transaction == nil {
				return fmt.Errorf("export handler: upsert job %s has no transaction", export.JobID)
			}
			if err := sink.UpsertTransaction(ctx, *export.Transaction); err != nil {
				return fmt.Errorf("export handler: upsert %s: %w", export.TransactionID, err)
			}
		case ExportDelete:
			if err := sink.DeleteTransaction(ctx, export.UserID, export.TransactionID); err != nil {
				return fmt.Errorf("export handler: delete %s: %w", export.TransactionID, err)
			}
		default:
			return fmt.Errorf("export handler: unknown op %q", export.Op)
		}

		log.Info().
			Str("job_id", export.JobID).
			Str("op", string(export.Op)).
			Str("transaction_id", export.TransactionID).
			Msg("Transaction exported")
		return nil
	}
}
