package jobs

import (
	"context"
	"time"

	"github.com/rupeeriser/budget-buddy/internal/domain"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeExportTransaction mirrors one transaction change to the analytics warehouse.
	JobTypeExportTransaction JobType = "export_transaction"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed and will not be retried.
	JobStatusFailed JobStatus = "failed"
	// JobStatusRetrying indicates the job failed and is scheduled again.
	JobStatusRetrying JobStatus = "retrying"
)

// ExportOp is the change an export job mirrors.
type ExportOp string

const (
	ExportUpsert ExportOp = "upsert"
	ExportDelete ExportOp = "delete"
)

// DefaultMaxRetries is applied to jobs published without MaxRetries.
const DefaultMaxRetries = 3

// ExportTransactionJob mirrors a transaction insert, update or delete.
type ExportTransactionJob struct {
	JobID string   `json:"job_id"`
	Op    ExportOp `json:"op"`

	UserID        string `json:"user_id"`
	TransactionID string `json:"transaction_id"`

	// Transaction is the saved record; nil for deletes.
	Transaction *domain.Transaction `json:"transaction,omitempty"`

	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	RetryCount  int        `json:"retry_count"`
	MaxRetries  int        `json:"max_retries"`
}

// NewUpsertJob builds an export job for a saved transaction.
func NewUpsertJob(tx domain.Transaction) *ExportTransactionJob {
	return &ExportTransactionJob{
		Op:            ExportUpsert,
		UserID:        tx.UserID,
		TransactionID: tx.ID,
		Transaction:   &tx,
	}
}

// NewDeleteJob builds an export job for a deleted transaction.
func NewDeleteJob(userID, transactionID string) *ExportTransactionJob {
	return &ExportTransactionJob{
		Op:            ExportDelete,
		UserID:        userID,
		TransactionID: transactionID,
	}
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *ExportTransactionJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *ExportTransactionJob) GetType() JobType {
	return JobTypeExportTransaction
}

// GetStatus implements the Job interface.
func (j *ExportTransactionJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher enqueues jobs.
type Publisher interface {
	// PublishExport enqueues a transaction export job.
	PublishExport(ctx context.Context, job *ExportTransactionJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer runs jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs; handler is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes a job. A returned error schedules a retry.
type JobHandler func(ctx context.Context, job Job) error

// JobStore records job state so it can be inspected through the API.
type JobStore interface {
	SaveJob(ctx context.Context, job *ExportTransactionJob) error
	GetJob(ctx context.Context, jobID string) (*ExportTransactionJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*ExportTransactionJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	UserID        string
	TransactionID string
	Status        JobStatus
	Limit         int
	Offset        int
}
