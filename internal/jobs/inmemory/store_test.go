package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rupeeriser/budget-buddy/internal/domain"
	"github.com/rupeeriser/budget-buddy/internal/jobs"
)

func TestStoreSaveAndGet(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	assert.Error(t, s.SaveJob(ctx, &jobs.ExportTransactionJob{}))

	job := jobs.NewUpsertJob(domain.Transaction{ID: "tx-1", UserID: "alice", Note: "Rice"})
	job.JobID = "job-1"
	require.NoError(t, s.SaveJob(ctx, job))

	job.Transaction.Note = "mutated"
	got, err := s.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "Rice", got.Transaction.Note)

	_, err = s.GetJob(ctx, "missing")
	assert.Error(t, err)
}

func TestStoreListJobs(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	for i, tc := range []struct {
		user   string
		status jobs.JobStatus
	}{
		{"alice", jobs.JobStatusCompleted},
		{"alice", jobs.JobStatusFailed},
		{"bob", jobs.JobStatusCompleted},
	} {
		job := jobs.NewDeleteJob(tc.user, "tx")
		job.JobID = string(rune('a' + i))
		job.Status = tc.status
		job.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.SaveJob(ctx, job))
	}

	all, err := s.ListJobs(ctx, jobs.JobFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].JobID)

	alice, err := s.ListJobs(ctx, jobs.JobFilter{UserID: "alice"})
	require.NoError(t, err)
	assert.Len(t, alice, 2)

	completed, err := s.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusCompleted, Limit: 1})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "c", completed[0].JobID)

	empty, err := s.ListJobs(ctx, jobs.JobFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStoreUpdateJobStatus(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	job := jobs.NewDeleteJob("alice", "tx-1")
	job.JobID = "job-1"
	require.NoError(t, s.SaveJob(ctx, job))

	require.NoError(t, s.UpdateJobStatus(ctx, "job-1", jobs.JobStatusFailed, "quota"))
	got, err := s.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, jobs.JobStatusFailed, got.Status)
	assert.Equal(t, "quota", got.Error)

	assert.Error(t, s.UpdateJobStatus(ctx, "missing", jobs.JobStatusFailed, ""))
}
