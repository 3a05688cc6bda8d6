package inmemory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rupeeriser/budget-buddy/internal/domain"
	"github.com/rupeeriser/budget-buddy/internal/store"
	"github.com/rupeeriser/budget-buddy/internal/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return NewStore()
	})
}

func TestListTransactionsNewestInsertFirstOnTies(t *testing.T) {
	s := NewStore()
	fixed := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	ctx := context.Background()
	for _, note := range []string{"First", "Second", "Third"} {
		tx := &domain.Transaction{UserID: "alice", Amount: 1, Note: note, Date: "2024-03-15", Type: domain.TypeExpense}
		require.NoError(t, s.InsertTransaction(ctx, tx))
	}

	txs, err := s.ListTransactions(ctx, "alice", store.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, "Third", txs[0].Note)
	assert.Equal(t, "First", txs[2].Note)
}

func TestStoreReturnsCopies(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	tx := &domain.Transaction{UserID: "alice", Amount: 10, Date: "2024-03-15", Type: domain.TypeExpense}
	require.NoError(t, s.InsertTransaction(ctx, tx))
	tx.Amount = 999

	got, err := s.GetTransaction(ctx, "alice", tx.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, got.Amount)

	habit := &domain.Habit{UserID: "alice", Name: "Walk", CompletedDates: []string{"2024-03-14"}}
	require.NoError(t, s.InsertHabit(ctx, habit))
	habit.CompletedDates[0] = "mutated"

	habits, err := s.ListHabits(ctx, "alice")
	require.NoError(t, err)
	habits[0].CompletedDates[0] = "also mutated"

	habits, err = s.ListHabits(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-14"}, habits[0].CompletedDates)
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			tx := &domain.Transaction{UserID: "alice", Amount: 1, Date: "2024-03-15", Type: domain.TypeExpense}
			assert.NoError(t, s.InsertTransaction(ctx, tx))
		}()
		go func() {
			defer wg.Done()
			_, err := s.ListTransactions(ctx, "alice", store.TransactionFilter{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	txs, err := s.ListTransactions(ctx, "alice", store.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, txs, 10)
}
