package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rupeeriser/budget-buddy/internal/domain"
	"github.com/rupeeriser/budget-buddy/internal/store"
	"github.com/rupeeriser/budget-buddy/internal/store/storetest"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "budget.db"))
	require.NoError(t, err)
	return s
}

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return openTestStore(t)
	})
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budget.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)

	tx := &domain.Transaction{UserID: "alice", Amount: 50000, Category: domain.CategorySalary, Date: "2024-03-01", Type: domain.TypeIncome}
	require.NoError(t, s.InsertTransaction(ctx, tx))
	require.NoError(t, s.UpsertBudget(ctx, &domain.BudgetSettings{UserID: "alice", Salary: 50000}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetTransaction(ctx, "alice", tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CategorySalary, got.Category)
	assert.Equal(t, domain.TypeIncome, got.Type)

	budget, err := s.GetBudget(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 50000.0, budget.Salary)
}

func TestUserPrefixDoesNotLeak(t *testing.T) {
	s := openTestStore(t)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.InsertGoal(ctx, &domain.Goal{UserID: "ann", Name: "Bike", Amount: 1}))
	require.NoError(t, s.InsertGoal(ctx, &domain.Goal{UserID: "anna", Name: "Car", Amount: 2}))

	goals, err := s.ListGoals(ctx, "ann")
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, "Bike", goals[0].Name)
}
