// Package storetest holds behaviour tests shared by every store.Store
// implementation.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rupeeriser/budget-buddy/internal/domain"
	"github.com/rupeeriser/budget-buddy/internal/store"
)

// Run exercises a fresh store returned by newStore for each subtest.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"TransactionLifecycle", testTransactionLifecycle},
		{"TransactionDefaultsAndValidation", testTransactionValidation},
		{"TransactionListOrderAndFilter", testTransactionList},
		{"UserScoping", testUserScoping},
		{"Goals", testGoals},
		{"Habits", testHabits},
		{"Accounts", testAccounts},
		{"Budget", testBudget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func newTx(userID string, amount float64, date string, txType domain.TxType) *domain.Transaction {
	return &domain.Transaction{
		UserID:   userID,
		Amount:   amount,
		Category: domain.CategoryFood,
		Note:     "Rice",
		Date:     date,
		Type:     txType,
		Account:  "wallet",
	}
}

func testTransactionLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()

	tx := newTx("alice", 200, "2024-03-14", domain.TypeExpense)
	require.NoError(t, s.InsertTransaction(ctx, tx))
	require.NotEmpty(t, tx.ID)
	require.False(t, tx.CreatedAt.IsZero())

	got, err := s.GetTransaction(ctx, "alice", tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx.Amount, got.Amount)
	assert.Equal(t, tx.Note, got.Note)
	assert.True(t, tx.CreatedAt.Equal(got.CreatedAt))

	got.Amount = 250
	got.Note = "Rice And Dal"
	require.NoError(t, s.UpdateTransaction(ctx, got))

	updated, err := s.GetTransaction(ctx, "alice", tx.ID)
	require.NoError(t, err)
	assert.Equal(t, 250.0, updated.Amount)
	assert.Equal(t, "Rice And Dal", updated.Note)
	assert.True(t, tx.CreatedAt.Equal(updated.CreatedAt))

	require.NoError(t, s.DeleteTransaction(ctx, "alice", tx.ID))
	_, err = s.GetTransaction(ctx, "alice", tx.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTransaction(ctx, "alice", tx.ID), store.ErrNotFound)

	missing := newTx("alice", 10, "2024-03-14", domain.TypeExpense)
	missing.ID = "does-not-exist"
	assert.ErrorIs(t, s.UpdateTransaction(ctx, missing), store.ErrNotFound)
}

func testTransactionValidation(t *testing.T, s store.Store) {
	ctx := context.Background()

	tx := &domain.Transaction{UserID: "alice", Amount: 40, Date: "2024-03-01", Type: domain.TypeExpense}
	require.NoError(t, s.InsertTransaction(ctx, tx))
	assert.Equal(t, domain.CategoryOther, tx.Category)
	assert.Equal(t, domain.DefaultAccount, tx.Account)

	invalid := []*domain.Transaction{
		{UserID: "alice", Amount: -1, Date: "2024-03-01", Type: domain.TypeExpense},
		{UserID: "alice", Amount: 1, Date: "01/03/2024", Type: domain.TypeExpense},
		{UserID: "alice", Amount: 1, Date: "2024-03-01", Type: "refund"},
		{UserID: "alice", Amount: 1, Category: "Pets", Date: "2024-03-01", Type: domain.TypeExpense},
		{Amount: 1, Date: "2024-03-01", Type: domain.TypeExpense},
	}
	for _, tx := range invalid {
		assert.ErrorIs(t, s.InsertTransaction(ctx, tx), store.ErrInvalid, "%+v", tx)
	}
}

func testTransactionList(t *testing.T, s store.Store) {
	ctx := context.Background()

	dates := []string{"2024-03-10", "2024-03-15", "2024-03-01", "2024-03-12"}
	for i, date := range dates {
		txType := domain.TypeExpense
		if i%2 == 1 {
			txType = domain.TypeIncome
		}
		require.NoError(t, s.InsertTransaction(ctx, newTx("alice", float64(i+1), date, txType)))
	}

	all, err := s.ListTransactions(ctx, "alice", store.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	var got []string
	for _, tx := range all {
		got = append(got, tx.Date)
	}
	assert.Equal(t, []string{"2024-03-15", "2024-03-12", "2024-03-10", "2024-03-01"}, got)

	income, err := s.ListTransactions(ctx, "alice", store.TransactionFilter{Type: domain.TypeIncome})
	require.NoError(t, err)
	require.Len(t, income, 2)
	for _, tx := range income {
		assert.Equal(t, domain.TypeIncome, tx.Type)
	}

	limited, err := s.ListTransactions(ctx, "alice", store.TransactionFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "2024-03-15", limited[0].Date)

	for i := 0; i < store.DefaultListLimit+5; i++ {
		require.NoError(t, s.InsertTransaction(ctx, newTx("bob", 1, "2024-01-01", domain.TypeExpense)))
	}
	capped, err := s.ListTransactions(ctx, "bob", store.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, capped, store.DefaultListLimit)
}

func testUserScoping(t *testing.T, s store.Store) {
	ctx := context.Background()

	tx := newTx("alice", 99, "2024-03-14", domain.TypeExpense)
	require.NoError(t, s.InsertTransaction(ctx, tx))

	_, err := s.GetTransaction(ctx, "mallory", tx.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTransaction(ctx, "mallory", tx.ID), store.ErrNotFound)

	hijack := *tx
	hijack.UserID = "mallory"
	assert.ErrorIs(t, s.UpdateTransaction(ctx, &hijack), store.ErrNotFound)

	list, err := s.ListTransactions(ctx, "mallory", store.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	goal := &domain.Goal{UserID: "alice", Name: "Bike", Amount: 30000}
	require.NoError(t, s.InsertGoal(ctx, goal))
	assert.ErrorIs(t, s.DeleteGoal(ctx, "mallory", goal.ID), store.ErrNotFound)

	original, err := s.GetTransaction(ctx, "alice", tx.ID)
	require.NoError(t, err)
	assert.Equal(t, 99.0, original.Amount)
}

func testGoals(t *testing.T, s store.Store) {
	ctx := context.Background()

	first := &domain.Goal{UserID: "alice", Name: " Laptop ", Amount: 80000}
	second := &domain.Goal{UserID: "alice", Name: "Trip", Amount: 20000}
	require.NoError(t, s.InsertGoal(ctx, first))
	require.NoError(t, s.InsertGoal(ctx, second))
	assert.Equal(t, "Laptop", first.Name)

	goals, err := s.ListGoals(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, goals, 2)
	assert.Equal(t, "Laptop", goals[0].Name)
	assert.Equal(t, "Trip", goals[1].Name)

	require.NoError(t, s.DeleteGoal(ctx, "alice", first.ID))
	goals, err = s.ListGoals(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, second.ID, goals[0].ID)

	assert.ErrorIs(t, s.InsertGoal(ctx, &domain.Goal{UserID: "alice"}), store.ErrInvalid)
}

func testHabits(t *testing.T, s store.Store) {
	ctx := context.Background()

	habit := &domain.Habit{UserID: "alice", Name: "No takeout"}
	require.NoError(t, s.InsertHabit(ctx, habit))
	assert.NotNil(t, habit.CompletedDates)

	dates := []string{"2024-03-14", "2024-03-15"}
	updated, err := s.UpdateHabit(ctx, "alice", habit.ID, domain.HabitUpdate{CompletedDates: &dates})
	require.NoError(t, err)
	assert.Equal(t, "No takeout", updated.Name)
	assert.Equal(t, dates, updated.CompletedDates)

	dates[0] = "mutated"
	name := "Cook at home"
	updated, err = s.UpdateHabit(ctx, "alice", habit.ID, domain.HabitUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Cook at home", updated.Name)
	assert.Equal(t, []string{"2024-03-14", "2024-03-15"}, updated.CompletedDates)

	habits, err := s.ListHabits(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, habits, 1)
	assert.Equal(t, "Cook at home", habits[0].Name)

	blank := "  "
	_, err = s.UpdateHabit(ctx, "alice", habit.ID, domain.HabitUpdate{Name: &blank})
	assert.ErrorIs(t, err, store.ErrInvalid)

	_, err = s.UpdateHabit(ctx, "mallory", habit.ID, domain.HabitUpdate{Name: &name})
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.DeleteHabit(ctx, "alice", habit.ID))
	habits, err = s.ListHabits(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, habits)
}

func testAccounts(t *testing.T, s store.Store) {
	ctx := context.Background()

	account := &domain.Account{UserID: "alice", Name: "HDFC", Balance: 1200.5}
	require.NoError(t, s.InsertAccount(ctx, account))
	assert.Equal(t, "cash", account.Type)

	accounts, err := s.ListAccounts(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, *account, accounts[0])

	require.NoError(t, s.DeleteAccount(ctx, "alice", account.ID))
	assert.ErrorIs(t, s.DeleteAccount(ctx, "alice", account.ID), store.ErrNotFound)
	assert.ErrorIs(t, s.InsertAccount(ctx, &domain.Account{UserID: "alice"}), store.ErrInvalid)
}

func testBudget(t *testing.T, s store.Store) {
	ctx := context.Background()

	empty, err := s.GetBudget(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", empty.UserID)
	assert.Zero(t, empty.Salary)
	assert.Zero(t, empty.FixedCosts)

	settings := &domain.BudgetSettings{
		UserID:     "alice",
		Salary:     50000,
		FixedCosts: domain.FixedCosts{Rent: 15000, Phone: 500},
	}
	require.NoError(t, s.UpsertBudget(ctx, settings))

	settings.Salary = 55000
	require.NoError(t, s.UpsertBudget(ctx, settings))

	got, err := s.GetBudget(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 55000.0, got.Salary)
	assert.Equal(t, 15000.0, got.FixedCosts.Rent)

	other, err := s.GetBudget(ctx, "bob")
	require.NoError(t, err)
	assert.Zero(t, other.Salary)

	assert.ErrorIs(t, s.UpsertBudget(ctx, &domain.BudgetSettings{UserID: "alice", Salary: -1}), store.ErrInvalid)
}
