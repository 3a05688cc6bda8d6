// Package store defines persistence for user records. Every operation is
// scoped by user ID; records owned by another user behave as missing.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rupeeriser/budget-buddy/internal/domain"
)

// DefaultListLimit caps ListTransactions when the filter sets no limit.
const DefaultListLimit = 50

var (
	// ErrNotFound is returned when a record does not exist for the user.
	ErrNotFound = errors.New("record not found")
	// ErrInvalid is returned when a record fails validation.
	ErrInvalid = errors.New("invalid record")
)

// TransactionFilter narrows ListTransactions.
type TransactionFilter struct {
	// Type keeps only expense or income transactions when set.
	Type domain.TxType
	// Limit caps the result; zero or negative selects DefaultListLimit.
	Limit int
}

// TransactionStore persists transactions.
type TransactionStore interface {
	InsertTransaction(ctx context.Context, tx *domain.Transaction) error
	GetTransaction(ctx context.Context, userID, id string) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, tx *domain.Transaction) error
	DeleteTransaction(ctx context.Context, userID, id string) error
	// ListTransactions returns transactions newest date first.
	ListTransactions(ctx context.Context, userID string, filter TransactionFilter) ([]domain.Transaction, error)
}

// GoalStore persists savings goals.
type GoalStore interface {
	InsertGoal(ctx context.Context, goal *domain.Goal) error
	ListGoals(ctx context.Context, userID string) ([]domain.Goal, error)
	DeleteGoal(ctx context.Context, userID, id string) error
}

// HabitStore persists habits.
type HabitStore interface {
	InsertHabit(ctx context.Context, habit *domain.Habit) error
	ListHabits(ctx context.Context, userID string) ([]domain.Habit, error)
	UpdateHabit(ctx context.Context, userID, id string, update domain.HabitUpdate) (*domain.Habit, error)
	DeleteHabit(ctx context.Context, userID, id string) error
}

// AccountStore persists money accounts.
type AccountStore interface {
	InsertAccount(ctx context.Context, account *domain.Account) error
	ListAccounts(ctx context.Context, userID string) ([]domain.Account, error)
	DeleteAccount(ctx context.Context, userID, id string) error
}

// BudgetStore persists budget settings, one document per user.
type BudgetStore interface {
	// GetBudget returns zero-valued settings when none were saved.
	GetBudget(ctx context.Context, userID string) (*domain.BudgetSettings, error)
	UpsertBudget(ctx context.Context, settings *domain.BudgetSettings) error
}

// Store is the full record store.
type Store interface {
	TransactionStore
	GoalStore
	HabitStore
	AccountStore
	BudgetStore

	Close() error
}

// NewID returns a fresh record identifier.
func NewID() string {
	return uuid.New().String()
}

// PrepareTransaction normalizes and validates tx before it is written.
func PrepareTransaction(tx *domain.Transaction) error {
	if tx.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalid)
	}
	tx.Normalize()
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// PrepareGoal validates a goal before it is written.
func PrepareGoal(goal *domain.Goal) error {
	goal.Name = strings.TrimSpace(goal.Name)
	switch {
	case goal.UserID == "":
		return fmt.Errorf("%w: user id is required", ErrInvalid)
	case goal.Name == "":
		return fmt.Errorf("%w: goal name is required", ErrInvalid)
	case goal.Amount < 0:
		return fmt.Errorf("%w: goal amount must not be negative", ErrInvalid)
	}
	return nil
}

// PrepareHabit validates a habit before it is written.
func PrepareHabit(habit *domain.Habit) error {
	habit.Name = strings.TrimSpace(habit.Name)
	if habit.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalid)
	}
	if habit.Name == "" {
		return fmt.Errorf("%w: habit name is required", ErrInvalid)
	}
	if habit.CompletedDates == nil {
		habit.CompletedDates = []string{}
	}
	return nil
}

// PrepareAccount validates an account before it is written.
func PrepareAccount(account *domain.Account) error {
	account.Name = strings.TrimSpace(account.Name)
	if account.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalid)
	}
	if account.Name == "" {
		return fmt.Errorf("%w: account name is required", ErrInvalid)
	}
	if account.Type == "" {
		account.Type = "cash"
	}
	return nil
}

// PrepareBudget validates budget settings before they are written.
func PrepareBudget(settings *domain.BudgetSettings) error {
	if settings.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalid)
	}
	fc := settings.FixedCosts
	if settings.Salary < 0 || fc.Rent < 0 || fc.Travel < 0 || fc.Phone < 0 || fc.Subscriptions < 0 {
		return fmt.Errorf("%w: budget amounts must not be negative", ErrInvalid)
	}
	return nil
}

// ApplyHabitUpdate copies the set fields of update onto habit.
func ApplyHabitUpdate(habit *domain.Habit, update domain.HabitUpdate) error {
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return fmt.Errorf("%w: habit name is required", ErrInvalid)
		}
		habit.Name = name
	}
	if update.CompletedDates != nil {
		dates := make([]string, len(*update.CompletedDates))
		copy(dates, *update.CompletedDates)
		habit.CompletedDates = dates
	}
	return nil
}

// FilterTransactions sorts txs newest first and applies filter. txs is
// reordered in place.
func FilterTransactions(txs []domain.Transaction, filter TransactionFilter) []domain.Transaction {
	sort.SliceStable(txs, func(i, j int) bool {
		if txs[i].Date != txs[j].Date {
			return txs[i].Date > txs[j].Date
		}
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	result := make([]domain.Transaction, 0, min(limit, len(txs)))
	for _, tx := range txs {
		if filter.Type != "" && tx.Type != filter.Type {
			continue
		}
		result = append(result, tx)
		if len(result) == limit {
			break
		}
	}
	return result
}
