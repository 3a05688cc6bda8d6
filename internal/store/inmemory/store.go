package inmemory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/rupeeriser/budget-buddy/internal/domain"
	"github.com/rupeeriser/budget-buddy/internal/store"
)

// Store is an in-memory implementation of store.Store.
// It is safe for concurrent use. Data is lost on restart; use the bolt
// store for persistence.
type Store struct {
	mu sync.RWMutex

	transactions *collection[domain.Transaction]
	goals        *collection[domain.Goal]
	habits       *collection[domain.Habit]
	accounts     *collection[domain.Account]
	budgets      map[string]domain.BudgetSettings

	now func() time.Time
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		transactions: newCollection[domain.Transaction](),
		goals:        newCollection[domain.Goal](),
		habits:       newCollection[domain.Habit](),
		accounts:     newCollection[domain.Account](),
		budgets:      make(map[string]domain.BudgetSettings),
		now:          time.Now,
	}
}

// InsertTransaction assigns an ID and creation time and stores a copy of tx.
func (s *Store) InsertTransaction(ctx context.Context, tx *domain.Transaction) error {
	if err := store.PrepareTransaction(tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx.ID = store.NewID()
	tx.CreatedAt = s.now().UTC()
	s.transactions.put(tx.UserID, tx.ID, *tx)
	return nil
}

// GetTransaction returns a copy of the user's transaction.
func (s *Store) GetTransaction(ctx context.Context, userID, id string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactions.get(userID, id)
	if !ok {
		return nil, store.ErrNotFound
	}
	return &tx, nil
}

// UpdateTransaction replaces the stored transaction, keeping its creation time.
func (s *Store) UpdateTransaction(ctx context.Context, tx *domain.Transaction) error {
	if err := store.PrepareTransaction(tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.transactions.get(tx.UserID, tx.ID)
	if !ok {
		return store.ErrNotFound
	}
	tx.CreatedAt = existing.CreatedAt
	s.transactions.replace(tx.ID, *tx)
	return nil
}

// DeleteTransaction removes the user's transaction.
func (s *Store) DeleteTransaction(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.transactions.delete(userID, id) {
		return store.ErrNotFound
	}
	return nil
}

// ListTransactions returns the user's transactions newest date first.
func (s *Store) ListTransactions(ctx context.Context, userID string, filter store.TransactionFilter) ([]domain.Transaction, error) {
	s.mu.RLock()
	txs := s.transactions.list(userID)
	s.mu.RUnlock()

	// Most recent insertions first among equal dates and creation times.
	slices.Reverse(txs)

	return store.FilterTransactions(txs, filter), nil
}

// InsertGoal assigns an ID and stores the goal.
func (s *Store) InsertGoal(ctx context.Context, goal *domain.Goal) error {
	if err := store.PrepareGoal(goal); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	goal.ID = store.NewID()
	s.goals.put(goal.UserID, goal.ID, *goal)
	return nil
}

// ListGoals returns the user's goals in insertion order.
func (s *Store) ListGoals(ctx context.Context, userID string) ([]domain.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.goals.list(userID), nil
}

// DeleteGoal removes the user's goal.
func (s *Store) DeleteGoal(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.goals.delete(userID, id) {
		return store.ErrNotFound
	}
	return nil
}

// InsertHabit assigns an ID and stores the habit.
func (s *Store) InsertHabit(ctx context.Context, habit *domain.Habit) error {
	if err := store.PrepareHabit(habit); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	habit.ID = store.NewID()
	s.habits.put(habit.UserID, habit.ID, cloneHabit(*habit))
	return nil
}

// ListHabits returns the user's habits in insertion order.
func (s *Store) ListHabits(ctx context.Context, userID string) ([]domain.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	habits := s.habits.list(userID)
	for i := range habits {
		habits[i] = cloneHabit(habits[i])
	}
	return habits, nil
}

// UpdateHabit applies a partial update and returns the updated habit.
func (s *Store) UpdateHabit(ctx context.Context, userID, id string, update domain.HabitUpdate) (*domain.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	habit, ok := s.habits.get(userID, id)
	if !ok {
		return nil, store.ErrNotFound
	}
	habit = cloneHabit(habit)
	if err := store.ApplyHabitUpdate(&habit, update); err != nil {
		return nil, err
	}
	s.habits.replace(id, habit)

	out := cloneHabit(habit)
	return &out, nil
}

// DeleteHabit removes the user's habit.
func (s *Store) DeleteHabit(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.habits.delete(userID, id) {
		return store.ErrNotFound
	}
	return nil
}

// InsertAccount assigns an ID and stores the account.
func (s *Store) InsertAccount(ctx context.Context, account *domain.Account) error {
	if err := store.PrepareAccount(account); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account.ID = store.NewID()
	s.accounts.put(account.UserID, account.ID, *account)
	return nil
}

// ListAccounts returns the user's accounts in insertion order.
func (s *Store) ListAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accounts.list(userID), nil
}

// DeleteAccount removes the user's account.
func (s *Store) DeleteAccount(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.accounts.delete(userID, id) {
		return store.ErrNotFound
	}
	return nil
}

// GetBudget returns the user's settings or zero values.
func (s *Store) GetBudget(ctx context.Context, userID string) (*domain.BudgetSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings, ok := s.budgets[userID]
	if !ok {
		settings = domain.BudgetSettings{UserID: userID}
	}
	return &settings, nil
}

// UpsertBudget stores the user's settings, replacing any previous ones.
func (s *Store) UpsertBudget(ctx context.Context, settings *domain.BudgetSettings) error {
	if err := store.PrepareBudget(settings); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.budgets[settings.UserID] = *settings
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func cloneHabit(h domain.Habit) domain.Habit {
	dates := make([]string, len(h.CompletedDates))
	copy(dates, h.CompletedDates)
	h.CompletedDates = dates
	return h
}

type entry[T any] struct {
	seq    uint64
	userID string
	value  T
}

// collection holds records of one kind keyed by ID, remembering insertion order.
type collection[T any] struct {
	seq   uint64
	items map[string]entry[T]
}

func newCollection[T any]() *collection[T] {
	return &collection[T]{items: make(map[string]entry[T])}
}

func (c *collection[T]) put(userID, id string, v T) {
	c.seq++
	c.items[id] = entry[T]{seq: c.seq, userID: userID, value: v}
}

// replace overwrites the value of an existing record, keeping its position.
func (c *collection[T]) replace(id string, v T) {
	e := c.items[id]
	e.value = v
	c.items[id] = e
}

func (c *collection[T]) get(userID, id string) (T, bool) {
	e, ok := c.items[id]
	if !ok || e.userID != userID {
		var zero T
		return zero, false
	}
	return e.value, true
}

func (c *collection[T]) delete(userID, id string) bool {
	e, ok := c.items[id]
	if !ok || e.userID != userID {
		return false
	}
	delete(c.items, id)
	return true
}

func (c *collection[T]) list(userID string) []T {
	entries := make([]entry[T], 0)
	for _, e := range c.items {
		if e.userID == userID {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	out := make([]T, len(entries))
	for i, e := range entries {
		out[i] = e.value
	}
	return out
}

// Ensure Store implements store.Store.
var _ store.Store = (*Store)(nil)
