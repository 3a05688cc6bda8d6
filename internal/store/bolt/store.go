// Package bolt implements store.Store on a single BoltDB file. Each
// collection is a bucket of JSON documents keyed by user ID and record ID, so a
// user's records are one cursor prefix scan.
package bolt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/boltdb/bolt"

	"github.com/rupeeriser/budget-buddy/internal/domain"
	"github.com/rupeeriser/budget-buddy/internal/store"
)

var (
	bucketTransactions = []byte("transactions")
	bucketGoals        = []byte("goals")
	bucketHabits       = []byte("habits")
	bucketAccounts     = []byte("accounts")
	bucketBudgets      = []byte("budgets")
)

var allBuckets = [][]byte{bucketTransactions, bucketGoals, bucketHabits, bucketAccounts, bucketBudgets}

// Store is a BoltDB-backed store.Store.
type Store struct {
	db  *bolt.DB
	now func() time.Time
}

// Open opens or creates the database at path and ensures every bucket exists.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("Open: open bolt db %s: %w", path, err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("Open: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// DB exposes the underlying database for snapshots.
func (s *Store) DB() *bolt.DB {
	return s.db
}

// Close closes the database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// keySep cannot appear in a user ID taken from an HTTP header.
const keySep = "\x00"

func recordKey(userID, id string) []byte {
	return []byte(userID + keySep + id)
}

func userPrefix(userID string) []byte {
	return []byte(userID + keySep)
}

func sortByCreated[T any](recs []T, created func(T) time.Time) {
	sort.SliceStable(recs, func(i, j int) bool {
		return created(recs[i]).Before(created(recs[j]))
	})
}

func (s *Store) put(bucket []byte, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", bucket, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put(key, data)
	})
}

func (s *Store) get(bucket []byte, key []byte, v any) error {
	return s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucket).Get(key)
		if data == nil {
			return store.ErrNotFound
		}
		return json.Unmarshal(data, v)
	})
}

func (s *Store) remove(bucket []byte, key []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b.Get(key) == nil {
			return store.ErrNotFound
		}
		return b.Delete(key)
	})
}

// listUser decodes every document under the user's prefix in key order.
func listUser[T any](s *Store, bucket []byte, userID string) ([]T, error) {
	out := make([]T, 0)
	prefix := userPrefix(userID)
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var item T
			if err := json.Unmarshal(v, &item); err != nil {
				return fmt.Errorf("decode %s/%s: %w", bucket, k, err)
			}
			out = append(out, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// InsertTransaction assigns an ID and creation time and writes tx.
func (s *Store) InsertTransaction(ctx context.Context, tx *domain.Transaction) error {
	if err := store.PrepareTransaction(tx); err != nil {
		return err
	}
	tx.ID = store.NewID()
	tx.CreatedAt = s.now().UTC()
	if err := s.put(bucketTransactions, recordKey(tx.UserID, tx.ID), tx); err != nil {
		return fmt.Errorf("InsertTransaction: %w", err)
	}
	return nil
}

// GetTransaction reads the user's transaction.
func (s *Store) GetTransaction(ctx context.Context, userID, id string) (*domain.Transaction, error) {
	var tx domain.Transaction
	if err := s.get(bucketTransactions, recordKey(userID, id), &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// UpdateTransaction replaces the stored transaction, keeping its creation time.
func (s *Store) UpdateTransaction(ctx context.Context, tx *domain.Transaction) error {
	if err := store.PrepareTransaction(tx); err != nil {
		return err
	}

	key := recordKey(tx.UserID, tx.ID)
	return s.db.Update(func(btx *bolt.Tx) error {
		b := btx.Bucket(bucketTransactions)
		data := b.Get(key)
		if data == nil {
			return store.ErrNotFound
		}
		var existing domain.Transaction
		if err := json.Unmarshal(data, &existing); err != nil {
			return fmt.Errorf("UpdateTransaction: decode: %w", err)
		}
		tx.CreatedAt = existing.CreatedAt

		updated, err := json.Marshal(tx)
		if err != nil {
			return fmt.Errorf("UpdateTransaction: encode: %w", err)
		}
		return b.Put(key, updated)
	})
}

// DeleteTransaction removes the user's transaction.
func (s *Store) DeleteTransaction(ctx context.Context, userID, id string) error {
	return s.remove(bucketTransactions, recordKey(userID, id))
}

// ListTransactions returns the user's transactions newest date first.
func (s *Store) ListTransactions(ctx context.Context, userID string, filter store.TransactionFilter) ([]domain.Transaction, error) {
	txs, err := listUser[domain.Transaction](s, bucketTransactions, userID)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	return store.FilterTransactions(txs, filter), nil
}

// goalRecord and friends carry an insertion time so lists keep insertion order.
type goalRecord struct {
	domain.Goal
	CreatedAt time.Time `json:"created_at"`
}

type habitRecord struct {
	domain.Habit
	CreatedAt time.Time `json:"created_at"`
}

type accountRecord struct {
	domain.Account
	CreatedAt time.Time `json:"created_at"`
}

// InsertGoal assigns an ID and writes the goal.
func (s *Store) InsertGoal(ctx context.Context, goal *domain.Goal) error {
	if err := store.PrepareGoal(goal); err != nil {
		return err
	}
	goal.ID = store.NewID()
	rec := goalRecord{Goal: *goal, CreatedAt: s.now().UTC()}
	if err := s.put(bucketGoals, recordKey(goal.UserID, goal.ID), rec); err != nil {
		return fmt.Errorf("InsertGoal: %w", err)
	}
	return nil
}

// ListGoals returns the user's goals in insertion order.
func (s *Store) ListGoals(ctx context.Context, userID string) ([]domain.Goal, error) {
	recs, err := listUser[goalRecord](s, bucketGoals, userID)
	if err != nil {
		return nil, fmt.Errorf("ListGoals: %w", err)
	}
	sortByCreated(recs, func(r goalRecord) time.Time { return r.CreatedAt })

	goals := make([]domain.Goal, len(recs))
	for i, r := range recs {
		goals[i] = r.Goal
	}
	return goals, nil
}

// DeleteGoal removes the user's goal.
func (s *Store) DeleteGoal(ctx context.Context, userID, id string) error {
	return s.remove(bucketGoals, recordKey(userID, id))
}

// InsertHabit assigns an ID and writes the habit.
func (s *Store) InsertHabit(ctx context.Context, habit *domain.Habit) error {
	if err := store.PrepareHabit(habit); err != nil {
		return err
	}
	habit.ID = store.NewID()
	rec := habitRecord{Habit: *habit, CreatedAt: s.now().UTC()}
	if err := s.put(bucketHabits, recordKey(habit.UserID, habit.ID), rec); err != nil {
		return fmt.Errorf("InsertHabit: %w", err)
	}
	return nil
}

// ListHabits returns the user's habits in insertion order.
func (s *Store) ListHabits(ctx context.Context, userID string) ([]domain.Habit, error) {
	recs, err := listUser[habitRecord](s, bucketHabits, userID)
	if err != nil {
		return nil, fmt.Errorf("ListHabits: %w", err)
	}
	sortByCreated(recs, func(r habitRecord) time.Time { return r.CreatedAt })

	habits := make([]domain.Habit, len(recs))
	for i, r := range recs {
		habits[i] = r.Habit
		if habits[i].CompletedDates == nil {
			habits[i].CompletedDates = []string{}
		}
	}
	return habits, nil
}

// UpdateHabit applies a partial update in one transaction.
func (s *Store) UpdateHabit(ctx context.Context, userID, id string, update domain.HabitUpdate) (*domain.Habit, error) {
	key := recordKey(userID, id)
	var out domain.Habit
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketHabits)
		data := b.Get(key)
		if data == nil {
			return store.ErrNotFound
		}
		var rec habitRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("UpdateHabit: decode: %w", err)
		}
		if err := store.ApplyHabitUpdate(&rec.Habit, update); err != nil {
			return err
		}

		updated, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("UpdateHabit: encode: %w", err)
		}
		out = rec.Habit
		return b.Put(key, updated)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteHabit removes the user's habit.
func (s *Store) DeleteHabit(ctx context.Context, userID, id string) error {
	return s.remove(bucketHabits, recordKey(userID, id))
}

// InsertAccount assigns an ID and writes the account.
func (s *Store) InsertAccount(ctx context.Context, account *domain.Account) error {
	if err := store.PrepareAccount(account); err != nil {
		return err
	}
	account.ID = store.NewID()
	rec := accountRecord{Account: *account, CreatedAt: s.now().UTC()}
	if err := s.put(bucketAccounts, recordKey(account.UserID, account.ID), rec); err != nil {
		return fmt.Errorf("InsertAccount: %w", err)
	}
	return nil
}

// ListAccounts returns the user's accounts in insertion order.
func (s *Store) ListAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	recs, err := listUser[accountRecord](s, bucketAccounts, userID)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	sortByCreated(recs, func(r accountRecord) time.Time { return r.CreatedAt })

	accounts := make([]domain.Account, len(recs))
	for i, r := range recs {
		accounts[i] = r.Account
	}
	return accounts, nil
}

// DeleteAccount removes the user's account.
func (s *Store) DeleteAccount(ctx context.Context, userID, id string) error {
	return s.remove(bucketAccounts, recordKey(userID, id))
}

// GetBudget reads the user's settings or returns zero values.
func (s *Store) GetBudget(ctx context.Context, userID string) (*domain.BudgetSettings, error) {
	settings := domain.BudgetSettings{UserID: userID}
	err := s.get(bucketBudgets, []byte(userID), &settings)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("GetBudget: %w", err)
	}
	return &settings, nil
}

// UpsertBudget writes the user's settings.
func (s *Store) UpsertBudget(ctx context.Context, settings *domain.BudgetSettings) error {
	if err := store.PrepareBudget(settings); err != nil {
		return err
	}
	if err := s.put(bucketBudgets, []byte(settings.UserID), settings); err != nil {
		return fmt.Errorf("UpsertBudget: %w", err)
	}
	return nil
}

// Ensure Store implements store.Store.
var _ store.Store = (*Store)(nil)
