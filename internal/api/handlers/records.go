package handlers

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rupeeriser/budget-buddy/internal/api/middleware"
	"github.com/rupeeriser/budget-buddy/internal/domain"
	"github.com/rupeeriser/budget-buddy/internal/store"
)

// summaryWindow is how many recent transactions feed a summary.
const summaryWindow = 10000

// RecordsHandler handles goals, habits, accounts, budget settings and the
// dashboard summary.
type RecordsHandler struct {
	store store.Store
	log   zerolog.Logger
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(s store.Store, log zerolog.Logger) *RecordsHandler {
	return &RecordsHandler{store: s, log: log}
}

// ListGoals handles GET /api/goals
func (h *RecordsHandler) ListGoals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	goals, err := h.store.ListGoals(ctx, middleware.UserFromContext(ctx))
	if err != nil {
		writeStoreError(w, h.log, err, "Goal")
		return
	}
	if goals == nil {
		goals = []domain.Goal{}
	}
	middleware.WriteJSON(w, http.StatusOK, goals)
}

// CreateGoal handles POST /api/goals
func (h *RecordsHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var goal domain.Goal
	if !decodeBody(w, r, &goal) {
		return
	}
	goal.UserID = middleware.UserFromContext(ctx)

	if err := h.store.InsertGoal(ctx, &goal); err != nil {
		writeStoreError(w, h.log, err, "Goal")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, goal)
}

// DeleteGoal handles DELETE /api/goals/{id}
func (h *RecordsHandler) DeleteGoal(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	if err := h.store.DeleteGoal(ctx, middleware.UserFromContext(ctx), id); err != nil {
		writeStoreError(w, h.log, err, "Goal")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "Deleted"})
}

// ListHabits handles GET /api/habits
func (h *RecordsHandler) ListHabits(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	habits, err := h.store.ListHabits(ctx, middleware.UserFromContext(ctx))
	if err != nil {
		writeStoreError(w, h.log, err, "Habit")
		return
	}
	if habits == nil {
		habits = []domain.Habit{}
	}
	middleware.WriteJSON(w, http.StatusOK, habits)
}

// CreateHabit handles POST /api/habits. New habits start with no completions.
func (h *RecordsHandler) CreateHabit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	habit := domain.Habit{
		UserID: middleware.UserFromContext(ctx),
		Name:   req.Name,
	}
	if err := h.store.InsertHabit(ctx, &habit); err != nil {
		writeStoreError(w, h.log, err, "Habit")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, habit)
}

// UpdateHabit handles PUT /api/habits/{id} with a partial body.
func (h *RecordsHandler) UpdateHabit(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	var update domain.HabitUpdate
	if !decodeBody(w, r, &update) {
		return
	}
	if update.CompletedDates != nil {
		for _, d := range *update.CompletedDates {
			if !validDate(d) {
				middleware.WriteError(w, http.StatusBadRequest, "Invalid completed date: "+d)
				return
			}
		}
	}

	habit, err := h.store.UpdateHabit(ctx, middleware.UserFromContext(ctx), id, update)
	if err != nil {
		writeStoreError(w, h.log, err, "Habit")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, habit)
}

// DeleteHabit handles DELETE /api/habits/{id}
func (h *RecordsHandler) DeleteHabit(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	if err := h.store.DeleteHabit(ctx, middleware.UserFromContext(ctx), id); err != nil {
		writeStoreError(w, h.log, err, "Habit")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "Deleted"})
}

// ListAccounts handles GET /api/accounts
func (h *RecordsHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accounts, err := h.store.ListAccounts(ctx, middleware.UserFromContext(ctx))
	if err != nil {
		writeStoreError(w, h.log, err, "Account")
		return
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}
	middleware.WriteJSON(w, http.StatusOK, accounts)
}

// CreateAccount handles POST /api/accounts
func (h *RecordsHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var account domain.Account
	if !decodeBody(w, r, &account) {
		return
	}
	account.UserID = middleware.UserFromContext(ctx)

	if err := h.store.InsertAccount(ctx, &account); err != nil {
		writeStoreError(w, h.log, err, "Account")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, account)
}

// DeleteAccount handles DELETE /api/accounts/{id}
func (h *RecordsHandler) DeleteAccount(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	if err := h.store.DeleteAccount(ctx, middleware.UserFromContext(ctx), id); err != nil {
		writeStoreError(w, h.log, err, "Account")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "Deleted"})
}

// GetBudget handles GET /api/budget
func (h *RecordsHandler) GetBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	settings, err := h.store.GetBudget(ctx, middleware.UserFromContext(ctx))
	if err != nil {
		writeStoreError(w, h.log, err, "Budget")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, settings)
}

// UpdateBudget handles PUT /api/budget
func (h *RecordsHandler) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var settings domain.BudgetSettings
	if !decodeBody(w, r, &settings) {
		return
	}
	settings.UserID = middleware.UserFromContext(ctx)

	if err := h.store.UpsertBudget(ctx, &settings); err != nil {
		writeStoreError(w, h.log, err, "Budget")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, settings)
}

// GetSummary handles GET /api/summary?month=YYYY-MM
func (h *RecordsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	month := r.URL.Query().Get("month")
	if month != "" && !validDate(month+"-01") {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid month, want YYYY-MM")
		return
	}

	txs, err := h.store.ListTransactions(ctx, middleware.UserFromContext(ctx), store.TransactionFilter{Limit: summaryWindow})
	if err != nil {
		writeStoreError(w, h.log, err, "Transaction")
		return
	}
	if month != "" {
		txs = inMonth(txs, month)
	}

	middleware.WriteJSON(w, http.StatusOK, domain.Summarize(txs))
}

func inMonth(txs []domain.Transaction, month string) []domain.Transaction {
	out := txs[:0]
	for _, tx := range txs {
		if strings.HasPrefix(tx.Date, month+"-") {
			out = append(out, tx)
		}
	}
	return out
}
