package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rupeeriser/budget-buddy/internal/api/middleware"
	"github.com/rupeeriser/budget-buddy/internal/domain"
	"github.com/rupeeriser/budget-buddy/internal/store"
)

// TransactionParser turns free text into a transaction guess.
type TransactionParser interface {
	Parse(ctx context.Context, text string) domain.ParsedTransaction
}

// Advisor produces budget plans and chat replies.
type Advisor interface {
	// Plan returns nil when no plan could be generated.
	Plan(ctx context.Context, profile domain.BudgetProfile) *domain.BudgetPlan
	Chat(ctx context.Context, message, contextData string) string
}

// AIHandler handles the /api/ai endpoints. Each endpoint always answers 200
// with a usable body once the request itself is valid.
type AIHandler struct {
	parser  TransactionParser
	advisor Advisor
	store   store.Store
	log     zerolog.Logger
	now     func() time.Time
}

// NewAIHandler creates a new AI handler.
func NewAIHandler(parser TransactionParser, advisor Advisor, s store.Store, log zerolog.Logger) *AIHandler {
	return &AIHandler{
		parser:  parser,
		advisor: advisor,
		store:   s,
		log:     log,
		now:     time.Now,
	}
}

// Parse handles POST /api/ai/parse
func (h *AIHandler) Parse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	parsed := h.parser.Parse(r.Context(), req.Text)
	middleware.WriteJSON(w, http.StatusOK, parsed)
}

// Chat handles POST /api/ai/chat. Without a client-supplied context the
// user's summary and goals are sent instead.
func (h *AIHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Message string `json:"message"`
		Context string `json:"context"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Message is required")
		return
	}

	contextData := req.Context
	if strings.TrimSpace(contextData) == "" {
		contextData = h.financeContext(ctx, middleware.UserFromContext(ctx))
	}

	reply := h.advisor.Chat(ctx, req.Message, contextData)
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"response": reply})
}

// Plan handles POST /api/ai/plan. Goals and spending missing from the
// request are taken from the store.
func (h *AIHandler) Plan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var profile domain.BudgetProfile
	if !decodeBody(w, r, &profile) {
		return
	}
	h.completeProfile(ctx, middleware.UserFromContext(ctx), &profile)

	plan := h.advisor.Plan(ctx, profile)
	if plan == nil {
		fallback := domain.DefaultBudgetPlan()
		plan = &fallback
	}
	middleware.WriteJSON(w, http.StatusOK, plan)
}

func (h *AIHandler) completeProfile(ctx context.Context, userID string, profile *domain.BudgetProfile) {
	if profile.Goals == nil {
		goals, err := h.store.ListGoals(ctx, userID)
		if err != nil {
			h.log.Warn().Err(err).Msg("Could not load goals for plan")
		}
		profile.Goals = goals
	}

	if profile.CurrentSpending == 0 && len(profile.SpendingSummary) == 0 {
		month := h.now().Format("2006-01")
		txs, err := h.store.ListTransactions(ctx, userID, store.TransactionFilter{Limit: summaryWindow})
		if err != nil {
			h.log.Warn().Err(err).Msg("Could not load spending for plan")
			return
		}
		summary := domain.Summarize(inMonth(txs, month))
		profile.CurrentSpending = summary.Expense
		if len(summary.ByCategory) > 0 {
			profile.SpendingSummary = make(map[string]float64, len(summary.ByCategory))
			for cat, total := range summary.ByCategory {
				profile.SpendingSummary[string(cat)] = total
			}
		}
		if profile.PeriodContext == "" {
			profile.PeriodContext = "Month to date " + month
		}
	}
}

// financeContext renders a short description of the user's finances for chat.
func (h *AIHandler) financeContext(ctx context.Context, userID string) string {
	txs, err := h.store.ListTransactions(ctx, userID, store.TransactionFilter{Limit: summaryWindow})
	if err != nil {
		h.log.Warn().Err(err).Msg("Could not load transactions for chat context")
		return ""
	}
	if len(txs) == 0 {
		return ""
	}
	summary := domain.Summarize(txs)

	var b strings.Builder
	fmt.Fprintf(&b, "Total income: %.2f\n", summary.Income)
	fmt.Fprintf(&b, "Total expense: %.2f\n", summary.Expense)
	fmt.Fprintf(&b, "Balance: %.2f\n", summary.Balance)

	cats := make([]string, 0, len(summary.ByCategory))
	for cat := range summary.ByCategory {
		cats = append(cats, string(cat))
	}
	sort.Strings(cats)
	for _, cat := range cats {
		fmt.Fprintf(&b, "Spent on %s: %.2f\n", cat, summary.ByCategory[domain.Category(cat)])
	}

	goals, err := h.store.ListGoals(ctx, userID)
	if err == nil {
		for _, g := range goals {
			fmt.Fprintf(&b, "Goal %s: %.2f\n", g.Name, g.Amount)
		}
	}
	return strings.TrimSpace(b.String())
}
