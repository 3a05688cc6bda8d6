// Package api assembles the HTTP routes and middleware of the budget server.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rupeeriser/budget-buddy/internal/api/handlers"
	"github.com/rupeeriser/budget-buddy/internal/api/middleware"
	"github.com/rupeeriser/budget-buddy/internal/interpreter"
	"github.com/rupeeriser/budget-buddy/internal/jobs"
	"github.com/rupeeriser/budget-buddy/internal/store"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Store     store.Store
	Publisher jobs.Publisher // optional
	JobStore  jobs.JobStore
	Parser    handlers.TransactionParser
	Advisor   handlers.Advisor
	Keywords  *interpreter.KeywordTable
	// Metrics serves /metrics when set.
	Metrics     http.Handler
	DefaultUser string
	Log         zerolog.Logger
}

// NewRouter builds the server handler. /health and /metrics bypass Auth.
func NewRouter(d Deps) http.Handler {
	log := d.Log

	transactionsHandler := handlers.NewTransactionsHandler(d.Store, d.Publisher, log)
	recordsHandler := handlers.NewRecordsHandler(d.Store, log)
	aiHandler := handlers.NewAIHandler(d.Parser, d.Advisor, d.Store, log)
	categoriesHandler := handlers.NewCategoriesHandler(d.Keywords, log)
	jobsHandler := handlers.NewJobsHandler(d.JobStore, log)

	api := http.NewServeMux()

	// Transactions endpoints
	api.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			transactionsHandler.ListTransactions(w, r)
		case http.MethodPost:
			transactionsHandler.CreateTransaction(w, r)
		default:
			methodNotAllowed(w)
		}
	})
	api.HandleFunc("/api/transactions/", withID("/api/transactions/", func(w http.ResponseWriter, r *http.Request, id string) {
		switch r.Method {
		case http.MethodPut:
			transactionsHandler.UpdateTransaction(w, r, id)
		case http.MethodDelete:
			transactionsHandler.DeleteTransaction(w, r, id)
		default:
			methodNotAllowed(w)
		}
	}))

	// Goals endpoints
	api.HandleFunc("/api/goals", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			recordsHandler.ListGoals(w, r)
		case http.MethodPost:
			recordsHandler.CreateGoal(w, r)
		default:
			methodNotAllowed(w)
		}
	})
	api.HandleFunc("/api/goals/", withID("/api/goals/", func(w http.ResponseWriter, r *http.Request, id string) {
		if r.Method != http.MethodDelete {
			methodNotAllowed(w)
			return
		}
		recordsHandler.DeleteGoal(w, r, id)
	}))

	// Habits endpoints
	api.HandleFunc("/api/habits", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			recordsHandler.ListHabits(w, r)
		case http.MethodPost:
			recordsHandler.CreateHabit(w, r)
		default:
			methodNotAllowed(w)
		}
	})
	api.HandleFunc("/api/habits/", withID("/api/habits/", func(w http.ResponseWriter, r *http.Request, id string) {
		switch r.Method {
		case http.MethodPut:
			recordsHandler.UpdateHabit(w, r, id)
		case http.MethodDelete:
			recordsHandler.DeleteHabit(w, r, id)
		default:
			methodNotAllowed(w)
		}
	}))

	// Accounts endpoints
	api.HandleFunc("/api/accounts", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			recordsHandler.ListAccounts(w, r)
		case http.MethodPost:
			recordsHandler.CreateAccount(w, r)
		default:
			methodNotAllowed(w)
		}
	})
	api.HandleFunc("/api/accounts/", withID("/api/accounts/", func(w http.ResponseWriter, r *http.Request, id string) {
		if r.Method != http.MethodDelete {
			methodNotAllowed(w)
			return
		}
		recordsHandler.DeleteAccount(w, r, id)
	}))

	// Budget and summary
	api.HandleFunc("/api/budget", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			recordsHandler.GetBudget(w, r)
		case http.MethodPut:
			recordsHandler.UpdateBudget(w, r)
		default:
			methodNotAllowed(w)
		}
	})
	api.HandleFunc("/api/summary", onlyGet(recordsHandler.GetSummary))

	// AI endpoints
	api.HandleFunc("/api/ai/parse", onlyPost(aiHandler.Parse))
	api.HandleFunc("/api/ai/chat", onlyPost(aiHandler.Chat))
	api.HandleFunc("/api/ai/plan", onlyPost(aiHandler.Plan))

	// Categories and jobs
	api.HandleFunc("/api/categories", onlyGet(categoriesHandler.ListCategories))
	api.HandleFunc("/api/jobs", onlyGet(jobsHandler.ListJobs))
	api.HandleFunc("/api/jobs/", withID("/api/jobs/", func(w http.ResponseWriter, r *http.Request, id string) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		jobsHandler.GetJob(w, r, id)
	}))

	root := http.NewServeMux()
	root.Handle("/api/", middleware.Auth(d.DefaultUser)(api))

	// Health check endpoint
	root.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	if d.Metrics != nil {
		root.Handle("/metrics", d.Metrics)
	}

	return middleware.Chain(root,
		middleware.Recovery(log),
		middleware.RequestID,
		middleware.Logger(log),
		middleware.CORS,
	)
}

func methodNotAllowed(w http.ResponseWriter) {
	middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

func onlyGet(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h(w, r)
	}
}

func onlyPost(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h(w, r)
	}
}

// withID extracts the single path segment after prefix.
func withID(prefix string, h func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, prefix)
		if id == "" || strings.Contains(id, "/") {
			middleware.WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		h(w, r, id)
	}
}
