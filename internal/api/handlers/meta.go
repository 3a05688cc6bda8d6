package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/rupeeriser/budget-buddy/internal/api/middleware"
	"github.com/rupeeriser/budget-buddy/internal/domain"
	"github.com/rupeeriser/budget-buddy/internal/interpreter"
	"github.com/rupeeriser/budget-buddy/internal/jobs"
)

// CategoriesHandler handles category-related endpoints.
type CategoriesHandler struct {
	keywords *interpreter.KeywordTable
	log      zerolog.Logger
}

// NewCategoriesHandler creates a new categories handler.
func NewCategoriesHandler(keywords *interpreter.KeywordTable, log zerolog.Logger) *CategoriesHandler {
	if keywords == nil {
		keywords = interpreter.DefaultKeywords()
	}
	return &CategoriesHandler{keywords: keywords, log: log}
}

// CategoryInfo describes one category and the words that select it.
type CategoryInfo struct {
	Name     domain.Category `json:"name"`
	Spending bool            `json:"spending"`
	Keywords []string        `json:"keywords"`
}

// ListCategories handles GET /api/categories
func (h *CategoriesHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories := make([]CategoryInfo, 0, len(domain.Categories))
	for _, cat := range domain.Categories {
		words := h.keywords.Words(cat)
		if words == nil {
			words = []string{}
		}
		categories = append(categories, CategoryInfo{
			Name:     cat,
			Spending: cat.IsSpending(),
			Keywords: words,
		})
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"count":      len(categories),
		"version":    h.keywords.Version(),
	})
}

// JobsHandler handles job-related endpoints. Users only see their own jobs.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil || job.UserID != middleware.UserFromContext(ctx) {
		if err != nil {
			h.log.Debug().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		}
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	filter := jobs.JobFilter{
		UserID:        middleware.UserFromContext(ctx),
		TransactionID: query.Get("transaction_id"),
		Status:        jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}
	if jobsList == nil {
		jobsList = []*jobs.ExportTransactionJob{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}

func validDate(s string) bool {
	_, err := time.Parse(domain.DateLayout, s)
	return err == nil
}
