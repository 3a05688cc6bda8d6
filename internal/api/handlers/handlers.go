package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/rupeeriser/budget-buddy/internal/api/middleware"
	"github.com/rupeeriser/budget-buddy/internal/domain"
	"github.com/rupeeriser/budget-buddy/internal/jobs"
	"github.com/rupeeriser/budget-buddy/internal/store"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// decodeBody decodes the JSON request body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// writeStoreError maps store errors onto HTTP statuses.
func writeStoreError(w http.ResponseWriter, log zerolog.Logger, err error, what string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, store.ErrInvalid):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Msg("Store operation failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// TransactionsHandler handles transaction endpoints. Writes publish export
// jobs when a publisher is configured.
type TransactionsHandler struct {
	store     store.TransactionStore
	publisher jobs.Publisher
	log       zerolog.Logger
	now       func() time.Time
}

// NewTransactionsHandler creates a new transactions handler. publisher may be nil.
func NewTransactionsHandler(s store.TransactionStore, publisher jobs.Publisher, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		store:     s,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// ListTransactions handles GET /api/transactions?type=&limit=
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	var filter store.TransactionFilter
	if t := query.Get("type"); t != "" {
		filter.Type = domain.TxType(t)
		if !filter.Type.Valid() {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid type")
			return
		}
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		filter.Limit = limit
	}

	txs, err := h.store.ListTransactions(ctx, middleware.UserFromContext(ctx), filter)
	if err != nil {
		writeStoreError(w, h.log, err, "Transaction")
		return
	}

	// Return array directly for frontend compatibility
	if txs == nil {
		txs = []domain.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, txs)
}

// CreateTransaction handles POST /api/transactions
func (h *TransactionsHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var tx domain.Transaction
	if !decodeBody(w, r, &tx) {
		return
	}
	tx.ID = ""
	tx.UserID = middleware.UserFromContext(ctx)
	if tx.Date == "" {
		tx.Date = h.now().Format(domain.DateLayout)
	}

	if err := h.store.InsertTransaction(ctx, &tx); err != nil {
		writeStoreError(w, h.log, err, "Transaction")
		return
	}

	h.publish(ctx, jobs.NewUpsertJob(tx))
	middleware.WriteJSON(w, http.StatusCreated, tx)
}

// UpdateTransaction handles PUT /api/transactions/{id}
func (h *TransactionsHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	var tx domain.Transaction
	if !decodeBody(w, r, &tx) {
		return
	}
	tx.ID = id
	tx.UserID = middleware.UserFromContext(ctx)

	if err := h.store.UpdateTransaction(ctx, &tx); err != nil {
		writeStoreError(w, h.log, err, "Transaction")
		return
	}

	h.publish(ctx, jobs.NewUpsertJob(tx))
	middleware.WriteJSON(w, http.StatusOK, tx)
}

// DeleteTransaction handles DELETE /api/transactions/{id}
func (h *TransactionsHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	userID := middleware.UserFromContext(ctx)

	if err := h.store.DeleteTransaction(ctx, userID, id); err != nil {
		writeStoreError(w, h.log, err, "Transaction")
		return
	}

	h.publish(ctx, jobs.NewDeleteJob(userID, id))
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "Deleted successfully"})
}

// publish enqueues an export job. The write has already succeeded, so a
// failure is only logged.
func (h *TransactionsHandler) publish(ctx context.Context, job *jobs.ExportTransactionJob) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.PublishExport(ctx, job); err != nil {
		h.log.Error().
			Err(err).
			Str("transaction_id", job.TransactionID).
			Str("op", string(job.Op)).
			Msg("Failed to enqueue export job")
		return
	}
	h.log.Debug().
		Str("job_id", job.JobID).
		Str("transaction_id", job.TransactionID).
		Msg("Export job enqueued")
}
