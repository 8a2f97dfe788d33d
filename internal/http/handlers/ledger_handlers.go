package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"parkgate/internal/models"
)

// LedgerReader is the read surface exposed to dashboards.
type LedgerReader interface {
	ListOpenSessionsSince(ctx context.Context, since time.Time) ([]models.Session, error)
	ListRecentTransactions(ctx context.Context, limit int) ([]models.Transaction, error)
}

// LedgerHandler serves the dashboard read endpoints.
type LedgerHandler struct {
	ledger LedgerReader
	logger *zap.Logger
}

// NewLedgerHandler builds handler set.
func NewLedgerHandler(ledger LedgerReader, logger *zap.Logger) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, logger: logger}
}

// HandleOpenSessions handles GET /sessions/open.
func (h *LedgerHandler) HandleOpenSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.ledger.ListOpenSessionsSince(r.Context(), time.Time{})
	if err != nil {
		h.logger.Error("list open sessions failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list open sessions")
		return
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

// HandleTransactions handles GET /transactions?limit=N.
func (h *LedgerHandler) HandleTransactions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	txs, err := h.ledger.ListRecentTransactions(r.Context(), limit)
	if err != nil {
		h.logger.Error("list transactions failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": txs})
}
