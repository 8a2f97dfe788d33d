package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"parkgate/internal/service"
)

// MirrorResyncer rebuilds the mirror on operator demand.
type MirrorResyncer interface {
	ResyncMirror(ctx context.Context) (*service.SyncResult, error)
}

// MirrorHandler serves the reconciliation endpoint.
type MirrorHandler struct {
	sync   MirrorResyncer
	logger *zap.Logger
}

// NewMirrorHandler builds handler.
func NewMirrorHandler(sync MirrorResyncer, logger *zap.Logger) *MirrorHandler {
	return &MirrorHandler{sync: sync, logger: logger}
}

// HandleResync handles POST /mirror/resync.
func (h *MirrorHandler) HandleResync(w http.ResponseWriter, r *http.Request) {
	result, err := h.sync.ResyncMirror(r.Context())
	if err != nil {
		h.logger.Error("mirror resync failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to resync mirror")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
