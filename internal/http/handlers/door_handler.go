package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"parkgate/internal/service"
)

// DoorControl is the actuator surface for the door endpoints.
type DoorControl interface {
	Toggle(ctx context.Context, name string) (bool, error)
	Statuses() map[string]bool
}

// DoorHandler serves door toggle/status endpoints.
type DoorHandler struct {
	doors  DoorControl
	logger *zap.Logger
}

// NewDoorHandler builds handler set.
func NewDoorHandler(doors DoorControl, logger *zap.Logger) *DoorHandler {
	return &DoorHandler{doors: doors, logger: logger}
}

type toggleRequest struct {
	Name string `json:"name"`
}

// HandleToggle handles POST /doors/toggle.
func (h *DoorHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "door name is required")
		return
	}

	isOpen, err := h.doors.Toggle(r.Context(), req.Name)
	if err != nil {
		if errors.Is(err, service.ErrUnknownDoor) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("door toggle failed", zap.String("door", req.Name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to toggle door")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"name": req.Name, "is_open": isOpen})
}

// HandleStatuses handles GET /doors.
func (h *DoorHandler) HandleStatuses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"doors": h.doors.Statuses()})
}
