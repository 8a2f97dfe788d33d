package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"parkgate/internal/classifier"
	"parkgate/internal/service"
)

// ScanProcessor is the session lifecycle surface the gate endpoints need.
type ScanProcessor interface {
	ProcessScan(ctx context.Context, event service.ScanEvent) (*service.ScanResult, error)
	CloseSession(ctx context.Context, plate string) (*service.ScanResult, error)
}

// ScanHandler serves the gate-facing scan and checkout endpoints.
type ScanHandler struct {
	svc    ScanProcessor
	logger *zap.Logger
}

// NewScanHandler builds handler set.
func NewScanHandler(svc ScanProcessor, logger *zap.Logger) *ScanHandler {
	return &ScanHandler{svc: svc, logger: logger}
}

type scanRequest struct {
	LicensePlate string `json:"license_plate"`
	RFIDCode     string `json:"rfid_code"`
	ImageSrc     string `json:"image_src"`
	Hint         string `json:"hint"`
}

type closeRequest struct {
	LicensePlate string `json:"license_plate"`
}

type scanResponse struct {
	Disposition string   `json:"disposition"`
	SessionID   *int64   `json:"session_id,omitempty"`
	Fee         *float64 `json:"fee,omitempty"`
}

func toScanResponse(result *service.ScanResult) scanResponse {
	resp := scanResponse{Disposition: string(result.Disposition)}
	if result.Session != nil {
		resp.SessionID = &result.Session.ID
	}
	if result.Transaction != nil {
		resp.Fee = &result.Transaction.Amount
	}
	return resp
}

// HandleScan handles POST /scan. A conflict disposition is a successful
// response, not an error status.
func (h *ScanHandler) HandleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	result, err := h.svc.ProcessScan(r.Context(), service.ScanEvent{
		Plate:    req.LicensePlate,
		RFIDCode: req.RFIDCode,
		ImageSrc: req.ImageSrc,
		Hint:     classifier.Hint(req.Hint),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlateRequired), errors.Is(err, service.ErrInvalidHint):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("scan processing failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to process scan")
		}
		return
	}
	writeJSON(w, http.StatusOK, toScanResponse(result))
}

// HandleClose handles POST /sessions/close.
func (h *ScanHandler) HandleClose(w http.ResponseWriter, r *http.Request) {
	var req closeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	result, err := h.svc.CloseSession(r.Context(), req.LicensePlate)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlateRequired):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrNoOpenSession):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			h.logger.Error("close session failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to close session")
		}
		return
	}
	writeJSON(w, http.StatusOK, toScanResponse(result))
}
