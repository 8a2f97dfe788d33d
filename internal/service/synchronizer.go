package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"parkgate/internal/clock"
)

// SyncResult reports one mirror rebuild.
type SyncResult struct {
	Synced int      `json:"synced_count"`
	Errors []string `json:"errors"`
}

// Synchronizer rebuilds the mirror from the ledger's open sessions. It only
// reads the ledger and only overwrites the mirror, so running it at any time
// (startup, drift, operator demand) is safe and idempotent.
type Synchronizer struct {
	ledger LedgerStore
	mirror Mirror
	clock  clock.Clock
	loc    *time.Location
	logger *zap.Logger
}

// NewSynchronizer builds the reconciler. loc is the facility's local
// timezone used to bound "today"; nil means system local.
func NewSynchronizer(ledger LedgerStore, m Mirror, clk clock.Clock, loc *time.Location, logger *zap.Logger) *Synchronizer {
	if loc == nil {
		loc = time.Local
	}
	return &Synchronizer{
		ledger: ledger,
		mirror: m,
		clock:  clk,
		loc:    loc,
		logger: logger,
	}
}

// ResyncMirror clears the mirror's vehicle tree and rewrites one entry per
// session still open today. A vehicle that fails to write is collected and
// skipped; the rest of the batch proceeds.
func (s *Synchronizer) ResyncMirror(ctx context.Context) (*SyncResult, error) {
	if err := s.mirror.ClearVehicles(ctx); err != nil {
		return nil, fmt.Errorf("resync: %w", err)
	}

	sessions, err := s.ledger.ListOpenSessionsSince(ctx, s.startOfDay())
	if err != nil {
		return nil, fmt.Errorf("resync: %w", err)
	}

	result := &SyncResult{Errors: []string{}}
	for i := range sessions {
		sess := &sessions[i]
		if err := s.mirror.SetVehicleStatus(ctx, sess.Plate, vehicleStatus(sess)); err != nil {
			s.logger.Warn("resync: vehicle write failed",
				zap.String("plate", sess.Plate),
				zap.Int64("session_id", sess.ID),
				zap.Error(err),
			)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", sess.Plate, err))
			continue
		}
		result.Synced++
	}

	s.logger.Info("mirror resynced",
		zap.Int("synced", result.Synced),
		zap.Int("failed", len(result.Errors)),
	)
	return result, nil
}

func (s *Synchronizer) startOfDay() time.Time {
	now := s.clock.Now().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
}
