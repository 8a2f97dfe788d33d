package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"parkgate/internal/classifier"
	"parkgate/internal/clock"
	"parkgate/internal/fee"
	"parkgate/internal/mirror"
	"parkgate/internal/models"
)

// Validation and state errors surfaced to callers before or instead of any
// ledger mutation.
var (
	ErrPlateRequired = errors.New("license plate is required")
	ErrInvalidHint   = errors.New("invalid scan hint")
	ErrNoOpenSession = errors.New("no open session for vehicle")
)

// LedgerStore is the authoritative session ledger as the service consumes it.
type LedgerStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	FindOrCreateVehicle(ctx context.Context, plate string) (*models.Vehicle, error)
	FindVehicleForUpdate(ctx context.Context, plate string) (*models.Vehicle, error)
	FindOpenSession(ctx context.Context, vehicleID int64) (*models.Session, error)
	OpenSession(ctx context.Context, vehicleID int64, rfidCode, imageSrc *string, at time.Time) (*models.Session, error)
	CloseSession(ctx context.Context, sessionID int64, at time.Time, fee float64) (*models.Session, error)
	RecordTransaction(ctx context.Context, sessionID int64, amount float64, method string, at time.Time) (*models.Transaction, error)
	ListOpenSessionsSince(ctx context.Context, since time.Time) ([]models.Session, error)
}

// Mirror is the best-effort real-time projection. Write failures never fail
// the ledger operation that triggered them.
type Mirror interface {
	SetVehicleStatus(ctx context.Context, plate string, status mirror.VehicleStatus) error
	RemoveVehicle(ctx context.Context, plate string) error
	SetLastAction(ctx context.Context, action string, info mirror.VehicleStatus) error
	SetLastScan(ctx context.Context, imageSrc, plate string) error
	SetDoorStatus(ctx context.Context, door string, isOpen bool) error
	ClearVehicles(ctx context.Context) error
}

// ScanEvent is one gate observation, validated at this boundary so the
// classifier only ever sees well-formed input.
type ScanEvent struct {
	Plate    string
	RFIDCode string
	ImageSrc string
	Hint     classifier.Hint
}

// ScanResult is the outcome of one processed event. Session and Transaction
// are nil for conflicts: a conflict commits nothing.
type ScanResult struct {
	Disposition classifier.Disposition
	Session     *models.Session
	Transaction *models.Transaction
}

const (
	defaultPaymentMethod     = "cash"
	defaultMirrorWriteBudget = 3 * time.Second
)

// SessionService composes ledger, classifier, fee calculator and mirror into
// the public scan operations.
type SessionService struct {
	ledger        LedgerStore
	mirror        Mirror
	prices        *PriceService
	clock         clock.Clock
	logger        *zap.Logger
	paymentMethod string
	mirrorBudget  time.Duration

	mirrorWrites sync.WaitGroup
}

// SessionServiceOption tweaks construction defaults.
type SessionServiceOption func(*SessionService)

// WithPaymentMethod sets the method recorded for scan-driven exits.
func WithPaymentMethod(method string) SessionServiceOption {
	return func(s *SessionService) {
		if method != "" {
			s.paymentMethod = method
		}
	}
}

// WithMirrorWriteBudget bounds how long a queued mirror update may run.
func WithMirrorWriteBudget(d time.Duration) SessionServiceOption {
	return func(s *SessionService) {
		if d > 0 {
			s.mirrorBudget = d
		}
	}
}

// NewSessionService builds the orchestrator.
func NewSessionService(ledger LedgerStore, m Mirror, prices *PriceService, clk clock.Clock, logger *zap.Logger, opts ...SessionServiceOption) *SessionService {
	svc := &SessionService{
		ledger:        ledger,
		mirror:        m,
		prices:        prices,
		clock:         clk,
		logger:        logger,
		paymentMethod: defaultPaymentMethod,
		mirrorBudget:  defaultMirrorWriteBudget,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// ProcessScan classifies the event against the ledger and applies the
// resulting transition. The ledger transaction is the commit point; the
// mirror update is queued after commit and never affects the outcome.
func (s *SessionService) ProcessScan(ctx context.Context, event ScanEvent) (*ScanResult, error) {
	plate := normalizePlate(event.Plate)
	if plate == "" {
		return nil, ErrPlateRequired
	}
	if !event.Hint.Valid() {
		return nil, ErrInvalidHint
	}

	rate := s.prices.RatePerHour(ctx)
	now := s.clock.Now()

	var result ScanResult
	var conflicting *models.Session

	err := s.ledger.WithTx(ctx, func(txCtx context.Context) error {
		vehicle, err := s.ledger.FindOrCreateVehicle(txCtx, plate)
		if err != nil {
			return err
		}
		open, err := s.ledger.FindOpenSession(txCtx, vehicle.ID)
		if err != nil {
			return err
		}

		result.Disposition = classifier.Classify(open != nil, event.Hint)
		switch result.Disposition {
		case classifier.DispositionEnter:
			session, err := s.ledger.OpenSession(txCtx, vehicle.ID, optional(event.RFIDCode), optional(event.ImageSrc), now)
			if err != nil {
				return err
			}
			session.Plate = plate
			result.Session = session
		case classifier.DispositionExit:
			open.Plate = plate
			closed, tx, err := s.closeAndCharge(txCtx, open, now, rate)
			if err != nil {
				return err
			}
			result.Session = closed
			result.Transaction = tx
		case classifier.DispositionConflict:
			if open != nil {
				open.Plate = plate
				conflicting = open
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Disposition == classifier.DispositionConflict {
		s.logger.Warn("scan conflict, ledger untouched",
			zap.String("plate", plate),
			zap.String("hint", string(event.Hint)),
			zap.Bool("session_open", conflicting != nil),
		)
	}

	s.queueMirrorUpdate(plate, event, result, conflicting)
	return &result, nil
}

// CloseSession checks the vehicle out explicitly (manual override / exit
// endpoint). ErrNoOpenSession when the plate is unknown or already out.
func (s *SessionService) CloseSession(ctx context.Context, plate string) (*ScanResult, error) {
	plate = normalizePlate(plate)
	if plate == "" {
		return nil, ErrPlateRequired
	}

	rate := s.prices.RatePerHour(ctx)
	now := s.clock.Now()

	result := ScanResult{Disposition: classifier.DispositionExit}
	err := s.ledger.WithTx(ctx, func(txCtx context.Context) error {
		vehicle, err := s.ledger.FindVehicleForUpdate(txCtx, plate)
		if err != nil {
			return err
		}
		if vehicle == nil {
			return ErrNoOpenSession
		}
		open, err := s.ledger.FindOpenSession(txCtx, vehicle.ID)
		if err != nil {
			return err
		}
		if open == nil {
			return ErrNoOpenSession
		}
		open.Plate = plate
		closed, tx, err := s.closeAndCharge(txCtx, open, now, rate)
		if err != nil {
			return err
		}
		result.Session = closed
		result.Transaction = tx
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.queueMirrorUpdate(plate, ScanEvent{Plate: plate}, result, nil)
	return &result, nil
}

// Wait blocks until queued mirror writes drain. Called at shutdown.
func (s *SessionService) Wait() {
	s.mirrorWrites.Wait()
}

func (s *SessionService) closeAndCharge(ctx context.Context, open *models.Session, now time.Time, rate float64) (*models.Session, *models.Transaction, error) {
	amount := fee.Compute(open.CheckinTime, now, rate)
	closed, err := s.ledger.CloseSession(ctx, open.ID, now, amount)
	if err != nil {
		return nil, nil, err
	}
	closed.Plate = open.Plate
	tx, err := s.ledger.RecordTransaction(ctx, closed.ID, amount, s.paymentMethod, now)
	if err != nil {
		return nil, nil, err
	}
	return closed, tx, nil
}

// queueMirrorUpdate publishes the event outcome to the mirror without making
// the caller wait. The write gets its own bounded context; failures are
// logged and left for the synchronizer to heal.
func (s *SessionService) queueMirrorUpdate(plate string, event ScanEvent, result ScanResult, conflicting *models.Session) {
	s.mirrorWrites.Add(1)
	go func() {
		defer s.mirrorWrites.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.mirrorBudget)
		defer cancel()
		if err := s.applyMirrorUpdate(ctx, plate, event, result, conflicting); err != nil {
			s.logger.Warn("mirror update failed",
				zap.String("plate", plate),
				zap.String("disposition", string(result.Disposition)),
				zap.Error(err),
			)
		}
	}()
}

func (s *SessionService) applyMirrorUpdate(ctx context.Context, plate string, event ScanEvent, result ScanResult, conflicting *models.Session) error {
	switch result.Disposition {
	case classifier.DispositionEnter:
		status := vehicleStatus(result.Session)
		if err := s.mirror.SetVehicleStatus(ctx, plate, status); err != nil {
			return err
		}
		if err := s.mirror.SetLastScan(ctx, status.ImageSrc, plate); err != nil {
			return err
		}
		return s.mirror.SetLastAction(ctx, string(classifier.DispositionEnter), status)
	case classifier.DispositionExit:
		if err := s.mirror.RemoveVehicle(ctx, plate); err != nil {
			return err
		}
		return s.mirror.SetLastAction(ctx, string(classifier.DispositionExit), vehicleStatus(result.Session))
	case classifier.DispositionConflict:
		status := mirror.VehicleStatus{
			LicensePlate: plate,
			RFIDCode:     event.RFIDCode,
			ImageSrc:     event.ImageSrc,
		}
		if conflicting != nil {
			status = vehicleStatus(conflicting)
		}
		return s.mirror.SetLastAction(ctx, string(classifier.DispositionConflict), status)
	}
	return nil
}

// vehicleStatus flattens a ledger session into its mirror entry.
func vehicleStatus(s *models.Session) mirror.VehicleStatus {
	status := mirror.VehicleStatus{
		LicensePlate: s.Plate,
		SessionID:    s.ID,
		EntryTime:    s.CheckinTime,
		ExitTime:     s.CheckoutTime,
	}
	if s.RFIDCode != nil {
		status.RFIDCode = *s.RFIDCode
	}
	if s.ImageSrc != nil {
		status.ImageSrc = *s.ImageSrc
	}
	return status
}

func normalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
