package service

import (
	"context"
	"sync"
	"time"

	"parkgate/internal/mirror"
	"parkgate/internal/models"
	"parkgate/internal/repository"
)

// fakeLedger is an in-memory LedgerStore. WithTx serializes callers the way
// the vehicle row lock does in Postgres, and restores a snapshot on error so
// a failed unit leaves no partial write.
type fakeLedger struct {
	txMu sync.Mutex
	mu   sync.Mutex

	vehicles     map[string]*models.Vehicle
	sessions     map[int64]*models.Session
	transactions []models.Transaction

	nextVehicleID int64
	nextSessionID int64
	nextTxID      int64

	recordTxErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		vehicles: make(map[string]*models.Vehicle),
		sessions: make(map[int64]*models.Session),
	}
}

func (f *fakeLedger) snapshot() (map[string]*models.Vehicle, map[int64]*models.Session, []models.Transaction) {
	vehicles := make(map[string]*models.Vehicle, len(f.vehicles))
	for k, v := range f.vehicles {
		cp := *v
		vehicles[k] = &cp
	}
	sessions := make(map[int64]*models.Session, len(f.sessions))
	for k, s := range f.sessions {
		cp := *s
		sessions[k] = &cp
	}
	txs := append([]models.Transaction(nil), f.transactions...)
	return vehicles, sessions, txs
}

func (f *fakeLedger) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.txMu.Lock()
	defer f.txMu.Unlock()

	f.mu.Lock()
	vehicles, sessions, txs := f.snapshot()
	f.mu.Unlock()

	if err := fn(ctx); err != nil {
		f.mu.Lock()
		f.vehicles, f.sessions, f.transactions = vehicles, sessions, txs
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *fakeLedger) FindOrCreateVehicle(ctx context.Context, plate string) (*models.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.vehicles[plate]; ok {
		cp := *v
		return &cp, nil
	}
	f.nextVehicleID++
	v := &models.Vehicle{ID: f.nextVehicleID, Plate: plate, CreatedAt: time.Now()}
	f.vehicles[plate] = v
	cp := *v
	return &cp, nil
}

func (f *fakeLedger) FindVehicleForUpdate(ctx context.Context, plate string) (*models.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vehicles[plate]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (f *fakeLedger) FindOpenSession(ctx context.Context, vehicleID int64) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.VehicleID == vehicleID && s.CheckoutTime == nil {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeLedger) OpenSession(ctx context.Context, vehicleID int64, rfidCode, imageSrc *string, at time.Time) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.VehicleID == vehicleID && s.CheckoutTime == nil {
			return nil, repository.ErrOpenSessionExists
		}
	}
	var plate string
	for p, v := range f.vehicles {
		if v.ID == vehicleID {
			plate = p
		}
	}
	f.nextSessionID++
	s := &models.Session{
		ID:          f.nextSessionID,
		VehicleID:   vehicleID,
		Plate:       plate,
		CheckinTime: at,
		RFIDCode:    rfidCode,
		ImageSrc:    imageSrc,
	}
	f.sessions[s.ID] = s
	cp := *s
	return &cp, nil
}

func (f *fakeLedger) CloseSession(ctx context.Context, sessionID int64, at time.Time, fee float64) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok || s.CheckoutTime != nil {
		return nil, repository.ErrSessionNotFound
	}
	checkout := at
	s.CheckoutTime = &checkout
	s.Fee = &fee
	cp := *s
	return &cp, nil
}

func (f *fakeLedger) RecordTransaction(ctx context.Context, sessionID int64, amount float64, method string, at time.Time) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordTxErr != nil {
		return nil, f.recordTxErr
	}
	f.nextTxID++
	tx := models.Transaction{
		ID:            f.nextTxID,
		SessionID:     sessionID,
		Amount:        amount,
		PaymentMethod: method,
		PaidAt:        at,
	}
	f.transactions = append(f.transactions, tx)
	cp := tx
	return &cp, nil
}

func (f *fakeLedger) ListOpenSessionsSince(ctx context.Context, since time.Time) ([]models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Session
	for _, s := range f.sessions {
		if s.CheckoutTime == nil && !s.CheckinTime.Before(since) {
			out = append(out, *s)
		}
	}
	return out, nil
}

// openSessionCount reports sessions with no checkout for the plate.
func (f *fakeLedger) openSessionCount(plate string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vehicles[plate]
	if !ok {
		return 0
	}
	count := 0
	for _, s := range f.sessions {
		if s.VehicleID == v.ID && s.CheckoutTime == nil {
			count++
		}
	}
	return count
}

// fakeMirror records mirror writes keyed the way the real adapter keys them.
type fakeMirror struct {
	mu         sync.Mutex
	vehicles   map[string]mirror.VehicleStatus
	lastAction *mirror.LastAction
	lastScan   *mirror.LastScan
	doors      map[string]bool

	failPlates map[string]error
	failAll    error
	clearErr   error
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{
		vehicles:   make(map[string]mirror.VehicleStatus),
		doors:      make(map[string]bool),
		failPlates: make(map[string]error),
	}
}

func (f *fakeMirror) SetVehicleStatus(ctx context.Context, plate string, status mirror.VehicleStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	if err, ok := f.failPlates[plate]; ok {
		return err
	}
	f.vehicles[mirror.SanitizePlate(plate)] = status
	return nil
}

func (f *fakeMirror) RemoveVehicle(ctx context.Context, plate string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	delete(f.vehicles, mirror.SanitizePlate(plate))
	return nil
}

func (f *fakeMirror) SetLastAction(ctx context.Context, action string, info mirror.VehicleStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	f.lastAction = &mirror.LastAction{Action: action, Info: info}
	return nil
}

func (f *fakeMirror) SetLastScan(ctx context.Context, imageSrc, plate string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	f.lastScan = &mirror.LastScan{ImageSrc: imageSrc, LicensePlate: plate}
	return nil
}

func (f *fakeMirror) SetDoorStatus(ctx context.Context, door string, isOpen bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	f.doors[door] = isOpen
	return nil
}

func (f *fakeMirror) ClearVehicles(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clearErr != nil {
		return f.clearErr
	}
	f.vehicles = make(map[string]mirror.VehicleStatus)
	return nil
}

func (f *fakeMirror) vehicleSnapshot() map[string]mirror.VehicleStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]mirror.VehicleStatus, len(f.vehicles))
	for k, v := range f.vehicles {
		out[k] = v
	}
	return out
}

func (f *fakeMirror) action() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lastAction == nil {
		return ""
	}
	return f.lastAction.Action
}

// stepClock is a settable clock for multi-step scenarios.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
