package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"parkgate/internal/models"
)

// FindOrCreateVehicle returns the vehicle row for the plate, inserting it on
// first sight. The ON CONFLICT DO UPDATE also takes the row lock, so within
// a WithTx unit every concurrent scan for the same plate serializes here;
// scans for different plates never contend.
func (l *Ledger) FindOrCreateVehicle(ctx context.Context, plate string) (*models.Vehicle, error) {
	const query = `
		INSERT INTO vehicles (plate)
		VALUES ($1)
		ON CONFLICT (plate) DO UPDATE SET plate = EXCLUDED.plate
		RETURNING id, plate, created_at
	`
	var v models.Vehicle
	if err := l.q(ctx).QueryRowContext(ctx, query, plate).Scan(&v.ID, &v.Plate, &v.CreatedAt); err != nil {
		return nil, fmt.Errorf("find or create vehicle: %w", err)
	}
	return &v, nil
}

// FindVehicleForUpdate returns the vehicle row locked for the rest of the
// transaction, or nil when the plate has never been seen. Used by explicit
// checkout, which must not create vehicles.
func (l *Ledger) FindVehicleForUpdate(ctx context.Context, plate string) (*models.Vehicle, error) {
	const query = `SELECT id, plate, created_at FROM vehicles WHERE plate = $1 FOR UPDATE`
	var v models.Vehicle
	err := l.q(ctx).QueryRowContext(ctx, query, plate).Scan(&v.ID, &v.Plate, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find vehicle: %w", err)
	}
	return &v, nil
}

// FindOpenSession returns the vehicle's open session, or nil when the
// vehicle is not inside. Must be called inside the same WithTx unit as any
// write that depends on the answer.
func (l *Ledger) FindOpenSession(ctx context.Context, vehicleID int64) (*models.Session, error) {
	const query = `
		SELECT id, vehicle_id, checkin_time, checkout_time, rfid_code, image_src, fee, created_at, updated_at
		FROM parking_sessions
		WHERE vehicle_id = $1 AND checkout_time IS NULL
	`
	var s models.Session
	err := l.q(ctx).QueryRowContext(ctx, query, vehicleID).Scan(
		&s.ID,
		&s.VehicleID,
		&s.CheckinTime,
		&s.CheckoutTime,
		&s.RFIDCode,
		&s.ImageSrc,
		&s.Fee,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find open session: %w", err)
	}
	return &s, nil
}

// OpenSession records a new stay starting at the given instant.
func (l *Ledger) OpenSession(ctx context.Context, vehicleID int64, rfidCode, imageSrc *string, at time.Time) (*models.Session, error) {
	const query = `
		INSERT INTO parking_sessions (vehicle_id, checkin_time, rfid_code, image_src, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	s := &models.Session{
		VehicleID:   vehicleID,
		CheckinTime: at,
		RFIDCode:    rfidCode,
		ImageSrc:    imageSrc,
	}
	err := l.q(ctx).QueryRowContext(ctx, query, vehicleID, at, rfidCode, imageSrc).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrOpenSessionExists
		}
		return nil, fmt.Errorf("open session: %w", err)
	}
	return s, nil
}

// CloseSession stamps checkout time and fee on an open session.
func (l *Ledger) CloseSession(ctx context.Context, sessionID int64, at time.Time, fee float64) (*models.Session, error) {
	const query = `
		UPDATE parking_sessions
		SET checkout_time = $2,
		    fee = $3,
		    updated_at = NOW()
		WHERE id = $1 AND checkout_time IS NULL
		RETURNING id, vehicle_id, checkin_time, checkout_time, rfid_code, image_src, fee, created_at, updated_at
	`
	var s models.Session
	err := l.q(ctx).QueryRowContext(ctx, query, sessionID, at, fee).Scan(
		&s.ID,
		&s.VehicleID,
		&s.CheckinTime,
		&s.CheckoutTime,
		&s.RFIDCode,
		&s.ImageSrc,
		&s.Fee,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("close session: %w", err)
	}
	return &s, nil
}

// ListOpenSessionsSince returns open sessions checked in at or after the
// given instant, plate included, oldest first. Used by the synchronizer and
// the dashboard read endpoint.
func (l *Ledger) ListOpenSessionsSince(ctx context.Context, since time.Time) ([]models.Session, error) {
	const query = `
		SELECT s.id, s.vehicle_id, v.plate, s.checkin_time, s.checkout_time, s.rfid_code, s.image_src, s.fee, s.created_at, s.updated_at
		FROM parking_sessions s
		JOIN vehicles v ON v.id = s.vehicle_id
		WHERE s.checkout_time IS NULL AND s.checkin_time >= $1
		ORDER BY s.checkin_time
	`
	rows, err := l.q(ctx).QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("list open sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(
			&s.ID,
			&s.VehicleID,
			&s.Plate,
			&s.CheckinTime,
			&s.CheckoutTime,
			&s.RFIDCode,
			&s.ImageSrc,
			&s.Fee,
			&s.CreatedAt,
			&s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}
