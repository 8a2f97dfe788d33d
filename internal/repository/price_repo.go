package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"parkgate/internal/models"
)

// GetActiveRate returns the currently active hourly rate (latest active row).
func (l *Ledger) GetActiveRate(ctx context.Context) (*models.Price, error) {
	const query = `
		SELECT id, name, rate_per_hour, is_active, created_at, updated_at
		FROM pricing
		WHERE is_active = true
		ORDER BY updated_at DESC
		LIMIT 1
	`
	var p models.Price
	err := l.q(ctx).QueryRowContext(ctx, query).Scan(
		&p.ID,
		&p.Name,
		&p.RatePerHour,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoActiveRate
	}
	if err != nil {
		return nil, fmt.Errorf("get active rate: %w", err)
	}
	return &p, nil
}
