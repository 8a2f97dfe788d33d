package repository

import (
	"context"
	"fmt"
	"time"

	"parkgate/internal/models"
)

// RecordTransaction inserts the payment for a closing session. The schema
// allows exactly one transaction per session.
func (l *Ledger) RecordTransaction(ctx context.Context, sessionID int64, amount float64, method string, at time.Time) (*models.Transaction, error) {
	const query = `
		INSERT INTO transactions (session_id, amount, payment_method, paid_at, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at
	`
	tx := &models.Transaction{
		SessionID:     sessionID,
		Amount:        amount,
		PaymentMethod: method,
		PaidAt:        at,
	}
	err := l.q(ctx).QueryRowContext(ctx, query, sessionID, amount, method, at).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrTransactionExists
		}
		return nil, fmt.Errorf("record transaction: %w", err)
	}
	return tx, nil
}

// ListRecentTransactions returns latest payments, newest first.
func (l *Ledger) ListRecentTransactions(ctx context.Context, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT id, session_id, amount, payment_method, paid_at, created_at
		FROM transactions
		ORDER BY paid_at DESC
		LIMIT $1
	`
	rows, err := l.q(ctx).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(
			&tx.ID,
			&tx.SessionID,
			&tx.Amount,
			&tx.PaymentMethod,
			&tx.PaidAt,
			&tx.CreatedAt,
		); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return txs, nil
}
