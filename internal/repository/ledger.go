// Package repository implements the authoritative parking ledger on Postgres.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors surfaced to the service layer.
var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrOpenSessionExists = errors.New("open session already exists")
	ErrNoActiveRate      = errors.New("no active rate configured")
	ErrTransactionExists = errors.New("transaction already recorded for session")
)

const defaultTxTimeout = 5 * time.Second

// Ledger owns the durable vehicle/session/transaction history. All mutating
// operations are expected to run inside WithTx.
type Ledger struct {
	db        *sql.DB
	txTimeout time.Duration
}

// NewLedger returns a ledger over the given pool. txTimeout bounds every
// transaction started by WithTx; zero selects the default.
func NewLedger(db *sql.DB, txTimeout time.Duration) *Ledger {
	if txTimeout <= 0 {
		txTimeout = defaultTxTimeout
	}
	return &Ledger{db: db, txTimeout: txTimeout}
}

type txKey struct{}

// WithTx runs fn inside a single bounded transaction. Nested calls reuse the
// outer transaction. Any error from fn rolls the whole unit back, so a
// failure mid-operation leaves no partial row.
func (l *Ledger) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, l.txTimeout)
	defer cancel()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func txFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (l *Ledger) q(ctx context.Context) querier {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return l.db
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
