package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"parkgate/internal/clock"
	"parkgate/internal/mirror"
)

func TestSynchronizer_ResyncMirror(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

	seedLedger := func(t *testing.T, ledger *fakeLedger, plate string, checkin time.Time) {
		t.Helper()
		v, err := ledger.FindOrCreateVehicle(context.Background(), plate)
		if err != nil {
			t.Fatalf("seed vehicle %s: %v", plate, err)
		}
		if _, err := ledger.OpenSession(context.Background(), v.ID, nil, nil, checkin); err != nil {
			t.Fatalf("seed session %s: %v", plate, err)
		}
	}

	t.Run("rebuilds only today's open sessions", func(t *testing.T) {
		ledger := newFakeLedger()
		m := newFakeMirror()
		sync := NewSynchronizer(ledger, m, clock.NewFixed(now), time.UTC, zap.NewNop())

		seedLedger(t, ledger, "51F-123.45", now.Add(-2*time.Hour))
		seedLedger(t, ledger, "ABC-999", now.Add(-30*time.Minute))
		// Open since yesterday: outside today's window.
		seedLedger(t, ledger, "OLD-111", now.Add(-20*time.Hour))

		// Stale entry that should disappear with the pre-clear.
		if err := m.SetVehicleStatus(context.Background(), "STALE-1", mirror.VehicleStatus{LicensePlate: "STALE-1"}); err != nil {
			t.Fatalf("seed mirror: %v", err)
		}

		result, err := sync.ResyncMirror(context.Background())
		if err != nil {
			t.Fatalf("resync: %v", err)
		}
		if result.Synced != 2 {
			t.Fatalf("expected 2 synced, got %d", result.Synced)
		}
		if len(result.Errors) != 0 {
			t.Fatalf("expected no errors, got %v", result.Errors)
		}

		snapshot := m.vehicleSnapshot()
		if len(snapshot) != 2 {
			t.Fatalf("expected 2 mirror entries, got %v", snapshot)
		}
		if _, ok := snapshot["51F-123_45"]; !ok {
			t.Fatal("expected sanitized entry for 51F-123.45")
		}
		if _, ok := snapshot["STALE-1"]; ok {
			t.Fatal("stale entry must be cleared")
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		ledger := newFakeLedger()
		m := newFakeMirror()
		sync := NewSynchronizer(ledger, m, clock.NewFixed(now), time.UTC, zap.NewNop())

		seedLedger(t, ledger, "51F-123.45", now.Add(-time.Hour))
		seedLedger(t, ledger, "ABC-999", now.Add(-time.Minute))

		if _, err := sync.ResyncMirror(context.Background()); err != nil {
			t.Fatalf("first resync: %v", err)
		}
		first := m.vehicleSnapshot()

		if _, err := sync.ResyncMirror(context.Background()); err != nil {
			t.Fatalf("second resync: %v", err)
		}
		second := m.vehicleSnapshot()

		if !reflect.DeepEqual(first, second) {
			t.Fatalf("resync must be idempotent: %v vs %v", first, second)
		}
	})

	t.Run("collects per-vehicle failures and continues", func(t *testing.T) {
		ledger := newFakeLedger()
		m := newFakeMirror()
		sync := NewSynchronizer(ledger, m, clock.NewFixed(now), time.UTC, zap.NewNop())

		seedLedger(t, ledger, "BAD-001", now.Add(-time.Hour))
		seedLedger(t, ledger, "GOOD-01", now.Add(-time.Hour))
		m.failPlates["BAD-001"] = errors.New("write refused")

		result, err := sync.ResyncMirror(context.Background())
		if err != nil {
			t.Fatalf("resync: %v", err)
		}
		if result.Synced != 1 {
			t.Fatalf("expected 1 synced, got %d", result.Synced)
		}
		if len(result.Errors) != 1 {
			t.Fatalf("expected 1 collected error, got %v", result.Errors)
		}
		if _, ok := m.vehicleSnapshot()["GOOD-01"]; !ok {
			t.Fatal("remaining vehicles must still be attempted")
		}
	})

	t.Run("clear failure aborts the rebuild", func(t *testing.T) {
		ledger := newFakeLedger()
		m := newFakeMirror()
		m.clearErr = errors.New("mirror down")
		sync := NewSynchronizer(ledger, m, clock.NewFixed(now), time.UTC, zap.NewNop())

		if _, err := sync.ResyncMirror(context.Background()); err == nil {
			t.Fatal("expected error when clear fails")
		}
	})
}
