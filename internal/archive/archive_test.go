// AuthSentry - Authentication Security Monitoring and Threat Detection
// Copyright 2026 AuthSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/authsentry/authsentry

//go:build integration

package archive

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"

	"github.com/authsentry/authsentry/internal/monitor"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory duckdb: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := NewStore(db)
	if err := store.CreateTables(context.Background()); err != nil {
		t.Fatalf("CreateTables: %v", err)
	}
	return store
}

func TestCreateTables(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, table := range []string{"security_events", "security_alerts"} {
		var name string
		err := store.db.QueryRowContext(ctx,
			"SELECT table_name FROM information_schema.tables WHERE table_name = ?", table).Scan(&name)
		if err != nil {
			t.Fatalf("table %s does not exist: %v", table, err)
		}
	}

	// Schema creation is idempotent.
	if err := store.CreateTables(ctx); err != nil {
		t.Fatalf("second CreateTables: %v", err)
	}
}

func TestArchiveEvents(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	events := []monitor.Event{
		monitor.NewEvent(monitor.EventLoginFailure).
			WithUser(userID).
			WithIP("192.0.2.1").
			WithDetail("attempt", 3),
		monitor.NewEvent(monitor.EventBruteForceDetected).
			WithUser(userID).
			WithIP("192.0.2.1").
			WithLocation(monitor.GeoLocation{Country: "US", City: "New York", Latitude: 40.7, Longitude: -74.0}),
	}

	written, err := store.ArchiveEvents(ctx, events)
	if err != nil {
		t.Fatalf("ArchiveEvents: %v", err)
	}
	if written != 2 {
		t.Errorf("written = %d, want 2", written)
	}

	// Re-archiving the same batch writes nothing.
	written, err = store.ArchiveEvents(ctx, events)
	if err != nil {
		t.Fatalf("second ArchiveEvents: %v", err)
	}
	if written != 0 {
		t.Errorf("duplicate batch wrote %d rows", written)
	}

	counts, err := store.EventCountsByType(ctx)
	if err != nil {
		t.Fatalf("EventCountsByType: %v", err)
	}
	if counts["login_failure"] != 1 || counts["brute_force_detected"] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestArchiveAlerts(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alert := monitor.NewAlert(monitor.SeverityCritical, "Brute Force Attack Detected", "test").
		WithUser(uuid.New()).
		WithIP("192.0.2.1")

	written, err := store.ArchiveAlerts(ctx, []monitor.Alert{alert})
	if err != nil {
		t.Fatalf("ArchiveAlerts: %v", err)
	}
	if written != 1 {
		t.Errorf("written = %d, want 1", written)
	}

	var severity string
	err = store.db.QueryRowContext(ctx,
		"SELECT severity FROM security_alerts WHERE id = ?", alert.ID.String()).Scan(&severity)
	if err != nil {
		t.Fatalf("query archived alert: %v", err)
	}
	if severity != "critical" {
		t.Errorf("severity = %q, want critical", severity)
	}
}
