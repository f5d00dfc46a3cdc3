// AuthSentry - Authentication Security Monitoring and Threat Detection
// Copyright 2026 AuthSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/authsentry/authsentry

// Package archive persists security events and alerts to DuckDB. The
// in-memory engine keeps a bounded journal; the archive drains it on a
// schedule so history survives restarts and retention sweeps.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/authsentry/authsentry/internal/logging"
	"github.com/authsentry/authsentry/internal/metrics"
	"github.com/authsentry/authsentry/internal/monitor"
)

// Store is a DuckDB-backed archive of security events and alerts.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens or creates the DuckDB database at path. An empty maxMemory
// keeps DuckDB's default memory limit.
func Open(path, maxMemory string) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb at %s: %w", path, err)
	}
	if maxMemory != "" {
		if _, err := db.Exec(fmt.Sprintf("SET max_memory='%s'", maxMemory)); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set duckdb max_memory: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// NewStore wraps an existing database handle, used by tests.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateTables creates the archive schema if it does not exist.
func (s *Store) CreateTables(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS security_events (
			id TEXT PRIMARY KEY,
			timestamp TIMESTAMPTZ NOT NULL,
			type TEXT NOT NULL,
			severity TEXT NOT NULL,
			user_id TEXT,
			ip_address TEXT,
			user_agent TEXT,
			device_id TEXT,
			location JSON,
			details JSON,
			request_id TEXT,
			archived_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_events_timestamp ON security_events(timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_events_type ON security_events(type);
		CREATE INDEX IF NOT EXISTS idx_events_user_id ON security_events(user_id);
		CREATE INDEX IF NOT EXISTS idx_events_ip ON security_events(ip_address);

		CREATE TABLE IF NOT EXISTS security_alerts (
			id TEXT PRIMARY KEY,
			timestamp TIMESTAMPTZ NOT NULL,
			severity TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			user_id TEXT,
			ip_address TEXT,
			acknowledged BOOLEAN NOT NULL,
			resolved BOOLEAN NOT NULL,
			archived_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_alerts_timestamp ON security_alerts(timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_alerts_severity ON security_alerts(severity)
	`

	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	logging.Info().Msg("archive schema created/verified")
	return nil
}

// ArchiveEvents inserts the events, skipping ids already archived.
// Returns the number of rows written.
func (s *Store) ArchiveEvents(ctx context.Context, events []monitor.Event) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT OR IGNORE INTO security_events
		(id, timestamp, type, severity, user_id, ip_address, user_agent, device_id, location, details, request_id, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	written := 0
	for _, event := range events {
		userID := nullableUUID(event.UserID)
		location, err := marshalNullable(event.Location)
		if err != nil {
			return written, fmt.Errorf("failed to marshal event location: %w", err)
		}
		details, err := marshalDetails(event.Details)
		if err != nil {
			return written, fmt.Errorf("failed to marshal event details: %w", err)
		}

		result, err := s.db.ExecContext(ctx, query,
			event.ID.String(),
			event.Timestamp,
			string(event.Type),
			event.Severity.String(),
			userID,
			nullableString(event.IPAddress),
			nullableString(event.UserAgent),
			nullableString(event.DeviceID),
			location,
			details,
			nullableString(event.RequestID),
			time.Now().UTC(),
		)
		if err != nil {
			metrics.ArchiveErrors.Inc()
			return written, fmt.Errorf("failed to archive event %s: %w", event.ID, err)
		}
		if n, err := result.RowsAffected(); err == nil {
			written += int(n)
		}
	}

	metrics.ArchivedEvents.Add(float64(written))
	return written, nil
}

// ArchiveAlerts inserts the alerts, skipping ids already archived.
func (s *Store) ArchiveAlerts(ctx context.Context, alerts []monitor.Alert) (int, error) {
	if len(alerts) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT OR IGNORE INTO security_alerts
		(id, timestamp, severity, title, description, user_id, ip_address, acknowledged, resolved, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	written := 0
	for _, alert := range alerts {
		result, err := s.db.ExecContext(ctx, query,
			alert.ID.String(),
			alert.Timestamp,
			alert.Severity.String(),
			alert.Title,
			alert.Description,
			nullableUUID(alert.UserID),
			nullableString(alert.IPAddress),
			alert.Acknowledged,
			alert.Resolved,
			time.Now().UTC(),
		)
		if err != nil {
			metrics.ArchiveErrors.Inc()
			return written, fmt.Errorf("failed to archive alert %s: %w", alert.ID, err)
		}
		if n, err := result.RowsAffected(); err == nil {
			written += int(n)
		}
	}
	return written, nil
}

// EventCountsByType returns archived event counts grouped by type.
func (s *Store) EventCountsByType(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT type, COUNT(*) FROM security_events GROUP BY type")
	if err != nil {
		return nil, fmt.Errorf("failed to count archived events: %w", err)
	}
	defer rows.Close()

	result := make(map[string]int64)
	for rows.Next() {
		var eventType string
		var count int64
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan event count: %w", err)
		}
		result[eventType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event counts: %w", err)
	}
	return result, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullableUUID(id uuid.UUID) *string {
	if id == uuid.Nil {
		return nil
	}
	s := id.String()
	return &s
}

func marshalNullable(v *monitor.GeoLocation) (*string, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}

func marshalDetails(details map[string]any) (*string, error) {
	if len(details) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(details)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}
