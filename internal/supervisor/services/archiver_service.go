// AuthSentry - Authentication Security Monitoring and Threat Detection
// Copyright 2026 AuthSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/authsentry/authsentry

package services

import (
	"context"
	"time"

	"github.com/authsentry/authsentry/internal/logging"
	"github.com/authsentry/authsentry/internal/monitor"
)

// EventSource matches the engine's journal drain methods.
type EventSource interface {
	EventsSince(mark time.Time) []monitor.Event
	GetAlerts(unacknowledgedOnly bool, limit int) []monitor.Alert
}

// ArchiveSink matches the DuckDB archive store.
type ArchiveSink interface {
	ArchiveEvents(ctx context.Context, events []monitor.Event) (int, error)
	ArchiveAlerts(ctx context.Context, alerts []monitor.Alert) (int, error)
}

// ArchiverService drains new journal events and current alerts into the
// archive on a schedule. It tracks a high-water mark so each event is
// fetched once; alert inserts dedupe on id in the store.
type ArchiverService struct {
	source   EventSource
	sink     ArchiveSink
	interval time.Duration
	mark     time.Time
}

// NewArchiverService creates the archiver with the given drain interval.
func NewArchiverService(source EventSource, sink ArchiveSink, interval time.Duration) *ArchiverService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ArchiverService{
		source:   source,
		sink:     sink,
		interval: interval,
	}
}

// Serve implements suture.Service.
func (s *ArchiverService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.drain(ctx); err != nil {
				logging.Error().Err(err).Msg("archive drain failed")
			}
		}
	}
}

// drain archives events newer than the high-water mark, then alerts.
// The mark only advances when the write succeeds so failed batches are
// retried on the next tick.
func (s *ArchiverService) drain(ctx context.Context) error {
	events := s.source.EventsSince(s.mark)
	if len(events) > 0 {
		written, err := s.sink.ArchiveEvents(ctx, events)
		if err != nil {
			return err
		}
		s.mark = events[len(events)-1].Timestamp
		logging.Debug().Int("events", written).Msg("archived security events")
	}

	alerts := s.source.GetAlerts(false, 1000)
	if len(alerts) > 0 {
		if _, err := s.sink.ArchiveAlerts(ctx, alerts); err != nil {
			return err
		}
	}
	return nil
}

func (s *ArchiverService) String() string { return "event-archiver" }
