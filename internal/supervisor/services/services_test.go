// AuthSentry - Authentication Security Monitoring and Threat Detection
// Copyright 2026 AuthSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/authsentry/authsentry

package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/authsentry/authsentry/internal/monitor"
)

// mockHTTPServer implements HTTPServer without opening sockets.
type mockHTTPServer struct {
	serveErr   error
	shutdownCh chan struct{}
	shutdowns  atomic.Int32
}

func newMockHTTPServer(serveErr error) *mockHTTPServer {
	return &mockHTTPServer{serveErr: serveErr, shutdownCh: make(chan struct{})}
}

func (m *mockHTTPServer) ListenAndServe() error {
	if m.serveErr != nil {
		return m.serveErr
	}
	<-m.shutdownCh
	return errors.New("http: Server closed")
}

func (m *mockHTTPServer) Shutdown(ctx context.Context) error {
	m.shutdowns.Add(1)
	close(m.shutdownCh)
	return nil
}

func TestHTTPServerServiceGracefulShutdown(t *testing.T) {
	server := newMockHTTPServer(nil)
	svc := NewHTTPServerService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
	if server.shutdowns.Load() != 1 {
		t.Errorf("shutdowns = %d, want 1", server.shutdowns.Load())
	}
}

func TestHTTPServerServiceStartupFailure(t *testing.T) {
	boom := errors.New("listen tcp: address in use")
	svc := NewHTTPServerService(newMockHTTPServer(boom), time.Second)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, boom) {
		t.Errorf("Serve returned %v, want wrapped startup error", err)
	}
}

type mockCleaner struct {
	calls atomic.Int32
}

func (m *mockCleaner) CleanupOldData() int {
	m.calls.Add(1)
	return 3
}

func TestCleanupServiceTicks(t *testing.T) {
	cleaner := &mockCleaner{}
	svc := NewCleanupService(cleaner, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := svc.Serve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve returned %v", err)
	}
	if cleaner.calls.Load() < 2 {
		t.Errorf("cleanup ran %d times, want at least 2", cleaner.calls.Load())
	}
}

type mockSource struct {
	mu     sync.Mutex
	events []monitor.Event
	alerts []monitor.Alert
}

func (m *mockSource) EventsSince(mark time.Time) []monitor.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []monitor.Event
	for _, e := range m.events {
		if e.Timestamp.After(mark) {
			out = append(out, e)
		}
	}
	return out
}

func (m *mockSource) GetAlerts(unacknowledgedOnly bool, limit int) []monitor.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]monitor.Alert(nil), m.alerts...)
}

type mockSink struct {
	mu         sync.Mutex
	events     []monitor.Event
	alerts     []monitor.Alert
	failEvents bool
}

func (m *mockSink) ArchiveEvents(ctx context.Context, events []monitor.Event) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failEvents {
		return 0, errors.New("disk full")
	}
	m.events = append(m.events, events...)
	return len(events), nil
}

func (m *mockSink) ArchiveAlerts(ctx context.Context, alerts []monitor.Alert) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, alerts...)
	return len(alerts), nil
}

func (m *mockSink) eventCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func TestArchiverDrainAdvancesMark(t *testing.T) {
	now := time.Now().UTC()
	e1 := monitor.NewEvent(monitor.EventLoginFailure)
	e1.Timestamp = now.Add(-2 * time.Minute)
	e2 := monitor.NewEvent(monitor.EventLoginSuccess)
	e2.Timestamp = now.Add(-time.Minute)

	source := &mockSource{events: []monitor.Event{e1, e2}}
	sink := &mockSink{}
	svc := NewArchiverService(source, sink, time.Minute)

	if err := svc.drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if sink.eventCount() != 2 {
		t.Fatalf("archived %d events, want 2", sink.eventCount())
	}

	// A second pass with no new events archives nothing further.
	if err := svc.drain(context.Background()); err != nil {
		t.Fatalf("second drain: %v", err)
	}
	if sink.eventCount() != 2 {
		t.Errorf("re-archived already drained events: %d", sink.eventCount())
	}
}

func TestArchiverRetriesFailedBatch(t *testing.T) {
	e := monitor.NewEvent(monitor.EventLoginFailure)
	e.Timestamp = time.Now().UTC()

	source := &mockSource{events: []monitor.Event{e}}
	sink := &mockSink{failEvents: true}
	svc := NewArchiverService(source, sink, time.Minute)

	if err := svc.drain(context.Background()); err == nil {
		t.Fatal("drain should surface the sink error")
	}

	// The mark did not advance, so the same event is retried.
	sink.failEvents = false
	if err := svc.drain(context.Background()); err != nil {
		t.Fatalf("retry drain: %v", err)
	}
	if sink.eventCount() != 1 {
		t.Errorf("archived %d events after retry, want 1", sink.eventCount())
	}
}
