// AuthSentry - Authentication Security Monitoring and Threat Detection
// Copyright 2026 AuthSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/authsentry/authsentry

package monitor

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// maxJournalEvents caps the in-memory journal. When full, the oldest event
// is dropped on append; long-term persistence is a downstream consumer's
// job (see internal/archive).
const maxJournalEvents = 100_000

// eventJournal is the bounded, time-ordered append log of security events.
type eventJournal struct {
	mu     sync.RWMutex
	events []Event
}

func newEventJournal() *eventJournal {
	return &eventJournal{}
}

// Append records the event, dropping the oldest when the cap is reached.
func (j *eventJournal) Append(event Event) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, event)
	if len(j.events) > maxJournalEvents {
		j.events = j.events[1:]
	}
}

// Recent returns events most-recent-first, filtered by type and user when
// given, up to limit. A zero eventType or user id means no filter.
func (j *eventJournal) Recent(eventType EventType, userID uuid.UUID, limit int) []Event {
	if limit < 0 {
		limit = 0
	}
	j.mu.RLock()
	defer j.mu.RUnlock()

	results := make([]Event, 0, limit)
	for i := len(j.events) - 1; i >= 0 && len(results) < limit; i-- {
		e := j.events[i]
		if eventType != "" && e.Type != eventType {
			continue
		}
		if userID != uuid.Nil && e.UserID != userID {
			continue
		}
		results = append(results, e)
	}
	return results
}

// Since returns all events with a timestamp strictly after the mark, in
// append order. Used by archival consumers draining the journal.
func (j *eventJournal) Since(mark time.Time) []Event {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var results []Event
	for _, e := range j.events {
		if e.Timestamp.After(mark) {
			results = append(results, e)
		}
	}
	return results
}

// Len returns the current journal size.
func (j *eventJournal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.events)
}

// Sweep drops events older than cutoff. Returns the number removed.
func (j *eventJournal) Sweep(cutoff time.Time) (removed int) {
	j.mu.Lock()
	defer j.mu.Unlock()

	kept := j.events[:0]
	for _, e := range j.events {
		if e.Timestamp.After(cutoff) {
			kept = append(kept, e)
		}
	}
	removed = len(j.events) - len(kept)
	j.events = kept
	return removed
}
