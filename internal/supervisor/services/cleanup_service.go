// AuthSentry - Authentication Security Monitoring and Threat Detection
// Copyright 2026 AuthSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/authsentry/authsentry

package services

import (
	"context"
	"time"

	"github.com/authsentry/authsentry/internal/logging"
)

// Cleaner matches the engine's retention sweep.
type Cleaner interface {
	CleanupOldData() int
}

// CleanupService periodically sweeps expired lockouts and aged-out
// journal entries from the engine. Without it, lazy expiry keeps maps
// growing until a read happens to touch each key.
type CleanupService struct {
	cleaner  Cleaner
	interval time.Duration
}

// NewCleanupService creates the sweeper with the given interval.
func NewCleanupService(cleaner Cleaner, interval time.Duration) *CleanupService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &CleanupService{cleaner: cleaner, interval: interval}
}

// Serve implements suture.Service.
func (s *CleanupService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			removed := s.cleaner.CleanupOldData()
			logging.Debug().Int("removed", removed).Msg("scheduled cleanup pass complete")
		}
	}
}

func (s *CleanupService) String() string { return "cleanup-sweeper" }
