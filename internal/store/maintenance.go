// MediaBrain - Personal Media Consumption Catalogue
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabrain

package store

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/tomtom215/mediabrain/internal/logging"
)

// MaintenanceService runs periodic store housekeeping: BadgerDB value-log
// garbage collection and expired-blacklist purging. It implements
// suture.Service and is restarted by the supervision tree on failure.
type MaintenanceService struct {
	store    *Store
	clk      clock.Clock
	interval time.Duration
}

// NewMaintenanceService creates the housekeeping service. A zero interval
// defaults to 10 minutes.
func NewMaintenanceService(store *Store, clk clock.Clock, interval time.Duration) *MaintenanceService {
	if clk == nil {
		clk = clock.New()
	}
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &MaintenanceService{store: store, clk: clk, interval: interval}
}

// Serve runs the housekeeping loop until the context is cancelled.
func (m *MaintenanceService) Serve(ctx context.Context) error {
	ticker := m.clk.Ticker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

func (m *MaintenanceService) sweep(ctx context.Context) {
	removed, err := m.store.PurgeExpiredBlacklist(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Blacklist purge failed")
	} else if removed > 0 {
		logging.Debug().Int("removed", removed).Msg("Purged expired blacklist entries")
	}

	if err := m.store.RunValueLogGC(); err != nil {
		logging.Warn().Err(err).Msg("Value log GC failed")
	}
}

// String names the service in supervisor logs.
func (m *MaintenanceService) String() string {
	return "store-maintenance"
}
