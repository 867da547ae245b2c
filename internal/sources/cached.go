/*
Copyright (C) 2026 Lumenworks

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package sources

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/lumenworks/showgate/internal/kvstore"
	"github.com/lumenworks/showgate/internal/models"
	"github.com/lumenworks/showgate/internal/telemetry"
)

// CacheTTLs holds the per-source cache slot TTLs. Each source has an
// independent keyed slot; a miss triggers exactly one upstream fetch,
// never a retry loop.
type CacheTTLs struct {
	ShowQueue time.Duration
	Playback  time.Duration
	Schedule  time.Duration
}

// Cached wraps the raw providers with kvstore-backed TTL slots. Staleness
// between sources is expected; consumers must tolerate arbitrary
// interleavings of freshness.
type Cached struct {
	queue    ShowQueueProvider
	playback PlaybackProvider
	schedule ScheduleProvider

	store  kvstore.Store
	ttls   CacheTTLs
	logger zerolog.Logger
}

// NewCached creates the caching source layer.
func NewCached(queue ShowQueueProvider, playback PlaybackProvider, schedule ScheduleProvider, store kvstore.Store, ttls CacheTTLs, logger zerolog.Logger) *Cached {
	return &Cached{
		queue:    queue,
		playback: playback,
		schedule: schedule,
		store:    store,
		ttls:     ttls,
		logger:   logger.With().Str("component", "source_cache").Logger(),
	}
}

// ShowQueueState returns the cached or freshly fetched show queue state.
// On failure the zero state (empty defaults) is returned with ok=false.
func (c *Cached) ShowQueueState(ctx context.Context) (models.ShowQueueState, bool) {
	var state models.ShowQueueState
	key := kvstore.KeySourceCache + "show_queue"

	if found, _ := c.store.GetJSON(ctx, key, &state); found {
		telemetry.SourceCacheHitsTotal.WithLabelValues("show_queue").Inc()
		return state, true
	}

	state, err := c.queue.ShowQueueState(ctx)
	if err != nil {
		c.logger.Debug().Err(err).Msg("show queue degraded to defaults")
		return models.ShowQueueState{Preferences: models.ShowPreferences{ViewerControlMode: models.ModeUnknown}}, false
	}

	if err := c.store.SetJSON(ctx, key, state, c.ttls.ShowQueue); err != nil {
		c.logger.Debug().Err(err).Msg("failed to cache show queue state")
	}
	return state, true
}

// PlaybackSnapshot returns the cached or freshly fetched playback
// counters. On failure the offline zero snapshot is returned with ok=false.
func (c *Cached) PlaybackSnapshot(ctx context.Context) (models.PlaybackSnapshot, bool) {
	var snap models.PlaybackSnapshot
	key := kvstore.KeySourceCache + "playback"

	if found, _ := c.store.GetJSON(ctx, key, &snap); found {
		telemetry.SourceCacheHitsTotal.WithLabelValues("playback").Inc()
		return snap, true
	}

	snap, err := c.playback.PlaybackSnapshot(ctx)
	if err != nil {
		c.logger.Debug().Err(err).Msg("playback degraded to defaults")
		return models.PlaybackSnapshot{}, false
	}

	if err := c.store.SetJSON(ctx, key, snap, c.ttls.Playback); err != nil {
		c.logger.Debug().Err(err).Msg("failed to cache playback snapshot")
	}
	return snap, true
}

// ScheduleItems returns the cached or freshly fetched schedule. On
// failure or an empty schedule the caller falls back to the heuristic.
func (c *Cached) ScheduleItems(ctx context.Context) []models.ScheduleItem {
	var items []models.ScheduleItem
	key := kvstore.KeySourceCache + "schedule"

	if found, _ := c.store.GetJSON(ctx, key, &items); found {
		telemetry.SourceCacheHitsTotal.WithLabelValues("schedule").Inc()
		return items
	}

	items, err := c.schedule.ScheduleItems(ctx)
	if err != nil {
		c.logger.Debug().Err(err).Msg("schedule degraded to heuristic fallback")
		return nil
	}

	if err := c.store.SetJSON(ctx, key, items, c.ttls.Schedule); err != nil {
		c.logger.Debug().Err(err).Msg("failed to cache schedule items")
	}
	return items
}
