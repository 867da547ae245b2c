/*
Copyright (C) 2026 Lumenworks

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package sources holds the adapters for the three polled telemetry
// providers and the two actuator hardware endpoints. Each provider is
// independently polled, independently cacheable and independently
// nullable; a failing provider degrades to its zero value and never
// fails a snapshot.
package sources

import (
	"context"
	"errors"

	"github.com/lumenworks/showgate/internal/models"
)

// ErrSourceUnavailable indicates a fetch, timeout or invalid payload.
// Callers absorb it into defaulted snapshot fields.
var ErrSourceUnavailable = errors.New("source unavailable")

// ActuatorCommand is a hardware command for the speaker relay.
type ActuatorCommand string

const (
	ActuatorOn  ActuatorCommand = "on"
	ActuatorOff ActuatorCommand = "off"
)

// ShowQueueProvider reads preferences, catalog, request queue and votes.
type ShowQueueProvider interface {
	ShowQueueState(ctx context.Context) (models.ShowQueueState, error)
}

// PlaybackProvider reads the realtime now-playing counters.
type PlaybackProvider interface {
	PlaybackSnapshot(ctx context.Context) (models.PlaybackSnapshot, error)
}

// ScheduleProvider reads the planned schedule windows.
type ScheduleProvider interface {
	ScheduleItems(ctx context.Context) ([]models.ScheduleItem, error)
}

// ActuatorDispatcher sends fire-and-forget speaker commands to hardware.
type ActuatorDispatcher interface {
	Dispatch(ctx context.Context, cmd ActuatorCommand) error
}

// MediaProbe reports the current media's remaining seconds, best effort.
// The second return is false when no reading is available.
type MediaProbe interface {
	MediaRemainingSeconds(ctx context.Context) (int, bool)
}
