/*
Copyright (C) 2026 Lumenworks

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package showstate

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lumenworks/showgate/internal/clock"
	"github.com/lumenworks/showgate/internal/events"
	"github.com/lumenworks/showgate/internal/models"
	"github.com/lumenworks/showgate/internal/projector"
	"github.com/lumenworks/showgate/internal/schedule"
)

// SourceLayer is the cached source access the engine consumes.
type SourceLayer interface {
	ShowQueueState(ctx context.Context) (models.ShowQueueState, bool)
	PlaybackSnapshot(ctx context.Context) (models.PlaybackSnapshot, bool)
	ScheduleItems(ctx context.Context) []models.ScheduleItem
}

// Snapshot is the unified poll response: derived state plus projections.
type Snapshot struct {
	State      models.DerivedState       `json:"state"`
	NowPlaying projector.NowPlayingView  `json:"now_playing"`
	Queue      []projector.QueueItemView `json:"queue"`
	NextUp     *projector.NextUpView     `json:"next_up"`
}

// Engine fuses the three sources into one consistent snapshot. Every
// call recomputes from scratch; a missing source degrades its own fields
// and never fails the whole snapshot.
type Engine struct {
	src        SourceLayer
	interp     *schedule.Interpreter
	thresholds Thresholds
	testMode   bool
	clk        clock.Clock
	bus        *events.Bus
	logger     zerolog.Logger
}

// NewEngine creates the reconciliation engine.
func NewEngine(src SourceLayer, interp *schedule.Interpreter, thresholds Thresholds, testMode bool, clk clock.Clock, bus *events.Bus, logger zerolog.Logger) *Engine {
	return &Engine{
		src:        src,
		interp:     interp,
		thresholds: thresholds,
		testMode:   testMode,
		clk:        clk,
		bus:        bus,
		logger:     logger.With().Str("component", "showstate").Logger(),
	}
}

// DerivedShowState computes the transient derived state for one call.
func (e *Engine) DerivedShowState(ctx context.Context) models.DerivedState {
	state, _, _ := e.derive(ctx)
	return state
}

// Snapshot computes the derived state together with the queue and
// now-playing projections, intended for sub-5s polling.
func (e *Engine) Snapshot(ctx context.Context) Snapshot {
	state, queueState, playback := e.derive(ctx)
	view := projector.Project(queueState, playback)
	return Snapshot{
		State:      state,
		NowPlaying: view.NowPlaying,
		Queue:      view.Queue,
		NextUp:     view.NextUp,
	}
}

// ScheduleWindows exposes the interpreted windows for display.
func (e *Engine) ScheduleWindows(ctx context.Context) []models.ScheduleWindow {
	return e.interp.Windows(e.src.ScheduleItems(ctx))
}

func (e *Engine) derive(ctx context.Context) (models.DerivedState, models.ShowQueueState, models.PlaybackSnapshot) {
	queueState, queueOK := e.src.ShowQueueState(ctx)
	playback, playbackOK := e.src.PlaybackSnapshot(ctx)
	info := e.interp.Interpret(e.src.ScheduleItems(ctx))

	if !queueOK {
		e.bus.Publish(events.EventSourceDegraded, events.Payload{"source": "show_queue"})
	}
	if !playbackOK {
		e.bus.Publish(events.EventSourceDegraded, events.Payload{"source": "playback"})
	}
	if info.IsFallback {
		e.bus.Publish(events.EventScheduleFallback, events.Payload{})
	}

	isPlaying := playback.Online &&
		(strings.EqualFold(playback.StatusName, "playing") || playback.CurrentSequenceName != "")

	playlist := strings.ToLower(playback.CurrentPlaylistName)
	resetPlaylist := strings.Contains(playlist, "reset")
	intermissionPlaylist := strings.Contains(playlist, "intermission")
	showPlaylist := playlist != "" && !resetPlaylist && !intermissionPlaylist

	var queuedDuration int64
	for _, entry := range queueState.Requests {
		queuedDuration += int64(entry.DurationSeconds)
	}

	locks := EvaluateLockouts(info, int64(playback.SecondsRemaining), queuedDuration, e.thresholds)

	// The disabled-control override wins even during nominal show hours.
	afterHours := (!info.IsShowHours && !isPlaying && !e.testMode) ||
		(!queueState.Preferences.ViewerControlEnabled && !e.testMode)

	preshow := !info.IsShowHours && !afterHours && !isPlaying &&
		(info.NextLightsOpenLabel != "" || info.NextShowStartLabel != "")

	mode := DeriveMode(Facts{
		AfterHours:           afterHours,
		Preshow:              preshow,
		ResetPlaylist:        resetPlaylist,
		ShowPlaylist:         showPlaylist,
		IntermissionPlaylist: intermissionPlaylist,
		TimeLockout:          locks.TimeLockout,
		QueueLockout:         locks.QueueLockout,
		QueueLength:          len(queueState.Requests),
	})

	gate := DeriveGate(GateFacts{
		ViewerControlEnabled: queueState.Preferences.ViewerControlEnabled,
		AfterHours:           afterHours,
		Preshow:              preshow,
		Resetting:            resetPlaylist,
		TimeLockout:          locks.TimeLockout,
		QueueLockout:         locks.QueueLockout,
	})

	lockout := models.LockoutState{}
	switch {
	case locks.TimeLockout:
		lockout = models.LockoutState{Active: true, Reason: models.BlockTimeLockout}
	case locks.QueueLockout:
		lockout = models.LockoutState{Active: true, Reason: models.BlockQueueLockout}
	}

	state := models.DerivedState{
		Mode:                  mode,
		Lockout:               lockout,
		Warning:               locks.Warning,
		AfterHours:            afterHours,
		Preshow:               preshow,
		ShowHours:             info.IsShowHours,
		TestMode:              e.testMode,
		TimeUntilResetSeconds: info.TimeUntilResetSeconds,
		NextResetLabel:        info.NextResetLabel,
		NextLightsOpenLabel:   info.NextLightsOpenLabel,
		NextShowLabel:         info.NextShowStartLabel,
		RequestsAllowed:       gate,
		ScheduleFallback:      info.IsFallback,
	}

	return state, queueState, playback
}
