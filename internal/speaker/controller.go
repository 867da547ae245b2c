/*
Copyright (C) 2026 Lumenworks

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package speaker implements the timed amplifier state machine:
// optimistic turn-on with hardware dispatch, asynchronous confirmation
// reconciliation, self-healing expiry, and a mid-media extension guard.
package speaker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lumenworks/showgate/internal/clock"
	"github.com/lumenworks/showgate/internal/events"
	"github.com/lumenworks/showgate/internal/kvstore"
	"github.com/lumenworks/showgate/internal/models"
	"github.com/lumenworks/showgate/internal/sources"
	"github.com/lumenworks/showgate/internal/telemetry"
)

const (
	minOnSeconds       = 60
	maxOnSeconds       = 900
	extensionThreshold = 30 * time.Second
	dispatchOffTimeout = 5 * time.Second
)

// Request carries one viewer or physical turn-on attempt.
type Request struct {
	Source    models.SpeakerSource
	Identity  string
	RemoteIP  string
	UserAgent string
}

// Result is the turn-on outcome returned to callers. Rejections are
// not errors: the gate worked as intended.
type Result struct {
	Success          bool         `json:"success"`
	AlreadyOn        bool         `json:"already_on"`
	RemainingSeconds int64        `json:"remaining_seconds"`
	Reason           RejectReason `json:"reason,omitempty"`
	Message          string       `json:"message,omitempty"`
}

// Controller owns the persisted speaker record. Every call reads the
// record from the store, transforms it and writes it back; concurrent
// callers race last-write-wins, bounded by the already-on short-circuit.
type Controller struct {
	store      kvstore.Store
	dispatcher sources.ActuatorDispatcher
	probe      sources.MediaProbe
	gates      *Gatekeeper
	duration   time.Duration
	clk        clock.Clock
	bus        *events.Bus
	logger     zerolog.Logger
}

// NewController creates the speaker controller. probe may be nil when
// no media-remaining endpoint is configured.
func NewController(store kvstore.Store, dispatcher sources.ActuatorDispatcher, probe sources.MediaProbe, gates *Gatekeeper, duration time.Duration, clk clock.Clock, bus *events.Bus, logger zerolog.Logger) *Controller {
	return &Controller{
		store:      store,
		dispatcher: dispatcher,
		probe:      probe,
		gates:      gates,
		duration:   duration,
		clk:        clk,
		bus:        bus,
		logger:     logger.With().Str("component", "speaker").Logger(),
	}
}

// Status reports the current speaker state. An on record past its
// expiry is normalized to off before returning, with a best-effort OFF
// dispatch so drifted hardware catches up.
func (c *Controller) Status(ctx context.Context) models.SpeakerState {
	state := c.load(ctx)
	state = c.applyMidMediaGuard(ctx, state)

	now := c.clk.Now()
	if state.Expired(now) {
		state.Status = models.SpeakerOff
		state.ExpiresAtEpoch = 0
		state.LastSource = models.SourceExpiry
		state.LastUpdatedEpoch = now.Unix()
		c.save(ctx, state)
		c.bus.Publish(events.EventSpeakerExpired, events.Payload{
			"source": string(models.SourceExpiry),
		})
		go c.dispatchOff()
	}
	return state
}

// RequestOn attempts to turn the speaker on. Viewer requests pass the
// gate chain; physical button presses bypass every gate. The hardware
// dispatch happens before the state commit so a dispatch failure leaves
// the record untouched.
func (c *Controller) RequestOn(ctx context.Context, req Request) (Result, error) {
	now := c.clk.Now()

	if req.Source != models.SourcePhysical {
		if reason, ok := c.gates.Check(ctx, req); !ok {
			telemetry.SpeakerGateRejectionsTotal.WithLabelValues(string(reason)).Inc()
			c.bus.Publish(events.EventSpeakerRejected, events.Payload{
				"source":   string(req.Source),
				"identity": req.Identity,
				"reason":   string(reason),
			})
			c.logger.Info().
				Str("identity", req.Identity).
				Str("reason", string(reason)).
				Msg("Speaker request rejected")
			return Result{Reason: reason, Message: reason.Message()}, nil
		}
	}

	state := c.load(ctx)
	state = c.applyMidMediaGuard(ctx, state)

	if state.Status == models.SpeakerOn && !state.Expired(now) {
		remaining := state.RemainingSeconds(now)
		if remaining > int64(extensionThreshold.Seconds()) {
			return Result{Success: true, AlreadyOn: true, RemainingSeconds: remaining}, nil
		}
	}

	if err := c.dispatcher.Dispatch(ctx, sources.ActuatorOn); err != nil {
		c.logger.Error().Err(err).Msg("Speaker ON dispatch failed")
		return Result{}, fmt.Errorf("speaker dispatch: %w", err)
	}

	seconds := clampSeconds(int64(c.duration.Seconds()))
	state.Status = models.SpeakerOn
	state.ExpiresAtEpoch = now.Unix() + seconds
	state.LastSource = req.Source
	state.LastUpdatedEpoch = now.Unix()
	c.save(ctx, state)

	if req.Source != models.SourcePhysical {
		c.gates.MarkCooldown(ctx, req.Identity)
	}

	c.bus.Publish(events.EventSpeakerDispatched, events.Payload{
		"source":    string(req.Source),
		"identity":  req.Identity,
		"remaining": seconds,
	})
	c.logger.Info().
		Str("source", string(req.Source)).
		Int64("seconds", seconds).
		Msg("Speaker turned on")

	return Result{Success: true, RemainingSeconds: seconds}, nil
}

// Confirm reconciles local state to what the hardware reports. A
// confirmed on restarts the full timer even when the local record was
// stale; a confirmed off wins over any pending expiry.
func (c *Controller) Confirm(ctx context.Context, status models.SpeakerStatus, source models.SpeakerSource) error {
	if status != models.SpeakerOn && status != models.SpeakerOff {
		return fmt.Errorf("unknown speaker status %q", status)
	}

	now := c.clk.Now()
	state := c.load(ctx)

	state.Status = status
	state.LastSource = source
	state.LastUpdatedEpoch = now.Unix()
	state.LastConfirmedStatus = status
	state.LastConfirmedEpoch = now.Unix()
	if status == models.SpeakerOn {
		state.ExpiresAtEpoch = now.Unix() + clampSeconds(int64(c.duration.Seconds()))
	} else {
		state.ExpiresAtEpoch = 0
	}
	c.save(ctx, state)

	telemetry.SpeakerConfirmationsTotal.WithLabelValues(string(status)).Inc()
	c.bus.Publish(events.EventSpeakerConfirmed, events.Payload{
		"status":    string(status),
		"source":    string(source),
		"remaining": state.RemainingSeconds(now),
	})
	c.logger.Info().
		Str("status", string(status)).
		Str("source", string(source)).
		Msg("Speaker state confirmed by hardware")
	return nil
}

// applyMidMediaGuard extends an almost-expired timer to cover the media
// still playing. Probe failures skip the guard silently.
func (c *Controller) applyMidMediaGuard(ctx context.Context, state models.SpeakerState) models.SpeakerState {
	if c.probe == nil || state.Status != models.SpeakerOn {
		return state
	}
	now := c.clk.Now()
	remaining := state.RemainingSeconds(now)
	if remaining <= 0 || remaining > int64(extensionThreshold.Seconds()) {
		return state
	}

	mediaRemaining, ok := c.probe.MediaRemainingSeconds(ctx)
	if !ok || int64(mediaRemaining) <= remaining {
		return state
	}

	state.ExpiresAtEpoch = now.Unix() + int64(mediaRemaining)
	state.LastUpdatedEpoch = now.Unix()
	c.save(ctx, state)
	c.bus.Publish(events.EventSpeakerExtended, events.Payload{
		"remaining": int64(mediaRemaining),
	})
	c.logger.Debug().
		Int("media_remaining", mediaRemaining).
		Msg("Speaker timer extended for current media")
	return state
}

func (c *Controller) load(ctx context.Context) models.SpeakerState {
	var state models.SpeakerState
	found, err := c.store.GetJSON(ctx, kvstore.KeySpeakerState, &state)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Speaker state read failed, assuming off")
	}
	if !found {
		return models.SpeakerState{Status: models.SpeakerOff}
	}
	return state
}

func (c *Controller) save(ctx context.Context, state models.SpeakerState) {
	if err := c.store.SetJSON(ctx, kvstore.KeySpeakerState, state, 0); err != nil {
		c.logger.Error().Err(err).Msg("Speaker state write failed")
	}
}

func (c *Controller) dispatchOff() {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchOffTimeout)
	defer cancel()
	if err := c.dispatcher.Dispatch(ctx, sources.ActuatorOff); err != nil {
		c.logger.Warn().Err(err).Msg("Speaker OFF dispatch failed")
	}
}

func clampSeconds(seconds int64) int64 {
	if seconds < minOnSeconds {
		return minOnSeconds
	}
	if seconds > maxOnSeconds {
		return maxOnSeconds
	}
	return seconds
}
