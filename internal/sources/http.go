/*
Copyright (C) 2026 Lumenworks

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lumenworks/showgate/internal/models"
	"github.com/lumenworks/showgate/internal/telemetry"
)

const userAgent = "Showgate/1.0"

// HTTPConfig configures the HTTP source clients.
type HTTPConfig struct {
	ShowQueueURL  string
	PlaybackURL   string
	ScheduleURL   string
	ActuatorURL   string
	MediaProbeURL string

	SourceTimeout   time.Duration
	ActuatorTimeout time.Duration
}

// HTTPClient talks to the upstream providers over plain JSON endpoints.
type HTTPClient struct {
	cfg    HTTPConfig
	client *http.Client
	logger zerolog.Logger
}

// NewHTTPClient creates the shared HTTP source client.
func NewHTTPClient(cfg HTTPConfig, logger zerolog.Logger) *HTTPClient {
	if cfg.SourceTimeout <= 0 {
		cfg.SourceTimeout = 5 * time.Second
	}
	if cfg.ActuatorTimeout <= 0 {
		cfg.ActuatorTimeout = 3 * time.Second
	}

	return &HTTPClient{
		cfg: cfg,
		client: &http.Client{
			// Per-call deadlines come from the request context; this is
			// the hard backstop.
			Timeout: 10 * time.Second,
		},
		logger: logger.With().Str("component", "sources").Logger(),
	}
}

// ShowQueueState fetches the show queue provider state.
func (c *HTTPClient) ShowQueueState(ctx context.Context) (models.ShowQueueState, error) {
	var state models.ShowQueueState
	if err := c.getJSON(ctx, "show_queue", c.cfg.ShowQueueURL, c.cfg.SourceTimeout, &state); err != nil {
		return models.ShowQueueState{}, err
	}
	if state.Preferences.ViewerControlMode == "" {
		state.Preferences.ViewerControlMode = models.ModeUnknown
	}
	return state, nil
}

// PlaybackSnapshot fetches the realtime playback counters.
func (c *HTTPClient) PlaybackSnapshot(ctx context.Context) (models.PlaybackSnapshot, error) {
	var snap models.PlaybackSnapshot
	if err := c.getJSON(ctx, "playback", c.cfg.PlaybackURL, c.cfg.SourceTimeout, &snap); err != nil {
		return models.PlaybackSnapshot{}, err
	}
	return snap, nil
}

// ScheduleItems fetches the planned schedule entries.
func (c *HTTPClient) ScheduleItems(ctx context.Context) ([]models.ScheduleItem, error) {
	var items []models.ScheduleItem
	if err := c.getJSON(ctx, "schedule", c.cfg.ScheduleURL, c.cfg.SourceTimeout, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Dispatch sends an on/off command to the speaker relay.
func (c *HTTPClient) Dispatch(ctx context.Context, cmd ActuatorCommand) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ActuatorTimeout)
	defer cancel()

	endpoint := c.cfg.ActuatorURL
	if u, err := url.Parse(endpoint); err == nil {
		q := u.Query()
		q.Set("command", string(cmd))
		u.RawQuery = q.Encode()
		endpoint = u.String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(""))
	if err != nil {
		telemetry.SpeakerDispatchesTotal.WithLabelValues(string(cmd), "failed").Inc()
		return fmt.Errorf("create dispatch request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		telemetry.SpeakerDispatchesTotal.WithLabelValues(string(cmd), "failed").Inc()
		return fmt.Errorf("dispatch %s: %w", cmd, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		telemetry.SpeakerDispatchesTotal.WithLabelValues(string(cmd), "failed").Inc()
		return fmt.Errorf("dispatch %s: HTTP %d", cmd, resp.StatusCode)
	}

	telemetry.SpeakerDispatchesTotal.WithLabelValues(string(cmd), "success").Inc()
	return nil
}

// MediaRemainingSeconds probes the current media's remaining duration.
func (c *HTTPClient) MediaRemainingSeconds(ctx context.Context) (int, bool) {
	if c.cfg.MediaProbeURL == "" {
		return 0, false
	}

	var payload struct {
		RemainingSeconds int `json:"remaining_seconds"`
	}
	if err := c.getJSON(ctx, "media_probe", c.cfg.MediaProbeURL, c.cfg.ActuatorTimeout, &payload); err != nil {
		// Probe is best effort, failures are silent by design of the
		// mid-media guard.
		return 0, false
	}
	if payload.RemainingSeconds < 0 {
		return 0, false
	}
	return payload.RemainingSeconds, true
}

func (c *HTTPClient) getJSON(ctx context.Context, source, endpoint string, timeout time.Duration, dest any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		telemetry.SourceFetchesTotal.WithLabelValues(source, "failed").Inc()
		return fmt.Errorf("%w: create request: %v", ErrSourceUnavailable, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		telemetry.SourceFetchesTotal.WithLabelValues(source, "failed").Inc()
		c.logger.Debug().Err(err).Str("source", source).Msg("source fetch failed")
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		telemetry.SourceFetchesTotal.WithLabelValues(source, "failed").Inc()
		c.logger.Debug().Int("status", resp.StatusCode).Str("source", source).Msg("source returned error status")
		return fmt.Errorf("%w: HTTP %d", ErrSourceUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		telemetry.SourceFetchesTotal.WithLabelValues(source, "failed").Inc()
		c.logger.Debug().Err(err).Str("source", source).Msg("source payload invalid")
		return fmt.Errorf("%w: decode: %v", ErrSourceUnavailable, err)
	}

	telemetry.SourceFetchesTotal.WithLabelValues(source, "success").Inc()
	return nil
}
