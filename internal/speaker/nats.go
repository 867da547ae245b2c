/*
Copyright (C) 2026 Lumenworks

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package speaker

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/lumenworks/showgate/internal/models"
)

// confirmMessage is the wire payload published by the hardware bridge.
type confirmMessage struct {
	Status string `json:"status"`
	Source string `json:"source,omitempty"`
}

// ConfirmListener feeds hardware confirmations from a NATS subject into
// the controller. The subject itself is the trust boundary: only the
// hardware bridge publishes on it.
type ConfirmListener struct {
	conn       *nats.Conn
	sub        *nats.Subscription
	controller *Controller
	logger     zerolog.Logger
}

// NewConfirmListener connects to NATS and subscribes to the
// confirmation subject.
func NewConfirmListener(url, subject string, controller *Controller, logger zerolog.Logger) (*ConfirmListener, error) {
	l := &ConfirmListener{
		controller: controller,
		logger:     logger.With().Str("component", "speaker_confirm").Logger(),
	}

	conn, err := nats.Connect(url,
		nats.Name("showgate"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}
	l.conn = conn

	sub, err := conn.Subscribe(subject, l.handle)
	if err != nil {
		conn.Close()
		return nil, err
	}
	l.sub = sub

	l.logger.Info().Str("subject", subject).Msg("Listening for speaker confirmations")
	return l, nil
}

// Close drains the subscription and closes the connection.
func (l *ConfirmListener) Close() error {
	if l.sub != nil {
		if err := l.sub.Drain(); err != nil {
			l.logger.Warn().Err(err).Msg("Failed to drain confirmation subscription")
		}
	}
	if l.conn != nil {
		l.conn.Close()
	}
	return nil
}

func (l *ConfirmListener) handle(msg *nats.Msg) {
	var payload confirmMessage
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		l.logger.Warn().Err(err).Msg("Dropping malformed confirmation message")
		return
	}

	source := models.SourceHardware
	if payload.Source == string(models.SourcePhysical) {
		source = models.SourcePhysical
	}

	if err := l.controller.Confirm(context.Background(), models.SpeakerStatus(payload.Status), source); err != nil {
		l.logger.Warn().Err(err).Str("status", payload.Status).Msg("Rejected confirmation message")
	}
}
