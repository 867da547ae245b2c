/*
Copyright (C) 2026 Lumenworks

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package audit persists speaker transitions for operator review. It
// subscribes to the event bus so the controller never blocks on the
// database.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/lumenworks/showgate/internal/events"
	"github.com/lumenworks/showgate/internal/models"
)

// Service handles speaker audit logging by subscribing to events and
// storing audit rows.
type Service struct {
	db     *gorm.DB
	bus    *events.Bus
	logger zerolog.Logger
}

// NewService creates a new audit service.
func NewService(db *gorm.DB, bus *events.Bus, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		bus:    bus,
		logger: logger.With().Str("component", "audit").Logger(),
	}
}

// Start subscribes to speaker events and records them until ctx ends.
func (s *Service) Start(ctx context.Context) {
	s.logger.Info().Msg("audit service starting")

	dispatched := s.bus.Subscribe(events.EventSpeakerDispatched)
	confirmed := s.bus.Subscribe(events.EventSpeakerConfirmed)
	rejected := s.bus.Subscribe(events.EventSpeakerRejected)
	expired := s.bus.Subscribe(events.EventSpeakerExpired)
	extended := s.bus.Subscribe(events.EventSpeakerExtended)

	defer func() {
		s.bus.Unsubscribe(events.EventSpeakerDispatched, dispatched)
		s.bus.Unsubscribe(events.EventSpeakerConfirmed, confirmed)
		s.bus.Unsubscribe(events.EventSpeakerRejected, rejected)
		s.bus.Unsubscribe(events.EventSpeakerExpired, expired)
		s.bus.Unsubscribe(events.EventSpeakerExtended, extended)
	}()

	s.logger.Info().Msg("audit service started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("audit service stopping")
			return

		case payload := <-dispatched:
			s.logSpeakerEvent(ctx, models.SpeakerEventDispatched, models.SpeakerOn, payload)

		case payload := <-confirmed:
			status := models.SpeakerStatus(stringField(payload, "status"))
			s.logSpeakerEvent(ctx, models.SpeakerEventConfirmed, status, payload)

		case payload := <-rejected:
			s.logSpeakerEvent(ctx, models.SpeakerEventRejected, models.SpeakerOff, payload)

		case payload := <-expired:
			s.logSpeakerEvent(ctx, models.SpeakerEventExpired, models.SpeakerOff, payload)

		case payload := <-extended:
			s.logSpeakerEvent(ctx, models.SpeakerEventExtended, models.SpeakerOn, payload)
		}
	}
}

// logSpeakerEvent creates an audit row from an event payload.
func (s *Service) logSpeakerEvent(ctx context.Context, kind models.SpeakerEventKind, status models.SpeakerStatus, payload events.Payload) {
	row := &models.SpeakerEvent{
		ID:        uuid.NewString(),
		Kind:      kind,
		Status:    status,
		Source:    models.SpeakerSource(stringField(payload, "source")),
		Identity:  stringField(payload, "identity"),
		Reason:    stringField(payload, "reason"),
		Remaining: int64Field(payload, "remaining"),
		CreatedAt: time.Now(),
	}

	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		s.logger.Error().Err(err).
			Str("kind", string(kind)).
			Msg("failed to record speaker event")
	}
}

// QueryFilter narrows an audit query. Zero values mean no constraint.
type QueryFilter struct {
	Kind   models.SpeakerEventKind
	Source models.SpeakerSource
	Since  time.Time
	Limit  int
}

// Query returns speaker events newest first.
func (s *Service) Query(ctx context.Context, filter QueryFilter) ([]models.SpeakerEvent, error) {
	q := s.db.WithContext(ctx).Model(&models.SpeakerEvent{}).Order("created_at DESC")
	if filter.Kind != "" {
		q = q.Where("kind = ?", filter.Kind)
	}
	if filter.Source != "" {
		q = q.Where("source = ?", filter.Source)
	}
	if !filter.Since.IsZero() {
		q = q.Where("created_at >= ?", filter.Since)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q = q.Limit(limit)

	var rows []models.SpeakerEvent
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func stringField(payload events.Payload, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

func int64Field(payload events.Payload, key string) int64 {
	switch v := payload[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}
