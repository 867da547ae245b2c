/*
Copyright (C) 2026 Lumenworks

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package schedule turns raw provider schedule entries into named windows
// and, when the provider has nothing, an hour-of-day heuristic.
package schedule

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lumenworks/showgate/internal/clock"
	"github.com/lumenworks/showgate/internal/config"
	"github.com/lumenworks/showgate/internal/models"
	"github.com/lumenworks/showgate/internal/telemetry"
)

// Info is the interpreted schedule the rest of the engine consumes.
type Info struct {
	IsShowHours           bool
	TimeUntilResetSeconds *int64
	NextResetLabel        string
	NextLightsOpenLabel   string
	NextShowStartLabel    string
	ShowEndsAtLabel       string
	IsFallback            bool
}

// LabelMatcher classifies schedule entries from their display names.
// Matching is substring-based against the provider's preformatted labels
// rather than recomputed from epochs: the upstream source already
// resolved the timezone, and re-deriving risks skew.
type LabelMatcher interface {
	IsShowWindow(name string) bool
	IsLightsOpen(name string) bool
	IsReset(name string) bool
}

// KeywordMatcher is the default LabelMatcher driven by profile keywords.
type KeywordMatcher struct {
	showHours []string
	reset     []string
}

// NewKeywordMatcher builds a matcher from profile label keywords.
func NewKeywordMatcher(labels config.LabelKeywords) *KeywordMatcher {
	return &KeywordMatcher{
		showHours: labels.ShowHours,
		reset:     labels.Reset,
	}
}

// IsShowWindow reports whether the entry opens show hours:
// "intermission", or "viewer control" together with "on".
func (m *KeywordMatcher) IsShowWindow(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range m.showHours {
		kw = strings.ToLower(kw)
		if kw == "viewer control" {
			if strings.Contains(lower, kw) && hasOnWord(lower) {
				return true
			}
			continue
		}
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// IsLightsOpen reports whether the entry is a "viewer control on" item.
func (m *KeywordMatcher) IsLightsOpen(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "viewer control") && hasOnWord(lower)
}

// hasOnWord matches "on" as a standalone word. A plain substring check
// would hit the "on" inside "control" and swallow "Viewer Control Off".
func hasOnWord(lower string) bool {
	for _, field := range strings.Fields(lower) {
		if field == "on" {
			return true
		}
	}
	return false
}

// IsReset reports whether the entry is a reset event.
func (m *KeywordMatcher) IsReset(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range m.reset {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// Interpreter classifies schedule items relative to the current time.
type Interpreter struct {
	matcher  LabelMatcher
	fallback config.FallbackHours
	clk      clock.Clock
	logger   zerolog.Logger
}

// NewInterpreter creates a schedule interpreter.
func NewInterpreter(matcher LabelMatcher, fallback config.FallbackHours, clk clock.Clock, logger zerolog.Logger) *Interpreter {
	return &Interpreter{
		matcher:  matcher,
		fallback: fallback,
		clk:      clk,
		logger:   logger.With().Str("component", "schedule").Logger(),
	}
}

// Interpret derives schedule info from the provider's items. An empty
// item list switches to the hour-of-day heuristic.
func (i *Interpreter) Interpret(items []models.ScheduleItem) Info {
	if len(items) == 0 {
		telemetry.ScheduleFallbacksTotal.Inc()
		return i.heuristic(i.clk.Now())
	}

	now := i.clk.Now().Unix()
	var info Info
	var nextLightsOpen, nextReset *models.ScheduleItem

	for idx := range items {
		item := items[idx]

		if i.matcher.IsShowWindow(item.Name) && item.StartEpoch <= now && now < item.EndEpoch {
			info.IsShowHours = true
			info.ShowEndsAtLabel = item.EndLabel
		}

		if i.matcher.IsLightsOpen(item.Name) && item.StartEpoch > now {
			if nextLightsOpen == nil || item.StartEpoch < nextLightsOpen.StartEpoch {
				nextLightsOpen = &items[idx]
			}
		}

		if i.matcher.IsReset(item.Name) && item.StartEpoch > now {
			if nextReset == nil || item.StartEpoch < nextReset.StartEpoch {
				nextReset = &items[idx]
			}
		}
	}

	if nextLightsOpen != nil {
		info.NextLightsOpenLabel = nextLightsOpen.StartLabel
	}
	if nextReset != nil {
		info.NextResetLabel = nextReset.StartLabel
		info.NextShowStartLabel = nextReset.StartLabel
		until := nextReset.StartEpoch - now
		info.TimeUntilResetSeconds = &until
	}

	return info
}

// Windows classifies every item into a named window for display.
func (i *Interpreter) Windows(items []models.ScheduleItem) []models.ScheduleWindow {
	windows := make([]models.ScheduleWindow, 0, len(items))
	for _, item := range items {
		kind := models.WindowShow
		switch {
		case i.matcher.IsLightsOpen(item.Name):
			kind = models.WindowViewerControlOn
		case i.matcher.IsReset(item.Name):
			kind = models.WindowReset
		case i.matcher.IsShowWindow(item.Name):
			kind = models.WindowIntermission
		}
		windows = append(windows, models.ScheduleWindow{
			Kind:       kind,
			StartEpoch: item.StartEpoch,
			EndEpoch:   item.EndEpoch,
			StartLabel: item.StartLabel,
			EndLabel:   item.EndLabel,
		})
	}
	return windows
}

// heuristic is the fallback when the schedule provider has no items.
func (i *Interpreter) heuristic(now time.Time) Info {
	endHour := i.fallback.WeekdayEndHour
	switch now.Weekday() {
	case time.Friday, time.Saturday, time.Sunday:
		endHour = i.fallback.WeekendEndHour
	}

	isShowHours := now.Hour() >= i.fallback.StartHour && now.Hour() < endHour

	info := Info{
		IsShowHours:         isShowHours,
		NextLightsOpenLabel: hourLabel(i.fallback.StartHour),
		NextShowStartLabel:  hourLabel(i.fallback.ShowStartHour),
		IsFallback:          true,
	}

	if isShowHours {
		// Approximate the reset boundary as the top of the next hour.
		next := now.Truncate(time.Hour).Add(time.Hour)
		until := int64(next.Sub(now).Seconds())
		info.TimeUntilResetSeconds = &until
		info.NextResetLabel = next.Format("3:04 PM")
	}

	return info
}

func hourLabel(hour int) string {
	return time.Date(2000, 1, 1, hour, 0, 0, 0, time.UTC).Format("3:04 PM")
}
