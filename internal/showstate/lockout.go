/*
Copyright (C) 2026 Lumenworks

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package showstate derives the client-facing show snapshot: lockouts,
// the discrete mode, and the request-allow decision.
package showstate

import "github.com/lumenworks/showgate/internal/schedule"

// Thresholds carries the lockout tuning in seconds.
type Thresholds struct {
	Hard        int64 // hard lockout when time-until-reset is at or below
	Warning     int64 // warning band upper bound
	Buffer      int64 // safety margin added to queue drain projection
	DefaultSong int64 // drain estimate for the request being considered
}

// DefaultThresholds returns the stock lockout thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{Hard: 300, Warning: 900, Buffer: 60, DefaultSong: 180}
}

// Lockouts is the evaluator's output.
type Lockouts struct {
	TimeLockout  bool
	QueueLockout bool
	Warning      bool
}

// EvaluateLockouts computes hard/soft lockouts from time-to-reset and the
// projected queue drain time. When no reset time is known neither lockout
// applies; only after-hours/preshow can still block requests.
func EvaluateLockouts(info schedule.Info, currentRemaining, queuedDuration int64, th Thresholds) Lockouts {
	var out Lockouts

	if !info.IsShowHours || info.TimeUntilResetSeconds == nil {
		return out
	}
	until := *info.TimeUntilResetSeconds

	out.TimeLockout = until <= th.Hard
	out.Warning = until <= th.Warning && !out.TimeLockout

	if !out.TimeLockout {
		projected := currentRemaining + queuedDuration + th.DefaultSong + th.Buffer
		out.QueueLockout = projected > until
	}

	return out
}
