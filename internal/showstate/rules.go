/*
Copyright (C) 2026 Lumenworks

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package showstate

import "github.com/lumenworks/showgate/internal/models"

// Facts are the inputs to mode derivation, established once per snapshot.
type Facts struct {
	AfterHours           bool
	Preshow              bool
	ResetPlaylist        bool
	ShowPlaylist         bool
	IntermissionPlaylist bool
	TimeLockout          bool
	QueueLockout         bool
	QueueLength          int
}

// modeRule binds one mode to its predicate. Rules are evaluated in slice
// order, first match wins, so priority is data rather than control flow.
type modeRule struct {
	mode    models.ShowMode
	applies func(Facts) bool
	// withQueue overrides mode when the queue is non-empty.
	withQueue models.ShowMode
}

var modeRules = []modeRule{
	{mode: models.ShowModeAfterHours, applies: func(f Facts) bool { return f.AfterHours }},
	{mode: models.ShowModePreshow, applies: func(f Facts) bool { return f.Preshow }},
	{mode: models.ShowModeResetting, applies: func(f Facts) bool { return f.ResetPlaylist }},
	{mode: models.ShowModeQueueLockout, applies: func(f Facts) bool { return f.QueueLockout }},
	{mode: models.ShowModeTimeLockout, applies: func(f Facts) bool { return f.TimeLockout }},
	{
		mode:      models.ShowModeShowRandom,
		applies:   func(f Facts) bool { return f.ShowPlaylist },
		withQueue: models.ShowModeShowQueue,
	},
	{
		mode:      models.ShowModeIntermissionEmpty,
		applies:   func(f Facts) bool { return f.IntermissionPlaylist },
		withQueue: models.ShowModeIntermissionQueue,
	},
}

// DeriveMode resolves the single discrete mode for the snapshot. The
// function is total: unmatched facts fall through to unknown.
func DeriveMode(f Facts) models.ShowMode {
	for _, rule := range modeRules {
		if !rule.applies(f) {
			continue
		}
		if rule.withQueue != "" && f.QueueLength > 0 {
			return rule.withQueue
		}
		return rule.mode
	}
	return models.ShowModeUnknown
}

// GateFacts are the inputs to the request-allow decision.
type GateFacts struct {
	ViewerControlEnabled bool
	AfterHours           bool
	Preshow              bool
	Resetting            bool
	TimeLockout          bool
	QueueLockout         bool
}

// gateRule binds one block reason to its predicate, in fixed priority.
type gateRule struct {
	reason  models.BlockReason
	applies func(GateFacts) bool
}

var gateRules = []gateRule{
	{models.BlockAfterHours, func(f GateFacts) bool { return f.AfterHours }},
	{models.BlockPreshow, func(f GateFacts) bool { return f.Preshow }},
	{models.BlockResetting, func(f GateFacts) bool { return f.Resetting }},
	{models.BlockViewerControlOff, func(f GateFacts) bool { return !f.ViewerControlEnabled }},
	{models.BlockTimeLockout, func(f GateFacts) bool { return f.TimeLockout }},
	{models.BlockQueueLockout, func(f GateFacts) bool { return f.QueueLockout }},
}

// DeriveGate resolves the request-allow decision with exactly one block
// reason when requests are disallowed.
func DeriveGate(f GateFacts) models.RequestGate {
	for _, rule := range gateRules {
		if rule.applies(f) {
			return models.RequestGate{Allowed: false, Reason: rule.reason}
		}
	}
	return models.RequestGate{Allowed: true}
}
