/*
Copyright (C) 2026 Lumenworks

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package speaker

import (
	"context"
	"net/netip"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lumenworks/showgate/internal/clock"
	"github.com/lumenworks/showgate/internal/config"
	"github.com/lumenworks/showgate/internal/kvstore"
)

// RejectReason is the machine-readable gate rejection code.
type RejectReason string

const (
	RejectAdminLocked RejectReason = "admin_locked"
	RejectGeography   RejectReason = "geography"
	RejectDevice      RejectReason = "device"
	RejectCooldown    RejectReason = "cooldown"
)

// Message returns the human-readable rejection text for viewers.
func (r RejectReason) Message() string {
	switch r {
	case RejectAdminLocked:
		return "the speaker is locked by the show operator"
	case RejectGeography:
		return "the speaker can only be controlled from the show network"
	case RejectDevice:
		return "the speaker can only be controlled from a mobile device at the show"
	case RejectCooldown:
		return "please wait a minute before asking for the speaker again"
	default:
		return "request rejected"
	}
}

// LockRecord is the operator override stored alongside speaker state.
type LockRecord struct {
	Locked     bool   `json:"locked"`
	LockedBy   string `json:"locked_by,omitempty"`
	Reason     string `json:"reason,omitempty"`
	SetAtEpoch int64  `json:"set_at_epoch"`
}

// Gatekeeper evaluates anti-abuse gates for viewer turn-on requests.
// Gates run in a fixed order and the first failure wins. An empty CIDR
// or marker list disables that gate.
type Gatekeeper struct {
	store    kvstore.Store
	lans     []netip.Prefix
	markers  []string
	cooldown time.Duration
	clk      clock.Clock
	logger   zerolog.Logger
}

// NewGatekeeper builds the gate chain from the show profile rules.
// Malformed CIDRs are logged and skipped rather than failing startup.
func NewGatekeeper(store kvstore.Store, rules config.SpeakerRules, cooldown time.Duration, clk clock.Clock, logger zerolog.Logger) *Gatekeeper {
	g := &Gatekeeper{
		store:    store,
		cooldown: cooldown,
		clk:      clk,
		logger:   logger.With().Str("component", "speaker_gates").Logger(),
	}
	for _, raw := range rules.LANCIDRs {
		prefix, err := netip.ParsePrefix(raw)
		if err != nil {
			g.logger.Warn().Str("cidr", raw).Err(err).Msg("Skipping malformed LAN CIDR")
			continue
		}
		g.lans = append(g.lans, prefix)
	}
	for _, m := range rules.MobileUAMarkers {
		g.markers = append(g.markers, strings.ToLower(m))
	}
	return g
}

// Check runs the gate chain for a viewer request. It returns the first
// rejection reason, or ok=true when every gate passes.
func (g *Gatekeeper) Check(ctx context.Context, req Request) (RejectReason, bool) {
	lock, err := g.LockStatus(ctx)
	if err == nil && lock.Locked {
		return RejectAdminLocked, false
	}

	if len(g.lans) > 0 && !g.onLAN(req.RemoteIP) {
		return RejectGeography, false
	}

	if len(g.markers) > 0 && !g.mobileDevice(req.UserAgent) && !g.onLAN(req.RemoteIP) {
		return RejectDevice, false
	}

	if req.Identity != "" {
		var stamp int64
		held, err := g.store.GetJSON(ctx, kvstore.KeyCooldown+req.Identity, &stamp)
		if err != nil {
			g.logger.Warn().Err(err).Msg("Cooldown lookup failed, allowing request")
		} else if held {
			return RejectCooldown, false
		}
	}

	return "", true
}

// MarkCooldown records the per-identity cooldown stamp with its TTL.
func (g *Gatekeeper) MarkCooldown(ctx context.Context, identity string) {
	if identity == "" {
		return
	}
	now := g.clk.Now().Unix()
	if err := g.store.SetJSON(ctx, kvstore.KeyCooldown+identity, now, g.cooldown); err != nil {
		g.logger.Warn().Err(err).Str("identity", identity).Msg("Failed to record cooldown")
	}
}

// LockStatus reads the operator lock record, absent meaning unlocked.
func (g *Gatekeeper) LockStatus(ctx context.Context) (LockRecord, error) {
	var lock LockRecord
	found, err := g.store.GetJSON(ctx, kvstore.KeySpeakerLock, &lock)
	if err != nil {
		return LockRecord{}, err
	}
	if !found {
		return LockRecord{}, nil
	}
	return lock, nil
}

// SetLock installs or clears the operator lock.
func (g *Gatekeeper) SetLock(ctx context.Context, locked bool, by, reason string) error {
	if !locked {
		return g.store.Delete(ctx, kvstore.KeySpeakerLock)
	}
	return g.store.SetJSON(ctx, kvstore.KeySpeakerLock, LockRecord{
		Locked:     true,
		LockedBy:   by,
		Reason:     reason,
		SetAtEpoch: g.clk.Now().Unix(),
	}, 0)
}

func (g *Gatekeeper) onLAN(remoteIP string) bool {
	addr, err := netip.ParseAddr(remoteIP)
	if err != nil {
		return false
	}
	for _, prefix := range g.lans {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func (g *Gatekeeper) mobileDevice(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	for _, marker := range g.markers {
		if strings.Contains(ua, marker) {
			return true
		}
	}
	return false
}
