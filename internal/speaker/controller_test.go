package speaker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lumenworks/showgate/internal/config"
	"github.com/lumenworks/showgate/internal/events"
	"github.com/lumenworks/showgate/internal/kvstore"
	"github.com/lumenworks/showgate/internal/models"
	"github.com/lumenworks/showgate/internal/sources"
)

type stepClock struct {
	mu sync.Mutex
	at time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = c.at.Add(d)
}

type fakeDispatcher struct {
	mu       sync.Mutex
	commands []sources.ActuatorCommand
	fail     bool
}

func (d *fakeDispatcher) Dispatch(_ context.Context, cmd sources.ActuatorCommand) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail {
		return errors.New("relay unreachable")
	}
	d.commands = append(d.commands, cmd)
	return nil
}

func (d *fakeDispatcher) count(cmd sources.ActuatorCommand) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.commands {
		if c == cmd {
			n++
		}
	}
	return n
}

type fakeProbe struct {
	remaining int
	ok        bool
}

func (p *fakeProbe) MediaRemainingSeconds(context.Context) (int, bool) {
	return p.remaining, p.ok
}

type fixture struct {
	clk        *stepClock
	dispatcher *fakeDispatcher
	probe      *fakeProbe
	gates      *Gatekeeper
	controller *Controller
}

func newFixture(t *testing.T, rules config.SpeakerRules) *fixture {
	t.Helper()
	clk := &stepClock{at: time.Date(2026, 6, 5, 19, 0, 0, 0, time.UTC)}
	store := kvstore.NewMemoryWithClock(clk.Now)
	dispatcher := &fakeDispatcher{}
	probe := &fakeProbe{}
	gates := NewGatekeeper(store, rules, 60*time.Second, clk, zerolog.Nop())
	controller := NewController(store, dispatcher, probe, gates, 300*time.Second, clk, events.NewBus(), zerolog.Nop())
	return &fixture{clk: clk, dispatcher: dispatcher, probe: probe, gates: gates, controller: controller}
}

func viewerReq(ip string) Request {
	return Request{Source: models.SourceViewer, Identity: ip, RemoteIP: ip, UserAgent: "Mozilla/5.0 (iPhone) Mobile"}
}

func TestRequestOn_OffToOn(t *testing.T) {
	f := newFixture(t, config.SpeakerRules{})
	ctx := context.Background()

	result, err := f.controller.RequestOn(ctx, viewerReq("203.0.113.5"))
	if err != nil {
		t.Fatalf("RequestOn: %v", err)
	}
	if !result.Success || result.AlreadyOn {
		t.Fatalf("expected fresh success, got %+v", result)
	}
	if result.RemainingSeconds != 300 {
		t.Fatalf("remaining = %d, want 300", result.RemainingSeconds)
	}

	state := f.controller.Status(ctx)
	if state.Status != models.SpeakerOn {
		t.Fatalf("status = %s, want on", state.Status)
	}
	if got := state.RemainingSeconds(f.clk.Now()); got != 300 {
		t.Fatalf("status remaining = %d, want 300", got)
	}

	// 271s later the timer is nearly up but not expired and no probe
	// extension applies.
	f.clk.Advance(271 * time.Second)
	state = f.controller.Status(ctx)
	if state.Status != models.SpeakerOn {
		t.Fatalf("status after 271s = %s, want on", state.Status)
	}
	if got := state.RemainingSeconds(f.clk.Now()); got != 29 {
		t.Fatalf("remaining after 271s = %d, want 29", got)
	}
}

func TestRequestOn_AlreadyOnSkipsDispatch(t *testing.T) {
	f := newFixture(t, config.SpeakerRules{})
	ctx := context.Background()

	if _, err := f.controller.RequestOn(ctx, viewerReq("203.0.113.5")); err != nil {
		t.Fatalf("first RequestOn: %v", err)
	}

	result, err := f.controller.RequestOn(ctx, viewerReq("203.0.113.6"))
	if err != nil {
		t.Fatalf("second RequestOn: %v", err)
	}
	if !result.Success || !result.AlreadyOn {
		t.Fatalf("expected already-on result, got %+v", result)
	}
	if n := f.dispatcher.count(sources.ActuatorOn); n != 1 {
		t.Fatalf("ON dispatched %d times, want 1", n)
	}
}

func TestRequestOn_CooldownBlocksRepeatIdentity(t *testing.T) {
	f := newFixture(t, config.SpeakerRules{})
	ctx := context.Background()

	if _, err := f.controller.RequestOn(ctx, viewerReq("203.0.113.5")); err != nil {
		t.Fatalf("first RequestOn: %v", err)
	}

	result, err := f.controller.RequestOn(ctx, viewerReq("203.0.113.5"))
	if err != nil {
		t.Fatalf("second RequestOn: %v", err)
	}
	if result.Success || result.Reason != RejectCooldown {
		t.Fatalf("expected cooldown rejection, got %+v", result)
	}

	// Cooldown lapses with time.
	f.clk.Advance(61 * time.Second)
	result, err = f.controller.RequestOn(ctx, viewerReq("203.0.113.5"))
	if err != nil {
		t.Fatalf("third RequestOn: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success after cooldown, got %+v", result)
	}
}

func TestRequestOn_DispatchFailureLeavesStateOff(t *testing.T) {
	f := newFixture(t, config.SpeakerRules{})
	f.dispatcher.fail = true

	if _, err := f.controller.RequestOn(context.Background(), viewerReq("203.0.113.5")); err == nil {
		t.Fatalf("expected dispatch error")
	}

	state := f.controller.Status(context.Background())
	if state.Status != models.SpeakerOff {
		t.Fatalf("status = %s, want off after failed dispatch", state.Status)
	}
}

func TestStatus_NormalizesExpiredRecord(t *testing.T) {
	f := newFixture(t, config.SpeakerRules{})
	ctx := context.Background()

	if _, err := f.controller.RequestOn(ctx, viewerReq("203.0.113.5")); err != nil {
		t.Fatalf("RequestOn: %v", err)
	}

	f.clk.Advance(301 * time.Second)
	state := f.controller.Status(ctx)
	if state.Status != models.SpeakerOff {
		t.Fatalf("status = %s, want off after expiry", state.Status)
	}
	if got := state.RemainingSeconds(f.clk.Now()); got != 0 {
		t.Fatalf("remaining = %d, want 0", got)
	}
	if state.LastSource != models.SourceExpiry {
		t.Fatalf("last source = %s, want expiry", state.LastSource)
	}
}

func TestConfirm_OffWinsOverRunningTimer(t *testing.T) {
	f := newFixture(t, config.SpeakerRules{})
	ctx := context.Background()

	if _, err := f.controller.RequestOn(ctx, viewerReq("203.0.113.5")); err != nil {
		t.Fatalf("RequestOn: %v", err)
	}
	f.clk.Advance(180 * time.Second) // 120s still on the timer

	if err := f.controller.Confirm(ctx, models.SpeakerOff, models.SourceHardware); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	state := f.controller.Status(ctx)
	if state.Status != models.SpeakerOff {
		t.Fatalf("status = %s, want off after hardware confirmation", state.Status)
	}
	if state.LastConfirmedStatus != models.SpeakerOff {
		t.Fatalf("last confirmed = %s, want off", state.LastConfirmedStatus)
	}
}

func TestConfirm_OnRestartsFullTimer(t *testing.T) {
	f := newFixture(t, config.SpeakerRules{})
	ctx := context.Background()

	// Local state is stale off; hardware says on.
	if err := f.controller.Confirm(ctx, models.SpeakerOn, models.SourceHardware); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	state := f.controller.Status(ctx)
	if state.Status != models.SpeakerOn {
		t.Fatalf("status = %s, want on", state.Status)
	}
	if got := state.RemainingSeconds(f.clk.Now()); got != 300 {
		t.Fatalf("remaining = %d, want a full timer", got)
	}
}

func TestConfirm_RejectsUnknownStatus(t *testing.T) {
	f := newFixture(t, config.SpeakerRules{})
	if err := f.controller.Confirm(context.Background(), "blinking", models.SourceHardware); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestMidMediaGuard_ExtendsNearExpiry(t *testing.T) {
	f := newFixture(t, config.SpeakerRules{})
	ctx := context.Background()

	if _, err := f.controller.RequestOn(ctx, viewerReq("203.0.113.5")); err != nil {
		t.Fatalf("RequestOn: %v", err)
	}

	f.clk.Advance(280 * time.Second) // 20s remaining
	f.probe.remaining = 95
	f.probe.ok = true

	state := f.controller.Status(ctx)
	if state.Status != models.SpeakerOn {
		t.Fatalf("status = %s, want on", state.Status)
	}
	if got := state.RemainingSeconds(f.clk.Now()); got != 95 {
		t.Fatalf("remaining = %d, want 95 after media extension", got)
	}
}

func TestMidMediaGuard_SkipsOutsideThreshold(t *testing.T) {
	f := newFixture(t, config.SpeakerRules{})
	ctx := context.Background()

	if _, err := f.controller.RequestOn(ctx, viewerReq("203.0.113.5")); err != nil {
		t.Fatalf("RequestOn: %v", err)
	}

	f.clk.Advance(100 * time.Second) // 200s remaining, above the threshold
	f.probe.remaining = 500
	f.probe.ok = true

	state := f.controller.Status(ctx)
	if got := state.RemainingSeconds(f.clk.Now()); got != 200 {
		t.Fatalf("remaining = %d, want 200 untouched", got)
	}
}

func TestRequestOn_AdminLockBlocksViewersNotPhysical(t *testing.T) {
	f := newFixture(t, config.SpeakerRules{})
	ctx := context.Background()

	if err := f.gates.SetLock(ctx, true, "op1", "private event"); err != nil {
		t.Fatalf("SetLock: %v", err)
	}

	result, err := f.controller.RequestOn(ctx, viewerReq("203.0.113.5"))
	if err != nil {
		t.Fatalf("RequestOn: %v", err)
	}
	if result.Success || result.Reason != RejectAdminLocked {
		t.Fatalf("expected admin lock rejection, got %+v", result)
	}

	physical, err := f.controller.RequestOn(ctx, Request{Source: models.SourcePhysical})
	if err != nil {
		t.Fatalf("physical RequestOn: %v", err)
	}
	if !physical.Success {
		t.Fatalf("physical press must bypass the lock, got %+v", physical)
	}
}

func TestClampSeconds(t *testing.T) {
	tests := []struct {
		in, want int64
	}{
		{10, 60},
		{60, 60},
		{300, 300},
		{900, 900},
		{5000, 900},
	}
	for _, tt := range tests {
		if got := clampSeconds(tt.in); got != tt.want {
			t.Fatalf("clampSeconds(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
