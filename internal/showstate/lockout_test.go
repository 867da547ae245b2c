package showstate

import (
	"testing"

	"github.com/lumenworks/showgate/internal/schedule"
)

func showHoursInfo(until int64) schedule.Info {
	return schedule.Info{IsShowHours: true, TimeUntilResetSeconds: &until}
}

func TestEvaluateLockouts_TimeLockoutBand(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name         string
		until        int64
		timeLockout  bool
		warning      bool
	}{
		{"deep inside hard band", 10, true, false},
		{"at hard boundary", 300, true, false},
		{"just above hard boundary", 301, false, true},
		{"inside warning band", 600, false, true},
		{"at warning boundary", 900, false, true},
		{"above warning band", 901, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := EvaluateLockouts(showHoursInfo(tt.until), 0, 0, th)
			if out.TimeLockout != tt.timeLockout {
				t.Fatalf("until=%d: timeLockout=%v, want %v", tt.until, out.TimeLockout, tt.timeLockout)
			}
			if out.Warning != tt.warning {
				t.Fatalf("until=%d: warning=%v, want %v", tt.until, out.Warning, tt.warning)
			}
		})
	}
}

func TestEvaluateLockouts_QueueProjection(t *testing.T) {
	th := DefaultThresholds()

	// 4 queued entries of 200s, 30s left on the current sequence,
	// 1000s to the reset: 30+800+180+60=1070 > 1000.
	out := EvaluateLockouts(showHoursInfo(1000), 30, 800, th)
	if !out.QueueLockout {
		t.Fatalf("expected queue lockout for projected drain past reset")
	}
	if out.TimeLockout {
		t.Fatalf("queue lockout must not imply time lockout")
	}

	// Same queue with a later reset fits.
	out = EvaluateLockouts(showHoursInfo(1200), 30, 800, th)
	if out.QueueLockout {
		t.Fatalf("expected no queue lockout when the queue drains in time")
	}
}

func TestEvaluateLockouts_TimeLockoutSuppressesQueueProjection(t *testing.T) {
	out := EvaluateLockouts(showHoursInfo(200), 30, 5000, DefaultThresholds())
	if !out.TimeLockout {
		t.Fatalf("expected time lockout at 200s to reset")
	}
	if out.QueueLockout {
		t.Fatalf("queue projection must be skipped while time locked out")
	}
}

func TestEvaluateLockouts_NoResetKnown(t *testing.T) {
	out := EvaluateLockouts(schedule.Info{IsShowHours: true}, 600, 5000, DefaultThresholds())
	if out.TimeLockout || out.QueueLockout || out.Warning {
		t.Fatalf("no lockouts without a known reset time, got %+v", out)
	}
}

func TestEvaluateLockouts_OutsideShowHours(t *testing.T) {
	until := int64(100)
	out := EvaluateLockouts(schedule.Info{IsShowHours: false, TimeUntilResetSeconds: &until}, 0, 0, DefaultThresholds())
	if out.TimeLockout || out.QueueLockout || out.Warning {
		t.Fatalf("no lockouts outside show hours, got %+v", out)
	}
}
