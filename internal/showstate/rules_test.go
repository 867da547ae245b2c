package showstate

import (
	"testing"

	"github.com/lumenworks/showgate/internal/models"
)

func TestDeriveMode_Priority(t *testing.T) {
	tests := []struct {
		name  string
		facts Facts
		want  models.ShowMode
	}{
		{
			name:  "after hours beats everything",
			facts: Facts{AfterHours: true, Preshow: true, ResetPlaylist: true, TimeLockout: true, QueueLockout: true, QueueLength: 3},
			want:  models.ShowModeAfterHours,
		},
		{
			name:  "preshow beats resetting",
			facts: Facts{Preshow: true, ResetPlaylist: true, TimeLockout: true},
			want:  models.ShowModePreshow,
		},
		{
			name:  "resetting beats lockouts",
			facts: Facts{ResetPlaylist: true, TimeLockout: true, QueueLockout: true},
			want:  models.ShowModeResetting,
		},
		{
			name:  "queue lockout beats time lockout",
			facts: Facts{QueueLockout: true, TimeLockout: true, ShowPlaylist: true},
			want:  models.ShowModeQueueLockout,
		},
		{
			name:  "time lockout beats playlist modes",
			facts: Facts{TimeLockout: true, ShowPlaylist: true, QueueLength: 2},
			want:  models.ShowModeTimeLockout,
		},
		{
			name:  "show playlist with queue",
			facts: Facts{ShowPlaylist: true, QueueLength: 2},
			want:  models.ShowModeShowQueue,
		},
		{
			name:  "show playlist without queue",
			facts: Facts{ShowPlaylist: true},
			want:  models.ShowModeShowRandom,
		},
		{
			name:  "intermission with queue",
			facts: Facts{IntermissionPlaylist: true, QueueLength: 1},
			want:  models.ShowModeIntermissionQueue,
		},
		{
			name:  "intermission without queue",
			facts: Facts{IntermissionPlaylist: true},
			want:  models.ShowModeIntermissionEmpty,
		},
		{
			name:  "nothing matches",
			facts: Facts{},
			want:  models.ShowModeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveMode(tt.facts); got != tt.want {
				t.Fatalf("DeriveMode(%+v) = %s, want %s", tt.facts, got, tt.want)
			}
		})
	}
}

func TestDeriveGate_SingleReasonPriority(t *testing.T) {
	tests := []struct {
		name  string
		facts GateFacts
		want  models.BlockReason
	}{
		{
			name:  "after hours wins over every other block",
			facts: GateFacts{AfterHours: true, Preshow: true, Resetting: true, TimeLockout: true, QueueLockout: true},
			want:  models.BlockAfterHours,
		},
		{
			name:  "preshow wins over resetting",
			facts: GateFacts{ViewerControlEnabled: true, Preshow: true, Resetting: true},
			want:  models.BlockPreshow,
		},
		{
			name:  "resetting wins over control off",
			facts: GateFacts{Resetting: true},
			want:  models.BlockResetting,
		},
		{
			name:  "control off wins over lockouts",
			facts: GateFacts{TimeLockout: true, QueueLockout: true},
			want:  models.BlockViewerControlOff,
		},
		{
			name:  "time lockout wins over queue lockout",
			facts: GateFacts{ViewerControlEnabled: true, TimeLockout: true, QueueLockout: true},
			want:  models.BlockTimeLockout,
		},
		{
			name:  "queue lockout alone",
			facts: GateFacts{ViewerControlEnabled: true, QueueLockout: true},
			want:  models.BlockQueueLockout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := DeriveGate(tt.facts)
			if gate.Allowed {
				t.Fatalf("expected blocked gate for %+v", tt.facts)
			}
			if gate.Reason != tt.want {
				t.Fatalf("reason = %s, want %s", gate.Reason, tt.want)
			}
		})
	}
}

func TestDeriveGate_Allowed(t *testing.T) {
	gate := DeriveGate(GateFacts{ViewerControlEnabled: true})
	if !gate.Allowed {
		t.Fatalf("expected allowed gate, got reason %s", gate.Reason)
	}
	if gate.Reason != "" {
		t.Fatalf("allowed gate must not carry a reason, got %s", gate.Reason)
	}
}
