package schedule

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lumenworks/showgate/internal/clock"
	"github.com/lumenworks/showgate/internal/config"
	"github.com/lumenworks/showgate/internal/models"
)

// Friday evening, mid-show.
var testNow = time.Date(2026, 6, 5, 18, 30, 0, 0, time.UTC)

func newTestInterpreter(at time.Time) *Interpreter {
	profile := config.DefaultProfile()
	return NewInterpreter(NewKeywordMatcher(profile.Labels), profile.Fallback, clock.Fixed{At: at}, zerolog.Nop())
}

func TestInterpret_InsideViewerControlWindow(t *testing.T) {
	items := []models.ScheduleItem{
		{
			StartEpoch: testNow.Add(-90 * time.Minute).Unix(),
			EndEpoch:   testNow.Add(330 * time.Minute).Unix(),
			StartLabel: "5:00 PM",
			EndLabel:   "12:00 AM",
			Name:       "Viewer Control On",
		},
	}

	info := newTestInterpreter(testNow).Interpret(items)

	if !info.IsShowHours {
		t.Fatalf("expected show hours inside the window")
	}
	if info.ShowEndsAtLabel != "12:00 AM" {
		t.Fatalf("ShowEndsAtLabel = %q, want 12:00 AM", info.ShowEndsAtLabel)
	}
	if info.TimeUntilResetSeconds != nil {
		t.Fatalf("expected no reset time, got %d", *info.TimeUntilResetSeconds)
	}
	if info.IsFallback {
		t.Fatalf("presence of items must not flag fallback")
	}
}

func TestInterpret_ViewerControlOffStaysClosed(t *testing.T) {
	matcher := NewKeywordMatcher(config.DefaultProfile().Labels)
	if matcher.IsShowWindow("Viewer Control Off") {
		t.Fatalf("lights-off entry must not be a show window")
	}
	if matcher.IsLightsOpen("Viewer Control Off") {
		t.Fatalf("lights-off entry must not count as lights open")
	}
	if !matcher.IsShowWindow("Viewer Control On") || !matcher.IsLightsOpen("viewer control on") {
		t.Fatalf("lights-on entry must still match")
	}

	items := []models.ScheduleItem{
		{
			StartEpoch: testNow.Add(-1 * time.Hour).Unix(),
			EndEpoch:   testNow.Add(4 * time.Hour).Unix(),
			StartLabel: "5:30 PM",
			Name:       "Viewer Control Off",
		},
		{
			StartEpoch: testNow.Add(5 * time.Hour).Unix(),
			EndEpoch:   testNow.Add(6 * time.Hour).Unix(),
			StartLabel: "11:30 PM",
			Name:       "Viewer Control Off",
		},
	}

	info := newTestInterpreter(testNow).Interpret(items)

	if info.IsShowHours {
		t.Fatalf("a current lights-off window must not open show hours")
	}
	if info.NextLightsOpenLabel != "" {
		t.Fatalf("NextLightsOpenLabel = %q, want empty", info.NextLightsOpenLabel)
	}
}

func TestInterpret_PicksEarliestFutureReset(t *testing.T) {
	items := []models.ScheduleItem{
		{
			StartEpoch: testNow.Add(-1 * time.Hour).Unix(),
			EndEpoch:   testNow.Add(4 * time.Hour).Unix(),
			Name:       "Viewer Control On",
		},
		{
			StartEpoch: testNow.Add(2 * time.Hour).Unix(),
			StartLabel: "8:30 PM",
			Name:       "Reset Show",
		},
		{
			StartEpoch: testNow.Add(30 * time.Minute).Unix(),
			StartLabel: "7:00 PM",
			Name:       "Reset Show",
		},
		{
			// Already started, must be ignored.
			StartEpoch: testNow.Add(-10 * time.Minute).Unix(),
			StartLabel: "6:20 PM",
			Name:       "Reset Show",
		},
	}

	info := newTestInterpreter(testNow).Interpret(items)

	if info.TimeUntilResetSeconds == nil || *info.TimeUntilResetSeconds != 1800 {
		t.Fatalf("expected 1800s to the earliest future reset, got %v", info.TimeUntilResetSeconds)
	}
	if info.NextResetLabel != "7:00 PM" {
		t.Fatalf("NextResetLabel = %q, want 7:00 PM", info.NextResetLabel)
	}
}

func TestInterpret_NextLightsOpen(t *testing.T) {
	items := []models.ScheduleItem{
		{
			StartEpoch: testNow.Add(30 * time.Minute).Unix(),
			EndEpoch:   testNow.Add(5 * time.Hour).Unix(),
			StartLabel: "7:00 PM",
			Name:       "Viewer Control On",
		},
	}

	info := newTestInterpreter(testNow).Interpret(items)

	if info.IsShowHours {
		t.Fatalf("future window must not open show hours")
	}
	if info.NextLightsOpenLabel != "7:00 PM" {
		t.Fatalf("NextLightsOpenLabel = %q, want 7:00 PM", info.NextLightsOpenLabel)
	}
}

func TestInterpret_FallbackHeuristic(t *testing.T) {
	tests := []struct {
		name        string
		at          time.Time
		isShowHours bool
	}{
		{"friday evening", time.Date(2026, 6, 5, 18, 30, 0, 0, time.UTC), true},
		{"friday late night still on", time.Date(2026, 6, 5, 23, 30, 0, 0, time.UTC), true},
		{"wednesday late night off", time.Date(2026, 6, 3, 23, 30, 0, 0, time.UTC), false},
		{"weekday afternoon off", time.Date(2026, 6, 3, 14, 0, 0, 0, time.UTC), false},
		{"wednesday evening on", time.Date(2026, 6, 3, 19, 0, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := newTestInterpreter(tt.at).Interpret(nil)
			if !info.IsFallback {
				t.Fatalf("empty schedule must flag fallback")
			}
			if info.IsShowHours != tt.isShowHours {
				t.Fatalf("IsShowHours = %v, want %v", info.IsShowHours, tt.isShowHours)
			}
		})
	}
}

func TestInterpret_FallbackResetAtTopOfHour(t *testing.T) {
	info := newTestInterpreter(testNow).Interpret(nil)

	if info.TimeUntilResetSeconds == nil || *info.TimeUntilResetSeconds != 1800 {
		t.Fatalf("expected 1800s to the top of the next hour, got %v", info.TimeUntilResetSeconds)
	}
	if info.NextResetLabel != "7:00 PM" {
		t.Fatalf("NextResetLabel = %q, want 7:00 PM", info.NextResetLabel)
	}
}

func TestWindows_Classification(t *testing.T) {
	items := []models.ScheduleItem{
		{Name: "Viewer Control On"},
		{Name: "Reset Show"},
		{Name: "Intermission Music"},
		{Name: "Holiday Spectacular"},
	}

	windows := newTestInterpreter(testNow).Windows(items)

	want := []models.WindowKind{
		models.WindowViewerControlOn,
		models.WindowReset,
		models.WindowIntermission,
		models.WindowShow,
	}
	if len(windows) != len(want) {
		t.Fatalf("got %d windows, want %d", len(windows), len(want))
	}
	for i, kind := range want {
		if windows[i].Kind != kind {
			t.Fatalf("window %d kind = %s, want %s", i, windows[i].Kind, kind)
		}
	}
}
