package projector

import (
	"testing"

	"github.com/lumenworks/showgate/internal/models"
)

func testCatalogState() models.ShowQueueState {
	return models.ShowQueueState{
		Sequences: []models.Sequence{
			{InternalName: "carol_bells", DisplayName: "Carol of the Bells", Artist: "TSO", DurationSeconds: 210},
			{InternalName: "wizards", DisplayName: "Wizards in Winter", Artist: "TSO", DurationSeconds: 185},
			{InternalName: "sarajevo", DisplayName: "Christmas Eve/Sarajevo", Artist: "TSO", DurationSeconds: 215},
		},
	}
}

func TestProject_QueueWaitsMonotonic(t *testing.T) {
	state := testCatalogState()
	state.Requests = []models.QueueEntry{
		{SequenceRef: "carol_bells", DurationSeconds: 210},
		{SequenceRef: "wizards"}, // duration filled from the catalog
		{SequenceRef: "sarajevo", DurationSeconds: 215},
	}
	playback := models.PlaybackSnapshot{Online: true, SecondsRemaining: 45}

	view := Project(state, playback)

	if len(view.Queue) != 3 {
		t.Fatalf("expected 3 queue items, got %d", len(view.Queue))
	}

	wantWaits := []int{45, 255, 440}
	prev := -1
	for i, item := range view.Queue {
		if item.Position != i+1 {
			t.Fatalf("item %d position = %d", i, item.Position)
		}
		if item.WaitSeconds != wantWaits[i] {
			t.Fatalf("item %d wait = %d, want %d", i, item.WaitSeconds, wantWaits[i])
		}
		if item.WaitSeconds < prev {
			t.Fatalf("waits must be non-decreasing, %d after %d", item.WaitSeconds, prev)
		}
		prev = item.WaitSeconds
	}

	if view.Queue[1].DurationSeconds != 185 {
		t.Fatalf("catalog duration fallback = %d, want 185", view.Queue[1].DurationSeconds)
	}
}

func TestProject_NowPlayingPrefersRealtimeName(t *testing.T) {
	state := testCatalogState()
	state.PlayingNow = "wizards"
	playback := models.PlaybackSnapshot{
		Online:              true,
		CurrentSequenceName: "carol_bells",
		SecondsRemaining:    90,
	}

	view := Project(state, playback)

	if view.NowPlaying.DisplayName != "Carol of the Bells" {
		t.Fatalf("DisplayName = %q, want catalog name for the realtime sequence", view.NowPlaying.DisplayName)
	}
	if view.NowPlaying.Artist != "TSO" {
		t.Fatalf("Artist = %q, want TSO", view.NowPlaying.Artist)
	}
	if !view.NowPlaying.IsPlaying {
		t.Fatalf("expected playing with an online player and a sequence name")
	}
}

func TestProject_NowPlayingFallsBackToCatalogLabel(t *testing.T) {
	state := testCatalogState()
	state.PlayingNow = "sarajevo"
	playback := models.PlaybackSnapshot{Online: false}

	view := Project(state, playback)

	if view.NowPlaying.DisplayName != "Christmas Eve/Sarajevo" {
		t.Fatalf("DisplayName = %q, want catalog fallback", view.NowPlaying.DisplayName)
	}
	if view.NowPlaying.IsPlaying {
		t.Fatalf("offline player must not report playing")
	}
}

func TestProject_IsRequestHeuristic(t *testing.T) {
	state := testCatalogState()
	state.PlayingNow = "carol_bells"
	state.Requests = []models.QueueEntry{{SequenceRef: "wizards", DurationSeconds: 185}}
	playback := models.PlaybackSnapshot{Online: true, CurrentSequenceName: "carol_bells"}

	if view := Project(state, playback); !view.NowPlaying.IsRequest {
		t.Fatalf("matching names with a non-empty queue should flag a request")
	}

	// Disagreeing names never claim a request.
	playback.CurrentSequenceName = "sarajevo"
	if view := Project(state, playback); view.NowPlaying.IsRequest {
		t.Fatalf("mismatched names must not flag a request")
	}
}

func TestProject_NextUpFallbackChain(t *testing.T) {
	state := testCatalogState()
	state.Requests = []models.QueueEntry{{SequenceRef: "wizards", DurationSeconds: 185}}

	view := Project(state, models.PlaybackSnapshot{})
	if view.NextUp == nil || view.NextUp.DisplayName != "Wizards in Winter" {
		t.Fatalf("queue head should win next-up, got %+v", view.NextUp)
	}

	state.Requests = nil
	state.PlayingNext = "sarajevo"
	view = Project(state, models.PlaybackSnapshot{})
	if view.NextUp == nil || view.NextUp.DisplayName != "Christmas Eve/Sarajevo" {
		t.Fatalf("catalog-matched next should win, got %+v", view.NextUp)
	}

	state.PlayingNext = "Unknown Track"
	view = Project(state, models.PlaybackSnapshot{})
	if view.NextUp == nil || view.NextUp.DisplayName != "Unknown Track" {
		t.Fatalf("raw next name should pass through, got %+v", view.NextUp)
	}

	state.PlayingNext = ""
	view = Project(state, models.PlaybackSnapshot{})
	if view.NextUp != nil {
		t.Fatalf("expected nil next-up, got %+v", view.NextUp)
	}
}
