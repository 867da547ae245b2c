/*
Copyright (C) 2026 Lumenworks

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package projector merges the catalog with realtime counters into the
// now-playing and queue views served to clients.
package projector

import "github.com/lumenworks/showgate/internal/models"

// NowPlayingView is the current sequence as shown to viewers.
type NowPlayingView struct {
	DisplayName      string `json:"display_name"`
	Artist           string `json:"artist"`
	SecondsRemaining int    `json:"seconds_remaining"`
	IsRequest        bool   `json:"is_request"`
	IsPlaying        bool   `json:"is_playing"`
}

// QueueItemView is one queued request with its cumulative wait estimate.
type QueueItemView struct {
	Position        int    `json:"position"`
	DisplayName     string `json:"display_name"`
	Artist          string `json:"artist"`
	DurationSeconds int    `json:"duration_seconds"`
	WaitSeconds     int    `json:"wait_seconds"`
	OwnerRequested  bool   `json:"owner_requested"`
}

// NextUpView names the next sequence, when one is known.
type NextUpView struct {
	DisplayName string `json:"display_name"`
	Artist      string `json:"artist"`
}

// View is the full projection, recomputed fresh on every call.
type View struct {
	NowPlaying NowPlayingView  `json:"now_playing"`
	Queue      []QueueItemView `json:"queue"`
	NextUp     *NextUpView     `json:"next_up"`
}

// Project builds the queue/now-playing views from the show queue state
// and the realtime playback counters.
func Project(queue models.ShowQueueState, playback models.PlaybackSnapshot) View {
	catalog := indexCatalog(queue.Sequences)

	view := View{
		NowPlaying: projectNowPlaying(queue, playback, catalog),
		Queue:      projectQueue(queue, playback, catalog),
	}
	view.NextUp = projectNextUp(queue, catalog, view.Queue)
	return view
}

func indexCatalog(sequences []models.Sequence) map[string]models.Sequence {
	index := make(map[string]models.Sequence, len(sequences))
	for _, seq := range sequences {
		index[seq.InternalName] = seq
		if seq.DisplayName != "" {
			index[seq.DisplayName] = seq
		}
	}
	return index
}

func projectNowPlaying(queue models.ShowQueueState, playback models.PlaybackSnapshot, catalog map[string]models.Sequence) NowPlayingView {
	// Prefer the realtime name; the catalog "now" label is the fallback
	// when the playback provider is degraded.
	name := playback.CurrentSequenceName
	if name == "" {
		name = queue.PlayingNow
	}

	view := NowPlayingView{
		DisplayName:      name,
		SecondsRemaining: playback.SecondsRemaining,
		IsPlaying:        playback.Online && name != "",
	}

	if seq, ok := catalog[name]; ok {
		view.DisplayName = seq.DisplayName
		view.Artist = seq.Artist
	}

	// Conservative heuristic: no request-id correlation exists upstream,
	// so this may false-negative but never claims a request it cannot
	// support.
	if playback.CurrentSequenceName != "" && playback.CurrentSequenceName == queue.PlayingNow {
		if queue.PlayingNext != "" || len(queue.Requests) > 0 {
			view.IsRequest = true
		}
	}

	return view
}

func projectQueue(queue models.ShowQueueState, playback models.PlaybackSnapshot, catalog map[string]models.Sequence) []QueueItemView {
	items := make([]QueueItemView, 0, len(queue.Requests))
	wait := playback.SecondsRemaining

	for i, entry := range queue.Requests {
		duration := entry.DurationSeconds
		display := entry.SequenceRef
		artist := ""
		if seq, ok := catalog[entry.SequenceRef]; ok {
			display = seq.DisplayName
			artist = seq.Artist
			if duration == 0 {
				duration = seq.DurationSeconds
			}
		}

		items = append(items, QueueItemView{
			Position:        i + 1,
			DisplayName:     display,
			Artist:          artist,
			DurationSeconds: duration,
			WaitSeconds:     wait,
			OwnerRequested:  entry.OwnerRequested,
		})
		wait += duration
	}

	return items
}

func projectNextUp(queue models.ShowQueueState, catalog map[string]models.Sequence, projected []QueueItemView) *NextUpView {
	if len(projected) > 0 {
		return &NextUpView{DisplayName: projected[0].DisplayName, Artist: projected[0].Artist}
	}

	if queue.PlayingNext == "" {
		return nil
	}
	if seq, ok := catalog[queue.PlayingNext]; ok {
		return &NextUpView{DisplayName: seq.DisplayName, Artist: seq.Artist}
	}
	return &NextUpView{DisplayName: queue.PlayingNext}
}
