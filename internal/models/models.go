package models

import "time"

// ViewerControlMode enumerates how viewers may influence the show.
type ViewerControlMode string

const (
	ModeJukebox ViewerControlMode = "jukebox"
	ModeVoting  ViewerControlMode = "voting"
	ModeUnknown ViewerControlMode = "unknown"
)

// ShowPreferences is the read-only preference block refreshed per poll.
type ShowPreferences struct {
	ViewerControlEnabled bool              `json:"viewer_control_enabled"`
	ViewerControlMode    ViewerControlMode `json:"viewer_control_mode"`
}

// Sequence is one catalog entry, immutable per snapshot.
type Sequence struct {
	InternalName    string `json:"internal_name"`
	DisplayName     string `json:"display_name"`
	Artist          string `json:"artist"`
	DurationSeconds int    `json:"duration_seconds"`
	Visible         bool   `json:"visible"`
	Active          bool   `json:"active"`
	Order           int    `json:"order"`
}

// QueueEntry references a sequence awaiting playback. Position is
// index-derived, never stored.
type QueueEntry struct {
	SequenceRef     string `json:"sequence_ref"`
	DurationSeconds int    `json:"duration_seconds"`
	OwnerRequested  bool   `json:"owner_requested"`
}

// ShowQueueState bundles everything the show queue provider returns.
type ShowQueueState struct {
	Preferences ShowPreferences `json:"preferences"`
	Sequences   []Sequence      `json:"sequences"`
	Requests    []QueueEntry    `json:"requests"`
	PlayingNow  string          `json:"playing_now"`
	PlayingNext string          `json:"playing_next"`
	Votes       []SequenceVote  `json:"votes"`
}

// SequenceVote tallies votes for one sequence in voting mode.
type SequenceVote struct {
	SequenceRef string `json:"sequence_ref"`
	Votes       int    `json:"votes"`
}

// PlaybackSnapshot carries the realtime playback provider's counters.
type PlaybackSnapshot struct {
	Online              bool   `json:"online"`
	CurrentSequenceName string `json:"current_sequence_name"`
	SecondsRemaining    int    `json:"seconds_remaining"`
	StatusName          string `json:"status_name"`
	SchedulerStatus     string `json:"scheduler_status"`
	CurrentPlaylistName string `json:"current_playlist_name"`
}

// ScheduleItem is a raw schedule entry from the schedule provider. Labels
// are pre-localized display strings; never recomputed from the epochs.
type ScheduleItem struct {
	StartEpoch int64  `json:"start_epoch"`
	EndEpoch   int64  `json:"end_epoch"`
	StartLabel string `json:"start_label"`
	EndLabel   string `json:"end_label"`
	Name       string `json:"name"`
}

// WindowKind classifies an interpreted schedule window.
type WindowKind string

const (
	WindowViewerControlOn WindowKind = "viewer_control_on"
	WindowIntermission    WindowKind = "intermission"
	WindowReset           WindowKind = "reset"
	WindowShow            WindowKind = "show"
)

// ScheduleWindow is a named window produced by the schedule interpreter.
type ScheduleWindow struct {
	Kind       WindowKind `json:"kind"`
	StartEpoch int64      `json:"start_epoch"`
	EndEpoch   int64      `json:"end_epoch"`
	StartLabel string     `json:"start_label"`
	EndLabel   string     `json:"end_label"`
}

// ShowMode enumerates the discrete derived modes, highest priority first.
type ShowMode string

const (
	ShowModeAfterHours        ShowMode = "after_hours"
	ShowModePreshow           ShowMode = "preshow"
	ShowModeResetting         ShowMode = "resetting"
	ShowModeQueueLockout      ShowMode = "queue_lockout"
	ShowModeTimeLockout       ShowMode = "time_lockout"
	ShowModeShowQueue         ShowMode = "show_queue"
	ShowModeShowRandom        ShowMode = "show_random"
	ShowModeIntermissionQueue ShowMode = "intermission_queue"
	ShowModeIntermissionEmpty ShowMode = "intermission_empty"
	ShowModeUnknown           ShowMode = "unknown"
)

// BlockReason enumerates why a request is blocked. When requests are
// disallowed exactly one reason is reported, in this fixed priority order.
type BlockReason string

const (
	BlockAfterHours       BlockReason = "after_hours"
	BlockPreshow          BlockReason = "preshow"
	BlockResetting        BlockReason = "resetting"
	BlockViewerControlOff BlockReason = "viewer_control_off"
	BlockTimeLockout      BlockReason = "time_lockout"
	BlockQueueLockout     BlockReason = "queue_lockout"
)

// LockoutState reports whether requests are locked out and why.
type LockoutState struct {
	Active bool        `json:"active"`
	Reason BlockReason `json:"reason,omitempty"`
}

// RequestGate is the request-allow/block decision attached to a snapshot.
type RequestGate struct {
	Allowed bool        `json:"allowed"`
	Reason  BlockReason `json:"reason,omitempty"`
}

// DerivedState is the transient client-facing snapshot, recomputed on
// every call and never persisted.
type DerivedState struct {
	Mode                  ShowMode     `json:"mode"`
	Lockout               LockoutState `json:"lockout"`
	Warning               bool         `json:"warning"`
	AfterHours            bool         `json:"after_hours"`
	Preshow               bool         `json:"preshow"`
	ShowHours             bool         `json:"show_hours"`
	TestMode              bool         `json:"test_mode"`
	TimeUntilResetSeconds *int64       `json:"time_until_reset_seconds"`
	NextResetLabel        string       `json:"next_reset_label,omitempty"`
	NextLightsOpenLabel   string       `json:"next_lights_open_label,omitempty"`
	NextShowLabel         string       `json:"next_show_label,omitempty"`
	RequestsAllowed       RequestGate  `json:"requests_allowed"`
	ScheduleFallback      bool         `json:"schedule_fallback"`
}

// SpeakerStatus enumerates the speaker's logical states.
type SpeakerStatus string

const (
	SpeakerOn  SpeakerStatus = "on"
	SpeakerOff SpeakerStatus = "off"
)

// SpeakerSource identifies who asked for the speaker.
type SpeakerSource string

const (
	SourceViewer   SpeakerSource = "viewer"
	SourcePhysical SpeakerSource = "physical"
	SourceHardware SpeakerSource = "hardware"
	SourceExpiry   SpeakerSource = "expiry"
)

// SpeakerState is the single persisted speaker record. Created lazily
// with off/0 defaults; mutated by turn-on requests, expiry checks and
// hardware confirmations; never destroyed.
type SpeakerState struct {
	Status              SpeakerStatus `json:"status"`
	ExpiresAtEpoch      int64         `json:"expires_at_epoch"`
	LastSource          SpeakerSource `json:"last_source"`
	LastUpdatedEpoch    int64         `json:"last_updated_epoch"`
	LastConfirmedStatus SpeakerStatus `json:"last_confirmed_status"`
	LastConfirmedEpoch  int64         `json:"last_confirmed_epoch"`
}

// RemainingSeconds reports seconds left on the timer, floored at zero.
func (s SpeakerState) RemainingSeconds(now time.Time) int64 {
	if s.Status != SpeakerOn {
		return 0
	}
	remaining := s.ExpiresAtEpoch - now.Unix()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Expired reports whether an "on" record has outlived its timer.
func (s SpeakerState) Expired(now time.Time) bool {
	return s.Status == SpeakerOn && s.ExpiresAtEpoch <= now.Unix()
}

// SpeakerEventKind enumerates audited speaker transitions.
type SpeakerEventKind string

const (
	SpeakerEventDispatched SpeakerEventKind = "dispatched"
	SpeakerEventConfirmed  SpeakerEventKind = "confirmed"
	SpeakerEventRejected   SpeakerEventKind = "rejected"
	SpeakerEventExpired    SpeakerEventKind = "expired"
	SpeakerEventExtended   SpeakerEventKind = "extended"
)

// SpeakerEvent is one audit row for the speaker controller.
type SpeakerEvent struct {
	ID        string           `gorm:"type:uuid;primaryKey"`
	Kind      SpeakerEventKind `gorm:"type:varchar(32);index"`
	Status    SpeakerStatus    `gorm:"type:varchar(8)"`
	Source    SpeakerSource    `gorm:"type:varchar(16)"`
	Identity  string           `gorm:"type:varchar(128)"`
	Reason    string           `gorm:"type:varchar(64)"`
	Remaining int64
	CreatedAt time.Time `gorm:"index"`
}
