/*
Copyright (C) 2026 Lumenworks

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is the optional per-installation show profile loaded from YAML.
// It tunes the schedule fallback heuristic, the speaker gating rules and
// the label keywords used to classify schedule entries.
type Profile struct {
	Fallback FallbackHours `yaml:"fallback_hours"`
	Speaker  SpeakerRules  `yaml:"speaker"`
	Labels   LabelKeywords `yaml:"labels"`
}

// FallbackHours describes the show-hours heuristic used when the schedule
// provider returns nothing.
type FallbackHours struct {
	StartHour      int `yaml:"start_hour"`       // local hour show opens
	WeekdayEndHour int `yaml:"weekday_end_hour"` // exclusive
	WeekendEndHour int `yaml:"weekend_end_hour"` // exclusive, Fri/Sat/Sun
	ShowStartHour  int `yaml:"show_start_hour"`  // advertised next-show hour
}

// SpeakerRules carries the anti-abuse gating inputs.
type SpeakerRules struct {
	LANCIDRs        []string `yaml:"lan_cidrs"`
	MobileUAMarkers []string `yaml:"mobile_ua_markers"`
}

// LabelKeywords lists the case-insensitive substrings that classify
// schedule entries.
type LabelKeywords struct {
	ShowHours []string `yaml:"show_hours"`
	Reset     []string `yaml:"reset"`
}

// DefaultProfile returns the built-in profile used when no file is given.
func DefaultProfile() Profile {
	return Profile{
		Fallback: FallbackHours{
			StartHour:      17,
			WeekdayEndHour: 23,
			WeekendEndHour: 24,
			ShowStartHour:  18,
		},
		Speaker: SpeakerRules{
			LANCIDRs:        []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"},
			MobileUAMarkers: []string{"Mobile", "Android", "iPhone", "iPad"},
		},
		Labels: LabelKeywords{
			ShowHours: []string{"intermission", "viewer control"},
			Reset:     []string{"reset"},
		},
	}
}

// LoadProfile reads a YAML profile, filling omitted fields from defaults.
// An empty path returns the default profile.
func LoadProfile(path string) (Profile, error) {
	profile := DefaultProfile()
	if path == "" {
		return profile, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return profile, fmt.Errorf("read profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return profile, fmt.Errorf("parse profile: %w", err)
	}

	if profile.Fallback.StartHour <= 0 || profile.Fallback.StartHour > 23 {
		profile.Fallback.StartHour = 17
	}
	if profile.Fallback.WeekdayEndHour <= profile.Fallback.StartHour {
		profile.Fallback.WeekdayEndHour = 23
	}
	if profile.Fallback.WeekendEndHour <= profile.Fallback.StartHour {
		profile.Fallback.WeekendEndHour = 24
	}
	if profile.Fallback.ShowStartHour <= 0 {
		profile.Fallback.ShowStartHour = 18
	}

	return profile, nil
}
