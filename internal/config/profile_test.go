package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	return path
}

func TestLoadProfile_EmptyPathReturnsDefaults(t *testing.T) {
	profile, err := LoadProfile("")
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if profile.Fallback.StartHour != 17 || profile.Fallback.WeekendEndHour != 24 {
		t.Fatalf("unexpected defaults: %+v", profile.Fallback)
	}
	if len(profile.Speaker.LANCIDRs) == 0 {
		t.Fatalf("default profile must carry LAN CIDRs")
	}
}

func TestLoadProfile_PartialOverrideKeepsDefaults(t *testing.T) {
	path := writeProfile(t, `
fallback_hours:
  start_hour: 16
speaker:
  lan_cidrs:
    - "192.168.50.0/24"
`)

	profile, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if profile.Fallback.StartHour != 16 {
		t.Fatalf("StartHour = %d, want 16", profile.Fallback.StartHour)
	}
	if profile.Fallback.WeekdayEndHour != 23 {
		t.Fatalf("WeekdayEndHour = %d, want default 23", profile.Fallback.WeekdayEndHour)
	}
	if len(profile.Speaker.LANCIDRs) != 1 || profile.Speaker.LANCIDRs[0] != "192.168.50.0/24" {
		t.Fatalf("LANCIDRs = %v", profile.Speaker.LANCIDRs)
	}
	if len(profile.Labels.Reset) == 0 {
		t.Fatalf("label keywords must keep defaults when omitted")
	}
}

func TestLoadProfile_RepairsNonsenseHours(t *testing.T) {
	path := writeProfile(t, `
fallback_hours:
  start_hour: 30
  weekday_end_hour: 2
`)

	profile, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if profile.Fallback.StartHour != 17 {
		t.Fatalf("StartHour = %d, want repaired 17", profile.Fallback.StartHour)
	}
	if profile.Fallback.WeekdayEndHour != 23 {
		t.Fatalf("WeekdayEndHour = %d, want repaired 23", profile.Fallback.WeekdayEndHour)
	}
}

func TestLoadProfile_MissingFile(t *testing.T) {
	if _, err := LoadProfile("/nonexistent/profile.yaml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadProfile_MalformedYAML(t *testing.T) {
	path := writeProfile(t, "fallback_hours: [not a map")
	if _, err := LoadProfile(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
