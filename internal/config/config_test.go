package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
addr: ":8080"
playback:
  speed: 2.5
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Addr != ":8080" {
		t.Errorf("addr = %q", c.Addr)
	}
	if c.Playback.Speed != 2.5 {
		t.Errorf("speed = %g", c.Playback.Speed)
	}
	// Unset keys keep their defaults.
	if c.DataDir != Defaults().DataDir {
		t.Errorf("data_dir = %q", c.DataDir)
	}
	if c.Playback.TickRateHz != Defaults().Playback.TickRateHz {
		t.Errorf("tick_rate_hz = %d", c.Playback.TickRateHz)
	}
}

func TestLoadClampsPlayback(t *testing.T) {
	path := writeConfig(t, `
playback:
  speed: -1
  tick_rate_hz: 0
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Playback.Speed != 1 || c.Playback.TickRateHz != 60 {
		t.Errorf("playback = %+v, want clamped defaults", c.Playback)
	}
}

func TestLoadMissingFile(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !os.IsNotExist(err) {
		t.Fatalf("err = %v, want not-exist", err)
	}
	// Returned defaults are still usable for callers that treat the file
	// as optional.
	if c.Addr != Defaults().Addr {
		t.Errorf("addr = %q", c.Addr)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, "addr: [not scalar")
	if _, err := Load(path); err == nil {
		t.Error("malformed yaml accepted")
	}
}
