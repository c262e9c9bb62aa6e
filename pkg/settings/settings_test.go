package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "veld.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.ConfigLocation != "/etc/veld/system.vd" {
		t.Errorf("ConfigLocation = %q", s.ConfigLocation)
	}
	if s.CommandTimeout.Duration != 90*time.Second {
		t.Errorf("CommandTimeout = %v", s.CommandTimeout.Duration)
	}
	if s.Logging.Level != "info" || s.Logging.Format != "console" {
		t.Errorf("logging defaults = %+v", s.Logging)
	}
	if s.Metrics.Enabled {
		t.Error("metrics default off")
	}
}

func TestLoadOverridesAndKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "veld.toml")
	src := `
config_location = "/srv/veld/system.vd"
command_timeout = "2m"

[logging]
level = "debug"

[metrics]
enabled = true
listen = "0.0.0.0:9900"
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.ConfigLocation != "/srv/veld/system.vd" {
		t.Errorf("ConfigLocation = %q", s.ConfigLocation)
	}
	if s.CommandTimeout.Duration != 2*time.Minute {
		t.Errorf("CommandTimeout = %v", s.CommandTimeout.Duration)
	}
	if s.Logging.Level != "debug" {
		t.Errorf("level = %q", s.Logging.Level)
	}
	// Unset keys keep their defaults.
	if s.StateLocation != "/var/lib/veld" {
		t.Errorf("StateLocation = %q", s.StateLocation)
	}
	if !s.Metrics.Enabled || s.Metrics.Listen != "0.0.0.0:9900" {
		t.Errorf("metrics = %+v", s.Metrics)
	}
}

func TestLoadMalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "veld.toml")
	if err := os.WriteFile(path, []byte("config_location = [broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("malformed settings must not silently fall back to defaults")
	}
}

func TestStatePath(t *testing.T) {
	s := Default()
	if got := s.StatePath("state.db"); got != "/var/lib/veld/state.db" {
		t.Errorf("StatePath = %q", got)
	}
}
