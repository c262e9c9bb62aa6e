package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/veld-sh/veld/pkg/telemetry"
)

// Settings is the tool's own configuration, read from a TOML file.
// Everything here is about how veld runs, never about what the system
// should look like; desired state lives in the configuration language.
type Settings struct {
	// ConfigLocation is the desired-state entry point.
	ConfigLocation string `toml:"config_location"`

	// StateLocation is the directory holding the state database and
	// repository checkouts.
	StateLocation string `toml:"state_location"`

	// DefinitionsDir holds package-definition units.
	DefinitionsDir string `toml:"definitions_dir"`

	// CommandTimeout bounds each external package-manager invocation.
	CommandTimeout duration `toml:"command_timeout"`

	Logging logging `toml:"logging"`
	Metrics metrics `toml:"metrics"`
}

type logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

type metrics struct {
	Enabled bool   `toml:"enabled"`
	Listen  string `toml:"listen"`
}

// duration lets TOML carry values like "90s".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Default returns the built-in settings.
func Default() *Settings {
	return &Settings{
		ConfigLocation: "/etc/veld/system.vd",
		StateLocation:  "/var/lib/veld",
		DefinitionsDir: "/etc/veld/packages",
		CommandTimeout: duration{90 * time.Second},
		Logging: logging{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
		Metrics: metrics{Listen: telemetry.DefaultMetricsConfig().Listen},
	}
}

// DefaultPath is where Load looks when no path is given.
const DefaultPath = "/etc/veld/veld.toml"

// Load reads settings from path, falling back to defaults when the file
// does not exist. An unreadable or malformed file is an error; silently
// running with defaults against a broken file would mask typos.
func Load(path string) (*Settings, error) {
	s := Default()
	if path == "" {
		path = DefaultPath
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return s, nil
	}
	if _, err := toml.DecodeFile(path, s); err != nil {
		return nil, fmt.Errorf("failed to load settings from %s: %w", path, err)
	}
	return s, nil
}

// StatePath resolves a file under the state directory.
func (s *Settings) StatePath(name string) string {
	return filepath.Join(s.StateLocation, name)
}

// LoggingConfig converts the logging section for telemetry.
func (s *Settings) LoggingConfig() telemetry.LoggingConfig {
	return telemetry.LoggingConfig{
		Level:  s.Logging.Level,
		Format: s.Logging.Format,
		Output: s.Logging.Output,
	}
}

// MetricsConfig converts the metrics section for telemetry.
func (s *Settings) MetricsConfig() telemetry.MetricsConfig {
	return telemetry.MetricsConfig{
		Enabled: s.Metrics.Enabled,
		Listen:  s.Metrics.Listen,
	}
}
