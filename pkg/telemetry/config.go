package telemetry

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level sets the minimum log level (trace, debug, info, warn, error, fatal).
	Level string

	// Format specifies the log format (console, json).
	Format string

	// Output specifies where logs are written (stdout, stderr, file path).
	Output string

	// EnableCaller adds file:line caller information to logs.
	EnableCaller bool
}

// DefaultLoggingConfig returns console logging at info level on stderr,
// the right default for an interactive CLI.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:  "info",
		Format: "console",
		Output: "stderr",
	}
}

// MetricsConfig configures the optional Prometheus endpoint.
type MetricsConfig struct {
	// Enabled turns the metrics listener on.
	Enabled bool

	// Listen is the address the /metrics endpoint binds to.
	Listen string
}

// DefaultMetricsConfig returns metrics disabled; long-lived deploy
// loops opt in.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{Listen: "127.0.0.1:9477"}
}
