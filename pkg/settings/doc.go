// Package settings loads the tool's own TOML configuration: file
// locations, timeouts, logging, and metrics.
package settings
