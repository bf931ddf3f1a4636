// Package config defines service configuration and its loading order:
// compiled defaults, then an optional YAML file, then MLJ_ environment
// variables. External errors are wrapped via this package's sentinels.
package config

import (
	"time"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// UploadDir is where intake files are stored before processing.
	UploadDir string `koanf:"upload_dir"`

	// ReportDir is where generated report workbooks are written.
	ReportDir string `koanf:"report_dir"`

	// MaxUploadBytes caps the size of a single input spreadsheet.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// QueueSize bounds the in-memory job dispatch queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of pipeline workers.
	WorkerCount int `koanf:"worker_count"`

	// PipelineTimeoutSec bounds a single compilation run. Zero disables
	// the timeout.
	PipelineTimeoutSec int `koanf:"pipeline_timeout_sec"`

	// RetentionTTLSec evicts terminal jobs older than this. Zero keeps
	// jobs until process exit.
	RetentionTTLSec int `koanf:"retention_ttl_sec"`

	// WSBroadcastMS sets the live-feed broadcast interval.
	WSBroadcastMS int `koanf:"ws_broadcast_ms"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		UploadDir:          "data/uploads",
		ReportDir:          "data/reports",
		MaxUploadBytes:     10 << 20,
		QueueSize:          64,
		WorkerCount:        1,
		PipelineTimeoutSec: 600,
		RetentionTTLSec:    0,
		WSBroadcastMS:      1000,
	}
}

// PipelineTimeout returns the per-job deadline, zero when disabled.
func (c *Config) PipelineTimeout() time.Duration {
	return time.Duration(c.PipelineTimeoutSec) * time.Second
}

// RetentionTTL returns the terminal-job retention window, zero when disabled.
func (c *Config) RetentionTTL() time.Duration {
	return time.Duration(c.RetentionTTLSec) * time.Second
}

// WSBroadcastInterval returns how often the live feed publishes snapshots.
func (c *Config) WSBroadcastInterval() time.Duration {
	return time.Duration(c.WSBroadcastMS) * time.Millisecond
}
