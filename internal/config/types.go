// Package config loads go-sysmon configuration from YAML or Lua files,
// the environment and command-line overrides.
package config

import (
	"time"
)

// Backend names accepted in the configuration.
const (
	BackendNative   = "native"
	BackendPortable = "portable"
)

// Units names accepted in the configuration.
const (
	// UnitsClassic prints "%.2f" with B/KB/MB/GB steps of 1024.
	UnitsClassic = "classic"
	// UnitsIEC prints IEC units (KiB, MiB, ...).
	UnitsIEC = "iec"
)

// Config is the complete go-sysmon configuration.
type Config struct {
	// UpdateInterval is the time between polls.
	UpdateInterval time.Duration `yaml:"update_interval" validate:"gte=100ms,lte=1h"`

	// Backend selects the local metric source: "native" or "portable".
	Backend string `yaml:"backend" validate:"oneof=native portable"`

	// Units selects byte formatting: "classic" or "iec".
	Units string `yaml:"units" validate:"oneof=classic iec"`

	// ClearScreen clears the terminal once and redraws in place.
	// It has no effect when stdout is not a terminal.
	ClearScreen bool `yaml:"clear_screen"`

	// Local controls whether the machine itself is polled alongside targets.
	Local bool `yaml:"local"`

	// DebugAddr serves expvar metrics at /debug/vars when set.
	DebugAddr string `yaml:"debug_addr" validate:"omitempty,hostname_port"`

	Log     LogConfig      `yaml:"log"`
	Breaker BreakerConfig  `yaml:"breaker"`
	Targets []TargetConfig `yaml:"targets" validate:"dive"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

// BreakerConfig configures the per-target circuit breaker.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive fully failed polls
	// that opens the circuit.
	FailureThreshold int `yaml:"failure_threshold" validate:"gte=1"`

	// Timeout is how long the circuit stays open before a trial poll.
	Timeout time.Duration `yaml:"timeout" validate:"gte=1s"`
}

// TargetConfig describes a remote Linux host polled over SSH.
// Exactly one of Password, KeyFile or Agent selects the authentication.
type TargetConfig struct {
	Name           string        `yaml:"name" validate:"required"`
	Host           string        `yaml:"host" validate:"required,hostname|ip"`
	Port           int           `yaml:"port" validate:"omitempty,gte=1,lte=65535"`
	User           string        `yaml:"user" validate:"required"`
	Password       string        `yaml:"password"`
	KeyFile        string        `yaml:"key_file"`
	Passphrase     string        `yaml:"passphrase"`
	Agent          bool          `yaml:"agent"`
	KnownHosts     string        `yaml:"known_hosts"`
	CommandTimeout time.Duration `yaml:"command_timeout" validate:"omitempty,gte=100ms"`
}
