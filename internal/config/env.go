package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// envVarPattern matches environment variable references in configuration values.
// Supports formats:
//   - ${VAR_NAME} - standard shell-like format
//   - ${VAR_NAME:-default} - with default value if unset or empty
//   - $VAR_NAME - simple format (word characters only)
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([a-zA-Z_][a-zA-Z0-9_]*)`)

// ExpandEnv expands environment variable references in a string.
// Unknown or unset variables without defaults are replaced with empty string.
func ExpandEnv(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if strings.HasPrefix(match, "${") {
			inner := match[2 : len(match)-1]
			if name, def, ok := strings.Cut(inner, ":-"); ok {
				if val := os.Getenv(name); val != "" {
					return val
				}
				return def
			}
			return os.Getenv(inner)
		}
		return os.Getenv(match[1:])
	})
}

// ExpandEnvConfig expands ${VAR} and $VAR patterns in target connection
// settings, so secrets can stay out of the file.
func ExpandEnvConfig(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.DebugAddr = ExpandEnv(cfg.DebugAddr)
	for i := range cfg.Targets {
		t := &cfg.Targets[i]
		t.Host = ExpandEnv(t.Host)
		t.User = ExpandEnv(t.User)
		t.Password = ExpandEnv(t.Password)
		t.KeyFile = expandHome(ExpandEnv(t.KeyFile))
		t.Passphrase = ExpandEnv(t.Passphrase)
		t.KnownHosts = expandHome(ExpandEnv(t.KnownHosts))
	}
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return home + path[1:]
		}
	}
	return path
}

// DotEnv applies a .env file to the process environment. Variables already
// set by the shell win over the file. Variables the file supplied are
// remembered, so Apply can be repeated after the file changes: edited values
// are replaced and removed ones unset. DotEnv is not safe for concurrent use.
type DotEnv struct {
	path  string
	owned map[string]struct{}
}

// NewDotEnv returns a DotEnv for path; nothing is read until Apply.
func NewDotEnv(path string) *DotEnv {
	return &DotEnv{path: path, owned: make(map[string]struct{})}
}

// Path returns the file the DotEnv reads.
func (d *DotEnv) Path() string {
	return d.path
}

// Apply reads the file and updates the environment. A missing file counts
// as empty.
func (d *DotEnv) Apply() error {
	values, err := godotenv.Read(d.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", d.path, err)
	}

	for key, value := range values {
		if _, set := os.LookupEnv(key); set {
			if _, ours := d.owned[key]; !ours {
				continue
			}
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("setting %s from %s: %w", key, d.path, err)
		}
		d.owned[key] = struct{}{}
	}

	for key := range d.owned {
		if _, kept := values[key]; !kept {
			os.Unsetenv(key)
			delete(d.owned, key)
		}
	}
	return nil
}

// Environment variables that override file settings.
const (
	EnvUpdateInterval = "SYSMON_UPDATE_INTERVAL"
	EnvBackend        = "SYSMON_BACKEND"
	EnvUnits          = "SYSMON_UNITS"
	EnvLogLevel       = "SYSMON_LOG_LEVEL"
	EnvLogFormat      = "SYSMON_LOG_FORMAT"
	EnvDebugAddr      = "SYSMON_DEBUG_ADDR"
)

// ApplyEnvOverrides overwrites cfg fields from SYSMON_* variables.
// getenv is usually os.Getenv.
func ApplyEnvOverrides(cfg *Config, getenv func(string) string) error {
	if v := getenv(EnvUpdateInterval); v != "" {
		d, err := parseInterval(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvUpdateInterval, err)
		}
		cfg.UpdateInterval = d
	}
	if v := getenv(EnvBackend); v != "" {
		cfg.Backend = v
	}
	if v := getenv(EnvUnits); v != "" {
		cfg.Units = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := getenv(EnvLogFormat); v != "" {
		cfg.Log.Format = v
	}
	if v := getenv(EnvDebugAddr); v != "" {
		cfg.DebugAddr = v
	}
	return nil
}

// parseInterval accepts Go durations ("500ms") and bare seconds ("2", "0.5").
func parseInterval(s string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(s)
}
