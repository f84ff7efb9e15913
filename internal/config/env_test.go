package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("TEST_SYSMON_VAR", "test_value")
	t.Setenv("TEST_SYSMON_EMPTY", "")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no variables", "plain text", "plain text"},
		{"braced", "prefix ${TEST_SYSMON_VAR} suffix", "prefix test_value suffix"},
		{"simple", "prefix $TEST_SYSMON_VAR suffix", "prefix test_value suffix"},
		{"unset becomes empty", "[${TEST_SYSMON_UNSET}]", "[]"},
		{"default when unset", "${TEST_SYSMON_UNSET:-fallback}", "fallback"},
		{"default when empty", "${TEST_SYSMON_EMPTY:-fallback}", "fallback"},
		{"value wins over default", "${TEST_SYSMON_VAR:-fallback}", "test_value"},
		{"multiple", "$TEST_SYSMON_VAR/${TEST_SYSMON_VAR}", "test_value/test_value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandEnv(tt.input); got != tt.expected {
				t.Errorf("ExpandEnv(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestExpandEnvConfig(t *testing.T) {
	t.Setenv("TEST_SYSMON_USER", "ops")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	cfg := DefaultConfig()
	cfg.Targets = []TargetConfig{{
		Name:    "db1",
		Host:    "db1",
		User:    "$TEST_SYSMON_USER",
		KeyFile: "~/.ssh/id_ed25519",
	}}
	ExpandEnvConfig(&cfg)

	if cfg.Targets[0].User != "ops" {
		t.Errorf("User = %q, want ops", cfg.Targets[0].User)
	}
	if want := filepath.Join(home, ".ssh", "id_ed25519"); cfg.Targets[0].KeyFile != want {
		t.Errorf("KeyFile = %q, want %q", cfg.Targets[0].KeyFile, want)
	}

	ExpandEnvConfig(nil)
}

func TestApplyEnvOverrides(t *testing.T) {
	env := map[string]string{
		EnvUpdateInterval: "2",
		EnvBackend:        "portable",
		EnvUnits:          "iec",
		EnvLogLevel:       "debug",
		EnvLogFormat:      "json",
		EnvDebugAddr:      "localhost:9000",
	}
	cfg := DefaultConfig()
	if err := ApplyEnvOverrides(&cfg, func(k string) string { return env[k] }); err != nil {
		t.Fatalf("ApplyEnvOverrides() error = %v", err)
	}

	if cfg.UpdateInterval != 2*time.Second {
		t.Errorf("UpdateInterval = %v", cfg.UpdateInterval)
	}
	if cfg.Backend != "portable" || cfg.Units != "iec" || cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.DebugAddr != "localhost:9000" {
		t.Errorf("DebugAddr = %q", cfg.DebugAddr)
	}

	env = map[string]string{EnvUpdateInterval: "soon"}
	if err := ApplyEnvOverrides(&cfg, func(k string) string { return env[k] }); err == nil {
		t.Error("expected error for invalid interval")
	}
}

func TestParseInterval(t *testing.T) {
	tests := map[string]time.Duration{
		"1":     time.Second,
		"0.5":   500 * time.Millisecond,
		"250ms": 250 * time.Millisecond,
		"1m":    time.Minute,
	}
	for in, want := range tests {
		got, err := parseInterval(in)
		if err != nil || got != want {
			t.Errorf("parseInterval(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
}

// unsetForTest removes keys from the environment and restores them when the
// test ends.
func unsetForTest(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestDotEnv_Apply(t *testing.T) {
	unsetForTest(t, "TEST_SYSMON_DOTENV_A", "TEST_SYSMON_DOTENV_B")
	t.Setenv("TEST_SYSMON_DOTENV_SHELL", "from_shell")

	path := filepath.Join(t.TempDir(), ".env")
	env := NewDotEnv(path)
	if env.Path() != path {
		t.Errorf("Path() = %q, want %q", env.Path(), path)
	}

	steps := []struct {
		name    string
		content string // "" removes the file
		want    map[string]string
		unset   []string
	}{
		{
			name:  "missing file",
			want:  map[string]string{"TEST_SYSMON_DOTENV_SHELL": "from_shell"},
			unset: []string{"TEST_SYSMON_DOTENV_A", "TEST_SYSMON_DOTENV_B"},
		},
		{
			name:    "file loaded without overriding the shell",
			content: "TEST_SYSMON_DOTENV_A=one\nTEST_SYSMON_DOTENV_B=two\nTEST_SYSMON_DOTENV_SHELL=from_file\n",
			want:    map[string]string{
				"TEST_SYSMON_DOTENV_A":     "one",
				"TEST_SYSMON_DOTENV_B":     "two",
				"TEST_SYSMON_DOTENV_SHELL": "from_shell",
			},
		},
		{
			name:    "edited value replaced and dropped key unset",
			content: "TEST_SYSMON_DOTENV_A=uno\n",
			want:    map[string]string{"TEST_SYSMON_DOTENV_A": "uno", "TEST_SYSMON_DOTENV_SHELL": "from_shell"},
			unset:   []string{"TEST_SYSMON_DOTENV_B"},
		},
		{
			name:  "file removed",
			want:  map[string]string{"TEST_SYSMON_DOTENV_SHELL": "from_shell"},
			unset: []string{"TEST_SYSMON_DOTENV_A", "TEST_SYSMON_DOTENV_B"},
		},
	}

	for _, step := range steps {
		if step.content == "" {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				t.Fatal(err)
			}
		} else if err := os.WriteFile(path, []byte(step.content), 0o644); err != nil {
			t.Fatal(err)
		}

		if err := env.Apply(); err != nil {
			t.Fatalf("%s: Apply() error = %v", step.name, err)
		}
		for key, want := range step.want {
			if got := os.Getenv(key); got != want {
				t.Errorf("%s: %s = %q, want %q", step.name, key, got, want)
			}
		}
		for _, key := range step.unset {
			if v, set := os.LookupEnv(key); set {
				t.Errorf("%s: %s = %q, want unset", step.name, key, v)
			}
		}
	}
}

func TestDotEnv_ApplyInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := NewDotEnv(path).Apply(); err == nil {
		t.Error("expected an error when .env is a directory")
	}
}
