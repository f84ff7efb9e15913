package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
update_interval: 2s
backend: portable
units: iec
clear_screen: false
debug_addr: 127.0.0.1:6060
log:
  level: debug
  format: json
breaker:
  failure_threshold: 3
  timeout: 10s
targets:
  - name: db1
    host: 10.0.0.5
    port: 2222
    user: ops
    agent: true
    command_timeout: 3s
  - name: web1
    host: web1.example.com
    user: deploy
    key_file: /keys/id_ed25519
`

const sampleLua = `
-- polling every half second
sysmon.config = {
    update_interval = 0.5,
    backend = "portable",
    units = "iec",
    clear_screen = "no",
    log_level = "warn",
    breaker_threshold = 2,
    breaker_timeout = 5,
}

local hosts = { "db1", "db2" }
for i, h in ipairs(hosts) do
    sysmon.targets[i] = { name = h, host = h .. ".example.com", user = "ops", agent = true, port = 22 + i }
end
`

func TestParse_YAML(t *testing.T) {
	p, err := NewParser()
	require.NoError(t, err)
	defer p.Close()

	cfg, err := p.Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.UpdateInterval)
	assert.Equal(t, BackendPortable, cfg.Backend)
	assert.Equal(t, UnitsIEC, cfg.Units)
	assert.False(t, cfg.ClearScreen)
	assert.True(t, cfg.Local, "unset keys keep their defaults")
	assert.Equal(t, "127.0.0.1:6060", cfg.DebugAddr)
	assert.Equal(t, LogConfig{Level: "debug", Format: "json"}, cfg.Log)
	assert.Equal(t, BreakerConfig{FailureThreshold: 3, Timeout: 10 * time.Second}, cfg.Breaker)

	require.Len(t, cfg.Targets, 2)
	assert.Equal(t, TargetConfig{
		Name: "db1", Host: "10.0.0.5", Port: 2222, User: "ops",
		Agent: true, CommandTimeout: 3 * time.Second,
	}, cfg.Targets[0])
	assert.Equal(t, "/keys/id_ed25519", cfg.Targets[1].KeyFile)

	require.NoError(t, Validate(cfg))
}

func TestParse_YAMLRejectsUnknownKeys(t *testing.T) {
	p, err := NewParser()
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Parse([]byte("update_intervall: 2s\n"))
	assert.Error(t, err)
}

func TestParse_Empty(t *testing.T) {
	p, err := NewParser()
	require.NoError(t, err)
	defer p.Close()

	cfg, err := p.Parse([]byte("  \n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
}

func TestParse_Lua(t *testing.T) {
	p, err := NewParser()
	require.NoError(t, err)
	defer p.Close()

	cfg, err := p.Parse([]byte(sampleLua))
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.UpdateInterval)
	assert.Equal(t, BackendPortable, cfg.Backend)
	assert.Equal(t, UnitsIEC, cfg.Units)
	assert.False(t, cfg.ClearScreen)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 2, cfg.Breaker.FailureThreshold)
	assert.Equal(t, 5*time.Second, cfg.Breaker.Timeout)

	require.Len(t, cfg.Targets, 2)
	assert.Equal(t, "db2", cfg.Targets[1].Name)
	assert.Equal(t, "db2.example.com", cfg.Targets[1].Host)
	assert.Equal(t, 24, cfg.Targets[1].Port)
	assert.True(t, cfg.Targets[1].Agent)

	require.NoError(t, Validate(cfg))
}

func TestParse_LuaErrors(t *testing.T) {
	p, err := NewParser()
	require.NoError(t, err)
	defer p.Close()

	tests := []struct {
		name    string
		content string
	}{
		{"syntax error", "sysmon.config = {"},
		{"runtime error", "sysmon.config = {}\nerror('boom')"},
		{"target not a table", "sysmon.targets = { 42 }"},
		{"runaway script", "sysmon.config = {}\nwhile true do end"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse([]byte(tt.content))
			assert.Error(t, err)
		})
	}
}

func TestParse_LuaReusesRuntime(t *testing.T) {
	p, err := NewParser()
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Parse([]byte(sampleLua))
	require.NoError(t, err)

	cfg, err := p.Parse([]byte(`sysmon.config = { units = "classic" }`))
	require.NoError(t, err)
	assert.Empty(t, cfg.Targets, "targets from a previous parse must not leak")
	assert.Equal(t, UnitsClassic, cfg.Units)
}

func TestIsLuaConfig(t *testing.T) {
	assert.True(t, isLuaConfig([]byte("sysmon.config = {}")))
	assert.True(t, isLuaConfig([]byte("-- comment\n  sysmon.targets = {}")))
	assert.False(t, isLuaConfig([]byte("# sysmon.config = {}\nbackend: native")))
	assert.False(t, isLuaConfig([]byte("backend: native")))
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	p, err := NewParser()
	require.NoError(t, err)
	defer p.Close()

	luaPath := filepath.Join(dir, "sysmon.lua")
	require.NoError(t, os.WriteFile(luaPath, []byte(`local x = 3
sysmon["config"] = { update_interval = x }`), 0o644))
	cfg, err := p.ParseFile(luaPath)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.UpdateInterval, ".lua extension forces Lua")

	yamlPath := filepath.Join(dir, "sysmon.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(sampleYAML), 0o644))
	cfg, err = p.ParseFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.UpdateInterval)

	_, err = p.ParseFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sysmon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend: native
targets:
  - name: db1
    host: ${TEST_SYSMON_HOST:-fallback.example.com}
    user: ops
    password: ${TEST_SYSMON_PASSWORD}
`), 0o644))

	t.Setenv("TEST_SYSMON_PASSWORD", "hunter2")
	t.Setenv(EnvBackend, "portable")
	t.Setenv(EnvUpdateInterval, "250ms")

	cfg, err := Load(path, func(c *Config) { c.Units = UnitsIEC })
	require.NoError(t, err)
	assert.Equal(t, "fallback.example.com", cfg.Targets[0].Host)
	assert.Equal(t, "hunter2", cfg.Targets[0].Password)
	assert.Equal(t, BackendPortable, cfg.Backend)
	assert.Equal(t, 250*time.Millisecond, cfg.UpdateInterval)
	assert.Equal(t, UnitsIEC, cfg.Units)

	_, err = Load(path, func(c *Config) { c.Backend = "quantum" })
	assert.Error(t, err)
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultUpdateInterval, cfg.UpdateInterval)
}
