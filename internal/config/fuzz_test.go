// This file contains fuzzing tests for the configuration parsers to ensure
// robustness against malformed or unexpected input.

package config

import (
	"testing"
)

// FuzzYAMLParser tests the YAML parser with arbitrary input.
// It ensures the parser handles malformed configuration gracefully without panicking.
func FuzzYAMLParser(f *testing.F) {
	f.Add([]byte(sampleYAML))
	f.Add([]byte("update_interval: 1s\nbackend: native\n"))

	// Edge cases
	f.Add([]byte(""))
	f.Add([]byte("\n\n\n"))
	f.Add([]byte("# comment"))
	f.Add([]byte("targets:"))
	f.Add([]byte("targets: [{}]"))

	// Malformed inputs
	f.Add([]byte("update_interval: soon"))
	f.Add([]byte("breaker: {failure_threshold: -999999999999}"))
	f.Add([]byte("targets: {name: x"))
	f.Add([]byte("\t- bad indentation"))

	f.Fuzz(func(t *testing.T, data []byte) {
		cfg, err := parseYAML(data)
		if err == nil && cfg == nil {
			t.Error("parseYAML returned nil config with nil error")
		}
	})
}

// FuzzLuaParser tests the Lua configuration parser with arbitrary input.
// It ensures the parser handles malformed Lua code gracefully without panicking.
func FuzzLuaParser(f *testing.F) {
	f.Add([]byte(sampleLua))
	f.Add([]byte(`sysmon.config = { update_interval = 1.0, backend = 'native' }`))

	// Edge cases
	f.Add([]byte(""))
	f.Add([]byte("sysmon.config = {}"))
	f.Add([]byte("sysmon.targets = {}"))
	f.Add([]byte("-- comment only"))
	f.Add([]byte("local x = 1"))

	// Malformed Lua
	f.Add([]byte("sysmon.config = {"))
	f.Add([]byte("sysmon.config = nil"))
	f.Add([]byte("sysmon = 42"))
	f.Add([]byte("error('test')"))
	f.Add([]byte(`sysmon.targets = { 'db1' }`))

	parser, err := NewLuaConfigParser()
	if err != nil {
		f.Fatalf("failed to create Lua parser: %v", err)
	}
	f.Cleanup(parser.Close)

	f.Fuzz(func(t *testing.T, data []byte) {
		cfg, err := parser.Parse(data)
		if err == nil && cfg == nil {
			t.Error("Parse returned nil config with nil error")
		}
	})
}

// FuzzParseInterval tests interval parsing used by SYSMON_UPDATE_INTERVAL.
func FuzzParseInterval(f *testing.F) {
	f.Add("1")
	f.Add("0.25")
	f.Add("500ms")
	f.Add("")
	f.Add("-1")
	f.Add("1e400")
	f.Add("NaN")

	f.Fuzz(func(t *testing.T, data string) {
		_, _ = parseInterval(data)
	})
}
