package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parser reads configuration files in YAML or Lua format.
type Parser struct {
	luaParser *LuaConfigParser
}

// NewParser creates a Parser that handles both formats.
func NewParser() (*Parser, error) {
	luaParser, err := NewLuaConfigParser()
	if err != nil {
		return nil, fmt.Errorf("failed to create Lua parser: %w", err)
	}
	return &Parser{luaParser: luaParser}, nil
}

// Close releases the embedded Lua runtime.
func (p *Parser) Close() {
	p.luaParser.Close()
}

// ParseFile reads and parses a configuration file. Files ending in .lua,
// or whose content assigns sysmon.config, are parsed as Lua; everything
// else as YAML.
func (p *Parser) ParseFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".lua") {
		return p.luaParser.Parse(content)
	}
	return p.Parse(content)
}

// Parse parses configuration content, auto-detecting the format.
func (p *Parser) Parse(content []byte) (*Config, error) {
	if isLuaConfig(content) {
		return p.luaParser.Parse(content)
	}
	return parseYAML(content)
}

// luaConfigPattern matches "sysmon.config =" or "sysmon.targets =" at the
// start of a line, which never appears in a YAML document.
var luaConfigPattern = regexp.MustCompile(`(?m)^\s*sysmon\.(config|targets)\s*=`)

func isLuaConfig(content []byte) bool {
	return luaConfigPattern.Match(content)
}

// parseYAML decodes content over DefaultConfig. Unknown keys are rejected
// so typos do not silently fall back to defaults.
func parseYAML(content []byte) (*Config, error) {
	cfg := DefaultConfig()
	if len(bytes.TrimSpace(content)) == 0 {
		return &cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %w", err)
	}
	return &cfg, nil
}

// Load builds the effective configuration: defaults, then the file at path
// (if not empty), then environment expansion, SYSMON_* variables and
// finally overrides (usually command-line flags). The result is validated.
func Load(path string, overrides ...func(*Config)) (*Config, error) {
	cfg := DefaultConfig()
	result := &cfg

	if path != "" {
		parser, err := NewParser()
		if err != nil {
			return nil, err
		}
		defer parser.Close()

		result, err = parser.ParseFile(path)
		if err != nil {
			return nil, err
		}
	}

	ExpandEnvConfig(result)
	if err := ApplyEnvOverrides(result, os.Getenv); err != nil {
		return nil, err
	}
	for _, override := range overrides {
		override(result)
	}
	if err := Validate(result); err != nil {
		return nil, err
	}
	return result, nil
}
