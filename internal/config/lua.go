package config

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/arnodel/golua/lib"
	rt "github.com/arnodel/golua/runtime"
)

// LuaConfigParser parses Lua configuration files. The script fills the
// sysmon.config table and, optionally, the sysmon.targets array:
//
//	sysmon.config = {
//	    update_interval = 2,
//	    backend = "portable",
//	}
//	sysmon.targets = {
//	    { name = "db1", host = "10.0.0.5", user = "ops", agent = true },
//	}
type LuaConfigParser struct {
	runtime *rt.Runtime
	cleanup func()
	mu      sync.Mutex
}

// NewLuaConfigParser creates a LuaConfigParser with a fresh Lua runtime.
// Output of print() in the script is discarded.
func NewLuaConfigParser() (*LuaConfigParser, error) {
	runtime := rt.New(io.Discard)
	cleanup := lib.LoadAll(runtime)

	return &LuaConfigParser{
		runtime: runtime,
		cleanup: cleanup,
	}, nil
}

// Close releases the Lua runtime.
func (p *LuaConfigParser) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cleanup != nil {
		p.cleanup()
		p.cleanup = nil
	}
}

// Parse executes content and extracts the configuration it declares.
// Settings the script does not mention keep their DefaultConfig values.
func (p *LuaConfigParser) Parse(content []byte) (cfg *Config, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.initSysmonGlobal()

	closure, err := p.runtime.CompileAndLoadLuaChunk(
		"config",
		content,
		rt.TableValue(p.runtime.GlobalEnv()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compile Lua configuration: %w", err)
	}

	// A configuration script has no business running for long.
	ctx := rt.RuntimeContextDef{
		HardLimits: rt.RuntimeResources{
			Cpu:    10_000_000,
			Memory: 50 * 1024 * 1024,
		},
	}
	p.runtime.PushContext(ctx)
	defer p.runtime.PopContext()

	// golua panics when a hard limit is exceeded.
	defer func() {
		if r := recover(); r != nil {
			cfg, err = nil, fmt.Errorf("failed to execute Lua configuration: %v", r)
		}
	}()

	if _, err := rt.Call1(p.runtime.MainThread(), rt.FunctionValue(closure)); err != nil {
		return nil, fmt.Errorf("failed to execute Lua configuration: %w", err)
	}

	return p.extractConfig()
}

func (p *LuaConfigParser) initSysmonGlobal() {
	sysmon := rt.NewTable()
	sysmon.Set(rt.StringValue("config"), rt.TableValue(rt.NewTable()))
	sysmon.Set(rt.StringValue("targets"), rt.TableValue(rt.NewTable()))
	p.runtime.GlobalEnv().Set(rt.StringValue("sysmon"), rt.TableValue(sysmon))
}

func (p *LuaConfigParser) extractConfig() (*Config, error) {
	cfg := DefaultConfig()

	sysmonVal := p.runtime.GlobalEnv().Get(rt.StringValue("sysmon"))
	if sysmonVal == rt.NilValue {
		return &cfg, nil
	}
	sysmon, ok := sysmonVal.TryTable()
	if !ok {
		return nil, fmt.Errorf("sysmon is not a table")
	}

	if table, ok := sysmon.Get(rt.StringValue("config")).TryTable(); ok {
		extractConfigTable(&cfg, table)
	}

	if table, ok := sysmon.Get(rt.StringValue("targets")).TryTable(); ok {
		targets, err := extractTargets(table)
		if err != nil {
			return nil, err
		}
		cfg.Targets = targets
	}

	return &cfg, nil
}

func extractConfigTable(cfg *Config, table *rt.Table) {
	if val := getTableFloat(table, "update_interval"); val != nil {
		cfg.UpdateInterval = secondsToDuration(*val)
	}
	if val := getTableString(table, "backend"); val != nil {
		cfg.Backend = *val
	}
	if val := getTableString(table, "units"); val != nil {
		cfg.Units = *val
	}
	if val := getTableBool(table, "clear_screen"); val != nil {
		cfg.ClearScreen = *val
	}
	if val := getTableBool(table, "local"); val != nil {
		cfg.Local = *val
	}
	if val := getTableString(table, "debug_addr"); val != nil {
		cfg.DebugAddr = *val
	}
	if val := getTableString(table, "log_level"); val != nil {
		cfg.Log.Level = *val
	}
	if val := getTableString(table, "log_format"); val != nil {
		cfg.Log.Format = *val
	}
	if val := getTableInt(table, "breaker_threshold"); val != nil {
		cfg.Breaker.FailureThreshold = *val
	}
	if val := getTableFloat(table, "breaker_timeout"); val != nil {
		cfg.Breaker.Timeout = secondsToDuration(*val)
	}
}

// extractTargets reads the sysmon.targets array (1-based, stops at the first nil).
func extractTargets(table *rt.Table) ([]TargetConfig, error) {
	var targets []TargetConfig
	for i := int64(1); ; i++ {
		val := table.Get(rt.IntValue(i))
		if val == rt.NilValue {
			break
		}
		entry, ok := val.TryTable()
		if !ok {
			return nil, fmt.Errorf("sysmon.targets[%d] is not a table", i)
		}

		var t TargetConfig
		if v := getTableString(entry, "name"); v != nil {
			t.Name = *v
		}
		if v := getTableString(entry, "host"); v != nil {
			t.Host = *v
		}
		if v := getTableInt(entry, "port"); v != nil {
			t.Port = *v
		}
		if v := getTableString(entry, "user"); v != nil {
			t.User = *v
		}
		if v := getTableString(entry, "password"); v != nil {
			t.Password = *v
		}
		if v := getTableString(entry, "key_file"); v != nil {
			t.KeyFile = *v
		}
		if v := getTableString(entry, "passphrase"); v != nil {
			t.Passphrase = *v
		}
		if v := getTableBool(entry, "agent"); v != nil {
			t.Agent = *v
		}
		if v := getTableString(entry, "known_hosts"); v != nil {
			t.KnownHosts = *v
		}
		if v := getTableFloat(entry, "command_timeout"); v != nil {
			t.CommandTimeout = secondsToDuration(*v)
		}
		targets = append(targets, t)
	}
	return targets, nil
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// getTableBool retrieves a boolean value from a Lua table.
// Returns nil if the key doesn't exist or is not a boolean.
func getTableBool(table *rt.Table, key string) *bool {
	val := table.Get(rt.StringValue(key))
	if val == rt.NilValue {
		return nil
	}

	if b, ok := val.TryBool(); ok {
		return &b
	}

	// Accept "yes"/"true" strings as well.
	if s, ok := val.TryString(); ok {
		b := parseBool(s)
		return &b
	}

	return nil
}

// getTableString retrieves a string value from a Lua table.
// Returns nil if the key doesn't exist or is not a string.
func getTableString(table *rt.Table, key string) *string {
	val := table.Get(rt.StringValue(key))
	if val == rt.NilValue {
		return nil
	}

	if s, ok := val.TryString(); ok {
		return &s
	}

	return nil
}

// getTableFloat retrieves a float64 value from a Lua table.
// Returns nil if the key doesn't exist or is not a number.
func getTableFloat(table *rt.Table, key string) *float64 {
	val := table.Get(rt.StringValue(key))
	if val == rt.NilValue {
		return nil
	}

	if n, ok := val.TryFloat(); ok {
		return &n
	}

	if n, ok := val.TryInt(); ok {
		f := float64(n)
		return &f
	}

	return nil
}

// getTableInt retrieves an int value from a Lua table.
// Returns nil if the key doesn't exist or is not a number.
func getTableInt(table *rt.Table, key string) *int {
	val := table.Get(rt.StringValue(key))
	if val == rt.NilValue {
		return nil
	}

	if n, ok := val.TryInt(); ok {
		i := int(n)
		return &i
	}

	if f, ok := val.TryFloat(); ok {
		i := int(f)
		return &i
	}

	return nil
}

func parseBool(s string) bool {
	switch s {
	case "yes", "true", "1", "on":
		return true
	default:
		return false
	}
}
