package main

import (
	"fmt"
	"path/filepath"
	"slices"
	"sync"

	"github.com/opd-ai/go-sysmon/internal/config"
	"github.com/opd-ai/go-sysmon/pkg/sysmon"
)

// reloader re-reads the .env file and the configuration on SIGHUP or when
// either file changes. Only the update interval and the units take effect;
// everything else needs a restart.
type reloader struct {
	path      string
	env       *config.DotEnv
	overrides []func(*config.Config)
	monitor   *sysmon.Monitor
	renderer  unitsRenderer
	logger    sysmon.Logger

	mu      sync.Mutex
	current config.Config
}

// unitsRenderer is the part of the renderer a reload may change.
type unitsRenderer interface {
	SetUnits(units string)
}

func newReloader(path string, env *config.DotEnv, overrides []func(*config.Config), current *config.Config, m *sysmon.Monitor, r unitsRenderer, logger sysmon.Logger) *reloader {
	return &reloader{
		path:      path,
		env:       env,
		overrides: overrides,
		monitor:   m,
		renderer:  r,
		logger:    logger,
		current:   *current,
	}
}

// watched lists the files whose changes should trigger a reload.
func (r *reloader) watched() []string {
	var files []string
	if r.path != "" {
		files = append(files, r.path)
	}
	if r.env != nil {
		files = append(files, r.env.Path())
	}
	return files
}

// FilesChanged is the FileWatcher callback. A change to .env is applied to
// the environment before the configuration is loaded again, so SYSMON_*
// overrides from the file take effect.
func (r *reloader) FilesChanged(changed []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	envChanged := r.env != nil && slices.ContainsFunc(changed, func(p string) bool {
		return samePath(p, r.env.Path())
	})
	r.logger.Debug("watched files changed", "files", changed, "env", envChanged)
	return r.reload(envChanged)
}

// Reload re-applies .env and loads the configuration again.
func (r *reloader) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reload(true)
}

// reload applies what can change at runtime. An invalid file leaves the
// running settings untouched. r.mu must be held.
func (r *reloader) reload(applyEnv bool) error {
	if applyEnv && r.env != nil {
		if err := r.env.Apply(); err != nil {
			return err
		}
	}

	cfg, err := config.Load(r.path, r.overrides...)
	if err != nil {
		if r.path == "" {
			return fmt.Errorf("reloading environment: %w", err)
		}
		return fmt.Errorf("reloading %s: %w", r.path, err)
	}

	for _, setting := range restartOnly(&r.current, cfg) {
		r.logger.Warn("setting change ignored until restart", "setting", setting)
	}

	r.monitor.SetInterval(cfg.UpdateInterval)
	r.renderer.SetUnits(cfg.Units)
	r.current.UpdateInterval = cfg.UpdateInterval
	r.current.Units = cfg.Units

	r.monitor.Metrics().IncrementConfigReloads()
	r.logger.Info("configuration reloaded",
		"path", r.path,
		"env_applied", applyEnv && r.env != nil,
		"interval", cfg.UpdateInterval.String(),
		"units", cfg.Units,
	)
	return nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// restartOnly names the settings that differ between prev and next but
// cannot be applied to a running monitor.
func restartOnly(prev, next *config.Config) []string {
	var changed []string
	if prev.Backend != next.Backend {
		changed = append(changed, "backend")
	}
	if prev.Local != next.Local {
		changed = append(changed, "local")
	}
	if !slices.Equal(prev.Targets, next.Targets) {
		changed = append(changed, "targets")
	}
	if prev.ClearScreen != next.ClearScreen {
		changed = append(changed, "clear_screen")
	}
	if prev.DebugAddr != next.DebugAddr {
		changed = append(changed, "debug_addr")
	}
	if prev.Log != next.Log {
		changed = append(changed, "log")
	}
	if prev.Breaker != next.Breaker {
		changed = append(changed, "breaker")
	}
	return changed
}
