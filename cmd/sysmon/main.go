// Package main provides the entry point for the sysmon host monitor.
// It samples CPU utilization, load averages and memory occupancy on the
// local machine and on remote Linux hosts over SSH, and prints them to the
// terminal once per update interval.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"slices"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/opd-ai/go-sysmon/internal/config"
	"github.com/opd-ai/go-sysmon/internal/monitor"
	"github.com/opd-ai/go-sysmon/internal/profiling"
	"github.com/opd-ai/go-sysmon/internal/render"
	"github.com/opd-ai/go-sysmon/pkg/sysmon"
)

// Version is the current version of sysmon.
// This default value can be overridden at build time using:
//
//	go build -ldflags "-X main.Version=x.y.z"
var Version = "0.1.0-dev"

// initTimeout bounds backend initialization, which may dial SSH.
const initTimeout = 15 * time.Second

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type cliFlags struct {
	configPath string
	once       bool
	interval   time.Duration
	backend    string
	jsonLogs   bool
	debug      bool
	debugAddr  string
	cpuProfile string
	memProfile string
	version    bool
}

func parseFlags(args []string, stderr io.Writer) (*cliFlags, error) {
	fs := flag.NewFlagSet("sysmon", flag.ContinueOnError)
	fs.SetOutput(stderr)

	f := &cliFlags{}
	fs.StringVar(&f.configPath, "c", "", "Path to configuration file (YAML or Lua)")
	fs.BoolVar(&f.once, "once", false, "Print a single sample and exit")
	fs.DurationVar(&f.interval, "interval", 0, "Update interval (overrides the configuration)")
	fs.StringVar(&f.backend, "backend", "", "Local backend: native or portable")
	fs.BoolVar(&f.jsonLogs, "json-logs", false, "Write logs as JSON")
	fs.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.debugAddr, "debug-addr", "", "Serve /debug/vars and /healthz on this address")
	fs.StringVar(&f.cpuProfile, "cpuprofile", "", "Write CPU profile to file")
	fs.StringVar(&f.memProfile, "memprofile", "", "Write memory profile to file")
	fs.BoolVar(&f.version, "v", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return f, nil
}

// overrides turns the flags that were given into configuration overrides.
// They are applied after the file and the environment.
func (f *cliFlags) overrides() []func(*config.Config) {
	var fns []func(*config.Config)
	if f.interval != 0 {
		fns = append(fns, func(c *config.Config) { c.UpdateInterval = f.interval })
	}
	if f.backend != "" {
		fns = append(fns, func(c *config.Config) { c.Backend = f.backend })
	}
	if f.jsonLogs {
		fns = append(fns, func(c *config.Config) { c.Log.Format = "json" })
	}
	if f.debug {
		fns = append(fns, func(c *config.Config) { c.Log.Level = "debug" })
	}
	if f.debugAddr != "" {
		fns = append(fns, func(c *config.Config) { c.DebugAddr = f.debugAddr })
	}
	if f.once {
		fns = append(fns, func(c *config.Config) { c.ClearScreen = false })
	}
	return fns
}

func run(args []string, stdout, stderr io.Writer) int {
	flags, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if flags.version {
		fmt.Fprintf(stdout, "sysmon version %s\n", Version)
		return 0
	}

	env := config.NewDotEnv(".env")
	if err := env.Apply(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	cfg, err := config.Load(flags.configPath, flags.overrides()...)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading configuration: %v\n", err)
		return 1
	}

	zl, err := sysmon.NewZapLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(stderr, "Error creating logger: %v\n", err)
		return 1
	}
	defer func() { _ = zl.Sync() }()
	logger := sysmon.NewZapAdapter(zl)

	profile := profiling.Config{CPUPath: flags.cpuProfile, HeapPath: flags.memProfile}
	if profile.Enabled() {
		profiler := profiling.New(profile)
		if err := profiler.Start(); err != nil {
			logger.Error("failed to start profiling", "error", err)
			return 1
		}
		logger.Info("profiling enabled", "cpu", profile.CPUPath, "heap", profile.HeapPath)
		defer func() {
			if err := profiler.Stop(); err != nil {
				logger.Warn("failed to write profiles", "error", err)
			}
		}()
	}

	targets, err := buildTargets(cfg)
	if err != nil {
		logger.Error("failed to create backends", "error", err)
		return 1
	}

	metrics := sysmon.DefaultMetrics()
	m, err := sysmon.New(targets, &sysmon.Options{
		Interval: cfg.UpdateInterval,
		Breaker: sysmon.CircuitBreakerConfig{
			FailureThreshold: cfg.Breaker.FailureThreshold,
			Timeout:          cfg.Breaker.Timeout,
		},
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		closeTargets(targets)
		logger.Error("failed to create monitor", "error", err)
		return 1
	}
	defer func() {
		if err := m.Close(); err != nil {
			logger.Warn("failed to close backends", "error", err)
		}
	}()

	if err := initialize(m, logger); err != nil {
		logger.Error("local backend unavailable", "backend", cfg.Backend, "error", err)
		return 1
	}

	renderer := render.NewTerminalRenderer(stdout, render.Config{
		Units:       cfg.Units,
		ClearScreen: cfg.ClearScreen,
	})
	screen := newDisplay(renderer, metrics, logger)

	if flags.once {
		return runOnce(m, screen, cfg.UpdateInterval)
	}

	if cfg.DebugAddr != "" {
		srv, err := startDebugServer(cfg.DebugAddr, m)
		if err != nil {
			logger.Error("failed to start debug server", "addr", cfg.DebugAddr, "error", err)
			return 1
		}
		logger.Info("debug server listening", "addr", srv.Addr())
		defer srv.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reload := newReloader(flags.configPath, env, flags.overrides(), cfg, m, renderer, logger)
	watcher, err := sysmon.NewFileWatcher(reload.watched(), sysmon.DefaultSettleDelay, reload.FilesChanged, func(err error) {
		logger.Warn("configuration reload failed", "error", err)
	})
	if err != nil {
		logger.Warn("configuration hot reload disabled", "files", reload.watched(), "error", err)
	} else {
		watcher.Start()
		defer watcher.Stop()
	}

	// Wait for termination signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	done := make(chan error, 1)
	go func() {
		done <- m.Run(ctx, screen.Show)
	}()

	logger.Info("sysmon started",
		"version", Version,
		"targets", len(targets),
		"interval", cfg.UpdateInterval.String(),
		"backend", cfg.Backend,
	)

	for {
		select {
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				logger.Info("received SIGHUP, reloading configuration")
				if err := reload.Reload(); err != nil {
					logger.Warn("configuration reload failed", "error", err)
				}
				continue
			}
			logger.Info("shutting down", "signal", sig.String())
			cancel()
			if err := <-done; err != nil {
				logger.Error("monitor stopped", "error", err)
				return 1
			}
			return 0
		case err := <-done:
			if err != nil {
				logger.Error("monitor stopped", "error", err)
				return 1
			}
			return 0
		}
	}
}

// initialize prepares every backend. A remote target that cannot be reached
// is only logged; it is retried on every poll until its circuit opens. The
// local backend failing is returned as an error.
func initialize(m *sysmon.Monitor, logger sysmon.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	err := m.Initialize(ctx)
	if err == nil {
		return nil
	}
	if slices.Contains(sysmon.FailedTargets(err), monitor.LocalTarget) {
		return err
	}
	logger.Warn("some targets are unreachable", "error", err)
	return nil
}

// runOnce primes every CPU tracker, waits one interval so the second poll
// has a real delta, and prints that poll.
func runOnce(m *sysmon.Monitor, d *display, interval time.Duration) int {
	ctx := context.Background()
	m.PollAll(ctx)
	time.Sleep(interval)
	if err := d.render(m.PollAll(ctx)); err != nil {
		return 1
	}
	return 0
}

// display turns poll results into frames.
type display struct {
	renderer *render.TerminalRenderer
	metrics  *sysmon.Metrics
	logger   sysmon.Logger
}

func newDisplay(renderer *render.TerminalRenderer, metrics *sysmon.Metrics, logger sysmon.Logger) *display {
	return &display{renderer: renderer, metrics: metrics, logger: logger}
}

// Show is the Monitor.Run callback.
func (d *display) Show(results []sysmon.Result) {
	_ = d.render(results)
}

func (d *display) render(results []sysmon.Result) error {
	for _, r := range results {
		d.logger.Debug("sample",
			"target", r.Sample.Target,
			"cpu", r.Sample.CPUPercent,
			"cpu_status", r.Sample.CPUStatus.String(),
			"mem_used", humanize.IBytes(r.Sample.Memory.Used),
			"status", string(r.Status),
		)
	}
	if err := d.renderer.Render(buildFrame(results)); err != nil {
		d.metrics.IncrementRenderErrors()
		d.logger.Error("failed to render frame", "error", err)
		return err
	}
	return nil
}

// buildFrame titles the frame after the local OS, or after the first
// target when only remote hosts are polled.
func buildFrame(results []sysmon.Result) render.Frame {
	frame := render.Frame{OS: runtime.GOOS}
	if len(results) > 0 && results[0].Sample.Target != monitor.LocalTarget {
		frame.OS = results[0].OS
	}

	frame.Blocks = make([]render.Block, len(results))
	for i, r := range results {
		frame.Blocks[i] = render.Block{
			OS:     r.OS,
			Status: string(r.Status),
			Sample: r.Sample,
			Err:    r.Err,
		}
	}
	return frame
}
