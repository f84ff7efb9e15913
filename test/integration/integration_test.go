//go:build integration

// Package integration provides end-to-end tests for go-sysmon against the
// machine running them. They read real kernel counters, so values are only
// checked for plausibility.
package integration

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/opd-ai/go-sysmon/internal/config"
	"github.com/opd-ai/go-sysmon/internal/monitor"
	"github.com/opd-ai/go-sysmon/internal/platform"
	"github.com/opd-ai/go-sysmon/internal/render"
	"github.com/opd-ai/go-sysmon/pkg/sysmon"
)

func newBackend(t *testing.T, kind platform.Kind) platform.Backend {
	t.Helper()
	backend, err := platform.NewBackend(kind)
	if err != nil {
		t.Skipf("%s backend not available on %s: %v", kind, runtime.GOOS, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := backend.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() { backend.Close() })
	return backend
}

// TestSamplerAgainstHost polls each local backend twice and checks the
// readings are plausible.
func TestSamplerAgainstHost(t *testing.T) {
	for _, kind := range []platform.Kind{platform.KindNative, platform.KindPortable} {
		t.Run(string(kind), func(t *testing.T) {
			sampler := monitor.NewSampler(monitor.LocalTarget, newBackend(t, kind))
			ctx := context.Background()

			first, err := sampler.Poll(ctx)
			if err != nil {
				t.Fatalf("first Poll failed: %v", err)
			}
			if first.CPUPercent != 0 || first.CPUStatus != monitor.DeltaPriming {
				t.Errorf("first poll should prime: got %.2f (%s)", first.CPUPercent, first.CPUStatus)
			}

			time.Sleep(200 * time.Millisecond)

			second, err := sampler.Poll(ctx)
			if err != nil {
				t.Fatalf("second Poll failed: %v", err)
			}
			if second.CPUPercent < 0 || second.CPUPercent > 100 {
				t.Errorf("CPU usage out of range: %f", second.CPUPercent)
			}

			mem := second.Memory
			if mem.Total == 0 {
				t.Error("Memory total should not be zero")
			}
			if mem.Used != mem.Total-mem.Free {
				t.Errorf("Used (%d) != Total (%d) - Free (%d)", mem.Used, mem.Total, mem.Free)
			}
			if mem.Total != first.Memory.Total {
				t.Errorf("Memory total changed between readings: %d vs %d", first.Memory.Total, mem.Total)
			}

			if !second.LoadSupported && !second.Load.IsZero() {
				t.Errorf("unsupported load average should be zero, got %+v", second.Load)
			}
		})
	}
}

// TestFullPipelineIntegration runs configuration, monitor and renderer
// together the way the sysmon command does.
func TestFullPipelineIntegration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sysmon.lua")
	if err := os.WriteFile(path, []byte(`
sysmon.config = {
    update_interval = 0.1,
    backend = "portable",
    clear_screen = false,
}
`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	m, err := sysmon.New([]sysmon.Target{{
		Name:    monitor.LocalTarget,
		OS:      runtime.GOOS,
		Backend: newBackend(t, platform.Kind(cfg.Backend)),
	}}, &sysmon.Options{Interval: cfg.UpdateInterval, Metrics: sysmon.NewMetrics()})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer m.Close()

	var out bytes.Buffer
	renderer := render.NewTerminalRenderer(&out, render.Config{Units: cfg.Units, ClearScreen: cfg.ClearScreen})

	ctx, cancel := context.WithCancel(context.Background())
	frames := 0
	err = m.Run(ctx, func(results []sysmon.Result) {
		blocks := make([]render.Block, len(results))
		for i, r := range results {
			blocks[i] = render.Block{OS: r.OS, Status: string(r.Status), Sample: r.Sample, Err: r.Err}
		}
		if err := renderer.Render(render.Frame{OS: runtime.GOOS, Blocks: blocks}); err != nil {
			t.Errorf("Render failed: %v", err)
		}
		if frames++; frames == 3 {
			cancel()
		}
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	text := out.String()
	if got := strings.Count(text, render.Header(runtime.GOOS)); got != 1 {
		t.Errorf("header printed %d times, want once", got)
	}
	if got := strings.Count(text, "CPU Usage: "); got != 3 {
		t.Errorf("got %d CPU lines, want 3", got)
	}
	if strings.Contains(text, "Warning:") {
		t.Errorf("unexpected warning in output:\n%s", text)
	}

	if h := m.Health(); !h.IsHealthy() {
		t.Errorf("monitor not healthy: %s", h.Message)
	}
	if polls := m.Metrics().Snapshot().Polls; polls != 3 {
		t.Errorf("Polls = %d, want 3", polls)
	}
}
