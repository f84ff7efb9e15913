//go:build linux

package platform

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func newTestLinuxBackend(t *testing.T) (*linuxBackend, string) {
	t.Helper()
	dir := t.TempDir()
	b := newLinuxBackend()
	b.procStatPath = filepath.Join(dir, "stat")
	b.procLoadavgPath = filepath.Join(dir, "loadavg")
	return b, dir
}

func TestLinuxBackend_ReadCPUCounters(t *testing.T) {
	b, _ := newTestLinuxBackend(t)
	ctx := context.Background()

	content := `cpu  100 0 50 850 0 0 0 0 0 0
cpu0 25 0 12 212 0 0 0 0 0 0
cpu1 25 0 13 213 0 0 0 0 0 0
intr 12345
`
	require.NoError(t, os.WriteFile(b.procStatPath, []byte(content), 0o644))

	c, err := b.ReadCPUCounters(ctx)
	require.NoError(t, err)
	assert.Equal(t, CPUCounters{Total: 1000, Idle: 850}, c)

	content = "cpu  200 0 100 900 0 0 0 0 0 0\n"
	require.NoError(t, os.WriteFile(b.procStatPath, []byte(content), 0o644))

	c, err = b.ReadCPUCounters(ctx)
	require.NoError(t, err)
	assert.Equal(t, CPUCounters{Total: 1200, Idle: 900}, c)
}

func TestLinuxBackend_ReadCPUCountersErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file", func(t *testing.T) {
		b, _ := newTestLinuxBackend(t)
		c, err := b.ReadCPUCounters(ctx)
		assert.Equal(t, CPUCounters{}, c)
		assert.True(t, errors.Is(err, ErrSourceUnavailable))
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("empty file", func(t *testing.T) {
		b, _ := newTestLinuxBackend(t)
		require.NoError(t, os.WriteFile(b.procStatPath, nil, 0o644))
		_, err := b.ReadCPUCounters(ctx)
		assert.True(t, errors.Is(err, ErrSourceUnavailable))
	})

	t.Run("malformed", func(t *testing.T) {
		b, _ := newTestLinuxBackend(t)
		require.NoError(t, os.WriteFile(b.procStatPath, []byte("intr 1 2 3\n"), 0o644))
		_, err := b.ReadCPUCounters(ctx)
		assert.True(t, errors.Is(err, ErrSourceUnavailable))
	})
}

func TestLinuxBackend_ReadMemory(t *testing.T) {
	b, _ := newTestLinuxBackend(t)

	b.sysinfo = func(info *unix.Sysinfo_t) error {
		info.Totalram = 4_000_000
		info.Freeram = 1_000_000
		info.Unit = 4000
		return nil
	}

	mem, err := b.ReadMemory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(16_000_000_000), mem.Total)
	assert.Equal(t, uint64(4_000_000_000), mem.Free)
	assert.Equal(t, uint64(12_000_000_000), mem.Used)

	b.sysinfo = func(info *unix.Sysinfo_t) error {
		info.Totalram = 2048
		info.Freeram = 1024
		return nil
	}
	mem, err = b.ReadMemory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, MemorySnapshot{Total: 2048, Used: 1024, Free: 1024}, mem)

	b.sysinfo = func(*unix.Sysinfo_t) error { return unix.EPERM }
	mem, err = b.ReadMemory(context.Background())
	assert.Equal(t, MemorySnapshot{}, mem)
	assert.True(t, errors.Is(err, ErrSourceUnavailable))
}

func TestLinuxBackend_ReadMemoryLive(t *testing.T) {
	b := newLinuxBackend()
	mem, err := b.ReadMemory(context.Background())
	require.NoError(t, err)
	assert.Greater(t, mem.Total, uint64(0))
	assert.Equal(t, mem.Total-mem.Free, mem.Used)
}

func TestLinuxBackend_ReadLoadAverage(t *testing.T) {
	b, _ := newTestLinuxBackend(t)
	ctx := context.Background()

	_, err := b.ReadLoadAverage(ctx)
	assert.True(t, errors.Is(err, ErrSourceUnavailable))

	require.NoError(t, os.WriteFile(b.procLoadavgPath, []byte("1.50 0.75 0.25 2/345 6789\n"), 0o644))
	load, err := b.ReadLoadAverage(ctx)
	require.NoError(t, err)
	assert.Equal(t, LoadAverage{One: 1.5, Five: 0.75, Fifteen: 0.25}, load)

	assert.True(t, b.Capabilities().LoadAverage)
	assert.Equal(t, "linux", b.Name())
}

func TestLinuxBackend_ConcurrentReads(t *testing.T) {
	b, _ := newTestLinuxBackend(t)
	require.NoError(t, os.WriteFile(b.procStatPath, []byte("cpu  100 0 50 850 0 0 0 0 0 0\n"), 0o644))
	require.NoError(t, os.WriteFile(b.procLoadavgPath, []byte("1.00 0.50 0.25 1/100 42\n"), 0o644))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := context.Background()
			c, err := b.ReadCPUCounters(ctx)
			assert.NoError(t, err)
			assert.Equal(t, CPUCounters{Total: 1000, Idle: 850}, c)
			load, err := b.ReadLoadAverage(ctx)
			assert.NoError(t, err)
			assert.Equal(t, LoadAverage{One: 1, Five: 0.5, Fifteen: 0.25}, load)
		}()
	}
	wg.Wait()
}
