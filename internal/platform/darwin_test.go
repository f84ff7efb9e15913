//go:build darwin

package platform

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDarwinBackend_ReadLoadAverage(t *testing.T) {
	b := newDarwinBackend()
	b.sysctlRaw = func(name string, args ...int) ([]byte, error) {
		require.Equal(t, "vm.loadavg", name)
		raw := make([]byte, 24)
		binary.LittleEndian.PutUint32(raw[0:4], 2048)
		binary.LittleEndian.PutUint32(raw[4:8], 1024)
		binary.LittleEndian.PutUint32(raw[8:12], 512)
		binary.LittleEndian.PutUint64(raw[16:24], 2048)
		return raw, nil
	}

	load, err := b.ReadLoadAverage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, LoadAverage{One: 1, Five: 0.5, Fifteen: 0.25}, load)

	b.sysctlRaw = func(string, ...int) ([]byte, error) { return nil, errors.New("denied") }
	load, err = b.ReadLoadAverage(context.Background())
	assert.True(t, load.IsZero())
	assert.True(t, errors.Is(err, ErrSourceUnavailable))
}

func TestDarwinBackend_ReadMemoryLive(t *testing.T) {
	b := newDarwinBackend()
	mem, err := b.ReadMemory(context.Background())
	require.NoError(t, err)
	assert.Greater(t, mem.Total, uint64(0))
	assert.Equal(t, mem.Total-mem.Free, mem.Used)
}

func TestDarwinBackend_LoadAverageLive(t *testing.T) {
	b := newDarwinBackend()
	assert.True(t, b.Capabilities().LoadAverage)
	_, err := b.ReadLoadAverage(context.Background())
	assert.NoError(t, err)
}
