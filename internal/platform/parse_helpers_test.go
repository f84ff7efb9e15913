package platform

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProcStatLine(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantTotal uint64
		wantIdle  uint64
		wantErr   bool
	}{
		{
			name:      "modern kernel with guest fields",
			line:      "cpu  100 0 50 850 0 0 0 0 0 0",
			wantTotal: 1000,
			wantIdle:  850,
		},
		{
			name:      "iowait counts as idle",
			line:      "cpu  10 20 30 400 50 6 7 8",
			wantTotal: 531,
			wantIdle:  450,
		},
		{
			name:      "old kernel with four counters",
			line:      "cpu 1 2 3 4",
			wantTotal: 10,
			wantIdle:  4,
		},
		{
			name:    "per-cpu line rejected",
			line:    "cpu0 25 0 12 212 0 0 0 0",
			wantErr: true,
		},
		{
			name:    "too few fields",
			line:    "cpu 1 2 3",
			wantErr: true,
		},
		{
			name:    "non-numeric counter",
			line:    "cpu 1 2 x 4",
			wantErr: true,
		},
		{
			name:    "empty",
			line:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			times, err := parseProcStatLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			c := times.counters()
			assert.Equal(t, tt.wantTotal, c.Total)
			assert.Equal(t, tt.wantIdle, c.Idle)
		})
	}
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "cpu 1 2 3 4", firstLine("cpu 1 2 3 4\ncpu0 1 2 3 4\n"))
	assert.Equal(t, "cpu 1 2 3 4", firstLine("cpu 1 2 3 4\r\n"))
	assert.Equal(t, "", firstLine(""))
}

func TestParseLoadAverage(t *testing.T) {
	load, err := parseLoadAverage("0.52 0.58 0.59 1/1234 5678\n")
	require.NoError(t, err)
	assert.Equal(t, LoadAverage{One: 0.52, Five: 0.58, Fifteen: 0.59}, load)

	_, err = parseLoadAverage("0.52 0.58")
	assert.Error(t, err)

	_, err = parseLoadAverage("a b c")
	assert.Error(t, err)
}

func TestParseMemInfoOutput(t *testing.T) {
	output := `MemTotal:       16384000 kB
MemFree:         4096000 kB
MemAvailable:    8192000 kB
Buffers:         1024000 kB
Cached:          2048000 kB
`
	mem, err := parseMemInfoOutput(output)
	require.NoError(t, err)
	assert.Equal(t, uint64(16384000*1024), mem.Total)
	assert.Equal(t, uint64(4096000*1024), mem.Free)
	assert.Equal(t, mem.Total-mem.Free, mem.Used)

	_, err = parseMemInfoOutput("MemAvailable: 100 kB\n")
	assert.Error(t, err)
}

func TestParseVMStatOutput(t *testing.T) {
	output := `Mach Virtual Memory Statistics: (page size of 16384 bytes)
Pages free:                               10000.
Pages active:                            200000.
Pages inactive:                          190000.
Pages speculative:                         5000.
Pages throttled:                              0.
Pages wired down:                        100000.
Pages purgeable:                           1234.
`
	mem, err := parseVMStatOutput(output)
	require.NoError(t, err)
	assert.Equal(t, uint64(500000*16384), mem.Total)
	assert.Equal(t, uint64(10000*16384), mem.Free)
	assert.Equal(t, mem.Total-mem.Free, mem.Used)

	t.Run("default page size", func(t *testing.T) {
		mem, err := parseVMStatOutput("Pages free: 10.\nPages active: 10.\n")
		require.NoError(t, err)
		assert.Equal(t, uint64(20*4096), mem.Total)
	})

	t.Run("missing free pages", func(t *testing.T) {
		_, err := parseVMStatOutput("Pages active: 10.\n")
		assert.Error(t, err)
	})
}

func TestMemoryFromPages(t *testing.T) {
	mem := memoryFromPages(1, 2, 3, 4, 4096)
	assert.Equal(t, uint64(10*4096), mem.Total)
	assert.Equal(t, uint64(4096), mem.Free)
	assert.Equal(t, uint64(9*4096), mem.Used)
}

func TestParseLoadavgSysctl(t *testing.T) {
	raw := make([]byte, 24)
	binary.LittleEndian.PutUint32(raw[0:4], 1024)
	binary.LittleEndian.PutUint32(raw[4:8], 512)
	binary.LittleEndian.PutUint32(raw[8:12], 2048)
	binary.LittleEndian.PutUint64(raw[16:24], 2048)

	load, err := parseLoadavgSysctl(raw)
	require.NoError(t, err)
	assert.Equal(t, LoadAverage{One: 0.5, Five: 0.25, Fifteen: 1.0}, load)

	_, err = parseLoadavgSysctl(raw[:12])
	assert.Error(t, err)

	zeroScale := make([]byte, 24)
	_, err = parseLoadavgSysctl(zeroScale)
	assert.Error(t, err)
}
