package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name  string
		bytes uint64
		want  string
	}{
		{"zero", 0, "0.00 B"},
		{"bytes", 1023, "1023.00 B"},
		{"one kilobyte", 1024, "1.00 KB"},
		{"megabytes", 5 * 1024 * 1024, "5.00 MB"},
		{"sixteen billion", 16_000_000_000, "14.90 GB"},
		{"twelve billion", 12_000_000_000, "11.18 GB"},
		{"four billion", 4_000_000_000, "3.73 GB"},
		{"gigabytes cap", 2 << 40, "2048.00 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatBytes(tt.bytes))
		})
	}
}

func TestByteFormatter(t *testing.T) {
	assert.Equal(t, "14.90 GB", ByteFormatter(UnitsClassic)(16_000_000_000))
	assert.Equal(t, "14.90 GB", ByteFormatter("")(16_000_000_000))
	assert.Equal(t, "15 GiB", ByteFormatter(UnitsIEC)(16_000_000_000))
	assert.Equal(t, "1.0 KiB", FormatBytesIEC(1024))
}

func TestHeader(t *testing.T) {
	tests := map[string]string{
		"linux":   "Linux System Monitor",
		"Linux":   "Linux System Monitor",
		"darwin":  "macOS System Monitor",
		"windows": "Windows System Monitor",
		"freebsd": "freebsd System Monitor",
		"":        "Unknown System Monitor",
	}
	for goos, want := range tests {
		assert.Equal(t, want, Header(goos), goos)
	}
}
