package monitor

import (
	"context"

	"github.com/opd-ai/go-sysmon/internal/platform"
)

// MemoryReader is a stateless pass-through to the backend's memory source.
type MemoryReader struct {
	backend platform.Backend
}

// NewMemoryReader creates a MemoryReader for backend.
func NewMemoryReader(backend platform.Backend) *MemoryReader {
	return &MemoryReader{backend: backend}
}

// Read returns the current memory snapshot.
func (r *MemoryReader) Read(ctx context.Context) (platform.MemorySnapshot, error) {
	return r.backend.ReadMemory(ctx)
}

// LoadReader is a stateless pass-through to the backend's load average source.
type LoadReader struct {
	backend platform.Backend
}

// NewLoadReader creates a LoadReader for backend.
func NewLoadReader(backend platform.Backend) *LoadReader {
	return &LoadReader{backend: backend}
}

// Supported reports whether the platform keeps load averages at all.
func (r *LoadReader) Supported() bool {
	return r.backend.Capabilities().LoadAverage
}

// Read returns the 1, 5 and 15 minute load averages. On platforms without
// load averages it returns the zero triple and a nil error.
func (r *LoadReader) Read(ctx context.Context) (platform.LoadAverage, error) {
	if !r.Supported() {
		return platform.LoadAverage{}, nil
	}
	return r.backend.ReadLoadAverage(ctx)
}
