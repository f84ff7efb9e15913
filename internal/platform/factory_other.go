//go:build !linux && !darwin && !windows

package platform

import (
	"fmt"
	"runtime"
)

func newNativeBackend() (Backend, error) {
	return nil, fmt.Errorf("%w: no native backend for %s, use the portable backend", ErrUnsupportedPlatform, runtime.GOOS)
}
