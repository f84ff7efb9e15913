//go:build windows

package platform

func newNativeBackend() (Backend, error) {
	return newWindowsBackend(), nil
}
