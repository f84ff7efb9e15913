//go:build linux

package platform

func newNativeBackend() (Backend, error) {
	return newLinuxBackend(), nil
}
