//go:build darwin

package platform

func newNativeBackend() (Backend, error) {
	return newDarwinBackend(), nil
}
