package platform

import (
	"fmt"
	"time"
)

// Kind selects which backend family serves a target.
type Kind string

const (
	// KindNative is the build-time selected backend for the running OS.
	KindNative Kind = "native"
	// KindPortable is the gopsutil backend.
	KindPortable Kind = "portable"
)

// NewBackend creates the local backend of the given kind.
// An empty kind selects the native backend.
func NewBackend(kind Kind) (Backend, error) {
	switch kind {
	case "", KindNative:
		return newNativeBackend()
	case KindPortable:
		return NewPortableBackend(), nil
	default:
		return nil, fmt.Errorf("unknown backend kind %q", kind)
	}
}

// NewRemoteBackend creates a Backend that evaluates the proc-table algorithm
// on a remote Linux host over SSH. Nothing needs to be installed remotely.
func NewRemoteBackend(config RemoteConfig) (Backend, error) {
	b, err := newSSHBackend(config)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// RemoteConfig specifies connection parameters for remote monitoring.
type RemoteConfig struct {
	// Host is the hostname or IP address of the remote system.
	Host string

	// Port is the SSH port (default: 22).
	Port int

	// User is the SSH username.
	User string

	// AuthMethod specifies how to authenticate.
	AuthMethod AuthMethod

	// KnownHostsFile verifies the server key. When empty, host keys are
	// not verified.
	KnownHostsFile string

	// CommandTimeout is the timeout for individual commands (default: 5s).
	CommandTimeout time.Duration

	// ReconnectInterval is the minimum delay between reconnection attempts (default: 30s).
	ReconnectInterval time.Duration
}

// AuthMethod defines SSH authentication methods.
type AuthMethod interface {
	isAuthMethod()
}

// PasswordAuth authenticates using a password.
type PasswordAuth struct {
	Password string
}

func (PasswordAuth) isAuthMethod() {}

// KeyAuth authenticates using an SSH private key.
type KeyAuth struct {
	PrivateKeyPath string
	Passphrase     string // optional, for encrypted keys
}

func (KeyAuth) isAuthMethod() {}

// AgentAuth authenticates using the SSH agent at SSH_AUTH_SOCK.
type AgentAuth struct{}

func (AgentAuth) isAuthMethod() {}
