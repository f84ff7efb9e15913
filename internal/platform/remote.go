package platform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// commandRunner executes a shell command on the monitored host.
// sshBackend implements it; tests substitute a fake.
type commandRunner interface {
	runCommand(ctx context.Context, cmd string) (string, error)
}

const (
	remoteStatCommand    = "head -n 1 /proc/stat"
	remoteMemInfoCommand = "cat /proc/meminfo"
	remoteLoadavgCommand = "cat /proc/loadavg"
	remoteUnameCommand   = "uname -s"
)

var errNotConnected = errors.New("SSH client not connected")

// sshBackend implements Backend for a remote Linux host. It runs standard
// shell commands over SSH and parses the proc table locally.
type sshBackend struct {
	config RemoteConfig
	runner commandRunner

	mu           sync.RWMutex
	client       *ssh.Client
	clientConfig *ssh.ClientConfig
	lastDial     time.Time
}

func newSSHBackend(config RemoteConfig) (*sshBackend, error) {
	if config.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if config.User == "" {
		return nil, fmt.Errorf("user is required")
	}
	if config.AuthMethod == nil {
		return nil, fmt.Errorf("authentication method is required")
	}

	if config.Port == 0 {
		config.Port = 22
	}
	if config.CommandTimeout == 0 {
		config.CommandTimeout = 5 * time.Second
	}
	if config.ReconnectInterval == 0 {
		config.ReconnectInterval = 30 * time.Second
	}

	b := &sshBackend{config: config}
	b.runner = b
	return b, nil
}

func (b *sshBackend) Name() string {
	return "remote:" + b.config.Host
}

func (b *sshBackend) Capabilities() Capabilities {
	return Capabilities{LoadAverage: true}
}

func (b *sshBackend) address() string {
	return net.JoinHostPort(b.config.Host, strconv.Itoa(b.config.Port))
}

// Initialize dials the host and verifies it runs Linux.
func (b *sshBackend) Initialize(ctx context.Context) error {
	clientConfig, err := b.buildSSHConfig()
	if err != nil {
		return fmt.Errorf("failed to build SSH config: %w", err)
	}

	b.mu.Lock()
	b.clientConfig = clientConfig
	b.mu.Unlock()

	if err := b.connect(); err != nil {
		return err
	}

	if err := b.checkRemoteOS(ctx); err != nil {
		b.Close()
		return err
	}
	return nil
}

func (b *sshBackend) checkRemoteOS(ctx context.Context) error {
	out, err := b.runner.runCommand(ctx, remoteUnameCommand)
	if err != nil {
		return fmt.Errorf("failed to detect remote OS: %w", err)
	}
	if osName := strings.TrimSpace(out); !strings.EqualFold(osName, "linux") {
		return fmt.Errorf("%w: remote host %s runs %q", ErrUnsupportedPlatform, b.config.Host, osName)
	}
	return nil
}

func (b *sshBackend) buildSSHConfig() (*ssh.ClientConfig, error) {
	var authMethods []ssh.AuthMethod

	switch auth := b.config.AuthMethod.(type) {
	case PasswordAuth:
		authMethods = append(authMethods, ssh.Password(auth.Password))
	case KeyAuth:
		key, err := os.ReadFile(auth.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key: %w", err)
		}
		var signer ssh.Signer
		if auth.Passphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(key, []byte(auth.Passphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(key)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		authMethods = append(authMethods, ssh.PublicKeys(signer))
	case AgentAuth:
		socket := os.Getenv("SSH_AUTH_SOCK")
		if socket == "" {
			return nil, fmt.Errorf("SSH_AUTH_SOCK not set")
		}
		// The agent is dialed lazily, once per handshake.
		authMethods = append(authMethods, ssh.PublicKeysCallback(func() ([]ssh.Signer, error) {
			agentConn, err := net.Dial("unix", socket)
			if err != nil {
				return nil, fmt.Errorf("failed to connect to SSH agent: %w", err)
			}
			defer agentConn.Close()

			signers, err := agent.NewClient(agentConn).Signers()
			if err != nil {
				return nil, fmt.Errorf("failed to get signers from SSH agent: %w", err)
			}
			return signers, nil
		}))
	default:
		return nil, fmt.Errorf("unsupported auth method type: %T", auth)
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if b.config.KnownHostsFile != "" {
		cb, err := knownhosts.New(b.config.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load known hosts: %w", err)
		}
		hostKeyCallback = cb
	}

	return &ssh.ClientConfig{
		User:            b.config.User,
		Auth:            authMethods,
		HostKeyCallback: hostKeyCallback,
		Timeout:         10 * time.Second,
	}, nil
}

func (b *sshBackend) connect() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.clientConfig == nil {
		return ErrNotInitialized
	}

	b.lastDial = time.Now()
	client, err := ssh.Dial("tcp", b.address(), b.clientConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", b.address(), err)
	}
	b.client = client
	return nil
}

// connection returns the live client, redialing at most once per
// ReconnectInterval after the previous connection was dropped.
func (b *sshBackend) connection() (*ssh.Client, error) {
	b.mu.RLock()
	client, lastDial := b.client, b.lastDial
	b.mu.RUnlock()

	if client != nil {
		return client, nil
	}
	if time.Since(lastDial) < b.config.ReconnectInterval {
		return nil, errNotConnected
	}
	if err := b.connect(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.client, nil
}

func (b *sshBackend) dropClient(client *ssh.Client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client == client {
		b.client.Close()
		b.client = nil
	}
}

// runCommand executes a command on the remote system and returns its stdout.
func (b *sshBackend) runCommand(ctx context.Context, cmd string) (string, error) {
	client, err := b.connection()
	if err != nil {
		return "", err
	}

	session, err := client.NewSession()
	if err != nil {
		b.dropClient(client)
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	ctx, cancel := context.WithTimeout(ctx, b.config.CommandTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- session.Run(cmd)
	}()

	select {
	case err := <-done:
		if err != nil {
			return "", fmt.Errorf("command %q failed: %w (stderr: %s)", cmd, err, strings.TrimSpace(stderr.String()))
		}
		return stdout.String(), nil
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		_ = session.Close()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("command %q timed out after %v", cmd, b.config.CommandTimeout)
		}
		return "", ctx.Err()
	}
}

func (b *sshBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.clientConfig = nil
	if b.client != nil {
		err := b.client.Close()
		b.client = nil
		return err
	}
	return nil
}

func (b *sshBackend) source(path string) string {
	return b.config.Host + ":" + path
}

func (b *sshBackend) ReadCPUCounters(ctx context.Context) (CPUCounters, error) {
	out, err := b.runner.runCommand(ctx, remoteStatCommand)
	if err != nil {
		return CPUCounters{}, unavailable(b.source("/proc/stat"), "reading", err)
	}

	times, err := parseProcStatLine(firstLine(out))
	if err != nil {
		return CPUCounters{}, unavailable(b.source("/proc/stat"), "parsing", err)
	}
	return times.counters(), nil
}

func (b *sshBackend) ReadMemory(ctx context.Context) (MemorySnapshot, error) {
	out, err := b.runner.runCommand(ctx, remoteMemInfoCommand)
	if err != nil {
		return MemorySnapshot{}, unavailable(b.source("/proc/meminfo"), "reading", err)
	}

	mem, err := parseMemInfoOutput(out)
	if err != nil {
		return MemorySnapshot{}, unavailable(b.source("/proc/meminfo"), "parsing", err)
	}
	return mem, nil
}

func (b *sshBackend) ReadLoadAverage(ctx context.Context) (LoadAverage, error) {
	out, err := b.runner.runCommand(ctx, remoteLoadavgCommand)
	if err != nil {
		return LoadAverage{}, unavailable(b.source("/proc/loadavg"), "reading", err)
	}

	load, err := parseLoadAverage(out)
	if err != nil {
		return LoadAverage{}, unavailable(b.source("/proc/loadavg"), "parsing", err)
	}
	return load, nil
}
