package main

import (
	"fmt"
	"runtime"

	"github.com/opd-ai/go-sysmon/internal/config"
	"github.com/opd-ai/go-sysmon/internal/monitor"
	"github.com/opd-ai/go-sysmon/internal/platform"
	"github.com/opd-ai/go-sysmon/pkg/sysmon"
)

// remoteOS is what remote targets report; the SSH backend only accepts
// Linux hosts.
const remoteOS = "Linux"

// Factories are variables so tests can substitute fake backends.
var (
	newLocalBackend  = platform.NewBackend
	newRemoteBackend = platform.NewRemoteBackend
)

// buildTargets creates one sysmon.Target for the local machine (when
// cfg.Local) followed by one per configured remote host.
func buildTargets(cfg *config.Config) ([]sysmon.Target, error) {
	var targets []sysmon.Target

	if cfg.Local {
		backend, err := newLocalBackend(platform.Kind(cfg.Backend))
		if err != nil {
			return nil, fmt.Errorf("creating %s backend: %w", cfg.Backend, err)
		}
		targets = append(targets, sysmon.Target{
			Name:    monitor.LocalTarget,
			OS:      runtime.GOOS,
			Backend: backend,
		})
	}

	for _, tc := range cfg.Targets {
		backend, err := newRemoteBackend(remoteConfig(tc))
		if err != nil {
			closeTargets(targets)
			return nil, fmt.Errorf("target %s: %w", tc.Name, err)
		}
		targets = append(targets, sysmon.Target{
			Name:    tc.Name,
			OS:      remoteOS,
			Backend: backend,
		})
	}

	return targets, nil
}

// remoteConfig maps a configured target onto SSH connection parameters.
// Validation has already ensured exactly one auth method is set.
func remoteConfig(tc config.TargetConfig) platform.RemoteConfig {
	rc := platform.RemoteConfig{
		Host:           tc.Host,
		Port:           tc.Port,
		User:           tc.User,
		KnownHostsFile: tc.KnownHosts,
		CommandTimeout: tc.CommandTimeout,
	}

	switch {
	case tc.Password != "":
		rc.AuthMethod = platform.PasswordAuth{Password: tc.Password}
	case tc.KeyFile != "":
		rc.AuthMethod = platform.KeyAuth{PrivateKeyPath: tc.KeyFile, Passphrase: tc.Passphrase}
	case tc.Agent:
		rc.AuthMethod = platform.AgentAuth{}
	}
	return rc
}

func closeTargets(targets []sysmon.Target) {
	for _, t := range targets {
		_ = t.Backend.Close()
	}
}
