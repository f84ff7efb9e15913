package main

import (
	"context"
	"encoding/json"
	"expvar"
	"net"
	"net/http"
	"time"

	"github.com/opd-ai/go-sysmon/pkg/sysmon"
)

// debugServer exposes expvar metrics and the monitor's health over HTTP.
type debugServer struct {
	srv *http.Server
	ln  net.Listener
}

// startDebugServer listens on addr and serves:
//
//	/debug/vars  expvar counters (sysmon_* and the runtime's memstats)
//	/healthz     Monitor.Health as JSON; 503 when unhealthy
func startDebugServer(addr string, m *sysmon.Monitor) (*debugServer, error) {
	m.Metrics().RegisterExpvar()

	mux := http.NewServeMux()
	mux.Handle("/debug/vars", expvar.Handler())
	mux.HandleFunc("/healthz", healthHandler(m))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	s := &debugServer{
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		ln: ln,
	}
	go func() { _ = s.srv.Serve(ln) }()
	return s, nil
}

// Addr returns the address the server is listening on.
func (s *debugServer) Addr() string {
	return s.ln.Addr().String()
}

// Close shuts the server down, waiting briefly for in-flight requests.
func (s *debugServer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func healthHandler(m *sysmon.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		check := m.Health()
		w.Header().Set("Content-Type", "application/json")
		if check.IsUnhealthy() {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(check)
	}
}
