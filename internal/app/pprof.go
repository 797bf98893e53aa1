package app

import (
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"time"
)

// lookupProfiles are the runtime profiles served via pprof.Handler; the
// index, cmdline, profile, symbol, and trace endpoints need dedicated
// handlers and are registered separately.
var lookupProfiles = []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"}

// pprofServer exposes the runtime profiling endpoints on their own listener
// so profile scrapes stay off the metrics address. Disabled when no pprof
// address is configured.
func (a *App) pprofServer() (*http.Server, net.Listener, error) {
	if a.config.PprofAddr == "" {
		return nil, nil, nil
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	for _, profile := range lookupProfiles {
		mux.Handle("/debug/pprof/"+profile, pprof.Handler(profile))
	}

	lis, err := net.Listen("tcp", a.config.PprofAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("listen pprof %s: %w", a.config.PprofAddr, err)
	}

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv, lis, nil
}
