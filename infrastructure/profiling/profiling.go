// Package profiling starts the optional pprof endpoint and Pyroscope agent.
package profiling

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"runtime"
	"time"

	"github.com/grafana/pyroscope-go"
	"github.com/jonesrussell/storetrust/infrastructure/logger"
)

// Config controls both profilers. Both are off by default.
type Config struct {
	PprofEnabled     bool   `env:"ENABLE_PROFILING"            yaml:"pprof_enabled"`
	PprofPort        int    `env:"PPROF_PORT"                  yaml:"pprof_port"`
	PyroscopeEnabled bool   `env:"ENABLE_CONTINUOUS_PROFILING" yaml:"pyroscope_enabled"`
	PyroscopeURL     string `env:"PYROSCOPE_SERVER_URL"        yaml:"pyroscope_url"`
	Environment      string `env:"PYROSCOPE_ENVIRONMENT"       yaml:"environment"`
}

const defaultPprofPort = 6060

// StartPprofServer serves /debug/pprof on localhost only.
func StartPprofServer(cfg Config, log logger.Logger) {
	if !cfg.PprofEnabled {
		return
	}
	port := cfg.PprofPort
	if port == 0 {
		port = defaultPprofPort
	}
	addr := fmt.Sprintf("localhost:%d", port)

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("Starting pprof server", logger.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("pprof server error", logger.Error(err))
		}
	}()
}

// Profiler wraps a running Pyroscope agent. A nil *Profiler is valid.
type Profiler struct {
	profiler *pyroscope.Profiler
}

// StartPyroscope returns nil, nil when continuous profiling is disabled.
func StartPyroscope(serviceName, version string, cfg Config, log logger.Logger) (*Profiler, error) {
	if !cfg.PyroscopeEnabled {
		return nil, nil
	}

	serverURL := cfg.PyroscopeURL
	if serverURL == "" {
		serverURL = "http://pyroscope:4040"
	}
	environment := cfg.Environment
	if environment == "" {
		environment = "development"
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	pc := pyroscope.Config{
		ApplicationName: "storetrust." + serviceName,
		ServerAddress:   serverURL,
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
		Tags: map[string]string{
			"environment": environment,
			"version":     version,
			"hostname":    hostname,
			"go_version":  runtime.Version(),
		},
	}

	profiler, err := pyroscope.Start(pc)
	if err != nil {
		return nil, fmt.Errorf("start pyroscope profiler: %w", err)
	}

	log.Info("Pyroscope continuous profiling started",
		logger.String("application", pc.ApplicationName),
		logger.String("server", serverURL),
		logger.String("environment", environment),
	)
	return &Profiler{profiler: profiler}, nil
}

// Stop flushes and stops the agent.
func (p *Profiler) Stop() error {
	if p == nil || p.profiler == nil {
		return nil
	}
	return p.profiler.Stop()
}
