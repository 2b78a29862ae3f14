package cmd

import (
	"context"
	"fmt"

	"github.com/jonesrussell/storetrust/infrastructure/logger"
	"github.com/jonesrussell/storetrust/infrastructure/profiling"
	"github.com/jonesrussell/storetrust/internal/api"
	"github.com/jonesrussell/storetrust/internal/bootstrap"
	"github.com/jonesrussell/storetrust/internal/domain"
	"github.com/jonesrussell/storetrust/internal/handler"
	"github.com/jonesrussell/storetrust/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the evaluate API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), *configPath)
		},
	}
}

func serve(ctx context.Context, configPath string) error {
	cfg, err := bootstrap.LoadConfig(configPath)
	if err != nil {
		return err
	}

	log, err := bootstrap.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	profiling.StartPprofServer(cfg.Profiling, log)
	profiler, err := profiling.StartPyroscope(cfg.Service.Name, cfg.Service.Version, cfg.Profiling, log)
	if err != nil {
		log.Warn("Continuous profiling unavailable", logger.Error(err))
	}
	defer func() { _ = profiler.Stop() }()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	tel := telemetry.NewProvider(registry)

	comps, err := bootstrap.Build(ctx, cfg, tel, log)
	if err != nil {
		log.Error("Pipeline setup failed", logger.Error(err))
		return err
	}
	defer func() {
		if closeErr := comps.Close(); closeErr != nil {
			log.Warn("Cache backend close failed", logger.Error(closeErr))
		}
	}()

	server := api.NewServer(handler.NewEvaluateHandler(comps.Evaluator), tel, comps.CacheCheck, cfg, log)

	log.Info("Storetrust starting",
		logger.Int("port", cfg.Service.Port),
		logger.String("policy", comps.Policy.Version),
		logger.String("cache", comps.Store.Name()),
		logger.Strings("signals", signalNames(comps.Signals)),
	)

	if err := server.Run(ctx); err != nil {
		log.Error("Server error", logger.Error(err))
		return fmt.Errorf("serve: %w", err)
	}

	log.Info("Storetrust exited cleanly")
	return nil
}

func signalNames(types []domain.SignalType) []string {
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, string(t))
	}
	return names
}
