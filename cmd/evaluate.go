package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/storetrust/infrastructure/logger"
	"github.com/jonesrussell/storetrust/internal/bootstrap"
	"github.com/jonesrussell/storetrust/internal/domain"
	"github.com/jonesrussell/storetrust/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

const defaultEvaluateTimeout = 30 * time.Second

func newEvaluateCommand(configPath *string) *cobra.Command {
	var (
		output  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "evaluate <url> [url...]",
		Short: "Score one or more storefront URLs and print the verdicts",
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(*cobra.Command, []string) error {
			if output != outputTable && output != outputJSON {
				return fmt.Errorf("unknown output %q: want %s or %s", output, outputTable, outputJSON)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := evaluateURLs(cmd.Context(), *configPath, timeout, args)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), output, results)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table or json")
	cmd.Flags().DurationVar(&timeout, "timeout", defaultEvaluateTimeout, "deadline for each evaluation")
	return cmd
}

// evaluateURLs runs the same pipeline as the server. Logs go to stderr so
// stdout carries only the rendered verdicts.
func evaluateURLs(ctx context.Context, configPath string, timeout time.Duration, urls []string) ([]domain.AggregateResult, error) {
	cfg, err := bootstrap.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	log, err := bootstrap.NewLogger(cfg, "stderr")
	if err != nil {
		return nil, err
	}
	defer func() { _ = log.Sync() }()

	comps, err := bootstrap.Build(ctx, cfg, telemetry.NewProvider(prometheus.NewRegistry()), log)
	if err != nil {
		return nil, err
	}
	defer func() { _ = comps.Close() }()

	results := make([]domain.AggregateResult, 0, len(urls))
	for _, raw := range urls {
		evalCtx, cancel := context.WithTimeout(ctx, timeout)
		result, evalErr := comps.Evaluator.Evaluate(evalCtx, raw)
		cancel()
		if evalErr != nil {
			log.Error("Evaluation failed", logger.String("url", raw), logger.Error(evalErr))
			if errors.Is(evalErr, context.DeadlineExceeded) {
				return nil, fmt.Errorf("evaluate %q: timed out after %s: %w", raw, timeout, evalErr)
			}
			return nil, fmt.Errorf("evaluate %q: %w", raw, evalErr)
		}
		results = append(results, result)
	}
	return results, nil
}
