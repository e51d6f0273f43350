package main

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/resume-optimizer/internal/eval"
	"github.com/jonathan/resume-optimizer/internal/llm"
	"github.com/jonathan/resume-optimizer/internal/observability"
	"github.com/jonathan/resume-optimizer/internal/types"
)

type evalOptions struct {
	fixturesDir string
	tiers       string
	concurrency int
	out         string
}

func newEvalCmd(root *rootOptions) *cobra.Command {
	opts := &evalOptions{}
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Run the fixture suite through the pipeline and check every guardrail",
		Long: "Run each fixture at each tier and evaluate the assertions: schema validity, trace " +
			"completeness, evidence length, number authorization, prompt privacy and expected keyword " +
			"coverage. Writes a JSON report and exits non-zero when any run fails.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEval(cmd, root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.fixturesDir, "fixtures", "", "Directory of fixture JSON files (default: built-in fixtures)")
	cmd.Flags().StringVar(&opts.tiers, "tiers", "", "Comma-separated tiers to run (default: all)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "Concurrent runs (default: EVAL_CONCURRENCY)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Write the report to this file instead of stdout")
	return cmd
}

func parseTiers(list string) ([]types.Tier, error) {
	var tiers []types.Tier
	for _, name := range strings.Split(list, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		tier, err := types.ParseTier(name)
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, tier)
	}
	return tiers, nil
}

func runEval(cmd *cobra.Command, root *rootOptions, opts *evalOptions) error {
	cfg, log, err := root.load()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	tiers, err := parseTiers(opts.tiers)
	if err != nil {
		return err
	}

	var fixtures []eval.Fixture
	if opts.fixturesDir != "" {
		fixtures, err = eval.LoadFixtures(opts.fixturesDir)
	} else {
		fixtures, err = eval.BuiltinFixtures()
	}
	if err != nil {
		return err
	}

	mode, err := cfg.Mode()
	if err != nil {
		return err
	}
	concurrency := opts.concurrency
	if concurrency <= 0 {
		concurrency = cfg.EvalConcurrency
	}

	log.Info("running eval",
		zap.Int("fixtures", len(fixtures)),
		zap.String("mode", string(mode)),
		zap.Int("concurrency", concurrency))

	report, err := eval.Run(cmd.Context(), fixtures, eval.Options{
		Tiers:       tiers,
		Concurrency: concurrency,
		ModelMode:   mode,
		APIKey:      cfg.APIKey,
		Config:      cfg.ModelConfig(),
		Retry:       llm.DefaultRetryPolicy(),
		Logger:      log,
		Metrics:     observability.NewMetrics(prometheus.NewRegistry()),
	})
	if err != nil {
		return err
	}

	if err := writeJSON(cmd.OutOrStdout(), opts.out, report); err != nil {
		return err
	}
	if report.Summary.FailedRuns > 0 {
		return fmt.Errorf("%d of %d eval runs failed", report.Summary.FailedRuns, report.Summary.TotalRuns)
	}
	log.Info("eval passed", zap.Int("runs", report.Summary.TotalRuns))
	return nil
}
