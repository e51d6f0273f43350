package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/resume-optimizer/internal/llm"
	"github.com/jonathan/resume-optimizer/internal/observability"
	"github.com/jonathan/resume-optimizer/internal/pipeline"
	"github.com/jonathan/resume-optimizer/internal/repair"
	"github.com/jonathan/resume-optimizer/internal/types"
)

type analyzeOptions struct {
	input   inputFlags
	tier    string
	out     string
	verbose bool
	persist bool
	noCache bool
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Score and rewrite a résumé for a job description",
		Long: "Run the full analysis pipeline once: select the tier, retrieve context, extract facts, " +
			"score the match, rewrite the documents and enforce the number and personal data guardrails. " +
			"The AnalysisResult JSON is written to stdout or --out.",
		Example: "  resume_optimizer analyze --job job.txt --resume resume.txt --vault vault.json --privacy\n" +
			"  resume_optimizer analyze --in application.json --out result.json --verbose",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd, root, opts)
		},
	}
	opts.input.register(cmd)
	cmd.Flags().StringVar(&opts.tier, "tier", "", "Pin the model tier (SIMPLE, MEDIUM, COMPLEX)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Write the result JSON to this file instead of stdout")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Print stage summaries to stderr")
	cmd.Flags().BoolVar(&opts.persist, "persist", false, "Record the run in DATABASE_URL")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "Skip the Redis result cache")
	return cmd
}

func runAnalyze(cmd *cobra.Command, root *rootOptions, opts *analyzeOptions) error {
	cfg, log, err := root.load()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	in, err := opts.input.read(cmd)
	if err != nil {
		return err
	}

	mode, err := cfg.Mode()
	if err != nil {
		return err
	}
	retry := llm.DefaultRetryPolicy()
	retry.OnRetry = func(attempt int, wait time.Duration, err error) {
		log.Warn("retrying model call", zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
	}
	pipelineOpts := pipeline.Options{
		ModelMode: mode,
		APIKey:    cfg.APIKey,
		Config:    cfg.ModelConfig(),
		Retry:     retry,
		Logger:    log,
	}
	if opts.tier != "" {
		tier, err := types.ParseTier(opts.tier)
		if err != nil {
			return err
		}
		pipelineOpts.Tier = tier
	}

	ctx := cmd.Context()
	b, err := openBackends(ctx, cfg, log, opts.persist, !opts.noCache)
	if err != nil {
		return err
	}
	defer b.Close()
	b.apply(&pipelineOpts)

	printer := observability.NewPrinter(cmd.ErrOrStderr())
	if opts.verbose {
		pipelineOpts.OnProgress = verboseProgress(printer)
	}

	result, err := pipeline.Analyze(ctx, in, pipelineOpts)
	if err != nil {
		var guardErr *repair.GuardrailError
		if opts.verbose && errors.As(err, &guardErr) {
			printer.PrintGuardrailIssues(repair.Describe(guardErr.Issues))
		}
		return fmt.Errorf("analysis failed: %w", err)
	}

	if opts.verbose {
		printer.PrintCoverage(result.KeywordCoverage, result.HardRequirementsMissing)
		printer.PrintTrace(result.AnalysisTrace)
	}
	return writeJSON(cmd.OutOrStdout(), opts.out, result)
}

// verboseProgress renders the stage artifacts carried by progress events.
func verboseProgress(printer *observability.Printer) pipeline.ProgressCallback {
	return func(event pipeline.ProgressEvent) {
		switch content := event.Content.(type) {
		case map[string]any:
			if selection, ok := content["retrieval"].(types.RetrievalSelection); ok {
				printer.PrintRetrieval(selection)
			}
			if preview, ok := content["privacy"].([]types.PiiPreviewItem); ok && len(preview) > 0 {
				printer.PrintPrivacyPreview(preview)
			}
		case *types.ExtractFactsResult:
			printer.PrintFacts(content)
		case *types.ScoreMatchResult:
			printer.PrintScore(content)
		case []string:
			if event.Category == pipeline.CategoryGuardrail {
				printer.PrintGuardrailIssues(content)
			}
		}
	}
}
