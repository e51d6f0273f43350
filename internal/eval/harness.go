package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-optimizer/internal/llm"
	"github.com/jonathan/resume-optimizer/internal/logging"
	"github.com/jonathan/resume-optimizer/internal/observability"
	"github.com/jonathan/resume-optimizer/internal/pipeline"
	"github.com/jonathan/resume-optimizer/internal/types"
)

// DefaultConcurrency bounds the number of pipeline runs in flight.
const DefaultConcurrency = 4

// Options configures a harness run.
type Options struct {
	// Tiers to run every fixture at; empty means all three.
	Tiers       []types.Tier
	Concurrency int
	Assertions  []Assertion

	// Passed through to every pipeline run.
	ModelMode llm.ModelMode
	APIKey    string
	Generator llm.Generator
	Config    *llm.Config
	Retry     llm.RetryPolicy
	Logger    *zap.Logger
	Metrics   *observability.Metrics
	Now       func() time.Time
}

// RunReport is the outcome of one fixture at one tier.
type RunReport struct {
	FixtureID        string            `json:"fixtureId"`
	Tier             types.Tier        `json:"tier"`
	DurationMs       int64             `json:"durationMs"`
	Pass             bool              `json:"pass"`
	AssertionResults []AssertionResult `json:"assertionResults"`
	Error            string            `json:"error,omitempty"`
}

// Summary counts runs by outcome.
type Summary struct {
	TotalRuns  int `json:"totalRuns"`
	PassedRuns int `json:"passedRuns"`
	FailedRuns int `json:"failedRuns"`
}

// Report is the JSON document the harness produces.
type Report struct {
	GeneratedAt string      `json:"generatedAt"`
	Summary     Summary     `json:"summary"`
	Runs        []RunReport `json:"runs"`
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// Run executes every fixture at every tier with bounded concurrency. Individual run
// failures are recorded in the report; only cancellation of ctx aborts the harness.
func Run(ctx context.Context, fixtures []Fixture, opts Options) (*Report, error) {
	if len(opts.Tiers) == 0 {
		opts.Tiers = types.Tiers()
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Assertions == nil {
		opts.Assertions = DefaultAssertions()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := logging.OrNop(opts.Logger)

	runs := make([]RunReport, len(fixtures)*len(opts.Tiers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for i, fixture := range fixtures {
		for j, tier := range opts.Tiers {
			slot := i*len(opts.Tiers) + j
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				runs[slot] = runOne(gctx, fixture, tier, opts, log)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("eval aborted: %w", err)
	}

	report := &Report{
		GeneratedAt: opts.Now().UTC().Format(time.RFC3339),
		Runs:        runs,
	}
	for _, r := range runs {
		report.Summary.TotalRuns++
		if r.Pass {
			report.Summary.PassedRuns++
		} else {
			report.Summary.FailedRuns++
		}
	}
	log.Info("eval finished",
		zap.Int("total", report.Summary.TotalRuns),
		zap.Int("passed", report.Summary.PassedRuns),
		zap.Int("failed", report.Summary.FailedRuns))
	return report, nil
}

func runOne(ctx context.Context, fixture Fixture, tier types.Tier, opts Options, log *zap.Logger) RunReport {
	var mu sync.Mutex
	var prompts []types.StageRequest

	started := time.Now()
	result, err := pipeline.Analyze(ctx, fixture.Input, pipeline.Options{
		ModelMode: opts.ModelMode,
		APIKey:    opts.APIKey,
		Generator: opts.Generator,
		Config:    opts.Config,
		Retry:     opts.Retry,
		Tier:      tier,
		Logger:    log.With(zap.String("fixture", fixture.ID)),
		Metrics:   opts.Metrics,
		Now:       opts.Now,
		OnStageRequest: func(req types.StageRequest) {
			mu.Lock()
			defer mu.Unlock()
			prompts = append(prompts, req)
		},
	})
	report := RunReport{
		FixtureID:  fixture.ID,
		Tier:       tier,
		DurationMs: time.Since(started).Milliseconds(),
	}
	if err != nil {
		report.Error = err.Error()
		report.AssertionResults = []AssertionResult{{Name: "completed", Pass: false, Detail: err.Error()}}
		log.Warn("eval run failed", zap.String("fixture", fixture.ID), zap.String("tier", string(tier)), zap.Error(err))
		return report
	}

	report.AssertionResults = append([]AssertionResult{{Name: "completed", Pass: true}},
		Evaluate(opts.Assertions, Observation{Fixture: fixture, Tier: tier, Result: result, Prompts: prompts})...)
	report.Pass = true
	for _, a := range report.AssertionResults {
		if !a.Pass {
			report.Pass = false
			break
		}
	}
	return report
}
