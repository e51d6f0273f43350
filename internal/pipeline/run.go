// Package pipeline orchestrates one optimization run: input preparation, the three model
// stages, guardrail validation with a single corrective pass, and final assembly.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/resume-optimizer/internal/cache"
	"github.com/jonathan/resume-optimizer/internal/db"
	"github.com/jonathan/resume-optimizer/internal/input"
	"github.com/jonathan/resume-optimizer/internal/llm"
	"github.com/jonathan/resume-optimizer/internal/logging"
	"github.com/jonathan/resume-optimizer/internal/observability"
	"github.com/jonathan/resume-optimizer/internal/privacy"
	"github.com/jonathan/resume-optimizer/internal/repair"
	"github.com/jonathan/resume-optimizer/internal/retrieval"
	"github.com/jonathan/resume-optimizer/internal/stages"
	"github.com/jonathan/resume-optimizer/internal/types"
	"github.com/jonathan/resume-optimizer/internal/vault"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Store persists runs and their step artifacts. *db.DB satisfies it.
type Store interface {
	CreateRun(ctx context.Context, inputHash string, tier types.Tier, mode types.AnalysisMode) (uuid.UUID, error)
	SaveArtifact(ctx context.Context, runID uuid.UUID, step, category string, content any) error
	CompleteRun(ctx context.Context, runID uuid.UUID, status, errMessage string) error
}

// Cache holds finished results. *cache.Redis satisfies it. Get returns nil on a miss.
type Cache interface {
	Get(ctx context.Context, key string) (*types.AnalysisResult, error)
	Set(ctx context.Context, key string, result *types.AnalysisResult) error
}

// Options configures a run. Every field is optional.
type Options struct {
	// ModelMode and APIKey select the generator when Generator is nil.
	ModelMode llm.ModelMode
	APIKey    string
	// Generator overrides strategy selection.
	Generator llm.Generator
	Config    *llm.Config
	Retry     llm.RetryPolicy
	// Tier pins the model tier instead of selecting it from the input.
	Tier types.Tier

	OnStageRequest func(types.StageRequest)
	OnProgress     ProgressCallback

	Logger  *zap.Logger
	Metrics *observability.Metrics
	Store   Store
	Cache   Cache
	Now     func() time.Time
}

// run carries the mutable state of one Analyze call.
type run struct {
	opts    Options
	log     *zap.Logger
	state   State
	runID   uuid.UUID
	persist bool
	retries int
	// outbound redacts prompts when privacy mode is on.
	outbound *privacy.Redactor
}

// Analyze runs the full pipeline on raw input and returns a validated result.
// Failures are *RunError values naming the state the run stopped in.
func Analyze(ctx context.Context, in types.ApplicationInput, opts Options) (*types.AnalysisResult, error) {
	if opts.Config == nil {
		opts.Config = llm.DefaultConfig()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	r := &run{
		opts:  opts,
		log:   logging.OrNop(opts.Logger),
		state: StateIdle,
		runID: uuid.New(),
	}

	started := opts.Now()
	done := opts.Metrics.RunStarted()
	defer done()

	result, tier, err := r.execute(ctx, in)
	if err != nil {
		r.fail(ctx, err)
		opts.Metrics.ObserveRun(string(tier), db.RunStatusFailed, opts.Now().Sub(started))
		return nil, err
	}
	opts.Metrics.ObserveRun(string(tier), db.RunStatusDone, opts.Now().Sub(started))
	return result, nil
}

// emitProgress calls the progress callback if configured
func (r *run) emitProgress(step, category, message string, content any) {
	if r.opts.OnProgress != nil {
		r.opts.OnProgress(ProgressEvent{
			Step:     step,
			Category: category,
			Message:  message,
			RunID:    r.runID.String(),
			Content:  content,
		})
	}
}

// enter moves the state machine, logs the transition and emits it as progress.
func (r *run) enter(next State, message string, content any) error {
	if !CanTransition(r.state, next) {
		return &RunError{State: r.state, Cause: fmt.Errorf("%w: %s -> %s", ErrStateTransition, r.state, next)}
	}
	r.log.Info("pipeline state",
		zap.String("from", string(r.state)),
		zap.String("to", string(next)),
		zap.String("message", message))
	r.state = next
	r.emitProgress(string(next), stateCategory[next], message, content)
	return nil
}

func (r *run) fail(ctx context.Context, err error) {
	if r.state.Terminal() {
		return
	}
	from := r.state
	r.state = StateFailed
	r.log.Error("pipeline failed", zap.String("state", string(from)), zap.Error(err))
	r.emitProgress(string(StateFailed), stateCategory[StateFailed], err.Error(), nil)
	if r.persist {
		if cerr := r.opts.Store.CompleteRun(ctx, r.runID, db.RunStatusFailed, err.Error()); cerr != nil {
			r.log.Warn("failed to record run failure", zap.Error(cerr))
		}
	}
}

// failed wraps err with the current state.
func (r *run) failed(err error) error {
	return &RunError{State: r.state, Cause: err}
}

// saveArtifact persists a step output when a store is configured. Storage problems never
// fail the run.
func (r *run) saveArtifact(ctx context.Context, step, category string, content any) {
	if !r.persist {
		return
	}
	if err := r.opts.Store.SaveArtifact(ctx, r.runID, step, category, content); err != nil {
		r.log.Warn("failed to save artifact", zap.String("step", step), zap.Error(err))
	}
}

// prepared is everything derived from the input before the first model call.
type prepared struct {
	raw       types.ApplicationInput
	hash      string
	decision  input.TierDecision
	settings  llm.TierSettings
	privacy   privacy.PrepareResult
	selection types.RetrievalSelection
	cacheKey  string
}

func (r *run) execute(ctx context.Context, in types.ApplicationInput) (*types.AnalysisResult, types.Tier, error) {
	if err := r.enter(StatePreparingInput, "Preparing input...", nil); err != nil {
		return nil, "", err
	}

	p, err := r.prepare(in)
	if err != nil {
		return nil, p.decision.Tier, r.failed(err)
	}
	r.log = r.log.With(zap.String("input_hash", p.hash), zap.String("tier", string(p.decision.Tier)))

	gen := r.opts.Generator
	if gen == nil {
		gen, err = llm.NewGenerator(ctx, r.opts.ModelMode, r.opts.APIKey)
		if err != nil {
			return nil, p.decision.Tier, r.failed(err)
		}
		defer func() {
			if cerr := llm.Close(gen); cerr != nil {
				r.log.Warn("failed to close generator", zap.Error(cerr))
			}
		}()
	}

	if cached := r.lookupCache(ctx, p.cacheKey); cached != nil {
		if err := r.enter(StateDone, "Returning cached result", cached.AnalysisTrace); err != nil {
			return nil, p.decision.Tier, err
		}
		return cached, p.decision.Tier, nil
	}

	r.startRecord(ctx, p)
	r.log = r.log.With(zap.String("run_id", r.runID.String()))
	r.saveArtifact(ctx, db.StepTierDecision, db.CategoryInput, p.decision)
	r.saveArtifact(ctx, db.StepRetrieval, db.CategoryInput, p.selection)
	r.emitProgress(string(StatePreparingInput), CategoryInput,
		fmt.Sprintf("Tier %s (%s), %d chunks selected, %d values redacted",
			p.decision.Tier, p.decision.Reason, len(p.selection.Chunks), len(p.privacy.Entries)),
		map[string]any{"tier": p.decision, "retrieval": p.selection, "privacy": p.privacy.Preview})

	result, err := r.runStages(ctx, p, r.stageEnv(gen, p))
	if err != nil {
		return nil, p.decision.Tier, err
	}

	if err := r.enter(StateDone, "Analysis complete", result.AnalysisTrace); err != nil {
		return nil, p.decision.Tier, err
	}
	r.finishRecord(ctx, p, result)
	return result, p.decision.Tier, nil
}

func (r *run) prepare(in types.ApplicationInput) (prepared, error) {
	if err := in.Validate(); err != nil {
		return prepared{}, &InputError{Message: "application input failed validation", Cause: err}
	}
	hash, err := input.Hash(in)
	if err != nil {
		return prepared{}, &InputError{Message: "could not hash input", Cause: err}
	}
	decision := input.SelectTier(in)
	if r.opts.Tier != "" {
		decision.Tier = r.opts.Tier
		decision.Reason = "tier pinned by caller"
	}
	settings := r.opts.Config.For(decision.Tier)

	// redaction runs on the raw text so line structure still separates adjacent values
	prep := privacy.Prepare(in)
	selection := retrieval.SelectChunks(prep.Sanitized, settings.RetrievalLimit)

	return prepared{
		raw:       in,
		hash:      hash,
		decision:  decision,
		settings:  settings,
		privacy:   prep,
		selection: selection,
		cacheKey:  cache.Key(hash, decision.Tier, in.Mode()),
	}, nil
}

func (r *run) lookupCache(ctx context.Context, key string) *types.AnalysisResult {
	if r.opts.Cache == nil {
		return nil
	}
	cached, err := r.opts.Cache.Get(ctx, key)
	switch {
	case err != nil:
		r.opts.Metrics.ObserveCache("error")
		r.log.Warn("cache lookup failed", zap.Error(err))
		return nil
	case cached == nil:
		r.opts.Metrics.ObserveCache("miss")
		return nil
	default:
		r.opts.Metrics.ObserveCache("hit")
		return cached
	}
}

func (r *run) startRecord(ctx context.Context, p prepared) {
	if r.opts.Store == nil {
		return
	}
	id, err := r.opts.Store.CreateRun(ctx, p.hash, p.decision.Tier, p.raw.Mode())
	if err != nil {
		r.log.Warn("failed to create run record, continuing without persistence", zap.Error(err))
		return
	}
	r.runID = id
	r.persist = true
}

func (r *run) finishRecord(ctx context.Context, p prepared, result *types.AnalysisResult) {
	r.saveArtifact(ctx, db.StepResult, db.CategoryOutput, result)
	if r.persist {
		if err := r.opts.Store.CompleteRun(ctx, r.runID, db.RunStatusDone, ""); err != nil {
			r.log.Warn("failed to complete run record", zap.Error(err))
		}
	}
	if r.opts.Cache != nil {
		if err := r.opts.Cache.Set(ctx, p.cacheKey, result); err != nil {
			r.log.Warn("failed to cache result", zap.Error(err))
		}
	}
}

// stageEnv builds the per-run stage environment. With privacy mode on, every outbound
// prompt passes through a redactor seeded with the run's entries, so a value the model
// echoes back is replaced with the placeholder it already has.
func (r *run) stageEnv(gen llm.Generator, p prepared) stages.Env {
	env := stages.Env{
		Generator: gen,
		Tier:      p.decision.Tier,
		Settings:  p.settings,
		Retry:     r.opts.Retry,
		OnRequest: r.opts.OnStageRequest,
		Logger:    r.log,
	}
	if p.raw.PrivacyMode {
		r.outbound = privacy.NewRedactorFromEntries(p.privacy.Entries)
		env.Outbound = r.outbound.Redact
	}
	return env
}

// newGuard collects what a rewrite is checked against. Personal data the candidate supplied
// is allowed whether or not privacy mode is on. Numbers come from the vault, or from the
// candidate's own documents when the vault is empty. Placeholders the outbound redactor
// issues are restored too, but their values are not added to the allowed personal data.
func newGuard(p prepared, outbound *privacy.Redactor) repair.Guard {
	allowedPII := append(privacy.CollectEntries(p.raw), p.privacy.Entries...)

	var rawTexts []string
	for _, f := range p.raw.TextFields() {
		rawTexts = append(rawTexts, privacy.MaskDetected(f.Text))
	}

	return repair.Guard{
		Placeholders:   p.privacy.Entries,
		AllowedPII:     allowedPII,
		AllowedNumbers: vault.AuthorizedNumbers(p.raw.MetricsVault, rawTexts...),
		Outbound:       outbound,
	}
}

func (r *run) runStages(ctx context.Context, p prepared, env stages.Env) (*types.AnalysisResult, error) {
	sanitized := p.privacy.Sanitized

	if err := r.enter(StateExtractingFacts, "Extracting candidate facts...", nil); err != nil {
		return nil, err
	}
	factsCall, err := stages.ExtractFacts(ctx, env, sanitized, p.selection.Chunks)
	r.recordStage(types.StageExtractFacts, factsCall.Retries(), err)
	if err != nil {
		return nil, r.failed(err)
	}
	facts := factsCall.Result
	r.saveArtifact(ctx, db.StepFacts, db.CategoryStage, facts)
	r.emitProgress(string(StateExtractingFacts), CategoryStage,
		fmt.Sprintf("Extracted %d skills and %d achievements", len(facts.Skills), len(facts.Achievements)), &facts)

	if err := r.enter(StateScoringMatch, "Scoring match...", nil); err != nil {
		return nil, err
	}
	parsed, advisory := atsAdvisory(sanitized.JobDescription, facts)
	scoreCall, err := stages.ScoreMatch(ctx, env, stages.ScoreInput{
		Facts:          facts,
		JobDescription: sanitized.JobDescription,
		Resume:         sanitized.ResumeContent,
		Advisory:       advisory,
		Parsed:         parsed,
	})
	r.recordStage(types.StageScoreMatch, scoreCall.Retries(), err)
	if err != nil {
		return nil, r.failed(err)
	}
	score := scoreCall.Result
	r.saveArtifact(ctx, db.StepScore, db.CategoryStage, score)
	r.emitProgress(string(StateScoringMatch), CategoryStage,
		fmt.Sprintf("Scored match with %d improvements", len(score.Improvements)), &score)

	outcome, err := r.rewrite(ctx, p, env, facts, score)
	if err != nil {
		return nil, err
	}

	if err := r.enter(StateAssemblingResult, "Assembling result...", nil); err != nil {
		return nil, err
	}
	result := assemble(p, facts, score, outcome.Draft, r.retries, r.opts.Now())
	if err := validateResult(result); err != nil {
		return nil, r.failed(err)
	}
	return result, nil
}

func (r *run) recordStage(stage types.StageName, retries int, err error) {
	r.retries += retries
	r.opts.Metrics.ObserveStage(string(stage), retries, err)
}

// rewrite runs the rewrite stage under the validate-then-correct-once policy.
func (r *run) rewrite(ctx context.Context, p prepared, env stages.Env, facts types.ExtractFactsResult, score types.ScoreMatchResult) (repair.Outcome, error) {
	sanitized := p.privacy.Sanitized
	guard := newGuard(p, r.outbound)

	if err := r.enter(StateRewritingDocs, "Rewriting documents...", nil); err != nil {
		return repair.Outcome{}, err
	}

	generate := func(ctx context.Context, issues []repair.Issue) (types.RewriteDocsResult, error) {
		call, err := stages.RewriteDocs(ctx, env, stages.RewriteInput{
			Resume:              sanitized.ResumeContent,
			CoverLetter:         sanitized.CoverLetterContent,
			JobDescription:      sanitized.JobDescription,
			Facts:               facts,
			Improvements:        score.Improvements,
			Language:            facts.Language,
			AllowedNumbers:      guard.AllowedNumbers.Sorted(),
			AllowedPlaceholders: guard.PlaceholderTokens(),
			Issues:              repair.Describe(issues),
		})
		r.recordStage(types.StageRewriteDocs, call.Retries(), err)
		if err == nil {
			r.saveArtifact(ctx, db.StepRewrite, db.CategoryStage, call.Result)
		}
		return call.Result, err
	}

	var transitionErr error
	onPhase := func(phase repair.Phase) {
		if transitionErr != nil {
			return
		}
		switch phase {
		case repair.PhaseValidating:
			transitionErr = r.enter(StateValidatingRewrite, "Validating rewrite...", nil)
		case repair.PhaseCorrecting:
			r.retries++
			transitionErr = r.enter(StateCorrectingRewrite, "Draft broke guardrails, requesting one correction...", nil)
		case repair.PhaseValidatingCorrection:
			transitionErr = r.enter(StateValidatingCorrection, "Validating corrected draft...", nil)
		}
	}

	outcome, err := repair.CorrectOnce(ctx, guard, generate, onPhase)
	if len(outcome.FirstIssues) > 0 {
		described := repair.Describe(outcome.FirstIssues)
		r.saveArtifact(ctx, db.StepGuardrail, db.CategoryStage, described)
		r.emitProgress(string(r.state), CategoryGuardrail,
			fmt.Sprintf("First draft had %d guardrail issues", len(described)), described)
	}
	if transitionErr != nil {
		return repair.Outcome{}, transitionErr
	}
	if err != nil {
		var guardErr *repair.GuardrailError
		if errors.As(err, &guardErr) {
			r.opts.Metrics.ObserveGuardrail("failed")
		}
		return repair.Outcome{}, r.failed(err)
	}
	if outcome.Corrected {
		r.opts.Metrics.ObserveGuardrail("corrected")
	} else {
		r.opts.Metrics.ObserveGuardrail("passed")
	}
	return outcome, nil
}
