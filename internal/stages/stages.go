// Package stages implements the three model-backed stages: fact extraction, match scoring and
// document rewriting. Each builds a quoted JSON prompt, calls the generator under the retry
// policy, and normalizes the response into the strict result types.
package stages

import (
	"context"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"

	"github.com/jonathan/resume-optimizer/internal/llm"
	"github.com/jonathan/resume-optimizer/internal/prompts"
	"github.com/jonathan/resume-optimizer/internal/schemas"
	"github.com/jonathan/resume-optimizer/internal/types"
)

// Env is what every stage call needs besides its own input.
type Env struct {
	Generator llm.Generator
	Tier      types.Tier
	Settings  llm.TierSettings
	Retry     llm.RetryPolicy
	// OnRequest receives every outbound request before it is sent.
	OnRequest func(types.StageRequest)
	// Outbound, when set, rewrites prompt text right before it leaves the process.
	Outbound func(string) string
	Logger   *zap.Logger
}

func (e Env) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

// Call is the result of one stage invocation.
type Call[T any] struct {
	Result   T
	Attempts int
}

// Retries is the number of attempts beyond the first.
func (c Call[T]) Retries() int {
	if c.Attempts <= 1 {
		return 0
	}
	return c.Attempts - 1
}

type stageSpec struct {
	name       types.StageName
	system     string
	prompt     string
	schema     *genai.Schema
	schemaFile string
}

// invoke sends one stage request and returns the decoded response object.
func invoke(ctx context.Context, env Env, spec stageSpec) (map[string]any, int, error) {
	if env.Generator == nil {
		return nil, 0, &StageError{Stage: spec.name, Message: "no generator configured"}
	}

	system, prompt := spec.system, spec.prompt
	if env.Outbound != nil {
		system = env.Outbound(system)
		prompt = env.Outbound(prompt)
	}

	if env.OnRequest != nil {
		env.OnRequest(types.StageRequest{
			Stage:             spec.name,
			Model:             env.Settings.Model,
			Tier:              env.Tier,
			Prompt:            prompt,
			SystemInstruction: system,
		})
	}

	log := env.logger().With(zap.String("stage", string(spec.name)), zap.String("model", env.Settings.Model))
	policy := env.Retry
	if policy.MaxAttempts == 0 {
		policy = llm.DefaultRetryPolicy()
	}
	onRetry := policy.OnRetry
	policy.OnRetry = func(attempt int, wait time.Duration, err error) {
		log.Warn("transient generator error, backing off",
			zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
		if onRetry != nil {
			onRetry(attempt, wait, err)
		}
	}

	resp, attempts, err := llm.Retry(ctx, policy, env.Generator, llm.Request{
		Model:             env.Settings.Model,
		Prompt:            prompt,
		SystemInstruction: system,
		Schema:            spec.schema,
		MaxOutputTokens:   env.Settings.MaxOutputTokens,
	})
	if err != nil {
		return nil, attempts, &StageError{Stage: spec.name, Message: "generator call failed", Cause: err}
	}

	parsed := llm.ParseResponse(resp.Text, func(doc []byte) error {
		return schemas.ValidateDocument(spec.schemaFile, doc)
	})
	obj, err := parsed.Result()
	if err != nil {
		log.Error("stage response rejected", zap.Stringer("outcome", parsed.Outcome), zap.Error(err))
		return nil, attempts, &StageError{Stage: spec.name, Message: "invalid response", Cause: err}
	}
	log.Debug("stage completed", zap.Int("attempts", attempts), zap.Int("response_bytes", len(resp.Text)))
	return obj, attempts, nil
}

func render(stage types.StageName, part string, data map[string]string) (string, error) {
	template, err := prompts.Stage(string(stage), part)
	if err != nil {
		return "", &StageError{Stage: stage, Message: "prompt template missing", Cause: err}
	}
	return prompts.Format(template, data), nil
}

func buildSpec(stage types.StageName, userPart string, payload any, extra map[string]string, schema *genai.Schema, schemaFile string) (stageSpec, error) {
	quoted, err := prompts.QuotePayload(payload)
	if err != nil {
		return stageSpec{}, &StageError{Stage: stage, Message: "failed to build prompt", Cause: err}
	}
	data := map[string]string{"Payload": quoted}
	for k, v := range extra {
		data[k] = v
	}
	system, err := render(stage, prompts.PartSystem, nil)
	if err != nil {
		return stageSpec{}, err
	}
	prompt, err := render(stage, userPart, data)
	if err != nil {
		return stageSpec{}, err
	}
	return stageSpec{name: stage, system: system, prompt: prompt, schema: schema, schemaFile: schemaFile}, nil
}

type chunkView struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Text   string `json:"text"`
}

type factsPayload struct {
	Stage             types.StageName `json:"stage"`
	Resume            string          `json:"resume"`
	CoverLetter       string          `json:"coverLetter"`
	JobDescription    string          `json:"jobDescription"`
	CompanyInfo       string          `json:"companyInfo,omitempty"`
	AdditionalContext string          `json:"additionalContext,omitempty"`
	PortfolioLinks    []string        `json:"portfolioLinks,omitempty"`
	RetrievedContext  []chunkView     `json:"retrievedContext"`
}

// ExtractFacts asks the model for the candidate's facts. in must already be sanitized when
// privacy mode is on; chunks are the selected retrieval context.
func ExtractFacts(ctx context.Context, env Env, in types.ApplicationInput, chunks []types.RetrievalChunk) (Call[types.ExtractFactsResult], error) {
	payload := factsPayload{
		Stage:             types.StageExtractFacts,
		Resume:            in.ResumeContent,
		CoverLetter:       in.CoverLetterContent,
		JobDescription:    in.JobDescription,
		CompanyInfo:       in.CompanyInfo,
		AdditionalContext: in.AdditionalContext,
		PortfolioLinks:    in.PortfolioLinks,
		RetrievedContext:  make([]chunkView, 0, len(chunks)),
	}
	for _, c := range chunks {
		payload.RetrievedContext = append(payload.RetrievedContext, chunkView{ID: c.ID, Source: c.Source, Text: c.Text})
	}

	spec, err := buildSpec(types.StageExtractFacts, prompts.PartUser, payload, nil, extractFactsSchema, schemas.ExtractFactsSchema)
	if err != nil {
		return Call[types.ExtractFactsResult]{}, err
	}
	obj, attempts, err := invoke(ctx, env, spec)
	if err != nil {
		return Call[types.ExtractFactsResult]{Attempts: attempts}, err
	}
	return Call[types.ExtractFactsResult]{Result: NormalizeFacts(obj), Attempts: attempts}, nil
}

// ScoreInput is what the scoring stage reads.
type ScoreInput struct {
	Facts          types.ExtractFactsResult
	JobDescription string
	Resume         string
	// Advisory is the deterministic coverage, offered to the model as guidance only.
	Advisory types.AtsCoverageResult
	Parsed   types.ParsedJdRequirements
}

type scorePayload struct {
	Stage            types.StageName            `json:"stage"`
	Facts            types.ExtractFactsResult   `json:"facts"`
	JobDescription   string                     `json:"jobDescription"`
	Resume           string                     `json:"resume"`
	Requirements     types.ParsedJdRequirements `json:"requirements"`
	AdvisoryCoverage types.AtsCoverageResult    `json:"advisoryCoverage"`
}

// ScoreMatch scores the facts against the job description. Evidence the model cites that
// cannot be found in the source text is removed.
func ScoreMatch(ctx context.Context, env Env, in ScoreInput) (Call[types.ScoreMatchResult], error) {
	payload := scorePayload{
		Stage:            types.StageScoreMatch,
		Facts:            in.Facts,
		JobDescription:   in.JobDescription,
		Resume:           in.Resume,
		Requirements:     in.Parsed,
		AdvisoryCoverage: in.Advisory,
	}
	spec, err := buildSpec(types.StageScoreMatch, prompts.PartUser, payload, nil, scoreMatchSchema, schemas.ScoreMatchSchema)
	if err != nil {
		return Call[types.ScoreMatchResult]{}, err
	}
	obj, attempts, err := invoke(ctx, env, spec)
	if err != nil {
		return Call[types.ScoreMatchResult]{Attempts: attempts}, err
	}
	result := NormalizeScore(obj)
	result.Improvements = FilterEvidence(result.Improvements, in.Resume, in.JobDescription)
	return Call[types.ScoreMatchResult]{Result: result, Attempts: attempts}, nil
}

// RewriteInput is what the rewrite stage reads. Issues is set only on the corrective pass.
type RewriteInput struct {
	Resume              string
	CoverLetter         string
	JobDescription      string
	Facts               types.ExtractFactsResult
	Improvements        []types.Improvement
	Language            string
	AllowedNumbers      []string
	AllowedPlaceholders []string
	Issues              []string
}

type rewritePayload struct {
	Stage               types.StageName          `json:"stage"`
	Resume              string                   `json:"resume"`
	CoverLetter         string                   `json:"coverLetter"`
	JobDescription      string                   `json:"jobDescription"`
	Facts               types.ExtractFactsResult `json:"facts"`
	Improvements        []types.Improvement      `json:"improvements"`
	AllowedNumbers      []string                 `json:"allowedNumbers"`
	AllowedPlaceholders []string                 `json:"allowedPlaceholders"`
	Issues              []string                 `json:"issues,omitempty"`
}

// RewriteDocs produces the optimized résumé and cover letter. It does not validate the draft;
// guardrail checks and the corrective pass belong to the caller.
func RewriteDocs(ctx context.Context, env Env, in RewriteInput) (Call[types.RewriteDocsResult], error) {
	payload := rewritePayload{
		Stage:               types.StageRewriteDocs,
		Resume:              in.Resume,
		CoverLetter:         in.CoverLetter,
		JobDescription:      in.JobDescription,
		Facts:               in.Facts,
		Improvements:        nonNilImprovements(in.Improvements),
		AllowedNumbers:      nonNilStrings(in.AllowedNumbers),
		AllowedPlaceholders: nonNilStrings(in.AllowedPlaceholders),
		Issues:              in.Issues,
	}
	lang := in.Language
	if lang == "" {
		lang = "en"
	}
	extra := map[string]string{"Language": lang}

	part := prompts.PartUser
	if len(in.Issues) > 0 {
		part = prompts.PartCorrection
		extra["Issues"] = "- " + strings.Join(in.Issues, "\n- ")
		extra["AllowedNumbers"] = listOrNone(in.AllowedNumbers)
		extra["AllowedPlaceholders"] = listOrNone(in.AllowedPlaceholders)
	}

	spec, err := buildSpec(types.StageRewriteDocs, part, payload, extra, rewriteDocsSchema, schemas.RewriteDocsSchema)
	if err != nil {
		return Call[types.RewriteDocsResult]{}, err
	}
	obj, attempts, err := invoke(ctx, env, spec)
	if err != nil {
		return Call[types.RewriteDocsResult]{Attempts: attempts}, err
	}
	return Call[types.RewriteDocsResult]{Result: NormalizeRewrite(obj), Attempts: attempts}, nil
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilImprovements(s []types.Improvement) []types.Improvement {
	if s == nil {
		return []types.Improvement{}
	}
	return s
}
