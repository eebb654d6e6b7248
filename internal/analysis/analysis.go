// Package analysis turns grouped search results into a structured AnalysisResult
// with a single LLM call. Parsing is best effort: a malformed response degrades
// to partial or empty fields, only provider failures are errors.
package analysis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/elifbarlik/AIResearchAutomationAgent/internal/llm"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/schemas"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/types"
)

// Analyzer produces analyses with an LLM client
type Analyzer struct {
	client       llm.Client
	timeout      time.Duration
	snippetLimit int
	logger       *slog.Logger
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithTimeout bounds each LLM call
func WithTimeout(d time.Duration) Option {
	return func(a *Analyzer) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithSnippetLimit sets the per-result snippet budget in runes
func WithSnippetLimit(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.snippetLimit = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// New creates an Analyzer
func New(client llm.Client, opts ...Option) *Analyzer {
	a := &Analyzer{
		client:       client,
		timeout:      llm.DefaultTimeout,
		snippetLimit: DefaultSnippetLimit,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "analysis")
	return a
}

// TierFor returns the model tier used for a depth
func TierFor(depth types.Depth) llm.ModelTier {
	if depth == types.DepthDetailed {
		return llm.TierAdvanced
	}
	return llm.TierStandard
}

// Analyze builds the prompt, calls the LLM once and parses the response.
// The request must already be resolved to overview or compare.
func (a *Analyzer) Analyze(ctx context.Context, req types.ResearchRequest, groups []types.ResultGroup) (*types.AnalysisResult, error) {
	prompt, err := BuildPrompt(req, groups, a.snippetLimit)
	if err != nil {
		return nil, err
	}

	tier := TierFor(req.Depth)
	raw, err := a.generate(ctx, a.client.GenerateJSON, prompt, tier)
	if err != nil {
		return nil, err
	}

	result := a.parse(ctx, raw, tier)
	a.finish(result, req, groups)
	return result, nil
}

type generateFunc func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)

func (a *Analyzer) generate(ctx context.Context, call generateFunc, prompt string, tier llm.ModelTier) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := call(ctx, prompt, tier)
	if err != nil {
		var unavailable *llm.UnavailableError
		if errors.As(err, &unavailable) {
			return "", err
		}
		return "", &llm.UnavailableError{Model: a.client.GetModel(tier), Cause: err}
	}
	return raw, nil
}

// parse runs the fallback chain: JSON, one correction round, then Markdown headings.
// raw must be the whole response; the Markdown fallback reads every line of it.
func (a *Analyzer) parse(ctx context.Context, raw string, tier llm.ModelTier) *types.AnalysisResult {
	decoded, err := decodeJSON(raw)
	if err == nil {
		a.check(raw, decoded)
		return decoded.analysis
	}

	a.logger.Warn("analysis response is not valid JSON, requesting correction", "error", err)
	corrected, cerr := a.correct(ctx, raw, err, tier)
	if cerr == nil {
		if decoded, err := decodeJSON(corrected); err == nil {
			a.check(corrected, decoded)
			return decoded.analysis
		}
		raw = corrected
	} else {
		a.logger.Warn("analysis correction failed", "error", cerr)
	}

	a.logger.Warn("falling back to markdown parsing of analysis response")
	return parseMarkdown(llm.StripCodeFence(raw))
}

// correct asks for the response again as plain text, so a reply that is
// still not JSON reaches the Markdown fallback intact
func (a *Analyzer) correct(ctx context.Context, raw string, decodeErr error, tier llm.ModelTier) (string, error) {
	prompt, err := BuildCorrectionPrompt(raw, decodeErr)
	if err != nil {
		return "", err
	}
	return a.generate(ctx, a.client.GenerateContent, prompt, tier)
}

// check logs schema violations and partially decoded fields; missing fields stay empty
func (a *Analyzer) check(raw string, decoded decodeResult) {
	if decoded.partial != nil {
		a.logger.Warn("analysis response has mistyped fields", "error", decoded.partial)
	}
	text, _ := cutObject(raw)
	if err := schemas.Validate(schemas.Analysis, text); err != nil {
		var vErr *schemas.ValidationError
		if errors.As(err, &vErr) {
			a.logger.Warn("analysis response does not match schema", "fields", vErr.Fields())
			return
		}
		a.logger.Warn("analysis schema check failed", "error", err)
	}
}

// finish attaches sources and fills defaults so renderers never see nil
func (a *Analyzer) finish(result *types.AnalysisResult, req types.ResearchRequest, groups []types.ResultGroup) {
	result.Sources = extractSources(groups)

	if req.Mode == types.ModeCompare {
		if result.Comparison == nil {
			result.Comparison = &types.Comparison{}
		}
		if result.Comparison.ItemA.Name == "" {
			result.Comparison.ItemA.Name = req.ItemA
		}
		if result.Comparison.ItemB.Name == "" {
			result.Comparison.ItemB.Name = req.ItemB
		}
	} else {
		result.Comparison = nil
		result.Recommendations = nil
	}

	result.Normalize()
	a.logger.Debug("analysis complete",
		"key_points", len(result.KeyPoints),
		"pros", len(result.Pros),
		"cons", len(result.Cons),
		"sources", len(result.Sources),
	)
}
