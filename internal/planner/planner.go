// Package planner produces the human-readable step list for a research run.
// Steps are for observability only and never drive control flow.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/elifbarlik/AIResearchAutomationAgent/internal/llm"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/prompts"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/schemas"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/types"
)

// Planner builds step lists from fixed templates, optionally elaborated by an LLM
type Planner struct {
	client  llm.Client
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Planner
type Option func(*Planner)

// WithLLM enables LLM elaboration of the template steps
func WithLLM(client llm.Client, timeout time.Duration) Option {
	return func(p *Planner) {
		p.client = client
		p.timeout = timeout
	}
}

// WithLogger sets the logger used for fallback warnings
func WithLogger(logger *slog.Logger) Option {
	return func(p *Planner) {
		p.logger = logger
	}
}

// New creates a Planner. Without WithLLM it is fully deterministic.
func New(opts ...Option) *Planner {
	p := &Planner{
		timeout: llm.DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "planner")
	return p
}

// Plan returns the ordered steps for a request.
// Only an unknown mode is an error; LLM failures fall back to the template.
func (p *Planner) Plan(ctx context.Context, req types.ResearchRequest) ([]string, error) {
	steps, err := TemplateSteps(req)
	if err != nil {
		return nil, err
	}
	if p.client == nil {
		return steps, nil
	}

	elaborated, err := p.elaborate(ctx, req, steps)
	if err != nil {
		p.logger.Warn("plan elaboration failed, using template", "mode", req.Mode, "error", err)
		return steps, nil
	}
	return elaborated, nil
}

// TemplateSteps returns the deterministic plan for a request
func TemplateSteps(req types.ResearchRequest) ([]string, error) {
	detailed := req.Depth == types.DepthDetailed

	switch req.Mode {
	case types.ModeOverview:
		if detailed {
			return []string{
				fmt.Sprintf("Conduct background research on %s", req.Topic),
				fmt.Sprintf("Define specific research questions about %s", req.Topic),
				"Search the web for primary and secondary sources",
				"Review each source systematically",
				"Analyze the findings and extract insights",
				"Cross-reference findings across sources",
				"Synthesize the information into a coherent narrative",
				"Generate a comprehensive detailed report",
			}, nil
		}
		return []string{
			fmt.Sprintf("Define research scope for %s", req.Topic),
			"Identify key topics and keywords",
			"Search the web for relevant sources",
			"Extract and summarize key information",
			"Compile findings into an overview report",
		}, nil

	case types.ModeCompare:
		steps := []string{
			fmt.Sprintf("Identify comparison criteria for %s and %s", req.ItemA, req.ItemB),
			fmt.Sprintf("Research %s independently", req.ItemA),
			fmt.Sprintf("Research %s independently", req.ItemB),
			"Extract comparable data points",
			"Perform side-by-side analysis",
			"Highlight similarities and differences",
			"Generate comparative summary report",
		}
		if detailed {
			steps = append(steps[:6:6], "Derive use-case recommendations", "Generate comprehensive comparison report")
		}
		return steps, nil

	case types.ModeCustom:
		return []string{
			fmt.Sprintf("Interpret the query %q", req.Query),
			"Decide between an overview and a comparison",
			"Search the web for relevant sources",
			"Analyze the findings",
			"Compile findings into a report",
		}, nil

	default:
		return nil, &types.ValidationError{Field: "mode", Message: fmt.Sprintf("unknown mode %q", req.Mode)}
	}
}

func (p *Planner) elaborate(ctx context.Context, req types.ResearchRequest, draft []string) ([]string, error) {
	prompt, err := prompts.Render("planner.json", "elaborate-steps", map[string]string{
		"Objective": req.Objective(),
		"Mode":      string(req.Mode),
		"Depth":     string(req.Depth),
		"Draft":     "- " + strings.Join(draft, "\n- "),
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	raw, err := p.client.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		return nil, err
	}

	cleaned := llm.CleanJSONBlock(raw)
	if err := schemas.Validate(schemas.Plan, cleaned); err != nil {
		return nil, err
	}

	var steps []string
	if err := json.Unmarshal([]byte(cleaned), &steps); err != nil {
		return nil, fmt.Errorf("failed to parse plan steps: %w", err)
	}

	out := make([]string, 0, len(steps))
	for _, s := range steps {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("LLM returned no plan steps")
	}
	return out, nil
}
