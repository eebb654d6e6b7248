package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/elifbarlik/AIResearchAutomationAgent/internal/llm"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	response string
	err      error
	tiers    []llm.ModelTier
}

func (f *fakeLLM) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return f.GenerateJSON(ctx, prompt, tier)
}

func (f *fakeLLM) GenerateJSON(_ context.Context, _ string, tier llm.ModelTier) (string, error) {
	f.tiers = append(f.tiers, tier)
	return f.response, f.err
}

func (f *fakeLLM) GetModel(llm.ModelTier) string { return "fake" }
func (f *fakeLLM) Close() error                  { return nil }

func TestPlan_Templates(t *testing.T) {
	p := New()
	ctx := context.Background()

	t.Run("overview mentions topic", func(t *testing.T) {
		steps, err := p.Plan(ctx, types.ResearchRequest{Mode: types.ModeOverview, Topic: "vector databases", Depth: types.DepthShort})
		require.NoError(t, err)
		assert.Len(t, steps, 5)
		assert.Contains(t, steps[0], "vector databases")
	})

	t.Run("detailed overview is longer", func(t *testing.T) {
		short, err := p.Plan(ctx, types.ResearchRequest{Mode: types.ModeOverview, Topic: "x", Depth: types.DepthMedium})
		require.NoError(t, err)
		long, err := p.Plan(ctx, types.ResearchRequest{Mode: types.ModeOverview, Topic: "x", Depth: types.DepthDetailed})
		require.NoError(t, err)
		assert.Greater(t, len(long), len(short))
	})

	t.Run("compare mentions both items in order", func(t *testing.T) {
		steps, err := p.Plan(ctx, types.ResearchRequest{Mode: types.ModeCompare, ItemA: "React", ItemB: "Vue", Depth: types.DepthShort})
		require.NoError(t, err)
		assert.Contains(t, steps[0], "React and Vue")
		assert.Contains(t, steps[1], "React")
		assert.Contains(t, steps[2], "Vue")
	})

	t.Run("detailed compare adds recommendations", func(t *testing.T) {
		steps, err := p.Plan(ctx, types.ResearchRequest{Mode: types.ModeCompare, ItemA: "A", ItemB: "B", Depth: types.DepthDetailed})
		require.NoError(t, err)
		assert.Contains(t, steps, "Derive use-case recommendations")
		assert.Len(t, steps, 8)
	})

	t.Run("custom quotes query", func(t *testing.T) {
		steps, err := p.Plan(ctx, types.ResearchRequest{Mode: types.ModeCustom, Query: "wasm", Depth: types.DepthShort})
		require.NoError(t, err)
		assert.Contains(t, steps[0], `"wasm"`)
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := p.Plan(ctx, types.ResearchRequest{Mode: "deep", Topic: "x", Depth: types.DepthShort})
		var vErr *types.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "mode", vErr.Field)
	})
}

func TestPlan_Deterministic(t *testing.T) {
	req := types.ResearchRequest{Mode: types.ModeOverview, Topic: "Kafka", Depth: types.DepthShort}
	a, err := New().Plan(context.Background(), req)
	require.NoError(t, err)
	b, err := New().Plan(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestPlan_LLMElaboration(t *testing.T) {
	req := types.ResearchRequest{Mode: types.ModeOverview, Topic: "Kafka", Depth: types.DepthShort}

	t.Run("uses LLM steps", func(t *testing.T) {
		client := &fakeLLM{response: "```json\n[\"Survey Kafka docs\", \" \", \"Summarize\"]\n```"}
		steps, err := New(WithLLM(client, time.Second)).Plan(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, []string{"Survey Kafka docs", "Summarize"}, steps)
		assert.Equal(t, []llm.ModelTier{llm.TierLite}, client.tiers)
	})

	t.Run("falls back on LLM error", func(t *testing.T) {
		client := &fakeLLM{err: errors.New("quota exceeded")}
		steps, err := New(WithLLM(client, time.Second)).Plan(context.Background(), req)
		require.NoError(t, err)
		expected, _ := TemplateSteps(req)
		assert.Equal(t, expected, steps)
	})

	t.Run("falls back on malformed output", func(t *testing.T) {
		client := &fakeLLM{response: "not a list"}
		steps, err := New(WithLLM(client, time.Second)).Plan(context.Background(), req)
		require.NoError(t, err)
		assert.Len(t, steps, 5)
	})

	t.Run("falls back on empty list", func(t *testing.T) {
		client := &fakeLLM{response: "[]"}
		steps, err := New(WithLLM(client, time.Second)).Plan(context.Background(), req)
		require.NoError(t, err)
		assert.Len(t, steps, 5)
	})

	t.Run("invalid mode is still fatal", func(t *testing.T) {
		client := &fakeLLM{response: `["x"]`}
		_, err := New(WithLLM(client, time.Second)).Plan(context.Background(), types.ResearchRequest{Mode: "bogus"})
		assert.Error(t, err)
		assert.Empty(t, client.tiers)
	})
}
