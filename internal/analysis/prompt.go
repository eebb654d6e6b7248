package analysis

import (
	"fmt"
	"strings"

	"github.com/elifbarlik/AIResearchAutomationAgent/internal/prompts"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/types"
)

// DefaultSnippetLimit is the per-result snippet budget in runes
const DefaultSnippetLimit = 800

const promptFile = "analysis.json"

// BuildPrompt renders the analysis prompt for a resolved request
func BuildPrompt(req types.ResearchRequest, groups []types.ResultGroup, snippetLimit int) (string, error) {
	depthInstruction, err := prompts.Get(promptFile, "depth-"+string(req.Depth))
	if err != nil {
		return "", err
	}

	data := map[string]string{
		"DepthInstruction": depthInstruction,
		"Depth":            string(req.Depth),
		"Results":          formatResults(groups, snippetLimit, req.Mode == types.ModeCompare),
	}

	switch req.Mode {
	case types.ModeOverview:
		data["Topic"] = req.Topic
		return prompts.Render(promptFile, "analyze-overview", data)
	case types.ModeCompare:
		data["ItemA"] = req.ItemA
		data["ItemB"] = req.ItemB
		return prompts.Render(promptFile, "analyze-compare", data)
	default:
		return "", &types.ValidationError{Field: "mode", Message: fmt.Sprintf("cannot analyze mode %q", req.Mode)}
	}
}

// BuildCorrectionPrompt asks the model to repair a response that failed to decode
func BuildCorrectionPrompt(response string, decodeErr error) (string, error) {
	return prompts.Render(promptFile, "correct-json", map[string]string{
		"Error":    decodeErr.Error(),
		"Response": response,
	})
}

func formatResults(groups []types.ResultGroup, snippetLimit int, labelled bool) string {
	var sb strings.Builder
	n := 0
	for _, g := range groups {
		if labelled {
			fmt.Fprintf(&sb, "### Results for %s\n", g.Label)
		}
		if len(g.Results) == 0 {
			sb.WriteString("(no results)\n")
		}
		for _, r := range g.Results {
			n++
			fmt.Fprintf(&sb, "[%d] %s\nURL: %s\nSnippet: %s\n\n", n, r.Title, r.URL, Truncate(r.Snippet, snippetLimit))
		}
	}
	return strings.TrimSpace(sb.String())
}

// Truncate keeps the first limit runes of s and marks the cut with "...".
// A non-positive limit disables truncation.
func Truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit])) + "..."
}
