package analysis

import (
	"bufio"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/elifbarlik/AIResearchAutomationAgent/internal/llm"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/types"
)

// decodeResult is the outcome of decoding a JSON response
type decodeResult struct {
	analysis *types.AnalysisResult
	// partial is set when some fields had the wrong type and were skipped
	partial error
}

// decodeJSON strips code fences, cuts the text to its outermost {...} and decodes it.
// Type mismatches on individual fields do not fail decoding; they are reported in partial.
func decodeJSON(raw string) (decodeResult, error) {
	text, ok := cutObject(raw)
	if !ok {
		return decodeResult{}, errors.New("no JSON object in response")
	}

	var result types.AnalysisResult
	err := json.Unmarshal([]byte(text), &result)
	if err == nil {
		return decodeResult{analysis: &result}, nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return decodeResult{analysis: &result, partial: err}, nil
	}
	return decodeResult{}, err
}

// cutObject cleans raw and cuts it to the span from the first "{" to the last "}"
func cutObject(raw string) (string, bool) {
	text := llm.CleanJSONBlock(raw)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return text, false
	}
	return text[start : end+1], true
}

var headingPattern = regexp.MustCompile(`^\s{0,3}#{1,6}\s+(.+?)\s*#*\s*$`)
var boldHeadingPattern = regexp.MustCompile(`^\s*\*\*(.+?)\*\*:?\s*$`)
var bulletPattern = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+(.+)$`)

type section int

const (
	sectionNone section = iota
	sectionSummary
	sectionKeyPoints
	sectionPros
	sectionCons
	sectionOther
)

func classifyHeading(title string) section {
	t := strings.ToLower(strings.Trim(title, " :*"))
	switch {
	case strings.Contains(t, "summary") || t == "overview":
		return sectionSummary
	case strings.Contains(t, "key point") || strings.Contains(t, "key finding") || strings.Contains(t, "key difference"):
		return sectionKeyPoints
	case t == "pros" || strings.Contains(t, "advantage") || strings.Contains(t, "strength"):
		return sectionPros
	case t == "cons" || strings.Contains(t, "disadvantage") || strings.Contains(t, "limitation") || strings.Contains(t, "weakness"):
		return sectionCons
	default:
		return sectionOther
	}
}

// parseMarkdown recovers an analysis from free text with Summary, Key Points,
// Pros and Cons headings. Missing sections stay empty. Text without any
// recognized heading becomes the summary unless it looks like broken JSON.
func parseMarkdown(raw string) *types.AnalysisResult {
	result := &types.AnalysisResult{}
	var summary []string
	current := sectionNone
	recognized := false

	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if m := headingPattern.FindStringSubmatch(line); m != nil {
			current = classifyHeading(m[1])
			recognized = recognized || current != sectionOther
			continue
		}
		if m := boldHeadingPattern.FindStringSubmatch(line); m != nil {
			if s := classifyHeading(m[1]); s != sectionOther {
				current = s
				recognized = true
				continue
			}
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed == "---" {
			continue
		}

		item := trimmed
		if m := bulletPattern.FindStringSubmatch(line); m != nil {
			item = strings.TrimSpace(m[1])
		}

		switch current {
		case sectionSummary:
			summary = append(summary, trimmed)
		case sectionKeyPoints:
			result.KeyPoints = append(result.KeyPoints, item)
		case sectionPros:
			result.Pros = append(result.Pros, item)
		case sectionCons:
			result.Cons = append(result.Cons, item)
		}
	}

	result.Summary = strings.Join(summary, " ")
	if !recognized {
		text := strings.TrimSpace(raw)
		if !strings.HasPrefix(text, "{") && !strings.HasPrefix(text, "[") && !strings.HasPrefix(text, "```") {
			result.Summary = text
		}
	}
	return result
}

// extractSources lists result titles and URLs in order, skipping results
// without a URL and duplicates
func extractSources(groups []types.ResultGroup) []types.Source {
	seen := make(map[string]bool)
	sources := make([]types.Source, 0)
	for _, g := range groups {
		for _, r := range g.Results {
			url := strings.TrimSpace(r.URL)
			if url == "" || seen[url] {
				continue
			}
			seen[url] = true
			title := strings.TrimSpace(r.Title)
			if title == "" {
				title = "Untitled"
			}
			sources = append(sources, types.Source{Title: title, URL: url})
		}
	}
	return sources
}
