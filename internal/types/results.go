package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SearchResult represents a single web search hit, in provider relevance order
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// ResultGroup holds the results of one search query.
// Overview requests produce one group, compare requests one per item.
type ResultGroup struct {
	Label   string         `json:"label"`
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

// CountResults returns the total number of results across groups
func CountResults(groups []ResultGroup) int {
	n := 0
	for _, g := range groups {
		n += len(g.Results)
	}
	return n
}

// Source is a cited search result
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ComparedItem is the per-item section of a comparison analysis
type ComparedItem struct {
	Name       string   `json:"name"`
	Summary    string   `json:"summary"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

// Comparison holds the side-by-side part of a compare analysis
type Comparison struct {
	ItemA ComparedItem `json:"item_a"`
	ItemB ComparedItem `json:"item_b"`
}

// Items returns item A and item B in order
func (c *Comparison) Items() []ComparedItem {
	return []ComparedItem{c.ItemA, c.ItemB}
}

// AnalysisResult represents the structured analysis produced from search results.
// Every list is non-nil after normalization so templates never see nil.
type AnalysisResult struct {
	Summary         string      `json:"summary"`
	KeyPoints       []string    `json:"key_points"`
	Pros            []string    `json:"pros"`
	Cons            []string    `json:"cons"`
	Comparison      *Comparison `json:"comparison,omitempty"`
	Recommendations []string    `json:"recommendations,omitempty"`
	Sources         []Source    `json:"sources,omitempty"`
}

// Normalize replaces nil lists with empty ones and drops blank entries
func (a *AnalysisResult) Normalize() {
	a.KeyPoints = compact(a.KeyPoints)
	a.Pros = compact(a.Pros)
	a.Cons = compact(a.Cons)
	a.Recommendations = compact(a.Recommendations)
	if a.Sources == nil {
		a.Sources = []Source{}
	}
	if a.Comparison != nil {
		for _, item := range []*ComparedItem{&a.Comparison.ItemA, &a.Comparison.ItemB} {
			item.Strengths = compact(item.Strengths)
			item.Weaknesses = compact(item.Weaknesses)
		}
	}
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// ReportArtifact is the rendered output of one pipeline run.
// HTML is empty when conversion failed, PDFPath is empty when no PDF was produced.
// Warnings names the optional outputs that were skipped ("html", "pdf").
type ReportArtifact struct {
	Markdown   string   `json:"-"`
	HTML       string   `json:"-"`
	ReportPath string   `json:"report_path"`
	Filename   string   `json:"filename"`
	PDFPath    string   `json:"pdf_path,omitempty"`
	PDFName    string   `json:"-"`
	Warnings   []string `json:"-"`
}

// PipelineResult is the response of a completed research run
type PipelineResult struct {
	RunID      uuid.UUID `json:"run_id"`
	Status     string    `json:"status"`
	Mode       Mode      `json:"mode"`
	Topic      *string   `json:"topic"`
	ItemA      *string   `json:"item_a"`
	ItemB      *string   `json:"item_b"`
	Depth      Depth     `json:"depth"`
	Steps      []string  `json:"steps"`
	ReportPath string    `json:"report_path"`
	ReportHTML *string   `json:"report_html,omitempty"`
	PDFPath    *string   `json:"pdf_path,omitempty"`
	ViewURL    string    `json:"view_url"`
	PDFURL     *string   `json:"pdf_url"`
	CreatedAt  time.Time `json:"created_at"`
}

// StatusCompleted is the status of a successful run
const StatusCompleted = "completed"

// OptionalString returns nil for an empty string
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
