package rendering

import (
	"embed"
	"fmt"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/elifbarlik/AIResearchAutomationAgent/internal/types"
)

//go:embed templates/report.md.tmpl
var templateFS embed.FS

// GeneratedLayout is the timestamp format of the "Generated" line
const GeneratedLayout = "2006-01-02 15:04:05 MST"

// TemplateData represents the data structure passed to the report template
type TemplateData struct {
	Title     string
	Generated string
	Depth     types.Depth
	Compare   bool
	Analysis  *types.AnalysisResult
}

var (
	reportTmpl     *template.Template
	reportTmplErr  error
	reportTmplOnce sync.Once
)

// Title returns the report heading text for a resolved request.
// Topic and item names are inserted verbatim.
func Title(req types.ResearchRequest) string {
	if req.Mode == types.ModeCompare {
		return fmt.Sprintf("Comparison: %s vs %s", req.ItemA, req.ItemB)
	}
	return fmt.Sprintf("Overview Report: %s", req.Topic)
}

// RenderMarkdown renders the Markdown report for a resolved request
func RenderMarkdown(req types.ResearchRequest, analysis *types.AnalysisResult, generated time.Time) (string, error) {
	if req.Mode != types.ModeOverview && req.Mode != types.ModeCompare {
		return "", &TemplateError{Message: fmt.Sprintf("cannot render mode %q", req.Mode)}
	}
	if analysis == nil {
		analysis = &types.AnalysisResult{}
	}

	tmpl, err := parseTemplate()
	if err != nil {
		return "", err
	}

	data := TemplateData{
		Title:     Title(req),
		Generated: generated.UTC().Format(GeneratedLayout),
		Depth:     req.Depth,
		Compare:   req.Mode == types.ModeCompare,
		Analysis:  analysis,
	}

	var result strings.Builder
	if err := tmpl.Execute(&result, data); err != nil {
		return "", &TemplateError{
			Message: "failed to execute template",
			Cause:   err,
		}
	}
	return result.String(), nil
}

func parseTemplate() (*template.Template, error) {
	reportTmplOnce.Do(func() {
		content, err := templateFS.ReadFile("templates/report.md.tmpl")
		if err != nil {
			reportTmplErr = &TemplateError{Message: "report template not embedded", Cause: err}
			return
		}

		reportTmpl, err = template.New("report").Funcs(template.FuncMap{
			"bullets": bullets,
			"link":    Link,
			"inc":     func(i int) int { return i + 1 },
		}).Parse(string(content))
		if err != nil {
			reportTmplErr = &TemplateError{Message: "failed to parse template", Cause: err}
		}
	})
	return reportTmpl, reportTmplErr
}

// bullets renders items as a Markdown list, or the placeholder when empty
func bullets(items []string, placeholder string) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.Join(strings.Fields(item), " ")
		if item != "" {
			lines = append(lines, "- "+item)
		}
	}
	if len(lines) == 0 {
		return placeholder
	}
	return strings.Join(lines, "\n")
}
