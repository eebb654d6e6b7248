package reports

import (
	"context"
	"log/slog"
	"time"

	"github.com/elifbarlik/AIResearchAutomationAgent/internal/rendering"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/types"
)

// Warning kinds recorded on an artifact when an optional output is skipped
const (
	WarningHTML = "html"
	WarningPDF  = "pdf"
)

// HTMLConverter turns report Markdown into an HTML document
type HTMLConverter func(markdown string) (string, error)

// PDFRenderer prints an HTML document to PDF
type PDFRenderer interface {
	Render(ctx context.Context, html string) ([]byte, error)
}

// Generator renders an analysis into stored report files
type Generator struct {
	store  *Store
	toHTML HTMLConverter
	pdf    PDFRenderer
	now    func() time.Time
	logger *slog.Logger
}

// GeneratorOption configures a Generator
type GeneratorOption func(*Generator)

// WithHTMLConverter replaces rendering.ToHTML
func WithHTMLConverter(fn HTMLConverter) GeneratorOption {
	return func(g *Generator) {
		g.toHTML = fn
	}
}

// WithPDF enables PDF output
func WithPDF(r PDFRenderer) GeneratorOption {
	return func(g *Generator) {
		g.pdf = r
	}
}

// WithLogger sets the logger for rendering warnings
func WithLogger(logger *slog.Logger) GeneratorOption {
	return func(g *Generator) {
		g.logger = logger
	}
}

// WithClock sets the time source used for filenames and the report timestamp
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) {
		g.now = now
		if g.store != nil {
			g.store.now = now
		}
	}
}

// NewGenerator creates a Generator writing into store
func NewGenerator(store *Store, opts ...GeneratorOption) *Generator {
	g := &Generator{
		store:  store,
		toHTML: rendering.ToHTML,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With("component", "report")
	return g
}

// Store returns the underlying report store
func (g *Generator) Store() *Store {
	return g.store
}

// Render writes the Markdown report, then best-effort HTML and PDF.
// Only Markdown failures are returned; HTML and PDF failures are logged
// and recorded in the artifact's Warnings.
func (g *Generator) Render(ctx context.Context, req types.ResearchRequest, analysis *types.AnalysisResult) (*types.ReportArtifact, error) {
	markdown, err := rendering.RenderMarkdown(req, analysis, g.now())
	if err != nil {
		return nil, err
	}

	name, err := g.store.Create(string(req.Mode), ExtMarkdown, []byte(markdown))
	if err != nil {
		return nil, err
	}
	artifact := &types.ReportArtifact{
		Markdown:   markdown,
		ReportPath: g.store.Path(name),
		Filename:   name,
	}
	g.logger.Info("report written", "path", artifact.ReportPath)

	html, err := g.convert(markdown)
	if err != nil {
		g.logger.Warn("html conversion failed", "file", name, "error", err)
		artifact.Warnings = append(artifact.Warnings, WarningHTML)
		return artifact, nil
	}
	artifact.HTML = html

	if g.pdf == nil {
		return artifact, nil
	}
	data, err := g.pdf.Render(ctx, html)
	if err == nil {
		artifact.PDFName, err = g.store.WriteCompanion(name, ExtPDF, data)
	}
	if err != nil {
		g.logger.Warn("pdf generation failed", "file", name, "error", err)
		artifact.Warnings = append(artifact.Warnings, WarningPDF)
		artifact.PDFName = ""
		return artifact, nil
	}
	artifact.PDFPath = g.store.Path(artifact.PDFName)
	return artifact, nil
}

// convert guards against converters that panic
func (g *Generator) convert(markdown string) (html string, err error) {
	defer func() {
		if r := recover(); r != nil {
			html = ""
			err = &rendering.RenderError{Message: "html converter panicked"}
		}
	}()
	return g.toHTML(markdown)
}
