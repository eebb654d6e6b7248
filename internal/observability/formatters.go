// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/elifbarlik/AIResearchAutomationAgent/internal/pipeline"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 8
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(line))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// pad truncates or right-pads line to the inner box width, counting runes
func pad(line string) string {
	width := boxWidth - 4
	if utf8.RuneCountInString(line) > width {
		runes := []rune(line)
		return string(runes[:width-3]) + "..."
	}
	return line + strings.Repeat(" ", width-utf8.RuneCountInString(line))
}

// PrintProgress outputs a single pipeline stage line.
//
//nolint:errcheck
func (p *Printer) PrintProgress(event pipeline.ProgressEvent) {
	fmt.Fprintf(p.out, "▶ [%s] %s\n", event.Stage, event.Message)
}

// PrintPlan outputs the planned research steps.
func (p *Printer) PrintPlan(steps []string) {
	if len(steps) == 0 {
		return
	}

	var sb strings.Builder
	count := min(len(steps), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, steps[i]))
	}
	if len(steps) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(steps)-maxItemsToShow))
	}

	p.printBox("RESEARCH PLAN", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintResult outputs a summary of a completed run and where its files are.
func (p *Printer) PrintResult(result *types.PipelineResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run:     %s\n", result.RunID))
	sb.WriteString(fmt.Sprintf("Mode:    %s (%s)\n", result.Mode, result.Depth))
	switch {
	case result.Topic != nil:
		sb.WriteString(fmt.Sprintf("Topic:   %s\n", *result.Topic))
	case result.ItemA != nil && result.ItemB != nil:
		sb.WriteString(fmt.Sprintf("Compare: %s vs %s\n", *result.ItemA, *result.ItemB))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Report:  %s\n", result.ReportPath))
	if result.PDFPath != nil {
		sb.WriteString(fmt.Sprintf("PDF:     %s\n", *result.PDFPath))
	} else {
		sb.WriteString("PDF:     (not generated)\n")
	}
	if result.ReportHTML == nil {
		sb.WriteString("HTML:    (conversion failed)\n")
	}
	sb.WriteString(fmt.Sprintf("View:    %s", result.ViewURL))

	p.printBox("RESEARCH COMPLETE", sb.String())
}
