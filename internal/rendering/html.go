package rendering

import (
	"bufio"
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// DefaultTitle is used when the Markdown has no top-level heading
const DefaultTitle = "Report"

var markdownConverter = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

var documentTmpl = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            max-width: 800px;
            margin: 0 auto;
            padding: 20px;
            line-height: 1.6;
            color: #333;
        }
        h1, h2, h3, h4, h5, h6 { margin-top: 1.5em; margin-bottom: 0.5em; color: #2c3e50; }
        h1 { border-bottom: 2px solid #3498db; padding-bottom: 0.3em; }
        code { background-color: #f4f4f4; padding: 2px 6px; border-radius: 3px; font-family: 'Courier New', Courier, monospace; }
        pre { background-color: #f4f4f4; padding: 15px; border-radius: 5px; overflow-x: auto; }
        pre code { background-color: transparent; padding: 0; }
        table { border-collapse: collapse; width: 100%; margin: 1em 0; }
        th, td { border: 1px solid #ddd; padding: 12px; text-align: left; }
        th { background-color: #3498db; color: white; }
        tr:nth-child(even) { background-color: #f9f9f9; }
        a { color: #3498db; text-decoration: none; }
        a:hover { text-decoration: underline; }
        blockquote { border-left: 4px solid #3498db; padding-left: 15px; color: #666; margin: 1em 0; }
    </style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// ToHTML converts Markdown into a complete HTML document.
// It is pure and deterministic: the same input always yields the same bytes.
// Raw HTML in the input is not passed through. Panics inside the converter
// are recovered and returned as *RenderError.
func ToHTML(markdown string) (html string, err error) {
	defer func() {
		if r := recover(); r != nil {
			html = ""
			err = &RenderError{Message: "markdown conversion panicked", Cause: fmt.Errorf("%v", r)}
		}
	}()

	var body bytes.Buffer
	if err := markdownConverter.Convert([]byte(markdown), &body); err != nil {
		return "", &RenderError{Message: "failed to convert markdown", Cause: err}
	}

	var doc bytes.Buffer
	err = documentTmpl.Execute(&doc, struct {
		Title string
		Body  template.HTML
	}{
		Title: MarkdownTitle(markdown),
		// goldmark output is safe: raw HTML is omitted without the unsafe renderer option
		Body: template.HTML(body.String()), //nolint:gosec // see above
	})
	if err != nil {
		return "", &RenderError{Message: "failed to wrap html document", Cause: err}
	}
	return doc.String(), nil
}

// MarkdownTitle returns the text of the first "# " heading, or DefaultTitle
func MarkdownTitle(markdown string) string {
	scanner := bufio.NewScanner(strings.NewReader(markdown))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	inFence := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "```") {
			inFence = !inFence
			continue
		}
		if !inFence && strings.HasPrefix(line, "# ") {
			if title := strings.TrimSpace(strings.TrimPrefix(line, "# ")); title != "" {
				return title
			}
		}
	}
	return DefaultTitle
}
