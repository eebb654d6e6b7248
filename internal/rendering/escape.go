package rendering

import (
	"net/url"
	"strings"
)

// EscapeLinkText escapes characters that would end or break Markdown link text
// Special characters: \ [ ] * _ `
func EscapeLinkText(text string) string {
	if text == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(text) + 8)

	for _, r := range text {
		switch r {
		case '\\', '[', ']', '*', '_', '`':
			result.WriteRune('\\')
			result.WriteRune(r)
		case '\n', '\r':
			result.WriteRune(' ')
		default:
			result.WriteRune(r)
		}
	}

	return result.String()
}

// EscapeLinkURL makes a URL safe to use as a Markdown link destination.
// Spaces and parentheses are percent-encoded; anything that is not an
// http(s) URL is returned as "" so it renders as plain text.
func EscapeLinkURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	replacer := strings.NewReplacer(" ", "%20", "(", "%28", ")", "%29", "<", "%3C", ">", "%3E")
	return replacer.Replace(raw)
}

// Link formats a Markdown link, degrading to escaped text for unusable URLs
func Link(title, rawURL string) string {
	if title == "" {
		title = "Untitled"
	}
	dest := EscapeLinkURL(rawURL)
	if dest == "" {
		return EscapeLinkText(title)
	}
	return "[" + EscapeLinkText(title) + "](" + dest + ")"
}
