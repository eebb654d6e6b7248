package rendering

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DocumentTitle reads the title of an HTML document: the <title> element,
// then the first <h1>, then DefaultTitle.
func DocumentTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return DefaultTitle
	}

	if title := strings.TrimSpace(doc.Find("head > title").First().Text()); title != "" {
		return title
	}
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	return DefaultTitle
}
