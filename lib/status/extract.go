package status

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

var (
	whitespace = regexp.MustCompile(`\s+`)
	dateToken  = regexp.MustCompile(`\b\d{1,4}[/.-]\d{1,2}[/.-]\d{1,4}\b`)
	timeToken  = regexp.MustCompile(`\b\d{1,2}:\d{2}(?::\d{2})?\b`)
	pctToken   = regexp.MustCompile(`\d+(?:[.,]\d+)?\s*%`)

	// "Le statut est : Disponible" / "status is: available"
	verbColon = regexp.MustCompile(`(?i)\b(?:est|is)\s*:\s*(.+)$`)
	bareColon = regexp.MustCompile(`:\s*(.+)$`)
)

// ExtractText pulls the best status candidate out of a feed entry. The
// description is preferred when it yields a "… est : <value>" or ": <value>"
// pattern; otherwise the title is used as-is. Markup, embedded dates/times
// and percentage tokens are stripped first -- feeds pad descriptions with
// update timestamps and fuel gauges that would defeat both the colon
// extraction and the keyword matching.
func ExtractText(title, description string) string {
	desc := StripTags(description)
	desc = stripNoise(desc)

	if m := verbColon.FindStringSubmatch(desc); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := bareColon.FindStringSubmatch(desc); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(stripNoise(StripTags(title)))
}

// StripTags reduces an HTML fragment to its visible text. Plain text passes
// through unchanged apart from whitespace compaction.
func StripTags(fragment string) string {
	if fragment == "" {
		return ""
	}
	doc, err := htmlquery.Parse(strings.NewReader(fragment))
	if err != nil {
		return compactWhitespace(fragment)
	}
	buf := new(bytes.Buffer)
	dig(doc, buf)
	return compactWhitespace(buf.String())
}

func dig(n *html.Node, buf *bytes.Buffer) {
	if n == nil {
		return
	}
	if n.Type == html.TextNode {
		buf.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		dig(c, buf)
	}
}

func stripNoise(s string) string {
	s = dateToken.ReplaceAllString(s, " ")
	s = timeToken.ReplaceAllString(s, " ")
	s = pctToken.ReplaceAllString(s, " ")
	return compactWhitespace(s)
}

func compactWhitespace(s string) string {
	s = whitespace.ReplaceAllString(s, " ")
	s = strings.Trim(s, " ")
	return s
}
