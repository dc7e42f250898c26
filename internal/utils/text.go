package utils

import (
	"html"
	"strings"
)

var lineBreaks = strings.NewReplacer("\r\n", "<br>", "\n", "<br>", "\r", "<br>")

// FormatMultiline escapes s for HTML and turns its line breaks into <br>.
// The result is safe to render without further escaping.
func FormatMultiline(s string) string {
	return lineBreaks.Replace(html.EscapeString(s))
}

// ParseKeywords splits each value on commas and drops blanks, keeping order.
func ParseKeywords(values []string) []string {
	keywords := []string{}
	for _, v := range values {
		for _, k := range strings.Split(v, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keywords = append(keywords, k)
			}
		}
	}
	return keywords
}
