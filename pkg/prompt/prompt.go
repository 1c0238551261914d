// Package prompt extracts annotated prompts from source files and strips
// license boilerplate from completions. Pure functions, no I/O.
package prompt

import (
	"regexp"
	"strings"
)

// annotationPattern recognizes `/// @prompt <text>` doc comments.
var annotationPattern = regexp.MustCompile(`///\s*@prompt\s*(.*)`)

// Extract returns the first annotated prompt in content and true, or ""
// and false when no annotation is present. An annotation with empty text
// counts as absent.
func Extract(content string) (string, bool) {
	match := annotationPattern.FindStringSubmatch(content)
	if match == nil {
		return "", false
	}

	text := strings.TrimSpace(match[1])
	if text == "" {
		return "", false
	}

	return text, true
}

// TrimLicenseHeader drops every line before the first line whose trimmed
// text begins with "module", so completions do not carry license
// boilerplate. Content without a module declaration is returned unchanged.
func TrimLicenseHeader(content string) string {
	lines := strings.Split(content, "\n")

	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "module") {
			return strings.TrimSpace(strings.Join(lines[i:], "\n"))
		}
	}

	return content
}
