package parser

import (
	"fmt"
	"strings"
)

// ParseHeader turns "# key:\tvalue[\tvalue...]" comment lines into
// Metadata. Lines without a key separator are reported as warnings and
// skipped. Values are split on tabs; empty cells are dropped.
func ParseHeader(lines []string) (Metadata, []string) {
	md := make(Metadata)
	var warnings []string
	for i, line := range lines {
		body := strings.Trim(strings.TrimRight(line, "\r\n"), "# ")
		if body == "" {
			continue
		}
		key, rest, ok := splitHeaderLine(body)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("header line %d has no key separator: %q", i+1, body))
			continue
		}
		var value Value
		for _, cell := range strings.Split(rest, "\t") {
			if cell = strings.TrimSpace(cell); cell != "" {
				value = append(value, cell)
			}
		}
		md[key] = value
	}
	return md, warnings
}

// splitHeaderLine prefers ":\t" and falls back to the first ": " or ":".
// Keys such as "Pixel Area (X, Y, Z)" contain no colon, so the first colon
// is always the separator.
func splitHeaderLine(body string) (key, rest string, ok bool) {
	if k, r, found := strings.Cut(body, ":\t"); found {
		return strings.TrimSpace(k), r, true
	}
	if k, r, found := strings.Cut(body, ":"); found {
		return strings.TrimSpace(k), strings.TrimSpace(r), true
	}
	return "", "", false
}
