package parser

import "strings"

// SplitDefinitions splits a CREATE TABLE body on top-level commas. Commas
// nested in parentheses or inside quoted literals stay in their definition.
// Definitions are trimmed and empty ones dropped. A backslash before a quote
// keeps it from ending the literal.
func SplitDefinitions(body string) []string {
	var (
		defs  []string
		sc    = quoteScanner{escapes: true}
		depth int
		start int
	)

	emit := func(end int) {
		if def := strings.TrimSpace(body[start:end]); def != "" {
			defs = append(defs, def)
		}
	}

	for i := 0; i < len(body); i++ {
		if sc.step(body, i) {
			continue
		}
		switch body[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				emit(i)
				start = i + 1
			}
		}
	}
	emit(len(body))

	return defs
}
