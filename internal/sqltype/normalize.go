// Package sqltype maps verbose PostgreSQL type spellings to the compact forms
// used throughout the diagrams.
package sqltype

import (
	"regexp"
	"strings"
)

type alias struct {
	long  string
	short string
}

// aliases is checked in order; a longer spelling that shares a prefix with a
// shorter one (CHARACTER VARYING / CHARACTER) must come first.
var aliases = []alias{
	{"CHARACTER VARYING", "varchar"},
	{"CHARACTER", "char"},
	{"INTEGER", "int"},
	{"BIGINT", "bigint"},
	{"SMALLINT", "smallint"},
	{"BOOLEAN", "bool"},
	{"DOUBLE PRECISION", "float8"},
	{"REAL", "float4"},
	{"TIMESTAMP WITHOUT TIME ZONE", "timestamp"},
	{"TIMESTAMP WITH TIME ZONE", "timestamptz"},
	{"TIME WITHOUT TIME ZONE", "time"},
	{"TIME WITH TIME ZONE", "timetz"},
}

var paramsPattern = regexp.MustCompile(`\(\d+(?:,\s*\d+)?\)`)

// Normalize collapses whitespace runs and rewrites a known verbose type
// spelling to its short form, keeping any parameter list or array suffix.
// The result is lower-cased throughout.
func Normalize(raw string) string {
	t := strings.Join(strings.Fields(raw), " ")

	for _, a := range aliases {
		if hasWordPrefix(t, a.long) {
			return a.short + strings.ToLower(t[len(a.long):])
		}
	}

	return strings.ToLower(t)
}

// Simplify drops numeric parameter lists such as (255) or (10,2) and
// normalizes what is left. Array markers are kept.
func Simplify(t string) string {
	return Normalize(paramsPattern.ReplaceAllString(t, ""))
}

// hasWordPrefix reports whether s starts with prefix (case-insensitively)
// and the prefix is not immediately followed by an identifier character.
func hasWordPrefix(s, prefix string) bool {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return false
	}
	if len(s) == len(prefix) {
		return true
	}
	return !isIdentChar(s[len(prefix)])
}

func isIdentChar(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
