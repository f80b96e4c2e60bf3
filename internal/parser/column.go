package parser

import (
	"regexp"
	"strings"

	"github.com/tordrt/pgmermaid/internal/schema"
	"github.com/tordrt/pgmermaid/internal/sqltype"
)

var tableConstraintPrefix = regexp.MustCompile(
	`(?i)^(?:CONSTRAINT|PRIMARY\s+KEY|FOREIGN\s+KEY|UNIQUE|CHECK|EXCLUDE)\b`,
)

// columnKeywords end the type portion of a column definition. The earliest
// match in the text wins.
var columnKeywords = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bNOT\s+NULL\b`),
	regexp.MustCompile(`(?i)\bNULL\b`),
	regexp.MustCompile(`(?i)\bDEFAULT\b`),
	regexp.MustCompile(`(?i)\bPRIMARY\s+KEY\b`),
	regexp.MustCompile(`(?i)\bUNIQUE\b`),
	regexp.MustCompile(`(?i)\bREFERENCES\b`),
	regexp.MustCompile(`(?i)\bCHECK\b`),
	regexp.MustCompile(`(?i)\bCOLLATE\b`),
	regexp.MustCompile(`(?i)\bCONSTRAINT\b`),
	regexp.MustCompile(`(?i)\bGENERATED\b`),
}

var (
	notNullPattern    = regexp.MustCompile(`(?i)\bNOT\s+NULL\b`)
	primaryKeyPattern = regexp.MustCompile(`(?i)\bPRIMARY\s+KEY\b`)
	defaultPattern    = regexp.MustCompile(
		`(?is)\bDEFAULT\s+('(?:[^']|'')*'|"(?:[^"]|"")*"|\([^)]+\)|[^\s,)]+)`,
	)
	inlineReferencePattern = regexp.MustCompile(
		`(?is)(?:CONSTRAINT\s+"?(\w+)"?\s+)?REFERENCES\s+([^\s(]+)(?:\s*\(([^)]+)\))?` + referentialActions,
	)
)

// IsTableConstraint reports whether def is a table-level constraint rather
// than a column definition.
func IsTableConstraint(def string) bool {
	return tableConstraintPrefix.MatchString(strings.TrimSpace(def))
}

// ParseColumn parses a single column definition. It returns the column, the
// foreign key declared inline with REFERENCES (if any), and false when def has
// no name or no type.
func ParseColumn(def string) (schema.Column, *schema.ForeignKey, bool) {
	name, rest, ok := splitColumnName(strings.TrimSpace(def))
	if !ok {
		return schema.Column{}, nil, false
	}

	cut := len(rest)
	for _, kw := range columnKeywords {
		if loc := kw.FindStringIndex(rest); loc != nil && loc[0] < cut {
			cut = loc[0]
		}
	}

	rawType := strings.TrimSpace(rest[:cut])
	if rawType == "" {
		return schema.Column{}, nil, false
	}
	tail := rest[cut:]

	col := schema.Column{
		Name:         name,
		Type:         sqltype.Normalize(rawType),
		Nullable:     !notNullPattern.MatchString(tail),
		IsPrimaryKey: primaryKeyPattern.MatchString(tail),
	}
	if m := defaultPattern.FindStringSubmatchIndex(tail); m != nil {
		value := defaultValue(tail, m[2], m[3])
		col.Default = &value
	}

	var fk *schema.ForeignKey
	if m := inlineReferencePattern.FindStringSubmatch(tail); m != nil {
		refSchema, refTable := ParseQualifiedName(m[2])
		fk = &schema.ForeignKey{
			Columns:    []string{name},
			RefTable:   refTable,
			RefColumns: parseColumnList(m[3]),
		}
		if refSchema != schema.DefaultSchema {
			fk.RefSchema = &refSchema
		}
		if m[1] != "" {
			constraintName := m[1]
			fk.ConstraintName = &constraintName
		}
		fk.OnDelete, fk.OnUpdate = parseActions(m[4])
		col.IsForeignKey = true
	}

	return col, fk, true
}

// splitColumnName separates the column name from the rest of the definition.
// A double-quoted name may contain spaces; "" inside it stands for one quote.
func splitColumnName(def string) (name, rest string, ok bool) {
	if strings.HasPrefix(def, `"`) {
		var b strings.Builder
		for i := 1; i < len(def); i++ {
			if def[i] != '"' {
				b.WriteByte(def[i])
				continue
			}
			if i+1 < len(def) && def[i+1] == '"' {
				b.WriteByte('"')
				i++
				continue
			}
			name, rest = b.String(), def[i+1:]
			if name == "" || rest == "" || !isSpace(rest[0]) {
				return "", "", false
			}
			return name, strings.TrimSpace(rest), true
		}
		return "", "", false
	}

	i := strings.IndexAny(def, " \t\r\n")
	if i <= 0 {
		return "", "", false
	}
	return def[:i], strings.TrimSpace(def[i:]), true
}

// defaultValue returns tail[start:end], extended through the matching
// parenthesis when the bare token opens a call such as now() or
// nextval('seq'::regclass).
func defaultValue(tail string, start, end int) string {
	value := tail[start:end]
	if strings.HasPrefix(value, "'") || strings.HasPrefix(value, `"`) || strings.HasPrefix(value, "(") {
		return value
	}

	open := strings.IndexByte(value, '(')
	if open < 0 {
		return value
	}
	if closing, ok := matchingParen(tail, start+open); ok {
		return tail[start : closing+1]
	}
	return value
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
