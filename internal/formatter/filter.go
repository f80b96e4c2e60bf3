package formatter

import (
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/tordrt/pgmermaid/internal/schema"
)

// FilterTables returns the tables of db that pass the schema and table
// filters in opts, in database order.
func FilterTables(db *schema.Database, opts Options) []*schema.Table {
	var tables []*schema.Table
	for _, table := range db.Tables() {
		if len(opts.IncludeSchemas) > 0 && !slices.Contains(opts.IncludeSchemas, table.Schema) {
			continue
		}
		if slices.Contains(opts.ExcludeSchemas, table.Schema) {
			continue
		}
		if len(opts.IncludeTables) > 0 && !MatchesAny(table.Name, opts.IncludeTables) {
			continue
		}
		if MatchesAny(table.Name, opts.ExcludeTables) {
			continue
		}
		tables = append(tables, table)
	}
	return tables
}

// MatchesAny reports whether name matches at least one glob pattern.
func MatchesAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if MatchPattern(name, p) {
			return true
		}
	}
	return false
}

// MatchPattern matches name against a glob where * is any run of characters
// and ? is a single character. Matching ignores case.
func MatchPattern(name, pattern string) bool {
	var b strings.Builder
	b.WriteString(`(?is)^`)
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return false
	}
	return re.MatchString(name)
}

// connectedTables keeps the tables that own a foreign key or are the
// resolved target of one owned by a table in the list.
func connectedTables(tables []*schema.Table, db *schema.Database) []*schema.Table {
	connected := make(map[string]bool)
	for _, table := range tables {
		if len(table.ForeignKeys) == 0 {
			continue
		}
		connected[table.QualifiedName()] = true
		for _, fk := range table.ForeignKeys {
			if fk.RefSchema != nil && *fk.RefSchema != "" {
				connected[*fk.RefSchema+"."+fk.RefTable] = true
				continue
			}
			if ref := db.FindTable(fk.RefTable, table.Schema); ref != nil {
				connected[ref.QualifiedName()] = true
			}
		}
	}

	var out []*schema.Table
	for _, table := range tables {
		if connected[table.QualifiedName()] {
			out = append(out, table)
		}
	}
	return out
}

type tableNames []string

func (n tableNames) String(i int) string { return strings.ToLower(n[i]) }
func (n tableNames) Len() int            { return len(n) }

// SuggestTables returns up to three names that fuzzily resemble pattern,
// best match first. Glob wildcards in pattern are ignored.
func SuggestTables(pattern string, names []string) []string {
	needle := strings.ToLower(strings.NewReplacer("*", "", "?", "").Replace(pattern))
	if needle == "" || len(names) == 0 {
		return nil
	}

	matches := fuzzy.FindFrom(needle, tableNames(names))
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	var out []string
	for _, m := range matches {
		if len(out) == 3 {
			break
		}
		out = append(out, names[m.Index])
	}
	return out
}
