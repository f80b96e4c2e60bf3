// Package formatter renders a schema.Database as Mermaid ER diagrams, JSON,
// or plain text, and writes per-schema diagram directories.
package formatter

import (
	"fmt"
	"io"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/tordrt/pgmermaid/internal/schema"
	"github.com/tordrt/pgmermaid/internal/sqltype"
)

// MermaidFormatter writes an erDiagram, fenced for Markdown when
// opts.Format is FormatMarkdown.
type MermaidFormatter struct {
	writer io.Writer
	opts   Options
}

// NewMermaidFormatter creates a new Mermaid formatter
func NewMermaidFormatter(w io.Writer, opts Options) *MermaidFormatter {
	return &MermaidFormatter{writer: w, opts: opts}
}

// Format writes the diagram followed by a newline.
func (f *MermaidFormatter) Format(db *schema.Database) error {
	_, err := fmt.Fprintln(f.writer, RenderMermaid(db, f.opts))
	return err
}

// RenderMermaid returns the diagram for db as a string without a trailing
// newline.
func RenderMermaid(db *schema.Database, opts Options) string {
	tables := FilterTables(db, opts)
	if len(tables) == 0 {
		return wrap("erDiagram\n    %% No tables to display", opts)
	}

	if opts.ConnectedOnly {
		tables = connectedTables(tables, db)
		if len(tables) == 0 {
			return wrap("erDiagram\n    %% No connected tables to display", opts)
		}
	}

	var lines []string
	if opts.Title != "" {
		lines = append(lines, "---", "title: "+opts.Title, "---")
	}
	lines = append(lines, "erDiagram")

	if opts.GroupBySchema {
		bySchema := groupBySchema(tables)
		names := make([]string, 0, len(bySchema))
		for name := range bySchema {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			group := bySchema[name]
			sort.SliceStable(group, func(i, j int) bool { return group[i].Name < group[j].Name })

			lines = append(lines, "    %% Schema: "+name)
			for _, t := range group {
				lines = append(lines, renderTable(t, opts)...)
			}
			lines = append(lines, "")
		}
	} else {
		sorted := sortedTables(tables)
		for _, t := range sorted {
			lines = append(lines, renderTable(t, opts)...)
		}
	}

	lines = append(lines, "", "    %% Relationships")
	for _, rel := range relationships(tables, db, opts) {
		lines = append(lines, "    "+rel)
	}

	return wrap(strings.Join(lines, "\n"), opts)
}

func wrap(content string, opts Options) string {
	if opts.Format == FormatMarkdown {
		return WrapMarkdown(content)
	}
	return content
}

func sortedTables(tables []*schema.Table) []*schema.Table {
	sorted := slices.Clone(tables)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Schema != sorted[j].Schema {
			return sorted[i].Schema < sorted[j].Schema
		}
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}

func renderTable(table *schema.Table, opts Options) []string {
	lines := []string{fmt.Sprintf("    %s {", TableIdentifier(table, opts))}

	for _, col := range selectColumns(table, opts) {
		lines = append(lines, "        "+renderColumn(col, opts))
	}

	if opts.MaxColumns > 0 && len(table.Columns) > opts.MaxColumns {
		lines = append(lines, fmt.Sprintf("        %%%% ... %d more columns", len(table.Columns)-opts.MaxColumns))
	}

	return append(lines, "    }")
}

func isKeyColumn(c schema.Column) bool {
	return c.IsPrimaryKey || c.IsForeignKey
}

func selectColumns(table *schema.Table, opts Options) []schema.Column {
	if opts.Mode == ModeCompact {
		var keys []schema.Column
		for _, c := range table.Columns {
			if isKeyColumn(c) {
				keys = append(keys, c)
			}
		}
		return keys
	}

	if opts.MaxColumns <= 0 || len(table.Columns) <= opts.MaxColumns {
		return table.Columns
	}

	var keys, other []schema.Column
	for _, c := range table.Columns {
		if isKeyColumn(c) {
			keys = append(keys, c)
		} else {
			other = append(other, c)
		}
	}
	slots := max(0, opts.MaxColumns-len(keys))
	return append(keys, other[:min(slots, len(other))]...)
}

func renderColumn(col schema.Column, opts Options) string {
	typ := col.Type
	if opts.Mode != ModeFull {
		typ = sqltype.Simplify(typ)
	}
	typ = strings.ReplaceAll(typ, " ", "_")

	var flags []string
	if col.IsPrimaryKey {
		flags = append(flags, "PK")
	}
	if col.IsForeignKey {
		flags = append(flags, "FK")
	}

	line := typ + " " + SanitizeName(col.Name)
	if len(flags) > 0 {
		line += " " + strings.Join(flags, ",")
	}
	return line
}

// TableIdentifier returns the Mermaid entity name for table.
func TableIdentifier(table *schema.Table, opts Options) string {
	name := table.Name
	if opts.ShowSchemaPrefix && table.Schema != schema.DefaultSchema {
		name = table.Schema + "__" + table.Name
	}
	return SanitizeName(name)
}

var unsafeIdentChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// SanitizeName replaces every character outside [A-Za-z0-9_] with an
// underscore and prefixes names that start with a digit.
func SanitizeName(name string) string {
	name = unsafeIdentChars.ReplaceAllString(name, "_")
	if name != "" && name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}

type relKey struct {
	source, target, label string
}

// relationships draws one line per foreign key whose target is part of the
// diagram. A foreign key without a stored schema resolves against the
// referencing table's own schema first.
func relationships(tables []*schema.Table, db *schema.Database, opts Options) []string {
	shown := make(map[string]bool, len(tables))
	shownNames := make(map[string]bool, len(tables))
	for _, t := range tables {
		shown[t.QualifiedName()] = true
		shownNames[t.Name] = true
	}

	var rels []string
	seen := make(map[relKey]bool)

	for _, table := range tables {
		source := TableIdentifier(table, opts)

		for _, fk := range table.ForeignKeys {
			preferred := table.Schema
			var target string
			if fk.RefSchema != nil && *fk.RefSchema != "" {
				preferred = *fk.RefSchema
				target = *fk.RefSchema + "." + fk.RefTable
			} else if ref := db.FindTable(fk.RefTable, table.Schema); ref != nil {
				target = ref.QualifiedName()
			} else {
				target = table.Schema + "." + fk.RefTable
			}

			if !shown[target] && !shownNames[fk.RefTable] {
				continue
			}

			targetID := SanitizeName(fk.RefTable)
			if ref := db.FindTable(fk.RefTable, preferred); ref != nil {
				targetID = TableIdentifier(ref, opts)
			}

			label := strings.Join(fk.Columns, ",")
			key := relKey{source: source, target: targetID, label: label}
			if seen[key] {
				continue
			}
			seen[key] = true

			rels = append(rels, fmt.Sprintf(`%s ||--o{ %s : "%s"`, targetID, source, label))
		}
	}

	return rels
}
