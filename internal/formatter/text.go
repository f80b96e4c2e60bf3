package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/pgmermaid/internal/schema"
)

// TextFormatter formats schema as compact text
type TextFormatter struct {
	writer io.Writer
	opts   Options
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer, opts Options) *TextFormatter {
	return &TextFormatter{writer: w, opts: opts}
}

// Format writes the filtered tables, sorted by schema and name, in compact
// text format
func (f *TextFormatter) Format(db *schema.Database) error {
	tables := FilterTables(db, f.opts)
	if f.opts.ConnectedOnly {
		tables = connectedTables(tables, db)
	}

	for i, table := range sortedTables(tables) {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer) // Blank line between tables
		}

		if err := f.formatTable(db, table); err != nil {
			return err
		}
	}
	return nil
}

func (f *TextFormatter) formatTable(db *schema.Database, table *schema.Table) error {
	// Table header with primary key
	pkStr := ""
	if len(table.PrimaryKey) > 0 {
		pkStr = fmt.Sprintf(" (PK: %s)", strings.Join(table.PrimaryKey, ", "))
	}
	if _, err := fmt.Fprintf(f.writer, "TABLE %s%s\n", table.QualifiedName(), pkStr); err != nil {
		return err
	}

	for _, col := range table.Columns {
		_, _ = fmt.Fprintf(f.writer, "  %s\n", f.formatColumn(col))
	}

	if len(table.ForeignKeys) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  RELATIONS:")
		for _, fk := range table.ForeignKeys {
			_, _ = fmt.Fprintf(f.writer, "    %s → %s", strings.Join(fk.Columns, ", "), resolveTarget(db, table, fk))
			if len(fk.RefColumns) > 0 {
				_, _ = fmt.Fprintf(f.writer, "(%s)", strings.Join(fk.RefColumns, ", "))
			}
			if fk.OnDelete != nil {
				_, _ = fmt.Fprintf(f.writer, " ON DELETE %s", *fk.OnDelete)
			}
			if fk.OnUpdate != nil {
				_, _ = fmt.Fprintf(f.writer, " ON UPDATE %s", *fk.OnUpdate)
			}
			_, _ = fmt.Fprintln(f.writer)
		}
	}

	if len(table.UniqueConstraints) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  UNIQUE:")
		for _, cols := range table.UniqueConstraints {
			_, _ = fmt.Fprintf(f.writer, "    (%s)\n", strings.Join(cols, ", "))
		}
	}

	return nil
}

func (f *TextFormatter) formatColumn(col schema.Column) string {
	parts := []string{col.Name + ":", col.Type}

	if col.IsPrimaryKey {
		parts = append(parts, "PK")
	}
	if col.IsForeignKey {
		parts = append(parts, "FK")
	}

	if !col.Nullable {
		parts = append(parts, "NOT NULL")
	}

	if col.Default != nil {
		parts = append(parts, fmt.Sprintf("DEFAULT %s", *col.Default))
	}

	return strings.Join(parts, " ")
}
