package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/pgmermaid/internal/schema"
)

// MarkdownFormatter writes the Mermaid diagram inside a ```mermaid fence
type MarkdownFormatter struct {
	writer io.Writer
	opts   Options
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer, opts Options) *MarkdownFormatter {
	opts.Format = FormatMarkdown
	return &MarkdownFormatter{writer: w, opts: opts}
}

// Format writes the fenced diagram
func (f *MarkdownFormatter) Format(db *schema.Database) error {
	_, err := fmt.Fprintln(f.writer, RenderMermaid(db, f.opts))
	return err
}

// WrapMarkdown fences Mermaid source for Markdown renderers.
func WrapMarkdown(diagram string) string {
	return "```mermaid\n" + diagram + "\n```"
}

// writeReferenceList writes a bulleted list of foreign keys, one per line,
// as "- source (cols) → target (cols)".
func writeReferenceList(w io.Writer, refs []reference) {
	for _, r := range refs {
		_, _ = fmt.Fprintf(w, "- %s (%s) → %s", r.source, strings.Join(r.columns, ", "), r.target)
		if len(r.refColumns) > 0 {
			_, _ = fmt.Fprintf(w, " (%s)", strings.Join(r.refColumns, ", "))
		}
		_, _ = fmt.Fprintln(w)
	}
}

type reference struct {
	source     string
	columns    []string
	target     string
	refColumns []string
}

// resolveTarget names the table a foreign key points at, looking in the
// owning table's schema first when the key has no stored schema.
func resolveTarget(db *schema.Database, owner *schema.Table, fk schema.ForeignKey) string {
	if fk.RefSchema != nil && *fk.RefSchema != "" {
		return *fk.RefSchema + "." + fk.RefTable
	}
	if ref := db.FindTable(fk.RefTable, owner.Schema); ref != nil {
		return ref.QualifiedName()
	}
	return owner.Schema + "." + fk.RefTable
}
