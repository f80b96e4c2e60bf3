package formatter

import (
	"io"

	"github.com/tordrt/pgmermaid/internal/schema"
)

// Formatter writes a database in one output format
type Formatter interface {
	Format(db *schema.Database) error
}

// New returns the formatter for opts.Format, defaulting to Mermaid
func New(w io.Writer, opts Options) Formatter {
	switch opts.Format {
	case FormatMarkdown:
		return NewMarkdownFormatter(w, opts)
	case FormatJSON:
		return NewJSONFormatter(w, opts)
	case FormatText:
		return NewTextFormatter(w, opts)
	default:
		return NewMermaidFormatter(w, opts)
	}
}
