package formatter

import (
	"fmt"
	"strings"
)

// Mode controls how much column detail a diagram shows.
type Mode string

const (
	// ModeCompact shows only primary and foreign key columns.
	ModeCompact Mode = "compact"
	// ModeNormal shows all columns with simplified types.
	ModeNormal Mode = "normal"
	// ModeFull shows all columns with their stored types.
	ModeFull Mode = "full"
)

// Format is the output representation.
type Format string

const (
	FormatMermaid  Format = "mermaid"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatText     Format = "text"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(s)); m {
	case ModeCompact, ModeNormal, ModeFull:
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q (want compact, normal or full)", s)
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatMermaid, FormatMarkdown, FormatJSON, FormatText:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (want mermaid, markdown, json or text)", s)
}

// Options controls filtering and layout for every formatter.
type Options struct {
	Mode   Mode
	Format Format

	IncludeSchemas []string
	ExcludeSchemas []string
	// IncludeTables and ExcludeTables hold glob patterns (* and ?) matched
	// case-insensitively against the unqualified table name.
	IncludeTables []string
	ExcludeTables []string

	// ConnectedOnly keeps only tables that take part in a relationship.
	ConnectedOnly bool
	// ShowSchemaPrefix names non-public tables schema__table.
	ShowSchemaPrefix bool
	// MaxColumns caps the columns drawn per table; 0 means no limit.
	MaxColumns    int
	GroupBySchema bool
	Title         string
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Mode:             ModeNormal,
		Format:           FormatMermaid,
		ShowSchemaPrefix: true,
		MaxColumns:       20,
	}
}
