package formatter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tordrt/pgmermaid/internal/schema"
)

var (
	summaryTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#569CD6"))

	summarySection = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#DCDCAA")).
			MarginTop(1)

	summaryKey = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CE9178"))

	summaryMuted = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6A9955"))
)

// Stats counts what a set of tables contains.
type Stats struct {
	Schemas           int
	Tables            int
	Columns           int
	ForeignKeys       int
	UniqueConstraints int
	// TablesPerSchema is keyed by schema name.
	TablesPerSchema map[string]int
}

// CollectStats counts the tables that pass the filters in opts.
func CollectStats(db *schema.Database, opts Options) Stats {
	st := Stats{TablesPerSchema: make(map[string]int)}
	for _, t := range FilterTables(db, opts) {
		st.Tables++
		st.Columns += len(t.Columns)
		st.ForeignKeys += len(t.ForeignKeys)
		st.UniqueConstraints += len(t.UniqueConstraints)
		st.TablesPerSchema[t.Schema]++
	}
	st.Schemas = len(st.TablesPerSchema)
	return st
}

// Summary renders a short styled report of the schema for terminals.
func Summary(db *schema.Database, opts Options) string {
	st := CollectStats(db, opts)

	line := func(key string, value int) string {
		return fmt.Sprintf("  %s %d", summaryKey.Render(fmt.Sprintf("%-20s", key)), value)
	}

	var b strings.Builder
	b.WriteString(summaryTitle.Render("Schema summary"))
	b.WriteString("\n")

	if st.Tables == 0 {
		b.WriteString(summaryMuted.Render("  No tables found"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(line("Schemas", st.Schemas) + "\n")
	b.WriteString(line("Tables", st.Tables) + "\n")
	b.WriteString(line("Columns", st.Columns) + "\n")
	b.WriteString(line("Foreign keys", st.ForeignKeys) + "\n")
	b.WriteString(line("Unique constraints", st.UniqueConstraints) + "\n")

	b.WriteString(summarySection.Render("Tables per schema"))
	b.WriteString("\n")

	names := make([]string, 0, len(st.TablesPerSchema))
	for name := range st.TablesPerSchema {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.WriteString(line(name, st.TablesPerSchema[name]) + "\n")
	}

	return b.String()
}
