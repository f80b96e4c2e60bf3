package formatter

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/tordrt/pgmermaid/internal/schema"
)

const overviewFile = "_overview.md"

// ImageExporter turns Mermaid source into an image file and returns the path
// it wrote.
type ImageExporter interface {
	Export(ctx context.Context, diagram, outputPath string) (string, error)
}

// MultiFileFormatter writes one diagram per schema into a directory, plus an
// overview listing the schemas and the references that cross them.
type MultiFileFormatter struct {
	OutputDir string
	Options   Options

	// Exporter, when set, also renders every schema diagram to
	// <schema>.<ImageFormat>.
	Exporter    ImageExporter
	ImageFormat string

	// Progress receives a progress bar; nil hides it.
	Progress io.Writer
}

// NewMultiFileFormatter creates a new multi-file formatter
func NewMultiFileFormatter(outputDir string, opts Options) *MultiFileFormatter {
	return &MultiFileFormatter{
		OutputDir: outputDir,
		Options:   opts,
	}
}

// Format writes the files and returns their paths in the order written.
func (f *MultiFileFormatter) Format(ctx context.Context, db *schema.Database) ([]string, error) {
	if err := os.MkdirAll(f.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	groups := groupBySchema(FilterTables(db, f.Options))
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	var written []string

	overview := filepath.Join(f.OutputDir, overviewFile)
	if err := f.writeOverview(overview, db, names, groups); err != nil {
		return written, fmt.Errorf("failed to write overview: %w", err)
	}
	written = append(written, overview)

	bar := f.newBar(len(names))
	defer func() { _ = bar.Finish() }()

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		paths, err := f.writeSchema(ctx, db, name)
		written = append(written, paths...)
		if err != nil {
			return written, fmt.Errorf("failed to write diagram for schema %s: %w", name, err)
		}
		_ = bar.Add(1)
	}

	return written, nil
}

func (f *MultiFileFormatter) schemaOptions(name string) Options {
	opts := f.Options
	opts.IncludeSchemas = []string{name}
	opts.ExcludeSchemas = nil
	opts.GroupBySchema = false
	if opts.Format != FormatMarkdown {
		opts.Format = FormatMermaid
	}
	if opts.Title != "" {
		opts.Title = fmt.Sprintf("%s (%s)", opts.Title, name)
	}
	return opts
}

func (f *MultiFileFormatter) diagramExtension() string {
	if f.Options.Format == FormatMarkdown {
		return ".md"
	}
	return ".mmd"
}

// writeSchema writes the diagram file for one schema and, with an exporter,
// its image.
func (f *MultiFileFormatter) writeSchema(ctx context.Context, db *schema.Database, name string) ([]string, error) {
	opts := f.schemaOptions(name)
	diagram := RenderMermaid(db, opts)

	filename := filepath.Join(f.OutputDir, SanitizeName(name)+f.diagramExtension())
	if err := os.WriteFile(filename, []byte(diagram+"\n"), 0644); err != nil {
		return nil, err
	}
	paths := []string{filename}

	if f.Exporter == nil || f.ImageFormat == "" {
		return paths, nil
	}

	// Exporters always get raw Mermaid, never the Markdown fence.
	opts.Format = FormatMermaid
	image, err := f.Exporter.Export(ctx, RenderMermaid(db, opts), filepath.Join(f.OutputDir, SanitizeName(name)+"."+f.ImageFormat))
	if err != nil {
		return paths, err
	}
	return append(paths, image), nil
}

func (f *MultiFileFormatter) writeOverview(filename string, db *schema.Database, names []string, groups map[string][]*schema.Table) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	ext := f.diagramExtension()
	_, _ = fmt.Fprintf(file, "# Schema Overview\n\n")
	_, _ = fmt.Fprintf(file, "Each schema has a diagram file: `<schema>%s`\n\n", ext)
	_, _ = fmt.Fprintf(file, "## Schemas\n\n")

	var cross []reference
	for _, name := range names {
		tables := groups[name]
		_, _ = fmt.Fprintf(file, "- **%s** (%d tables): `%s%s`\n", name, len(tables), SanitizeName(name), ext)

		for _, table := range sortedTables(tables) {
			for _, fk := range table.ForeignKeys {
				target := resolveTarget(db, table, fk)
				if targetSchema, _ := splitQualified(target); targetSchema == table.Schema {
					continue
				}
				cross = append(cross, reference{
					source:     table.QualifiedName(),
					columns:    fk.Columns,
					target:     target,
					refColumns: fk.RefColumns,
				})
			}
		}
	}

	if len(cross) > 0 {
		_, _ = fmt.Fprintf(file, "\n## Cross-schema references\n\n")
		writeReferenceList(file, cross)
	}

	return file.Close()
}

func (f *MultiFileFormatter) newBar(n int) *progressbar.ProgressBar {
	if f.Progress == nil {
		return progressbar.NewOptions(n, progressbar.OptionSetVisibility(false))
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(f.Progress),
		progressbar.OptionSetDescription("Writing diagrams"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(f.Progress)
		}),
	)
}

func groupBySchema(tables []*schema.Table) map[string][]*schema.Table {
	groups := make(map[string][]*schema.Table)
	for _, t := range tables {
		groups[t.Schema] = append(groups[t.Schema], t)
	}
	return groups
}

func splitQualified(name string) (schemaName, table string) {
	if before, after, found := strings.Cut(name, "."); found {
		return before, after
	}
	return schema.DefaultSchema, name
}
