package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tordrt/pgmermaid"
	"github.com/tordrt/pgmermaid/internal/config"
	"github.com/tordrt/pgmermaid/internal/export"
	"github.com/tordrt/pgmermaid/internal/formatter"
	"github.com/tordrt/pgmermaid/internal/logger"
	"github.com/tordrt/pgmermaid/internal/parser"
	"github.com/tordrt/pgmermaid/internal/schema"
)

const examples = `  pgmermaid schema.sql                     Convert and print to stdout
  pgmermaid schema.sql -o diagram.md       Convert and save to file
  pg_dump -s mydb | pgmermaid              Read from stdin
  pgmermaid dump.sql --schema public       Only include the public schema
  pgmermaid dump.sql --exclude '*_old'     Exclude tables ending in _old
  pgmermaid dump.sql --compact             Show only PK/FK columns
  pgmermaid dump.sql --svg -o diagram.svg  Export as SVG
  pgmermaid dump.sql -d docs/schema        One diagram per schema
  pgmermaid --db-url postgres://localhost/app`

// cliOptions holds the raw flag values
type cliOptions struct {
	output         string
	outputDir      string
	format         string
	compact        bool
	normal         bool
	full           bool
	svg            bool
	png            bool
	pdf            bool
	exportMethod   string
	theme          string
	background     string
	scale          int
	schemas        []string
	excludeSchemas []string
	tables         []string
	excludeTables  []string
	connectedOnly  bool
	maxColumns     int
	groupBySchema  bool
	noSchemaPrefix bool
	title          string
	dbURL          string
	configPath     string
	verbose        bool
}

type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	opts   cliOptions
	log    *logrus.Logger
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}

	rootCmd := &cobra.Command{
		Use:     "pgmermaid [input]",
		Short:   "Convert PostgreSQL schema dumps to Mermaid ER diagrams",
		Long:    "pgmermaid reads CREATE TABLE and ALTER TABLE statements from a PostgreSQL dump (or a live database) and renders an entity-relationship diagram.",
		Example: examples,
		Version: pgmermaid.Version,
		Args:    cobra.MaximumNArgs(1),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.log = logger.New(a.opts.verbose, a.stderr)
		},
		RunE:          a.run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	pf := rootCmd.PersistentFlags()
	pf.StringArrayVarP(&a.opts.schemas, "schema", "s", nil, "Include only this schema (repeatable)")
	pf.StringArrayVar(&a.opts.excludeSchemas, "exclude-schema", nil, "Exclude this schema (repeatable)")
	pf.StringArrayVarP(&a.opts.tables, "table", "t", nil, "Include only tables matching this pattern, * and ? allowed (repeatable)")
	pf.StringArrayVarP(&a.opts.excludeTables, "exclude", "e", nil, "Exclude tables matching this pattern (repeatable)")
	pf.StringVar(&a.opts.dbURL, "db-url", "", "Read a live database instead of a dump (postgres://, mysql://, sqlite://; default $DATABASE_URL)")
	pf.StringVar(&a.opts.configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/pgmermaid/config.yaml)")
	pf.BoolVarP(&a.opts.verbose, "verbose", "v", false, "Verbose output on stderr")

	f := rootCmd.Flags()
	f.StringVarP(&a.opts.output, "output", "o", "", "Output file (default: stdout)")
	f.StringVarP(&a.opts.outputDir, "output-dir", "d", "", "Write one diagram per schema plus _overview.md into this directory")
	f.StringVarP(&a.opts.format, "format", "f", "mermaid", "Output format: mermaid, markdown, json or text")
	f.BoolVar(&a.opts.compact, "compact", false, "Show only PK/FK columns")
	f.BoolVar(&a.opts.normal, "normal", false, "Show all columns with simplified types (default)")
	f.BoolVar(&a.opts.full, "full", false, "Show all columns with full type information")
	f.BoolVar(&a.opts.svg, "svg", false, "Export as SVG image")
	f.BoolVar(&a.opts.png, "png", false, "Export as PNG image")
	f.BoolVar(&a.opts.pdf, "pdf", false, "Export as PDF document")
	f.StringVar(&a.opts.exportMethod, "export-method", "auto", "Export method: auto, local (mermaid-cli) or online (kroki.io)")
	f.StringVar(&a.opts.theme, "theme", "default", "Mermaid theme for image export: default, dark, forest or neutral")
	f.StringVar(&a.opts.background, "background", "white", "Background color for image export")
	f.IntVar(&a.opts.scale, "scale", 2, "Scale factor for PNG export")
	f.BoolVarP(&a.opts.connectedOnly, "connected-only", "c", false, "Only show tables that have relationships")
	f.IntVar(&a.opts.maxColumns, "max-columns", 20, "Max columns per table, 0 for unlimited")
	f.BoolVarP(&a.opts.groupBySchema, "group-by-schema", "g", false, "Group tables by schema")
	f.BoolVar(&a.opts.noSchemaPrefix, "no-schema-prefix", false, "Don't prefix table names with their schema")
	f.StringVar(&a.opts.title, "title", "", "Diagram title")

	rootCmd.MarkFlagsMutuallyExclusive("compact", "normal", "full")
	rootCmd.MarkFlagsMutuallyExclusive("svg", "png", "pdf")
	rootCmd.MarkFlagsMutuallyExclusive("output", "output-dir")

	rootCmd.AddCommand(a.newInspectCmd(), newCheckDepsCmd(), newVersionCmd())

	return rootCmd
}

func (a *app) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	imageFormat := a.imageFormat()
	if imageFormat != "" && a.opts.output == "" && a.opts.outputDir == "" {
		return errors.New("image export requires an output file (-o FILE)")
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	renderOpts, err := a.renderOptions(cmd, cfg)
	if err != nil {
		return err
	}

	db, err := a.loadDatabase(ctx, args)
	if err != nil {
		return err
	}
	a.suggestTables(db, renderOpts)

	if a.opts.outputDir != "" {
		return a.writeFiles(ctx, cmd, cfg, db, renderOpts, imageFormat)
	}

	if imageFormat != "" {
		return a.exportImage(ctx, cmd, cfg, db, renderOpts, imageFormat)
	}

	out, err := pgmermaid.Render(db, &renderOpts)
	if err != nil {
		return err
	}

	if a.opts.output == "" {
		_, err := fmt.Fprintln(a.stdout, out)
		return err
	}

	if err := os.WriteFile(a.opts.output, []byte(out), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	a.log.Debugf("Written to %s", a.opts.output)
	return nil
}

func (a *app) imageFormat() export.Format {
	switch {
	case a.opts.svg:
		return export.FormatSVG
	case a.opts.png:
		return export.FormatPNG
	case a.opts.pdf:
		return export.FormatPDF
	}
	return ""
}

// loadConfig reads --config when given, failing on any error, or the
// default config file, falling back to defaults with a warning
func (a *app) loadConfig() (*config.Config, error) {
	if a.opts.configPath != "" {
		cfg, err := config.Load(a.opts.configPath)
		if err != nil {
			return nil, err
		}
		return cfg, nil
	}

	cfg, err := config.LoadDefault()
	if err != nil {
		a.log.WithError(err).Warn("could not load config, using defaults")
		return config.DefaultConfig(), nil
	}
	return cfg, nil
}

// renderOptions starts from the config and applies only the flags the user
// set explicitly
func (a *app) renderOptions(cmd *cobra.Command, cfg *config.Config) (formatter.Options, error) {
	opts := cfg.RenderOptions()
	flags := cmd.Flags()

	switch {
	case a.opts.compact:
		opts.Mode = formatter.ModeCompact
	case a.opts.full:
		opts.Mode = formatter.ModeFull
	case a.opts.normal:
		opts.Mode = formatter.ModeNormal
	}

	if flags.Changed("format") {
		format, err := formatter.ParseFormat(a.opts.format)
		if err != nil {
			return opts, err
		}
		opts.Format = format
	}
	if flags.Changed("schema") {
		opts.IncludeSchemas = a.opts.schemas
	}
	if flags.Changed("exclude-schema") {
		opts.ExcludeSchemas = a.opts.excludeSchemas
	}
	if flags.Changed("table") {
		opts.IncludeTables = a.opts.tables
	}
	if flags.Changed("exclude") {
		opts.ExcludeTables = a.opts.excludeTables
	}
	if flags.Changed("connected-only") {
		opts.ConnectedOnly = a.opts.connectedOnly
	}
	if flags.Changed("max-columns") {
		if a.opts.maxColumns < 0 {
			return opts, fmt.Errorf("--max-columns must not be negative, got %d", a.opts.maxColumns)
		}
		opts.MaxColumns = a.opts.maxColumns
	}
	if flags.Changed("group-by-schema") {
		opts.GroupBySchema = a.opts.groupBySchema
	}
	if flags.Changed("no-schema-prefix") {
		opts.ShowSchemaPrefix = !a.opts.noSchemaPrefix
	}
	if flags.Changed("title") {
		opts.Title = a.opts.title
	}

	return opts, nil
}

func (a *app) exportOptions(cmd *cobra.Command, cfg *config.Config, format export.Format) (export.Options, error) {
	opts := cfg.ExportOptions()
	opts.Format = format
	opts.Version = pgmermaid.Version
	flags := cmd.Flags()

	if flags.Changed("export-method") {
		method, err := export.ParseMethod(a.opts.exportMethod)
		if err != nil {
			return opts, err
		}
		opts.Method = method
	}
	if flags.Changed("theme") {
		opts.Theme = a.opts.theme
	}
	if flags.Changed("background") {
		opts.Background = a.opts.background
	}
	if flags.Changed("scale") {
		if a.opts.scale <= 0 {
			return opts, fmt.Errorf("--scale must be positive, got %d", a.opts.scale)
		}
		opts.Scale = a.opts.scale
	}

	return opts, nil
}

// loadDatabase reads the schema from --db-url, or $DATABASE_URL when no
// input is given on the command line or stdin, or else parses the dump
func (a *app) loadDatabase(ctx context.Context, args []string) (*schema.Database, error) {
	dbURL := a.opts.dbURL
	if dbURL == "" && len(args) == 0 && isTerminal(a.stdin) {
		dbURL = os.Getenv("DATABASE_URL")
	}

	if dbURL != "" {
		if len(args) > 0 && args[0] != "-" {
			return nil, errors.New("cannot use both an input file and --db-url")
		}
		a.log.Debug("Reading live database schema...")
		db, err := pgmermaid.ExtractSchema(ctx, dbURL, &pgmermaid.Options{
			Schemas: a.opts.schemas,
			Logger:  a.log,
		})
		if err != nil {
			return nil, err
		}
		a.reportCounts(db)
		return db, nil
	}

	input := "-"
	if len(args) > 0 {
		input = args[0]
	}

	sql, name, err := a.readInput(input)
	if err != nil {
		return nil, err
	}

	a.log.Debugf("Parsing %s...", name)
	db := parser.New(parser.WithLogger(a.log)).Parse(sql)
	a.reportCounts(db)
	return db, nil
}

func (a *app) readInput(input string) (sql, name string, err error) {
	if input == "-" {
		if isTerminal(a.stdin) {
			return "", "", errors.New("no input provided; pass a file or pipe SQL to stdin (see 'pgmermaid --help')")
		}
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return "", "", fmt.Errorf("failed to read stdin: %w", err)
		}
		sql, name = string(data), "<stdin>"
	} else {
		data, err := os.ReadFile(input)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return "", "", fmt.Errorf("file not found: %s", input)
			}
			return "", "", fmt.Errorf("failed to read %s: %w", input, err)
		}
		sql, name = string(data), input
	}

	if strings.TrimSpace(sql) == "" {
		return "", "", errors.New("input is empty")
	}
	return sql, name, nil
}

func (a *app) reportCounts(db *schema.Database) {
	schemas := db.Schemas()
	a.log.Debugf("Found %d tables in %d schema(s).", db.TableCount(), len(schemas))
	for _, s := range schemas {
		a.log.Debugf("  %s: %d tables", s.Name, s.Len())
	}

	if db.TableCount() == 0 {
		a.log.Warn("No tables found in input.")
	}
}

// suggestTables warns about include patterns that match nothing
func (a *app) suggestTables(db *schema.Database, opts formatter.Options) {
	if len(opts.IncludeTables) == 0 {
		return
	}

	var names []string
	for _, t := range db.Tables() {
		names = append(names, t.Name)
	}

	for _, pattern := range opts.IncludeTables {
		if anyTableMatches(names, pattern) {
			continue
		}
		entry := a.log.WithField("pattern", pattern)
		if hints := formatter.SuggestTables(pattern, names); len(hints) > 0 {
			entry = entry.WithField("did_you_mean", strings.Join(hints, ", "))
		}
		entry.Warn("table pattern matches no tables")
	}
}

func anyTableMatches(names []string, pattern string) bool {
	for _, name := range names {
		if formatter.MatchPattern(name, pattern) {
			return true
		}
	}
	return false
}

func (a *app) writeFiles(ctx context.Context, cmd *cobra.Command, cfg *config.Config, db *schema.Database, opts formatter.Options, imageFormat export.Format) error {
	mf := formatter.NewMultiFileFormatter(a.opts.outputDir, opts)
	if isTerminal(a.stderr) {
		mf.Progress = a.stderr
	}

	if imageFormat != "" {
		exportOpts, err := a.exportOptions(cmd, cfg, imageFormat)
		if err != nil {
			return err
		}
		mf.Exporter = export.New(exportOpts, export.WithLogger(a.log))
		mf.ImageFormat = string(imageFormat)
	}

	paths, err := mf.Format(ctx, db)
	if err != nil {
		return err
	}
	for _, p := range paths {
		a.log.Debugf("Written to %s", p)
	}
	return nil
}

func (a *app) exportImage(ctx context.Context, cmd *cobra.Command, cfg *config.Config, db *schema.Database, opts formatter.Options, imageFormat export.Format) error {
	exportOpts, err := a.exportOptions(cmd, cfg, imageFormat)
	if err != nil {
		return err
	}

	// Renderers take raw Mermaid whatever --format says
	opts.Format = formatter.FormatMermaid
	diagram := formatter.RenderMermaid(db, opts)

	a.log.Debugf("Exporting as %s...", strings.ToUpper(string(imageFormat)))
	path, err := export.New(exportOpts, export.WithLogger(a.log)).Export(ctx, diagram, a.opts.output)
	if err != nil {
		return fmt.Errorf("export error: %w", err)
	}
	a.log.Debugf("Written to %s", path)
	return nil
}

// isTerminal reports whether v is a file attached to a terminal
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
