// Package parser recovers tables, columns, and constraints from PostgreSQL
// dump text without a full SQL grammar.
//
// Parsing runs in two passes over the same text. The first pass builds a
// table for every CREATE TABLE statement; the second applies ALTER TABLE ...
// ADD CONSTRAINT clauses to tables that already exist. Anything that cannot
// be understood is skipped, so Parse never fails.
//
//	db := parser.Parse(dump)
//	for _, table := range db.Tables() {
//		fmt.Println(table.QualifiedName(), len(table.Columns))
//	}
package parser

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tordrt/pgmermaid/internal/schema"
)

// Parser turns dump text into a schema.Database. A Parser holds no state
// between calls and may be shared.
type Parser struct {
	log           logrus.FieldLogger
	stripComments bool
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used for debug output about skipped input.
func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Parser) {
		p.log = log
	}
}

// WithComments keeps SQL comments in the input instead of blanking them out
// before extraction.
func WithComments() Option {
	return func(p *Parser) {
		p.stripComments = false
	}
}

// New creates a Parser. Without options it discards log output.
func New(opts ...Option) *Parser {
	silent := logrus.New()
	silent.SetOutput(io.Discard)

	p := &Parser{
		log:           silent,
		stripComments: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse parses sql with a default Parser.
func Parse(sql string) *schema.Database {
	return New().Parse(sql)
}

// Parse builds a Database from dump text.
func (p *Parser) Parse(sql string) *schema.Database {
	if p.stripComments {
		sql = stripComments(sql)
	}

	db := schema.NewDatabase()

	skipped := func(name string) {
		p.log.WithField("table", name).Debug("skipping CREATE TABLE without a well-formed body")
	}
	for stmt := range scanCreateTables(sql, skipped) {
		db.AddTable(p.parseTable(stmt))
	}

	for clause := range AlterTableClauses(sql) {
		p.applyAlterClause(db, clause)
	}

	return db
}

func (p *Parser) parseTable(stmt TableStatement) *schema.Table {
	schemaName, name := ParseQualifiedName(stmt.Name)
	table := schema.NewTable(schemaName, name)

	var constraints []string
	for _, def := range SplitDefinitions(stmt.Body) {
		if IsTableConstraint(def) {
			constraints = append(constraints, def)
			continue
		}

		col, fk, ok := ParseColumn(def)
		if !ok {
			p.log.WithFields(logrus.Fields{
				"table":      table.QualifiedName(),
				"definition": def,
			}).Debug("skipping unparsable column definition")
			continue
		}
		table.AddColumn(col)
		if fk != nil {
			table.AddForeignKey(*fk)
		}
	}

	for _, c := range constraints {
		ApplyTableConstraint(table, c)
	}

	return table
}

func (p *Parser) applyAlterClause(db *schema.Database, clause AlterClause) {
	table := db.Table(clause.Schema, clause.Table)
	if table == nil {
		p.log.WithFields(logrus.Fields{
			"table":      clause.Schema + "." + clause.Table,
			"constraint": clause.Kind.String(),
		}).Debug("dropping ALTER TABLE clause for unknown table")
		return
	}

	switch clause.Kind {
	case PrimaryKeyConstraint:
		table.SetPrimaryKey(clause.Columns)
	case ForeignKeyConstraint:
		table.AddForeignKey(*clause.ForeignKey)
	case UniqueConstraint:
		table.AddUniqueConstraint(clause.Columns)
	}
}

// ParseQualifiedName splits a possibly schema-qualified name on its first
// dot after removing double quotes. Unqualified names get the default schema.
func ParseQualifiedName(name string) (schemaName, table string) {
	name = strings.ReplaceAll(name, `"`, "")
	if before, after, found := strings.Cut(name, "."); found {
		return before, after
	}
	return schema.DefaultSchema, name
}

// parseColumnList splits a comma-separated identifier list, dropping quotes
// and empty entries.
func parseColumnList(list string) []string {
	var columns []string
	for _, col := range strings.Split(list, ",") {
		col = strings.ReplaceAll(strings.TrimSpace(col), `"`, "")
		if col != "" {
			columns = append(columns, col)
		}
	}
	return columns
}
