package parser

import (
	"iter"
	"regexp"
	"strings"

	"github.com/tordrt/pgmermaid/internal/schema"
)

// ConstraintKind identifies the table-level constraints the parser keeps.
type ConstraintKind int

const (
	PrimaryKeyConstraint ConstraintKind = iota
	ForeignKeyConstraint
	UniqueConstraint
)

func (k ConstraintKind) String() string {
	switch k {
	case PrimaryKeyConstraint:
		return "PRIMARY KEY"
	case ForeignKeyConstraint:
		return "FOREIGN KEY"
	case UniqueConstraint:
		return "UNIQUE"
	default:
		return "UNKNOWN"
	}
}

const (
	action = `(?:CASCADE|RESTRICT|NO\s+ACTION|SET\s+NULL|SET\s+DEFAULT)`

	// referentialActions captures any run of ON DELETE / ON UPDATE clauses,
	// in either order.
	referentialActions = `((?:\s+ON\s+(?:DELETE|UPDATE)\s+` + action + `)*)`

	foreignKeyBody = `FOREIGN\s+KEY\s*\(([^)]+)\)\s*REFERENCES\s+([^\s(]+)\s*\(([^)]+)\)` + referentialActions
	uniqueBody     = `UNIQUE(?:\s+NULLS\s+(?:NOT\s+)?DISTINCT)?\s*\(([^)]+)\)`
	alterPrefix    = `ALTER\s+TABLE\s+(?:IF\s+EXISTS\s+)?(?:ONLY\s+)?(\S+)\s+ADD\s+CONSTRAINT\s+`
)

var (
	constraintNamePrefix = regexp.MustCompile(`(?is)^CONSTRAINT\s+(?:"(?:[^"]|"")*"|\S+)\s+`)

	primaryKeyColumns = regexp.MustCompile(`(?is)PRIMARY\s+KEY\s*\(([^)]+)\)`)
	foreignKeyClause  = regexp.MustCompile(`(?is)(?:CONSTRAINT\s+"?(\w+)"?\s+)?` + foreignKeyBody)
	uniqueColumns     = regexp.MustCompile(`(?is)` + uniqueBody)

	onDeletePattern = regexp.MustCompile(`(?is)ON\s+DELETE\s+(` + action + `)`)
	onUpdatePattern = regexp.MustCompile(`(?is)ON\s+UPDATE\s+(` + action + `)`)

	alterPrimaryKey = regexp.MustCompile(`(?is)` + alterPrefix + `\S+\s+PRIMARY\s+KEY\s*\(([^)]+)\)`)
	alterForeignKey = regexp.MustCompile(`(?is)` + alterPrefix + `"?(\w+)"?\s+` + foreignKeyBody)
	alterUnique     = regexp.MustCompile(`(?is)` + alterPrefix + `\S+\s+` + uniqueBody)
)

// ApplyTableConstraint records a table-level constraint definition on table.
// CHECK, EXCLUDE, and anything unrecognized are ignored.
func ApplyTableConstraint(table *schema.Table, def string) {
	def = strings.TrimSpace(def)
	kind := strings.ToUpper(constraintNamePrefix.ReplaceAllString(def, ""))

	switch {
	case strings.HasPrefix(kind, "PRIMARY"):
		if m := primaryKeyColumns.FindStringSubmatch(def); m != nil {
			table.SetPrimaryKey(parseColumnList(m[1]))
		}
	case strings.HasPrefix(kind, "FOREIGN"):
		if m := foreignKeyClause.FindStringSubmatch(def); m != nil {
			table.AddForeignKey(newForeignKey(m[1], m[2], m[3], m[4], m[5]))
		}
	case strings.HasPrefix(kind, "UNIQUE"):
		if m := uniqueColumns.FindStringSubmatch(def); m != nil {
			table.AddUniqueConstraint(parseColumnList(m[1]))
		}
	}
}

// AlterClause is one ALTER TABLE ... ADD CONSTRAINT clause. ForeignKey is
// set only for ForeignKeyConstraint; Columns only for the other kinds.
type AlterClause struct {
	Kind       ConstraintKind
	Schema     string
	Table      string
	Columns    []string
	ForeignKey *schema.ForeignKey
}

// AlterTableClauses yields every recognized ALTER TABLE ... ADD CONSTRAINT
// clause in sql: all primary keys first, then foreign keys, then unique
// constraints, each group in source order.
func AlterTableClauses(sql string) iter.Seq[AlterClause] {
	return func(yield func(AlterClause) bool) {
		for _, m := range alterPrimaryKey.FindAllStringSubmatch(sql, -1) {
			schemaName, table := ParseQualifiedName(m[1])
			clause := AlterClause{
				Kind:    PrimaryKeyConstraint,
				Schema:  schemaName,
				Table:   table,
				Columns: parseColumnList(m[2]),
			}
			if !yield(clause) {
				return
			}
		}

		for _, m := range alterForeignKey.FindAllStringSubmatch(sql, -1) {
			schemaName, table := ParseQualifiedName(m[1])
			fk := newForeignKey(m[2], m[3], m[4], m[5], m[6])
			clause := AlterClause{
				Kind:       ForeignKeyConstraint,
				Schema:     schemaName,
				Table:      table,
				ForeignKey: &fk,
			}
			if !yield(clause) {
				return
			}
		}

		for _, m := range alterUnique.FindAllStringSubmatch(sql, -1) {
			schemaName, table := ParseQualifiedName(m[1])
			clause := AlterClause{
				Kind:    UniqueConstraint,
				Schema:  schemaName,
				Table:   table,
				Columns: parseColumnList(m[2]),
			}
			if !yield(clause) {
				return
			}
		}
	}
}

func newForeignKey(name, columns, ref, refColumns, actions string) schema.ForeignKey {
	refSchema, refTable := ParseQualifiedName(ref)
	fk := schema.ForeignKey{
		Columns:    parseColumnList(columns),
		RefTable:   refTable,
		RefColumns: parseColumnList(refColumns),
	}
	if refSchema != schema.DefaultSchema {
		fk.RefSchema = &refSchema
	}
	if name != "" {
		fk.ConstraintName = &name
	}
	fk.OnDelete, fk.OnUpdate = parseActions(actions)
	return fk
}

// parseActions pulls ON DELETE and ON UPDATE actions out of the clause run
// captured by referentialActions. Actions are upper-cased with single spaces.
func parseActions(s string) (onDelete, onUpdate *string) {
	if m := onDeletePattern.FindStringSubmatch(s); m != nil {
		v := canonicalAction(m[1])
		onDelete = &v
	}
	if m := onUpdatePattern.FindStringSubmatch(s); m != nil {
		v := canonicalAction(m[1])
		onUpdate = &v
	}
	return onDelete, onUpdate
}

func canonicalAction(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}
