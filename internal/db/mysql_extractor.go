package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tordrt/pgmermaid/internal/schema"
	"github.com/tordrt/pgmermaid/internal/sqltype"
)

// MySQLExtractor builds a schema model from one MySQL database. The
// database name becomes the schema name.
type MySQLExtractor struct {
	client   *MySQLClient
	database string
	log      logrus.FieldLogger
}

// NewMySQLExtractor creates a new MySQL schema extractor
func NewMySQLExtractor(client *MySQLClient, database string) *MySQLExtractor {
	return &MySQLExtractor{
		client:   client,
		database: database,
		log:      discardLogger(),
	}
}

// WithLogger sets the logger used for per-table progress
func (e *MySQLExtractor) WithLogger(log logrus.FieldLogger) *MySQLExtractor {
	e.log = log
	return e
}

// Extract reads every base table in the database
func (e *MySQLExtractor) Extract(ctx context.Context) (*schema.Database, error) {
	names, err := e.tableNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	db := schema.NewDatabase()
	for _, name := range names {
		e.log.WithField("table", e.database+"."+name).Debug("extracting table")
		table, err := e.extractTable(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to extract table %s: %w", name, err)
		}
		db.AddTable(table)
	}

	return db, nil
}

func (e *MySQLExtractor) tableNames(ctx context.Context) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	return e.queryStrings(ctx, query, e.database)
}

func (e *MySQLExtractor) extractTable(ctx context.Context, name string) (*schema.Table, error) {
	table := schema.NewTable(e.database, name)

	columns, err := e.extractColumns(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	table.Columns = columns

	pk, err := e.extractPrimaryKey(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to extract primary key: %w", err)
	}
	if len(pk) > 0 {
		table.SetPrimaryKey(pk)
	}

	fks, err := e.extractForeignKeys(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to extract foreign keys: %w", err)
	}
	for _, fk := range fks {
		table.AddForeignKey(fk)
	}

	uniques, err := e.extractUniqueConstraints(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to extract unique constraints: %w", err)
	}
	for _, cols := range uniques {
		table.AddUniqueConstraint(cols)
	}

	return table, nil
}

func (e *MySQLExtractor) extractColumns(ctx context.Context, tableName string) ([]schema.Column, error) {
	query := `
		SELECT column_name, column_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position
	`

	rows, err := e.client.DB().QueryContext(ctx, query, e.database, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var col schema.Column
		var columnType, nullable string
		var defaultVal sql.NullString

		if err := rows.Scan(&col.Name, &columnType, &nullable, &defaultVal); err != nil {
			return nil, err
		}

		col.Type = sqltype.Normalize(columnType)
		col.Nullable = nullable == "YES"
		if defaultVal.Valid {
			col.Default = &defaultVal.String
		}

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

func (e *MySQLExtractor) extractPrimaryKey(ctx context.Context, tableName string) ([]string, error) {
	query := `
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ?
			AND table_name = ?
			AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position
	`

	return e.queryStrings(ctx, query, e.database, tableName)
}

func (e *MySQLExtractor) extractForeignKeys(ctx context.Context, tableName string) ([]schema.ForeignKey, error) {
	query := `
		SELECT
			kcu.constraint_name,
			kcu.column_name,
			kcu.referenced_table_schema,
			kcu.referenced_table_name,
			kcu.referenced_column_name,
			rc.delete_rule,
			rc.update_rule
		FROM information_schema.key_column_usage kcu
		JOIN information_schema.referential_constraints rc
			ON rc.constraint_schema = kcu.constraint_schema
			AND rc.constraint_name = kcu.constraint_name
		WHERE kcu.table_schema = ?
			AND kcu.table_name = ?
			AND kcu.referenced_table_name IS NOT NULL
		ORDER BY kcu.constraint_name, kcu.ordinal_position
	`

	rows, err := e.client.DB().QueryContext(ctx, query, e.database, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []schema.ForeignKey
	for rows.Next() {
		var name, column, refSchema, refTable, refColumn, onDelete, onUpdate string

		if err := rows.Scan(&name, &column, &refSchema, &refTable, &refColumn, &onDelete, &onUpdate); err != nil {
			return nil, err
		}

		// Rows of one constraint arrive together, ordered by position
		if n := len(fks); n > 0 && *fks[n-1].ConstraintName == name {
			fks[n-1].Columns = append(fks[n-1].Columns, column)
			fks[n-1].RefColumns = append(fks[n-1].RefColumns, refColumn)
			continue
		}

		fk := schema.ForeignKey{
			Columns:        []string{column},
			RefTable:       refTable,
			RefColumns:     []string{refColumn},
			ConstraintName: &name,
			OnDelete:       mysqlRule(onDelete),
			OnUpdate:       mysqlRule(onUpdate),
		}
		if refSchema != e.database {
			fk.RefSchema = &refSchema
		}
		fks = append(fks, fk)
	}

	return fks, rows.Err()
}

// mysqlRule treats the implicit NO ACTION rule as unset
func mysqlRule(rule string) *string {
	rule = strings.ToUpper(strings.TrimSpace(rule))
	if rule == "" || rule == "NO ACTION" {
		return nil
	}
	return &rule
}

func (e *MySQLExtractor) extractUniqueConstraints(ctx context.Context, tableName string) ([][]string, error) {
	query := `
		SELECT GROUP_CONCAT(kcu.column_name ORDER BY kcu.ordinal_position)
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON kcu.constraint_schema = tc.constraint_schema
			AND kcu.constraint_name = tc.constraint_name
			AND kcu.table_name = tc.table_name
		WHERE tc.table_schema = ?
			AND tc.table_name = ?
			AND tc.constraint_type = 'UNIQUE'
		GROUP BY tc.constraint_name
		ORDER BY tc.constraint_name
	`

	lists, err := e.queryStrings(ctx, query, e.database, tableName)
	if err != nil {
		return nil, err
	}

	var uniques [][]string
	for _, list := range lists {
		uniques = append(uniques, strings.Split(list, ","))
	}
	return uniques, nil
}

func (e *MySQLExtractor) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := e.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}

	return values, rows.Err()
}
