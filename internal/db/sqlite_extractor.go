package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tordrt/pgmermaid/internal/parser"
	"github.com/tordrt/pgmermaid/internal/schema"
)

// SQLiteExtractor rebuilds a schema model from the CREATE TABLE text SQLite
// keeps in sqlite_master. Tables land in the default schema.
type SQLiteExtractor struct {
	client *SQLiteClient
	log    logrus.FieldLogger
}

// NewSQLiteExtractor creates a new SQLite schema extractor
func NewSQLiteExtractor(client *SQLiteClient) *SQLiteExtractor {
	return &SQLiteExtractor{
		client: client,
		log:    discardLogger(),
	}
}

// WithLogger sets the logger handed to the DDL parser
func (e *SQLiteExtractor) WithLogger(log logrus.FieldLogger) *SQLiteExtractor {
	e.log = log
	return e
}

// Extract parses every user table definition
func (e *SQLiteExtractor) Extract(ctx context.Context) (*schema.Database, error) {
	ddl, err := e.DDL(ctx)
	if err != nil {
		return nil, err
	}
	return parser.New(parser.WithLogger(e.log)).Parse(ddl), nil
}

// DDL returns the stored CREATE TABLE statements, one per line, each
// terminated with a semicolon
func (e *SQLiteExtractor) DDL(ctx context.Context) (string, error) {
	query := `
		SELECT sql
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND sql IS NOT NULL
		ORDER BY name
	`

	rows, err := e.client.DB().QueryContext(ctx, query)
	if err != nil {
		return "", fmt.Errorf("failed to read sqlite_master: %w", err)
	}
	defer rows.Close()

	var b strings.Builder
	for rows.Next() {
		var stmt string
		if err := rows.Scan(&stmt); err != nil {
			return "", fmt.Errorf("failed to read sqlite_master: %w", err)
		}
		b.WriteString(strings.TrimRight(strings.TrimSpace(stmt), ";"))
		b.WriteString(";\n")
	}

	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("failed to read sqlite_master: %w", err)
	}
	return b.String(), nil
}
