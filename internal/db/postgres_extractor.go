package db

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/tordrt/pgmermaid/internal/schema"
	"github.com/tordrt/pgmermaid/internal/sqltype"
)

// Extractor builds a schema model from a PostgreSQL catalog
type Extractor struct {
	client  *PostgresClient
	schemas []string
	log     logrus.FieldLogger
}

// NewExtractor creates a new schema extractor. With no schema names every
// non-system schema is read.
func NewExtractor(client *PostgresClient, schemas ...string) *Extractor {
	return &Extractor{
		client:  client,
		schemas: append([]string{}, schemas...),
		log:     discardLogger(),
	}
}

// WithLogger sets the logger used for per-table progress
func (e *Extractor) WithLogger(log logrus.FieldLogger) *Extractor {
	e.log = log
	return e
}

type tableRef struct {
	schema string
	name   string
}

// Extract reads every base table in the selected schemas
func (e *Extractor) Extract(ctx context.Context) (*schema.Database, error) {
	refs, err := e.tableNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	db := schema.NewDatabase()
	for _, ref := range refs {
		e.log.WithField("table", ref.schema+"."+ref.name).Debug("extracting table")
		table, err := e.extractTable(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("failed to extract table %s.%s: %w", ref.schema, ref.name, err)
		}
		db.AddTable(table)
	}

	return db, nil
}

func (e *Extractor) tableNames(ctx context.Context) ([]tableRef, error) {
	query := `
		SELECT table_schema, table_name
		FROM information_schema.tables
		WHERE table_type = 'BASE TABLE'
			AND table_schema NOT IN ('pg_catalog', 'information_schema')
			AND table_schema NOT LIKE 'pg_toast%'
			AND (coalesce(cardinality($1::text[]), 0) = 0 OR table_schema = ANY($1))
		ORDER BY table_schema, table_name
	`

	rows, err := e.client.Conn().Query(ctx, query, e.schemas)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []tableRef
	for rows.Next() {
		var ref tableRef
		if err := rows.Scan(&ref.schema, &ref.name); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}

	return refs, rows.Err()
}

func (e *Extractor) extractTable(ctx context.Context, ref tableRef) (*schema.Table, error) {
	table := schema.NewTable(ref.schema, ref.name)

	columns, err := e.extractColumns(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	table.Columns = columns

	pk, err := e.extractPrimaryKey(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to extract primary key: %w", err)
	}
	if len(pk) > 0 {
		table.SetPrimaryKey(pk)
	}

	fks, err := e.extractForeignKeys(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to extract foreign keys: %w", err)
	}
	for _, fk := range fks {
		table.AddForeignKey(fk)
	}

	uniques, err := e.extractUniqueConstraints(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to extract unique constraints: %w", err)
	}
	for _, cols := range uniques {
		table.AddUniqueConstraint(cols)
	}

	return table, nil
}

// postgresTypeName spells a catalog type the way pg_dump writes it, so the
// result normalizes exactly like a parsed dump.
func postgresTypeName(dataType, udtName string, charMaxLength, numericPrecision, numericScale *int) string {
	switch dataType {
	case "character varying", "character":
		if charMaxLength != nil {
			return fmt.Sprintf("%s(%d)", dataType, *charMaxLength)
		}
		return dataType
	case "numeric":
		switch {
		case numericPrecision != nil && numericScale != nil:
			return fmt.Sprintf("numeric(%d,%d)", *numericPrecision, *numericScale)
		case numericPrecision != nil:
			return fmt.Sprintf("numeric(%d)", *numericPrecision)
		}
		return dataType
	case "ARRAY":
		// udt_name carries an underscore prefix for arrays (_text, _int4)
		if len(udtName) > 0 && udtName[0] == '_' {
			return udtAlias(udtName[1:]) + "[]"
		}
		return "array"
	case "USER-DEFINED":
		return udtName
	default:
		return dataType
	}
}

// udtAlias converts internal type names to their SQL spelling
func udtAlias(udtName string) string {
	switch udtName {
	case "int4":
		return "integer"
	case "int8":
		return "bigint"
	case "int2":
		return "smallint"
	case "float4":
		return "real"
	case "float8":
		return "double precision"
	case "bool":
		return "boolean"
	case "timestamptz":
		return "timestamp with time zone"
	case "timetz":
		return "time with time zone"
	default:
		return udtName
	}
}

func (e *Extractor) extractColumns(ctx context.Context, ref tableRef) ([]schema.Column, error) {
	query := `
		SELECT
			column_name,
			data_type,
			udt_name,
			character_maximum_length,
			numeric_precision,
			numeric_scale,
			is_nullable,
			column_default
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`

	rows, err := e.client.Conn().Query(ctx, query, ref.schema, ref.name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var col schema.Column
		var dataType, udtName, nullable string
		var charMaxLength, numericPrecision, numericScale *int

		if err := rows.Scan(&col.Name, &dataType, &udtName, &charMaxLength, &numericPrecision, &numericScale, &nullable, &col.Default); err != nil {
			return nil, err
		}

		col.Nullable = nullable == "YES"
		col.Type = sqltype.Normalize(postgresTypeName(dataType, udtName, charMaxLength, numericPrecision, numericScale))

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

func (e *Extractor) extractPrimaryKey(ctx context.Context, ref tableRef) ([]string, error) {
	query := `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON kcu.constraint_name = tc.constraint_name
			AND kcu.table_schema = tc.table_schema
			AND kcu.table_name = tc.table_name
		WHERE tc.table_schema = $1
			AND tc.table_name = $2
			AND tc.constraint_type = 'PRIMARY KEY'
		ORDER BY kcu.ordinal_position
	`

	return queryStrings(ctx, e.client, query, ref.schema, ref.name)
}

// referentialAction maps pg_constraint action codes. NO ACTION is the
// implicit default and is reported as unset, as it is for a dump that omits it.
func referentialAction(code string) *string {
	var action string
	switch code {
	case "r":
		action = "RESTRICT"
	case "c":
		action = "CASCADE"
	case "n":
		action = "SET NULL"
	case "d":
		action = "SET DEFAULT"
	default:
		return nil
	}
	return &action
}

func (e *Extractor) extractForeignKeys(ctx context.Context, ref tableRef) ([]schema.ForeignKey, error) {
	query := `
		SELECT
			c.conname::text,
			ARRAY(
				SELECT a.attname::text
				FROM unnest(c.conkey) WITH ORDINALITY AS k(attnum, ord)
				JOIN pg_attribute a ON a.attrelid = c.conrelid AND a.attnum = k.attnum
				ORDER BY k.ord
			),
			rn.nspname::text,
			rc.relname::text,
			ARRAY(
				SELECT a.attname::text
				FROM unnest(c.confkey) WITH ORDINALITY AS k(attnum, ord)
				JOIN pg_attribute a ON a.attrelid = c.confrelid AND a.attnum = k.attnum
				ORDER BY k.ord
			),
			c.confdeltype::text,
			c.confupdtype::text
		FROM pg_constraint c
		JOIN pg_class t ON t.oid = c.conrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_class rc ON rc.oid = c.confrelid
		JOIN pg_namespace rn ON rn.oid = rc.relnamespace
		WHERE c.contype = 'f' AND n.nspname = $1 AND t.relname = $2
		ORDER BY c.conname
	`

	rows, err := e.client.Conn().Query(ctx, query, ref.schema, ref.name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []schema.ForeignKey
	for rows.Next() {
		var fk schema.ForeignKey
		var name, refSchema, onDelete, onUpdate string

		if err := rows.Scan(&name, &fk.Columns, &refSchema, &fk.RefTable, &fk.RefColumns, &onDelete, &onUpdate); err != nil {
			return nil, err
		}

		fk.ConstraintName = &name
		if refSchema != schema.DefaultSchema {
			fk.RefSchema = &refSchema
		}
		fk.OnDelete = referentialAction(onDelete)
		fk.OnUpdate = referentialAction(onUpdate)

		fks = append(fks, fk)
	}

	return fks, rows.Err()
}

func (e *Extractor) extractUniqueConstraints(ctx context.Context, ref tableRef) ([][]string, error) {
	query := `
		SELECT ARRAY(
			SELECT a.attname::text
			FROM unnest(c.conkey) WITH ORDINALITY AS k(attnum, ord)
			JOIN pg_attribute a ON a.attrelid = c.conrelid AND a.attnum = k.attnum
			ORDER BY k.ord
		)
		FROM pg_constraint c
		JOIN pg_class t ON t.oid = c.conrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE c.contype = 'u' AND n.nspname = $1 AND t.relname = $2
		ORDER BY c.conname
	`

	rows, err := e.client.Conn().Query(ctx, query, ref.schema, ref.name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var uniques [][]string
	for rows.Next() {
		var cols []string
		if err := rows.Scan(&cols); err != nil {
			return nil, err
		}
		uniques = append(uniques, cols)
	}

	return uniques, rows.Err()
}

func queryStrings(ctx context.Context, client *PostgresClient, query string, args ...any) ([]string, error) {
	rows, err := client.Conn().Query(ctx, query, args...)
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
