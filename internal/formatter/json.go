package formatter

import (
	"encoding/json"
	"io"

	"github.com/tordrt/pgmermaid/internal/schema"
)

// JSONFormatter writes the filtered schema as indented JSON
type JSONFormatter struct {
	writer io.Writer
	opts   Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(w io.Writer, opts Options) *JSONFormatter {
	return &JSONFormatter{writer: w, opts: opts}
}

type jsonDocument struct {
	Schemas       map[string]*jsonSchema `json:"schemas"`
	Relationships []jsonRelationship     `json:"relationships"`
}

type jsonSchema struct {
	Tables map[string]jsonTable `json:"tables"`
}

type jsonTable struct {
	Columns           []jsonColumn     `json:"columns"`
	PrimaryKey        []string         `json:"primary_key"`
	ForeignKeys       []jsonForeignKey `json:"foreign_keys"`
	UniqueConstraints [][]string       `json:"unique_constraints"`
}

type jsonColumn struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Nullable     bool    `json:"nullable"`
	Default      *string `json:"default,omitempty"`
	IsPrimaryKey bool    `json:"is_primary_key"`
	IsForeignKey bool    `json:"is_foreign_key"`
}

type jsonForeignKey struct {
	Name       *string  `json:"name,omitempty"`
	Columns    []string `json:"columns"`
	RefTable   string   `json:"ref_table"`
	RefColumns []string `json:"ref_columns"`
	OnDelete   *string  `json:"on_delete,omitempty"`
	OnUpdate   *string  `json:"on_update,omitempty"`
}

type jsonRelationship struct {
	FromTable   string   `json:"from_table"`
	FromColumns []string `json:"from_columns"`
	ToTable     string   `json:"to_table"`
	ToColumns   []string `json:"to_columns"`
}

// Format writes the JSON document. Schema and table filters apply;
// ConnectedOnly does not.
func (f *JSONFormatter) Format(db *schema.Database) error {
	enc := json.NewEncoder(f.writer)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(buildJSON(db, f.opts))
}

func buildJSON(db *schema.Database, opts Options) jsonDocument {
	doc := jsonDocument{
		Schemas:       make(map[string]*jsonSchema),
		Relationships: []jsonRelationship{},
	}

	for _, table := range FilterTables(db, opts) {
		s, ok := doc.Schemas[table.Schema]
		if !ok {
			s = &jsonSchema{Tables: make(map[string]jsonTable)}
			doc.Schemas[table.Schema] = s
		}

		jt := jsonTable{
			Columns:           make([]jsonColumn, 0, len(table.Columns)),
			PrimaryKey:        orEmpty(table.PrimaryKey),
			ForeignKeys:       make([]jsonForeignKey, 0, len(table.ForeignKeys)),
			UniqueConstraints: make([][]string, 0, len(table.UniqueConstraints)),
		}
		for _, c := range table.Columns {
			jt.Columns = append(jt.Columns, jsonColumn{
				Name:         c.Name,
				Type:         c.Type,
				Nullable:     c.Nullable,
				Default:      c.Default,
				IsPrimaryKey: c.IsPrimaryKey,
				IsForeignKey: c.IsForeignKey,
			})
		}
		for _, fk := range table.ForeignKeys {
			jt.ForeignKeys = append(jt.ForeignKeys, jsonForeignKey{
				Name:       fk.ConstraintName,
				Columns:    orEmpty(fk.Columns),
				RefTable:   fk.RefQualifiedName(),
				RefColumns: orEmpty(fk.RefColumns),
				OnDelete:   fk.OnDelete,
				OnUpdate:   fk.OnUpdate,
			})
			doc.Relationships = append(doc.Relationships, jsonRelationship{
				FromTable:   table.QualifiedName(),
				FromColumns: orEmpty(fk.Columns),
				ToTable:     fk.RefQualifiedName(),
				ToColumns:   orEmpty(fk.RefColumns),
			})
		}
		for _, u := range table.UniqueConstraints {
			jt.UniqueConstraints = append(jt.UniqueConstraints, orEmpty(u))
		}

		s.Tables[table.Name] = jt
	}

	return doc
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
