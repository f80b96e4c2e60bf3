package schema

// Schema is a namespace of tables. Tables keep the order in which they
// were first added.
type Schema struct {
	Name   string
	tables map[string]*Table
	order  []string
}

// NewSchema creates an empty schema
func NewSchema(name string) *Schema {
	return &Schema{Name: name, tables: make(map[string]*Table)}
}

// AddTable adds or replaces a table. A replaced table keeps its position.
func (s *Schema) AddTable(table *Table) {
	if _, ok := s.tables[table.Name]; !ok {
		s.order = append(s.order, table.Name)
	}
	s.tables[table.Name] = table
}

// Table returns the named table, or nil
func (s *Schema) Table(name string) *Table {
	return s.tables[name]
}

// Tables returns the schema's tables in insertion order
func (s *Schema) Tables() []*Table {
	tables := make([]*Table, 0, len(s.order))
	for _, name := range s.order {
		tables = append(tables, s.tables[name])
	}
	return tables
}

// Len returns the number of tables in the schema
func (s *Schema) Len() int {
	return len(s.order)
}

// Database is the top-level container built by the parser or a live source.
// Schemas are created lazily and kept in creation order.
type Database struct {
	schemas map[string]*Schema
	order   []string
}

// NewDatabase creates an empty database
func NewDatabase() *Database {
	return &Database{schemas: make(map[string]*Schema)}
}

// Schema returns the named schema, creating it on first reference
func (d *Database) Schema(name string) *Schema {
	if s, ok := d.schemas[name]; ok {
		return s
	}
	s := NewSchema(name)
	d.schemas[name] = s
	d.order = append(d.order, name)
	return s
}

// LookupSchema returns the named schema without creating it
func (d *Database) LookupSchema(name string) (*Schema, bool) {
	s, ok := d.schemas[name]
	return s, ok
}

// Schemas returns all schemas in creation order
func (d *Database) Schemas() []*Schema {
	schemas := make([]*Schema, 0, len(d.order))
	for _, name := range d.order {
		schemas = append(schemas, d.schemas[name])
	}
	return schemas
}

// Table returns the table identified by schema and name, or nil
func (d *Database) Table(schemaName, name string) *Table {
	s, ok := d.schemas[schemaName]
	if !ok {
		return nil
	}
	return s.Table(name)
}

// AddTable adds a table under its own schema, creating the schema if needed
func (d *Database) AddTable(table *Table) {
	d.Schema(table.Schema).AddTable(table)
}

// Tables returns every table across all schemas, schema by schema
func (d *Database) Tables() []*Table {
	var tables []*Table
	for _, name := range d.order {
		tables = append(tables, d.schemas[name].Tables()...)
	}
	return tables
}

// TableCount returns the total number of tables
func (d *Database) TableCount() int {
	count := 0
	for _, s := range d.schemas {
		count += s.Len()
	}
	return count
}

// FindTable looks a table up by bare name. The preferred schema is checked
// first (when non-empty), then every schema in creation order; first match wins.
func (d *Database) FindTable(name, preferredSchema string) *Table {
	if preferredSchema != "" {
		if table := d.Table(preferredSchema, name); table != nil {
			return table
		}
	}

	for _, schemaName := range d.order {
		if table := d.schemas[schemaName].Table(name); table != nil {
			return table
		}
	}
	return nil
}
