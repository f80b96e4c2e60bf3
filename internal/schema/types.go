package schema

// DefaultSchema is assumed for unqualified names
const DefaultSchema = "public"

// Column represents a table column
type Column struct {
	Name         string
	Type         string
	Nullable     bool
	Default      *string
	IsPrimaryKey bool
	IsForeignKey bool
}

// ForeignKey represents a foreign key constraint.
// RefSchema is nil when the reference was unqualified or pointed at the
// default schema; it is resolved against the referencing table's schema later.
type ForeignKey struct {
	Columns        []string
	RefSchema      *string
	RefTable       string
	RefColumns     []string
	ConstraintName *string
	OnDelete       *string
	OnUpdate       *string
}

// RefQualifiedName returns schema.table when a schema was recorded, else table
func (fk *ForeignKey) RefQualifiedName() string {
	if fk.RefSchema != nil && *fk.RefSchema != "" {
		return *fk.RefSchema + "." + fk.RefTable
	}
	return fk.RefTable
}

// Table represents a database table
type Table struct {
	Name              string
	Schema            string
	Columns           []Column
	PrimaryKey        []string
	ForeignKeys       []ForeignKey
	UniqueConstraints [][]string
}

// NewTable creates an empty table in the given schema
func NewTable(schemaName, name string) *Table {
	return &Table{Name: name, Schema: schemaName}
}

// QualifiedName returns schema.table
func (t *Table) QualifiedName() string {
	return t.Schema + "." + t.Name
}

// Column returns the column with the given name, or nil
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// AddColumn appends a column, keeping declaration order
func (t *Table) AddColumn(col Column) {
	t.Columns = append(t.Columns, col)
}

// SetPrimaryKey replaces the primary key and flags the named columns.
// Names without a matching column are kept in the key but flag nothing.
func (t *Table) SetPrimaryKey(columns []string) {
	t.PrimaryKey = columns
	for _, name := range columns {
		if col := t.Column(name); col != nil {
			col.IsPrimaryKey = true
		}
	}
}

// AddForeignKey records a foreign key and flags its local columns
func (t *Table) AddForeignKey(fk ForeignKey) {
	t.ForeignKeys = append(t.ForeignKeys, fk)
	for _, name := range fk.Columns {
		if col := t.Column(name); col != nil {
			col.IsForeignKey = true
		}
	}
}

// AddUniqueConstraint appends a unique column group without deduplication
func (t *Table) AddUniqueConstraint(columns []string) {
	t.UniqueConstraints = append(t.UniqueConstraints, columns)
}
