package schema

import "testing"

func strPtr(s string) *string { return &s }

func TestRefQualifiedName(t *testing.T) {
	tests := []struct {
		name string
		fk   ForeignKey
		want string
	}{
		{"unqualified", ForeignKey{RefTable: "users"}, "users"},
		{"qualified", ForeignKey{RefSchema: strPtr("auth"), RefTable: "users"}, "auth.users"},
		{"empty schema", ForeignKey{RefSchema: strPtr(""), RefTable: "users"}, "users"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fk.RefQualifiedName(); got != tt.want {
				t.Errorf("RefQualifiedName() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSetPrimaryKeyFlagsColumns(t *testing.T) {
	table := NewTable("public", "post_tags")
	table.AddColumn(Column{Name: "post_id", Type: "int"})
	table.AddColumn(Column{Name: "tag_id", Type: "int"})
	table.AddColumn(Column{Name: "note", Type: "text", Nullable: true})

	table.SetPrimaryKey([]string{"post_id", "tag_id", "missing"})

	if len(table.PrimaryKey) != 3 {
		t.Fatalf("PrimaryKey = %v, want 3 entries", table.PrimaryKey)
	}
	if !table.Column("post_id").IsPrimaryKey || !table.Column("tag_id").IsPrimaryKey {
		t.Error("expected post_id and tag_id to be flagged as primary key")
	}
	if table.Column("note").IsPrimaryKey {
		t.Error("note should not be flagged as primary key")
	}
}

func TestAddForeignKeyFlagsColumns(t *testing.T) {
	table := NewTable("public", "posts")
	table.AddColumn(Column{Name: "id", Type: "serial"})
	table.AddColumn(Column{Name: "user_id", Type: "int"})

	table.AddForeignKey(ForeignKey{Columns: []string{"user_id", "ghost"}, RefTable: "users", RefColumns: []string{"id"}})

	if len(table.ForeignKeys) != 1 {
		t.Fatalf("ForeignKeys = %d, want 1", len(table.ForeignKeys))
	}
	if !table.Column("user_id").IsForeignKey {
		t.Error("user_id should be flagged as foreign key")
	}
	if table.Column("id").IsForeignKey {
		t.Error("id should not be flagged as foreign key")
	}
}

func TestAddUniqueConstraintKeepsDuplicates(t *testing.T) {
	table := NewTable("public", "users")
	table.AddUniqueConstraint([]string{"email"})
	table.AddUniqueConstraint([]string{"email"})

	if len(table.UniqueConstraints) != 2 {
		t.Errorf("UniqueConstraints = %v, want two groups", table.UniqueConstraints)
	}
}

func TestDatabaseAddAndLookup(t *testing.T) {
	db := NewDatabase()
	db.AddTable(NewTable("public", "users"))
	db.AddTable(NewTable("auth", "sessions"))
	db.AddTable(NewTable("public", "posts"))

	if db.TableCount() != 3 {
		t.Errorf("TableCount() = %d, want 3", db.TableCount())
	}
	if db.Table("auth", "sessions") == nil {
		t.Error("expected auth.sessions")
	}
	if db.Table("auth", "users") != nil {
		t.Error("auth.users should not exist")
	}
	if db.Table("missing", "users") != nil {
		t.Error("lookup in a missing schema should return nil")
	}
	if _, ok := db.LookupSchema("missing"); ok {
		t.Error("Table() must not create schemas")
	}

	var names []string
	for _, s := range db.Schemas() {
		names = append(names, s.Name)
	}
	if len(names) != 2 || names[0] != "public" || names[1] != "auth" {
		t.Errorf("Schemas() order = %v, want [public auth]", names)
	}

	var tables []string
	for _, table := range db.Tables() {
		tables = append(tables, table.QualifiedName())
	}
	want := []string{"public.users", "public.posts", "auth.sessions"}
	for i := range want {
		if tables[i] != want[i] {
			t.Errorf("Tables()[%d] = %s, want %s", i, tables[i], want[i])
		}
	}
}

func TestSchemaReplaceKeepsPosition(t *testing.T) {
	s := NewSchema("public")
	s.AddTable(NewTable("public", "a"))
	s.AddTable(NewTable("public", "b"))

	replacement := NewTable("public", "a")
	replacement.AddColumn(Column{Name: "id", Type: "int"})
	s.AddTable(replacement)

	tables := s.Tables()
	if len(tables) != 2 {
		t.Fatalf("Tables() = %d, want 2", len(tables))
	}
	if tables[0] != replacement {
		t.Error("replaced table should keep its original position")
	}
}

func TestFindTable(t *testing.T) {
	db := NewDatabase()
	publicUsers := NewTable("public", "users")
	authUsers := NewTable("auth", "users")
	db.AddTable(publicUsers)
	db.AddTable(authUsers)
	db.AddTable(NewTable("auth", "tokens"))

	tests := []struct {
		name      string
		table     string
		preferred string
		want      *Table
	}{
		{"preferred schema wins", "users", "auth", authUsers},
		{"falls back to creation order", "users", "billing", publicUsers},
		{"no preference", "users", "", publicUsers},
		{"found in later schema", "tokens", "public", db.Table("auth", "tokens")},
		{"not found", "ghosts", "public", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := db.FindTable(tt.table, tt.preferred); got != tt.want {
				t.Errorf("FindTable(%s, %s) = %v, want %v", tt.table, tt.preferred, got, tt.want)
			}
		})
	}
}
