package pgmermaid

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/pgmermaid/internal/db"
)

const dump = `
CREATE TABLE users (
    id serial PRIMARY KEY,
    email character varying(255) NOT NULL
);
CREATE TABLE posts (
    id serial PRIMARY KEY,
    user_id integer REFERENCES users(id)
);
`

func TestConvertAndFormat(t *testing.T) {
	out, err := ConvertAndFormat(dump, nil)
	require.NoError(t, err)

	want := strings.Join([]string{
		"erDiagram",
		"    posts {",
		"        serial id PK",
		"        int user_id FK",
		"    }",
		"    users {",
		"        serial id PK",
		"        varchar email",
		"    }",
		"",
		"    %% Relationships",
		`    users ||--o{ posts : "user_id"`,
	}, "\n")
	assert.Equal(t, want, out)
}

func TestRenderFormats(t *testing.T) {
	database := ParseSQL(dump)

	opts := DefaultRenderOptions()
	opts.Format = "markdown"
	out, err := Render(database, &opts)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "```mermaid\nerDiagram"))
	assert.True(t, strings.HasSuffix(out, "```"))

	opts.Format = "json"
	out, err = Render(database, &opts)
	require.NoError(t, err)
	assert.Contains(t, out, `"schemas"`)

	opts.Format = "text"
	out, err = Render(database, &opts)
	require.NoError(t, err)
	assert.Contains(t, out, "TABLE public.users (PK: id)")
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.sql")
	require.NoError(t, os.WriteFile(path, []byte(dump), 0o644))

	database, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, database.TableCount())

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.sql"))
	assert.Error(t, err)
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()
	paths, err := WriteFiles(context.Background(), ParseSQL(dump), dir, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "_overview.md"),
		filepath.Join(dir, "public.mmd"),
	}, paths)
}

func TestParseDatabaseURL(t *testing.T) {
	tests := []struct {
		url      string
		wantType string
		wantConn string
		wantErr  bool
	}{
		{"postgres://u:p@localhost/db", "postgres", "postgres://u:p@localhost/db", false},
		{"postgresql://localhost/db", "postgres", "postgresql://localhost/db", false},
		{"mysql://u:p@tcp(localhost:3306)/shop", "mysql", "u:p@tcp(localhost:3306)/shop", false},
		{"sqlite://data/app.db", "sqlite", "data/app.db", false},
		{"oracle://localhost", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			dbType, conn, err := parseDatabaseURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, dbType)
			assert.Equal(t, tt.wantConn, conn)
		})
	}
}

func TestExtractSchemaSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "app.db")

	client, err := db.NewSQLiteClient(ctx, path)
	require.NoError(t, err)
	_, err = client.DB().ExecContext(ctx, `
		CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT);
		CREATE TABLE notes (id INTEGER PRIMARY KEY, user_id INTEGER REFERENCES users(id));`)
	require.NoError(t, err)
	require.NoError(t, client.Close())

	out, err := ExtractAndFormat(ctx, "sqlite://"+path, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, out, `users ||--o{ notes : "user_id"`)
}

func TestExtractSchemaErrors(t *testing.T) {
	ctx := context.Background()

	_, err := ExtractSchema(ctx, "sqlite://"+filepath.Join(t.TempDir(), "missing.db"), nil)
	assert.Error(t, err)

	_, err = ExtractSchema(ctx, "mysql://user@tcp(localhost:3306)/", nil)
	assert.ErrorContains(t, err, "failed to determine database name")

	_, err = ExtractSchema(ctx, "redis://localhost", nil)
	assert.Error(t, err)
}
