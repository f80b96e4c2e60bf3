package formatter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tordrt/pgmermaid/internal/parser"
	"github.com/tordrt/pgmermaid/internal/schema"
)

const blogSQL = `
CREATE TABLE users (
    id serial PRIMARY KEY,
    email varchar(255) NOT NULL,
    name text
);
CREATE TABLE posts (
    id serial PRIMARY KEY,
    user_id integer NOT NULL,
    title text NOT NULL,
    body text
);
ALTER TABLE posts ADD CONSTRAINT posts_user_fk
    FOREIGN KEY (user_id) REFERENCES users(id);
`

func blogDB() *schema.Database {
	return parser.Parse(blogSQL)
}

func render(db *schema.Database, mutate func(*Options)) string {
	opts := DefaultOptions()
	if mutate != nil {
		mutate(&opts)
	}
	return RenderMermaid(db, opts)
}

func assertContains(t *testing.T, output string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(output, w) {
			t.Errorf("output missing %q\n%s", w, output)
		}
	}
}

func assertNotContains(t *testing.T, output string, unwanted ...string) {
	t.Helper()
	for _, u := range unwanted {
		if strings.Contains(output, u) {
			t.Errorf("output unexpectedly contains %q\n%s", u, output)
		}
	}
}

func TestRenderMermaidExactOutput(t *testing.T) {
	want := `erDiagram
    posts {
        serial id PK
        int user_id FK
        text title
        text body
    }
    users {
        serial id PK
        varchar email
        text name
    }

    %% Relationships
    users ||--o{ posts : "user_id"`

	if got := render(blogDB(), nil); got != want {
		t.Errorf("RenderMermaid() =\n%s\nwant\n%s", got, want)
	}
}

func TestRenderMermaidEmpty(t *testing.T) {
	tests := []struct {
		name   string
		sql    string
		mutate func(*Options)
		want   string
	}{
		{
			name: "no tables",
			sql:  "",
			want: "erDiagram\n    %% No tables to display",
		},
		{
			name:   "everything filtered",
			sql:    blogSQL,
			mutate: func(o *Options) { o.IncludeSchemas = []string{"nope"} },
			want:   "erDiagram\n    %% No tables to display",
		},
		{
			name:   "nothing connected",
			sql:    "CREATE TABLE a (id int); CREATE TABLE b (id int);",
			mutate: func(o *Options) { o.ConnectedOnly = true },
			want:   "erDiagram\n    %% No connected tables to display",
		},
		{
			name:   "markdown fence",
			sql:    "",
			mutate: func(o *Options) { o.Format = FormatMarkdown },
			want:   "```mermaid\nerDiagram\n    %% No tables to display\n```",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := render(parser.Parse(tt.sql), tt.mutate); got != tt.want {
				t.Errorf("RenderMermaid() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderMermaidModes(t *testing.T) {
	t.Run("compact keeps only key columns", func(t *testing.T) {
		out := render(blogDB(), func(o *Options) { o.Mode = ModeCompact })
		assertContains(t, out, "serial id PK", "int user_id FK")
		assertNotContains(t, out, "text title", "text body", "varchar email")
	})

	t.Run("normal simplifies types", func(t *testing.T) {
		db := parser.Parse("CREATE TABLE t (a CHARACTER VARYING(255), b INTEGER, c numeric(10,2));")
		out := render(db, func(o *Options) { o.Mode = ModeNormal })
		assertContains(t, out, "varchar a", "int b", "numeric c")
	})

	t.Run("full keeps stored types", func(t *testing.T) {
		db := parser.Parse("CREATE TABLE t (a varchar(255), b integer, c timestamp(3) with time zone);")
		out := render(db, func(o *Options) { o.Mode = ModeFull })
		assertContains(t, out, "varchar(255) a", "int b", "timestamp(3)_with_time_zone c")
	})
}

func TestRenderMermaidFormats(t *testing.T) {
	if out := render(blogDB(), nil); strings.HasPrefix(out, "```") {
		t.Error("mermaid format should not be fenced")
	}

	out := render(blogDB(), func(o *Options) { o.Format = FormatMarkdown })
	if !strings.HasPrefix(out, "```mermaid\n") || !strings.HasSuffix(out, "\n```") {
		t.Errorf("markdown format should be fenced, got:\n%s", out)
	}
}

func multiSchemaDB() *schema.Database {
	return parser.Parse(`
		CREATE TABLE public.users (id serial PRIMARY KEY);
		CREATE TABLE public.posts (id serial PRIMARY KEY);
		CREATE TABLE auth.sessions (id serial PRIMARY KEY);
		CREATE TABLE auth.tokens (id serial PRIMARY KEY);
		CREATE TABLE billing.invoices (id serial PRIMARY KEY);`)
}

func TestRenderMermaidFilters(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		want    []string
		notWant []string
	}{
		{
			name:    "include schema",
			mutate:  func(o *Options) { o.IncludeSchemas = []string{"auth"} },
			want:    []string{"sessions", "tokens"},
			notWant: []string{"users", "invoices"},
		},
		{
			name:    "exclude schema",
			mutate:  func(o *Options) { o.ExcludeSchemas = []string{"billing"} },
			want:    []string{"users", "sessions"},
			notWant: []string{"invoices"},
		},
		{
			name:    "include table pattern",
			mutate:  func(o *Options) { o.IncludeTables = []string{"user*"} },
			want:    []string{"users"},
			notWant: []string{"posts"},
		},
		{
			name:    "exclude table pattern",
			mutate:  func(o *Options) { o.ExcludeTables = []string{"*s"} },
			notWant: []string{"users", "posts"},
		},
		{
			name:    "case-insensitive single character wildcard",
			mutate:  func(o *Options) { o.IncludeTables = []string{"TOKEN?"} },
			want:    []string{"auth__tokens"},
			notWant: []string{"sessions"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := render(multiSchemaDB(), tt.mutate)
			assertContains(t, out, tt.want...)
			assertNotContains(t, out, tt.notWant...)
		})
	}
}

func TestRenderMermaidConnectedOnly(t *testing.T) {
	db := parser.Parse(`
		CREATE TABLE users (id serial PRIMARY KEY);
		CREATE TABLE posts (id serial PRIMARY KEY, user_id integer);
		CREATE TABLE orphan (id serial PRIMARY KEY);
		ALTER TABLE posts ADD CONSTRAINT fk FOREIGN KEY (user_id) REFERENCES users(id);`)

	out := render(db, func(o *Options) { o.ConnectedOnly = true })
	assertContains(t, out, "users {", "posts {")
	assertNotContains(t, out, "orphan")
}

func TestRenderMermaidMaxColumns(t *testing.T) {
	db := parser.Parse(`
		CREATE TABLE t (
			a text, b text,
			id serial PRIMARY KEY,
			c text, d text, e text
		);`)

	out := render(db, func(o *Options) { o.MaxColumns = 3 })
	want := `    t {
        serial id PK
        text a
        text b
        %% ... 3 more columns
    }`
	assertContains(t, out, want)

	wide := parser.Parse(`CREATE TABLE t (
		a text, b text, c text, d text, e text, f text, g text,
		h text, i text, j text, k text, l text, m text, n text,
		o text, p text, q text, r text, s text, t text, u text);`)
	assertNotContains(t, render(wide, func(o *Options) { o.MaxColumns = 0 }), "more columns")
	assertContains(t, render(wide, nil), "%% ... 1 more columns")
}

func TestRenderMermaidLayout(t *testing.T) {
	t.Run("group by schema", func(t *testing.T) {
		db := parser.Parse(`
			CREATE TABLE public.users (id serial PRIMARY KEY);
			CREATE TABLE auth.sessions (id serial PRIMARY KEY);`)
		out := render(db, func(o *Options) { o.GroupBySchema = true })
		want := `erDiagram
    %% Schema: auth
    auth__sessions {
        serial id PK
    }

    %% Schema: public
    users {
        serial id PK
    }


    %% Relationships`
		if out != want {
			t.Errorf("grouped output =\n%s\nwant\n%s", out, want)
		}
	})

	t.Run("schema prefix", func(t *testing.T) {
		db := parser.Parse("CREATE TABLE myschema.users (id serial PRIMARY KEY);")
		assertContains(t, render(db, nil), "myschema__users {")

		out := render(db, func(o *Options) { o.ShowSchemaPrefix = false })
		assertNotContains(t, out, "myschema__users")
		assertContains(t, out, "    users {")
	})

	t.Run("title", func(t *testing.T) {
		out := render(blogDB(), func(o *Options) { o.Title = "My Database" })
		if !strings.HasPrefix(out, "---\ntitle: My Database\n---\nerDiagram\n") {
			t.Errorf("missing front matter:\n%s", out)
		}
		assertNotContains(t, render(blogDB(), nil), "title:")
	})
}

func TestRenderMermaidRelationships(t *testing.T) {
	t.Run("one line per foreign key column set", func(t *testing.T) {
		db := parser.Parse(`
			CREATE TABLE users (id serial PRIMARY KEY);
			CREATE TABLE posts (
				id serial PRIMARY KEY,
				created_by integer NOT NULL,
				updated_by integer NOT NULL
			);
			ALTER TABLE posts ADD CONSTRAINT fk1 FOREIGN KEY (created_by) REFERENCES users(id);
			ALTER TABLE posts ADD CONSTRAINT fk2 FOREIGN KEY (updated_by) REFERENCES users(id);
			ALTER TABLE posts ADD CONSTRAINT fk3 FOREIGN KEY (created_by) REFERENCES users(id);`)
		out := render(db, nil)
		assertContains(t, out, `users ||--o{ posts : "created_by"`, `users ||--o{ posts : "updated_by"`)
		if n := strings.Count(out, "||--o{"); n != 2 {
			t.Errorf("expected 2 relationship lines, got %d\n%s", n, out)
		}
	})

	t.Run("hidden target drops the line", func(t *testing.T) {
		out := render(blogDB(), func(o *Options) { o.ExcludeTables = []string{"users"} })
		assertNotContains(t, out, "||--o{")
	})

	t.Run("composite key label", func(t *testing.T) {
		db := parser.Parse(`
			CREATE TABLE a (x int, y int, PRIMARY KEY (x, y));
			CREATE TABLE b (ax int, ay int, FOREIGN KEY (ax, ay) REFERENCES a(x, y));`)
		assertContains(t, render(db, nil), `a ||--o{ b : "ax,ay"`)
	})

	t.Run("unqualified reference resolves in own schema", func(t *testing.T) {
		db := parser.Parse(`
			CREATE TABLE public.users (id int);
			CREATE TABLE auth.users (id int);
			CREATE TABLE auth.sessions (user_id int REFERENCES users(id));`)
		out := render(db, nil)
		assertContains(t, out, `auth__users ||--o{ auth__sessions : "user_id"`)
		assertNotContains(t, out, `    users ||--o{`)
	})

	t.Run("cross schema reference", func(t *testing.T) {
		db := parser.Parse(`
			CREATE TABLE auth.users (id int);
			CREATE TABLE billing.invoices (user_id int REFERENCES auth.users(id));`)
		assertContains(t, render(db, nil), `auth__users ||--o{ billing__invoices : "user_id"`)
	})
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"users", "users"},
		{"my-table", "my_table"},
		{"123table", "_123table"},
		{"a b.c", "a_b_c"},
		{"café", "caf_"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := SanitizeName(tt.in); got != tt.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	out := render(parser.Parse(`CREATE TABLE "my-table" (id serial); CREATE TABLE "123table" (id serial);`), nil)
	assertContains(t, out, "    my_table {", "    _123table {")
}

func TestMermaidFormatterWrites(t *testing.T) {
	var buf bytes.Buffer
	if err := NewMarkdownFormatter(&buf, DefaultOptions()).Format(blogDB()); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.HasPrefix(buf.String(), "```mermaid\n") || !strings.HasSuffix(buf.String(), "```\n") {
		t.Errorf("unexpected markdown output:\n%s", buf.String())
	}

	buf.Reset()
	if err := NewMermaidFormatter(&buf, DefaultOptions()).Format(blogDB()); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if want := render(blogDB(), nil) + "\n"; buf.String() != want {
		t.Errorf("Format() wrote %q, want %q", buf.String(), want)
	}
}
