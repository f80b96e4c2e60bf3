package sqltype

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"varchar with length", "CHARACTER VARYING(100)", "varchar(100)"},
		{"varchar without length", "character varying", "varchar"},
		{"char with length", "CHARACTER(10)", "char(10)"},
		{"integer", "INTEGER", "int"},
		{"integer array", "integer[]", "int[]"},
		{"bigint", "BIGINT", "bigint"},
		{"smallint", "smallint", "smallint"},
		{"boolean", "BOOLEAN", "bool"},
		{"double precision", "DOUBLE PRECISION", "float8"},
		{"real", "REAL", "float4"},
		{"timestamp", "TIMESTAMP WITHOUT TIME ZONE", "timestamp"},
		{"timestamptz", "TIMESTAMP WITH TIME ZONE", "timestamptz"},
		{"time", "time without time zone", "time"},
		{"timetz", "TIME WITH TIME ZONE", "timetz"},
		{"whitespace runs", "double   \n\tprecision", "float8"},
		{"numeric passthrough", "NUMERIC(10,2)", "numeric(10,2)"},
		{"unknown lowercased", "UUID", "uuid"},
		{"array passthrough", "text[]", "text[]"},
		{"no prefix match inside identifier", "realm_kind", "realm_kind"},
		{"character set type", "character_set", "character_set"},
		{"suffix lowercased", "INTEGER ARRAY", "int array"},
		{"params and suffix lowercased", "CHARACTER VARYING(10) ARRAY", "varchar(10) array"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.raw); got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"CHARACTER VARYING(255)",
		"DOUBLE PRECISION",
		"TIMESTAMP WITH TIME ZONE",
		"integer[]",
		"numeric(10, 2)",
		"BIGINT UNSIGNED",
		"serial",
		"timestamp(3) with time zone",
		"INTEGER ARRAY",
		"BOOLEAN ARRAY",
		"CHARACTER VARYING(10) ARRAY",
	}

	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize(Normalize(%q)) = %q, want %q", in, twice, once)
		}
	}
}

func TestSimplify(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"varchar(255)", "varchar"},
		{"numeric(10,2)", "numeric"},
		{"numeric(10, 2)", "numeric"},
		{"char(3)[]", "char[]"},
		{"character varying(40)", "varchar"},
		{"timestamptz", "timestamptz"},
		{"text", "text"},
	}

	for _, tt := range tests {
		if got := Simplify(tt.in); got != tt.expected {
			t.Errorf("Simplify(%q) = %q, want %q", tt.in, got, tt.expected)
		}
	}
}
