package parser

import (
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

var sqlLexer = sync.OnceValue(func() chroma.Lexer {
	l := lexers.Get("PostgreSQL")
	if l == nil {
		l = lexers.Get("SQL")
	}
	if l == nil {
		l = lexers.Fallback
	}
	return chroma.Coalesce(l)
})

// stripComments replaces -- and /* */ comments with a single space, keeping
// their line breaks so later line-oriented patterns see the same layout.
// Comment markers inside string literals are left alone. If the text cannot
// be tokenised it is returned unchanged.
func stripComments(sql string) string {
	if !strings.Contains(sql, "--") && !strings.Contains(sql, "/*") {
		return sql
	}

	it, err := sqlLexer().Tokenise(nil, sql)
	if err != nil {
		return sql
	}

	var b strings.Builder
	b.Grow(len(sql))
	for _, tok := range it.Tokens() {
		if !tok.Type.InCategory(chroma.Comment) {
			b.WriteString(tok.Value)
			continue
		}
		b.WriteByte(' ')
		b.WriteString(strings.Repeat("\n", strings.Count(tok.Value, "\n")))
	}

	out := b.String()
	if !strings.HasSuffix(sql, "\n") {
		out = strings.TrimSuffix(out, "\n")
	}
	return out
}
