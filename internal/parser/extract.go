package parser

import (
	"iter"
	"regexp"
	"strings"
)

// TableStatement is one CREATE TABLE statement: the table name as written
// and the text between the outermost parentheses.
type TableStatement struct {
	Name string
	Body string
}

var createTableHeader = regexp.MustCompile(
	`(?is)CREATE\s+(?:UNLOGGED\s+)?TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?([^\s(]+)\s*\(`,
)

// CreateTableStatements lazily yields every well-formed CREATE TABLE
// statement in sql. Trailing clauses such as PARTITION BY, WITH (...),
// INHERITS (...) or WITHOUT ROWID may sit between the body and the
// semicolon. A statement whose body is never closed, or that reaches the
// next CREATE TABLE before any semicolon, is skipped.
func CreateTableStatements(sql string) iter.Seq[TableStatement] {
	return scanCreateTables(sql, nil)
}

func scanCreateTables(sql string, skipped func(name string)) iter.Seq[TableStatement] {
	return func(yield func(TableStatement) bool) {
		offset := 0
		for offset < len(sql) {
			loc := createTableHeader.FindStringSubmatchIndex(sql[offset:])
			if loc == nil {
				return
			}

			name := sql[offset+loc[2] : offset+loc[3]]
			open := offset + loc[1] - 1
			next := offset + loc[1]

			if closing, ok := matchingParen(sql, open); ok {
				if semi, ok := statementEnd(sql, closing+1); ok {
					stmt := TableStatement{
						Name: name,
						Body: strings.TrimSpace(sql[open+1 : closing]),
					}
					if !yield(stmt) {
						return
					}
					offset = semi + 1
					continue
				}
			}

			if skipped != nil {
				skipped(name)
			}
			offset = next
		}
	}
}

// matchingParen returns the index of the parenthesis closing the one at
// open. Parentheses inside quoted literals do not count.
func matchingParen(s string, open int) (int, bool) {
	var sc quoteScanner
	depth := 0
	for i := open; i < len(s); i++ {
		c := s[i]
		if sc.step(s, i) {
			continue
		}
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// statementEnd reports the position of the first semicolon outside quoted
// literals at or after i. Hitting another CREATE TABLE header first means
// the statement was never terminated.
func statementEnd(s string, i int) (int, bool) {
	var sc quoteScanner
	for j := i; j < len(s); j++ {
		if sc.step(s, j) {
			continue
		}
		if s[j] == ';' {
			if createTableHeader.MatchString(s[i:j]) {
				return 0, false
			}
			return j, true
		}
	}
	return 0, false
}

// quoteScanner tracks whether a byte-by-byte scan is inside a single- or
// double-quoted literal. A doubled quote ('') closes and immediately reopens
// the literal, which leaves the state correct. With escapes set, a quote
// preceded by a backslash is ignored.
type quoteScanner struct {
	inString  bool
	quoteChar byte
	escapes   bool
}

// step updates the state for s[i] and reports whether s[i] is quoted text
// (including the quote characters themselves).
func (q *quoteScanner) step(s string, i int) bool {
	c := s[i]
	if (c == '\'' || c == '"') && !(q.escapes && i > 0 && s[i-1] == '\\') {
		if !q.inString {
			q.inString = true
			q.quoteChar = c
			return true
		}
		if c == q.quoteChar {
			q.inString = false
			return true
		}
	}
	return q.inString
}
