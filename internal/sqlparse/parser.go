package sqlparse

import (
	"fmt"
	"strings"

	"github.com/accented-ai/tdlineage/internal/sqlast"
)

// Options configures a Parser. Following the Options/DefaultOptions
// constructor pattern, zero-value Options is never used directly.
type Options struct {
	Dialect string
}

func DefaultOptions() Options {
	return Options{Dialect: "teradata"}
}

type Option func(*Options)

func WithDialect(d string) Option {
	return func(o *Options) { o.Dialect = d }
}

// Parser turns a batch of semicolon-separated SQL statements into one
// sqlast.Tree per statement.
type Parser struct {
	opts Options
}

func New(opts ...Option) *Parser {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Parser{opts: o}
}

// Result is the envelope returned by Parse: every tree that parsed
// successfully plus one ParseError per statement that did not.
type Result struct {
	Trees  []*sqlast.Tree
	Errors []ParseError
}

func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Parse splits sql into individual statements and parses each independently:
// one malformed statement does not prevent the rest from being parsed.
func (p *Parser) Parse(sql string) *Result {
	res := &Result{}

	for _, stmt := range splitStatements(sql) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}

		tree, err := p.parseStatement(stmt)
		if err != nil {
			var pe ParseError
			if errAs(err, &pe) {
				res.Errors = append(res.Errors, pe)
			} else {
				res.Errors = append(res.Errors, ParseError{Message: err.Error(), SQL: stmt, Cause: err})
			}

			continue
		}

		res.Trees = append(res.Trees, tree)
	}

	return res
}

func errAs(err error, target *ParseError) bool {
	if pe, ok := err.(ParseError); ok {
		*target = pe
		return true
	}

	return false
}

func (p *Parser) parseStatement(stmt string) (*sqlast.Tree, error) {
	lex := NewLexer(stmt)
	toks := lex.Tokenize()

	sp := &stmtParser{toks: toks, src: stmt, arena: sqlast.NewArena()}

	root, err := sp.parseTopLevel()
	if err != nil {
		return nil, err
	}

	return &sqlast.Tree{Arena: sp.arena, Root: root}, nil
}

// splitStatements divides src on top-level semicolons, respecting string
// literals and parenthesis nesting so a semicolon inside a string or a
// subquery never ends a statement early.
func splitStatements(src string) []string {
	var out []string

	depth := 0
	start := 0

	i := 0
	for i < len(src) {
		ch := src[i]

		switch ch {
		case '\'':
			i++
			for i < len(src) {
				if src[i] == '\'' {
					i++
					if i < len(src) && src[i] == '\'' {
						i++
						continue
					}

					break
				}

				i++
			}

			continue
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ';':
			if depth == 0 {
				out = append(out, src[start:i])
				start = i + 1
			}
		}

		i++
	}

	if start < len(src) {
		out = append(out, src[start:])
	}

	return out
}

// stmtParser holds per-statement cursor state: its token stream, source
// text (for raw-span fallbacks), and the arena its nodes are built in.
type stmtParser struct {
	toks  []Token
	pos   int
	src   string
	arena *sqlast.Arena
}

func (p *stmtParser) cur() Token {
	if p.pos >= len(p.toks) {
		return Token{Type: TokenEOF}
	}

	return p.toks[p.pos]
}

func (p *stmtParser) peekAt(off int) Token {
	i := p.pos + off
	if i >= len(p.toks) {
		return Token{Type: TokenEOF}
	}

	return p.toks[i]
}

func (p *stmtParser) advance() Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}

	return t
}

func (p *stmtParser) isKeyword(kw string) bool {
	t := p.cur()
	return t.Type == TokenKeyword && strings.EqualFold(t.Literal, kw)
}

func (p *stmtParser) isOp(op string) bool {
	t := p.cur()
	return t.Type == TokenOperator && t.Literal == op
}

func (p *stmtParser) atEOF() bool {
	return p.cur().Type == TokenEOF
}

func (p *stmtParser) expectKeyword(kw string) error {
	if !p.isKeyword(kw) {
		return p.errorf("expected %s", kw)
	}

	p.advance()

	return nil
}

func (p *stmtParser) expectType(tt TokenType) (Token, error) {
	if p.cur().Type != tt {
		return Token{}, p.errorf("expected %s, got %s %q", tt, p.cur().Type, p.cur().Literal)
	}

	return p.advance(), nil
}

func (p *stmtParser) errorf(format string, args ...any) error {
	return ParseError{Line: p.cur().Line, Message: fmt.Sprintf(format, args...), SQL: p.src}
}

// new inserts n into the arena and links every one of its declared children
// (positional and Named) back to it via Parent.
func (p *stmtParser) new(n sqlast.Node) sqlast.NodeID {
	id := p.arena.New(n)

	for _, child := range p.arena.AllChildren(id) {
		c := p.arena.Get(child)
		c.Parent = id
		p.arena.Set(child, c)
	}

	return id
}

func (p *stmtParser) parseTopLevel() (sqlast.NodeID, error) {
	switch {
	case p.isKeyword("WITH"):
		return p.parseWithStatement()
	case p.isKeyword("SELECT"):
		return p.parseSelect()
	case p.isKeyword("INSERT"):
		return p.parseInsert()
	case p.isKeyword("UPDATE"):
		return p.parseUpdate()
	case p.isKeyword("DELETE"):
		return p.parseDelete()
	case p.isKeyword("MERGE"):
		return p.parseMerge()
	case p.isKeyword("CREATE"):
		return p.parseCreateTable()
	case p.isKeyword("CALL"):
		return p.parseCall()
	default:
		return sqlast.InvalidNodeID, p.errorf("unrecognized statement starting with %q", p.cur().Literal)
	}
}
