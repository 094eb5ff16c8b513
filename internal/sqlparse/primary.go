package sqlparse

import (
	"strings"

	"github.com/accented-ai/tdlineage/internal/sqlast"
)

func (p *stmtParser) parsePrimary() (sqlast.NodeID, error) {
	switch {
	case p.cur().Type == TokenLParen:
		return p.parseParenOrSubquery()
	case p.isKeyword("EXISTS"):
		return p.parseExists()
	case p.isKeyword("NOT") && p.peekAt(1).Type == TokenKeyword && isKeywordTok(p.peekAt(1), "EXISTS"):
		p.advance()

		inner, err := p.parseExists()
		if err != nil {
			return sqlast.InvalidNodeID, err
		}

		return p.new(sqlast.Node{Kind: sqlast.KindNot, Named: map[string]sqlast.NodeID{"expr": inner}}), nil
	case p.isKeyword("EXTRACT"):
		return p.parseExtract()
	case p.isKeyword("CAST"):
		return p.parseCast()
	case p.isKeyword("CASE"):
		return p.parseCaseRaw()
	case p.isKeyword("CURRENT_DATE"), p.isKeyword("CURRENT_TIMESTAMP"), p.isKeyword("CURRENT_TIME"):
		tok := p.advance()
		return p.new(sqlast.Node{Kind: sqlast.KindFuncCall, FuncKind: strings.ToUpper(tok.Literal), Text: tok.Literal, Raw: tok.Literal}), nil
	case p.isKeyword("NULL"):
		p.advance()
		return p.new(sqlast.Node{Kind: sqlast.KindLiteral, LitKind: sqlast.LiteralNull, Text: "NULL"}), nil
	case p.isKeyword("DATE"), p.isKeyword("TIMESTAMP"), p.isKeyword("TIME"):
		return p.parseDateTimeLiteral()
	case p.cur().Type == TokenString:
		tok := p.advance()
		return p.new(sqlast.Node{Kind: sqlast.KindLiteral, LitKind: sqlast.LiteralString, Text: unquoteString(tok.Literal)}), nil
	case p.cur().Type == TokenNumber:
		tok := p.advance()
		return p.new(sqlast.Node{Kind: sqlast.KindLiteral, LitKind: sqlast.LiteralNumber, Text: tok.Literal}), nil
	case p.isOp("*"):
		p.advance()
		return p.new(sqlast.Node{Kind: sqlast.KindStar}), nil
	case p.cur().Type == TokenIdentifier || p.cur().Type == TokenQuotedIdentifier:
		return p.parseIdentifierExpr()
	default:
		return sqlast.InvalidNodeID, p.errorf("unexpected token %s %q", p.cur().Type, p.cur().Literal)
	}
}

func (p *stmtParser) parseParenOrSubquery() (sqlast.NodeID, error) {
	p.advance() // '('

	if p.isKeyword("SELECT") {
		inner, err := p.parseSelect()
		if err != nil {
			return sqlast.InvalidNodeID, err
		}

		if _, err := p.expectType(TokenRParen); err != nil {
			return sqlast.InvalidNodeID, err
		}

		return inner, nil
	}

	inner, err := p.parseOrExpr()
	if err != nil {
		return sqlast.InvalidNodeID, err
	}

	if _, err := p.expectType(TokenRParen); err != nil {
		return sqlast.InvalidNodeID, err
	}

	return p.new(sqlast.Node{Kind: sqlast.KindParen, Named: map[string]sqlast.NodeID{"inner": inner}}), nil
}

func (p *stmtParser) parseExists() (sqlast.NodeID, error) {
	p.advance() // EXISTS

	if _, err := p.expectType(TokenLParen); err != nil {
		return sqlast.InvalidNodeID, err
	}

	inner, err := p.parseSelect()
	if err != nil {
		return sqlast.InvalidNodeID, err
	}

	if _, err := p.expectType(TokenRParen); err != nil {
		return sqlast.InvalidNodeID, err
	}

	return p.new(sqlast.Node{Kind: sqlast.KindExists, Named: map[string]sqlast.NodeID{"query": inner}}), nil
}

func (p *stmtParser) parseExtract() (sqlast.NodeID, error) {
	p.advance() // EXTRACT

	if _, err := p.expectType(TokenLParen); err != nil {
		return sqlast.InvalidNodeID, err
	}

	unitTok, err := p.identifierLikeOrKeyword()
	if err != nil {
		return sqlast.InvalidNodeID, err
	}

	if err := p.expectKeyword("FROM"); err != nil {
		return sqlast.InvalidNodeID, err
	}

	value, err := p.parseValueExpr()
	if err != nil {
		return sqlast.InvalidNodeID, err
	}

	if _, err := p.expectType(TokenRParen); err != nil {
		return sqlast.InvalidNodeID, err
	}

	return p.new(sqlast.Node{
		Kind:  sqlast.KindExtract,
		Unit:  strings.ToUpper(unitTok.Literal),
		Named: map[string]sqlast.NodeID{"value": value},
	}), nil
}

func (p *stmtParser) parseCast() (sqlast.NodeID, error) {
	startTok := p.cur()

	p.advance() // CAST

	if _, err := p.expectType(TokenLParen); err != nil {
		return sqlast.InvalidNodeID, err
	}

	expr, err := p.parseValueExpr()
	if err != nil {
		return sqlast.InvalidNodeID, err
	}

	if err := p.expectKeyword("AS"); err != nil {
		return sqlast.InvalidNodeID, err
	}

	typeTok, err := p.identifierLikeOrKeyword()
	if err != nil {
		return sqlast.InvalidNodeID, err
	}

	typeName := typeTok.Literal

	if p.cur().Type == TokenLParen {
		p.advance()

		for p.cur().Type != TokenRParen && !p.atEOF() {
			p.advance()
		}

		if _, err := p.expectType(TokenRParen); err != nil {
			return sqlast.InvalidNodeID, err
		}
	}

	closeTok, err := p.expectType(TokenRParen)
	if err != nil {
		return sqlast.InvalidNodeID, err
	}

	return p.new(sqlast.Node{
		Kind:  sqlast.KindCast,
		Text:  strings.ToUpper(typeName),
		Raw:   p.rawSpan(startTok, closeTok),
		Named: map[string]sqlast.NodeID{"expr": expr},
	}), nil
}

// parseCaseRaw captures an entire CASE...END expression as a raw span: the
// node vocabulary has no CASE kind, so a CASE expression is only ever
// usable through fallback rendering and alias substitution.
func (p *stmtParser) parseCaseRaw() (sqlast.NodeID, error) {
	start := p.cur()

	depth := 0

	for {
		if p.atEOF() {
			return sqlast.InvalidNodeID, p.errorf("unterminated CASE expression")
		}

		if p.isKeyword("CASE") {
			depth++
		}

		if p.isKeyword("END") {
			depth--

			end := p.advance()

			if depth == 0 {
				return p.new(sqlast.Node{Kind: sqlast.KindRaw, Raw: p.rawSpan(start, end)}), nil
			}

			continue
		}

		p.advance()
	}
}

func (p *stmtParser) parseDateTimeLiteral() (sqlast.NodeID, error) {
	kwTok := p.advance()

	if p.cur().Type != TokenString {
		// Bare DATE/TIMESTAMP/TIME used as an identifier rather than a
		// literal prefix: treat the keyword token itself as a column name.
		return p.new(sqlast.Node{Kind: sqlast.KindColumn, Text: kwTok.Literal}), nil
	}

	strTok := p.advance()

	return p.new(sqlast.Node{
		Kind:    sqlast.KindLiteral,
		LitKind: sqlast.LiteralDateTime,
		Text:    unquoteString(strTok.Literal),
		Raw:     kwTok.Literal + " " + strTok.Literal,
	}), nil
}

// identifierLikeOrKeyword accepts an identifier or a keyword used as a
// structural argument (EXTRACT's unit, CAST's type name), since both
// vocabularies overlap with our reserved-word set.
func (p *stmtParser) identifierLikeOrKeyword() (Token, error) {
	t := p.cur()
	if t.Type == TokenIdentifier || t.Type == TokenKeyword || t.Type == TokenQuotedIdentifier {
		return p.advance(), nil
	}

	return Token{}, p.errorf("expected identifier, got %s %q", t.Type, t.Literal)
}

// parseIdentifierExpr parses a dotted identifier chain and decides whether
// it is a qualified star, a function call (name immediately followed by
// '('), or a plain column reference.
func (p *stmtParser) parseIdentifierExpr() (sqlast.NodeID, error) {
	startTok := p.cur()

	parts, err := p.parseDottedName()
	if err != nil {
		return sqlast.InvalidNodeID, err
	}

	if parts[len(parts)-1] == "*" {
		qualifier := ""
		if len(parts) > 1 {
			qualifier = parts[len(parts)-2]
		}

		return p.new(sqlast.Node{Kind: sqlast.KindStar, Qualifier: qualifier}), nil
	}

	if p.cur().Type == TokenLParen {
		return p.parseFuncCall(parts, startTok)
	}

	n := sqlast.Node{Kind: sqlast.KindColumn, Text: parts[len(parts)-1]}
	if len(parts) > 1 {
		n.Qualifier = parts[len(parts)-2]
	}

	return p.new(n), nil
}

func (p *stmtParser) parseFuncCall(nameParts []string, startTok Token) (sqlast.NodeID, error) {
	p.advance() // '('

	if p.isKeyword("DISTINCT") || p.isKeyword("ALL") {
		p.advance()
	}

	var args []sqlast.NodeID

	if p.cur().Type != TokenRParen {
		for {
			if p.isOp("*") {
				p.advance()

				args = append(args, p.new(sqlast.Node{Kind: sqlast.KindStar}))
			} else {
				a, err := p.parseValueExpr()
				if err != nil {
					return sqlast.InvalidNodeID, err
				}

				args = append(args, a)
			}

			if p.cur().Type == TokenComma {
				p.advance()
				continue
			}

			break
		}
	}

	closeTok, err := p.expectType(TokenRParen)
	if err != nil {
		return sqlast.InvalidNodeID, err
	}

	name := nameParts[len(nameParts)-1]

	return p.new(sqlast.Node{
		Kind:     sqlast.KindFuncCall,
		Text:     name,
		Children: args,
		Raw:      p.rawSpan(startTok, closeTok),
	}), nil
}

func unquoteString(s string) string {
	if len(s) >= 2 {
		s = s[1 : len(s)-1]
	}

	return strings.ReplaceAll(s, "''", "'")
}
