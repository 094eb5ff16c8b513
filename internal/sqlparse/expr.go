package sqlparse

import (
	"strings"

	"github.com/accented-ai/tdlineage/internal/sqlast"
)

func (p *stmtParser) parseOrExpr() (sqlast.NodeID, error) {
	left, err := p.parseAndExpr()
	if err != nil {
		return sqlast.InvalidNodeID, err
	}

	for p.isKeyword("OR") {
		p.advance()

		right, err := p.parseAndExpr()
		if err != nil {
			return sqlast.InvalidNodeID, err
		}

		left = p.new(sqlast.Node{Kind: sqlast.KindOr, Children: []sqlast.NodeID{left, right}})
	}

	return left, nil
}

func (p *stmtParser) parseAndExpr() (sqlast.NodeID, error) {
	left, err := p.parseNotExpr()
	if err != nil {
		return sqlast.InvalidNodeID, err
	}

	for p.isKeyword("AND") {
		p.advance()

		right, err := p.parseNotExpr()
		if err != nil {
			return sqlast.InvalidNodeID, err
		}

		left = p.new(sqlast.Node{Kind: sqlast.KindAnd, Children: []sqlast.NodeID{left, right}})
	}

	return left, nil
}

func (p *stmtParser) parseNotExpr() (sqlast.NodeID, error) {
	if p.isKeyword("NOT") {
		p.advance()

		inner, err := p.parseNotExpr()
		if err != nil {
			return sqlast.InvalidNodeID, err
		}

		return p.new(sqlast.Node{Kind: sqlast.KindNot, Named: map[string]sqlast.NodeID{"expr": inner}}), nil
	}

	return p.parsePredicate()
}

// parsePredicate parses a value expression and, if followed by a predicate
// operator, wraps it into the matching typed node. A "NOT" directly between
// the operand and IN/LIKE produces the dedicated negated Kind (KindNotIn /
// KindNotLike) directly, as opposed to the KindNot-wrapping form produced
// when the NOT precedes the whole predicate; downstream classification
// treats both the same. "x NOT BETWEEN" always becomes a KindNot wrapping a
// KindBetween.
func (p *stmtParser) parsePredicate() (sqlast.NodeID, error) {
	left, err := p.parseValueExpr()
	if err != nil {
		return sqlast.InvalidNodeID, err
	}

	if p.isKeyword("IS") {
		return p.parseIsNull(left)
	}

	negated := false

	if p.isKeyword("NOT") && (p.peekAt(1).Type == TokenKeyword) {
		switch {
		case isKeywordTok(p.peekAt(1), "IN"), isKeywordTok(p.peekAt(1), "LIKE"), isKeywordTok(p.peekAt(1), "BETWEEN"):
			p.advance()

			negated = true
		}
	}

	switch {
	case p.isKeyword("IN"):
		return p.parseIn(left, negated)
	case p.isKeyword("LIKE"):
		return p.parseLike(left, negated)
	case p.isKeyword("BETWEEN"):
		return p.parseBetween(left, negated)
	case isComparisonOp(p.cur()):
		return p.parseComparison(left)
	default:
		return left, nil
	}
}

func isKeywordTok(t Token, kw string) bool {
	return t.Type == TokenKeyword && strings.EqualFold(t.Literal, kw)
}

func isComparisonOp(t Token) bool {
	if t.Type != TokenOperator {
		return false
	}

	switch t.Literal {
	case "=", "!=", "<>", "<", "<=", ">", ">=":
		return true
	default:
		return false
	}
}

func (p *stmtParser) parseComparison(left sqlast.NodeID) (sqlast.NodeID, error) {
	opTok := p.advance()

	op := opTok.Literal
	if op == "<>" {
		op = "!="
	}

	right, err := p.parseValueExpr()
	if err != nil {
		return sqlast.InvalidNodeID, err
	}

	return p.new(sqlast.Node{
		Kind: sqlast.KindComparison,
		Op:   op,
		Named: map[string]sqlast.NodeID{
			"left": left, "right": right,
		},
	}), nil
}

func (p *stmtParser) parseIsNull(left sqlast.NodeID) (sqlast.NodeID, error) {
	p.advance() // IS

	op := "IS"
	if p.isKeyword("NOT") {
		p.advance()

		op = "IS NOT"
	}

	if err := p.expectKeyword("NULL"); err != nil {
		return sqlast.InvalidNodeID, err
	}

	null := p.new(sqlast.Node{Kind: sqlast.KindLiteral, LitKind: sqlast.LiteralNull, Text: "NULL"})

	return p.new(sqlast.Node{
		Kind: sqlast.KindComparison,
		Op:   op,
		Named: map[string]sqlast.NodeID{
			"left": left, "right": null,
		},
	}), nil
}

func (p *stmtParser) parseIn(left sqlast.NodeID, negated bool) (sqlast.NodeID, error) {
	p.advance() // IN

	if _, err := p.expectType(TokenLParen); err != nil {
		return sqlast.InvalidNodeID, err
	}

	var elems []sqlast.NodeID

	for {
		e, err := p.parseValueExpr()
		if err != nil {
			return sqlast.InvalidNodeID, err
		}

		elems = append(elems, e)

		if p.cur().Type == TokenComma {
			p.advance()
			continue
		}

		break
	}

	if _, err := p.expectType(TokenRParen); err != nil {
		return sqlast.InvalidNodeID, err
	}

	list := p.new(sqlast.Node{Kind: sqlast.KindTuple, Children: elems})

	kind := sqlast.KindIn
	if negated {
		kind = sqlast.KindNotIn
	}

	return p.new(sqlast.Node{
		Kind:  kind,
		Named: map[string]sqlast.NodeID{"left": left, "list": list},
	}), nil
}

func (p *stmtParser) parseLike(left sqlast.NodeID, negated bool) (sqlast.NodeID, error) {
	p.advance() // LIKE

	pattern, err := p.parseValueExpr()
	if err != nil {
		return sqlast.InvalidNodeID, err
	}

	kind := sqlast.KindLike
	if negated {
		kind = sqlast.KindNotLike
	}

	return p.new(sqlast.Node{
		Kind:  kind,
		Named: map[string]sqlast.NodeID{"left": left, "pattern": pattern},
	}), nil
}

func (p *stmtParser) parseBetween(left sqlast.NodeID, negated bool) (sqlast.NodeID, error) {
	p.advance() // BETWEEN

	low, err := p.parseValueExpr()
	if err != nil {
		return sqlast.InvalidNodeID, err
	}

	if err := p.expectKeyword("AND"); err != nil {
		return sqlast.InvalidNodeID, err
	}

	high, err := p.parseValueExpr()
	if err != nil {
		return sqlast.InvalidNodeID, err
	}

	between := p.new(sqlast.Node{
		Kind:  sqlast.KindBetween,
		Named: map[string]sqlast.NodeID{"left": left, "low": low, "high": high},
	})

	if negated {
		return p.new(sqlast.Node{Kind: sqlast.KindNot, Named: map[string]sqlast.NodeID{"expr": between}}), nil
	}

	return between, nil
}

// parseValueExpr parses one primary expression and, if it is immediately
// followed by an arithmetic/concatenation operator, falls back to a raw
// span for the whole expression: the node vocabulary has no arithmetic
// Kind, so anything beyond a plain primary is captured verbatim for
// fallback rendering and alias substitution.
func (p *stmtParser) parseValueExpr() (sqlast.NodeID, error) {
	start := p.cur()

	primary, err := p.parsePrimary()
	if err != nil {
		return sqlast.InvalidNodeID, err
	}

	if !isArithmeticOp(p.cur()) {
		return primary, nil
	}

	for isArithmeticOp(p.cur()) {
		p.advance()

		if _, err := p.parsePrimary(); err != nil {
			return sqlast.InvalidNodeID, err
		}
	}

	last := p.toks[p.pos-1]

	return p.new(sqlast.Node{Kind: sqlast.KindRaw, Raw: p.rawSpan(start, last)}), nil
}

func isArithmeticOp(t Token) bool {
	if t.Type != TokenOperator {
		return false
	}

	switch t.Literal {
	case "+", "-", "*", "/", "||":
		return true
	default:
		return false
	}
}

func (p *stmtParser) rawSpan(start, end Token) string {
	return p.src[start.Start:end.End]
}
