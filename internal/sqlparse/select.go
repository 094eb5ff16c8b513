package sqlparse

import "github.com/accented-ai/tdlineage/internal/sqlast"

func (p *stmtParser) parseWithStatement() (sqlast.NodeID, error) {
	if err := p.expectKeyword("WITH"); err != nil {
		return sqlast.InvalidNodeID, err
	}

	var ctes []sqlast.NodeID

	for {
		nameTok, err := p.expectType(TokenIdentifier)
		if err != nil {
			return sqlast.InvalidNodeID, err
		}

		if err := p.expectKeyword("AS"); err != nil {
			return sqlast.InvalidNodeID, err
		}

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

		cte := p.new(sqlast.Node{
			Kind:  sqlast.KindCTE,
			Alias: unquote(nameTok.Literal),
			Named: map[string]sqlast.NodeID{"query": inner},
		})
		ctes = append(ctes, cte)

		if p.cur().Type == TokenComma {
			p.advance()
			continue
		}

		break
	}

	body, err := p.parseTopLevel()
	if err != nil {
		return sqlast.InvalidNodeID, err
	}

	return p.new(sqlast.Node{
		Kind:     sqlast.KindWith,
		Children: ctes,
		Named:    map[string]sqlast.NodeID{"body": body},
	}), nil
}

func (p *stmtParser) parseSelect() (sqlast.NodeID, error) {
	if err := p.expectKeyword("SELECT"); err != nil {
		return sqlast.InvalidNodeID, err
	}

	if p.isKeyword("DISTINCT") || p.isKeyword("ALL") {
		p.advance()
	}

	var items []sqlast.NodeID

	for {
		item, err := p.parseProjectionItem()
		if err != nil {
			return sqlast.InvalidNodeID, err
		}

		items = append(items, item)

		if p.cur().Type == TokenComma {
			p.advance()
			continue
		}

		break
	}

	named := map[string]sqlast.NodeID{}

	if p.isKeyword("FROM") {
		p.advance()

		from, err := p.parseFromChain()
		if err != nil {
			return sqlast.InvalidNodeID, err
		}

		named["from"] = from
	}

	if p.isKeyword("WHERE") {
		p.advance()

		where, err := p.parseOrExpr()
		if err != nil {
			return sqlast.InvalidNodeID, err
		}

		named["where"] = where
	}

	if p.isKeyword("GROUP") {
		p.skipGroupBy()
	}

	if p.isKeyword("HAVING") {
		p.advance()

		having, err := p.parseOrExpr()
		if err != nil {
			return sqlast.InvalidNodeID, err
		}

		named["having"] = having
	}

	p.skipTrailingClauses()

	return p.new(sqlast.Node{
		Kind:     sqlast.KindSelect,
		Children: items,
		Named:    named,
	}), nil
}

// skipGroupBy consumes GROUP BY <exprs> without building nodes for it:
// grouping columns play no role in lineage attribution beyond what their
// appearance elsewhere (SELECT/HAVING) already attributes.
func (p *stmtParser) skipGroupBy() {
	p.advance() // GROUP
	if p.isKeyword("BY") {
		p.advance()
	}

	for !p.atEOF() && !p.isKeyword("HAVING") && !p.isKeyword("ORDER") && p.cur().Type != TokenSemicolon {
		p.advance()
	}
}

// skipTrailingClauses consumes any clause this parser does not model
// (ORDER BY, UNION, row-qualification) up to the statement/subquery
// boundary: EOF for a top-level statement, or the matching unbalanced ')'
// for a parenthesized derived table, which is left unconsumed for the
// caller.
func (p *stmtParser) skipTrailingClauses() {
	depth := 0

	for !p.atEOF() {
		switch p.cur().Type {
		case TokenRParen:
			if depth == 0 {
				return
			}

			depth--
		case TokenLParen:
			depth++
		}

		p.advance()
	}
}

func (p *stmtParser) parseProjectionItem() (sqlast.NodeID, error) {
	if p.isOp("*") {
		p.advance()
		return p.new(sqlast.Node{Kind: sqlast.KindStar}), nil
	}

	expr, err := p.parseValueExpr()
	if err != nil {
		return sqlast.InvalidNodeID, err
	}

	if p.isKeyword("AS") {
		p.advance()

		aliasTok, err := p.identifierLike()
		if err != nil {
			return sqlast.InvalidNodeID, err
		}

		setAlias(p.arena, expr, unquote(aliasTok.Literal))
	} else if p.cur().Type == TokenIdentifier {
		aliasTok := p.advance()
		setAlias(p.arena, expr, unquote(aliasTok.Literal))
	}

	return expr, nil
}

func setAlias(arena *sqlast.Arena, id sqlast.NodeID, alias string) {
	n := arena.Get(id)
	n.Alias = alias
	arena.Set(id, n)
}

// identifierLike accepts an identifier or a quoted identifier; a keyword is
// rejected (identifierLikeOrKeyword accepts those).
func (p *stmtParser) identifierLike() (Token, error) {
	t := p.cur()
	if t.Type == TokenIdentifier || t.Type == TokenQuotedIdentifier {
		return p.advance(), nil
	}

	return Token{}, p.errorf("expected identifier, got %s %q", t.Type, t.Literal)
}

// parseFromChain parses a FROM clause's table/JOIN sequence, folding
// comma-separated tables and explicit JOINs into the same left-deep
// KindJoin chain (comma is treated as an implicit CROSS JOIN).
func (p *stmtParser) parseFromChain() (sqlast.NodeID, error) {
	left, err := p.parseTableRef()
	if err != nil {
		return sqlast.InvalidNodeID, err
	}

	for {
		op := ""

		switch {
		case p.cur().Type == TokenComma:
			p.advance()

			op = "CROSS JOIN"
		case p.isKeyword("JOIN"):
			p.advance()

			op = "JOIN"
		case p.isKeyword("INNER"):
			p.advance()
			_ = p.expectKeyword("JOIN")

			op = "INNER JOIN"
		case p.isKeyword("LEFT"):
			p.advance()

			if p.isKeyword("OUTER") {
				p.advance()
			}

			_ = p.expectKeyword("JOIN")

			op = "LEFT JOIN"
		case p.isKeyword("RIGHT"):
			p.advance()

			if p.isKeyword("OUTER") {
				p.advance()
			}

			_ = p.expectKeyword("JOIN")

			op = "RIGHT JOIN"
		case p.isKeyword("FULL"):
			p.advance()

			if p.isKeyword("OUTER") {
				p.advance()
			}

			_ = p.expectKeyword("JOIN")

			op = "FULL JOIN"
		case p.isKeyword("CROSS"):
			p.advance()
			_ = p.expectKeyword("JOIN")

			op = "CROSS JOIN"
		default:
			return left, nil
		}

		right, err := p.parseTableRef()
		if err != nil {
			return sqlast.InvalidNodeID, err
		}

		named := map[string]sqlast.NodeID{"left": left, "right": right}

		if op != "CROSS JOIN" && p.isKeyword("ON") {
			p.advance()

			on, err := p.parseOrExpr()
			if err != nil {
				return sqlast.InvalidNodeID, err
			}

			named["on"] = on
		}

		left = p.new(sqlast.Node{Kind: sqlast.KindJoin, Op: op, Named: named})
	}
}

func (p *stmtParser) parseTableRef() (sqlast.NodeID, error) {
	if p.cur().Type == TokenLParen {
		p.advance()

		inner, err := p.parseSelect()
		if err != nil {
			return sqlast.InvalidNodeID, err
		}

		if _, err := p.expectType(TokenRParen); err != nil {
			return sqlast.InvalidNodeID, err
		}

		alias := ""
		if p.isKeyword("AS") {
			p.advance()
		}

		if p.cur().Type == TokenIdentifier {
			alias = unquote(p.advance().Literal)
		}

		return p.new(sqlast.Node{
			Kind:  sqlast.KindSubquery,
			Alias: alias,
			Named: map[string]sqlast.NodeID{"query": inner},
		}), nil
	}

	parts, err := p.parseDottedName()
	if err != nil {
		return sqlast.InvalidNodeID, err
	}

	n := sqlast.Node{Kind: sqlast.KindTable}
	fillQualified(&n, parts)

	if p.isKeyword("AS") {
		p.advance()
	}

	if p.cur().Type == TokenIdentifier {
		n.Alias = unquote(p.advance().Literal)
	}

	return p.new(n), nil
}

// parseDottedName reads identifier(.identifier)* with no trailing '(' check
// (callers decide whether what follows turns this into a function call).
func (p *stmtParser) parseDottedName() ([]string, error) {
	first, err := p.identifierLike()
	if err != nil {
		return nil, err
	}

	parts := []string{unquote(first.Literal)}

	for p.cur().Type == TokenDot {
		p.advance()

		if p.isOp("*") {
			parts = append(parts, "*")
			p.advance()

			break
		}

		next, err := p.identifierLike()
		if err != nil {
			return nil, err
		}

		parts = append(parts, unquote(next.Literal))
	}

	return parts, nil
}

// fillQualified assigns Catalog/Schema/Text from a dotted name's parts,
// right-aligned: the last part is always the base name.
func fillQualified(n *sqlast.Node, parts []string) {
	switch len(parts) {
	case 1:
		n.Text = parts[0]
	case 2:
		n.Schema = parts[0]
		n.Text = parts[1]
	default:
		n.Catalog = parts[len(parts)-3]
		n.Schema = parts[len(parts)-2]
		n.Text = parts[len(parts)-1]
	}
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' && s[len(s)-1] == '"') {
		return s[1 : len(s)-1]
	}

	return s
}
