package sqlparse

import (
	"strings"

	"github.com/accented-ai/tdlineage/internal/sqlast"
)

func (p *stmtParser) parseInsert() (sqlast.NodeID, error) {
	p.advance() // INSERT

	if p.isKeyword("INTO") {
		p.advance()
	}

	target, err := p.parseTableRef()
	if err != nil {
		return sqlast.InvalidNodeID, err
	}

	if p.cur().Type == TokenLParen {
		p.skipParenGroup()
	}

	named := map[string]sqlast.NodeID{"target": target}

	if p.isKeyword("SELECT") || p.isKeyword("WITH") {
		source, err := p.parseTopLevel()
		if err != nil {
			return sqlast.InvalidNodeID, err
		}

		named["source"] = source
	} else if p.isKeyword("VALUES") {
		p.advance()

		if p.cur().Type == TokenLParen {
			p.skipParenGroup()
		}

		p.skipTrailingClauses()
	}

	return p.new(sqlast.Node{Kind: sqlast.KindInsert, Named: named}), nil
}

func (p *stmtParser) parseUpdate() (sqlast.NodeID, error) {
	p.advance() // UPDATE

	target, err := p.parseTableRef()
	if err != nil {
		return sqlast.InvalidNodeID, err
	}

	named := map[string]sqlast.NodeID{"target": target}

	if err := p.expectKeyword("SET"); err != nil {
		return sqlast.InvalidNodeID, err
	}

	for {
		if _, err := p.identifierLike(); err != nil {
			return sqlast.InvalidNodeID, err
		}

		if _, err := p.expectType(TokenOperator); err != nil {
			return sqlast.InvalidNodeID, err
		}

		if _, err := p.parseValueExpr(); err != nil {
			return sqlast.InvalidNodeID, err
		}

		if p.cur().Type == TokenComma {
			p.advance()
			continue
		}

		break
	}

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

	p.skipTrailingClauses()

	return p.new(sqlast.Node{Kind: sqlast.KindUpdate, Named: named}), nil
}

func (p *stmtParser) parseDelete() (sqlast.NodeID, error) {
	p.advance() // DELETE

	if p.isKeyword("FROM") {
		p.advance()
	}

	target, err := p.parseTableRef()
	if err != nil {
		return sqlast.InvalidNodeID, err
	}

	named := map[string]sqlast.NodeID{"target": target}

	if p.isKeyword("WHERE") {
		p.advance()

		where, err := p.parseOrExpr()
		if err != nil {
			return sqlast.InvalidNodeID, err
		}

		named["where"] = where
	}

	p.skipTrailingClauses()

	return p.new(sqlast.Node{Kind: sqlast.KindDelete, Named: named}), nil
}

func (p *stmtParser) parseMerge() (sqlast.NodeID, error) {
	p.advance() // MERGE

	if p.isKeyword("INTO") {
		p.advance()
	}

	target, err := p.parseTableRef()
	if err != nil {
		return sqlast.InvalidNodeID, err
	}

	if err := p.expectKeyword("USING"); err != nil {
		return sqlast.InvalidNodeID, err
	}

	using, err := p.parseTableRef()
	if err != nil {
		return sqlast.InvalidNodeID, err
	}

	named := map[string]sqlast.NodeID{"target": target, "using": using}

	if err := p.expectKeyword("ON"); err != nil {
		return sqlast.InvalidNodeID, err
	}

	on, err := p.parseOrExpr()
	if err != nil {
		return sqlast.InvalidNodeID, err
	}

	named["on"] = on

	p.skipTrailingClauses()

	return p.new(sqlast.Node{Kind: sqlast.KindMerge, Named: named}), nil
}

func (p *stmtParser) parseCreateTable() (sqlast.NodeID, error) {
	startTok := p.cur()

	p.advance() // CREATE

	temp := false

	for p.isKeyword("VOLATILE") || p.isKeyword("MULTISET") || p.isKeyword("GLOBAL") || p.isKeyword("TEMPORARY") {
		if p.isKeyword("VOLATILE") || p.isKeyword("TEMPORARY") {
			temp = true
		}

		p.advance()
	}

	if err := p.expectKeyword("TABLE"); err != nil {
		return sqlast.InvalidNodeID, err
	}

	parts, err := p.parseDottedName()
	if err != nil {
		return sqlast.InvalidNodeID, err
	}

	n := sqlast.Node{Kind: sqlast.KindCreateTable, Temp: temp}
	fillQualified(&n, parts)

	named := map[string]sqlast.NodeID{}

	if p.isKeyword("AS") {
		p.advance()

		wrapped := p.cur().Type == TokenLParen
		if wrapped {
			p.advance()
		}

		query, err := p.parseTopLevel()
		if err != nil {
			return sqlast.InvalidNodeID, err
		}

		named["query"] = query

		if wrapped {
			if _, err := p.expectType(TokenRParen); err != nil {
				return sqlast.InvalidNodeID, err
			}
		}
	} else if p.cur().Type == TokenLParen {
		p.skipParenGroup()
	}

	last := p.pos - 1
	endTok := startTok
	if last >= 0 && last < len(p.toks) {
		endTok = p.toks[last]
	}

	p.skipTrailingClauses()

	n.Named = named
	n.Raw = strings.TrimSpace(p.rawSpan(startTok, endTok))

	return p.new(n), nil
}

// parseCall parses a CALL invocation of a stored procedure. The argument
// list is skipped unparsed, the same way parseInsert skips a VALUES tuple:
// procedure arguments never attribute to a table, and only the procedure's
// name needs cataloging.
func (p *stmtParser) parseCall() (sqlast.NodeID, error) {
	p.advance() // CALL

	parts, err := p.parseDottedName()
	if err != nil {
		return sqlast.InvalidNodeID, err
	}

	n := sqlast.Node{Kind: sqlast.KindCall}
	fillQualified(&n, parts)

	if p.cur().Type == TokenLParen {
		p.skipParenGroup()
	}

	p.skipTrailingClauses()

	return p.new(n), nil
}

// skipParenGroup consumes a balanced parenthesized group (a column list, a
// VALUES tuple) without building nodes for its contents.
func (p *stmtParser) skipParenGroup() {
	depth := 0

	for !p.atEOF() {
		switch p.cur().Type {
		case TokenLParen:
			depth++
		case TokenRParen:
			depth--

			if depth == 0 {
				p.advance()
				return
			}
		}

		p.advance()
	}
}
