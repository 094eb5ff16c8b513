package lineage

import "github.com/accented-ai/tdlineage/internal/sqlast"

// attribute walks selectID's own column and star references (projection,
// WHERE, HAVING, JOIN-ON) and records each against its resolved base table
// in c.report.Variables.
func (c *ctx) attribute(selectID sqlast.NodeID) {
	for _, root := range ownExprRoots(c.arena, selectID) {
		walkOwn(c.arena, root, func(id sqlast.NodeID, n sqlast.Node) {
			switch n.Kind {
			case sqlast.KindColumn:
				c.attributeColumn(selectID, n)
			case sqlast.KindStar:
				c.attributeStar(selectID, n)
			}
		})
	}
}

func (c *ctx) attributeColumn(selectID sqlast.NodeID, n sqlast.Node) {
	res := c.res.resolveColumn(selectID, n.Qualifier, n.Text)

	if res.resolved {
		c.report.addVariable(res.table.String(), res.column)
		return
	}

	c.report.warn("ambiguous_column_origin: " + unresolvedMessage(n.Qualifier, n.Text))
}

// unresolvedMessage renders the "could not resolve ..." detail for an
// unattributable column: a qualified form when the reference carried a
// qualifier, the qualifier-less form otherwise.
func unresolvedMessage(qualifier, column string) string {
	if qualifier == "" {
		return "could not resolve column '" + column + "'"
	}

	return "could not resolve qualifier '" + qualifier + "' for column '" + column + "'"
}

func (c *ctx) attributeStar(selectID sqlast.NodeID, n sqlast.Node) {
	if n.Qualifier == "" {
		bases := c.res.scopeFor(selectID).baseTables()
		if len(bases) == 0 {
			c.report.warn("select_star_used: no FROM tables in scope")
			return
		}

		for _, qn := range bases {
			c.report.warn("select_star_used: table " + qn.String() + " has '*' referenced")
			c.report.addVariable(qn.String(), "*")
		}

		return
	}

	res := c.res.resolveColumn(selectID, n.Qualifier, "*")
	if res.resolved {
		c.report.addVariable(res.table.String(), "*")
		return
	}

	c.report.warn("ambiguous_column_origin: " + unresolvedMessage(n.Qualifier, "*"))
}
