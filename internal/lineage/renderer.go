package lineage

import (
	"regexp"
	"strings"

	"github.com/accented-ai/tdlineage/internal/sqlast"
)

// preferredArgKeys is the renderer's argument-ordering list, used once
// positional Children are exhausted.
var preferredArgKeys = []string{
	"this", "expression", "from", "start", "position", "length",
	"to", "characters", "pattern", "replacement", "value", "sep", "unit",
}

// renderExpr recursively renders an expression node as pseudocode. selectID
// identifies the enclosing SELECT whose scope qualifies column references.
func (c *ctx) renderExpr(selectID, id sqlast.NodeID) string {
	if !c.arena.Valid(id) {
		return ""
	}

	n := c.arena.Get(id)

	switch n.Kind {
	case sqlast.KindColumn:
		return c.renderColumn(selectID, n)
	case sqlast.KindStar:
		return c.renderStar(selectID, n)
	case sqlast.KindLiteral:
		return renderLiteral(n)
	case sqlast.KindFuncCall:
		return c.renderFuncCall(selectID, id)
	case sqlast.KindExtract:
		return c.renderExtract(selectID, n)
	case sqlast.KindCast:
		return c.renderCast(selectID, n)
	case sqlast.KindParen:
		if v, ok := n.Child("inner"); ok {
			return c.renderExpr(selectID, v)
		}

		return ""
	case sqlast.KindComparison:
		return c.renderComparison(selectID, n)
	case sqlast.KindIn, sqlast.KindNotIn:
		return c.renderIn(selectID, n, n.Kind == sqlast.KindNotIn || n.Negated)
	case sqlast.KindLike, sqlast.KindNotLike:
		return c.renderLike(selectID, n, n.Kind == sqlast.KindNotLike || n.Negated)
	case sqlast.KindBetween:
		return c.renderBetween(selectID, n)
	case sqlast.KindAnd:
		return c.renderLogical(selectID, n, "AND")
	case sqlast.KindOr:
		return c.renderLogical(selectID, n, "OR")
	case sqlast.KindNot:
		return c.renderNot(selectID, n)
	case sqlast.KindExists:
		return c.renderExists(n)
	case sqlast.KindTuple:
		return c.renderTuple(selectID, n)
	default:
		return c.renderFallback(selectID, n)
	}
}

func (c *ctx) renderColumn(selectID sqlast.NodeID, n sqlast.Node) string {
	if n.Qualifier == "" {
		res := c.res.resolveColumn(selectID, "", n.Text)
		if res.resolved {
			return res.table.String() + "." + res.column
		}

		return n.Text
	}

	res := c.res.resolveColumn(selectID, n.Qualifier, n.Text)
	if res.resolved {
		return res.table.String() + "." + res.column
	}

	return n.Qualifier + "." + n.Text // never emit a bare column when a qualifier existed
}

func (c *ctx) renderStar(selectID sqlast.NodeID, n sqlast.Node) string {
	if n.Qualifier == "" {
		return "*"
	}

	res := c.res.resolveColumn(selectID, n.Qualifier, "*")
	if res.resolved {
		return res.table.String() + ".*"
	}

	return n.Qualifier + ".*"
}

func renderLiteral(n sqlast.Node) string {
	switch n.LitKind {
	case sqlast.LiteralString:
		return "'" + n.Text + "'"
	case sqlast.LiteralDateTime:
		if n.Raw != "" {
			return n.Raw
		}

		return n.Text
	case sqlast.LiteralNull:
		return "NULL"
	case sqlast.LiteralNumber:
		return n.Text
	default:
		return n.Text
	}
}

func (c *ctx) renderFuncCall(selectID, id sqlast.NodeID) string {
	n := c.arena.Get(id)
	name := canonicalFuncName(c.arena, id)

	if noParenFuncs[name] {
		return name
	}

	var args []string

	seen := map[sqlast.NodeID]bool{}

	for _, child := range n.Children {
		args = append(args, c.renderExpr(selectID, child))
		seen[child] = true
	}

	for _, key := range preferredArgKeys {
		if v, ok := n.Child(key); ok && !seen[v] {
			args = append(args, c.renderExpr(selectID, v))
			seen[v] = true
		}
	}

	for _, key := range remainingNamedKeysSorted(n, preferredArgKeys) {
		v := n.Named[key]
		if seen[v] {
			continue
		}

		args = append(args, c.renderExpr(selectID, v))
		seen[v] = true
	}

	return name + "(" + strings.Join(args, ", ") + ")"
}

func remainingNamedKeysSorted(n sqlast.Node, exclude []string) []string {
	excluded := map[string]bool{}
	for _, k := range exclude {
		excluded[k] = true
	}

	var out []string

	for k := range n.Named {
		if !excluded[k] {
			out = append(out, k)
		}
	}

	sortStringsLocal(out)

	return out
}

func sortStringsLocal(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

func (c *ctx) renderExtract(selectID sqlast.NodeID, n sqlast.Node) string {
	v, ok := n.Child("value")
	if !ok {
		return "EXTRACT(" + strings.ToUpper(n.Unit) + ")"
	}

	return "EXTRACT(" + strings.ToUpper(n.Unit) + " FROM " + c.renderExpr(selectID, v) + ")"
}

func (c *ctx) renderCast(selectID sqlast.NodeID, n sqlast.Node) string {
	if n.Raw != "" {
		return n.Raw
	}

	expr, ok := n.Child("expr")
	if !ok {
		return n.Text
	}

	return "CAST(" + c.renderExpr(selectID, expr) + " AS " + strings.ToUpper(n.Text) + ")"
}

func (c *ctx) renderComparison(selectID sqlast.NodeID, n sqlast.Node) string {
	op := n.Op
	if op == "=" {
		op = "=="
	}

	left, _ := n.Child("left")
	right, _ := n.Child("right")

	return "(" + c.renderExpr(selectID, left) + " " + op + " " + c.renderExpr(selectID, right) + ")"
}

func (c *ctx) renderIn(selectID sqlast.NodeID, n sqlast.Node, negated bool) string {
	left, _ := n.Child("left")

	kw := "IN"
	if negated {
		kw = "NOT IN"
	}

	var elems []string

	if listID, ok := n.Child("list"); ok {
		for _, e := range c.arena.Get(listID).Children {
			elems = append(elems, c.renderExpr(selectID, e))
		}
	}

	return "(" + c.renderExpr(selectID, left) + " " + kw + " (" + strings.Join(elems, ", ") + "))"
}

func (c *ctx) renderLike(selectID sqlast.NodeID, n sqlast.Node, negated bool) string {
	left, _ := n.Child("left")
	pattern, _ := n.Child("pattern")

	kw := "LIKE"
	if negated {
		kw = "NOT LIKE"
	}

	return "(" + c.renderExpr(selectID, left) + " " + kw + " " + c.renderExpr(selectID, pattern) + ")"
}

func (c *ctx) renderBetween(selectID sqlast.NodeID, n sqlast.Node) string {
	left, _ := n.Child("left")
	low, _ := n.Child("low")
	high, _ := n.Child("high")

	return "(" + c.renderExpr(selectID, left) + " BETWEEN " + c.renderExpr(selectID, low) +
		" AND " + c.renderExpr(selectID, high) + ")"
}

func (c *ctx) renderLogical(selectID sqlast.NodeID, n sqlast.Node, kw string) string {
	if len(n.Children) < 2 {
		if len(n.Children) == 1 {
			return c.renderExpr(selectID, n.Children[0])
		}

		return ""
	}

	return "(" + c.renderExpr(selectID, n.Children[0]) + " " + kw + " " + c.renderExpr(selectID, n.Children[1]) + ")"
}

func (c *ctx) renderNot(selectID sqlast.NodeID, n sqlast.Node) string {
	expr, ok := n.Child("expr")
	if !ok {
		return ""
	}

	return "(NOT " + c.renderExpr(selectID, expr) + ")"
}

func (c *ctx) renderExists(n sqlast.Node) string {
	inner, ok := n.Child("query")
	if !ok {
		return n.Raw
	}

	if label, ok := c.labels[inner]; ok {
		return "EXISTS(Operation " + label + ")"
	}

	return n.Raw
}

func (c *ctx) renderTuple(selectID sqlast.NodeID, n sqlast.Node) string {
	var elems []string

	for _, e := range n.Children {
		elems = append(elems, c.renderExpr(selectID, e))
	}

	return "(" + strings.Join(elems, ", ") + ")"
}

func (c *ctx) renderFallback(selectID sqlast.NodeID, n sqlast.Node) string {
	raw := n.Raw
	if raw == "" {
		return n.Text
	}

	sc := c.res.scopeFor(selectID)

	for alias, qn := range sc.AliasMap {
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(alias) + `\.`)
		if err != nil {
			continue
		}

		raw = re.ReplaceAllString(raw, qn.String()+".")
	}

	return raw
}
