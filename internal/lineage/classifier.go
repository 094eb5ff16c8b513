package lineage

import (
	"strings"

	"github.com/accented-ai/tdlineage/internal/sqlast"
)

// classify walks selectID's own predicates (WHERE/HAVING/JOIN-ON) and emits
// Condition records into c.report. Predicates that compare two columns
// (join predicates) are excluded, matching the join-style exclusion rule.
func (c *ctx) classify(selectID sqlast.NodeID) {
	for _, root := range ownExprRoots(c.arena, selectID) {
		walkOwn(c.arena, root, func(id sqlast.NodeID, n sqlast.Node) {
			switch n.Kind {
			case sqlast.KindComparison:
				c.classifyComparison(selectID, n)
			case sqlast.KindIn, sqlast.KindNotIn:
				c.classifyIn(selectID, n, (n.Kind == sqlast.KindNotIn || n.Negated) != c.underNot(id))
			case sqlast.KindLike, sqlast.KindNotLike:
				c.classifyLike(selectID, n, (n.Kind == sqlast.KindNotLike || n.Negated) != c.underNot(id))
			case sqlast.KindBetween:
				c.classifyBetween(selectID, n)
			}
		})
	}
}

// underNot reports whether id is the operand of a KindNot, looking through
// any parentheses in between ("NOT x IN (...)", "NOT (x LIKE ...)").
func (c *ctx) underNot(id sqlast.NodeID) bool {
	parent := c.arena.Get(id).Parent
	for c.arena.Get(parent).Kind == sqlast.KindParen {
		parent = c.arena.Get(parent).Parent
	}

	return c.arena.Get(parent).Kind == sqlast.KindNot
}

func (c *ctx) classifyComparison(selectID sqlast.NodeID, n sqlast.Node) {
	left, lok := n.Child("left")
	right, rok := n.Child("right")

	if !lok || !rok {
		return
	}

	lu := c.unwrapFunctions(selectID, left)
	ru := c.unwrapFunctions(selectID, right)

	lIsCol := c.arena.Get(lu.inner).Kind == sqlast.KindColumn
	rIsCol := c.arena.Get(ru.inner).Kind == sqlast.KindColumn

	if lIsCol == rIsCol {
		return // both columns (a join predicate) or neither: nothing to attribute
	}

	var colNode sqlast.Node

	var colStack []FuncStackEntry

	var valueID sqlast.NodeID

	op := n.Op

	if lIsCol {
		colNode = c.arena.Get(lu.inner)
		colStack = lu.stack
		valueID = right
	} else {
		colNode = c.arena.Get(ru.inner)
		colStack = ru.stack
		valueID = left
		op = flipOp(op)
	}

	res := c.res.resolveColumn(selectID, colNode.Qualifier, colNode.Text)
	if !res.resolved {
		return
	}

	value, valueStack := c.literalOrRendered(selectID, valueID)

	cond := Condition{Op: op, Value: value}
	applyColumnStack(&cond, colStack)
	applyValueStack(&cond, valueStack)

	c.report.addCondition(res.table.String(), res.column, cond)
}

func (c *ctx) classifyIn(selectID sqlast.NodeID, n sqlast.Node, negated bool) {
	left, ok := n.Child("left")
	if !ok {
		return
	}

	lu := c.unwrapFunctions(selectID, left)

	colNode := c.arena.Get(lu.inner)
	if colNode.Kind != sqlast.KindColumn {
		return
	}

	res := c.res.resolveColumn(selectID, colNode.Qualifier, colNode.Text)
	if !res.resolved {
		return
	}

	op := "in"
	if negated {
		op = "not in"
	}

	cond := Condition{Op: op}
	applyColumnStack(&cond, lu.stack)

	listID, ok := n.Child("list")
	if ok {
		wrapped := false

		for _, elem := range c.arena.Get(listID).Children {
			value, stack := c.literalOrRendered(selectID, elem)
			cond.Values = append(cond.Values, value)
			cond.ValueFnStackList = append(cond.ValueFnStackList, stack)

			if len(stack) >= 1 {
				wrapped = true
				name := stack[0].Fn
				cond.ValueFns = append(cond.ValueFns, &name)
				cond.ValueFnArgsList = append(cond.ValueFnArgsList, stack[0].Args)
			} else {
				cond.ValueFns = append(cond.ValueFns, nil)
				cond.ValueFnArgsList = append(cond.ValueFnArgsList, nil)
			}
		}

		if !wrapped {
			cond.ValueFns, cond.ValueFnArgsList, cond.ValueFnStackList = nil, nil, nil
		}
	}

	c.report.addCondition(res.table.String(), res.column, cond)
}

func (c *ctx) classifyLike(selectID sqlast.NodeID, n sqlast.Node, negated bool) {
	left, lok := n.Child("left")
	pattern, pok := n.Child("pattern")

	if !lok || !pok {
		return
	}

	lu := c.unwrapFunctions(selectID, left)

	colNode := c.arena.Get(lu.inner)
	if colNode.Kind != sqlast.KindColumn {
		return
	}

	res := c.res.resolveColumn(selectID, colNode.Qualifier, colNode.Text)
	if !res.resolved {
		return
	}

	op := "like"
	if negated {
		op = "not like"
	}

	value, valueStack := c.literalOrRendered(selectID, pattern)

	cond := Condition{Op: op, Value: value}
	applyColumnStack(&cond, lu.stack)
	applyValueStack(&cond, valueStack)

	c.report.addCondition(res.table.String(), res.column, cond)
}

func (c *ctx) classifyBetween(selectID sqlast.NodeID, n sqlast.Node) {
	left, lok := n.Child("left")
	low, lowOk := n.Child("low")
	high, highOk := n.Child("high")

	if !lok || !lowOk || !highOk {
		return
	}

	lu := c.unwrapFunctions(selectID, left)

	colNode := c.arena.Get(lu.inner)
	if colNode.Kind != sqlast.KindColumn {
		return
	}

	res := c.res.resolveColumn(selectID, colNode.Qualifier, colNode.Text)
	if !res.resolved {
		return
	}

	cond := Condition{
		Op:   "between",
		Low:  c.betweenOperand(selectID, low),
		High: c.betweenOperand(selectID, high),
	}
	applyColumnStack(&cond, lu.stack)

	c.report.addCondition(res.table.String(), res.column, cond)
}

// betweenOperand extracts a plain literal value for a BETWEEN bound, falling
// back to the bound's rendered pseudocode when it is anything more complex
// (there is no dedicated per-bound function-stack field to carry the
// unwrap, unlike the single-value comparison/LIKE cases).
func (c *ctx) betweenOperand(selectID, id sqlast.NodeID) any {
	u := c.unwrapFunctions(selectID, id)

	inner := c.arena.Get(u.inner)
	if len(u.stack) == 0 && inner.Kind == sqlast.KindLiteral {
		return extractLiteral(inner)
	}

	return c.renderExpr(selectID, id)
}

// applyColumnStack records the column-side function wrapping on cond: the
// "top" (outermost) name lower-cased into Fn/FnArgs, plus the full
// outermost-first stack (upper-cased entries) into FnStack whenever any
// wrapping exists.
func applyColumnStack(cond *Condition, stack []FuncStackEntry) {
	if len(stack) == 0 {
		return
	}

	cond.Fn = strings.ToLower(stack[0].Fn)
	cond.FnArgs = stack[0].Args
	cond.FnStack = stack
}

func applyValueStack(cond *Condition, stack []FuncStackEntry) {
	if len(stack) == 0 {
		return
	}

	cond.ValueFn = strings.ToLower(stack[0].Fn)
	cond.ValueFnArgs = stack[0].Args
	cond.ValueFnStack = stack
}

// flipOp swaps a comparison operator's sense when its operands are
// exchanged (value OP column -> column flipOp(OP) value).
func flipOp(op string) string {
	switch op {
	case "<":
		return ">"
	case ">":
		return "<"
	case "<=":
		return ">="
	case ">=":
		return "<="
	default:
		return op
	}
}
