package lineage

import (
	"strconv"
	"strings"

	"github.com/accented-ai/tdlineage/internal/sqlast"
)

// canonicalNames maps lower-cased function synonyms to their canonical
// upper-cased name, kept as data so adding a synonym never touches control
// flow.
var canonicalNames = map[string]string{
	"substring":         "SUBSTR",
	"char_length":       "LENGTH",
	"current_date":      "CURRENT_DATE",
	"currentdate":       "CURRENT_DATE",
	"current_timestamp": "CURRENT_TIMESTAMP",
	"current_time":      "CURRENT_TIME",
}

// noParenFuncs render without parentheses.
var noParenFuncs = map[string]bool{
	"CURRENT_DATE":      true,
	"CURRENT_TIMESTAMP": true,
	"CURRENT_TIME":      true,
}

// canonicalFuncName derives the upper-cased canonical name for a
// KindFuncCall node: declared kind first, then rendered-identifier parsing,
// then the arity heuristic.
func canonicalFuncName(arena *sqlast.Arena, id sqlast.NodeID) string {
	n := arena.Get(id)

	if n.FuncKind != "" {
		return canonicalize(n.FuncKind)
	}

	if name := headIdentifier(n.Raw); name != "" {
		return canonicalize(name)
	}

	return arityHeuristic(arena, id)
}

func canonicalize(name string) string {
	lower := strings.ToLower(name)
	if canon, ok := canonicalNames[lower]; ok {
		return canon
	}

	return strings.ToUpper(name)
}

// headIdentifier parses the identifier preceding "(" at the head of raw SQL,
// the rendered-identifier fallback for a function call with no declared kind.
func headIdentifier(raw string) string {
	trimmed := strings.TrimSpace(raw)

	idx := strings.IndexByte(trimmed, '(')
	if idx <= 0 {
		return ""
	}

	head := strings.TrimSpace(trimmed[:idx])
	if head == "" || strings.ContainsAny(head, " \t\n") {
		return "" // not a bare identifier
	}

	return head
}

// arityHeuristic classifies an anonymous function call by its argument
// shape: 2 non-identifier argument nodes -> INDEX; 3 argument nodes with
// >= 2 numeric-literal arguments -> SUBSTR, else OREPLACE.
func arityHeuristic(arena *sqlast.Arena, id sqlast.NodeID) string {
	n := arena.Get(id)
	args := n.Children

	switch len(args) {
	case 2:
		return "INDEX"
	case 3:
		numeric := 0

		for _, a := range args {
			if arg := arena.Get(a); arg.Kind == sqlast.KindLiteral && arg.LitKind == sqlast.LiteralNumber {
				numeric++
			}
		}

		if numeric >= 2 {
			return "SUBSTR"
		}

		return "OREPLACE"
	default:
		return strings.ToUpper(n.Text)
	}
}

// unwrapResult is the outcome of descending a nested function-wrapper
// stack.
type unwrapResult struct {
	stack []FuncStackEntry
	inner sqlast.NodeID
}

// unwrapFunctions descends while the current node is a function call
// (including EXTRACT), recording one FuncStackEntry per level in
// outermost-first order, stopping at the first Column reached or when no
// further descent is possible.
func (c *ctx) unwrapFunctions(selectID, id sqlast.NodeID) unwrapResult {
	arena := c.arena

	var stack []FuncStackEntry

	cur := id

	for arena.Valid(cur) {
		n := arena.Get(cur)

		switch n.Kind {
		case sqlast.KindFuncCall:
			name := canonicalFuncName(arena, cur)
			stack = append(stack, FuncStackEntry{Fn: name, Args: c.nonColumnArgs(selectID, cur)})
			cur = descend(arena, cur)
		case sqlast.KindExtract:
			stack = append(stack, FuncStackEntry{Fn: "EXTRACT", Args: []any{n.Unit}})

			if v, ok := n.Child("value"); ok {
				cur = v
			} else {
				return unwrapResult{stack: stack, inner: cur}
			}
		case sqlast.KindParen:
			if v, ok := n.Child("inner"); ok {
				cur = v
			} else {
				return unwrapResult{stack: stack, inner: cur}
			}
		default:
			return unwrapResult{stack: stack, inner: cur}
		}
	}

	return unwrapResult{stack: stack, inner: cur}
}

// descend picks the next node to unwrap into: the first positional
// argument, whatever its kind, falling back to Named["this"] when the call
// has no positional arguments.
func descend(arena *sqlast.Arena, id sqlast.NodeID) sqlast.NodeID {
	n := arena.Get(id)

	if len(n.Children) > 0 {
		return n.Children[0]
	}

	if v, ok := n.Child("this"); ok {
		return v
	}

	return sqlast.InvalidNodeID
}

// nonColumnArgs renders the non-column arguments of a function call: the
// first positional argument (the one descend unwraps into) and any column
// references are excluded, and all remaining positional arguments become
// literal values (if literal) or rendered SQL (otherwise).
func (c *ctx) nonColumnArgs(selectID, id sqlast.NodeID) []any {
	n := c.arena.Get(id)
	if len(n.Children) == 0 {
		return nil
	}

	var out []any

	for i, child := range n.Children {
		if i == 0 {
			continue // the descent target; not an "argument" of this level
		}

		if c.arena.Get(child).Kind == sqlast.KindColumn {
			continue
		}

		out = append(out, c.argValue(selectID, child))
	}

	return out
}

func (c *ctx) argValue(selectID, id sqlast.NodeID) any {
	n := c.arena.Get(id)
	if n.Kind == sqlast.KindLiteral {
		return extractLiteral(n)
	}

	return c.renderExpr(selectID, id)
}

// extractLiteral parses the value of a KindLiteral node: strings pass
// through as-is, numbers parse as int64 then float64, date/time literals
// prefer their raw source text, and NULL becomes nil.
func extractLiteral(n sqlast.Node) any {
	switch n.LitKind {
	case sqlast.LiteralString:
		return n.Text
	case sqlast.LiteralNumber:
		if i, err := strconv.ParseInt(n.Text, 10, 64); err == nil {
			return i
		}

		if f, err := strconv.ParseFloat(n.Text, 64); err == nil {
			return f
		}

		return n.Text
	case sqlast.LiteralDateTime:
		if n.Raw != "" {
			return n.Raw
		}

		return n.Text
	case sqlast.LiteralNull:
		return nil
	default:
		return n.Text
	}
}

// literalOrRendered extracts a single value from expr: a literal's parsed
// value, or (if wrapped in functions / otherwise not a plain literal) the
// unwrapped value together with its own function stack.
func (c *ctx) literalOrRendered(selectID, id sqlast.NodeID) (value any, stack []FuncStackEntry) {
	unwrapped := c.unwrapFunctions(selectID, id)

	inner := c.arena.Get(unwrapped.inner)
	if inner.Kind == sqlast.KindLiteral {
		return extractLiteral(inner), unwrapped.stack
	}

	if inner.Kind == sqlast.KindParen {
		if v, ok := inner.Child("inner"); ok {
			return c.literalOrRendered(selectID, v)
		}
	}

	return c.renderExpr(selectID, unwrapped.inner), unwrapped.stack
}
