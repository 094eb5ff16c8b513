package lineage

import "github.com/accented-ai/tdlineage/internal/sqlast"

// ownExprRoots returns every expression subtree that belongs to selectID
// itself: its projection items, WHERE, HAVING, and the ON predicate of
// every JOIN in its own FROM chain. It excludes anything belonging to a
// nested SELECT (FROM-subqueries, EXISTS/scalar subqueries), which are
// processed independently when that nested SELECT is visited.
func ownExprRoots(arena *sqlast.Arena, selectID sqlast.NodeID) []sqlast.NodeID {
	n := arena.Get(selectID)

	roots := make([]sqlast.NodeID, 0, len(n.Children)+4)
	roots = append(roots, n.Children...)

	if where, ok := n.Child("where"); ok {
		roots = append(roots, where)
	}

	if having, ok := n.Child("having"); ok {
		roots = append(roots, having)
	}

	if from, ok := n.Child("from"); ok {
		roots = append(roots, collectJoinOns(arena, from)...)
	}

	return roots
}

func collectJoinOns(arena *sqlast.Arena, id sqlast.NodeID) []sqlast.NodeID {
	n := arena.Get(id)
	if n.Kind != sqlast.KindJoin {
		return nil
	}

	var out []sqlast.NodeID

	if on, ok := n.Child("on"); ok {
		out = append(out, on)
	}

	if left, ok := n.Child("left"); ok {
		out = append(out, collectJoinOns(arena, left)...)
	}

	if right, ok := n.Child("right"); ok {
		out = append(out, collectJoinOns(arena, right)...)
	}

	return out
}

// walkOwn pre-order walks root, calling visit for every node, but never
// descends past a SELECT, Subquery, or Exists boundary (those belong to a
// different SELECT's own pass).
func walkOwn(arena *sqlast.Arena, root sqlast.NodeID, visit func(sqlast.NodeID, sqlast.Node)) {
	arena.Walk(root, func(id sqlast.NodeID, n sqlast.Node) bool {
		visit(id, n)

		switch n.Kind {
		case sqlast.KindSelect, sqlast.KindSubquery, sqlast.KindExists:
			return false
		default:
			return true
		}
	})
}
