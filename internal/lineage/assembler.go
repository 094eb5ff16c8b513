package lineage

import (
	"strconv"
	"strings"

	"github.com/accented-ai/tdlineage/internal/sqlast"
)

// assembler drives one extraction run across every statement tree: it
// assigns operation labels, runs the per-SELECT passes, and derives the
// Report's final table sets from what those passes recorded.
type assembler struct {
	report *Report
	labels map[sqlast.NodeID]string
	arena  *sqlast.Arena
}

// assemble runs the full pipeline over trees and returns the finished
// Report: structural collection, scope resolution, attribution,
// classification, pseudocode rendering, and operation labeling.
func assemble(trees []*sqlast.Tree, dialect string) *Report {
	report := newReport(dialect, len(trees))

	for _, tree := range trees {
		report.CTEs = append(report.CTEs, collectCTENames(tree)...)
		collectCreatedAndTemp(tree, report)
		collectWriteTargets(tree, report)
	}

	exclude := exclusionSet(report.CTEs, report.CreatedObjects, report.WriteTargets)

	counter := 0
	baseTables := map[string]bool{}

	for _, tree := range trees {
		a := &assembler{report: report, labels: map[sqlast.NodeID]string{}, arena: tree.Arena}
		counter = a.assignLabels(tree, counter)

		c := newCtx(tree.Arena, a.labels, report)

		c.collectFunctions(tree)

		// Deterministic pre-order, not map iteration: attribution/classification
		// append to _warnings and _values in the order they are visited.
		for _, id := range tree.Arena.FindAll(tree.Root, sqlast.KindSelect) {
			c.attribute(id)
			c.classify(id)

			for _, qn := range c.res.scopeFor(id).baseTables() {
				baseTables[qn.String()] = true
			}
		}

		for _, id := range topLevelSelects(tree) {
			a.renderSubtree(id, c)
		}
	}

	applyExclusions(report, exclude, baseTables)
	report.finalize()

	return report
}

// assignLabels pre-computes every SELECT's label for tree before any
// rendering happens, so EXISTS(...) can look a nested SELECT's label up
// regardless of visit order. counter is the run-wide top-level label
// counter (shared across every statement in the run, not reset per
// statement); it returns the counter's new value.
func (a *assembler) assignLabels(tree *sqlast.Tree, counter int) int {
	for _, root := range topLevelSelects(tree) {
		counter++
		a.labelSubtree(root, strconv.Itoa(counter))
	}

	return counter
}

func (a *assembler) labelSubtree(id sqlast.NodeID, label string) {
	a.labels[id] = label

	for i, child := range a.arena.DirectSelectChildren(id) {
		a.labelSubtree(child, label+"."+strconv.Itoa(i+1))
	}
}

// renderSubtree renders the pseudocode for id and, recursively, every SELECT
// nested under it, using the already-assigned labels (assignLabels runs before any
// rendering so EXISTS(...) can look up a nested SELECT's label regardless
// of visit order).
func (a *assembler) renderSubtree(id sqlast.NodeID, c *ctx) {
	key := "Operation " + a.labels[id]

	a.report.Pseudocode[key] = append(a.report.Pseudocode[key], renderPseudocode(c, id))

	for _, child := range a.arena.DirectSelectChildren(id) {
		a.renderSubtree(child, c)
	}
}

// renderPseudocode renders the JOIN/WHERE/HAVING pseudocode for one labeled
// SELECT.
func renderPseudocode(c *ctx, selectID sqlast.NodeID) Pseudocode {
	n := c.arena.Get(selectID)

	var pc Pseudocode

	if from, ok := n.Child("from"); ok {
		pc.Join = renderJoinPredicates(c, selectID, from)
	}

	if where, ok := n.Child("where"); ok {
		pc.Where = c.renderExpr(selectID, where)
	}

	if having, ok := n.Child("having"); ok {
		pc.Having = c.renderExpr(selectID, having)
	}

	return pc
}

// renderJoinPredicates renders the ON predicates of every JOIN in the
// FROM/JOIN subtree rooted at id as one pseudocode string: "join" carries
// the predicate(s), not the table chain itself.
func renderJoinPredicates(c *ctx, selectID, id sqlast.NodeID) string {
	var parts []string

	for _, on := range collectJoinOns(c.arena, id) {
		parts = append(parts, renderJoinPredicate(c, selectID, on))
	}

	return strings.Join(parts, " AND ")
}

// renderJoinPredicate renders one JOIN's ON expression. An AND-connected
// predicate prefers its first explicit equality child; any other shape (a
// bare equality, or a predicate with no equality child at all) falls back
// to rendering the whole ON expression.
func renderJoinPredicate(c *ctx, selectID, onID sqlast.NodeID) string {
	n := c.arena.Get(onID)
	if n.Kind == sqlast.KindAnd {
		if eq := firstEquality(c.arena, onID); eq != sqlast.InvalidNodeID {
			return c.renderExpr(selectID, eq)
		}
	}

	return c.renderExpr(selectID, onID)
}

// firstEquality descends AND chains in pre-order looking for the first
// Comparison node whose operator is "=".
func firstEquality(arena *sqlast.Arena, id sqlast.NodeID) sqlast.NodeID {
	n := arena.Get(id)

	switch n.Kind {
	case sqlast.KindComparison:
		if n.Op == "=" {
			return id
		}

		return sqlast.InvalidNodeID
	case sqlast.KindAnd:
		for _, child := range n.Children {
			if r := firstEquality(arena, child); r != sqlast.InvalidNodeID {
				return r
			}
		}
	}

	return sqlast.InvalidNodeID
}

// topLevelSelects returns every SELECT in tree that is not nested inside
// another SELECT's expression tree: the statement's main body SELECT, each
// CTE's SELECT, and the source SELECT of an INSERT/CREATE-TABLE-AS, in
// declaration order.
func topLevelSelects(tree *sqlast.Tree) []sqlast.NodeID {
	var out []sqlast.NodeID

	for _, id := range tree.Arena.FindAll(tree.Root, sqlast.KindSelect) {
		if tree.Arena.EnclosingSelect(id) == sqlast.InvalidNodeID {
			out = append(out, id)
		}
	}

	return out
}

// applyExclusions filters the excluded names (CTEs, non-temp created
// objects, write targets) out of Variables and Values, then derives Tables
// from the union of every SELECT scope's base tables (baseTables) minus
// that same exclusion set. Tables is derived independently of Variables so
// a base table named in a FROM/JOIN but never referenced by any column or
// "*" (e.g. "SELECT 1 FROM t1") still appears in _tables.
func applyExclusions(report *Report, exclude, baseTables map[string]bool) {
	for name := range exclude {
		delete(report.Variables, name)
		delete(report.Values, name)
	}

	tables := make([]string, 0, len(baseTables))
	for name := range baseTables {
		if exclude[name] {
			continue
		}

		tables = append(tables, name)
	}

	report.Tables = tables
}
