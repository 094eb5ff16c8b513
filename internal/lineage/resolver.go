package lineage

import (
	"strings"

	"github.com/accented-ai/tdlineage/internal/sqlast"
)

// Scope is the set of alias/projection maps built for one SELECT. It is
// owned by the visit that created it and is read-only once built.
type Scope struct {
	selectID sqlast.NodeID

	// AliasMap: normalized (lower-cased) alias or base name -> QualifiedName,
	// for physical tables directly in this SELECT's FROM/JOIN subtree.
	AliasMap map[string]QualifiedName

	// SubqueryColumnMap: normalized subquery alias -> output column name ->
	// the base table and physical column name it actually projects, so a
	// renamed projection ("real_col AS alias_col") still attributes outer
	// references to real_col, not to the outer-facing alias.
	SubqueryColumnMap map[string]map[string]ResolvedColumn

	// SingleBaseMap: normalized subquery alias -> QualifiedName, present
	// only when that derived table draws from exactly one base table.
	SingleBaseMap map[string]QualifiedName
}

// ResolvedColumn pairs a base table with the physical column name a
// reference ultimately attributes to.
type ResolvedColumn struct {
	Table  QualifiedName
	Column string
}

func newScope(id sqlast.NodeID) *Scope {
	return &Scope{
		selectID:          id,
		AliasMap:          map[string]QualifiedName{},
		SubqueryColumnMap: map[string]map[string]ResolvedColumn{},
		SingleBaseMap:     map[string]QualifiedName{},
	}
}

// baseTables returns the distinct QualifiedNames in s.AliasMap's value set.
func (s *Scope) baseTables() []QualifiedName {
	seen := map[string]bool{}

	var out []QualifiedName

	for _, qn := range s.AliasMap {
		key := qn.String()
		if !seen[key] {
			seen[key] = true

			out = append(out, qn)
		}
	}

	return out
}

func norm(s string) string {
	return strings.ToLower(s)
}

// resolver caches Scope values per SELECT node so a derived table's own
// scope is built once regardless of how many outer references need it.
type resolver struct {
	arena   *sqlast.Arena
	scopes  map[sqlast.NodeID]*Scope
	visited map[sqlast.NodeID]bool
}

func newResolverFor(arena *sqlast.Arena) *resolver {
	return &resolver{
		arena:   arena,
		scopes:  map[sqlast.NodeID]*Scope{},
		visited: map[sqlast.NodeID]bool{},
	}
}

// scopeFor builds (or returns the cached) Scope for the SELECT at id: its
// own FROM/JOIN alias map, plus each aliased derived table's projection map.
func (r *resolver) scopeFor(id sqlast.NodeID) *Scope {
	if sc, ok := r.scopes[id]; ok {
		return sc
	}

	sc := newScope(id)
	r.scopes[id] = sc // insert before recursing: guards against malformed cycles

	n := r.arena.Get(id)

	fromID, ok := n.Child("from")
	if !ok {
		return sc
	}

	r.walkFromSubtree(fromID, sc)

	return sc
}

// walkFromSubtree descends the FROM/JOIN chain, populating sc with physical
// table aliases and, for every aliased subquery, its output-column and
// single-base maps.
func (r *resolver) walkFromSubtree(id sqlast.NodeID, sc *Scope) {
	if !r.arena.Valid(id) {
		return
	}

	n := r.arena.Get(id)

	switch n.Kind {
	case sqlast.KindJoin:
		if left, ok := n.Child("left"); ok {
			r.walkFromSubtree(left, sc)
		}

		if right, ok := n.Child("right"); ok {
			r.walkFromSubtree(right, sc)
		}
	case sqlast.KindTable:
		qn := qualifiedNameOf(n)

		if n.Text != "" {
			sc.AliasMap[norm(n.Text)] = qn // base-name fallback key
		}

		if n.Alias != "" {
			sc.AliasMap[norm(n.Alias)] = qn // alias wins on collision (inserted after)
		}
	case sqlast.KindSubquery:
		if n.Alias == "" {
			return // unaddressable derived table without an alias: nothing can reference it
		}

		inner, ok := n.Child("query")
		if !ok {
			return
		}

		innerScope := r.scopeFor(inner)
		bases := innerScope.baseTables()

		key := norm(n.Alias)

		if len(bases) == 1 {
			sc.SingleBaseMap[key] = bases[0]
		}

		sc.SubqueryColumnMap[key] = r.innerProjectionMap(inner, innerScope)
	}
}

// innerProjectionMap computes, for a derived table's inner SELECT, the
// output-name -> (base-table, physical-column) map. The physical column is
// resolved the same way a reference inside the inner SELECT itself would be,
// so renaming an output column
// ("real_col AS alias_col") never loses the underlying column identity.
func (r *resolver) innerProjectionMap(innerSelect sqlast.NodeID, innerScope *Scope) map[string]ResolvedColumn {
	out := map[string]ResolvedColumn{}

	n := r.arena.Get(innerSelect)
	for _, itemID := range n.Children {
		item := r.arena.Get(itemID)
		if item.Kind != sqlast.KindColumn {
			continue // non-column projection: attribution left to the single-base fallback
		}

		outputName := item.Alias
		if outputName == "" {
			outputName = item.Text
		}

		if outputName == "" {
			continue
		}

		if rc, ok := r.resolveWithinScope(innerScope, item.Qualifier, item.Text); ok {
			out[outputName] = rc
		}
	}

	return out
}

// resolveWithinScope resolves a (qualifier, column) reference against sc
// alone (no ancestor merge), the local-scope half of resolveColumn's logic.
// innerProjectionMap uses it to resolve a derived table's own projection
// items, which propagates column identity through nested subqueries.
func (r *resolver) resolveWithinScope(sc *Scope, qualifier, column string) (ResolvedColumn, bool) {
	if qualifier != "" {
		return r.lookupQualifier(sc, qualifier, column)
	}

	bases := sc.baseTables()
	if len(bases) == 1 {
		return ResolvedColumn{Table: bases[0], Column: column}, true
	}

	return ResolvedColumn{}, false
}

// resolveResult is the outcome of resolving a single qualifier+column
// reference against a SELECT's own scope plus its ancestors.
type resolveResult struct {
	table     QualifiedName
	column    string
	resolved  bool
	ambiguous bool
}

// resolveColumn resolves a (qualifier, column) reference made inside the
// SELECT at selectID. A qualified reference is looked up in its own scope,
// then in each enclosing SELECT's scope in turn. An unqualified reference
// (empty qualifier) resolves only against the local scope: to its unique
// base table, or ambiguous when there are several.
func (r *resolver) resolveColumn(selectID sqlast.NodeID, qualifier, column string) resolveResult {
	sc := r.scopeFor(selectID)

	if qualifier != "" {
		if rc, ok := r.lookupQualifier(sc, qualifier, column); ok {
			return resolveResult{table: rc.Table, column: rc.Column, resolved: true}
		}

		// Merge ancestor alias maps (ancestor entries do not overwrite local).
		for _, anc := range r.arena.Ancestors(selectID) {
			if r.arena.Get(anc).Kind != sqlast.KindSelect {
				continue
			}

			ancScope := r.scopeFor(anc)
			if rc, ok := r.lookupQualifier(ancScope, qualifier, column); ok {
				return resolveResult{table: rc.Table, column: rc.Column, resolved: true}
			}
		}

		return resolveResult{}
	}

	// Unqualified: resolve to the unique base table in local scope.
	bases := sc.baseTables()
	switch len(bases) {
	case 1:
		return resolveResult{table: bases[0], column: column, resolved: true}
	case 0:
		return resolveResult{}
	default:
		return resolveResult{ambiguous: true}
	}
}

func (r *resolver) lookupQualifier(sc *Scope, qualifier, column string) (ResolvedColumn, bool) {
	q := norm(qualifier)

	if qn, ok := sc.AliasMap[q]; ok {
		return ResolvedColumn{Table: qn, Column: column}, true
	}

	if byCol, ok := sc.SubqueryColumnMap[q]; ok {
		if rc, ok := byCol[column]; ok {
			return rc, true
		}
		// fall through to single-base below even if the specific column
		// wasn't in the projection map
	}

	if qn, ok := sc.SingleBaseMap[q]; ok {
		return ResolvedColumn{Table: qn, Column: column}, true
	}

	return ResolvedColumn{}, false
}
