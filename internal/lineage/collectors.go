package lineage

import (
	"strings"

	"github.com/accented-ai/tdlineage/internal/sqlast"
)

// tempTokens are scanned, case-insensitively, across a CREATE statement's
// rendered properties and full text when the grammar itself exposed no
// temporary/volatile attribute.
var tempTokens = []string{"volatile", "global temporary", "temporary"}

func qualifiedNameOf(n sqlast.Node) QualifiedName {
	return QualifiedName{Catalog: n.Catalog, Schema: n.Schema, Base: n.Text}
}

// collectCTENames returns the alias of every CTE defined anywhere in tree,
// at any nesting depth.
func collectCTENames(tree *sqlast.Tree) []string {
	var names []string

	for _, id := range tree.Arena.FindAll(tree.Root, sqlast.KindCTE) {
		alias := tree.Arena.Get(id).Alias
		if alias != "" {
			names = append(names, alias)
		}
	}

	return names
}

// collectCreatedAndTemp walks CREATE-table nodes, recording each into
// either report.CreatedObjects or report.TempTables.
func collectCreatedAndTemp(tree *sqlast.Tree, report *Report) {
	for _, id := range tree.Arena.FindAll(tree.Root, sqlast.KindCreateTable) {
		n := tree.Arena.Get(id)
		if n.Text == "" {
			continue // malformed node exposing no name: skip silently
		}

		qn := qualifiedNameOf(n).String()

		if isTemp(n) {
			report.TempTables = append(report.TempTables, qn)
		} else {
			report.CreatedObjects = append(report.CreatedObjects, qn)
		}
	}
}

func isTemp(n sqlast.Node) bool {
	if n.Temp {
		return true
	}

	lower := strings.ToLower(n.Raw)
	for _, tok := range tempTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}

	return false
}

// collectWriteTargets records the target table of every INSERT/UPDATE/
// DELETE/MERGE node. For INSERT the target is the node explicitly recorded
// as Named["target"] — tables inside Named["source"] are never visited by
// this pass, satisfying the "not a descendant of the source expression"
// exclusion rule.
func collectWriteTargets(tree *sqlast.Tree, report *Report) {
	kinds := []sqlast.Kind{sqlast.KindInsert, sqlast.KindUpdate, sqlast.KindDelete, sqlast.KindMerge}

	for _, kind := range kinds {
		for _, id := range tree.Arena.FindAll(tree.Root, kind) {
			n := tree.Arena.Get(id)

			targetID, ok := n.Child("target")
			if !ok {
				continue
			}

			target := tree.Arena.Get(targetID)
			if target.Text == "" {
				continue
			}

			report.WriteTargets = append(report.WriteTargets, qualifiedNameOf(target).String())
		}
	}
}

// exclusionSet returns the names that must never appear in the final
// _tables / _variables / _values sets: CTE names, non-temp created objects,
// and write targets.
func exclusionSet(cte, created, writeTargets []string) map[string]bool {
	out := make(map[string]bool, len(cte)+len(created)+len(writeTargets))

	for _, n := range cte {
		out[n] = true
	}

	for _, n := range created {
		out[n] = true
	}

	for _, n := range writeTargets {
		out[n] = true
	}

	return out
}
