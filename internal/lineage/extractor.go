package lineage

import "github.com/accented-ai/tdlineage/internal/sqlast"

// Extract runs the full lineage pipeline over trees (one per parsed
// statement) and returns the aggregated Report: structural collection,
// operation labeling, scope resolution, column attribution, predicate
// classification, and pseudocode rendering, in that dependency order.
func Extract(trees []*sqlast.Tree, dialect string) (*Report, error) {
	for _, tree := range trees {
		if tree == nil || tree.Arena == nil {
			return nil, newRuntimeError("Extract", ErrNilTree)
		}
	}

	return assemble(trees, dialect), nil
}
