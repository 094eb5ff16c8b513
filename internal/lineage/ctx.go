package lineage

import "github.com/accented-ai/tdlineage/internal/sqlast"

// ctx threads the shared state every per-statement pass needs: the arena
// for the statement currently being processed, its resolver (which caches
// scopes as they are built), the operation-label assignment (for EXISTS
// rendering), and the Report being assembled (which function collection,
// attribution and classification write into).
type ctx struct {
	arena  *sqlast.Arena
	res    *resolver
	labels map[sqlast.NodeID]string
	report *Report
}

func newCtx(arena *sqlast.Arena, labels map[sqlast.NodeID]string, report *Report) *ctx {
	return &ctx{
		arena:  arena,
		res:    newResolverFor(arena),
		labels: labels,
		report: report,
	}
}
