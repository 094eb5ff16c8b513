// Package sqlast defines the common node vocabulary that the lineage core
// consumes. It is intentionally dialect-agnostic: anything that can walk a
// SELECT, a JOIN, a WHERE clause, or a function call can build one of these
// trees, whether the source is a hand-rolled parser, a generated one, or a
// test fixture.
package sqlast

// Kind tags the shape of a Node. The vocabulary matches the node types named
// in the system overview: tables, columns, literals, function calls,
// selects, subqueries, joins, CTE-bearing WITH clauses, the DML/DDL
// statement forms, comparisons, IN, LIKE, BETWEEN, logical connectives, and
// stars.
type Kind int

const (
	KindInvalid Kind = iota

	// Statements
	KindSelect
	KindWith
	KindInsert
	KindUpdate
	KindDelete
	KindMerge
	KindCreateTable
	KindCall

	// FROM/JOIN subtree
	KindTable
	KindSubquery
	KindJoin
	KindCTE
	KindAlias

	// Projection / expressions
	KindColumn
	KindStar
	KindLiteral
	KindFuncCall
	KindExtract
	KindCast
	KindParen

	// Predicates
	KindComparison
	KindIn
	KindNotIn
	KindLike
	KindNotLike
	KindBetween
	KindAnd
	KindOr
	KindNot
	KindExists
	KindTuple

	// Catch-all for anything the parser could not classify further but
	// still needs to carry rendered SQL for fallback rendering.
	KindRaw
)

func (k Kind) String() string {
	switch k {
	case KindSelect:
		return "Select"
	case KindWith:
		return "With"
	case KindInsert:
		return "Insert"
	case KindUpdate:
		return "Update"
	case KindDelete:
		return "Delete"
	case KindMerge:
		return "Merge"
	case KindCreateTable:
		return "CreateTable"
	case KindCall:
		return "Call"
	case KindTable:
		return "Table"
	case KindSubquery:
		return "Subquery"
	case KindJoin:
		return "Join"
	case KindCTE:
		return "CTE"
	case KindAlias:
		return "Alias"
	case KindColumn:
		return "Column"
	case KindStar:
		return "Star"
	case KindLiteral:
		return "Literal"
	case KindFuncCall:
		return "FuncCall"
	case KindExtract:
		return "Extract"
	case KindCast:
		return "Cast"
	case KindParen:
		return "Paren"
	case KindComparison:
		return "Comparison"
	case KindIn:
		return "In"
	case KindNotIn:
		return "NotIn"
	case KindLike:
		return "Like"
	case KindNotLike:
		return "NotLike"
	case KindBetween:
		return "Between"
	case KindAnd:
		return "And"
	case KindOr:
		return "Or"
	case KindNot:
		return "Not"
	case KindExists:
		return "Exists"
	case KindTuple:
		return "Tuple"
	case KindRaw:
		return "Raw"
	default:
		return "Invalid"
	}
}

// LiteralKind distinguishes the parsed-value shapes named in the literal
// extraction rules.
type LiteralKind int

const (
	LiteralString LiteralKind = iota
	LiteralNumber
	LiteralDateTime // DATE/TIMESTAMP/TIME-prefixed string literals; rendered verbatim (CAST is a KindCast node)
	LiteralNull
)
