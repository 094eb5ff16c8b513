package sqlast

// Node shape conventions by Kind. These are documentation, not enforced by
// the type system — internal/sqlparse builds trees following them and
// internal/lineage assumes them.
//
//	KindSelect     Children: projection expressions (each may carry Alias).
//	               Named["from"]: root of the FROM/JOIN chain (optional).
//	               Named["where"], Named["having"]: predicate roots (optional).
//	KindTable      Text/Schema/Catalog: the qualified name. Alias: AS alias.
//	KindSubquery   Alias: the derived-table alias (empty when none was
//	               written). Named["query"]: the inner KindSelect.
//	KindJoin       Named["left"], Named["right"]: join operands
//	               (KindTable|KindSubquery|KindJoin). Named["on"]: predicate
//	               (optional, e.g. CROSS JOIN has none).
//	KindWith       Children: KindCTE nodes. Named["body"]: the statement the
//	               WITH clause applies to.
//	KindCTE        Alias: the CTE name. Named["query"]: inner KindSelect.
//	KindColumn     Text: column name. Qualifier: table/alias prefix (may be
//	               empty). Alias: set when this is an AS-aliased projection
//	               item.
//	KindStar       Qualifier: table/alias prefix for "t.*" (empty for bare "*").
//	KindLiteral    LitKind/LitValue/Text as described on the Node struct.
//	KindFuncCall   Text: function identifier as written. FuncKind: declared
//	               kind if the grammar exposed one, else empty. Children:
//	               positional arguments. Named: semantically-named arguments
//	               for functions the parser recognizes structurally.
//	KindExtract    Unit: the unit keyword. Named["value"]: the expression.
//	KindCast       Text: target type name. Named["expr"]: the expression.
//	KindParen      Named["inner"]: the wrapped expression.
//	KindComparison Op: "=" | "!=" | ">" | ">=" | "<" | "<=", or "IS" /
//	               "IS NOT" for IS [NOT] NULL (right is a NULL literal).
//	               Named["left"], Named["right"].
//	KindIn         Named["left"]: tested expression.
//	KindNotIn      Named["list"]: a KindTuple node of value expressions.
//	               Negated on a KindIn node is equivalent to KindNotIn —
//	               both paths are normalized identically by the classifier.
//	KindLike       Named["left"]: tested expression.
//	KindNotLike    Named["pattern"]: the pattern expression.
//	KindBetween    Named["left"], Named["low"], Named["high"].
//	KindAnd/Or     Children: exactly two operands.
//	KindNot        Named["expr"]: the wrapped expression (may itself be
//	               KindIn or KindLike, per the NOT-wrapping duality).
//	KindExists     Named["query"]: the inner KindSelect.
//	KindTuple      Children: element expressions.
//	KindRaw        Raw: source SQL text, used as a last-resort fallback.
//	KindInsert     Named["target"]: KindTable. Named["source"]: optional
//	               KindSelect (absent for a VALUES-list insert).
//	KindUpdate     Named["target"]: KindTable. Named["from"]: optional
//	               FROM/JOIN chain (Teradata UPDATE ... FROM). Named["where"].
//	KindDelete     Named["target"]: KindTable. Named["where"] (optional).
//	KindMerge      Named["target"], Named["using"], Named["on"].
//	KindCreateTable Text/Schema/Catalog: the created name. Temp: see Node.Temp.
//	               Named["query"]: optional CREATE TABLE AS SELECT body.
//	               Raw: statement source text up to the end of its column
//	               list or AS query (trailing clauses such as WITH DATA are
//	               not included), for temp-token scanning.
