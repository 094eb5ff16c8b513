package lineage

import (
	"regexp"
	"strings"

	"github.com/accented-ai/tdlineage/internal/sqlast"
)

// collectFunctions catalogs every function/EXTRACT/CAST/CALL anywhere in
// tree, deduped by (name, type), in first-seen order.
func (c *ctx) collectFunctions(tree *sqlast.Tree) {
	for _, id := range tree.Arena.FindAll(tree.Root, sqlast.KindFuncCall) {
		n := tree.Arena.Get(id)
		if n.Raw != "" && !looksLikeCall(n.Raw, n.Text) && n.FuncKind == "" {
			continue // malformed/placeholder node: no evidence of an actual call
		}

		name := canonicalFuncName(tree.Arena, id)
		c.report.addFunction(name, "function", nil)
	}

	for _, id := range tree.Arena.FindAll(tree.Root, sqlast.KindExtract) {
		_ = id

		c.report.addFunction("EXTRACT", "function", nil)
	}

	for _, id := range tree.Arena.FindAll(tree.Root, sqlast.KindCast) {
		_ = id

		c.report.addFunction("CAST", "function", nil)
	}

	for _, id := range tree.Arena.FindAll(tree.Root, sqlast.KindCall) {
		n := tree.Arena.Get(id)
		c.report.addFunction(qualifiedNameOf(n).String(), "procedure", nil)
	}
}

// looksLikeCall guards against cataloging a FuncCall node whose raw text
// doesn't actually contain "<name>(" (an optional-whitespace identifier
// immediately followed by an opening paren).
func looksLikeCall(raw, name string) bool {
	if name == "" {
		return true
	}

	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(name) + `\s*\(`)
	if err != nil {
		return true
	}

	return re.MatchString(strings.TrimSpace(raw))
}
