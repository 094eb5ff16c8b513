// Package lineage implements the semantic extractor: alias resolution
// across nested query scopes, attribution of column references to their
// originating base table, predicate classification into typed condition
// records, and deterministic pseudocode rendering. It consumes sqlast.Tree
// values; it never reads SQL text directly.
package lineage

import (
	"encoding/json"
	"sort"
)

// QualifiedName identifies a physical table by its (possibly empty) catalog
// and schema plus its base name. Two QualifiedNames with the same String()
// are the same entity for every set/map in the Report.
type QualifiedName struct {
	Catalog string
	Schema  string
	Base    string
}

// String renders the dotted form used everywhere in the Report, omitting
// empty parts.
func (q QualifiedName) String() string {
	parts := make([]string, 0, 3)

	if q.Catalog != "" {
		parts = append(parts, q.Catalog)
	}

	if q.Schema != "" {
		parts = append(parts, q.Schema)
	}

	if q.Base != "" {
		parts = append(parts, q.Base)
	}

	if len(parts) == 0 {
		return ""
	}

	out := parts[0]
	for _, p := range parts[1:] {
		out += "." + p
	}

	return out
}

// FuncStackEntry is one level of a function stack: a canonical, upper-cased
// function name plus its non-column literal/rendered arguments.
type FuncStackEntry struct {
	Fn   string `json:"fn"`
	Args []any  `json:"args"`
}

// Condition is a single typed filter record attributed to (base table,
// column). Optional fields are omitted from JSON when empty so the shape
// matches exactly one predicate form: equality, IN, LIKE, comparison, or
// BETWEEN.
type Condition struct {
	Op    string `json:"op"`
	Value any    `json:"value,omitempty"`
	Values []any `json:"values,omitempty"`
	Low   any    `json:"low,omitempty"`
	High  any    `json:"high,omitempty"`

	Fn      string           `json:"fn,omitempty"`
	FnArgs  []any            `json:"fn_args,omitempty"`
	FnStack []FuncStackEntry `json:"fn_stack,omitempty"`

	ValueFn      string           `json:"value_fn,omitempty"`
	ValueFnArgs  []any            `json:"value_fn_args,omitempty"`
	ValueFnStack []FuncStackEntry `json:"value_fn_stack,omitempty"`

	ValueFns         []*string          `json:"value_fns,omitempty"`
	ValueFnArgsList  [][]any            `json:"value_fn_args_list,omitempty"`
	ValueFnStackList [][]FuncStackEntry `json:"value_fn_stack_list,omitempty"`
}

// canonicalKey returns a stable JSON encoding of the condition, used both to
// detect structural duplicates and to sort the condition list
// deterministically.
func (c Condition) canonicalKey() string {
	b, err := json.Marshal(c)
	if err != nil {
		return ""
	}

	return string(b)
}

// FunctionRef is one entry of the function/procedure inventory.
type FunctionRef struct {
	Name    string  `json:"name"`
	Type    string  `json:"type"` // "function" or "procedure"
	Builtin *string `json:"builtin"`
}

// Pseudocode holds the rendered JOIN/WHERE/HAVING strings for one labeled
// SELECT.
type Pseudocode struct {
	Join   string `json:"join"`
	Where  string `json:"where"`
	Having string `json:"having"`
}

// Meta carries run-level metadata.
type Meta struct {
	Statements int    `json:"statements"`
	Dialect    string `json:"dialect"`
}

// Report is the single aggregated output value of one extraction run.
type Report struct {
	Tables         []string                       `json:"_tables"`
	Variables      map[string][]string             `json:"_variables"`
	Values         map[string]map[string][]Condition `json:"_values"`
	TempTables     []string                       `json:"_temp_tables"`
	CTEs           []string                       `json:"_ctes"`
	Functions      []FunctionRef                  `json:"_functions"`
	CreatedObjects []string                       `json:"_created_objects"`
	WriteTargets   []string                       `json:"_write_targets"`
	Pseudocode     map[string][]Pseudocode        `json:"_pseudocode"`
	Warnings       []string                       `json:"_warnings"`
	Meta           Meta                           `json:"_meta"`
}

func newReport(dialect string, statements int) *Report {
	return &Report{
		Tables:         []string{},
		Variables:      map[string][]string{},
		Values:         map[string]map[string][]Condition{},
		TempTables:     []string{},
		CTEs:           []string{},
		Functions:      []FunctionRef{},
		CreatedObjects: []string{},
		WriteTargets:   []string{},
		Pseudocode:     map[string][]Pseudocode{},
		Warnings:       []string{},
		Meta:           Meta{Statements: statements, Dialect: dialect},
	}
}

// addCondition inserts cond into Values[table][column], deduplicating by
// structural (canonical-JSON) equality within that list.
func (r *Report) addCondition(table, column string, cond Condition) {
	byCol, ok := r.Values[table]
	if !ok {
		byCol = map[string][]Condition{}
		r.Values[table] = byCol
	}

	key := cond.canonicalKey()
	for _, existing := range byCol[column] {
		if existing.canonicalKey() == key {
			return
		}
	}

	byCol[column] = append(byCol[column], cond)
}

// addVariable records usage of column on table, deduplicated.
func (r *Report) addVariable(table, column string) {
	cols, ok := r.Variables[table]
	if !ok {
		r.Variables[table] = []string{column}
		return
	}

	for _, c := range cols {
		if c == column {
			return
		}
	}

	r.Variables[table] = append(cols, column)
}

func (r *Report) addFunction(name, typ string, builtin *string) {
	for _, f := range r.Functions {
		if f.Name == name && f.Type == typ {
			return
		}
	}

	r.Functions = append(r.Functions, FunctionRef{Name: name, Type: typ, Builtin: builtin})
}

func (r *Report) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// finalize sorts every set/list whose output must be deterministic,
// leaving insertion-order lists (_functions, _warnings) untouched.
func (r *Report) finalize() {
	sort.Strings(r.Tables)
	sort.Strings(r.TempTables)
	sort.Strings(r.CTEs)
	sort.Strings(r.CreatedObjects)
	sort.Strings(r.WriteTargets)

	for t, cols := range r.Variables {
		sort.Strings(cols)
		r.Variables[t] = cols
	}

	for _, byCol := range r.Values {
		for col, conds := range byCol {
			sort.Slice(conds, func(i, j int) bool {
				return conds[i].canonicalKey() < conds[j].canonicalKey()
			})
			byCol[col] = conds
		}
	}
}
