// Package queryir provides the abstract query representation that filters
// narrow and that backends compile to SQL.
//
// QueryIR is the abstraction boundary between the filter engine and the
// storage dialects. Filters never produce SQL text; they append predicates to
// a Select and the querysql package renders them.
//
//	[filter triple] → [type filter] → [Select + predicates] → [SQLite | Postgres]
//
// IMMUTABILITY:
//
// Select is a value. With and WithJoin return copies that never share backing
// arrays with the receiver, so a filter that rejects its input can hand back
// the original Select and the caller observes no change at all.
//
// SEALED INTERFACES:
//
// Operand and Predicate are sealed interfaces using the marker method
// pattern. Only types in this package implement them, which lets backends use
// exhaustive type switches:
//
//	switch p := pred.(type) {
//	case Compare:
//	    // left op ?
//	case IsEmpty:
//	    // dialect-specific emptiness check
//	default:
//	    // impossible - compiler knows all Predicate types
//	}
//
// ADDRESSING MODES:
//
// The same predicate shapes apply to two kinds of left-hand side:
//
//	Field{Table: "tasks", Name: "status"}                     → tasks.status
//	JSONPath{Table: "cf_7", Column: "value", Path: "$.value"} → json_extract(cf_7.value, '$.value')
//
// This symmetry is what lets one operator mean the same thing whether a
// column is stored natively or in the EAV table.
package queryir
