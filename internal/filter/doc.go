// Package filter turns declarative (column, operator, value) triples into
// query predicates over the hybrid task data model.
//
// Some task attributes live in fixed columns on the tasks table (status,
// priority, assignee_id); others are user-defined custom fields stored one
// row per (task, column) in field_values, with the value serialized as
// {"value": <json>}. Every type filter builds its predicates through two
// builders that share one operator mapping and differ only in how the left
// hand side is addressed:
//
//	native: tasks.status = ?
//	eav:    json_extract(cf_7.value, '$.value') = ?
//
// so an operator means the same thing regardless of storage mode.
//
// CONTRACT:
//
// Every filter implements Filter. Apply is a template method shared by all
// types (see core): it logs the attempt, validates, and either delegates to
// the type's predicate construction or returns the query untouched together
// with a *ValidationError. A rejected filter never partially mutates the
// query.
//
// DISPATCH:
//
// Table maps each ir.SemanticType to its filter through an exhaustive switch
// over ir.Kind. Callers never branch on type themselves.
//
// CONCURRENCY:
//
// Filters hold no mutable state after construction and are safe for
// concurrent use. Existence checks go through a caller supplied Directory;
// wrap it in a MemoDirectory to memoize lookups for one request.
package filter
