// Package engine evaluates filter requests against a board's tasks.
//
// An evaluation resolves each triple's column reference on the board,
// dispatches it to the filter for the column's semantic type and folds the
// accepted predicates into one conjunctive query. Triples a filter rejects
// are reported in Plan.Dropped and never narrow the result. The query is
// compiled for the store's dialect and executed, returning matching task
// ids in ascending order.
//
// Errors that make the request itself meaningless (an unresolvable column
// reference, too many triples, a compile or query failure) abort the
// evaluation with a *RuntimeError.
package engine
