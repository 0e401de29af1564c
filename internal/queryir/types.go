package queryir

import (
	"slices"

	"github.com/roach88/taskboard/internal/ir"
)

// Select is the query object filters narrow.
//
// Semantics:
//
//	SELECT <from>.* FROM <from> [LEFT JOIN ...] WHERE <where[0]> AND <where[1]> ...
//
// Where is conjunctive and kept in the order predicates were added.
type Select struct {
	From  string      // Base table (e.g., "tasks")
	Joins []Join      // EAV joins, one per referenced custom column
	Where []Predicate // Conjunction, in application order
}

// NewSelect creates an unfiltered query over a table.
func NewSelect(from string) Select {
	return Select{From: from}
}

// With returns a copy of s with preds appended to Where.
func (s Select) With(preds ...Predicate) Select {
	out := s.clone()
	out.Where = append(out.Where, preds...)
	return out
}

// WithJoin returns a copy of s with j added. A join whose alias is already
// present is not added twice.
func (s Select) WithJoin(j Join) Select {
	out := s.clone()
	if !s.HasJoin(j.Alias) {
		out.Joins = append(out.Joins, j)
	}
	return out
}

// HasJoin reports whether a join with the given alias exists.
func (s Select) HasJoin(alias string) bool {
	return slices.ContainsFunc(s.Joins, func(j Join) bool { return j.Alias == alias })
}

// clone copies the slices so appends on the copy never write into memory the
// receiver can see.
func (s Select) clone() Select {
	return Select{
		From:  s.From,
		Joins: slices.Clone(s.Joins),
		Where: slices.Clone(s.Where),
	}
}

// Join is a LEFT JOIN of a child table scoped to one discriminator value.
//
//	LEFT JOIN <Table> AS <Alias>
//	  ON <Alias>.<ForeignKey> = <from>.id AND <Alias>.<ScopeColumn> = ?
//
// Used for EAV columns: a task without a row for the column reads as NULL.
type Join struct {
	Table       string
	Alias       string
	ForeignKey  string
	ScopeColumn string
	ScopeValue  ir.Value
}

// Relation names a child table keyed by the base table's id, used by
// Exists and RelationCount (e.g. task_labels.task_id → tasks.id).
type Relation struct {
	Table      string
	ForeignKey string
}

// Operand is the left-hand side of a predicate.
//
// This is a sealed interface - only types in this package implement it.
type Operand interface {
	operandNode() // Marker method - seals interface to this package
}

// Field addresses a plain relational column.
type Field struct {
	Table string // Empty means unqualified
	Name  string
}

func (Field) operandNode() {}

// JSONPath addresses a value inside a JSON-serialized column.
type JSONPath struct {
	Table  string
	Column string
	Path   string // JSON path, e.g. "$.value"
}

func (JSONPath) operandNode() {}

// CastType is the target of a Cast.
type CastType string

const (
	CastNumber   CastType = "number"
	CastDate     CastType = "date"
	CastDateTime CastType = "datetime"
)

// Cast coerces an operand before comparison.
type Cast struct {
	Expr Operand
	To   CastType
}

func (Cast) operandNode() {}

// Predicate represents a filter condition.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// CompareOp is a binary comparison operator.
type CompareOp string

const (
	OpEq CompareOp = "="
	OpNe CompareOp = "<>"
	OpLt CompareOp = "<"
	OpLe CompareOp = "<="
	OpGt CompareOp = ">"
	OpGe CompareOp = ">="
)

// Compare is <left> <op> <value>.
type Compare struct {
	Left  Operand
	Op    CompareOp
	Value ir.Value
}

func (Compare) predicateNode() {}

// Like is a pattern match. Pattern must already escape %, _ and \ with a
// backslash; backends render ESCAPE '\'.
type Like struct {
	Left    Operand
	Pattern string
	Negate  bool
}

func (Like) predicateNode() {}

// In is membership in a literal list. Values must be non-empty.
type In struct {
	Left   Operand
	Values []ir.Value
	Negate bool
}

func (In) predicateNode() {}

// IsNull is <left> IS [NOT] NULL.
type IsNull struct {
	Left   Operand
	Negate bool
}

func (IsNull) predicateNode() {}

// EmptyMode selects which values besides NULL count as empty.
type EmptyMode int

const (
	// EmptyNull: only NULL (dates, booleans, references).
	EmptyNull EmptyMode = iota
	// EmptyText: NULL or the empty string.
	EmptyText
	// EmptyNumber: NULL or 0.
	EmptyNumber
)

// IsEmpty matches "no value".
//
// On a Field it is NULL plus whatever Mode adds. On a JSONPath it is always the
// compound check (SQL NULL, JSON null, "", []) and additionally 0 under
// EmptyNumber.
type IsEmpty struct {
	Left   Operand
	Mode   EmptyMode
	Negate bool
}

func (IsEmpty) predicateNode() {}

// And is a conjunction (empty = always true).
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or is a disjunction (empty = always false).
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// Not negates a predicate.
type Not struct {
	Predicate Predicate
}

func (Not) predicateNode() {}

// Exists checks for a related row:
//
//	[NOT] EXISTS (SELECT 1 FROM <rel.Table> WHERE <rel.Table>.<rel.ForeignKey> = <from>.id AND <where...>)
type Exists struct {
	Relation Relation
	Where    []Predicate
	Negate   bool
}

func (Exists) predicateNode() {}

// RelationCount compares the number of related rows to N.
type RelationCount struct {
	Relation Relation
	Op       CompareOp
	N        int
}

func (RelationCount) predicateNode() {}

// ArrayAny matches when a JSON array operand shares at least one element
// with Values (Negate: shares none, including when the array is missing).
type ArrayAny struct {
	Left   Operand
	Values []ir.Value
	Negate bool
}

func (ArrayAny) predicateNode() {}

// ArrayLength compares the length of a JSON array operand to N.
// A missing or non-array value has length 0.
type ArrayLength struct {
	Left Operand
	Op   CompareOp
	N    int
}

func (ArrayLength) predicateNode() {}
