package querysql

import (
	"fmt"
	"math"
	"strings"

	"github.com/lib/pq"

	"github.com/roach88/taskboard/internal/ir"
	"github.com/roach88/taskboard/internal/queryir"
)

// SQLCompiler compiles QueryIR to parameterized SQL.
//
// All values are bound parameters; only validated identifiers and JSON paths
// are rendered into the SQL text. Every query orders by the base table's id
// so result sets are deterministic.
type SQLCompiler struct {
	Dialect Dialect
}

// NewSQLCompiler creates a compiler for the given dialect (SQLite when nil).
func NewSQLCompiler(d Dialect) *SQLCompiler {
	if d == nil {
		d = SQLite{}
	}
	return &SQLCompiler{Dialect: d}
}

// Compile converts a Select to parameterized SQL.
// Returns (sql, params, error).
func (c *SQLCompiler) Compile(q queryir.Select) (string, []any, error) {
	if result := queryir.Validate(q); !result.Valid {
		return "", nil, fmt.Errorf("invalid query: %s", strings.Join(result.Problems, "; "))
	}

	st := &state{dialect: c.Dialect, from: q.From}
	from := st.dialect.Ident(q.From)

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s.* FROM %s", from, from)

	for _, j := range q.Joins {
		param, err := st.bind(j.ScopeValue)
		if err != nil {
			return "", nil, fmt.Errorf("join %s: %w", j.Alias, err)
		}
		alias := st.dialect.Ident(j.Alias)
		fmt.Fprintf(&sb, " LEFT JOIN %s AS %s ON %s.%s = %s.id AND %s.%s = %s",
			st.dialect.Ident(j.Table), alias,
			alias, st.dialect.Ident(j.ForeignKey), from,
			alias, st.dialect.Ident(j.ScopeColumn), param)
	}

	if len(q.Where) > 0 {
		parts := make([]string, 0, len(q.Where))
		for i, p := range q.Where {
			sql, err := st.predicate(p)
			if err != nil {
				return "", nil, fmt.Errorf("compile where[%d]: %w", i, err)
			}
			parts = append(parts, sql)
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(parts, " AND "))
	}

	fmt.Fprintf(&sb, " ORDER BY %s.id ASC", from)

	return sb.String(), st.params, nil
}

// state carries the parameter list while a single query is compiled.
type state struct {
	dialect Dialect
	from    string
	params  []any
}

// bind appends a parameter and returns its placeholder.
func (st *state) bind(v ir.Value) (string, error) {
	param, err := toParam(v)
	if err != nil {
		return "", err
	}
	return st.bindRaw(param), nil
}

func (st *state) bindRaw(param any) string {
	st.params = append(st.params, param)
	return st.dialect.Placeholder(len(st.params))
}

func (st *state) operand(o queryir.Operand) (string, error) {
	switch op := o.(type) {
	case queryir.Field:
		if op.Table == "" {
			return st.dialect.Ident(op.Name), nil
		}
		return st.dialect.Ident(op.Table) + "." + st.dialect.Ident(op.Name), nil
	case queryir.JSONPath:
		return st.dialect.JSONScalar(st.jsonColumn(op), op.Path), nil
	case queryir.Cast:
		inner, err := st.operand(op.Expr)
		if err != nil {
			return "", err
		}
		return st.dialect.Cast(inner, op.To), nil
	default:
		return "", fmt.Errorf("unsupported operand type: %T", o)
	}
}

func (st *state) jsonColumn(p queryir.JSONPath) string {
	return st.dialect.Ident(p.Table) + "." + st.dialect.Ident(p.Column)
}

// jsonTarget unwraps casts to find the JSON path a JSON-specific predicate
// operates on.
func jsonTarget(o queryir.Operand) (queryir.JSONPath, bool) {
	switch op := o.(type) {
	case queryir.JSONPath:
		return op, true
	case queryir.Cast:
		return jsonTarget(op.Expr)
	default:
		return queryir.JSONPath{}, false
	}
}

func (st *state) predicate(p queryir.Predicate) (string, error) {
	switch pred := p.(type) {
	case queryir.Compare:
		return st.compare(pred)
	case queryir.Like:
		left, err := st.operand(pred.Left)
		if err != nil {
			return "", err
		}
		return st.dialect.Like(left, st.bindRaw(pred.Pattern), pred.Negate), nil
	case queryir.In:
		return st.in(pred)
	case queryir.IsNull:
		left, err := st.operand(pred.Left)
		if err != nil {
			return "", err
		}
		if pred.Negate {
			return left + " IS NOT NULL", nil
		}
		return left + " IS NULL", nil
	case queryir.IsEmpty:
		return st.isEmpty(pred)
	case queryir.And:
		return st.junction(pred.Predicates, " AND ", "1 = 1")
	case queryir.Or:
		return st.junction(pred.Predicates, " OR ", "1 = 0")
	case queryir.Not:
		inner, err := st.predicate(pred.Predicate)
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	case queryir.Exists:
		return st.exists(pred)
	case queryir.RelationCount:
		rel := st.dialect.Ident(pred.Relation.Table)
		count := fmt.Sprintf("(SELECT COUNT(*) FROM %s WHERE %s.%s = %s.id)",
			rel, rel, st.dialect.Ident(pred.Relation.ForeignKey), st.dialect.Ident(st.from))
		return fmt.Sprintf("%s %s %s", count, pred.Op, st.bindRaw(int64(pred.N))), nil
	case queryir.ArrayAny:
		return st.arrayAny(pred)
	case queryir.ArrayLength:
		target, ok := jsonTarget(pred.Left)
		if !ok {
			return "", fmt.Errorf("array length requires a JSON operand, got %T", pred.Left)
		}
		length := st.dialect.JSONArrayLength(st.jsonColumn(target), target.Path)
		return fmt.Sprintf("%s %s %s", length, pred.Op, st.bindRaw(int64(pred.N))), nil
	default:
		return "", fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (st *state) compare(pred queryir.Compare) (string, error) {
	left, err := st.operand(pred.Left)
	if err != nil {
		return "", err
	}
	if ir.IsNull(pred.Value) {
		return "", fmt.Errorf("compare against null: use IsNull")
	}
	param, err := st.bind(pred.Value)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s %s", left, pred.Op, param), nil
}

func (st *state) in(pred queryir.In) (string, error) {
	left, err := st.operand(pred.Left)
	if err != nil {
		return "", err
	}

	// Postgres binds homogeneous lists as a single array parameter, but only
	// for typed operands: a JSON text extraction must compare as text.
	if _, isPG := st.dialect.(Postgres); isPG {
		if _, isJSON := pred.Left.(queryir.JSONPath); !isJSON {
			if arr, ok := pgArray(pred.Values); ok {
				expr := fmt.Sprintf("%s = ANY(%s)", left, st.bindRaw(arr))
				if pred.Negate {
					return "NOT (" + expr + ")", nil
				}
				return expr, nil
			}
		}
	}

	placeholders, err := st.bindAll(pred.Values)
	if err != nil {
		return "", err
	}
	keyword := "IN"
	if pred.Negate {
		keyword = "NOT IN"
	}
	return fmt.Sprintf("%s %s (%s)", left, keyword, strings.Join(placeholders, ", ")), nil
}

func (st *state) bindAll(values []ir.Value) ([]string, error) {
	placeholders := make([]string, len(values))
	for i, v := range values {
		ph, err := st.bind(v)
		if err != nil {
			return nil, fmt.Errorf("value[%d]: %w", i, err)
		}
		placeholders[i] = ph
	}
	return placeholders, nil
}

func (st *state) isEmpty(pred queryir.IsEmpty) (string, error) {
	var sql string
	if target, ok := jsonTarget(pred.Left); ok {
		sql = st.dialect.JSONEmpty(st.jsonColumn(target), target.Path, pred.Mode == queryir.EmptyNumber)
	} else {
		left, err := st.operand(pred.Left)
		if err != nil {
			return "", err
		}
		switch pred.Mode {
		case queryir.EmptyText:
			sql = fmt.Sprintf("(%s IS NULL OR %s = %s)", left, left, st.bindRaw(""))
		case queryir.EmptyNumber:
			sql = fmt.Sprintf("(%s IS NULL OR %s = %s)", left, left, st.bindRaw(int64(0)))
		default:
			sql = left + " IS NULL"
		}
	}
	if pred.Negate {
		return "NOT " + sql, nil
	}
	return sql, nil
}

func (st *state) junction(preds []queryir.Predicate, sep, empty string) (string, error) {
	if len(preds) == 0 {
		return empty, nil
	}
	parts := make([]string, len(preds))
	for i, p := range preds {
		sql, err := st.predicate(p)
		if err != nil {
			return "", err
		}
		parts[i] = sql
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

func (st *state) exists(pred queryir.Exists) (string, error) {
	rel := st.dialect.Ident(pred.Relation.Table)
	conds := []string{fmt.Sprintf("%s.%s = %s.id", rel, st.dialect.Ident(pred.Relation.ForeignKey), st.dialect.Ident(st.from))}
	for _, p := range pred.Where {
		sql, err := st.predicate(p)
		if err != nil {
			return "", err
		}
		conds = append(conds, sql)
	}

	sql := fmt.Sprintf("EXISTS (SELECT 1 FROM %s WHERE %s)", rel, strings.Join(conds, " AND "))
	if pred.Negate {
		return "NOT " + sql, nil
	}
	return sql, nil
}

func (st *state) arrayAny(pred queryir.ArrayAny) (string, error) {
	target, ok := jsonTarget(pred.Left)
	if !ok {
		return "", fmt.Errorf("array membership requires a JSON operand, got %T", pred.Left)
	}

	placeholders := make([]string, len(pred.Values))
	for i, v := range pred.Values {
		param, err := toParam(v)
		if err != nil {
			return "", fmt.Errorf("value[%d]: %w", i, err)
		}
		// jsonb_array_elements_text yields text; compare like with like.
		if _, isPG := st.dialect.(Postgres); isPG {
			param = textParam(v)
		}
		placeholders[i] = st.bindRaw(param)
	}

	sql := st.dialect.JSONArrayAny(st.jsonColumn(target), target.Path, placeholders)
	if pred.Negate {
		return "NOT " + sql, nil
	}
	return sql, nil
}

// toParam converts an ir.Value to a driver parameter. Whole numbers bind as
// int64 so integer columns compare exactly.
func toParam(v ir.Value) (any, error) {
	switch val := v.(type) {
	case ir.Null, nil:
		return nil, nil
	case ir.Bool:
		return bool(val), nil
	case ir.Number:
		f := float64(val)
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f), nil
		}
		return f, nil
	case ir.String:
		return string(val), nil
	case ir.Array:
		return nil, fmt.Errorf("array cannot be used as SQL parameter directly")
	default:
		return nil, fmt.Errorf("unsupported value type for SQL parameter: %T", v)
	}
}

// textParam renders a scalar the way jsonb_array_elements_text would.
func textParam(v ir.Value) string {
	if s, ok := v.(ir.String); ok {
		return string(s)
	}
	data, err := ir.MarshalValue(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// pgArray returns a pq array parameter when every value shares one scalar
// type.
func pgArray(values []ir.Value) (any, bool) {
	var (
		strs []string
		nums []float64
	)
	for _, v := range values {
		switch val := v.(type) {
		case ir.String:
			strs = append(strs, string(val))
		case ir.Number:
			nums = append(nums, float64(val))
		default:
			return nil, false
		}
	}
	switch {
	case len(strs) == len(values):
		return pq.Array(strs), true
	case len(nums) == len(values):
		return pq.Array(nums), true
	default:
		return nil, false
	}
}
