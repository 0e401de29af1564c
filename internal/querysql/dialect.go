package querysql

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/roach88/taskboard/internal/queryir"
)

// Dialect renders the backend-specific fragments of a query.
// Everything else (boolean structure, parameter collection) is shared.
type Dialect interface {
	// Name identifies the dialect ("sqlite", "postgres").
	Name() string

	// Placeholder returns the bind marker for the n-th parameter (1-based).
	Placeholder(n int) string

	// Ident renders an already validated identifier.
	Ident(name string) string

	// JSONScalar extracts the value at path as a comparable scalar.
	JSONScalar(column, path string) string

	// JSONEmpty renders the compound emptiness check for a JSON value.
	JSONEmpty(column, path string, zeroIsEmpty bool) string

	// JSONArrayAny renders a membership test of a JSON array against the
	// given placeholders.
	JSONArrayAny(column, path string, placeholders []string) string

	// JSONArrayLength renders the length of a JSON array (0 when absent).
	JSONArrayLength(column, path string) string

	// Cast coerces expr to the target type.
	Cast(expr string, to queryir.CastType) string

	// Like renders a (case-insensitive) pattern match.
	Like(expr, placeholder string, negate bool) string
}

// DialectByName returns a dialect for a config/CLI value.
func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "", "sqlite", "sqlite3":
		return SQLite{}, nil
	case "postgres", "postgresql", "pg":
		return Postgres{}, nil
	default:
		return nil, fmt.Errorf("unknown SQL dialect %q: must be sqlite or postgres", name)
	}
}

// SQLite renders for SQLite 3.38+ (built-in JSON functions).
type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }

func (SQLite) Placeholder(int) string { return "?" }

func (SQLite) Ident(name string) string { return name }

func (SQLite) JSONScalar(column, path string) string {
	return fmt.Sprintf("json_extract(%s, '%s')", column, path)
}

func (d SQLite) JSONEmpty(column, path string, zeroIsEmpty bool) string {
	typ := fmt.Sprintf("json_type(%s, '%s')", column, path)
	val := d.JSONScalar(column, path)

	parts := []string{
		typ + " IS NULL",
		typ + " = 'null'",
		val + " = ''",
		fmt.Sprintf("(%s = 'array' AND json_array_length(%s, '%s') = 0)", typ, column, path),
	}
	if zeroIsEmpty {
		parts = append(parts, fmt.Sprintf("(%s IN ('integer', 'real') AND %s = 0)", typ, val))
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

func (SQLite) JSONArrayAny(column, path string, placeholders []string) string {
	return fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(%s, '%s') WHERE json_each.value IN (%s))",
		column, path, strings.Join(placeholders, ", "))
}

func (SQLite) JSONArrayLength(column, path string) string {
	return fmt.Sprintf("COALESCE(json_array_length(%s, '%s'), 0)", column, path)
}

func (SQLite) Cast(expr string, to queryir.CastType) string {
	switch to {
	case queryir.CastNumber:
		return fmt.Sprintf("CAST(%s AS REAL)", expr)
	case queryir.CastDate:
		return fmt.Sprintf("date(%s)", expr)
	case queryir.CastDateTime:
		return fmt.Sprintf("datetime(%s)", expr)
	default:
		return expr
	}
}

// Like relies on SQLite's default ASCII case-insensitive LIKE.
func (SQLite) Like(expr, placeholder string, negate bool) string {
	if negate {
		return fmt.Sprintf("%s NOT LIKE %s ESCAPE '\\'", expr, placeholder)
	}
	return fmt.Sprintf("%s LIKE %s ESCAPE '\\'", expr, placeholder)
}

// Postgres renders for PostgreSQL with jsonb value columns.
type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

func (Postgres) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (Postgres) Ident(name string) string { return pq.QuoteIdentifier(name) }

// pgPath converts "$.a.b" into the text-array path literal '{a,b}'.
func pgPath(path string) string {
	if path == "$" {
		return "'{}'"
	}
	segments := strings.Split(strings.TrimPrefix(path, "$."), ".")
	return "'{" + strings.Join(segments, ",") + "}'"
}

func (Postgres) JSONScalar(column, path string) string {
	return fmt.Sprintf("(%s #>> %s)", column, pgPath(path))
}

func (d Postgres) jsonNode(column, path string) string {
	return fmt.Sprintf("(%s #> %s)", column, pgPath(path))
}

func (d Postgres) JSONEmpty(column, path string, zeroIsEmpty bool) string {
	node := d.jsonNode(column, path)
	typ := fmt.Sprintf("jsonb_typeof(%s)", node)

	parts := []string{
		node + " IS NULL",
		typ + " = 'null'",
		d.JSONScalar(column, path) + " = ''",
		fmt.Sprintf("(%s = 'array' AND jsonb_array_length(%s) = 0)", typ, node),
	}
	if zeroIsEmpty {
		parts = append(parts, fmt.Sprintf("(%s = 'number' AND %s::numeric = 0)", typ, d.JSONScalar(column, path)))
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

func (d Postgres) JSONArrayAny(column, path string, placeholders []string) string {
	node := d.jsonNode(column, path)
	return fmt.Sprintf("EXISTS (SELECT 1 FROM jsonb_array_elements_text(CASE WHEN jsonb_typeof(%s) = 'array' THEN %s ELSE '[]'::jsonb END) AS elem(v) WHERE elem.v IN (%s))",
		node, node, strings.Join(placeholders, ", "))
}

func (d Postgres) JSONArrayLength(column, path string) string {
	node := d.jsonNode(column, path)
	return fmt.Sprintf("(CASE WHEN jsonb_typeof(%s) = 'array' THEN jsonb_array_length(%s) ELSE 0 END)", node, node)
}

func (Postgres) Cast(expr string, to queryir.CastType) string {
	switch to {
	case queryir.CastNumber:
		return fmt.Sprintf("(%s)::numeric", expr)
	case queryir.CastDate:
		return fmt.Sprintf("(%s)::date", expr)
	case queryir.CastDateTime:
		return fmt.Sprintf("(%s)::timestamp", expr)
	default:
		return expr
	}
}

// Like uses ILIKE so matching is case-insensitive like SQLite and MySQL's
// default collations.
func (Postgres) Like(expr, placeholder string, negate bool) string {
	if negate {
		return fmt.Sprintf("%s NOT ILIKE %s ESCAPE '\\'", expr, placeholder)
	}
	return fmt.Sprintf("%s ILIKE %s ESCAPE '\\'", expr, placeholder)
}
