package orm

import (
	"fmt"
	"slices"
	"strings"

	"github.com/syssam/saint/dialect/sql"
	"github.com/syssam/saint/graph"
)

// Selector is the select statement a Query applies to. Field names
// given to C are translated into the storage columns of the type.
type Selector struct {
	*sql.Selector
	typ *graph.Type
}

// C returns the qualified storage column of the given field name.
// Unknown names are used as columns as is.
func (s *Selector) C(name string) string {
	if f, ok := s.typ.Field(name); ok {
		name = f.Column
	}
	return s.Selector.C(name)
}

// Type returns the model type of the selector.
func (s *Selector) Type() *graph.Type {
	return s.typ
}

// Query is a condition or modifier applied to a select statement.
type Query func(*Selector)

// Eql matches rows whose column equals v. A nil value matches NULL and
// a slice matches any of its elements.
func Eql(column string, v any) Query {
	return func(s *Selector) {
		if vs, ok := anySlice(v); ok {
			s.Where(sql.In(s.C(column), vs...))
			return
		}
		s.Where(sql.EQ(s.C(column), v))
	}
}

// Like matches rows whose column is LIKE the pattern. The pattern is
// passed as is, wildcards included.
func Like(column string, pattern string) Query {
	return func(s *Selector) {
		s.Where(sql.Like(s.C(column), pattern))
	}
}

// Contains matches rows whose column contains substr. LIKE wildcards
// in substr match literally.
func Contains(column string, substr string) Query {
	return func(s *Selector) {
		s.Where(sql.Contains(s.C(column), substr))
	}
}

// Gt matches rows whose column is greater than v.
func Gt(column string, v any) Query {
	return func(s *Selector) {
		s.Where(sql.GT(s.C(column), v))
	}
}

// Gte matches rows whose column is greater than or equal to v.
func Gte(column string, v any) Query {
	return func(s *Selector) {
		s.Where(sql.GTE(s.C(column), v))
	}
}

// Lt matches rows whose column is less than v.
func Lt(column string, v any) Query {
	return func(s *Selector) {
		s.Where(sql.LT(s.C(column), v))
	}
}

// Lte matches rows whose column is less than or equal to v.
func Lte(column string, v any) Query {
	return func(s *Selector) {
		s.Where(sql.LTE(s.C(column), v))
	}
}

// Not matches rows whose column differs from v. A nil value matches
// NOT NULL and a slice matches none of its elements.
func Not(column string, v any) Query {
	return func(s *Selector) {
		if vs, ok := anySlice(v); ok {
			s.Where(sql.NotIn(s.C(column), vs...))
			return
		}
		s.Where(sql.NEQ(s.C(column), v))
	}
}

// SQL matches rows using a raw operator, e.g. SQL("name", "NOT LIKE", "a%").
func SQL(column, operator string, v any) Query {
	return func(s *Selector) {
		s.Where(sql.P(func(b *sql.Builder) {
			b.Ident(s.C(column)).Pad().WriteString(operator).Pad().Arg(v)
		}))
	}
}

// Limit limits the result. A negative offset is ignored.
func Limit(limit int, offset ...int) Query {
	return func(s *Selector) {
		s.Limit(limit)
		if len(offset) > 0 && offset[0] > 0 {
			s.Offset(offset[0])
		}
	}
}

// Order sorts the result by column. The direction is "asc" or "desc",
// case-insensitive; anything else fails the query.
func Order(column, dir string) Query {
	return func(s *Selector) {
		d, err := Direction(dir)
		if err != nil {
			s.AddError(err)
			return
		}
		s.OrderBy(s.C(column), d)
	}
}

// Direction validates an order direction and returns it upper cased.
// The empty direction is ascending.
func Direction(dir string) (string, error) {
	switch d := strings.ToUpper(strings.TrimSpace(dir)); d {
	case "", sql.OrderAsc:
		return sql.OrderAsc, nil
	case sql.OrderDesc:
		return sql.OrderDesc, nil
	default:
		return "", fmt.Errorf("orm: unknown order direction %q", dir)
	}
}

// Where matches rows equal to every entry of the map. Keys are applied
// in sorted order so the generated statement is stable.
func Where(m map[string]any) Query {
	return func(s *Selector) {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			Eql(k, m[k])(s)
		}
	}
}

// And combines queries into one.
func And(qs ...Query) Query {
	return func(s *Selector) {
		for _, q := range qs {
			if q != nil {
				q(s)
			}
		}
	}
}

func anySlice(v any) ([]any, bool) {
	switch vs := v.(type) {
	case []any:
		return vs, true
	case []string:
		return toAny(vs), true
	case []int:
		return toAny(vs), true
	case []int64:
		return toAny(vs), true
	}
	return nil, false
}

func toAny[T any](vs []T) []any {
	out := make([]any, len(vs))
	for i := range vs {
		out[i] = vs[i]
	}
	return out
}
