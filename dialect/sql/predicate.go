package sql

import (
	"strings"

	"github.com/syssam/saint/dialect"
)

// Predicate is a where predicate. Its building steps are deferred
// until the statement is rendered, so placeholders are numbered in
// the order they appear in the whole statement.
type Predicate struct {
	fns []func(*Builder)
}

// P creates a new predicate.
//
//	P(func(b *Builder) {
//		b.Ident("name").WriteString(" = ").Arg("a8m")
//	})
func P(fns ...func(*Builder)) *Predicate {
	return &Predicate{fns: fns}
}

// Append appends a new function to the predicate callbacks.
func (p *Predicate) Append(f func(*Builder)) *Predicate {
	p.fns = append(p.fns, f)
	return p
}

func (p *Predicate) build(b *Builder) {
	for _, f := range p.fns {
		f(b)
	}
}

// Query returns query representation of a predicate.
func (p *Predicate) Query() (string, []any) {
	b := &Builder{}
	p.build(b)
	return b.Query()
}

// ExprP creates a new predicate from the given expression. Each "?" in
// the expression is replaced by the dialect placeholder of the matching
// argument.
//
//	ExprP("name = ? AND age > ?", "a8m", 30)
func ExprP(expr string, args ...any) *Predicate {
	return P(func(b *Builder) {
		n := 0
		for i := 0; i < len(expr); i++ {
			if expr[i] == '?' && n < len(args) {
				b.Arg(args[n])
				n++
				continue
			}
			b.WriteByte(expr[i])
		}
	})
}

// Or combines all given predicates with OR between them.
//
//	Or(EQ("name", "foo"), EQ("name", "bar"))
func Or(preds ...*Predicate) *Predicate {
	return junction(" OR ", preds)
}

// And combines all given predicates with AND between them.
func And(preds ...*Predicate) *Predicate {
	return junction(" AND ", preds)
}

func junction(op string, preds []*Predicate) *Predicate {
	return P(func(b *Builder) {
		b.Wrap(func(b *Builder) {
			for i, p := range preds {
				if i > 0 {
					b.WriteString(op)
				}
				b.Wrap(p.build)
			}
		})
	})
}

// Not wraps the given predicate with the not predicate.
//
//	Not(Or(EQ("name", "foo"), EQ("name", "bar")))
func Not(pred *Predicate) *Predicate {
	return P(func(b *Builder) {
		b.WriteString("NOT ").Wrap(pred.build)
	})
}

func binary(col, op string, v any) *Predicate {
	return P(func(b *Builder) {
		b.Ident(col).Pad().WriteString(op).Pad().Arg(v)
	})
}

// EQ returns a "=" predicate.
func EQ(col string, value any) *Predicate {
	if value == nil {
		return IsNull(col)
	}
	return binary(col, "=", value)
}

// NEQ returns a "<>" predicate.
func NEQ(col string, value any) *Predicate {
	if value == nil {
		return NotNull(col)
	}
	return binary(col, "<>", value)
}

// LT returns a "<" predicate.
func LT(col string, value any) *Predicate {
	return binary(col, "<", value)
}

// LTE returns a "<=" predicate.
func LTE(col string, value any) *Predicate {
	return binary(col, "<=", value)
}

// GT returns a ">" predicate.
func GT(col string, value any) *Predicate {
	return binary(col, ">", value)
}

// GTE returns a ">=" predicate.
func GTE(col string, value any) *Predicate {
	return binary(col, ">=", value)
}

// IsNull returns the `IS NULL` predicate.
func IsNull(col string) *Predicate {
	return P(func(b *Builder) {
		b.Ident(col).WriteString(" IS NULL")
	})
}

// NotNull returns the `IS NOT NULL` predicate.
func NotNull(col string) *Predicate {
	return P(func(b *Builder) {
		b.Ident(col).WriteString(" IS NOT NULL")
	})
}

// In returns the `IN` predicate. An empty list never matches.
func In(col string, args ...any) *Predicate {
	return P(func(b *Builder) {
		if len(args) == 0 {
			b.WriteString("1 = 0")
			return
		}
		b.Ident(col).WriteString(" IN ").Wrap(func(b *Builder) { b.Args(args...) })
	})
}

// NotIn returns the `Not IN` predicate. An empty list always matches.
func NotIn(col string, args ...any) *Predicate {
	return P(func(b *Builder) {
		if len(args) == 0 {
			b.WriteString("1 = 1")
			return
		}
		b.Ident(col).WriteString(" NOT IN ").Wrap(func(b *Builder) { b.Args(args...) })
	})
}

// Like returns the `LIKE` predicate.
func Like(col, pattern string) *Predicate {
	return binary(col, "LIKE", pattern)
}

// Contains is a helper predicate that checks substring using the LIKE predicate.
// Wildcards in substr match literally.
func Contains(col, substr string) *Predicate {
	return escapedLike(col, "%"+EscapeLike(substr)+"%", false)
}

// ContainsFold is a helper predicate that checks substring using the LIKE predicate
// on the lowered column.
func ContainsFold(col, substr string) *Predicate {
	return escapedLike(col, "%"+EscapeLike(strings.ToLower(substr))+"%", true)
}

// HasPrefix is a helper predicate that checks prefix using the LIKE predicate.
func HasPrefix(col, prefix string) *Predicate {
	return escapedLike(col, EscapeLike(prefix)+"%", false)
}

// HasSuffix is a helper predicate that checks suffix using the LIKE predicate.
func HasSuffix(col, suffix string) *Predicate {
	return escapedLike(col, "%"+EscapeLike(suffix), false)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// EscapeLike escapes the LIKE wildcards of s and the backslash used to
// escape them.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// escapedLike writes a LIKE predicate with an explicit backslash ESCAPE
// clause. MySQL reads backslashes in string literals, so it gets two.
func escapedLike(col, pattern string, fold bool) *Predicate {
	return P(func(b *Builder) {
		if fold {
			b.WriteString("LOWER(").Ident(col).WriteString(")")
		} else {
			b.Ident(col)
		}
		b.WriteString(" LIKE ").Arg(pattern)
		if b.Dialect() == dialect.MySQL {
			b.WriteString(` ESCAPE '\\'`)
		} else {
			b.WriteString(` ESCAPE '\'`)
		}
	})
}

// FieldEQ returns a predicate that checks if the field equals the given value.
func FieldEQ(name string, v any) func(*Selector) {
	return func(s *Selector) {
		s.Where(EQ(s.C(name), v))
	}
}

// FieldNEQ returns a predicate that checks if the field does not equal the given value.
func FieldNEQ(name string, v any) func(*Selector) {
	return func(s *Selector) {
		s.Where(NEQ(s.C(name), v))
	}
}

// FieldGT returns a predicate that checks if the field is greater than the given value.
func FieldGT(name string, v any) func(*Selector) {
	return func(s *Selector) {
		s.Where(GT(s.C(name), v))
	}
}

// FieldGTE returns a predicate that checks if the field is greater than or equal to the given value.
func FieldGTE(name string, v any) func(*Selector) {
	return func(s *Selector) {
		s.Where(GTE(s.C(name), v))
	}
}

// FieldLT returns a predicate that checks if the field is less than the given value.
func FieldLT(name string, v any) func(*Selector) {
	return func(s *Selector) {
		s.Where(LT(s.C(name), v))
	}
}

// FieldLTE returns a predicate that checks if the field is less than or equal to the given value.
func FieldLTE(name string, v any) func(*Selector) {
	return func(s *Selector) {
		s.Where(LTE(s.C(name), v))
	}
}

// FieldIn returns a predicate that checks if the field value is in the given list.
func FieldIn[T any](name string, vs ...T) func(*Selector) {
	return func(s *Selector) {
		v := make([]any, len(vs))
		for i := range vs {
			v[i] = vs[i]
		}
		s.Where(In(s.C(name), v...))
	}
}

// FieldNotIn returns a predicate that checks if the field value is not in the given list.
func FieldNotIn[T any](name string, vs ...T) func(*Selector) {
	return func(s *Selector) {
		v := make([]any, len(vs))
		for i := range vs {
			v[i] = vs[i]
		}
		s.Where(NotIn(s.C(name), v...))
	}
}

// FieldContains returns a predicate that checks if the field contains the given substring.
func FieldContains(name, substr string) func(*Selector) {
	return func(s *Selector) {
		s.Where(Contains(s.C(name), substr))
	}
}

// FieldContainsFold returns a predicate that checks if the field contains the given
// substring, ignoring case.
func FieldContainsFold(name, substr string) func(*Selector) {
	return func(s *Selector) {
		s.Where(ContainsFold(s.C(name), substr))
	}
}

// FieldHasPrefix returns a predicate that checks if the field has the given prefix.
func FieldHasPrefix(name, prefix string) func(*Selector) {
	return func(s *Selector) {
		s.Where(HasPrefix(s.C(name), prefix))
	}
}

// FieldIsNull returns a predicate that checks if the field is NULL.
func FieldIsNull(name string) func(*Selector) {
	return func(s *Selector) {
		s.Where(IsNull(s.C(name)))
	}
}

// FieldNotNull returns a predicate that checks if the field is not NULL.
func FieldNotNull(name string) func(*Selector) {
	return func(s *Selector) {
		s.Where(NotNull(s.C(name)))
	}
}

// FieldExpr returns a raw predicate over the given field. The operator is
// written between the field and a single placeholder.
//
//	FieldExpr("name", "NOT LIKE", "%draft%")
func FieldExpr(name, op string, v any) func(*Selector) {
	return func(s *Selector) {
		s.Where(binary(s.C(name), op, v))
	}
}
