package sql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/syssam/saint/dialect"
)

// Querier wraps the basic Query method that is implemented
// by the different builders in this file.
type Querier interface {
	// Query returns the query representation of the element
	// and its arguments (if any).
	Query() (string, []any)
}

// Builder is the base query builder for the sql dsl.
type Builder struct {
	sb      *strings.Builder // underlying builder.
	dialect string           // underlying database dialect.
	args    []any            // query parameters.
	total   int              // total number of parameters in query tree.
	errs    []error          // errors that added during the query construction.
}

// Quote quotes the given identifier with the characters based
// on the configured dialect. It defaults to "`".
func (b *Builder) Quote(ident string) string {
	quote := "`"
	switch {
	case b.postgres(), b.dialect == dialect.SQLite:
		quote = `"`
		// If it was quoted with the wrong
		// identifier character.
		if strings.Contains(ident, "`") {
			return strings.ReplaceAll(ident, "`", `"`)
		}
	}
	return quote + ident + quote
}

// Ident appends the given string as an identifier. Qualified
// identifiers ("table.column") are quoted part by part and
// expressions are written as is.
func (b *Builder) Ident(s string) *Builder {
	switch {
	case len(s) == 0:
	case s == "*", strings.ContainsAny(s, "(`\" "):
		b.WriteString(s)
	case strings.Contains(s, "."):
		parts := strings.Split(s, ".")
		for i, p := range parts {
			if i > 0 {
				b.WriteByte('.')
			}
			if p == "*" {
				b.WriteString(p)
				continue
			}
			b.WriteString(b.Quote(p))
		}
	default:
		b.WriteString(b.Quote(s))
	}
	return b
}

// IdentComma calls Ident on all arguments and adds a comma between them.
func (b *Builder) IdentComma(s ...string) *Builder {
	for i := range s {
		if i > 0 {
			b.Comma()
		}
		b.Ident(s[i])
	}
	return b
}

// String returns the accumulated string.
func (b *Builder) String() string {
	if b.sb == nil {
		return ""
	}
	return b.sb.String()
}

// WriteByte wraps the Buffer.WriteByte to make it chainable with other methods.
func (b *Builder) WriteByte(c byte) *Builder {
	if b.sb == nil {
		b.sb = &strings.Builder{}
	}
	b.sb.WriteByte(c)
	return b
}

// WriteString wraps the Buffer.WriteString to make it chainable with other methods.
func (b *Builder) WriteString(s string) *Builder {
	if b.sb == nil {
		b.sb = &strings.Builder{}
	}
	b.sb.WriteString(s)
	return b
}

// Len returns the number of accumulated bytes.
func (b *Builder) Len() int {
	if b.sb == nil {
		return 0
	}
	return b.sb.Len()
}

// Pad adds a space to the query.
func (b *Builder) Pad() *Builder {
	return b.WriteByte(' ')
}

// Comma adds a comma to the query.
func (b *Builder) Comma() *Builder {
	return b.WriteString(", ")
}

// AddError appends an error to the builder errors.
func (b *Builder) AddError(err error) *Builder {
	if err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// Err returns a concatenated error of all errors encountered during
// the query-building, or were added manually by calling AddError.
func (b *Builder) Err() error {
	if len(b.errs) == 0 {
		return nil
	}
	br := strings.Builder{}
	for i := range b.errs {
		if i > 0 {
			br.WriteString("; ")
		}
		br.WriteString(b.errs[i].Error())
	}
	return fmt.Errorf("%s", br.String())
}

// Arg appends an input argument to the builder.
func (b *Builder) Arg(a any) *Builder {
	b.total++
	b.args = append(b.args, a)
	if b.postgres() {
		b.WriteString("$" + strconv.Itoa(b.total))
	} else {
		b.WriteByte('?')
	}
	return b
}

// Args appends a list of arguments to the builder.
func (b *Builder) Args(a ...any) *Builder {
	for i := range a {
		if i > 0 {
			b.Comma()
		}
		b.Arg(a[i])
	}
	return b
}

// Wrap gets a callback, and wraps its result with parentheses.
func (b *Builder) Wrap(f func(*Builder)) *Builder {
	b.WriteByte('(')
	f(b)
	b.WriteByte(')')
	return b
}

// Query implements the Querier interface.
func (b *Builder) Query() (string, []any) {
	return b.String(), b.args
}

// SetDialect sets the builder dialect. It's used for garnering dialect specific queries.
func (b *Builder) SetDialect(d string) {
	b.dialect = dialect.Normalize(d)
}

// Dialect returns the dialect of the builder.
func (b Builder) Dialect() string {
	return b.dialect
}

func (b Builder) postgres() bool {
	return b.Dialect() == dialect.Postgres
}

// DialectBuilder prefixes all root builders with the Dialect value.
type DialectBuilder struct {
	dialect string
}

// Dialect creates a new DialectBuilder with the given dialect name.
func Dialect(name string) *DialectBuilder {
	return &DialectBuilder{dialect.Normalize(name)}
}

// Select creates a Selector for the configured dialect.
//
//	Dialect(dialect.Postgres).
//		Select("id", "name").From("users")
func (d *DialectBuilder) Select(columns ...string) *Selector {
	s := Select(columns...)
	s.SetDialect(d.dialect)
	return s
}

// Insert creates an InsertBuilder for the configured dialect.
//
//	Dialect(dialect.Postgres).
//		Insert("users").Columns("age").Values(1)
func (d *DialectBuilder) Insert(table string) *InsertBuilder {
	b := Insert(table)
	b.SetDialect(d.dialect)
	return b
}

// Update creates an UpdateBuilder for the configured dialect.
//
//	Dialect(dialect.Postgres).
//		Update("users").Set("name", "foo")
func (d *DialectBuilder) Update(table string) *UpdateBuilder {
	b := Update(table)
	b.SetDialect(d.dialect)
	return b
}

// Delete creates a DeleteBuilder for the configured dialect.
//
//	Dialect(dialect.Postgres).
//		Delete("users").Where(EQ("id", 1))
func (d *DialectBuilder) Delete(table string) *DeleteBuilder {
	b := Delete(table)
	b.SetDialect(d.dialect)
	return b
}

// Order directions.
const (
	OrderAsc  = "ASC"
	OrderDesc = "DESC"
)

type orderTerm struct {
	column string
	dir    string
}

// Selector is a builder for the `SELECT` statement.
type Selector struct {
	Builder
	table   string
	columns []string
	where   *Predicate
	order   []orderTerm
	limit   *int
	offset  *int
	count   bool
}

// Select returns a new selector for the `SELECT` statement.
//
//	Select("id", "name").From("users").Where(EQ("status", "active"))
func Select(columns ...string) *Selector {
	return &Selector{columns: columns}
}

// From sets the source table of the `SELECT` statement.
func (s *Selector) From(table string) *Selector {
	s.table = table
	return s
}

// Table returns the source table name.
func (s *Selector) Table() string {
	return s.table
}

// C returns a formatted string for a selected column from this statement.
func (s *Selector) C(column string) string {
	if s.table == "" || strings.Contains(column, ".") {
		return column
	}
	return s.table + "." + column
}

// Columns sets the selected columns.
func (s *Selector) Columns(columns ...string) *Selector {
	s.columns = columns
	return s
}

// Where sets or appends the given predicate to the statement.
func (s *Selector) Where(p *Predicate) *Selector {
	if p == nil {
		return s
	}
	if s.where != nil {
		s.where = And(s.where, p)
	} else {
		s.where = p
	}
	return s
}

// P returns the predicate of the statement, or nil if none was set.
func (s *Selector) P() *Predicate {
	return s.where
}

// OrderBy appends the `ORDER BY` clause to the `SELECT` statement.
// An empty direction means ascending.
func (s *Selector) OrderBy(column, dir string) *Selector {
	dir = strings.ToUpper(dir)
	if dir != OrderDesc {
		dir = OrderAsc
	}
	s.order = append(s.order, orderTerm{column: column, dir: dir})
	return s
}

// Limit adds the `LIMIT` clause to the `SELECT` statement.
func (s *Selector) Limit(limit int) *Selector {
	s.limit = &limit
	return s
}

// Offset adds the `OFFSET` clause to the `SELECT` statement.
func (s *Selector) Offset(offset int) *Selector {
	s.offset = &offset
	return s
}

// Count sets the Select statement to be a `SELECT COUNT(*)`.
func (s *Selector) Count() *Selector {
	s.count = true
	return s
}

// Clone returns a duplicate of the selector, including all associated steps.
// It can be used to prepare common SELECT statements and use them differently
// after the clone is made.
func (s *Selector) Clone() *Selector {
	c := &Selector{
		Builder: Builder{dialect: s.dialect},
		table:   s.table,
		columns: append([]string(nil), s.columns...),
		where:   s.where,
		order:   append([]orderTerm(nil), s.order...),
		limit:   s.limit,
		offset:  s.offset,
		count:   s.count,
	}
	return c
}

// Query returns query representation of a `SELECT` statement.
func (s *Selector) Query() (string, []any) {
	b := &Builder{dialect: s.dialect}
	b.WriteString("SELECT ")
	switch {
	case s.count:
		b.WriteString("COUNT(*)")
	case len(s.columns) == 0:
		b.WriteString("*")
	default:
		b.IdentComma(s.columns...)
	}
	b.WriteString(" FROM ").Ident(s.table)
	if s.where != nil {
		b.WriteString(" WHERE ")
		s.where.build(b)
	}
	if len(s.order) > 0 && !s.count {
		b.WriteString(" ORDER BY ")
		for i, o := range s.order {
			if i > 0 {
				b.Comma()
			}
			b.Ident(o.column).Pad().WriteString(o.dir)
		}
	}
	if !s.count {
		s.writeLimit(b)
	}
	s.total = b.total
	s.errs = append(s.errs, b.errs...)
	return b.String(), b.args
}

// MySQL and SQLite refuse OFFSET without LIMIT.
func (s *Selector) writeLimit(b *Builder) {
	switch {
	case s.limit != nil:
		b.WriteString(" LIMIT ").WriteString(strconv.Itoa(*s.limit))
	case s.offset == nil:
		return
	case b.dialect == dialect.MySQL:
		b.WriteString(" LIMIT 18446744073709551615")
	case b.dialect == dialect.SQLite:
		b.WriteString(" LIMIT -1")
	}
	if s.offset != nil {
		b.WriteString(" OFFSET ").WriteString(strconv.Itoa(*s.offset))
	}
}

// InsertBuilder is a builder for `INSERT INTO` statement.
type InsertBuilder struct {
	Builder
	table     string
	columns   []string
	values    []any
	returning []string
}

// Insert creates a builder for the `INSERT INTO` statement.
//
//	Insert("users").
//		Columns("name", "age").
//		Values("a8m", 10)
func Insert(table string) *InsertBuilder { return &InsertBuilder{table: table} }

// Set is a syntactic sugar API for inserting a single column.
func (i *InsertBuilder) Set(column string, v any) *InsertBuilder {
	i.columns = append(i.columns, column)
	i.values = append(i.values, v)
	return i
}

// Columns appends columns to the INSERT statement.
func (i *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	i.columns = append(i.columns, columns...)
	return i
}

// Values appends a value tuple for the insert statement.
func (i *InsertBuilder) Values(values ...any) *InsertBuilder {
	i.values = append(i.values, values...)
	return i
}

// Returning adds the `RETURNING` clause to the insert statement.
// Supported by PostgreSQL only; other dialects rely on LastInsertId.
func (i *InsertBuilder) Returning(columns ...string) *InsertBuilder {
	i.returning = columns
	return i
}

// Query returns query representation of an `INSERT INTO` statement.
func (i *InsertBuilder) Query() (string, []any) {
	b := &Builder{dialect: i.dialect}
	b.WriteString("INSERT INTO ").Ident(i.table)
	switch {
	case len(i.columns) == 0 && b.dialect == dialect.MySQL:
		b.WriteString(" () VALUES ()")
	case len(i.columns) == 0:
		b.WriteString(" DEFAULT VALUES")
	default:
		if len(i.columns) != len(i.values) {
			b.AddError(fmt.Errorf("sql: insert into %q: %d columns and %d values", i.table, len(i.columns), len(i.values)))
		}
		b.Pad().Wrap(func(b *Builder) { b.IdentComma(i.columns...) })
		b.WriteString(" VALUES ").Wrap(func(b *Builder) { b.Args(i.values...) })
	}
	if len(i.returning) > 0 && b.postgres() {
		b.WriteString(" RETURNING ").IdentComma(i.returning...)
	}
	i.errs = append(i.errs, b.errs...)
	return b.String(), b.args
}

// UpdateBuilder is a builder for `UPDATE` statement.
type UpdateBuilder struct {
	Builder
	table   string
	columns []string
	values  []any
	where   *Predicate
}

// Update creates a builder for the `UPDATE` statement.
//
//	Update("users").Set("name", "foo").Set("age", 10)
func Update(table string) *UpdateBuilder { return &UpdateBuilder{table: table} }

// Set sets a column to a given value.
func (u *UpdateBuilder) Set(column string, v any) *UpdateBuilder {
	u.columns = append(u.columns, column)
	u.values = append(u.values, v)
	return u
}

// SetNull sets a column as null value.
func (u *UpdateBuilder) SetNull(column string) *UpdateBuilder {
	return u.Set(column, nil)
}

// Empty reports whether this builder does not contain update changes.
func (u *UpdateBuilder) Empty() bool {
	return len(u.columns) == 0
}

// Where adds a where predicate for update statement.
func (u *UpdateBuilder) Where(p *Predicate) *UpdateBuilder {
	if u.where != nil {
		u.where = And(u.where, p)
	} else {
		u.where = p
	}
	return u
}

// Query returns query representation of an `UPDATE` statement.
func (u *UpdateBuilder) Query() (string, []any) {
	b := &Builder{dialect: u.dialect}
	b.WriteString("UPDATE ").Ident(u.table).WriteString(" SET ")
	if u.Empty() {
		b.AddError(fmt.Errorf("sql: update %q: no columns to set", u.table))
	}
	for i, c := range u.columns {
		if i > 0 {
			b.Comma()
		}
		b.Ident(c).WriteString(" = ")
		if u.values[i] == nil {
			b.WriteString("NULL")
		} else {
			b.Arg(u.values[i])
		}
	}
	if u.where != nil {
		b.WriteString(" WHERE ")
		u.where.build(b)
	}
	u.errs = append(u.errs, b.errs...)
	return b.String(), b.args
}

// DeleteBuilder is a builder for `DELETE` statement.
type DeleteBuilder struct {
	Builder
	table string
	where *Predicate
}

// Delete creates a builder for the `DELETE` statement.
//
//	Delete("users").
//		Where(
//			Or(
//				And(EQ("name", "foo"), EQ("age", 10)),
//				And(EQ("name", "bar"), EQ("age", 20)),
//			),
//		)
func Delete(table string) *DeleteBuilder { return &DeleteBuilder{table: table} }

// Where appends a where predicate to the `DELETE` statement.
func (d *DeleteBuilder) Where(p *Predicate) *DeleteBuilder {
	if d.where != nil {
		d.where = And(d.where, p)
	} else {
		d.where = p
	}
	return d
}

// Query returns query representation of a `DELETE` statement.
func (d *DeleteBuilder) Query() (string, []any) {
	b := &Builder{dialect: d.dialect}
	b.WriteString("DELETE FROM ").Ident(d.table)
	if d.where != nil {
		b.WriteString(" WHERE ")
		d.where.build(b)
	}
	return b.String(), b.args
}
