package orm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/syssam/saint"
	"github.com/syssam/saint/dialect"
	"github.com/syssam/saint/dialect/sql"
	"github.com/syssam/saint/graph"
)

// Op is a persistence operation hooks are bound to.
type Op string

// Operations passed to hooks.
const (
	// OpAny binds a hook to every operation.
	OpAny Op = "*"
	// OpSave fires when a row is created or updated.
	OpSave Op = "save"
	// OpDelete fires for every row removed by Delete.
	OpDelete Op = "delete"
	// OpDestroy fires once around a Destroy, with a nil row.
	OpDestroy Op = "destroy"
)

// Hook is called around an operation. Returning an error from a before
// hook cancels the operation.
type Hook func(ctx context.Context, row *Row, op Op) error

type hook struct {
	op Op
	fn Hook
}

// Option configures an ORM.
type Option func(*ORM)

// WithSubset sets the subset of the ORM. See ORM.Subset.
func WithSubset(m map[string]any) Option {
	return func(o *ORM) {
		o.Subset(m)
	}
}

// WithLogger sets the logger queries are reported to at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(o *ORM) {
		o.log = l
	}
}

// ORM reads and writes the rows of one model type.
type ORM struct {
	drv    dialect.Driver
	typ    *graph.Type
	subset map[string]any
	before []hook
	after  []hook
	log    *slog.Logger
}

// New returns an ORM for the given type.
func New(drv dialect.Driver, t *graph.Type, opts ...Option) *ORM {
	o := &ORM{
		drv:    drv,
		typ:    t,
		subset: make(map[string]any),
		log:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Clone returns a copy of the ORM. Hooks and subset of the copy can be
// changed without affecting the original.
func (o *ORM) Clone() *ORM {
	return &ORM{
		drv:    o.drv,
		typ:    o.typ,
		subset: maps.Clone(o.subset),
		before: slices.Clone(o.before),
		after:  slices.Clone(o.after),
		log:    o.log,
	}
}

// Type returns the model type.
func (o *ORM) Type() *graph.Type {
	return o.typ
}

// Driver returns the underlying driver.
func (o *ORM) Driver() dialect.Driver {
	return o.drv
}

// Subset restricts the ORM to rows matching every entry of m. Entries
// are added to all filters and written into every saved row.
func (o *ORM) Subset(m map[string]any) *ORM {
	if o.subset == nil {
		o.subset = make(map[string]any, len(m))
	}
	maps.Copy(o.subset, m)
	return o
}

// SubsetValues returns a copy of the subset.
func (o *ORM) SubsetValues() map[string]any {
	return maps.Clone(o.subset)
}

// Before registers fn to run before the given operations, or before
// any operation if none given. Registering a hook for an operation that
// already has one replaces it.
func (o *ORM) Before(fn Hook, ops ...Op) {
	o.before = addHook(o.before, fn, ops)
}

// After registers fn to run after the given operations. See Before.
// After hooks never run for OpDelete.
func (o *ORM) After(fn Hook, ops ...Op) {
	o.after = addHook(o.after, fn, ops)
}

func addHook(hooks []hook, fn Hook, ops []Op) []hook {
	if fn == nil {
		return hooks
	}
	if len(ops) == 0 {
		ops = []Op{OpAny}
	}
	for _, op := range ops {
		i := slices.IndexFunc(hooks, func(h hook) bool { return h.op == op })
		if i >= 0 {
			hooks[i].fn = fn
			continue
		}
		hooks = append(hooks, hook{op: op, fn: fn})
	}
	return hooks
}

func runHooks(ctx context.Context, hooks []hook, row *Row, op Op) error {
	for _, h := range hooks {
		if h.op == op || h.op == OpAny {
			if err := h.fn(ctx, row, op); err != nil {
				return err
			}
		}
	}
	return nil
}

// Properties returns the properties of the model type.
func (o *ORM) Properties() []Property {
	return Properties(o.typ, true)
}

// QuoteColumn returns the quoted storage column of the given field.
func (o *ORM) QuoteColumn(name string) string {
	return QuoteColumn(o.typ, name, o.drv.Dialect())
}

// Selector returns the select statement of the given queries with the
// subset applied.
func (o *ORM) Selector(qs ...Query) *Selector {
	s := &Selector{
		Selector: sql.Dialect(o.drv.Dialect()).Select(o.typ.Columns()...).From(o.typ.Table),
		typ:      o.typ,
	}
	Where(o.subset)(s)
	And(qs...)(s)
	return s
}

// Filter returns the rows matching the queries.
func (o *ORM) Filter(ctx context.Context, qs ...Query) ([]*Row, error) {
	return o.query(ctx, o.Selector(qs...))
}

// First returns the first row matching the queries, or a *saint.NotFoundError.
func (o *ORM) First(ctx context.Context, qs ...Query) (*Row, error) {
	s := o.Selector(qs...)
	s.Limit(1)
	rows, err := o.query(ctx, s)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, saint.NewNotFoundError(o.typ.Name)
	}
	return rows[0], nil
}

// Get returns the row with the given primary key.
func (o *ORM) Get(ctx context.Context, id any) (*Row, error) {
	row, err := o.First(ctx, Eql(o.typ.ID.Name, id))
	if saint.IsNotFound(err) {
		return nil, saint.NewNotFoundErrorWithID(o.typ.Name, id)
	}
	return row, err
}

// FirstOrCreate returns the first row equal to data, creating it when
// none exists.
func (o *ORM) FirstOrCreate(ctx context.Context, data map[string]any) (*Row, error) {
	row, err := o.First(ctx, Where(data))
	if !saint.IsNotFound(err) {
		return row, err
	}
	return o.Create(ctx, data)
}

// Count returns the number of rows matching the queries.
func (o *ORM) Count(ctx context.Context, qs ...Query) (int, error) {
	s := o.Selector(qs...)
	s.Count()
	query, args := s.Query()
	if err := s.Err(); err != nil {
		return 0, err
	}
	o.debug(ctx, query, args)
	rows := &sql.Rows{}
	if err := o.drv.Query(ctx, query, args, rows); err != nil {
		return 0, err
	}
	return sql.ScanInt(rows)
}

func (o *ORM) query(ctx context.Context, s *Selector) ([]*Row, error) {
	query, args := s.Query()
	if err := s.Err(); err != nil {
		return nil, err
	}
	o.debug(ctx, query, args)
	rows := &sql.Rows{}
	if err := o.drv.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	ms, err := sql.ScanMaps(rows)
	if err != nil {
		return nil, err
	}
	result := make([]*Row, 0, len(ms))
	for _, m := range ms {
		row, err := scanRow(o.typ, m)
		if err != nil {
			return nil, fmt.Errorf("orm: scan %s: %w", o.typ.Name, err)
		}
		result = append(result, row)
	}
	return result, nil
}

// New returns a new row holding data and the subset. The row is not
// saved.
func (o *ORM) New(data map[string]any) *Row {
	row := NewRow(o.typ)
	row.SetMap(data)
	row.SetMap(o.subset)
	return row
}

// Create inserts a new row holding data and the subset. Hooks are not
// run.
func (o *ORM) Create(ctx context.Context, data map[string]any) (*Row, error) {
	row := o.New(data)
	if err := o.write(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

// Save validates and writes the row, inserting it if it was never
// persisted. Hooks registered for OpSave run around the write.
func (o *ORM) Save(ctx context.Context, row *Row) error {
	row.SetMap(o.subset)
	if err := runHooks(ctx, o.before, row, OpSave); err != nil {
		return err
	}
	if err := o.write(ctx, row); err != nil {
		return err
	}
	return runHooks(ctx, o.after, row, OpSave)
}

// Update applies data to the row and saves it. Unsaved changes of a
// persisted row are discarded first and a new row is saved before the
// data is applied.
func (o *ORM) Update(ctx context.Context, row *Row, data map[string]any) error {
	switch {
	case row.Persisted() && row.Dirty():
		if err := o.Reload(ctx, row); err != nil {
			return err
		}
	case !row.Persisted():
		if err := o.Save(ctx, row); err != nil {
			return err
		}
	}
	row.SetMap(data)
	return o.Save(ctx, row)
}

// Reload reads the row again from the database and drops its changes.
func (o *ORM) Reload(ctx context.Context, row *Row) error {
	fresh, err := o.Get(ctx, row.ID())
	if err != nil {
		return err
	}
	row.values, row.dirty = fresh.values, make(map[string]bool)
	return nil
}

// Delete removes the rows matching the queries one by one, running the
// OpDelete hooks for each. It stops at the first error and returns the
// number of removed rows.
func (o *ORM) Delete(ctx context.Context, qs ...Query) (int, error) {
	rows, err := o.Filter(ctx, qs...)
	if err != nil {
		return 0, err
	}
	for i, row := range rows {
		if err := runHooks(ctx, o.before, row, OpDelete); err != nil {
			return i, err
		}
		b := sql.Dialect(o.drv.Dialect()).Delete(o.typ.Table).
			Where(sql.EQ(o.typ.ID.Column, row.ID()))
		query, args := b.Query()
		o.debug(ctx, query, args)
		if err := o.drv.Exec(ctx, query, args, nil); err != nil {
			return i, saint.NewMutationError(o.typ.Name, string(OpDelete), err)
		}
		row.persisted = false
	}
	return len(rows), nil
}

// Destroy removes the rows matching the queries with a single statement.
// Only hooks registered explicitly for OpDestroy run, with a nil row.
func (o *ORM) Destroy(ctx context.Context, qs ...Query) (int64, error) {
	if err := runHooks(ctx, o.explicit(o.before, OpDestroy), nil, OpDestroy); err != nil {
		return 0, err
	}
	s := o.Selector(qs...)
	b := sql.Dialect(o.drv.Dialect()).Delete(o.typ.Table)
	if p := s.P(); p != nil {
		b.Where(p)
	}
	query, args := b.Query()
	if err := s.Err(); err != nil {
		return 0, err
	}
	o.debug(ctx, query, args)
	var res sql.Result
	if err := o.drv.Exec(ctx, query, args, &res); err != nil {
		return 0, saint.NewMutationError(o.typ.Name, string(OpDestroy), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, runHooks(ctx, o.explicit(o.after, OpDestroy), nil, OpDestroy)
}

func (o *ORM) explicit(hooks []hook, op Op) []hook {
	var out []hook
	for _, h := range hooks {
		if h.op == op {
			out = append(out, h)
		}
	}
	return out
}

// write validates the row and inserts or updates it.
func (o *ORM) write(ctx context.Context, row *Row) error {
	values, err := o.prepare(row)
	if err != nil {
		return err
	}
	if row.persisted {
		err = o.update(ctx, row, values)
	} else {
		err = o.insert(ctx, row, values)
	}
	if err != nil {
		return saint.NewMutationError(o.typ.Name, string(OpSave), err)
	}
	row.persisted = true
	clear(row.dirty)
	return nil
}

type columnValue struct {
	field *graph.Field
	value any
}

// prepare converts and validates the values to be written. New rows
// get the defaults of missing fields and updated rows the update
// defaults. Immutable fields are skipped on update.
func (o *ORM) prepare(row *Row) ([]columnValue, error) {
	var (
		errs   []error
		values []columnValue
		fields = o.typ.Fields
	)
	if !row.persisted && row.ID() != nil {
		fields = append([]*graph.Field{o.typ.ID}, fields...)
	}
	for _, f := range fields {
		v, set := row.values[f.Name]
		switch {
		case row.persisted && f.UpdateDefault != nil && !row.dirty[f.Name]:
			v, set = defaultValue(f.UpdateDefault), true
		case row.persisted && (!row.dirty[f.Name] || f.Immutable):
			continue
		case !row.persisted && !set && f.Default != nil:
			v, set = defaultValue(f.Default), true
		}
		cv, err := Convert(f, v)
		if err != nil {
			errs = append(errs, saint.NewValidationError(f.Name, err))
			continue
		}
		if cv == nil {
			if !f.Optional && !f.Nillable && (set || !row.persisted) {
				errs = append(errs, saint.NewValidationError(f.Name, errors.New("value is required")))
				continue
			}
			if !set {
				continue
			}
		} else if err := validate(f, cv); err != nil {
			errs = append(errs, saint.NewValidationError(f.Name, err))
			continue
		}
		row.values[f.Name] = cv
		values = append(values, columnValue{field: f, value: StorageValue(f, cv)})
	}
	if err := saint.NewAggregateError(errs...); err != nil {
		return nil, err
	}
	return values, nil
}

func validate(f *graph.Field, v any) error {
	if f.IsEnum() {
		s, _ := v.(string)
		if !slices.Contains(f.EnumValues(), s) {
			return fmt.Errorf("%q is not one of %v", s, f.EnumValues())
		}
	}
	return f.Validate(v)
}

func defaultValue(v any) any {
	switch fn := v.(type) {
	case func() time.Time:
		return fn()
	case func() string:
		return fn()
	case func() int64:
		return fn()
	case func() float64:
		return fn()
	case func() bool:
		return fn()
	}
	return v
}

func (o *ORM) insert(ctx context.Context, row *Row, values []columnValue) error {
	b := sql.Dialect(o.drv.Dialect()).Insert(o.typ.Table)
	for _, cv := range values {
		b.Set(cv.field.Column, cv.value)
	}
	if row.ID() != nil {
		query, args := b.Query()
		o.debug(ctx, query, args)
		return o.drv.Exec(ctx, query, args, nil)
	}
	if o.drv.Dialect() == dialect.Postgres {
		b.Returning(o.typ.ID.Column)
		query, args := b.Query()
		o.debug(ctx, query, args)
		rows := &sql.Rows{}
		if err := o.drv.Query(ctx, query, args, rows); err != nil {
			return err
		}
		id, err := sql.ScanInt(rows)
		if err != nil {
			return err
		}
		row.values[o.typ.ID.Name] = int64(id)
		return nil
	}
	query, args := b.Query()
	o.debug(ctx, query, args)
	var res sql.Result
	if err := o.drv.Exec(ctx, query, args, &res); err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	row.values[o.typ.ID.Name] = id
	return nil
}

func (o *ORM) update(ctx context.Context, row *Row, values []columnValue) error {
	if len(values) == 0 {
		return nil
	}
	b := sql.Dialect(o.drv.Dialect()).Update(o.typ.Table)
	for _, cv := range values {
		b.Set(cv.field.Column, cv.value)
	}
	b.Where(sql.EQ(o.typ.ID.Column, row.ID()))
	query, args := b.Query()
	if err := b.Err(); err != nil {
		return err
	}
	o.debug(ctx, query, args)
	return o.drv.Exec(ctx, query, args, nil)
}

func (o *ORM) debug(ctx context.Context, query string, args []any) {
	o.log.DebugContext(ctx, "orm query",
		slog.String("type", o.typ.Name),
		slog.String("query", query),
		slog.Int("args", len(args)),
	)
}
