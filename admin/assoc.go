package admin

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/syssam/saint"
	"github.com/syssam/saint/graph"
	"github.com/syssam/saint/internal/inflector"
	"github.com/syssam/saint/orm"
)

// Association types.
const (
	BelongsTo = orm.BelongsTo
	HasN      = orm.HasN
)

// Default names of the tree associations.
const (
	TreeChildren = "children"
	TreeParent   = "parent"
	TreeKey      = "parent_id"
)

// AssocOp is the operation passed to association hooks.
type AssocOp string

// Association operations.
const (
	OpAttach AssocOp = "attach"
	OpDetach AssocOp = "detach"
)

// AssocHook runs around attaching and detaching a remote row. An error
// returned by a before hook cancels the operation.
type AssocHook func(ctx context.Context, local, remote *orm.Row, op AssocOp) error

// FilterFunc returns the conditions of the remote rows offered for a
// local row.
type FilterFunc func(ctx context.Context, local *orm.Row) map[string]any

// Assoc is an association between the model of a controller (local)
// and another model (remote). The exported fields can be set in the
// function given to BelongsTo, HasN and IsTree; empty keys get their
// defaults once the function returns.
type Assoc struct {
	ID        string
	Type      string // BelongsTo or HasN
	Name      string
	Label     string
	LongLabel string
	// LocalKey is the local field holding the remote key (belongs-to),
	// the local field the remote rows point at (has-n) or the join
	// field pointing at the local row (through).
	LocalKey string
	// RemoteKey is the remote field matched by the local key
	// (belongs-to), the remote field pointing at the local row (has-n)
	// or the join field pointing at the remote row (through).
	RemoteKey    string
	RemotePKey   string
	ItemsPerPage int
	Readonly     bool

	local        *Controller
	localType    *graph.Type
	remoteType   *graph.Type
	throughType  *graph.Type
	localORM     *orm.ORM
	remoteORM    *orm.ORM
	throughORM   *orm.ORM
	remoteCtrl   *Controller
	createButton bool
	filters      map[string]any
	filterFn     FilterFunc
	order        []OrderTerm
	columns      []*Column
	before       []AssocHook
	after        []AssocHook
	tree         bool
	children     string
	parent       string
	counterpart  *Assoc
}

type assocSpec struct {
	method  string
	typ     string
	name    string
	remote  any
	through any
	tree    bool
	fns     []func(*Assoc)
}

// BelongsTo declares that rows of the model point at a remote row.
//
//	pages.BelongsTo("author", Author{}, func(a *admin.Assoc) {
//		a.Controller(authors, false)
//	})
//
// It returns nil when the association cannot be declared; the error is
// reported by Registry.Boot.
func (c *Controller) BelongsTo(name string, remote any, fn func(*Assoc)) *Assoc {
	return c.newAssoc(assocSpec{method: "BelongsTo", typ: BelongsTo, name: name, remote: remote, fns: []func(*Assoc){fn}})
}

// HasN declares that remote rows point at rows of the model, directly
// or through a join model when through is not nil.
func (c *Controller) HasN(name string, remote, through any, fn func(*Assoc)) *Assoc {
	return c.newAssoc(assocSpec{method: "HasN", typ: HasN, name: name, remote: remote, through: through, fns: []func(*Assoc){fn}})
}

// IsTree declares the model a tree: hasN names the children relation
// and belongsTo the parent relation, "children" and "parent" when
// empty. fn configures both associations.
func (c *Controller) IsTree(hasN, belongsTo string, fn func(*Assoc)) (children, parent *Assoc) {
	if hasN == "" {
		hasN = TreeChildren
	}
	if belongsTo == "" {
		belongsTo = TreeParent
	}
	if c.typ == nil {
		c.errorf("IsTree", "please define %s before dealing with %s", "Model", "IsTree")
		return nil, nil
	}
	link := func(a *Assoc) {
		a.children, a.parent = hasN, belongsTo
		a.remoteCtrl = c
	}
	children = c.newAssoc(assocSpec{method: "IsTree", typ: HasN, name: hasN, remote: c.typ, tree: true, fns: []func(*Assoc){link, fn}})
	parent = c.newAssoc(assocSpec{method: "IsTree", typ: BelongsTo, name: belongsTo, remote: c.typ, tree: true, fns: []func(*Assoc){link, fn}})
	if children != nil && parent != nil {
		children.counterpart, parent.counterpart = parent, children
	}
	return children, parent
}

func (c *Controller) newAssoc(spec assocSpec) *Assoc {
	if c.typ == nil {
		c.errorf(spec.method, "please define %s before dealing with %s", "Model", spec.method)
		return nil
	}
	rt, err := c.reg.typeOf(spec.remote)
	if err != nil {
		c.errorf(spec.method, "%s: %v", spec.name, err)
		return nil
	}
	var tt *graph.Type
	if spec.through != nil {
		if tt, err = c.reg.typeOf(spec.through); err != nil {
			c.errorf(spec.method, "%s: %v", spec.name, err)
			return nil
		}
	}
	if _, ok := c.typ.Edge(spec.name); !ok {
		if _, ok := c.typ.Field(spec.name); !ok {
			c.errorf(spec.method, "%s has no %q relation", c.typ.Name, spec.name)
			return nil
		}
	}
	if c.Assoc(spec.name) != nil {
		c.errorf(spec.method, "association %q already declared", spec.name)
		return nil
	}
	a := &Assoc{
		Type:         spec.typ,
		Name:         spec.name,
		Label:        inflector.Capitalize(spec.name),
		ItemsPerPage: DefaultItemsPerPage,
		local:        c,
		localType:    c.typ,
		remoteType:   rt,
		throughType:  tt,
		filters:      make(map[string]any),
		tree:         spec.tree,
	}
	for _, fn := range spec.fns {
		if fn != nil {
			fn(a)
		}
	}
	a.defaults()
	a.LongLabel = inflector.Titleize(a.Type) + " " + a.Label
	remoteName := rt.Name
	if a.remoteCtrl != nil {
		remoteName = a.remoteCtrl.name
	}
	a.ID = inflector.Normalize(strings.Join([]string{a.Type, a.Name, c.name, remoteName}, "_"))
	if _, ok := c.reg.relations[a.ID]; ok {
		c.errorf(spec.method, "relation %q already registered", a.ID)
		return nil
	}
	c.reg.relations[a.ID] = a
	a.localORM = c.reg.orm(c.typ)
	a.remoteORM = c.reg.orm(rt)
	if tt != nil {
		a.throughORM = c.reg.orm(tt)
	}
	c.assocs = append(c.assocs, a)
	return a
}

// defaults sets the keys left empty by the configuration function.
func (a *Assoc) defaults() {
	local, remote := a.localType.Name, a.remoteType.Name
	var lk, rk string
	switch {
	case a.tree:
		lk, rk = TreeKey, TreeKey
	case a.throughType != nil:
		lk, rk = inflector.ForeignKey(local), inflector.ForeignKey(remote)
	case a.Type == HasN:
		lk, rk = a.local.pkey, inflector.ForeignKey(local)
	default:
		lk, rk = inflector.ForeignKey(a.Name), orm.PrimaryKey(a.remoteType)
	}
	if a.LocalKey == "" {
		a.LocalKey = lk
	}
	if a.RemoteKey == "" {
		a.RemoteKey = rk
	}
	if a.RemotePKey == "" {
		a.RemotePKey = orm.PrimaryKey(a.remoteType)
		if a.remoteCtrl != nil && a.remoteCtrl.pkey != "" {
			a.RemotePKey = a.remoteCtrl.pkey
		}
	}
}

// Controller sets the controller managing the remote model. With
// createButton set, remote rows can be created from the association.
func (a *Assoc) Controller(c *Controller, createButton bool) *Assoc {
	a.remoteCtrl, a.createButton = c, createButton
	return a
}

// RemoteController returns the controller of the remote model, if any.
func (a *Assoc) RemoteController() *Controller { return a.remoteCtrl }

// CreateButton reports if remote rows can be created from the
// association.
func (a *Assoc) CreateButton() bool { return a.createButton }

// Local returns the controller declaring the association.
func (a *Assoc) Local() *Controller { return a.local }

// LocalType returns the local model.
func (a *Assoc) LocalType() *graph.Type { return a.localType }

// RemoteType returns the remote model.
func (a *Assoc) RemoteType() *graph.Type { return a.remoteType }

// ThroughType returns the join model, nil unless the association goes
// through one.
func (a *Assoc) ThroughType() *graph.Type { return a.throughType }

// LocalPKey returns the primary key of the local model.
func (a *Assoc) LocalPKey() string { return a.local.pkey }

// RemoteORM returns the ORM of the remote model.
func (a *Assoc) RemoteORM() *orm.ORM { return a.remoteORM }

// IsTree reports if the association is one side of a tree.
func (a *Assoc) IsTree() bool { return a.tree }

// Children returns the name of the children association of a tree.
func (a *Assoc) Children() string { return a.children }

// Parent returns the name of the parent association of a tree.
func (a *Assoc) Parent() string { return a.parent }

// Counterpart returns the other side of a tree.
func (a *Assoc) Counterpart() *Assoc { return a.counterpart }

// Filter restricts the remote rows offered. Entries of static are
// merged with the result of fn, which wins on conflicts.
func (a *Assoc) Filter(static map[string]any, fn FilterFunc) *Assoc {
	maps.Copy(a.filters, static)
	if fn != nil {
		a.filterFn = fn
	}
	return a
}

// Filters returns the conditions of the remote rows offered for local.
func (a *Assoc) Filters(ctx context.Context, local *orm.Row) map[string]any {
	m := maps.Clone(a.filters)
	if a.filterFn != nil {
		maps.Copy(m, a.filterFn(ctx, local))
	}
	return m
}

// Order adds a sort key of the remote rows.
func (a *Assoc) Order(column, dir string) *Assoc {
	d, err := orm.Direction(dir)
	if err != nil {
		a.local.errorf(a.Type, "%s: %v", a.Name, err)
		return a
	}
	a.order = append(a.order, OrderTerm{Column: column, Dir: d})
	return a
}

// Ordering returns the sort keys of the remote rows: the declared ones,
// else the order of the remote controller, else the remote primary key
// descending.
func (a *Assoc) Ordering() []OrderTerm {
	switch {
	case len(a.order) > 0:
		return a.order
	case a.remoteCtrl != nil && len(a.remoteCtrl.order) > 0:
		return a.remoteCtrl.order
	default:
		return []OrderTerm{{Column: a.RemotePKey, Dir: "DESC"}}
	}
}

// Column declares a column of the remote rows listed by the
// association.
func (a *Assoc) Column(name, typ string, opts ...ColumnOption) *Column {
	col := newColumn(a.local.name+"/"+a.Name, name, typ, nil, opts...)
	col.field, _ = a.remoteType.Field(name)
	if i := slices.IndexFunc(a.columns, func(o *Column) bool { return o.name == name }); i >= 0 {
		a.columns[i] = col
	} else {
		a.columns = append(a.columns, col)
	}
	return col
}

// Columns returns the columns of the remote rows: the declared ones,
// else the first three columns of the remote controller, else the first
// remote property.
func (a *Assoc) Columns() []*Column {
	if len(a.columns) > 0 {
		return a.columns
	}
	if a.remoteCtrl != nil && len(a.remoteCtrl.columns) > 0 {
		return a.remoteCtrl.columns[:min(3, len(a.remoteCtrl.columns))]
	}
	props := orm.Properties(a.remoteType, true)
	if len(props) == 0 {
		return nil
	}
	col := newColumn(a.local.name+"/"+a.Name, props[0].Name, props[0].Type, nil)
	col.field = props[0].Field
	return []*Column{col}
}

// Before registers a hook run before remote rows are attached or
// detached.
func (a *Assoc) Before(fn AssocHook) *Assoc {
	a.before = append(a.before, fn)
	return a
}

// After registers a hook run after remote rows are attached or
// detached.
func (a *Assoc) After(fn AssocHook) *Assoc {
	a.after = append(a.after, fn)
	return a
}

// Assoc returns the association declared under name, nil if none.
func (c *Controller) Assoc(name string) *Assoc {
	for _, a := range c.assocs {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// Assocs returns the associations in declaration order.
func (c *Controller) Assocs() []*Assoc {
	return c.assocs
}

// Tree returns the children and parent associations of a tree model.
func (c *Controller) Tree() (children, parent *Assoc) {
	for _, a := range c.assocs {
		if !a.tree {
			continue
		}
		if a.Type == HasN {
			children = a
		} else {
			parent = a
		}
	}
	return children, parent
}

// localValueKey is the local field the has-n remote rows point at.
func (a *Assoc) localValueKey() string {
	if a.tree || a.throughType != nil {
		return a.local.pkey
	}
	return a.LocalKey
}

// remoteMatchKey is the remote field a belongs-to local key holds.
func (a *Assoc) remoteMatchKey() string {
	if a.tree {
		return a.RemotePKey
	}
	return a.RemoteKey
}

// RemoteItem is a remote row with its attached state.
type RemoteItem struct {
	Row      *orm.Row
	Attached bool
}

// RemotePage is a page of remote rows.
type RemotePage struct {
	Items   []RemoteItem
	Total   int
	Page    int
	Pages   int
	PerPage int
}

// Remote returns a page of the remote rows offered for local, flagging
// the attached ones. With attachedOnly set only attached rows are
// listed.
func (a *Assoc) Remote(ctx context.Context, local *orm.Row, page int, attachedOnly bool) (*RemotePage, error) {
	per := a.ItemsPerPage
	if per < 1 {
		per = DefaultItemsPerPage
	}
	page = max(page, 1)
	result := &RemotePage{Page: page, PerPage: per}
	qs := []orm.Query{orm.Where(a.Filters(ctx, local))}
	var attached func(*orm.Row) bool
	switch {
	case a.throughType != nil:
		joins, err := a.throughORM.Filter(ctx, orm.Eql(a.LocalKey, local.Get(a.local.pkey)))
		if err != nil {
			return nil, err
		}
		ids := make([]any, 0, len(joins))
		set := make(map[string]bool, len(joins))
		for _, j := range joins {
			ids = append(ids, j.Get(a.RemoteKey))
			set[fmt.Sprint(j.Get(a.RemoteKey))] = true
		}
		attached = func(r *orm.Row) bool { return set[fmt.Sprint(r.Get(a.RemotePKey))] }
		if attachedOnly {
			qs = append(qs, orm.Eql(a.RemotePKey, ids))
		}
	case a.Type == BelongsTo:
		v := local.Get(a.LocalKey)
		attached = func(r *orm.Row) bool { return same(r.Get(a.remoteMatchKey()), v) }
		if attachedOnly {
			if v == nil {
				return result, nil
			}
			qs = append(qs, orm.Eql(a.remoteMatchKey(), v))
		}
	default:
		v := local.Get(a.localValueKey())
		attached = func(r *orm.Row) bool { return same(r.Get(a.RemoteKey), v) }
		if attachedOnly {
			if v == nil {
				return result, nil
			}
			qs = append(qs, orm.Eql(a.RemoteKey, v))
		}
	}
	if a.tree && local.ID() != nil {
		qs = append(qs, orm.Not(a.RemotePKey, local.ID()))
	}
	total, err := a.remoteORM.Count(ctx, qs...)
	if err != nil {
		return nil, err
	}
	result.Total = total
	result.Pages = (total + per - 1) / per
	for _, o := range a.Ordering() {
		qs = append(qs, orm.Order(o.Column, o.Dir))
	}
	qs = append(qs, orm.Limit(per, (page-1)*per))
	rows, err := a.remoteORM.Filter(ctx, qs...)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		result.Items = append(result.Items, RemoteItem{Row: r, Attached: attached(r)})
	}
	return result, nil
}

// Attach links the remote row with the given key to local.
func (a *Assoc) Attach(ctx context.Context, local *orm.Row, remoteID any) error {
	return a.mutate(ctx, local, remoteID, OpAttach)
}

// Detach unlinks the remote row with the given key from local. Rows
// that are not attached are left as they are.
func (a *Assoc) Detach(ctx context.Context, local *orm.Row, remoteID any) error {
	return a.mutate(ctx, local, remoteID, OpDetach)
}

func (a *Assoc) mutate(ctx context.Context, local *orm.Row, remoteID any, op AssocOp) error {
	if a.Readonly {
		return fmt.Errorf("admin: %s: %w", a.Name, saint.ErrReadonly)
	}
	remote, err := a.remoteORM.First(ctx, orm.Eql(a.RemotePKey, remoteID))
	if err != nil {
		return err
	}
	if a.tree && op == OpAttach && same(remote.Get(a.RemotePKey), local.Get(a.local.pkey)) {
		return saint.NewValidationError(a.Name, errors.New("an item can not be attached to itself"))
	}
	for _, fn := range a.before {
		if err := fn(ctx, local, remote, op); err != nil {
			return err
		}
	}
	if op == OpAttach {
		err = a.attach(ctx, local, remote)
	} else {
		err = a.detach(ctx, local, remote)
	}
	if err != nil {
		return err
	}
	for _, fn := range a.after {
		if err := fn(ctx, local, remote, op); err != nil {
			return err
		}
	}
	return nil
}

func (a *Assoc) attach(ctx context.Context, local, remote *orm.Row) error {
	switch {
	case a.throughType != nil:
		_, err := a.throughORM.FirstOrCreate(ctx, map[string]any{
			a.LocalKey:  local.Get(a.local.pkey),
			a.RemoteKey: remote.Get(a.RemotePKey),
		})
		return err
	case a.Type == BelongsTo:
		return a.localORM.Update(ctx, local, map[string]any{a.LocalKey: remote.Get(a.remoteMatchKey())})
	default:
		return a.remoteORM.Update(ctx, remote, map[string]any{a.RemoteKey: local.Get(a.localValueKey())})
	}
}

func (a *Assoc) detach(ctx context.Context, local, remote *orm.Row) error {
	switch {
	case a.throughType != nil:
		_, err := a.throughORM.Delete(ctx, orm.Where(map[string]any{
			a.LocalKey:  local.Get(a.local.pkey),
			a.RemoteKey: remote.Get(a.RemotePKey),
		}))
		return err
	case a.Type == BelongsTo:
		if !same(local.Get(a.LocalKey), remote.Get(a.remoteMatchKey())) {
			return nil
		}
		return a.localORM.Update(ctx, local, map[string]any{a.LocalKey: nil})
	default:
		if !same(remote.Get(a.RemoteKey), local.Get(a.localValueKey())) {
			return nil
		}
		return a.remoteORM.Update(ctx, remote, map[string]any{a.RemoteKey: nil})
	}
}

func same(a, b any) bool {
	return a != nil && b != nil && fmt.Sprint(a) == fmt.Sprint(b)
}

// buildAssociations declares an association for every selected relation
// of the model that has none. Self referencing relations are declared
// only as a tree, when both a has-n and a belongs-to side exist and the
// tree is not ignored; otherwise they are skipped.
func (c *Controller) buildAssociations() {
	if c.noRelations {
		return
	}
	rels := orm.Relations(c.typ)
	names := make([]string, len(rels))
	for i, r := range rels {
		names[i] = r.Name
	}
	selected := selector(names, c.relationsOpted, c.relationsIgnored)
	var children, parent *orm.Relation
	var rest []orm.Relation
	for _, r := range rels {
		if !slices.Contains(selected, r.Name) || c.Assoc(r.Name) != nil {
			continue
		}
		if r.Remote == c.typ {
			switch {
			case r.Through != nil:
			case r.Type == HasN && children == nil:
				children = &r
			case r.Type == BelongsTo && parent == nil:
				parent = &r
			}
			continue
		}
		rest = append(rest, r)
	}
	if children != nil && parent != nil && !c.treeIgnored {
		ch, pa := *children, *parent
		c.IsTree(ch.Name, pa.Name, func(a *Assoc) {
			a.LocalKey, a.RemoteKey = pa.Edge.Column(), pa.Edge.Column()
			annotate(a, a.Name == ch.Name, ch.Edge, pa.Edge)
		})
	}
	for _, r := range rest {
		fn := func(a *Assoc) {
			switch {
			case r.Through != nil:
				if cols := r.Edge.Rel.Columns; len(cols) == 2 {
					a.LocalKey, a.RemoteKey = cols[0], cols[1]
				}
			case r.Type == BelongsTo:
				a.LocalKey = r.Edge.Column()
			default:
				a.RemoteKey = r.Edge.Column()
			}
			annotate(a, true, r.Edge, nil)
		}
		if r.Type == BelongsTo {
			c.BelongsTo(r.Name, r.Remote, fn)
		} else {
			c.HasN(r.Name, r.Remote, r.Through, fn)
		}
	}
}

// annotate applies the edge annotation of first, or of second when
// useFirst is false.
func annotate(a *Assoc, useFirst bool, first, second *graph.Edge) {
	e := first
	if !useFirst {
		e = second
	}
	if e == nil {
		return
	}
	ant := e.Annotation
	if ant.Label != "" {
		a.Label = ant.Label
	}
	a.Readonly = a.Readonly || ant.Readonly
	for _, col := range ant.Columns {
		a.Column(col, "")
	}
}
