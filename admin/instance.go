package admin

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/syssam/saint/orm"
)

// Request parameters read by an Instance.
const (
	ParamPage   = "page"
	ParamOrder  = "order"
	ParamDir    = "dir"
	ParamSubset = "subset"
)

type instanceKey struct{}

// NewContext returns a context carrying the instance.
func NewContext(ctx context.Context, i *Instance) context.Context {
	return context.WithValue(ctx, instanceKey{}, i)
}

// FromContext returns the instance carried by ctx, nil if none. Hooks
// use it to reach the controller serving the request.
func FromContext(ctx context.Context) *Instance {
	i, _ := ctx.Value(instanceKey{}).(*Instance)
	return i
}

// Instance is the view of a controller serving one request. It owns an
// ORM with the controller hooks bound to it.
type Instance struct {
	ctrl *Controller
	orm  *orm.ORM
	ctx  context.Context
}

// Instance returns the instance serving the request of ctx.
func (c *Controller) Instance(ctx context.Context) *Instance {
	i := &Instance{ctrl: c, orm: c.orm.Clone()}
	for _, h := range c.before {
		i.orm.Before(h.fn, h.ops...)
	}
	for _, h := range c.after {
		i.orm.After(h.fn, h.ops...)
	}
	i.ctx = NewContext(ctx, i)
	return i
}

// Controller returns the controller of the instance.
func (i *Instance) Controller() *Controller { return i.ctrl }

// ORM returns the ORM of the instance.
func (i *Instance) ORM() *orm.ORM { return i.orm }

// Context returns the request context, carrying the instance.
func (i *Instance) Context() context.Context { return i.ctx }

// Value returns the value of a column for row in the given scope.
func (i *Instance) Value(col *Column, row *orm.Row, scope Scope) any {
	return col.Value(i.ctx, row, scope)
}

// H renders the header of row. See Controller.H.
func (i *Instance) H(row *orm.Row, opts HOpts) string {
	return i.ctrl.H(i.ctx, row, opts)
}

// Ordered returns the sort queries of a summary: the column and
// direction given in params when the column belongs to the model,
// otherwise the controller order.
func (i *Instance) Ordered(params url.Values) []orm.Query {
	if col := params.Get(ParamOrder); col != "" {
		if _, ok := i.ctrl.typ.Field(col); ok {
			if dir, err := orm.Direction(params.Get(ParamDir)); err == nil {
				return []orm.Query{orm.Order(col, dir)}
			}
		}
	}
	terms := i.ctrl.Ordering()
	qs := make([]orm.Query, len(terms))
	for j, t := range terms {
		qs[j] = orm.Order(t.Column, t.Dir)
	}
	return qs
}

// Subset restricts the instance ORM to the named subset of the
// controller. Unknown names are ignored.
func (i *Instance) Subset(name string) bool {
	for _, s := range i.ctrl.subsets {
		if s.Name == name {
			i.orm.Subset(s.Filters)
			return true
		}
	}
	return false
}

// FilterInstances returns the active filters of params.
func (i *Instance) FilterInstances(params url.Values) []ActiveFilter {
	return i.ctrl.FilterInstances(params)
}

// SummaryPage is a page of rows.
type SummaryPage struct {
	Rows    []*orm.Row
	Total   int
	Page    int
	Pages   int
	PerPage int
	Subset  string
	Filters []ActiveFilter
}

// Summary returns the page of rows selected by params: page number,
// subset, filters and order.
func (i *Instance) Summary(params url.Values) (*SummaryPage, error) {
	per := i.ctrl.PerPage()
	p := &SummaryPage{Page: 1, PerPage: per}
	if n, err := strconv.Atoi(strings.TrimSpace(params.Get(ParamPage))); err == nil && n > 0 {
		p.Page = n
	}
	if name := params.Get(ParamSubset); name != "" && i.Subset(name) {
		p.Subset = name
	}
	p.Filters = i.FilterInstances(params)
	qs := i.ctrl.Conditions(params)
	total, err := i.orm.Count(i.ctx, qs...)
	if err != nil {
		return nil, err
	}
	p.Total = total
	p.Pages = (total + per - 1) / per
	qs = append(qs, i.Ordered(params)...)
	qs = append(qs, orm.Limit(per, (p.Page-1)*per))
	if p.Rows, err = i.orm.Filter(i.ctx, qs...); err != nil {
		return nil, err
	}
	return p, nil
}
