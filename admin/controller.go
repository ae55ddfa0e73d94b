package admin

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/syssam/saint"
	"github.com/syssam/saint/graph"
	"github.com/syssam/saint/internal/inflector"
	"github.com/syssam/saint/orm"
)

// Capability is an operation a controller may allow or refuse.
type Capability string

// Capabilities of a controller. All are granted by default.
const (
	CapCreate Capability = "create"
	CapUpdate Capability = "update"
	CapDelete Capability = "delete"
)

// ControllerOption configures a controller when it is created.
type ControllerOption func(*Controller)

// WithURL sets the path the controller is mounted at. It defaults to
// "/" followed by the controller name.
func WithURL(url string) ControllerOption {
	return func(c *Controller) {
		c.url = "/" + strings.Trim(url, "/")
	}
}

// WithWrapper sets the wrapper applied to the values of every column
// that has none.
func WithWrapper(w Wrapper) ControllerOption {
	return func(c *Controller) {
		c.wrapper = w
	}
}

// OrderTerm is a single sort key.
type OrderTerm struct {
	Column string
	Dir    string // ASC or DESC
}

// Subset is a named set of conditions a summary can be restricted to.
type Subset struct {
	Name    string
	Filters map[string]any
}

type hookDef struct {
	fn  orm.Hook
	ops []orm.Op
}

type headerDef struct {
	snippets []string
	fn       HeaderFunc
	label    string
	noLabel  bool
}

// Controller holds the admin configuration of one model. It is
// configured once at startup and read-only afterwards; per request
// state lives in an Instance.
type Controller struct {
	reg       *Registry
	name      string
	url       string
	typ       *graph.Type
	orm       *orm.ORM
	pkey      string
	ipp       int
	header    headerDef
	disabled  map[Capability]bool
	dashboard bool
	before    []hookDef
	after     []hookDef
	order     []OrderTerm
	subsets   []Subset
	onRequest []func(context.Context) error
	wrapper   Wrapper
	errs      []error

	inModel      bool
	modelDefined bool

	// columns
	columns        []*Column
	columnsOpted   []any
	columnsIgnored []any
	noColumns      bool
	layout         string
	grid           *Grid
	grids          []*Grid

	// associations
	assocs           []*Assoc
	relationsOpted   []any
	relationsIgnored []any
	noRelations      bool
	treeIgnored      bool

	// filters
	filters        []*Filter
	filtersOpted   []any
	filtersIgnored []any
	noFilters      bool

	opts *OptsPool
}

func newController(r *Registry, name string, opts ...ControllerOption) *Controller {
	c := &Controller{
		reg:       r,
		name:      name,
		url:       "/" + strings.Trim(name, "/"),
		disabled:  make(map[Capability]bool),
		dashboard: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) errorf(method, format string, args ...any) {
	c.errs = append(c.errs, saint.NewConfigError(c.name, method, format, args...))
}

// Errors returns the configuration errors recorded so far.
func (c *Controller) Errors() []error {
	return c.errs
}

// Name returns the controller name.
func (c *Controller) Name() string {
	return c.name
}

// URL returns the path the controller is mounted at.
func (c *Controller) URL() string {
	return c.url
}

// Registry returns the registry of the controller.
func (c *Controller) Registry() *Registry {
	return c.reg
}

// Model sets the managed model and runs fn, the model block. Automatic
// associations, columns and filters are built once fn returns, so fn is
// the place to select or ignore them.
//
//	pages.Model(Page{}, func(c *admin.Controller) {
//		c.ColumnsIgnored("body")
//		c.RelationsIgnored(regexp.MustCompile("^tag"))
//	})
func (c *Controller) Model(model any, fn func(*Controller)) *Controller {
	if c.typ != nil {
		c.errorf("Model", "model already defined as %s", c.typ.Name)
		return c
	}
	t, err := c.reg.typeOf(model)
	if err != nil {
		c.errorf("Model", "%v", err)
		return c
	}
	c.typ = t
	if c.pkey == "" {
		c.pkey = orm.PrimaryKey(t)
	}
	c.orm = c.reg.orm(t)
	if fn != nil {
		c.inModel = true
		fn(c)
		c.inModel = false
	}
	c.modelDefined = true
	c.buildAssociations()
	c.buildColumns()
	c.buildFilters()
	return c
}

// Type returns the managed model type, nil before Model.
func (c *Controller) Type() *graph.Type {
	return c.typ
}

// ORM returns the ORM of the model, without the controller hooks. See
// Instance for the ORM used to serve requests.
func (c *Controller) ORM() *orm.ORM {
	return c.orm
}

// PKey sets the primary key field. It defaults to the key of the model.
func (c *Controller) PKey(name string) *Controller {
	c.pkey = name
	return c
}

// PrimaryKey returns the primary key field.
func (c *Controller) PrimaryKey() string {
	return c.pkey
}

// ItemsPerPage sets the page size of the summary.
func (c *Controller) ItemsPerPage(n int) *Controller {
	c.ipp = n
	return c
}

// PerPage returns the page size of the summary, falling back to the
// registry default.
func (c *Controller) PerPage() int {
	if c.ipp > 0 {
		return c.ipp
	}
	return c.reg.ItemsPerPage()
}

// Create allows or refuses creating rows.
func (c *Controller) Create(enabled bool) *Controller {
	return c.capability(CapCreate, enabled)
}

// Update allows or refuses updating rows.
func (c *Controller) Update(enabled bool) *Controller {
	return c.capability(CapUpdate, enabled)
}

// Delete allows or refuses deleting rows.
func (c *Controller) Delete(enabled bool) *Controller {
	return c.capability(CapDelete, enabled)
}

func (c *Controller) capability(cp Capability, enabled bool) *Controller {
	c.disabled[cp] = !enabled
	return c
}

// Can reports if the controller allows the capability.
func (c *Controller) Can(cp Capability) bool {
	return !c.disabled[cp]
}

// Require returns a *saint.CapabilityError if the capability is refused.
func (c *Controller) Require(cp Capability) error {
	if c.Can(cp) {
		return nil
	}
	return &saint.CapabilityError{Controller: c.name, Capability: string(cp)}
}

// Dashboard sets if the controller is listed on the dashboard.
func (c *Controller) Dashboard(show bool) *Controller {
	c.dashboard = show
	return c
}

// OnDashboard reports if the controller is listed on the dashboard.
func (c *Controller) OnDashboard() bool {
	return c.dashboard
}

// Before registers a hook run by the request ORM before the given
// operations. See orm.ORM.Before.
func (c *Controller) Before(fn orm.Hook, ops ...orm.Op) *Controller {
	c.before = append(c.before, hookDef{fn: fn, ops: ops})
	return c
}

// After registers a hook run by the request ORM after the given
// operations. See orm.ORM.After.
func (c *Controller) After(fn orm.Hook, ops ...orm.Op) *Controller {
	c.after = append(c.after, hookDef{fn: fn, ops: ops})
	return c
}

// OnRequest registers fn to run before every request served by the
// controller.
func (c *Controller) OnRequest(fn func(context.Context) error) *Controller {
	c.onRequest = append(c.onRequest, fn)
	return c
}

// Prepare runs the OnRequest functions.
func (c *Controller) Prepare(ctx context.Context) error {
	for _, fn := range c.onRequest {
		if err := fn(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Order adds a sort key to the summary. Without any, rows are sorted
// by primary key, newest first.
func (c *Controller) Order(column, dir string) *Controller {
	d, err := orm.Direction(dir)
	if err != nil {
		c.errorf("Order", "%v", err)
		return c
	}
	c.order = append(c.order, OrderTerm{Column: column, Dir: d})
	return c
}

// Ordering returns the sort keys of the summary.
func (c *Controller) Ordering() []OrderTerm {
	if len(c.order) > 0 {
		return c.order
	}
	if c.pkey == "" {
		return nil
	}
	return []OrderTerm{{Column: c.pkey, Dir: "DESC"}}
}

// Subset declares a named restriction of the summary.
func (c *Controller) Subset(name string, filters map[string]any) *Controller {
	i := slices.IndexFunc(c.subsets, func(s Subset) bool { return s.Name == name })
	if i >= 0 {
		c.subsets[i].Filters = filters
		return c
	}
	c.subsets = append(c.subsets, Subset{Name: name, Filters: filters})
	return c
}

// Subsets returns the declared subsets.
func (c *Controller) Subsets() []Subset {
	return c.subsets
}

// Columns selects the automatic columns. Entries are names or
// *regexp.Regexp; a single false disables automatic columns. It can be
// called only inside the model block.
func (c *Controller) Columns(names ...any) *Controller {
	if !c.configurable("Columns") {
		return c
	}
	if disabled(names) {
		c.noColumns = true
		return c
	}
	c.columnsOpted = append(c.columnsOpted, names...)
	return c
}

// ColumnsIgnored leaves the matching automatic columns out. It can be
// called only inside the model block.
func (c *Controller) ColumnsIgnored(names ...any) *Controller {
	if c.configurable("ColumnsIgnored") {
		c.columnsIgnored = append(c.columnsIgnored, names...)
	}
	return c
}

// Relations selects the automatic associations. See Columns.
func (c *Controller) Relations(names ...any) *Controller {
	if !c.configurable("Relations") {
		return c
	}
	if disabled(names) {
		c.noRelations = true
		return c
	}
	c.relationsOpted = append(c.relationsOpted, names...)
	return c
}

// RelationsIgnored leaves the matching automatic associations out.
func (c *Controller) RelationsIgnored(names ...any) *Controller {
	if c.configurable("RelationsIgnored") {
		c.relationsIgnored = append(c.relationsIgnored, names...)
	}
	return c
}

// TreeIgnored keeps self referencing relations from becoming a tree.
// They are then not declared automatically at all.
func (c *Controller) TreeIgnored() *Controller {
	if c.configurable("TreeIgnored") {
		c.treeIgnored = true
	}
	return c
}

// Filters selects the automatic filters. See Columns.
func (c *Controller) Filters(names ...any) *Controller {
	if !c.configurable("Filters") {
		return c
	}
	if disabled(names) {
		c.noFilters = true
		return c
	}
	c.filtersOpted = append(c.filtersOpted, names...)
	return c
}

// FiltersIgnored leaves the matching automatic filters out.
func (c *Controller) FiltersIgnored(names ...any) *Controller {
	if c.configurable("FiltersIgnored") {
		c.filtersIgnored = append(c.filtersIgnored, names...)
	}
	return c
}

func (c *Controller) configurable(method string) bool {
	if c.modelDefined {
		c.errorf(method, "please call %s only inside Model block", method)
		return false
	}
	return true
}

func disabled(args []any) bool {
	if len(args) != 1 {
		return false
	}
	b, ok := args[0].(bool)
	return ok && !b
}

// selector returns the names to use: the opted ones in default order if
// any was opted, otherwise the names not ignored. Entries of opted and
// ignored are strings or *regexp.Regexp.
func selector(names []string, opted, ignored []any) []string {
	if len(opted) > 0 {
		var out []string
		for _, n := range names {
			if matchAny(n, opted) {
				out = append(out, n)
			}
		}
		return out
	}
	if len(ignored) > 0 {
		var out []string
		for _, n := range names {
			if !matchAny(n, ignored) {
				out = append(out, n)
			}
		}
		return out
	}
	return names
}

func matchAny(name string, patterns []any) bool {
	for _, p := range patterns {
		switch p := p.(type) {
		case string:
			if p == name {
				return true
			}
		case *regexp.Regexp:
			if p.MatchString(name) {
				return true
			}
		case fmt.Stringer:
			if p.String() == name {
				return true
			}
		}
	}
	return false
}

// Label returns the controller label: the titleized, pluralized name or
// the label given to Header.
func (c *Controller) Label(singular bool) string {
	label := c.header.label
	if label == "" {
		label = inflector.Pluralize(inflector.Titleize(c.name))
	}
	if singular {
		label = inflector.Singularize(label)
	}
	return label
}

// Opts turns the controller into an editor of the opts of pool. See
// OptsPool.
func (c *Controller) Opts(pool *OptsPool) *Controller {
	if !c.modelDefined {
		c.errorf("Opts", "please define Model before dealing with Opts")
		return c
	}
	for _, name := range []string{"name", "value"} {
		if _, ok := c.typ.Field(name); !ok {
			c.errorf("Opts", "model %s has no %q field", c.typ.Name, name)
			return c
		}
	}
	c.opts = pool
	c.setupOpts()
	return c
}

// OptsPool returns the pool edited by the controller, nil unless Opts
// was called.
func (c *Controller) OptsPool() *OptsPool {
	return c.opts
}
