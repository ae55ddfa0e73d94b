package admin

import (
	"context"
	"fmt"
	"html"
	"slices"
	"strconv"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/singleflight"

	"github.com/syssam/saint"
	"github.com/syssam/saint/cache"
	"github.com/syssam/saint/internal/inflector"
	"github.com/syssam/saint/orm"
)

// Opt is a setting of an OptsPool.
type Opt struct {
	Name    string
	Type    string
	Details string
	Default any
	Options []OptionItem
}

// OptOpts configures an opt.
type OptOpts struct {
	Details string
	Default any
	// Options are the choices of select opts. See Options.
	Options []any
}

// OptInfo describes an opt on edit pages.
type OptInfo struct {
	Name    string `json:"name"`
	Details string `json:"details,omitempty"`
}

// OptField describes the editor of an opt value.
type OptField struct {
	Type    string       `json:"type"`
	Value   any          `json:"value"`
	Default any          `json:"default,omitempty"`
	Options []OptionItem `json:"options,omitempty"`
}

// OptsPool holds the definitions of a set of opts and their values.
// Values live in a saint.Cache, so pools sharing a persistent cache see
// the updates of each other.
type OptsPool struct {
	cache saint.Cache
	table string
	mu    sync.RWMutex
	opts  []*Opt
	sf    singleflight.Group
}

// NewOptsPool returns an empty pool storing values in c under the table
// namespace. A nil cache is replaced by a memory cache and an empty
// table by the name of the controller editing the pool.
func NewOptsPool(c saint.Cache, table string) *OptsPool {
	if c == nil {
		c = cache.NewMemory()
	}
	return &OptsPool{cache: c, table: inflector.Normalize(table)}
}

// Opt defines an opt, replacing any opt of the same name. Names are
// normalized to lower snake case and the type defaults to string.
func (p *OptsPool) Opt(name, typ string, o OptOpts) *OptsPool {
	if typ == "" {
		typ = TypeString
	}
	opt := &Opt{
		Name:    inflector.Normalize(name),
		Type:    typ,
		Details: o.Details,
		Default: o.Default,
		Options: optionItems(o.Options...),
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if i := slices.IndexFunc(p.opts, func(x *Opt) bool { return x.Name == opt.Name }); i >= 0 {
		p.opts[i] = opt
	} else {
		p.opts = append(p.opts, opt)
	}
	return p
}

// Table returns the namespace of the pool values.
func (p *OptsPool) Table() string {
	return p.table
}

// Opts returns the opt definitions in declaration order.
func (p *OptsPool) Opts() []*Opt {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.opts)
}

// Lookup returns the definition of the named opt.
func (p *OptsPool) Lookup(name string) (*Opt, bool) {
	name = inflector.Normalize(name)
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, o := range p.opts {
		if o.Name == name {
			return o, true
		}
	}
	return nil, false
}

func (p *OptsPool) key(name string) string {
	return saint.CacheKey{Table: p.table, Name: name}.String()
}

// Get returns the value of the named opt, or its default when it has
// none. Unknown opts have no value.
func (p *OptsPool) Get(ctx context.Context, name string) (any, error) {
	opt, ok := p.Lookup(name)
	if !ok {
		return nil, nil
	}
	b, err := p.cache.Get(ctx, p.key(opt.Name))
	if err != nil {
		return nil, fmt.Errorf("admin: opt %q: %w", opt.Name, err)
	}
	if b == nil {
		return opt.Default, nil
	}
	var v any
	if err := msgpack.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("admin: opt %q: %w", opt.Name, err)
	}
	if v == nil {
		return opt.Default, nil
	}
	return v, nil
}

// Set stores the value of the named opt.
func (p *OptsPool) Set(ctx context.Context, name string, v any) error {
	opt, ok := p.Lookup(name)
	if !ok {
		return fmt.Errorf("admin: unknown opt %q", name)
	}
	b, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("admin: opt %q: %w", opt.Name, err)
	}
	return p.cache.Set(ctx, p.key(opt.Name), b, 0)
}

// setupOpts turns the controller into the editor of its pool: one row
// per opt with a read only name and an editable value.
func (c *Controller) setupOpts() {
	pool := c.opts
	if pool.table == "" {
		pool.table = inflector.Normalize(c.name)
	}
	c.Header(HeaderOpts{NoLabel: true, Func: optsHeader})
	c.Create(false)
	c.Delete(false)
	c.Grid("", GridOpts{}, func(c *Controller) {
		c.Column("name", TypePlain, HTML(), Label("Option"), Value(func(_ any, vc ValueContext) any {
			if vc.Row == nil {
				return nil
			}
			opt, ok := pool.Lookup(display(vc.Row.Get("name")))
			if !ok {
				return nil
			}
			if vc.Scope == ScopeSummary {
				return html.EscapeString(inflector.Titleize(opt.Name))
			}
			return OptInfo{Name: inflector.Titleize(opt.Name), Details: opt.Details}
		}))
		c.Column("value", TypePlain, HTML(), Save(true), Value(func(v any, vc ValueContext) any {
			switch vc.Scope {
			case ScopeSummary:
				return html.EscapeString(display(v))
			case ScopeCrud:
				if vc.Row == nil {
					return nil
				}
				opt, ok := pool.Lookup(display(vc.Row.Get("name")))
				if !ok {
					return nil
				}
				return OptField{Type: opt.Type, Value: v, Default: opt.Default, Options: opt.Options}
			}
			return nil
		}))
	})
	c.After(func(ctx context.Context, row *orm.Row, _ orm.Op) error {
		return pool.Set(ctx, display(row.Get("name")), row.Get("value"))
	}, orm.OpSave)
	c.OnRequest(c.OptsUpdater)
}

// OptsUpdater makes sure every opt of the pool has a row, creating the
// missing ones with the default value, and loads the stored values into
// the pool. Concurrent calls share one run.
func (c *Controller) OptsUpdater(ctx context.Context) error {
	if c.opts == nil {
		return nil
	}
	_, err, _ := c.opts.sf.Do(c.name, func() (any, error) {
		return nil, c.syncOpts(ctx)
	})
	return err
}

func (c *Controller) syncOpts(ctx context.Context) error {
	for _, opt := range c.opts.Opts() {
		row, err := c.orm.First(ctx, orm.Eql("name", opt.Name))
		switch {
		case saint.IsNotFound(err):
			if row, err = c.orm.Create(ctx, map[string]any{"name": opt.Name, "value": opt.Default}); err != nil {
				return fmt.Errorf("admin: create opt %q: %w", opt.Name, err)
			}
		case err != nil:
			return err
		}
		if err := c.opts.Set(ctx, opt.Name, row.Get("value")); err != nil {
			return err
		}
	}
	return nil
}

// OptsReader reads opts from the pools of a list of editors. Lookups
// go through the editors in order and return the first value found.
type OptsReader struct {
	managers []*Controller
}

// NewOptsReader returns a reader of the opts edited by managers, after
// syncing each of them with the database.
func NewOptsReader(ctx context.Context, managers ...*Controller) (*OptsReader, error) {
	for _, m := range managers {
		if m.opts == nil {
			return nil, fmt.Errorf("admin: controller %q does not edit opts", m.name)
		}
		if err := m.OptsUpdater(ctx); err != nil {
			return nil, err
		}
	}
	return &OptsReader{managers: managers}, nil
}

// Get returns the value of the named opt. Boolean opts are true only
// for true and "true".
func (r *OptsReader) Get(ctx context.Context, name string) (any, error) {
	var (
		def *Opt
		val any
	)
	for _, m := range r.managers {
		opt, ok := m.opts.Lookup(name)
		if !ok {
			continue
		}
		if def == nil {
			def = opt
		}
		v, err := m.opts.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		if v != nil && v != false {
			val = v
			break
		}
	}
	if def == nil {
		return nil, saint.NewNotFoundErrorWithID("opt", name)
	}
	if def.Type == TypeBoolean {
		return val == true || val == "true", nil
	}
	return val, nil
}

// String returns the named opt formatted as a string, empty when the
// opt is unknown.
func (r *OptsReader) String(ctx context.Context, name string) string {
	v, err := r.Get(ctx, name)
	if err != nil {
		return ""
	}
	return display(v)
}

// Bool returns the named opt as a boolean.
func (r *OptsReader) Bool(ctx context.Context, name string) bool {
	v, err := r.Get(ctx, name)
	if err != nil {
		return false
	}
	b, _ := v.(bool)
	if !b {
		b, _ = strconv.ParseBool(display(v))
	}
	return b
}

// Int returns the named opt as an integer, or def when it is unknown or
// not a number.
func (r *OptsReader) Int(ctx context.Context, name string, def int) int {
	n, err := strconv.Atoi(r.String(ctx, name))
	if err != nil {
		return def
	}
	return n
}
