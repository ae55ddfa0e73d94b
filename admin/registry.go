package admin

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/syssam/saint"
	"github.com/syssam/saint/dialect"
	"github.com/syssam/saint/graph"
	"github.com/syssam/saint/orm"
)

// DefaultItemsPerPage is the page size of controllers and registries
// that do not set one.
const DefaultItemsPerPage = 10

// Option configures a Registry.
type Option func(*Registry)

// WithItemsPerPage sets the default page size of the controllers.
func WithItemsPerPage(n int) Option {
	return func(r *Registry) {
		r.SetItemsPerPage(n)
	}
}

// WithLogger sets the logger of the registry and of the ORMs it creates.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.log = l
	}
}

// Registry holds the controllers of an admin and the associations
// declared between them.
type Registry struct {
	drv       dialect.Driver
	graph     *graph.Graph
	log       *slog.Logger
	ipp       atomic.Int64
	ctrls     []*Controller
	byName    map[string]*Controller
	relations map[string]*Assoc
	booted    bool
}

// NewRegistry returns an empty registry for the types of g stored in drv.
func NewRegistry(drv dialect.Driver, g *graph.Graph, opts ...Option) *Registry {
	r := &Registry{
		drv:       drv,
		graph:     g,
		log:       slog.New(slog.DiscardHandler),
		byName:    make(map[string]*Controller),
		relations: make(map[string]*Assoc),
	}
	r.ipp.Store(DefaultItemsPerPage)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewController creates a controller and registers it under name.
// Registering the same name twice is a configuration error reported by
// Boot.
func (r *Registry) NewController(name string, opts ...ControllerOption) *Controller {
	c := newController(r, name, opts...)
	if _, ok := r.byName[name]; ok {
		c.errorf("NewController", "controller %q is already registered", name)
	} else {
		r.byName[name] = c
	}
	r.ctrls = append(r.ctrls, c)
	return c
}

// Controller returns the controller registered under name.
func (r *Registry) Controller(name string) (*Controller, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// Controllers returns the controllers in registration order.
func (r *Registry) Controllers() []*Controller {
	return r.ctrls
}

// Relation returns the association with the given id.
func (r *Registry) Relation(id string) (*Assoc, bool) {
	a, ok := r.relations[id]
	return a, ok
}

// Driver returns the database driver.
func (r *Registry) Driver() dialect.Driver {
	return r.drv
}

// Graph returns the schema graph.
func (r *Registry) Graph() *graph.Graph {
	return r.graph
}

// Logger returns the registry logger.
func (r *Registry) Logger() *slog.Logger {
	return r.log
}

// ItemsPerPage returns the default page size.
func (r *Registry) ItemsPerPage() int {
	return int(r.ipp.Load())
}

// SetItemsPerPage changes the default page size. It is safe to call
// while requests are served. Values below 1 are ignored.
func (r *Registry) SetItemsPerPage(n int) {
	if n > 0 {
		r.ipp.Store(int64(n))
	}
}

// Booted reports if Boot succeeded.
func (r *Registry) Booted() bool {
	return r.booted
}

// Boot checks the configuration of every controller and returns the
// errors recorded while they were configured. The registry must not be
// served when Boot fails.
func (r *Registry) Boot() error {
	var errs []error
	for _, c := range r.ctrls {
		if c.typ == nil {
			c.errorf("Model", "no model defined")
		}
		for _, a := range c.assocs {
			if rc := a.remoteCtrl; rc != nil && rc.typ != nil && rc.typ != a.remoteType {
				c.errorf(a.Type, "%s: remote controller %q manages %s, not %s", a.Name, rc.name, rc.typ.Name, a.remoteType.Name)
			}
		}
		errs = append(errs, c.errs...)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("admin: boot: %w", err)
	}
	r.booted = true
	r.log.Info("admin booted", slog.Int("controllers", len(r.ctrls)), slog.Int("relations", len(r.relations)))
	return nil
}

func (r *Registry) orm(t *graph.Type) *orm.ORM {
	return orm.New(r.drv, t, orm.WithLogger(r.log))
}

func (r *Registry) typeOf(model any) (*graph.Type, error) {
	if model == nil {
		return nil, errors.New("nil model")
	}
	if _, ok := model.(*graph.Type); !ok {
		if _, ok := model.(saint.Interface); !ok {
			return nil, fmt.Errorf("%T is not a model schema", model)
		}
	}
	return r.graph.TypeOf(model)
}
