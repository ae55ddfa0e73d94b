package graph

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/syssam/saint"
	"github.com/syssam/saint/internal/inflector"
	"github.com/syssam/saint/schema"
	"github.com/syssam/saint/schema/edge"
	"github.com/syssam/saint/schema/field"
)

// IDName is the name of the implicit primary key field.
const IDName = "id"

type (
	// Graph holds the resolved model types and their relations.
	Graph struct {
		Types  []*Type
		byName map[string]*Type
	}

	// Type represents one model schema after its mixins, fields and
	// edges have been resolved.
	Type struct {
		Name        string
		Table       string
		Comment     string
		ID          *Field
		Fields      []*Field
		Edges       []*Edge
		Annotations map[string]any
		schema      saint.Interface
	}

	// Field is a resolved model field.
	Field struct {
		Name          string
		Column        string
		Type          field.Type
		Size          int
		Enums         []struct{ N, V string }
		Unique        bool
		Nillable      bool
		Optional      bool
		Immutable     bool
		Sensitive     bool
		Default       any
		UpdateDefault any
		Comment       string
		Annotation    field.Annotation
		// FK is set for foreign-key columns that were added because an
		// edge needs them and no field with that name was declared.
		FK   bool
		desc *field.Descriptor
	}

	// Edge is a resolved model edge.
	Edge struct {
		Name       string
		Type       *Type // target type
		Owner      *Type
		Rel        Relation
		Inverse    string // ref name of an inverse edge
		Ref        *Edge  // counterpart edge, if any
		Through    *Type  // join model
		Unique     bool
		Required   bool
		Immutable  bool
		Field      string // user defined foreign-key field
		Comment    string
		Annotation edge.Annotation
		desc       *edge.Descriptor
	}

	// Relation describes where the relation of an edge is stored.
	// For M2M edges Table is the join table and Columns holds the join
	// columns of the owner and of the target, in this order. Otherwise
	// Table holds the single foreign-key column.
	Relation struct {
		Type    Rel
		Table   string
		Columns []string
	}
)

// Rel is a relation type of an edge.
type Rel int

// Relation types.
const (
	Unk Rel = iota // Unknown.
	O2O            // One to one / has one.
	O2M            // One to many / has many.
	M2O            // Many to one (inverse perspective for O2M).
	M2M            // Many to many.
)

// String returns the relation name.
func (r Rel) String() string {
	s := "Unknown"
	switch r {
	case O2O:
		s = "O2O"
	case O2M:
		s = "O2M"
	case M2O:
		s = "M2O"
	case M2M:
		s = "M2M"
	}
	return s
}

// New builds the graph of the given schemas. Types referenced by edges
// but not listed are loaded from the edge descriptors.
func New(schemas ...saint.Interface) (*Graph, error) {
	g := &Graph{byName: make(map[string]*Type)}
	for _, s := range schemas {
		if _, err := g.load(s); err != nil {
			return nil, err
		}
	}
	// Edges may add types to the graph, so the loop reads the length
	// on every iteration.
	for i := 0; i < len(g.Types); i++ {
		if err := g.addEdges(g.Types[i]); err != nil {
			return nil, err
		}
	}
	if err := g.resolve(); err != nil {
		return nil, err
	}
	return g, nil
}

// MustNew is like New but panics on error.
func MustNew(schemas ...saint.Interface) *Graph {
	g, err := New(schemas...)
	if err != nil {
		panic(err)
	}
	return g
}

// Type returns the type with the given name.
func (g *Graph) Type(name string) (*Type, bool) {
	t, ok := g.byName[name]
	return t, ok
}

// TypeOf returns the type of the given schema value.
func (g *Graph) TypeOf(s any) (*Type, error) {
	if t, ok := s.(*Type); ok {
		return t, nil
	}
	rt := reflect.TypeOf(s)
	if rt == nil {
		return nil, errors.New("graph: nil schema")
	}
	for rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	t, ok := g.byName[rt.Name()]
	if !ok {
		return nil, fmt.Errorf("graph: schema %q is not part of the graph", rt.Name())
	}
	return t, nil
}

func (g *Graph) load(s saint.Interface) (*Type, error) {
	rt := reflect.TypeOf(s)
	if rt == nil {
		return nil, errors.New("graph: nil schema")
	}
	for rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	name := rt.Name()
	if t, ok := g.byName[name]; ok {
		return t, nil
	}
	t := &Type{
		Name:        name,
		Table:       inflector.Tableize(name),
		Annotations: make(map[string]any),
		schema:      s,
	}
	if table := s.Config().Table; table != "" {
		t.Table = table
	}
	for _, ant := range s.Annotations() {
		if c, ok := ant.(*schema.CommentAnnotation); ok {
			t.Comment = c.Text
		}
		schema.Merge(t.Annotations, ant)
	}
	mixins, err := safeMixin(s)
	if err != nil {
		return nil, fmt.Errorf("graph: %s: %w", name, err)
	}
	var fields []saint.Field
	for _, m := range mixins {
		fs, err := safeFields(m)
		if err != nil {
			return nil, fmt.Errorf("graph: %s: %w", name, err)
		}
		fields = append(fields, fs...)
	}
	fs, err := safeFields(s)
	if err != nil {
		return nil, fmt.Errorf("graph: %s: %w", name, err)
	}
	fields = append(fields, fs...)
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		fd := f.Descriptor()
		if fd.Err != nil {
			return nil, fmt.Errorf("graph: %s: field %q: %w", name, fd.Name, fd.Err)
		}
		if seen[fd.Name] {
			return nil, fmt.Errorf("graph: %s: duplicate field %q", name, fd.Name)
		}
		seen[fd.Name] = true
		nf := newField(fd)
		if fd.Name == IDName {
			t.ID = nf
			continue
		}
		t.Fields = append(t.Fields, nf)
	}
	if t.ID == nil {
		t.ID = &Field{Name: IDName, Column: IDName, Type: field.TypeInt64}
	}
	g.Types = append(g.Types, t)
	g.byName[name] = t
	return t, nil
}

func newField(fd *field.Descriptor) *Field {
	return &Field{
		Name:          fd.Name,
		Column:        fd.Column(),
		Type:          fd.Info.Type,
		Size:          fd.Size,
		Enums:         fd.Enums,
		Unique:        fd.Unique,
		Nillable:      fd.Nillable,
		Optional:      fd.Optional,
		Immutable:     fd.Immutable,
		Sensitive:     fd.Sensitive,
		Default:       fd.Default,
		UpdateDefault: fd.UpdateDefault,
		Comment:       fd.Comment,
		Annotation:    field.AnnotationOf(fd),
		desc:          fd,
	}
}

// addEdges loads the edge descriptors of t. Target and join types that
// are not yet part of the graph are loaded as well.
func (g *Graph) addEdges(t *Type) error {
	mixins, err := safeMixin(t.schema)
	if err != nil {
		return fmt.Errorf("graph: %s: %w", t.Name, err)
	}
	var edges []saint.Edge
	for _, m := range mixins {
		es, err := safeEdges(m)
		if err != nil {
			return fmt.Errorf("graph: %s: %w", t.Name, err)
		}
		edges = append(edges, es...)
	}
	es, err := safeEdges(t.schema)
	if err != nil {
		return fmt.Errorf("graph: %s: %w", t.Name, err)
	}
	edges = append(edges, es...)
	seen := make(map[string]bool, len(edges))
	add := func(ed *edge.Descriptor) error {
		if ed.Err != nil {
			return fmt.Errorf("graph: %s: edge %q: %w", t.Name, ed.Name, ed.Err)
		}
		if seen[ed.Name] {
			return fmt.Errorf("graph: %s: duplicate edge %q", t.Name, ed.Name)
		}
		seen[ed.Name] = true
		target, err := g.typeFor(ed.Type, ed.Target)
		if err != nil {
			return fmt.Errorf("graph: %s: edge %q: %w", t.Name, ed.Name, err)
		}
		ne := &Edge{
			Name:       ed.Name,
			Type:       target,
			Owner:      t,
			Unique:     ed.Unique,
			Required:   ed.Required,
			Immutable:  ed.Immutable,
			Field:      ed.Field,
			Comment:    ed.Comment,
			Annotation: edge.AnnotationOf(ed),
			desc:       ed,
		}
		if ed.Inverse {
			ne.Inverse = ed.RefName
		}
		if th := ed.Through; th != nil {
			if ne.Through, err = g.typeFor(th.T, th.Target); err != nil {
				return fmt.Errorf("graph: %s: edge %q: %w", t.Name, ed.Name, err)
			}
		}
		t.Edges = append(t.Edges, ne)
		return nil
	}
	for _, e := range edges {
		ed := e.Descriptor()
		// An inverse edge created with To(...).From(...) carries its
		// assoc edge, which belongs to the same type.
		if ed.Inverse && ed.Ref != nil {
			if err := add(ed.Ref); err != nil {
				return err
			}
		}
		if err := add(ed); err != nil {
			return err
		}
	}
	return nil
}

func (g *Graph) typeFor(name string, rt reflect.Type) (*Type, error) {
	if t, ok := g.byName[name]; ok {
		return t, nil
	}
	if rt == nil {
		return nil, fmt.Errorf("unknown type %q", name)
	}
	s, ok := reflect.New(rt).Elem().Interface().(saint.Interface)
	if !ok {
		return nil, fmt.Errorf("type %q does not implement saint.Interface", name)
	}
	return g.load(s)
}

// resolve links inverse edges to their references and sets the relation
// kind and the foreign-key columns of every edge.
func (g *Graph) resolve() error {
	for _, t := range g.Types {
		for _, e := range t.Edges {
			if !e.IsInverse() {
				continue
			}
			ref, ok := e.Type.Edge(e.Inverse)
			if !ok || ref.IsInverse() {
				return fmt.Errorf("graph: %s: missing reference edge %q for inverse edge %q on %s", t.Name, e.Inverse, e.Name, e.Type.Name)
			}
			if ref.Type != t {
				return fmt.Errorf("graph: %s: mismatch type for back-ref %q of %s.%s <-> %s.%s", t.Name, e.Name, t.Name, e.Name, ref.Owner.Name, ref.Name)
			}
			if ref.Ref != nil {
				return fmt.Errorf("graph: %s: edge %q of %s has more than one back-ref", t.Name, ref.Name, ref.Owner.Name)
			}
			e.Ref, ref.Ref = ref, e
			// Inverse edges share the join model of their reference.
			if e.Through == nil {
				e.Through = ref.Through
			}
		}
	}
	for _, t := range g.Types {
		for _, e := range t.Edges {
			if err := g.relation(e); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *Graph) relation(e *Edge) error {
	if e.Rel.Type != Unk {
		return nil
	}
	owner, target := e.Owner, e.Type
	switch {
	case e.Through != nil:
		local, remote := inflector.ForeignKey(owner.Name), inflector.ForeignKey(target.Name)
		if local == remote {
			return fmt.Errorf("graph: %s: edge %q joins the type to itself through %s", owner.Name, e.Name, e.Through.Name)
		}
		e.Rel = Relation{Type: M2M, Table: e.Through.Table, Columns: []string{local, remote}}
		e.Through.addFK(local)
		e.Through.addFK(remote)
	case e.IsInverse():
		assoc := e.Ref
		switch {
		case assoc.Unique && e.Unique:
			col := e.fk()
			e.Rel = Relation{Type: O2O, Table: owner.Table, Columns: []string{col}}
			assoc.Rel = Relation{Type: O2O, Table: owner.Table, Columns: []string{col}}
			owner.addFK(col)
		case !assoc.Unique && e.Unique:
			col := e.fk()
			e.Rel = Relation{Type: M2O, Table: owner.Table, Columns: []string{col}}
			assoc.Rel = Relation{Type: O2M, Table: owner.Table, Columns: []string{col}}
			owner.addFK(col)
		case assoc.Unique && !e.Unique:
			col := assoc.fk()
			e.Rel = Relation{Type: O2M, Table: target.Table, Columns: []string{col}}
			assoc.Rel = Relation{Type: M2O, Table: target.Table, Columns: []string{col}}
			target.addFK(col)
		default:
			return fmt.Errorf("graph: %s: edge %q is many-to-many and needs a Through join model", owner.Name, e.Name)
		}
	case e.Ref != nil:
		// Assoc edges with a back-reference are resolved from the inverse side.
		return g.relation(e.Ref)
	case e.Unique:
		col := e.fk()
		e.Rel = Relation{Type: M2O, Table: owner.Table, Columns: []string{col}}
		owner.addFK(col)
	default:
		col := e.Field
		if col == "" {
			col = inflector.ForeignKey(owner.Name)
		}
		e.Rel = Relation{Type: O2M, Table: target.Table, Columns: []string{col}}
		target.addFK(col)
	}
	return nil
}

// fk returns the foreign-key column of an edge holding the key in its
// owner table: the bound field or the edge name followed by "_id".
func (e *Edge) fk() string {
	if e.Field != "" {
		return e.Field
	}
	return inflector.ForeignKey(e.Name)
}

// addFK adds an implicit foreign-key field unless a field with the
// same column exists.
func (t *Type) addFK(col string) {
	if col == t.ID.Column {
		return
	}
	for _, f := range t.Fields {
		if f.Column == col {
			return
		}
	}
	t.Fields = append(t.Fields, &Field{
		Name:     col,
		Column:   col,
		Type:     field.TypeInt64,
		Optional: true,
		Nillable: true,
		FK:       true,
	})
}

// Field returns the field with the given name. The primary key is
// included.
func (t *Type) Field(name string) (*Field, bool) {
	if t.ID != nil && t.ID.Name == name {
		return t.ID, true
	}
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Edge returns the edge with the given name.
func (t *Type) Edge(name string) (*Edge, bool) {
	for _, e := range t.Edges {
		if e.Name == name {
			return e, true
		}
	}
	return nil, false
}

// Columns returns the storage columns of the type, primary key first.
func (t *Type) Columns() []string {
	cols := make([]string, 0, len(t.Fields)+1)
	cols = append(cols, t.ID.Column)
	for _, f := range t.Fields {
		cols = append(cols, f.Column)
	}
	return cols
}

// Schema returns the schema the type was built from.
func (t *Type) Schema() saint.Interface {
	return t.schema
}

// String implements fmt.Stringer.
func (t *Type) String() string {
	return t.Name
}

// IsInverse returns if this edge is an inverse edge.
func (e *Edge) IsInverse() bool { return e.Inverse != "" }

// M2M indicates if this edge is M2M edge.
func (e *Edge) M2M() bool { return e.Rel.Type == M2M }

// M2O indicates if this edge is M2O edge.
func (e *Edge) M2O() bool { return e.Rel.Type == M2O }

// O2M indicates if this edge is O2M edge.
func (e *Edge) O2M() bool { return e.Rel.Type == O2M }

// O2O indicates if this edge is O2O edge.
func (e *Edge) O2O() bool { return e.Rel.Type == O2O }

// OwnsFK reports if the foreign-key column lives in the owner table.
// The inverse side of an O2O pair holds the key.
func (e *Edge) OwnsFK() bool {
	return e.Rel.Type == M2O || e.Rel.Type == O2O && e.IsInverse()
}

// Column returns the first element from the columns slice.
func (e *Edge) Column() string {
	if len(e.Rel.Columns) == 0 {
		return ""
	}
	return e.Rel.Columns[0]
}

// Validate runs the validators of the field against v.
func (f *Field) Validate(v any) error {
	if f.desc == nil {
		return nil
	}
	return f.desc.Validate(v)
}

// IsEnum reports if the field is an enum.
func (f *Field) IsEnum() bool { return f.Type == field.TypeEnum }

// EnumValues returns the stored values of an enum field.
func (f *Field) EnumValues() []string {
	vs := make([]string, len(f.Enums))
	for i, e := range f.Enums {
		vs[i] = e.V
	}
	return vs
}

// safeFields wraps the schema.Fields and mixin.Fields method with recover to ensure no panics in marshaling.
func safeFields(fd interface{ Fields() []saint.Field }) (fields []saint.Field, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("%T.Fields panics: %v", fd, v)
			fields = nil
		}
	}()
	return fd.Fields(), nil
}

// safeEdges wraps the schema.Edges method with recover to ensure no panics in marshaling.
func safeEdges(schema interface{ Edges() []saint.Edge }) (edges []saint.Edge, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("%T.Edges panics: %v", schema, v)
			edges = nil
		}
	}()
	return schema.Edges(), nil
}

// safeMixin wraps the schema.Mixin method with recover to ensure no panics in marshaling.
func safeMixin(schema saint.Interface) (mixin []saint.Mixin, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("%T.Mixin panics: %v", schema, v)
			mixin = nil
		}
	}()
	return schema.Mixin(), nil
}
