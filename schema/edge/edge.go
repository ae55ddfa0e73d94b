package edge

import (
	"fmt"
	"reflect"

	"github.com/syssam/saint/schema"
)

// A Descriptor for edge configuration.
type Descriptor struct {
	Tag         string              // struct tag.
	Type        string              // edge type.
	Target      reflect.Type        // schema type of the edge target.
	Name        string              // edge name.
	Field       string              // edge field name (e.g. foreign-key).
	RefName     string              // ref name; inverse only.
	Ref         *Descriptor         // edge reference; to/from of the same type.
	Through     *Through            // join model of the edge.
	Unique      bool                // unique edge.
	Inverse     bool                // inverse edge.
	Required    bool                // required on entity creation.
	Immutable   bool                // create only edge.
	Comment     string              // edge comment.
	Annotations []schema.Annotation // edge annotations.
	Err         error
}

// Through describes the join model of a many-to-many edge.
type Through struct {
	N      string       // name of the join edge.
	T      string       // type name of the join model.
	Target reflect.Type // schema type of the join model.
}

// To defines an association edge.
//
//	edge.To("pages", Page.Type)
func To(name string, t any) *assocBuilder {
	d := &Descriptor{Name: name}
	d.Type, d.Target, d.Err = typ(t)
	return &assocBuilder{desc: d}
}

// From represents a reversed-edge between two vertices that has a back-reference to its source edge.
//
//	edge.From("author", Author.Type).Ref("pages").Unique()
func From(name string, t any) *inverseBuilder {
	d := &Descriptor{Name: name, Inverse: true}
	d.Type, d.Target, d.Err = typ(t)
	return &inverseBuilder{desc: d}
}

// typ resolves the schema type from a method expression such as
// Page.Type or from a schema value.
func typ(t any) (string, reflect.Type, error) {
	rt := reflect.TypeOf(t)
	if rt == nil {
		return "", nil, fmt.Errorf("edge: nil schema type")
	}
	if rt.Kind() == reflect.Func {
		if rt.NumIn() == 0 {
			return "", nil, fmt.Errorf("edge: schema type function %s has no receiver", rt)
		}
		rt = rt.In(0)
	}
	for rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	if rt.Name() == "" {
		return "", nil, fmt.Errorf("edge: unnamed schema type %s", rt)
	}
	return rt.Name(), rt, nil
}

// assocBuilder is the builder for assoc edges.
type assocBuilder struct {
	desc *Descriptor
}

// Unique sets the edge type to be unique. Basically, it limits the edge to be one of the two:
// one-to-one or one-to-many.
func (b *assocBuilder) Unique() *assocBuilder {
	b.desc.Unique = true
	return b
}

// Required indicates that this edge is a required field on creation.
// Unlike fields, edges are optional by default.
func (b *assocBuilder) Required() *assocBuilder {
	b.desc.Required = true
	return b
}

// Immutable indicates that this edge cannot be updated.
func (b *assocBuilder) Immutable() *assocBuilder {
	b.desc.Immutable = true
	return b
}

// Field is used to bind an edge (with a foreign-key) to a field in the schema.
//
//	field.Int64("owner_id").
//		Optional()
//
//	edge.To("owner", User.Type).
//		Field("owner_id").
//		Unique(),
func (b *assocBuilder) Field(f string) *assocBuilder {
	b.desc.Field = f
	return b
}

// Through allows setting an "edge schema" to interact explicitly with M2M edges.
//
//	edge.To("menus", Menu.Type).
//		Through("menu_pages", MenuPage.Type)
func (b *assocBuilder) Through(name string, t any) *assocBuilder {
	th := &Through{N: name}
	var err error
	th.T, th.Target, err = typ(t)
	if err != nil && b.desc.Err == nil {
		b.desc.Err = err
	}
	b.desc.Through = th
	return b
}

// StructTag defines the struct tag of the generated field.
func (b *assocBuilder) StructTag(s string) *assocBuilder {
	b.desc.Tag = s
	return b
}

// From creates an inverse-edge with the same type.
func (b *assocBuilder) From(name string) *inverseBuilder {
	return &inverseBuilder{desc: &Descriptor{Name: name, Type: b.desc.Type, Target: b.desc.Target, Inverse: true, Ref: b.desc}}
}

// Comment used to put annotations on the schema.
func (b *assocBuilder) Comment(c string) *assocBuilder {
	b.desc.Comment = c
	return b
}

// Annotations adds a list of annotations to the edge object to be used by
// the admin layer.
//
//	edge.To("pages", Page.Type).
//		Annotations(edge.Annotation{Label: "Articles"})
func (b *assocBuilder) Annotations(annotations ...schema.Annotation) *assocBuilder {
	b.desc.Annotations = append(b.desc.Annotations, annotations...)
	return b
}

// Descriptor implements the saint.Descriptor interface.
func (b *assocBuilder) Descriptor() *Descriptor {
	return b.desc
}

// inverseBuilder is the builder for inverse edges.
type inverseBuilder struct {
	desc *Descriptor
}

// Ref sets the referenced-edge of this inverse edge.
func (b *inverseBuilder) Ref(ref string) *inverseBuilder {
	b.desc.RefName = ref
	return b
}

// Unique sets the edge type to be unique. Basically, it limits the edge to be one of the two:
// one-to-one or one-to-many.
func (b *inverseBuilder) Unique() *inverseBuilder {
	b.desc.Unique = true
	return b
}

// Required indicates that this edge is a required field on creation.
// Unlike fields, edges are optional by default.
func (b *inverseBuilder) Required() *inverseBuilder {
	b.desc.Required = true
	return b
}

// Immutable indicates that this edge cannot be updated.
func (b *inverseBuilder) Immutable() *inverseBuilder {
	b.desc.Immutable = true
	return b
}

// Field is used to bind an edge (with a foreign-key) to a field in the schema.
//
//	field.Int64("author_id")
//
//	edge.From("author", Author.Type).
//		Ref("pages").
//		Field("author_id").
//		Unique(),
func (b *inverseBuilder) Field(f string) *inverseBuilder {
	b.desc.Field = f
	return b
}

// StructTag defines the struct tag of the generated field.
func (b *inverseBuilder) StructTag(s string) *inverseBuilder {
	b.desc.Tag = s
	return b
}

// Comment used to put annotations on the schema.
func (b *inverseBuilder) Comment(c string) *inverseBuilder {
	b.desc.Comment = c
	return b
}

// Annotations adds a list of annotations to the edge object to be used by
// the admin layer.
//
//	edge.From("author", Author.Type).
//		Ref("pages").
//		Unique().
//		Annotations(edge.Annotation{Columns: []string{"name"}})
func (b *inverseBuilder) Annotations(annotations ...schema.Annotation) *inverseBuilder {
	b.desc.Annotations = append(b.desc.Annotations, annotations...)
	return b
}

// Descriptor implements the saint.Descriptor interface.
func (b *inverseBuilder) Descriptor() *Descriptor {
	if b.desc.Ref != nil {
		b.desc.RefName = b.desc.Ref.Name
	}
	if b.desc.RefName == "" && b.desc.Err == nil {
		b.desc.Err = fmt.Errorf("edge: missing Ref for inverse edge %q", b.desc.Name)
	}
	return b.desc
}
