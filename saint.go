package saint

import (
	"github.com/syssam/saint/schema"
	"github.com/syssam/saint/schema/edge"
	"github.com/syssam/saint/schema/field"
)

type (
	// Interface is the interface every model schema implements.
	//
	//	type Page struct {
	//		saint.Schema
	//	}
	//
	//	func (Page) Fields() []saint.Field {
	//		return []saint.Field{
	//			field.String("name").NotEmpty(),
	//			field.Text("content").Optional(),
	//		}
	//	}
	Interface interface {
		// Type is a dummy method used to pass the schema type to edges.
		Type()
		// Fields returns the fields of the schema.
		Fields() []Field
		// Edges returns the edges of the schema.
		Edges() []Edge
		// Mixin returns an optional list of Mixin to extend the schema.
		Mixin() []Mixin
		// Config returns an optional config for the schema.
		Config() Config
		// Annotations returns a list of schema annotations.
		Annotations() []schema.Annotation
	}

	// A Field interface returns a field descriptor for vertex fields/properties.
	// The usage for the interface is as follows:
	//
	//	func (T) Fields() []saint.Field {
	//		return []saint.Field{
	//			field.Int("int"),
	//		}
	//	}
	Field interface {
		Descriptor() *field.Descriptor
	}

	// An Edge interface returns an edge descriptor for relations.
	// The usage for the interface is as follows:
	//
	//	func (Author) Edges() []saint.Edge {
	//		return []saint.Edge{
	//			edge.To("pages", Page.Type),
	//		}
	//	}
	Edge interface {
		Descriptor() *edge.Descriptor
	}

	// The Mixin type describes a set of methods that can extend
	// other methods in the schema without calling them directly.
	//
	//	type TimeMixin struct{}
	//
	//	func (TimeMixin) Fields() []saint.Field {
	//		return []saint.Field{
	//			field.Time("created_at").Immutable(),
	//			field.Time("updated_at"),
	//		}
	//	}
	Mixin interface {
		// Fields returns a slice of fields to be added
		// to the schema fields.
		Fields() []Field
		// Edges returns a slice of edges to be added
		// to the schema edges.
		Edges() []Edge
	}

	// Config is the schema configuration.
	Config struct {
		// A Table is an optional table name defined for the schema.
		Table string
	}

	// Schema is the default implementation for the schema Interface.
	// It can be embedded in end-user schemas as follows:
	//
	//	type T struct {
	//		saint.Schema
	//	}
	Schema struct {
		Interface
	}
)

// Fields of the schema.
func (Schema) Fields() []Field { return nil }

// Edges of the schema.
func (Schema) Edges() []Edge { return nil }

// Mixin of the schema.
func (Schema) Mixin() []Mixin { return nil }

// Config of the schema.
func (Schema) Config() Config { return Config{} }

// Annotations of the schema.
func (Schema) Annotations() []schema.Annotation { return nil }

var _ Interface = (*Schema)(nil)
