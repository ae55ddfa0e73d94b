package mixin

import (
	"time"

	"github.com/syssam/saint"
	"github.com/syssam/saint/schema"
	"github.com/syssam/saint/schema/field"
)

// Schema is the default implementation for the saint.Mixin interface.
// It should be embedded in all custom mixin definitions.
//
//	type MyMixin struct {
//	    mixin.Schema
//	}
//
//	func (MyMixin) Fields() []saint.Field {
//	    return []saint.Field{
//	        field.String("custom_field"),
//	    }
//	}
type Schema struct{}

// Fields returns the fields of the mixin.
func (Schema) Fields() []saint.Field { return nil }

// Edges returns the edges of the mixin.
func (Schema) Edges() []saint.Edge { return nil }

// schema mixin must implement `Mixin` interface.
var _ saint.Mixin = (*Schema)(nil)

// Time adds created_at and updated_at timestamp fields to a schema.
// created_at is set automatically on creation and is immutable.
// updated_at is set on creation and updated automatically on each update.
//
//	func (Page) Mixin() []saint.Mixin {
//	    return []saint.Mixin{
//	        mixin.Time{},
//	    }
//	}
type Time struct {
	Schema
}

// Fields returns the time tracking fields.
func (Time) Fields() []saint.Field {
	return append(CreateTime{}.Fields(), UpdateTime{}.Fields()...)
}

// CreateTime adds only created_at timestamp field to a schema.
type CreateTime struct {
	Schema
}

// Fields returns the created_at field.
func (CreateTime) Fields() []saint.Field {
	return []saint.Field{
		field.Time("created_at").
			Default(time.Now).
			Immutable().
			Comment("Timestamp when the row was created").
			Annotations(field.Annotation{Type: "plain"}),
	}
}

// UpdateTime adds only updated_at timestamp field to a schema.
type UpdateTime struct {
	Schema
}

// Fields returns the updated_at field.
func (UpdateTime) Fields() []saint.Field {
	return []saint.Field{
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now).
			Comment("Timestamp when the row was last updated").
			Annotations(field.Annotation{Type: "plain"}),
	}
}

// AnnotateFields wraps a mixin and adds annotations to all its fields.
// This is useful for applying admin hints to every field of a shared mixin.
//
//	mixin.AnnotateFields(
//	    mixin.Time{},
//	    field.Annotation{Type: "date_time"},
//	)
func AnnotateFields(m saint.Mixin, annotations ...schema.Annotation) saint.Mixin {
	return fieldAnnotator{Mixin: m, annotations: annotations}
}

// AnnotateEdges wraps a mixin and adds annotations to all its edges.
func AnnotateEdges(m saint.Mixin, annotations ...schema.Annotation) saint.Mixin {
	return edgeAnnotator{Mixin: m, annotations: annotations}
}

type fieldAnnotator struct {
	saint.Mixin
	annotations []schema.Annotation
}

func (a fieldAnnotator) Fields() []saint.Field {
	fields := a.Mixin.Fields()
	for i := range fields {
		desc := fields[i].Descriptor()
		desc.Annotations = append(desc.Annotations, a.annotations...)
	}
	return fields
}

type edgeAnnotator struct {
	saint.Mixin
	annotations []schema.Annotation
}

func (a edgeAnnotator) Edges() []saint.Edge {
	edges := a.Mixin.Edges()
	for i := range edges {
		desc := edges[i].Descriptor()
		desc.Annotations = append(desc.Annotations, a.annotations...)
	}
	return edges
}
