package schema

import (
	"github.com/syssam/saint"
	"github.com/syssam/saint/schema/edge"
	"github.com/syssam/saint/schema/field"
)

// Category is organized as a tree.
type Category struct {
	saint.Schema
}

func (Category) Fields() []saint.Field {
	return []saint.Field{
		field.String("name").
			NotEmpty(),
	}
}

func (Category) Edges() []saint.Edge {
	return []saint.Edge{
		edge.To("children", Category.Type).
			From("parent").
			Unique(),
	}
}
