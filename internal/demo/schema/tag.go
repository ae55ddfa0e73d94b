package schema

import (
	"github.com/syssam/saint"
	"github.com/syssam/saint/schema/edge"
	"github.com/syssam/saint/schema/field"
)

type Tag struct {
	saint.Schema
}

func (Tag) Fields() []saint.Field {
	return []saint.Field{
		field.String("name").
			Unique().
			NotEmpty().
			MaxLen(50),
	}
}

func (Tag) Edges() []saint.Edge {
	return []saint.Edge{
		edge.From("posts", Post.Type).
			Ref("tags"),
	}
}
