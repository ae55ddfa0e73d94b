package schema

import (
	"github.com/syssam/saint"
	"github.com/syssam/saint/schema/edge"
	"github.com/syssam/saint/schema/field"
	"github.com/syssam/saint/schema/mixin"
)

type Comment struct {
	saint.Schema
}

func (Comment) Mixin() []saint.Mixin {
	return []saint.Mixin{
		mixin.CreateTime{},
	}
}

func (Comment) Fields() []saint.Field {
	return []saint.Field{
		field.Text("body").
			NotEmpty(),
		field.Bool("approved").
			Default(false),
	}
}

func (Comment) Edges() []saint.Edge {
	return []saint.Edge{
		edge.From("post", Post.Type).
			Ref("comments").
			Unique(),
	}
}
