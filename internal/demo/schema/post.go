package schema

import (
	"github.com/syssam/saint"
	"github.com/syssam/saint/schema/edge"
	"github.com/syssam/saint/schema/field"
	"github.com/syssam/saint/schema/mixin"
)

// Post holds the schema definition for the Post entity.
type Post struct {
	saint.Schema
}

// Mixin of the Post.
func (Post) Mixin() []saint.Mixin {
	return []saint.Mixin{
		mixin.Time{},
	}
}

// Fields of the Post.
func (Post) Fields() []saint.Field {
	return []saint.Field{
		field.String("title").
			NotEmpty().
			MaxLen(200),
		field.Text("content").
			Optional(),
		field.Enum("status").
			Values("draft", "published", "archived").
			Default("draft"),
		field.Int("view_count").
			Default(0).
			NonNegative(),
		field.Date("published_on").
			Optional(),
	}
}

// Edges of the Post.
func (Post) Edges() []saint.Edge {
	return []saint.Edge{
		edge.From("author", User.Type).
			Ref("posts").
			Unique(),
		edge.To("comments", Comment.Type),
		edge.To("tags", Tag.Type).
			Through("post_tags", PostTag.Type),
	}
}

// PostTag joins posts and tags.
type PostTag struct {
	saint.Schema
}
