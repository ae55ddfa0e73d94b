// Package schema defines the models of the demo admin.
package schema

import (
	"github.com/syssam/saint"
	"github.com/syssam/saint/schema/edge"
	"github.com/syssam/saint/schema/field"
	"github.com/syssam/saint/schema/mixin"
)

// User holds the schema definition for the User entity.
type User struct {
	saint.Schema
}

// Mixin of the User.
func (User) Mixin() []saint.Mixin {
	return []saint.Mixin{
		mixin.Time{}, // Adds created_at and updated_at
	}
}

// Fields of the User.
func (User) Fields() []saint.Field {
	return []saint.Field{
		field.String("name").
			NotEmpty().
			MaxLen(100),
		field.String("email").
			Unique().
			NotEmpty(),
		field.String("password").
			Optional().
			Sensitive(),
		field.Int("age").
			Optional().
			Positive(),
		field.Enum("role").
			Values("admin", "user", "guest").
			Default("user"),
	}
}

// Edges of the User.
func (User) Edges() []saint.Edge {
	return []saint.Edge{
		edge.To("posts", Post.Type).
			Comment("Posts written by this user"),
	}
}
