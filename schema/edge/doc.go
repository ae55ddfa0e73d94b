// Package edge provides fluent builders for defining model relations.
//
// Edges describe how models are connected through foreign keys and join
// models. There are two edge kinds:
//
//   - edge.To: Defines the association (forward direction)
//   - edge.From: Defines the back-reference (inverse direction)
//
// # Relationship Cardinality
//
// The relation kind is derived from the Unique() modifier of both sides:
//
//	// One-to-Many: Author has many Pages
//	edge.To("pages", Page.Type)
//
//	// Many-to-One: Page belongs to Author
//	edge.From("author", Author.Type).Ref("pages").Unique()
//
//	// One-to-One: User has one Profile
//	edge.To("profile", Profile.Type).Unique()
//
// # Bidirectional Edges
//
//	// Author schema
//	func (Author) Edges() []saint.Edge {
//	    return []saint.Edge{
//	        edge.To("pages", Page.Type),  // Author -> Pages (O2M)
//	    }
//	}
//
//	// Page schema
//	func (Page) Edges() []saint.Edge {
//	    return []saint.Edge{
//	        edge.From("author", Author.Type).  // Page -> Author (M2O)
//	            Ref("pages").
//	            Unique(),
//	    }
//	}
//
// # Edge Fields (Foreign Keys)
//
// The foreign key column defaults to the edge name followed by "_id". Bind
// it to a declared field to override it:
//
//	field.Int64("writer_id").Optional()
//
//	edge.From("author", Author.Type).
//	    Ref("pages").
//	    Field("writer_id").
//	    Unique()
//
// # Through Edges (Join Models)
//
// Many-to-many relations go through an explicit join model holding one
// foreign key per side:
//
//	edge.To("menus", Menu.Type).
//	    Through("menu_pages", MenuPage.Type)
//
// # Admin Hints
//
//	edge.From("author", Author.Type).
//	    Ref("pages").
//	    Unique().
//	    Annotations(edge.Annotation{Columns: []string{"name", "email"}})
package edge
