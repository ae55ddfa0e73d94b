// Package schema provides the building blocks for describing the models
// an admin interface is generated for.
//
// This package holds the annotation contract shared by its subpackages:
//
//   - [field]: Field builders for model attributes
//   - [edge]: Edge builders for model relations
//   - [mixin]: Reusable schema components
//
// # Quick Start
//
// Define a model schema by embedding saint.Schema and implementing the
// methods you need:
//
//	type Page struct{ saint.Schema }
//
//	func (Page) Mixin() []saint.Mixin {
//	    return []saint.Mixin{
//	        mixin.Time{}, // created_at and updated_at
//	    }
//	}
//
//	func (Page) Fields() []saint.Field {
//	    return []saint.Field{
//	        field.String("name").NotEmpty().MaxLen(255),
//	        field.Text("content").Optional().
//	            Annotations(field.Annotation{Type: "rte"}),
//	        field.Enum("status").Values("draft", "published"),
//	    }
//	}
//
//	func (Page) Edges() []saint.Edge {
//	    return []saint.Edge{
//	        edge.From("author", Author.Type).Ref("pages").Unique(),
//	        edge.To("menus", Menu.Type).Through("menu_pages", MenuPage.Type),
//	    }
//	}
//
// # Relations
//
//	// One-to-Many: Author has many Pages
//	edge.To("pages", Page.Type)
//
//	// Many-to-One: Page belongs to Author
//	edge.From("author", Author.Type).Ref("pages").Unique()
//
//	// Many-to-Many through a join model
//	edge.To("menus", Menu.Type).Through("menu_pages", MenuPage.Type)
//
// The graph package resolves edges into relation kinds (O2O, O2M, M2O,
// M2M) and foreign-key columns; the orm package maps those onto the
// belongs_to and has_n associations of the admin layer.
package schema
