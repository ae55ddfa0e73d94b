// Package graph resolves model schemas into the representation used by
// the orm and admin packages.
//
// # Graph Structure
//
//	type Graph struct {
//	    Types []*Type  // All model types
//	}
//
// Each Type has a table, a primary key, fields (mixin fields first) and
// edges. Types that are only reachable through edges are loaded
// automatically, so passing the root schemas is enough:
//
//	g, err := graph.New(schema.Author{}, schema.Page{})
//
// # Relations
//
// Edges are resolved into one of four relation kinds, following the
// Unique() modifiers of the edge and of its back-reference:
//
//   - O2O (One-to-One): User has one Profile
//   - O2M (One-to-Many): Author has many Pages
//   - M2O (Many-to-One): Page belongs to Author
//   - M2M (Many-to-Many): Pages and Menus through MenuPage
//
// # Foreign Keys
//
// A many-to-one edge keeps its key in the owner table under the edge
// name followed by "_id" ("author" -> "author_id"). A one-to-many edge
// without a back-reference keeps the key in the target table under the
// owner name ("Author" -> "author_id"). Join models of many-to-many
// edges hold one key per side named after the types. Keys that are not
// declared as fields are added as optional int64 fields.
//
// # Validation
//
// New fails on duplicate field or edge names, inverse edges whose
// reference is missing or points at another type, and many-to-many
// edges without a join model.
package graph
