// Package mixin provides reusable schema components.
//
// A mixin is a set of fields and edges that can be shared by several
// model schemas. Mixin fields are placed before the fields of the schema
// that uses them.
//
// # Creating Custom Mixins
//
// Embed Schema and override the methods you need:
//
//	type AuthorMixin struct {
//	    mixin.Schema
//	}
//
//	func (AuthorMixin) Fields() []saint.Field {
//	    return []saint.Field{
//	        field.String("created_by").Optional(),
//	        field.String("updated_by").Optional(),
//	    }
//	}
//
// # Built-in Mixins
//
//	func (Page) Mixin() []saint.Mixin {
//	    return []saint.Mixin{
//	        mixin.Time{}, // created_at, updated_at
//	    }
//	}
//
// The timestamp fields are annotated as plain columns, so the admin layer
// shows them in edit forms without letting the user change them.
package mixin
