// Package field provides fluent builders for defining model fields.
//
// Field names follow database conventions (snake_case) and become the
// column names unless StorageKey is set:
//
//	field.Int64("author_id")  // column: author_id
//	field.String("email")     // column: email
//
// # Field Types
//
//	// String fields
//	field.String("name")
//	field.Text("description")
//
//	// Numeric fields
//	field.Int("count")
//	field.Int64("views")
//	field.Float("price")
//	field.Decimal("amount")
//
//	// Boolean fields
//	field.Bool("active")
//
//	// Temporal fields
//	field.Time("created_at")    // date and time of day
//	field.Date("published_on")  // date only
//	field.Clock("opens_at")     // time of day only
//
//	// Enum fields
//	field.Enum("status").Values("draft", "published")
//
//	// Binary fields
//	field.Bytes("data")
//
// # Field Options
//
//	field.String("email").
//	    Unique().              // Unique constraint
//	    Optional().            // Not required on create
//	    Nillable().            // Nullable column
//	    Immutable().           // Cannot be updated
//	    Default("unknown").    // Default value
//	    Comment("User email")  // Column comment
//
// # Validation
//
// Validators run when a row is saved through the orm package:
//
//	field.String("name").NotEmpty().MinLen(2).MaxLen(100)
//	field.String("slug").Match(regexp.MustCompile(`^[a-z0-9-]+$`))
//	field.Int("age").Range(0, 150)
//	field.Float("price").Positive()
//
// # Admin Hints
//
// The [Annotation] type overrides how the admin layer renders a field:
//
//	field.Text("content").Annotations(field.Annotation{Type: "rte"})
//	field.String("avatar").Annotations(field.Annotation{Type: "image"})
package field
