package orm

import (
	"strings"

	"github.com/syssam/saint/dialect/sql"
	"github.com/syssam/saint/graph"
	"github.com/syssam/saint/schema/field"
)

// Column types reported by Properties.
const (
	TypeString   = "string"
	TypeText     = "text"
	TypeBoolean  = "boolean"
	TypeDate     = "date"
	TypeDateTime = "date_time"
	TypeTime     = "time"
	TypeSelect   = "select"
	TypePassword = "password"
)

// Relation types reported by Relations.
const (
	BelongsTo = "belongs_to"
	HasN      = "has_n"
)

// Property is a model field with the admin column type it maps to.
type Property struct {
	Name  string
	Type  string
	Field *graph.Field
}

// Relation is a model edge as seen by the admin.
type Relation struct {
	Type    string // BelongsTo or HasN
	Name    string
	Remote  *graph.Type
	Through *graph.Type
	Edge    *graph.Edge
}

var properties = map[field.Type]string{
	field.TypeBytes:   TypeText,
	field.TypeBool:    TypeBoolean,
	field.TypeDate:    TypeDate,
	field.TypeTime:    TypeDateTime,
	field.TypeClock:   TypeTime,
	field.TypeDecimal: TypeString,
	field.TypeFloat64: TypeString,
	field.TypeInt:     TypeString,
	field.TypeInt64:   TypeString,
	field.TypeString:  TypeString,
	field.TypeText:    TypeText,
	field.TypeEnum:    TypeSelect,
}

// Properties returns the fields of t in declaration order, with the
// primary key left out. Foreign keys are left out too when excludeKeys
// is set.
func Properties(t *graph.Type, excludeKeys bool) []Property {
	props := make([]Property, 0, len(t.Fields))
	for _, f := range t.Fields {
		if excludeKeys && (f.FK || strings.HasSuffix(f.Name, "_id")) {
			continue
		}
		typ, ok := properties[f.Type]
		if !ok {
			typ = TypeString
		}
		if f.Sensitive {
			typ = TypePassword
		}
		if f.Annotation.Type != "" {
			typ = f.Annotation.Type
		}
		props = append(props, Property{Name: f.Name, Type: typ, Field: f})
	}
	return props
}

// Relations returns the edges of t. Edges pointing at a join type of a
// many-to-many edge are skipped, the M2M edge itself stands for them.
func Relations(t *graph.Type) []Relation {
	joins := make(map[*graph.Type]bool)
	for _, e := range t.Edges {
		if e.Through != nil {
			joins[e.Through] = true
		}
	}
	rels := make([]Relation, 0, len(t.Edges))
	for _, e := range t.Edges {
		if joins[e.Type] {
			continue
		}
		typ := HasN
		if e.OwnsFK() {
			typ = BelongsTo
		}
		rels = append(rels, Relation{
			Type:    typ,
			Name:    e.Name,
			Remote:  e.Type,
			Through: e.Through,
			Edge:    e,
		})
	}
	return rels
}

// PrimaryKey returns the primary key field name of t.
func PrimaryKey(t *graph.Type) string {
	if t.ID == nil {
		return ""
	}
	return t.ID.Name
}

// QuoteColumn returns the storage column of the field quoted for the
// dialect. Unknown names are quoted as is.
func QuoteColumn(t *graph.Type, name, dialect string) string {
	if f, ok := t.Field(name); ok {
		name = f.Column
	}
	b := sql.Dialect(dialect).Select()
	return b.Quote(name)
}
