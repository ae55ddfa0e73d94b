package admin_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/syssam/saint"
	"github.com/syssam/saint/admin"
	"github.com/syssam/saint/dialect/sql"
	sqlschema "github.com/syssam/saint/dialect/sql/schema"
	"github.com/syssam/saint/graph"
	"github.com/syssam/saint/schema/edge"
	"github.com/syssam/saint/schema/field"
	"github.com/syssam/saint/schema/mixin"
)

type (
	Country  struct{ saint.Schema }
	Author   struct{ saint.Schema }
	Page     struct{ saint.Schema }
	Tag      struct{ saint.Schema }
	PageTag  struct{ saint.Schema }
	Category struct{ saint.Schema }
	Option   struct{ saint.Schema }
)

func (Country) Fields() []saint.Field {
	return []saint.Field{
		field.String("name"),
	}
}

func (Country) Edges() []saint.Edge {
	return []saint.Edge{
		edge.To("authors", Author.Type),
	}
}

func (Author) Fields() []saint.Field {
	return []saint.Field{
		field.String("name").NotEmpty(),
		field.String("email").Optional().Sensitive(),
	}
}

func (Author) Edges() []saint.Edge {
	return []saint.Edge{
		edge.From("country", Country.Type).Ref("authors").Unique(),
		edge.To("pages", Page.Type),
	}
}

func (Page) Mixin() []saint.Mixin {
	return []saint.Mixin{mixin.Time{}}
}

func (Page) Fields() []saint.Field {
	return []saint.Field{
		field.String("title").NotEmpty(),
		field.Text("body").Optional(),
		field.Enum("status").Values("draft", "published").Default("draft"),
		field.Bool("visible").Default(true),
		field.Date("published_on").Optional(),
	}
}

func (Page) Edges() []saint.Edge {
	return []saint.Edge{
		edge.From("author", Author.Type).Ref("pages").Unique(),
		edge.To("tags", Tag.Type).Through("page_tags", PageTag.Type),
	}
}

func (Tag) Fields() []saint.Field {
	return []saint.Field{
		field.String("label"),
	}
}

func (Tag) Edges() []saint.Edge {
	return []saint.Edge{
		edge.From("pages", Page.Type).Ref("tags"),
	}
}

func (Category) Fields() []saint.Field {
	return []saint.Field{
		field.String("name"),
	}
}

func (Category) Edges() []saint.Edge {
	return []saint.Edge{
		edge.To("children", Category.Type).From("parent").Unique(),
	}
}

func (Option) Fields() []saint.Field {
	return []saint.Field{
		field.String("name").NotEmpty(),
		field.Text("value").Optional(),
	}
}

var testGraph = graph.MustNew(Country{}, Author{}, Page{}, Tag{}, Category{}, Option{})

// setup returns a registry backed by a fresh in-memory database.
func setup(t *testing.T) (*admin.Registry, *sql.Driver) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	drv, err := sql.Open("sqlite", "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	drv.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { drv.Close() })
	tables, err := sqlschema.Tables(testGraph)
	require.NoError(t, err)
	require.NoError(t, sqlschema.NewMigrate(drv).Create(context.Background(), tables...))
	return admin.NewRegistry(drv, testGraph), drv
}

func columnNames(cols []*admin.Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name()
	}
	return names
}
