package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/saint"
	"github.com/syssam/saint/graph"
	"github.com/syssam/saint/schema"
	"github.com/syssam/saint/schema/edge"
	"github.com/syssam/saint/schema/field"
	"github.com/syssam/saint/schema/mixin"
)

type (
	Author   struct{ saint.Schema }
	Profile  struct{ saint.Schema }
	Page     struct{ saint.Schema }
	Menu     struct{ saint.Schema }
	MenuPage struct{ saint.Schema }
	Country  struct{ saint.Schema }
	Category struct{ saint.Schema }
)

func (Author) Fields() []saint.Field {
	return []saint.Field{
		field.String("name").NotEmpty(),
	}
}

func (Author) Edges() []saint.Edge {
	return []saint.Edge{
		edge.To("pages", Page.Type),
		edge.To("profile", Profile.Type).Unique(),
	}
}

func (Author) Annotations() []schema.Annotation {
	return []schema.Annotation{schema.Comment("Writers")}
}

func (Profile) Edges() []saint.Edge {
	return []saint.Edge{
		edge.From("author", Author.Type).Ref("profile").Unique(),
	}
}

func (Page) Mixin() []saint.Mixin {
	return []saint.Mixin{mixin.Time{}}
}

func (Page) Fields() []saint.Field {
	return []saint.Field{
		field.String("name"),
		field.Text("content").Optional(),
		field.Enum("status").Values("draft", "published"),
	}
}

func (Page) Edges() []saint.Edge {
	return []saint.Edge{
		edge.From("author", Author.Type).Ref("pages").Unique(),
		edge.To("menus", Menu.Type).Through("menu_pages", MenuPage.Type),
	}
}

func (Menu) Config() saint.Config {
	return saint.Config{Table: "site_menus"}
}

func (Menu) Edges() []saint.Edge {
	return []saint.Edge{
		edge.From("pages", Page.Type).Ref("menus"),
	}
}

func (Country) Fields() []saint.Field {
	return []saint.Field{
		field.Int64("id"),
		field.String("name"),
	}
}

func (Country) Edges() []saint.Edge {
	return []saint.Edge{
		edge.To("authors", Author.Type),
	}
}

func (Category) Edges() []saint.Edge {
	return []saint.Edge{
		edge.To("children", Category.Type).From("parent").Unique(),
	}
}

func fieldNames(t *graph.Type) []string {
	names := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		names[i] = f.Name
	}
	return names
}

func TestNew(t *testing.T) {
	g, err := graph.New(Author{}, Country{}, Category{})
	require.NoError(t, err)
	assert.Len(t, g.Types, 7)

	author, ok := g.Type("Author")
	require.True(t, ok)
	assert.Equal(t, "authors", author.Table)
	assert.Equal(t, "Writers", author.Comment)
	assert.Equal(t, "id", author.ID.Name)
	assert.Equal(t, field.TypeInt64, author.ID.Type)
	assert.Equal(t, []string{"name", "country_id"}, fieldNames(author))
	assert.Equal(t, []string{"id", "name", "country_id"}, author.Columns())
	fk, ok := author.Field("country_id")
	require.True(t, ok)
	assert.True(t, fk.FK)
	assert.True(t, fk.Optional)

	page, err := g.TypeOf(Page{})
	require.NoError(t, err)
	assert.Equal(t, "pages", page.Table)
	assert.Equal(t, []string{"created_at", "updated_at", "name", "content", "status", "author_id"}, fieldNames(page))

	menu, err := g.TypeOf(&Menu{})
	require.NoError(t, err)
	assert.Equal(t, "site_menus", menu.Table)

	_, err = g.TypeOf(struct{ saint.Schema }{})
	assert.Error(t, err)
	same, err := g.TypeOf(page)
	require.NoError(t, err)
	assert.Same(t, page, same)
}

func TestRelations(t *testing.T) {
	g := graph.MustNew(Author{}, Country{}, Category{})
	edgeOf := func(typ, name string) *graph.Edge {
		tt, ok := g.Type(typ)
		require.True(t, ok, typ)
		e, ok := tt.Edge(name)
		require.True(t, ok, name)
		return e
	}

	t.Run("O2M/M2O", func(t *testing.T) {
		pages, author := edgeOf("Author", "pages"), edgeOf("Page", "author")
		assert.Equal(t, graph.O2M, pages.Rel.Type)
		assert.Equal(t, graph.M2O, author.Rel.Type)
		assert.Equal(t, "pages", pages.Rel.Table)
		assert.Equal(t, "author_id", pages.Column())
		assert.Equal(t, "author_id", author.Column())
		assert.Same(t, author, pages.Ref)
		assert.Same(t, pages, author.Ref)
		assert.True(t, author.IsInverse())
		assert.True(t, author.OwnsFK())
		assert.False(t, pages.OwnsFK())
	})

	t.Run("O2O", func(t *testing.T) {
		profile, author := edgeOf("Author", "profile"), edgeOf("Profile", "author")
		assert.True(t, profile.O2O())
		assert.True(t, author.O2O())
		assert.Equal(t, "profiles", profile.Rel.Table)
		assert.Equal(t, "author_id", profile.Column())
		assert.True(t, author.OwnsFK())
	})

	t.Run("M2M", func(t *testing.T) {
		menus, pages := edgeOf("Page", "menus"), edgeOf("Menu", "pages")
		assert.True(t, menus.M2M())
		assert.True(t, pages.M2M())
		assert.Equal(t, "menu_pages", menus.Rel.Table)
		assert.Equal(t, []string{"page_id", "menu_id"}, menus.Rel.Columns)
		assert.Equal(t, []string{"menu_id", "page_id"}, pages.Rel.Columns)
		require.NotNil(t, pages.Through)
		assert.Equal(t, "MenuPage", pages.Through.Name)
		join, _ := g.Type("MenuPage")
		assert.ElementsMatch(t, []string{"page_id", "menu_id"}, fieldNames(join))
	})

	t.Run("O2M without inverse", func(t *testing.T) {
		authors := edgeOf("Country", "authors")
		assert.True(t, authors.O2M())
		assert.Equal(t, "authors", authors.Rel.Table)
		assert.Equal(t, "country_id", authors.Column())
		assert.Nil(t, authors.Ref)
	})

	t.Run("tree", func(t *testing.T) {
		children, parent := edgeOf("Category", "children"), edgeOf("Category", "parent")
		assert.True(t, children.O2M())
		assert.True(t, parent.M2O())
		assert.Equal(t, "parent_id", children.Column())
		assert.Equal(t, "parent_id", parent.Column())
		assert.Equal(t, "categories", parent.Rel.Table)
		assert.True(t, parent.OwnsFK())
		assert.False(t, children.OwnsFK())
		category, _ := g.Type("Category")
		assert.Equal(t, []string{"parent_id"}, fieldNames(category))
	})
}

type (
	BoundPage   struct{ saint.Schema }
	BoundAuthor struct{ saint.Schema }
)

func (BoundPage) Fields() []saint.Field {
	return []saint.Field{
		field.Int64("writer_id").Optional(),
	}
}

func (BoundPage) Edges() []saint.Edge {
	return []saint.Edge{
		edge.From("author", BoundAuthor.Type).Ref("pages").Field("writer_id").Unique(),
	}
}

func (BoundAuthor) Edges() []saint.Edge {
	return []saint.Edge{
		edge.To("pages", BoundPage.Type),
	}
}

func TestEdgeField(t *testing.T) {
	g, err := graph.New(BoundPage{})
	require.NoError(t, err)
	page, _ := g.Type("BoundPage")
	assert.Equal(t, []string{"writer_id"}, fieldNames(page))
	fk, _ := page.Field("writer_id")
	assert.False(t, fk.FK)
	author, _ := g.Type("BoundAuthor")
	pages, _ := author.Edge("pages")
	assert.Equal(t, "writer_id", pages.Column())
}

type (
	DupField   struct{ saint.Schema }
	DupEdge    struct{ saint.Schema }
	NoRef      struct{ saint.Schema }
	Many       struct{ saint.Schema }
	ManyOther  struct{ saint.Schema }
	Panicky    struct{ saint.Schema }
	BadEnum    struct{ saint.Schema }
	WrongRef   struct{ saint.Schema }
	WrongOwner struct{ saint.Schema }
)

func (DupField) Fields() []saint.Field {
	return []saint.Field{field.String("name"), field.Text("name")}
}

func (DupEdge) Edges() []saint.Edge {
	return []saint.Edge{edge.To("a", Author.Type), edge.To("a", Page.Type)}
}

func (NoRef) Edges() []saint.Edge {
	return []saint.Edge{edge.From("author", Author.Type).Ref("missing")}
}

func (Many) Edges() []saint.Edge {
	return []saint.Edge{edge.To("others", ManyOther.Type)}
}

func (ManyOther) Edges() []saint.Edge {
	return []saint.Edge{edge.From("many", Many.Type).Ref("others")}
}

func (Panicky) Fields() []saint.Field {
	panic("boom")
}

func (BadEnum) Fields() []saint.Field {
	return []saint.Field{field.Enum("state")}
}

func (WrongRef) Edges() []saint.Edge {
	return []saint.Edge{edge.To("owner", WrongOwner.Type)}
}

func (WrongOwner) Edges() []saint.Edge {
	// Author.pages targets Page, so it cannot be the back-reference of "author".
	return []saint.Edge{edge.From("ref", WrongRef.Type).Ref("owner"), edge.From("author", Author.Type).Ref("pages")}
}

func TestNewErrors(t *testing.T) {
	tests := map[string]saint.Interface{
		"duplicate field": DupField{},
		"duplicate edge":  DupEdge{},
		"missing ref":     NoRef{},
		"m2m no through":  Many{},
		"panic":           Panicky{},
		"bad enum":        BadEnum{},
		"ref mismatch":    WrongOwner{},
	}
	for name, s := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := graph.New(s)
			assert.Error(t, err)
		})
	}
	assert.Panics(t, func() { graph.MustNew(Panicky{}) })
}

func TestRelString(t *testing.T) {
	assert.Equal(t, "O2O", graph.O2O.String())
	assert.Equal(t, "O2M", graph.O2M.String())
	assert.Equal(t, "M2O", graph.M2O.String())
	assert.Equal(t, "M2M", graph.M2M.String())
	assert.Equal(t, "Unknown", graph.Unk.String())
}

func TestFieldValidate(t *testing.T) {
	g := graph.MustNew(Author{})
	author, _ := g.Type("Author")
	name, _ := author.Field("name")
	assert.Error(t, name.Validate(""))
	assert.NoError(t, name.Validate("Ann"))
	assert.NoError(t, author.ID.Validate(int64(1)))

	page, _ := g.Type("Page")
	status, _ := page.Field("status")
	assert.True(t, status.IsEnum())
	assert.Equal(t, []string{"draft", "published"}, status.EnumValues())
}
