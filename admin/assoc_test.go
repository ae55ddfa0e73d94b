package admin_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/saint"
	"github.com/syssam/saint/admin"
	"github.com/syssam/saint/orm"
)

func TestAutomaticAssocs(t *testing.T) {
	reg, _ := setup(t)
	pages := reg.NewController("pages")
	pages.Model(Page{}, nil)
	authors := reg.NewController("authors")
	authors.Model(Author{}, nil)
	require.NoError(t, reg.Boot())

	author := pages.Assoc("author")
	require.NotNil(t, author)
	assert.Equal(t, admin.BelongsTo, author.Type)
	assert.Equal(t, "author_id", author.LocalKey)
	assert.Equal(t, "id", author.RemoteKey)
	assert.Equal(t, "id", author.RemotePKey)
	assert.Equal(t, "Author", author.Label)
	assert.Equal(t, "Belongs To Author", author.LongLabel)
	assert.Equal(t, "belongs_to_author_pages_author", author.ID)
	assert.Equal(t, admin.DefaultItemsPerPage, author.ItemsPerPage)
	assert.Equal(t, "Author", author.RemoteType().Name)
	assert.Nil(t, author.ThroughType())
	assert.Same(t, pages, author.Local())

	tags := pages.Assoc("tags")
	require.NotNil(t, tags)
	assert.Equal(t, admin.HasN, tags.Type)
	assert.Equal(t, "page_id", tags.LocalKey)
	assert.Equal(t, "tag_id", tags.RemoteKey)
	assert.Equal(t, "PageTag", tags.ThroughType().Name)
	assert.Equal(t, "Has N Tags", tags.LongLabel)

	authorPages := authors.Assoc("pages")
	require.NotNil(t, authorPages)
	assert.Equal(t, admin.HasN, authorPages.Type)
	assert.Equal(t, "id", authorPages.LocalKey)
	assert.Equal(t, "author_id", authorPages.RemoteKey)
	country := authors.Assoc("country")
	require.NotNil(t, country)
	assert.Equal(t, "country_id", country.LocalKey)

	got, ok := reg.Relation(author.ID)
	require.True(t, ok)
	assert.Same(t, author, got)
	assert.Len(t, pages.Assocs(), 2)
	assert.Nil(t, pages.Assoc("missing"))
}

func TestAssocSelection(t *testing.T) {
	t.Run("Ignored", func(t *testing.T) {
		reg, _ := setup(t)
		pages := reg.NewController("pages")
		pages.Model(Page{}, func(c *admin.Controller) {
			c.RelationsIgnored(regexp.MustCompile("^tag"))
		})
		require.Len(t, pages.Assocs(), 1)
		assert.Equal(t, "author", pages.Assocs()[0].Name)
	})
	t.Run("Opted", func(t *testing.T) {
		reg, _ := setup(t)
		pages := reg.NewController("pages")
		pages.Model(Page{}, func(c *admin.Controller) {
			c.Relations("tags")
		})
		require.Len(t, pages.Assocs(), 1)
		assert.Equal(t, "tags", pages.Assocs()[0].Name)
	})
	t.Run("Disabled", func(t *testing.T) {
		reg, _ := setup(t)
		pages := reg.NewController("pages")
		pages.Model(Page{}, func(c *admin.Controller) {
			c.Relations(false)
		})
		assert.Empty(t, pages.Assocs())
	})
	t.Run("Declared", func(t *testing.T) {
		reg, _ := setup(t)
		authors := reg.NewController("authors")
		authors.Model(Author{}, nil)
		pages := reg.NewController("pages")
		pages.Model(Page{}, func(c *admin.Controller) {
			c.BelongsTo("author", Author{}, func(a *admin.Assoc) {
				a.Label = "Writer"
				a.Controller(authors, true)
			})
		})
		require.Len(t, pages.Assocs(), 2)
		author := pages.Assoc("author")
		assert.Equal(t, "Writer", author.Label)
		assert.Same(t, authors, author.RemoteController())
		assert.True(t, author.CreateButton())
		assert.Equal(t, "belongs_to_author_pages_authors", author.ID)
	})
}

func TestAssocErrors(t *testing.T) {
	reg, _ := setup(t)
	early := reg.NewController("early")
	assert.Nil(t, early.HasN("pages", Page{}, nil, nil))
	early.Model(Author{}, nil)

	tags := reg.NewController("tags")
	tags.Model(Tag{}, nil)
	pages := reg.NewController("pages")
	pages.Model(Page{}, func(c *admin.Controller) {
		c.Relations(false)
	})
	assert.Nil(t, pages.BelongsTo("writer", Author{}, nil))
	assert.NotNil(t, pages.BelongsTo("author", Author{}, func(a *admin.Assoc) {
		a.Controller(tags, false)
		a.Order("name", "up")
	}))
	assert.Nil(t, pages.BelongsTo("author", Author{}, nil))

	err := reg.Boot()
	require.Error(t, err)
	for _, msg := range []string{
		"saint: early: HasN error: please define Model before dealing with HasN",
		`saint: pages: BelongsTo error: Page has no "writer" relation`,
		`saint: pages: BelongsTo error: association "author" already declared`,
		`saint: pages: belongs_to error: author: remote controller "tags" manages Tag, not Author`,
	} {
		assert.Contains(t, err.Error(), msg)
	}
	assert.Contains(t, err.Error(), "saint: pages: belongs_to error: author:")
}

func TestAssocOrderingAndColumns(t *testing.T) {
	reg, _ := setup(t)
	authors := reg.NewController("authors")
	authors.Model(Author{}, nil)
	pages := reg.NewController("pages")
	pages.Model(Page{}, nil)

	author := pages.Assoc("author")
	assert.Equal(t, []admin.OrderTerm{{Column: "id", Dir: "DESC"}}, author.Ordering())
	assert.Equal(t, []string{"name"}, columnNames(author.Columns()))

	author.Controller(authors, false)
	assert.Equal(t, []string{"name", "email"}, columnNames(author.Columns()))
	authors.Order("name", "asc")
	assert.Equal(t, []admin.OrderTerm{{Column: "name", Dir: "ASC"}}, author.Ordering())
	author.Order("email", "desc")
	assert.Equal(t, []admin.OrderTerm{{Column: "email", Dir: "DESC"}}, author.Ordering())

	col := author.Column("email", admin.TypeString)
	assert.Equal(t, []string{"email"}, columnNames(author.Columns()))
	assert.Equal(t, "email", col.Field().Name)
}

func TestAssocTree(t *testing.T) {
	reg, _ := setup(t)
	categories := reg.NewController("categories")
	categories.Model(Category{}, nil)
	require.NoError(t, reg.Boot())

	children, parent := categories.Tree()
	require.NotNil(t, children)
	require.NotNil(t, parent)
	assert.True(t, children.IsTree())
	assert.Equal(t, admin.HasN, children.Type)
	assert.Equal(t, admin.BelongsTo, parent.Type)
	assert.Equal(t, "children", children.Name)
	assert.Equal(t, "parent", parent.Name)
	assert.Equal(t, "children", parent.Children())
	assert.Equal(t, "parent", children.Parent())
	assert.Same(t, parent, children.Counterpart())
	assert.Same(t, children, parent.Counterpart())
	for _, a := range []*admin.Assoc{children, parent} {
		assert.Equal(t, admin.TreeKey, a.LocalKey)
		assert.Equal(t, admin.TreeKey, a.RemoteKey)
		assert.Equal(t, "id", a.RemotePKey)
		assert.Same(t, categories, a.RemoteController())
	}
	assert.Equal(t, "has_n_children_categories_categories", children.ID)

	ctx := context.Background()
	create := func(name string) *orm.Row {
		row, err := categories.ORM().Create(ctx, map[string]any{"name": name})
		require.NoError(t, err)
		return row
	}
	root, first, second := create("root"), create("first"), create("second")

	require.NoError(t, children.Attach(ctx, root, first.ID()))
	require.NoError(t, parent.Attach(ctx, second, root.ID()))
	assert.Equal(t, root.ID(), second.Get("parent_id"))

	page, err := children.Remote(ctx, root, 1, true)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	for _, item := range page.Items {
		assert.True(t, item.Attached)
	}

	page, err = children.Remote(ctx, root, 1, false)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total, "the row itself is not offered")

	page, err = parent.Remote(ctx, second, 1, true)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, root.ID(), page.Items[0].Row.ID())

	err = children.Attach(ctx, root, root.ID())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "attached to itself")

	require.NoError(t, children.Detach(ctx, root, first.ID()))
	fresh, err := categories.ORM().Get(ctx, first.ID())
	require.NoError(t, err)
	assert.Nil(t, fresh.Get("parent_id"))
}

func TestAssocTreeIgnored(t *testing.T) {
	reg, _ := setup(t)
	categories := reg.NewController("categories")
	categories.Model(Category{}, func(c *admin.Controller) {
		c.TreeIgnored()
	})
	children, parent := categories.Tree()
	assert.Nil(t, children)
	assert.Nil(t, parent)
	assert.Nil(t, categories.Assoc("children"), "self references are skipped")
	assert.Nil(t, categories.Assoc("parent"), "self references are skipped")
}

func TestAssocSelfReferenceOneSide(t *testing.T) {
	reg, _ := setup(t)
	categories := reg.NewController("categories")
	categories.Model(Category{}, func(c *admin.Controller) {
		c.RelationsIgnored("children")
	})
	children, parent := categories.Tree()
	assert.Nil(t, children)
	assert.Nil(t, parent)
	assert.Nil(t, categories.Assoc("parent"), "a lone belongs-to side is not declared")
}

func TestAssocBelongsTo(t *testing.T) {
	reg, _ := setup(t)
	ctx := context.Background()
	authors := reg.NewController("authors")
	authors.Model(Author{}, nil)
	pages := reg.NewController("pages")
	pages.Model(Page{}, nil)
	author := pages.Assoc("author")

	ann, err := authors.ORM().Create(ctx, map[string]any{"name": "Ann"})
	require.NoError(t, err)
	bob, err := authors.ORM().Create(ctx, map[string]any{"name": "Bob"})
	require.NoError(t, err)
	page, err := pages.ORM().Create(ctx, map[string]any{"title": "Hello"})
	require.NoError(t, err)

	list, err := author.Remote(ctx, page, 1, false)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
	require.Len(t, list.Items, 2)
	assert.Equal(t, bob.ID(), list.Items[0].Row.ID())
	assert.False(t, list.Items[0].Attached)
	assert.False(t, list.Items[1].Attached)

	list, err = author.Remote(ctx, page, 1, true)
	require.NoError(t, err)
	assert.Zero(t, list.Total)
	assert.Empty(t, list.Items)

	require.NoError(t, author.Attach(ctx, page, ann.ID()))
	assert.Equal(t, ann.ID(), page.Get("author_id"))
	list, err = author.Remote(ctx, page, 1, false)
	require.NoError(t, err)
	assert.False(t, list.Items[0].Attached)
	assert.True(t, list.Items[1].Attached)
	list, err = author.Remote(ctx, page, 1, true)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, ann.ID(), list.Items[0].Row.ID())

	require.NoError(t, author.Detach(ctx, page, bob.ID()))
	assert.Equal(t, ann.ID(), page.Get("author_id"))
	require.NoError(t, author.Detach(ctx, page, ann.ID()))
	stored, err := pages.ORM().Get(ctx, page.ID())
	require.NoError(t, err)
	assert.Nil(t, stored.Get("author_id"))

	err = author.Attach(ctx, page, 1000)
	assert.True(t, saint.IsNotFound(err))
}

func TestAssocHasN(t *testing.T) {
	reg, _ := setup(t)
	ctx := context.Background()
	authors := reg.NewController("authors")
	authors.Model(Author{}, nil)
	assoc := authors.Assoc("pages")

	ann, err := authors.ORM().Create(ctx, map[string]any{"name": "Ann"})
	require.NoError(t, err)
	var ids []any
	for _, title := range []string{"one", "two", "three"} {
		p, err := assoc.RemoteORM().Create(ctx, map[string]any{"title": title})
		require.NoError(t, err)
		ids = append(ids, p.ID())
	}

	require.NoError(t, assoc.Attach(ctx, ann, ids[0]))
	require.NoError(t, assoc.Attach(ctx, ann, ids[2]))
	list, err := assoc.Remote(ctx, ann, 1, true)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
	require.Len(t, list.Items, 2)
	assert.Equal(t, ids[2], list.Items[0].Row.ID())
	assert.Equal(t, ids[0], list.Items[1].Row.ID())

	assoc.ItemsPerPage = 2
	list, err = assoc.Remote(ctx, ann, 2, false)
	require.NoError(t, err)
	assert.Equal(t, 3, list.Total)
	assert.Equal(t, 2, list.Pages)
	assert.Equal(t, 2, list.Page)
	require.Len(t, list.Items, 1)
	assert.Equal(t, ids[0], list.Items[0].Row.ID())
	assert.True(t, list.Items[0].Attached)

	require.NoError(t, assoc.Detach(ctx, ann, ids[0]))
	n, err := assoc.RemoteORM().Count(ctx, orm.Eql("author_id", ann.ID()))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAssocThrough(t *testing.T) {
	reg, drv := setup(t)
	ctx := context.Background()
	pages := reg.NewController("pages")
	pages.Model(Page{}, nil)
	assoc := pages.Assoc("tags")

	page, err := pages.ORM().Create(ctx, map[string]any{"title": "Hello"})
	require.NoError(t, err)
	var tags []*orm.Row
	for _, label := range []string{"go", "sql"} {
		tag, err := assoc.RemoteORM().Create(ctx, map[string]any{"label": label})
		require.NoError(t, err)
		tags = append(tags, tag)
	}
	joinType, ok := testGraph.Type("PageTag")
	require.True(t, ok)
	joins := orm.New(drv, joinType)

	require.NoError(t, assoc.Attach(ctx, page, tags[0].ID()))
	require.NoError(t, assoc.Attach(ctx, page, tags[0].ID()))
	n, err := joins.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	list, err := assoc.Remote(ctx, page, 1, false)
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.False(t, list.Items[0].Attached)
	assert.True(t, list.Items[1].Attached)

	list, err = assoc.Remote(ctx, page, 1, true)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, tags[0].ID(), list.Items[0].Row.ID())

	require.NoError(t, assoc.Detach(ctx, page, tags[0].ID()))
	n, err = joins.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	list, err = assoc.Remote(ctx, page, 1, true)
	require.NoError(t, err)
	assert.Empty(t, list.Items)
}

func TestAssocFilters(t *testing.T) {
	reg, _ := setup(t)
	ctx := context.Background()
	authors := reg.NewController("authors")
	authors.Model(Author{}, nil)
	assoc := authors.Assoc("pages")
	ann, err := authors.ORM().Create(ctx, map[string]any{"name": "Ann"})
	require.NoError(t, err)
	for _, status := range []string{"draft", "published", "published"} {
		_, err := assoc.RemoteORM().Create(ctx, map[string]any{"title": "t", "status": status})
		require.NoError(t, err)
	}

	var seen *orm.Row
	assoc.Filter(map[string]any{"status": "draft"}, func(_ context.Context, local *orm.Row) map[string]any {
		seen = local
		return map[string]any{"status": "published"}
	})
	assert.Equal(t, map[string]any{"status": "published"}, assoc.Filters(ctx, ann))
	list, err := assoc.Remote(ctx, ann, 1, false)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
	assert.Same(t, ann, seen)
}

func TestAssocReadonlyAndHooks(t *testing.T) {
	reg, _ := setup(t)
	ctx := context.Background()
	authors := reg.NewController("authors")
	authors.Model(Author{}, nil)
	pages := reg.NewController("pages")
	pages.Model(Page{}, nil)
	author := pages.Assoc("author")

	ann, err := authors.ORM().Create(ctx, map[string]any{"name": "Ann"})
	require.NoError(t, err)
	page, err := pages.ORM().Create(ctx, map[string]any{"title": "Hello"})
	require.NoError(t, err)

	author.Readonly = true
	err = author.Attach(ctx, page, ann.ID())
	assert.True(t, errors.Is(err, saint.ErrReadonly))
	author.Readonly = false

	var ops []string
	author.Before(func(_ context.Context, local, remote *orm.Row, op admin.AssocOp) error {
		ops = append(ops, "before "+string(op))
		if op == admin.OpDetach {
			return errors.New("locked")
		}
		return nil
	})
	author.After(func(_ context.Context, local, remote *orm.Row, op admin.AssocOp) error {
		assert.Equal(t, "Ann", remote.Get("name"))
		ops = append(ops, "after "+string(op))
		return nil
	})
	require.NoError(t, author.Attach(ctx, page, ann.ID()))
	require.EqualError(t, author.Detach(ctx, page, ann.ID()), "locked")
	assert.Equal(t, []string{"before attach", "after attach", "before detach"}, ops)
	assert.Equal(t, ann.ID(), page.Get("author_id"))
}
