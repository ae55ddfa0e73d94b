package orm_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/syssam/saint"
	"github.com/syssam/saint/dialect"
	"github.com/syssam/saint/dialect/sql"
	sqlschema "github.com/syssam/saint/dialect/sql/schema"
	"github.com/syssam/saint/graph"
	"github.com/syssam/saint/orm"
	"github.com/syssam/saint/schema/edge"
	"github.com/syssam/saint/schema/field"
	"github.com/syssam/saint/schema/mixin"
)

type (
	Author  struct{ saint.Schema }
	Page    struct{ saint.Schema }
	Tag     struct{ saint.Schema }
	PageTag struct{ saint.Schema }
)

func (Author) Fields() []saint.Field {
	return []saint.Field{
		field.String("name").NotEmpty().MaxLen(20),
		field.String("email").StorageKey("mail").Optional().Sensitive(),
	}
}

func (Author) Edges() []saint.Edge {
	return []saint.Edge{
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
		field.Int("views").Default(0),
		field.Bool("featured").Default(false),
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
		edge.To("page_tags", PageTag.Type),
	}
}

var testGraph = graph.MustNew(Author{}, Tag{})

func typeOf(t *testing.T, name string) *graph.Type {
	t.Helper()
	typ, ok := testGraph.Type(name)
	require.True(t, ok, name)
	return typ
}

func openSQLite(t *testing.T, name string) *sql.Driver {
	t.Helper()
	drv, err := sql.Open("sqlite", "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	drv.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { drv.Close() })
	tables, err := sqlschema.Tables(testGraph)
	require.NoError(t, err)
	require.NoError(t, sqlschema.NewMigrate(drv).Create(context.Background(), tables...))
	return drv
}

func TestSelector(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	authors := orm.New(sql.OpenDB(dialect.SQLite, db), typeOf(t, "Author"))
	const base = `SELECT "id", "name", "mail" FROM "authors"`

	tests := []struct {
		name  string
		query orm.Query
		want  string
		args  []any
	}{
		{"eql", orm.Eql("name", "a"), base + ` WHERE "authors"."name" = ?`, []any{"a"}},
		{"eql nil", orm.Eql("email", nil), base + ` WHERE "authors"."mail" IS NULL`, nil},
		{"eql slice", orm.Eql("id", []int{1, 2}), base + ` WHERE "authors"."id" IN (?, ?)`, []any{1, 2}},
		{"like", orm.Like("name", "a%"), base + ` WHERE "authors"."name" LIKE ?`, []any{"a%"}},
		{"contains", orm.Contains("name", "50%_off"), base + ` WHERE "authors"."name" LIKE ? ESCAPE '\'`, []any{`%50\%\_off%`}},
		{"gt", orm.Gt("id", 1), base + ` WHERE "authors"."id" > ?`, []any{1}},
		{"gte", orm.Gte("id", 1), base + ` WHERE "authors"."id" >= ?`, []any{1}},
		{"lt", orm.Lt("id", 1), base + ` WHERE "authors"."id" < ?`, []any{1}},
		{"lte", orm.Lte("id", 1), base + ` WHERE "authors"."id" <= ?`, []any{1}},
		{"not", orm.Not("name", "a"), base + ` WHERE "authors"."name" <> ?`, []any{"a"}},
		{"not nil", orm.Not("email", nil), base + ` WHERE "authors"."mail" IS NOT NULL`, nil},
		{"not slice", orm.Not("id", []int64{3}), base + ` WHERE "authors"."id" NOT IN (?)`, []any{int64(3)}},
		{"sql", orm.SQL("name", "NOT LIKE", "a%"), base + ` WHERE "authors"."name" NOT LIKE ?`, []any{"a%"}},
		{"limit", orm.Limit(10), base + ` LIMIT 10`, nil},
		{"limit offset", orm.Limit(10, 20), base + ` LIMIT 10 OFFSET 20`, nil},
		{"order", orm.Order("name", "desc"), base + ` ORDER BY "authors"."name" DESC`, nil},
		{
			"where",
			orm.Where(map[string]any{"name": "a", "email": "b"}),
			base + ` WHERE (("authors"."mail" = ?) AND ("authors"."name" = ?))`,
			[]any{"b", "a"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := authors.Selector(tt.query)
			query, args := s.Query()
			require.NoError(t, s.Err())
			assert.Equal(t, tt.want, query)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestSelectorSubset(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	authors := orm.New(sql.OpenDB(dialect.Postgres, db), typeOf(t, "Author"), orm.WithSubset(map[string]any{"name": "a"}))
	query, args := authors.Selector(orm.Gt("id", 1)).Query()
	assert.Equal(t, `SELECT "id", "name", "mail" FROM "authors" WHERE (("authors"."name" = $1) AND ("authors"."id" > $2))`, query)
	assert.Equal(t, []any{"a", 1}, args)
}

func TestOrderDirection(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	authors := orm.New(sql.OpenDB(dialect.SQLite, db), typeOf(t, "Author"))
	_, err = authors.Filter(context.Background(), orm.Order("name", "sideways"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown order direction")
	require.NoError(t, mock.ExpectationsWereMet())

	for dir, want := range map[string]string{"": sql.OrderAsc, "asc": sql.OrderAsc, " DESC ": sql.OrderDesc} {
		got, err := orm.Direction(dir)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestProperties(t *testing.T) {
	page := typeOf(t, "Page")
	names := func(props []orm.Property) map[string]string {
		m := make(map[string]string)
		for _, p := range props {
			m[p.Name] = p.Type
		}
		return m
	}
	props := orm.Properties(page, true)
	assert.Equal(t, "created_at", props[0].Name)
	assert.Equal(t, map[string]string{
		"created_at":   "plain",
		"updated_at":   "plain",
		"title":        orm.TypeString,
		"body":         orm.TypeText,
		"status":       orm.TypeSelect,
		"views":        orm.TypeString,
		"featured":     orm.TypeBoolean,
		"published_on": orm.TypeDate,
	}, names(props))
	assert.Contains(t, names(orm.Properties(page, false)), "author_id")
	assert.Equal(t, orm.TypePassword, names(orm.Properties(typeOf(t, "Author"), true))["email"])
}

func TestRelations(t *testing.T) {
	rels := orm.Relations(typeOf(t, "Page"))
	require.Len(t, rels, 2)
	assert.Equal(t, orm.BelongsTo, rels[0].Type)
	assert.Equal(t, "author", rels[0].Name)
	assert.Equal(t, "Author", rels[0].Remote.Name)
	assert.Nil(t, rels[0].Through)
	assert.Equal(t, orm.HasN, rels[1].Type)
	assert.Equal(t, "PageTag", rels[1].Through.Name)

	rels = orm.Relations(typeOf(t, "Tag"))
	require.Len(t, rels, 1, "edges to the join type are skipped")
	assert.Equal(t, "pages", rels[0].Name)
	assert.Equal(t, orm.HasN, rels[0].Type)

	rels = orm.Relations(typeOf(t, "Author"))
	require.Len(t, rels, 1)
	assert.Equal(t, orm.HasN, rels[0].Type)
}

func TestPrimaryKeyAndQuote(t *testing.T) {
	author := typeOf(t, "Author")
	assert.Equal(t, "id", orm.PrimaryKey(author))
	assert.Equal(t, `"mail"`, orm.QuoteColumn(author, "email", dialect.Postgres))
	assert.Equal(t, "`mail`", orm.QuoteColumn(author, "email", dialect.MySQL))
	assert.Equal(t, "`other`", orm.QuoteColumn(author, "other", dialect.MySQL))
}

func TestCRUD(t *testing.T) {
	ctx := context.Background()
	drv := openSQLite(t, "orm_crud")
	authors := orm.New(drv, typeOf(t, "Author"))
	pages := orm.New(drv, typeOf(t, "Page"))

	ann, err := authors.Create(ctx, map[string]any{"name": "Ann"})
	require.NoError(t, err)
	require.True(t, ann.Persisted())
	assert.Equal(t, int64(1), ann.ID())

	page, err := pages.Create(ctx, map[string]any{
		"title":        "Hello",
		"author_id":    ann.ID(),
		"published_on": "2024-05-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "draft", page.Get("status"), "default")
	assert.Equal(t, int64(0), page.Get("views"))
	assert.IsType(t, time.Time{}, page.Get("created_at"))

	got, err := pages.Get(ctx, page.ID())
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Get("title"))
	assert.Equal(t, false, got.Get("featured"))
	assert.Equal(t, ann.ID(), got.Get("author_id"))
	assert.Nil(t, got.Get("body"))
	on, ok := got.Get("published_on").(time.Time)
	require.True(t, ok)
	assert.Equal(t, "2024-05-01", on.Format(orm.DateLayout))

	got.Set("views", "42").Set("featured", "on")
	require.NoError(t, pages.Save(ctx, got))
	assert.False(t, got.Dirty())
	got, err = pages.First(ctx, orm.Gt("views", 40))
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Get("views"))
	assert.Equal(t, true, got.Get("featured"))

	n, err := pages.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = pages.Get(ctx, 100)
	require.Error(t, err)
	assert.True(t, saint.IsNotFound(err))
}

func TestValidation(t *testing.T) {
	ctx := context.Background()
	drv := openSQLite(t, "orm_validation")
	pages := orm.New(drv, typeOf(t, "Page"))

	_, err := pages.Create(ctx, map[string]any{"status": "bogus", "views": "many"})
	require.Error(t, err)
	msgs := saint.Messages(err)
	assert.ElementsMatch(t, []string{
		"title: value is required",
		`status: "bogus" is not one of [draft published]`,
		`views: "many" is not an integer`,
	}, msgs)
	assert.True(t, saint.IsValidationError(err))

	authors := orm.New(drv, typeOf(t, "Author"))
	_, err = authors.Create(ctx, map[string]any{"name": "Ann with a very long name"})
	require.Error(t, err)
	assert.Equal(t, []string{"name: value is greater than the required length"}, saint.Messages(err))

	n, err := pages.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSubset(t *testing.T) {
	ctx := context.Background()
	drv := openSQLite(t, "orm_subset")
	authors := orm.New(drv, typeOf(t, "Author"))
	ann, err := authors.Create(ctx, map[string]any{"name": "Ann"})
	require.NoError(t, err)
	bob, err := authors.Create(ctx, map[string]any{"name": "Bob"})
	require.NoError(t, err)

	all := orm.New(drv, typeOf(t, "Page"))
	_, err = all.Create(ctx, map[string]any{"title": "b1", "author_id": bob.ID()})
	require.NoError(t, err)

	pages := all.Clone().Subset(map[string]any{"author_id": ann.ID()})
	row := pages.New(map[string]any{"title": "a1"})
	require.NoError(t, pages.Save(ctx, row))
	assert.Equal(t, ann.ID(), row.Get("author_id"))

	rows, err := pages.Filter(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "a1", rows[0].Get("title"))

	n, err := all.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "clone subset does not leak into the original")
}

func TestHooks(t *testing.T) {
	ctx := context.Background()
	drv := openSQLite(t, "orm_hooks")
	pages := orm.New(drv, typeOf(t, "Page"))

	var calls []string
	record := func(name string) orm.Hook {
		return func(_ context.Context, row *orm.Row, op orm.Op) error {
			calls = append(calls, name+":"+string(op))
			return nil
		}
	}
	pages.Before(record("any"))
	pages.Before(record("first"), orm.OpSave)
	pages.Before(record("second"), orm.OpSave)
	pages.After(record("after"))
	pages.Before(func(_ context.Context, row *orm.Row, _ orm.Op) error {
		if row.Get("title") == "b" {
			return errors.New("b is protected")
		}
		return nil
	}, orm.OpDelete)

	for _, title := range []string{"a", "b", "c"} {
		require.NoError(t, pages.Save(ctx, pages.New(map[string]any{"title": title})))
	}
	assert.Equal(t, []string{
		"any:save", "second:save", "after:save",
		"any:save", "second:save", "after:save",
		"any:save", "second:save", "after:save",
	}, calls)

	calls = nil
	n, err := pages.Delete(ctx, orm.Order("title", "asc"))
	require.EqualError(t, err, "b is protected")
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"any:delete", "any:delete"}, calls, "after hooks do not run for delete")

	left, err := pages.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, left)

	calls = nil
	pages.Before(record("destroy"), orm.OpDestroy)
	removed, err := pages.Destroy(ctx, orm.Eql("title", []string{"b", "c"}))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.Equal(t, []string{"destroy:destroy"}, calls)

	pages.Before(func(context.Context, *orm.Row, orm.Op) error { return assert.AnError }, orm.OpSave)
	row := pages.New(map[string]any{"title": "d"})
	require.ErrorIs(t, pages.Save(ctx, row), assert.AnError)
	assert.False(t, row.Persisted())
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	drv := openSQLite(t, "orm_update")
	pages := orm.New(drv, typeOf(t, "Page"))

	row := pages.New(map[string]any{"title": "draft"})
	require.NoError(t, pages.Update(ctx, row, map[string]any{"views": 3}))
	assert.True(t, row.Persisted())
	assert.Equal(t, int64(3), row.Get("views"))

	row.Set("title", "unsaved")
	require.NoError(t, pages.Update(ctx, row, map[string]any{"views": 5}))
	fresh, err := pages.Get(ctx, row.ID())
	require.NoError(t, err)
	assert.Equal(t, "draft", fresh.Get("title"), "unsaved changes are dropped")
	assert.Equal(t, int64(5), fresh.Get("views"))
	assert.NotNil(t, fresh.Get("updated_at"))
}

func TestFirstOrCreate(t *testing.T) {
	ctx := context.Background()
	drv := openSQLite(t, "orm_first_or_create")
	tags := orm.New(drv, typeOf(t, "Tag"))

	a, err := tags.FirstOrCreate(ctx, map[string]any{"label": "go"})
	require.NoError(t, err)
	b, err := tags.FirstOrCreate(ctx, map[string]any{"label": "go"})
	require.NoError(t, err)
	assert.Equal(t, a.ID(), b.ID())
	n, err := tags.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPostgresInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	authors := orm.New(sql.OpenDB(dialect.Postgres, db), typeOf(t, "Author"))

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "authors" ("name") VALUES ($1) RETURNING "id"`)).
		WithArgs("Ann").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	row, err := authors.Create(context.Background(), map[string]any{"name": "Ann"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), row.ID())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMutationError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	authors := orm.New(sql.OpenDB(dialect.MySQL, db), typeOf(t, "Author"))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `authors` (`name`) VALUES (?)")).
		WillReturnError(assert.AnError)
	_, err = authors.Create(context.Background(), map[string]any{"name": "Ann"})
	var merr *saint.MutationError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "save", merr.Op)
	assert.ErrorIs(t, err, assert.AnError)
	require.NoError(t, mock.ExpectationsWereMet())
}
