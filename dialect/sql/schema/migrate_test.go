package schema

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/syssam/saint"
	"github.com/syssam/saint/dialect"
	"github.com/syssam/saint/dialect/sql"
	"github.com/syssam/saint/graph"
	"github.com/syssam/saint/schema/edge"
	"github.com/syssam/saint/schema/field"
)

type (
	Author  struct{ saint.Schema }
	Page    struct{ saint.Schema }
	Tag     struct{ saint.Schema }
	PageTag struct{ saint.Schema }
)

func (Author) Fields() []saint.Field {
	return []saint.Field{
		field.String("name").Unique(),
	}
}

func (Author) Edges() []saint.Edge {
	return []saint.Edge{
		edge.To("pages", Page.Type),
	}
}

func (Page) Fields() []saint.Field {
	return []saint.Field{
		field.String("title").MaxLen(100),
		field.Text("body").Optional(),
		field.Enum("status").Values("draft", "published"),
		field.Bool("published").Default(false),
		field.Int("views"),
		field.Float("rating").Optional(),
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

func testTables(t *testing.T) []*Table {
	t.Helper()
	g, err := graph.New(Author{})
	require.NoError(t, err)
	tables, err := Tables(g)
	require.NoError(t, err)
	return tables
}

func TestTables(t *testing.T) {
	tables := testTables(t)
	require.Len(t, tables, 4)
	names := make([]string, len(tables))
	for i, tt := range tables {
		names[i] = tt.Name
	}
	assert.Equal(t, []string{"authors", "pages", "tags", "page_tags"}, names)

	authors, pages, tags, join := tables[0], tables[1], tables[2], tables[3]
	require.Len(t, authors.PrimaryKey, 1)
	assert.True(t, authors.PrimaryKey[0].Increment)
	assert.Equal(t, PrimaryKey, authors.PrimaryKey[0].Key)
	name, ok := authors.Column("name")
	require.True(t, ok)
	assert.Equal(t, UniqueKey, name.Key)
	assert.Empty(t, authors.ForeignKeys)

	fk, ok := pages.Column("author_id")
	require.True(t, ok)
	assert.True(t, fk.Nullable)
	assert.Equal(t, field.TypeInt64, fk.Type)
	require.Len(t, pages.ForeignKeys, 1)
	assert.Equal(t, "pages_authors_author_id", pages.ForeignKeys[0].Symbol)
	assert.Same(t, authors, pages.ForeignKeys[0].RefTable)
	status, _ := pages.Column("status")
	assert.Equal(t, []string{"draft", "published"}, status.Enums)

	require.Len(t, join.ForeignKeys, 2)
	assert.Same(t, pages, join.ForeignKeys[0].RefTable)
	assert.Same(t, tags, join.ForeignKeys[1].RefTable)
	assert.Equal(t, "page_id", join.ForeignKeys[0].Columns[0].Name)
	assert.Equal(t, "tag_id", join.ForeignKeys[1].Columns[0].Name)
}

func TestPlan(t *testing.T) {
	tables := testTables(t)
	tests := []struct {
		dialect string
		opts    []MigrateOption
		want    []string
	}{
		{
			dialect: dialect.SQLite,
			want: []string{
				"CREATE TABLE IF NOT EXISTS `authors`",
				"`id` integer NOT NULL PRIMARY KEY AUTOINCREMENT",
				"`name` varchar(255) NOT NULL",
				"CREATE UNIQUE INDEX IF NOT EXISTS `authors_name_key` ON `authors`",
			},
		},
		{
			dialect: dialect.Postgres,
			want: []string{
				`CREATE TABLE IF NOT EXISTS "authors"`,
				`"id" bigint NOT NULL GENERATED BY DEFAULT AS IDENTITY`,
				`"name" character varying(255) NOT NULL`,
				`CONSTRAINT "authors_name_key" UNIQUE`,
				`"title" character varying(100) NOT NULL`,
				`"status" character varying(255) NOT NULL`,
				`"rating" double precision NULL`,
			},
		},
		{
			dialect: dialect.MySQL,
			want: []string{
				"CREATE TABLE IF NOT EXISTS `pages`",
				"`id` bigint NOT NULL AUTO_INCREMENT",
				"`body` longtext NULL",
				"`status` enum('draft','published') NOT NULL",
				"`views` int NOT NULL",
				"`author_id` bigint NULL",
			},
		},
		{
			dialect: dialect.MySQL,
			opts:    []MigrateOption{WithForeignKeys(true)},
			want: []string{
				"CREATE TABLE IF NOT EXISTS `page_tags`",
				"CONSTRAINT `page_tags_pages_page_id` FOREIGN KEY (`page_id`) REFERENCES `pages` (`id`)",
				"ON DELETE SET NULL",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			db, _, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			stmts, err := NewMigrate(sql.OpenDB(tt.dialect, db), tt.opts...).Plan(context.Background(), tables...)
			require.NoError(t, err)
			out := strings.Join(stmts, "\n")
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
			if len(tt.opts) == 0 {
				assert.NotContains(t, out, "FOREIGN KEY")
			}
		})
	}
}

func TestPlanUnsupportedDialect(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	_, err = NewMigrate(sql.OpenDB("oracle", db)).Plan(context.Background(), testTables(t)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported dialect")
}

func TestIfNotExists(t *testing.T) {
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS `t` (`a` int)", ifNotExists("CREATE TABLE `t` (`a` int)"))
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS `t` (`a` int)", ifNotExists("CREATE TABLE IF NOT EXISTS `t` (`a` int)"))
	assert.Equal(t, "CREATE UNIQUE INDEX IF NOT EXISTS `i` ON `t` (`a`)", ifNotExists("CREATE UNIQUE INDEX `i` ON `t` (`a`)"))
	assert.Equal(t, "PRAGMA foreign_keys = on", ifNotExists("PRAGMA foreign_keys = on"))
}

func TestMigrateCreate(t *testing.T) {
	tables := testTables(t)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	m := NewMigrate(sql.OpenDB(dialect.SQLite, db))
	stmts, err := m.Plan(context.Background(), tables...)
	require.NoError(t, err)
	require.NotEmpty(t, stmts)

	mock.ExpectBegin()
	for _, stmt := range stmts {
		mock.ExpectExec(regexp.QuoteMeta(stmt)).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectCommit()
	require.NoError(t, m.Create(context.Background(), tables...))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateCreateRollback(t *testing.T) {
	tables := testTables(t)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	m := NewMigrate(sql.OpenDB(dialect.MySQL, db))
	stmts, err := m.Plan(context.Background(), tables...)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(stmts[0])).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()
	err = m.Create(context.Background(), tables...)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateDryRun(t *testing.T) {
	tables := testTables(t)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	var buf bytes.Buffer
	m := NewMigrate(sql.OpenDB(dialect.Postgres, db), WithDryRun(&buf), WithForeignKeys(true))
	require.NoError(t, m.Create(context.Background(), tables...))
	out := buf.String()
	assert.Contains(t, out, `CREATE TABLE IF NOT EXISTS "authors"`)
	assert.Contains(t, out, `REFERENCES "tags" ("id")`)
	assert.Less(t, strings.Index(out, `"authors" (`), strings.Index(out, `"pages" (`))
	for _, line := range strings.Split(strings.TrimSpace(out), ";\n") {
		assert.NotEmpty(t, line)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateInvalid(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	a, b := NewTable("users"), NewTable("users")
	err = NewMigrate(sql.OpenDB(dialect.SQLite, db)).Create(context.Background(), a, b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "users: table is declared twice")
}

func TestMigrateSQLite(t *testing.T) {
	drv, err := sql.Open("sqlite", "file:migrate?mode=memory&cache=shared&_pragma=foreign_keys(1)")
	require.NoError(t, err)
	drv.DB().SetMaxOpenConns(1)
	defer drv.Close()

	ctx := context.Background()
	m := NewMigrate(drv, WithForeignKeys(true))
	tables := testTables(t)
	require.NoError(t, m.Create(ctx, tables...))
	// Running it again is a no-op.
	require.NoError(t, m.Create(ctx, tables...))

	query, args := sql.Dialect(dialect.SQLite).Insert("authors").Set("name", "Ann").Query()
	require.NoError(t, drv.Exec(ctx, query, args, nil))
	rows := &sql.Rows{}
	require.NoError(t, drv.Query(ctx, `SELECT COUNT(*) FROM "authors"`, []any{}, rows))
	n, err := sql.ScanInt(rows)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSortTables(t *testing.T) {
	a, b, c := NewTable("a"), NewTable("b"), NewTable("c")
	a.AddForeignKey(&ForeignKey{RefTable: b})
	b.AddForeignKey(&ForeignKey{RefTable: c})
	c.AddForeignKey(&ForeignKey{RefTable: c})
	sorted := sortTables([]*Table{a, b, c})
	assert.Equal(t, []*Table{c, b, a}, sorted)
}

func TestValidate(t *testing.T) {
	tbl := NewTable("t")
	tbl.AddColumn(&Column{Name: "x"}).AddColumn(&Column{Name: "x"})
	tbl.AddForeignKey(&ForeignKey{Columns: []*Column{{Name: "y"}}, RefTable: NewTable("r")})
	err := Validate([]*Table{tbl})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "t.x: column is declared twice")
	assert.Contains(t, err.Error(), "t.y: foreign key column does not exist")
	assert.Contains(t, err.Error(), `t: foreign key references unknown table "r"`)

	var te *TableError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "t", te.Table)

	ok := NewTable("ok")
	ok.AddPrimary(&Column{Name: "id", Type: field.TypeInt64, Increment: true})
	assert.NoError(t, Validate([]*Table{ok}))
	assert.Error(t, Validate([]*Table{ok, ok}))
}
