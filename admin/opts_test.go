package admin_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/saint"
	"github.com/syssam/saint/admin"
	"github.com/syssam/saint/cache"
	"github.com/syssam/saint/orm"
)

func newSettings(t *testing.T, reg *admin.Registry, name string) (*admin.Controller, *admin.OptsPool) {
	t.Helper()
	pool := admin.NewOptsPool(nil, "")
	pool.Opt("Site Name", "", admin.OptOpts{Default: "Saint", Details: "Shown in titles"})
	pool.Opt("maintenance", admin.TypeBoolean, admin.OptOpts{Default: false})
	pool.Opt("per_page", "", admin.OptOpts{Default: "10"})
	c := reg.NewController(name)
	c.Model(Option{}, nil)
	c.Opts(pool)
	require.Empty(t, c.Errors())
	return c, pool
}

func TestOptsPool(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemory()
	pool := admin.NewOptsPool(mem, "Site Settings")
	assert.Equal(t, "site_settings", pool.Table())

	pool.Opt("Items per Page!", "", admin.OptOpts{Default: 10})
	pool.Opt("theme", admin.TypeSelect, admin.OptOpts{Default: "light", Options: []any{[]string{"light", "dark"}}})
	pool.Opt("items_per_page", "", admin.OptOpts{Default: 20})

	opts := pool.Opts()
	require.Len(t, opts, 2)
	assert.Equal(t, "items_per_page", opts[0].Name)
	assert.Equal(t, admin.TypeString, opts[0].Type)
	assert.Equal(t, 20, opts[0].Default)
	assert.Equal(t, []admin.OptionItem{{Value: "light", Label: "light"}, {Value: "dark", Label: "dark"}}, opts[1].Options)

	v, err := pool.Get(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "light", v)
	v, err = pool.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, pool.Set(ctx, "theme", "dark"))
	v, err = pool.Get(ctx, "Theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", v)
	b, err := mem.Get(ctx, saint.CacheKey{Table: "site_settings", Name: "theme"}.String())
	require.NoError(t, err)
	assert.NotEmpty(t, b)

	require.NoError(t, pool.Set(ctx, "theme", nil))
	v, err = pool.Get(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "light", v)

	assert.Error(t, pool.Set(ctx, "missing", 1))
	_, ok := pool.Lookup("missing")
	assert.False(t, ok)
}

func TestOptsController(t *testing.T) {
	reg, _ := setup(t)
	ctx := context.Background()
	settings, pool := newSettings(t, reg, "settings")
	require.NoError(t, reg.Boot())

	assert.Equal(t, "settings", pool.Table())
	assert.Same(t, pool, settings.OptsPool())
	assert.False(t, settings.Can(admin.CapCreate))
	assert.False(t, settings.Can(admin.CapDelete))
	assert.True(t, settings.Can(admin.CapUpdate))
	require.Len(t, settings.Grids(), 1)
	assert.Equal(t, []string{"name", "value"}, columnNames(settings.Grids()[0].Columns()))

	require.NoError(t, settings.Prepare(ctx))
	rows, err := settings.ORM().Filter(ctx, orm.Order("id", "asc"))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "site_name", rows[0].Get("name"))
	assert.Equal(t, "Saint", rows[0].Get("value"))
	assert.Equal(t, "false", rows[1].Get("value"))

	name, _ := settings.ColumnByName("name")
	value, _ := settings.ColumnByName("value")
	assert.Equal(t, "Site Name", name.Value(ctx, rows[0], admin.ScopeSummary))
	assert.Equal(t, admin.OptInfo{Name: "Site Name", Details: "Shown in titles"}, name.Value(ctx, rows[0], admin.ScopeCrud))
	assert.Equal(t, "Saint", value.Value(ctx, rows[0], admin.ScopeSummary))
	assert.Equal(t, admin.OptField{Type: admin.TypeString, Value: "Saint", Default: "Saint"}, value.Value(ctx, rows[0], admin.ScopeCrud))
	assert.True(t, value.Save())
	assert.False(t, name.Save())
	assert.Equal(t, "Site Name", settings.H(ctx, rows[0], admin.HOpts{}))

	inst := settings.Instance(ctx)
	require.NoError(t, inst.ORM().Update(inst.Context(), rows[0], map[string]any{"value": "My <Site>"}))
	v, err := pool.Get(ctx, "site_name")
	require.NoError(t, err)
	assert.Equal(t, "My <Site>", v)
	assert.Equal(t, "My &lt;Site&gt;", value.Value(ctx, rows[0], admin.ScopeSummary))

	require.NoError(t, settings.Prepare(ctx))
	n, err := settings.ORM().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestOptsUpdaterConcurrent(t *testing.T) {
	reg, _ := setup(t)
	ctx := context.Background()
	settings, _ := newSettings(t, reg, "settings")

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, settings.OptsUpdater(ctx))
		}()
	}
	wg.Wait()
	n, err := settings.ORM().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestOptsReader(t *testing.T) {
	reg, _ := setup(t)
	ctx := context.Background()
	settings, _ := newSettings(t, reg, "settings")

	fallback := admin.NewOptsPool(nil, "fallback")
	fallback.Opt("site_name", "", admin.OptOpts{Default: "Fallback"})
	fallback.Opt("maintenance", admin.TypeBoolean, admin.OptOpts{Default: "true"})
	fallback.Opt("footer", "", admin.OptOpts{Default: "(c)"})
	// Both editors store their rows in the options table.
	defaults := reg.NewController("defaults")
	defaults.Model(Option{}, nil)
	defaults.Opts(fallback)

	r, err := admin.NewOptsReader(ctx, settings, defaults)
	require.NoError(t, err)

	assert.Equal(t, "Saint", r.String(ctx, "site_name"))
	assert.Equal(t, "(c)", r.String(ctx, "footer"))
	assert.Equal(t, 10, r.Int(ctx, "per_page", 5))
	assert.Equal(t, 7, r.Int(ctx, "footer", 7))
	assert.Equal(t, "", r.String(ctx, "missing"))
	_, err = r.Get(ctx, "missing")
	assert.True(t, saint.IsNotFound(err))

	// Rows are shared by name, so "maintenance" is "false" for both.
	v, err := r.Get(ctx, "maintenance")
	require.NoError(t, err)
	assert.Equal(t, false, v)
	assert.False(t, r.Bool(ctx, "maintenance"))

	authors := reg.NewController("authors")
	authors.Model(Author{}, nil)
	_, err = admin.NewOptsReader(ctx, settings, authors)
	assert.Error(t, err)
}

func TestOptsErrors(t *testing.T) {
	reg, _ := setup(t)
	pool := admin.NewOptsPool(nil, "")
	early := reg.NewController("early")
	early.Opts(pool)
	early.Model(Option{}, nil)
	authors := reg.NewController("authors")
	authors.Model(Author{}, nil)
	authors.Opts(pool)
	assert.Nil(t, authors.OptsPool())

	err := reg.Boot()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "saint: early: Opts error: please define Model before dealing with Opts")
	assert.Contains(t, err.Error(), `saint: authors: Opts error: model Author has no "value" field`)
}
