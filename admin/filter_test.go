package admin_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/saint/admin"
)

func TestAutomaticFilters(t *testing.T) {
	reg, _ := setup(t)
	pages := reg.NewController("pages")
	pages.Model(Page{}, nil)

	byColumn := make(map[string]*admin.Filter)
	var names []string
	for _, f := range pages.FilterList() {
		byColumn[f.Column] = f
		names = append(names, f.Column)
	}
	assert.Equal(t, []string{"title", "status", "visible", "published_on"}, names)

	title := byColumn["title"]
	assert.Equal(t, admin.LogicLike, title.Logic)
	assert.Equal(t, "Title", title.Label)
	assert.Equal(t, "f_title", title.Param())
	assert.False(t, title.Range)

	status := byColumn["status"]
	assert.Equal(t, admin.LogicEql, status.Logic)
	assert.Equal(t, []admin.OptionItem{{Value: "draft", Label: "draft"}, {Value: "published", Label: "published"}}, status.Options)

	visible := byColumn["visible"]
	assert.Equal(t, admin.LogicEql, visible.Logic)
	assert.Equal(t, []admin.OptionItem{{Value: true, Label: "Yes"}, {Value: false, Label: "No"}}, visible.Options)

	published := byColumn["published_on"]
	assert.True(t, published.Range)
	assert.Equal(t, "Published On", published.Label)
}

func TestFilterSelection(t *testing.T) {
	reg, _ := setup(t)
	pages := reg.NewController("pages")
	pages.Model(Page{}, func(c *admin.Controller) {
		c.FiltersIgnored("visible", "published_on")
		c.Filter("published_on", admin.TypeDate, admin.FilterOpts{Label: "Day", NoRange: true})
		c.Filter("title", admin.TypeString, admin.FilterOpts{Logic: admin.LogicEql})
		c.Filter("status", admin.TypeSelect, admin.FilterOpts{Logic: "regexp"})
	})

	var names []string
	for _, f := range pages.FilterList() {
		names = append(names, f.Column)
	}
	assert.Equal(t, []string{"published_on", "title", "status"}, names)
	assert.False(t, pages.FilterList()[0].Range)
	assert.Equal(t, "Day", pages.FilterList()[0].Label)
	assert.Equal(t, admin.LogicEql, pages.FilterList()[1].Logic)
	require.Len(t, pages.Errors(), 1)
	assert.Contains(t, pages.Errors()[0].Error(), `saint: pages: Filter error: status: unknown logic "regexp"`)

	authors := reg.NewController("authors")
	authors.Model(Author{}, func(c *admin.Controller) {
		c.Filters(false)
	})
	assert.Empty(t, authors.FilterList())
}

func TestFilterInstances(t *testing.T) {
	reg, _ := setup(t)
	pages := reg.NewController("pages")
	pages.Model(Page{}, nil)

	params := url.Values{
		"f_title":             {"  hello "},
		"f_status":            {""},
		"f_published_on_from": {"2024-01-01"},
	}
	active := pages.FilterInstances(params)
	require.Len(t, active, 2)
	assert.Equal(t, "title", active[0].Column)
	assert.Equal(t, "hello", active[0].Value)
	assert.Equal(t, "published_on", active[1].Column)
	assert.Equal(t, "2024-01-01", active[1].From)
	assert.Empty(t, active[1].To)
}

func TestFilterConditions(t *testing.T) {
	reg, _ := setup(t)
	ctx := context.Background()
	pages := reg.NewController("pages")
	pages.Model(Page{}, nil)
	for _, data := range []map[string]any{
		{"title": "Hello world", "status": "published", "published_on": time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
		{"title": "Hello again", "status": "draft", "visible": false, "published_on": time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)},
		{"title": "Goodbye", "status": "published", "published_on": time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)},
	} {
		_, err := pages.ORM().Create(ctx, data)
		require.NoError(t, err)
	}

	count := func(params url.Values) int {
		t.Helper()
		n, err := pages.ORM().Count(ctx, pages.Conditions(params)...)
		require.NoError(t, err)
		return n
	}
	assert.Equal(t, 3, count(url.Values{}))
	assert.Equal(t, 2, count(url.Values{"f_title": {"hello"}}))
	assert.Equal(t, 2, count(url.Values{"f_status": {"published"}}))
	assert.Equal(t, 1, count(url.Values{"f_visible": {"false"}}))
	assert.Equal(t, 2, count(url.Values{"f_visible": {"yes"}}))
	assert.Equal(t, 2, count(url.Values{"f_published_on_from": {"2024-02-01"}}))
	assert.Equal(t, 1, count(url.Values{"f_published_on_from": {"2024-02-01"}, "f_published_on_to": {"2024-02-28"}}))
	assert.Equal(t, 1, count(url.Values{"f_title": {"hello"}, "f_status": {"draft"}}))
	assert.Equal(t, 3, count(url.Values{"f_published_on_to": {"not a date"}}), "invalid values are ignored")
}

func TestFilterConditionsMatchWildcardsLiterally(t *testing.T) {
	reg, _ := setup(t)
	ctx := context.Background()
	pages := reg.NewController("pages")
	pages.Model(Page{}, nil)
	for _, title := range []string{"100% sure", "1000 sure", "a_b", "axb", `back\slash`} {
		_, err := pages.ORM().Create(ctx, map[string]any{"title": title, "status": "draft"})
		require.NoError(t, err)
	}
	count := func(v string) int {
		t.Helper()
		n, err := pages.ORM().Count(ctx, pages.Conditions(url.Values{"f_title": {v}})...)
		require.NoError(t, err)
		return n
	}
	assert.Equal(t, 1, count("100%"))
	assert.Equal(t, 1, count("a_b"))
	assert.Equal(t, 1, count("%"))
	assert.Equal(t, 1, count(`k\s`))
	assert.Equal(t, 2, count("sure"))
}
