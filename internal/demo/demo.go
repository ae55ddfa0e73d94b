// Package demo declares the controllers served by the saint command: a
// small blog with users, posts, comments, tags, a category tree and the
// site settings.
package demo

import (
	"context"
	"errors"
	"fmt"

	"github.com/syssam/saint"
	"github.com/syssam/saint/admin"
	"github.com/syssam/saint/graph"
	"github.com/syssam/saint/internal/demo/schema"
	"github.com/syssam/saint/orm"
)

// Graph holds the demo models.
var Graph = graph.MustNew(
	schema.User{},
	schema.Post{},
	schema.Comment{},
	schema.Tag{},
	schema.Category{},
	schema.Option{},
)

// ErrMaintenance is returned by the content controllers while the
// maintenance setting is on.
var ErrMaintenance = errors.New("the site is under maintenance")

// Settings declares the site settings stored in c.
func Settings(c saint.Cache) *admin.OptsPool {
	return admin.NewOptsPool(c, "settings").
		Opt("site_name", "", admin.OptOpts{Default: "Saint", Details: "Shown in the page titles"}).
		Opt("maintenance", admin.TypeBoolean, admin.OptOpts{Default: false, Details: "Locks posts and comments"}).
		Opt("theme", admin.TypeSelect, admin.OptOpts{Default: "light", Options: []any{[]string{"light", "dark"}}})
}

// Setup registers the demo controllers on reg. Settings values live in
// settings. Configuration errors are reported by reg.Boot.
func Setup(reg *admin.Registry, settings saint.Cache) {
	opts := reg.NewController("settings")
	opts.Model(schema.Option{}, nil)
	opts.Opts(Settings(settings))
	opts.Dashboard(false)

	maintenance := func(ctx context.Context) error {
		r, err := admin.NewOptsReader(ctx, opts)
		if err != nil {
			return err
		}
		if r.Bool(ctx, "maintenance") {
			return ErrMaintenance
		}
		return nil
	}

	users := reg.NewController("users")
	users.Model(schema.User{}, func(c *admin.Controller) {
		c.ColumnsIgnored("created_at", "updated_at")
		c.Column("password", admin.TypePassword, admin.Summary(false), admin.Value(hashPassword))
		c.Column("role", admin.TypeRadio, admin.Options("admin", "user", "guest"))
	})
	users.Header(admin.HeaderOpts{}, "name", " <#email>")
	users.Order("name", "asc")

	posts := reg.NewController("posts")
	posts.Model(schema.Post{}, func(c *admin.Controller) {
		c.Column("content", admin.TypeRTE, admin.Height(300))
		c.Grid("Publishing", admin.GridOpts{}, func(c *admin.Controller) {
			c.Column("status", admin.TypeSelect, admin.Options("draft", "published", "archived"))
			c.Column("published_on", admin.TypeDate)
			c.Column("view_count", admin.TypePlain, admin.Summary(false))
		})
		c.FiltersIgnored("content", "updated_at")
	})
	posts.Header(admin.HeaderOpts{}, "title", " by #author.name")
	posts.Subset("Drafts", map[string]any{"status": "draft"})
	posts.Subset("Published", map[string]any{"status": "published"})
	posts.Assoc("author").Controller(users, false)
	posts.OnRequest(maintenance)
	posts.Before(func(_ context.Context, row *orm.Row, _ orm.Op) error {
		if row.Get("status") == "published" && row.Get("published_on") == nil {
			return saint.NewValidationError("published_on", errors.New("is required to publish"))
		}
		return nil
	}, orm.OpSave)

	comments := reg.NewController("comments")
	comments.Model(schema.Comment{}, func(c *admin.Controller) {
		c.Column("body", admin.TypeText, admin.Required())
	})
	comments.Header(admin.HeaderOpts{Func: func(ctx context.Context, row *orm.Row) string {
		return fmt.Sprintf("#%v", row.ID())
	}})
	comments.Create(false)
	comments.OnRequest(maintenance)

	tags := reg.NewController("tags")
	tags.Model(schema.Tag{}, nil)
	tags.Header(admin.HeaderOpts{}, "name")

	categories := reg.NewController("categories")
	categories.Model(schema.Category{}, nil)
	categories.Header(admin.HeaderOpts{}, "name")
}
