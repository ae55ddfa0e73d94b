package demo

import (
	"context"
	"fmt"
	"time"

	"github.com/syssam/saint/admin"
)

// Seed fills an empty database with sample rows. It does nothing when
// users exist already.
func Seed(ctx context.Context, reg *admin.Registry) error {
	ctrl := func(name string) (*admin.Controller, error) {
		c, ok := reg.Controller(name)
		if !ok {
			return nil, fmt.Errorf("demo: controller %q is not registered", name)
		}
		return c, nil
	}
	users, err := ctrl("users")
	if err != nil {
		return err
	}
	n, err := users.ORM().Count(ctx)
	if err != nil || n > 0 {
		return err
	}
	posts, err := ctrl("posts")
	if err != nil {
		return err
	}
	tags, err := ctrl("tags")
	if err != nil {
		return err
	}
	comments, err := ctrl("comments")
	if err != nil {
		return err
	}
	categories, err := ctrl("categories")
	if err != nil {
		return err
	}

	owner, err := users.ORM().Create(ctx, map[string]any{
		"name":     "Admin",
		"email":    "admin@example.com",
		"password": HashPassword("admin"),
		"role":     "admin",
	})
	if err != nil {
		return fmt.Errorf("demo: seed users: %w", err)
	}
	var tagIDs []any
	for _, name := range []string{"go", "admin", "news"} {
		row, err := tags.ORM().Create(ctx, map[string]any{"name": name})
		if err != nil {
			return fmt.Errorf("demo: seed tags: %w", err)
		}
		tagIDs = append(tagIDs, row.ID())
	}
	for i, title := range []string{"Hello, world", "Release notes", "Roadmap"} {
		data := map[string]any{
			"title":     title,
			"content":   "<p>" + title + "</p>",
			"author_id": owner.ID(),
			"status":    "draft",
		}
		if i < 2 {
			data["status"] = "published"
			data["published_on"] = time.Now().AddDate(0, 0, -i)
		}
		post, err := posts.ORM().Create(ctx, data)
		if err != nil {
			return fmt.Errorf("demo: seed posts: %w", err)
		}
		if err := posts.Assoc("tags").Attach(ctx, post, tagIDs[i]); err != nil {
			return fmt.Errorf("demo: seed post tags: %w", err)
		}
		if _, err := comments.ORM().Create(ctx, map[string]any{
			"body":     "First comment on " + title,
			"approved": i == 0,
			"post_id":  post.ID(),
		}); err != nil {
			return fmt.Errorf("demo: seed comments: %w", err)
		}
	}
	root, err := categories.ORM().Create(ctx, map[string]any{"name": "Docs"})
	if err != nil {
		return fmt.Errorf("demo: seed categories: %w", err)
	}
	for _, name := range []string{"Guides", "Reference"} {
		if _, err := categories.ORM().Create(ctx, map[string]any{"name": name, "parent_id": root.ID()}); err != nil {
			return fmt.Errorf("demo: seed categories: %w", err)
		}
	}
	return nil
}
