// Package admin derives the administration interface of models: the
// columns listed and edited for a model, its associations with other
// models, the filters and order of its summary and the opts editors.
//
// Controllers are created on a Registry and configured at startup:
//
//	reg := admin.NewRegistry(drv, graph.MustNew(Author{}, Page{}))
//	authors := reg.NewController("authors")
//	authors.Model(Author{}, func(c *admin.Controller) {
//		c.ColumnsIgnored("email")
//	})
//	pages := reg.NewController("pages")
//	pages.Model(Page{}, nil)
//	pages.Header(admin.HeaderOpts{}, "#title", " by #author.name")
//	pages.Column("body", admin.TypeRTE, admin.Height(400))
//	pages.BelongsTo("author", Author{}, func(a *admin.Assoc) {
//		a.Controller(authors, false)
//	})
//	if err := reg.Boot(); err != nil {
//		log.Fatal(err)
//	}
//
// Columns, associations and filters are built from the model unless
// the model block opts out of them. Configuration mistakes are recorded
// and returned by Registry.Boot, which must succeed before the admin is
// served. Requests are served through an Instance, which binds the
// controller hooks to its own ORM.
package admin
