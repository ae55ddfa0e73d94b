// Package saint generates administrative interfaces from model schemas.
//
// A controller is declared once at boot. Given a model described with the
// schema DSL, saint derives its columns, relations and capabilities and
// mounts a CRUD API for it:
//
//	reg := admin.NewRegistry(drv, graph.MustNew(schema.Page{}, schema.Author{}))
//
//	authors := reg.NewController("authors")
//	authors.Model(schema.Author{}, nil)
//
//	pages := reg.NewController("pages")
//	pages.Model(schema.Page{}, func(c *admin.Controller) {
//	    c.ColumnsIgnored("meta_title", "meta_description")
//	})
//	pages.Header(admin.HeaderOpts{}, "name", " by #author.name")
//	pages.Assoc("author").Controller(authors, true)
//
//	if err := reg.Boot(); err != nil {
//	    log.Fatal(err)
//	}
//
//	router := chi.NewRouter()
//	if err := crud.SetupRoutes(router, reg, sessions.NewCookieStore(key), slog.Default()); err != nil {
//	    log.Fatal(err)
//	}
//
// The root package holds what every layer shares: sentinel and typed
// errors, the conversion of errors into user facing messages (Messages)
// and the Cache interface used by the opts store.
package saint
