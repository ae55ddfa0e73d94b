// Package orm reads and writes the rows of a model type described by a
// graph.Type. It is the persistence layer of the admin controllers.
//
// Queries are composed of Query options:
//
//	rows, err := pages.Filter(ctx,
//		orm.Eql("status", "published"),
//		orm.Like("name", "%go%"),
//		orm.Order("id", "desc"),
//		orm.Limit(10, 20),
//	)
//
// A subset restricts an ORM to the rows matching it and is written
// into every saved row, e.g. the pages of one author:
//
//	pages.Subset(map[string]any{"author_id": author.ID()})
//
// Hooks run around Save and Delete and are keyed by operation, the
// last hook registered for an operation wins.
package orm
