// Package sql provides the SQL statement builders and the database/sql
// backed driver used by the saint ORM adapter.
//
// # Builder Types
//
//   - Builder: Low-level SQL string builder with identifier quoting
//   - Selector: SELECT query builder with predicates, ordering and pagination
//   - InsertBuilder: INSERT statement builder with RETURNING support
//   - UpdateBuilder: UPDATE statement builder with SET and WHERE clauses
//   - DeleteBuilder: DELETE statement builder with WHERE predicates
//
// # Dialect Support
//
// Identifier quoting and placeholders adapt to the dialect:
//
//	// PostgreSQL: SELECT "id", "name" FROM "pages" WHERE "author_id" = $1
//	sql.Dialect(dialect.Postgres).
//	    Select("id", "name").From("pages").Where(sql.EQ("author_id", 1))
//
//	// MySQL: SELECT `id`, `name` FROM `pages` WHERE `author_id` = ?
//	sql.Dialect(dialect.MySQL).
//	    Select("id", "name").From("pages").Where(sql.EQ("author_id", 1))
//
// # Predicates
//
//	sql.EQ("name", "john")           // name = 'john'
//	sql.NEQ("status", "deleted")     // status <> 'deleted'
//	sql.GT("age", 18)                // age > 18
//	sql.Contains("name", "john")     // name LIKE '%john%' ESCAPE '\'
//	sql.IsNull("parent_id")          // parent_id IS NULL
//	sql.In("id", 1, 2, 3)            // id IN (1, 2, 3)
//
// Field predicates defer column qualification to the selector they are
// applied to:
//
//	s := sql.Select().From("pages")
//	sql.FieldEQ("author_id", 1)(s)   // "pages"."author_id" = 1
//
// # Statistics
//
// StatsDriver and DebugDriver wrap any dialect.Driver to collect query
// statistics, report slow queries and log statements through log/slog.
package sql
