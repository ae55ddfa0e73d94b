// Package dialect provides the database dialect abstraction used by the
// saint ORM adapter.
//
// # Supported Dialects
//
//   - Postgres: PostgreSQL database
//   - MySQL: MySQL/MariaDB database
//   - SQLite: SQLite database
//
// # Driver Interface
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// # Usage
//
//	import (
//	    "github.com/syssam/saint/dialect"
//	    "github.com/syssam/saint/dialect/sql"
//	)
//
//	drv, err := sql.Open(dialect.SQLite, "file:admin.db?_pragma=foreign_keys(1)")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
// # Sub-packages
//
//   - dialect/sql: statement builders, predicates and the database/sql driver
//   - dialect/sql/schema: table bootstrap from model descriptors
package dialect
