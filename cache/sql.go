package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/syssam/saint"
	"github.com/syssam/saint/dialect"
	"github.com/syssam/saint/dialect/sql"
	"github.com/syssam/saint/dialect/sql/schema"
	"github.com/syssam/saint/schema/field"
)

// DefaultTable is the table used by SQL caches created without a name.
const DefaultTable = "saint_cache"

// SQL is a cache persisted in a database table, shared by every
// process using the same database. Expired entries are dropped when
// they are read.
type SQL struct {
	drv   dialect.Driver
	table string
	now   func() time.Time
}

// NewSQL returns a cache stored in the given table.
func NewSQL(drv dialect.Driver, table string) *SQL {
	if table == "" {
		table = DefaultTable
	}
	return &SQL{drv: drv, table: table, now: time.Now}
}

// Table returns the schema of the cache table.
func (c *SQL) Table() *schema.Table {
	t := schema.NewTable(c.table)
	t.AddPrimary(&schema.Column{Name: "name", Type: field.TypeString, Size: 255})
	t.AddColumn(&schema.Column{Name: "value", Type: field.TypeBytes})
	t.AddColumn(&schema.Column{Name: "expires_at", Type: field.TypeInt64, Nullable: true})
	return t
}

// Init creates the cache table if it does not exist.
func (c *SQL) Init(ctx context.Context) error {
	return schema.NewMigrate(c.drv).Create(ctx, c.Table())
}

func (c *SQL) builder() *sql.DialectBuilder {
	return sql.Dialect(c.drv.Dialect())
}

// Get implements saint.Cache.
func (c *SQL) Get(ctx context.Context, key string) ([]byte, error) {
	query, args := c.builder().Select("value", "expires_at").From(c.table).
		Where(sql.EQ("name", key)).
		Query()
	rows := &sql.Rows{}
	if err := c.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("cache: get %q: %w", key, err)
	}
	ms, err := sql.ScanMaps(rows)
	if err != nil {
		return nil, fmt.Errorf("cache: get %q: %w", key, err)
	}
	if len(ms) == 0 {
		return nil, nil
	}
	if exp, ok := ms[0]["expires_at"].(int64); ok && exp > 0 && c.now().UnixNano() >= exp {
		return nil, c.Delete(ctx, key)
	}
	switch v := ms[0]["value"].(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case nil:
		return []byte{}, nil
	default:
		return nil, fmt.Errorf("cache: get %q: unexpected value type %T", key, v)
	}
}

// Set implements saint.Cache. The entry is replaced in a transaction.
func (c *SQL) Set(ctx context.Context, key string, value []byte, ttl time.Duration) (rerr error) {
	var expires any
	if ttl > 0 {
		expires = c.now().Add(ttl).UnixNano()
	}
	tx, err := c.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("cache: set %q: %w", key, err)
	}
	defer func() {
		if rerr != nil {
			rerr = errors.Join(rerr, tx.Rollback())
		}
	}()
	query, args := c.builder().Delete(c.table).Where(sql.EQ("name", key)).Query()
	if err := tx.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("cache: set %q: %w", key, err)
	}
	query, args = c.builder().Insert(c.table).
		Set("name", key).
		Set("value", value).
		Set("expires_at", expires).
		Query()
	if err := tx.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("cache: set %q: %w", key, err)
	}
	return tx.Commit()
}

// Delete implements saint.Cache.
func (c *SQL) Delete(ctx context.Context, key string) error {
	return c.exec(ctx, sql.EQ("name", key))
}

// DeletePrefix implements saint.Cache. The prefix is compared as is,
// LIKE wildcards have no meaning.
func (c *SQL) DeletePrefix(ctx context.Context, prefix string) error {
	return c.exec(ctx, sql.P(func(b *sql.Builder) {
		b.WriteString("SUBSTR(").Ident("name").WriteString(", 1, ").Arg(utf8.RuneCountInString(prefix)).WriteString(") = ").Arg(prefix)
	}))
}

// Clear implements saint.Cache.
func (c *SQL) Clear(ctx context.Context) error {
	return c.exec(ctx, nil)
}

func (c *SQL) exec(ctx context.Context, p *sql.Predicate) error {
	b := c.builder().Delete(c.table)
	if p != nil {
		b.Where(p)
	}
	query, args := b.Query()
	if err := c.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	return nil
}

var _ saint.Cache = (*SQL)(nil)
