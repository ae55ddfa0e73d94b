package schema

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	atlas "ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"

	"github.com/syssam/saint/dialect"
	"github.com/syssam/saint/schema/field"
)

// MigrateOption allows configuring Migrate using functional arguments.
type MigrateOption func(*Migrate)

// WithForeignKeys enables creating foreign-key constraints.
// Tables are then created in dependency order where possible.
func WithForeignKeys(b bool) MigrateOption {
	return func(m *Migrate) {
		m.withForeignKeys = b
	}
}

// WithDryRun writes the statements to w instead of executing them.
func WithDryRun(w io.Writer) MigrateOption {
	return func(m *Migrate) {
		m.dryRun = w
	}
}

// WithLogger sets the logger used to report created tables.
func WithLogger(l *slog.Logger) MigrateOption {
	return func(m *Migrate) {
		m.logger = l
	}
}

// Migrate creates the tables of a graph when they are missing. It never
// alters or drops existing tables; schema evolution belongs to a real
// migration tool.
type Migrate struct {
	drv             dialect.Driver
	withForeignKeys bool
	dryRun          io.Writer
	logger          *slog.Logger
}

// NewMigrate creates a migrate object for the given driver.
func NewMigrate(drv dialect.Driver, opts ...MigrateOption) *Migrate {
	m := &Migrate{drv: drv, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create validates the tables and runs the planned CREATE statements
// inside a single transaction. Every statement carries IF NOT EXISTS,
// so running Create twice is a no-op.
func (m *Migrate) Create(ctx context.Context, tables ...*Table) (rerr error) {
	stmts, err := m.Plan(ctx, tables...)
	if err != nil {
		return err
	}
	if m.dryRun != nil {
		for _, stmt := range stmts {
			if _, err := fmt.Fprintln(m.dryRun, stmt+";"); err != nil {
				return err
			}
		}
		return nil
	}
	tx, err := m.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("sql/schema: begin tx: %w", err)
	}
	defer func() {
		if rerr != nil {
			rerr = errors.Join(rerr, tx.Rollback())
		}
	}()
	for _, stmt := range stmts {
		if err := tx.Exec(ctx, stmt, []any{}, nil); err != nil {
			return fmt.Errorf("sql/schema: exec %q: %w", stmt, err)
		}
		m.logger.DebugContext(ctx, "statement applied", slog.String("stmt", stmt))
	}
	return tx.Commit()
}

// Plan validates the tables and returns the statements that create them
// in the dialect of the driver.
func (m *Migrate) Plan(ctx context.Context, tables ...*Table) ([]string, error) {
	if err := Validate(tables); err != nil {
		return nil, fmt.Errorf("sql/schema: invalid schema: %w", err)
	}
	if m.withForeignKeys {
		tables = sortTables(tables)
	}
	d := m.drv.Dialect()
	planner, err := planApplier(d)
	if err != nil {
		return nil, err
	}
	changes := make([]atlas.Change, 0, len(tables))
	for _, t := range m.atlasTables(d, tables) {
		add := &atlas.AddTable{T: t}
		// The SQLite planner writes the clause after the table name.
		if d != dialect.SQLite {
			add.Extra = append(add.Extra, &atlas.IfNotExists{})
		}
		changes = append(changes, add)
	}
	plan, err := planner.PlanChanges(ctx, "saint", changes)
	if err != nil {
		return nil, fmt.Errorf("sql/schema: plan changes: %w", err)
	}
	stmts := make([]string, 0, len(plan.Changes))
	for _, c := range plan.Changes {
		stmts = append(stmts, ifNotExists(c.Cmd))
	}
	return stmts, nil
}

func planApplier(d string) (migrate.PlanApplier, error) {
	switch d {
	case dialect.SQLite:
		return sqlite.DefaultPlan, nil
	case dialect.MySQL:
		return mysql.DefaultPlan, nil
	case dialect.Postgres:
		return postgres.DefaultPlan, nil
	default:
		return nil, fmt.Errorf("sql/schema: unsupported dialect %q", d)
	}
}

// ifNotExists adds the IF NOT EXISTS clause to CREATE TABLE and CREATE
// INDEX statements that lack it.
func ifNotExists(cmd string) string {
	for _, p := range []string{"CREATE TABLE ", "CREATE UNIQUE INDEX ", "CREATE INDEX "} {
		if rest, ok := strings.CutPrefix(cmd, p); ok {
			if strings.HasPrefix(rest, "IF NOT EXISTS") {
				return cmd
			}
			return p + "IF NOT EXISTS " + rest
		}
	}
	return cmd
}

// atlasTables converts the tables to their atlas representation.
// Foreign keys are resolved after all tables exist, since they may
// reference each other.
func (m *Migrate) atlasTables(d string, tables []*Table) []*atlas.Table {
	var (
		ts     = make([]*atlas.Table, len(tables))
		byName = make(map[string]*atlas.Table, len(tables))
	)
	for i, t := range tables {
		at := atlas.NewTable(t.Name)
		for _, c := range t.Columns {
			ac := atlasColumn(d, c)
			at.AddColumns(ac)
			if c.Unique && c.Key != PrimaryKey {
				idx := atlas.NewUniqueIndex(t.Name + "_" + c.Name + "_key").AddColumns(ac)
				if d == dialect.Postgres {
					idx.AddAttrs(postgres.UniqueConstraint(idx.Name))
				}
				at.AddIndexes(idx)
			}
		}
		if len(t.PrimaryKey) > 0 {
			pk := make([]*atlas.Column, 0, len(t.PrimaryKey))
			for _, c := range t.PrimaryKey {
				ac, _ := at.Column(c.Name)
				pk = append(pk, ac)
			}
			at.SetPrimaryKey(atlas.NewPrimaryKey(pk...))
		}
		ts[i], byName[t.Name] = at, at
	}
	if !m.withForeignKeys {
		return ts
	}
	for i, t := range tables {
		for _, fk := range t.ForeignKeys {
			ref := byName[fk.RefTable.Name]
			afk := atlas.NewForeignKey(fk.Symbol).SetRefTable(ref).SetOnDelete(atlas.SetNull)
			for _, c := range fk.Columns {
				ac, _ := ts[i].Column(c.Name)
				afk.AddColumns(ac)
			}
			for _, c := range fk.RefColumns {
				ac, _ := ref.Column(c.Name)
				afk.AddRefColumns(ac)
			}
			ts[i].AddForeignKeys(afk)
		}
	}
	return ts
}

// atlasColumn returns the atlas column of c typed for the dialect d.
func atlasColumn(d string, c *Column) *atlas.Column {
	var ac *atlas.Column
	switch c.Type {
	case field.TypeBool:
		typ := "boolean"
		if d != dialect.Postgres {
			typ = "bool"
		}
		ac = atlas.NewBoolColumn(c.Name, typ)
	case field.TypeTime:
		typ := "datetime"
		if d == dialect.Postgres {
			typ = "timestamptz"
		}
		ac = atlas.NewTimeColumn(c.Name, typ)
	case field.TypeDate:
		ac = atlas.NewTimeColumn(c.Name, "date")
	case field.TypeClock:
		ac = atlas.NewTimeColumn(c.Name, "time")
	case field.TypeEnum:
		if d == dialect.MySQL && len(c.Enums) > 0 {
			values := make([]string, len(c.Enums))
			for i, v := range c.Enums {
				values[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
			}
			ac = atlas.NewEnumColumn(c.Name, atlas.EnumValues(values...))
		} else {
			ac = stringColumn(d, c.Name, 255)
		}
	case field.TypeString:
		size := c.Size
		if size <= 0 {
			size = 255
		}
		ac = stringColumn(d, c.Name, size)
	case field.TypeText:
		typ := "text"
		if d == dialect.MySQL {
			typ = "longtext"
		}
		ac = atlas.NewStringColumn(c.Name, typ)
	case field.TypeBytes:
		typ := "blob"
		if d == dialect.Postgres {
			typ = "bytea"
		}
		ac = atlas.NewBinaryColumn(c.Name, typ)
	case field.TypeInt, field.TypeInt64:
		typ := "bigint"
		switch {
		case c.Increment && d == dialect.SQLite:
			typ = "integer"
		case c.Type == field.TypeInt && d == dialect.Postgres:
			typ = "integer"
		case c.Type == field.TypeInt:
			typ = "int"
		}
		ac = atlas.NewIntColumn(c.Name, typ)
	case field.TypeFloat64:
		typ := "double"
		if d == dialect.Postgres {
			typ = "double precision"
		}
		ac = atlas.NewFloatColumn(c.Name, typ)
	case field.TypeDecimal:
		ac = atlas.NewDecimalColumn(c.Name, "decimal", atlas.DecimalPrecision(10), atlas.DecimalScale(2))
	default:
		ac = atlas.NewStringColumn(c.Name, "text")
	}
	ac.SetNull(c.Nullable)
	if c.Increment {
		switch d {
		case dialect.SQLite:
			ac.AddAttrs(&sqlite.AutoIncrement{})
		case dialect.MySQL:
			ac.AddAttrs(&mysql.AutoIncrement{})
		case dialect.Postgres:
			ac.AddAttrs(&postgres.Identity{Generation: "BY DEFAULT"})
		}
	}
	return ac
}

// stringColumn returns a varchar column. The SQLite formatter ignores
// the size attribute, so it is part of the type name there.
func stringColumn(d, name string, size int) *atlas.Column {
	if d == dialect.SQLite {
		return atlas.NewStringColumn(name, "varchar("+strconv.Itoa(size)+")")
	}
	return atlas.NewStringColumn(name, "varchar", atlas.StringSize(size))
}

// sortTables orders the tables so that referenced tables come first.
// Tables taking part in a reference cycle keep their input order.
func sortTables(tables []*Table) []*Table {
	var (
		sorted  = make([]*Table, 0, len(tables))
		visited = make(map[*Table]int, len(tables))
		visit   func(*Table)
	)
	visit = func(t *Table) {
		switch visited[t] {
		case 1, 2:
			return
		}
		visited[t] = 1
		for _, fk := range t.ForeignKeys {
			if fk.RefTable != t {
				visit(fk.RefTable)
			}
		}
		visited[t] = 2
		sorted = append(sorted, t)
	}
	for _, t := range tables {
		visit(t)
	}
	return sorted
}
