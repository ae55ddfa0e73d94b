package schema

import (
	"fmt"

	"github.com/syssam/saint/graph"
	"github.com/syssam/saint/schema/field"
)

// Table schema definition for SQL dialects.
type Table struct {
	Name        string
	Columns     []*Column
	columns     map[string]*Column
	PrimaryKey  []*Column
	ForeignKeys []*ForeignKey
	Comment     string
}

// NewTable returns a new table with the given name.
func NewTable(name string) *Table {
	return &Table{
		Name:    name,
		columns: make(map[string]*Column),
	}
}

// AddPrimary adds a new primary key to the table.
func (t *Table) AddPrimary(c *Column) *Table {
	c.Key = PrimaryKey
	t.AddColumn(c)
	t.PrimaryKey = append(t.PrimaryKey, c)
	return t
}

// AddColumn adds a new column to the table.
func (t *Table) AddColumn(c *Column) *Table {
	t.columns[c.Name] = c
	t.Columns = append(t.Columns, c)
	return t
}

// AddForeignKey adds a foreign-key to the table.
func (t *Table) AddForeignKey(fk *ForeignKey) *Table {
	t.ForeignKeys = append(t.ForeignKeys, fk)
	return t
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (*Column, bool) {
	c, ok := t.columns[name]
	return c, ok
}

// Column key types.
const (
	PrimaryKey = "PRI"
	UniqueKey  = "UNI"
)

// Column schema definition for SQL dialects.
type Column struct {
	Name      string
	Type      field.Type
	Size      int
	Key       string
	Unique    bool
	Increment bool
	Nullable  bool
	Enums     []string
	Comment   string
}

// ForeignKey definition for creation.
type ForeignKey struct {
	Symbol     string
	Columns    []*Column
	RefTable   *Table
	RefColumns []*Column
}

// Tables returns the tables of all types in the graph. Foreign keys are
// derived from the edges holding their key in the owner table and from
// the join columns of many-to-many edges.
func Tables(g *graph.Graph) ([]*Table, error) {
	tables := make([]*Table, 0, len(g.Types))
	byName := make(map[string]*Table, len(g.Types))
	for _, t := range g.Types {
		table := NewTable(t.Table)
		table.Comment = t.Comment
		table.AddPrimary(&Column{
			Name:      t.ID.Column,
			Type:      t.ID.Type,
			Increment: t.ID.Type.Integer(),
		})
		for _, f := range t.Fields {
			c := &Column{
				Name:     f.Column,
				Type:     f.Type,
				Size:     f.Size,
				Unique:   f.Unique,
				Nullable: f.Optional || f.Nillable,
				Enums:    f.EnumValues(),
				Comment:  f.Comment,
			}
			if c.Unique {
				c.Key = UniqueKey
			}
			table.AddColumn(c)
		}
		tables = append(tables, table)
		byName[t.Name] = table
	}
	for _, t := range g.Types {
		for _, e := range t.Edges {
			switch {
			case e.M2M() && !e.IsInverse():
				join := byName[e.Through.Name]
				for i, typ := range []*graph.Type{e.Owner, e.Type} {
					if err := addFK(join, e.Rel.Columns[i], byName[typ.Name]); err != nil {
						return nil, err
					}
				}
			case e.OwnsFK() && !e.M2M():
				if err := addFK(byName[t.Name], e.Column(), byName[e.Type.Name]); err != nil {
					return nil, err
				}
			}
		}
	}
	return tables, nil
}

func addFK(t *Table, column string, ref *Table) error {
	c, ok := t.Column(column)
	if !ok {
		return fmt.Errorf("sql/schema: missing foreign-key column %q in table %q", column, t.Name)
	}
	symbol := fmt.Sprintf("%s_%s_%s", t.Name, ref.Name, column)
	for _, fk := range t.ForeignKeys {
		if fk.Symbol == symbol {
			return nil
		}
	}
	t.AddForeignKey(&ForeignKey{
		Symbol:     symbol,
		Columns:    []*Column{c},
		RefTable:   ref,
		RefColumns: ref.PrimaryKey,
	})
	return nil
}
