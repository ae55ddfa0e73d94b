package admin

import "slices"

// GridOpts configures a grid.
type GridOpts struct {
	// Columns is the number of columns per row. It defaults to the
	// number of columns declared in the grid block, or 2.
	Columns int
	Header  string
	Footer  string
}

// Grid groups columns on edit pages.
type Grid struct {
	id      string
	name    string
	columns int
	header  string
	footer  string
	cols    []*Column
}

// Grid declares a grid and runs fn; columns declared by fn join it.
func (c *Controller) Grid(name string, opts GridOpts, fn func(*Controller)) *Grid {
	if c.grid != nil {
		c.errorf("Grid", "grid %q declared inside grid %q", name, c.grid.name)
		return c.grid
	}
	key := name
	if key == "" {
		key = "grid"
	}
	g := &Grid{
		id:     columnID(c.name+"/grid", key),
		name:   name,
		header: opts.Header,
		footer: opts.Footer,
	}
	c.grid = g
	if fn != nil {
		fn(c)
	}
	c.grid = nil
	g.columns = opts.Columns
	if g.columns == 0 {
		g.columns = len(g.cols)
	}
	if g.columns == 0 {
		g.columns = 2
	}
	c.grids = append(c.grids, g)
	return g
}

// Grids returns the declared grids.
func (c *Controller) Grids() []*Grid {
	return c.grids
}

func (g *Grid) add(col *Column) {
	for i, o := range g.cols {
		if o.name == col.name {
			g.cols[i] = col
			return
		}
	}
	g.cols = append(g.cols, col)
}

func (g *Grid) remove(name string) {
	g.cols = slices.DeleteFunc(g.cols, func(o *Column) bool { return o.name == name })
}

// ID returns the grid identifier.
func (g *Grid) ID() string { return g.id }

// Name returns the grid name, empty for anonymous grids.
func (g *Grid) Name() string { return g.name }

// ColumnsPerRow returns the number of columns per row.
func (g *Grid) ColumnsPerRow() int { return g.columns }

// Header returns the text shown above the grid.
func (g *Grid) Header() string { return g.header }

// Footer returns the text shown below the grid.
func (g *Grid) Footer() string { return g.footer }

// Columns returns the columns of the grid.
func (g *Grid) Columns() []*Column { return g.cols }
