package cli

import (
	"github.com/syssam/saint/admin"
)

// Doc describes the controllers of a booted registry.
type Doc struct {
	Controllers []ControllerDoc `yaml:"controllers"`
}

// ControllerDoc describes a controller.
type ControllerDoc struct {
	Name         string      `yaml:"name"`
	URL          string      `yaml:"url"`
	Label        string      `yaml:"label"`
	Model        string      `yaml:"model"`
	Table        string      `yaml:"table"`
	PKey         string      `yaml:"pkey"`
	PerPage      int         `yaml:"per_page"`
	Capabilities []string    `yaml:"capabilities,flow"`
	Columns      []ColumnDoc `yaml:"columns"`
	Assocs       []AssocDoc  `yaml:"assocs,omitempty"`
	Filters      []string    `yaml:"filters,omitempty,flow"`
	Subsets      []string    `yaml:"subsets,omitempty,flow"`
	Opts         []string    `yaml:"opts,omitempty,flow"`
}

// ColumnDoc describes a column.
type ColumnDoc struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Label    string `yaml:"label"`
	Summary  bool   `yaml:"summary"`
	Crud     bool   `yaml:"crud"`
	Save     bool   `yaml:"save"`
	Required bool   `yaml:"required,omitempty"`
	Grid     string `yaml:"grid,omitempty"`
}

// AssocDoc describes an association.
type AssocDoc struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	Remote    string `yaml:"remote"`
	Through   string `yaml:"through,omitempty"`
	LocalKey  string `yaml:"local_key"`
	RemoteKey string `yaml:"remote_key"`
	Tree      bool   `yaml:"tree,omitempty"`
	Readonly  bool   `yaml:"readonly,omitempty"`
}

// Describe returns the description of the controllers of reg.
func Describe(reg *admin.Registry) Doc {
	var doc Doc
	for _, c := range reg.Controllers() {
		cd := ControllerDoc{
			Name:         c.Name(),
			URL:          c.URL(),
			Label:        c.Label(false),
			PKey:         c.PrimaryKey(),
			PerPage:      c.PerPage(),
			Capabilities: []string{},
		}
		if t := c.Type(); t != nil {
			cd.Model, cd.Table = t.Name, t.Table
		}
		for _, cp := range []admin.Capability{admin.CapCreate, admin.CapUpdate, admin.CapDelete} {
			if c.Can(cp) {
				cd.Capabilities = append(cd.Capabilities, string(cp))
			}
		}
		for _, col := range c.ColumnInstances() {
			colDoc := ColumnDoc{
				Name:     col.Name(),
				Type:     col.Type(),
				Label:    col.Label(),
				Summary:  col.Summary(),
				Crud:     col.Crud(),
				Save:     col.Save(),
				Required: col.Required(),
			}
			if g := col.Grid(); g != nil {
				colDoc.Grid = g.Name()
				if colDoc.Grid == "" {
					colDoc.Grid = g.ID()
				}
			}
			cd.Columns = append(cd.Columns, colDoc)
		}
		for _, a := range c.Assocs() {
			ad := AssocDoc{
				Name:      a.Name,
				Type:      a.Type,
				LocalKey:  a.LocalKey,
				RemoteKey: a.RemoteKey,
				Tree:      a.IsTree(),
				Readonly:  a.Readonly,
			}
			if t := a.RemoteType(); t != nil {
				ad.Remote = t.Name
			}
			if t := a.ThroughType(); t != nil {
				ad.Through = t.Name
			}
			cd.Assocs = append(cd.Assocs, ad)
		}
		for _, f := range c.FilterList() {
			cd.Filters = append(cd.Filters, f.Column)
		}
		for _, s := range c.Subsets() {
			cd.Subsets = append(cd.Subsets, s.Name)
		}
		if pool := c.OptsPool(); pool != nil {
			for _, o := range pool.Opts() {
				cd.Opts = append(cd.Opts, o.Name)
			}
		}
		doc.Controllers = append(doc.Controllers, cd)
	}
	return doc
}
