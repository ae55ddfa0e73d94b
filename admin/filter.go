package admin

import (
	"net/url"
	"slices"
	"strings"

	"github.com/syssam/saint/graph"
	"github.com/syssam/saint/internal/inflector"
	"github.com/syssam/saint/orm"
)

// Filter logics.
const (
	LogicLike = "like"
	LogicEql  = "eql"
)

// FilterParam prefixes the request parameters of filters: the value of
// the "title" filter is read from "f_title", the bounds of a range
// filter from "f_created_at_from" and "f_created_at_to".
const FilterParam = "f_"

// FilterOpts configures a filter.
type FilterOpts struct {
	// Label defaults to the titleized column name.
	Label string
	// Logic is LogicLike or LogicEql. Textual filters default to like,
	// the others to eql.
	Logic string
	// NoRange makes temporal filters match a single value instead of a
	// from/to range.
	NoRange bool
	// Options are the choices of select filters. See Options.
	Options []any
}

// Filter narrows the summary by the value of a column.
type Filter struct {
	Column  string
	Type    string
	Label   string
	Logic   string
	Range   bool
	Options []OptionItem
	field   *graph.Field
}

// ActiveFilter is a filter with the values given in a request.
type ActiveFilter struct {
	*Filter
	Value string
	From  string
	To    string
}

// Param returns the request parameter of the filter value.
func (f *Filter) Param() string {
	return FilterParam + f.Column
}

// Filter declares a filter on column, or redeclares it in place.
func (c *Controller) Filter(column, typ string, opts FilterOpts) *Filter {
	if typ == "" {
		typ = TypeString
	}
	f := &Filter{
		Column:  column,
		Type:    typ,
		Label:   opts.Label,
		Logic:   opts.Logic,
		Options: optionItems(opts.Options...),
	}
	if c.typ != nil {
		f.field, _ = c.typ.Field(column)
	}
	if f.Label == "" {
		f.Label = inflector.Titleize(column)
	}
	if f.Logic == "" {
		f.Logic = LogicEql
		if (typ == TypeString || typ == TypeText || typ == TypeRTE) && (f.field == nil || f.field.Type.Textual()) {
			f.Logic = LogicLike
		}
	}
	if f.Logic != LogicLike && f.Logic != LogicEql {
		c.errorf("Filter", "%s: unknown logic %q", column, f.Logic)
		return f
	}
	f.Range = !opts.NoRange && (typ == TypeDate || typ == TypeDateTime || typ == TypeTime)
	if i := slices.IndexFunc(c.filters, func(o *Filter) bool { return o.Column == column }); i >= 0 {
		c.filters[i] = f
	} else {
		c.filters = append(c.filters, f)
	}
	return f
}

// FilterList returns the declared filters.
func (c *Controller) FilterList() []*Filter {
	return c.filters
}

// buildFilters adds a filter for every selected property that has none.
// Passwords, long texts and plain columns are not filtered.
func (c *Controller) buildFilters() {
	for _, f := range c.filters {
		f.field, _ = c.typ.Field(f.Column)
	}
	if c.noFilters {
		return
	}
	var props []orm.Property
	for _, p := range orm.Properties(c.typ, true) {
		if p.Type != TypePassword && p.Type != TypeText && p.Type != TypePlain {
			props = append(props, p)
		}
	}
	names := make([]string, len(props))
	for i, p := range props {
		names[i] = p.Name
	}
	selected := selector(names, c.filtersOpted, c.filtersIgnored)
	for _, p := range props {
		if !slices.Contains(selected, p.Name) || slices.ContainsFunc(c.filters, func(f *Filter) bool { return f.Column == p.Name }) {
			continue
		}
		var opts FilterOpts
		if p.Field.IsEnum() {
			opts.Options = []any{p.Field.EnumValues()}
		}
		if p.Type == TypeBoolean {
			opts.Options = []any{OptionItem{Value: true, Label: "Yes"}, OptionItem{Value: false, Label: "No"}}
		}
		c.Filter(p.Name, p.Type, opts)
	}
}

// FilterInstances returns the filters given a value in params.
func (c *Controller) FilterInstances(params url.Values) []ActiveFilter {
	var active []ActiveFilter
	for _, f := range c.filters {
		af := ActiveFilter{Filter: f}
		if f.Range {
			af.From = strings.TrimSpace(params.Get(f.Param() + "_from"))
			af.To = strings.TrimSpace(params.Get(f.Param() + "_to"))
			if af.From == "" && af.To == "" {
				continue
			}
		} else {
			af.Value = strings.TrimSpace(params.Get(f.Param()))
			if af.Value == "" {
				continue
			}
		}
		active = append(active, af)
	}
	return active
}

// Conditions returns the queries of the filters given a value in
// params. Values that do not convert to the column type are ignored.
func (c *Controller) Conditions(params url.Values) []orm.Query {
	var qs []orm.Query
	for _, af := range c.FilterInstances(params) {
		f := af.Filter
		switch {
		case f.Range:
			if v, ok := f.convert(af.From); ok {
				qs = append(qs, orm.Gte(f.Column, v))
			}
			if v, ok := f.convert(af.To); ok {
				qs = append(qs, orm.Lte(f.Column, v))
			}
		case f.Logic == LogicLike:
			qs = append(qs, orm.Contains(f.Column, af.Value))
		default:
			if v, ok := f.convert(af.Value); ok {
				qs = append(qs, orm.Eql(f.Column, v))
			}
		}
	}
	return qs
}

func (f *Filter) convert(s string) (any, bool) {
	if s == "" {
		return nil, false
	}
	if f.field == nil {
		return s, true
	}
	v, err := orm.Convert(f.field, s)
	if err != nil || v == nil {
		return nil, false
	}
	return orm.StorageValue(f.field, v), true
}
