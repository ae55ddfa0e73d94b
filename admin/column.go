package admin

import (
	"context"
	"fmt"
	"html"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/saint/graph"
	"github.com/syssam/saint/internal/inflector"
	"github.com/syssam/saint/orm"
	"github.com/syssam/saint/schema/field"
)

// Column types.
const (
	TypeString   = orm.TypeString
	TypeText     = orm.TypeText
	TypeRTE      = "rte"
	TypeSelect   = orm.TypeSelect
	TypeCheckbox = "checkbox"
	TypeRadio    = "radio"
	TypePlain    = "plain"
	TypeBoolean  = orm.TypeBoolean
	TypePassword = orm.TypePassword
	TypeDate     = orm.TypeDate
	TypeDateTime = orm.TypeDateTime
	TypeTime     = orm.TypeTime
)

// Human formats of the temporal types, used on summary pages.
const (
	HumanDate     = "Jan 02, 2006"
	HumanDateTime = "Jan 02, 2006 15:04"
	HumanTime     = "15:04"
)

// Scope is the context a column value is computed for.
type Scope string

// Value scopes.
const (
	ScopeSummary Scope = "summary"
	ScopeCrud    Scope = "crud"
	ScopeSave    Scope = "save"
)

// ValueContext is passed to value functions.
type ValueContext struct {
	Ctx    context.Context
	Row    *orm.Row
	Scope  Scope
	Column *Column
}

// ValueFunc computes the value of a column. A nil result keeps the
// value it was given.
type ValueFunc func(v any, vc ValueContext) any

// Wrapper wraps the values of columns before they are rendered.
type Wrapper interface {
	Wrap(v any) any
}

// WrapperFunc is an adapter to use a function as a Wrapper.
type WrapperFunc func(any) any

// Wrap calls f(v).
func (f WrapperFunc) Wrap(v any) any { return f(v) }

// OptionItem is a choice of select, checkbox and radio columns.
type OptionItem struct {
	Value any
	Label string
}

// Column describes how a model field is listed, edited and saved.
type Column struct {
	id       string
	name     string
	typ      string
	label    string
	tag      string
	summary  bool
	crud     bool
	save     bool
	html     bool
	multiple bool
	required bool
	options  []OptionItem
	size     int
	joinWith string
	def      any
	width    string
	height   string
	gridW    string
	cssStyle string
	cssClass string
	layout   string
	lstyle   string
	lclass   string
	grid     *Grid
	valueFn  ValueFunc
	wrapper  Wrapper
	field    *graph.Field

	summarySet, saveSet bool
}

// ColumnOption configures a column.
type ColumnOption func(*Column)

// Summary sets if the column is listed on summary pages.
func Summary(show bool) ColumnOption {
	return func(c *Column) { c.summary, c.summarySet = show, true }
}

// Crud sets if the column is shown on edit pages.
func Crud(show bool) ColumnOption {
	return func(c *Column) { c.crud = show }
}

// Save sets if the column value is saved.
func Save(save bool) ColumnOption {
	return func(c *Column) { c.save, c.saveSet = save, true }
}

// Label sets the column label.
func Label(label string) ColumnOption {
	return func(c *Column) { c.label = label }
}

// Tag sets the element rendering the column, e.g. "textarea".
func Tag(tag string) ColumnOption {
	return func(c *Column) { c.tag = tag }
}

// Wrap sets the wrapper of the column values.
func Wrap(w Wrapper) ColumnOption {
	return func(c *Column) { c.wrapper = w }
}

// HTML disables escaping of the column values.
func HTML() ColumnOption {
	return func(c *Column) { c.html = true }
}

// Multiple allows selecting more than one option.
func Multiple() ColumnOption {
	return func(c *Column) { c.multiple = true }
}

// Required rejects saving an empty value.
func Required() ColumnOption {
	return func(c *Column) { c.required = true }
}

// Size sets the size of the element.
func Size(n int) ColumnOption {
	return func(c *Column) { c.size = n }
}

// JoinWith sets the separator of multiple values. Defaults to ", ".
func JoinWith(sep string) ColumnOption {
	return func(c *Column) { c.joinWith = sep }
}

// Default sets the value of the element on new rows.
func Default(v any) ColumnOption {
	return func(c *Column) { c.def = v }
}

// Width sets the element width. Numbers are pixels.
func Width(v any) ColumnOption {
	return func(c *Column) { c.width = dimension(v) }
}

// Height sets the element height. Numbers are pixels.
func Height(v any) ColumnOption {
	return func(c *Column) { c.height = dimension(v) }
}

// CSSStyle sets the inline style of the element.
func CSSStyle(style string) ColumnOption {
	return func(c *Column) { c.cssStyle = style }
}

// CSSClass sets the class of the element.
func CSSClass(class string) ColumnOption {
	return func(c *Column) { c.cssClass = class }
}

// Layout sets the layout the element is rendered in.
func Layout(layout string) ColumnOption {
	return func(c *Column) { c.layout = layout }
}

// LayoutStyle sets the inline style of the layout.
func LayoutStyle(style string) ColumnOption {
	return func(c *Column) { c.lstyle = style }
}

// LayoutClass sets the class of the layout.
func LayoutClass(class string) ColumnOption {
	return func(c *Column) { c.lclass = class }
}

// Value sets the function computing the column value.
func Value(fn ValueFunc) ColumnOption {
	return func(c *Column) { c.valueFn = fn }
}

// Options sets the choices of the column. Maps give value to label
// pairs, sorted by value; slices and scalars are used as both value
// and label.
func Options(opts ...any) ColumnOption {
	return func(c *Column) { c.options = optionItems(opts...) }
}

func optionItems(opts ...any) []OptionItem {
	var items []OptionItem
	for _, o := range opts {
		switch o := o.(type) {
		case map[string]string:
			for _, k := range slices.Sorted(maps.Keys(o)) {
				items = append(items, OptionItem{Value: k, Label: o[k]})
			}
		case map[string]any:
			for _, k := range slices.Sorted(maps.Keys(o)) {
				items = append(items, OptionItem{Value: k, Label: fmt.Sprint(o[k])})
			}
		case map[int]string:
			for _, k := range slices.Sorted(maps.Keys(o)) {
				items = append(items, OptionItem{Value: k, Label: o[k]})
			}
		case []string:
			for _, v := range o {
				items = append(items, OptionItem{Value: v, Label: v})
			}
		case []int:
			for _, v := range o {
				items = append(items, OptionItem{Value: v, Label: strconv.Itoa(v)})
			}
		case []any:
			items = append(items, optionItems(o...)...)
		case OptionItem:
			items = append(items, o)
		default:
			items = append(items, OptionItem{Value: o, Label: fmt.Sprint(o)})
		}
	}
	return items
}

func dimension(v any) string {
	switch v := v.(type) {
	case int:
		return strconv.Itoa(v) + "px"
	case int64:
		return strconv.FormatInt(v, 10) + "px"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64) + "px"
	case string:
		if _, err := strconv.Atoi(v); err == nil {
			return v + "px"
		}
		return v
	}
	return ""
}

// columnID returns a stable identifier of a column or grid of owner.
func columnID(owner, name string) string {
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(owner+"/"+name))
	return inflector.Normalize(name) + "_" + strings.ReplaceAll(id.String(), "-", "")[:12]
}

func newColumn(owner, name, typ string, g *Grid, opts ...ColumnOption) *Column {
	if typ == "" {
		typ = TypeString
	}
	c := &Column{
		id:       columnID(owner, name),
		name:     name,
		typ:      typ,
		crud:     true,
		joinWith: ", ",
		grid:     g,
	}
	for _, opt := range opts {
		opt(c)
	}
	if !c.summarySet {
		c.summary = typ != TypeText && typ != TypeRTE
	}
	if !c.saveSet {
		c.save = typ != TypePlain
	}
	if c.label == "" {
		c.label = inflector.Titleize(name)
	}
	if c.width == "" && (typ == TypeDate || typ == TypeDateTime || typ == TypeTime) {
		c.width = "100px"
	}
	if c.height == "" && typ == TypeText {
		c.height = "100px"
	}
	if g != nil {
		c.gridW = c.width
		switch typ {
		case TypeSelect, TypeCheckbox, TypeRadio, TypePassword, TypeBoolean:
		default:
			c.width = "100%"
		}
	}
	return c
}

// ID returns the column identifier, unique within the admin.
func (c *Column) ID() string { return c.id }

// Name returns the field name of the column.
func (c *Column) Name() string { return c.name }

// Type returns the column type.
func (c *Column) Type() string { return c.typ }

// Label returns the column label.
func (c *Column) Label() string { return c.label }

// Tag returns the element rendering the column.
func (c *Column) Tag() string { return c.tag }

// Summary reports if the column is listed on summary pages.
func (c *Column) Summary() bool { return c.summary }

// Crud reports if the column is shown on edit pages.
func (c *Column) Crud() bool { return c.crud }

// Save reports if the column value is saved.
func (c *Column) Save() bool { return c.save }

// HTML reports if values are rendered unescaped.
func (c *Column) HTML() bool { return c.html }

// Multiple reports if more than one option can be selected.
func (c *Column) Multiple() bool { return c.multiple }

// Required reports if empty values are rejected.
func (c *Column) Required() bool { return c.required }

// Options returns the choices of the column.
func (c *Column) Options() []OptionItem { return c.options }

// Size returns the size of the element.
func (c *Column) Size() int { return c.size }

// JoinWith returns the separator of multiple values.
func (c *Column) JoinWith() string { return c.joinWith }

// Default returns the value of the element on new rows.
func (c *Column) Default() any { return c.def }

// Width returns the element width.
func (c *Column) Width() string { return c.width }

// Height returns the element height.
func (c *Column) Height() string { return c.height }

// GridWidth returns the width of the column cell in its grid.
func (c *Column) GridWidth() string { return c.gridW }

// CSSClass returns the class of the element.
func (c *Column) CSSClass() string { return c.cssClass }

// Layout returns the layout of the element.
func (c *Column) Layout() string { return c.layout }

// LayoutStyle returns the style of the layout.
func (c *Column) LayoutStyle() string { return c.lstyle }

// LayoutClass returns the class of the layout.
func (c *Column) LayoutClass() string { return c.lclass }

// Grid returns the grid of the column, if any.
func (c *Column) Grid() *Grid { return c.grid }

// Field returns the model field of the column, nil for virtual columns.
func (c *Column) Field() *graph.Field { return c.field }

// CSSStyle returns the inline style of the element, width and height
// included.
func (c *Column) CSSStyle() string {
	var parts []string
	if s := strings.TrimSpace(c.cssStyle); s != "" {
		parts = append(parts, strings.TrimSuffix(s, ";")+";")
	}
	if c.width != "" {
		parts = append(parts, "width: "+c.width+";")
	}
	if c.height != "" {
		parts = append(parts, "height: "+c.height+";")
	}
	return strings.Join(parts, " ")
}

// Value returns the value of the column for row in the summary or crud
// scope.
func (c *Column) Value(ctx context.Context, row *orm.Row, scope Scope) any {
	var v any
	if row != nil {
		v = row.Get(c.name)
	}
	return c.value(ctx, row, scope, v)
}

// SaveValue returns the value to be saved for the submitted value v.
func (c *Column) SaveValue(ctx context.Context, row *orm.Row, v any) any {
	return c.value(ctx, row, ScopeSave, v)
}

func (c *Column) value(ctx context.Context, row *orm.Row, scope Scope, v any) any {
	if scope == ScopeSummary && len(c.options) > 0 && c.typ != TypeCheckbox && !c.multiple {
		v = c.optionLabel(v)
	}
	if scope == ScopeSummary && c.typ == TypeBoolean {
		v = yesNo(v)
	}
	if c.valueFn != nil {
		if r := c.valueFn(v, ValueContext{Ctx: ctx, Row: row, Scope: scope, Column: c}); r != nil {
			v = r
		}
	}
	switch typ := c.temporal(); typ {
	case TypePassword:
		return v
	case TypeDate, TypeDateTime, TypeTime:
		return formatTime(typ, v, scope == ScopeSummary)
	}
	if c.wrapper != nil {
		v = c.wrapper.Wrap(v)
	}
	if s, ok := v.(string); ok && !c.html {
		return html.EscapeString(s)
	}
	return v
}

// temporal returns the type used to format the column values. Plain
// columns of temporal fields are formatted like their field.
func (c *Column) temporal() string {
	if c.typ != TypePlain || c.field == nil {
		return c.typ
	}
	switch c.field.Type {
	case field.TypeDate:
		return TypeDate
	case field.TypeTime:
		return TypeDateTime
	case field.TypeClock:
		return TypeTime
	}
	return c.typ
}

func (c *Column) optionLabel(v any) any {
	if v == nil {
		return nil
	}
	key := fmt.Sprint(v)
	for _, o := range c.options {
		if fmt.Sprint(o.Value) == key {
			return o.Label
		}
	}
	return nil
}

func yesNo(v any) any {
	var b bool
	switch v := v.(type) {
	case bool:
		b = v
	case int64:
		b = v != 0
	case int:
		b = v != 0
	case string:
		pb, err := strconv.ParseBool(v)
		if err != nil {
			return nil
		}
		b = pb
	default:
		return nil
	}
	if b {
		return "Yes"
	}
	return "No"
}

func formatTime(typ string, v any, human bool) any {
	t, ok := v.(time.Time)
	if !ok {
		return v
	}
	if t.IsZero() {
		return ""
	}
	switch {
	case typ == TypeDate && human:
		return t.Format(HumanDate)
	case typ == TypeDate:
		return t.Format(orm.DateLayout)
	case typ == TypeTime && human:
		return t.Format(HumanTime)
	case typ == TypeTime:
		return t.Format(orm.ClockLayout)
	case human:
		return t.Format(HumanDateTime)
	default:
		return t.Format(orm.DateTimeLayout)
	}
}

// Column declares a column, or redeclares it in place. Inside a Grid
// block the column joins the grid; a column redeclared elsewhere leaves
// its previous grid.
func (c *Controller) Column(name, typ string, opts ...ColumnOption) *Column {
	if c.layout != "" {
		opts = append([]ColumnOption{Layout(c.layout)}, opts...)
	}
	if c.wrapper != nil {
		opts = append([]ColumnOption{Wrap(c.wrapper)}, opts...)
	}
	col := newColumn(c.name, name, typ, c.grid, opts...)
	if c.typ != nil {
		col.field, _ = c.typ.Field(name)
	}
	if i := slices.IndexFunc(c.columns, func(o *Column) bool { return o.name == name }); i >= 0 {
		if old := c.columns[i].grid; old != nil && old != c.grid {
			old.remove(name)
		}
		c.columns[i] = col
	} else {
		c.columns = append(c.columns, col)
	}
	if c.grid != nil {
		c.grid.add(col)
	}
	return col
}

// Property is an alias of Column.
func (c *Controller) Property(name, typ string, opts ...ColumnOption) *Column {
	return c.Column(name, typ, opts...)
}

// ColumnLayout sets the layout of the columns declared afterwards.
func (c *Controller) ColumnLayout(layout string) *Controller {
	c.layout = layout
	return c
}

// ColumnInstances returns the columns in declaration order.
func (c *Controller) ColumnInstances() []*Column {
	return c.columns
}

// ColumnByName returns the named column.
func (c *Controller) ColumnByName(name string) (*Column, bool) {
	i := slices.IndexFunc(c.columns, func(o *Column) bool { return o.name == name })
	if i < 0 {
		return nil, false
	}
	return c.columns[i], true
}

// SummaryColumns returns the columns listed on summary pages.
func (c *Controller) SummaryColumns() []*Column {
	var cols []*Column
	for _, col := range c.columns {
		if col.summary && col.typ != TypePassword {
			cols = append(cols, col)
		}
	}
	return cols
}

// CrudColumns returns the columns shown on edit pages.
func (c *Controller) CrudColumns() []*Column {
	var cols []*Column
	for _, col := range c.columns {
		if col.crud {
			cols = append(cols, col)
		}
	}
	return cols
}

// buildColumns adds a column for every selected property that has none.
// Text properties are left out of summaries.
func (c *Controller) buildColumns() {
	for _, col := range c.columns {
		col.field, _ = c.typ.Field(col.name)
	}
	if c.noColumns {
		return
	}
	props := orm.Properties(c.typ, true)
	names := make([]string, len(props))
	for i, p := range props {
		names[i] = p.Name
	}
	selected := selector(names, c.columnsOpted, c.columnsIgnored)
	for _, p := range props {
		if !slices.Contains(selected, p.Name) {
			continue
		}
		if _, ok := c.ColumnByName(p.Name); ok {
			continue
		}
		var opts []ColumnOption
		if p.Type == TypeText {
			opts = append(opts, Summary(false))
		}
		if p.Field.IsEnum() {
			opts = append(opts, Options(p.Field.EnumValues()))
		}
		if l := p.Field.Annotation.Label; l != "" {
			opts = append(opts, Label(l))
		}
		c.Column(p.Name, p.Type, opts...)
	}
}
