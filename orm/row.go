package orm

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/syssam/saint/graph"
	"github.com/syssam/saint/schema/field"
)

// Storage layouts of the temporal types.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
	ClockLayout    = "15:04:05"
)

// Row is a single model row. Values are keyed by field name.
type Row struct {
	typ       *graph.Type
	values    map[string]any
	dirty     map[string]bool
	persisted bool
}

// NewRow returns an empty row of the given type that is not persisted.
func NewRow(t *graph.Type) *Row {
	return &Row{
		typ:    t,
		values: make(map[string]any),
		dirty:  make(map[string]bool),
	}
}

// scanRow builds a persisted row from a column→value map.
func scanRow(t *graph.Type, m map[string]any) (*Row, error) {
	r := NewRow(t)
	for _, f := range append([]*graph.Field{t.ID}, t.Fields...) {
		v, ok := m[f.Column]
		if !ok {
			continue
		}
		cv, err := Convert(f, v)
		if err != nil {
			return nil, err
		}
		r.values[f.Name] = cv
	}
	r.persisted = true
	return r, nil
}

// Type returns the model type of the row.
func (r *Row) Type() *graph.Type {
	return r.typ
}

// ID returns the primary key value, or nil for new rows.
func (r *Row) ID() any {
	return r.values[r.typ.ID.Name]
}

// Get returns the value of the given field.
func (r *Row) Get(name string) any {
	return r.values[name]
}

// Has reports if a value was loaded or set for the given field.
func (r *Row) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// Set sets the value of a field and marks it as changed. Values are
// not converted until the row is saved.
func (r *Row) Set(name string, v any) *Row {
	r.values[name] = v
	r.dirty[name] = true
	return r
}

// SetMap sets every entry of m.
func (r *Row) SetMap(m map[string]any) *Row {
	for k, v := range m {
		r.Set(k, v)
	}
	return r
}

// Values returns a copy of the row values.
func (r *Row) Values() map[string]any {
	return maps.Clone(r.values)
}

// Persisted reports if the row was loaded from or saved to the database.
func (r *Row) Persisted() bool {
	return r.persisted
}

// Dirty reports if the row has unsaved changes.
func (r *Row) Dirty() bool {
	return len(r.dirty) > 0
}

// Changed returns the names of the changed fields, sorted.
func (r *Row) Changed() []string {
	return slices.Sorted(maps.Keys(r.dirty))
}

// String implements fmt.Stringer.
func (r *Row) String() string {
	if r.persisted {
		return fmt.Sprintf("%s(%v)", r.typ.Name, r.ID())
	}
	return r.typ.Name + "(new)"
}

// Convert converts v into the Go type of the field: string, int64,
// float64, bool, []byte or time.Time. The empty string is nil for
// non-textual fields so form values can clear nullable columns.
func Convert(f *graph.Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok && s == "" && !f.Type.Textual() && f.Type != field.TypeBytes {
		return nil, nil
	}
	switch f.Type {
	case field.TypeBool:
		switch v := v.(type) {
		case bool:
			return v, nil
		case int64:
			return v != 0, nil
		case int:
			return v != 0, nil
		case string:
			switch strings.ToLower(v) {
			case "1", "t", "true", "y", "yes", "on":
				return true, nil
			case "0", "f", "false", "n", "no", "off":
				return false, nil
			}
		}
	case field.TypeInt, field.TypeInt64:
		switch v := v.(type) {
		case int64:
			return v, nil
		case int:
			return int64(v), nil
		case int32:
			return int64(v), nil
		case float64:
			return int64(v), nil
		case bool:
			if v {
				return int64(1), nil
			}
			return int64(0), nil
		case string:
			i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%q is not an integer", v)
			}
			return i, nil
		}
	case field.TypeFloat64, field.TypeDecimal:
		switch v := v.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case int:
			return float64(v), nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, fmt.Errorf("%q is not a number", v)
			}
			return f, nil
		}
	case field.TypeTime, field.TypeDate, field.TypeClock:
		switch v := v.(type) {
		case time.Time:
			return v, nil
		case string:
			return parseTime(v)
		}
	case field.TypeBytes:
		switch v := v.(type) {
		case []byte:
			return v, nil
		case string:
			return []byte(v), nil
		}
	default:
		switch v := v.(type) {
		case string:
			return v, nil
		case []byte:
			return string(v), nil
		case fmt.Stringer:
			return v.String(), nil
		case int64, int, float64, bool:
			return fmt.Sprint(v), nil
		}
	}
	return nil, fmt.Errorf("unexpected value %v of type %T", v, v)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	DateTimeLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	DateLayout,
	ClockLayout,
	"15:04",
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not a valid time", s)
}

// StorageValue returns the value written to the column of the field.
// Dates and times of day are written in their storage layout.
func StorageValue(f *graph.Field, v any) any {
	t, ok := v.(time.Time)
	if !ok {
		return v
	}
	switch f.Type {
	case field.TypeDate:
		return t.Format(DateLayout)
	case field.TypeClock:
		return t.Format(ClockLayout)
	}
	return t
}
