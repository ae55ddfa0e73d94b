package crud

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/syssam/saint"
	"github.com/syssam/saint/admin"
	"github.com/syssam/saint/orm"
)

const maxMemory = 32 << 20

// readForm returns the submitted values, read from a JSON object or a
// form. Form keys ending in "[]" are stored without the suffix.
func readForm(r *http.Request) (map[string]any, error) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "application/json" {
		data := make(map[string]any)
		if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
			return nil, fmt.Errorf("invalid JSON body: %w", err)
		}
		return data, nil
	}
	var err error
	if mt == "multipart/form-data" {
		err = r.ParseMultipartForm(maxMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return nil, fmt.Errorf("invalid form: %w", err)
	}
	data := make(map[string]any, len(r.PostForm))
	for k, vs := range r.PostForm {
		k = strings.TrimSuffix(k, "[]")
		switch len(vs) {
		case 0:
		case 1:
			data[k] = vs[0]
		default:
			data[k] = vs
		}
	}
	return data, nil
}

// values returns the values of the crud columns found in data, as
// they are saved. Columns that are not saved or not backed by a field
// are skipped, and so are blank passwords. A required column is
// refused when its value is blank, or missing on a new row.
func (h *Handlers) values(inst *admin.Instance, row *orm.Row, data map[string]any) (map[string]any, error) {
	var errs []error
	values := make(map[string]any)
	for _, col := range h.ctrl.CrudColumns() {
		if !col.Save() || col.Field() == nil {
			continue
		}
		v, ok := data[col.Name()]
		if ok {
			v = single(col, v)
		}
		if col.Type() == admin.TypePassword && blank(v) {
			continue
		}
		if col.Required() && blank(v) && (ok || !row.Persisted()) {
			errs = append(errs, saint.NewValidationError(col.Name(), errors.New("value is required")))
			continue
		}
		if !ok {
			continue
		}
		values[col.Name()] = col.SaveValue(inst.Context(), row, v)
	}
	if err := saint.NewAggregateError(errs...); err != nil {
		return nil, err
	}
	return values, nil
}

// single reduces submitted lists to one value. Multiple and checkbox
// columns join them with commas, the others keep the last one.
func single(col *admin.Column, v any) any {
	switch v.(type) {
	case []string, []any:
	default:
		return v
	}
	vs := stringsOf(v)
	if col.Multiple() || col.Type() == admin.TypeCheckbox {
		return strings.Join(vs, ",")
	}
	if len(vs) == 0 {
		return nil
	}
	return vs[len(vs)-1]
}

// stringsOf returns the strings of a submitted value.
func stringsOf(v any) []string {
	switch v := v.(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if e != nil {
				out = append(out, fmt.Sprint(e))
			}
		}
		return out
	case float64, bool:
		return []string{fmt.Sprint(v)}
	}
	return nil
}

func blank(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	}
	return false
}
