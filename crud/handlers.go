package crud

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/syssam/saint"
	"github.com/syssam/saint/admin"
	"github.com/syssam/saint/orm"
)

// Handlers provides the HTTP handlers of one controller.
type Handlers struct {
	ctrl     *admin.Controller
	sessions sessions.Store
	log      *slog.Logger
}

// NewHandlers creates the handlers of ctrl. The session store may be
// nil, in which case the summary state is not remembered.
func NewHandlers(ctrl *admin.Controller, sessionStore sessions.Store, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{
		ctrl:     ctrl,
		sessions: sessionStore,
		log:      logger.With(slog.String("controller", ctrl.Name())),
	}
}

// Prepare binds an admin.Instance to the request and runs the
// OnRequest functions of the controller.
func (h *Handlers) Prepare(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inst := h.ctrl.Instance(r.Context())
		if err := h.ctrl.Prepare(inst.Context()); err != nil {
			h.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(inst.Context()))
	})
}

// instance returns the instance bound by Prepare.
func (h *Handlers) instance(r *http.Request) *admin.Instance {
	if inst := admin.FromContext(r.Context()); inst != nil && inst.Controller() == h.ctrl {
		return inst
	}
	return h.ctrl.Instance(r.Context())
}

func (h *Handlers) can() Capabilities {
	return Capabilities{
		Create: h.ctrl.Can(admin.CapCreate),
		Update: h.ctrl.Can(admin.CapUpdate),
		Delete: h.ctrl.Can(admin.CapDelete),
	}
}

// Summary lists a page of rows.
func (h *Handlers) Summary(w http.ResponseWriter, r *http.Request) {
	params := h.summaryParams(w, r)
	inst := h.instance(r)
	page, err := inst.Summary(params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	cols := h.ctrl.SummaryColumns()
	resp := SummaryResponse{
		Status:  StatusOK,
		Label:   h.ctrl.Label(false),
		Columns: columnData(cols),
		Rows:    make([]SummaryRow, 0, len(page.Rows)),
		Total:   page.Total,
		Page:    page.Page,
		Pages:   page.Pages,
		PerPage: page.PerPage,
		Subset:  page.Subset,
		Can:     h.can(),
	}
	pkey := h.ctrl.PrimaryKey()
	for _, row := range page.Rows {
		sr := SummaryRow{
			ID:     row.Get(pkey),
			Header: inst.H(row, admin.HOpts{}),
			Values: make([]any, len(cols)),
		}
		for i, col := range cols {
			sr.Values[i] = inst.Value(col, row, admin.ScopeSummary)
		}
		resp.Rows = append(resp.Rows, sr)
	}
	for _, s := range h.ctrl.Subsets() {
		resp.Subsets = append(resp.Subsets, s.Name)
	}
	active := make(map[string]admin.ActiveFilter, len(page.Filters))
	for _, af := range page.Filters {
		active[af.Column] = af
	}
	for _, f := range h.ctrl.FilterList() {
		fd := FilterData{
			Column:  f.Column,
			Param:   f.Param(),
			Label:   f.Label,
			Type:    f.Type,
			Logic:   f.Logic,
			Range:   f.Range,
			Options: f.Options,
		}
		if af, ok := active[f.Column]; ok {
			fd.Value, fd.From, fd.To = af.Value, af.From, af.To
		}
		resp.Filters = append(resp.Filters, fd)
	}
	writeJSON(w, http.StatusOK, resp)
}

// New returns the edit payload of a new row.
func (h *Handlers) New(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.Require(admin.CapCreate); err != nil {
		h.writeError(w, r, err)
		return
	}
	inst := h.instance(r)
	if name := r.URL.Query().Get(admin.ParamSubset); name != "" {
		inst.Subset(name)
	}
	row := inst.ORM().New(nil)
	for _, col := range h.ctrl.CrudColumns() {
		if d := col.Default(); d != nil && !row.Has(col.Name()) {
			row.Set(col.Name(), d)
		}
	}
	writeJSON(w, http.StatusOK, h.edit(inst, row))
}

// Edit returns the edit payload of a row.
func (h *Handlers) Edit(w http.ResponseWriter, r *http.Request) {
	inst := h.instance(r)
	row, err := h.load(inst, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.edit(inst, row))
}

func (h *Handlers) edit(inst *admin.Instance, row *orm.Row) EditResponse {
	resp := EditResponse{
		Status: StatusOK,
		Header: inst.H(row, admin.HOpts{}),
		Label:  h.ctrl.Label(true),
		Can:    h.can(),
	}
	if row.Persisted() {
		resp.ID = row.Get(h.ctrl.PrimaryKey())
	}
	for _, col := range h.ctrl.CrudColumns() {
		resp.Elements = append(resp.Elements, Element{
			ColumnData:  columnOf(col),
			Value:       inst.Value(col, row, admin.ScopeCrud),
			Required:    col.Required(),
			Multiple:    col.Multiple(),
			Options:     col.Options(),
			Layout:      col.Layout(),
			Style:       col.CSSStyle(),
			Class:       col.CSSClass(),
			LayoutStyle: col.LayoutStyle(),
			LayoutClass: col.LayoutClass(),
		})
	}
	for _, g := range h.ctrl.Grids() {
		gd := GridData{
			ID:      g.ID(),
			Name:    g.Name(),
			Columns: g.ColumnsPerRow(),
			Header:  g.Header(),
			Footer:  g.Footer(),
		}
		for _, col := range g.Columns() {
			gd.Elements = append(gd.Elements, col.Name())
		}
		resp.Grids = append(resp.Grids, gd)
	}
	if row.Persisted() {
		for _, a := range h.ctrl.Assocs() {
			resp.Assocs = append(resp.Assocs, h.assocData(a, resp.ID))
		}
	}
	return resp
}

// Create saves a new row.
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.Require(admin.CapCreate); err != nil {
		h.writeError(w, r, err)
		return
	}
	data, err := readForm(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	inst := h.instance(r)
	if name, ok := data[admin.ParamSubset].(string); ok && name != "" {
		inst.Subset(name)
	}
	row := inst.ORM().New(nil)
	values, err := h.values(inst, row, data)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	row.SetMap(values)
	if err := inst.ORM().Save(inst.Context(), row); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.log.InfoContext(r.Context(), "row created", slog.Any("id", row.ID()))
	writeJSON(w, http.StatusCreated, SaveResponse{Status: StatusOK, ID: row.Get(h.ctrl.PrimaryKey())})
}

// Update saves the submitted values of a row.
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.Require(admin.CapUpdate); err != nil {
		h.writeError(w, r, err)
		return
	}
	inst := h.instance(r)
	row, err := h.load(inst, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	data, err := readForm(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	values, err := h.values(inst, row, data)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := inst.ORM().Update(inst.Context(), row, values); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SaveResponse{Status: StatusOK, ID: row.Get(h.ctrl.PrimaryKey())})
}

// Delete removes a row.
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.Require(admin.CapDelete); err != nil {
		h.writeError(w, r, err)
		return
	}
	id, err := h.id(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.remove(w, r, id)
}

// DeleteMany removes the rows listed in the "ids" parameter.
func (h *Handlers) DeleteMany(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.Require(admin.CapDelete); err != nil {
		h.writeError(w, r, err)
		return
	}
	data, err := readForm(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var ids []any
	for _, s := range stringsOf(data["ids"]) {
		if id, err := h.id(s); err == nil {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		badRequest(w, "no items selected")
		return
	}
	h.remove(w, r, ids)
}

func (h *Handlers) remove(w http.ResponseWriter, r *http.Request, id any) {
	inst := h.instance(r)
	n, err := inst.ORM().Delete(inst.Context(), orm.Eql(h.ctrl.PrimaryKey(), id))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if n == 0 {
		h.writeError(w, r, saint.NewNotFoundErrorWithID(h.ctrl.Type().Name, id))
		return
	}
	h.log.InfoContext(r.Context(), "rows deleted", slog.Int("count", n))
	writeJSON(w, http.StatusOK, DeleteResponse{Status: StatusOK, Deleted: n})
}

// id converts a key given in a request to the type of the primary key.
func (h *Handlers) id(s string) (any, error) {
	f, ok := h.ctrl.Type().Field(h.ctrl.PrimaryKey())
	if !ok {
		return s, nil
	}
	v, err := orm.Convert(f, s)
	if err != nil || v == nil {
		return nil, saint.NewNotFoundErrorWithID(h.ctrl.Type().Name, s)
	}
	return v, nil
}

// load returns the row with the given key, in the subset of the
// instance.
func (h *Handlers) load(inst *admin.Instance, key string) (*orm.Row, error) {
	id, err := h.id(key)
	if err != nil {
		return nil, err
	}
	row, err := inst.ORM().First(inst.Context(), orm.Eql(h.ctrl.PrimaryKey(), id))
	if saint.IsNotFound(err) {
		return nil, saint.NewNotFoundErrorWithID(h.ctrl.Type().Name, id)
	}
	return row, err
}

func columnOf(col *admin.Column) ColumnData {
	return ColumnData{ID: col.ID(), Name: col.Name(), Label: col.Label(), Type: col.Type()}
}

func columnData(cols []*admin.Column) []ColumnData {
	data := make([]ColumnData, len(cols))
	for i, col := range cols {
		data[i] = columnOf(col)
	}
	return data
}

// pageOf returns the page number given in the query, 1 by default.
func pageOf(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get(admin.ParamPage))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
