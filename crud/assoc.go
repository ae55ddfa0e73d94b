package crud

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/syssam/saint"
	"github.com/syssam/saint/admin"
	"github.com/syssam/saint/orm"
)

// ParamAttached restricts an association page to the attached rows.
const ParamAttached = "attached"

func (h *Handlers) assocData(a *admin.Assoc, id any) AssocData {
	return AssocData{
		ID:       a.ID,
		Name:     a.Name,
		Type:     a.Type,
		Label:    a.Label,
		Readonly: a.Readonly,
		URL:      fmt.Sprintf("%s/%v/assoc/%s", h.ctrl.URL(), id, a.Name),
		Create:   a.CreateButton() && a.RemoteController() != nil && a.RemoteController().Can(admin.CapCreate),
	}
}

// assoc returns the local row and the association named in the request.
func (h *Handlers) assoc(inst *admin.Instance, r *http.Request) (*orm.Row, *admin.Assoc, error) {
	name := chi.URLParam(r, "assoc")
	a := h.ctrl.Assoc(name)
	if a == nil {
		for _, o := range h.ctrl.Assocs() {
			if o.ID == name {
				a = o
				break
			}
		}
	}
	if a == nil {
		return nil, nil, saint.NewNotFoundError("association " + name)
	}
	row, err := h.load(inst, chi.URLParam(r, "id"))
	if err != nil {
		return nil, nil, err
	}
	return row, a, nil
}

// Remote lists a page of the rows offered by an association, flagging
// the attached ones.
func (h *Handlers) Remote(w http.ResponseWriter, r *http.Request) {
	inst := h.instance(r)
	row, a, err := h.assoc(inst, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	attached, _ := strconv.ParseBool(r.URL.Query().Get(ParamAttached))
	ctx := inst.Context()
	page, err := a.Remote(ctx, row, pageOf(r), attached)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	cols := a.Columns()
	resp := AssocResponse{
		Status:  StatusOK,
		Assoc:   h.assocData(a, row.Get(h.ctrl.PrimaryKey())),
		Columns: columnData(cols),
		Rows:    make([]RemoteRow, 0, len(page.Items)),
		Total:   page.Total,
		Page:    page.Page,
		Pages:   page.Pages,
	}
	rc := a.RemoteController()
	for _, item := range page.Items {
		rr := RemoteRow{
			ID:       item.Row.Get(a.RemotePKey),
			Attached: item.Attached,
			Values:   make(map[string]any, len(cols)),
		}
		for _, col := range cols {
			rr.Values[col.Name()] = col.Value(ctx, item.Row, admin.ScopeSummary)
		}
		switch {
		case rc != nil:
			rr.Header = rc.H(ctx, item.Row, admin.HOpts{})
		case len(cols) > 0:
			rr.Header = fmt.Sprint(rr.Values[cols[0].Name()])
		}
		resp.Rows = append(resp.Rows, rr)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Attach links a remote row to the local row.
func (h *Handlers) Attach(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, (*admin.Assoc).Attach)
}

// Detach unlinks a remote row from the local row.
func (h *Handlers) Detach(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, (*admin.Assoc).Detach)
}

type assocOp func(a *admin.Assoc, ctx context.Context, local *orm.Row, remoteID any) error

func (h *Handlers) mutate(w http.ResponseWriter, r *http.Request, op assocOp) {
	if err := h.ctrl.Require(admin.CapUpdate); err != nil {
		h.writeError(w, r, err)
		return
	}
	inst := h.instance(r)
	row, a, err := h.assoc(inst, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	remoteID := chi.URLParam(r, "remote")
	var id any = remoteID
	if f, ok := a.RemoteType().Field(a.RemotePKey); ok {
		if v, err := orm.Convert(f, remoteID); err == nil && v != nil {
			id = v
		}
	}
	if err := op(a, inst.Context(), row, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SaveResponse{Status: StatusOK, ID: id})
}
