package server

import (
	"encoding/json"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/saint/admin"
	"github.com/syssam/saint/dialect/sql"
)

// dashboardWorkers bounds the concurrent count queries of the dashboard.
const dashboardWorkers = 4

// MenuItem links to a controller or a file manager root.
type MenuItem struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// DashboardItem is a controller shown on the dashboard.
type DashboardItem struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	URL   string `json:"url"`
	Count int    `json:"count"`
}

// DashboardResponse is the body of the dashboard.
type DashboardResponse struct {
	Status int             `json:"status"`
	Items  []DashboardItem `json:"items"`
}

// MenuResponse is the body of the menu.
type MenuResponse struct {
	Status      int        `json:"status"`
	Controllers []MenuItem `json:"controllers"`
	Files       []MenuItem `json:"files,omitempty"`
}

// StatsResponse is the body of the query statistics.
type StatsResponse struct {
	Status int               `json:"status"`
	Stats  sql.StatsSnapshot `json:"stats"`
	Avg    string            `json:"avg"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Dashboard lists the dashboard controllers with their row count.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	var ctrls []*admin.Controller
	for _, c := range s.registry.Controllers() {
		if c.OnDashboard() {
			ctrls = append(ctrls, c)
		}
	}
	items := make([]DashboardItem, len(ctrls))
	eg, ctx := errgroup.WithContext(r.Context())
	eg.SetLimit(dashboardWorkers)
	for i, c := range ctrls {
		items[i] = DashboardItem{Name: c.Name(), Label: c.Label(false), URL: c.URL()}
		eg.Go(func() error {
			n, err := c.Instance(ctx).ORM().Count(ctx)
			if err != nil {
				return err
			}
			items[i].Count = n
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		s.logger.ErrorContext(r.Context(), "dashboard failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"status": 0, "errors": []string{err.Error()}})
		return
	}
	writeJSON(w, http.StatusOK, DashboardResponse{Status: 1, Items: items})
}

// Menu links every controller and file manager root.
func (s *Server) Menu(w http.ResponseWriter, _ *http.Request) {
	resp := MenuResponse{Status: 1, Controllers: []MenuItem{}}
	for _, c := range s.registry.Controllers() {
		resp.Controllers = append(resp.Controllers, MenuItem{Label: c.Label(false), URL: c.URL()})
	}
	if s.files != nil {
		for _, root := range s.files.Roots() {
			resp.Files = append(resp.Files, MenuItem{Label: root.Label(), URL: root.URL()})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Stats reports the query statistics of the database driver.
func (s *Server) Stats(w http.ResponseWriter, _ *http.Request) {
	snap := s.stats.QueryStats().Stats()
	writeJSON(w, http.StatusOK, StatsResponse{Status: 1, Stats: snap, Avg: snap.AvgQueryDuration().String()})
}
