package fm

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
)

// DefaultPrefix is the path the file manager is mounted at.
const DefaultPrefix = "/fm"

// Options configures a Manager.
type Options struct {
	// Prefix is the path the manager is mounted at. It defaults to
	// DefaultPrefix.
	Prefix string
	Logger *slog.Logger
}

// Manager serves the roots of a file manager.
type Manager struct {
	prefix string
	roots  []*Root
	log    *slog.Logger
}

// New returns a manager serving roots. Roots must have distinct labels.
func New(opts Options, roots ...*Root) (*Manager, error) {
	if len(roots) == 0 {
		return nil, errors.New("fm: no roots")
	}
	m := &Manager{
		prefix: "/" + strings.Trim(opts.Prefix, "/"),
		roots:  roots,
		log:    opts.Logger,
	}
	if opts.Prefix == "" {
		m.prefix = DefaultPrefix
	}
	if m.log == nil {
		m.log = slog.New(slog.DiscardHandler)
	}
	seen := make(map[string]bool, len(roots))
	for _, r := range roots {
		if seen[r.url] {
			return nil, fmt.Errorf("fm: root %q is declared twice", r.label)
		}
		seen[r.url] = true
		r.prefix = m.prefix
	}
	return m, nil
}

// Prefix returns the path the manager is mounted at.
func (m *Manager) Prefix() string { return m.prefix }

// Roots returns the roots in declaration order.
func (m *Manager) Roots() []*Root { return m.roots }

// Routes registers the routes of every root on router, which is
// expected to be mounted at the manager prefix.
func (m *Manager) Routes(router chi.Router) {
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, m.roots[0].URL(), http.StatusFound)
	})
	for _, root := range m.roots {
		h := &handlers{root: root, manager: m, log: m.log.With(slog.String("root", root.label))}
		router.Route("/"+root.url, func(r chi.Router) {
			r.Get("/", h.Index)
			r.Post("/create", h.Create)
			r.Post("/rename", h.Rename)
			r.Post("/delete", h.Delete)
			r.Post("/move", h.Move)
			r.Post("/copy", h.Copy)
			r.Post("/upload", h.Upload)
			r.Get("/download", h.Download)
			r.Post("/save", h.Save)
			r.Get("/read_file", h.ReadFile)
			r.Get("/search", h.Search)
			r.Get(FileServerPath+"/*", h.FileServer)
		})
	}
}

// Response is the body of the actions.
type Response struct {
	Status   int     `json:"status"`
	Location string  `json:"location,omitempty"`
	Message  string  `json:"message,omitempty"`
	Content  *string `json:"content,omitempty"`
}

// RootData names a root in listings.
type RootData struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// IndexResponse is the body of the index page.
type IndexResponse struct {
	Status   int        `json:"status"`
	Root     RootData   `json:"root"`
	Roots    []RootData `json:"roots"`
	Dir      string     `json:"dir"`
	File     *Node      `json:"file,omitempty"`
	Query    string     `json:"query,omitempty"`
	Listings []Listing  `json:"listings,omitempty"`
}

// SearchResponse is the body of a search.
type SearchResponse struct {
	Status int    `json:"status"`
	Query  string `json:"query"`
	Files  []Node `json:"files"`
}

type handlers struct {
	root    *Root
	manager *Manager
	log     *slog.Logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	var e *Error
	switch {
	case errors.As(err, &e):
		writeJSON(w, e.Status, Response{Message: e.Message})
	case notFound(err):
		writeJSON(w, http.StatusNotFound, Response{Message: "file not found"})
	default:
		h.log.ErrorContext(r.Context(), "fm action failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		writeJSON(w, http.StatusInternalServerError, Response{Message: err.Error()})
	}
}

// location returns the index URL showing dir and file, keeping the
// search query of the request.
func (h *handlers) location(r *http.Request, dir, file string) string {
	q := url.Values{}
	q.Set("dir", dir)
	if file != "" {
		q.Set("file", file)
	}
	if s := r.FormValue("q"); len(s) > 1 {
		q.Set("q", s)
	}
	return h.root.URL() + "?" + q.Encode()
}

func (h *handlers) ok(w http.ResponseWriter, r *http.Request, dir, file string) {
	writeJSON(w, http.StatusOK, Response{Status: 1, Location: h.location(r, dir, file)})
}

// params returns the request values of names, or false when one is
// missing.
func params(r *http.Request, names ...string) ([]string, bool) {
	values := make([]string, len(names))
	for i, name := range names {
		if _, ok := r.Form[name]; !ok {
			return nil, false
		}
		values[i] = r.Form.Get(name)
	}
	return values, true
}

func (h *handlers) parse(w http.ResponseWriter, r *http.Request, names ...string) ([]string, bool) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Message: err.Error()})
		return nil, false
	}
	values, ok := params(r, names...)
	if !ok {
		writeJSON(w, http.StatusBadRequest, Response{Message: "missing parameters: " + strings.Join(names, ", ")})
	}
	return values, ok
}

// Index lists the active directory chain and the active file.
func (h *handlers) Index(w http.ResponseWriter, r *http.Request) {
	resp := IndexResponse{
		Status: 1,
		Root:   RootData{Label: h.root.label, URL: h.root.URL()},
		Dir:    h.root.ActiveDir(r.FormValue("dir")),
	}
	for _, root := range h.manager.roots {
		resp.Roots = append(resp.Roots, RootData{Label: root.label, URL: root.URL()})
	}
	if q := r.FormValue("q"); len(q) > 1 {
		resp.Query = q
	}
	if file := r.FormValue("file"); file != "" {
		if n, ok := h.root.File(file); ok {
			resp.File = &n
			if resp.Dir == "" {
				resp.Dir = n.Dir
			}
		}
	}
	listings, err := h.root.Scan(resp.Dir)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp.Listings = listings
	writeJSON(w, http.StatusOK, resp)
}

// Create creates a file or a folder.
func (h *handlers) Create(w http.ResponseWriter, r *http.Request) {
	v, ok := h.parse(w, r, "dir", "name")
	if !ok {
		return
	}
	folder := r.Form.Get("type") == "folder"
	p, err := h.root.Create(v[0], v[1], folder)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if folder {
		h.ok(w, r, p, "")
		return
	}
	h.ok(w, r, Clean(v[0]), p)
}

// Rename renames a file or a folder.
func (h *handlers) Rename(w http.ResponseWriter, r *http.Request) {
	v, ok := h.parse(w, r, "dir", "path", "name")
	if !ok {
		return
	}
	p, err := h.root.Rename(v[1], v[2])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if h.root.isFile(p) {
		h.ok(w, r, Clean(v[0]), p)
		return
	}
	h.ok(w, r, p, "")
}

// Delete removes a file or a folder.
func (h *handlers) Delete(w http.ResponseWriter, r *http.Request) {
	v, ok := h.parse(w, r, "dir", "path")
	if !ok {
		return
	}
	if err := h.root.Delete(v[1]); err != nil {
		h.fail(w, r, err)
		return
	}
	dir := Clean(v[0])
	if !h.root.isDir(dir) {
		dir = Clean(path.Dir(Clean(v[1])))
	}
	h.ok(w, r, dir, "")
}

// Move moves a file or a folder into another folder.
func (h *handlers) Move(w http.ResponseWriter, r *http.Request) {
	v, ok := h.parse(w, r, "dir", "src", "dst")
	if !ok {
		return
	}
	if _, err := h.root.Move(v[1], v[2]); err != nil {
		h.fail(w, r, err)
		return
	}
	dir := Clean(v[0])
	if !h.root.exists(dir) {
		dir = Clean(v[2])
	}
	h.ok(w, r, dir, "")
}

// Copy copies a file.
func (h *handlers) Copy(w http.ResponseWriter, r *http.Request) {
	v, ok := h.parse(w, r, "dir", "path", "name")
	if !ok {
		return
	}
	p, err := h.root.Copy(v[1], v[2])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, Clean(v[0]), p)
}

// Upload stores the uploaded "file" in the folder "path". The file
// keeps its name unless "name" is given.
func (h *handlers) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.root.uploadMax+1<<20)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			h.fail(w, r, errorf(http.StatusRequestEntityTooLarge, "Sorry, the file is too large."))
			return
		}
		writeJSON(w, http.StatusBadRequest, Response{Message: err.Error()})
		return
	}
	f, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Message: "missing file"})
		return
	}
	defer f.Close()
	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}
	if _, err := h.root.Upload(r.FormValue("path"), name, f); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Status: 1})
}

// Download sends a file as an attachment.
func (h *handlers) Download(w http.ResponseWriter, r *http.Request) {
	p := Clean(r.FormValue("file"))
	f, fi, err := h.root.Open(p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer f.Close()
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": fi.Name()}))
	http.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
}

// Save replaces the content of a file.
func (h *handlers) Save(w http.ResponseWriter, r *http.Request) {
	v, ok := h.parse(w, r, "file")
	if !ok {
		return
	}
	if err := h.root.Save(v[0], r.PostForm.Get("content")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Status: 1})
}

// ReadFile returns the content of an editable file.
func (h *handlers) ReadFile(w http.ResponseWriter, r *http.Request) {
	v, ok := h.parse(w, r, "file")
	if !ok {
		return
	}
	content, err := h.root.ReadFile(v[0])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Status: 1, Content: &content})
}

// Search lists the files whose name contains "query".
func (h *handlers) Search(w http.ResponseWriter, r *http.Request) {
	query := r.FormValue("query")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, Response{Message: "missing query"})
		return
	}
	files, err := h.root.Search(query)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if files == nil {
		files = []Node{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Status: 1, Query: query, Files: files})
}

// FileServer serves the content of a file.
func (h *handlers) FileServer(w http.ResponseWriter, r *http.Request) {
	p, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil || !strings.HasSuffix(strings.ToLower(p), FileServerExt) {
		http.NotFound(w, r)
		return
	}
	f, fi, err := h.root.Open(p[:len(p)-len(FileServerExt)])
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()
	http.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
}
