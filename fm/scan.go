package fm

import (
	"io/fs"
	"mime"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// FileServerExt is appended to the paths served by the file server.
const FileServerExt = ".saint-fs"

// FileServerPath is the route of the file server of a root.
const FileServerPath = "/__file_server__"

// Node is a file or a directory listed by the file manager.
type Node struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Path        string `json:"path"`
	Dir         string `json:"dir"`
	IsDir       bool   `json:"is_dir"`
	Size        string `json:"size,omitempty"`
	Bytes       int64  `json:"bytes,omitempty"`
	Mime        string `json:"mime,omitempty"`
	URL         string `json:"url,omitempty"`
	ActiveDir   bool   `json:"active_dir,omitempty"`
	SelectedDir bool   `json:"selected_dir,omitempty"`
}

// Listing holds the entries of a directory, directories first.
type Listing struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Dirs  []Node `json:"dirs"`
	Files []Node `json:"files"`
}

func nodeID(kind, p string) string {
	return "saint-fm-" + kind + "-" + uuid.NewMD5(uuid.NameSpaceURL, []byte(p)).String()
}

// FileServerURL returns the URL serving the file at p.
func (r *Root) FileServerURL(p string) string {
	parts := strings.Split(Clean(p), "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return r.URL() + FileServerPath + "/" + strings.Join(parts, "/") + FileServerExt
}

// node describes the entry fi found in dir.
func (r *Root) node(dir string, fi fs.FileInfo) Node {
	p := join(dir, fi.Name())
	n := Node{Name: fi.Name(), Path: p, Dir: dir, IsDir: fi.IsDir()}
	if n.IsDir {
		n.ID = nodeID("dir", p)
		return n
	}
	n.ID = nodeID("file", p)
	n.Bytes = fi.Size()
	n.Size = humanize.Bytes(uint64(fi.Size()))
	n.Mime = mime.TypeByExtension(path.Ext(fi.Name()))
	if viewable(n.Mime) {
		n.URL = r.FileServerURL(p)
	}
	return n
}

func viewable(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}

// File returns the node of the file at p.
func (r *Root) File(p string) (Node, bool) {
	p = Clean(p)
	fi, err := r.fs.Stat(abs(p))
	if err != nil || !fi.Mode().IsRegular() {
		return Node{}, false
	}
	n := r.node(Clean(path.Dir(p)), fi)
	if n.URL == "" {
		n.URL = r.FileServerURL(p)
	}
	return n, true
}

// List returns the entries of dir.
func (r *Root) List(dir string) (Listing, error) {
	dir = Clean(dir)
	l := Listing{Name: path.Base("/" + dir), Path: dir, Dirs: []Node{}, Files: []Node{}}
	if dir == "" {
		l.Name = "/"
	}
	entries, err := afero.ReadDir(r.fs, abs(dir))
	if err != nil {
		return l, err
	}
	for _, fi := range entries {
		switch {
		case fi.IsDir():
			l.Dirs = append(l.Dirs, r.node(dir, fi))
		case fi.Mode().IsRegular():
			l.Files = append(l.Files, r.node(dir, fi))
		}
	}
	return l, nil
}

// Scan lists the root and every directory on the way to active, so
// the whole chain can be shown expanded.
func (r *Root) Scan(active string) ([]Listing, error) {
	active = r.ActiveDir(active)
	chain := []string{""}
	if active != "" {
		parts := strings.Split(active, "/")
		for i := range parts {
			chain = append(chain, strings.Join(parts[:i+1], "/"))
		}
	}
	listings := make([]Listing, 0, len(chain))
	for _, dir := range chain {
		l, err := r.List(dir)
		if err != nil {
			return nil, err
		}
		for i := range l.Dirs {
			n := &l.Dirs[i]
			n.ActiveDir = n.Path == active
			n.SelectedDir = strings.HasPrefix(active, n.Path+"/")
		}
		listings = append(listings, l)
	}
	return listings, nil
}

// Search returns the files whose name contains query, sorted by path.
func (r *Root) Search(query string) ([]Node, error) {
	var nodes []Node
	err := afero.Walk(r.fs, "/", func(p string, fi fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.Mode().IsRegular() && strings.Contains(fi.Name(), query) {
			nodes = append(nodes, r.node(Clean(path.Dir(p)), fi))
		}
		return nil
	})
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Path < nodes[j].Path })
	return nodes, err
}
