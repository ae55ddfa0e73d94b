package fm

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
)

// Default size limits of a root.
const (
	DefaultEditMaxSize   int64 = 1 << 20
	DefaultUploadMaxSize int64 = 32 << 20
)

// Error is an action failure reported to the client.
type Error struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

func errorf(status int, format string, args ...any) error {
	return &Error{Status: status, Message: fmt.Sprintf(format, args...)}
}

// RootOpts configures a root.
type RootOpts struct {
	// Label defaults to the base name of the root path.
	Label string
	// EditMaxSize is the size of the largest file read_file returns.
	EditMaxSize int64
	// UploadMaxSize is the size of the largest uploaded file.
	UploadMaxSize int64
}

// Root is a directory managed by the file manager. Every path given to
// a root is relative to it and cannot leave it.
type Root struct {
	fs        afero.Fs
	path      string
	label     string
	url       string
	editMax   int64
	uploadMax int64
	prefix    string
}

var urlRE = regexp.MustCompile(`[^\w\-]`)

// NewRoot returns the root at dir of fsys, which must be a directory.
func NewRoot(fsys afero.Fs, dir string, opts RootOpts) (*Root, error) {
	dir = filepath.Clean(dir)
	fi, err := fsys.Stat(dir)
	if err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("fm: %q should be a directory", dir)
	}
	r := &Root{
		fs:        afero.NewBasePathFs(fsys, dir),
		path:      dir,
		label:     opts.Label,
		editMax:   opts.EditMaxSize,
		uploadMax: opts.UploadMaxSize,
	}
	if r.label == "" {
		r.label = filepath.Base(dir)
	}
	r.url = urlRE.ReplaceAllString(r.label, "_")
	if r.editMax <= 0 {
		r.editMax = DefaultEditMaxSize
	}
	if r.uploadMax <= 0 {
		r.uploadMax = DefaultUploadMaxSize
	}
	return r, nil
}

// Path returns the directory of the root.
func (r *Root) Path() string { return r.path }

// Label returns the root label.
func (r *Root) Label() string { return r.label }

// Name returns the path segment the root is served at.
func (r *Root) Name() string { return r.url }

// URL returns the path the root is served at.
func (r *Root) URL() string { return r.prefix + "/" + r.url }

// EditMaxSize returns the size of the largest editable file.
func (r *Root) EditMaxSize() int64 { return r.editMax }

// UploadMaxSize returns the size of the largest uploaded file.
func (r *Root) UploadMaxSize() int64 { return r.uploadMax }

// Clean normalizes p into a path relative to the root. Parent
// references cannot climb above the root; the root itself is "".
func Clean(p string) string {
	p = path.Clean("/" + strings.ReplaceAll(p, `\`, "/"))
	return strings.TrimPrefix(p, "/")
}

// abs returns the name of p inside the root filesystem.
func abs(p string) string {
	return "/" + Clean(p)
}

func (r *Root) isDir(p string) bool {
	fi, err := r.fs.Stat(abs(p))
	return err == nil && fi.IsDir()
}

func (r *Root) isFile(p string) bool {
	fi, err := r.fs.Stat(abs(p))
	return err == nil && fi.Mode().IsRegular()
}

func (r *Root) exists(p string) bool {
	_, err := r.fs.Stat(abs(p))
	return err == nil
}

// validName refuses names that are not a single path element.
func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return errorf(http.StatusBadRequest, "%q is not a valid name", name)
	}
	return nil
}

func join(elem ...string) string {
	return Clean(path.Join(elem...))
}

// ActiveDir returns dir when it is a directory of the root, "" otherwise.
func (r *Root) ActiveDir(dir string) string {
	dir = Clean(dir)
	if dir != "" && r.isDir(dir) {
		return dir
	}
	return ""
}

// Create creates a file or, with folder set, a directory named name
// inside dir. It returns the path of the new entry.
func (r *Root) Create(dir, name string, folder bool) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	p := join(dir, name)
	if r.exists(p) {
		return "", errorf(http.StatusConflict, "%q already exists", name)
	}
	if folder {
		return p, r.fs.Mkdir(abs(p), 0o755)
	}
	f, err := r.fs.OpenFile(abs(p), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}
	return p, f.Close()
}

// Rename renames the entry at p to name, in the same directory. It
// returns the new path.
func (r *Root) Rename(p, name string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	p = Clean(p)
	if p == "" {
		return "", errorf(http.StatusBadRequest, "the root can not be renamed")
	}
	if !r.exists(p) {
		return "", errorf(http.StatusNotFound, "%q does not exist", p)
	}
	np := join(path.Dir(p), name)
	if r.exists(np) {
		return "", errorf(http.StatusConflict, "%q already exists", name)
	}
	return np, r.fs.Rename(abs(p), abs(np))
}

// Delete removes the entry at p with its content.
func (r *Root) Delete(p string) error {
	p = Clean(p)
	if p == "" {
		return errorf(http.StatusBadRequest, "the root can not be deleted")
	}
	if !r.exists(p) {
		return errorf(http.StatusNotFound, "%q does not exist", p)
	}
	return r.fs.RemoveAll(abs(p))
}

// Move moves the entry at src into the directory dst. It returns the
// new path.
func (r *Root) Move(src, dst string) (string, error) {
	src, dst = Clean(src), Clean(dst)
	if src == "" {
		return "", errorf(http.StatusBadRequest, "the root can not be moved")
	}
	if !r.exists(src) {
		return "", errorf(http.StatusNotFound, "%q does not exist", src)
	}
	if dst != "" && !r.isDir(dst) {
		return "", errorf(http.StatusBadRequest, "%q is not a directory", dst)
	}
	if dst == src || strings.HasPrefix(dst+"/", src+"/") {
		return "", errorf(http.StatusBadRequest, "%q can not be moved into itself", src)
	}
	np := join(dst, path.Base(src))
	if r.exists(np) {
		return "", errorf(http.StatusConflict, "%q already exists", np)
	}
	return np, r.fs.Rename(abs(src), abs(np))
}

// Copy copies the file at p to name, in the same directory. When name
// is a directory the file is copied into it. Existing files are never
// overwritten.
func (r *Root) Copy(p, name string) (string, error) {
	p = Clean(p)
	if !r.isFile(p) {
		return "", errorf(http.StatusBadRequest, "only files can be copied")
	}
	target := join(path.Dir(p), name)
	if target == "" || target == p {
		return "", errorf(http.StatusConflict, "%q file already exists", p)
	}
	if r.isDir(target) {
		target = join(target, path.Base(p))
	}
	if r.exists(target) {
		return "", errorf(http.StatusConflict, "%q file already exists", target)
	}
	src, err := r.fs.Open(abs(p))
	if err != nil {
		return "", err
	}
	defer src.Close()
	if err := r.write(target, src, os.O_EXCL); err != nil {
		return "", err
	}
	return target, nil
}

// write stores the content of src at p.
func (r *Root) write(p string, src io.Reader, flag int) error {
	f, err := r.fs.OpenFile(abs(p), os.O_CREATE|os.O_WRONLY|os.O_TRUNC|flag, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Upload stores src as name inside dir. Content larger than the upload
// limit is refused and nothing is written.
func (r *Root) Upload(dir, name string, src io.Reader) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	dir = Clean(dir)
	if dir != "" && !r.isDir(dir) {
		return "", errorf(http.StatusNotFound, "%q does not exist", dir)
	}
	data, err := io.ReadAll(io.LimitReader(src, r.uploadMax+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > r.uploadMax {
		return "", errorf(http.StatusRequestEntityTooLarge, "Sorry, files bigger than %s can not be uploaded.", humanize.Bytes(uint64(r.uploadMax)))
	}
	p := join(dir, name)
	return p, afero.WriteFile(r.fs, abs(p), data, 0o644)
}

// Save replaces the content of the file at p. Line endings are
// normalized to "\n".
func (r *Root) Save(p, content string) error {
	p = Clean(p)
	if !r.isFile(p) {
		return errorf(http.StatusNotFound, "%q does not exist", p)
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return r.write(p, strings.NewReader(content), 0)
}

// ReadFile returns the content of the file at p. Files larger than the
// edit limit are refused.
func (r *Root) ReadFile(p string) (string, error) {
	p = Clean(p)
	fi, err := r.fs.Stat(abs(p))
	if err != nil || !fi.Mode().IsRegular() {
		return "", errorf(http.StatusNotFound, "%q does not exist", p)
	}
	if fi.Size() > r.editMax {
		return "", errorf(http.StatusRequestEntityTooLarge, "Sorry, files bigger than %s are not editable.", humanize.Bytes(uint64(r.editMax)))
	}
	b, err := afero.ReadFile(r.fs, abs(p))
	if err != nil {
		return "", errorf(http.StatusInternalServerError, "Unable to read file: %v", err)
	}
	return strings.ReplaceAll(string(b), "\r\n", "\n"), nil
}

// Open opens the file at p for reading.
func (r *Root) Open(p string) (afero.File, fs.FileInfo, error) {
	p = Clean(p)
	fi, err := r.fs.Stat(abs(p))
	if err != nil {
		return nil, nil, err
	}
	if !fi.Mode().IsRegular() {
		return nil, nil, errorf(http.StatusBadRequest, "%q is not a file", p)
	}
	f, err := r.fs.Open(abs(p))
	if err != nil {
		return nil, nil, err
	}
	return f, fi, nil
}

// notFound reports if err is a missing file.
func notFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
