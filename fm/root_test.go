package fm_test

import (
	"errors"
	"net/http"
	"path"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/saint/fm"
)

func newRoot(t *testing.T, opts fm.RootOpts, files map[string]string) (afero.Fs, *fm.Root) {
	t.Helper()
	base := afero.NewMemMapFs()
	require.NoError(t, base.MkdirAll("/data", 0o755))
	for name, content := range files {
		require.NoError(t, base.MkdirAll(path.Dir("/data/"+name), 0o755))
		require.NoError(t, afero.WriteFile(base, "/data/"+name, []byte(content), 0o644))
	}
	root, err := fm.NewRoot(base, "/data", opts)
	require.NoError(t, err)
	return base, root
}

func status(t *testing.T, err error) int {
	t.Helper()
	var e *fm.Error
	require.True(t, errors.As(err, &e), "unexpected error: %v", err)
	return e.Status
}

func TestNewRoot(t *testing.T) {
	base := afero.NewMemMapFs()
	_, err := fm.NewRoot(base, "/missing", fm.RootOpts{})
	assert.EqualError(t, err, `fm: "/missing" should be a directory`)

	require.NoError(t, afero.WriteFile(base, "/file", nil, 0o644))
	_, err = fm.NewRoot(base, "/file", fm.RootOpts{})
	assert.Error(t, err)

	require.NoError(t, base.MkdirAll("/srv/public files", 0o755))
	root, err := fm.NewRoot(base, "/srv/public files/", fm.RootOpts{})
	require.NoError(t, err)
	assert.Equal(t, "public files", root.Label())
	assert.Equal(t, "public_files", root.Name())
	assert.Equal(t, "/srv/public files", root.Path())
	assert.Equal(t, fm.DefaultEditMaxSize, root.EditMaxSize())
	assert.Equal(t, fm.DefaultUploadMaxSize, root.UploadMaxSize())
}

func TestClean(t *testing.T) {
	tests := map[string]string{
		"":             "",
		"/":            "",
		"a/b":          "a/b",
		"/a/./b/":      "a/b",
		"../../etc":    "etc",
		"a/../../b":    "b",
		`a\..\..\b`:    "b",
		"a//b/../c.go": "a/c.go",
	}
	for in, want := range tests {
		assert.Equal(t, want, fm.Clean(in), in)
	}
}

func TestRootConfinement(t *testing.T) {
	base, root := newRoot(t, fm.RootOpts{}, nil)
	p, err := root.Create("../../", "escape.txt", false)
	require.NoError(t, err)
	assert.Equal(t, "escape.txt", p)

	ok, err := afero.Exists(base, "/data/escape.txt")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = afero.Exists(base, "/escape.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = root.Create("", "../x", false)
	assert.Equal(t, http.StatusBadRequest, status(t, err))
	assert.Equal(t, http.StatusBadRequest, status(t, root.Delete("../..")))
}

func TestRootCreate(t *testing.T) {
	_, root := newRoot(t, fm.RootOpts{}, map[string]string{"a.txt": "a"})

	p, err := root.Create("", "docs", true)
	require.NoError(t, err)
	assert.Equal(t, "docs", p)

	p, err = root.Create("docs", "readme.md", false)
	require.NoError(t, err)
	assert.Equal(t, "docs/readme.md", p)

	_, err = root.Create("", "a.txt", false)
	assert.Equal(t, http.StatusConflict, status(t, err))
	_, err = root.Create("", "docs", true)
	assert.Equal(t, http.StatusConflict, status(t, err))
}

func TestRootRenameDelete(t *testing.T) {
	base, root := newRoot(t, fm.RootOpts{}, map[string]string{"a.txt": "a", "b.txt": "b"})

	p, err := root.Rename("a.txt", "c.txt")
	require.NoError(t, err)
	assert.Equal(t, "c.txt", p)
	content, err := root.ReadFile("c.txt")
	require.NoError(t, err)
	assert.Equal(t, "a", content)

	_, err = root.Rename("c.txt", "b.txt")
	assert.Equal(t, http.StatusConflict, status(t, err))
	_, err = root.Rename("missing.txt", "d.txt")
	assert.Equal(t, http.StatusNotFound, status(t, err))
	_, err = root.Rename("", "d")
	assert.Equal(t, http.StatusBadRequest, status(t, err))

	require.NoError(t, root.Delete("b.txt"))
	ok, err := afero.Exists(base, "/data/b.txt")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, http.StatusNotFound, status(t, root.Delete("b.txt")))
	assert.Equal(t, http.StatusBadRequest, status(t, root.Delete("/")))
}

func TestRootMove(t *testing.T) {
	_, root := newRoot(t, fm.RootOpts{}, map[string]string{"a.txt": "a", "docs/a.txt": "other", "docs/sub/x": "x"})

	_, err := root.Move("a.txt", "docs")
	assert.Equal(t, http.StatusConflict, status(t, err))
	_, err = root.Move("a.txt", "a.txt")
	assert.Equal(t, http.StatusBadRequest, status(t, err))
	_, err = root.Move("docs", "docs/sub")
	assert.Equal(t, http.StatusBadRequest, status(t, err))
	_, err = root.Move("nope", "docs")
	assert.Equal(t, http.StatusNotFound, status(t, err))

	p, err := root.Move("docs/sub/x", "")
	require.NoError(t, err)
	assert.Equal(t, "x", p)
	p, err = root.Move("x", "docs")
	require.NoError(t, err)
	assert.Equal(t, "docs/x", p)
}

func TestRootCopy(t *testing.T) {
	_, root := newRoot(t, fm.RootOpts{}, map[string]string{"a.txt": "a", "docs/b.txt": "b"})

	p, err := root.Copy("a.txt", "c.txt")
	require.NoError(t, err)
	assert.Equal(t, "c.txt", p)
	content, err := root.ReadFile("c.txt")
	require.NoError(t, err)
	assert.Equal(t, "a", content)

	p, err = root.Copy("a.txt", "docs")
	require.NoError(t, err)
	assert.Equal(t, "docs/a.txt", p)

	_, err = root.Copy("a.txt", "a.txt")
	assert.EqualError(t, err, `"a.txt" file already exists`)
	_, err = root.Copy("a.txt", "c.txt")
	assert.Equal(t, http.StatusConflict, status(t, err))
	_, err = root.Copy("docs", "docs2")
	assert.EqualError(t, err, "only files can be copied")
}

func TestRootUpload(t *testing.T) {
	_, root := newRoot(t, fm.RootOpts{UploadMaxSize: 4}, map[string]string{"docs/.keep": ""})

	p, err := root.Upload("docs", "a.txt", strings.NewReader("1234"))
	require.NoError(t, err)
	assert.Equal(t, "docs/a.txt", p)

	_, err = root.Upload("docs", "b.txt", strings.NewReader("12345"))
	assert.EqualError(t, err, "Sorry, files bigger than 4 B can not be uploaded.")
	assert.Equal(t, http.StatusRequestEntityTooLarge, status(t, err))
	_, ok := root.File("docs/b.txt")
	assert.False(t, ok)

	_, err = root.Upload("missing", "a.txt", strings.NewReader("1"))
	assert.Equal(t, http.StatusNotFound, status(t, err))
}

func TestRootEdit(t *testing.T) {
	_, root := newRoot(t, fm.RootOpts{EditMaxSize: 8}, map[string]string{"a.txt": "a\r\nb", "big.txt": "123456789"})

	content, err := root.ReadFile("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "a\nb", content)

	_, err = root.ReadFile("big.txt")
	assert.EqualError(t, err, "Sorry, files bigger than 8 B are not editable.")
	_, err = root.ReadFile("none.txt")
	assert.Equal(t, http.StatusNotFound, status(t, err))

	require.NoError(t, root.Save("a.txt", "x\r\ny\r\n"))
	content, err = root.ReadFile("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "x\ny\n", content)
	assert.Equal(t, http.StatusNotFound, status(t, root.Save("none.txt", "")))
}

func TestRootScan(t *testing.T) {
	_, root := newRoot(t, fm.RootOpts{Label: "Files"}, map[string]string{
		"top.txt":             "t",
		"docs/guide/intro.md": "i",
		"docs/logo.png":       "png",
		"media/.keep":         "",
	})

	listings, err := root.Scan("docs/guide")
	require.NoError(t, err)
	require.Len(t, listings, 3)

	top := listings[0]
	assert.Equal(t, "/", top.Name)
	require.Len(t, top.Dirs, 2)
	assert.Equal(t, "docs", top.Dirs[0].Path)
	assert.True(t, top.Dirs[0].SelectedDir)
	assert.False(t, top.Dirs[0].ActiveDir)
	assert.False(t, top.Dirs[1].SelectedDir)
	require.Len(t, top.Files, 1)
	assert.Equal(t, "top.txt", top.Files[0].Name)
	assert.Equal(t, "1 B", top.Files[0].Size)

	docs := listings[1]
	assert.Equal(t, "docs", docs.Name)
	require.Len(t, docs.Dirs, 1)
	assert.True(t, docs.Dirs[0].ActiveDir)
	require.Len(t, docs.Files, 1)
	logo := docs.Files[0]
	assert.Equal(t, "image/png", logo.Mime)
	assert.Equal(t, "/Files/__file_server__/docs/logo.png.saint-fs", logo.URL)
	assert.True(t, strings.HasPrefix(logo.ID, "saint-fm-file-"))

	assert.Equal(t, "docs/guide", listings[2].Path)
	assert.Len(t, listings[2].Files, 1)

	listings, err = root.Scan("../nowhere")
	require.NoError(t, err)
	assert.Len(t, listings, 1)
}

func TestRootSearch(t *testing.T) {
	_, root := newRoot(t, fm.RootOpts{}, map[string]string{
		"b/report-2.txt": "",
		"a/report-1.txt": "",
		"a/notes.txt":    "",
	})
	nodes, err := root.Search("report")
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "a/report-1.txt", nodes[0].Path)
	assert.Equal(t, "a", nodes[0].Dir)
	assert.Equal(t, "b/report-2.txt", nodes[1].Path)

	nodes, err = root.Search("none")
	require.NoError(t, err)
	assert.Empty(t, nodes)
}
