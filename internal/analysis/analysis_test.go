package analysis

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/talondoc/internal/model"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const homeActions = `from talon import Module

mod = Module()
mod.list("user.colors", "Color names")

@mod.action_class
class Actions:
    def go_home():
        """Go to the home screen."""

    def paste(text: str):
        """Paste text.

        Args:
            text: what to paste
        """
`

const browserActions = `from talon import Context

ctx = Context()
ctx.lists["user.colors"] = {"red": "red"}

@ctx.action_class("user")
class UserActions:
    def go_home():
        actions.browser.go(actions.user.home_url())
`

const homeTalon = `go home: user.go_home()
paste <user.text>:
    user.paste(text)
    key(enter)
`

func newPackage(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "core/actions.py", homeActions)
	writeFile(t, dir, "apps/browser.py", browserActions)
	writeFile(t, dir, "core/home.talon", homeTalon)
	return dir
}

func TestPackage(t *testing.T) {
	t.Parallel()

	res, err := Package(context.Background(), newPackage(t), Options{Workers: 2})
	require.NoError(t, err)
	require.Empty(t, res.Failures)

	var paths []string
	for _, fi := range res.Files {
		paths = append(paths, fi.Path)
	}
	assert.Equal(t, []string{
		filepath.Join("apps", "browser.py"),
		filepath.Join("core", "actions.py"),
		filepath.Join("core", "home.talon"),
	}, paths)

	pkg := res.Package
	home, ok := pkg.Lookup(model.Action, "user.go_home")
	require.True(t, ok)
	assert.Equal(t, "Go to the home screen.", home.Desc)
	assert.False(t, home.Override)

	colors, ok := pkg.Lookup(model.List, "user.colors")
	require.True(t, ok)
	assert.Equal(t, "Color names", colors.Desc)

	assert.Len(t, pkg.Overrides[model.Action]["user.go_home"], 1)
	assert.Len(t, pkg.Overrides[model.List]["user.colors"], 1)

	assert.Contains(t, pkg.Uses[model.Action], "browser.go")
	assert.Contains(t, pkg.Uses[model.Action], "user.home_url")
	assert.Contains(t, pkg.Uses[model.Action], "user.paste")
	assert.Contains(t, pkg.Uses[model.Action], "key")

	require.Len(t, res.Scripts, 1)
	assert.Len(t, res.Scripts[0].Commands, 2)
}

func TestPackageIsDeterministic(t *testing.T) {
	t.Parallel()

	dir := newPackage(t)
	first, err := Package(context.Background(), dir, Options{Workers: 1})
	require.NoError(t, err)
	second, err := Package(context.Background(), dir, Options{Workers: 4})
	require.NoError(t, err)

	assert.Equal(t, first.Package.AllDeclarations(), second.Package.AllDeclarations())
	assert.Equal(t, first.Package.AllOverrides(), second.Package.AllOverrides())
	assert.Equal(t, first.Package.Uses, second.Package.Uses)
}

func TestPackageConflictsLastWriterWins(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.py", "mod.tag(\"user.browser\", \"first\")\n")
	writeFile(t, dir, "b.py", "mod.tag(\"user.browser\", \"second\")\n")

	res, err := Package(context.Background(), dir, Options{})
	require.NoError(t, err)

	tag, ok := res.Package.Lookup(model.Tag, "user.browser")
	require.True(t, ok)
	assert.Equal(t, "second", tag.Desc)
	assert.Equal(t, "b.py", tag.File)

	require.Len(t, res.Package.Conflicts, 1)
	assert.Equal(t, "a.py", res.Package.Conflicts[0].Previous.File)
}

func TestPackageErrors(t *testing.T) {
	t.Parallel()

	_, err := Package(context.Background(), filepath.Join(t.TempDir(), "missing"), Options{})
	require.Error(t, err)

	empty := t.TempDir()
	writeFile(t, empty, "notes.txt", "nothing here")
	_, err = Package(context.Background(), empty, Options{})
	require.ErrorIs(t, err, ErrNoFiles)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Package(ctx, newPackage(t), Options{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestPackageSkipsLargeFiles(t *testing.T) {
	t.Parallel()

	dir := newPackage(t)
	res, err := Package(context.Background(), dir, Options{MaxFileSize: 200})
	require.NoError(t, err)

	for _, fi := range res.Files {
		assert.NotEqual(t, filepath.Join("core", "actions.py"), fi.Path)
	}
	_, ok := res.Package.Lookup(model.Action, "user.go_home")
	assert.False(t, ok)
}

func TestFileError(t *testing.T) {
	t.Parallel()

	err := error(&FileError{Path: "a.py", Err: os.ErrPermission})
	assert.Equal(t, "a.py: permission denied", err.Error())
	assert.True(t, errors.Is(err, os.ErrPermission))
}

func TestReport(t *testing.T) {
	t.Parallel()

	res, err := Package(context.Background(), newPackage(t), Options{})
	require.NoError(t, err)

	r := res.Report()
	assert.Len(t, r.Files, 3)
	assert.NotEmpty(t, r.Declarations)
	assert.NotEmpty(t, r.Overrides)

	talon := filepath.Join("core", "home.talon")
	actions := filepath.Join("core", "actions.py")
	var found bool
	for _, d := range r.Dependencies {
		if d.Source == talon && d.Target == actions {
			found = true
			assert.Equal(t, []string{"user.go_home", "user.paste"}, d.Symbols)
		}
	}
	assert.True(t, found, "expected %s -> %s in %+v", talon, actions, r.Dependencies)

	// core/home.talon leans hardest on core/actions.py
	assert.Equal(t, actions, r.Files[0].Path)
}
