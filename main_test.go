package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/phobologic/talondoc/internal/discover"
	"github.com/phobologic/talondoc/internal/model"
)

func writeTestFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func createSamplePackage(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTestFile(t, dir, "core/actions.py", `from talon import Module

mod = Module()
mod.list("user.colors", "Color names")
mod.tag("user.browser", desc="Focused app is a browser")

@mod.action_class
class Actions:
    def go_home():
        """Go to the home screen."""

    def paste(text: str):
        """Paste text.

        Args:
            text: what to paste
        """

    def window_title() -> str:
        """Returns the active window title."""
`)
	writeTestFile(t, dir, "apps/browser.py", `from talon import Context

ctx = Context()
ctx.lists["user.colors"] = {"red": "red"}

@ctx.action_class("user")
class UserActions:
    def go_home():
        actions.browser.go("about:home")
`)
	writeTestFile(t, dir, "core/home.talon", `app: firefox
-
go home: user.go_home()
paste <user.text>:
    user.paste(text)
    key(enter)
title: user.window_title()
`)
	return dir
}

// runCLI runs the CLI with an empty config file so the developer's own
// talondoc.yaml never leaks into tests.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cfg := filepath.Join(t.TempDir(), "talondoc.yaml")
	if err := os.WriteFile(cfg, []byte("log:\n  level: warn\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var stdout, stderr bytes.Buffer
	err := run(append([]string{"--config", cfg}, args...), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRunIndex(t *testing.T) {
	t.Parallel()
	dir := createSamplePackage(t)

	out, stderr, err := runCLI(t, "index", dir)
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr)
	}

	for _, want := range []string{
		"package: ",
		"files[3]{path,language,rank}:",
		"user.go_home",
		"user.colors",
		"user.browser",
		"dependencies[",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunIndexMaxFiles(t *testing.T) {
	t.Parallel()
	dir := createSamplePackage(t)

	out, _, err := runCLI(t, "index", "-n", "1", dir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "files[1]") {
		t.Errorf("expected 1 file, got:\n%s", out)
	}
}

func TestRunIndexJSON(t *testing.T) {
	t.Parallel()
	dir := createSamplePackage(t)

	out, _, err := runCLI(t, "index", "--format", "json", dir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var r model.Report
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, out)
	}
	if len(r.Files) != 3 {
		t.Errorf("files = %d, want 3", len(r.Files))
	}
	var found bool
	for _, d := range r.Declarations {
		if d.Kind == model.Tag && d.Name == "user.browser" {
			found = true
			if d.Desc != "Focused app is a browser" {
				t.Errorf("tag desc = %q", d.Desc)
			}
		}
	}
	if !found {
		t.Errorf("user.browser tag missing: %+v", r.Declarations)
	}
}

func TestRunIndexYAML(t *testing.T) {
	t.Parallel()
	dir := createSamplePackage(t)

	out, _, err := runCLI(t, "index", "--format", "yaml", dir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var r model.Report
	if err := yaml.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("invalid yaml: %v\n%s", err, out)
	}
	if len(r.Overrides) != 2 {
		t.Errorf("overrides = %d, want 2: %+v", len(r.Overrides), r.Overrides)
	}
}

func TestRunIndexBadFormat(t *testing.T) {
	t.Parallel()

	_, _, err := runCLI(t, "index", "--format", "xml", createSamplePackage(t))
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Fatalf("expected unknown format error, got %v", err)
	}
}

func TestRunVersion(t *testing.T) {
	t.Parallel()

	out, _, err := runCLI(t, "--version")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "talondoc dev\n" {
		t.Errorf("version output: %q", out)
	}
}

func TestRunNoFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "readme.txt", "nothing here")

	_, _, err := runCLI(t, "index", dir)
	if err == nil {
		t.Fatal("expected error for no files")
	}
	if !strings.Contains(err.Error(), "no extension modules or command files found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunNotADirectory(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "file.py", "x = 1\n")

	_, _, err := runCLI(t, "index", filepath.Join(dir, "file.py"))
	if err == nil || !strings.Contains(err.Error(), "not a directory") {
		t.Fatalf("expected not a directory error, got %v", err)
	}
}

func TestRunBadLogLevel(t *testing.T) {
	t.Parallel()

	_, _, err := runCLI(t, "--log-level", "loud", "index", createSamplePackage(t))
	if err == nil || !strings.Contains(err.Error(), "log.level") {
		t.Fatalf("expected log level error, got %v", err)
	}
}

func TestRunIndexCache(t *testing.T) {
	t.Parallel()
	dir := createSamplePackage(t)
	cachePath := filepath.Join(t.TempDir(), "cache")

	first, _, err := runCLI(t, "index", "--cache", cachePath, dir)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := os.Stat(cachePath); err != nil {
		t.Fatalf("cache not written: %v", err)
	}

	// A cache newer than every file is served as is.
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(cachePath, future, future); err != nil {
		t.Fatal(err)
	}
	second, _, err := runCLI(t, "index", "--cache", cachePath, dir)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first != second {
		t.Errorf("cached output differs:\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}

func TestRunIndexSymbolFilterSkipsCache(t *testing.T) {
	t.Parallel()
	dir := createSamplePackage(t)
	cachePath := filepath.Join(t.TempDir(), "cache")

	out, _, err := runCLI(t, "index", "--cache", cachePath, "--symbol", "colors", dir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(cachePath); err == nil {
		t.Error("filtered output must not be cached")
	}
	if !strings.Contains(out, "user.colors") {
		t.Errorf("missing user.colors:\n%s", out)
	}
	if strings.Contains(out, "user.go_home") {
		t.Errorf("user.go_home should be filtered out:\n%s", out)
	}
}

func TestRunIndexFileFilter(t *testing.T) {
	t.Parallel()
	dir := createSamplePackage(t)

	out, _, err := runCLI(t, "index", "--file", "browser", dir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "files[1]") || !strings.Contains(out, "browser.py") {
		t.Errorf("expected only browser.py:\n%s", out)
	}
	if strings.Contains(out, "actions.py") {
		t.Errorf("actions.py should be filtered out:\n%s", out)
	}
}

func TestCacheIsFresh(t *testing.T) {
	t.Parallel()
	dir := createSamplePackage(t)
	files := []discover.FileEntry{{Path: filepath.Join("core", "actions.py"), Language: "python"}}
	cachePath := filepath.Join(t.TempDir(), "cache")

	if cacheIsFresh(cachePath, dir, files) {
		t.Error("missing cache must not be fresh")
	}
	writeTestFile(t, filepath.Dir(cachePath), "cache", "x")

	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(cachePath, past, past); err != nil {
		t.Fatal(err)
	}
	if cacheIsFresh(cachePath, dir, files) {
		t.Error("cache older than a source must not be fresh")
	}

	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(cachePath, future, future); err != nil {
		t.Fatal(err)
	}
	if !cacheIsFresh(cachePath, dir, files) {
		t.Error("cache newer than every source should be fresh")
	}
}

func TestRunSymbols(t *testing.T) {
	t.Parallel()
	dir := createSamplePackage(t)

	out, _, err := runCLI(t, "symbols", dir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{"user.go_home", "user.paste", "user.colors", "user.browser", "Go to the home screen.", "yes"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestRunSymbolsKind(t *testing.T) {
	t.Parallel()
	dir := createSamplePackage(t)

	out, _, err := runCLI(t, "symbols", "--kind", "list", dir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "user.colors") {
		t.Errorf("missing user.colors:\n%s", out)
	}
	if strings.Contains(out, "user.go_home") {
		t.Errorf("actions should be filtered out:\n%s", out)
	}

	_, _, err = runCLI(t, "symbols", "--kind", "widget", dir)
	if err == nil || !strings.Contains(err.Error(), "unknown symbol kind") {
		t.Fatalf("expected unknown kind error, got %v", err)
	}
}

func TestRunDescribe(t *testing.T) {
	t.Parallel()
	dir := createSamplePackage(t)
	script := filepath.Join(dir, "core", "home.talon")

	out, stderr, err := runCLI(t, "describe", dir, script)
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr)
	}
	for _, want := range []string{
		"go home:",
		"    Go to the home screen.",
		"paste <user.text>:",
		"    Paste <text>.",
		"    Press enter",
		"    Returns the active window title.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunDescribeRelativeToRoot(t *testing.T) {
	t.Parallel()
	dir := createSamplePackage(t)

	out, _, err := runCLI(t, "describe", dir, filepath.Join("core", "home.talon"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "Go to the home screen.") {
		t.Errorf("output:\n%s", out)
	}
}

func TestRunDescribeFromStore(t *testing.T) {
	t.Parallel()
	dir := createSamplePackage(t)
	db := filepath.Join(t.TempDir(), "symbols.db")

	if _, _, err := runCLI(t, "index", "--db", db, dir); err != nil {
		t.Fatalf("index: %v", err)
	}

	// The package no longer documents anything; descriptions must come from
	// the database.
	writeTestFile(t, dir, "core/actions.py", "x = 1\n")

	out, _, err := runCLI(t, "describe", "--db", db, dir, filepath.Join(dir, "core", "home.talon"))
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if !strings.Contains(out, "Go to the home screen.") {
		t.Errorf("expected description from store:\n%s", out)
	}
}

func TestRunDescribeNoFiles(t *testing.T) {
	t.Parallel()

	_, _, err := runCLI(t, "describe", createSamplePackage(t))
	if err == nil || !strings.Contains(err.Error(), "no .talon files") {
		t.Fatalf("expected no files error, got %v", err)
	}
}
