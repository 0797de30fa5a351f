package graph

import (
	"math"
	"testing"

	"github.com/phobologic/talondoc/internal/model"
)

func file(path string) *model.FileInfo {
	return model.NewFileInfo(path, "python")
}

func declare(fi *model.FileInfo, kind model.Kind, name string, override bool) {
	fi.Declare(model.Declaration{Name: name, Kind: kind, File: fi.Path, Override: override})
}

func TestBuildGraphCrossFileUse(t *testing.T) {
	t.Parallel()

	a := model.NewFileInfo("a.talon", "talon")
	a.Use(model.Action, "user.go_home")
	b := file("b.py")
	declare(b, model.Action, "user.go_home", false)

	deps := BuildGraph([]*model.FileInfo{a, b})
	if len(deps) != 1 {
		t.Fatalf("expected 1 dep, got %d", len(deps))
	}
	if deps[0].Source != "a.talon" || deps[0].Target != "b.py" {
		t.Errorf("dep: %+v", deps[0])
	}
	if len(deps[0].Symbols) != 1 || deps[0].Symbols[0] != "user.go_home" {
		t.Errorf("symbols: %v", deps[0].Symbols)
	}
}

func TestBuildGraphOverridesProvide(t *testing.T) {
	t.Parallel()

	a := file("a.py")
	a.Use(model.Action, "user.go_home")
	b := file("b.py")
	declare(b, model.Action, "user.go_home", false)
	c := file("c.py")
	declare(c, model.Action, "user.go_home", true)

	deps := BuildGraph([]*model.FileInfo{a, b, c})
	if len(deps) != 2 {
		t.Fatalf("expected 2 deps, got %d: %+v", len(deps), deps)
	}
	if deps[0].Target != "b.py" || deps[1].Target != "c.py" {
		t.Errorf("targets not sorted: %+v", deps)
	}
}

func TestBuildGraphKindsAreDistinct(t *testing.T) {
	t.Parallel()

	a := file("a.py")
	a.Use(model.Action, "user.colors")
	b := file("b.py")
	declare(b, model.List, "user.colors", false)

	if deps := BuildGraph([]*model.FileInfo{a, b}); len(deps) != 0 {
		t.Errorf("expected 0 deps across kinds, got %+v", deps)
	}
}

func TestBuildGraphNoSelfEdge(t *testing.T) {
	t.Parallel()

	a := file("a.py")
	declare(a, model.Action, "user.foo", false)
	a.Use(model.Action, "user.foo")

	deps := BuildGraph([]*model.FileInfo{a})
	if len(deps) != 0 {
		t.Errorf("expected 0 deps (no self-edges), got %d", len(deps))
	}
}

func TestBuildGraphNoDecls(t *testing.T) {
	t.Parallel()

	a := file("a.py")
	a.Use(model.Action, "user.foo")

	deps := BuildGraph([]*model.FileInfo{a})
	if len(deps) != 0 {
		t.Errorf("expected 0 deps (unresolved use), got %d", len(deps))
	}
}

func TestBuildGraphSymbolsSorted(t *testing.T) {
	t.Parallel()

	a := file("a.py")
	a.Use(model.Action, "user.zeta")
	a.Use(model.Action, "user.alpha")
	b := file("b.py")
	declare(b, model.Action, "user.zeta", false)
	declare(b, model.Action, "user.alpha", false)

	deps := BuildGraph([]*model.FileInfo{a, b})
	if len(deps) != 1 {
		t.Fatalf("expected 1 dep, got %d", len(deps))
	}
	if got := deps[0].Symbols; len(got) != 2 || got[0] != "user.alpha" || got[1] != "user.zeta" {
		t.Errorf("symbols: %v", got)
	}
}

func TestRankUniform(t *testing.T) {
	t.Parallel()

	files := []model.FileEntry{
		{Path: "c.py"},
		{Path: "a.py"},
		{Path: "b.py"},
	}

	Rank(files, nil)

	expected := 1.0 / 3.0
	for _, fi := range files {
		if math.Abs(fi.Rank-expected) > 1e-9 {
			t.Errorf("%s rank = %f, want %f", fi.Path, fi.Rank, expected)
		}
	}
	if files[0].Path != "a.py" || files[2].Path != "c.py" {
		t.Errorf("equal ranks should sort by path: %+v", files)
	}
}

func TestRankWithEdges(t *testing.T) {
	t.Parallel()

	files := []model.FileEntry{
		{Path: "a.talon"},
		{Path: "b.py"},
		{Path: "c.talon"},
	}

	deps := []model.Dependency{
		{Source: "a.talon", Target: "b.py", Symbols: []string{"user.x"}},
		{Source: "c.talon", Target: "b.py", Symbols: []string{"user.y"}},
	}

	Rank(files, deps)

	// b.py is used by both scripts
	if files[0].Path != "b.py" {
		t.Errorf("expected b.py first, got %s", files[0].Path)
	}

	var total float64
	for _, fi := range files {
		total += fi.Rank
	}
	if math.Abs(total-1.0) > 1e-4 {
		t.Errorf("ranks sum to %f, want 1.0", total)
	}
}

func TestRankEmpty(t *testing.T) {
	t.Parallel()

	Rank(nil, nil) // must not panic
}

func TestRankMoreSymbolsMoreWeight(t *testing.T) {
	t.Parallel()

	files := []model.FileEntry{
		{Path: "user.talon"},
		{Path: "heavy.py"},
		{Path: "light.py"},
	}
	deps := []model.Dependency{
		{Source: "user.talon", Target: "heavy.py", Symbols: []string{"user.a", "user.b", "user.c"}},
		{Source: "user.talon", Target: "light.py", Symbols: []string{"user.d"}},
	}

	Rank(files, deps)

	ranks := make(map[string]float64)
	for _, fi := range files {
		ranks[fi.Path] = fi.Rank
	}
	if ranks["heavy.py"] <= ranks["light.py"] {
		t.Errorf("heavy.py (%f) should outrank light.py (%f)", ranks["heavy.py"], ranks["light.py"])
	}
}
