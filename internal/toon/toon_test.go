package toon

import (
	"strings"
	"testing"

	"github.com/phobologic/talondoc/internal/model"
)

func TestEncodeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", `""`},
		{"simple", "hello", "hello"},
		{"leading space", " hello", `" hello"`},
		{"trailing space", "hello ", `"hello "`},
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"carriage return", "a\rb", `"a\rb"`},
		{"true keyword", "true", `"true"`},
		{"True keyword", "True", `"True"`},
		{"false keyword", "false", `"false"`},
		{"null keyword", "null", `"null"`},
		{"integer", "42", "42"},
		{"negative integer", "-1", "-1"},
		{"float", "3.14", "3.14"},
		{"zero", "0", "0"},
		{"leading zero invalid", "01", "01"},
		{"comma", "a,b", `"a,b"`},
		{"colon", "a:b", `"a:b"`},
		{"quote", `a"b`, `"a\"b"`},
		{"backslash", `a\b`, `"a\\b"`},
		{"bracket", "a[b", `"a[b"`},
		{"brace", "a{b", `"a{b"`},
		{"dash prefix", "-foo", `"-foo"`},
		{"path", "apps/vscode.py", "apps/vscode.py"},
		{"action name", "user.go_home", "user.go_home"},
		{"sentence", "Go to the home screen.", "Go to the home screen."},
		{"rule", "paste <user.text>", "paste <user.text>"},
		{"list rule", "{user.letter}", `"{user.letter}"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := encodeValue(tt.in)
			if got != tt.want {
				t.Errorf("encodeValue(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	r := &model.Report{
		Name: "community",
		Root: "community",
		Files: []model.FileEntry{
			{Path: "core/actions.py", Language: "python", Rank: 0.75},
			{Path: "core/home.talon", Language: "talon", Rank: 0.25},
		},
		Declarations: []model.Declaration{{
			Name:   "user.go_home",
			Kind:   model.Action,
			File:   "core/actions.py",
			Desc:   "Go to the home screen.\n\nMore detail.",
			Source: model.Span{File: "core/actions.py", Start: model.Position{Line: 7}},
		}},
		Overrides: []model.Declaration{{
			Name:     "user.go_home",
			Kind:     model.Action,
			File:     "core/actions.py",
			Override: true,
			Source:   model.Span{File: "core/actions.py", Start: model.Position{Line: 15}},
		}},
		Uses: []model.Use{
			{File: "core/home.talon", Kind: model.Action, Name: "user.go_home"},
		},
		Dependencies: []model.Dependency{
			{Source: "core/home.talon", Target: "core/actions.py", Symbols: []string{"user.go_home"}},
		},
	}

	want := []string{
		"package: community",
		"root: community",
		"files[2]{path,language,rank}:",
		"  core/actions.py,python,0.7500",
		"  core/home.talon,talon,0.2500",
		"declarations[1]{file,kind,name,line,desc}:",
		"  core/actions.py,action,user.go_home,7,Go to the home screen.",
		"overrides[1]{file,kind,name,line,desc}:",
		`  core/actions.py,action,user.go_home,15,""`,
		"uses[1]{file,kind,name}:",
		"  core/home.talon,action,user.go_home",
		"dependencies[1]{source,target,symbols}:",
		"  core/home.talon,core/actions.py,user.go_home",
	}

	lines := strings.Split(Encode(r), "\n")
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), strings.Join(lines, "\n"))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestEncodeConflicts(t *testing.T) {
	t.Parallel()

	r := &model.Report{
		Name: "p",
		Root: "p",
		Conflicts: []model.Conflict{{
			Kind:     model.List,
			Name:     "user.colors",
			Previous: model.Declaration{File: "a.py"},
			Current:  model.Declaration{File: "b.py"},
		}},
	}

	got := Encode(r)
	if !strings.Contains(got, "conflicts[1]{kind,name,replaced,winner}:\n  list,user.colors,a.py,b.py") {
		t.Errorf("missing conflicts section:\n%s", got)
	}
}

func TestEncodeEmpty(t *testing.T) {
	t.Parallel()

	got := Encode(&model.Report{Name: "empty", Root: "empty"})
	for _, section := range []string{
		"files[0]{path,language,rank}:",
		"declarations[0]{file,kind,name,line,desc}:",
		"uses[0]{file,kind,name}:",
	} {
		if !strings.Contains(got, section) {
			t.Errorf("expected %q, got:\n%s", section, got)
		}
	}
	if strings.Contains(got, "conflicts") {
		t.Errorf("conflicts section should be omitted when empty:\n%s", got)
	}
}
