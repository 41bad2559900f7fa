// SPDX-License-Identifier: MPL-2.0

package cmdtree

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/taskgrove/grove/internal/registry"
)

type decl struct {
	name   string
	about  string
	groups []registry.Group
	args   []registry.ArgumentSpec
}

func buildRegistry(t *testing.T, decls ...decl) *registry.Registry {
	t.Helper()

	reg := registry.New()
	for _, d := range decls {
		u := registry.NewUnit(d.name)
		for _, a := range d.args {
			u.AddArgument(a)
		}
		if _, err := reg.RegisterCommand(u, &registry.Command{Name: d.name, About: d.about}); err != nil {
			t.Fatalf("RegisterCommand(%s) error = %v", d.name, err)
		}
		for i := len(d.groups) - 1; i >= 0; i-- {
			if _, _, err := reg.AttachGroup(u, d.groups[i]); err != nil {
				t.Fatalf("AttachGroup(%s) error = %v", d.groups[i].Name, err)
			}
		}
	}
	reg.Freeze()
	return reg
}

func sampleRegistry(t *testing.T) *registry.Registry {
	t.Helper()

	test := registry.Group{Name: "test", About: "Test tasks"}
	return buildRegistry(t,
		decl{name: "build", about: "Build the docs", groups: []registry.Group{{Name: "docs", About: "Documentation tasks"}},
			args: []registry.ArgumentSpec{{Name: "clean", Long: "clean", IsFlag: true}}},
		decl{name: "all", about: "Run everything", groups: []registry.Group{test, {Name: "g1"}}},
		decl{name: "all", about: "Run everything else", groups: []registry.Group{test, {Name: "g2"}}},
		decl{name: "unit", about: "Unit tests", groups: []registry.Group{test}},
		decl{name: "lint", about: "Lint"},
	)
}

func TestFlattenRoundTrip(t *testing.T) {
	t.Parallel()

	reg := sampleRegistry(t)
	got := Build(reg).Flatten()
	want := reg.Paths()

	if !slices.Equal(got, want) {
		t.Errorf("Flatten() = %v, want %v", got, want)
	}
}

func TestBuild_SharedPrefixesAndLeafNames(t *testing.T) {
	t.Parallel()

	root := Build(sampleRegistry(t))

	test, ok := root.Child("test")
	if !ok {
		t.Fatal("missing group node test")
	}
	if test.IsCommand() {
		t.Error("group node test carries a command")
	}
	if test.About != "Test tasks" {
		t.Errorf("test.About = %q, want %q", test.About, "Test tasks")
	}

	var names []string
	for _, c := range test.Children() {
		names = append(names, c.Name)
	}
	if !slices.Equal(names, []string{"g1", "g2", "unit"}) {
		t.Errorf("test children = %v, want [g1 g2 unit]", names)
	}

	a1, ok1 := root.Find([]string{"test", "g1", "all"})
	a2, ok2 := root.Find([]string{"test", "g2", "all"})
	if !ok1 || !ok2 {
		t.Fatalf("Find test.g*.all = %v/%v, want both", ok1, ok2)
	}
	if a1.Command == a2.Command {
		t.Error("leaf nodes named all share a command")
	}
	if a1.Path() != "test.g1.all" {
		t.Errorf("Path() = %q, want test.g1.all", a1.Path())
	}
}

func TestBuild_FirstAboutWins(t *testing.T) {
	t.Parallel()

	reg := buildRegistry(t,
		decl{name: "a", groups: []registry.Group{{Name: "ops", About: "first"}}},
		decl{name: "b", groups: []registry.Group{{Name: "ops", About: "second"}}},
	)
	ops, ok := Build(reg).Child("ops")
	if !ok {
		t.Fatal("missing ops")
	}
	if ops.About != "first" {
		t.Errorf("ops.About = %q, want first", ops.About)
	}
}

func TestBuild_HybridNode(t *testing.T) {
	t.Parallel()

	reg := buildRegistry(t,
		decl{name: "test", about: "Run all tests"},
		decl{name: "rust", about: "Rust tests", groups: []registry.Group{{Name: "test"}}},
	)
	root := Build(reg)
	n, ok := root.Child("test")
	if !ok {
		t.Fatal("missing test node")
	}
	if !n.IsCommand() || !n.IsGroup() {
		t.Errorf("test node command=%v group=%v, want both", n.IsCommand(), n.IsGroup())
	}
	if got := root.Flatten(); !slices.Equal(got, []registry.PathKey{"test", "test.rust"}) {
		t.Errorf("Flatten() = %v", got)
	}
}

func TestFind_Partial(t *testing.T) {
	t.Parallel()

	root := Build(sampleRegistry(t))
	n, ok := root.Find([]string{"docs", "missing"})
	if ok {
		t.Fatal("Find(docs missing) matched")
	}
	if n.Name != "docs" {
		t.Errorf("deepest node = %q, want docs", n.Name)
	}
}

func TestComplete(t *testing.T) {
	t.Parallel()

	root := Build(sampleRegistry(t))
	tests := []struct {
		words []string
		want  []string
	}{
		{nil, []string{"docs", "lint", "test"}},
		{[]string{""}, []string{"docs", "lint", "test"}},
		{[]string{"test"}, []string{"g1", "g2", "unit"}},
		{[]string{"test", "", "g1"}, []string{"all"}},
		{[]string{"lint"}, []string{}},
		{[]string{"nope"}, nil},
	}
	for _, tt := range tests {
		got := root.Complete(tt.words)
		if !slices.Equal(got, tt.want) {
			t.Errorf("Complete(%q) = %v, want %v", tt.words, got, tt.want)
		}
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	reg := sampleRegistry(t)
	root := Build(reg)

	t.Run("text", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if err := Render(&buf, root, reg, FormatText, false); err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		out := buf.String()
		for _, want := range []string{"docs: Documentation tasks\n", "  build [--clean] - Build the docs\n", "lint - Lint\n"} {
			if !strings.Contains(out, want) {
				t.Errorf("text output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if err := Render(&buf, root, reg, FormatJSON, false); err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		var doc Document
		if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if doc.Kind != "root" || len(doc.Children) != 3 {
			t.Errorf("root = %s with %d children, want root with 3", doc.Kind, len(doc.Children))
		}
	})

	t.Run("toml", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if err := Render(&buf, root, reg, FormatTOML, false); err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		var doc Document
		if err := toml.Unmarshal(buf.Bytes(), &doc); err != nil {
			t.Fatalf("output is not TOML: %v", err)
		}
		if doc.Name != "grove" {
			t.Errorf("root name = %q, want grove", doc.Name)
		}
	})
}

func TestArgumentSignature(t *testing.T) {
	t.Parallel()

	args := []registry.Argument{
		{Name: "verbose", Long: "verbose", IsFlag: true, ValueType: registry.ValueBool},
		{Name: "output", Short: "o", TakesValue: true, ValueType: registry.ValueString},
		{Name: "phrase", TakesValue: true, ValueType: registry.ValueString},
	}
	want := "[--verbose] [-o=<string>] <phrase>"
	if got := ArgumentSignature(args); got != want {
		t.Errorf("ArgumentSignature() = %q, want %q", got, want)
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	if f, err := ParseFormat(""); err != nil || f != FormatText {
		t.Errorf("ParseFormat(\"\") = %q, %v", f, err)
	}
	if f, err := ParseFormat("JSON"); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(JSON) = %q, %v", f, err)
	}
	if _, err := ParseFormat("yaml"); err == nil {
		t.Error("ParseFormat(yaml) succeeded")
	}
}
