// SPDX-License-Identifier: MPL-2.0

package toolproj

import (
	"encoding/json"
	"io"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/taskgrove/grove/internal/registry"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func register(t *testing.T, reg *registry.Registry, cmd *registry.Command, groups []string, args ...registry.ArgumentSpec) {
	t.Helper()

	u := registry.NewUnit(cmd.Name)
	for _, a := range args {
		u.AddArgument(a)
	}
	if _, err := reg.RegisterCommand(u, cmd); err != nil {
		t.Fatalf("RegisterCommand(%s) error = %v", cmd.Name, err)
	}
	for i := len(groups) - 1; i >= 0; i-- {
		if _, _, err := reg.AttachGroup(u, registry.Group{Name: groups[i]}); err != nil {
			t.Fatalf("AttachGroup(%s) error = %v", groups[i], err)
		}
	}
}

func TestToolName(t *testing.T) {
	t.Parallel()

	tests := map[registry.PathKey]string{
		"build":           "grove_build",
		"docs.build":      "grove_docs_build",
		"test.rust-core":  "grove_test_rust_core",
		"dev env.install": "grove_dev_env_install",
	}
	for in, want := range tests {
		if got := ToolName(in); got != want {
			t.Errorf("ToolName(%q) = %q, want %q", in, got, want)
		}
	}
}

// Sanitization maps all three spellings onto one name. Project reports the
// collision and keeps the last PathKey in sorted order.
func TestProject_SanitizationCollision(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	register(t, reg, &registry.Command{Name: "rust", About: "dotted"}, []string{"test"})
	register(t, reg, &registry.Command{Name: "test rust", About: "spaced"}, nil)
	register(t, reg, &registry.Command{Name: "test-rust", About: "dashed"}, nil)

	for _, p := range []registry.PathKey{"test.rust", "test rust", "test-rust"} {
		if got := ToolName(p); got != "grove_test_rust" {
			t.Fatalf("ToolName(%q) = %q, want grove_test_rust", p, got)
		}
	}

	set := Project(reg, quietLogger())
	if set.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 surviving descriptor", set.Len())
	}

	collisions := set.Collisions()
	if len(collisions) != 1 {
		t.Fatalf("Collisions() = %+v, want one", collisions)
	}
	c := collisions[0]
	if c.Name != "grove_test_rust" {
		t.Errorf("collision name = %q", c.Name)
	}
	wantPaths := []registry.PathKey{"test rust", "test-rust", "test.rust"}
	if !slices.Equal(c.Paths, wantPaths) {
		t.Errorf("collision paths = %v, want %v", c.Paths, wantPaths)
	}
	if c.Winner != "test.rust" {
		t.Errorf("winner = %q, want test.rust", c.Winner)
	}

	d, ok := set.Lookup("grove_test_rust")
	if !ok {
		t.Fatal("Lookup(grove_test_rust) missing")
	}
	if d.Path != "test.rust" || d.Description != "dotted" {
		t.Errorf("surviving descriptor = %s %q, want test.rust dotted", d.Path, d.Description)
	}
}

func TestBuildSchema(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	register(t, reg, &registry.Command{Name: "build", About: "Build"}, []string{"docs"},
		registry.ArgumentSpec{Name: "clean", Long: "clean", IsFlag: true, Help: "Remove output first"},
		registry.ArgumentSpec{Name: "jobs", Long: "jobs", ValueType: registry.ValueInt},
		registry.ArgumentSpec{Name: "ratio", Long: "ratio", ValueType: registry.ValueFloat},
		registry.ArgumentSpec{Name: "target", Long: "target"},
		registry.ArgumentSpec{Name: "files", Long: "file", Multiplicity: &registry.Multiplicity{Min: 1, Max: 3}},
	)
	set := Project(reg, quietLogger())
	d, ok := set.Lookup("grove_docs_build")
	if !ok {
		t.Fatal("missing grove_docs_build")
	}

	s := d.Schema
	if s.Type != "object" || s.AdditionalProperties {
		t.Errorf("schema type=%s additionalProperties=%v", s.Type, s.AdditionalProperties)
	}
	if !slices.Equal(s.Required, []string{DiscriminatorField}) {
		t.Errorf("required = %v, want [%s]", s.Required, DiscriminatorField)
	}
	disc := s.Properties[DiscriminatorField]
	if !slices.Equal(disc.Enum, []string{"docs.build"}) {
		t.Errorf("discriminator enum = %v, want [docs.build]", disc.Enum)
	}

	args, ok := s.Properties[ArgsField]
	if !ok {
		t.Fatal("schema has no args object")
	}
	want := map[string]string{
		"clean":  "boolean",
		"jobs":   "integer",
		"ratio":  "number",
		"target": "string",
		"files":  "array",
	}
	for name, typ := range want {
		if got := args.Properties[name].Type; got != typ {
			t.Errorf("args.%s type = %q, want %q", name, got, typ)
		}
	}
	if got := args.Properties["clean"].Description; got != "Remove output first" {
		t.Errorf("clean description = %q", got)
	}
	if got := args.Properties["jobs"].Description; got != "jobs argument" {
		t.Errorf("jobs description = %q, want fallback", got)
	}
	files := args.Properties["files"]
	if files.Items == nil || files.Items.Type != "string" || files.MinItems != 1 || files.MaxItems != 3 {
		t.Errorf("files = %+v, want string array of 1..3", files)
	}
}

func TestBuildSchema_NoArguments(t *testing.T) {
	t.Parallel()

	s := BuildSchema("lint", nil)
	if _, ok := s.Properties[ArgsField]; ok {
		t.Error("schema for a command without arguments has an args object")
	}

	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(raw), `"additionalProperties":false`) {
		t.Errorf("schema JSON %s lacks additionalProperties:false", raw)
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cmd  *registry.Command
		want string
	}{
		{"about only", &registry.Command{About: "Build docs"}, "Build docs"},
		{"fallback", &registry.Command{}, DefaultAbout},
		{
			"prose and bullets",
			&registry.Command{
				About: "Run tests",
				Tool: &registry.ToolDescription{
					Description:  "  Runs the unit suite.  ",
					WhenToUse:    []string{"after editing code"},
					WhenNotToUse: []string{"for benchmarks", "in CI"},
				},
			},
			"Run tests\n\nRuns the unit suite.\n\nWhen to use:\n- after editing code\n\nWhen NOT to use:\n- for benchmarks\n- in CI",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Describe(tt.cmd); got != tt.want {
				t.Errorf("Describe() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		risk registry.RiskLevel
		want Hints
	}{
		{registry.RiskDestructive, Hints{Destructive: true}},
		{registry.RiskReadOnly, Hints{ReadOnly: true}},
		{registry.RiskSafe, Hints{}},
		{"", Hints{}},
	}
	for _, tt := range tests {
		if got := HintsFor(tt.risk); got != tt.want {
			t.Errorf("HintsFor(%q) = %+v, want %+v", tt.risk, got, tt.want)
		}
	}
}

func TestProject_InvalidRiskLevelIsSafe(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	register(t, reg, &registry.Command{Name: "wipe", Tool: &registry.ToolDescription{RiskLevel: "dangerous"}}, nil)
	d, _ := Project(reg, quietLogger()).Lookup("grove_wipe")
	if d.Hints != (Hints{}) {
		t.Errorf("hints = %+v, want safe", d.Hints)
	}
}

func TestDescriptor_MCPTool(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	register(t, reg, &registry.Command{Name: "clean", About: "Remove build output", Tool: &registry.ToolDescription{RiskLevel: registry.RiskDestructive}}, nil)
	d, _ := Project(reg, quietLogger()).Lookup("grove_clean")

	tool, err := d.MCPTool()
	if err != nil {
		t.Fatalf("MCPTool() error = %v", err)
	}
	if tool.Name != "grove_clean" {
		t.Errorf("tool.Name = %q", tool.Name)
	}
	if tool.Annotations.DestructiveHint == nil || !*tool.Annotations.DestructiveHint {
		t.Error("DestructiveHint not set")
	}
	if tool.Annotations.ReadOnlyHint == nil || *tool.Annotations.ReadOnlyHint {
		t.Error("ReadOnlyHint should be false")
	}

	var schema map[string]any
	if err := json.Unmarshal(tool.RawInputSchema, &schema); err != nil {
		t.Fatalf("RawInputSchema is not JSON: %v", err)
	}
	if schema["type"] != "object" {
		t.Errorf("schema type = %v", schema["type"])
	}
}
