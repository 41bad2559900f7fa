// SPDX-License-Identifier: MPL-2.0

package cliproj

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/taskgrove/grove/internal/cmdtree"
	"github.com/taskgrove/grove/internal/dispatch"
	"github.com/taskgrove/grove/internal/registry"
)

type captured struct {
	mu     sync.Mutex
	kwargs []map[string]any
}

func (c *captured) Invoke(_ context.Context, kwargs map[string]any, _ registry.Streams) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kwargs = append(c.kwargs, kwargs)
	return nil, nil
}

func declare(t *testing.T, reg *registry.Registry, cmd *registry.Command, groups []registry.Group, args ...registry.ArgumentSpec) {
	t.Helper()

	u := registry.NewUnit(cmd.Name)
	for _, a := range args {
		u.AddArgument(a)
	}
	if _, err := reg.RegisterCommand(u, cmd); err != nil {
		t.Fatalf("RegisterCommand(%s) error = %v", cmd.Name, err)
	}
	for i := len(groups) - 1; i >= 0; i-- {
		if _, _, err := reg.AttachGroup(u, groups[i]); err != nil {
			t.Fatalf("AttachGroup(%s) error = %v", groups[i].Name, err)
		}
	}
}

// docsRegistry declares group docs with command build and flag --clean.
func docsRegistry(t *testing.T, inv registry.Invoker) *registry.Registry {
	t.Helper()

	reg := registry.New()
	docs := registry.Group{Name: "docs", About: "Documentation tasks"}
	declare(t, reg, &registry.Command{Name: "build", About: "Build the docs", Invoker: inv},
		[]registry.Group{docs},
		registry.ArgumentSpec{Name: "clean", Long: "clean", IsFlag: true},
	)
	declare(t, reg, &registry.Command{Name: "serve", About: "Serve the docs", Invoker: inv},
		[]registry.Group{docs},
		registry.ArgumentSpec{Name: "port", Long: "port", Short: "p", ValueType: registry.ValueInt, DefaultValue: "8000"},
		registry.ArgumentSpec{Name: "host", Long: "host", Required: true},
	)
	declare(t, reg, &registry.Command{Name: "greet", About: "Say hello", Invoker: inv}, nil,
		registry.ArgumentSpec{Name: "name", Required: true},
		registry.ArgumentSpec{Name: "extra", Multiplicity: &registry.Multiplicity{}},
	)
	reg.Freeze()
	return reg
}

type harness struct {
	root *cobra.Command
	out  *bytes.Buffer
}

func newHarness(reg *registry.Registry) *harness {
	d := dispatch.New(reg, dispatch.WithLogger(log.New(io.Discard)))
	root := &cobra.Command{Use: "grove", SilenceErrors: true, SilenceUsage: true}
	root.PersistentFlags().CountP("verbose", "v", "verbosity")

	p := &Projector{
		Registry: reg,
		Logger:   log.New(io.Discard),
		Handler: func(cmd *cobra.Command, segments []string, raw map[string]any) error {
			_, err := d.DispatchCLI(cmd.Context(), segments, raw, registry.Streams{
				Stdin:  cmd.InOrStdin(),
				Stdout: cmd.OutOrStdout(),
				Stderr: cmd.ErrOrStderr(),
			})
			return err
		},
	}
	p.Attach(root, cmdtree.Build(reg))

	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	return &harness{root: root, out: out}
}

func (h *harness) run(args ...string) error {
	h.root.SetArgs(args)
	return h.root.ExecuteContext(context.Background())
}

func TestEndToEnd_CLIAndToolDispatchAgree(t *testing.T) {
	t.Parallel()

	inv := &captured{}
	reg := docsRegistry(t, inv)

	cmd, ok := reg.Lookup("docs.build")
	if !ok {
		t.Fatal("docs.build not registered")
	}
	if got, _ := reg.Group("docs"); got.About != "Documentation tasks" {
		t.Errorf("docs about = %q", got.About)
	}

	if err := newHarness(reg).run("docs", "build", "--clean"); err != nil {
		t.Fatalf("CLI run error = %v", err)
	}

	d := dispatch.New(reg, dispatch.WithLogger(log.New(io.Discard)))
	call, err := dispatch.ParseToolArguments(map[string]any{
		"command_path": "docs.build",
		"args":         map[string]any{"clean": true},
	}, "")
	if err != nil {
		t.Fatalf("ParseToolArguments() error = %v", err)
	}
	env := d.DispatchTool(context.Background(), call)
	if env.Result != dispatch.ResultSuccess {
		t.Fatalf("tool envelope = %+v", env)
	}

	if len(inv.kwargs) != 2 {
		t.Fatalf("invoked %d times, want 2", len(inv.kwargs))
	}
	for i, kw := range inv.kwargs {
		if len(kw) != 1 || kw["clean"] != true {
			t.Errorf("call %d kwargs = %v, want {clean: true}", i, kw)
		}
	}
	if cmd.Invoker != inv {
		t.Error("docs.build has a different invoker")
	}
}

func TestProject_Idempotent(t *testing.T) {
	t.Parallel()

	reg := docsRegistry(t, &captured{})
	tree := cmdtree.Build(reg)

	build := func() string {
		p := &Projector{Registry: reg, Logger: log.New(io.Discard), Handler: func(*cobra.Command, []string, map[string]any) error { return nil }}
		return Describe(p.Project(tree))
	}

	first, second := build(), build()
	if first != second {
		t.Errorf("projections differ:\n%s\n---\n%s", first, second)
	}
	if first == "" {
		t.Error("projection is empty")
	}
}

func TestProject_FlagsAndDefaults(t *testing.T) {
	t.Parallel()

	inv := &captured{}
	h := newHarness(docsRegistry(t, inv))
	if err := h.run("docs", "serve", "--host", "localhost"); err != nil {
		t.Fatalf("run error = %v", err)
	}
	if err := h.run("docs", "serve", "--host", "0.0.0.0", "-p", "9000"); err != nil {
		t.Fatalf("run error = %v", err)
	}

	if got := inv.kwargs[0]; got["port"] != 8000 || got["host"] != "localhost" {
		t.Errorf("defaults kwargs = %v, want port 8000 host localhost", got)
	}
	if got := inv.kwargs[1]; got["port"] != 9000 {
		t.Errorf("explicit kwargs = %v, want port 9000", got)
	}
}

func TestProject_CoercionFailureSkipsInvoke(t *testing.T) {
	t.Parallel()

	inv := &captured{}
	h := newHarness(docsRegistry(t, inv))
	err := h.run("docs", "serve", "--host", "x", "--port", "abc")
	if !errors.Is(err, dispatch.ErrCoercion) {
		t.Fatalf("run error = %v, want a coercion error", err)
	}
	if len(inv.kwargs) != 0 {
		t.Error("invoker ran despite a coercion error")
	}
}

func TestProject_Positional(t *testing.T) {
	t.Parallel()

	inv := &captured{}
	h := newHarness(docsRegistry(t, inv))
	if err := h.run("greet", "ada", "x", "y"); err != nil {
		t.Fatalf("run error = %v", err)
	}
	got := inv.kwargs[0]
	if got["name"] != "ada" {
		t.Errorf("name = %v, want ada", got["name"])
	}
	extra, _ := got["extra"].([]any)
	if len(extra) != 2 || extra[0] != "x" || extra[1] != "y" {
		t.Errorf("extra = %#v, want [x y]", got["extra"])
	}

	if err := h.run("greet"); !errors.Is(err, ErrMissingArgs) {
		t.Errorf("run without name error = %v, want ErrMissingArgs", err)
	}
}

func TestProject_UnknownSubcommand(t *testing.T) {
	t.Parallel()

	h := newHarness(docsRegistry(t, &captured{}))
	err := h.run("docs", "publish")

	var lookupErr *registry.LookupError
	if !errors.As(err, &lookupErr) {
		t.Fatalf("run error = %v, want *registry.LookupError", err)
	}
	if lookupErr.Path != "docs.publish" || lookupErr.Nearest != "docs" {
		t.Errorf("LookupError = %+v", lookupErr)
	}
	if !bytes.Contains(h.out.Bytes(), []byte("Available Commands")) {
		t.Errorf("help listing not printed:\n%s", h.out.String())
	}
}

func TestProject_GroupRequiresSubcommand(t *testing.T) {
	t.Parallel()

	h := newHarness(docsRegistry(t, &captured{}))
	if err := h.run("docs"); !errors.Is(err, ErrSubcommandRequired) {
		t.Errorf("run error = %v, want ErrSubcommandRequired", err)
	}
}

func TestProject_ReservedShorthandIsDropped(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	declare(t, reg, &registry.Command{Name: "lint", Invoker: &captured{}}, nil,
		registry.ArgumentSpec{Name: "verbose", Long: "loud", Short: "v", IsFlag: true},
	)
	reg.Freeze()

	h := newHarness(reg)
	lint, _, err := h.root.Find([]string{"lint"})
	if err != nil {
		t.Fatalf("Find(lint) error = %v", err)
	}
	f := lint.Flags().Lookup("loud")
	if f == nil {
		t.Fatal("flag --loud missing")
	}
	if f.Shorthand != "" {
		t.Errorf("shorthand = %q, want none (reserved by --verbose)", f.Shorthand)
	}
}

func TestProject_HybridNode(t *testing.T) {
	t.Parallel()

	inv := &captured{}
	reg := registry.New()
	declare(t, reg, &registry.Command{Name: "test", Invoker: inv}, nil)
	declare(t, reg, &registry.Command{Name: "rust", Invoker: inv}, []registry.Group{{Name: "test"}})
	reg.Freeze()

	h := newHarness(reg)
	if err := h.run("test"); err != nil {
		t.Fatalf("run test error = %v", err)
	}
	if err := h.run("test", "rust"); err != nil {
		t.Fatalf("run test rust error = %v", err)
	}
	if len(inv.kwargs) != 2 {
		t.Errorf("invoked %d times, want 2", len(inv.kwargs))
	}

	var lookupErr *registry.LookupError
	if err := h.run("test", "go"); !errors.As(err, &lookupErr) {
		t.Errorf("run test go error = %v, want LookupError", err)
	}
}

func TestCollect_OnlyChangedFlags(t *testing.T) {
	t.Parallel()

	reg := docsRegistry(t, &captured{})
	p := &Projector{Registry: reg, Logger: log.New(io.Discard), Handler: func(*cobra.Command, []string, map[string]any) error { return nil }}
	cmds := p.Project(cmdtree.Build(reg))

	var serve *cobra.Command
	for _, c := range cmds {
		if c.Name() == "docs" {
			for _, s := range c.Commands() {
				if s.Name() == "serve" {
					serve = s
				}
			}
		}
	}
	if serve == nil {
		t.Fatal("docs serve not projected")
	}
	if err := serve.ParseFlags([]string{"--host", "h"}); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	args := reg.ArgumentsOf("docs.serve")
	raw := collect(serve, args, nil, nil)

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	if !slices.Equal(keys, []string{"host"}) {
		t.Errorf("collected keys = %v, want [host]", keys)
	}
}

func TestAttach_BuiltinShadowsTask(t *testing.T) {
	t.Parallel()

	inv := &captured{}
	reg := registry.New()
	declare(t, reg, &registry.Command{Name: "tree", Invoker: inv}, nil)
	declare(t, reg, &registry.Command{Name: "lint", Invoker: inv}, nil)
	reg.Freeze()

	root := &cobra.Command{Use: "grove", SilenceErrors: true, SilenceUsage: true}
	builtinRan := false
	root.AddCommand(&cobra.Command{Use: "tree", RunE: func(*cobra.Command, []string) error {
		builtinRan = true
		return nil
	}})
	p := &Projector{Registry: reg, Logger: log.New(io.Discard), Handler: func(*cobra.Command, []string, map[string]any) error { return nil }}
	p.Attach(root, cmdtree.Build(reg))

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	if want := []string{"lint", "tree"}; !slices.Equal(names, want) {
		t.Errorf("commands = %v, want %v", names, want)
	}

	root.SetArgs([]string{"tree"})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !builtinRan {
		t.Error("built-in tree did not run")
	}
}

func TestProject_HelpFlagIsReserved(t *testing.T) {
	t.Parallel()

	inv := &captured{}
	reg := registry.New()
	declare(t, reg, &registry.Command{Name: "lint", Invoker: inv}, nil,
		registry.ArgumentSpec{Name: "help", Long: "help"},
	)
	reg.Freeze()

	h := newHarness(reg)
	if err := h.run("lint", "--help"); err != nil {
		t.Fatalf("run --help error = %v", err)
	}
	if len(inv.kwargs) != 0 {
		t.Error("--help ran the task instead of printing help")
	}
	if !bytes.Contains(h.out.Bytes(), []byte("Usage:")) {
		t.Errorf("help not printed:\n%s", h.out.String())
	}
}

func TestProject_TaskFlagShadowsGlobalFlag(t *testing.T) {
	t.Parallel()

	inv := &captured{}
	reg := registry.New()
	declare(t, reg, &registry.Command{Name: "deploy", Invoker: inv}, nil,
		registry.ArgumentSpec{Name: "target", Long: "config"},
	)
	reg.Freeze()

	root := &cobra.Command{Use: "grove", SilenceErrors: true, SilenceUsage: true}
	root.PersistentFlags().String("config", "", "config file")
	p := &Projector{
		Registry: reg,
		Logger:   log.New(io.Discard),
		Handler: func(cmd *cobra.Command, _ []string, raw map[string]any) error {
			_, err := inv.Invoke(cmd.Context(), raw, registry.Streams{})
			return err
		},
	}
	p.Attach(root, cmdtree.Build(reg))

	root.SetArgs([]string{"deploy", "--config", "prod.yaml"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(inv.kwargs) != 1 || inv.kwargs[0]["target"] != "prod.yaml" {
		t.Errorf("kwargs = %v, want target prod.yaml", inv.kwargs)
	}
	if got, _ := root.PersistentFlags().GetString("config"); got != "" {
		t.Errorf("global --config = %q, want it untouched", got)
	}
}
