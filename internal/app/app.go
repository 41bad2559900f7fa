// SPDX-License-Identifier: MPL-2.0

package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/taskgrove/grove/internal/app/execute"
	"github.com/taskgrove/grove/internal/cmdtree"
	"github.com/taskgrove/grove/internal/config"
	"github.com/taskgrove/grove/internal/discovery"
	"github.com/taskgrove/grove/internal/dispatch"
	"github.com/taskgrove/grove/internal/registry"
	"github.com/taskgrove/grove/internal/runtime"
	"github.com/taskgrove/grove/internal/toolproj"
)

// ErrConfigLoad wraps failures to load an explicitly requested config file.
var ErrConfigLoad = errors.New("config load failed")

type (
	// Options configures Load. Nil fields get production defaults.
	Options struct {
		// ConfigPath is the explicit --config value.
		ConfigPath string
		// StartDir is where project discovery begins; the working directory
		// when empty.
		StartDir string
		Provider config.Provider
		// Runtimes replaces the runtimes built from configuration.
		Runtimes *runtime.Registry
		Logger   *log.Logger
		// DispatchOptions are appended after the logger option.
		DispatchOptions []dispatch.Option
	}

	// App holds everything built from one load.
	App struct {
		Config     *config.Config
		ConfigPath string
		// Project is nil when no task directory was found.
		Project *discovery.Project
		// ProjectErr explains why Project is nil.
		ProjectErr  error
		Registry    *registry.Registry
		Tree        *cmdtree.Node
		Tools       *toolproj.Set
		Dispatcher  *dispatch.Dispatcher
		Diagnostics []discovery.Diagnostic
		Logger      *log.Logger
	}
)

// Load builds an App. A missing project is not an error: the App then has
// an empty registry and ProjectErr set. Invalid declarations return a
// *registry.RegistrationError.
func Load(ctx context.Context, opts Options) (*App, error) {
	if opts.Provider == nil {
		opts.Provider = config.NewProvider()
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "grove"})
	}

	a := &App{Logger: opts.Logger}
	cfg, cfgPath, diags, err := loadConfigWithFallback(ctx, opts.Provider, opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	a.Config, a.ConfigPath = cfg, cfgPath
	a.Diagnostics = append(a.Diagnostics, diags...)

	runtimes := opts.Runtimes
	if runtimes == nil {
		runtimes = runtime.DefaultRegistry(cfg.Native.Shell)
	}

	a.Registry = registry.New()
	res, err := discovery.New(cfg, opts.StartDir).Discover()
	switch {
	case errors.Is(err, discovery.ErrTaskDirNotFound):
		a.ProjectErr = err
		a.Registry.Freeze()
		a.Diagnostics = append(a.Diagnostics, discovery.Diagnostic{
			Severity: discovery.SeverityWarning,
			Code:     discovery.CodeNoProject,
			Message:  err.Error(),
			Cause:    err,
		})
		a.Logger.Debug("no project found", "err", err)
	case err != nil:
		return nil, fmt.Errorf("discover project: %w", err)
	default:
		a.Project = res.Project
		a.Diagnostics = append(a.Diagnostics, res.Diagnostics...)

		factory := &execute.Factory{Project: res.Project, Config: cfg, Runtimes: runtimes}
		loader := &discovery.Loader{Registry: a.Registry, Factory: factory.Invoker, Logger: a.Logger}
		loadDiags, err := loader.Load(res.Taskfiles())
		if err != nil {
			return nil, err
		}
		a.Diagnostics = append(a.Diagnostics, loadDiags...)
		a.Logger.Debug("project loaded", "root", res.Project.Root, "files", len(res.Files), "commands", a.Registry.Len())
	}

	a.Tree = cmdtree.Build(a.Registry)
	a.Tools = toolproj.Project(a.Registry, a.Logger)
	dispatchOpts := append([]dispatch.Option{dispatch.WithLogger(a.Logger)}, opts.DispatchOptions...)
	a.Dispatcher = dispatch.New(a.Registry, dispatchOpts...)
	return a, nil
}

// loadConfigWithFallback loads configuration through provider. An explicit
// path must load; otherwise failures fall back to defaults with an error
// diagnostic.
func loadConfigWithFallback(ctx context.Context, provider config.Provider, configPath string) (*config.Config, string, []discovery.Diagnostic, error) {
	loaded, err := provider.Load(ctx, config.LoadOptions{ConfigFilePath: configPath})
	if err == nil {
		return loaded.Config, loaded.Path, nil, nil
	}
	if configPath != "" {
		return nil, "", nil, fmt.Errorf("%w: %w", ErrConfigLoad, err)
	}
	return config.DefaultConfig(), "", []discovery.Diagnostic{{
		Severity: discovery.SeverityError,
		Code:     discovery.CodeConfigLoadFailed,
		Message:  fmt.Sprintf("failed to load config, using defaults: %v", err),
		Cause:    err,
	}}, nil
}
