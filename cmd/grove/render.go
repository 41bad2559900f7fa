// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/taskgrove/grove/internal/app"
	"github.com/taskgrove/grove/internal/cliproj"
	"github.com/taskgrove/grove/internal/discovery"
	"github.com/taskgrove/grove/internal/dispatch"
	"github.com/taskgrove/grove/internal/issue"
	"github.com/taskgrove/grove/internal/registry"
	"github.com/taskgrove/grove/internal/runtime"
)

// errToolServer marks failures of `grove mcp`.
var errToolServer = errors.New("tool server failed")

// explainAlways lists issues whose help page is shown without -v.
var explainAlways = map[issue.Id]bool{
	issue.TaskDirNotFoundId:    true,
	issue.InvalidDeclarationId: true,
	issue.ConfigLoadFailedId:   true,
}

// renderError writes err to w, followed by the matching issue page.
func renderError(w io.Writer, err error, verbose bool, style string) {
	id, ae := classify(err)
	msg := err.Error()
	if ae != nil {
		msg = ae.Format(verbose)
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("Error:"), msg)

	var execErr *dispatch.TaskExecutionError
	if verbose && errors.As(err, &execErr) && execErr.Diagnostic != "" {
		fmt.Fprintf(w, "\n%s\n", strings.TrimRight(execErr.Diagnostic, "\n"))
	}

	if id == 0 {
		return
	}
	if !verbose && !explainAlways[id] {
		fmt.Fprintln(w, hintStyle.Render("Run with -v for more help."))
		return
	}
	entry := issue.Get(id)
	if entry == nil {
		return
	}
	rendered, renderErr := entry.Render(style)
	if renderErr != nil {
		log.Warn("failed to render issue page", "issue", id, "err", renderErr)
		return
	}
	fmt.Fprint(w, rendered)
}

// classify maps err to an issue page and, where the error itself carries no
// guidance, an ActionableError with suggestions.
func classify(err error) (issue.Id, *issue.ActionableError) {
	var (
		ae        *issue.ActionableError
		lookupErr *registry.LookupError
		regErr    *registry.RegistrationError
		execErr   *dispatch.TaskExecutionError
	)
	errors.As(err, &ae)

	switch {
	case errors.Is(err, app.ErrConfigLoad):
		return issue.ConfigLoadFailedId, ae
	case errors.Is(err, discovery.ErrTaskDirNotFound):
		return issue.TaskDirNotFoundId, ae
	case errors.As(err, &regErr):
		return issue.InvalidDeclarationId, issue.NewErrorContext().
			WithOperation("load tasks").
			WithResource(regErr.Source).
			WithSuggestion("Every task needs a unique group chain and name").
			WithSuggestion("Run 'grove tree' after fixing the file to check the result").
			Wrap(err).
			Build()
	case errors.As(err, &lookupErr):
		ctx := issue.NewErrorContext().
			WithOperation("find command").
			WithResource(strings.Join(lookupErr.Path.Segments(), " ")).
			WithSuggestion("Run 'grove tree' to list the available commands").
			Wrap(err)
		if lookupErr.Nearest != "" {
			ctx.WithSuggestion(fmt.Sprintf("Run 'grove %s --help' to list its subcommands", strings.Join(lookupErr.Nearest.Segments(), " ")))
		}
		return issue.CommandNotFoundId, ctx.Build()
	case errors.Is(err, dispatch.ErrCoercion),
		errors.Is(err, cliproj.ErrMissingArgs),
		errors.Is(err, cliproj.ErrUnexpectedArgs):
		return issue.InvalidArgumentId, ae
	case errors.As(err, &execErr):
		if errors.Is(err, runtime.ErrRuntimeNotAvailable) {
			return issue.RuntimeNotAvailableId, ae
		}
		return issue.ScriptExecutionFailedId, ae
	case errors.Is(err, runtime.ErrRuntimeNotAvailable):
		return issue.RuntimeNotAvailableId, ae
	case errors.Is(err, errToolServer):
		return issue.ToolServerFailedId, ae
	case errors.Is(err, os.ErrPermission):
		return issue.PermissionDeniedId, ae
	default:
		return 0, ae
	}
}

// renderDiagnostics writes non-fatal discovery findings. A missing project
// is only reported with -v.
func renderDiagnostics(w io.Writer, diags []discovery.Diagnostic, verbose bool) {
	for _, d := range diags {
		if d.Code == discovery.CodeNoProject && !verbose {
			continue
		}
		prefix := WarningStyle.Render("warning")
		if d.Severity == discovery.SeverityError {
			prefix = ErrorStyle.Render("error")
		}
		line := fmt.Sprintf("%s: %s", prefix, d.Message)
		if d.Path != "" {
			line += " " + SubtitleStyle.Render("("+d.Path+")")
		}
		fmt.Fprintln(w, line)
		if verbose && d.Cause != nil {
			fmt.Fprintf(w, "  %s\n", strings.ReplaceAll(d.Cause.Error(), "\n", "\n  "))
		}
	}
}
