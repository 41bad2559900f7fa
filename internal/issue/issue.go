// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const (
	TaskDirNotFoundId Id = iota + 1
	TaskfileParseErrorId
	InvalidDeclarationId
	CommandNotFoundId
	InvalidArgumentId
	RuntimeNotAvailableId
	ShellNotFoundId
	ScriptExecutionFailedId
	ConfigLoadFailedId
	ToolServerFailedId
	PermissionDeniedId
)

type (
	Id int

	MarkdownMsg string

	HttpLink string

	// Renderer renders Markdown, e.g. glamour.Render.
	Renderer func(in, stylePath string) (string, error)

	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
		extLinks []HttpLink
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the page with the given glamour style ("dark", "light",
// "notty", or a path to a JSON style).
func (i *Issue) Render(stylePath string) (string, error) {
	return render(i.markdown(), stylePath)
}

func (i *Issue) markdown() string {
	var b strings.Builder
	b.WriteString(string(i.mdMsg))
	links := append(slices.Clone(i.docLinks), i.extLinks...)
	if len(links) > 0 {
		b.WriteString("\n\n## See also\n")
		for _, l := range links {
			b.WriteString("- <" + string(l) + ">\n")
		}
	}
	return b.String()
}

var (
	render Renderer = glamour.Render

	taskDirNotFoundIssue = &Issue{
		id: TaskDirNotFoundId,
		mdMsg: `
# No task directory found!

grove looks for a ` + "`.grove`" + ` directory in the current directory and
each of its parents.

## Things you can try:
- Create one with a task file:
~~~
$ mkdir .grove
$ $EDITOR .grove/tasks.cue
~~~

## Example task file:
~~~cue
groups: docs: about: "Documentation tasks"

tasks: [{
	name:   "build"
	about:  "Build the docs"
	groups: ["docs"]
	arguments: [{name: "clean", long: "clean", is_flag: true}]
	script: "echo building"
}]
~~~`,
	}

	taskfileParseErrorIssue = &Issue{
		id: TaskfileParseErrorId,
		mdMsg: `
# Failed to parse a task file!

A file under ` + "`.grove/`" + ` is not valid CUE or does not match the task
file schema.

## Things you can try:
- Read the error path, e.g. ` + "`tasks[2].script`" + `, to find the field
- Check that every task has a ` + "`name`" + ` and a ` + "`script`" + `
- Names may only contain letters, digits, ` + "`-`" + ` and ` + "`_`" + `
- Validate the file with the CUE tool:
~~~
$ cue vet .grove/tasks.cue
~~~`,
	}

	invalidDeclarationIssue = &Issue{
		id: InvalidDeclarationId,
		mdMsg: `
# Invalid task declaration!

Two tasks resolve to the same command path, or a task declares the same
argument twice. grove refuses to start until this is fixed.

## Things you can try:
- Rename one of the tasks, or move it to a different group
- Remember that ` + "`_`" + ` in task names becomes ` + "`-`" + `
- Run ` + "`grove tree`" + ` after fixing to review the command tree`,
	}

	commandNotFoundIssue = &Issue{
		id: CommandNotFoundId,
		mdMsg: `
# Command not found!

No task is registered under the path you typed.

## Things you can try:
- List the available commands:
~~~
$ grove tree
~~~
- Check the spelling of every group and the command name
- Make sure you are inside the project that defines the task`,
	}

	invalidArgumentIssue = &Issue{
		id: InvalidArgumentId,
		mdMsg: `
# Invalid argument value!

A value could not be converted to the type the task declares.

## Things you can try:
- ` + "`int`" + ` arguments take whole numbers, e.g. ` + "`--port 8080`" + `
- ` + "`bool`" + ` arguments take exactly ` + "`true`" + ` or ` + "`false`" + `
- Run the command with ` + "`--help`" + ` to see each argument's type`,
	}

	runtimeNotAvailableIssue = &Issue{
		id: RuntimeNotAvailableId,
		mdMsg: `
# Runtime not available!

The task asks for a runtime that cannot run on this machine.

## Things you can try:
- Use the embedded interpreter instead:
~~~cue
runtime: "virtual"
~~~
- Set ` + "`default_runtime`" + ` in your grove config`,
	}

	shellNotFoundIssue = &Issue{
		id: ShellNotFoundId,
		mdMsg: `
# Shell not found!

The native runtime could not find a shell to run the script with.

## Things you can try:
- Set the ` + "`SHELL`" + ` environment variable
- Set ` + "`native.shell`" + ` in your grove config
- Switch the task to the virtual runtime`,
	}

	scriptExecutionFailedIssue = &Issue{
		id: ScriptExecutionFailedId,
		mdMsg: `
# Script execution failed!

The task's script exited with a non-zero status.

## Things you can try:
- Re-run with ` + "`-vv`" + ` for debug logs
- Check the script's stderr output above
- Arguments are available to the script as ` + "`$GROVE_ARG_<NAME>`",
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

## Things you can try:
- Show where grove looks for its config file:
~~~
$ grove config path
~~~
- Check the file for CUE syntax errors
- Show the effective configuration:
~~~
$ grove config show
~~~`,
	}

	toolServerFailedIssue = &Issue{
		id: ToolServerFailedId,
		mdMsg: `
# Tool server stopped with an error!

` + "`grove mcp`" + ` speaks the Model Context Protocol over stdin/stdout.

## Things you can try:
- Make sure nothing else writes to stdout in your wrapper script
- Run with ` + "`-vv`" + `; logs go to stderr
- List the tools grove would serve:
~~~
$ grove tools
~~~`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

grove could not read a file or run a script.

## Things you can try:
- Check the permissions of the ` + "`.grove`" + ` directory and its files
- Check the task's ` + "`workdir`" + ``,
	}

	issues = map[Id]*Issue{
		taskDirNotFoundIssue.Id():       taskDirNotFoundIssue,
		taskfileParseErrorIssue.Id():    taskfileParseErrorIssue,
		invalidDeclarationIssue.Id():    invalidDeclarationIssue,
		commandNotFoundIssue.Id():       commandNotFoundIssue,
		invalidArgumentIssue.Id():       invalidArgumentIssue,
		runtimeNotAvailableIssue.Id():   runtimeNotAvailableIssue,
		shellNotFoundIssue.Id():         shellNotFoundIssue,
		scriptExecutionFailedIssue.Id(): scriptExecutionFailedIssue,
		configLoadFailedIssue.Id():      configLoadFailedIssue,
		toolServerFailedIssue.Id():      toolServerFailedIssue,
		permissionDeniedIssue.Id():      permissionDeniedIssue,
	}
)

// Values returns every issue ordered by id.
func Values() []*Issue {
	out := maps.Values(issues)
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
