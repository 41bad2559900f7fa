// SPDX-License-Identifier: MPL-2.0

package cliproj

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Describe renders the structure of cmds: names, usage lines, flags and
// nesting. Two projections of the same registry describe identically.
func Describe(cmds []*cobra.Command) string {
	var b strings.Builder
	for _, c := range cmds {
		describe(&b, c, 0)
	}
	return b.String()
}

func describe(b *strings.Builder, c *cobra.Command, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(b, "%s%s | %s | runnable=%t\n", indent, c.Use, c.Short, c.Runnable())

	var flags []string
	c.Flags().VisitAll(func(f *pflag.Flag) {
		required := len(f.Annotations[cobra.BashCompOneRequiredFlag]) > 0
		flags = append(flags, fmt.Sprintf("%s  --%s -%s %s default=%q required=%t usage=%q",
			indent, f.Name, f.Shorthand, f.Value.Type(), f.DefValue, required, f.Usage))
	})
	sort.Strings(flags)
	for _, f := range flags {
		b.WriteString(f)
		b.WriteByte('\n')
	}

	subs := append([]*cobra.Command(nil), c.Commands()...)
	sort.Slice(subs, func(i, j int) bool { return subs[i].Name() < subs[j].Name() })
	for _, s := range subs {
		describe(b, s, depth+1)
	}
}
