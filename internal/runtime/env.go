// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"fmt"
	"maps"
	"os"
	"strings"
)

// ArgEnvPrefix prefixes the variables that carry task arguments.
const ArgEnvPrefix = "GROVE_ARG_"

// ArgEnvName returns the variable name for an argument, e.g. "dry-run"
// becomes GROVE_ARG_DRY_RUN.
func ArgEnvName(name string) string {
	return ArgEnvPrefix + strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(name))
}

// ArgEnvValue renders a coerced argument value. Lists are space-joined.
func ArgEnvValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = ArgEnvValue(item)
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprint(val)
	}
}

// mergedEnviron returns the host environment overlaid with extra. Argument
// variables inherited from a parent grove process are dropped.
func mergedEnviron(extra map[string]string) []string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.HasPrefix(k, ArgEnvPrefix) {
			continue
		}
		env[k] = v
	}
	maps.Copy(env, extra)
	return EnvToSlice(env)
}
