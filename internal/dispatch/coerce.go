// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/taskgrove/grove/internal/registry"
)

// Coerce builds the keyword map for args from raw values. Raw values come
// from the CLI as strings, string slices or bools, and from tool calls as
// decoded JSON.
//
// Absent flags become false. Absent optional arguments take their coerced
// default, or are omitted when there is none.
func Coerce(args []registry.Argument, raw map[string]any) (map[string]any, error) {
	kwargs := make(map[string]any, len(args))
	for _, a := range args {
		v, present := raw[a.Name]
		if present && v == nil {
			present = false
		}

		switch {
		case present:
			coerced, err := coerceArgument(a, v)
			if err != nil {
				return nil, err
			}
			kwargs[a.Name] = coerced
		case a.IsFlag:
			kwargs[a.Name] = false
		case a.DefaultValue != "":
			coerced, err := coerceArgument(a, a.DefaultValue)
			if err != nil {
				return nil, err
			}
			kwargs[a.Name] = coerced
		case a.Required:
			return nil, &CoercionError{Argument: a.Name, Expected: a.ValueType, Reason: "required value missing"}
		}
	}
	return kwargs, nil
}

func coerceArgument(a registry.Argument, raw any) (any, error) {
	if a.IsFlag {
		return coerceScalar(a.Name, registry.ValueBool, raw)
	}

	values, isList := asList(raw)
	if !a.AllowsMany() {
		if !isList {
			return coerceScalar(a.Name, a.ValueType, raw)
		}
		if len(values) != 1 {
			return nil, &CoercionError{Argument: a.Name, Expected: a.ValueType, Reason: fmt.Sprintf("expects a single value, got %d", len(values))}
		}
		return coerceScalar(a.Name, a.ValueType, values[0])
	}

	if !isList {
		values = []any{raw}
	}
	if err := checkBounds(a, len(values)); err != nil {
		return nil, err
	}
	out := make([]any, 0, len(values))
	for _, v := range values {
		c, err := coerceScalar(a.Name, a.ValueType, v)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func checkBounds(a registry.Argument, n int) error {
	m := a.Multiplicity
	if m == nil {
		return nil
	}
	switch {
	case m.Count > 0 && n != m.Count:
		return &CoercionError{Argument: a.Name, Expected: a.ValueType, Reason: fmt.Sprintf("expects exactly %d values, got %d", m.Count, n)}
	case m.Min > 0 && n < m.Min:
		return &CoercionError{Argument: a.Name, Expected: a.ValueType, Reason: fmt.Sprintf("expects at least %d values, got %d", m.Min, n)}
	case m.Max > 0 && n > m.Max:
		return &CoercionError{Argument: a.Name, Expected: a.ValueType, Reason: fmt.Sprintf("expects at most %d values, got %d", m.Max, n)}
	default:
		return nil
	}
}

func asList(raw any) ([]any, bool) {
	switch v := raw.(type) {
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

func coerceScalar(name string, vt registry.ValueType, raw any) (any, error) {
	fail := func(reason string) error {
		return &CoercionError{Argument: name, Expected: vt, Value: raw, Reason: reason}
	}

	switch vt {
	case registry.ValueInt:
		switch v := raw.(type) {
		case int:
			return v, nil
		case int64:
			return int(v), nil
		case float64:
			if v != math.Trunc(v) || math.IsInf(v, 0) {
				return nil, fail("not a whole number")
			}
			if v < math.MinInt64 || v >= math.MaxInt64 {
				return nil, fail("out of integer range")
			}
			return int(v), nil
		case json.Number:
			n, err := v.Int64()
			if err != nil {
				return nil, fail("not an integer")
			}
			return int(n), nil
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return nil, fail("not an integer")
			}
			return n, nil
		}
	case registry.ValueFloat:
		switch v := raw.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case json.Number:
			f, err := v.Float64()
			if err != nil {
				return nil, fail("not a number")
			}
			return f, nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, fail("not a number")
			}
			return f, nil
		}
	case registry.ValueBool:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			switch v {
			case "true":
				return true, nil
			case "false":
				return false, nil
			}
			return nil, fail(`expected "true" or "false"`)
		}
	default:
		switch v := raw.(type) {
		case string:
			return v, nil
		case bool, int, int64, float64, json.Number:
			return fmt.Sprint(v), nil
		}
	}
	return nil, fail(fmt.Sprintf("unsupported value of type %T", raw))
}
