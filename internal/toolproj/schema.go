// SPDX-License-Identifier: MPL-2.0

package toolproj

import (
	"github.com/taskgrove/grove/internal/registry"
)

const (
	// DiscriminatorField carries the PathKey of the command to run.
	DiscriminatorField = "command_path"
	// ArgsField is the nested argument object.
	ArgsField = "args"
)

type (
	// Schema is the JSON Schema of a tool's input.
	Schema struct {
		Type                 string              `json:"type"`
		Properties           map[string]Property `json:"properties"`
		Required             []string            `json:"required"`
		AdditionalProperties bool                `json:"additionalProperties"`
	}

	// Property is one JSON Schema property.
	Property struct {
		Type                 string              `json:"type"`
		Description          string              `json:"description,omitempty"`
		Enum                 []string            `json:"enum,omitempty"`
		Items                *Property           `json:"items,omitempty"`
		MinItems             int                 `json:"minItems,omitempty"`
		MaxItems             int                 `json:"maxItems,omitempty"`
		Properties           map[string]Property `json:"properties,omitempty"`
		AdditionalProperties *bool               `json:"additionalProperties,omitempty"`
	}
)

// JSONType maps a value type onto its JSON Schema type.
func JSONType(vt registry.ValueType) string {
	switch vt {
	case registry.ValueBool:
		return "boolean"
	case registry.ValueInt:
		return "integer"
	case registry.ValueFloat:
		return "number"
	default:
		return "string"
	}
}

// BuildSchema returns the input schema for the command at path.
func BuildSchema(path registry.PathKey, args []registry.Argument) Schema {
	s := Schema{
		Type: "object",
		Properties: map[string]Property{
			DiscriminatorField: {
				Type:        "string",
				Description: "The command path (" + path.String() + ")",
				Enum:        []string{path.String()},
			},
		},
		Required:             []string{DiscriminatorField},
		AdditionalProperties: false,
	}
	if len(args) == 0 {
		return s
	}

	props := make(map[string]Property, len(args))
	for _, a := range args {
		props[a.Name] = argumentProperty(a)
	}
	closed := false
	s.Properties[ArgsField] = Property{
		Type:                 "object",
		Description:          "Command arguments",
		Properties:           props,
		AdditionalProperties: &closed,
	}
	return s
}

func argumentProperty(a registry.Argument) Property {
	desc := a.Help
	if desc == "" {
		desc = a.Name + " argument"
	}
	p := Property{Type: JSONType(a.ValueType), Description: desc}
	if !a.AllowsMany() {
		return p
	}
	item := Property{Type: p.Type}
	arr := Property{Type: "array", Description: desc, Items: &item}
	if m := a.Multiplicity; m != nil {
		switch {
		case m.Count > 0:
			arr.MinItems, arr.MaxItems = m.Count, m.Count
		default:
			arr.MinItems, arr.MaxItems = m.Min, m.Max
		}
	}
	return arr
}
