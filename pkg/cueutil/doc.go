// SPDX-License-Identifier: MPL-2.0

// Package cueutil decodes CUE documents against an embedded schema.
//
// Task files and the user configuration both go through the same steps:
// compile the schema, compile the document and unify it with a schema
// definition, then validate and decode into a Go struct.
//
//	//go:embed taskfile_schema.cue
//	var schema []byte
//
//	res, err := cueutil.ParseAndDecode[Taskfile](schema, data, "#Taskfile",
//	    cueutil.WithFilename("docs.cue"))
package cueutil
