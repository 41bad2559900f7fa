// SPDX-License-Identifier: MPL-2.0

package taskfile

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/taskgrove/grove/pkg/cueutil"
)

//go:embed taskfile_schema.cue
var taskfileSchema []byte

// Parse reads and parses the task file at path.
func Parse(path string) (*Taskfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read task file at %s: %w", path, err)
	}
	return ParseBytes(data, path)
}

// ParseBytes parses task file content. path is used in error messages.
func ParseBytes(data []byte, path string) (*Taskfile, error) {
	res, err := cueutil.ParseAndDecode[Taskfile](taskfileSchema, data, "#Taskfile", cueutil.WithFilename(path))
	if err != nil {
		return nil, err
	}
	tf := res.Value
	tf.FilePath = path
	if err := tf.Validate(); err != nil {
		return nil, err
	}
	return tf, nil
}
