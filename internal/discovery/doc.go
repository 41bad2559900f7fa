// SPDX-License-Identifier: MPL-2.0

// Package discovery finds a grove project and loads its tasks.
//
// A project is the nearest directory, starting from the working directory
// and walking up, that contains a .grove directory (or the configured
// tasks_dir). Every *.cue file directly inside it is a task file. An
// optional grove.toml manifest names the project and sets environment
// variables; an optional .env file adds more.
//
// File organization:
//   - discovery.go: project lookup and task file collection
//   - manifest.go: grove.toml and .env reading
//   - loader.go: registering parsed tasks into a registry
package discovery
