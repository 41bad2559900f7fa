// SPDX-License-Identifier: MPL-2.0

package serverbase

const (
	// StateCreated means Start has not been called.
	StateCreated State = iota
	// StateStarting means the server is initializing.
	StateStarting
	// StateRunning means the server accepts requests.
	StateRunning
	// StateStopping means shutdown is in progress.
	StateStopping
	// StateStopped is terminal.
	StateStopped
	// StateFailed is terminal; LastError holds the cause.
	StateFailed
)

// State is a server lifecycle state.
type State int32

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether s is Stopped or Failed.
func (s State) IsTerminal() bool {
	return s == StateStopped || s == StateFailed
}
