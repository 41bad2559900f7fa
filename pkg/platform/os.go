// SPDX-License-Identifier: MPL-2.0

package platform

import "runtime"

// OS names as reported by runtime.GOOS.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

// IsWindows reports whether grove runs on Windows.
func IsWindows() bool {
	return runtime.GOOS == Windows
}
