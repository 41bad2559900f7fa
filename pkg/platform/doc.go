// SPDX-License-Identifier: MPL-2.0

// Package platform holds GOOS names shared by the config and runtime layers.
package platform
