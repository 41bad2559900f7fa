// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/taskgrove/grove/cmd/grove"

func main() {
	cmd.Execute()
}
