// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/invowk/nakoload/cmd/nakoload"

func main() {
	cmd.Execute()
}
