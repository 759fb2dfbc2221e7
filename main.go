// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package main is the entry point for the athenacli SQL shell.
package main

import (
	"athenacli/cli/cmd"
)

func main() {
	cmd.Execute()
}
