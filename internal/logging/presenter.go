// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"

	"github.com/pterm/pterm"
)

// PresentError formats an error for user display with masking.
func PresentError(context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Mask(err.Error())
	}
	return fmt.Sprintf("%s: %s", context, Mask(err.Error()))
}

// PrintError writes a masked, red error line to the terminal.
func PrintError(context string, err error) {
	if err == nil {
		return
	}
	pterm.Println(pterm.NewStyle(pterm.FgRed).Sprint(PresentError(context, err)))
}
