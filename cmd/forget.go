// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"athenacli/cli/internal/keychain"
)

// forgetCmd removes every secret athenacli stored in the OS keychain.
var forgetCmd = &cobra.Command{
	Use:   "forget",
	Short: "Remove all secrets stored in the OS keychain",
	Long: `The forget command deletes the Redshift password, the Redshift DSN and the
Athena secret access key from the OS keychain. The config file is left as is;
edit it or run 'athenacli connect' again to change the remaining settings.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		km, err := keychain.GetManager()
		if err != nil {
			fmt.Println("❌ Secure storage is not available on this system.")
			return err
		}
		if err := km.ClearAll(); err != nil {
			fmt.Println("❌ Some secrets could not be removed.")
			return err
		}
		fmt.Println("✅ All stored secrets have been removed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(forgetCmd)
}
