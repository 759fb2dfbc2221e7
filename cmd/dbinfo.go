// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"athenacli/cli/internal/backend"
	"athenacli/cli/internal/config"
	"athenacli/cli/internal/dsn"
	"athenacli/cli/internal/logging"
)

const secretMask = "****"

// dbinfoCmd shows the effective connection settings with secrets masked.
var dbinfoCmd = &cobra.Command{
	Use:   "dbinfo",
	Short: "Show the effective connection settings",
	Long: `The dbinfo command resolves the connection settings the shell would use, from
the config file, the environment and the OS keychain, and prints them with
passwords and secret keys masked.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		loader, cfg, err := loadConfig(cmd, &opts)
		if err != nil {
			return err
		}
		kind, err := cfg.BackendKind()
		if err != nil {
			return err
		}

		pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint(engineTitle(kind))).
			WithPadding(1).
			Println(describeConnection(kind, cfg))
		pterm.Println()
		pterm.Println("Config file: " + loader.Path())
		pterm.Println("To update this connection, run: athenacli connect")
		pterm.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbinfoCmd)
}

func engineTitle(kind backend.Kind) string {
	if kind == backend.KindAthena {
		return "Amazon Athena"
	}
	return "Amazon Redshift"
}

// describeConnection renders the settings of kind as aligned "key: value"
// lines. Secrets only show whether they are set.
func describeConnection(kind backend.Kind, cfg *config.Config) string {
	var rows [][2]string
	if kind == backend.KindAthena {
		a := cfg.Athena
		rows = [][2]string{
			{"region", a.Region},
			{"aws_profile", a.AWSProfile},
			{"s3_staging_dir", a.S3StagingDir},
			{"work_group", a.WorkGroup},
			{"catalog", a.Catalog},
			{"database", a.Database},
			{"aws_access_key_id", a.AccessKeyID},
			{"aws_secret_access_key", maskSecret(a.SecretAccessKey)},
			{"role_arn", a.RoleARN},
		}
		if a.ResultReuseEnable {
			rows = append(rows, [2]string{"result_reuse_minutes", strconv.Itoa(a.ResultReuseMinutes)})
		}
	} else {
		r := cfg.Redshift
		rows = [][2]string{
			{"dsn", redactDSN(r.DSN)},
			{"host", r.Host},
			{"port", strconv.Itoa(r.Port)},
			{"database", r.Database},
			{"user", r.User},
			{"password", maskSecret(r.Password)},
			{"sslmode", r.SSLMode},
		}
		if (r.Password == "" && r.DSN == "") || strings.HasPrefix(r.User, backend.IAMUserPrefix) {
			rows = append(rows,
				[2]string{"auth", "IAM"},
				[2]string{"aws_profile", r.AWSProfile},
				[2]string{"region", r.Region})
		}
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row[0]))
	}
	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		value := row[1]
		if value == "" {
			value = pterm.Gray("(not set)")
		}
		fmt.Fprintf(&b, "%-*s  %s", width+1, row[0]+":", value)
	}
	return b.String()
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	return secretMask
}

func redactDSN(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	info, err := dsn.Parse(s)
	if err != nil {
		return logging.Mask(s)
	}
	return info.Redacted()
}
