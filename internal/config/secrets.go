// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

package config

import (
	"strings"

	"athenacli/cli/internal/backend"
)

// SecretSource is the keychain view ApplySecrets needs.
type SecretSource interface {
	LoadRedshiftPassword() (string, error)
	LoadRedshiftDSN() (string, error)
	LoadAthenaSecret() (string, error)
}

// ApplySecrets fills credentials that flags, the config file and the
// environment all left empty. Lookup failures are treated as absent values.
// It returns the names of the secrets it used.
func ApplySecrets(c *Config, src SecretSource) []string {
	if src == nil {
		return nil
	}
	var used []string
	r := &c.Redshift

	if r.DSN == "" && r.Host == "" {
		if v, err := src.LoadRedshiftDSN(); err == nil && strings.TrimSpace(v) != "" {
			r.DSN = strings.TrimSpace(v)
			used = append(used, "redshift_dsn")
		}
	}
	if r.Password == "" && !strings.HasPrefix(r.User, backend.IAMUserPrefix) {
		if v, err := src.LoadRedshiftPassword(); err == nil && v != "" {
			r.Password = v
			used = append(used, "redshift_password")
		}
	}
	if c.Athena.AccessKeyID != "" && c.Athena.SecretAccessKey == "" {
		if v, err := src.LoadAthenaSecret(); err == nil && v != "" {
			c.Athena.SecretAccessKey = v
			used = append(used, "athena_secret_access_key")
		}
	}
	return used
}
