// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"

	"athenacli/cli/internal/backend"
)

// Dotenv files read from the working directory; the later one wins.
const (
	DotEnvFile      = ".env"
	DotEnvLocalFile = ".env.local"
)

// LoadDotEnv exports the variables of .env and .env.local in dir. Variables
// from .env never replace ones already set; .env.local replaces anything.
// Missing files are skipped.
func LoadDotEnv(fs afero.Fs, dir string) error {
	if err := loadEnvFile(fs, filepath.Join(dir, DotEnvFile), false); err != nil {
		return err
	}
	return loadEnvFile(fs, filepath.Join(dir, DotEnvLocalFile), true)
}

func loadEnvFile(fs afero.Fs, path string, override bool) error {
	f, err := fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	vars, err := godotenv.Parse(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	for k, v := range vars {
		if _, set := os.LookupEnv(k); set && !override {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return err
		}
	}
	return nil
}

// envSources maps each string setting to the variables consulted, in order,
// when the config file and the flags leave it empty.
func envSources(c *Config) []struct {
	dst  *string
	vars []string
} {
	return []struct {
		dst  *string
		vars []string
	}{
		{&c.Athena.AWSProfile, []string{"AWS_PROFILE"}},
		{&c.Athena.Region, []string{"AWS_REGION", "AWS_DEFAULT_REGION"}},
		{&c.Athena.AccessKeyID, []string{"AWS_ACCESS_KEY_ID"}},
		{&c.Athena.SecretAccessKey, []string{"AWS_SECRET_ACCESS_KEY"}},
		{&c.Athena.S3StagingDir, []string{"AWS_ATHENA_S3_STAGING_DIR"}},
		{&c.Athena.WorkGroup, []string{"AWS_ATHENA_WORK_GROUP"}},

		{&c.Redshift.Host, []string{"REDSHIFT_HOST", "PGHOST"}},
		{&c.Redshift.Database, []string{"REDSHIFT_DATABASE", "PGDATABASE"}},
		{&c.Redshift.User, []string{"REDSHIFT_USER", "PGUSER"}},
		{&c.Redshift.Password, []string{"REDSHIFT_PASSWORD", "PGPASSWORD"}},
		{&c.Redshift.SSLMode, []string{"PGSSLMODE"}},
		{&c.Redshift.AWSProfile, []string{"AWS_PROFILE"}},
		{&c.Redshift.Region, []string{"AWS_DEFAULT_REGION", "AWS_REGION"}},
	}
}

// applyEnv fills settings left empty by the file and the flags.
func applyEnv(c *Config, lookup func(string) (string, bool)) {
	for _, src := range envSources(c) {
		if *src.dst != "" {
			continue
		}
		if v, ok := firstEnv(lookup, src.vars...); ok {
			*src.dst = v
		}
	}

	// The port always has a default, so the environment only replaces it
	// when the default is still in place.
	if c.Redshift.Port == 0 || c.Redshift.Port == backend.DefaultRedshiftPort {
		if v, ok := firstEnv(lookup, "REDSHIFT_PORT", "PGPORT"); ok {
			if p, err := strconv.Atoi(v); err == nil && p > 0 {
				c.Redshift.Port = p
			}
		}
	}
}

func firstEnv(lookup func(string) (string, bool), names ...string) (string, bool) {
	for _, name := range names {
		if v, ok := lookup(name); ok && v != "" {
			return v, true
		}
	}
	return "", false
}
