// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

package config

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"athenacli/cli/internal/backend"
	clierrors "athenacli/cli/internal/errors"
)

const testPath = "/home/u/.config/athenacli/config.yaml"

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func newTestLoader(t *testing.T, fs afero.Fs, env map[string]string) *Loader {
	t.Helper()
	l, err := NewLoader(testPath, WithFs(fs), WithEnv(envMap(env)))
	require.NoError(t, err)
	return l
}

func TestLoadWritesDefaultFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	l := newTestLoader(t, fs, nil)

	cfg, err := l.Load()
	require.NoError(t, err)

	exists, err := afero.Exists(fs, testPath)
	require.NoError(t, err)
	assert.True(t, exists)

	assert.Equal(t, "athena", cfg.Backend)
	assert.Equal(t, "info", cfg.Main.LogLevel)
	assert.Equal(t, "table", cfg.Main.TableFormat)
	assert.Equal(t, backend.DefaultAthenaCatalog, cfg.Athena.Catalog)
	assert.Equal(t, 60, cfg.Athena.ResultReuseMinutes)
	assert.Equal(t, 5439, cfg.Redshift.Port)
	assert.Same(t, cfg, l.Current())
}

func TestLoadReadsExistingFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, testPath, []byte(`
backend: redshift
main:
  table_format: csv
  timing: true
redshift:
  host: example.abc.us-east-1.redshift.amazonaws.com
  port: 5440
  user: IAM:analyst
`), 0o600))

	cfg, err := newTestLoader(t, fs, nil).Load()
	require.NoError(t, err)

	assert.Equal(t, "redshift", cfg.Backend)
	assert.Equal(t, "csv", cfg.Main.TableFormat)
	assert.True(t, cfg.Main.Timing)
	assert.Equal(t, "example.abc.us-east-1.redshift.amazonaws.com", cfg.Redshift.Host)
	assert.Equal(t, 5440, cfg.Redshift.Port)
	assert.Equal(t, "IAM:analyst", cfg.Redshift.User)

	kind, err := cfg.BackendKind()
	require.NoError(t, err)
	assert.Equal(t, backend.KindRedshift, kind)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, testPath, []byte("backend: [unterminated"), 0o600))

	_, err := newTestLoader(t, fs, nil).Load()
	require.Error(t, err)
	assert.True(t, clierrors.Is(err, clierrors.ConfigInvalid))
}

func TestEnvironmentFillsUnsetValues(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, testPath, []byte(`
athena:
  region: eu-west-1
redshift:
  user: fromfile
`), 0o600))

	env := map[string]string{
		"AWS_REGION":                "us-west-2",
		"AWS_ATHENA_S3_STAGING_DIR": "s3://bucket/results/",
		"AWS_ATHENA_WORK_GROUP":     "analysts",
		"PGHOST":                    "pg.example.com",
		"REDSHIFT_HOST":             "rs.example.com",
		"PGUSER":                    "fromenv",
		"PGPASSWORD":                "secret",
		"PGPORT":                    "5500",
		"PGSSLMODE":                 "require",
	}
	cfg, err := newTestLoader(t, fs, env).Load()
	require.NoError(t, err)

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"file beats env", cfg.Athena.Region, "eu-west-1"},
		{"staging dir", cfg.Athena.S3StagingDir, "s3://bucket/results/"},
		{"work group", cfg.Athena.WorkGroup, "analysts"},
		{"redshift alias wins over pg", cfg.Redshift.Host, "rs.example.com"},
		{"file user kept", cfg.Redshift.User, "fromfile"},
		{"password", cfg.Redshift.Password, "secret"},
		{"port", cfg.Redshift.Port, 5500},
		{"sslmode", cfg.Redshift.SSLMode, "require"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestFlagBeatsFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, testPath, []byte("main:\n  table_format: csv\n"), 0o600))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("table-format", "", "")
	require.NoError(t, flags.Parse([]string{"--table-format", "json"}))

	l := newTestLoader(t, fs, nil)
	require.NoError(t, l.BindFlag("main.table_format", flags.Lookup("table-format")))
	require.NoError(t, l.BindFlag("main.ignored", nil))

	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Main.TableFormat)
}

func TestSaveRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	l := newTestLoader(t, fs, nil)
	cfg, err := l.Load()
	require.NoError(t, err)

	cfg.Backend = "redshift"
	cfg.Redshift.Host = "cluster.abc.us-east-1.redshift.amazonaws.com"
	cfg.Redshift.User = "analyst"
	cfg.Redshift.Password = "never-written"
	require.NoError(t, l.Save(cfg))

	raw, err := afero.ReadFile(fs, testPath)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "never-written")

	reloaded, err := newTestLoader(t, fs, nil).Load()
	require.NoError(t, err)
	assert.Equal(t, "redshift", reloaded.Backend)
	assert.Equal(t, "cluster.abc.us-east-1.redshift.amazonaws.com", reloaded.Redshift.Host)
	assert.Equal(t, "analyst", reloaded.Redshift.User)
	assert.Empty(t, reloaded.Redshift.Password)
}

func TestBackendOptions(t *testing.T) {
	cfg := &Config{
		Athena: AthenaConfig{
			Region:             "us-east-2",
			S3StagingDir:       "s3://b/",
			Catalog:            "AwsDataCatalog",
			Database:           "sales",
			ResultReuseEnable:  true,
			ResultReuseMinutes: 15,
		},
		Redshift: RedshiftConfig{
			Host:           "h.example.com",
			Port:           5439,
			User:           "u",
			ConnectTimeout: 7,
		},
	}

	opts, err := cfg.BackendOptions()
	require.NoError(t, err)
	assert.Equal(t, "us-east-2", opts.Athena.Region)
	assert.Equal(t, "sales", opts.Athena.Database)
	assert.True(t, opts.Athena.ResultReuseEnable)
	assert.Equal(t, 15, opts.Athena.ResultReuseMinutes)
	assert.Equal(t, "h.example.com", opts.Redshift.Host)
	assert.Equal(t, 7*time.Second, opts.Redshift.ConnectTimeout)
	assert.Equal(t, "sales", cfg.InitialDatabase(backend.KindAthena))
}

func TestBackendOptionsFromDSN(t *testing.T) {
	cfg := &Config{Redshift: RedshiftConfig{
		DSN:     "redshift://admin:p@ss@cluster.example.com:5440/analytics?sslmode=require",
		User:    "ignored",
		SSLMode: "prefer",
	}}

	opts, err := cfg.BackendOptions()
	require.NoError(t, err)
	r := opts.Redshift
	assert.Equal(t, "cluster.example.com", r.Host)
	assert.Equal(t, 5440, r.Port)
	assert.Equal(t, "analytics", r.Database)
	assert.Equal(t, "admin", r.User)
	assert.Equal(t, "p@ss", r.Password)
	assert.Equal(t, "require", r.SSLMode)
}

func TestBackendOptionsInvalidDSN(t *testing.T) {
	cfg := &Config{Redshift: RedshiftConfig{DSN: "mysql://x"}}
	_, err := cfg.BackendOptions()
	require.Error(t, err)
	assert.True(t, clierrors.Is(err, clierrors.ConfigInvalid))
}

func TestLoadDotEnv(t *testing.T) {
	const (
		fromEnv   = "ATHENACLI_TEST_FROM_ENV"
		preset    = "ATHENACLI_TEST_PRESET"
		overriden = "ATHENACLI_TEST_OVERRIDDEN"
	)
	for _, k := range []string{fromEnv, overriden} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	t.Setenv(preset, "kept")

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/.env", []byte(
		fromEnv+"=base\n"+preset+"=replaced\n"+overriden+"=base\n"), 0o600))
	require.NoError(t, afero.WriteFile(fs, "/work/.env.local", []byte(overriden+"=local\n"), 0o600))

	require.NoError(t, LoadDotEnv(fs, "/work"))

	assert.Equal(t, "base", os.Getenv(fromEnv))
	assert.Equal(t, "kept", os.Getenv(preset))
	assert.Equal(t, "local", os.Getenv(overriden))
}

func TestLoadDotEnvMissingFiles(t *testing.T) {
	assert.NoError(t, LoadDotEnv(afero.NewMemMapFs(), "/nowhere"))
}

type fakeSecrets map[string]string

func (f fakeSecrets) get(k string) (string, error) {
	if v, ok := f[k]; ok {
		return v, nil
	}
	return "", errors.New("not found")
}

func (f fakeSecrets) LoadRedshiftPassword() (string, error) { return f.get("redshift_password") }
func (f fakeSecrets) LoadRedshiftDSN() (string, error)      { return f.get("redshift_dsn") }
func (f fakeSecrets) LoadAthenaSecret() (string, error)     { return f.get("athena_secret_access_key") }

func TestApplySecrets(t *testing.T) {
	src := fakeSecrets{
		"redshift_password":        "kc-pass",
		"redshift_dsn":             "redshift://u@h:5439/dev",
		"athena_secret_access_key": "kc-secret",
	}

	t.Run("fills empty values", func(t *testing.T) {
		cfg := &Config{Athena: AthenaConfig{AccessKeyID: "AKIAEXAMPLE"}}
		used := ApplySecrets(cfg, src)
		assert.Equal(t, "redshift://u@h:5439/dev", cfg.Redshift.DSN)
		assert.Equal(t, "kc-pass", cfg.Redshift.Password)
		assert.Equal(t, "kc-secret", cfg.Athena.SecretAccessKey)
		assert.Equal(t, []string{"redshift_dsn", "redshift_password", "athena_secret_access_key"}, used)
	})

	t.Run("keeps configured values", func(t *testing.T) {
		cfg := &Config{
			Athena:   AthenaConfig{AccessKeyID: "AKIAEXAMPLE", SecretAccessKey: "env"},
			Redshift: RedshiftConfig{Host: "h", Password: "flag"},
		}
		assert.Empty(t, ApplySecrets(cfg, src))
		assert.Empty(t, cfg.Redshift.DSN)
		assert.Equal(t, "flag", cfg.Redshift.Password)
		assert.Equal(t, "env", cfg.Athena.SecretAccessKey)
	})

	t.Run("iam user skips password", func(t *testing.T) {
		cfg := &Config{Redshift: RedshiftConfig{Host: "h", User: "IAM:analyst"}}
		ApplySecrets(cfg, src)
		assert.Empty(t, cfg.Redshift.Password)
	})

	t.Run("no athena key id", func(t *testing.T) {
		cfg := &Config{Redshift: RedshiftConfig{Host: "h"}}
		ApplySecrets(cfg, fakeSecrets{})
		assert.Empty(t, cfg.Athena.SecretAccessKey)
		assert.Nil(t, ApplySecrets(cfg, nil))
	})
}
