// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package config loads and stores athenacli settings from the YAML config file
// in the XDG config dir, the process environment and optional .env files.
// Secrets normally live in the OS keychain; the file only holds them when the
// user put them there by hand.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"athenacli/cli/internal/backend"
	"athenacli/cli/internal/dsn"
	clierrors "athenacli/cli/internal/errors"
	"athenacli/cli/internal/xdg"
)

// FileName is the config file created inside the XDG config dir.
const FileName = "config.yaml"

// Config holds every setting athenacli reads.
type Config struct {
	Backend  string         `mapstructure:"backend"`
	Main     MainConfig     `mapstructure:"main"`
	Athena   AthenaConfig   `mapstructure:"athena"`
	Redshift RedshiftConfig `mapstructure:"redshift"`
}

// MainConfig holds shell and logging settings.
type MainConfig struct {
	LogFile     string `mapstructure:"log_file"`
	LogLevel    string `mapstructure:"log_level"`
	TableFormat string `mapstructure:"table_format"`
	MultiLine   bool   `mapstructure:"multi_line"`
	Timing      bool   `mapstructure:"timing"`
	HistoryFile string `mapstructure:"history_file"`
}

// AthenaConfig holds Athena connection settings.
type AthenaConfig struct {
	AWSProfile         string `mapstructure:"aws_profile"`
	Region             string `mapstructure:"region"`
	AccessKeyID        string `mapstructure:"aws_access_key_id"`
	SecretAccessKey    string `mapstructure:"aws_secret_access_key"`
	S3StagingDir       string `mapstructure:"s3_staging_dir"`
	WorkGroup          string `mapstructure:"work_group"`
	RoleARN            string `mapstructure:"role_arn"`
	Catalog            string `mapstructure:"catalog"`
	Database           string `mapstructure:"database"`
	ResultReuseEnable  bool   `mapstructure:"result_reuse_enable"`
	ResultReuseMinutes int    `mapstructure:"result_reuse_minutes"`
}

// RedshiftConfig holds Redshift connection settings. ConnectTimeout is in seconds.
type RedshiftConfig struct {
	DSN            string `mapstructure:"dsn"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"sslmode"`
	ConnectTimeout int    `mapstructure:"connect_timeout"`
	AWSProfile     string `mapstructure:"aws_profile"`
	Region         string `mapstructure:"region"`
}

// DefaultPath returns the config file path inside the XDG config dir.
func DefaultPath() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Loader reads the config file through viper. Flags bound with BindFlag take
// precedence over the file, which takes precedence over the environment.
type Loader struct {
	fs        afero.Fs
	v         *viper.Viper
	path      string
	lookupEnv func(string) (string, bool)
	logger    *zap.Logger

	mu  sync.Mutex
	cfg *Config
}

// Option customises a Loader.
type Option func(*Loader)

// WithFs replaces the filesystem used to read and write the config file.
func WithFs(fs afero.Fs) Option { return func(l *Loader) { l.fs = fs } }

// WithEnv replaces the environment lookup.
func WithEnv(lookup func(string) (string, bool)) Option {
	return func(l *Loader) { l.lookupEnv = lookup }
}

// WithLogger sets the logger used for reload diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader prepares a loader for path. An empty path selects DefaultPath;
// a leading ~ is expanded.
func NewLoader(path string, opts ...Option) (*Loader, error) {
	if strings.TrimSpace(path) == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expand config path: %w", err)
	}

	l := &Loader{
		fs:        afero.NewOsFs(),
		v:         viper.New(),
		path:      expanded,
		lookupEnv: os.LookupEnv,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}

	l.v.SetFs(l.fs)
	l.v.SetConfigFile(l.path)
	l.v.SetConfigType("yaml")
	setDefaults(l.v)
	return l, nil
}

// SetLogger replaces the logger once the real one has been built from the
// loaded settings.
func (l *Loader) SetLogger(logger *zap.Logger) {
	if logger != nil {
		l.logger = logger
	}
}

// Path returns the config file in use.
func (l *Loader) Path() string { return l.path }

// BindFlag makes a command-line flag override key when the flag is set.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return nil
	}
	return l.v.BindPFlag(key, flag)
}

// Load reads the config file, writing the default file first when it does not
// exist, and fills unset values from the environment.
func (l *Loader) Load() (*Config, error) {
	if err := l.ensureFile(); err != nil {
		return nil, err
	}
	if err := l.v.ReadInConfig(); err != nil {
		return nil, clierrors.Wrap(clierrors.ConfigInvalid, "read config "+l.path, err)
	}
	cfg, err := l.decode()
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cfg = cfg
	l.mu.Unlock()
	return cfg, nil
}

func (l *Loader) ensureFile() error {
	exists, err := afero.Exists(l.fs, l.path)
	if err != nil {
		return fmt.Errorf("stat config: %w", err)
	}
	if exists {
		return nil
	}
	if err := l.fs.MkdirAll(filepath.Dir(l.path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := afero.WriteFile(l.fs, l.path, []byte(defaultFile), 0o600); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	l.logger.Info("wrote default config", zap.String("path", l.path))
	return nil
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, clierrors.Wrap(clierrors.ConfigInvalid, "decode config "+l.path, err)
	}
	applyEnv(&cfg, l.lookupEnv)
	return &cfg, nil
}

// Save persists the backend choice and the non-secret connection settings.
func (l *Loader) Save(cfg *Config) error {
	l.v.Set("backend", cfg.Backend)

	l.v.Set("athena.aws_profile", cfg.Athena.AWSProfile)
	l.v.Set("athena.region", cfg.Athena.Region)
	l.v.Set("athena.aws_access_key_id", cfg.Athena.AccessKeyID)
	l.v.Set("athena.s3_staging_dir", cfg.Athena.S3StagingDir)
	l.v.Set("athena.work_group", cfg.Athena.WorkGroup)
	l.v.Set("athena.role_arn", cfg.Athena.RoleARN)
	l.v.Set("athena.catalog", cfg.Athena.Catalog)
	l.v.Set("athena.database", cfg.Athena.Database)

	l.v.Set("redshift.host", cfg.Redshift.Host)
	l.v.Set("redshift.port", cfg.Redshift.Port)
	l.v.Set("redshift.database", cfg.Redshift.Database)
	l.v.Set("redshift.user", cfg.Redshift.User)
	l.v.Set("redshift.sslmode", cfg.Redshift.SSLMode)
	l.v.Set("redshift.aws_profile", cfg.Redshift.AWSProfile)
	l.v.Set("redshift.region", cfg.Redshift.Region)

	if err := l.fs.MkdirAll(filepath.Dir(l.path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := l.v.WriteConfigAs(l.path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Watch re-reads the file whenever it changes and hands the new main section
// to onChange. Only the shell settings are meant to apply live.
func (l *Loader) Watch(onChange func(MainConfig)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := l.decode()
		if err != nil {
			l.logger.Warn("config reload failed", zap.String("file", e.Name), zap.Error(err))
			return
		}
		l.mu.Lock()
		l.cfg = cfg
		l.mu.Unlock()
		l.logger.Debug("config reloaded", zap.String("file", e.Name), zap.String("op", e.Op.String()))
		onChange(cfg.Main)
	})
	l.v.WatchConfig()
}

// Current returns the most recently loaded config, or nil before Load.
func (l *Loader) Current() *Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg
}

// BackendKind validates the configured backend name.
func (c *Config) BackendKind() (backend.Kind, error) {
	return backend.ParseKind(c.Backend)
}

// BackendOptions converts the settings into backend options. A Redshift DSN
// supplies every component it carries, overriding the discrete fields.
func (c *Config) BackendOptions() (backend.Options, error) {
	a := c.Athena
	r := c.Redshift

	opts := backend.Options{
		Athena: backend.AthenaOptions{
			Profile:            a.AWSProfile,
			Region:             a.Region,
			AccessKeyID:        a.AccessKeyID,
			SecretAccessKey:    a.SecretAccessKey,
			RoleARN:            a.RoleARN,
			S3StagingDir:       a.S3StagingDir,
			WorkGroup:          a.WorkGroup,
			Catalog:            a.Catalog,
			Database:           a.Database,
			ResultReuseEnable:  a.ResultReuseEnable,
			ResultReuseMinutes: a.ResultReuseMinutes,
		},
		Redshift: backend.RedshiftOptions{
			Host:           r.Host,
			Port:           r.Port,
			Database:       r.Database,
			User:           r.User,
			Password:       r.Password,
			SSLMode:        r.SSLMode,
			ConnectTimeout: time.Duration(r.ConnectTimeout) * time.Second,
			Profile:        r.AWSProfile,
			Region:         r.Region,
		},
	}

	if strings.TrimSpace(r.DSN) == "" {
		return opts, nil
	}
	info, err := dsn.Parse(r.DSN)
	if err != nil {
		return opts, clierrors.Wrap(clierrors.ConfigInvalid, "invalid redshift dsn", err)
	}
	ro := &opts.Redshift
	ro.Host = info.Host
	ro.Port = info.Port
	ro.Database = info.Database
	if info.User != "" {
		ro.User = info.User
	}
	if info.Password != "" {
		ro.Password = info.Password
	}
	if mode := info.SSLMode(); mode != "" {
		ro.SSLMode = mode
	}
	return opts, nil
}

// InitialDatabase returns the database the selected backend starts in.
func (c *Config) InitialDatabase(kind backend.Kind) string {
	if kind == backend.KindAthena {
		return c.Athena.Database
	}
	return c.Redshift.Database
}
