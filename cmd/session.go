// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"athenacli/cli/internal/backend"
	"athenacli/cli/internal/completion"
	"athenacli/cli/internal/config"
	"athenacli/cli/internal/keychain"
	"athenacli/cli/internal/logging"
	"athenacli/cli/internal/neterrors"
	"athenacli/cli/internal/output"
	"athenacli/cli/internal/special"
	"athenacli/cli/internal/sqlexec"
	"athenacli/cli/internal/terminal"
	"athenacli/cli/internal/xdg"
)

// session wires one connected backend to the executor, the meta-commands,
// the output printer and the completion refresher.
type session struct {
	ctx    context.Context
	cancel context.CancelFunc

	loader *config.Loader
	cfg    *config.Config
	logger *zap.Logger

	kind      backend.Kind
	db        backend.Backend
	registry  *special.Registry
	executor  *sqlexec.Executor
	printer   *output.Printer
	refresher *completion.Refresher
	completer *completion.Completer
}

// loadConfig reads .env files and the config file, applies the flags and
// fills the remaining secrets from the keychain.
func loadConfig(cmd *cobra.Command, o *rootOptions) (*config.Loader, *config.Config, error) {
	if err := config.LoadDotEnv(afero.NewOsFs(), "."); err != nil {
		pterm.Warning.Println(logging.PresentError("ignoring .env file", err))
	}

	loader, err := config.NewLoader(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	for name, keys := range flagKeys {
		for _, key := range keys {
			if err := loader.BindFlag(key, cmd.Flags().Lookup(name)); err != nil {
				return nil, nil, err
			}
		}
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, err
	}

	if km, err := keychain.GetManager(); err == nil {
		config.ApplySecrets(cfg, km)
	}
	return loader, cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	path := cfg.Main.LogFile
	if strings.TrimSpace(path) == "" {
		p, err := xdg.LogFile()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return logging.NewLogger(path, cfg.Main.LogLevel)
}

// openSession loads the configuration and connects to the selected backend.
// Batch sessions default to CSV output unless --table-format is given.
func openSession(ctx context.Context, cmd *cobra.Command, o *rootOptions, batch bool) (*session, error) {
	loader, cfg, err := loadConfig(cmd, o)
	if err != nil {
		return nil, err
	}

	kind, err := cfg.BackendKind()
	if err != nil {
		return nil, err
	}
	if o.database != "" {
		if kind == backend.KindAthena {
			cfg.Athena.Database = o.database
		} else {
			cfg.Redshift.Database = o.database
		}
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	loader.SetLogger(logger)

	bopts, err := cfg.BackendOptions()
	if err != nil {
		return nil, err
	}
	db, err := backend.New(kind, bopts, logger)
	if err != nil {
		return nil, err
	}

	format := cfg.Main.TableFormat
	if batch && !cmd.Flags().Changed("table-format") {
		format = string(output.CSV)
	}
	f, err := output.ParseFormat(format)
	if err != nil {
		return nil, err
	}

	sctx, cancel := context.WithCancel(ctx)
	s := &session{
		ctx:       sctx,
		cancel:    cancel,
		loader:    loader,
		cfg:       cfg,
		logger:    logger,
		kind:      kind,
		db:        db,
		registry:  special.NewRegistry(),
		printer:   output.NewPrinter(os.Stdout, f),
		completer: completion.NewCompleter(),
	}
	s.refresher = completion.NewRefresher(logger, completion.DefaultTasks(s.registry.Names)...)
	s.registry.SetTiming(cfg.Main.Timing)
	special.RegisterBuiltins(s.registry, special.Hooks{
		Backend: db,
		DatabaseChanged: func(context.Context, string) {
			s.refresh()
		},
		Refresh: s.refresh,
	})
	s.executor = sqlexec.New(db, s.registry, logger)

	if err := s.connect(ctx, cfg.InitialDatabase(kind)); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *session) connect(ctx context.Context, database string) error {
	s.logger.Debug("connecting",
		zap.String("backend", string(s.kind)),
		zap.String("database", database))

	var stop func()
	if terminal.IsInteractive(os.Stdout) {
		stop = terminal.StartActivity("Connecting to "+s.engineName(), 300*time.Millisecond)
	}
	err := s.db.Connect(ctx, database)
	if stop != nil {
		stop()
	}
	if err != nil {
		return neterrors.Format(os.Stderr, err, "connecting to "+s.engineName())
	}
	return nil
}

func (s *session) engineName() string {
	if s.kind == backend.KindAthena {
		return "Athena"
	}
	return "Redshift"
}

// refresh starts a completion refresh that publishes to the completer.
func (s *session) refresh() string {
	return s.refresher.Refresh(s.ctx, s.db, s.completer.Publish)
}

// Close stops background work and releases the connection.
func (s *session) Close() {
	s.cancel()
	if s.refresher != nil {
		s.refresher.Wait()
	}
	if err := s.db.Close(); err != nil {
		s.logger.Warn("close backend", zap.Error(err))
	}
	_ = s.logger.Sync()
}

// runText executes text and prints every result. Interrupting the process
// cancels the running statement.
func (s *session) runText(ctx context.Context, text string) error {
	ctx, stop := interruptContext(ctx)
	defer stop()

	start := time.Now()
	var stopActivity func()
	if terminal.IsInteractive(os.Stdout) {
		stopActivity = terminal.StartActivity("Executing", time.Second)
	}
	defer func() {
		if stopActivity != nil {
			stopActivity()
		}
	}()

	for r, err := range s.executor.Run(ctx, text) {
		if stopActivity != nil {
			stopActivity()
			stopActivity = nil
		}
		if err != nil {
			return err
		}
		if err := s.printer.Print(r, s.registry.ConsumeExpanded()); err != nil {
			return err
		}
	}

	if s.registry.Timing() && s.printer.Format().Human() {
		fmt.Printf("Time: %.3fs\n", time.Since(start).Seconds())
	}
	return nil
}
