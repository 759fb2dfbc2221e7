// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/ergochat/readline"
	"github.com/mitchellh/go-homedir"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"athenacli/cli/internal/config"
	"athenacli/cli/internal/logging"
	"athenacli/cli/internal/output"
	"athenacli/cli/internal/special"
	"athenacli/cli/internal/sqlexec"
	"athenacli/cli/internal/terminal"
	"athenacli/cli/internal/xdg"
)

const continuationPrompt = "    -> "

// interruptContext returns a context cancelled by Ctrl-C.
func interruptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt)
}

// runShell runs the interactive read-eval-print loop until exit or Ctrl-D.
func (s *session) runShell(ctx context.Context) error {
	historyFile, err := s.historyFile()
	if err != nil {
		return err
	}

	rl, err := readline.NewFromConfig(&readline.Config{
		Prompt:            s.prompt(),
		HistoryFile:       historyFile,
		AutoComplete:      s.completer,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("start line editor: %w", err)
	}
	defer rl.Close()

	// Ctrl-C between statements must not kill the shell.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer func() {
		signal.Stop(sigs)
		close(sigs)
	}()
	go func() {
		for range sigs {
		}
	}()

	s.loader.Watch(s.applyLiveSettings)
	s.refresh()

	pterm.Println(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprintf("athenacli %s", Version) +
		pterm.NewStyle(pterm.FgGray).Sprintf(" (%s)", s.engineName()))
	pterm.Println(pterm.NewStyle(pterm.FgGray).Sprint(`Type help or \? for the list of commands. Ctrl-D exits.`))

	var buf strings.Builder
	for {
		if buf.Len() == 0 {
			rl.SetPrompt(s.prompt())
		} else {
			rl.SetPrompt(continuationPrompt)
		}

		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			buf.Reset()
			continue
		case errors.Is(err, io.EOF):
			fmt.Println("Goodbye!")
			return nil
		case err != nil:
			return err
		}

		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(line)
		text := buf.String()
		if !s.statementComplete(text) {
			continue
		}
		buf.Reset()

		err = s.runText(ctx, text)
		if errors.Is(err, special.ErrExit) {
			fmt.Println("Goodbye!")
			return nil
		}
		if err != nil {
			s.logger.Debug("statement error", zap.Error(err))
			logging.PrintError("", err)
		}
	}
}

// statementComplete reports whether text should run now. Outside multi-line
// mode every line runs; in it, text runs once it ends with ; or \G, is blank,
// or is a meta-command.
func (s *session) statementComplete(text string) bool {
	if !s.loader.Current().Main.MultiLine {
		return true
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || strings.HasSuffix(trimmed, ";") || strings.HasSuffix(trimmed, sqlexec.ExpandedMarker) {
		return true
	}
	_, _, found := s.registry.Lookup(trimmed)
	return found
}

func (s *session) prompt() string {
	db := s.db.Database()
	if db == "" {
		db = "(none)"
	}
	return pterm.NewStyle(pterm.FgLightCyan).Sprint(db) + "> "
}

func (s *session) historyFile() (string, error) {
	if p := strings.TrimSpace(s.cfg.Main.HistoryFile); p != "" {
		return homedir.Expand(p)
	}
	return xdg.HistoryFile()
}

// applyLiveSettings is called when the config file changes on disk.
func (s *session) applyLiveSettings(m config.MainConfig) {
	if f, err := output.ParseFormat(m.TableFormat); err == nil {
		s.printer.SetFormat(f)
	} else {
		s.logger.Warn("ignoring table_format from config", zap.Error(err))
	}
	s.registry.SetTiming(m.Timing)
}

// runBatch runs text non-interactively and stops at the first error.
func (s *session) runBatch(ctx context.Context, text string) error {
	err := s.runText(ctx, text)
	if errors.Is(err, special.ErrExit) {
		return nil
	}
	return err
}

// executeInput resolves --execute, or piped stdin when no terminal is
// attached. ok is false when the interactive shell should start.
func executeInput(cmd *cobra.Command, o *rootOptions) (string, bool, error) {
	in := cmd.InOrStdin()
	switch {
	case o.execute == "-":
		return readAll(in)
	case o.execute != "":
		if st, err := os.Stat(o.execute); err == nil && st.Mode().IsRegular() {
			b, err := os.ReadFile(o.execute)
			if err != nil {
				return "", false, err
			}
			return string(b), true, nil
		}
		return o.execute, true, nil
	}
	if f, ok := in.(*os.File); ok && !terminal.IsInteractive(f) {
		return readAll(f)
	}
	return "", false, nil
}

func readAll(r io.Reader) (string, bool, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", false, fmt.Errorf("read statements: %w", err)
	}
	return string(b), true, nil
}
