// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package special implements the meta-commands the shell recognises before
// falling back to SQL (help, use, \dt, \x and friends), together with the
// display state they share with the executor and the output layer.
package special

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"athenacli/cli/internal/backend"
	"athenacli/cli/internal/sqlexec"
)

// ErrExit is returned by the quit commands.
var ErrExit = errors.New("exit requested")

// Handler runs a command. arg is the text after the command name, trimmed.
type Handler func(ctx context.Context, cur backend.Cursor, arg string) ([]sqlexec.Result, error)

// Command describes one meta-command.
type Command struct {
	Name        string
	Aliases     []string
	Syntax      string
	Description string
	Handler     Handler
	// Hidden commands are dispatched but left out of help.
	Hidden bool
}

// Registry maps command names to handlers. Lookup is case-insensitive on the
// first word of the input.
type Registry struct {
	Display

	mu       sync.RWMutex
	commands map[string]*Command
	ordered  []*Command
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: map[string]*Command{}}
}

// Register adds cmd under its name and aliases. Later registrations win.
func (r *Registry) Register(cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := &cmd
	r.ordered = append(r.ordered, c)
	r.commands[strings.ToLower(c.Name)] = c
	for _, a := range c.Aliases {
		r.commands[strings.ToLower(a)] = c
	}
}

// Lookup returns the command registered for the first word of text.
func (r *Registry) Lookup(text string) (*Command, string, bool) {
	name, arg := parseCommand(text)
	if name == "" {
		return nil, "", false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.commands[strings.ToLower(name)]
	return c, arg, ok
}

// Execute runs text as a meta-command. found is false when the first word is
// not a registered command.
func (r *Registry) Execute(ctx context.Context, cur backend.Cursor, text string) ([]sqlexec.Result, bool, error) {
	c, arg, ok := r.Lookup(text)
	if !ok {
		return nil, false, nil
	}
	res, err := c.Handler(ctx, cur, arg)
	return res, true, err
}

// Names returns every command name and alias, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.commands))
	for name := range r.commands {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Commands returns the registered commands in registration order.
func (r *Registry) Commands() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Command, len(r.ordered))
	copy(out, r.ordered)
	return out
}

func parseCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ""
	}
	i := strings.IndexAny(text, " \t\n")
	if i < 0 {
		return text, ""
	}
	return text[:i], strings.TrimSpace(text[i+1:])
}

var _ sqlexec.Commands = (*Registry)(nil)
