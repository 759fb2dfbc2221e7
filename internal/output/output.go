// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package output renders statement results in the formats the shell and the
// execute mode offer.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pterm/pterm"
	"gopkg.in/yaml.v3"

	clierrors "athenacli/cli/internal/errors"
	"athenacli/cli/internal/sqlexec"
)

// Format names an output format.
type Format string

const (
	Table    Format = "table"
	Vertical Format = "vertical"
	CSV      Format = "csv"
	TSV      Format = "tsv"
	JSON     Format = "json"
	YAML     Format = "yaml"
)

// Formats lists every supported format.
func Formats() []Format { return []Format{Table, Vertical, CSV, TSV, JSON, YAML} }

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	names := make([]string, 0, len(Formats()))
	for _, known := range Formats() {
		names = append(names, string(known))
	}
	return "", clierrors.New(clierrors.ConfigInvalid,
		fmt.Sprintf("unknown table format %q (expected one of %s)", s, strings.Join(names, ", ")))
}

// Human reports whether f is meant for reading rather than for other tools.
// Titles and status lines are only printed in human formats.
func (f Format) Human() bool { return f == Table || f == Vertical }

// Printer writes results to w. The format may change while the shell runs.
type Printer struct {
	w io.Writer

	mu     sync.RWMutex
	format Format
}

// NewPrinter returns a printer writing f to w.
func NewPrinter(w io.Writer, f Format) *Printer {
	return &Printer{w: w, format: f}
}

// SetFormat switches the format used for subsequent results.
func (p *Printer) SetFormat(f Format) {
	p.mu.Lock()
	p.format = f
	p.mu.Unlock()
}

// Format returns the current format.
func (p *Printer) Format() Format {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.format
}

// Print writes r. Expanded forces the vertical layout for this result only.
func (p *Printer) Print(r sqlexec.Result, expanded bool) error {
	if r.Empty() {
		return nil
	}
	f := p.Format()
	if expanded {
		f = Vertical
	}

	if f == JSON {
		return writeJSON(p.w, r)
	}

	if f.Human() && r.Title != "" {
		fmt.Fprintln(p.w, r.Title)
	}
	if r.Tabular() {
		var err error
		switch f {
		case Table:
			err = writeTable(p.w, r)
		case Vertical:
			err = writeVertical(p.w, r)
		case CSV:
			err = writeDelimited(p.w, r, ',')
		case TSV:
			err = writeDelimited(p.w, r, '\t')
		case YAML:
			err = writeYAML(p.w, r)
		}
		if err != nil {
			return err
		}
	}
	if f.Human() && r.Status != "" {
		fmt.Fprintln(p.w, r.Status)
	}
	return nil
}

func writeTable(w io.Writer, r sqlexec.Result) error {
	data := make(pterm.TableData, 0, len(r.Rows)+1)
	data = append(data, r.Headers)
	for _, row := range r.Rows {
		data = append(data, cells(row, NullText))
	}

	table := pterm.TablePrinter{
		Style:                   pterm.NewStyle(),
		HasHeader:               true,
		HeaderStyle:             pterm.NewStyle(pterm.Bold),
		HeaderRowSeparator:      "-",
		HeaderRowSeparatorStyle: pterm.NewStyle(pterm.FgGray),
		Separator:               " | ",
		SeparatorStyle:          pterm.NewStyle(pterm.FgGray),
		LeftAlignment:           true,
		Data:                    data,
	}
	s, err := table.Srender()
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, s)
	return err
}

func writeVertical(w io.Writer, r sqlexec.Result) error {
	width := 0
	for _, h := range r.Headers {
		width = max(width, len(h))
	}
	stars := strings.Repeat("*", 27)
	for i, row := range r.Rows {
		if _, err := fmt.Fprintf(w, "%s %d. row %s\n", stars, i+1, stars); err != nil {
			return err
		}
		for j, v := range cells(row, NullText) {
			name := ""
			if j < len(r.Headers) {
				name = r.Headers[j]
			}
			if _, err := fmt.Fprintf(w, "%*s: %s\n", width, name, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeDelimited(w io.Writer, r sqlexec.Result, comma rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = comma
	if err := cw.Write(r.Headers); err != nil {
		return err
	}
	for _, row := range r.Rows {
		if err := cw.Write(cells(row, "")); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, r sqlexec.Result) error {
	if r.Rows != nil {
		norm := make([][]any, len(r.Rows))
		for i, row := range r.Rows {
			norm[i] = make([]any, len(row))
			for j, v := range row {
				norm[i][j] = normalize(v)
			}
		}
		r.Rows = norm
	}
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// writeYAML emits one mapping per row with keys in column order.
func writeYAML(w io.Writer, r sqlexec.Result) error {
	doc := &yaml.Node{Kind: yaml.SequenceNode}
	for _, row := range r.Rows {
		m := &yaml.Node{Kind: yaml.MappingNode}
		for j, v := range row {
			name := fmt.Sprintf("column%d", j+1)
			if j < len(r.Headers) {
				name = r.Headers[j]
			}
			var val yaml.Node
			if err := val.Encode(normalize(v)); err != nil {
				return fmt.Errorf("encode %s: %w", name, err)
			}
			m.Content = append(m.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name},
				&val)
		}
		doc.Content = append(doc.Content, m)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}
