// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Result is one normalized statement outcome. Rows and Headers are either
// both set (tabular) or both nil (DDL, DML, or a meta-command with nothing
// to show). The zero Result is the "nothing to do" sentinel.
type Result struct {
	Title   string   `json:"title,omitempty"`
	Rows    [][]any  `json:"rows,omitempty"`
	Headers []string `json:"headers,omitempty"`
	Status  string   `json:"status,omitempty"`
}

// Tabular reports whether the result carries a table.
func (r Result) Tabular() bool { return r.Headers != nil }

// Empty reports whether r is the sentinel produced for blank input.
func (r Result) Empty() bool {
	return r.Title == "" && r.Rows == nil && r.Headers == nil && r.Status == ""
}

// MarshalJSON renders driver-specific values (UUIDs, byte arrays) as strings.
func (r Result) MarshalJSON() ([]byte, error) {
	type alias Result
	a := alias(r)
	if len(r.Rows) > 0 {
		a.Rows = make([][]any, len(r.Rows))
		for i, row := range r.Rows {
			a.Rows[i] = make([]any, len(row))
			for j, v := range row {
				a.Rows[i][j] = JSONValue(v)
			}
		}
	}
	return json.Marshal(a)
}

// JSONValue converts a driver value into something encoding/json renders
// the way a user expects to read it.
func JSONValue(v any) any {
	switch x := v.(type) {
	case [16]byte:
		return uuid.UUID(x).String()
	case []byte:
		if len(x) == 16 {
			if id, err := uuid.FromBytes(x); err == nil {
				return id.String()
			}
		}
		return fmt.Sprintf("\\x%x", x)
	}
	return v
}
