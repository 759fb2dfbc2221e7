// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

package output

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"time"

	"athenacli/cli/internal/sqlexec"
)

// NullText is shown for NULL in the human formats.
const NullText = "NULL"

const timeLayout = "2006-01-02 15:04:05.999999999"

// normalize unwraps driver values into plain Go values.
func normalize(v any) any {
	if valuer, ok := v.(driver.Valuer); ok {
		inner, err := valuer.Value()
		if err != nil {
			return fmt.Sprint(v)
		}
		v = inner
	}
	return sqlexec.JSONValue(v)
}

// Cell renders one value as text; null is used for NULL.
func Cell(v any, null string) string {
	switch x := normalize(v).(type) {
	case nil:
		return null
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case time.Time:
		return x.Format(timeLayout)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func cells(row []any, null string) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = Cell(v, null)
	}
	return out
}
