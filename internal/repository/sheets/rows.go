package sheets

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// row is one spreadsheet row; every cell travels as a string. Times are
// RFC 3339 UTC and booleans are the sheet-style TRUE/FALSE.
type row map[string]string

// normalizeRows flattens the loosely typed JSON the sheet service returns
// (numeric cells arrive as numbers, checkbox cells as booleans) into string
// cells.
func normalizeRows(raw []map[string]any) []row {
	out := make([]row, 0, len(raw))
	for _, m := range raw {
		r := make(row, len(m))
		for k, v := range m {
			r[k] = cellString(v)
		}
		out = append(out, r)
	}
	return out
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return formatCellBool(t)
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func formatCellTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseCellTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func formatCellBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func parseCellBool(s string) bool {
	switch s {
	case "TRUE", "true", "True", "1":
		return true
	}
	return false
}
