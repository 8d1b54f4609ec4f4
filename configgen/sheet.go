package configgen

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrMissingSheet  = errors.New("missing sheet")
	ErrMissingColumn = errors.New("missing column")
)

// table is one sheet: the first row as header, the rest as typed cells.
// A cell is nil, int64, float64, bool or string.
type table struct {
	name   string
	header []string
	rows   [][]any
}

func readTable(f *excelize.File, sheet string) (*table, error) {
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to look up sheet %s: %w", sheet, err)
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingSheet, sheet)
	}

	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}

	t := &table{name: sheet}
	if len(raw) == 0 {
		return t, nil
	}

	t.header = make([]string, len(raw[0]))
	for i, name := range raw[0] {
		t.header[i] = strings.TrimSpace(name)
	}

	for r := 1; r < len(raw); r++ {
		row := make([]any, len(t.header))
		empty := true
		for c := 0; c < len(t.header) && c < len(raw[r]); c++ {
			v, err := typedCell(f, sheet, c, r, raw[r][c])
			if err != nil {
				return nil, err
			}
			row[c] = v
			if v != nil {
				empty = false
			}
		}
		if !empty {
			t.rows = append(t.rows, row)
		}
	}
	return t, nil
}

func typedCell(f *excelize.File, sheet string, col, row int, raw string) (any, error) {
	if raw == "" {
		return nil, nil
	}

	cell, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return nil, err
	}
	typ, err := f.GetCellType(sheet, cell)
	if err != nil {
		return nil, fmt.Errorf("failed to read type of %s!%s: %w", sheet, cell, err)
	}

	switch typ {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true"), nil
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString:
		return raw, nil
	default:
		if n, ok := parseNumber(raw); ok {
			return n, nil
		}
		return raw, nil
	}
}

// parseNumber returns int64 for integral values and float64 otherwise.
func parseNumber(s string) (any, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, false
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f), true
	}
	return f, true
}

func (t *table) column(name string) (int, error) {
	for i, h := range t.header {
		if h == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s in sheet %s", ErrMissingColumn, name, t.name)
}

// records turns each row into an Object keyed by the header, in column order.
func (t *table) records() []*Object {
	out := make([]*Object, 0, len(t.rows))
	for _, row := range t.rows {
		obj := NewObject()
		for i, h := range t.header {
			if h == "" {
				continue
			}
			obj.Set(h, row[i])
		}
		out = append(out, obj)
	}
	return out
}

func toInt(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case float64:
		return int64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid integer %q: %w", x, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("invalid integer: empty cell")
	}
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(x)
	}
}

// toBool follows Python truthiness on the raw cell: an empty cell and any
// non-empty text are true, numbers are true when non-zero.
func toBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x != ""
	default:
		return true
	}
}
