package postgres

import (
	"database/sql/driver"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dbquery-io/dbquery-engine/pkg/models"
)

// toCell converts a value produced by pgx rows.Values() into the closed
// cell representation. Every driver type lands in exactly one of the
// five cell kinds; nothing passes through as a raw any.
func toCell(v any) models.CellValue {
	switch t := v.(type) {
	case nil:
		return models.NullCell()
	case bool:
		return models.BoolCell(t)
	case int:
		return models.IntCell(int64(t))
	case int8:
		return models.IntCell(int64(t))
	case int16:
		return models.IntCell(int64(t))
	case int32:
		return models.IntCell(int64(t))
	case int64:
		return models.IntCell(t)
	case uint8:
		return models.IntCell(int64(t))
	case uint16:
		return models.IntCell(int64(t))
	case uint32:
		return models.IntCell(int64(t))
	case uint64:
		if t > math.MaxInt64 {
			return models.StringCell(strconv.FormatUint(t, 10))
		}
		return models.IntCell(int64(t))
	case float32:
		return models.FloatCell(float64(t))
	case float64:
		return models.FloatCell(t)
	case string:
		return models.StringCell(t)
	case []byte:
		// bytea, rendered the way psql prints it.
		return models.StringCell(fmt.Sprintf("\\x%x", t))
	case time.Time:
		return models.StringCell(t.Format(time.RFC3339Nano))
	case [16]byte:
		return models.StringCell(uuid.UUID(t).String())
	case pgtype.Numeric:
		return numericCell(t)
	case map[string]any:
		// json / jsonb object
		return models.StructuredCell(t)
	case []any:
		return sliceCell(t)
	case []string:
		vals := make([]any, len(t))
		for i, s := range t {
			vals[i] = s
		}
		return models.StructuredCell(vals)
	default:
		// Unmapped pgtype structs (intervals, ranges) implement
		// driver.Valuer and render their SQL text form there; a raw
		// fmt.Sprint would print Go struct fields instead.
		if valuer, ok := v.(driver.Valuer); ok {
			if dv, err := valuer.Value(); err == nil {
				return toCell(dv)
			}
		}
		return models.StringCell(fmt.Sprint(t))
	}
}

// sliceCell converts array elements recursively so nested driver types
// (timestamps in a timestamptz[], for example) still normalize.
func sliceCell(vals []any) models.CellValue {
	cells := make([]any, len(vals))
	for i, v := range vals {
		cells[i] = toCell(v)
	}
	return models.StructuredCell(cells)
}

// numericCell renders an arbitrary-precision numeric. Values that fit
// exactly in an int64 or float64 become numbers; anything that would
// lose digits stays a string.
func numericCell(n pgtype.Numeric) models.CellValue {
	if !n.Valid {
		return models.NullCell()
	}
	if n.NaN {
		return models.StringCell("NaN")
	}
	if n.InfinityModifier != pgtype.Finite {
		return models.StringCell(n.InfinityModifier.String())
	}

	raw, err := n.Value()
	if err != nil {
		return models.StringCell(fmt.Sprint(n))
	}
	s, ok := raw.(string)
	if !ok {
		return models.StringCell(fmt.Sprint(raw))
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return models.IntCell(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		// Only use a float when the decimal text round-trips.
		if strconv.FormatFloat(f, 'f', -1, 64) == s {
			return models.FloatCell(f)
		}
	}
	return models.StringCell(s)
}
