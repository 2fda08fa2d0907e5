package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// CellKind identifies the JSON shape a cell value marshals to.
// Every cell in a ResultSet is exactly one of these five kinds, so
// downstream consumers can switch exhaustively.
type CellKind int

const (
	CellNull CellKind = iota
	CellNumber
	CellString
	CellBool
	CellStructured
)

// maxSafeInteger is the largest integer exactly representable as a
// JSON number (2^53 - 1). Integers beyond it are stringified so the
// client never sees a silently rounded value.
const maxSafeInteger = int64(1)<<53 - 1

// CellValue is a single result cell. The zero value is the null cell.
type CellValue struct {
	kind  CellKind
	num   float64
	i     int64
	isInt bool
	str   string
	b     bool
	v     any
}

// NullCell returns the null cell.
func NullCell() CellValue {
	return CellValue{kind: CellNull}
}

// IntCell returns a numeric cell for an integral value. Values outside
// the JSON safe-integer range are converted to string cells.
func IntCell(v int64) CellValue {
	if v > maxSafeInteger || v < -maxSafeInteger {
		return StringCell(fmt.Sprintf("%d", v))
	}
	return CellValue{kind: CellNumber, i: v, isInt: true}
}

// FloatCell returns a numeric cell. NaN and infinities have no JSON
// representation and become string cells.
func FloatCell(v float64) CellValue {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return StringCell(fmt.Sprintf("%v", v))
	}
	return CellValue{kind: CellNumber, num: v}
}

// StringCell returns a string cell.
func StringCell(s string) CellValue {
	return CellValue{kind: CellString, str: s}
}

// BoolCell returns a boolean cell.
func BoolCell(b bool) CellValue {
	return CellValue{kind: CellBool, b: b}
}

// StructuredCell returns a cell holding a nested JSON value (object or
// array). The caller must pass a JSON-marshalable value.
func StructuredCell(v any) CellValue {
	return CellValue{kind: CellStructured, v: v}
}

// Kind reports which of the five shapes this cell carries.
func (c CellValue) Kind() CellKind { return c.kind }

// String returns the value of a string cell ("" for other kinds).
func (c CellValue) String() string { return c.str }

// MarshalJSON emits the bare JSON value for the cell.
func (c CellValue) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case CellNull:
		return []byte("null"), nil
	case CellNumber:
		if c.isInt {
			return json.Marshal(c.i)
		}
		return json.Marshal(c.num)
	case CellString:
		return json.Marshal(c.str)
	case CellBool:
		return json.Marshal(c.b)
	case CellStructured:
		return json.Marshal(c.v)
	default:
		return nil, fmt.Errorf("unknown cell kind %d", c.kind)
	}
}

// UnmarshalJSON reconstructs a cell from its bare JSON value. Integral
// numbers are restored as integers, everything else keeps its shape.
func (c *CellValue) UnmarshalJSON(data []byte) error {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*c = NullCell()
	case json.Number:
		if i, err := t.Int64(); err == nil {
			*c = IntCell(i)
			return nil
		}
		f, err := t.Float64()
		if err != nil {
			return err
		}
		*c = FloatCell(f)
	case string:
		*c = StringCell(t)
	case bool:
		*c = BoolCell(t)
	default:
		*c = StructuredCell(t)
	}
	return nil
}
