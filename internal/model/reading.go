package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Reading is a temperature in degrees Celsius that may be absent.
// An absent reading is distinct from 0.0: it means the source published no
// usable measurement for that slot (e.g. "M" for missing, or an empty cell).
//
// Design decision: We use a value type with a Valid flag (like sql.NullFloat64)
// rather than *float64 because:
//  1. Records can be copied freely without aliasing
//  2. The zero value is a meaningful "absent" reading
//  3. It maps directly onto nullable REAL columns in SQLite
type Reading struct {
	// Value is the temperature. Only meaningful when Valid is true.
	Value float64

	// Valid reports whether Value holds a measurement.
	Valid bool
}

// Temp returns a present reading.
func Temp(v float64) Reading {
	return Reading{Value: v, Valid: true}
}

// Absent returns a reading with no value.
func Absent() Reading {
	return Reading{}
}

// ParseReading parses cell text as a temperature.
// Anything that is not a finite decimal number yields an absent reading;
// this never fails.
func ParseReading(text string) Reading {
	text = strings.TrimSpace(text)
	if text == "" {
		return Absent()
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Absent()
	}
	return Temp(v)
}

// Float64 returns the value and whether it is present.
func (r Reading) Float64() (float64, bool) {
	return r.Value, r.Valid
}

// String returns the value with one decimal place, or "M" when absent.
// "M" is the marker the climate site itself uses for missing data.
func (r Reading) String() string {
	if !r.Valid {
		return "M"
	}
	return strconv.FormatFloat(r.Value, 'f', 1, 64)
}

// MarshalJSON encodes an absent reading as null.
func (r Reading) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// UnmarshalJSON decodes null as an absent reading.
func (r *Reading) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*r = Absent()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Temp(v)
	return nil
}

// Field identifies one of the three temperature slots of a DailyRecord.
type Field int

const (
	// FieldMax is the daily maximum temperature.
	FieldMax Field = iota

	// FieldMin is the daily minimum temperature.
	FieldMin

	// FieldMean is the daily mean temperature.
	FieldMean
)

// Fields lists all fields in table column order.
var Fields = []Field{FieldMax, FieldMin, FieldMean}

// String returns the field name as used in exported data.
func (f Field) String() string {
	switch f {
	case FieldMax:
		return "Max"
	case FieldMin:
		return "Min"
	case FieldMean:
		return "Mean"
	default:
		return "Unknown"
	}
}
