package model

import "time"

// DailyRecord holds the temperature readings for one calendar day.
// Every record carries all three slots; a slot with no measurement is an
// absent Reading rather than a missing field.
type DailyRecord struct {
	// Date is UTC midnight of the day the readings belong to.
	Date time.Time `json:"date"`

	// Max is the daily maximum temperature.
	Max Reading `json:"max"`

	// Min is the daily minimum temperature.
	Min Reading `json:"min"`

	// Mean is the daily mean temperature.
	Mean Reading `json:"mean"`
}

// Key returns the record's ISO date key.
func (r DailyRecord) Key() string {
	return FormatISODate(r.Date)
}

// Get returns the reading stored under f.
func (r DailyRecord) Get(f Field) Reading {
	switch f {
	case FieldMax:
		return r.Max
	case FieldMin:
		return r.Min
	case FieldMean:
		return r.Mean
	default:
		return Absent()
	}
}

// apply stores reading under f following the merge rule: a present reading
// overwrites, an absent one never clears a present value.
func (r *DailyRecord) apply(f Field, reading Reading) {
	if !reading.Valid {
		return
	}
	switch f {
	case FieldMax:
		r.Max = reading
	case FieldMin:
		r.Min = reading
	case FieldMean:
		r.Mean = reading
	}
}

// Complete reports whether all three readings are present.
func (r DailyRecord) Complete() bool {
	return r.Max.Valid && r.Min.Valid && r.Mean.Valid
}
