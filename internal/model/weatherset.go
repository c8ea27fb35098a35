package model

import (
	"bytes"
	"encoding/json"
	"iter"
	"sort"
	"time"
)

// WeatherSet is an insertion-ordered mapping from date to DailyRecord.
// It holds at most one record per date.
//
// Design decision: We keep an explicit key slice next to the map because:
//  1. Crawl output must preserve the order in which days were emitted
//  2. Go maps have no stable iteration order
//  3. Sorted views are cheap to derive on demand (Sorted)
//
// A WeatherSet is not safe for concurrent use. Each crawl owns its own set.
type WeatherSet struct {
	keys    []string
	records map[string]*DailyRecord
}

// NewWeatherSet creates an empty WeatherSet.
func NewWeatherSet() *WeatherSet {
	return &WeatherSet{
		keys:    make([]string, 0),
		records: make(map[string]*DailyRecord),
	}
}

// Len returns the number of dates in the set.
func (s *WeatherSet) Len() int {
	return len(s.keys)
}

// entry returns the record for date, creating it if needed.
func (s *WeatherSet) entry(date time.Time) *DailyRecord {
	date = DateOf(date)
	key := FormatISODate(date)
	rec, ok := s.records[key]
	if !ok {
		rec = &DailyRecord{Date: date}
		s.records[key] = rec
		s.keys = append(s.keys, key)
	}
	return rec
}

// Set stores a single reading for date. The date key is created even when the
// reading is absent, so a day whose cells were all unparseable still appears.
// A present reading overwrites the field; an absent one leaves it untouched.
func (s *WeatherSet) Set(date time.Time, f Field, reading Reading) {
	s.entry(date).apply(f, reading)
}

// Put merges rec into the set field by field.
func (s *WeatherSet) Put(rec DailyRecord) {
	e := s.entry(rec.Date)
	for _, f := range Fields {
		e.apply(f, rec.Get(f))
	}
}

// Merge merges every record of other into s, in other's order.
func (s *WeatherSet) Merge(other *WeatherSet) {
	if other == nil {
		return
	}
	for _, key := range other.keys {
		s.Put(*other.records[key])
	}
}

// Get returns the record stored under an ISO date key.
func (s *WeatherSet) Get(key string) (DailyRecord, bool) {
	rec, ok := s.records[key]
	if !ok {
		return DailyRecord{}, false
	}
	return *rec, true
}

// Keys returns the date keys in insertion order.
func (s *WeatherSet) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// All iterates over the records in insertion order.
func (s *WeatherSet) All() iter.Seq2[string, DailyRecord] {
	return func(yield func(string, DailyRecord) bool) {
		for _, key := range s.keys {
			if !yield(key, *s.records[key]) {
				return
			}
		}
	}
}

// Records returns copies of all records in insertion order.
func (s *WeatherSet) Records() []DailyRecord {
	out := make([]DailyRecord, 0, len(s.keys))
	for _, rec := range s.All() {
		out = append(out, rec)
	}
	return out
}

// Sorted returns copies of all records in ascending date order.
func (s *WeatherSet) Sorted() []DailyRecord {
	out := s.Records()
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// Latest returns the most recent date in the set.
func (s *WeatherSet) Latest() (time.Time, bool) {
	var latest time.Time
	for _, rec := range s.records {
		if rec.Date.After(latest) {
			latest = rec.Date
		}
	}
	return latest, !latest.IsZero()
}

// Filter returns a new set holding the records for which keep returns true.
func (s *WeatherSet) Filter(keep func(DailyRecord) bool) *WeatherSet {
	out := NewWeatherSet()
	for _, rec := range s.All() {
		if keep(rec) {
			out.Put(rec)
		}
	}
	return out
}

// MarshalJSON encodes the set as an object keyed by date, preserving order:
//
//	{"1997-12-01": {"Max": -1.6, "Min": -4.8, "Mean": -3.2}}
func (s *WeatherSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range s.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		rec := s.records[key]
		keyJSON, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		valueJSON, err := json.Marshal(struct {
			Max  Reading `json:"Max"`
			Min  Reading `json:"Min"`
			Mean Reading `json:"Mean"`
		}{rec.Max, rec.Min, rec.Mean})
		if err != nil {
			return nil, err
		}
		buf.Write(valueJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
