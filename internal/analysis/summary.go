package analysis

import (
	"time"

	"github.com/nao1215/climatecrawl/internal/model"
)

// Extreme is a single reading together with the day it was taken.
type Extreme struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
	Found bool      `json:"found"`
}

// Summary describes a weather set at a glance.
type Summary struct {
	// Records is the number of days.
	Records int `json:"records"`

	// Complete is the number of days with all three readings present.
	Complete int `json:"complete"`

	// First and Last are the oldest and newest day.
	First time.Time `json:"first"`
	Last  time.Time `json:"last"`

	// Missing counts absent readings per field.
	Missing map[string]int `json:"missing"`

	// Warmest is the highest Max reading, Coldest the lowest Min reading.
	Warmest Extreme `json:"warmest"`
	Coldest Extreme `json:"coldest"`

	// AverageMean is the average of all present Mean readings.
	AverageMean float64 `json:"averageMean"`
}

// Present returns the number of present readings.
func (s Summary) Present() int {
	total := s.Records * len(model.Fields)
	for _, n := range s.Missing {
		total -= n
	}
	return total
}

// Absent returns the number of absent readings.
func (s Summary) Absent() int {
	var n int
	for _, m := range s.Missing {
		n += m
	}
	return n
}

// Summarize computes a Summary of set.
func Summarize(set *model.WeatherSet) Summary {
	s := Summary{Missing: make(map[string]int, len(model.Fields))}
	for _, f := range model.Fields {
		s.Missing[f.String()] = 0
	}
	if set == nil {
		return s
	}

	var meanSum float64
	var meanCount int
	for _, rec := range set.All() {
		s.Records++
		if rec.Complete() {
			s.Complete++
		}
		if s.First.IsZero() || rec.Date.Before(s.First) {
			s.First = rec.Date
		}
		if rec.Date.After(s.Last) {
			s.Last = rec.Date
		}

		for _, f := range model.Fields {
			if !rec.Get(f).Valid {
				s.Missing[f.String()]++
			}
		}

		if v, ok := rec.Max.Float64(); ok && (!s.Warmest.Found || v > s.Warmest.Value) {
			s.Warmest = Extreme{Date: rec.Date, Value: v, Found: true}
		}
		if v, ok := rec.Min.Float64(); ok && (!s.Coldest.Found || v < s.Coldest.Value) {
			s.Coldest = Extreme{Date: rec.Date, Value: v, Found: true}
		}
		if v, ok := rec.Mean.Float64(); ok {
			meanSum += v
			meanCount++
		}
	}

	if meanCount > 0 {
		s.AverageMean = meanSum / float64(meanCount)
	}
	return s
}
