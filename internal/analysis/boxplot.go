package analysis

import (
	"math"
	"slices"
	"time"

	"github.com/nao1215/climatecrawl/internal/model"
)

// whiskerFactor is the multiple of the interquartile range a whisker reaches.
const whiskerFactor = 1.5

// BoxStats summarizes the daily mean temperatures of one calendar month.
// All values are zero when Count is 0.
type BoxStats struct {
	// Month is the calendar month the values belong to.
	Month time.Month `json:"month"`

	// Count is the number of daily means in the box.
	Count int `json:"count"`

	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`

	// LowerWhisker and UpperWhisker are the most extreme values within
	// 1.5 IQR of the box.
	LowerWhisker float64 `json:"lowerWhisker"`
	UpperWhisker float64 `json:"upperWhisker"`

	// Outliers are the values beyond the whiskers, ascending.
	Outliers []float64 `json:"outliers,omitempty"`
}

// MonthlyBoxStats groups the daily Mean readings of the years [fromYear,
// toYear] by calendar month and summarizes each group. The result always has
// twelve entries, January first.
func MonthlyBoxStats(set *model.WeatherSet, fromYear, toYear int) ([]BoxStats, error) {
	if err := ValidateYearRange(fromYear, toYear); err != nil {
		return nil, err
	}

	groups := make([][]float64, 12)
	if set != nil {
		for _, rec := range set.All() {
			year := rec.Date.Year()
			if year < fromYear || year > toYear {
				continue
			}
			if v, ok := rec.Mean.Float64(); ok {
				m := rec.Date.Month() - 1
				groups[m] = append(groups[m], v)
			}
		}
	}

	stats := make([]BoxStats, 12)
	for i, values := range groups {
		stats[i] = Box(values)
		stats[i].Month = time.Month(i + 1)
	}
	return stats, nil
}

// Box computes the box plot statistics of values. values is not modified.
func Box(values []float64) BoxStats {
	if len(values) == 0 {
		return BoxStats{}
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	b := BoxStats{
		Count:  len(sorted),
		Min:    sorted[0],
		Q1:     Quantile(sorted, 0.25),
		Median: Quantile(sorted, 0.5),
		Q3:     Quantile(sorted, 0.75),
		Max:    sorted[len(sorted)-1],
	}

	iqr := b.Q3 - b.Q1
	low := b.Q1 - whiskerFactor*iqr
	high := b.Q3 + whiskerFactor*iqr

	b.LowerWhisker = b.Q1
	b.UpperWhisker = b.Q3
	for _, v := range sorted {
		if v >= low {
			b.LowerWhisker = math.Min(v, b.Q1)
			break
		}
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i] <= high {
			b.UpperWhisker = math.Max(sorted[i], b.Q3)
			break
		}
	}
	for _, v := range sorted {
		if v < low || v > high {
			b.Outliers = append(b.Outliers, v)
		}
	}
	return b
}

// Quantile returns the q-quantile (0 <= q <= 1) of an ascending slice using
// linear interpolation between closest ranks.
func Quantile(sorted []float64, q float64) float64 {
	switch len(sorted) {
	case 0:
		return math.NaN()
	case 1:
		return sorted[0]
	}

	pos := q * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	frac := pos - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
