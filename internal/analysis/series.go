package analysis

import (
	"time"

	"github.com/nao1215/climatecrawl/internal/model"
)

// Point is one day of a line plot. Mean may be absent; plots leave a gap.
type Point struct {
	Date time.Time     `json:"date"`
	Mean model.Reading `json:"mean"`
}

// DailySeries returns the daily Mean readings of one month in ascending date
// order. An empty result means there is no data for the month.
func DailySeries(set *model.WeatherSet, year, month int) ([]Point, error) {
	if err := ValidateYearMonth(year, month); err != nil {
		return nil, err
	}
	if set == nil {
		return nil, nil
	}

	target := model.Month{Year: year, Month: time.Month(month)}
	inMonth := set.Filter(func(rec model.DailyRecord) bool {
		return target.Contains(rec.Date)
	})

	records := inMonth.Sorted()
	points := make([]Point, 0, len(records))
	for _, rec := range records {
		points = append(points, Point{Date: rec.Date, Mean: rec.Mean})
	}
	return points, nil
}
