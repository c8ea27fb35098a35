package crawler

import (
	"iter"
	"time"

	"github.com/nao1215/climatecrawl/internal/model"
)

// MonthCursor yields the months to request, newest first.
//
// The cursor starts at today. A month is yielded while stop < cursor, comparing
// dates only. After a month is yielded the cursor moves to the last day of the
// preceding month, so the day of month of "today" never decides whether an
// older month is requested: with stop = 2023-05-15, May 2023 (cursor
// 2023-05-31) is requested and April 2023 (cursor 2023-04-30) is not.
//
// Design decision: The cursor takes "today" as an argument instead of reading
// the clock so that pagination can be tested without a network or a fake clock.
type MonthCursor struct {
	cursor time.Time
	stop   time.Time
	done   bool
}

// NewMonthCursor creates a cursor walking backward from today until stop
// (exclusive).
func NewMonthCursor(today, stop time.Time) *MonthCursor {
	return &MonthCursor{
		cursor: model.DateOf(today),
		stop:   model.DateOf(stop),
	}
}

// Next returns the next month to request and false once the cursor has
// passed stop.
func (c *MonthCursor) Next() (model.Month, bool) {
	if c.done || !c.stop.Before(c.cursor) {
		c.done = true
		return model.Month{}, false
	}
	m := model.MonthOf(c.cursor)
	c.cursor = m.First().AddDate(0, 0, -1)
	return m, true
}

// Months returns an iterator over the months between today and stop, newest
// first.
func Months(today, stop time.Time) iter.Seq[model.Month] {
	return func(yield func(model.Month) bool) {
		c := NewMonthCursor(today, stop)
		for {
			m, ok := c.Next()
			if !ok || !yield(m) {
				return
			}
		}
	}
}
