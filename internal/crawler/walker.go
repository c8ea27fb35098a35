package crawler

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/nao1215/climatecrawl/internal/model"
)

// Markup constants of the climate site's daily data page.
const (
	// containerTag and containerID identify the element wrapping the data table.
	containerTag = "div"
	containerID  = "dynamicDataTable"

	// bodyTag is the table section holding one row per day.
	bodyTag = "tbody"

	// rowTag delimits a day.
	rowTag = "tr"

	// headerCellTag holds the day label at the start of a row.
	headerCellTag = "th"

	// dateTag carries the row's human-readable date in its title attribute.
	dateTag  = "abbr"
	dateAttr = "title"

	// cellTag is a data cell; its position in the row selects the field.
	cellTag = "td"

	// TitleDateLayout is the format of the date title, e.g. "December 1, 1997".
	TitleDateLayout = "January 2, 2006"
)

// columnFields maps the 1-based data cell position within a row to the field
// it holds. Cells beyond the last entry carry no temperatures.
// This is the only place that knows the table's column layout.
var columnFields = map[int]model.Field{
	1: model.FieldMax,
	2: model.FieldMin,
	3: model.FieldMean,
}

// rowTerminalField is the last semantic column; completing it ends the row.
const rowTerminalField = model.FieldMean

// ErrInvalidTitleDate is returned by ParseTitleDate for malformed titles.
var ErrInvalidTitleDate = errors.New("invalid title date")

// ParseTitleDate parses a row title such as "December 1, 1997".
func ParseTitleDate(title string) (time.Time, error) {
	t, err := time.Parse(TitleDateLayout, strings.TrimSpace(title))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTitleDate, title)
	}
	return t, nil
}

// region is the walker's position relative to the data table.
type region int

const (
	// regionOutside is anywhere before or after the data container.
	regionOutside region = iota

	// regionContainer is inside the data container but not in a table body.
	regionContainer

	// regionBody is inside a table body of the data container.
	regionBody
)

// rowState is the per-row part of the state machine.
// A row is active from its date element until its terminal field is consumed
// or the row ends.
type rowState struct {
	// active is set once a date title has been captured (awaiting-date).
	active bool

	// title is the raw date title.
	title string

	// date is the parsed title; valid only when dated is true.
	date time.Time

	// dated and resolved track the outcome of parsing title.
	dated    bool
	resolved bool

	// column counts data cells seen since the date element.
	column int

	// awaiting is set while the current cell's field has not been consumed
	// (awaiting-max, awaiting-min or awaiting-mean, depending on field).
	awaiting bool
	field    model.Field

	// seen records which fields this row has produced.
	seen map[model.Field]bool
}

// TableWalker extracts daily readings from one month page.
// A TableWalker is single-use: create a new one for every page so that no
// row or region state can leak between pages.
type TableWalker struct {
	tokenizer *html.Tokenizer

	region region

	// depth counts open container elements inside the data container,
	// including the container itself.
	depth int

	// inCell is set between a data cell's start and end tags.
	inCell bool

	row rowState

	out *model.WeatherSet
}

// NewTableWalker creates a walker over one page of markup.
func NewTableWalker(r io.Reader) *TableWalker {
	return &TableWalker{
		tokenizer: html.NewTokenizer(r),
		out:       model.NewWeatherSet(),
	}
}

// Walk is a convenience wrapper that runs a fresh TableWalker over r.
func Walk(r io.Reader) (*model.WeatherSet, error) {
	return NewTableWalker(r).Run()
}

// Run consumes the whole token stream and returns the records found in the
// data region. A page without a data region yields an empty set.
// A read error returns the records gathered before it together with the error.
func (w *TableWalker) Run() (*model.WeatherSet, error) {
	for {
		tt := w.tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			w.finishRow()
			if err := w.tokenizer.Err(); !errors.Is(err, io.EOF) {
				return w.out, err
			}
			return w.out, nil

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := w.tokenizer.TagName()
			var attrs map[string]string
			if hasAttr {
				attrs = w.readAttrs()
			}
			w.handleStart(string(name), attrs, tt == html.SelfClosingTagToken)

		case html.EndTagToken:
			name, _ := w.tokenizer.TagName()
			w.handleEnd(string(name))

		case html.TextToken:
			w.handleText(string(w.tokenizer.Text()))
		}
	}
}

// readAttrs collects the current tag's attributes.
func (w *TableWalker) readAttrs() map[string]string {
	attrs := make(map[string]string)
	for {
		key, val, more := w.tokenizer.TagAttr()
		attrs[string(key)] = string(val)
		if !more {
			return attrs
		}
	}
}

// handleStart advances the state machine on a start tag.
func (w *TableWalker) handleStart(name string, attrs map[string]string, selfClosing bool) {
	if w.region == regionOutside {
		if name == containerTag && attrs["id"] == containerID && !selfClosing {
			w.region = regionContainer
			w.depth = 1
		}
		return
	}

	if name == containerTag && !selfClosing {
		w.depth++
	}

	if w.region == regionContainer {
		if name == bodyTag {
			w.region = regionBody
		}
		return
	}

	switch name {
	case rowTag, headerCellTag:
		// HTML may omit </td>, so a new row or header cell closes any open
		// data cell.
		w.inCell = false

	case dateTag:
		// A titled element inside a data cell is a legend, not a row date.
		title, ok := attrs[dateAttr]
		if !ok || w.inCell {
			return
		}
		w.finishRow()
		w.row = rowState{active: true, title: title, seen: make(map[model.Field]bool)}

	case cellTag:
		w.inCell = !selfClosing
		if !w.row.active {
			return
		}
		// A cell that never received text is recorded as absent.
		w.consume(model.Absent())
		w.row.column++
		if f, ok := columnFields[w.row.column]; ok {
			w.row.awaiting = true
			w.row.field = f
		}
	}
}

// handleEnd advances the state machine on an end tag.
func (w *TableWalker) handleEnd(name string) {
	if w.region == regionOutside {
		return
	}

	switch name {
	case cellTag:
		w.inCell = false
		w.consume(model.Absent())

	case rowTag:
		w.inCell = false
		w.finishRow()

	case bodyTag:
		if w.region == regionBody {
			w.finishRow()
			w.region = regionContainer
		}

	case containerTag:
		w.depth--
		if w.depth == 0 {
			w.finishRow()
			w.region = regionOutside
		}
	}
}

// handleText advances the state machine on text content.
func (w *TableWalker) handleText(text string) {
	if w.region != regionBody || !w.row.active {
		return
	}
	w.resolveDate()

	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	w.consume(model.ParseReading(text))
}

// resolveDate parses the captured title once per row.
func (w *TableWalker) resolveDate() {
	if w.row.resolved {
		return
	}
	w.row.resolved = true
	date, err := ParseTitleDate(w.row.title)
	if err != nil {
		return
	}
	w.row.date = date
	w.row.dated = true
}

// consume stores reading under the field the current cell is awaiting.
// It clears the awaiting flag so later text in the same cell is ignored,
// and completes the row when the terminal field has been consumed.
func (w *TableWalker) consume(reading model.Reading) {
	if !w.row.active || !w.row.awaiting {
		return
	}
	w.row.awaiting = false
	w.emit(w.row.field, reading)

	if w.row.field == rowTerminalField {
		w.finishRow()
	}
}

// emit records a reading for the current row. Rows without a valid date
// produce nothing.
func (w *TableWalker) emit(f model.Field, reading model.Reading) {
	w.resolveDate()
	w.row.seen[f] = true
	if !w.row.dated {
		return
	}
	w.out.Set(w.row.date, f, reading)
}

// finishRow closes the active row. A dated row that produced any field gets
// every remaining field recorded as absent, so each day always carries all
// three slots.
func (w *TableWalker) finishRow() {
	if !w.row.active {
		return
	}
	w.consume(model.Absent())

	if w.row.active && w.row.dated && len(w.row.seen) > 0 {
		for _, f := range model.Fields {
			if !w.row.seen[f] {
				w.out.Set(w.row.date, f, model.Absent())
			}
		}
	}
	w.row = rowState{}
}
