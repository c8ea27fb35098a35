package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/climatecrawl/internal/analysis"
	"github.com/nao1215/climatecrawl/internal/database"
	"github.com/nao1215/climatecrawl/internal/model"
)

// WeatherReport is stored weather data of one station with its summary.
type WeatherReport struct {
	Station model.Station     `json:"station"`
	Summary analysis.Summary  `json:"summary"`
	Weather *model.WeatherSet `json:"weather"`
}

// NewWeatherReport summarizes set for station.
func NewWeatherReport(station model.Station, set *model.WeatherSet) *WeatherReport {
	if set == nil {
		set = model.NewWeatherSet()
	}
	return &WeatherReport{
		Station: station,
		Summary: analysis.Summarize(set),
		Weather: set,
	}
}

// BoxPlot is the monthly distribution of daily mean temperatures.
type BoxPlot struct {
	Station  model.Station       `json:"station"`
	FromYear int                 `json:"fromYear"`
	ToYear   int                 `json:"toYear"`
	Months   []analysis.BoxStats `json:"months"`
}

// LinePlot is the daily mean temperature of one month.
type LinePlot struct {
	Station model.Station    `json:"station"`
	Year    int              `json:"year"`
	Month   time.Month       `json:"month"`
	Points  []analysis.Point `json:"points"`
}

// Title returns the plot title, e.g. "Mean Temperatures for 2023-05".
func (p *LinePlot) Title() string {
	return "Mean Temperatures for " + model.Month{Year: p.Year, Month: p.Month}.String()
}

// Writer defines the interface for report output.
//
// Design decision: We use an interface so that the CLI picks a format once
// (from --json/--markdown) and every command writes through the same API,
// whether the destination is stdout or a file.
type Writer interface {
	// WriteWeather outputs stored records and their summary.
	WriteWeather(r *WeatherReport) (int, error)

	// WriteBoxPlot outputs monthly box plot statistics.
	WriteBoxPlot(p *BoxPlot) (int, error)

	// WriteLinePlot outputs a daily mean series.
	WriteLinePlot(p *LinePlot) (int, error)

	// WriteRuns outputs download runs, newest first.
	WriteRuns(runs []database.Run) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// each calls fn for every writer, stopping on the first error.
func (m *MultiWriter) each(fn func(Writer) (int, error)) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := fn(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteWeather outputs the weather report to all configured Writers.
func (m *MultiWriter) WriteWeather(r *WeatherReport) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteWeather(r) })
}

// WriteBoxPlot outputs the box plot to all configured Writers.
func (m *MultiWriter) WriteBoxPlot(p *BoxPlot) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteBoxPlot(p) })
}

// WriteLinePlot outputs the line plot to all configured Writers.
func (m *MultiWriter) WriteLinePlot(p *LinePlot) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteLinePlot(p) })
}

// WriteRuns outputs the runs to all configured Writers.
func (m *MultiWriter) WriteRuns(runs []database.Run) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteRuns(runs) })
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// stationLabel returns "Name (ID)" or just the ID, followed by the location.
func stationLabel(st model.Station) string {
	label := st.Name
	if label == "" {
		label = "Station"
	}
	label += " (" + strconv.Itoa(st.ID) + ")"
	if st.Location != "" {
		label += ", " + st.Location
	}
	return label
}

// dateOrDash formats a date, or "-" for the zero time.
func dateOrDash(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return model.FormatISODate(t)
}
