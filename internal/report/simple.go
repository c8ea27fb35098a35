package report

import (
	"io"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/nao1215/climatecrawl/internal/analysis"
	"github.com/nao1215/climatecrawl/internal/database"
	"github.com/nao1215/climatecrawl/internal/model"
)

// barWidth is the widest bar drawn for a line plot value.
const barWidth = 30

// SimpleWriter outputs human-readable tables for terminal display.
//
// Design decision: Tables are rendered with go-pretty and numbers are
// formatted through an x/text message printer, so thousands separators and
// decimal marks follow the configured language instead of being hard-coded.
type SimpleWriter struct {
	baseWriter

	// printer formats numbers for the configured language.
	printer *message.Printer

	// style is the go-pretty table style.
	style table.Style

	// rowLimit caps the number of record rows; 0 shows all.
	rowLimit int

	// now is used for relative times in the run history.
	now func() time.Time
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithLanguage sets the language used for number formatting.
func WithLanguage(tag language.Tag) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.printer = message.NewPrinter(tag)
	}
}

// WithStyle sets the table style.
func WithStyle(style table.Style) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.style = style
	}
}

// WithRowLimit shows only the newest n records; 0 shows all.
func WithRowLimit(n int) SimpleWriterOption {
	return func(w *SimpleWriter) {
		if n >= 0 {
			w.rowLimit = n
		}
	}
}

// WithNow sets the clock used for relative times.
func WithNow(now func() time.Time) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.now = now
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		printer:    message.NewPrinter(language.English),
		style:      table.StyleRounded,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// newTable creates a table with the writer's style.
func (w *SimpleWriter) newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetStyle(w.style)
	if title != "" {
		t.SetTitle("%s", title)
	}
	return t
}

// render writes the tables separated by blank lines.
func (w *SimpleWriter) render(tables ...table.Writer) (int, error) {
	var sb strings.Builder
	for _, t := range tables {
		sb.WriteString(t.Render())
		sb.WriteString("\n\n")
	}
	return io.WriteString(w.output, sb.String())
}

// temp formats a reading with one decimal, or "M" when absent.
func (w *SimpleWriter) temp(r model.Reading) string {
	if v, ok := r.Float64(); ok {
		return w.printer.Sprintf("%.1f", v)
	}
	return r.String()
}

// WriteWeather outputs the summary and the records of a station.
func (w *SimpleWriter) WriteWeather(r *WeatherReport) (int, error) {
	s := r.Summary

	summary := w.newTable(stationLabel(r.Station))
	summary.AppendRows([]table.Row{
		{"Records", w.printer.Sprintf("%d", s.Records)},
		{"Complete days", w.printer.Sprintf("%d", s.Complete)},
		{"Period", dateOrDash(s.First) + " .. " + dateOrDash(s.Last)},
		{"Missing Max/Min/Mean", w.printer.Sprintf("%d / %d / %d", s.Missing["Max"], s.Missing["Min"], s.Missing["Mean"])},
		{"Warmest", w.extreme(s.Warmest)},
		{"Coldest", w.extreme(s.Coldest)},
		{"Average mean", w.average(s)},
	})

	records := w.newTable("")
	records.AppendHeader(table.Row{"Date", "Max", "Min", "Mean"})
	rows := r.Weather.Sorted()
	if w.rowLimit > 0 && len(rows) > w.rowLimit {
		records.SetCaption("showing the newest %d of %d records", w.rowLimit, len(rows))
		rows = rows[len(rows)-w.rowLimit:]
	}
	for _, rec := range rows {
		records.AppendRow(table.Row{rec.Key(), w.temp(rec.Max), w.temp(rec.Min), w.temp(rec.Mean)})
	}
	records.SetColumnConfigs(rightAligned(2, 3, 4))

	return w.render(summary, records)
}

func (w *SimpleWriter) extreme(e analysis.Extreme) string {
	if !e.Found {
		return "-"
	}
	return w.printer.Sprintf("%.1f °C on %s", e.Value, model.FormatISODate(e.Date))
}

func (w *SimpleWriter) average(s analysis.Summary) string {
	if s.Records == 0 || s.Missing["Mean"] == s.Records {
		return "-"
	}
	return w.printer.Sprintf("%.1f °C", s.AverageMean)
}

// WriteBoxPlot outputs one row of box statistics per calendar month.
func (w *SimpleWriter) WriteBoxPlot(p *BoxPlot) (int, error) {
	t := w.newTable(w.printer.Sprintf("Mean Temperatures by Month (%d to %d) - %s", p.FromYear, p.ToYear, stationLabel(p.Station)))
	t.AppendHeader(table.Row{"Month", "Days", "Min", "Q1", "Median", "Q3", "Max", "Outliers"})

	for _, b := range p.Months {
		if b.Count == 0 {
			t.AppendRow(table.Row{b.Month.String(), "0", "-", "-", "-", "-", "-", "-"})
			continue
		}
		t.AppendRow(table.Row{
			b.Month.String(),
			w.printer.Sprintf("%d", b.Count),
			w.printer.Sprintf("%.1f", b.Min),
			w.printer.Sprintf("%.1f", b.Q1),
			w.printer.Sprintf("%.1f", b.Median),
			w.printer.Sprintf("%.1f", b.Q3),
			w.printer.Sprintf("%.1f", b.Max),
			w.printer.Sprintf("%d", len(b.Outliers)),
		})
	}
	t.SetColumnConfigs(rightAligned(2, 3, 4, 5, 6, 7, 8))

	return w.render(t)
}

// WriteLinePlot outputs the daily means of a month with a bar per day.
func (w *SimpleWriter) WriteLinePlot(p *LinePlot) (int, error) {
	month := model.Month{Year: p.Year, Month: p.Month}
	if len(p.Points) == 0 {
		return io.WriteString(w.output, "Data for the date "+month.String()+" not found.\n")
	}

	lo, hi := seriesRange(p.Points)
	t := w.newTable(p.Title() + " - " + stationLabel(p.Station))
	t.AppendHeader(table.Row{"Day", "Mean (°C)", ""})
	for _, pt := range p.Points {
		bar := ""
		if v, ok := pt.Mean.Float64(); ok {
			bar = strings.Repeat("█", barLength(v, lo, hi))
		}
		t.AppendRow(table.Row{pt.Date.Day(), w.temp(pt.Mean), bar})
	}
	t.SetColumnConfigs(rightAligned(1, 2))

	return w.render(t)
}

// WriteRuns outputs the download history.
func (w *SimpleWriter) WriteRuns(runs []database.Run) (int, error) {
	if len(runs) == 0 {
		return io.WriteString(w.output, "No downloads recorded.\n")
	}

	now := w.now()
	t := w.newTable("Download history")
	t.AppendHeader(table.Row{"ID", "Station", "Started", "Took", "Months", "Records", "New", "Result"})
	for _, run := range runs {
		result := run.StopReason
		if run.Error != "" {
			result += ": " + run.Error
		}
		t.AppendRow(table.Row{
			run.ID,
			run.StationID,
			humanize.RelTime(run.StartedAt, now, "ago", "from now"),
			run.Duration().Round(time.Millisecond).String(),
			w.printer.Sprintf("%d", run.Months),
			w.printer.Sprintf("%d", run.Records),
			w.printer.Sprintf("%d", run.Inserted),
			result,
		})
	}
	t.SetColumnConfigs(rightAligned(5, 6, 7))

	return w.render(t)
}

// rightAligned returns column configs aligning the given 1-based columns right.
func rightAligned(columns ...int) []table.ColumnConfig {
	configs := make([]table.ColumnConfig, len(columns))
	for i, c := range columns {
		configs[i] = table.ColumnConfig{Number: c, Align: text.AlignRight}
	}
	return configs
}

// seriesRange returns the lowest and highest present mean.
func seriesRange(points []analysis.Point) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, pt := range points {
		if v, ok := pt.Mean.Float64(); ok {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	return lo, hi
}

// barLength scales v within [lo, hi] to 1..barWidth.
func barLength(v, lo, hi float64) int {
	if hi <= lo {
		return barWidth / 2
	}
	return 1 + int(math.Round((v-lo)/(hi-lo)*float64(barWidth-1)))
}
