package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/climatecrawl/internal/analysis"
	"github.com/nao1215/climatecrawl/internal/database"
	"github.com/nao1215/climatecrawl/internal/model"
)

// MarkdownWriter outputs reports in GitHub Flavored Markdown.
// Plots become mermaid charts so that they render on GitHub and in most
// Markdown viewers without image files.
//
// Design decision: We use the nao1215/markdown library for tables, alerts and
// the pie chart. The library has no xychart builder, so line charts are
// written as mermaid "xychart-beta" text and embedded with CodeBlocks.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// build writes md to the output and returns its size.
func (w *MarkdownWriter) build(md *markdown.Markdown) (int, error) {
	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// WriteWeather outputs the summary, a pie chart of missing readings and the
// records table.
func (w *MarkdownWriter) WriteWeather(r *WeatherReport) (int, error) {
	md := markdown.NewMarkdown(w.output)
	s := r.Summary

	md.H1("Weather Data")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Station", stationLabel(r.Station)},
			{"Records", strconv.Itoa(s.Records)},
			{"Complete days", strconv.Itoa(s.Complete)},
			{"Period", dateOrDash(s.First) + " .. " + dateOrDash(s.Last)},
			{"Warmest", markdownExtreme(s.Warmest)},
			{"Coldest", markdownExtreme(s.Coldest)},
		},
	})
	md.PlainText("")

	if s.Records == 0 {
		md.Note("No records stored for this station. Run `climatecrawl download` first.")
		md.PlainText("")
		return w.build(md)
	}

	w.writeCompleteness(md, s)

	md.H2("Records")
	md.PlainText("")
	rows := make([][]string, 0, r.Weather.Len())
	for _, rec := range r.Weather.Sorted() {
		rows = append(rows, []string{rec.Key(), rec.Max.String(), rec.Min.String(), rec.Mean.String()})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Date", "Max", "Min", "Mean"},
		Rows:   rows,
	})
	md.PlainText("")

	return w.build(md)
}

// writeCompleteness writes a pie chart of present and absent readings.
func (w *MarkdownWriter) writeCompleteness(md *markdown.Markdown, s analysis.Summary) {
	md.H2("Completeness")
	md.PlainText("")

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Readings"),
		piechart.WithShowData(true),
	)
	chart.LabelAndIntValue("Present", uint64(s.Present())) //nolint:gosec // counts are non-negative
	for _, f := range model.Fields {
		if n := s.Missing[f.String()]; n > 0 {
			chart.LabelAndIntValue("Missing "+f.String(), uint64(n)) //nolint:gosec // counts are non-negative
		}
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")

	if s.Absent() > 0 {
		md.Importantf("%d of %d readings are missing (\"M\" on the source site).", s.Absent(), s.Absent()+s.Present())
		md.PlainText("")
	}
}

// WriteBoxPlot outputs the monthly statistics table and a chart of the
// quartiles and the median.
func (w *MarkdownWriter) WriteBoxPlot(p *BoxPlot) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1f("Mean Temperatures by Month (%d to %d)", p.FromYear, p.ToYear)
	md.PlainText("")
	md.PlainTextf("Station: %s", stationLabel(p.Station))
	md.PlainText("")

	rows := make([][]string, 0, len(p.Months))
	var labels []string
	var q1, median, q3 []float64
	for _, b := range p.Months {
		name := b.Month.String()[:3]
		if b.Count == 0 {
			rows = append(rows, []string{name, "0", "-", "-", "-", "-", "-", "-"})
			continue
		}
		rows = append(rows, []string{
			name,
			strconv.Itoa(b.Count),
			formatTemp(b.Min),
			formatTemp(b.Q1),
			formatTemp(b.Median),
			formatTemp(b.Q3),
			formatTemp(b.Max),
			strconv.Itoa(len(b.Outliers)),
		})
		labels = append(labels, name)
		q1 = append(q1, b.Q1)
		median = append(median, b.Median)
		q3 = append(q3, b.Q3)
	}

	md.Table(markdown.TableSet{
		Header: []string{"Month", "Days", "Min", "Q1", "Median", "Q3", "Max", "Outliers"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(labels) == 0 {
		md.Note("No mean temperatures stored for this year range.")
		md.PlainText("")
		return w.build(md)
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, xyChart(
		fmt.Sprintf("Mean Temperatures by Month (%d to %d)", p.FromYear, p.ToYear),
		labels,
		q1, median, q3,
	))
	md.PlainText("")

	return w.build(md)
}

// WriteLinePlot outputs the daily means as a table and a line chart.
func (w *MarkdownWriter) WriteLinePlot(p *LinePlot) (int, error) {
	md := markdown.NewMarkdown(w.output)
	month := model.Month{Year: p.Year, Month: p.Month}

	md.H1(p.Title())
	md.PlainText("")
	md.PlainTextf("Station: %s", stationLabel(p.Station))
	md.PlainText("")

	if len(p.Points) == 0 {
		md.Warningf("Data for the date %s not found.", month.String())
		md.PlainText("")
		return w.build(md)
	}

	rows := make([][]string, 0, len(p.Points))
	var labels []string
	var values []float64
	for _, pt := range p.Points {
		rows = append(rows, []string{model.FormatISODate(pt.Date), pt.Mean.String()})
		if v, ok := pt.Mean.Float64(); ok {
			labels = append(labels, strconv.Itoa(pt.Date.Day()))
			values = append(values, v)
		}
	}

	if len(values) > 0 {
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, xyChart(p.Title(), labels, values))
		md.PlainText("")
	}

	md.Table(markdown.TableSet{
		Header: []string{"Date", "Mean (°C)"},
		Rows:   rows,
	})
	md.PlainText("")

	return w.build(md)
}

// WriteRuns outputs the download history table.
func (w *MarkdownWriter) WriteRuns(runs []database.Run) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Download History")
	md.PlainText("")

	if len(runs) == 0 {
		md.PlainText("No downloads recorded.")
		md.PlainText("")
		return w.build(md)
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		result := run.StopReason
		if run.Error != "" {
			result = "❌ " + result + ": " + run.Error
		}
		rows = append(rows, []string{
			strconv.FormatInt(run.ID, 10),
			strconv.Itoa(run.StationID),
			run.StartedAt.Format("2006-01-02 15:04:05 MST"),
			strconv.Itoa(run.Months),
			strconv.Itoa(run.Records),
			strconv.FormatInt(run.Inserted, 10),
			result,
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"ID", "Station", "Started", "Months", "Records", "New", "Result"},
		Rows:   rows,
	})
	md.PlainText("")

	return w.build(md)
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by [climatecrawl](https://github.com/nao1215/climatecrawl)*")
}

// xyChart returns a mermaid xychart-beta definition with one line per series.
func xyChart(title string, labels []string, series ...[]float64) string {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, v := range s {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	lo, hi = math.Floor(lo)-1, math.Ceil(hi)+1

	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = strconv.Quote(l)
	}

	var sb strings.Builder
	sb.WriteString("xychart-beta\n")
	fmt.Fprintf(&sb, "    title %s\n", strconv.Quote(title))
	fmt.Fprintf(&sb, "    x-axis [%s]\n", strings.Join(quoted, ", "))
	fmt.Fprintf(&sb, "    y-axis \"Mean Temperature (°C)\" %s --> %s\n", formatTemp(lo), formatTemp(hi))
	for _, s := range series {
		values := make([]string, len(s))
		for i, v := range s {
			values[i] = formatTemp(v)
		}
		fmt.Fprintf(&sb, "    line [%s]\n", strings.Join(values, ", "))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// formatTemp formats a temperature with one decimal place.
func formatTemp(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// markdownExtreme formats an extreme reading for a table cell.
func markdownExtreme(e analysis.Extreme) string {
	if !e.Found {
		return "-"
	}
	return formatTemp(e.Value) + " °C (" + model.FormatISODate(e.Date) + ")"
}
