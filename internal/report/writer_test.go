package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/nao1215/climatecrawl/internal/analysis"
	"github.com/nao1215/climatecrawl/internal/database"
	"github.com/nao1215/climatecrawl/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// createTestWeather creates a report with one complete and one partial day.
func createTestWeather() *WeatherReport {
	set := model.NewWeatherSet()
	set.Put(model.DailyRecord{Date: day(1997, time.December, 2), Max: model.Temp(0.5), Min: model.Temp(-7.5)})
	set.Put(model.DailyRecord{Date: day(1997, time.December, 1), Max: model.Temp(-1.6), Min: model.Temp(-4.8), Mean: model.Temp(-3.2)})
	return NewWeatherReport(model.DefaultStation, set)
}

func createTestBoxPlot(t *testing.T) *BoxPlot {
	t.Helper()
	set := model.NewWeatherSet()
	set.Put(model.DailyRecord{Date: day(2000, time.January, 1), Mean: model.Temp(-15)})
	set.Put(model.DailyRecord{Date: day(2000, time.January, 2), Mean: model.Temp(-10)})
	set.Put(model.DailyRecord{Date: day(2000, time.July, 1), Mean: model.Temp(22.4)})
	stats, err := analysis.MonthlyBoxStats(set, 2000, 2000)
	if err != nil {
		t.Fatalf("MonthlyBoxStats failed: %v", err)
	}
	return &BoxPlot{Station: model.DefaultStation, FromYear: 2000, ToYear: 2000, Months: stats}
}

func createTestLinePlot() *LinePlot {
	return &LinePlot{
		Station: model.DefaultStation,
		Year:    2023,
		Month:   time.May,
		Points: []analysis.Point{
			{Date: day(2023, time.May, 1), Mean: model.Temp(4.5)},
			{Date: day(2023, time.May, 2), Mean: model.Absent()},
			{Date: day(2023, time.May, 3), Mean: model.Temp(11.25)},
		},
	}
}

func createTestRuns() []database.Run {
	start := day(2023, time.June, 10).Add(12 * time.Hour)
	return []database.Run{
		{
			ID: 2, StationID: 27174, StartedAt: start, FinishedAt: start.Add(1500 * time.Millisecond),
			Months: 2, Records: 1234, Inserted: 12, StopReason: "checkpoint reached",
		},
		{
			ID: 1, StationID: 27174, StartedAt: start.Add(-24 * time.Hour), FinishedAt: start.Add(-24 * time.Hour),
			StopReason: "fetch failed", Error: "unexpected HTTP status: 503",
		},
	}
}

// TestNewWeatherReport tests summary construction.
func TestNewWeatherReport(t *testing.T) {
	t.Parallel()

	r := createTestWeather()
	if r.Summary.Records != 2 || r.Summary.Complete != 1 {
		t.Errorf("unexpected summary %+v", r.Summary)
	}

	empty := NewWeatherReport(model.DefaultStation, nil)
	if empty.Weather == nil || empty.Summary.Records != 0 {
		t.Error("expected empty, non-nil weather")
	}
}

// TestSimpleWriter tests the terminal table writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes weather summary and records", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewSimpleWriter(&buf).WriteWeather(createTestWeather())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("expected %d bytes reported, got %d", buf.Len(), n)
		}

		output := buf.String()
		for _, want := range []string{"1997-12-01", "-3.2", "M", "0.5 °C on 1997-12-02"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}
	})

	t.Run("row limit keeps the newest records", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithRowLimit(1)).WriteWeather(createTestWeather()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "showing the newest 1 of 2 records") {
			t.Errorf("expected caption:\n%s", output)
		}
		if strings.Contains(output, "-4.8") {
			t.Errorf("expected older record to be hidden:\n%s", output)
		}
	})

	t.Run("writes box plot", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteBoxPlot(createTestBoxPlot(t)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"January", "-12.5", "July", "22.4", "December"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}
	})

	t.Run("writes line plot with bars", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteLinePlot(createTestLinePlot()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, strings.Repeat("█", barWidth)) {
			t.Errorf("expected a full-width bar for the warmest day:\n%s", output)
		}
	})

	t.Run("empty line plot prints not found", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		p := createTestLinePlot()
		p.Points = nil
		if _, err := NewSimpleWriter(&buf).WriteLinePlot(p); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := buf.String(); got != "Data for the date 2023-05 not found.\n" {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("writes runs with localized numbers", func(t *testing.T) {
		t.Parallel()

		now := day(2023, time.June, 10).Add(14 * time.Hour)
		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithNow(func() time.Time { return now }), WithLanguage(language.German))
		if _, err := w.WriteRuns(createTestRuns()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"1.234", "2 hours ago", "1.5s", "fetch failed: unexpected HTTP status: 503"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}
	})

	t.Run("no runs", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteRuns(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No downloads recorded.") {
			t.Errorf("unexpected output %q", buf.String())
		}
	})
}

// TestMarkdownWriter tests Markdown output.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("weather includes pie chart of missing readings", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteWeather(createTestWeather()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"# Weather Data", "```mermaid", "pie showData", `"Present" : 5`, `"Missing Mean" : 1`, "| 1997-12-02 | 0.5 | -7.5 | M |"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}
	})

	t.Run("empty weather adds a note", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteWeather(NewWeatherReport(model.DefaultStation, nil)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "[!NOTE]") {
			t.Errorf("expected note:\n%s", buf.String())
		}
	})

	t.Run("box plot renders xychart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteBoxPlot(createTestBoxPlot(t)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"xychart-beta", `x-axis ["Jan", "Jul"]`, "line [-13.8, 22.4]", "| Feb | 0 |"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}
	})

	t.Run("line plot skips absent points in the chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteLinePlot(createTestLinePlot()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"# Mean Temperatures for 2023-05", `x-axis ["1", "3"]`, "line [4.5, 11.2]", "| 2023-05-02 | M |"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}
	})

	t.Run("runs table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteRuns(createTestRuns()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "❌ fetch failed") {
			t.Errorf("expected failed run marker:\n%s", buf.String())
		}
	})
}

// TestXYChart tests the mermaid chart text.
func TestXYChart(t *testing.T) {
	t.Parallel()

	got := xyChart("T", []string{"1", "2"}, []float64{-3.2, 4})
	want := strings.Join([]string{
		"xychart-beta",
		`    title "T"`,
		`    x-axis ["1", "2"]`,
		`    y-axis "Mean Temperature (°C)" -5.0 --> 5.0`,
		"    line [-3.2, 4.0]",
	}, "\n")
	if got != want {
		t.Errorf("unexpected chart:\n%s\nwant:\n%s", got, want)
	}
}

// TestJSONWriter tests JSON output.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("weather keeps date keys in order", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithVersion("1.2.3")).WriteWeather(createTestWeather()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var doc struct {
			Version string `json:"version"`
			Kind    string `json:"kind"`
			Data    struct {
				Weather map[string]map[string]*float64 `json:"weather"`
			} `json:"data"`
		}
		if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
		}
		if doc.Version != "1.2.3" || doc.Kind != "weather" {
			t.Errorf("unexpected envelope %+v", doc)
		}
		if doc.Data.Weather["1997-12-02"]["Mean"] != nil {
			t.Error("expected null mean for 1997-12-02")
		}
		if v := doc.Data.Weather["1997-12-01"]["Max"]; v == nil || *v != -1.6 {
			t.Errorf("unexpected max %v", v)
		}
	})

	t.Run("pretty print", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).WriteRuns(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := "{\n  \"kind\": \"runs\",\n  \"data\": []\n}\n"
		if buf.String() != want {
			t.Errorf("unexpected output %q", buf.String())
		}
	})
}

// TestMultiWriter tests writing to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var text, js bytes.Buffer
	m := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))

	n, err := m.WriteLinePlot(createTestLinePlot())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != text.Len()+js.Len() {
		t.Errorf("expected %d bytes, got %d", text.Len()+js.Len(), n)
	}
	if !strings.Contains(js.String(), `"kind":"lineplot"`) {
		t.Errorf("unexpected JSON %s", js.String())
	}
}
