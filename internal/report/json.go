package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/climatecrawl/internal/database"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because the payloads are small and the WeatherSet already
// implements json.Marshaler to keep its date order.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is written into every document; empty omits it.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion adds the climatecrawl version to every document.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Document is the top-level JSON object written by JSONWriter.
type Document struct {
	// Version is the climatecrawl version that produced the document.
	Version string `json:"version,omitempty"`

	// Kind names the payload: "weather", "boxplot", "lineplot" or "runs".
	Kind string `json:"kind"`

	// Data is the payload.
	Data any `json:"data"`
}

// WriteWeather outputs the weather report in JSON format.
func (w *JSONWriter) WriteWeather(r *WeatherReport) (int, error) {
	return w.writeJSON("weather", r)
}

// WriteBoxPlot outputs the box plot statistics in JSON format.
func (w *JSONWriter) WriteBoxPlot(p *BoxPlot) (int, error) {
	return w.writeJSON("boxplot", p)
}

// WriteLinePlot outputs the line plot series in JSON format.
func (w *JSONWriter) WriteLinePlot(p *LinePlot) (int, error) {
	return w.writeJSON("lineplot", p)
}

// WriteRuns outputs the download history in JSON format.
func (w *JSONWriter) WriteRuns(runs []database.Run) (int, error) {
	if runs == nil {
		runs = []database.Run{}
	}
	return w.writeJSON("runs", runs)
}

// writeJSON marshals the payload inside a Document and writes it.
func (w *JSONWriter) writeJSON(kind string, v any) (int, error) {
	doc := Document{Version: w.version, Kind: kind, Data: v}

	var data []byte
	var err error
	if w.indent {
		data, err = json.MarshalIndent(doc, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
