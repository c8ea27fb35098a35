// Package report provides output of weather data, plots and download history.
//
// This package contains writers for different output formats:
//   - SimpleWriter: terminal tables rendered with go-pretty
//   - MarkdownWriter: GitHub Flavored Markdown with mermaid charts
//   - JSONWriter: structured JSON output for tool integration
//
// Design decision: We separate report writing from the data (model and
// analysis packages) so that new output formats can be added without
// touching the statistics. Plots are rendered as data (tables, mermaid
// charts) rather than images so that every format works in a terminal.
package report
