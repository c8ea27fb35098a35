// Package analysis turns stored weather records into the numbers behind the
// box plot, the line plot and the download summary.
//
// Functions only read the given WeatherSet; absent readings are skipped
// rather than treated as zero.
package analysis
