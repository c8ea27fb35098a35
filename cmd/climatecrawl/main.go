// Package main provides the entry point for the climatecrawl CLI.
//
// climatecrawl downloads daily temperature records of weather stations from
// the climate data site, keeps them in a local SQLite database and plots
// monthly statistics.
//
// Usage:
//
//	climatecrawl download
//	climatecrawl boxplot 1990 2020
//	climatecrawl lineplot 2023 5
//	climatecrawl menu
//
// See --help for all available options.
package main

// main is the entry point for climatecrawl.
func main() {
	Execute()
}
