// Package model defines the core data structures used throughout climatecrawl.
//
// This package contains the following main types:
//   - Reading: A single temperature value that may be absent
//   - DailyRecord: The Max/Min/Mean readings for one calendar day
//   - WeatherSet: An insertion-ordered collection of DailyRecords keyed by date
//   - Month: A calendar month, the unit of pagination on the climate site
//   - Station: The weather station a set of records belongs to
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The crawler, database, analysis and report packages all
// exchange WeatherSets, so centralizing them prevents import cycles.
//
// Dates are always handled as UTC midnight values and keyed by their ISO
// representation (YYYY-MM-DD), which sorts lexically in date order.
package model
