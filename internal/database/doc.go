// Package database provides SQLite-based storage for downloaded weather data.
//
// This package implements the WeatherDB, which stores:
//   - One row per station and sample date with the Max, Min and Mean readings
//   - A history of download runs (months fetched, records saved, stop reason)
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. UNIQUE(station_id, sample_date) with ON CONFLICT keeps stored readings
//
// Absent readings are stored as NULL so that "no measurement" stays distinct
// from 0.0 after a round trip.
package database
