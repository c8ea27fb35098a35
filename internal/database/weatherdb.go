package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/climatecrawl/internal/model"
)

// FileName is the name of the SQLite file inside the data directory.
const FileName = "climatecrawl.db"

// WeatherDB provides SQLite-based storage for daily weather records and
// download history.
//
// Design decision: All stations share one database file. The station ID is
// part of every key, so a purge or a checkpoint query can be scoped to one
// station without separate files.
type WeatherDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures WeatherDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a WeatherDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*WeatherDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw prevents modernc.org/sqlite from creating a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	wdb := &WeatherDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := wdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return wdb, nil
}

// Path returns the database file path.
func (wdb *WeatherDB) Path() string {
	return wdb.dbPath
}

// Close closes the database connection.
func (wdb *WeatherDB) Close() error {
	return wdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (wdb *WeatherDB) createTables() error {
	schema := `
	-- One row per station and day; readings are NULL when absent
	CREATE TABLE IF NOT EXISTS weather_data (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		station_id INTEGER NOT NULL,
		sample_date TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		max_temp REAL,
		min_temp REAL,
		avg_temp REAL,
		UNIQUE(station_id, sample_date)
	);

	CREATE INDEX IF NOT EXISTS idx_weather_date ON weather_data(sample_date);

	-- Download runs record what each crawl fetched and why it stopped
	CREATE TABLE IF NOT EXISTS download_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		station_id INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		checkpoint TEXT NOT NULL DEFAULT '',
		months INTEGER NOT NULL DEFAULT 0,
		records INTEGER NOT NULL DEFAULT 0,
		inserted INTEGER NOT NULL DEFAULT 0,
		stop_reason TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_runs_station ON download_runs(station_id);
	`

	_, err := wdb.db.ExecContext(context.Background(), schema)
	return err
}

// LatestDate returns the most recent sample date stored for a station that
// holds at least one reading. Days stored with every reading absent do not
// count, so the next download fetches their month again.
// The boolean is false when the station has no such rows.
func (wdb *WeatherDB) LatestDate(ctx context.Context, stationID int) (time.Time, bool, error) {
	query := `
	SELECT MAX(sample_date) FROM weather_data
	WHERE station_id = ?
	  AND (max_temp IS NOT NULL OR min_temp IS NOT NULL OR avg_temp IS NOT NULL)
	`

	var latest sql.NullString
	if err := wdb.db.QueryRowContext(ctx, query, stationID).Scan(&latest); err != nil {
		return time.Time{}, false, fmt.Errorf("failed to get latest date: %w", err)
	}
	if !latest.Valid || latest.String == "" {
		return time.Time{}, false, nil
	}

	date, err := model.ParseISODate(latest.String)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to parse latest date: %w", err)
	}
	return date, true, nil
}

// Upsert stores every record of set for station, skipping dates that are
// already stored. A stored day without any reading is replaced when set
// brings readings for it. It returns the number of rows inserted or filled.
//
// Design decision: Rows holding readings are never updated. A checkpoint
// crawl re-fetches the checkpoint month, so overwriting would turn every
// download into a rewrite of the newest month. Blank rows are the exception
// because the site publishes a day's readings after listing the day.
func (wdb *WeatherDB) Upsert(ctx context.Context, station model.Station, set *model.WeatherSet) (int64, error) {
	if set == nil || set.Len() == 0 {
		return 0, nil
	}

	tx, err := wdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO weather_data (station_id, sample_date, location, max_temp, min_temp, avg_temp)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(station_id, sample_date) DO UPDATE SET
		max_temp = excluded.max_temp,
		min_temp = excluded.min_temp,
		avg_temp = excluded.avg_temp
	WHERE weather_data.max_temp IS NULL
	  AND weather_data.min_temp IS NULL
	  AND weather_data.avg_temp IS NULL
	  AND (excluded.max_temp IS NOT NULL OR excluded.min_temp IS NOT NULL OR excluded.avg_temp IS NOT NULL)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for key, rec := range set.All() {
		result, err := stmt.ExecContext(ctx,
			station.ID,
			key,
			station.Location,
			nullReading(rec.Max),
			nullReading(rec.Min),
			nullReading(rec.Mean),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert %s: %w", key, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to count inserted rows: %w", err)
		}
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return inserted, nil
}

// Purge deletes every stored weather record of every station and returns the
// number of rows removed. Download history is kept.
func (wdb *WeatherDB) Purge(ctx context.Context) (int64, error) {
	result, err := wdb.db.ExecContext(ctx, `DELETE FROM weather_data`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge weather data: %w", err)
	}
	return result.RowsAffected()
}

// PurgeStation deletes the stored weather records of one station.
func (wdb *WeatherDB) PurgeStation(ctx context.Context, stationID int) (int64, error) {
	result, err := wdb.db.ExecContext(ctx, `DELETE FROM weather_data WHERE station_id = ?`, stationID)
	if err != nil {
		return 0, fmt.Errorf("failed to purge station %d: %w", stationID, err)
	}
	return result.RowsAffected()
}

// FetchAll returns every stored record of a station in ascending date order.
func (wdb *WeatherDB) FetchAll(ctx context.Context, stationID int) (*model.WeatherSet, error) {
	query := `
	SELECT sample_date, max_temp, min_temp, avg_temp
	FROM weather_data
	WHERE station_id = ?
	ORDER BY sample_date
	`
	return wdb.queryWeather(ctx, query, stationID)
}

// FetchRange returns the records of a station whose date lies in [from, to],
// in ascending date order.
func (wdb *WeatherDB) FetchRange(ctx context.Context, stationID int, from, to time.Time) (*model.WeatherSet, error) {
	query := `
	SELECT sample_date, max_temp, min_temp, avg_temp
	FROM weather_data
	WHERE station_id = ? AND sample_date >= ? AND sample_date <= ?
	ORDER BY sample_date
	`
	return wdb.queryWeather(ctx, query, stationID, model.FormatISODate(from), model.FormatISODate(to))
}

// queryWeather runs a query selecting (sample_date, max, min, avg) rows.
func (wdb *WeatherDB) queryWeather(ctx context.Context, query string, args ...any) (*model.WeatherSet, error) {
	rows, err := wdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query weather data: %w", err)
	}
	defer rows.Close()

	set := model.NewWeatherSet()
	for rows.Next() {
		var (
			sampleDate       string
			maxT, minT, avgT sql.NullFloat64
		)
		if err := rows.Scan(&sampleDate, &maxT, &minT, &avgT); err != nil {
			return nil, fmt.Errorf("failed to scan weather row: %w", err)
		}

		date, err := model.ParseISODate(sampleDate)
		if err != nil {
			continue // Skip rows written by something other than climatecrawl
		}
		set.Put(model.DailyRecord{
			Date: date,
			Max:  readingOf(maxT),
			Min:  readingOf(minT),
			Mean: readingOf(avgT),
		})
	}

	return set, rows.Err()
}

// Count returns the number of stored records for a station.
func (wdb *WeatherDB) Count(ctx context.Context, stationID int) (int, error) {
	var count int
	err := wdb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM weather_data WHERE station_id = ?`, stationID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count weather data: %w", err)
	}
	return count, nil
}

// Stations lists the stations that have stored records, ordered by ID.
func (wdb *WeatherDB) Stations(ctx context.Context) ([]model.Station, error) {
	query := `
	SELECT station_id, MAX(location)
	FROM weather_data
	GROUP BY station_id
	ORDER BY station_id
	`

	rows, err := wdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}
	defer rows.Close()

	var stations []model.Station
	for rows.Next() {
		var st model.Station
		if err := rows.Scan(&st.ID, &st.Location); err != nil {
			return nil, fmt.Errorf("failed to scan station: %w", err)
		}
		stations = append(stations, st)
	}

	return stations, rows.Err()
}

// Run is one recorded download.
type Run struct {
	// ID is the unique identifier of the run in the database.
	ID int64 `json:"id"`

	// StationID is the station that was crawled.
	StationID int `json:"stationId"`

	// StartedAt and FinishedAt bracket the crawl.
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	// Checkpoint is the date the crawl stopped at; zero means the epoch.
	Checkpoint time.Time `json:"checkpoint"`

	// Months is the number of month pages fetched.
	Months int `json:"months"`

	// Records is the number of daily records the crawl returned.
	Records int `json:"records"`

	// Inserted is the number of records that were new to the database.
	Inserted int64 `json:"inserted"`

	// StopReason is why the crawl ended.
	StopReason string `json:"stopReason"`

	// Error is the fetch error message, if any.
	Error string `json:"error,omitempty"`
}

// Duration returns how long the run took.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// SaveRun records a download run and returns its ID.
func (wdb *WeatherDB) SaveRun(ctx context.Context, run *Run) (int64, error) {
	if run == nil {
		return 0, errors.New("run is nil")
	}

	checkpoint := ""
	if !run.Checkpoint.IsZero() {
		checkpoint = model.FormatISODate(run.Checkpoint)
	}

	query := `
	INSERT INTO download_runs (station_id, started_at, finished_at, checkpoint, months, records, inserted, stop_reason, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := wdb.db.ExecContext(ctx, query,
		run.StationID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		checkpoint,
		run.Months,
		run.Records,
		run.Inserted,
		run.StopReason,
		run.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save download run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}
	run.ID = id
	return id, nil
}

// ListRuns returns the most recent download runs, newest first.
// stationID 0 lists runs of every station; limit <= 0 means no limit.
func (wdb *WeatherDB) ListRuns(ctx context.Context, stationID, limit int) ([]Run, error) {
	query := `
	SELECT id, station_id, started_at, finished_at, checkpoint, months, records, inserted, stop_reason, error
	FROM download_runs
	WHERE 1=1
	`
	args := make([]any, 0)

	if stationID != 0 {
		query += " AND station_id = ?"
		args = append(args, stationID)
	}
	query += " ORDER BY started_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := wdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list download runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run               Run
			started, finished string
			checkpoint        string
		)
		err := rows.Scan(
			&run.ID,
			&run.StationID,
			&started,
			&finished,
			&checkpoint,
			&run.Months,
			&run.Records,
			&run.Inserted,
			&run.StopReason,
			&run.Error,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan download run: %w", err)
		}

		run.StartedAt = parseTimestamp(started)
		run.FinishedAt = parseTimestamp(finished)
		if checkpoint != "" {
			run.Checkpoint, _ = model.ParseISODate(checkpoint) //nolint:errcheck // written by SaveRun
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// nullReading converts a reading to a nullable SQL value.
func nullReading(r model.Reading) sql.NullFloat64 {
	return sql.NullFloat64{Float64: r.Value, Valid: r.Valid}
}

// readingOf converts a nullable SQL value to a reading.
func readingOf(v sql.NullFloat64) model.Reading {
	if !v.Valid {
		return model.Absent()
	}
	return model.Temp(v.Float64)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,          // Format written by SaveRun
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
