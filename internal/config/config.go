package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/climatecrawl/internal/model"
)

// Default configuration values.
const (
	// DefaultBaseURL is the daily data page of the climate site. Station and
	// month parameters are appended per request.
	DefaultBaseURL = "http://climate.weather.gc.ca/climate_data/daily_data_e.html"

	// DefaultTimeout bounds a single page request. Month pages are small, so
	// 30 seconds only trips on a stalled connection.
	DefaultTimeout = 30 * time.Second

	// DefaultConcurrency is the number of stations downloaded at the same time.
	// Months of one station are always fetched one after another.
	DefaultConcurrency = 2

	// AppName is the application name used for XDG directory paths.
	AppName = "climatecrawl"

	// DefaultRequestDelay is the delay between two month requests of one station.
	// It keeps a full download from the epoch polite towards a public service.
	DefaultRequestDelay = 500 * time.Millisecond

	// DefaultUserAgent identifies climatecrawl in HTTP requests.
	DefaultUserAgent = "climatecrawl/1.0 (+https://github.com/nao1215/climatecrawl)"

	// DefaultMaxBodySize limits the maximum response body size to read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultEpoch is the oldest date a download reaches back to when the
	// database holds nothing for a station.
	DefaultEpoch = "1950-01-01"

	// DefaultSchedule is the cron spec used by the schedule command.
	DefaultSchedule = "@daily"
)

// Config holds all configuration options for climatecrawl.
// This struct is populated from CLI flags, the config file and the
// environment, and passed through the application rather than kept global.
//
// Design decision: We keep a single flat struct like the rest of the CLI
// settings. Per-station options live in the File loaded from .climatecrawl.
type Config struct {
	// BaseURL is the daily data page URL.
	BaseURL string

	// Timeout is the timeout for each HTTP request.
	Timeout time.Duration

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// Concurrency is the number of stations downloaded at the same time.
	Concurrency int

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .climatecrawl in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// Stations holds station configurations loaded from the config file.
	Stations *File

	// StationIDs are the stations to download. Defaults to the Winnipeg station.
	StationIDs []int

	// JSONReport enables JSON output instead of human-readable tables.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown output with mermaid charts.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for reports.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// DBDir is the directory path for storing the SQLite database.
	// Defaults to XDG data directory (~/.local/share/climatecrawl on Linux).
	DBDir string

	// RequestDelay is the delay between month requests of one station.
	RequestDelay time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// Epoch is the ISO date a download without checkpoint stops at.
	Epoch string

	// EmptyMonthTolerance is the number of consecutive "no data" months that
	// are skipped before a download stops. 0 stops at the first one.
	EmptyMonthTolerance int

	// Schedule is the cron spec for periodic downloads.
	Schedule string
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because most defaults are non-zero (timeout, delay, epoch).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		BaseURL:      DefaultBaseURL,
		Timeout:      DefaultTimeout,
		Concurrency:  DefaultConcurrency,
		StationIDs:   []int{model.DefaultStation.ID},
		RequestDelay: DefaultRequestDelay,
		UserAgent:    DefaultUserAgent,
		MaxBodySize:  DefaultMaxBodySize,
		Epoch:        DefaultEpoch,
		Schedule:     DefaultSchedule,
	}
}

// XDGDataDir returns the XDG data directory for climatecrawl.
// On Linux: ~/.local/share/climatecrawl
// On macOS: ~/Library/Application Support/climatecrawl
// On Windows: %LOCALAPPDATA%\climatecrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for climatecrawl.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// EpochDate returns Epoch parsed as a date.
func (c *Config) EpochDate() (time.Time, error) {
	return model.ParseISODate(c.Epoch)
}

// Station resolves a station ID to its display data, using the config file
// entry when one exists.
func (c *Config) Station(id int) model.Station {
	if c.Stations == nil {
		return (&File{}).Station(id)
	}
	return c.Stations.Station(id)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We return the first error found rather than collecting
// all errors because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if len(c.StationIDs) == 0 {
		return ErrNoStation
	}
	for _, id := range c.StationIDs {
		if id <= 0 {
			return ErrInvalidStationID
		}
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidBaseURL
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.RequestDelay < 0 {
		return ErrInvalidRequestDelay
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if _, err := c.EpochDate(); err != nil {
		return ErrInvalidEpoch
	}

	if c.EmptyMonthTolerance < 0 {
		return ErrInvalidEmptyMonthTolerance
	}

	return nil
}
