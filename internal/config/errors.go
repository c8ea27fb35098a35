package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling.
var (
	// ErrNoStation is returned when no station is selected.
	ErrNoStation = errors.New("no station specified: use --station")

	// ErrInvalidStationID is returned for a station ID that is not positive.
	ErrInvalidStationID = errors.New("invalid station ID: must be positive")

	// ErrInvalidBaseURL is returned when the base URL is not an http(s) URL.
	ErrInvalidBaseURL = errors.New("invalid base URL: must be an absolute http or https URL")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidRequestDelay is returned when the request delay is negative.
	ErrInvalidRequestDelay = errors.New("invalid request delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidEpoch is returned when the epoch is not a YYYY-MM-DD date.
	ErrInvalidEpoch = errors.New("invalid epoch: must be a YYYY-MM-DD date")

	// ErrInvalidEmptyMonthTolerance is returned when the tolerance is negative.
	ErrInvalidEmptyMonthTolerance = errors.New("invalid empty month tolerance: must be non-negative")
)
