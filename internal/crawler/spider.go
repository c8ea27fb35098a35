package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/nao1215/climatecrawl/internal/model"
)

const (
	// DefaultBaseURL is the daily data page of the climate site.
	DefaultBaseURL = "http://climate.weather.gc.ca/climate_data/daily_data_e.html"

	// NoDataMarker is the text the site returns for a month it has no data for.
	NoDataMarker = "We're sorry we were unable to satisfy your request."

	// DefaultEpoch is the oldest date a crawl without checkpoint reaches back to.
	DefaultEpoch = "1950-01-01"
)

// ErrUnexpectedStatus is returned for non-2xx page responses.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// BuildURL returns the page URL for one station month.
// The timeframe (2 = daily) and StartYear are fixed parameters of the site.
func BuildURL(baseURL string, stationID int, m model.Month) string {
	return fmt.Sprintf("%s?StationID=%d&timeframe=2&StartYear=1840&EndYear=%d&Day=1&Year=%d&Month=%d#",
		baseURL, stationID, m.Year, m.Year, int(m.Month))
}

// HasNoDataMarker reports whether body is the site's "no data" response.
func HasNoDataMarker(body string) bool {
	if strings.Contains(body, NoDataMarker) {
		return true
	}
	text := strings.ReplaceAll(html.UnescapeString(body), "’", "'")
	return strings.Contains(text, NoDataMarker)
}

// StopReason explains why a crawl ended.
type StopReason int

const (
	// StopCheckpoint means every month after the checkpoint was requested.
	StopCheckpoint StopReason = iota

	// StopNoData means the site answered with its "no data" marker.
	StopNoData

	// StopFetchFailed means a page could not be fetched or decoded.
	StopFetchFailed

	// StopCancelled means the context was cancelled.
	StopCancelled
)

// String returns a human-readable stop reason.
func (r StopReason) String() string {
	switch r {
	case StopCheckpoint:
		return "checkpoint reached"
	case StopNoData:
		return "end of data"
	case StopFetchFailed:
		return "fetch failed"
	case StopCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Result is the outcome of one crawl.
// Weather is never nil; on early termination it holds the partial result.
type Result struct {
	// Station is the station that was crawled.
	Station model.Station

	// Weather holds every record merged during the crawl.
	Weather *model.WeatherSet

	// Months lists the months whose pages were fetched, newest first.
	Months []model.Month

	// Reason is why the crawl ended.
	Reason StopReason

	// Err is the fetch or context error behind StopFetchFailed/StopCancelled.
	Err error
}

// Spider crawls month pages of one station backward in time.
//
// Design decision: We call it "Spider" rather than "Crawler" because:
//  1. "Spider" is the traditional term for web crawlers
//  2. Distinguishes the component from the package name
//  3. Clearer in code: crawler.NewSpider() vs crawler.NewCrawler()
type Spider struct {
	// client is the HTTP client used for page fetches.
	client *http.Client

	// baseURL is the daily data page; month parameters are appended to it.
	baseURL string

	// station is the station whose pages are requested.
	station model.Station

	// userAgent is the User-Agent header to use.
	userAgent string

	// headers are extra request headers (e.g. cookies) from station config.
	headers map[string]string

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64

	// delay is the time to wait between requests.
	delay time.Duration

	// epoch is the stop date used when no checkpoint is given.
	epoch time.Time

	// emptyTolerance is how many consecutive "no data" months are skipped
	// before the crawl stops. 0 stops at the first one.
	emptyTolerance int

	// now returns the current time; replaced in tests.
	now func() time.Time

	logger *slog.Logger
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithBaseURL sets the daily data page URL.
func WithBaseURL(u string) SpiderOption {
	return func(s *Spider) {
		s.baseURL = u
	}
}

// WithStation sets the station to crawl.
func WithStation(st model.Station) SpiderOption {
	return func(s *Spider) {
		s.station = st
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) SpiderOption {
	return func(s *Spider) {
		s.userAgent = ua
	}
}

// WithHeaders adds custom request headers.
func WithHeaders(headers map[string]string) SpiderOption {
	return func(s *Spider) {
		s.headers = headers
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) SpiderOption {
	return func(s *Spider) {
		if size > 0 {
			s.maxBodySize = size
		}
	}
}

// WithDelay sets the delay between requests.
func WithDelay(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.delay = d
	}
}

// WithEpoch sets the stop date used when Crawl receives no checkpoint.
func WithEpoch(epoch time.Time) SpiderOption {
	return func(s *Spider) {
		s.epoch = model.DateOf(epoch)
	}
}

// WithEmptyMonthTolerance lets the crawl continue past up to n consecutive
// "no data" months before stopping. The site's contract is that no older
// data exists once the marker appears, so the default is 0.
func WithEmptyMonthTolerance(n int) SpiderOption {
	return func(s *Spider) {
		if n >= 0 {
			s.emptyTolerance = n
		}
	}
}

// WithClock replaces the clock used to determine "today".
func WithClock(now func() time.Time) SpiderOption {
	return func(s *Spider) {
		s.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// NewSpider creates a new Spider with the given HTTP client.
//
// Design decision: We require an external client because:
//  1. Timeouts and proxies are configured once by the caller
//  2. Tests can point the spider at an httptest server
func NewSpider(client *http.Client, opts ...SpiderOption) *Spider {
	epoch, _ := time.Parse(model.ISODateLayout, DefaultEpoch) //nolint:errcheck // constant layout

	s := &Spider{
		client:      client,
		baseURL:     DefaultBaseURL,
		station:     model.DefaultStation,
		userAgent:   "climatecrawl/1.0 (+https://github.com/nao1215/climatecrawl)",
		maxBodySize: 5 * 1024 * 1024, // 5MB
		delay:       500 * time.Millisecond,
		epoch:       epoch,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		s.client = http.DefaultClient
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Crawl downloads every month from today back to checkpoint (exclusive) and
// returns the merged records. A zero checkpoint crawls back to the epoch.
//
// Crawl never fails: a fetch error or cancellation ends the loop and is
// reported through Result.Reason and Result.Err alongside the records
// gathered so far.
func (s *Spider) Crawl(ctx context.Context, checkpoint time.Time) *Result {
	stop := s.epoch
	if !checkpoint.IsZero() {
		stop = model.DateOf(checkpoint)
	}

	result := &Result{
		Station: s.station,
		Weather: model.NewWeatherSet(),
		Months:  make([]model.Month, 0),
		Reason:  StopCheckpoint,
	}

	s.logger.Info("starting crawl",
		"station", s.station.ID,
		"stop", model.FormatISODate(stop),
	)

	today := model.DateOf(s.now())
	emptyRun := 0
	for month := range Months(today, stop) {
		if len(result.Months) > 0 && s.delay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(s.delay):
			}
		}
		if err := ctx.Err(); err != nil {
			result.Reason = StopCancelled
			result.Err = err
			break
		}

		pageURL := BuildURL(s.baseURL, s.station.ID, month)
		s.logger.Debug("fetching month", "station", s.station.ID, "month", month.String(), "url", pageURL)

		body, err := s.fetch(ctx, pageURL)
		if err != nil {
			result.Reason = StopFetchFailed
			if ctx.Err() != nil {
				result.Reason = StopCancelled
			}
			result.Err = fmt.Errorf("fetch %s: %w", month, err)
			s.logger.Warn("page fetch failed", "station", s.station.ID, "month", month.String(), "error", err)
			break
		}
		result.Months = append(result.Months, month)

		if HasNoDataMarker(body) {
			emptyRun++
			s.logger.Debug("no data for month", "station", s.station.ID, "month", month.String())
			if emptyRun > s.emptyTolerance {
				result.Reason = StopNoData
				break
			}
			continue
		}
		emptyRun = 0

		page, err := Walk(strings.NewReader(body))
		if err != nil {
			s.logger.Warn("page could not be fully parsed", "month", month.String(), "error", err)
		}
		// The current month lists the days still to come with blank cells.
		result.Weather.Merge(page.Filter(func(rec model.DailyRecord) bool {
			return !rec.Date.After(today)
		}))
	}

	s.logger.Info("crawl finished",
		"station", s.station.ID,
		"months", len(result.Months),
		"records", result.Weather.Len(),
		"reason", result.Reason.String(),
	)

	return result
}

// fetch downloads one page and returns it decoded to UTF-8.
func (s *Spider) fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}

	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	// Read body with limit, converting from the declared charset
	reader, err := charset.NewReader(io.LimitReader(resp.Body, s.maxBodySize), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("decode body: %w", err)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	return string(body), nil
}
