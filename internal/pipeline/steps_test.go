package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/climatecrawl/internal/config"
	"github.com/nao1215/climatecrawl/internal/crawler"
	"github.com/nao1215/climatecrawl/internal/database"
	"github.com/nao1215/climatecrawl/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// fakeCrawler returns a canned result and records the checkpoints it saw.
type fakeCrawler struct {
	mu          sync.Mutex
	results     map[int]*crawler.Result
	checkpoints map[int][]time.Time
}

func newFakeCrawler() *fakeCrawler {
	return &fakeCrawler{
		results:     make(map[int]*crawler.Result),
		checkpoints: make(map[int][]time.Time),
	}
}

type stationCrawler struct {
	parent  *fakeCrawler
	station model.Station
}

func (s stationCrawler) Crawl(_ context.Context, checkpoint time.Time) *crawler.Result {
	f := s.parent
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkpoints[s.station.ID] = append(f.checkpoints[s.station.ID], checkpoint)
	if r, ok := f.results[s.station.ID]; ok {
		return r
	}
	return &crawler.Result{Station: s.station, Weather: model.NewWeatherSet(), Reason: crawler.StopNoData}
}

func (f *fakeCrawler) factory() CrawlerFactory {
	return func(station model.Station) Crawler {
		return stationCrawler{parent: f, station: station}
	}
}

func (f *fakeCrawler) set(id int, r *crawler.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[id] = r
}

func (f *fakeCrawler) seen(id int) []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.checkpoints[id]...)
}

// failingStore fails every call with err.
type failingStore struct {
	err error
}

func (s failingStore) LatestDate(context.Context, int) (time.Time, bool, error) {
	return time.Time{}, false, s.err
}

func (s failingStore) Upsert(context.Context, model.Station, *model.WeatherSet) (int64, error) {
	return 0, s.err
}

func (s failingStore) SaveRun(context.Context, *database.Run) (int64, error) {
	return 0, s.err
}

func setupStore(t *testing.T) *database.WeatherDB {
	t.Helper()
	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() }) //nolint:errcheck
	return db
}

func weatherOf(records ...model.DailyRecord) *model.WeatherSet {
	set := model.NewWeatherSet()
	for _, r := range records {
		set.Put(r)
	}
	return set
}

// TestDownloader tests the default download pipeline against a real store.
func TestDownloader(t *testing.T) {
	t.Parallel()

	st := model.DefaultStation

	t.Run("stores records and resumes from the newest date", func(t *testing.T) {
		t.Parallel()

		store := setupStore(t)
		fc := newFakeCrawler()
		fc.set(st.ID, &crawler.Result{
			Station: st,
			Weather: weatherOf(
				model.DailyRecord{Date: day(2023, time.May, 16), Max: model.Temp(19), Min: model.Temp(9), Mean: model.Temp(14)},
				model.DailyRecord{Date: day(2023, time.May, 15), Max: model.Temp(18), Min: model.Temp(8), Mean: model.Absent()},
			),
			Months: []model.Month{{Year: 2023, Month: time.May}},
			Reason: crawler.StopNoData,
		})
		d := NewDownloader(store, fc.factory())

		job := d.Download(t.Context(), st)

		if job.Status() != StatusSaved {
			t.Fatalf("expected saved, got %v (error %v)", job.Status(), job.Error)
		}
		if job.Inserted != 2 {
			t.Errorf("expected 2 inserted, got %d", job.Inserted)
		}
		if diff := cmp.Diff([]string{"checkpoint", "crawl", "store", "record_run"}, job.PerformedSteps); diff != "" {
			t.Errorf("steps mismatch (-want +got):\n%s", diff)
		}

		// The second run starts from the newest stored day and adds nothing.
		job = d.Download(t.Context(), st)
		if job.Inserted != 0 {
			t.Errorf("expected nothing new, got %d", job.Inserted)
		}

		want := []time.Time{{}, day(2023, time.May, 16)}
		if diff := cmp.Diff(want, fc.seen(st.ID)); diff != "" {
			t.Errorf("checkpoints mismatch (-want +got):\n%s", diff)
		}

		runs, err := store.ListRuns(t.Context(), st.ID, 0)
		if err != nil {
			t.Fatalf("ListRuns failed: %v", err)
		}
		if len(runs) != 2 {
			t.Fatalf("expected 2 runs, got %d", len(runs))
		}
		if runs[1].Inserted != 2 || runs[1].Records != 2 || runs[1].Months != 1 || runs[1].StopReason != "end of data" {
			t.Errorf("unexpected first run %+v", runs[1])
		}
		if !runs[0].Checkpoint.Equal(day(2023, time.May, 16)) {
			t.Errorf("expected checkpoint on second run, got %v", runs[0].Checkpoint)
		}
	})

	t.Run("blank days do not move the checkpoint", func(t *testing.T) {
		t.Parallel()

		store := setupStore(t)
		fc := newFakeCrawler()
		blank := model.DailyRecord{Date: day(2026, time.October, 20), Max: model.Absent(), Min: model.Absent(), Mean: model.Absent()}
		fc.set(st.ID, &crawler.Result{
			Station: st,
			Weather: weatherOf(
				blank,
				model.DailyRecord{Date: day(2026, time.October, 19), Max: model.Temp(9.5), Min: model.Temp(1.5), Mean: model.Temp(5.5)},
			),
			Months: []model.Month{{Year: 2026, Month: time.October}},
			Reason: crawler.StopNoData,
		})
		d := NewDownloader(store, fc.factory())

		if job := d.Download(t.Context(), st); job.Inserted != 2 {
			t.Fatalf("expected 2 inserted, got %d (error %v)", job.Inserted, job.Error)
		}

		// The next day the site publishes the readings of the blank day.
		filled := blank
		filled.Max, filled.Min, filled.Mean = model.Temp(7), model.Temp(-1), model.Temp(3)
		fc.set(st.ID, &crawler.Result{
			Station: st,
			Weather: weatherOf(filled),
			Months:  []model.Month{{Year: 2026, Month: time.October}},
			Reason:  crawler.StopCheckpoint,
		})

		job := d.Download(t.Context(), st)
		if job.Status() != StatusSaved || job.Inserted != 1 {
			t.Errorf("expected the blank day to be filled, got %v with %d new", job.Status(), job.Inserted)
		}

		want := []time.Time{{}, day(2026, time.October, 19)}
		if diff := cmp.Diff(want, fc.seen(st.ID)); diff != "" {
			t.Errorf("checkpoints mismatch (-want +got):\n%s", diff)
		}

		got, err := store.FetchAll(t.Context(), st.ID)
		if err != nil {
			t.Fatalf("FetchAll failed: %v", err)
		}
		if rec, _ := got.Get("2026-10-20"); rec.Mean != model.Temp(3) {
			t.Errorf("expected the filled mean, got %+v", rec.Mean)
		}
	})

	t.Run("partial crawl is stored and its error recorded", func(t *testing.T) {
		t.Parallel()

		store := setupStore(t)
		fc := newFakeCrawler()
		fc.set(st.ID, &crawler.Result{
			Station: st,
			Weather: weatherOf(model.DailyRecord{Date: day(2023, time.June, 1), Mean: model.Temp(15.2)}),
			Months:  []model.Month{{Year: 2023, Month: time.June}},
			Reason:  crawler.StopFetchFailed,
			Err:     errors.New("fetch 2023-05: unexpected HTTP status: 500"),
		})

		job := NewDownloader(store, fc.factory()).Download(t.Context(), st)

		if job.Status() != StatusSaved {
			t.Errorf("expected saved, got %v", job.Status())
		}
		if job.Run.Error != "fetch 2023-05: unexpected HTTP status: 500" {
			t.Errorf("unexpected run error %q", job.Run.Error)
		}
		if job.Run.ID == 0 {
			t.Error("expected run to be saved")
		}
		n, err := store.Count(t.Context(), st.ID)
		if err != nil || n != 1 {
			t.Errorf("expected 1 stored record, got %d (%v)", n, err)
		}
	})

	t.Run("empty crawl is reported as failed", func(t *testing.T) {
		t.Parallel()

		store := setupStore(t)
		job := NewDownloader(store, newFakeCrawler().factory()).Download(t.Context(), st)

		if job.Status() != StatusFailed {
			t.Errorf("expected failed, got %v", job.Status())
		}
		if job.Status().String() != "failed to download" {
			t.Errorf("unexpected status text %q", job.Status().String())
		}
		if job.Run.StopReason != "end of data" {
			t.Errorf("unexpected stop reason %q", job.Run.StopReason)
		}
	})

	t.Run("nothing past the checkpoint is up to date", func(t *testing.T) {
		t.Parallel()

		store := setupStore(t)
		fc := newFakeCrawler()
		fc.set(st.ID, &crawler.Result{Station: st, Weather: model.NewWeatherSet(), Reason: crawler.StopCheckpoint})

		job := NewDownloader(store, fc.factory()).Download(t.Context(), st)

		if job.Status() != StatusUpToDate {
			t.Errorf("expected up to date, got %v", job.Status())
		}
	})

	t.Run("store failure stops before the crawl", func(t *testing.T) {
		t.Parallel()

		errDB := errors.New("database is locked")
		fc := newFakeCrawler()
		job := NewDownloader(failingStore{err: errDB}, fc.factory()).Download(t.Context(), st)

		if !errors.Is(job.Error, errDB) {
			t.Errorf("expected errDB, got %v", job.Error)
		}
		if len(fc.seen(st.ID)) != 0 {
			t.Error("expected no crawl")
		}
		if job.StopReason() != "not started" {
			t.Errorf("unexpected stop reason %q", job.StopReason())
		}
		if diff := cmp.Diff([]string{"checkpoint", "record_run"}, job.PerformedSteps); diff != "" {
			t.Errorf("steps mismatch (-want +got):\n%s", diff)
		}
	})
}

// TestStatusString tests the download outcome messages.
func TestStatusString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status Status
		want   string
	}{
		{StatusSaved, "saved"},
		{StatusUpToDate, "up to date"},
		{StatusFailed, "failed to download"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

// TestNewSpiderFactory tests that spiders are configured from the config file.
func TestNewSpiderFactory(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var got []*http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		got = append(got, r.Clone(context.Background()))
		mu.Unlock()
		_, _ = w.Write([]byte(`<p>We're sorry we were unable to satisfy your request.</p>`)) //nolint:errcheck
	}))
	t.Cleanup(server.Close)

	// With the epoch set to yesterday only the current month can be newer.
	yesterday := model.DateOf(time.Now()).AddDate(0, 0, -1)

	cfg := config.NewConfig()
	cfg.BaseURL = server.URL + "/climate_data/daily_data_e.html"
	cfg.RequestDelay = 0
	cfg.UserAgent = "climatecrawl-test"
	cfg.Stations = &config.File{
		Stations: map[int]config.StationConfig{
			51097: {
				Cookie:  "session=abc",
				Headers: map[string]string{"Accept-Language": "en"},
				Epoch:   model.FormatISODate(yesterday),
			},
		},
	}

	station := model.Station{ID: 51097}
	result := NewSpiderFactory(server.Client(), cfg, nil)(station).Crawl(t.Context(), time.Time{})

	if result.Reason != crawler.StopNoData {
		t.Errorf("expected StopNoData, got %v", result.Reason)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("expected 1 request, got %d", len(got))
	}
	r := got[0]
	if r.URL.Query().Get("StationID") != "51097" {
		t.Errorf("unexpected query %q", r.URL.RawQuery)
	}
	if r.Header.Get("User-Agent") != "climatecrawl-test" {
		t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
	}
	if r.Header.Get("Cookie") != "session=abc" {
		t.Errorf("unexpected cookie %q", r.Header.Get("Cookie"))
	}
	if r.Header.Get("Accept-Language") != "en" {
		t.Errorf("unexpected Accept-Language %q", r.Header.Get("Accept-Language"))
	}
}
