package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/climatecrawl/internal/crawler"
	"github.com/nao1215/climatecrawl/internal/model"
)

func emptyPipeline() *Pipeline {
	return New()
}

// TestNewBatchProcessor tests the BatchProcessor constructor.
func TestNewBatchProcessor(t *testing.T) {
	t.Parallel()

	t.Run("uses default concurrency", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(emptyPipeline)
		if bp.concurrency != 2 {
			t.Errorf("expected concurrency 2, got %d", bp.concurrency)
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(emptyPipeline, WithConcurrency(0), WithConcurrency(-3))
		if bp.concurrency != 2 {
			t.Errorf("expected concurrency 2, got %d", bp.concurrency)
		}
		if NewBatchProcessor(emptyPipeline, WithConcurrency(5)).concurrency != 5 {
			t.Error("expected concurrency 5")
		}
	})
}

// TestProcessBatch tests concurrent downloads of several stations.
func TestProcessBatch(t *testing.T) {
	t.Parallel()

	stations := []model.Station{
		{ID: 27174, Name: "Winnipeg"},
		{ID: 51097, Name: "Brandon"},
		{ID: 3698, Name: "Gimli"},
	}

	t.Run("returns jobs in input order", func(t *testing.T) {
		t.Parallel()

		store := setupStore(t)
		fc := newFakeCrawler()
		for i, st := range stations[:2] {
			fc.set(st.ID, &crawler.Result{
				Station: st,
				Weather: weatherOf(model.DailyRecord{Date: day(2023, time.June, i+1), Mean: model.Temp(float64(i))}),
				Reason:  crawler.StopNoData,
			})
		}

		d := NewDownloader(store, fc.factory())
		jobs, err := NewBatchProcessor(d.Pipeline, WithConcurrency(2)).ProcessBatch(t.Context(), stations)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(jobs) != len(stations) {
			t.Fatalf("expected %d jobs, got %d", len(stations), len(jobs))
		}
		for i, job := range jobs {
			if job.Station.ID != stations[i].ID {
				t.Errorf("job %d: expected station %d, got %d", i, stations[i].ID, job.Station.ID)
			}
		}
		if jobs[0].Status() != StatusSaved || jobs[1].Status() != StatusSaved {
			t.Error("expected the first two stations to be saved")
		}
		if jobs[2].Status() != StatusFailed {
			t.Errorf("expected the third station to fail, got %v", jobs[2].Status())
		}

		stored, err := store.Stations(t.Context())
		if err != nil {
			t.Fatalf("Stations failed: %v", err)
		}
		if len(stored) != 2 {
			t.Errorf("expected 2 stored stations, got %d", len(stored))
		}
	})

	t.Run("limits concurrency", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		running, peak := 0, 0
		slow := func(_ context.Context, _ *Job) error {
			mu.Lock()
			running++
			peak = max(peak, running)
			mu.Unlock()
			time.Sleep(20 * time.Millisecond)
			mu.Lock()
			running--
			mu.Unlock()
			return nil
		}
		factory := func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{name: "slow", doFunc: slow})
			return p
		}

		many := append(append([]model.Station{}, stations...), stations...)
		if _, err := NewBatchProcessor(factory, WithConcurrency(2)).ProcessBatch(t.Context(), many); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if peak > 2 {
			t.Errorf("expected at most 2 concurrent downloads, got %d", peak)
		}
	})

	t.Run("failed station does not stop the batch", func(t *testing.T) {
		t.Parallel()

		errStep := errors.New("boom")
		factory := func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{name: "maybe-fail", doFunc: func(_ context.Context, job *Job) error {
				if job.Station.ID == stations[0].ID {
					return errStep
				}
				return nil
			}})
			return p
		}

		var mu sync.Mutex
		seen := make(map[int]bool)
		err := NewBatchProcessor(factory).ProcessBatchWithCallback(t.Context(), stations, func(job *Job, index int) {
			mu.Lock()
			defer mu.Unlock()
			seen[index] = true
			if index == 0 && !errors.Is(job.Error, errStep) {
				t.Errorf("expected errStep on first job, got %v", job.Error)
			}
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(seen) != len(stations) {
			t.Errorf("expected %d callbacks, got %d", len(stations), len(seen))
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		_, err := NewBatchProcessor(emptyPipeline).ProcessBatch(ctx, stations)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
