package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/model"
)

func newJob(id string, created time.Time) model.Job {
	return model.Job{
		ID:        id,
		Status:    model.StatusProcessing,
		CreatedAt: created,
		InputRefs: []string{"a", "b", "c", "d", "e"},
	}
}

func TestMemoryStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(ctx)
	defer s.Close()

	job := newJob("job-1", time.Now())
	if err := s.Create(ctx, job); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if got := s.Count(ctx); got != 1 {
		t.Fatalf("Count = %d, want 1", got)
	}

	got, err := s.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != model.StatusProcessing {
		t.Errorf("Status = %q, want %q", got.Status, model.StatusProcessing)
	}
	if len(got.InputRefs) != 5 {
		t.Errorf("InputRefs = %d entries, want 5", len(got.InputRefs))
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) = %v, want ErrNotFound", err)
	}
	if err := s.Create(ctx, job); !errors.Is(err, ErrExists) {
		t.Errorf("Create(duplicate) = %v, want ErrExists", err)
	}

	if err := s.Delete(ctx, "job-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := s.Delete(ctx, "job-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(again) = %v, want ErrNotFound", err)
	}
	if got := s.Count(ctx); got != 0 {
		t.Errorf("Count = %d, want 0", got)
	}
}

func TestMemoryStore_Transitions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(ctx, WithClock(func() time.Time { return now }))
	defer s.Close()

	if err := s.Create(ctx, newJob("done", now)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	sum := model.Summary{Participants: 3, Passed: 2, Failed: 1}
	if err := s.Complete(ctx, "done", "/reports/r.xlsx", "r.xlsx", sum); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	got, err := s.Get(ctx, "done")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != model.StatusComplete {
		t.Errorf("Status = %q, want %q", got.Status, model.StatusComplete)
	}
	if !got.CompletedAt.Equal(now) {
		t.Errorf("CompletedAt = %v, want %v", got.CompletedAt, now)
	}
	if got.ReportPath != "/reports/r.xlsx" || got.ReportName != "r.xlsx" {
		t.Errorf("report ref = %q/%q", got.ReportPath, got.ReportName)
	}
	if got.Summary != sum {
		t.Errorf("Summary = %+v, want %+v", got.Summary, sum)
	}

	// Terminal states are final in both directions.
	if err := s.Fail(ctx, "done", "late failure"); !errors.Is(err, ErrTerminal) {
		t.Errorf("Fail(complete job) = %v, want ErrTerminal", err)
	}
	if err := s.Complete(ctx, "done", "", "", model.Summary{}); !errors.Is(err, ErrTerminal) {
		t.Errorf("Complete(complete job) = %v, want ErrTerminal", err)
	}

	if err := s.Create(ctx, newJob("broken", now)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := s.Fail(ctx, "broken", "merge exploded"); err != nil {
		t.Fatalf("Fail failed: %v", err)
	}
	got, err = s.Get(ctx, "broken")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != model.StatusError || got.Error != "merge exploded" {
		t.Errorf("failed job = %q/%q", got.Status, got.Error)
	}

	if err := s.Complete(ctx, "missing", "", "", model.Summary{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Complete(missing) = %v, want ErrNotFound", err)
	}
	if err := s.Fail(ctx, "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Fail(missing) = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_ListOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(ctx)
	defer s.Close()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for _, j := range []model.Job{
		newJob("old", base),
		newJob("new", base.Add(2*time.Minute)),
		newJob("tie-b", base.Add(time.Minute)),
		newJob("tie-a", base.Add(time.Minute)),
	} {
		if err := s.Create(ctx, j); err != nil {
			t.Fatalf("Create(%s) failed: %v", j.ID, err)
		}
	}

	got := s.List(ctx)
	want := []string{"new", "tie-a", "tie-b", "old"}
	if len(got) != len(want) {
		t.Fatalf("List returned %d jobs, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("List[%d] = %q, want %q", i, got[i].ID, id)
		}
	}
}

func TestMemoryStore_RetentionSweep(t *testing.T) {
	ctx := context.Background()
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(ctx,
		WithRetention(time.Hour),
		WithSweepInterval(time.Hour), // sweeps are driven manually below
		WithClock(func() time.Time { return current }),
	)
	defer s.Close()

	for _, id := range []string{"expired", "fresh", "running"} {
		if err := s.Create(ctx, newJob(id, current)); err != nil {
			t.Fatalf("Create(%s) failed: %v", id, err)
		}
	}
	if err := s.Complete(ctx, "expired", "", "", model.Summary{}); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	current = current.Add(2 * time.Hour)
	if err := s.Fail(ctx, "fresh", "boom"); err != nil {
		t.Fatalf("Fail failed: %v", err)
	}

	s.sweepExpired()

	if _, err := s.Get(ctx, "expired"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired terminal job survived the sweep: %v", err)
	}
	if _, err := s.Get(ctx, "fresh"); err != nil {
		t.Errorf("fresh terminal job was swept: %v", err)
	}
	if _, err := s.Get(ctx, "running"); err != nil {
		t.Errorf("processing job was swept: %v", err)
	}
}

func TestMemoryStore_JanitorEndToEnd(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(ctx,
		WithRetention(10*time.Millisecond),
		WithSweepInterval(5*time.Millisecond),
	)
	defer s.Close()

	if err := s.Create(ctx, newJob("short-lived", time.Now())); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := s.Complete(ctx, "short-lived", "", "", model.Summary{}); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.Count(ctx) == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("janitor never swept the expired job")
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(ctx)
	defer s.Close()

	const goroutines = 8
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				id := fmt.Sprintf("job-%d-%d", g, i)
				if err := s.Create(ctx, newJob(id, time.Now())); err != nil {
					t.Errorf("Create(%s) failed: %v", id, err)
					return
				}
				if _, err := s.Get(ctx, id); err != nil {
					t.Errorf("Get(%s) failed: %v", id, err)
					return
				}
				_ = s.List(ctx)
				if i%2 == 0 {
					if err := s.Complete(ctx, id, "", "", model.Summary{}); err != nil {
						t.Errorf("Complete(%s) failed: %v", id, err)
						return
					}
				}
			}
		}(g)
	}
	wg.Wait()

	if got := s.Count(ctx); got != goroutines*50 {
		t.Errorf("Count = %d, want %d", got, goroutines*50)
	}
}

func TestMemoryStore_CloseBehavior(t *testing.T) {
	s := NewMemoryStore(context.Background(), WithRetention(time.Hour))
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}
