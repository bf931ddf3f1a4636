package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/io-m1/MLJResultsCompiler-sub002/internal/adapters/repository"
	service "github.com/io-m1/MLJResultsCompiler-sub002/internal/app"
	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/model"
	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/report"
	"github.com/io-m1/MLJResultsCompiler-sub002/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// gateWriter holds every Write until released, then delegates to the
// real writer. It keeps jobs in the processing state for as long as a
// test needs. Tests must defer releaseNow before deferring Stop so a
// blocked worker can finish during teardown.
type gateWriter struct {
	release chan struct{}
	once    sync.Once
	inner   report.Writer
}

func newGateWriter() *gateWriter {
	return &gateWriter{
		release: make(chan struct{}),
		inner:   report.NewXLSXWriter(),
	}
}

func (w *gateWriter) releaseNow() {
	w.once.Do(func() { close(w.release) })
}

func (w *gateWriter) Write(ctx context.Context, path string, roster []model.RosterEntry) error {
	select {
	case <-w.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return w.inner.Write(ctx, path, roster)
}

// panicWriter panics on every Write.
type panicWriter struct{}

func (panicWriter) Write(ctx context.Context, path string, roster []model.RosterEntry) error {
	panic("report writer exploded")
}

// stuckWriter never finishes; it only honors cancellation.
type stuckWriter struct{}

func (stuckWriter) Write(ctx context.Context, path string, roster []model.RosterEntry) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a started service with real components", t, func() {
		dir := t.TempDir()
		reports := filepath.Join(dir, "reports")
		svc := service.New(
			service.WithWorkerCount(2),
			service.WithQueueSize(16),
			service.WithUploadDir(filepath.Join(dir, "uploads")),
			service.WithReportDir(reports),
		)
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When submitting the five-source fixture", func() {
			id, err := svc.Submit(ctx, fiveSheets(t, dir))
			So(err, ShouldBeNil)

			view := waitForTerminal(t, svc, id)

			Convey("Then the job should complete with roster counts", func() {
				So(view.Status, ShouldEqual, string(model.StatusComplete))
				So(view.CompletedAt, ShouldNotBeNil)
				So(view.Summary, ShouldNotBeNil)
				So(view.Summary.Participants, ShouldEqual, 3)
				So(view.Summary.Passed, ShouldEqual, 2)
				So(view.Summary.Failed, ShouldEqual, 1)
				So(view.ReportName, ShouldEqual, report.ArtifactName(id))
			})

			Convey("And the report artifact should hold the graded roster", func() {
				rc, name, err := svc.Report(ctx, id)
				So(err, ShouldBeNil)
				defer func() { _ = rc.Close() }()
				So(name, ShouldEqual, report.ArtifactName(id))

				wb, err := excelize.OpenReader(rc)
				So(err, ShouldBeNil)
				defer func() { _ = wb.Close() }()

				rows, err := wb.GetRows("Sheet1")
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 4)

				// First-seen order: Jane, John, Ann.
				So(rows[1][1], ShouldEqual, "Jane Doe")
				So(rows[1][2], ShouldEqual, "jane@example.com")
				So(rows[1][7], ShouldEqual, "6.8")
				So(rows[1][8], ShouldEqual, "693.33")
				So(rows[1][9], ShouldEqual, "PASS")

				So(rows[2][1], ShouldEqual, "John Roe")
				So(rows[2][8], ShouldEqual, "179.99")
				So(rows[2][9], ShouldEqual, "PASS")

				So(rows[3][1], ShouldEqual, "Ann Low")
				So(rows[3][8], ShouldEqual, "46.66")
				So(rows[3][9], ShouldEqual, "FAIL")
			})

			Convey("And the job listing should include it", func() {
				views := svc.ListJobs(ctx)
				So(len(views), ShouldEqual, 1)
				So(views[0].ID, ShouldEqual, id)
			})
		})
	})
}

func TestServiceReportLifecycle(t *testing.T) {
	Convey("Given a service whose report writes are gated", t, func() {
		dir := t.TempDir()
		reports := filepath.Join(dir, "reports")
		gate := newGateWriter()
		svc := service.New(
			service.WithUploadDir(filepath.Join(dir, "uploads")),
			service.WithReportDir(reports),
			service.WithWriter(gate),
		)
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		defer gate.releaseNow()

		Convey("When a job is still processing", func() {
			id, err := svc.Submit(ctx, fiveSheets(t, dir))
			So(err, ShouldBeNil)

			Convey("Then the report should not be ready", func() {
				_, _, err := svc.Report(ctx, id)
				So(errors.Is(err, service.ErrNotReady), ShouldBeTrue)
			})

			Convey("And after releasing the writer it should download", func() {
				gate.releaseNow()
				view := waitForTerminal(t, svc, id)
				So(view.Status, ShouldEqual, string(model.StatusComplete))

				rc, _, err := svc.Report(ctx, id)
				So(err, ShouldBeNil)
				So(rc.Close(), ShouldBeNil)

				Convey("And a removed artifact should be reported gone", func() {
					So(os.Remove(filepath.Join(reports, report.ArtifactName(id))), ShouldBeNil)

					_, _, err := svc.Report(ctx, id)
					So(errors.Is(err, service.ErrArtifactMissing), ShouldBeTrue)
				})
			})
		})

		Convey("When asking for the report of an unknown job", func() {
			_, _, err := svc.Report(ctx, "no-such-job")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestServicePipelineFailures(t *testing.T) {
	Convey("Given a started service", t, func() {
		dir := t.TempDir()
		ctx := context.Background()

		Convey("When an input file is missing at processing time", func() {
			svc := service.New(service.WithReportDir(filepath.Join(dir, "reports")))
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			refs := fiveSheets(t, dir)
			refs[2] = filepath.Join(dir, "ghost.csv")
			id, err := svc.Submit(ctx, refs)
			So(err, ShouldBeNil)

			Convey("Then the job should fail with a load error", func() {
				view := waitForTerminal(t, svc, id)
				So(view.Status, ShouldEqual, string(model.StatusError))
				So(view.Error, ShouldContainSubstring, "failed to load inputs")
			})
		})

		Convey("When an input drops a required column", func() {
			svc := service.New(service.WithReportDir(filepath.Join(dir, "reports")))
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			refs := fiveSheets(t, dir)
			refs[4] = writeSheet(t, dir, "no-result.csv",
				"Full Name,Email\nJane Doe,jane@example.com\n")
			id, err := svc.Submit(ctx, refs)
			So(err, ShouldBeNil)

			Convey("Then the job should fail naming the column", func() {
				view := waitForTerminal(t, svc, id)
				So(view.Status, ShouldEqual, string(model.StatusError))
				So(view.Error, ShouldContainSubstring, "missing required column(s)")
			})
		})

		Convey("When the report writer panics", func() {
			svc := service.New(
				service.WithReportDir(filepath.Join(dir, "reports")),
				service.WithWriter(panicWriter{}),
			)
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			id, err := svc.Submit(ctx, fiveSheets(t, dir))
			So(err, ShouldBeNil)

			Convey("Then the panic should land in the job record", func() {
				view := waitForTerminal(t, svc, id)
				So(view.Status, ShouldEqual, string(model.StatusError))
				So(view.Error, ShouldContainSubstring, "pipeline panic")

				Convey("And the report endpoint should surface the failure", func() {
					_, _, err := svc.Report(ctx, id)
					So(errors.Is(err, service.ErrProcessing), ShouldBeTrue)
				})
			})
		})

		Convey("When the pipeline overruns its timeout", func() {
			svc := service.New(
				service.WithReportDir(filepath.Join(dir, "reports")),
				service.WithWriter(stuckWriter{}),
				service.WithPipelineTimeout(50*time.Millisecond),
			)
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			id, err := svc.Submit(ctx, fiveSheets(t, dir))
			So(err, ShouldBeNil)

			Convey("Then the job should fail with the deadline error", func() {
				view := waitForTerminal(t, svc, id)
				So(view.Status, ShouldEqual, string(model.StatusError))
				So(view.Error, ShouldContainSubstring, "context deadline exceeded")
			})
		})
	})
}

func TestServiceBackpressure(t *testing.T) {
	Convey("Given one worker, a single-slot queue and a gated writer", t, func() {
		dir := t.TempDir()
		gate := newGateWriter()
		svc := service.New(
			service.WithWorkerCount(1),
			service.WithQueueSize(1),
			service.WithReportDir(filepath.Join(dir, "reports")),
			service.WithWriter(gate),
		)
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		defer gate.releaseNow()

		refs := fiveSheets(t, dir)

		// drained waits for the queue buffer to hand off to the worker.
		drained := func() {
			deadline := time.Now().Add(2 * time.Second)
			for time.Now().Before(deadline) {
				if svc.GetStats(ctx).QueueLength == 0 {
					return
				}
				time.Sleep(5 * time.Millisecond)
			}
			t.Fatalf("queue never drained")
		}

		Convey("When submissions outpace the pipeline", func() {
			first, err := svc.Submit(ctx, refs)
			So(err, ShouldBeNil)
			drained()

			second, err := svc.Submit(ctx, refs)
			So(err, ShouldBeNil)
			drained()

			third, err := svc.Submit(ctx, refs)
			So(err, ShouldBeNil)

			fourth, err := svc.Submit(ctx, refs)

			Convey("Then the overflow submission should be refused", func() {
				So(errors.Is(err, service.ErrBackpressure), ShouldBeTrue)
				So(fourth, ShouldBeEmpty)
				So(len(svc.ListJobs(ctx)), ShouldEqual, 3)
			})

			Convey("And the accepted jobs should finish once released", func() {
				gate.releaseNow()
				for _, id := range []string{first, second, third} {
					view := waitForTerminal(t, svc, id)
					So(view.Status, ShouldEqual, string(model.StatusComplete))
				}
			})
		})
	})
}

func TestServiceConcurrency(t *testing.T) {
	Convey("Given a service with several workers", t, func() {
		dir := t.TempDir()
		svc := service.New(
			service.WithWorkerCount(4),
			service.WithQueueSize(64),
			service.WithUploadDir(filepath.Join(dir, "uploads")),
			service.WithReportDir(filepath.Join(dir, "reports")),
		)
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		refs := fiveSheets(t, dir)

		Convey("When many submissions arrive concurrently", func() {
			const jobs = 12
			ids := make(chan string, jobs)
			var wg sync.WaitGroup
			for i := 0; i < jobs; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if id, err := svc.Submit(ctx, refs); err == nil {
						ids <- id
					}
				}()
			}
			wg.Wait()
			close(ids)

			Convey("Then every accepted job should complete", func() {
				count := 0
				for id := range ids {
					view := waitForTerminal(t, svc, id)
					So(view.Status, ShouldEqual, string(model.StatusComplete))
					count++
				}
				So(count, ShouldEqual, jobs)

				stats := svc.GetStats(ctx)
				So(stats.Jobs, ShouldEqual, jobs)
				So(stats.Completed, ShouldEqual, jobs)
				So(stats.Processing, ShouldEqual, 0)
			})
		})
	})
}
