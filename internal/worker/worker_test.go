package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"overdub/internal/download"
	"overdub/internal/queue"
	"overdub/internal/separate"
	"overdub/internal/services"
	"overdub/internal/stretch"
)

type fakeDownloader struct {
	calls []download.Request
	err   error
}

func (f *fakeDownloader) Fetch(ctx context.Context, req download.Request) (download.Result, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return download.Result{}, f.err
	}
	output := req.Output
	if output == "" {
		output = "/tmp/downloaded.mp3"
	}
	return download.Result{OutputPath: output}, nil
}

type fakeStretcher struct {
	calls []stretch.Request
	err   error
}

func (f *fakeStretcher) Adjust(ctx context.Context, req stretch.Request) (stretch.Result, error) {
	f.calls = append(f.calls, req)
	if _, ok := services.RequestIDFromContext(ctx); !ok {
		return stretch.Result{}, errors.New("missing correlation id in context")
	}
	if f.err != nil {
		return stretch.Result{}, f.err
	}
	return stretch.Result{Processed: true}, nil
}

type fakeSeparator struct {
	calls [][2]string
	err   error
}

func (f *fakeSeparator) Separate(ctx context.Context, input, outputDir string) (separate.Result, error) {
	f.calls = append(f.calls, [2]string{input, outputDir})
	if f.err != nil {
		return separate.Result{}, f.err
	}
	return separate.Result{Backend: "demucs"}, nil
}

func testWorker(t *testing.T, dl Downloader, st Stretcher, sep Separator) (*Worker, *queue.Store) {
	t.Helper()
	dir := t.TempDir()
	store, err := queue.OpenPath(filepath.Join(dir, "queue.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	w, err := New(store, dl, st, sep, Options{LockPath: filepath.Join(dir, "worker.lock")}, nil)
	if err != nil {
		t.Fatalf("new worker: %v", err)
	}
	return w, store
}

func TestRunDrainsQueue(t *testing.T) {
	dl := &fakeDownloader{}
	st := &fakeStretcher{}
	sep := &fakeSeparator{}
	w, store := testWorker(t, dl, st, sep)
	ctx := context.Background()

	if _, err := store.Add(ctx, queue.Job{Kind: queue.KindDownload, Source: "https://example.com/v"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := store.Add(ctx, queue.Job{Kind: queue.KindStretch, Source: "/tmp/in.mp3", Output: "/tmp/out.mp3", TargetSeconds: 10}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := store.Add(ctx, queue.Job{Kind: queue.KindSeparate, Source: "/tmp/in.mp3", Output: "/tmp/stems"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := w.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(dl.calls) != 1 || len(st.calls) != 1 || len(sep.calls) != 1 {
		t.Fatalf("unexpected dispatch counts: dl=%d st=%d sep=%d", len(dl.calls), len(st.calls), len(sep.calls))
	}
	if st.calls[0].TargetSeconds != 10 {
		t.Fatalf("target duration lost: %+v", st.calls[0])
	}

	summary, err := store.Summarize(ctx)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if summary.Completed != 3 || summary.Pending != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestRunRecordsFailure(t *testing.T) {
	st := &fakeStretcher{err: errors.New("ffmpeg: exit status 1")}
	w, store := testWorker(t, &fakeDownloader{}, st, &fakeSeparator{})
	ctx := context.Background()

	job, err := store.Add(ctx, queue.Job{Kind: queue.KindStretch, Source: "/tmp/in.mp3", TargetSeconds: 5})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := w.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	got, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != queue.StatusFailed {
		t.Fatalf("expected failed status, got %q", got.Status)
	}
	if got.ErrorMessage == "" {
		t.Fatal("expected error message recorded")
	}
}

func TestRunDerivesMissingOutputs(t *testing.T) {
	st := &fakeStretcher{}
	sep := &fakeSeparator{}
	w, store := testWorker(t, &fakeDownloader{}, st, sep)
	ctx := context.Background()

	stretchJob, _ := store.Add(ctx, queue.Job{Kind: queue.KindStretch, Source: "/audio/in.mp3", TargetSeconds: 8})
	sepJob, _ := store.Add(ctx, queue.Job{Kind: queue.KindSeparate, Source: "/audio/in.mp3"})

	if err := w.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	gotStretch, _ := store.GetByID(ctx, stretchJob.ID)
	if gotStretch.Output != "/audio/in.stretched.mp3" {
		t.Fatalf("unexpected derived stretch output: %q", gotStretch.Output)
	}
	gotSep, _ := store.GetByID(ctx, sepJob.ID)
	if gotSep.Output != "/audio/stems" {
		t.Fatalf("unexpected derived separation output: %q", gotSep.Output)
	}
	if sep.calls[0][1] != "/audio/stems" {
		t.Fatalf("separator received %q", sep.calls[0][1])
	}
}

func TestRunResetsStaleJobs(t *testing.T) {
	dl := &fakeDownloader{}
	w, store := testWorker(t, dl, &fakeStretcher{}, &fakeSeparator{})
	ctx := context.Background()

	job, _ := store.Add(ctx, queue.Job{Kind: queue.KindDownload, Source: "https://example.com/v"})
	job.Status = queue.StatusRunning
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("update: %v", err)
	}

	if err := w.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	got, _ := store.GetByID(ctx, job.ID)
	if got.Status != queue.StatusCompleted {
		t.Fatalf("stranded job not reclaimed: %+v", got)
	}
}

func TestRunRespectsLock(t *testing.T) {
	dir := t.TempDir()
	store, err := queue.OpenPath(filepath.Join(dir, "queue.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	lockPath := filepath.Join(dir, "worker.lock")
	first, err := New(store, &fakeDownloader{}, &fakeStretcher{}, &fakeSeparator{}, Options{LockPath: lockPath, Watch: true, PollInterval: 10 * time.Millisecond}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- first.Run(ctx) }()

	// Wait for the first worker to take the lock.
	probe := flock.New(lockPath)
	deadline := time.Now().Add(2 * time.Second)
	for {
		locked, _ := probe.TryLock()
		if !locked {
			break
		}
		_ = probe.Unlock()
		if time.Now().After(deadline) {
			t.Fatal("first worker never acquired lock")
		}
		time.Sleep(5 * time.Millisecond)
	}

	second, err := New(store, &fakeDownloader{}, &fakeStretcher{}, &fakeSeparator{}, Options{LockPath: lockPath}, nil)
	if err != nil {
		t.Fatalf("new second: %v", err)
	}
	if err := second.Run(context.Background()); err == nil {
		t.Fatal("expected second worker to refuse the lock")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
