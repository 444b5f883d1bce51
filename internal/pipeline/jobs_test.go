package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgallion1/fracture/internal/outline"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestNewJob(t *testing.T) {
	job := NewJob("book.pdf", []byte("hello world"), outline.Window{Start: 2, End: 3})
	if len(job.ID) != 26 {
		t.Fatalf("expected 26-char ID, got %q", job.ID)
	}
	snap := job.Snapshot()
	if snap.Status != StatusQueued {
		t.Errorf("expected queued, got %q", snap.Status)
	}
	if snap.StartDepth != 2 || snap.EndDepth != 3 {
		t.Errorf("expected window 2-3, got %d-%d", snap.StartDepth, snap.EndDepth)
	}
	if snap.ContentHash != ContentHashHex([]byte("hello world")) {
		t.Errorf("expected content hash of upload, got %q", snap.ContentHash)
	}
}

func TestNewJobID_UniqueAndSorted(t *testing.T) {
	seen := map[string]bool{}
	prev := ""
	for range 200 {
		id := newJobID()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
		if id < prev {
			t.Fatalf("expected ids to sort by creation, %q < %q", id, prev)
		}
		prev = id
	}
}

func TestEncodeCrockford(t *testing.T) {
	var zero [16]byte
	if got := encodeCrockford(zero); got != "00000000000000000000000000" {
		t.Fatalf("expected all zeros, got %q", got)
	}
	var ones [16]byte
	for i := range ones {
		ones[i] = 0xff
	}
	if got := encodeCrockford(ones); got != "7ZZZZZZZZZZZZZZZZZZZZZZZZZ" {
		t.Fatalf("expected max ULID, got %q", got)
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := &Job{ID: "test-1", Status: StatusQueued, UpdatedAt: time.Now()}

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusSplitting, "splitting"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJob_ErrorsAndOutputs(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	if snap := job.Snapshot(); snap.Errors == nil {
		t.Fatal("expected non-nil errors slice in snapshot")
	}

	job.AddError("segment 3 failed")
	job.SetOutputs([]Output{{Name: "000000_a"}, {Name: "000001_b"}})

	snap := job.Snapshot()
	if len(snap.Errors) != 1 || snap.Errors[0] != "segment 3 failed" {
		t.Fatalf("unexpected errors: %v", snap.Errors)
	}
	if snap.Segments != 2 {
		t.Fatalf("expected 2 segments, got %d", snap.Segments)
	}
	outs := job.Outputs()
	outs[0].Name = "changed"
	if job.Outputs()[0].Name != "000000_a" {
		t.Fatal("expected Outputs to return a copy")
	}
}

func TestJob_TakeFileData(t *testing.T) {
	job := NewJob("a.pdf", []byte("file content"), outline.Window{Start: 1})
	if got := job.TakeFileData(); string(got) != "file content" {
		t.Fatalf("expected file data, got %q", got)
	}
	if got := job.TakeFileData(); got != nil {
		t.Fatalf("expected data released after take, got %q", got)
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := &Job{ID: "old", UpdatedAt: time.Now()}
	store.Put(expired)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	fresh := &Job{ID: "new", UpdatedAt: time.Now()}
	store.Put(fresh)

	removed := store.Cleanup()

	if len(removed) != 1 || removed[0].ID != "old" {
		t.Errorf("expected old job returned from cleanup, got %v", removed)
	}
	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

func waitForStatus(t *testing.T, job *Job, want JobStatus) JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		snap := job.Snapshot()
		if snap.Status == want {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q, last %+v", want, job.Snapshot())
	return JobSnapshot{}
}

func TestOrchestrator_ProcessesJob(t *testing.T) {
	root := t.TempDir()
	s := newTestSplitter(&fakeSource{graph: twoChapters()}, &fakeConverter{markdown: bookMarkdown}, nil, Options{})
	o := NewOrchestrator(OrchestratorConfig{OutputDir: root}, s, discardLogger())
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob("book.pdf", []byte("%PDF"), outline.Window{Start: 1})
	if err := o.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}
	snap := waitForStatus(t, job, StatusCompleted)
	if snap.Segments != 2 {
		t.Fatalf("expected 2 segments, got %d", snap.Segments)
	}
	if o.GetJob(job.ID) != job {
		t.Fatal("expected job to be retrievable")
	}
	if _, err := os.Stat(filepath.Join(root, job.ID, "000001_Chapter 2.md")); err != nil {
		t.Fatalf("expected output under job dir: %v", err)
	}
}

func TestOrchestrator_SkipsDocumentWithoutOutline(t *testing.T) {
	s := newTestSplitter(&fakeSource{graph: newFakeGraph(2)}, &fakeConverter{}, nil, Options{})
	o := NewOrchestrator(OrchestratorConfig{OutputDir: t.TempDir()}, s, discardLogger())
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob("flat.pdf", []byte("%PDF"), outline.Window{Start: 1})
	if err := o.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}
	snap := waitForStatus(t, job, StatusSkipped)
	if len(snap.Errors) != 1 {
		t.Fatalf("expected reason recorded, got %v", snap.Errors)
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	s := newTestSplitter(&fakeSource{graph: twoChapters()}, &fakeConverter{}, nil, Options{})
	// Not started, so nothing drains the queue.
	o := NewOrchestrator(OrchestratorConfig{OutputDir: t.TempDir(), MaxQueueSize: 1}, s, discardLogger())

	if err := o.Submit(NewJob("a.pdf", []byte("x"), outline.Window{Start: 1})); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	job := NewJob("b.pdf", []byte("x"), outline.Window{Start: 1})
	if err := o.Submit(job); err == nil {
		t.Fatal("expected queue full error")
	}
	if job.Snapshot().Status != StatusFailed {
		t.Fatalf("expected rejected job marked failed, got %q", job.Snapshot().Status)
	}
}

func TestOrchestrator_CleanupRemovesOutput(t *testing.T) {
	root := t.TempDir()
	s := newTestSplitter(&fakeSource{graph: twoChapters()}, &fakeConverter{}, nil, Options{})
	o := NewOrchestrator(OrchestratorConfig{OutputDir: root, JobTTL: time.Millisecond}, s, discardLogger())

	job := NewJob("a.pdf", []byte("x"), outline.Window{Start: 1})
	job.OutputDir = filepath.Join(root, job.ID)
	if err := os.MkdirAll(job.OutputDir, 0o755); err != nil {
		t.Fatal(err)
	}
	o.jobs.Put(job)
	time.Sleep(10 * time.Millisecond)

	o.cleanup()
	if _, err := os.Stat(job.OutputDir); !os.IsNotExist(err) {
		t.Fatalf("expected output dir removed, got %v", err)
	}
	if o.GetJob(job.ID) != nil {
		t.Fatal("expected job evicted")
	}
}
