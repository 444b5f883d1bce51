package pipeline

import (
	"crypto/sha256"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dgallion1/fracture/internal/align"
	"github.com/dgallion1/fracture/internal/outline"
	"github.com/dgallion1/fracture/internal/segment"
)

// JobStatus represents the state of a split job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusSplitting JobStatus = "splitting"
	StatusCompleted JobStatus = "completed"
	StatusSkipped   JobStatus = "skipped"
	StatusFailed    JobStatus = "failed"
)

// Job tracks one uploaded document through the splitter.
type Job struct {
	mu sync.Mutex

	ID       string
	Filename string
	Window   outline.Window
	Boundary segment.Boundary // Empty keeps the server default
	Align    align.Mode       // Empty keeps the server default

	Status JobStatus
	Phase  string

	ContentHash string
	OutputDir   string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	fileData []byte
	outputs  []Output
	errors   []string
}

// NewJob creates a queued job with a fresh ID.
func NewJob(filename string, data []byte, w outline.Window) *Job {
	now := time.Now()
	return &Job{
		ID:          newJobID(),
		Filename:    filename,
		Window:      w,
		Status:      StatusQueued,
		Phase:       "queued",
		ContentHash: ContentHashHex(data),
		CreatedAt:   now,
		UpdatedAt:   now,
		fileData:    data,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs and returns them so their files can be
// deleted.
func (s *JobStore) Cleanup() []*Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	var expired []*Job
	for id, job := range s.jobs {
		if now.Sub(job.updatedAt()) > s.ttl {
			delete(s.jobs, id)
			expired = append(expired, job)
		}
	}
	return expired
}

func (j *Job) updatedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.UpdatedAt = time.Now()
}

// SetOutputs records the files produced by the split.
func (j *Job) SetOutputs(outs []Output) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.outputs = slices.Clone(outs)
	j.UpdatedAt = time.Now()
}

// Outputs returns a copy of the produced segments.
func (j *Job) Outputs() []Output {
	j.mu.Lock()
	defer j.mu.Unlock()
	return slices.Clone(j.outputs)
}

// TakeFileData returns the uploaded bytes and releases them from the job.
func (j *Job) TakeFileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	data := j.fileData
	j.fileData = nil
	return data
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	Filename    string    `json:"filename"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	StartDepth  int       `json:"start"`
	EndDepth    int       `json:"end"`
	ContentHash string    `json:"content_hash"`
	Segments    int       `json:"segments"`
	Errors      []string  `json:"errors"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := slices.Clone(j.errors)
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:          j.ID,
		Filename:    j.Filename,
		Status:      j.Status,
		Phase:       j.Phase,
		StartDepth:  j.Window.Start,
		EndDepth:    j.Window.End,
		ContentHash: j.ContentHash,
		Segments:    len(j.outputs),
		Errors:      errs,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
