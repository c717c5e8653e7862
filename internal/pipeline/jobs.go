package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/todotree/internal/lists"
)

// JobStatus represents the state of an import job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusGrafting   JobStatus = "grafting"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusDupSkipped JobStatus = "duplicate_skipped"
)

// Job tracks one document being imported into a list.
type Job struct {
	mu sync.Mutex

	ID     string `json:"job_id"`
	ListID string `json:"list_id"`
	// Index is the pre-order index the imported subtree is attached under.
	Index int `json:"index"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	// Title overrides the label of the imported subtree's root.
	Title string `json:"title"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	fileData []byte
	errors   []string
}

// Progress tracks processing progress.
type Progress struct {
	NodesParsed  int      `json:"nodes_parsed"`
	NodesGrafted int      `json:"nodes_grafted"`
	Errors       []string `json:"errors"`
}

// NewJob returns a queued job with a fresh id.
func NewJob(listID string, index int, filename, title string, data []byte) *Job {
	now := time.Now()
	return &Job{
		ID:        lists.NewID(),
		ListID:    listID,
		Index:     index,
		Status:    StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		fileData:  data,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction. It
// also remembers which documents were imported into which list so a repeated
// upload is skipped.
type JobStore struct {
	mu       sync.Mutex
	jobs     map[string]*Job
	imported map[string]importRecord
	ttl      time.Duration
}

type importRecord struct {
	jobID string
	at    time.Time
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs:     make(map[string]*Job),
		imported: make(map[string]importRecord),
		ttl:      ttl,
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

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Reserve claims hash for jobID within listID. If another job already holds
// it, pending or imported, Reserve returns that job and false. The check and
// the claim happen under one lock, so of two identical concurrent imports
// exactly one proceeds.
func (s *JobStore) Reserve(listID, hash, jobID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := listID + "/" + hash
	if rec, ok := s.imported[key]; ok {
		return rec.jobID, false
	}
	s.imported[key] = importRecord{jobID: jobID, at: time.Now()}
	return "", true
}

// Release drops jobID's claim on hash so a later import can retry it.
func (s *JobStore) Release(listID, hash, jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := listID + "/" + hash
	if rec, ok := s.imported[key]; ok && rec.jobID == jobID {
		delete(s.imported, key)
	}
}

// Cleanup removes expired jobs and import records.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
	for key, rec := range s.imported {
		if now.Sub(rec.at) > s.ttl {
			delete(s.imported, key)
		}
	}
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
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetParsed records how many nodes the document produced.
func (j *Job) SetParsed(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.NodesParsed = n
	j.UpdatedAt = time.Now()
}

// SetGrafted records how many nodes were attached to the list.
func (j *Job) SetGrafted(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.NodesGrafted = n
	j.UpdatedAt = time.Now()
}

// SetContentHash records the hash of the parsed document.
func (j *Job) SetContentHash(h string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = h
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	ListID      string    `json:"list_id"`
	Index       int       `json:"index"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Filename    string    `json:"filename"`
	Title       string    `json:"title"`
	Progress    Progress  `json:"progress"`
	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.Progress.Errors...)
	return JobSnapshot{
		ID:       j.ID,
		ListID:   j.ListID,
		Index:    j.Index,
		Status:   j.Status,
		Phase:    j.Phase,
		Filename: j.Filename,
		Title:    j.Title,
		Progress: Progress{
			NodesParsed:  j.Progress.NodesParsed,
			NodesGrafted: j.Progress.NodesGrafted,
			Errors:       errs,
		},
		ContentHash: j.ContentHash,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
