// Package ticket owns the asynchronous report-job lifecycle: issuing
// tickets, tracking progress in a TTL key-value store, and serving the
// finished artifact.
package ticket

import (
	"errors"
	"time"
)

// Status captures the state of one report run.
type Status string

const (
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Artifact locates the rendered file produced by a successful run.
type Artifact struct {
	Disk         string `json:"disk"`
	RelativePath string `json:"relative_path"`
	DownloadName string `json:"download_name"`
	Format       string `json:"format"`
	ContentType  string `json:"content_type"`
}

// State is the persisted ticket record. It is written only by the job that
// owns the ticket; readers never mutate it.
type State struct {
	Status    Status    `json:"status"`
	Progress  int       `json:"progress"`
	Message   string    `json:"message"`
	Artifact  *Artifact `json:"artifact,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Terminal reports whether the run has finished.
func (s State) Terminal() bool {
	return s.Status == StatusDone || s.Status == StatusFailed
}

var (
	// ErrTicketNotFound covers unknown tickets and tickets whose state
	// expired from the store; callers treat both identically.
	ErrTicketNotFound = errors.New("ticket: not found")
	// ErrNotReady is returned when an artifact is requested before the run
	// completed.
	ErrNotReady = errors.New("ticket: report not ready")
	// ErrJobFailed wraps the stored failure message on artifact reads.
	ErrJobFailed = errors.New("ticket: report failed")
)
