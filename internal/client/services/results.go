package services

import (
	"time"

	"github.com/dmitrijs2005/statsync/internal/client/models"
	"github.com/dmitrijs2005/statsync/internal/resource"
)

// PullResult describes one pull against one repository.
type PullResult struct {
	Database resource.Database
	// State is Updated when at least one record was applied, Unchanged when
	// none was, or the error state of a failed transport call.
	State    models.SyncState
	Received int
	Applied  int
	// States counts the PushChange outcome of every received line.
	States map[models.SyncState]int
	Cursor time.Time
	Err    error
	// SaveErr is set when the requested save after the pull failed.
	SaveErr error
}

// Failed counts received lines that were rejected.
func (r PullResult) Failed() int {
	n := 0
	for st, c := range r.States {
		if st.IsError() {
			n += c
		}
	}
	return n
}

// Rejection is a record the remote refused.
type Rejection struct {
	URI    string
	Reason string
}

// PushResult describes the push of one repository's dirty records.
type PushResult struct {
	Database resource.Database
	// State is Unchanged when nothing was dirty, SendToServer when a batch
	// was delivered, or the error state of a failed transport call.
	State        models.SyncState
	Sent         int
	Acknowledged int
	Rejected     []Rejection
	// Pending is the number of records still dirty afterwards.
	Pending int
	Err     error
	SaveErr error
}

// PushReport groups the per-repository results of one Push call.
type PushReport struct {
	Batch   string
	Results []PushResult
}

// Pending sums the records still dirty across repositories.
func (r PushReport) Pending() int {
	n := 0
	for _, res := range r.Results {
		n += res.Pending
	}
	return n
}

// Err returns the first transport error, if any.
func (r PushReport) Err() error {
	for _, res := range r.Results {
		if res.Err != nil {
			return res.Err
		}
	}
	return nil
}

// SyncReport is the outcome of Sync: a push followed by a pull per repository.
type SyncReport struct {
	Batch string
	Push  []PushResult
	Pull  []PullResult
}

// Err returns the first transport error of either phase.
func (r SyncReport) Err() error {
	for _, res := range r.Push {
		if res.Err != nil {
			return res.Err
		}
	}
	for _, res := range r.Pull {
		if res.Err != nil {
			return res.Err
		}
	}
	return nil
}

// RepoStatus is a point-in-time view of one repository.
type RepoStatus struct {
	Database resource.Database
	Dirty    bool
	Pending  int
	Records  int
	Cursor   time.Time
}
