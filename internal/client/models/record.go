// Package models defines the client-side records that take part in sync.
package models

import (
	"time"

	"github.com/dmitrijs2005/statsync/internal/resource"
)

// Method is the intent recorded with a change.
type Method int

const (
	MethodCreate Method = iota
	MethodUpdate
	MethodDelete
)

func (m Method) String() string {
	switch m {
	case MethodCreate:
		return "create"
	case MethodUpdate:
		return "update"
	case MethodDelete:
		return "delete"
	}
	return ""
}

// ParseMethod maps a wire tag to a Method. Unknown or empty tags mean update.
func ParseMethod(s string) Method {
	switch s {
	case "create":
		return MethodCreate
	case "delete":
		return MethodDelete
	default:
		return MethodUpdate
	}
}

// Record is a single syncable value addressed by a resource URI.
// Value holds the text-encoded payload; tombstones have an empty Value.
type Record struct {
	URI       resource.URI
	Method    Method
	Timestamp time.Time
	Value     string
}

// Tombstone reports whether r marks a deletion.
func (r Record) Tombstone() bool { return r.Method == MethodDelete }

// Reference returns the wire addressing of r including its timestamp and
// method tag. Create/update intents are not tagged.
func (r Record) Reference() resource.Reference {
	ref := resource.Reference{URI: r.URI, Timestamp: r.Timestamp}
	if r.Method == MethodDelete {
		ref.Method = r.Method.String()
	}
	return ref
}

// CachedRecord is a record as persisted locally, with its dirty flag.
type CachedRecord struct {
	Record
	Dirty bool
}

// Snapshot is the full persisted state of one repository.
type Snapshot struct {
	Database  resource.Database
	LastSynch time.Time
	Records   []CachedRecord
}
