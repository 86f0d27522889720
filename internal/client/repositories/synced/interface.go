package synced

import (
	"context"
	"time"

	"github.com/dmitrijs2005/statsync/internal/client/models"
	"github.com/dmitrijs2005/statsync/internal/resource"
)

// Repository is the contract the sync service drives. It is implemented by
// Repo; other resource types can plug in their own implementation.
type Repository interface {
	// Database is the namespace this repository owns.
	Database() resource.Database

	// IsDirty reports whether any record waits to be pushed.
	IsDirty() bool

	// Save persists the full record set and the pull cursor.
	Save(ctx context.Context) error

	// GetChanges returns dirty records in the order they were dirtied.
	GetChanges() []models.Record

	// PushChange applies a remote record using last-write-wins.
	PushChange(r models.Record) models.SyncState

	// ClearChanges empties the dirty set without touching records.
	ClearChanges()

	// Acknowledge clears the dirty flag of u if its Timestamp is still ts.
	Acknowledge(u resource.URI, ts time.Time) bool

	// Cursor is the newest remote timestamp seen by a pull.
	Cursor() time.Time

	// AdvanceCursor moves the cursor forward; older values are ignored.
	AdvanceCursor(ts time.Time) bool
}

// Store persists repository snapshots.
type Store interface {
	Save(ctx context.Context, s models.Snapshot) error
	// Load returns an empty snapshot and nil error when nothing is stored yet.
	Load(ctx context.Context) (models.Snapshot, error)
}
