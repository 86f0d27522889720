// Package synced provides the in-memory repository that tracks which records
// changed locally and still have to be pushed.
//
// # Data Model
//
// A Repo owns every record of one resource.Database, keyed by resource.URI.
// Local mutations (Put, Delete) advance the record Timestamp and add the URI
// to the dirty set. Deletions become tombstones that stay in the map until the
// remote acknowledges them.
//
// Remote state enters through PushChange, which applies last-write-wins by
// Timestamp: a strictly newer record replaces the current one, anything older
// or equal is ignored. A newer remote record also drops a pending local change
// for the same URI.
//
// # Concurrency
//
// Every exported method holds the repo mutex for its whole duration, so a
// mutation never interleaves with another repository operation. Save snapshots
// under the lock and writes outside it.
//
// Typical Usage
//
//	repo := synced.New(resource.Stats, synced.WithStore(store))
//	_ = repo.Load(ctx)
//	repo.Put(uri, text)
//	changes := repo.GetChanges()
//	repo.Acknowledge(changes[0].URI, changes[0].Timestamp)
//	_ = repo.Save(ctx)
package synced
