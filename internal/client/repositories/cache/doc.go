// Package cache persists synced repositories on the device.
//
// Two backends implement synced.Store:
//
//   - FileStore writes one binary envelope per repository and user to
//     <dataRoot>/<prefix>_<key>.json. The extension is kept for compatibility
//     with existing installs; the content is protobuf wire format.
//   - SQLiteStore keeps all repositories in a single SQLite database whose
//     schema is managed by goose migrations.
//
// Payloads are stored in their binary codec form and converted back to text
// on load. A missing cache loads as an empty snapshot; unreadable content is
// reported as ErrCorrupt and never partially applied.
package cache
