// Package cli provides the statsync command-line client.
//
// App wires configuration, the per-user session, the local caches, the
// remote client and the sync service. The cobra command tree in root.go
// drives it: one-shot commands (pull, push, sync, status, put, rate,
// delete, show) and an interactive shell that runs the same commands
// line by line. "sync --watch" keeps syncing on an interval and follows
// connectivity with a ping watcher.
package cli
