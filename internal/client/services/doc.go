// Package services contains application services for the statsync client.
//
// SyncService is the orchestrator: repositories register with AddRepo, and
// Pull, Push and Sync move their records to and from the remote. Every
// operation against a repository runs on that repository's lane of a
// shardqueue.Executor, so two operations on the same repository never
// overlap while different repositories proceed in parallel.
//
// Operations return a channel that receives exactly one result and is then
// closed. Callers that lose interest may drop the channel; a response that
// already arrived is still applied.
//
// A failed transport call leaves the repository exactly as it was. Records
// stay dirty until the remote acknowledges them with the timestamp that was
// pushed.
package services
