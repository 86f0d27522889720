package synced

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/statsync/internal/client/models"
	"github.com/dmitrijs2005/statsync/internal/logging"
	"github.com/dmitrijs2005/statsync/internal/resource"
	"github.com/dmitrijs2005/statsync/internal/timex"
)

// ErrNoStore is returned by Save and Load when the repo has no Store.
var ErrNoStore = errors.New("repository has no store")

// Repo is the in-memory Repository implementation.
type Repo struct {
	mu       sync.Mutex
	database resource.Database
	records  map[resource.URI]models.Record
	dirty    []resource.URI
	dirtySet map[resource.URI]struct{}
	cursor   time.Time
	owner    int

	store  Store
	now    func() time.Time
	logger logging.Logger
}

// Option configures a Repo.
type Option func(*Repo)

// WithStore attaches the persistence used by Save and Load.
func WithStore(s Store) Option {
	return func(r *Repo) { r.store = s }
}

// WithClock overrides time.Now for local mutations.
func WithClock(now func() time.Time) Option {
	return func(r *Repo) { r.now = now }
}

// WithOwner rejects URIs scoped to any user other than id.
func WithOwner(id int) Option {
	return func(r *Repo) { r.owner = id }
}

func WithLogger(l logging.Logger) Option {
	return func(r *Repo) { r.logger = l }
}

// New returns an empty repo for database.
func New(database resource.Database, opts ...Option) *Repo {
	r := &Repo{
		database: database,
		records:  make(map[resource.URI]models.Record),
		dirtySet: make(map[resource.URI]struct{}),
		owner:    resource.NoUser,
		now:      time.Now,
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("module", "repo", "database", database.String())
	return r
}

func (r *Repo) Database() resource.Database { return r.database }

func (r *Repo) IsDirty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.dirty) > 0
}

// check validates an address against this repo.
func (r *Repo) check(u resource.URI) models.SyncState {
	switch {
	case !u.Valid():
		return models.ErrorInvalidURI
	case u.Database() != r.database:
		return models.ErrorInvalidRepo
	case r.owner != resource.NoUser && u.Scoped() && u.User() != r.owner:
		return models.ErrorInvalidRepo
	case u.Key() == "":
		return models.ErrorMissingKey
	}
	return models.Unchanged
}

// nextTimestamp keeps local timestamps strictly increasing at wire precision.
func (r *Repo) nextTimestamp(prev time.Time) time.Time {
	ts := timex.Truncate(r.now())
	if !prev.IsZero() && !ts.After(prev) {
		ts = prev.Add(time.Second)
	}
	return ts
}

func (r *Repo) markDirty(u resource.URI) {
	if _, ok := r.dirtySet[u]; ok {
		return
	}
	r.dirtySet[u] = struct{}{}
	r.dirty = append(r.dirty, u)
}

func (r *Repo) unmarkDirty(u resource.URI) {
	if _, ok := r.dirtySet[u]; !ok {
		return
	}
	delete(r.dirtySet, u)
	for i, d := range r.dirty {
		if d == u {
			r.dirty = append(r.dirty[:i], r.dirty[i+1:]...)
			break
		}
	}
}

// Put stores value at u as a local change. It returns SendToServer when the
// record was dirtied, Unchanged when the value is identical, or an error state.
func (r *Repo) Put(u resource.URI, value string) models.SyncState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if st := r.check(u); st.IsError() {
		return st
	}

	prev, ok := r.records[u]
	method := models.MethodCreate
	if ok && !prev.Tombstone() {
		if prev.Value == value {
			return models.Unchanged
		}
		method = models.MethodUpdate
	}

	r.records[u] = models.Record{
		URI:       u,
		Method:    method,
		Timestamp: r.nextTimestamp(prev.Timestamp),
		Value:     value,
	}
	r.markDirty(u)
	return models.SendToServer
}

// Delete replaces the record at u with a dirty tombstone.
func (r *Repo) Delete(u resource.URI) models.SyncState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if st := r.check(u); st.IsError() {
		return st
	}
	prev, ok := r.records[u]
	if !ok || prev.Tombstone() {
		return models.Unchanged
	}
	r.records[u] = models.Record{
		URI:       u,
		Method:    models.MethodDelete,
		Timestamp: r.nextTimestamp(prev.Timestamp),
	}
	r.markDirty(u)
	return models.SendToServer
}

// Get returns the live record at u. Tombstones are reported as missing.
func (r *Repo) Get(u resource.URI) (models.Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[u]
	if !ok || rec.Tombstone() {
		return models.Record{}, false
	}
	return rec, true
}

// All returns live records sorted by their URI string.
func (r *Repo) All() []models.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Record, 0, len(r.records))
	for _, rec := range r.records {
		if !rec.Tombstone() {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URI.String() < out[j].URI.String() })
	return out
}

// Len counts live records.
func (r *Repo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rec := range r.records {
		if !rec.Tombstone() {
			n++
		}
	}
	return n
}

func (r *Repo) GetChanges() []models.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Record, 0, len(r.dirty))
	for _, u := range r.dirty {
		out = append(out, r.records[u])
	}
	return out
}

func (r *Repo) PushChange(rec models.Record) models.SyncState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if st := r.check(rec.URI); st.IsError() {
		return st
	}

	prev, ok := r.records[rec.URI]
	if ok && !rec.Timestamp.After(prev.Timestamp) {
		return models.Unchanged
	}
	if rec.Tombstone() {
		rec.Value = ""
	}
	r.records[rec.URI] = rec
	if _, dirty := r.dirtySet[rec.URI]; dirty {
		r.logger.Debug(context.Background(), "remote change replaced pending local change", "uri", rec.URI.String())
		r.unmarkDirty(rec.URI)
	}

	switch {
	case rec.Tombstone() && (!ok || prev.Tombstone()):
		return models.Unchanged
	case rec.Tombstone():
		return models.Deleted
	case ok && !prev.Tombstone():
		return models.Updated
	default:
		return models.Created
	}
}

func (r *Repo) ClearChanges() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirty = nil
	r.dirtySet = make(map[resource.URI]struct{})
}

// Acknowledge clears the dirty flag for u when the stored Timestamp equals ts,
// so a change made while a push was in flight stays dirty. Acknowledged
// tombstones are purged.
func (r *Repo) Acknowledge(u resource.URI, ts time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dirty := r.dirtySet[u]; !dirty {
		return false
	}
	rec := r.records[u]
	if !rec.Timestamp.Equal(ts) {
		return false
	}
	r.unmarkDirty(u)
	if rec.Tombstone() {
		delete(r.records, u)
	}
	return true
}

func (r *Repo) Cursor() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursor
}

func (r *Repo) AdvanceCursor(ts time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !ts.After(r.cursor) {
		return false
	}
	r.cursor = ts
	return true
}

// Snapshot copies the full state, tombstones and dirty flags included.
func (r *Repo) Snapshot() models.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := models.Snapshot{
		Database:  r.database,
		LastSynch: r.cursor,
		Records:   make([]models.CachedRecord, 0, len(r.records)),
	}
	for u, rec := range r.records {
		_, dirty := r.dirtySet[u]
		s.Records = append(s.Records, models.CachedRecord{Record: rec, Dirty: dirty})
	}
	sort.Slice(s.Records, func(i, j int) bool {
		return s.Records[i].URI.String() < s.Records[j].URI.String()
	})
	return s
}

// Merge folds a snapshot into the repo. On a key collision the record with
// the newer Timestamp wins and carries its own dirty flag; ties keep the
// in-memory record. It returns how many records were taken from s.
func (r *Repo) Merge(s models.Snapshot) (int, error) {
	if s.Database != resource.Unknown && s.Database != r.database {
		return 0, fmt.Errorf("merge %s snapshot into %s repo: %w", s.Database, r.database, models.ErrInvalidRepo)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	taken := 0
	for _, c := range s.Records {
		if st := r.check(c.URI); st.IsError() {
			r.logger.Warn(context.Background(), "skipping cached record", "uri", c.URI.String(), "state", st.String())
			continue
		}
		if prev, ok := r.records[c.URI]; ok && !c.Timestamp.After(prev.Timestamp) {
			continue
		}
		r.records[c.URI] = c.Record
		if c.Dirty {
			r.markDirty(c.URI)
		} else {
			r.unmarkDirty(c.URI)
		}
		taken++
	}
	if s.LastSynch.After(r.cursor) {
		r.cursor = s.LastSynch
	}
	return taken, nil
}

func (r *Repo) Save(ctx context.Context) error {
	if r.store == nil {
		return ErrNoStore
	}
	s := r.Snapshot()
	if err := r.store.Save(ctx, s); err != nil {
		r.logger.Error(ctx, "saving repository failed", "error", err)
		return fmt.Errorf("save %s: %w", r.database, err)
	}
	r.logger.Debug(ctx, "repository saved", "records", len(s.Records))
	return nil
}

// Load reads the store and merges it. A missing cache is not an error: the
// repo simply starts empty with a zero cursor, which asks for a full pull.
func (r *Repo) Load(ctx context.Context) error {
	if r.store == nil {
		return ErrNoStore
	}
	s, err := r.store.Load(ctx)
	if err != nil {
		r.logger.Error(ctx, "loading repository failed, full pull required", "error", err)
		return fmt.Errorf("load %s: %w", r.database, err)
	}
	taken, err := r.Merge(s)
	if err != nil {
		return err
	}
	r.logger.Debug(ctx, "repository loaded", "records", taken, "last_synch", s.LastSynch)
	return nil
}
