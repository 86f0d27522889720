package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/statsync/internal/client/client"
	"github.com/dmitrijs2005/statsync/internal/client/codec"
	"github.com/dmitrijs2005/statsync/internal/client/models"
	"github.com/dmitrijs2005/statsync/internal/client/repositories/synced"
	"github.com/dmitrijs2005/statsync/internal/client/session"
	"github.com/dmitrijs2005/statsync/internal/client/shardqueue"
	"github.com/dmitrijs2005/statsync/internal/resource"
)

var base = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

// ---- fake client ----

type fakeClient struct {
	mu sync.Mutex

	PingErr  error
	PullRet  []models.Line
	PullErr  error
	PushErr  error
	AckLimit int // -1 acks everything
	Reject   map[string]string

	PullCalls int
	PullSince []time.Time
	PushCalls int
	PushedRaw [][]models.Line
	PushBatch []string
	calls     []string
	closed    bool
}

func newFakeClient() *fakeClient { return &fakeClient{AckLimit: -1} }

func (f *fakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeClient) Ping(context.Context) error { return f.PingErr }

func (f *fakeClient) Pull(_ context.Context, db resource.Database, since time.Time, _ int) ([]models.Line, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PullCalls++
	f.PullSince = append(f.PullSince, since)
	f.calls = append(f.calls, "pull "+db.Code())
	if f.PullErr != nil {
		return nil, f.PullErr
	}
	return f.PullRet, nil
}

func (f *fakeClient) Push(_ context.Context, batch string, lines []models.Line) ([]models.Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PushCalls++
	f.PushBatch = append(f.PushBatch, batch)
	f.PushedRaw = append(f.PushedRaw, lines)
	f.calls = append(f.calls, "push")
	if f.PushErr != nil {
		return nil, f.PushErr
	}
	acks := make([]models.Ack, 0, len(lines))
	for _, l := range lines {
		if reason, ok := f.Reject[l.URI]; ok {
			acks = append(acks, models.Ack{URI: l.URI, Reason: reason})
			continue
		}
		acks = append(acks, models.Ack{URI: l.URI, OK: true})
	}
	if f.AckLimit >= 0 && len(acks) > f.AckLimit {
		acks = acks[:f.AckLimit]
	}
	return acks, nil
}

// ---- helpers ----

type countingStore struct {
	mu    sync.Mutex
	saves int
	last  models.Snapshot
}

func (s *countingStore) Save(_ context.Context, snap models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.last = snap
	return nil
}

func (s *countingStore) Load(context.Context) (models.Snapshot, error) {
	return models.Snapshot{}, nil
}

func (s *countingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func newSession(t *testing.T) *session.Session {
	t.Helper()
	sess, err := session.New(t.TempDir(), "", 7)
	require.NoError(t, err)
	return sess
}

func newService(t *testing.T, c client.Client) *SyncService {
	t.Helper()
	svc := NewSyncService(c, newSession(t), shardqueue.Config{
		Shards:      2,
		MaxAttempts: 2,
		BaseBackoff: time.Millisecond,
		MaxInterval: 5 * time.Millisecond,
	})
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func newRepo(t *testing.T, db resource.Database, store synced.Store) *synced.Repo {
	t.Helper()
	clock := base
	opts := []synced.Option{synced.WithClock(func() time.Time { return clock })}
	if store != nil {
		opts = append(opts, synced.WithStore(store))
	}
	return synced.New(db, opts...)
}

func chapterText(t *testing.T, name string, ratings ...int) string {
	t.Helper()
	s, err := codec.EncodeTrainingChapter(models.TrainingChapter{Chapter: name, Ratings: ratings})
	require.NoError(t, err)
	return s
}

func wait[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed without a result")
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for result")
	}
	var zero T
	return zero
}

// ---- registration ----

func TestAddRemoveRepo(t *testing.T) {
	svc := newService(t, newFakeClient())
	stats := newRepo(t, resource.Stats, nil)

	require.NoError(t, svc.AddRepo(stats))
	assert.ErrorIs(t, svc.AddRepo(newRepo(t, resource.Stats, nil)), ErrRepoExists)
	assert.ErrorIs(t, svc.AddRepo(newRepo(t, resource.Unknown, nil)), models.ErrInvalidRepo)

	got, ok := svc.Repo(resource.Stats)
	require.True(t, ok)
	assert.Same(t, stats, got)

	assert.False(t, svc.RemoveRepo(newRepo(t, resource.Stats, nil)), "other instance")
	assert.True(t, svc.RemoveRepo(stats))
	_, ok = svc.Repo(resource.Stats)
	assert.False(t, ok)
}

func TestPull_UnregisteredDatabase(t *testing.T) {
	fc := newFakeClient()
	svc := newService(t, fc)

	res := wait(t, svc.Pull(context.Background(), resource.Stats, false))
	assert.Equal(t, models.ErrorInvalidRepo, res.State)
	assert.ErrorIs(t, res.Err, ErrRepoNotFound)
	assert.Zero(t, fc.PullCalls)
}

// ---- pull ----

func TestPull_AppliesNewerRecords(t *testing.T) {
	fc := newFakeClient()
	svc := newService(t, fc)
	repo := newRepo(t, resource.Stats, nil)
	require.NoError(t, svc.AddRepo(repo))

	u1 := resource.NewURI(resource.Stats, "ch1", 7)
	u2 := resource.NewURI(resource.Stats, "ch2", 7)
	fc.PullRet = []models.Line{
		{URI: resource.Format(u1, base, ""), Payload: chapterText(t, "ch1", 4)},
		{URI: resource.Format(u2, base.Add(time.Minute), ""), Payload: chapterText(t, "ch2", 5)},
	}

	res := wait(t, svc.Pull(context.Background(), resource.Stats, false))
	require.NoError(t, res.Err)
	assert.Equal(t, models.Updated, res.State)
	assert.Equal(t, 2, res.Received)
	assert.Equal(t, 2, res.Applied)
	assert.Equal(t, map[models.SyncState]int{models.Created: 2}, res.States)
	assert.Equal(t, base.Add(time.Minute), res.Cursor)
	assert.Equal(t, base.Add(time.Minute), repo.Cursor())
	assert.False(t, repo.IsDirty(), "pulled records are not local changes")

	rec, ok := repo.Get(u2)
	require.True(t, ok)
	assert.Equal(t, chapterText(t, "ch2", 5), rec.Value)

	// the second pull asks from the advanced cursor
	fc.PullRet = nil
	res = wait(t, svc.Pull(context.Background(), resource.Stats, false))
	assert.Equal(t, models.Unchanged, res.State)
	assert.Equal(t, []time.Time{{}, base.Add(time.Minute)}, fc.PullSince)
}

func TestPull_EmptyResponseLeavesRepoAlone(t *testing.T) {
	fc := newFakeClient()
	svc := newService(t, fc)
	repo := newRepo(t, resource.Stats, nil)
	require.NoError(t, svc.AddRepo(repo))

	u := resource.NewURI(resource.Stats, "ch1", 7)
	require.Equal(t, models.SendToServer, repo.Put(u, chapterText(t, "ch1", 1)))
	repo.AdvanceCursor(base.Add(-time.Hour))
	before := repo.Snapshot()

	res := wait(t, svc.Pull(context.Background(), resource.Stats, false))
	require.NoError(t, res.Err)
	assert.Equal(t, models.Unchanged, res.State)
	assert.Zero(t, res.Received)

	if diff := cmp.Diff(before, repo.Snapshot()); diff != "" {
		t.Errorf("repo changed after empty pull (-before +after):\n%s", diff)
	}
}

func TestPull_GarbageLine(t *testing.T) {
	fc := newFakeClient()
	svc := newService(t, fc)
	repo := newRepo(t, resource.Stats, nil)
	require.NoError(t, svc.AddRepo(repo))

	fc.PullRet = []models.Line{{URI: "garbage"}}

	res := wait(t, svc.Pull(context.Background(), resource.Stats, false))
	require.NoError(t, res.Err)
	assert.Equal(t, models.Unchanged, res.State)
	assert.Equal(t, map[models.SyncState]int{models.ErrorInvalidURI: 1}, res.States)
	assert.Zero(t, repo.Len())
	assert.True(t, repo.Cursor().IsZero())
}

func TestPull_RejectsBadLines(t *testing.T) {
	fc := newFakeClient()
	svc := newService(t, fc)
	repo := newRepo(t, resource.Stats, nil)
	require.NoError(t, svc.AddRepo(repo))

	fc.PullRet = []models.Line{
		{URI: resource.Format(resource.NewURI(resource.Stats, "bad", 7), base, ""), Payload: "ratings: [70000]"},
		{URI: resource.Format(resource.NewURI(resource.Sessions, "s1", 7), base, ""), Payload: "id: s1"},
		{URI: resource.Format(resource.NewURI(resource.Stats, "", 7), base, "")},
		{URI: resource.Format(resource.NewURI(resource.Stats, "nots", 7), time.Time{}, ""), Payload: chapterText(t, "nots")},
	}

	res := wait(t, svc.Pull(context.Background(), resource.Stats, false))
	assert.Equal(t, models.Unchanged, res.State)
	assert.Zero(t, res.Applied)
	assert.Equal(t, 4, res.Received)
	assert.Equal(t, 2, res.States[models.ErrorMalformattedData])
	assert.Zero(t, repo.Len())
}

func TestPull_RejectsOtherUsersLines(t *testing.T) {
	fc := newFakeClient()
	svc := newService(t, fc)
	repo := newRepo(t, resource.Stats, nil)
	require.NoError(t, svc.AddRepo(repo))

	fc.PullRet = []models.Line{
		{URI: resource.Format(resource.NewURI(resource.Stats, "ch1", 8), base, ""), Payload: chapterText(t, "ch1", 1)},
		{URI: resource.Format(resource.NewURI(resource.Stats, "shared", resource.NoUser), base, ""), Payload: chapterText(t, "shared", 2)},
	}

	res := wait(t, svc.Pull(context.Background(), resource.Stats, false))
	assert.Equal(t, 1, res.States[models.ErrorInvalidRepo])
	assert.Equal(t, 1, res.States[models.Created])
	_, ok := repo.Get(resource.NewURI(resource.Stats, "ch1", 8))
	assert.False(t, ok)
	assert.Equal(t, 1, repo.Len())
}

func TestPull_StoresCanonicalPayload(t *testing.T) {
	fc := newFakeClient()
	svc := newService(t, fc)
	repo := newRepo(t, resource.Stats, nil)
	require.NoError(t, svc.AddRepo(repo))

	u := resource.NewURI(resource.Stats, "ch1", 7)
	fc.PullRet = []models.Line{{URI: resource.Format(u, base, ""), Payload: "chapter: ch1\nratings: [3, 4]\n"}}

	res := wait(t, svc.Pull(context.Background(), resource.Stats, false))
	require.Equal(t, 1, res.Applied)
	rec, ok := repo.Get(u)
	require.True(t, ok)
	assert.Equal(t, chapterText(t, "ch1", 3, 4), rec.Value)
}

func TestPut_StoresCanonicalPayload(t *testing.T) {
	svc := newService(t, newFakeClient())
	require.NoError(t, svc.AddRepo(newRepo(t, resource.Stats, nil)))

	st, err := svc.Put(resource.Stats, "ch1", "chapter: ch1\nratings: [3, 4]\n")
	require.NoError(t, err)
	assert.Equal(t, models.SendToServer, st)

	rec, ok, err := svc.Get(resource.Stats, "ch1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, chapterText(t, "ch1", 3, 4), rec.Value)

	st, err = svc.Put(resource.Stats, "ch1", "ratings: [70000]")
	assert.ErrorIs(t, err, codec.ErrMalformed)
	assert.Equal(t, models.ErrorMalformattedData, st)
}

func TestPull_Tombstone(t *testing.T) {
	fc := newFakeClient()
	svc := newService(t, fc)
	repo := newRepo(t, resource.Stats, nil)
	require.NoError(t, svc.AddRepo(repo))

	u := resource.NewURI(resource.Stats, "ch1", 7)
	require.Equal(t, models.Created, repo.PushChange(models.Record{URI: u, Timestamp: base, Value: chapterText(t, "ch1", 1)}))

	fc.PullRet = []models.Line{{URI: resource.FormatReference(resource.Reference{
		URI: u, Timestamp: base.Add(time.Second), Method: models.MethodDelete.String(),
	})}}

	res := wait(t, svc.Pull(context.Background(), resource.Stats, false))
	assert.Equal(t, models.Updated, res.State)
	assert.Equal(t, 1, res.States[models.Deleted])
	_, ok := repo.Get(u)
	assert.False(t, ok)
}

func TestPull_ConnectionErrorLeavesRepoUnchanged(t *testing.T) {
	fc := newFakeClient()
	fc.PullErr = client.ErrUnavailable
	store := &countingStore{}
	svc := newService(t, fc)
	repo := newRepo(t, resource.Stats, store)
	require.NoError(t, svc.AddRepo(repo))

	u := resource.NewURI(resource.Stats, "ch1", 7)
	repo.Put(u, chapterText(t, "ch1", 2))
	before := repo.Snapshot()

	res := wait(t, svc.Pull(context.Background(), resource.Stats, true))
	assert.Equal(t, models.ErrorConnection, res.State)
	assert.ErrorIs(t, res.Err, client.ErrUnavailable)
	assert.Equal(t, 2, fc.PullCalls, "transient errors are retried")
	assert.Equal(t, 1, store.count(), "saved after the failed attempt")
	assert.Empty(t, cmp.Diff(before, repo.Snapshot()))
}

func TestPull_UnauthorizedIsNotRetried(t *testing.T) {
	fc := newFakeClient()
	fc.PullErr = client.ErrUnauthorized
	svc := newService(t, fc)
	require.NoError(t, svc.AddRepo(newRepo(t, resource.Stats, nil)))

	res := wait(t, svc.Pull(context.Background(), resource.Stats, false))
	assert.ErrorIs(t, res.Err, client.ErrUnauthorized)
	assert.Equal(t, 1, fc.PullCalls)
}

func TestPullSince_OverridesCursor(t *testing.T) {
	fc := newFakeClient()
	svc := newService(t, fc)
	repo := newRepo(t, resource.Stats, nil)
	repo.AdvanceCursor(base)
	require.NoError(t, svc.AddRepo(repo))

	wait(t, svc.PullSince(context.Background(), resource.Stats, time.Time{}, false))
	assert.Equal(t, []time.Time{{}}, fc.PullSince)
}

func TestPullAll(t *testing.T) {
	fc := newFakeClient()
	svc := newService(t, fc)
	require.NoError(t, svc.AddRepo(newRepo(t, resource.Stats, nil)))
	require.NoError(t, svc.AddRepo(newRepo(t, resource.Students, nil)))

	results := wait(t, svc.PullAll(context.Background(), false))
	require.Len(t, results, 2)
	assert.Equal(t, resource.Students, results[0].Database)
	assert.Equal(t, resource.Stats, results[1].Database)
}

// ---- push ----

func TestPush_AcknowledgedRecordsAreClean(t *testing.T) {
	fc := newFakeClient()
	store := &countingStore{}
	svc := newService(t, fc)
	repo := newRepo(t, resource.Stats, store)
	require.NoError(t, svc.AddRepo(repo))

	u1 := resource.NewURI(resource.Stats, "ch1", 7)
	u2 := resource.NewURI(resource.Stats, "ch2", 7)
	repo.Put(u1, chapterText(t, "ch1", 1))
	repo.Put(u2, chapterText(t, "ch2", 2))

	report := wait(t, svc.Push(context.Background(), true))
	require.NoError(t, report.Err())
	require.Len(t, report.Results, 1)
	res := report.Results[0]
	assert.Equal(t, models.SendToServer, res.State)
	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, 2, res.Acknowledged)
	assert.Zero(t, res.Pending)
	assert.False(t, repo.IsDirty())
	assert.Equal(t, 1, store.count())

	require.Len(t, fc.PushedRaw, 1)
	assert.Equal(t, "[15/03/2024 10:00:00]ST//7%ch1", fc.PushedRaw[0][0].URI)
	assert.NotEmpty(t, report.Batch)
	assert.Equal(t, report.Batch, fc.PushBatch[0])
}

func TestPush_PartialAckLeavesRestDirty(t *testing.T) {
	fc := newFakeClient()
	fc.AckLimit = 1
	svc := newService(t, fc)
	repo := newRepo(t, resource.Stats, nil)
	require.NoError(t, svc.AddRepo(repo))

	u1 := resource.NewURI(resource.Stats, "ch1", 7)
	u2 := resource.NewURI(resource.Stats, "ch2", 7)
	repo.Put(u1, chapterText(t, "ch1", 1))
	repo.Put(u2, chapterText(t, "ch2", 2))

	report := wait(t, svc.Push(context.Background(), false))
	res := report.Results[0]
	assert.Equal(t, 1, res.Acknowledged)
	assert.Equal(t, 1, res.Pending)
	assert.Equal(t, 1, report.Pending())

	changes := repo.GetChanges()
	require.Len(t, changes, 1)
	assert.Equal(t, u2, changes[0].URI)
}

func TestPush_RejectionStaysDirty(t *testing.T) {
	fc := newFakeClient()
	svc := newService(t, fc)
	repo := newRepo(t, resource.Stats, nil)
	require.NoError(t, svc.AddRepo(repo))

	u := resource.NewURI(resource.Stats, "ch1", 7)
	repo.Put(u, chapterText(t, "ch1", 1))
	wire := "[15/03/2024 10:00:00]ST//7%ch1"
	fc.Reject = map[string]string{wire: "stale"}

	report := wait(t, svc.Push(context.Background(), false))
	res := report.Results[0]
	assert.Equal(t, []Rejection{{URI: wire, Reason: "stale"}}, res.Rejected)
	assert.Zero(t, res.Acknowledged)
	assert.True(t, repo.IsDirty())
}

func TestPush_NothingToSend(t *testing.T) {
	fc := newFakeClient()
	svc := newService(t, fc)
	require.NoError(t, svc.AddRepo(newRepo(t, resource.Stats, nil)))

	report := wait(t, svc.Push(context.Background(), false))
	assert.Equal(t, models.Unchanged, report.Results[0].State)
	assert.Zero(t, fc.PushCalls)
}

func TestPush_ConnectionErrorKeepsChangesAndSaves(t *testing.T) {
	fc := newFakeClient()
	fc.PushErr = client.ErrUnavailable
	store := &countingStore{}
	svc := newService(t, fc)
	repo := newRepo(t, resource.Stats, store)
	require.NoError(t, svc.AddRepo(repo))

	u := resource.NewURI(resource.Stats, "ch1", 7)
	repo.Put(u, chapterText(t, "ch1", 1))

	report := wait(t, svc.Push(context.Background(), true))
	res := report.Results[0]
	assert.Equal(t, models.ErrorConnection, res.State)
	assert.Equal(t, 1, res.Pending)
	assert.ErrorIs(t, report.Err(), client.ErrUnavailable)
	assert.True(t, repo.IsDirty())
	assert.Equal(t, 1, store.count())
	require.Len(t, store.last.Records, 1)
	assert.True(t, store.last.Records[0].Dirty)
}

func TestPush_TombstoneIsTaggedAndPurgedOnAck(t *testing.T) {
	fc := newFakeClient()
	svc := newService(t, fc)
	repo := newRepo(t, resource.Stats, nil)
	require.NoError(t, svc.AddRepo(repo))

	u := resource.NewURI(resource.Stats, "ch1", 7)
	require.Equal(t, models.Created, repo.PushChange(models.Record{URI: u, Timestamp: base, Value: chapterText(t, "ch1", 1)}))
	require.Equal(t, models.SendToServer, repo.Delete(u))

	report := wait(t, svc.Push(context.Background(), false))
	require.NoError(t, report.Err())
	assert.Equal(t, "[15/03/2024 10:00:01][delete]ST//7%ch1", fc.PushedRaw[0][0].URI)
	assert.False(t, repo.IsDirty())
	assert.Zero(t, len(repo.Snapshot().Records))
}

// ---- sync ----

func TestSync_PushesBeforePulling(t *testing.T) {
	fc := newFakeClient()
	svc := newService(t, fc)
	repo := newRepo(t, resource.Stats, nil)
	require.NoError(t, svc.AddRepo(repo))
	repo.Put(resource.NewURI(resource.Stats, "ch1", 7), chapterText(t, "ch1", 1))

	report := wait(t, svc.Sync(context.Background(), false))
	require.NoError(t, report.Err())
	require.Len(t, report.Push, 1)
	require.Len(t, report.Pull, 1)
	assert.Equal(t, []string{"push", "pull ST"}, fc.calls)
	assert.False(t, repo.IsDirty())
}

func TestFlushAndStatus(t *testing.T) {
	fc := newFakeClient()
	svc := newService(t, fc)
	repo := newRepo(t, resource.Stats, nil)
	require.NoError(t, svc.AddRepo(repo))
	repo.Put(resource.NewURI(resource.Stats, "ch1", 7), chapterText(t, "ch1", 1))

	_ = svc.Pull(context.Background(), resource.Stats, false)
	require.NoError(t, svc.Flush(context.Background()))
	assert.Equal(t, 1, fc.PullCalls)

	st := svc.Status()
	require.Len(t, st, 1)
	assert.Equal(t, RepoStatus{Database: resource.Stats, Dirty: true, Pending: 1, Records: 1}, st[0])
}

func TestPing(t *testing.T) {
	fc := newFakeClient()
	svc := newService(t, fc)
	assert.NoError(t, svc.Ping(context.Background()))
	fc.PingErr = errors.New("boom")
	assert.Error(t, svc.Ping(context.Background()))
}
