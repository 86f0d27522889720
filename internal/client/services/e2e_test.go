package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/statsync/internal/auth"
	"github.com/dmitrijs2005/statsync/internal/client/client"
	"github.com/dmitrijs2005/statsync/internal/client/client/synctest"
	"github.com/dmitrijs2005/statsync/internal/client/codec"
	"github.com/dmitrijs2005/statsync/internal/client/models"
	"github.com/dmitrijs2005/statsync/internal/client/repositories/cache"
	"github.com/dmitrijs2005/statsync/internal/client/repositories/synced"
	"github.com/dmitrijs2005/statsync/internal/client/session"
	"github.com/dmitrijs2005/statsync/internal/client/shardqueue"
	"github.com/dmitrijs2005/statsync/internal/logging"
	"github.com/dmitrijs2005/statsync/internal/resource"
)

const secret = "e2e-secret"

type device struct {
	svc   *SyncService
	stats *synced.Repo
	now   time.Time
}

func newDevice(t *testing.T, srv *synctest.Server, root string, now time.Time) *device {
	t.Helper()
	dial, stop := srv.Start()
	t.Cleanup(stop)

	token, err := auth.GenerateToken(7, "", []byte(secret), time.Hour)
	require.NoError(t, err)
	sess, err := session.New(root, token, -1)
	require.NoError(t, err)

	c, err := client.NewGRPCClient(synctest.BufTarget,
		[]client.Option{client.WithAccessToken(token), client.WithDeviceID(sess.DeviceID)}, dial)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	d := &device{now: now}
	store := cache.NewFileStore(cache.Path(root, "statsync", sess.CacheKey()+"_stats"), resource.Stats, codec.Default(), logging.Nop())
	d.stats = synced.New(resource.Stats, synced.WithStore(store), synced.WithClock(func() time.Time { return d.now }))
	require.NoError(t, d.stats.Load(context.Background()))

	d.svc = NewSyncService(c, sess, shardqueue.Config{Shards: 1, MaxAttempts: 1})
	t.Cleanup(func() { _ = d.svc.Close() })
	require.NoError(t, d.svc.AddRepo(d.stats))
	return d
}

func TestEndToEnd_TwoDevicesConverge(t *testing.T) {
	ctx := context.Background()
	srv := synctest.NewServer(secret, nil)
	a := newDevice(t, srv, t.TempDir(), base)
	b := newDevice(t, srv, t.TempDir(), base.Add(time.Hour))

	st, err := a.svc.PutChapterRating("ch1", 3, base)
	require.NoError(t, err)
	require.Equal(t, models.SendToServer, st)

	report := wait(t, a.svc.Sync(ctx, true))
	require.NoError(t, report.Err())
	assert.False(t, a.stats.IsDirty())

	pull := wait(t, b.svc.Pull(ctx, resource.Stats, true))
	require.NoError(t, pull.Err)
	assert.Equal(t, models.Updated, pull.State)

	rec, ok, err := b.svc.Get(resource.Stats, "ch1")
	require.NoError(t, err)
	require.True(t, ok)
	ch, err := codec.DecodeTrainingChapter(rec.Value)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, ch.Ratings)

	// B writes later; A's older edit loses on the remote.
	_, err = b.svc.PutChapterRating("ch1", 5, base.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, wait(t, b.svc.Push(ctx, true)).Err())

	a.now = base.Add(time.Minute)
	_, err = a.svc.PutChapterRating("ch1", 1, base.Add(time.Minute))
	require.NoError(t, err)
	push := wait(t, a.svc.Push(ctx, false))
	require.Len(t, push.Results[0].Rejected, 1)
	assert.Equal(t, synctest.ReasonStale, push.Results[0].Rejected[0].Reason)
	assert.True(t, a.stats.IsDirty(), "rejected change stays pending")

	// pulling the newer remote record replaces the pending local one
	pull = wait(t, a.svc.Pull(ctx, resource.Stats, false))
	require.NoError(t, pull.Err)
	assert.False(t, a.stats.IsDirty())
	rec, ok, err = a.svc.Get(resource.Stats, "ch1")
	require.NoError(t, err)
	require.True(t, ok)
	ch, err = codec.DecodeTrainingChapter(rec.Value)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 5}, ch.Ratings)
}

func TestEndToEnd_OutageAndRestart(t *testing.T) {
	ctx := context.Background()
	srv := synctest.NewServer(secret, nil)
	root := t.TempDir()
	a := newDevice(t, srv, root, base)

	_, err := a.svc.PutDriveSession(models.DriveSession{ID: "s1", Scenario: "city", Started: base, Ended: base.Add(time.Hour)})
	assert.ErrorIs(t, err, ErrRepoNotFound, "sessions repo is not registered")

	_, err = a.svc.PutChapterRating("ch2", 4, base)
	require.NoError(t, err)

	srv.SetDown(true)
	report := wait(t, a.svc.Sync(ctx, true))
	assert.ErrorIs(t, report.Err(), client.ErrUnavailable)
	assert.True(t, a.stats.IsDirty())
	assert.FileExists(t, filepath.Join(root, "statsync_7_stats.json"))

	// a fresh process picks the pending change up from the cache
	srv.SetDown(false)
	restarted := newDevice(t, srv, root, base.Add(time.Minute))
	require.True(t, restarted.stats.IsDirty())
	report = wait(t, restarted.svc.Sync(ctx, true))
	require.NoError(t, report.Err())
	assert.False(t, restarted.stats.IsDirty())

	e, ok := srv.Get(resource.NewURI(resource.Stats, "ch2", 7))
	require.True(t, ok)
	assert.Equal(t, base, e.Timestamp)
}

func TestEndToEnd_PartialAcknowledgement(t *testing.T) {
	ctx := context.Background()
	srv := synctest.NewServer(secret, nil)
	a := newDevice(t, srv, t.TempDir(), base)

	_, err := a.svc.PutChapterRating("ch1", 1, base)
	require.NoError(t, err)
	_, err = a.svc.PutChapterRating("ch2", 2, base)
	require.NoError(t, err)

	srv.SetAckLimit(1)
	push := wait(t, a.svc.Push(ctx, false))
	require.NoError(t, push.Err())
	assert.Equal(t, 1, push.Pending())

	srv.SetAckLimit(-1)
	push = wait(t, a.svc.Push(ctx, false))
	require.NoError(t, push.Err())
	assert.Zero(t, push.Pending())
	assert.False(t, a.stats.IsDirty())
}

func TestEndToEnd_LostAckResentAfterRestart(t *testing.T) {
	ctx := context.Background()
	srv := synctest.NewServer(secret, nil)
	root := t.TempDir()
	a := newDevice(t, srv, root, base)

	_, err := a.svc.Put(resource.Stats, "ch1", "chapter: ch1\nratings: [3, 4]\n")
	require.NoError(t, err)

	srv.SetAckLimit(0)
	push := wait(t, a.svc.Push(ctx, true))
	require.NoError(t, push.Err())
	require.Equal(t, 1, push.Pending())
	srv.SetAckLimit(-1)

	restarted := newDevice(t, srv, root, base.Add(time.Minute))
	require.True(t, restarted.stats.IsDirty())
	for i := 0; i < 2; i++ {
		push = wait(t, restarted.svc.Push(ctx, true))
		require.NoError(t, push.Err())
		for _, res := range push.Results {
			assert.Empty(t, res.Rejected)
		}
	}
	assert.Zero(t, push.Pending())
	assert.False(t, restarted.stats.IsDirty())

	e, ok := srv.Get(resource.NewURI(resource.Stats, "ch1", 7))
	require.True(t, ok)
	rec, ok := restarted.stats.Get(resource.NewURI(resource.Stats, "ch1", 7))
	require.True(t, ok)
	assert.Equal(t, e.Payload, rec.Value)
}
