package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/statsync/internal/auth"
	"github.com/dmitrijs2005/statsync/internal/client/client/synctest"
	"github.com/dmitrijs2005/statsync/internal/client/codec"
	"github.com/dmitrijs2005/statsync/internal/client/models"
	"github.com/dmitrijs2005/statsync/internal/resource"
	"github.com/dmitrijs2005/statsync/internal/timex"
)

const secret = "test-secret"

func dialRemote(t *testing.T, srv *synctest.Server, opts ...Option) *GRPCClient {
	t.Helper()
	dial, stop := srv.Start()
	t.Cleanup(stop)

	c, err := NewGRPCClient(synctest.BufTarget, opts, dial)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGRPCClient_EndToEnd(t *testing.T) {
	ctx := context.Background()
	srv := synctest.NewServer(secret, nil)
	token, err := auth.GenerateToken(7, "dev-1", []byte(secret), time.Hour)
	require.NoError(t, err)
	c := dialRemote(t, srv, WithAccessToken(token), WithDeviceID("dev-1"), WithTimeout(5*time.Second))

	require.NoError(t, c.Ping(ctx))

	ts := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	payload, err := codec.EncodeTrainingChapter(models.TrainingChapter{Chapter: "ch1", Ratings: []int{3}})
	require.NoError(t, err)
	u := resource.NewURI(resource.Stats, "ch1", 7)

	acks, err := c.Push(ctx, "b1", []models.Line{
		{URI: resource.Format(u, ts, ""), Payload: payload},
		{URI: "garbage"},
	})
	require.NoError(t, err)
	require.Len(t, acks, 2)
	assert.True(t, acks[0].OK)
	assert.Equal(t, synctest.ReasonInvalidURI, acks[1].Reason)

	lines, err := c.Pull(ctx, resource.Stats, time.Time{}, 7)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "[15/03/2024 10:00:00]ST//7%ch1", lines[0].URI)
	assert.Equal(t, payload, lines[0].Payload)

	lines, err = c.Pull(ctx, resource.Stats, ts, 7)
	require.NoError(t, err)
	assert.Empty(t, lines, "since is exclusive")

	_, err = c.Pull(ctx, resource.Stats, time.Time{}, 8)
	assert.ErrorIs(t, err, ErrUnauthorized, "token user only")
	assert.Equal(t, "dev-1", srv.LastBatch().Device)
}

func TestGRPCClient_AuthAndOutage(t *testing.T) {
	ctx := context.Background()
	srv := synctest.NewServer(secret, nil)
	c := dialRemote(t, srv)

	require.NoError(t, c.Ping(ctx), "ping needs no token")
	_, err := c.Pull(ctx, resource.Stats, time.Time{}, 7)
	require.ErrorIs(t, err, ErrUnauthorized)

	expired, err := auth.GenerateToken(7, "", []byte(secret), -time.Minute)
	require.NoError(t, err)
	c.SetAccessToken(expired)
	_, err = c.Pull(ctx, resource.Stats, time.Time{}, 7)
	require.ErrorIs(t, err, ErrUnauthorized)

	srv.SetDown(true)
	require.ErrorIs(t, c.Ping(ctx), ErrUnavailable)
	assert.Equal(t, models.ErrorConnection, models.StateFromError(c.Ping(ctx)))
}

func TestGRPCClient_RemoteLastWriteWins(t *testing.T) {
	ctx := context.Background()
	srv := synctest.NewServer("", nil)
	c := dialRemote(t, srv)

	ts := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	u := resource.NewURI(resource.Sessions, "s1", 7)
	srv.Seed(u, ts, "", false)

	acks, err := c.Push(ctx, "b", []models.Line{
		{URI: resource.FormatReference(resource.Reference{URI: u, Timestamp: ts, Method: "delete"})},
	})
	require.NoError(t, err)
	require.Len(t, acks, 1)
	assert.Equal(t, synctest.ReasonStale, acks[0].Reason, "equal timestamp keeps remote")

	acks, err = c.Push(ctx, "b", []models.Line{
		{URI: resource.FormatReference(resource.Reference{URI: u, Timestamp: ts.Add(time.Second), Method: "delete"})},
	})
	require.NoError(t, err)
	assert.True(t, acks[0].OK)

	e, ok := srv.Get(u)
	require.True(t, ok)
	assert.True(t, e.Deleted)

	lines, err := c.Pull(ctx, resource.Sessions, time.Time{}, 7)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "["+timex.FormatStamp(ts.Add(time.Second))+"][delete]DS//7%s1", lines[0].URI)
}
