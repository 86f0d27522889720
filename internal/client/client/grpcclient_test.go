package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/statsync/internal/auth"
	"github.com/dmitrijs2005/statsync/internal/client/models"
	pb "github.com/dmitrijs2005/statsync/internal/proto"
	"github.com/dmitrijs2005/statsync/internal/resource"
)

/*************
 * Fake pb client
 *************/

type fakePB struct {
	lastPullReq *pb.PullRequest
	lastPushReq *pb.PushRequest

	pingResp *pb.PingResponse
	pingErr  error

	pullResp *pb.PullResponse
	pullErr  error

	pushResp *pb.PushResponse
	pushErr  error
}

func (f *fakePB) Ping(ctx context.Context, in *pb.PingRequest, opts ...grpc.CallOption) (*pb.PingResponse, error) {
	return f.pingResp, f.pingErr
}
func (f *fakePB) Pull(ctx context.Context, in *pb.PullRequest, opts ...grpc.CallOption) (*pb.PullResponse, error) {
	f.lastPullReq = in
	return f.pullResp, f.pullErr
}
func (f *fakePB) Push(ctx context.Context, in *pb.PushRequest, opts ...grpc.CallOption) (*pb.PushResponse, error) {
	f.lastPushReq = in
	return f.pushResp, f.pushErr
}

/*************
 * accessTokenInterceptor tests
 *************/

func TestInterceptor_AttachesTokenAndDevice(t *testing.T) {
	c := &GRPCClient{accessToken: "A1", deviceID: "dev-1"}

	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		require.Equal(t, []string{"A1"}, md.Get(auth.AccessTokenHeaderName))
		require.Equal(t, []string{"dev-1"}, md.Get(DeviceIDHeaderName))
		return nil
	}
	require.NoError(t, c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker))

	c.SetAccessToken("A2")
	invoker = func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		require.Equal(t, []string{"A2"}, md.Get(auth.AccessTokenHeaderName), "replaced, not appended")
		return nil
	}
	ctx := metadata.AppendToOutgoingContext(context.Background(), auth.AccessTokenHeaderName, "stale")
	require.NoError(t, c.accessTokenInterceptor(ctx, "/svc/Method", nil, nil, nil, invoker))
}

func TestInterceptor_NoTokenNoHeader(t *testing.T) {
	c := &GRPCClient{}
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		require.Empty(t, md.Get(auth.AccessTokenHeaderName))
		return status.Error(codes.Internal, "boom")
	}
	err := c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.Error(t, err)
}

/*************
 * mapError tests
 *************/

func TestMapError(t *testing.T) {
	c := &GRPCClient{}

	require.Equal(t, ErrUnauthorized, c.mapError(status.Error(codes.Unauthenticated, "x")))
	require.Equal(t, ErrUnauthorized, c.mapError(status.Error(codes.PermissionDenied, "x")))
	require.Equal(t, ErrUnavailable, c.mapError(status.Error(codes.Unavailable, "x")))
	require.Equal(t, ErrUnavailable, c.mapError(status.Error(codes.DeadlineExceeded, "x")))
	e := errors.New("plain")
	require.ErrorContains(t, c.mapError(e), "rpc error:")
	require.Equal(t, models.ErrorConnection, models.StateFromError(c.mapError(e)))
}

/*************
 * Ping tests
 *************/

func TestPing_OK(t *testing.T) {
	f := &fakePB{pingResp: &pb.PingResponse{Status: pb.PingOK}}
	c := &GRPCClient{client: f}
	require.NoError(t, c.Ping(context.Background()))
}

func TestPing_NotOK_ReturnsUnavailable(t *testing.T) {
	f := &fakePB{pingResp: &pb.PingResponse{Status: "NOT_OK"}}
	c := &GRPCClient{client: f}
	require.ErrorIs(t, c.Ping(context.Background()), ErrUnavailable)
}

func TestPing_MapsRPCError(t *testing.T) {
	f := &fakePB{pingErr: status.Error(codes.Unavailable, "down")}
	c := &GRPCClient{client: f}
	require.ErrorIs(t, c.Ping(context.Background()), ErrUnavailable)
}

/*************
 * Pull / Push tests
 *************/

func TestPull_BuildsRequestAndDecodesLines(t *testing.T) {
	lines := []models.Line{{URI: "[15/03/2024 10:00:00]ST//7%ch1", Payload: "chapter: ch1\n"}}
	f := &fakePB{pullResp: &pb.PullResponse{Lines: pb.LinesToProto(lines)}}
	c := &GRPCClient{client: f, timeout: time.Second}

	since := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	got, err := c.Pull(context.Background(), resource.Stats, since, 7)
	require.NoError(t, err)
	require.Equal(t, lines, got)

	require.NotNil(t, f.lastPullReq)
	require.Equal(t, "ST", f.lastPullReq.GetDatabase())
	require.Equal(t, "01/03/2024 08:00:00", f.lastPullReq.GetSince())
	require.Equal(t, int32(7), f.lastPullReq.GetUser())

	_, err = c.Pull(context.Background(), resource.Stats, time.Time{}, 7)
	require.NoError(t, err)
	require.Empty(t, f.lastPullReq.GetSince(), "zero since asks for everything")
}

func TestPull_Errors(t *testing.T) {
	f := &fakePB{pullErr: status.Error(codes.Unavailable, "down")}
	c := &GRPCClient{client: f}
	_, err := c.Pull(context.Background(), resource.Stats, time.Time{}, 7)
	require.ErrorIs(t, err, ErrUnavailable)

	f = &fakePB{pullResp: &pb.PullResponse{Lines: []*pb.Line{{Payload: "no uri"}}}}
	c = &GRPCClient{client: f}
	_, err = c.Pull(context.Background(), resource.Stats, time.Time{}, 7)
	require.ErrorIs(t, err, models.ErrMalformedData)
}

func TestPush_SendsBatchAndDecodesAcks(t *testing.T) {
	acks := []models.Ack{{URI: "[15/03/2024 10:00:00]ST//7%ch1", OK: true}}
	f := &fakePB{pushResp: &pb.PushResponse{Acks: pb.AcksToProto(acks)}}
	c := &GRPCClient{client: f, deviceID: "dev-1"}

	lines := []models.Line{{URI: "[15/03/2024 10:00:00]ST//7%ch1", Payload: "x"}}
	got, err := c.Push(context.Background(), "batch-1", lines)
	require.NoError(t, err)
	require.Equal(t, acks, got)

	require.NotNil(t, f.lastPushReq)
	require.Equal(t, "batch-1", f.lastPushReq.GetBatch())
	require.Equal(t, "dev-1", f.lastPushReq.GetDevice())
	sent, err := pb.LinesFromProto(f.lastPushReq.GetLines())
	require.NoError(t, err)
	require.Equal(t, lines, sent)
}

func TestPush_MapsRPCError(t *testing.T) {
	f := &fakePB{pushErr: status.Error(codes.Unauthenticated, "missing token")}
	c := &GRPCClient{client: f}
	_, err := c.Push(context.Background(), "b", nil)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestClose_NoConn(t *testing.T) {
	require.NoError(t, (&GRPCClient{}).Close())
}
