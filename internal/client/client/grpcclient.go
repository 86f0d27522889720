package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/statsync/internal/auth"
	"github.com/dmitrijs2005/statsync/internal/client/models"
	pb "github.com/dmitrijs2005/statsync/internal/proto"
	"github.com/dmitrijs2005/statsync/internal/resource"
	"github.com/dmitrijs2005/statsync/internal/timex"
)

// DeviceIDHeaderName is the metadata key identifying the syncing device.
const DeviceIDHeaderName = "device_id"

const defaultTimeout = 15 * time.Second

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      pb.SyncServiceClient
	timeout     time.Duration
	deviceID    string

	mu          sync.RWMutex
	accessToken string
}

// Option configures a GRPCClient.
type Option func(*GRPCClient)

func WithAccessToken(token string) Option {
	return func(c *GRPCClient) { c.accessToken = token }
}

func WithDeviceID(id string) Option {
	return func(c *GRPCClient) { c.deviceID = id }
}

// WithTimeout bounds every call. Zero or negative keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *GRPCClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewGRPCClient creates a client for endpointURL. Extra dial options are
// appended after the defaults, so tests can swap the dialer.
func NewGRPCClient(endpointURL string, opts []Option, dialOpts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, timeout: defaultTimeout}
	for _, opt := range opts {
		opt(c)
	}

	dialOpts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, dialOpts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = pb.NewSyncServiceClient(conn)
	return c, nil
}

// SetAccessToken replaces the token used by subsequent calls.
func (c *GRPCClient) SetAccessToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

func (c *GRPCClient) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

func withHeader(ctx context.Context, key, value string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(key, value)
	return metadata.NewOutgoingContext(ctx, md)
}

func (c *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if token := c.token(); token != "" {
		ctx = withHeader(ctx, auth.AccessTokenHeaderName, token)
	}
	if c.deviceID != "" {
		ctx = withHeader(ctx, DeviceIDHeaderName, c.deviceID)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

func (c *GRPCClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *GRPCClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *GRPCClient) Ping(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.client.Ping(ctx, &pb.PingRequest{})
	if err != nil {
		return c.mapError(err)
	}
	if resp.GetStatus() != pb.PingOK {
		return ErrUnavailable
	}
	return nil
}

func (c *GRPCClient) Pull(ctx context.Context, database resource.Database, since time.Time, user int) ([]models.Line, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req := &pb.PullRequest{Database: database.Code(), User: int32(user)}
	if !since.IsZero() {
		req.Since = timex.FormatStamp(since)
	}

	resp, err := c.client.Pull(ctx, req)
	if err != nil {
		return nil, c.mapError(err)
	}

	lines, err := pb.LinesFromProto(resp.GetLines())
	if err != nil {
		return nil, fmt.Errorf("pull response: %w: %w", models.ErrMalformedData, err)
	}
	return lines, nil
}

func (c *GRPCClient) Push(ctx context.Context, batch string, lines []models.Line) ([]models.Ack, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req := &pb.PushRequest{Batch: batch, Device: c.deviceID, Lines: pb.LinesToProto(lines)}
	resp, err := c.client.Push(ctx, req)
	if err != nil {
		return nil, c.mapError(err)
	}

	acks, err := pb.AcksFromProto(resp.GetAcks())
	if err != nil {
		return nil, fmt.Errorf("push response: %w: %w", models.ErrMalformedData, err)
	}
	return acks, nil
}

func (c *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
