// Package synctest provides an in-memory SyncService for tests and local
// experiments. It applies last-write-wins by timestamp like a real remote,
// verifies access tokens when a secret is set, and lets tests inject
// outages and partial acknowledgements.
package synctest

import (
	"context"
	"net"
	"sort"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/dmitrijs2005/statsync/internal/client/codec"
	"github.com/dmitrijs2005/statsync/internal/client/models"
	"github.com/dmitrijs2005/statsync/internal/logging"
	pb "github.com/dmitrijs2005/statsync/internal/proto"
	"github.com/dmitrijs2005/statsync/internal/resource"
	"github.com/dmitrijs2005/statsync/internal/timex"
)

// BufTarget is the dial target to use with the dialer returned by Start.
const BufTarget = "passthrough:///bufnet"

// Ack reasons.
const (
	ReasonInvalidURI = "invalid uri"
	ReasonNoStamp    = "missing timestamp"
	ReasonForbidden  = "forbidden"
	ReasonStale      = "stale"
	ReasonMalformed  = "malformed payload"
)

// Entry is one stored record.
type Entry struct {
	Timestamp time.Time
	Deleted   bool
	Payload   string
}

// Batch is one received push.
type Batch struct {
	ID     string
	Device string
	Lines  []models.Line
}

type Server struct {
	pb.UnimplementedSyncServiceServer

	logger    logging.Logger
	jwtSecret []byte
	codecs    *codec.Registry

	mu        sync.Mutex
	entries   map[resource.URI]Entry
	down      bool
	ackLimit  int
	pulls     int
	pushes    int
	lastBatch Batch
}

// NewServer returns an empty remote. An empty secret disables token checks.
func NewServer(secretKey string, l logging.Logger) *Server {
	if l == nil {
		l = logging.Nop()
	}
	return &Server{
		logger:    l.With("module", "synctest"),
		jwtSecret: []byte(secretKey),
		codecs:    codec.Default(),
		entries:   make(map[resource.URI]Entry),
		ackLimit:  -1,
	}
}

// Start serves on an in-memory listener and returns the dial option that
// reaches it. The server stops when stop is called.
func (s *Server) Start() (dial grpc.DialOption, stop func()) {
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))
	pb.RegisterSyncServiceServer(srv, s)

	go func() { _ = srv.Serve(lis) }()

	dial = grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})
	return dial, func() {
		srv.Stop()
		_ = lis.Close()
	}
}

// SetDown makes every call fail with codes.Unavailable.
func (s *Server) SetDown(down bool) {
	s.mu.Lock()
	s.down = down
	s.mu.Unlock()
}

// SetAckLimit makes Push return at most n acknowledgements. Lines beyond
// the limit are still applied. Negative n removes the limit.
func (s *Server) SetAckLimit(n int) {
	s.mu.Lock()
	s.ackLimit = n
	s.mu.Unlock()
}

// Seed stores a record as if another device had pushed it.
func (s *Server) Seed(u resource.URI, ts time.Time, payload string, deleted bool) {
	s.mu.Lock()
	s.entries[u] = Entry{Timestamp: timex.Truncate(ts), Deleted: deleted, Payload: payload}
	s.mu.Unlock()
}

// Get returns the stored record for u.
func (s *Server) Get(u resource.URI) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[u]
	return e, ok
}

// Stats reports how many pulls and pushes were served.
func (s *Server) Stats() (pulls, pushes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pulls, s.pushes
}

// LastBatch returns the most recent push request.
func (s *Server) LastBatch() Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastBatch
}

func (s *Server) unavailable() error {
	if s.down {
		return status.Error(codes.Unavailable, "remote is down")
	}
	return nil
}

func (s *Server) Ping(ctx context.Context, _ *pb.PingRequest) (*pb.PingResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.unavailable(); err != nil {
		return nil, err
	}
	return &pb.PingResponse{Status: pb.PingOK}, nil
}

func (s *Server) Pull(ctx context.Context, in *pb.PullRequest) (*pb.PullResponse, error) {
	user := int(in.GetUser())
	if err := checkUser(ctx, user); err != nil {
		return nil, err
	}
	database := resource.ParseDatabase(in.GetDatabase())
	if database == resource.Unknown {
		return nil, status.Errorf(codes.InvalidArgument, "unknown database %q", in.GetDatabase())
	}
	var since time.Time
	if in.GetSince() != "" {
		var err error
		if since, err = timex.ParseStamp(in.GetSince()); err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "since: %v", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.unavailable(); err != nil {
		return nil, err
	}
	s.pulls++

	var lines []models.Line
	for u, e := range s.entries {
		if u.Database() != database || u.User() != user || !e.Timestamp.After(since) {
			continue
		}
		ref := resource.Reference{URI: u, Timestamp: e.Timestamp}
		if e.Deleted {
			ref.Method = "delete"
		}
		lines = append(lines, models.Line{URI: resource.FormatReference(ref), Payload: e.Payload})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].URI < lines[j].URI })

	s.logger.Debug(ctx, "pull served", "database", in.GetDatabase(), "since", in.GetSince(), "lines", len(lines))
	return &pb.PullResponse{Lines: pb.LinesToProto(lines)}, nil
}

func (s *Server) Push(ctx context.Context, in *pb.PushRequest) (*pb.PushResponse, error) {
	lines, err := pb.LinesFromProto(in.GetLines())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	tokenUser, hasToken := userFromContext(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.unavailable(); err != nil {
		return nil, err
	}
	s.pushes++
	s.lastBatch = Batch{ID: in.GetBatch(), Device: in.GetDevice(), Lines: lines}

	acks := make([]models.Ack, 0, len(lines))
	for _, line := range lines {
		acks = append(acks, s.apply(line, tokenUser, hasToken))
	}
	if s.ackLimit >= 0 && len(acks) > s.ackLimit {
		acks = acks[:s.ackLimit]
	}

	s.logger.Debug(ctx, "push served", "batch", in.GetBatch(), "lines", len(lines), "acks", len(acks))
	return &pb.PushResponse{Acks: pb.AcksToProto(acks)}, nil
}

// apply stores one pushed line under last-write-wins; s.mu must be held.
func (s *Server) apply(line models.Line, tokenUser int, hasToken bool) models.Ack {
	ack := models.Ack{URI: line.URI}

	ref, ok := resource.Parse(line.URI)
	switch {
	case !ok || ref.URI.Key() == "":
		ack.Reason = ReasonInvalidURI
		return ack
	case ref.Timestamp.IsZero():
		ack.Reason = ReasonNoStamp
		return ack
	case hasToken && ref.URI.User() != tokenUser:
		ack.Reason = ReasonForbidden
		return ack
	}

	deleted := ref.Method == "delete"
	if !deleted {
		c, err := s.codecs.Lookup(ref.URI.Database())
		if err != nil || c.Validate(line.Payload) != nil {
			ack.Reason = ReasonMalformed
			return ack
		}
	}

	e := Entry{Timestamp: ref.Timestamp, Deleted: deleted}
	if !deleted {
		e.Payload = line.Payload
	}

	if prev, exists := s.entries[ref.URI]; exists && !ref.Timestamp.After(prev.Timestamp) {
		// a resend of what is already stored is acknowledged again
		ack.OK = prev.Timestamp.Equal(e.Timestamp) && prev.Deleted == e.Deleted && prev.Payload == e.Payload
		if !ack.OK {
			ack.Reason = ReasonStale
		}
		return ack
	}
	s.entries[ref.URI] = e
	ack.OK = true
	return ack
}
