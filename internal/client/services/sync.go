package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dmitrijs2005/statsync/internal/client/client"
	"github.com/dmitrijs2005/statsync/internal/client/codec"
	"github.com/dmitrijs2005/statsync/internal/client/models"
	"github.com/dmitrijs2005/statsync/internal/client/repositories/synced"
	"github.com/dmitrijs2005/statsync/internal/client/session"
	"github.com/dmitrijs2005/statsync/internal/client/shardqueue"
	"github.com/dmitrijs2005/statsync/internal/logging"
	"github.com/dmitrijs2005/statsync/internal/resource"
)

var (
	ErrRepoExists   = errors.New("repository already registered")
	ErrRepoNotFound = errors.New("repository not registered")
)

// SyncService drives pulls and pushes for the registered repositories.
type SyncService struct {
	client  client.Client
	session *session.Session
	codecs  *codec.Registry
	queue   *shardqueue.Executor
	logger  logging.Logger

	mu    sync.RWMutex
	repos map[resource.Database]synced.Repository
}

// Option configures a SyncService.
type Option func(*SyncService)

func WithCodecs(r *codec.Registry) Option {
	return func(s *SyncService) { s.codecs = r }
}

func WithLogger(l logging.Logger) Option {
	return func(s *SyncService) { s.logger = l }
}

// NewSyncService starts the work queue described by qcfg. Transport
// failures reported as client.ErrUnavailable are retried within a single
// operation; everything else fails fast.
func NewSyncService(c client.Client, sess *session.Session, qcfg shardqueue.Config, opts ...Option) *SyncService {
	s := &SyncService{
		client:  c,
		session: sess,
		codecs:  codec.Default(),
		logger:  logging.Nop(),
		repos:   make(map[resource.Database]synced.Repository),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("module", "sync_service")

	if qcfg.Retryable == nil {
		qcfg.Retryable = isTransient
	}
	if qcfg.Logger == nil {
		qcfg.Logger = s.logger
	}
	s.queue = shardqueue.New(qcfg)
	return s
}

func isTransient(err error) bool {
	return errors.Is(err, client.ErrUnavailable)
}

// jobError marks non-transient errors so the queue does not retry them.
func jobError(err error) error {
	if isTransient(err) {
		return err
	}
	return shardqueue.Permanent(err)
}

// AddRepo registers repo. Only one repository per database is allowed.
func (s *SyncService) AddRepo(repo synced.Repository) error {
	db := repo.Database()
	if db == resource.Unknown {
		return fmt.Errorf("add repo: %w", models.ErrInvalidRepo)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.repos[db]; ok {
		return fmt.Errorf("%s: %w", db, ErrRepoExists)
	}
	s.repos[db] = repo
	s.logger.Debug(context.Background(), "repository added", "database", db.String())
	return nil
}

// RemoveRepo unregisters repo if it is the instance registered for its
// database. Work already queued for it still runs.
func (s *SyncService) RemoveRepo(repo synced.Repository) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	db := repo.Database()
	if cur, ok := s.repos[db]; !ok || cur != repo {
		return false
	}
	delete(s.repos, db)
	return true
}

// Repo returns the repository registered for db.
func (s *SyncService) Repo(db resource.Database) (synced.Repository, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.repos[db]
	return r, ok
}

// registered returns the repositories ordered by database.
func (s *SyncService) registered() []synced.Repository {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]synced.Repository, 0, len(s.repos))
	for _, r := range s.repos {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Database() < out[j].Database() })
	return out
}

func (s *SyncService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

// Close drains queued work and stops the workers.
func (s *SyncService) Close() error {
	return s.queue.Close()
}

// Status reports every registered repository.
func (s *SyncService) Status() []RepoStatus {
	var out []RepoStatus
	for _, r := range s.registered() {
		st := RepoStatus{
			Database: r.Database(),
			Dirty:    r.IsDirty(),
			Pending:  len(r.GetChanges()),
			Cursor:   r.Cursor(),
		}
		if l, ok := r.(interface{ Len() int }); ok {
			st.Records = l.Len()
		}
		out = append(out, st)
	}
	return out
}

// Pull requests records of db newer than the repository cursor.
func (s *SyncService) Pull(ctx context.Context, db resource.Database, saveAfterward bool) <-chan PullResult {
	repo, ok := s.Repo(db)
	if !ok {
		return donePull(PullResult{Database: db, State: models.ErrorInvalidRepo, Err: fmt.Errorf("%s: %w", db, ErrRepoNotFound)})
	}
	return s.pullRepo(ctx, repo, nil, saveAfterward)
}

// PullSince is Pull with an explicit lower bound instead of the cursor.
func (s *SyncService) PullSince(ctx context.Context, db resource.Database, since time.Time, saveAfterward bool) <-chan PullResult {
	repo, ok := s.Repo(db)
	if !ok {
		return donePull(PullResult{Database: db, State: models.ErrorInvalidRepo, Err: fmt.Errorf("%s: %w", db, ErrRepoNotFound)})
	}
	return s.pullRepo(ctx, repo, &since, saveAfterward)
}

// PullAll pulls every registered repository.
func (s *SyncService) PullAll(ctx context.Context, saveAfterward bool) <-chan []PullResult {
	var chans []<-chan PullResult
	for _, r := range s.registered() {
		chans = append(chans, s.pullRepo(ctx, r, nil, saveAfterward))
	}
	out := make(chan []PullResult, 1)
	go func() {
		defer close(out)
		results := make([]PullResult, 0, len(chans))
		for _, ch := range chans {
			results = append(results, <-ch)
		}
		out <- results
	}()
	return out
}

// Push sends the dirty records of every registered repository as one
// logical batch. Each repository's share runs on its own lane.
func (s *SyncService) Push(ctx context.Context, saveAfterward bool) <-chan PushReport {
	batch := ulid.Make().String()
	var chans []<-chan PushResult
	for _, r := range s.registered() {
		chans = append(chans, s.pushRepo(ctx, r, batch, saveAfterward))
	}

	out := make(chan PushReport, 1)
	go func() {
		defer close(out)
		report := PushReport{Batch: batch}
		for _, ch := range chans {
			report.Results = append(report.Results, <-ch)
		}
		out <- report
	}()
	return out
}

// Sync pushes and then pulls every registered repository. Both phases are
// queued on the repository's lane, so the pull never overlaps the push.
func (s *SyncService) Sync(ctx context.Context, saveAfterward bool) <-chan SyncReport {
	batch := ulid.Make().String()
	repos := s.registered()
	pushes := make([]<-chan PushResult, 0, len(repos))
	pulls := make([]<-chan PullResult, 0, len(repos))
	for _, r := range repos {
		pushes = append(pushes, s.pushRepo(ctx, r, batch, false))
		pulls = append(pulls, s.pullRepo(ctx, r, nil, saveAfterward))
	}

	out := make(chan SyncReport, 1)
	go func() {
		defer close(out)
		report := SyncReport{Batch: batch}
		for _, ch := range pushes {
			report.Push = append(report.Push, <-ch)
		}
		for _, ch := range pulls {
			report.Pull = append(report.Pull, <-ch)
		}
		out <- report
	}()
	return out
}

// Flush waits until every operation queued so far has finished.
func (s *SyncService) Flush(ctx context.Context) error {
	for _, r := range s.registered() {
		if err := s.queue.Barrier(ctx, r.Database().Code()); err != nil {
			return err
		}
	}
	return nil
}

func (s *SyncService) pullRepo(ctx context.Context, repo synced.Repository, since *time.Time, save bool) <-chan PullResult {
	j := &pullJob{svc: s, repo: repo, since: since, save: save, done: make(chan PullResult, 1)}
	if err := s.queue.Submit(ctx, repo.Database().Code(), j); err != nil {
		j.Abandon(err)
	}
	return j.done
}

func (s *SyncService) pushRepo(ctx context.Context, repo synced.Repository, batch string, save bool) <-chan PushResult {
	j := &pushJob{svc: s, repo: repo, batch: batch, save: save, done: make(chan PushResult, 1)}
	if err := s.queue.Submit(ctx, repo.Database().Code(), j); err != nil {
		j.Abandon(err)
	}
	return j.done
}

func donePull(r PullResult) <-chan PullResult {
	ch := make(chan PullResult, 1)
	ch <- r
	close(ch)
	return ch
}

// save persists repo after an operation. Cancellation of the caller does not
// abort the write.
func (s *SyncService) save(ctx context.Context, repo synced.Repository) error {
	err := repo.Save(context.WithoutCancel(ctx))
	if errors.Is(err, synced.ErrNoStore) {
		return nil
	}
	if err != nil {
		s.logger.Error(ctx, "saving repository failed", "database", repo.Database().String(), "error", err)
	}
	return err
}
