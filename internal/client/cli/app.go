package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"google.golang.org/grpc"

	"github.com/dmitrijs2005/statsync/internal/client/client"
	"github.com/dmitrijs2005/statsync/internal/client/codec"
	"github.com/dmitrijs2005/statsync/internal/client/config"
	"github.com/dmitrijs2005/statsync/internal/client/repositories/cache"
	"github.com/dmitrijs2005/statsync/internal/client/repositories/synced"
	"github.com/dmitrijs2005/statsync/internal/client/services"
	"github.com/dmitrijs2005/statsync/internal/client/session"
	"github.com/dmitrijs2005/statsync/internal/client/shardqueue"
	"github.com/dmitrijs2005/statsync/internal/logging"
	"github.com/dmitrijs2005/statsync/internal/resource"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// App is one running client: a session with its repositories attached to
// a sync service.
type App struct {
	config  *config.Config
	logger  logging.Logger
	session *session.Session
	svc     *services.SyncService
	repos   map[resource.Database]*synced.Repo

	dialOpts []grpc.DialOption
	closers  []io.Closer

	mu   sync.Mutex
	Mode Mode
}

// AppOption customizes NewApp.
type AppOption func(*App)

// WithDialOptions appends gRPC dial options, e.g. an in-memory dialer.
func WithDialOptions(opts ...grpc.DialOption) AppOption {
	return func(a *App) { a.dialOpts = append(a.dialOpts, opts...) }
}

// WithAppLogger replaces the logger built from the config.
func WithAppLogger(l logging.Logger) AppOption {
	return func(a *App) { a.logger = l }
}

// NewApp opens the caches for every known database and connects the sync
// service. Cached records are loaded before NewApp returns; a corrupt cache
// leaves its repository empty until the next pull.
func NewApp(ctx context.Context, c *config.Config, opts ...AppOption) (*App, error) {
	a := &App{config: c, repos: make(map[resource.Database]*synced.Repo)}
	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		l, err := a.newLogger()
		if err != nil {
			return nil, err
		}
		a.logger = l
	}

	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) newLogger() (logging.Logger, error) {
	var w io.Writer = os.Stderr
	if a.config.LogFile != "" {
		f := logging.RotatingFile(a.config.LogFile, 10, 3)
		a.closers = append(a.closers, f)
		w = f
	}
	return logging.New(w, a.config.LogLevel, a.config.LogFormat)
}

func (a *App) init(ctx context.Context) error {
	sess, err := session.New(a.config.DataRoot, a.config.AccessToken, a.config.UserID)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}
	a.session = sess
	a.logger = a.logger.With("user", sess.UserID, "device", sess.DeviceID)

	codecs := codec.Default()
	stores, err := a.openStores(ctx, codecs)
	if err != nil {
		return err
	}

	apiClient, err := client.NewGRPCClient(a.config.ServerEndpointAddr, []client.Option{
		client.WithAccessToken(sess.AccessToken),
		client.WithDeviceID(sess.DeviceID),
		client.WithTimeout(a.config.RequestTimeout),
	}, a.dialOpts...)
	if err != nil {
		return fmt.Errorf("connect %s: %w", a.config.ServerEndpointAddr, err)
	}
	a.closers = append(a.closers, apiClient)

	qcfg, err := shardqueue.LoadConfig()
	if err != nil {
		return fmt.Errorf("queue config: %w", err)
	}
	qcfg.Shards = a.config.QueueShards
	qcfg.QueueSize = a.config.QueueSize

	a.svc = services.NewSyncService(apiClient, sess, qcfg,
		services.WithCodecs(codecs), services.WithLogger(a.logger))
	a.closers = append(a.closers, a.svc)

	for _, db := range resource.Databases() {
		repo := synced.New(db,
			synced.WithStore(stores[db]),
			synced.WithOwner(sess.UserID),
			synced.WithLogger(a.logger))
		if err := repo.Load(ctx); err != nil {
			if !errors.Is(err, cache.ErrCorrupt) {
				return fmt.Errorf("load %s cache: %w", db, err)
			}
			// Start empty with a zero cursor: the next pull is a full pull
			// and the next save replaces the damaged cache.
			a.logger.Warn(ctx, "cache corrupt, starting empty", "database", db.String(), "error", err)
		}
		if err := a.svc.AddRepo(repo); err != nil {
			return err
		}
		a.repos[db] = repo
	}
	return nil
}

// openStores returns one store per database for the configured backend.
func (a *App) openStores(ctx context.Context, codecs *codec.Registry) (map[resource.Database]synced.Store, error) {
	stores := make(map[resource.Database]synced.Store)
	prefix := a.config.CachePrefix
	key := a.session.CacheKey()

	switch a.config.CacheBackend {
	case config.BackendSQLite:
		dsn := filepath.Join(a.session.DataRoot, prefix+"_"+key+".db")
		db, err := cache.OpenDatabase(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("open cache database: %w", err)
		}
		a.closers = append(a.closers, db)
		for _, d := range resource.Databases() {
			stores[d] = cache.NewSQLiteStore(db, d, codecs, a.logger)
		}
	default:
		for _, d := range resource.Databases() {
			path := cache.Path(a.session.DataRoot, prefix, key+"_"+d.String())
			stores[d] = cache.NewFileStore(path, d, codecs, a.logger)
		}
	}
	return stores, nil
}

// save writes the repository of db to its cache.
func (a *App) save(ctx context.Context, db resource.Database) error {
	repo, ok := a.repos[db]
	if !ok {
		return fmt.Errorf("%s: %w", db, services.ErrRepoNotFound)
	}
	if err := repo.Save(ctx); err != nil {
		return fmt.Errorf("save %s cache: %w", db, err)
	}
	return nil
}

// Close stops the sync service and releases everything NewApp opened, in
// reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) setMode(mode Mode) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Mode == mode {
		return false
	}
	a.Mode = mode
	a.logger.Info(context.Background(), "connectivity changed", "mode", string(mode))
	return true
}

// StartOnlineStatusWatcher pings the remote every interval until ctx is
// done. onOnline runs each time the remote becomes reachable again.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration, onOnline func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := a.svc.Ping(pingCtx)
			cancel()

			if err != nil {
				a.setMode(ModeOffline)
				continue
			}
			if a.setMode(ModeOnline) && onOnline != nil {
				onOnline()
			}

		case <-ctx.Done():
			return
		}
	}
}
