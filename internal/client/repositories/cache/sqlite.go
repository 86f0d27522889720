package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/dmitrijs2005/statsync/internal/client/codec"
	"github.com/dmitrijs2005/statsync/internal/client/migrations"
	"github.com/dmitrijs2005/statsync/internal/client/models"
	"github.com/dmitrijs2005/statsync/internal/dbx"
	"github.com/dmitrijs2005/statsync/internal/logging"
	"github.com/dmitrijs2005/statsync/internal/resource"
)

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// OpenDatabase opens the SQLite cache at dsn and brings its schema up to date.
func OpenDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// SQLiteStore keeps one repository in the shared cache database.
type SQLiteStore struct {
	db       *sql.DB
	database resource.Database
	codecs   *codec.Registry
	logger   logging.Logger
}

func NewSQLiteStore(db *sql.DB, database resource.Database, codecs *codec.Registry, logger logging.Logger) *SQLiteStore {
	if logger == nil {
		logger = logging.Nop()
	}
	return &SQLiteStore{
		db:       db,
		database: database,
		codecs:   codecs,
		logger:   logger.With("module", "cache", "database", database.String()),
	}
}

// Save replaces the stored rows of the repository in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, snap models.Snapshot) error {
	if snap.Database != s.database {
		return fmt.Errorf("save %s snapshot into %s store: %w", snap.Database, s.database, models.ErrInvalidRepo)
	}
	c, err := s.codecs.Lookup(s.database)
	if err != nil {
		return err
	}

	code := s.database.Code()
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE database = ?`, code); err != nil {
			return fmt.Errorf("failed to clear records: %w", err)
		}

		rows := make([][]any, 0, len(snap.Records))
		for _, rec := range snap.Records {
			payload, err := packPayload(c, rec.Record)
			if err != nil {
				return err
			}
			rows = append(rows, []any{code, rec.URI.String(), int(rec.Method), unixOrZero(rec.Timestamp), payload, rec.Dirty})
		}
		err := dbx.ExecEach(ctx, tx, `
			INSERT INTO records (database, uri, method, updated_at, payload, dirty)
			VALUES (?, ?, ?, ?, ?, ?)
		`, rows)
		if err != nil {
			return fmt.Errorf("failed to insert records: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO cursors (database, last_synch) VALUES (?, ?)
			ON CONFLICT(database) DO UPDATE SET last_synch = excluded.last_synch
		`, code, unixOrZero(snap.LastSynch))
		if err != nil {
			return fmt.Errorf("failed to set cursor: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Debug(ctx, "cache written", "records", len(snap.Records))
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (models.Snapshot, error) {
	c, err := s.codecs.Lookup(s.database)
	if err != nil {
		return models.Snapshot{}, err
	}
	code := s.database.Code()
	snap := models.Snapshot{Database: s.database}

	var last int64
	err = s.db.QueryRowContext(ctx, `SELECT last_synch FROM cursors WHERE database = ?`, code).Scan(&last)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return models.Snapshot{}, fmt.Errorf("failed to get cursor: %w", err)
	}
	snap.LastSynch = timeOrZero(last)

	rows, err := s.db.QueryContext(ctx, `
		SELECT uri, method, updated_at, payload, dirty
		FROM records WHERE database = ? ORDER BY uri
	`, code)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to select records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rawURI  string
			method  int
			updated int64
			payload []byte
			dirty   bool
		)
		if err := rows.Scan(&rawURI, &method, &updated, &payload, &dirty); err != nil {
			return models.Snapshot{}, fmt.Errorf("failed to scan record: %w", err)
		}

		u, err := unpackURI(s.database, rawURI)
		if err != nil {
			return models.Snapshot{}, err
		}
		rec := models.CachedRecord{
			Record: models.Record{URI: u, Method: models.Method(method), Timestamp: timeOrZero(updated)},
			Dirty:  dirty,
		}
		if !rec.Tombstone() {
			if rec.Value, err = unpackPayload(c, u, payload); err != nil {
				s.logger.Error(ctx, "cache unreadable, full pull required", "error", err)
				return models.Snapshot{}, err
			}
		}
		snap.Records = append(snap.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to iterate records: %w", err)
	}
	return snap, nil
}
