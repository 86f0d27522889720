package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/statsync/internal/client/codec"
	"github.com/dmitrijs2005/statsync/internal/client/models"
	"github.com/dmitrijs2005/statsync/internal/client/repositories/synced"
	"github.com/dmitrijs2005/statsync/internal/resource"
)

// ProfileKey addresses the signed-in user's UserMeta in the Students database.
const ProfileKey = "profile"

var ErrReadOnlyRepo = errors.New("repository does not accept local changes")

// mutable is the local write side of a synced repository.
type mutable interface {
	synced.Repository
	Put(u resource.URI, value string) models.SyncState
	Delete(u resource.URI) models.SyncState
	Get(u resource.URI) (models.Record, bool)
}

func (s *SyncService) mutable(db resource.Database) (mutable, error) {
	repo, ok := s.Repo(db)
	if !ok {
		return nil, fmt.Errorf("%s: %w", db, ErrRepoNotFound)
	}
	m, ok := repo.(mutable)
	if !ok {
		return nil, fmt.Errorf("%s: %w", db, ErrReadOnlyRepo)
	}
	return m, nil
}

// Put validates text with the codec of db and stores its canonical form
// under key for the current user. The returned state is SendToServer when a change is queued.
func (s *SyncService) Put(db resource.Database, key, text string) (models.SyncState, error) {
	repo, err := s.mutable(db)
	if err != nil {
		return models.ErrorInvalidRepo, err
	}
	c, err := s.codecs.Lookup(db)
	if err != nil {
		return models.ErrorInvalidRepo, err
	}
	canon, err := c.Canonical(text)
	if err != nil {
		return models.ErrorMalformattedData, fmt.Errorf("%s: %w", key, err)
	}
	st := repo.Put(s.session.URI(db, key), canon)
	return st, st.Err()
}

// Delete queues a tombstone for key.
func (s *SyncService) Delete(db resource.Database, key string) (models.SyncState, error) {
	repo, err := s.mutable(db)
	if err != nil {
		return models.ErrorInvalidRepo, err
	}
	st := repo.Delete(s.session.URI(db, key))
	return st, st.Err()
}

// Get returns the text payload stored under key for the current user.
func (s *SyncService) Get(db resource.Database, key string) (models.Record, bool, error) {
	repo, err := s.mutable(db)
	if err != nil {
		return models.Record{}, false, err
	}
	rec, ok := repo.Get(s.session.URI(db, key))
	return rec, ok, nil
}

func putTyped[T any](s *SyncService, db resource.Database, key string, encode func(T) (string, error), v T) (models.SyncState, error) {
	text, err := encode(v)
	if err != nil {
		return models.ErrorMalformattedData, err
	}
	return s.Put(db, key, text)
}

// PutUserMeta stores m as the current user's profile.
func (s *SyncService) PutUserMeta(m models.UserMeta) (models.SyncState, error) {
	return putTyped(s, resource.Students, ProfileKey, codec.EncodeUserMeta, m)
}

// PutDriveSession stores ds keyed by its ID.
func (s *SyncService) PutDriveSession(ds models.DriveSession) (models.SyncState, error) {
	if ds.ID == "" {
		return models.ErrorMissingKey, models.ErrMissingKey
	}
	return putTyped(s, resource.Sessions, ds.ID, codec.EncodeDriveSession, ds)
}

// PutChapterRating appends rating to the chapter's ratings, creating the
// chapter record on first use.
func (s *SyncService) PutChapterRating(chapter string, rating int, playedAt time.Time) (models.SyncState, error) {
	if chapter == "" {
		return models.ErrorMissingKey, models.ErrMissingKey
	}
	c := models.TrainingChapter{Chapter: chapter}
	rec, ok, err := s.Get(resource.Stats, chapter)
	if err != nil {
		return models.ErrorInvalidRepo, err
	}
	if ok {
		if c, err = codec.DecodeTrainingChapter(rec.Value); err != nil {
			return models.ErrorMalformattedData, err
		}
	}
	c.Ratings = append(c.Ratings, rating)
	if playedAt.After(c.LastPlayed) {
		c.LastPlayed = playedAt
	}
	return putTyped(s, resource.Stats, chapter, codec.EncodeTrainingChapter, c)
}
