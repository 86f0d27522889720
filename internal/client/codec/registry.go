package codec

import (
	"fmt"
	"sync"

	"github.com/dmitrijs2005/statsync/internal/client/models"
	"github.com/dmitrijs2005/statsync/internal/resource"
)

// Format bundles the four conversions of one payload type.
type Format[T any] struct {
	EncodeText      func(T) (string, error)
	DecodeText      func(string) (T, error)
	MarshalBinary   func(T) ([]byte, error)
	UnmarshalBinary func([]byte) (T, error)
}

// Codec is the type-erased view of a Format used by the sync layer.
type Codec struct {
	Database resource.Database

	validate   func(string) error
	canonical  func(string) (string, error)
	toBinary   func(string) ([]byte, error)
	fromBinary func([]byte) (string, error)
}

// Validate reports whether text decodes cleanly.
func (c Codec) Validate(text string) error {
	return c.validate(text)
}

// Canonical re-encodes text in the form EncodeText produces. The result is
// stable across a TextToBinary/BinaryToText round trip.
func (c Codec) Canonical(text string) (string, error) {
	return c.canonical(text)
}

// TextToBinary transcodes a text payload into its binary form.
func (c Codec) TextToBinary(text string) ([]byte, error) {
	return c.toBinary(text)
}

// BinaryToText transcodes a binary payload into its text form.
func (c Codec) BinaryToText(b []byte) (string, error) {
	return c.fromBinary(b)
}

// Registry maps databases to codecs. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	codecs map[resource.Database]Codec
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[resource.Database]Codec)}
}

// Register installs f as the codec for db, replacing any previous one.
func Register[T any](r *Registry, db resource.Database, f Format[T]) {
	c := Codec{
		Database: db,
		validate: func(text string) error {
			_, err := f.DecodeText(text)
			return err
		},
		canonical: func(text string) (string, error) {
			v, err := f.DecodeText(text)
			if err != nil {
				return "", err
			}
			return f.EncodeText(v)
		},
		toBinary: func(text string) ([]byte, error) {
			v, err := f.DecodeText(text)
			if err != nil {
				return nil, err
			}
			return f.MarshalBinary(v)
		},
		fromBinary: func(b []byte) (string, error) {
			v, err := f.UnmarshalBinary(b)
			if err != nil {
				return "", err
			}
			return f.EncodeText(v)
		},
	}
	r.mu.Lock()
	r.codecs[db] = c
	r.mu.Unlock()
}

// Lookup returns the codec for db.
func (r *Registry) Lookup(db resource.Database) (Codec, error) {
	r.mu.RLock()
	c, ok := r.codecs[db]
	r.mu.RUnlock()
	if !ok {
		return Codec{}, fmt.Errorf("%s: %w", db, ErrUnknownDatabase)
	}
	return c, nil
}

var (
	UserMetaFormat = Format[models.UserMeta]{
		EncodeText:      EncodeUserMeta,
		DecodeText:      DecodeUserMeta,
		MarshalBinary:   MarshalUserMeta,
		UnmarshalBinary: UnmarshalUserMeta,
	}
	DriveSessionFormat = Format[models.DriveSession]{
		EncodeText:      EncodeDriveSession,
		DecodeText:      DecodeDriveSession,
		MarshalBinary:   MarshalDriveSession,
		UnmarshalBinary: UnmarshalDriveSession,
	}
	TrainingChapterFormat = Format[models.TrainingChapter]{
		EncodeText:      EncodeTrainingChapter,
		DecodeText:      DecodeTrainingChapter,
		MarshalBinary:   MarshalTrainingChapter,
		UnmarshalBinary: UnmarshalTrainingChapter,
	}
)

// Default returns a registry with the built-in payloads:
// Students → UserMeta, Stats → TrainingChapter, Sessions → DriveSession.
func Default() *Registry {
	r := NewRegistry()
	Register(r, resource.Students, UserMetaFormat)
	Register(r, resource.Stats, TrainingChapterFormat)
	Register(r, resource.Sessions, DriveSessionFormat)
	return r
}
