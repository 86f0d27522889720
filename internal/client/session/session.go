// Package session carries the identity the sync layer runs under: which
// user owns the local cache, which device is syncing, and the token sent to
// the remote.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/statsync/internal/auth"
	"github.com/dmitrijs2005/statsync/internal/filex"
	"github.com/dmitrijs2005/statsync/internal/resource"
)

const deviceIDFile = "device_id"

// ErrNoUser is returned when neither the token nor the config names a user.
var ErrNoUser = errors.New("no user configured")

// Session is created once at startup and passed to every component.
type Session struct {
	UserID      int
	DeviceID    string
	DataRoot    string
	AccessToken string
}

// New resolves the user from the access token, falling back to userID when
// the token is empty. A negative userID means "not set". The device id is
// read from DataRoot or generated and stored there on first use.
func New(dataRoot, accessToken string, userID int) (*Session, error) {
	root, err := filex.EnsureDir(dataRoot)
	if err != nil {
		return nil, err
	}

	if accessToken != "" {
		id, err := auth.PeekUserID(accessToken)
		if err != nil {
			return nil, fmt.Errorf("access token: %w", err)
		}
		userID = id
	}
	if userID < 0 {
		return nil, ErrNoUser
	}

	deviceID, err := loadOrCreateDeviceID(root)
	if err != nil {
		return nil, err
	}

	return &Session{
		UserID:      userID,
		DeviceID:    deviceID,
		DataRoot:    root,
		AccessToken: accessToken,
	}, nil
}

// CacheKey is the stable per-user part of cache file names.
func (s *Session) CacheKey() string { return strconv.Itoa(s.UserID) }

// URI addresses key in database on behalf of the session user.
func (s *Session) URI(database resource.Database, key string) resource.URI {
	return resource.NewURI(database, key, s.UserID)
}

func loadOrCreateDeviceID(root string) (string, error) {
	path := filepath.Join(root, deviceIDFile)

	b, err := os.ReadFile(path)
	if err == nil {
		if id, perr := uuid.Parse(strings.TrimSpace(string(b))); perr == nil {
			return id.String(), nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("read device id: %w", err)
	}

	id := uuid.NewString()
	if err := filex.WriteFileAtomic(path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("store device id: %w", err)
	}
	return id, nil
}
