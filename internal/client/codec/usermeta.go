package codec

import (
	"github.com/dmitrijs2005/statsync/internal/client/models"
	"google.golang.org/protobuf/encoding/protowire"
)

type userMetaDoc struct {
	UserID            int      `yaml:"user_id"`
	DisplayName       string   `yaml:"display_name"`
	Language          string   `yaml:"language"`
	Tags              []string `yaml:"tags"`
	LastLogin         string   `yaml:"last_login"`
	SessionsCompleted int16    `yaml:"sessions_completed"`
}

const (
	userMetaUserID protowire.Number = iota + 1
	userMetaDisplayName
	userMetaLanguage
	userMetaTags
	userMetaLastLogin
	userMetaSessions
)

// EncodeUserMeta returns the text form of m.
func EncodeUserMeta(m models.UserMeta) (string, error) {
	sessions, err := narrow16("sessions_completed", m.SessionsCompleted)
	if err != nil {
		return "", err
	}
	return encodeYAML(userMetaDoc{
		UserID:            m.UserID,
		DisplayName:       m.DisplayName,
		Language:          m.Language,
		Tags:              m.Tags,
		LastLogin:         formatTime(m.LastLogin),
		SessionsCompleted: sessions,
	})
}

// DecodeUserMeta parses the text form produced by EncodeUserMeta.
func DecodeUserMeta(text string) (models.UserMeta, error) {
	var doc userMetaDoc
	if err := decodeYAML(text, &doc); err != nil {
		return models.UserMeta{}, err
	}
	lastLogin, err := parseTime("last_login", doc.LastLogin)
	if err != nil {
		return models.UserMeta{}, err
	}
	return models.UserMeta{
		UserID:            doc.UserID,
		DisplayName:       doc.DisplayName,
		Language:          doc.Language,
		Tags:              nilIfEmpty(doc.Tags),
		LastLogin:         lastLogin,
		SessionsCompleted: int(doc.SessionsCompleted),
	}, nil
}

// MarshalUserMeta returns the binary form of m.
func MarshalUserMeta(m models.UserMeta) ([]byte, error) {
	sessions, err := narrow16("sessions_completed", m.SessionsCompleted)
	if err != nil {
		return nil, err
	}
	var w binWriter
	w.sint(userMetaUserID, int64(m.UserID))
	w.string(userMetaDisplayName, m.DisplayName)
	w.string(userMetaLanguage, m.Language)
	w.strings(userMetaTags, m.Tags)
	w.string(userMetaLastLogin, formatTime(m.LastLogin))
	w.sint(userMetaSessions, int64(sessions))
	return w.b, nil
}

// UnmarshalUserMeta parses the binary form produced by MarshalUserMeta.
func UnmarshalUserMeta(b []byte) (models.UserMeta, error) {
	var (
		m         models.UserMeta
		lastLogin string
	)
	r := binReader{b: b}
	for {
		num, typ, ok := r.next()
		if !ok {
			break
		}
		switch num {
		case userMetaUserID:
			m.UserID = int(r.sint(typ))
		case userMetaDisplayName:
			m.DisplayName = r.string(typ)
		case userMetaLanguage:
			m.Language = r.string(typ)
		case userMetaTags:
			m.Tags = append(m.Tags, r.string(typ))
		case userMetaLastLogin:
			lastLogin = r.string(typ)
		case userMetaSessions:
			m.SessionsCompleted = r.sint16(typ)
		default:
			r.skip(num, typ)
		}
	}
	if r.err != nil {
		return models.UserMeta{}, r.err
	}
	t, err := parseTime("last_login", lastLogin)
	if err != nil {
		return models.UserMeta{}, err
	}
	m.LastLogin = t
	return m, nil
}
