// Package resource implements the addressing scheme for syncable records.
//
// A resource URI has the wire form
//
//	[<dd/mm/yyyy hh:mm:ss>][<method>]<code>//[<user>%]<key>[#<meta>]
//
// where the timestamp block, the method tag, the user segment and the meta
// suffix are optional. Identity is (database, user, key); the timestamp and
// meta suffix travel with a URI but never take part in comparisons.
package resource

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/statsync/internal/timex"
)

// Wire tokens.
const (
	Lead          = "//"
	UserSeparator = "%"
	MetaSeparator = "#"
	openBracket   = "["
	closeBracket  = "]"
)

// NoUser marks a URI that is not scoped to a user.
const NoUser = -1

// ErrInvalidURI is returned by helpers that need a valid URI.
var ErrInvalidURI = errors.New("invalid resource uri")

// URI is an immutable resource address. The zero value is the invalid sentinel.
// URIs are comparable with ==.
type URI struct {
	database Database
	user     int
	key      string
}

// Invalid is the sentinel returned for malformed input.
var Invalid = URI{}

// NewURI builds a URI. A negative user means "not user-scoped".
// Keys containing reserved tokens yield Invalid because they would not
// survive a Format/Parse round trip.
func NewURI(database Database, key string, user int) URI {
	if database.Code() == "" {
		return Invalid
	}
	if strings.ContainsAny(key, UserSeparator+MetaSeparator) {
		return Invalid
	}
	if user < 0 {
		user = NoUser
	}
	return URI{database: database, user: user, key: key}
}

func (u URI) Database() Database { return u.database }
func (u URI) Key() string        { return u.key }

// User returns the owning user id or NoUser.
func (u URI) User() int {
	if u.database == Unknown {
		return NoUser
	}
	return u.user
}

// Scoped reports whether the URI belongs to a single user.
func (u URI) Scoped() bool { return u.User() >= 0 }

// Valid reports whether the URI names a known database. Key presence is
// checked separately so callers can tell a missing key from a bad address.
func (u URI) Valid() bool { return u.database != Unknown }

// Equal compares identity. It is equivalent to ==.
func (u URI) Equal(o URI) bool { return u == o }

// String returns the base form without timestamp or meta.
func (u URI) String() string {
	return Format(u, time.Time{}, "")
}

// Reference is a parsed wire string: the URI plus what travels with it.
type Reference struct {
	URI       URI
	Timestamp time.Time
	// Method is the raw tag that may follow the timestamp block, e.g. "delete".
	Method string
	Meta   string
}

// Format renders u with an optional timestamp block and meta suffix.
// A zero timestamp omits the block; an unscoped URI omits the user segment.
func Format(u URI, timestamp time.Time, meta string) string {
	return FormatReference(Reference{URI: u, Timestamp: timestamp, Meta: meta})
}

// FormatReference is Format plus the optional method tag.
func FormatReference(r Reference) string {
	var b strings.Builder
	if !r.Timestamp.IsZero() {
		b.WriteString(openBracket)
		b.WriteString(timex.FormatStamp(r.Timestamp))
		b.WriteString(closeBracket)
		if r.Method != "" {
			b.WriteString(openBracket)
			b.WriteString(r.Method)
			b.WriteString(closeBracket)
		}
	}
	b.WriteString(r.URI.database.Code())
	b.WriteString(Lead)
	if r.URI.Scoped() {
		b.WriteString(strconv.Itoa(r.URI.user))
		b.WriteString(UserSeparator)
	}
	b.WriteString(r.URI.key)
	if r.Meta != "" {
		b.WriteString(MetaSeparator)
		b.WriteString(r.Meta)
	}
	return b.String()
}

// Parse decodes a wire string. On malformed input it returns a Reference
// holding Invalid and false; it never panics.
func Parse(raw string) (Reference, bool) {
	var ref Reference
	rest := raw

	if strings.HasPrefix(rest, openBracket) {
		end := strings.Index(rest, closeBracket)
		if end < 0 {
			return Reference{}, false
		}
		ts, err := timex.ParseStamp(rest[1:end])
		if err != nil {
			return Reference{}, false
		}
		ref.Timestamp = ts
		rest = rest[end+1:]

		if strings.HasPrefix(rest, openBracket) {
			end = strings.Index(rest, closeBracket)
			if end < 0 {
				return Reference{}, false
			}
			ref.Method = rest[1:end]
			rest = rest[end+1:]
		}
	}

	if i := strings.Index(rest, MetaSeparator); i >= 0 {
		ref.Meta = rest[i+1:]
		rest = rest[:i]
	}

	lead := strings.Index(rest, Lead)
	if lead <= 0 || len(rest) < lead+len(Lead) {
		return Reference{}, false
	}
	database := databaseByCode(rest[:lead])
	if database == Unknown {
		return Reference{}, false
	}
	rest = rest[lead+len(Lead):]

	user := NoUser
	key := rest
	parts := strings.Split(rest, UserSeparator)
	switch len(parts) {
	case 1:
	case 2:
		if id, err := strconv.Atoi(parts[0]); err == nil && id >= 0 {
			user = id
		}
		key = parts[1]
	default:
		return Reference{}, false
	}
	if key == "" {
		return Reference{}, false
	}

	ref.URI = URI{database: database, user: user, key: key}
	return ref, true
}
