package resource

import "strings"

// Database identifies a namespace of syncable resources.
type Database int

const (
	Unknown Database = iota
	Students
	Stats
	Sessions
)

type databaseInfo struct {
	code string
	name string
}

// codes are fixed wire tokens; none is a prefix of another.
var databases = map[Database]databaseInfo{
	Students: {code: "SU", name: "students"},
	Stats:    {code: "ST", name: "stats"},
	Sessions: {code: "DS", name: "sessions"},
}

// Databases returns every known namespace in declaration order.
func Databases() []Database {
	return []Database{Students, Stats, Sessions}
}

// Code returns the short URI prefix, or "" for Unknown.
func (d Database) Code() string {
	return databases[d].code
}

// String returns the lower-case name used in file names and logs.
func (d Database) String() string {
	if info, ok := databases[d]; ok {
		return info.name
	}
	return "unknown"
}

// ParseDatabase resolves either a name ("stats") or a code ("ST").
// Lookup is case-insensitive, unlike URI parsing.
func ParseDatabase(s string) Database {
	s = strings.ToLower(strings.TrimSpace(s))
	for db, info := range databases {
		if s == info.name || s == strings.ToLower(info.code) {
			return db
		}
	}
	return Unknown
}

// databaseByCode matches a wire code exactly.
func databaseByCode(code string) Database {
	for db, info := range databases {
		if info.code == code {
			return db
		}
	}
	return Unknown
}
