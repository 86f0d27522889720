package timex

import (
	"errors"
	"time"
)

// Layouts of the wire timestamp. Times are written in UTC, zero-padded, 24-hour.
const (
	StampLayout = "02/01/2006 15:04:05"
	DateLayout  = "02/01/2006"
)

// ErrBadStamp is returned when a string matches neither stamp layout.
var ErrBadStamp = errors.New("malformed timestamp")

// FormatStamp renders t as "dd/mm/yyyy hh:mm:ss" in UTC.
func FormatStamp(t time.Time) string {
	return t.UTC().Format(StampLayout)
}

// ParseStamp parses the full layout first and falls back to the date-only one.
func ParseStamp(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(StampLayout, s, time.UTC); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(DateLayout, s, time.UTC); err == nil {
		return t, nil
	}
	return time.Time{}, ErrBadStamp
}

// Truncate drops sub-second precision, matching what the wire can carry.
func Truncate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
