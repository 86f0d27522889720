package codec

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dmitrijs2005/statsync/internal/client/models"
	"github.com/dmitrijs2005/statsync/internal/timex"
)

var (
	// ErrMalformed is models.ErrMalformedData so callers can map it to a SyncState.
	ErrMalformed       = models.ErrMalformedData
	ErrOutOfRange      = errors.New("value out of 16-bit range")
	ErrUnknownDatabase = errors.New("no codec registered for database")
)

func malformed(what string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrMalformed, what)
	}
	return fmt.Errorf("%w: %s: %w", ErrMalformed, what, err)
}

func narrow16(field string, v int) (int16, error) {
	if v < math.MinInt16 || v > math.MaxInt16 {
		return 0, fmt.Errorf("%s=%d: %w", field, v, ErrOutOfRange)
	}
	return int16(v), nil
}

func narrowAll16(field string, vs []int) ([]int16, error) {
	out := make([]int16, len(vs))
	for i, v := range vs {
		n, err := narrow16(fmt.Sprintf("%s[%d]", field, i), v)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return timex.FormatStamp(t)
}

func parseTime(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := timex.ParseStamp(s)
	if err != nil {
		return time.Time{}, malformed(field, err)
	}
	return t, nil
}

func nilIfEmpty[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	return s
}
