package models

import "time"

// UserMeta describes an account on the device. Stored in the Students database.
type UserMeta struct {
	UserID      int
	DisplayName string
	Language    string
	Tags        []string
	LastLogin   time.Time
	// SessionsCompleted is narrowed to 16 bits on the wire.
	SessionsCompleted int
}

// DriveSession is a single driving run. Stored in the Sessions database.
type DriveSession struct {
	ID       string
	Scenario string
	Started  time.Time
	Ended    time.Time
	// Mistakes and Score are narrowed to 16 bits on the wire.
	Mistakes int
	Score    int
	Tags     []string
}

// Duration returns how long the session ran, or 0 if it never ended.
func (s DriveSession) Duration() time.Duration {
	if s.Ended.Before(s.Started) {
		return 0
	}
	return s.Ended.Sub(s.Started)
}

// TrainingChapter holds the ratings a user gave to a chapter. Stored in Stats.
type TrainingChapter struct {
	Chapter    string
	Completed  bool
	LastPlayed time.Time
	// Ratings are narrowed to 16 bits on the wire.
	Ratings []int
	Notes   string
}

// AverageRating returns the mean rating or 0 when there are none.
func (c TrainingChapter) AverageRating() float64 {
	if len(c.Ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range c.Ratings {
		sum += r
	}
	return float64(sum) / float64(len(c.Ratings))
}
