package codec

import (
	"github.com/dmitrijs2005/statsync/internal/client/models"
	"google.golang.org/protobuf/encoding/protowire"
)

type driveSessionDoc struct {
	ID       string   `yaml:"id"`
	Scenario string   `yaml:"scenario"`
	Started  string   `yaml:"started"`
	Ended    string   `yaml:"ended"`
	Mistakes int16    `yaml:"mistakes"`
	Score    int16    `yaml:"score"`
	Tags     []string `yaml:"tags"`
}

const (
	sessionID protowire.Number = iota + 1
	sessionScenario
	sessionStarted
	sessionEnded
	sessionMistakes
	sessionScore
	sessionTags
)

func narrowSession(s models.DriveSession) (mistakes, score int16, err error) {
	if mistakes, err = narrow16("mistakes", s.Mistakes); err != nil {
		return 0, 0, err
	}
	if score, err = narrow16("score", s.Score); err != nil {
		return 0, 0, err
	}
	return mistakes, score, nil
}

// EncodeDriveSession returns the text form of s.
func EncodeDriveSession(s models.DriveSession) (string, error) {
	mistakes, score, err := narrowSession(s)
	if err != nil {
		return "", err
	}
	return encodeYAML(driveSessionDoc{
		ID:       s.ID,
		Scenario: s.Scenario,
		Started:  formatTime(s.Started),
		Ended:    formatTime(s.Ended),
		Mistakes: mistakes,
		Score:    score,
		Tags:     s.Tags,
	})
}

// DecodeDriveSession parses the text form produced by EncodeDriveSession.
func DecodeDriveSession(text string) (models.DriveSession, error) {
	var doc driveSessionDoc
	if err := decodeYAML(text, &doc); err != nil {
		return models.DriveSession{}, err
	}
	started, err := parseTime("started", doc.Started)
	if err != nil {
		return models.DriveSession{}, err
	}
	ended, err := parseTime("ended", doc.Ended)
	if err != nil {
		return models.DriveSession{}, err
	}
	return models.DriveSession{
		ID:       doc.ID,
		Scenario: doc.Scenario,
		Started:  started,
		Ended:    ended,
		Mistakes: int(doc.Mistakes),
		Score:    int(doc.Score),
		Tags:     nilIfEmpty(doc.Tags),
	}, nil
}

// MarshalDriveSession returns the binary form of s.
func MarshalDriveSession(s models.DriveSession) ([]byte, error) {
	mistakes, score, err := narrowSession(s)
	if err != nil {
		return nil, err
	}
	var w binWriter
	w.string(sessionID, s.ID)
	w.string(sessionScenario, s.Scenario)
	w.string(sessionStarted, formatTime(s.Started))
	w.string(sessionEnded, formatTime(s.Ended))
	w.sint(sessionMistakes, int64(mistakes))
	w.sint(sessionScore, int64(score))
	w.strings(sessionTags, s.Tags)
	return w.b, nil
}

// UnmarshalDriveSession parses the binary form produced by MarshalDriveSession.
func UnmarshalDriveSession(b []byte) (models.DriveSession, error) {
	var (
		s              models.DriveSession
		started, ended string
	)
	r := binReader{b: b}
	for {
		num, typ, ok := r.next()
		if !ok {
			break
		}
		switch num {
		case sessionID:
			s.ID = r.string(typ)
		case sessionScenario:
			s.Scenario = r.string(typ)
		case sessionStarted:
			started = r.string(typ)
		case sessionEnded:
			ended = r.string(typ)
		case sessionMistakes:
			s.Mistakes = r.sint16(typ)
		case sessionScore:
			s.Score = r.sint16(typ)
		case sessionTags:
			s.Tags = append(s.Tags, r.string(typ))
		default:
			r.skip(num, typ)
		}
	}
	if r.err != nil {
		return models.DriveSession{}, r.err
	}
	var err error
	if s.Started, err = parseTime("started", started); err != nil {
		return models.DriveSession{}, err
	}
	if s.Ended, err = parseTime("ended", ended); err != nil {
		return models.DriveSession{}, err
	}
	return s, nil
}
