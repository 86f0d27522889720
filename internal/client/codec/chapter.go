package codec

import (
	"github.com/dmitrijs2005/statsync/internal/client/models"
	"google.golang.org/protobuf/encoding/protowire"
)

type trainingChapterDoc struct {
	Chapter    string  `yaml:"chapter"`
	Completed  bool    `yaml:"completed"`
	LastPlayed string  `yaml:"last_played"`
	Ratings    []int16 `yaml:"ratings"`
	Notes      string  `yaml:"notes"`
}

const (
	chapterName protowire.Number = iota + 1
	chapterCompleted
	chapterLastPlayed
	chapterRatings
	chapterNotes
)

// EncodeTrainingChapter returns the text form of c.
func EncodeTrainingChapter(c models.TrainingChapter) (string, error) {
	ratings, err := narrowAll16("ratings", c.Ratings)
	if err != nil {
		return "", err
	}
	return encodeYAML(trainingChapterDoc{
		Chapter:    c.Chapter,
		Completed:  c.Completed,
		LastPlayed: formatTime(c.LastPlayed),
		Ratings:    ratings,
		Notes:      c.Notes,
	})
}

// DecodeTrainingChapter parses the text form produced by EncodeTrainingChapter.
func DecodeTrainingChapter(text string) (models.TrainingChapter, error) {
	var doc trainingChapterDoc
	if err := decodeYAML(text, &doc); err != nil {
		return models.TrainingChapter{}, err
	}
	lastPlayed, err := parseTime("last_played", doc.LastPlayed)
	if err != nil {
		return models.TrainingChapter{}, err
	}
	var ratings []int
	for _, r := range doc.Ratings {
		ratings = append(ratings, int(r))
	}
	return models.TrainingChapter{
		Chapter:    doc.Chapter,
		Completed:  doc.Completed,
		LastPlayed: lastPlayed,
		Ratings:    ratings,
		Notes:      doc.Notes,
	}, nil
}

// MarshalTrainingChapter returns the binary form of c.
func MarshalTrainingChapter(c models.TrainingChapter) ([]byte, error) {
	ratings, err := narrowAll16("ratings", c.Ratings)
	if err != nil {
		return nil, err
	}
	var w binWriter
	w.string(chapterName, c.Chapter)
	w.bool(chapterCompleted, c.Completed)
	w.string(chapterLastPlayed, formatTime(c.LastPlayed))
	w.packed16(chapterRatings, ratings)
	w.string(chapterNotes, c.Notes)
	return w.b, nil
}

// UnmarshalTrainingChapter parses the binary form produced by MarshalTrainingChapter.
func UnmarshalTrainingChapter(b []byte) (models.TrainingChapter, error) {
	var (
		c          models.TrainingChapter
		lastPlayed string
	)
	r := binReader{b: b}
	for {
		num, typ, ok := r.next()
		if !ok {
			break
		}
		switch num {
		case chapterName:
			c.Chapter = r.string(typ)
		case chapterCompleted:
			c.Completed = r.bool(typ)
		case chapterLastPlayed:
			lastPlayed = r.string(typ)
		case chapterRatings:
			c.Ratings = append(c.Ratings, r.packed16(typ)...)
		case chapterNotes:
			c.Notes = r.string(typ)
		default:
			r.skip(num, typ)
		}
	}
	if r.err != nil {
		return models.TrainingChapter{}, r.err
	}
	t, err := parseTime("last_played", lastPlayed)
	if err != nil {
		return models.TrainingChapter{}, err
	}
	c.LastPlayed = t
	return c, nil
}
