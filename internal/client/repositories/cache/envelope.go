package cache

import (
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dmitrijs2005/statsync/internal/client/codec"
	"github.com/dmitrijs2005/statsync/internal/client/models"
	"github.com/dmitrijs2005/statsync/internal/resource"
)

// ErrCorrupt is returned when a stored snapshot cannot be decoded.
var ErrCorrupt = errors.New("cache corrupt")

const envelopeVersion = 1

// Envelope field numbers.
const (
	fieldVersion   protowire.Number = 1
	fieldDatabase  protowire.Number = 2
	fieldLastSynch protowire.Number = 3
	fieldRecord    protowire.Number = 4
)

// Record field numbers.
const (
	recURI       protowire.Number = 1
	recMethod    protowire.Number = 2
	recTimestamp protowire.Number = 3
	recPayload   protowire.Number = 4
	recDirty     protowire.Number = 5
)

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorrupt, fmt.Sprintf(format, args...))
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func timeOrZero(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

// packPayload converts a record's text value into its binary codec form.
func packPayload(c codec.Codec, rec models.Record) ([]byte, error) {
	if rec.Tombstone() || rec.Value == "" {
		return nil, nil
	}
	b, err := c.TextToBinary(rec.Value)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", rec.URI, err)
	}
	return b, nil
}

func unpackPayload(c codec.Codec, u resource.URI, b []byte) (string, error) {
	if len(b) == 0 {
		return "", nil
	}
	text, err := c.BinaryToText(b)
	if err != nil {
		return "", corrupt("payload of %s: %v", u, err)
	}
	return text, nil
}

// unpackURI parses a stored URI and checks it against the expected database.
func unpackURI(db resource.Database, raw string) (resource.URI, error) {
	ref, ok := resource.Parse(raw)
	if !ok {
		return resource.Invalid, corrupt("uri %q", raw)
	}
	if ref.URI.Database() != db {
		return resource.Invalid, corrupt("uri %q outside %s", raw, db)
	}
	return ref.URI, nil
}

func encodeSnapshot(c codec.Codec, s models.Snapshot) ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, fieldVersion, protowire.VarintType)
	b = protowire.AppendVarint(b, envelopeVersion)
	b = protowire.AppendTag(b, fieldDatabase, protowire.BytesType)
	b = protowire.AppendString(b, s.Database.Code())
	if sec := unixOrZero(s.LastSynch); sec != 0 {
		b = protowire.AppendTag(b, fieldLastSynch, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(sec))
	}

	for _, rec := range s.Records {
		payload, err := packPayload(c, rec.Record)
		if err != nil {
			return nil, err
		}
		var m []byte
		m = protowire.AppendTag(m, recURI, protowire.BytesType)
		m = protowire.AppendString(m, rec.URI.String())
		m = protowire.AppendTag(m, recMethod, protowire.VarintType)
		m = protowire.AppendVarint(m, uint64(rec.Method))
		m = protowire.AppendTag(m, recTimestamp, protowire.VarintType)
		m = protowire.AppendVarint(m, protowire.EncodeZigZag(unixOrZero(rec.Timestamp)))
		if payload != nil {
			m = protowire.AppendTag(m, recPayload, protowire.BytesType)
			m = protowire.AppendBytes(m, payload)
		}
		if rec.Dirty {
			m = protowire.AppendTag(m, recDirty, protowire.VarintType)
			m = protowire.AppendVarint(m, 1)
		}
		b = protowire.AppendTag(b, fieldRecord, protowire.BytesType)
		b = protowire.AppendBytes(b, m)
	}
	return b, nil
}

// consumeField reads one field. Varints are returned in v, length-delimited
// values in data. Unknown wire types are skipped.
func consumeField(b []byte) (num protowire.Number, v uint64, data []byte, n int, err error) {
	num, typ, tn := protowire.ConsumeTag(b)
	if tn < 0 {
		return 0, 0, nil, 0, corrupt("tag: %v", protowire.ParseError(tn))
	}
	rest := b[tn:]
	switch typ {
	case protowire.VarintType:
		val, vn := protowire.ConsumeVarint(rest)
		if vn < 0 {
			return 0, 0, nil, 0, corrupt("varint: %v", protowire.ParseError(vn))
		}
		return num, val, nil, tn + vn, nil
	case protowire.BytesType:
		val, vn := protowire.ConsumeBytes(rest)
		if vn < 0 {
			return 0, 0, nil, 0, corrupt("bytes: %v", protowire.ParseError(vn))
		}
		return num, 0, val, tn + vn, nil
	default:
		vn := protowire.ConsumeFieldValue(num, typ, rest)
		if vn < 0 {
			return 0, 0, nil, 0, corrupt("field %d: %v", num, protowire.ParseError(vn))
		}
		// Signal "skip" with a zero field number.
		return 0, 0, nil, tn + vn, nil
	}
}

func decodeSnapshot(c codec.Codec, db resource.Database, b []byte) (models.Snapshot, error) {
	s := models.Snapshot{Database: db}
	seenVersion := false

	for len(b) > 0 {
		num, v, data, n, err := consumeField(b)
		if err != nil {
			return models.Snapshot{}, err
		}
		b = b[n:]

		switch num {
		case fieldVersion:
			if v != envelopeVersion {
				return models.Snapshot{}, corrupt("unsupported version %d", v)
			}
			seenVersion = true
		case fieldDatabase:
			if string(data) != db.Code() {
				return models.Snapshot{}, corrupt("database %q, want %q", data, db.Code())
			}
		case fieldLastSynch:
			s.LastSynch = timeOrZero(protowire.DecodeZigZag(v))
		case fieldRecord:
			rec, err := decodeRecord(c, db, data)
			if err != nil {
				return models.Snapshot{}, err
			}
			s.Records = append(s.Records, rec)
		}
	}
	if !seenVersion {
		return models.Snapshot{}, corrupt("missing envelope header")
	}
	return s, nil
}

func decodeRecord(c codec.Codec, db resource.Database, b []byte) (models.CachedRecord, error) {
	var (
		rec     models.CachedRecord
		rawURI  string
		payload []byte
	)
	for len(b) > 0 {
		num, v, data, n, err := consumeField(b)
		if err != nil {
			return models.CachedRecord{}, err
		}
		b = b[n:]

		switch num {
		case recURI:
			rawURI = string(data)
		case recMethod:
			rec.Method = models.Method(v)
		case recTimestamp:
			rec.Timestamp = timeOrZero(protowire.DecodeZigZag(v))
		case recPayload:
			payload = data
		case recDirty:
			rec.Dirty = v != 0
		}
	}

	u, err := unpackURI(db, rawURI)
	if err != nil {
		return models.CachedRecord{}, err
	}
	rec.URI = u
	if rec.Method < models.MethodCreate || rec.Method > models.MethodDelete {
		return models.CachedRecord{}, corrupt("method %d of %s", rec.Method, u)
	}
	if !rec.Tombstone() {
		if rec.Value, err = unpackPayload(c, u, payload); err != nil {
			return models.CachedRecord{}, err
		}
	}
	return rec, nil
}
