package codec

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// binWriter appends protowire fields. Zero values are skipped except where
// noted, which keeps messages compact.
type binWriter struct {
	b []byte
}

func (w *binWriter) string(num protowire.Number, s string) {
	if s == "" {
		return
	}
	w.b = protowire.AppendTag(w.b, num, protowire.BytesType)
	w.b = protowire.AppendString(w.b, s)
}

// strings writes every element, including empty ones, so repeated fields
// keep their length.
func (w *binWriter) strings(num protowire.Number, ss []string) {
	for _, s := range ss {
		w.b = protowire.AppendTag(w.b, num, protowire.BytesType)
		w.b = protowire.AppendString(w.b, s)
	}
}

func (w *binWriter) bytes(num protowire.Number, v []byte) {
	w.b = protowire.AppendTag(w.b, num, protowire.BytesType)
	w.b = protowire.AppendBytes(w.b, v)
}

func (w *binWriter) sint(num protowire.Number, v int64) {
	if v == 0 {
		return
	}
	w.b = protowire.AppendTag(w.b, num, protowire.VarintType)
	w.b = protowire.AppendVarint(w.b, protowire.EncodeZigZag(v))
}

func (w *binWriter) bool(num protowire.Number, v bool) {
	if !v {
		return
	}
	w.b = protowire.AppendTag(w.b, num, protowire.VarintType)
	w.b = protowire.AppendVarint(w.b, protowire.EncodeBool(v))
}

func (w *binWriter) packed16(num protowire.Number, vs []int16) {
	if len(vs) == 0 {
		return
	}
	var packed []byte
	for _, v := range vs {
		packed = protowire.AppendVarint(packed, protowire.EncodeZigZag(int64(v)))
	}
	w.bytes(num, packed)
}

// binReader walks a protowire message. The first error sticks and every
// later call becomes a no-op.
type binReader struct {
	b   []byte
	err error
}

func (r *binReader) next() (protowire.Number, protowire.Type, bool) {
	if r.err != nil || len(r.b) == 0 {
		return 0, 0, false
	}
	num, typ, n := protowire.ConsumeTag(r.b)
	if n < 0 {
		r.err = malformed("tag", protowire.ParseError(n))
		return 0, 0, false
	}
	r.b = r.b[n:]
	return num, typ, true
}

func (r *binReader) expect(typ, want protowire.Type) bool {
	if r.err != nil {
		return false
	}
	if typ != want {
		r.err = malformed("unexpected wire type", nil)
		return false
	}
	return true
}

func (r *binReader) varint(typ protowire.Type) uint64 {
	if !r.expect(typ, protowire.VarintType) {
		return 0
	}
	v, n := protowire.ConsumeVarint(r.b)
	if n < 0 {
		r.err = malformed("varint", protowire.ParseError(n))
		return 0
	}
	r.b = r.b[n:]
	return v
}

func (r *binReader) sint(typ protowire.Type) int64 {
	return protowire.DecodeZigZag(r.varint(typ))
}

func (r *binReader) sint16(typ protowire.Type) int {
	v := r.sint(typ)
	if v < math.MinInt16 || v > math.MaxInt16 {
		r.fail(malformed("16-bit field", ErrOutOfRange))
		return 0
	}
	return int(v)
}

func (r *binReader) bool(typ protowire.Type) bool {
	return protowire.DecodeBool(r.varint(typ))
}

func (r *binReader) bytes(typ protowire.Type) []byte {
	if !r.expect(typ, protowire.BytesType) {
		return nil
	}
	v, n := protowire.ConsumeBytes(r.b)
	if n < 0 {
		r.err = malformed("bytes", protowire.ParseError(n))
		return nil
	}
	r.b = r.b[n:]
	return v
}

func (r *binReader) string(typ protowire.Type) string {
	return string(r.bytes(typ))
}

func (r *binReader) packed16(typ protowire.Type) []int {
	packed := r.bytes(typ)
	var out []int
	for len(packed) > 0 && r.err == nil {
		v, n := protowire.ConsumeVarint(packed)
		if n < 0 {
			r.fail(malformed("packed varint", protowire.ParseError(n)))
			return nil
		}
		packed = packed[n:]
		x := protowire.DecodeZigZag(v)
		if x < math.MinInt16 || x > math.MaxInt16 {
			r.fail(malformed("16-bit element", ErrOutOfRange))
			return nil
		}
		out = append(out, int(x))
	}
	return out
}

func (r *binReader) skip(num protowire.Number, typ protowire.Type) {
	if r.err != nil {
		return
	}
	n := protowire.ConsumeFieldValue(num, typ, r.b)
	if n < 0 {
		r.err = malformed("field value", protowire.ParseError(n))
		return
	}
	r.b = r.b[n:]
}

func (r *binReader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}
