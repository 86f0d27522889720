// Package codec converts typed sync payloads to and from their two encodings.
//
// # Encodings
//
// The text form is a YAML key: value document. It is what travels in a
// Record's Value and over the wire. The binary form is a protobuf-wire
// message (see google.golang.org/protobuf/encoding/protowire) used by the
// local cache. Both forms carry time fields as "dd/mm/yyyy hh:mm:ss" strings
// and narrow counters and ratings to 16 bits.
//
// # Range checks
//
// Values outside [-32768, 32767] are rejected with ErrOutOfRange at encode
// time instead of being truncated. Decoding reports ErrMalformed for any
// payload that does not parse, including out-of-range numbers.
//
// # Registry
//
// A Registry maps each resource.Database to its Codec so the sync layer can
// validate and transcode payloads without knowing concrete types. Default
// returns a registry with every built-in payload registered.
package codec
