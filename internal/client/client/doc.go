// Package client talks to the remote sync endpoint.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic contract (see the Client interface): Ping, Pull
//     and Push of wire lines.
//  2. A gRPC implementation (see GRPCClient) that manages the connection,
//     injects the access token and device id via an interceptor, applies a
//     per-call timeout, and maps gRPC status codes to sentinel errors.
//
// Lines are exchanged in wire form: the URI string carries the timestamp
// block and optional method tag, the payload is the text codec form. Decoding
// is left to the caller.
//
// # Error Handling
//
// Transport conditions are exposed as sentinel errors that callers can match
// with errors.Is: ErrUnavailable, ErrUnauthorized. A response that cannot be
// read wraps models.ErrMalformedData.
//
// See the synctest subpackage for an in-memory remote used in tests.
package client
