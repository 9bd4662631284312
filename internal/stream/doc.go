// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// Package stream decodes the CompareIntel comparison event stream.
//
// The backend answers a comparison request with a text event-stream of
// "data:"-prefixed JSON records separated by blank lines. This package turns
// that byte stream into typed Frame values and dispatches them in strict
// arrival order.
//
// Decoding is deliberately forgiving: a frame with bad JSON, an unknown kind
// or missing required fields is counted and skipped, never fatal. Only the
// transport erroring out or the context being cancelled aborts a decode.
//
// Usage:
//
//	dec := stream.NewDecoder(resp.Body)
//	err := dec.Process(ctx, func(f *stream.Frame) {
//	    op.Apply(f)
//	})
package stream
