// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// Package stream decodes the comparison event stream into typed frames.
package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrMalformedFrame is returned (wrapped) when a single frame cannot be
// decoded. Malformed frames never abort the whole decode; callers see them
// only through DecodeStats.
var ErrMalformedFrame = errors.New("malformed frame")

// =============================================================================
// DECODER
// =============================================================================

// Decoder turns chunks of bytes arriving from a readable stream into an
// ordered sequence of typed frames.
//
// Wire format: frames are separated by a blank line; each frame is a
// "data:"-prefixed, JSON-encoded record. A frame spanning a chunk boundary is
// buffered and completed when the rest arrives. A trailing partial fragment
// at true stream end is a protocol violation and is discarded, not surfaced.
type Decoder struct {
	reader *bufio.Reader
	stats  DecodeStats
}

// DecodeStats counts what the decoder saw. Malformed and discarded frames are
// non-fatal; these counters are the only record of them.
type DecodeStats struct {
	Frames    int // Frames successfully decoded
	Malformed int // Frames skipped (bad JSON, unknown kind, missing fields)
	Discarded int // Trailing partial fragments dropped at stream end
}

// NewDecoder creates a frame decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		reader: bufio.NewReader(r),
	}
}

// Stats returns the decode counters so far.
func (d *Decoder) Stats() DecodeStats {
	return d.stats
}

// Next reads and decodes the next frame from the stream.
// Returns io.EOF at true stream end. Malformed frames are skipped
// transparently; Next only returns frames that validate.
func (d *Decoder) Next() (*Frame, error) {
	for {
		data, err := d.readEvent()
		if err != nil {
			return nil, err
		}
		if data == nil {
			continue
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			d.stats.Malformed++
			continue
		}
		if err := frame.Validate(); err != nil {
			d.stats.Malformed++
			continue
		}

		d.stats.Frames++
		return &frame, nil
	}
}

// readEvent reads raw lines until a blank-line delimiter and returns the
// joined data payload. Returns (nil, nil) for events carrying no data lines
// (comments, unrecognized fields).
func (d *Decoder) readEvent() ([]byte, error) {
	var dataLines [][]byte

	for {
		line, err := d.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				// A partial event at EOF means the sender violated the
				// protocol. Drop it rather than decode half a frame.
				if len(dataLines) > 0 || len(bytes.TrimSpace(line)) > 0 {
					d.stats.Discarded++
				}
				return nil, io.EOF
			}
			return nil, err
		}

		line = bytes.TrimRight(line, "\r\n")

		// Blank line ends the event.
		if len(line) == 0 {
			if len(dataLines) > 0 {
				return bytes.Join(dataLines, []byte("\n")), nil
			}
			continue
		}

		if bytes.HasPrefix(line, []byte("data:")) {
			dataLines = append(dataLines, bytes.TrimSpace(line[5:]))
		}
		// Other fields (event:, id:, retry:, comments) are ignored.
	}
}

// =============================================================================
// DISPATCH LOOP
// =============================================================================

// FrameHandler receives each decoded frame in arrival order.
type FrameHandler func(frame *Frame)

// Process reads the whole stream, dispatching every frame to handler.
// Each frame is fully applied before the next is read; there is no
// reordering or buffering across the handler boundary. Blocks until the
// stream ends, a read fails, or the context is cancelled.
func (d *Decoder) Process(ctx context.Context, handler FrameHandler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		frame, err := d.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		handler(frame)

		// A complete frame is the backend's end-of-operation marker.
		if frame.Kind == KindComplete {
			return nil
		}
	}
}
