// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the draftpad document server.
//
// This file implements the event frame decoder: it turns the raw chunked
// byte stream of one edit exchange into a sequence of complete StreamEvent
// records. Frames arrive in Server-Sent Events framing (a "data:" field
// followed by a blank-line delimiter) and may split arbitrarily across
// transport reads, so the decoder accumulates bytes until a full frame is
// available and keeps the remainder for the next read.
package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
)

// =============================================================================
// DECODER CONSTANTS
// =============================================================================

// MaxFrameSize is the maximum allowed size for a single undelimited frame.
// A stream that accumulates more than this without a frame delimiter is
// corrupt and aborts with ErrFrameTooLarge.
const MaxFrameSize = 64 * 1024

// readChunkSize is the transport read granularity. One read may yield zero,
// one, or many complete frames.
const readChunkSize = 4 * 1024

// ErrFrameTooLarge indicates an undelimited frame exceeded MaxFrameSize.
var ErrFrameTooLarge = errors.New("frame exceeds maximum size")

// =============================================================================
// DECODER
// =============================================================================

// Decoder incrementally parses framed events from a transport stream.
//
// A Decoder holds no cross-session state: it is created for one response
// body and discarded when the body ends. Malformed frames are dropped and
// logged, never surfaced; a partial frame left in the buffer at end of
// stream is discarded, not treated as a trailing event.
type Decoder struct {
	r   io.Reader
	buf []byte
	tmp []byte
	eof bool

	// Logf receives drop notices for malformed frames. Defaults to
	// log.Printf; tests replace it to assert on drops.
	Logf func(format string, args ...interface{})
}

// NewDecoder creates a decoder reading from r, typically a response body.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:    r,
		tmp:  make([]byte, readChunkSize),
		Logf: log.Printf,
	}
}

// Next returns the next complete event from the stream.
//
// It returns io.EOF when the transport ends, after discarding any partial
// frame left in the buffer. Transport read errors are returned as-is.
// Frames whose payload does not parse as a well-formed record are skipped.
func (d *Decoder) Next() (StreamEvent, error) {
	for {
		// Drain complete frames already buffered before reading more.
		for {
			frame, ok := d.nextFrame()
			if !ok {
				break
			}
			ev, ok := d.decodeFrame(frame)
			if ok {
				return ev, nil
			}
		}

		if d.eof {
			if len(d.buf) > 0 {
				// Partial frame at stream end is discarded by contract.
				d.Logf("stream decoder: discarding %d-byte partial frame at end of stream", len(d.buf))
				d.buf = nil
			}
			return StreamEvent{}, io.EOF
		}

		if len(d.buf) > MaxFrameSize {
			return StreamEvent{}, fmt.Errorf("%w: %d bytes buffered without delimiter", ErrFrameTooLarge, len(d.buf))
		}

		n, err := d.r.Read(d.tmp)
		if n > 0 {
			d.buf = append(d.buf, d.tmp[:n]...)
		}
		if err != nil {
			if err == io.EOF {
				d.eof = true
				continue
			}
			return StreamEvent{}, err
		}
	}
}

// nextFrame cuts the earliest complete frame off the buffer.
// Returns ok=false when no full frame is buffered yet.
func (d *Decoder) nextFrame() ([]byte, bool) {
	idx, dlen := findDelimiter(d.buf)
	if idx < 0 {
		return nil, false
	}
	frame := d.buf[:idx]
	d.buf = d.buf[idx+dlen:]
	return frame, true
}

// decodeFrame extracts the data payload from one frame and parses it.
// Returns ok=false for frames that carry no event: keepalive comments,
// unknown fields, and malformed payloads (the latter are logged).
func (d *Decoder) decodeFrame(frame []byte) (StreamEvent, bool) {
	payload := framePayload(frame)
	if payload == nil {
		// No data field at all: comment or foreign field, not an error.
		return StreamEvent{}, false
	}

	ev, err := parseEvent(payload)
	if err != nil {
		d.Logf("stream decoder: dropping malformed frame (%v): %.80q", err, payload)
		return StreamEvent{}, false
	}
	return ev, true
}

// =============================================================================
// FRAME PARSING HELPERS
// =============================================================================

var (
	delimLF   = []byte("\n\n")
	delimCRLF = []byte("\r\n\r\n")
	dataField = []byte("data:")
)

// findDelimiter locates the earliest frame delimiter in buf.
// Both bare-LF and CRLF blank lines are accepted.
func findDelimiter(buf []byte) (idx, dlen int) {
	lf := bytes.Index(buf, delimLF)
	crlf := bytes.Index(buf, delimCRLF)

	switch {
	case lf < 0 && crlf < 0:
		return -1, 0
	case crlf < 0:
		return lf, len(delimLF)
	case lf < 0:
		return crlf, len(delimCRLF)
	case crlf < lf:
		return crlf, len(delimCRLF)
	default:
		return lf, len(delimLF)
	}
}

// framePayload joins the data lines of a frame into one payload.
// Returns nil when the frame has no data field. Multi-line data fields are
// joined with a newline per the SSE contract; other fields (event:, id:,
// retry:, ":" comments) are ignored.
func framePayload(frame []byte) []byte {
	var payload [][]byte

	for _, line := range bytes.Split(frame, []byte("\n")) {
		line = bytes.TrimSuffix(line, []byte("\r"))
		if !bytes.HasPrefix(line, dataField) {
			continue
		}
		data := line[len(dataField):]
		if len(data) > 0 && data[0] == ' ' {
			data = data[1:]
		}
		payload = append(payload, data)
	}

	if payload == nil {
		return nil
	}
	return bytes.Join(payload, []byte("\n"))
}
