// Package sse decodes server-sent event streams into JSON records.
//
// The decoder is framing-only and protocol-agnostic: lines prefixed
// "data:" contribute their remainder to the current record, a blank line
// dispatches the record, everything else is ignored. Records that fail to
// parse as JSON are dropped so that one bad record degrades the stream
// instead of aborting it.
package sse

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
)

var dataPrefix = []byte("data:")

// Decoder reads "data: <json>" records from an event-stream body.
// It is single-pass and not restartable; create a new Decoder per stream.
type Decoder struct {
	r       *bufio.Reader
	current [][]byte // data lines of the record being assembled
	done    bool
}

// NewDecoder creates a Decoder reading from r. The reader is consumed
// incrementally, so arbitrary chunk boundaries in the underlying stream
// never split a record.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next returns the next decoded JSON record. It returns io.EOF when the
// stream ends; an unterminated trailing record is discarded. Read errors
// other than io.EOF are returned as-is.
func (d *Decoder) Next() (json.RawMessage, error) {
	if d.done {
		return nil, io.EOF
	}
	for {
		line, err := d.r.ReadBytes('\n')
		if err != nil {
			d.done = true
			d.current = nil
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, err
		}

		line = trimLineEnding(line)

		if len(line) == 0 {
			// Blank line dispatches the assembled record.
			record := d.flush()
			if record == nil {
				continue
			}
			return record, nil
		}

		if bytes.HasPrefix(line, dataPrefix) {
			payload := line[len(dataPrefix):]
			// Per the event-stream format a single leading space is
			// part of the framing, not the payload.
			if len(payload) > 0 && payload[0] == ' ' {
				payload = payload[1:]
			}
			d.current = append(d.current, payload)
		}
		// Non-data lines (comments, event names, ids) are ignored.
	}
}

// flush joins the accumulated data lines and validates them as JSON.
// It returns nil for blank or undecodable payloads.
func (d *Decoder) flush() json.RawMessage {
	if len(d.current) == 0 {
		return nil
	}
	payload := bytes.Join(d.current, []byte("\n"))
	d.current = nil
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if !json.Valid(payload) {
		return nil
	}
	return json.RawMessage(payload)
}

func trimLineEnding(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r"))
}
