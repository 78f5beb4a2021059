package sse

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkedReader yields the input in fixed-size chunks to exercise record
// assembly across arbitrary read boundaries.
type chunkedReader struct {
	data  []byte
	size  int
	index int
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if r.index >= len(r.data) {
		return 0, io.EOF
	}
	end := r.index + r.size
	if end > len(r.data) {
		end = len(r.data)
	}
	n := copy(p, r.data[r.index:end])
	r.index += n
	return n, nil
}

func drain(t *testing.T, d *Decoder) []json.RawMessage {
	t.Helper()
	var records []json.RawMessage
	for {
		rec, err := d.Next()
		if err == io.EOF {
			return records
		}
		require.NoError(t, err)
		records = append(records, rec)
	}
}

func TestDecoderTwoRecords(t *testing.T) {
	d := NewDecoder(strings.NewReader("data: {\"a\":1}\n\ndata: {\"a\":2}\n\n"))
	records := drain(t, d)

	require.Len(t, records, 2)
	assert.JSONEq(t, `{"a":1}`, string(records[0]))
	assert.JSONEq(t, `{"a":2}`, string(records[1]))
}

func TestDecoderAnyChunkBoundary(t *testing.T) {
	input := []byte("data: {\"a\":1}\n\ndata: {\"a\":2}\n\n")
	for size := 1; size <= len(input); size++ {
		d := NewDecoder(&chunkedReader{data: input, size: size})
		records := drain(t, d)

		require.Len(t, records, 2, "chunk size %d", size)
		assert.JSONEq(t, `{"a":1}`, string(records[0]), "chunk size %d", size)
		assert.JSONEq(t, `{"a":2}`, string(records[1]), "chunk size %d", size)
	}
}

func TestDecoderDropsInvalidJSON(t *testing.T) {
	input := "data: {\"ok\":1}\n\ndata: {not json\n\ndata: {\"ok\":2}\n\n"
	d := NewDecoder(strings.NewReader(input))
	records := drain(t, d)

	require.Len(t, records, 2)
	assert.JSONEq(t, `{"ok":1}`, string(records[0]))
	assert.JSONEq(t, `{"ok":2}`, string(records[1]))
}

func TestDecoderSkipsBlankPayloads(t *testing.T) {
	input := "data:\n\ndata: \n\ndata: {\"a\":1}\n\n"
	d := NewDecoder(strings.NewReader(input))
	records := drain(t, d)

	require.Len(t, records, 1)
	assert.JSONEq(t, `{"a":1}`, string(records[0]))
}

func TestDecoderDiscardsUnterminatedTail(t *testing.T) {
	input := "data: {\"a\":1}\n\ndata: {\"partial\":"
	d := NewDecoder(strings.NewReader(input))
	records := drain(t, d)

	require.Len(t, records, 1)
	assert.JSONEq(t, `{"a":1}`, string(records[0]))
}

func TestDecoderJoinsMultilineData(t *testing.T) {
	input := "data: {\"a\":\ndata: 1}\n\n"
	d := NewDecoder(strings.NewReader(input))
	records := drain(t, d)

	require.Len(t, records, 1)
	assert.JSONEq(t, `{"a":1}`, string(records[0]))
}

func TestDecoderIgnoresNonDataLines(t *testing.T) {
	input := ": comment\nevent: message\nid: 7\ndata: {\"a\":1}\n\n"
	d := NewDecoder(strings.NewReader(input))
	records := drain(t, d)

	require.Len(t, records, 1)
	assert.JSONEq(t, `{"a":1}`, string(records[0]))
}

func TestDecoderCRLF(t *testing.T) {
	input := "data: {\"a\":1}\r\n\r\ndata: {\"a\":2}\r\n\r\n"
	d := NewDecoder(strings.NewReader(input))
	records := drain(t, d)

	require.Len(t, records, 2)
}

func TestDecoderEOFAfterDone(t *testing.T) {
	d := NewDecoder(bytes.NewReader(nil))
	_, err := d.Next()
	assert.Equal(t, io.EOF, err)
	_, err = d.Next()
	assert.Equal(t, io.EOF, err)
}
