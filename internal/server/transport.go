package server

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// DefaultMaxMessageBytes bounds a single input line.
const DefaultMaxMessageBytes = 1024 * 1024

// ErrEncode marks a message that could not be serialized. Nothing was written
// to the stream.
var ErrEncode = errors.New("failed to encode message")

// ErrMessageTooLong is returned by Receive for a line longer than the limit.
// The line has been consumed and the next Receive continues after it.
var ErrMessageTooLong = errors.New("message too long")

// Transport frames newline-delimited JSON over a byte stream.
type Transport struct {
	r   *bufio.Reader
	max int
	out io.Writer
	w   *bufio.Writer
}

// NewTransport reads lines of at most maxMessageBytes from r and writes to w.
// A non-positive limit means DefaultMaxMessageBytes.
func NewTransport(r io.Reader, w io.Writer, maxMessageBytes int) *Transport {
	if maxMessageBytes <= 0 {
		maxMessageBytes = DefaultMaxMessageBytes
	}
	return &Transport{
		r:   bufio.NewReaderSize(r, min(64*1024, maxMessageBytes)),
		max: maxMessageBytes,
		out: w,
		w:   bufio.NewWriter(w),
	}
}

// Receive returns the next non-blank line with surrounding whitespace
// removed. It returns io.EOF once the input is exhausted.
func (t *Transport) Receive() ([]byte, error) {
	for {
		line, err := t.readLine()
		if err != nil {
			return nil, err
		}
		if line = bytes.TrimSpace(line); len(line) > 0 {
			return line, nil
		}
	}
}

// readLine reads up to and including the next newline. An oversized line is
// drained and discarded rather than buffered.
func (t *Transport) readLine() ([]byte, error) {
	var line []byte
	tooLong := false
	for {
		chunk, err := t.r.ReadSlice('\n')
		if !tooLong {
			line = append(line, chunk...)
			if len(bytes.TrimRight(line, "\r\n")) > t.max {
				tooLong, line = true, nil
			}
		}

		switch {
		case err == nil:
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if !tooLong && len(line) == 0 {
				return nil, io.EOF
			}
		default:
			return nil, fmt.Errorf("failed to read message: %w", err)
		}

		if tooLong {
			return nil, fmt.Errorf("%w: exceeds %d bytes", ErrMessageTooLong, t.max)
		}
		return line, nil
	}
}

// Send writes v as a single JSON line and flushes it. After a failed write
// the buffer is discarded so that the next Send starts clean.
func (t *Transport) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}
	data = append(data, '\n')

	if _, err := t.w.Write(data); err != nil {
		t.w.Reset(t.out)
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := t.w.Flush(); err != nil {
		t.w.Reset(t.out)
		return fmt.Errorf("failed to flush message: %w", err)
	}
	return nil
}
