// Package framing reads and writes Content-Length delimited payloads, the
// header convention language servers use over stdio.
//
// A frame is a block of "Name: value" header lines terminated by an empty
// line, followed by exactly Content-Length bytes of payload:
//
//	Content-Length: 17\r\n
//	\r\n
//	{"jsonrpc":"2.0"}
package framing

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const headerContentLength = "Content-Length"

// MaxFrameSize is the largest Content-Length a Reader accepts.
const MaxFrameSize = 64 << 20

var (
	// ErrMissingContentLength means a header block ended without a
	// Content-Length header. The stream itself is still usable.
	ErrMissingContentLength = errors.New("frame has no Content-Length header")

	// ErrInvalidContentLength means the Content-Length value was not a
	// non-negative integer no larger than MaxFrameSize. The stream itself is
	// still usable.
	ErrInvalidContentLength = errors.New("frame has invalid Content-Length header")

	// ErrStreamClosed means the underlying stream ended or failed before a
	// complete frame was read or written. It is terminal.
	ErrStreamClosed = errors.New("stream closed")
)

// Absent reports whether err describes a frame that could not be used but
// left the stream readable.
func Absent(err error) bool {
	return errors.Is(err, ErrMissingContentLength) || errors.Is(err, ErrInvalidContentLength)
}

// Encode returns payload prefixed with its Content-Length header block.
func Encode(payload []byte) []byte {
	header := headerContentLength + ": " + strconv.Itoa(len(payload)) + "\r\n\r\n"
	out := make([]byte, 0, len(header)+len(payload))
	out = append(out, header...)
	return append(out, payload...)
}

// Reader decodes frames from a byte stream.
type Reader struct {
	r *bufio.Reader
}

// NewReader wraps r. An existing *bufio.Reader is used as-is.
func NewReader(r io.Reader) *Reader {
	if br, ok := r.(*bufio.Reader); ok {
		return &Reader{r: br}
	}
	return &Reader{r: bufio.NewReader(r)}
}

// ReadFrame blocks until one complete frame has arrived and returns its
// payload. The body is read by declared byte count, so multi-byte UTF-8
// sequences split across reads arrive intact.
func (r *Reader) ReadFrame() ([]byte, error) {
	length := -1
	invalid := false
	started := false

	for {
		line, err := r.r.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) && !started && line == "" {
				return nil, fmt.Errorf("%w: %w", ErrStreamClosed, io.EOF)
			}
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("%w: reading headers: %w", ErrStreamClosed, err)
		}
		started = true

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), headerContentLength) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 || n > MaxFrameSize {
			invalid = true
			continue
		}
		length = n
		invalid = false
	}

	if invalid {
		return nil, ErrInvalidContentLength
	}
	if length < 0 {
		return nil, ErrMissingContentLength
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("%w: reading %d byte body: %w", ErrStreamClosed, length, err)
	}
	return payload, nil
}

// Writer encodes frames onto a byte stream.
type Writer struct {
	w *bufio.Writer
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteFrame writes one frame and flushes it.
func (w *Writer) WriteFrame(payload []byte) error {
	if _, err := w.w.Write(Encode(payload)); err != nil {
		return fmt.Errorf("%w: %w", ErrStreamClosed, err)
	}
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrStreamClosed, err)
	}
	return nil
}

// Conn pairs a Reader and a Writer over the two halves of a duplex stream,
// such as a child process's stdout and stdin.
type Conn struct {
	*Reader
	*Writer
}

// NewConn returns a Conn reading frames from r and writing frames to w.
func NewConn(r io.Reader, w io.Writer) *Conn {
	return &Conn{Reader: NewReader(r), Writer: NewWriter(w)}
}
