package wire

import (
	"bytes"
	"errors"

	"github.com/lcx/hermes/metrics"
)

// ErrNoDecompressor is returned when a compressed frame arrives but the
// reader was built without a decompressor.
var ErrNoDecompressor = errors.New("wire: no decompressor configured")

// FrameReader accumulates transport bytes and extracts complete frames.
// Messages may straddle transport reads, so one Append can surface zero,
// one or many messages on the following Collect. All methods must run on
// the connection's serial context.
type FrameReader struct {
	buf          bytes.Buffer
	decompressor Decompressor
	limit        int
}

// NewFrameReader creates a reader. decompressor may be nil when no
// compression was negotiated; limit caps the decompressed size of a single
// message, limit <= 0 means unlimited.
func NewFrameReader(decompressor Decompressor, limit int) *FrameReader {
	return &FrameReader{decompressor: decompressor, limit: limit}
}

// SetLimit replaces the decompressed-size cap, limit <= 0 means unlimited.
// Takes effect from the next Collect.
func (r *FrameReader) SetLimit(limit int) {
	r.limit = limit
}

// Append buffers newly arrived transport bytes.
func (r *FrameReader) Append(p []byte) {
	if len(p) == 0 {
		return
	}
	r.buf.Write(p)
}

// Collect extracts every complete frame currently buffered and returns the
// decoded payloads in wire order. Messages decoded before a failing frame
// are returned alongside the error.
func (r *FrameReader) Collect() ([][]byte, error) {
	var msgs [][]byte
	for {
		if r.buf.Len() < FrameHeaderSize {
			return msgs, nil
		}
		hdr, err := DecodeFrameHeader(r.buf.Bytes())
		if err != nil {
			return msgs, err
		}
		if r.buf.Len() < FrameHeaderSize+int(hdr.Length) {
			return msgs, nil
		}

		r.buf.Next(FrameHeaderSize)
		payload := r.buf.Next(int(hdr.Length))
		msg, err := r.decode(hdr, payload)
		if err != nil {
			return msgs, err
		}
		msgs = append(msgs, msg)
		metrics.IncrCounterWithGroup("wire", "frames_in_total", 1)
	}
}

// HasLeftover reports whether unconsumed bytes or a partially accumulated
// frame remain buffered.
func (r *FrameReader) HasLeftover() bool {
	return r.buf.Len() > 0
}

// Leftover returns the number of buffered bytes not yet consumed by a
// complete frame.
func (r *FrameReader) Leftover() int {
	return r.buf.Len()
}

func (r *FrameReader) decode(hdr FrameHeader, payload []byte) ([]byte, error) {
	if hdr.Compressed {
		if r.decompressor == nil {
			return nil, ErrNoDecompressor
		}
		return r.decompressor.Decompress(payload, r.limit)
	}

	// payload aliases the internal buffer and dies on the next Append.
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}
