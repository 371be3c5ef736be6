package stream

import (
	"errors"
	"fmt"

	"github.com/lcx/hermes/codec"
	"github.com/lcx/hermes/metrics"
	"github.com/lcx/hermes/wire"
)

type readPhase int

const (
	reading readPhase = iota
	notReading
)

// ReadState enforces the inbound arity contract for one call. Inbound bytes
// arrive in transport-sized chunks, so a message may straddle several
// Receive calls and one call may finish several messages.
type ReadState struct {
	arity  Arity
	phase  readPhase
	reader *wire.FrameReader
	codec  codec.Codec
}

// NewReadState wraps reader for one call's inbound direction.
// maxDecompressedSize caps the decompressed size of a single message,
// <= 0 means unlimited. A nil c selects the process-global codec.
func NewReadState(arity Arity, reader *wire.FrameReader, maxDecompressedSize int, c codec.Codec) *ReadState {
	if c == nil {
		c = codec.Default()
	}
	reader.SetLimit(maxDecompressedSize)
	return &ReadState{arity: arity, reader: reader, codec: c}
}

// Receive appends newly arrived transport bytes and returns every message
// payload they complete, in wire order. Messages extracted before a failing
// frame are returned alongside the error. Any error leaves the read path in
// its terminal state.
func (s *ReadState) Receive(p []byte) ([][]byte, error) {
	if s.phase == notReading {
		metrics.IncrCounterWithGroup("stream", "read_cardinality_violation_total", 1)
		return nil, fmt.Errorf("%w: receive after the stream closed its read path", ErrCardinalityViolation)
	}

	s.reader.Append(p)
	msgs, err := s.reader.Collect()
	if err != nil {
		s.phase = notReading
		var limitErr *wire.DecompressionLimitError
		if errors.As(err, &limitErr) {
			// 保留类型, 错误里携带线上压缩大小
			metrics.IncrCounterWithGroup("stream", "decompression_limit_total", 1)
			return msgs, err
		}
		metrics.IncrCounterWithGroup("stream", "deserialization_failed_total", 1)
		return msgs, fmt.Errorf("%w: %v", ErrDeserializationFailed, err)
	}

	if s.arity == Many {
		return msgs, nil
	}

	switch len(msgs) {
	case 0:
		// 消息还没攒齐
		return nil, nil
	case 1:
		s.phase = notReading
		if s.reader.HasLeftover() {
			metrics.IncrCounterWithGroup("stream", "leftover_bytes_total", 1)
			return nil, fmt.Errorf("%w: %d trailing bytes after the only expected message", ErrLeftOverBytes, s.reader.Leftover())
		}
		return msgs, nil
	default:
		s.phase = notReading
		metrics.IncrCounterWithGroup("stream", "read_cardinality_violation_total", 1)
		return nil, fmt.Errorf("%w: got %d messages on an arity-one stream", ErrCardinalityViolation, len(msgs))
	}
}

// Decode parses one received payload into a.
func (s *ReadState) Decode(a any, payload []byte) error {
	if err := s.codec.Decode(a, payload); err != nil {
		metrics.IncrCounterWithGroup("stream", "deserialization_failed_total", 1)
		return fmt.Errorf("%w: %v", ErrDeserializationFailed, err)
	}
	return nil
}

// Reading reports whether the stream still accepts inbound bytes.
func (s *ReadState) Reading() bool {
	return s.phase == reading
}
