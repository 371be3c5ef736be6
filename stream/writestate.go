package stream

import (
	"fmt"

	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/lcx/hermes/codec"
	"github.com/lcx/hermes/metrics"
	"github.com/lcx/hermes/wire"
)

type writePhase int

const (
	writing writePhase = iota
	notWriting
)

// WriteState enforces the outbound arity contract for one call. An arity-one
// stream accepts a single successful write; arity-many accepts any number.
// Once the state leaves writing it never returns.
type WriteState struct {
	arity  Arity
	phase  writePhase
	framer *wire.Framer
	codec  codec.Codec
}

// NewWriteState wraps framer for one call's outbound direction. A nil c
// selects the process-global codec.
func NewWriteState(arity Arity, framer *wire.Framer, c codec.Codec) *WriteState {
	if c == nil {
		c = codec.Default()
	}
	return &WriteState{arity: arity, framer: framer, codec: c}
}

// Write serializes m and queues it on the framer. compress marks the frame
// for the negotiated compressor. The returned promise resolves once the
// frame reaches the transport; it may be awaited from any goroutine.
func (s *WriteState) Write(m protoreflect.ProtoMessage, compress bool) (*wire.WritePromise, error) {
	if s.phase == notWriting {
		metrics.IncrCounterWithGroup("stream", "write_cardinality_violation_total", 1)
		return nil, fmt.Errorf("%w: write after the stream closed its write path", ErrCardinalityViolation)
	}

	payload, err := s.codec.Encode(m, nil)
	if err != nil {
		// 编码失败后写方向不再恢复
		s.phase = notWriting
		metrics.IncrCounterWithGroup("stream", "serialization_failed_total", 1)
		return nil, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}

	promise := wire.NewWritePromise()
	s.framer.Append(payload, compress, promise)
	if s.arity == One {
		s.phase = notWriting
	}
	return promise, nil
}

// Writing reports whether the stream still accepts writes.
func (s *WriteState) Writing() bool {
	return s.phase == writing
}
