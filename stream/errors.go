package stream

import (
	"errors"

	"github.com/lcx/hermes/wire"
)

var (
	// ErrCardinalityViolation reports more messages in a direction than its
	// arity permits, or use of a direction already in its terminal state.
	ErrCardinalityViolation = errors.New("stream: cardinality violation")

	// ErrSerializationFailed reports an outbound message that could not be
	// encoded. The write path does not recover.
	ErrSerializationFailed = errors.New("stream: serialization failed")

	// ErrDeserializationFailed reports inbound bytes that could not be
	// decoded into messages.
	ErrDeserializationFailed = errors.New("stream: deserialization failed")

	// ErrLeftOverBytes reports trailing bytes after the only expected
	// message of an arity-one stream.
	ErrLeftOverBytes = errors.New("stream: left over bytes")

	// ErrInvalidState guards transitions that should be unreachable.
	ErrInvalidState = errors.New("stream: invalid state")
)

// DecompressionLimitError reports an inbound message whose decompressed form
// exceeds the configured receive limit; it carries the compressed size as
// seen on the wire. Alias of the wire-level type so errors.As matches under
// either name.
type DecompressionLimitError = wire.DecompressionLimitError
