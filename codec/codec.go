// Package codec serializes application payloads for framing. The active
// codec is process-global and chosen during startup; transport code calls
// the package-level funcs and never holds a codec itself.
package codec

import (
	"errors"

	"google.golang.org/protobuf/reflect/protoreflect"
)

var (
	errCodecNotInit = errors.New("codec not init")

	_codec Codec = &PBCodec{}
)

// Codec 编解码器.
type Codec interface {
	// Encode appends the wire form of m to b and returns the extended slice.
	Encode(m protoreflect.ProtoMessage, b []byte) ([]byte, error)
	// Decode parses b into a.
	Decode(a any, b []byte) error
}

// Encode 打包.
func Encode(m protoreflect.ProtoMessage, b []byte) ([]byte, error) {
	if _codec == nil {
		return nil, errCodecNotInit
	}
	return _codec.Encode(m, b)
}

// Decode 解包.
func Decode(a any, b []byte) error {
	if _codec == nil {
		return errCodecNotInit
	}
	return _codec.Decode(a, b)
}

// SetCodec 设置编解码器. Call before serving traffic; not synchronized.
func SetCodec(c Codec) {
	_codec = c
}

// Default returns the active process-global codec.
func Default() Codec {
	return _codec
}
