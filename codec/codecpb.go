package codec

import (
	"errors"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
)

var errNotProtoMessage = errors.New("codec: decode target is not a proto message")

// PBCodec is the default codec: protobuf binary both ways.
type PBCodec struct{}

// Encode ...
func (c *PBCodec) Encode(m protoreflect.ProtoMessage, b []byte) ([]byte, error) {
	return proto.MarshalOptions{}.MarshalAppend(b, m)
}

// Decode ...
func (c *PBCodec) Decode(a any, b []byte) error {
	m, ok := a.(proto.Message)
	if !ok {
		return errNotProtoMessage
	}
	return proto.Unmarshal(b, m)
}
