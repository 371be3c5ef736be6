// Package wire implements the length-prefixed wire framing of hermes:
// the frame header codec, the coalescing message framer, the accumulating
// frame reader and the compressor registry.
package wire

import (
	"encoding/binary"
	"errors"
)

// FrameHeaderSize 帧头长度.
const FrameHeaderSize = 5

// CoalesceThreshold is the largest payload that is still cheaper to copy
// into a shared buffer than to emit as its own protocol frame.
const CoalesceThreshold = 16384 - FrameHeaderSize

const (
	flagIdentity   byte = 0
	flagCompressed byte = 1
)

// FrameHeader 帧头.
type FrameHeader struct {
	Compressed bool
	Length     uint32
}

// EncodeFrameHeader 编码帧头.
func EncodeFrameHeader(hdr FrameHeader) []byte {
	buf := make([]byte, FrameHeaderSize)
	PutFrameHeader(buf, hdr)
	return buf
}

// PutFrameHeader writes hdr into buf, which must hold at least
// FrameHeaderSize bytes.
func PutFrameHeader(buf []byte, hdr FrameHeader) {
	if hdr.Compressed {
		buf[0] = flagCompressed
	} else {
		buf[0] = flagIdentity
	}
	binary.BigEndian.PutUint32(buf[1:FrameHeaderSize], hdr.Length)
}

// DecodeFrameHeader 解帧头.
func DecodeFrameHeader(buf []byte) (FrameHeader, error) {
	if len(buf) < FrameHeaderSize {
		return FrameHeader{}, errors.New("buff too small")
	}
	if buf[0] > flagCompressed {
		return FrameHeader{}, errors.New("invalid compression flag")
	}
	return FrameHeader{
		Compressed: buf[0] == flagCompressed,
		Length:     binary.BigEndian.Uint32(buf[1:FrameHeaderSize]),
	}, nil
}
