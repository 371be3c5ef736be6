package status

import (
	"strings"
)

const upperHex = "0123456789ABCDEF"

// escaped reports whether byte c must be percent-escaped. The bytes
// allowed through verbatim are 0x20-0x24 and 0x26-0x7E; everything
// else, including '%' itself, is escaped.
func escaped(c byte) bool {
	return c < 0x20 || c > 0x7E || c == '%'
}

// PercentEncode escapes msg for wire transport. Bytes outside the
// allowed printable range become "%XX" with uppercase hex digits. A
// message that needs no escaping is returned unchanged without
// allocating.
func PercentEncode(msg string) string {
	for i := 0; i < len(msg); i++ {
		if escaped(msg[i]) {
			return percentEncodeSlow(msg)
		}
	}
	return msg
}

func percentEncodeSlow(msg string) string {
	var sb strings.Builder
	sb.Grow(len(msg) + 8)
	for i := 0; i < len(msg); i++ {
		c := msg[i]
		if escaped(c) {
			sb.WriteByte('%')
			sb.WriteByte(upperHex[c>>4])
			sb.WriteByte(upperHex[c&0x0F])
		} else {
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// PercentDecode reverses PercentEncode. Decoding never fails: a '%'
// that is not followed by two hex digits is passed through verbatim
// rather than reported as an error, so arbitrary peer input always
// yields a usable string.
func PercentDecode(msg string) string {
	for i := 0; i < len(msg); i++ {
		if msg[i] == '%' {
			return percentDecodeSlow(msg)
		}
	}
	return msg
}

func percentDecodeSlow(msg string) string {
	var sb strings.Builder
	sb.Grow(len(msg))
	for i := 0; i < len(msg); i++ {
		c := msg[i]
		if c == '%' && i+2 < len(msg) {
			hi, okHi := unhex(msg[i+1])
			lo, okLo := unhex(msg[i+2])
			if okHi && okLo {
				sb.WriteByte(hi<<4 | lo)
				i += 2
				continue
			}
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}
