package wire

// ContentType identifies the framing dialect negotiated for a call. Binary
// framing carries raw frames; the web dialects differ upstream (base64 and
// trailer handling happen outside this layer) but share the envelope.
type ContentType int

const (
	// ContentTypeProto is binary protobuf framing (application/grpc).
	ContentTypeProto ContentType = iota
	// ContentTypeWebProto is web-binary framing (application/grpc-web).
	ContentTypeWebProto
	// ContentTypeWebTextProto is web-text framing (application/grpc-web-text).
	ContentTypeWebTextProto
)

// ParseContentType maps a content-type token onto its framing dialect.
func ParseContentType(value string) (ContentType, bool) {
	switch value {
	case "application/grpc", "application/grpc+proto":
		return ContentTypeProto, true
	case "application/grpc-web", "application/grpc-web+proto":
		return ContentTypeWebProto, true
	case "application/grpc-web-text", "application/grpc-web-text+proto":
		return ContentTypeWebTextProto, true
	default:
		return 0, false
	}
}

// CanonicalValue returns the token to send on the wire for this dialect.
func (c ContentType) CanonicalValue() string {
	switch c {
	case ContentTypeWebProto:
		return "application/grpc-web"
	case ContentTypeWebTextProto:
		return "application/grpc-web-text"
	default:
		return "application/grpc"
	}
}

func (c ContentType) String() string {
	switch c {
	case ContentTypeProto:
		return "proto"
	case ContentTypeWebProto:
		return "web-proto"
	case ContentTypeWebTextProto:
		return "web-text-proto"
	default:
		return "unknown"
	}
}
