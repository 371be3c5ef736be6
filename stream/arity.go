// Package stream enforces the per-call message cardinality contract on top
// of the wire framing layer. Each logical call owns one WriteState and one
// ReadState; both run on the serial context of the connection that carries
// the call. A contract violation poisons only the offending direction, the
// physical connection and other calls multiplexed on it keep going.
package stream

// Arity is the message-count contract for one stream direction.
type Arity int

const (
	// One permits exactly one message.
	One Arity = iota
	// Many permits any number of messages.
	Many
)

func (a Arity) String() string {
	switch a {
	case One:
		return "one"
	case Many:
		return "many"
	default:
		return "unknown"
	}
}
