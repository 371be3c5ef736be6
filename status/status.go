package status

import "fmt"

// Status pairs a completion code and message with optional trailing
// metadata. It is an immutable value constructed once per call
// completion; trailer maps are copied in.
type Status struct {
	code     Code
	message  string
	trailers map[string][]string
}

// New constructs a Status without trailers.
func New(code Code, message string) *Status {
	return &Status{code: code, message: message}
}

// NewWithTrailers constructs a Status carrying trailing metadata.
func NewWithTrailers(code Code, message string, trailers map[string][]string) *Status {
	s := &Status{code: code, message: message}
	if len(trailers) > 0 {
		s.trailers = make(map[string][]string, len(trailers))
		for k, v := range trailers {
			vals := make([]string, len(v))
			copy(vals, v)
			s.trailers[k] = vals
		}
	}
	return s
}

// Code returns the completion code.
func (s *Status) Code() Code {
	if s == nil {
		return CodeOK
	}
	return s.code
}

// Message returns the raw (unencoded) message text.
func (s *Status) Message() string {
	if s == nil {
		return ""
	}
	return s.message
}

// WireMessage returns the percent-encoded form of the message, safe for
// header transport.
func (s *Status) WireMessage() string {
	return PercentEncode(s.Message())
}

// Trailers returns the trailing metadata. Callers must not modify the
// returned map.
func (s *Status) Trailers() map[string][]string {
	if s == nil {
		return nil
	}
	return s.trailers
}

// Err returns nil for an OK status and an error wrapping the status
// otherwise.
func (s *Status) Err() error {
	if s.Code() == CodeOK {
		return nil
	}
	return &Error{status: s}
}

func (s *Status) String() string {
	return fmt.Sprintf("status(code=%s, message=%q)", s.Code(), s.Message())
}

// Error adapts a non-OK Status to the error interface.
type Error struct {
	status *Status
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc status %s: %s", e.status.Code(), e.status.Message())
}

// Status returns the underlying status value.
func (e *Error) Status() *Status {
	return e.status
}

// FromError extracts a Status from err if one is attached; otherwise it
// reports false together with an Unknown status carrying err's text.
func FromError(err error) (*Status, bool) {
	if err == nil {
		return New(CodeOK, ""), true
	}
	if se, ok := err.(*Error); ok {
		return se.status, true
	}
	return New(CodeUnknown, err.Error()), false
}
