package log

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

// ObjectMarshaller lets a domain type attach its own fields to a log
// event. Implementations append flat key/value pairs; they must not call
// Msg or End.
type ObjectMarshaller interface {
	MarshalLogObj(e *LogEvent)
}

// LogEvent accumulates one structured log line as JSON. Events are pooled
// by the owning logger and recycled after Msg/End, so an event must not be
// retained once terminated.
//
// All field methods are safe to call on a nil receiver; a nil event is
// what the logger hands out when the level is filtered, which keeps call
// sites free of level checks.
type LogEvent struct {
	logger Logger
	buf    bytes.Buffer
	level  Level
	num    [24]byte // scratch for integer formatting
}

func newEvent(logger Logger) *LogEvent {
	e := &LogEvent{logger: logger}
	e.buf.WriteByte('{')
	return e
}

// Reset prepares a pooled event for reuse.
func (e *LogEvent) Reset() {
	e.buf.Reset()
	e.buf.WriteByte('{')
	e.level = TraceLevel
}

func (e *LogEvent) appendKey(key string) {
	if e.buf.Len() > 1 {
		e.buf.WriteByte(',')
	}
	e.appendQuoted(key)
	e.buf.WriteByte(':')
}

// appendQuoted writes s as a JSON string, escaping only what the format
// requires.
func (e *LogEvent) appendQuoted(s string) {
	e.buf.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\\':
			e.buf.WriteByte('\\')
			e.buf.WriteByte(c)
		case c == '\n':
			e.buf.WriteString(`\n`)
		case c == '\r':
			e.buf.WriteString(`\r`)
		case c == '\t':
			e.buf.WriteString(`\t`)
		case c < 0x20:
			const hex = "0123456789abcdef"
			e.buf.WriteString(`\u00`)
			e.buf.WriteByte(hex[c>>4])
			e.buf.WriteByte(hex[c&0x0F])
		default:
			e.buf.WriteByte(c)
		}
	}
	e.buf.WriteByte('"')
}

// Str appends a string field.
func (e *LogEvent) Str(key, val string) *LogEvent {
	if e == nil {
		return nil
	}
	e.appendKey(key)
	e.appendQuoted(val)
	return e
}

// Int appends an int field.
func (e *LogEvent) Int(key string, val int) *LogEvent {
	if e == nil {
		return nil
	}
	e.appendKey(key)
	e.buf.Write(strconv.AppendInt(e.num[:0], int64(val), 10))
	return e
}

// Int32 appends an int32 field.
func (e *LogEvent) Int32(key string, val int32) *LogEvent {
	if e == nil {
		return nil
	}
	e.appendKey(key)
	e.buf.Write(strconv.AppendInt(e.num[:0], int64(val), 10))
	return e
}

// Int64 appends an int64 field.
func (e *LogEvent) Int64(key string, val int64) *LogEvent {
	if e == nil {
		return nil
	}
	e.appendKey(key)
	e.buf.Write(strconv.AppendInt(e.num[:0], val, 10))
	return e
}

// Uint32 appends a uint32 field.
func (e *LogEvent) Uint32(key string, val uint32) *LogEvent {
	if e == nil {
		return nil
	}
	e.appendKey(key)
	e.buf.Write(strconv.AppendUint(e.num[:0], uint64(val), 10))
	return e
}

// Uint64 appends a uint64 field.
func (e *LogEvent) Uint64(key string, val uint64) *LogEvent {
	if e == nil {
		return nil
	}
	e.appendKey(key)
	e.buf.Write(strconv.AppendUint(e.num[:0], val, 10))
	return e
}

// Bool appends a bool field.
func (e *LogEvent) Bool(key string, val bool) *LogEvent {
	if e == nil {
		return nil
	}
	e.appendKey(key)
	e.buf.Write(strconv.AppendBool(e.num[:0], val))
	return e
}

// Time appends a timestamp field.
func (e *LogEvent) Time(key string, t *time.Time) *LogEvent {
	if e == nil {
		return nil
	}
	e.appendKey(key)
	e.buf.WriteByte('"')
	e.buf.Write(t.AppendFormat(e.num[:0], "2006-01-02 15:04:05.000"))
	e.buf.WriteByte('"')
	return e
}

// Dur appends a duration field in its human-readable form.
func (e *LogEvent) Dur(key string, d time.Duration) *LogEvent {
	if e == nil {
		return nil
	}
	e.appendKey(key)
	e.appendQuoted(d.String())
	return e
}

// Err appends an "error" field. A nil error appends nothing.
func (e *LogEvent) Err(err error) *LogEvent {
	if e == nil || err == nil {
		return e
	}
	return e.Str("error", err.Error())
}

// Obj lets m attach its own fields to the event.
func (e *LogEvent) Obj(m ObjectMarshaller) *LogEvent {
	if e == nil || m == nil {
		return e
	}
	m.MarshalLogObj(e)
	return e
}

// Msg terminates the event with a message and hands it to the logger for
// output. The event must not be used afterwards.
func (e *LogEvent) Msg(msg string) {
	if e == nil {
		return
	}
	e.appendKey("msg")
	e.appendQuoted(msg)
	e.finish()
}

// Msgf terminates the event with a formatted message.
func (e *LogEvent) Msgf(format string, args ...any) {
	if e == nil {
		return
	}
	e.Msg(fmt.Sprintf(format, args...))
}

// End terminates the event without a message.
func (e *LogEvent) End() {
	if e == nil {
		return
	}
	e.finish()
}

func (e *LogEvent) finish() {
	e.buf.WriteByte('}')
	e.buf.WriteByte('\n')
	e.logger.OnEventEnd(e)
}

// callerInfo is the cached resolution of one program counter.
type callerInfo struct {
	file     string
	function string
	line     int
	str      string
}

var _UnknownCallerInfo = &callerInfo{file: "unknown", function: "unknown", str: "unknown"}

func newCallerInfo(file, function string, line int) *callerInfo {
	return &callerInfo{
		file:     file,
		function: function,
		line:     line,
		str:      file + ":" + strconv.Itoa(line) + "(" + function + ")",
	}
}

func (c *callerInfo) String() string {
	return c.str
}
