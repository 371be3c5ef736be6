package wire

import (
	"bytes"
	"errors"

	"github.com/lcx/hermes/metrics"
)

// ErrNoCompressor is returned when a queued write requests compression but
// the framer was built without a compressor.
var ErrNoCompressor = errors.New("wire: no compressor configured")

// FrameOutput is one transmission unit produced by Framer.Next.
type FrameOutput struct {
	// Bytes is the data to hand to the transport. The slice is only valid
	// until the next call on the framer.
	Bytes []byte

	// Promise resolves the queued writes carried by Bytes once the
	// transport flushes them. It is nil for the header half of a split
	// large write; the following Next call returns the body with the
	// original promise.
	Promise *WritePromise
}

// Framer encodes queued writes into length-prefixed wire frames. Adjacent
// small or compressed payloads coalesce into one shared buffer; a large
// uncompressed payload is emitted as a separate header and raw body so it
// is never copied. All methods must run on the connection's serial context.
type Framer struct {
	queue       pendingQueue
	compressor  Compressor
	scratch     bytes.Buffer
	headerBuf   [FrameHeaderSize]byte
	pendingBody *pendingWrite
}

// NewFramer creates a framer. compressor may be nil when no compression
// was negotiated for the connection.
func NewFramer(compressor Compressor) *Framer {
	return &Framer{compressor: compressor}
}

// Append queues payload for transmission. Queue order is transmission
// order. promise may be nil when the caller does not await the write.
func (f *Framer) Append(payload []byte, compress bool, promise *WritePromise) {
	f.queue.push(pendingWrite{payload: payload, compress: compress, promise: promise})
}

// Pending returns the number of queued writes not yet emitted, including
// the stashed body half of a split write.
func (f *Framer) Pending() int {
	n := f.queue.len()
	if f.pendingBody != nil {
		n++
	}
	return n
}

// Next produces the next transmission unit, or (nil, nil) when nothing is
// queued. A mid-batch encoding failure fails the batch's promise, discards
// the entries already consumed for that batch and returns the error; later
// queue entries stay queued.
func (f *Framer) Next() (*FrameOutput, error) {
	if f.pendingBody != nil {
		w := f.pendingBody
		f.pendingBody = nil
		return &FrameOutput{Bytes: w.payload, Promise: w.promise}, nil
	}
	if f.queue.empty() {
		return nil, nil
	}

	// Maximal front run of entries that either fit the coalescing
	// threshold or need compression. Compression always coalesces since
	// the output size is unknown until computed.
	run, total := 0, 0
	for i := 0; i < f.queue.len(); i++ {
		w := f.queue.at(i)
		if len(w.payload) > CoalesceThreshold && !w.compress {
			break
		}
		run++
		total += FrameHeaderSize + len(w.payload)
	}

	if run == 0 {
		// Front is large and uncompressed: header alone now, raw body on
		// the next call, so the payload is never copied.
		w, _ := f.queue.pop()
		PutFrameHeader(f.headerBuf[:], FrameHeader{Compressed: false, Length: uint32(len(w.payload))})
		f.pendingBody = &w
		metrics.IncrCounterWithDimGroup("wire", "frames_out_total", 1, map[string]string{"mode": "split"})
		return &FrameOutput{Bytes: f.headerBuf[:], Promise: nil}, nil
	}

	f.scratch.Reset()
	f.scratch.Grow(total)
	var rep *WritePromise
	for i := 0; i < run; i++ {
		w, _ := f.queue.pop()
		if rep == nil {
			rep = w.promise
		} else {
			rep.attach(w.promise)
		}
		if err := f.encodeInto(&w); err != nil {
			if rep != nil {
				rep.Fail(err)
			}
			f.scratch.Reset()
			return nil, err
		}
	}
	metrics.IncrCounterWithDimGroup("wire", "frames_out_total", metrics.Value(run), map[string]string{"mode": "coalesced"})
	return &FrameOutput{Bytes: f.scratch.Bytes(), Promise: rep}, nil
}

// FailPending fails every queued write with err and clears the queue.
// Called on connection teardown; buffered writes are discarded, never
// retried.
func (f *Framer) FailPending(err error) {
	if f.pendingBody != nil {
		if f.pendingBody.promise != nil {
			f.pendingBody.promise.Fail(err)
		}
		f.pendingBody = nil
	}
	for {
		w, ok := f.queue.pop()
		if !ok {
			return
		}
		if w.promise != nil {
			w.promise.Fail(err)
		}
	}
}

func (f *Framer) encodeInto(w *pendingWrite) error {
	if !w.compress {
		var hdr [FrameHeaderSize]byte
		PutFrameHeader(hdr[:], FrameHeader{Length: uint32(len(w.payload))})
		f.scratch.Write(hdr[:])
		f.scratch.Write(w.payload)
		return nil
	}
	if f.compressor == nil {
		return ErrNoCompressor
	}

	// Placeholder header first; the true length is known only after the
	// compressor ran, then patched in place.
	start := f.scratch.Len()
	var hdr [FrameHeaderSize]byte
	f.scratch.Write(hdr[:])
	if err := f.compressor.Compress(&f.scratch, w.payload); err != nil {
		return err
	}
	compressed := f.scratch.Len() - start - FrameHeaderSize
	PutFrameHeader(f.scratch.Bytes()[start:], FrameHeader{Compressed: true, Length: uint32(compressed)})
	return nil
}
