package wire

// WritePromise is the completion handle attached to a queued write. It is
// resolved exactly once, from the serial context owning the connection;
// Done and Err may be consulted from any goroutine.
//
// When the framer coalesces several writes into one buffer it picks one
// promise as the representative and registers the rest as waiters on it, so
// a single flush resolves the whole batch atomically.
type WritePromise struct {
	done      chan struct{}
	err       error
	completed bool
	waiters   []*WritePromise
}

// NewWritePromise creates an unresolved promise.
func NewWritePromise() *WritePromise {
	return &WritePromise{done: make(chan struct{})}
}

// Done returns a channel closed once the write has been resolved.
func (p *WritePromise) Done() <-chan struct{} {
	return p.done
}

// Err returns the write result. It is nil until Done is closed and nil
// afterwards if the write succeeded.
func (p *WritePromise) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Resolved reports whether the promise has completed.
func (p *WritePromise) Resolved() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Succeed resolves the promise successfully. Must be called from the
// owning connection context.
func (p *WritePromise) Succeed() {
	p.resolve(nil)
}

// Fail resolves the promise with err. Must be called from the owning
// connection context.
func (p *WritePromise) Fail(err error) {
	p.resolve(err)
}

// attach registers other to resolve with this promise's result. If the
// promise already resolved, other resolves immediately.
func (p *WritePromise) attach(other *WritePromise) {
	if other == nil {
		return
	}
	if p.completed {
		other.resolve(p.err)
		return
	}
	p.waiters = append(p.waiters, other)
}

func (p *WritePromise) resolve(err error) {
	if p.completed {
		return
	}
	p.completed = true
	p.err = err
	close(p.done)
	for _, w := range p.waiters {
		w.resolve(err)
	}
	p.waiters = nil
}
