package wire

type pendingWrite struct {
	payload  []byte
	compress bool
	promise  *WritePromise
}

type queueState int

const (
	queueEmpty queueState = iota
	queueOne
	queueMany
)

// pendingQueue holds queued writes in insertion order. Unary calls enqueue
// exactly one item, so the queue starts in a single-slot form and only
// allocates the growable form once a second item arrives. It never demotes.
type pendingQueue struct {
	state queueState
	one   pendingWrite
	many  []pendingWrite
}

func (q *pendingQueue) push(w pendingWrite) {
	switch q.state {
	case queueEmpty:
		q.one = w
		q.state = queueOne
	case queueOne:
		q.many = append(q.many, q.one, w)
		q.one = pendingWrite{}
		q.state = queueMany
	case queueMany:
		q.many = append(q.many, w)
	}
}

func (q *pendingQueue) peek() (pendingWrite, bool) {
	switch q.state {
	case queueOne:
		return q.one, true
	case queueMany:
		if len(q.many) == 0 {
			return pendingWrite{}, false
		}
		return q.many[0], true
	default:
		return pendingWrite{}, false
	}
}

func (q *pendingQueue) pop() (pendingWrite, bool) {
	switch q.state {
	case queueOne:
		w := q.one
		q.one = pendingWrite{}
		q.state = queueEmpty
		return w, true
	case queueMany:
		if len(q.many) == 0 {
			return pendingWrite{}, false
		}
		w := q.many[0]
		q.many[0] = pendingWrite{}
		q.many = q.many[1:]
		return w, true
	default:
		return pendingWrite{}, false
	}
}

// at returns the i-th queued item without consuming it. i must be below
// len().
func (q *pendingQueue) at(i int) pendingWrite {
	if q.state == queueOne {
		return q.one
	}
	return q.many[i]
}

func (q *pendingQueue) len() int {
	switch q.state {
	case queueOne:
		return 1
	case queueMany:
		return len(q.many)
	default:
		return 0
	}
}

func (q *pendingQueue) empty() bool {
	return q.len() == 0
}
