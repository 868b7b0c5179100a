package pool

// boundTask pairs a submitted task with the future its outcome resolves.
type boundTask struct {
	task   Task
	future *Future
}

// taskRing is a growable FIFO ring buffer of bound tasks. The capacity
// bound is enforced at the admission boundary, not by the storage: a
// blocking submission that outlives its wait is allowed to push past the
// bound, so the ring grows on demand.
type taskRing struct {
	buf   []boundTask
	head  int
	count int
}

const minRingCapacity = 16

// len returns the number of queued tasks.
func (r *taskRing) len() int {
	return r.count
}

// pushBack appends a bound task to the tail, growing the ring if needed.
func (r *taskRing) pushBack(bt boundTask) {
	if r.count == len(r.buf) {
		r.grow()
	}
	r.buf[(r.head+r.count)%len(r.buf)] = bt
	r.count++
}

// popFront removes and returns the head. Callers must establish
// non-emptiness first.
func (r *taskRing) popFront() boundTask {
	if r.count == 0 {
		panic("pool: popFront on empty task ring")
	}
	bt := r.buf[r.head]
	r.buf[r.head] = boundTask{} // release references
	r.head = (r.head + 1) % len(r.buf)
	r.count--
	return bt
}

// reset discards all queued tasks. Their futures are never resolved.
func (r *taskRing) reset() {
	r.buf = nil
	r.head = 0
	r.count = 0
}

func (r *taskRing) grow() {
	newCap := len(r.buf) * 2
	if newCap < minRingCapacity {
		newCap = minRingCapacity
	}
	buf := make([]boundTask, newCap)
	for i := 0; i < r.count; i++ {
		buf[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	r.buf = buf
	r.head = 0
}
