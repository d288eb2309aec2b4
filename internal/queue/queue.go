package queue

import (
	"errors"
	"sync"
)

// ErrClosed is returned by Enqueue after Close. It is the only way Enqueue
// can fail; the queue has no capacity bound.
var ErrClosed = errors.New("queue is closed")

// Job is one submitted media file awaiting transcription. It is immutable
// once created; the conversion result is a separate value and is never
// written back.
type Job struct {
	ID string

	// Delivery handle: the chat the submission came from, the id of the
	// "queued/processing" notice we edit and remove, and the id of the
	// original media message replies should attach to.
	ChatID    int64
	NoticeID  int
	ReplyToID int

	Data     []byte
	Filename string

	// Submitter identity for logging and the request log.
	UserInfo string // human-readable descriptor
	UserID   int64
	Username string // optional, empty when the account has none
}

// Queue is an unbounded FIFO channel between many producers and one worker.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []*Job
	closed bool
}

// New creates an empty open queue.
func New() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue accepts a job without blocking and returns the queue length
// immediately after acceptance, which doubles as the user-visible position.
// Concurrent calls are serialized; no job is lost or duplicated.
func (q *Queue) Enqueue(job *Job) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return 0, ErrClosed
	}

	q.items = append(q.items, job)
	position := len(q.items)
	q.cond.Signal()
	return position, nil
}

// Dequeue blocks until a job is available or the queue is closed and drained.
// The second return value is false only on end of stream.
func (q *Queue) Dequeue() (*Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}

	if len(q.items) == 0 {
		return nil, false
	}

	job := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return job, true
}

// Close marks the producer side permanently gone. Jobs already accepted are
// still delivered; afterwards Dequeue reports end of stream. Idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()
}

// Len reports the number of jobs waiting to be consumed.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
