// Package coordinator provides the in-process work queue that feeds a
// routing worker through the pull protocol: the queue announces available
// work, the worker answers with GimmeWork, the queue hands over one request
// per ask and routes the eventual response or failure back to the caller
// that submitted it.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/theoremus-urban-solutions/trip-router/routing"
	"github.com/theoremus-urban-solutions/trip-router/worker"
)

// ErrQueueFull is returned by Submit when the queue already holds its full
// capacity of requests not yet handed to the worker.
var ErrQueueFull = errors.New("coordinator: queue full")

// ErrDuplicateRequest is returned by Submit when a request with the same id
// is still in flight.
var ErrDuplicateRequest = errors.New("coordinator: request id already in flight")

// RequestFailed carries a worker-side routing failure back to the submitter.
type RequestFailed struct {
	Failure routing.Failure
}

func (e *RequestFailed) Error() string {
	return fmt.Sprintf("request %d failed: %s", e.Failure.RequestID, e.Failure.Cause)
}

// Deliverer is the message-receiving side of a worker.
type Deliverer interface {
	Deliver(ctx context.Context, msg any) error
}

type reply struct {
	resp    routing.Response
	failure *routing.Failure
}

// Queue is the coordinator. Submitted requests wait until the worker asks
// for work; replies are correlated by request id. All methods are safe for
// concurrent use.
//
// Worker messages are never delivered while holding the queue lock, so the
// worker may call back into GimmeWork from inside Deliver.
type Queue struct {
	capacity int

	mu      sync.Mutex
	cond    *sync.Cond
	target  Deliverer
	pending []routing.Request
	credits int // outstanding GimmeWork asks not yet answered with a request
	waiters map[int64]chan reply
	closed  bool
	cause   error
}

var _ worker.Coordinator = (*Queue)(nil)

// NewQueue creates a queue accepting at most capacity waiting requests.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	q := &Queue{
		capacity: capacity,
		waiters:  map[int64]chan reply{},
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Attach registers the worker, announces that work will be available and
// starts the dispatch loop. The loop runs until ctx is cancelled or the
// worker reports a fatal error; either way every outstanding Submit fails.
func (q *Queue) Attach(ctx context.Context, w Deliverer) error {
	q.mu.Lock()
	q.target = w
	q.mu.Unlock()

	if err := w.Deliver(ctx, worker.WorkAvailable{Coordinator: q}); err != nil {
		return fmt.Errorf("announce work: %w", err)
	}
	go q.dispatch(ctx, w)
	go func() {
		<-ctx.Done()
		q.shutdown(ctx.Err())
	}()
	return nil
}

// dispatch pairs queued requests with the worker's asks, one at a time.
func (q *Queue) dispatch(ctx context.Context, w Deliverer) {
	for {
		q.mu.Lock()
		for !q.closed && (len(q.pending) == 0 || q.credits == 0) {
			q.cond.Wait()
		}
		if q.closed {
			q.mu.Unlock()
			return
		}
		req := q.pending[0]
		q.pending = q.pending[1:]
		q.credits--
		q.mu.Unlock()

		if err := w.Deliver(ctx, req); err != nil {
			log.Printf("coordinator: worker rejected request %d: %v", req.ID, err)
			q.shutdown(err)
			return
		}
	}
}

// Submit queues one request and blocks until the worker answers it or ctx
// expires. A routing failure comes back as a RequestFailed error; a full
// queue as ErrQueueFull.
func (q *Queue) Submit(ctx context.Context, req routing.Request) (routing.Response, error) {
	ch := make(chan reply, 1)

	q.mu.Lock()
	if q.closed {
		cause := q.cause
		q.mu.Unlock()
		return routing.Response{}, fmt.Errorf("coordinator closed: %w", cause)
	}
	if _, dup := q.waiters[req.ID]; dup {
		q.mu.Unlock()
		return routing.Response{}, fmt.Errorf("%w: %d", ErrDuplicateRequest, req.ID)
	}
	if len(q.pending) >= q.capacity {
		q.mu.Unlock()
		return routing.Response{}, ErrQueueFull
	}
	q.waiters[req.ID] = ch
	q.pending = append(q.pending, req)
	starving := q.credits == 0
	w := q.target
	q.cond.Signal()
	q.mu.Unlock()

	if starving && w != nil {
		// The worker has no asks outstanding; re-offer so it starts pulling.
		if err := w.Deliver(ctx, worker.WorkAvailable{Coordinator: q}); err != nil {
			q.shutdown(err)
		}
	}

	select {
	case r, ok := <-ch:
		if !ok {
			q.mu.Lock()
			cause := q.cause
			q.mu.Unlock()
			return routing.Response{}, fmt.Errorf("coordinator closed: %w", cause)
		}
		if r.failure != nil {
			return routing.Response{}, &RequestFailed{Failure: *r.failure}
		}
		return r.resp, nil
	case <-ctx.Done():
		q.abandon(req.ID)
		return routing.Response{}, ctx.Err()
	}
}

// abandon forgets a submitted request after its caller gave up waiting. The
// queued copy is dropped too when the worker has not taken it yet.
func (q *Queue) abandon(id int64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.waiters, id)
	for i := range q.pending {
		if q.pending[i].ID == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return
		}
	}
}

// GimmeWork grants the worker one more request. Workers call this when a
// request arrives and again when one completes.
func (q *Queue) GimmeWork(string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.credits++
	q.cond.Signal()
}

// SendResponse completes the submit waiting on the response's request id.
func (q *Queue) SendResponse(resp routing.Response) {
	q.complete(resp.RequestID, reply{resp: resp})
}

// SendFailure completes the submit waiting on the failed request's id.
func (q *Queue) SendFailure(f routing.Failure) {
	q.complete(f.RequestID, reply{failure: &f})
}

func (q *Queue) complete(id int64, r reply) {
	q.mu.Lock()
	ch, ok := q.waiters[id]
	if ok {
		delete(q.waiters, id)
	}
	q.mu.Unlock()
	if !ok {
		log.Printf("coordinator: no waiter for request %d, dropping reply", id)
		return
	}
	ch <- r
}

// Backlog returns the number of requests waiting to be handed over.
func (q *Queue) Backlog() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// InFlight returns the number of submits still waiting for a reply.
func (q *Queue) InFlight() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiters)
}

// shutdown closes the queue and fails every outstanding submit with cause.
func (q *Queue) shutdown(cause error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.cause = cause
	waiters := q.waiters
	q.waiters = map[int64]chan reply{}
	q.pending = nil
	q.cond.Broadcast()
	q.mu.Unlock()

	for _, ch := range waiters {
		close(ch)
	}
}
