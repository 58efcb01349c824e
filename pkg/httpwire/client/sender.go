package client

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/wireproto/httpwire/pkg/httpwire/proto"
)

// Callback receives the outcome of one SendRequest call. It is invoked
// exactly once for every call accepted before Stop: on success, on any
// pipeline error, or — if the job's processing returns without producing a
// result — with a nil Response and a non-nil error, the empty-signal path.
// Calls made after Stop are dropped and never invoke it.
type Callback func(Result)

type job struct {
	ctx     context.Context
	address string
	port    uint16
	req     *proto.Request
	cb      Callback
	guard   *replyGuard
}

// replyGuard makes sure Callback fires exactly once per job even if the
// job's processing unwinds (a panic) without ever reaching its normal
// completion path. The deferred fireEmpty call at the top
// of the job's processing is the structural, non-GC-dependent translation
// of "the callback's destructor fires the empty signal if never otherwise
// invoked" — defer runs deterministically when the function returns, unlike
// a finalizer.
type replyGuard struct {
	once sync.Once
	cb   Callback
}

func (g *replyGuard) fire(r Result) {
	g.once.Do(func() { g.cb(r) })
}

func (g *replyGuard) fireEmpty() {
	g.once.Do(func() {
		g.cb(Result{Err: errAbandoned})
	})
}

var errAbandoned = errSentinel("httpwire: request abandoned without a response")

type errSentinel string

func (e errSentinel) Error() string { return string(e) }

// Sender owns exactly one worker goroutine and a queue of pending calls.
// SendRequest enqueues and returns immediately; the worker processes jobs
// strictly one at a time, in submission order — this package does not run
// client requests concurrently with each other, matching the "owns the
// executor and exactly one worker thread" contract.
type Sender struct {
	cfg     Config
	jobs    chan job
	stopped atomic.Bool
	// closeMu guards against SendRequest racing Stop's close(s.jobs): any
	// number of SendRequest calls may hold the read lock concurrently, but
	// Stop takes the write lock before closing the channel, so a send that
	// has already passed the stopped check is guaranteed to complete before
	// the channel closes underneath it.
	closeMu sync.RWMutex
	wg      sync.WaitGroup
}

// NewSender starts the worker goroutine and returns a ready Sender.
func NewSender(cfg Config) *Sender {
	s := &Sender{cfg: cfg, jobs: make(chan job, 64)}
	s.wg.Add(1)
	go s.run()
	return s
}

func (s *Sender) run() {
	defer s.wg.Done()
	for j := range s.jobs {
		s.process(j)
	}
}

func (s *Sender) process(j job) {
	defer j.guard.fireEmpty()
	address := j.address
	if address == "" {
		address = s.cfg.Address
	}
	port := j.port
	if port == 0 {
		port = s.cfg.Port
	}
	result := do(j.ctx, s.cfg, address, port, j.req)
	j.guard.fire(result)
}

// SendRequest enqueues req for the worker to process against address/port
// (or the Sender's configured defaults if either is zero-valued). It is a
// no-op once the Sender has been stopped — cb is never invoked in that
// case, since shutdown has already accounted for anything still in flight.
func (s *Sender) SendRequest(ctx context.Context, req *proto.Request, address string, port uint16, cb Callback) {
	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.stopped.Load() {
		return
	}
	j := job{ctx: ctx, address: address, port: port, req: req, guard: &replyGuard{cb: cb}}
	// A blocking send (rather than a synchronous fallback when the queue is
	// full) keeps every call running through the single worker goroutine,
	// preserving the "exactly one worker thread" contract even under
	// backpressure. Holding closeMu's read lock across the send is what
	// rules out Stop closing s.jobs underneath it.
	s.jobs <- j
}

// Stop idempotently (CAS-once) signals the worker to drain its queue and
// exit, then joins it. Jobs already enqueued still run; SendRequest calls
// after Stop has begun are no-ops. Taking closeMu's write lock before
// closing s.jobs waits out any SendRequest that already passed the stopped
// check, so the close can never race a send.
func (s *Sender) Stop() {
	if !s.stopped.CompareAndSwap(false, true) {
		return
	}
	s.closeMu.Lock()
	close(s.jobs)
	s.closeMu.Unlock()
	s.wg.Wait()
}
