package checksum

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrClosed is returned by Compute once the channel is closed
var ErrClosed = errors.New("checksum channel closed")

type request struct {
	id   uint64
	data []byte
}

type reply struct {
	id  uint64
	crc uint32
}

// Channel computes checksums on background workers. Any number of
// Compute calls may be in flight; each is matched to its reply by a
// correlation id, and replies come back in no particular order.
type Channel struct {
	workers int
	compute func([]byte) uint32
	log     *logrus.Entry

	requests chan request
	replies  chan reply
	done     chan struct{}
	group    *errgroup.Group

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]chan uint32
	closed  bool
}

// Option configures a Channel
type Option func(*Channel)

// WithWorkers sets the number of worker goroutines (default: GOMAXPROCS)
func WithWorkers(n int) Option {
	return func(c *Channel) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithLogger sets the logger used for diagnostics
func WithLogger(log *logrus.Entry) Option {
	return func(c *Channel) {
		c.log = log
	}
}

func withCompute(f func([]byte) uint32) Option {
	return func(c *Channel) {
		c.compute = f
	}
}

// NewChannel starts the workers. Close releases them.
func NewChannel(opts ...Option) *Channel {
	c := &Channel{
		workers: runtime.GOMAXPROCS(0),
		compute: Checksum,
		log:     logrus.WithField("component", "checksum"),
		pending: make(map[uint64]chan uint32),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.requests = make(chan request)
	c.replies = make(chan reply, c.workers)

	c.group = new(errgroup.Group)
	for i := 0; i < c.workers; i++ {
		c.group.Go(c.work)
	}
	c.group.Go(c.dispatch)
	return c
}

func (c *Channel) work() error {
	for {
		select {
		case req := <-c.requests:
			r := reply{id: req.id, crc: c.compute(req.data)}
			select {
			case c.replies <- r:
			case <-c.done:
				return nil
			}
		case <-c.done:
			return nil
		}
	}
}

func (c *Channel) dispatch() error {
	for {
		select {
		case r := <-c.replies:
			c.resolve(r.id, r.crc)
		case <-c.done:
			return nil
		}
	}
}

// resolve hands crc to the caller waiting on id. The entry leaves the
// pending table before delivery so an id resolves at most once; unknown
// ids are dropped.
func (c *Channel) resolve(id uint64, crc uint32) {
	c.mu.Lock()
	result, ok := c.pending[id]
	delete(c.pending, id)
	c.mu.Unlock()

	if !ok {
		c.log.Debugf("dropping reply for unknown request %d", id)
		return
	}
	result <- crc
}

func (c *Channel) forget(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// Compute returns the CRC-32 of data. data must not be modified until
// Compute returns.
func (c *Channel) Compute(ctx context.Context, data []byte) (uint32, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0, ErrClosed
	}
	c.nextID++
	id := c.nextID
	result := make(chan uint32, 1)
	c.pending[id] = result
	c.mu.Unlock()

	c.log.Debugf("request %d: %d bytes", id, len(data))

	select {
	case c.requests <- request{id: id, data: data}:
	case <-ctx.Done():
		c.forget(id)
		return 0, ctx.Err()
	case <-c.done:
		c.forget(id)
		return 0, ErrClosed
	}

	select {
	case crc := <-result:
		return crc, nil
	case <-ctx.Done():
		c.forget(id)
		return 0, ctx.Err()
	case <-c.done:
		c.forget(id)
		return 0, ErrClosed
	}
}

// Pending returns the number of requests awaiting a reply
func (c *Channel) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Close stops the workers and fails outstanding requests with ErrClosed.
// It is safe to call more than once.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()
	return c.group.Wait()
}
