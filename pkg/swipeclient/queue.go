package swipeclient

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrNoHistory is returned by Back when there is nothing to go back to.
	ErrNoHistory = errors.New("no history")
	// ErrExhausted means the server has no candidates left and the queue is empty.
	ErrExhausted = errors.New("no more candidates")
	// ErrRefillPending means the queue is empty while a refill is in flight.
	ErrRefillPending = errors.New("candidates are loading")
)

const (
	DefaultBatchSize    = 10
	DefaultLowWater     = 3
	DefaultHistoryDepth = 3
)

// Source supplies ranked candidates. *Client satisfies it.
type Source interface {
	FetchBatch(ctx context.Context, count int, exclude []int64) (*Batch, error)
}

// Queue buffers ranked candidates for one viewer. Next never blocks: when the
// buffer runs low it starts a background refill whose results are appended.
// Back walks up to the configured depth of previously shown candidates.
type Queue struct {
	source       Source
	batchSize    int
	lowWater     int
	historyDepth int
	logger       *zap.Logger

	mu        sync.Mutex
	queue     []Candidate
	history   []Candidate
	current   *Candidate
	exhausted bool
	refilling bool
	lastErr   error
	settled   chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type QueueOption func(*Queue)

func WithBatchSize(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.batchSize = n
		}
	}
}

func WithLowWater(n int) QueueOption {
	return func(q *Queue) {
		if n >= 0 {
			q.lowWater = n
		}
	}
}

func WithHistoryDepth(n int) QueueOption {
	return func(q *Queue) {
		if n >= 0 {
			q.historyDepth = n
		}
	}
}

func WithLogger(logger *zap.Logger) QueueOption {
	return func(q *Queue) {
		q.logger = logger
	}
}

func NewQueue(source Source, opts ...QueueOption) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		source:       source,
		batchSize:    DefaultBatchSize,
		lowWater:     DefaultLowWater,
		historyDepth: DefaultHistoryDepth,
		logger:       zap.NewNop(),
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Next advances to the head of the queue and returns it. The previous
// current candidate moves onto the history.
func (q *Queue) Next() (Candidate, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.queue) == 0 {
		if q.exhausted {
			return Candidate{}, ErrExhausted
		}
		err := q.lastErr
		q.startRefillLocked()
		if err != nil {
			return Candidate{}, err
		}
		return Candidate{}, ErrRefillPending
	}

	if q.current != nil {
		q.pushHistoryLocked(*q.current)
	}
	head := q.queue[0]
	q.queue = q.queue[1:]
	q.current = &head

	if len(q.queue) <= q.lowWater && !q.exhausted {
		q.startRefillLocked()
	}
	return head, nil
}

// Back returns to the most recent history entry. The current candidate goes
// back to the front of the queue.
func (q *Queue) Back() (Candidate, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.history) == 0 {
		return Candidate{}, ErrNoHistory
	}

	prev := q.history[len(q.history)-1]
	q.history = q.history[:len(q.history)-1]
	if q.current != nil {
		q.queue = append([]Candidate{*q.current}, q.queue...)
	}
	q.current = &prev
	return prev, nil
}

func (q *Queue) pushHistoryLocked(c Candidate) {
	if q.historyDepth == 0 {
		return
	}
	q.history = append(q.history, c)
	if over := len(q.history) - q.historyDepth; over > 0 {
		q.history = append([]Candidate(nil), q.history[over:]...)
	}
}

// Current returns the candidate on screen, if any.
func (q *Queue) Current() (Candidate, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current == nil {
		return Candidate{}, false
	}
	return *q.current, true
}

// Len is the number of buffered candidates after the current one.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queue)
}

func (q *Queue) HistoryLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.history)
}

// Exhausted reports whether the server said no candidates are left.
func (q *Queue) Exhausted() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.exhausted
}

// Refill starts a refill now, also after the queue was marked exhausted.
func (q *Queue) Refill() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.exhausted = false
	q.startRefillLocked()
}

// Wait blocks until no refill is in flight or ctx ends.
func (q *Queue) Wait(ctx context.Context) error {
	q.mu.Lock()
	if !q.refilling {
		err := q.lastErr
		q.mu.Unlock()
		return err
	}
	settled := q.settled
	q.mu.Unlock()

	select {
	case <-settled:
		q.mu.Lock()
		defer q.mu.Unlock()
		return q.lastErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels an in-flight refill and waits for it to return.
func (q *Queue) Close() {
	q.cancel()
	q.wg.Wait()
}

func (q *Queue) startRefillLocked() {
	if q.refilling || q.ctx.Err() != nil {
		return
	}
	q.refilling = true
	q.lastErr = nil
	q.settled = make(chan struct{})

	exclude := q.heldIDsLocked()
	q.wg.Add(1)
	go q.refill(exclude, q.settled)
}

func (q *Queue) heldIDsLocked() []int64 {
	ids := make([]int64, 0, len(q.queue)+len(q.history)+1)
	if q.current != nil {
		ids = append(ids, q.current.ID())
	}
	for _, c := range q.history {
		ids = append(ids, c.ID())
	}
	for _, c := range q.queue {
		ids = append(ids, c.ID())
	}
	return ids
}

func (q *Queue) refill(exclude []int64, settled chan struct{}) {
	defer q.wg.Done()

	batch, err := q.source.FetchBatch(q.ctx, q.batchSize, exclude)

	q.mu.Lock()
	defer q.mu.Unlock()
	defer close(settled)
	q.refilling = false

	if err != nil {
		q.lastErr = err
		q.logger.Warn("candidate refill failed", zap.Error(err))
		return
	}

	held := make(map[int64]struct{})
	for _, id := range q.heldIDsLocked() {
		held[id] = struct{}{}
	}
	added := 0
	for _, c := range batch.Candidates {
		if _, dup := held[c.ID()]; dup {
			continue
		}
		held[c.ID()] = struct{}{}
		q.queue = append(q.queue, c)
		added++
	}
	q.exhausted = batch.Exhausted

	q.logger.Debug("candidate refill done",
		zap.Int("added", added),
		zap.Int("queued", len(q.queue)),
		zap.Bool("exhausted", batch.Exhausted),
	)
}
