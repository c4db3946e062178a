package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
	"github.com/gdugdh24/mpit2026-matching/internal/infrastructure/metrics"
)

type Sink interface {
	EmitMatchEvent(ctx context.Context, event domain.MatchEvent) error
}

type namedSink struct {
	name string
	sink Sink
}

// Fanout hands every event to all registered sinks. A failing sink does not
// keep the event from the others.
type Fanout struct {
	sinks []namedSink
}

func NewFanout() *Fanout {
	return &Fanout{}
}

func (f *Fanout) Add(name string, sink Sink) {
	f.sinks = append(f.sinks, namedSink{name: name, sink: sink})
}

func (f *Fanout) EmitMatchEvent(ctx context.Context, event domain.MatchEvent) error {
	var errs []error
	for _, s := range f.sinks {
		err := s.sink.EmitMatchEvent(ctx, event)
		metrics.RecordNotification(s.name, err)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}

var (
	ErrQueueFull  = errors.New("notification queue is full")
	ErrSinkClosed = errors.New("notification sink is closed")
)

// asyncEventTimeout bounds a single delivery by the worker.
const asyncEventTimeout = 30 * time.Second

// Async decouples a slow sink from the swipe path with a bounded queue and a
// single worker. The worker runs until Close, independent of any request or
// process context, so queued events are delivered before shutdown completes.
type Async struct {
	name   string
	sink   Sink
	queue  chan domain.MatchEvent
	logger *zap.Logger
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewAsync(name string, sink Sink, buffer int, logger *zap.Logger) *Async {
	return &Async{
		name:   name,
		sink:   sink,
		queue:  make(chan domain.MatchEvent, buffer),
		logger: logger,
	}
}

// Start runs the worker until Close is called and the queue is drained.
func (a *Async) Start() {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for event := range a.queue {
			a.deliver(event)
		}
	}()
}

func (a *Async) deliver(event domain.MatchEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), asyncEventTimeout)
	defer cancel()

	if err := a.sink.EmitMatchEvent(ctx, event); err != nil {
		a.logger.Error("async sink failed",
			zap.String("sink", a.name),
			zap.Int64("match_id", event.MatchID),
			zap.Error(err),
		)
	}
}

func (a *Async) EmitMatchEvent(ctx context.Context, event domain.MatchEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrSinkClosed
	}
	select {
	case a.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting events and waits for the worker to drain the queue.
func (a *Async) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	a.wg.Wait()
}
