// Package worker consumes game events off the queue and hands them to handlers.
//
// A single worker delivers events in publish order, which observers such as
// the active games tracker rely on.
package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/arena/internal/adapters/mq/queue"
	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/pkg/logger"
	"github.com/okian/arena/pkg/metrics"
)

// Event abstracts what workers read off the queue.
type Event = model.GameEvent

// Handler reacts to one event. Errors are logged and do not stop the worker.
type Handler interface {
	Handle(ctx context.Context, e Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, e Event) error

func (f HandlerFunc) Handle(ctx context.Context, e Event) error { return f(ctx, e) }

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Worker processes events until its context ends or the queue closes.
type Worker interface {
	Run(ctx context.Context)

	// Shutdown stops the worker and waits for it, bounded by ctx.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	handlers []Handler
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker delivering every event to each handler in
// order.
func NewInMemoryWorker(q Queue, handlers []Handler, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		handlers: handlers,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run drains the queue. It returns when ctx is done, Shutdown is called or the
// queue is closed and empty.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := w.processEvent(ctx, event); err != nil {
				w.logger.Error(ctx, "error processing event",
					logger.String("game_id", event.GameID),
					logger.String("type", string(event.Type)),
					logger.Error(err))
			}
		}
	}
}

// Shutdown signals the worker to stop and waits for Run to return.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) processEvent(ctx context.Context, event Event) error { //nolint:gocritic // hugeParam: events travel by value
	metrics.RecordEventConsumed()
	var errs []error
	for _, h := range w.handlers {
		if err := h.Handle(ctx, event); err != nil {
			metrics.RecordErrorByComponent("worker", "handler_error")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ Queue = (*queue.InMemoryQueue)(nil)
