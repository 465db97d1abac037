package worker_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/arena/internal/adapters/mq/queue"
	worker "github.com/okian/arena/internal/adapters/mq/worker"
	model "github.com/okian/arena/internal/domain/model"
	logging "github.com/okian/arena/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logging.Init(logging.WithWriter(io.Discard))
}

type recorder struct {
	mu     sync.Mutex
	events []model.GameEvent
	fail   bool
}

func (r *recorder) Handle(_ context.Context, e model.GameEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	if r.fail {
		return errors.New("handler failed")
	}
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker with two handlers", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		first, second := &recorder{fail: true}, &recorder{}
		w := worker.NewInMemoryWorker(q, []worker.Handler{first, second}, worker.WithName("events"))
		go w.Run(ctx)

		convey.Convey("When events are published", func() {
			for _, typ := range []model.EventType{model.EventGameStart, model.EventAction, model.EventGameEnd} {
				q.Enqueue(ctx, model.GameEvent{GameID: "g1", Type: typ})
			}

			convey.Convey("Then every handler sees them in order even if one fails", func() {
				convey.So(waitFor(func() bool { return second.count() == 3 }), convey.ShouldBeTrue)
				convey.So(first.count(), convey.ShouldEqual, 3)
				second.mu.Lock()
				convey.So(second.events[0].Type, convey.ShouldEqual, model.EventGameStart)
				convey.So(second.events[2].Type, convey.ShouldEqual, model.EventGameEnd)
				second.mu.Unlock()
			})
		})

		convey.Convey("When shut down", func() {
			err := w.Shutdown(context.Background())

			convey.So(err, convey.ShouldBeNil)
			convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
			select {
			case <-w.Done():
			default:
				convey.So("worker still running", convey.ShouldBeEmpty)
			}
		})

		convey.Convey("When the queue is closed", func() {
			_ = q.Close()

			convey.So(waitFor(func() bool {
				select {
				case <-w.Done():
					return true
				default:
					return false
				}
			}), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a worker that never started", t, func() {
		q := queue.NewInMemoryQueue()
		w := worker.NewInMemoryWorker(q, []worker.Handler{
			worker.HandlerFunc(func(context.Context, model.GameEvent) error { return nil }),
		})

		convey.Convey("Then shutdown honours the deadline", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()
			convey.So(w.Shutdown(ctx), convey.ShouldNotBeNil)
		})
	})
}
