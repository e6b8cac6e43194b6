package events

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	applog "shopdesk/internal/log"
	"shopdesk/internal/metrics"
	"shopdesk/internal/receipt"
)

var (
	ErrQueueFull = errors.New("events: publish queue full")
	ErrClosed    = errors.New("events: publisher closed")
)

type Publisher interface {
	PublishSaleCommitted(ctx context.Context, r receipt.Receipt) error
}

// Async queues sales and publishes them from a background goroutine, so a
// commit never waits on the broker. Sales that do not fit the queue are
// dropped and counted.
type Async struct {
	next   Publisher
	queue  chan receipt.Receipt
	done   chan struct{}
	mu     sync.RWMutex
	closed bool
}

func NewAsync(next Publisher, buffer int) *Async {
	a := &Async{next: next, queue: make(chan receipt.Receipt, buffer), done: make(chan struct{})}
	go a.run()
	return a
}

// PublishSaleCommitted only enqueues; ctx is not carried to the broker write
// since the request may be finished by then.
func (a *Async) PublishSaleCommitted(_ context.Context, r receipt.Receipt) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}
	select {
	case a.queue <- r:
		return nil
	default:
		metrics.EventsPublished.WithLabelValues("dropped").Inc()
		return ErrQueueFull
	}
}

func (a *Async) run() {
	defer close(a.done)
	for r := range a.queue {
		if err := a.next.PublishSaleCommitted(context.Background(), r); err != nil {
			applog.L().Warn("sale event not published", zap.String("order_id", r.Order.ID), zap.Error(err))
		}
	}
}

// Close stops accepting sales and waits until the queued ones are sent.
func (a *Async) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	<-a.done
}
