// Package stats forwards finished-game outcomes to the account store off
// the lobby goroutines.
package stats

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Store interface {
	RecordOutcome(ctx context.Context, accountID string, won bool) error
}

type record struct {
	accountID string
	won       bool
}

// Dispatcher queues outcomes for a single worker. Record never blocks: when
// the queue is full the outcome is dropped and logged.
type Dispatcher struct {
	store   Store
	timeout time.Duration
	log     *zap.Logger

	queue chan record
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(store Store, queueSize int, timeout time.Duration, log *zap.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	d := &Dispatcher{
		store:   store,
		timeout: timeout,
		log:     log.Named("stats"),
		queue:   make(chan record, queueSize),
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) Record(accountID string, won bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	select {
	case d.queue <- record{accountID: accountID, won: won}:
	default:
		d.log.Warn("outcome queue full, dropping", zap.String("account", accountID), zap.Bool("won", won))
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for rec := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := d.store.RecordOutcome(ctx, rec.accountID, rec.won)
		cancel()
		if err != nil {
			d.log.Warn("record outcome failed", zap.String("account", rec.accountID), zap.Error(err))
		}
	}
}

// Close stops accepting outcomes and waits until the queue has drained or
// ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
