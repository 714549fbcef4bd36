package queue

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/sitecore/order-marketplace/internal/core/domain"
	"github.com/sitecore/order-marketplace/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher fans lifecycle events out to handlers on a fixed set of workers,
// sharded by order id so events of one order are handled in order.
type Dispatcher struct {
	workers  []chan domain.OrderEvent
	handlers []ports.EventHandler
	log      zerolog.Logger

	wg      sync.WaitGroup
	dropped atomic.Int64
}

var _ ports.EventPublisher = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, log zerolog.Logger, handlers ...ports.EventHandler) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan domain.OrderEvent, numWorkers),
		handlers: handlers,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.OrderEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled;
// Wait blocks until they have.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has exited.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Publish hands an event to the worker responsible for its order. It never
// blocks: when the worker's buffer is full the event is dropped and counted.
func (d *Dispatcher) Publish(event domain.OrderEvent) {
	select {
	case d.workers[d.shardIndex(event.OrderID)] <- event:
	default:
		d.dropped.Add(1)
		d.log.Warn().Str("order_id", event.OrderID).Str("type", string(event.Type)).Msg("event buffer full, dropping event")
	}
}

// Dropped reports how many events were discarded because a buffer was full.
func (d *Dispatcher) Dropped() int64 {
	return d.dropped.Load()
}

// shardIndex maps an order id deterministically to a worker index.
func (d *Dispatcher) shardIndex(orderID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(orderID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.OrderEvent) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-ch:
			for _, h := range d.handlers {
				if err := h.Handle(ctx, event); err != nil {
					d.log.Error().Err(err).
						Str("order_id", event.OrderID).
						Str("type", string(event.Type)).
						Int("worker_id", id).
						Msg("event handling failed")
				}
			}
		}
	}
}
