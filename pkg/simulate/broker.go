package simulate

import (
	"sync"
	"time"

	"github.com/lwm2m-go/sdm/pkg/log"
	"github.com/lwm2m-go/sdm/pkg/metrics"
	"github.com/lwm2m-go/sdm/pkg/sdm"
)

// Subscriber is a channel that receives emitted notifications.
type Subscriber chan sdm.Notification

// Broker ticks a Registry/ObservationTable pair on an interval and
// fans out every notification it emits to its subscribers, the same
// shape as the teacher's event broker but driven by its own clock
// instead of external Publish calls.
type Broker struct {
	Registry *sdm.Registry
	Table    *sdm.ObservationTable
	Interval time.Duration

	subscribers map[Subscriber]bool
	mu          sync.RWMutex
	stopCh      chan struct{}
}

// NewBroker builds a Broker for reg/table, ticking at interval once
// started.
func NewBroker(reg *sdm.Registry, table *sdm.ObservationTable, interval time.Duration) *Broker {
	return &Broker{
		Registry:    reg,
		Table:       table,
		Interval:    interval,
		subscribers: make(map[Subscriber]bool),
		stopCh:      make(chan struct{}),
	}
}

// Start begins the broker's ticking loop.
func (b *Broker) Start() {
	go b.run()
}

// Stop stops the broker.
func (b *Broker) Stop() {
	close(b.stopCh)
}

// Subscribe creates a new subscription.
func (b *Broker) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, 50)
	b.subscribers[sub] = true
	return sub
}

// Unsubscribe removes a subscription.
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, sub)
	close(sub)
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

func (b *Broker) run() {
	ticker := time.NewTicker(b.Interval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			if err := b.Tick(now); err != nil {
				log.WithComponent("simulate").Error().Err(err).Msg("notification tick failed")
			}
		case <-b.stopCh:
			return
		}
	}
}

// Tick re-evaluates every observed path against now and broadcasts
// every notification the tick makes pending. Exported so callers that
// drive time themselves (such as tests) don't have to wait on the
// ticker.
func (b *Broker) Tick(now time.Time) error {
	if err := sdm.NotificationTick(b.Registry, b.Table, now); err != nil {
		return err
	}
	metrics.ActiveObservationsTotal.Set(float64(len(b.Table.Active())))

	pending := 0
	for _, rec := range b.Table.Active() {
		if rec.Pending {
			pending++
		}
	}
	metrics.NotificationsPendingTotal.Set(float64(pending))

	for {
		n, ok, err := sdm.NotificationEmit(b.Registry, b.Table, now)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		metrics.NotificationsEmittedTotal.Inc()
		b.broadcast(n)
	}
}

func (b *Broker) broadcast(n sdm.Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		select {
		case sub <- n:
		default:
		}
	}
}
