// Package eventbus provides an in-process topic-based publish/subscribe
// registry. Delivery is synchronous, best-effort, and at-most-once: events
// published while no subscriber is registered are dropped.
package eventbus

import (
	"log/slog"
	"sync"
	"time"
)

// TopicWildcard receives every published event regardless of topic.
const TopicWildcard = "*"

// Event is the contract all published events satisfy.
type Event interface {
	EventName() string
	EventID() string
	OccurredAt() time.Time
}

// Handler consumes a single event. Handlers run on the publisher's
// goroutine and must not block.
type Handler func(topic string, event Event)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus maps topics to ordered subscriber lists.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	topics map[string][]subscription
	logger *slog.Logger
}

type Option func(*Bus)

// WithLogger injects the logger used to report recovered handler panics.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

func New(opts ...Option) *Bus {
	b := &Bus{topics: map[string][]subscription{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers handler under topic and returns a disposer that
// removes exactly this registration. The disposer is safe to call more
// than once.
func (b *Bus) Subscribe(topic string, handler Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.topics[topic] = append(b.topics[topic], subscription{id: id, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			subs := b.topics[topic]
			for i, sub := range subs {
				if sub.id == id {
					b.topics[topic] = append(subs[:i:i], subs[i+1:]...)
					break
				}
			}
			if len(b.topics[topic]) == 0 {
				delete(b.topics, topic)
			}
		})
	}
}

// Publish delivers event synchronously, in registration order, to every
// handler subscribed to topic and then to every wildcard handler. A
// panicking handler is recovered so it cannot prevent delivery to the
// handlers after it.
func (b *Bus) Publish(topic string, event Event) {
	b.mu.RLock()
	subs := make([]subscription, 0, len(b.topics[topic])+len(b.topics[TopicWildcard]))
	subs = append(subs, b.topics[topic]...)
	if topic != TopicWildcard {
		subs = append(subs, b.topics[TopicWildcard]...)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		b.deliver(topic, sub, event)
	}
}

// SubscriberCount reports how many handlers are registered under topic.
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

func (b *Bus) deliver(topic string, sub subscription, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				slog.String("topic", topic),
				slog.String("event", event.EventName()),
				slog.Any("panic", r),
			)
		}
	}()
	sub.handler(topic, event)
}
