package events

import (
	"sync"

	"github.com/rs/zerolog"
)

const defaultChannelCapacity = 64

// Handler receives events synchronously on the emitting goroutine.
type Handler func(Event)

// Bus fans events out to handlers and buffered channel subscribers. Handlers
// run in subscription order; channel subscribers that fall behind lose events.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]Handler
	order    []int
	channels map[*subscriber]struct{}
	capacity int
	logger   zerolog.Logger
}

var _ Emitter = (*Bus)(nil)

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithLogger reports dropped deliveries.
func WithLogger(logger zerolog.Logger) BusOption {
	return func(b *Bus) {
		b.logger = logger
	}
}

// WithChannelCapacity sets the buffer size for channel subscribers.
func WithChannelCapacity(capacity int) BusOption {
	return func(b *Bus) {
		if capacity > 0 {
			b.capacity = capacity
		}
	}
}

// NewBus constructs an empty bus.
func NewBus(options ...BusOption) *Bus {
	b := &Bus{
		handlers: make(map[int]Handler),
		channels: make(map[*subscriber]struct{}),
		capacity: defaultChannelCapacity,
		logger:   zerolog.Nop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn Handler) func() {
	if fn == nil {
		return func() {}
	}
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = fn
	b.order = append(b.order, id)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.handlers, id)
			for i, existing := range b.order {
				if existing == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Subscription is a channel subscriber.
type Subscription struct {
	Events <-chan Event
	cancel func()
}

// Close detaches the subscriber and closes its channel.
func (s Subscription) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

type subscriber struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

func (s *subscriber) deliver(e Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}
	select {
	case s.ch <- e:
		return true
	default:
		return false
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// Channel returns a buffered subscription.
func (b *Bus) Channel() Subscription {
	sub := &subscriber{ch: make(chan Event, b.capacity)}
	b.mu.Lock()
	b.channels[sub] = struct{}{}
	b.mu.Unlock()
	return Subscription{
		Events: sub.ch,
		cancel: func() {
			b.mu.Lock()
			delete(b.channels, sub)
			b.mu.Unlock()
			sub.close()
		},
	}
}

// Emit delivers e to every handler, then to every channel subscriber.
func (b *Bus) Emit(e Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.order))
	for _, id := range b.order {
		handlers = append(handlers, b.handlers[id])
	}
	subs := make([]*subscriber, 0, len(b.channels))
	for sub := range b.channels {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(e)
	}
	for _, sub := range subs {
		if !sub.deliver(e) {
			b.logger.Warn().Str("event", string(e.Name)).Str("id", e.ID).Msg("subscriber full, dropping event")
		}
	}
}
