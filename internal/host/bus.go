package host

import "sync"

// Bus is an in-memory EventBus. Handlers run synchronously on the
// publisher's goroutine; delivery order between subscribers is unspecified.
type Bus struct {
	mu       sync.Mutex
	nextID   int
	handlers map[string]map[int]func(map[string]any)
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[string]map[int]func(map[string]any))}
}

var _ EventBus = (*Bus)(nil)

func (b *Bus) Subscribe(topic string, handler func(data map[string]any)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers[topic] == nil {
		b.handlers[topic] = make(map[int]func(map[string]any))
	}
	id := b.nextID
	b.nextID++
	b.handlers[topic][id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[topic], id)
	}
}

func (b *Bus) Publish(topic string, data map[string]any) {
	b.mu.Lock()
	subs := make([]func(map[string]any), 0, len(b.handlers[topic]))
	for _, h := range b.handlers[topic] {
		subs = append(subs, h)
	}
	b.mu.Unlock()

	// Handlers run without the bus lock so they may subscribe/publish.
	for _, h := range subs {
		h(data)
	}
}
