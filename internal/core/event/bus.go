package event

import "reflect"

// Bus is a double-buffered deferred event queue. Post appends to the back
// buffer; Flush swaps buffers and delivers the front one, so events posted
// while a flush is running are held for the next Flush.
//
// Each event type gets its own typed topic. Handlers are called in
// subscription order, events in post order, every posted event exactly once.
// Single-goroutine access only (game loop).
type Bus struct {
	name   string
	topics map[reflect.Type]any
	front  []func()
	back   []func()
}

type topic[T any] struct {
	handlers []func(T)
}

func NewBus(name string) *Bus {
	return &Bus{
		name:   name,
		topics: make(map[reflect.Type]any),
		front:  make([]func(), 0, 32),
		back:   make([]func(), 0, 32),
	}
}

func (b *Bus) Name() string { return b.name }

func topicOf[T any](b *Bus) *topic[T] {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if tp, ok := b.topics[t]; ok {
		return tp.(*topic[T])
	}
	tp := &topic[T]{}
	b.topics[t] = tp
	return tp
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	tp := topicOf[T](b)
	tp.handlers = append(tp.handlers, fn)
}

// Post queues an event for the next Flush.
func Post[T any](b *Bus, ev T) {
	tp := topicOf[T](b)
	b.back = append(b.back, func() {
		for _, h := range tp.handlers {
			h(ev)
		}
	})
}

// Pending returns the number of events waiting for the next Flush.
func (b *Bus) Pending() int {
	return len(b.back)
}

// Flush delivers every event posted before the call and returns how many
// were delivered. Events without subscribers are dropped.
func (b *Bus) Flush() int {
	b.front, b.back = b.back, b.front[:0]
	for i, deliver := range b.front {
		deliver()
		b.front[i] = nil
	}
	n := len(b.front)
	b.front = b.front[:0]
	return n
}
