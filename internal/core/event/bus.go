package event

import (
	"reflect"
	"sync"
)

// Bus queues typed events during a tick and delivers them, in emission
// order across all types, when DispatchAll runs later in the same tick.
type Bus struct {
	mu       sync.Mutex // only protects handler registration
	queue    []queued
	handlers map[reflect.Type][]any
}

type queued struct {
	t  reflect.Type
	ev any
}

func NewBus() *Bus {
	return &Bus{
		queue:    make([]queued, 0, 64),
		handlers: make(map[reflect.Type][]any),
	}
}

// Emit queues an event for the next DispatchAll.
func Emit[T any](b *Bus, event T) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.queue = append(b.queue, queued{t: t, ev: event})
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], fn)
}

// Pending returns the number of queued events.
func (b *Bus) Pending() int {
	return len(b.queue)
}

// DispatchAll delivers queued events to their handlers. Events emitted by a
// handler are delivered in the same call, after everything queued before them.
func (b *Bus) DispatchAll() {
	for i := 0; i < len(b.queue); i++ {
		q := b.queue[i]
		for _, h := range b.handlers[q.t] {
			callHandler(h, q.ev)
		}
	}
	clear(b.queue)
	b.queue = b.queue[:0]
}

func callHandler(handler any, event any) {
	reflect.ValueOf(handler).Call([]reflect.Value{reflect.ValueOf(event)})
}
