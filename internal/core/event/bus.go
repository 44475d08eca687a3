package event

import (
	"reflect"
	"sync"
)

// Bus is a double-buffered event bus. Events emitted in tick N are readable
// in tick N+1: SwapBuffers is called at tick start by the dispatch system,
// then DispatchAll delivers the previous tick's events.
type Bus struct {
	mu       sync.Mutex // only protects handler registration
	front    map[reflect.Type][]any
	back     map[reflect.Type][]any
	handlers map[reflect.Type][]func(any)
	order    []reflect.Type // dispatch order = first emit/subscribe order
	known    map[reflect.Type]bool
}

func NewBus() *Bus {
	return &Bus{
		front:    make(map[reflect.Type][]any),
		back:     make(map[reflect.Type][]any),
		handlers: make(map[reflect.Type][]func(any)),
		known:    make(map[reflect.Type]bool),
	}
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (b *Bus) track(t reflect.Type) {
	if !b.known[t] {
		b.known[t] = true
		b.order = append(b.order, t)
	}
}

// Emit queues an event into the back buffer (readable next tick).
func Emit[T any](b *Bus, ev T) {
	t := typeOf[T]()
	b.track(t)
	b.back[t] = append(b.back[t], ev)
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := typeOf[T]()
	b.track(t)
	b.handlers[t] = append(b.handlers[t], func(ev any) { fn(ev.(T)) })
}

// SwapBuffers rotates back→front and clears the new back buffer.
func (b *Bus) SwapBuffers() {
	b.front, b.back = b.back, b.front
	for k := range b.back {
		b.back[k] = b.back[k][:0]
	}
}

// DispatchAll delivers all front-buffer events to their handlers. Event
// types are visited in the order they were first seen; events of one type
// in emit order.
func (b *Bus) DispatchAll() int {
	n := 0
	for _, t := range b.order {
		handlers := b.handlers[t]
		for _, ev := range b.front[t] {
			for _, h := range handlers {
				h(ev)
			}
			n++
		}
	}
	return n
}

// Pending returns how many events wait in the back buffer.
func (b *Bus) Pending() int {
	n := 0
	for _, evs := range b.back {
		n += len(evs)
	}
	return n
}
