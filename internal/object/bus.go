package object

import "sync"

// Event names fired by objects and surfaces.
const (
	EventLoad    = "load"
	EventError   = "error"
	EventChanged = "changed"

	EventImageLoad     = "image:load"
	EventImageError    = "image:error"
	EventObjectChanged = "object:changed"
	EventObjectAdded   = "object:added"
	EventObjectRemoved = "object:removed"
	EventSelection     = "selection:updated"
)

// Event is the payload delivered to listeners.
type Event struct {
	Name   string
	Target Object
	Key    string
	Err    error
}

// Listener receives events from a Bus.
type Listener func(Event)

// Surface is anything an object can report to, typically the canvas that owns it.
type Surface interface {
	Fire(name string, ev Event)
}

// Bus is an observer list keyed by event name. The zero value is ready to use.
type Bus struct {
	mu        sync.Mutex
	nextID    int
	listeners map[string][]subscription
}

type subscription struct {
	id int
	fn Listener
}

// On registers fn for name and returns a function that removes it.
func (b *Bus) On(name string, fn Listener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listeners == nil {
		b.listeners = make(map[string][]subscription)
	}
	b.nextID++
	id := b.nextID
	b.listeners[name] = append(b.listeners[name], subscription{id: id, fn: fn})
	return func() { b.off(name, id) }
}

func (b *Bus) off(name string, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.listeners[name]
	for i, s := range subs {
		if s.id == id {
			b.listeners[name] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Fire delivers ev to every listener of name in registration order. Listeners
// run without the bus lock held, so they may register or fire further events.
func (b *Bus) Fire(name string, ev Event) {
	b.mu.Lock()
	subs := append([]subscription(nil), b.listeners[name]...)
	b.mu.Unlock()
	ev.Name = name
	for _, s := range subs {
		s.fn(ev)
	}
}
