// Package triggers delivers host-observed activity (a kill, an arrival, a
// crafted item) to the objectives currently listening for it.
package triggers

import (
	"context"
	"sync"
)

// Handler receives one trigger for one actor.
type Handler func(ctx context.Context, actor string)

type subscription struct {
	id uint64
	fn Handler
}

// Bus is safe for concurrent use. Handlers run on the firing goroutine.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]subscription
	nextID uint64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: map[string][]subscription{}}
}

// Subscribe registers fn for kind and returns a function that removes it.
// The returned function may be called more than once.
func (b *Bus) Subscribe(kind string, fn Handler) (cancel func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[kind] = append(b.subs[kind], subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(kind, id) })
	}
}

func (b *Bus) unsubscribe(kind string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[kind]
	for i, s := range subs {
		if s.id == id {
			b.subs[kind] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[kind]) == 0 {
		delete(b.subs, kind)
	}
}

// Fire delivers a trigger to every handler subscribed to kind and returns
// how many received it.
func (b *Bus) Fire(ctx context.Context, kind, actor string) int {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs[kind]))
	copy(subs, b.subs[kind])
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn(ctx, actor)
	}
	return len(subs)
}

// Listeners returns the number of handlers subscribed to kind.
func (b *Bus) Listeners(kind string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[kind])
}
