package permission

import "sync"

// Changed is the single event variant carried by the Bus: the new
// effective permission Set of the currently logged-in user.
type Changed struct {
	Permissions Set
}

type subscription struct {
	id int
	fn func(Changed)
}

// Bus is an in-process, single-variant publish/subscribe channel.
// Publish is synchronous: all subscribers have observed the event by the
// time it returns, in subscription order.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   []subscription
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn and returns its cancel function. Cancelling is
// idempotent.
func (b *Bus) Subscribe(fn func(Changed)) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, sub := range b.subs {
			if sub.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

func (b *Bus) Publish(ev Changed) {
	b.mu.Lock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.fn(ev)
	}
}
