// Package bus provides the in-process event bridge between the backend
// client and the chat engine. Events on one named channel reach every
// subscriber in emission order; nothing is guaranteed across channels.
package bus

import "sync"

// defaultQueue is the per-subscriber buffer before Publish blocks.
const defaultQueue = 256

// Handler consumes one event payload.
type Handler func(payload any)

// UnsubscribeFunc detaches a subscriber; safe to call more than once.
type UnsubscribeFunc func()

type subscriber struct {
	events  chan any
	done    chan struct{}
	closeMu sync.Once
}

func (s *subscriber) close() {
	s.closeMu.Do(func() { close(s.done) })
}

// Bus is a named-channel pub/sub dispatcher. Each subscriber owns a
// goroutine draining a FIFO queue, so per-channel per-subscriber order
// matches emission order while publishers never run handlers inline.
type Bus struct {
	mu     sync.Mutex
	subs   map[string][]*subscriber
	closed bool
	wg     sync.WaitGroup
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[string][]*subscriber)}
}

// Subscribe registers a handler for one named channel and returns an
// unsubscribe func. Handlers for the same subscription run serially.
func (b *Bus) Subscribe(channel string, h Handler) UnsubscribeFunc {
	sub := &subscriber{
		events: make(chan any, defaultQueue),
		done:   make(chan struct{}),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return func() {}
	}
	b.subs[channel] = append(b.subs[channel], sub)
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case ev := <-sub.events:
				h(ev)
			case <-sub.done:
				// Drain what was queued before detaching.
				for {
					select {
					case ev := <-sub.events:
						h(ev)
					default:
						return
					}
				}
			}
		}
	}()

	return func() {
		b.mu.Lock()
		list := b.subs[channel]
		for i, s := range list {
			if s == sub {
				b.subs[channel] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
		b.mu.Unlock()
		sub.close()
	}
}

// Publish delivers a payload to every current subscriber of the
// channel. Delivery is asynchronous; Publish only blocks when a
// subscriber's queue is full.
func (b *Bus) Publish(channel string, payload any) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	subs := make([]*subscriber, len(b.subs[channel]))
	copy(subs, b.subs[channel])
	b.mu.Unlock()

	for _, s := range subs {
		select {
		case s.events <- payload:
		case <-s.done:
		}
	}
}

// Close detaches all subscribers and waits for in-flight handlers.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	var all []*subscriber
	for _, list := range b.subs {
		all = append(all, list...)
	}
	b.subs = make(map[string][]*subscriber)
	b.mu.Unlock()

	for _, s := range all {
		s.close()
	}
	b.wg.Wait()
}
