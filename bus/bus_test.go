package bus

import (
	"sync"
	"testing"
	"time"
)

func TestBus_DeliversInOrder(t *testing.T) {
	b := New()
	defer b.Close()

	var mu sync.Mutex
	var got []int
	done := make(chan struct{})

	b.Subscribe("ch", func(payload any) {
		mu.Lock()
		got = append(got, payload.(int))
		n := len(got)
		mu.Unlock()
		if n == 100 {
			close(done)
		}
	})

	for i := 0; i < 100; i++ {
		b.Publish("ch", i)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("events not delivered")
	}

	mu.Lock()
	defer mu.Unlock()
	for i, v := range got {
		if v != i {
			t.Fatalf("out of order at %d: got %d", i, v)
		}
	}
}

func TestBus_MultipleSubscribersEachReceive(t *testing.T) {
	b := New()
	defer b.Close()

	var wg sync.WaitGroup
	wg.Add(3)
	for i := 0; i < 3; i++ {
		b.Subscribe("ch", func(payload any) {
			if payload.(string) == "hello" {
				wg.Done()
			}
		})
	}

	b.Publish("ch", "hello")

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("not all subscribers received the event")
	}
}

func TestBus_ChannelsAreIsolated(t *testing.T) {
	b := New()
	defer b.Close()

	received := make(chan any, 1)
	b.Subscribe("a", func(payload any) { received <- payload })

	b.Publish("b", "wrong channel")

	select {
	case ev := <-received:
		t.Fatalf("subscriber of channel a received event from channel b: %v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	b := New()
	defer b.Close()

	received := make(chan any, 4)
	un := b.Subscribe("ch", func(payload any) { received <- payload })

	b.Publish("ch", 1)
	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("first event not delivered")
	}

	un()
	un() // safe to call twice

	b.Publish("ch", 2)
	select {
	case ev := <-received:
		t.Fatalf("received event after unsubscribe: %v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_CloseStopsDelivery(t *testing.T) {
	b := New()

	received := make(chan any, 4)
	b.Subscribe("ch", func(payload any) { received <- payload })

	b.Close()
	b.Publish("ch", "after close")

	select {
	case ev := <-received:
		t.Fatalf("received event after close: %v", ev)
	case <-time.After(50 * time.Millisecond):
	}

	// Subscribing after close is a no-op, not a panic.
	un := b.Subscribe("ch", func(payload any) {})
	un()
}

func TestBus_SlowSubscriberDoesNotBlockOthers(t *testing.T) {
	b := New()
	defer b.Close()

	release := make(chan struct{})
	b.Subscribe("ch", func(payload any) { <-release })

	fast := make(chan any, 2)
	b.Subscribe("ch", func(payload any) { fast <- payload })

	b.Publish("ch", 1)
	b.Publish("ch", 2)

	for i := 0; i < 2; i++ {
		select {
		case <-fast:
		case <-time.After(2 * time.Second):
			t.Fatal("fast subscriber starved by slow one")
		}
	}
	close(release)
}
