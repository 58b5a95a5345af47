package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPublishDeliversToSubscribedSink(t *testing.T) {
	a := assert.New(t)

	b := New(4)

	var mu sync.Mutex
	var received []Event
	done := make(chan struct{}, 1)

	b.Subscribe(SinkFunc(func(e Event) {
		mu.Lock()
		received = append(received, e)
		mu.Unlock()
		done <- struct{}{}
	}))

	// give the subscribe message time to land before publishing
	time.Sleep(10 * time.Millisecond)

	b.Publish(Event{Kind: KindStarted, RemoteFileID: "f1"})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event delivery")
	}

	mu.Lock()
	defer mu.Unlock()
	a.Len(received, 1)
	a.Equal(KindStarted, received[0].Kind)
	a.Equal("f1", received[0].RemoteFileID)
	a.False(received[0].Timestamp.IsZero())
}

func TestPublishDropsWhenQueueFull(t *testing.T) {
	a := assert.New(t)

	b := New(0).(*bus)
	// No subscribers draining; queue depth 0 means this must not block.
	done := make(chan struct{})
	go func() {
		b.Publish(Event{Kind: KindProgress})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full/zero-depth queue")
	}
}
