package broadcast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	b := New[string]()
	sub1 := b.Subscribe()
	sub2 := b.Subscribe()

	b.Publish("hello")

	require.Equal(t, "hello", <-sub1.C())
	require.Equal(t, "hello", <-sub2.C())
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New[int]()
	sub := b.Subscribe()
	sub.Unsubscribe()

	b.Publish(1)

	_, ok := <-sub.C()
	require.False(t, ok)
}

func TestPublishDropsOldestWhenSubscriberLags(t *testing.T) {
	b := New[int]()
	sub := b.Subscribe()

	for i := 0; i < Capacity+10; i++ {
		b.Publish(i)
	}

	// The oldest values (0..9) should have been evicted; the channel
	// holds the most recent Capacity values.
	first := <-sub.C()
	require.Equal(t, 10, first)
}

func TestSubscriberCountTracksSubscribeUnsubscribe(t *testing.T) {
	b := New[int]()
	require.Equal(t, 0, b.SubscriberCount())

	sub := b.Subscribe()
	require.Equal(t, 1, b.SubscriberCount())

	sub.Unsubscribe()
	require.Equal(t, 0, b.SubscriberCount())
}

func TestPublishDoesNotBlockWithNoSubscribers(t *testing.T) {
	b := New[int]()
	done := make(chan struct{})
	go func() {
		b.Publish(1)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked with no subscribers")
	}
}
