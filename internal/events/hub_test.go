package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/givecycle/marketplace/internal/model"
)

func TestHub_PublishReachesAllSubscribers(t *testing.T) {
	hub := NewHub(4)
	defer hub.Close()

	a := hub.Subscribe()
	b := hub.Subscribe()
	defer a.Close()
	defer b.Close()

	event := model.Event{ID: "evt-1", Type: model.EventDonationApproved, DonationID: 3}
	hub.Publish(event)

	for _, sub := range []*Subscription{a, b} {
		select {
		case got := <-sub.Events:
			assert.Equal(t, event.ID, got.ID)
			assert.Equal(t, model.EventDonationApproved, got.Type)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestHub_SlowSubscriberDoesNotBlockPublish(t *testing.T) {
	hub := NewHub(1)
	defer hub.Close()

	slow := hub.Subscribe()
	defer slow.Close()

	done := make(chan struct{})
	go func() {
		// second publish overflows the buffer and must be dropped, not block
		hub.Publish(model.Event{ID: "evt-1"})
		hub.Publish(model.Event{ID: "evt-2"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	got := <-slow.Events
	assert.Equal(t, "evt-1", got.ID)
}

func TestHub_CloseUnsubscribes(t *testing.T) {
	hub := NewHub(4)

	sub := hub.Subscribe()
	require.Equal(t, 1, hub.SubscriberCount())

	sub.Close()
	assert.Equal(t, 0, hub.SubscriberCount())

	// channel is closed, receive does not hang
	_, open := <-sub.Events
	assert.False(t, open)

	hub.Close()
	late := hub.Subscribe()
	_, open = <-late.Events
	assert.False(t, open)
}
