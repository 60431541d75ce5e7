// file: internal/realtime/events_test.go
// version: 2.0.0
// guid: cf0ab087-df7a-4ef9-b173-c8740a6263ae

package realtime

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSubscriptions(t *testing.T) {
	client := NewClient("c1")
	assert.True(t, client.Wants("books"), "no filter means every collection")

	client.Subscribe("users")
	assert.False(t, client.Wants("books"))
	assert.True(t, client.Wants("users"))
	assert.True(t, client.Wants(""), "system events always pass")

	client.Unsubscribe("users")
	assert.True(t, client.Wants("books"))
}

func TestEventHubChanged(t *testing.T) {
	hub := NewEventHub(zerolog.Nop())
	all := NewClient("all")
	usersOnly := NewClient("users-only")
	usersOnly.Subscribe("users")

	hub.RegisterClient(all)
	hub.RegisterClient(usersOnly)
	assert.Equal(t, 2, hub.GetClientCount())

	hub.Changed("books", "create", "b009")

	select {
	case ev := <-all.Channel:
		assert.Equal(t, EventCatalogChanged, ev.Type)
		assert.Equal(t, "books", ev.Collection)
		assert.Equal(t, "create", ev.Data["action"])
		assert.Equal(t, "b009", ev.Data["id"])
	case <-time.After(time.Second):
		t.Fatal("expected event for unfiltered client")
	}

	select {
	case ev := <-usersOnly.Channel:
		t.Fatalf("filtered client received %v", ev)
	default:
	}

	hub.UnregisterClient("all")
	hub.UnregisterClient("users-only")
	assert.Equal(t, 0, hub.GetClientCount())
}

func TestBroadcastDropsWhenFull(t *testing.T) {
	hub := NewEventHub(zerolog.Nop())
	client := NewClient("slow")
	hub.RegisterClient(client)
	defer hub.UnregisterClient("slow")

	for i := 0; i < cap(client.Channel)+5; i++ {
		hub.SessionChanged("login", "u001")
	}
	require.Len(t, client.Channel, cap(client.Channel))
}
