package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch chan []byte) []byte {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestHub_BroadcastToListSubscribers(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	watcher := &Client{Send: make(chan []byte, 1), ListID: "l1"}
	bystander := &Client{Send: make(chan []byte, 1), ListID: "l2"}
	hub.Register <- watcher
	hub.Register <- bystander

	hub.BroadcastTo("l1", []byte("hello"))

	assert.Equal(t, []byte("hello"), receive(t, watcher.Send))
	select {
	case msg := <-bystander.Send:
		t.Fatalf("bystander received %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_BroadcastAll(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	a := &Client{Send: make(chan []byte, 1)}
	b := &Client{Send: make(chan []byte, 1), ListID: "l1"}
	hub.Register <- a
	hub.Register <- b

	hub.BroadcastAll([]byte("stats"))

	assert.Equal(t, []byte("stats"), receive(t, a.Send))
	assert.Equal(t, []byte("stats"), receive(t, b.Send))
}

func TestHub_SubscribeMidConnection(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := &Client{Send: make(chan []byte, 1)}
	hub.Register <- client
	hub.Subscribe(client, "l1")

	hub.BroadcastTo("l1", []byte("update"))
	assert.Equal(t, []byte("update"), receive(t, client.Send))
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := &Client{Send: make(chan []byte, 1), ListID: "l1"}
	hub.Register <- client
	hub.Unregister <- client

	_, open := <-client.Send
	require.False(t, open, "send channel is closed on unregister")

	// Messages to the departed client's list go nowhere without panicking.
	hub.BroadcastTo("l1", []byte("late"))
}
