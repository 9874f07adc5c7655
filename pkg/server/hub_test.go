package server

import (
	"testing"
	"time"
)

func TestHub_BroadcastDeliversToSubscribedClient(t *testing.T) {
	h := NewHub()
	go h.Run()

	c := &client{send: make(chan Event, 1), subscribe: map[uint64]bool{7: true}}
	h.register <- c
	time.Sleep(10 * time.Millisecond)

	h.Broadcast(Event{Type: "handle.status", HandleID: 7, Status: "completed"})

	select {
	case e := <-c.send:
		if e.HandleID != 7 || e.Status != "completed" {
			t.Fatalf("unexpected event: %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("subscribed client never received the event")
	}
}

func TestHub_BroadcastSkipsUninterestedClient(t *testing.T) {
	h := NewHub()
	go h.Run()

	c := &client{send: make(chan Event, 1), subscribe: map[uint64]bool{1: true}}
	h.register <- c
	time.Sleep(10 * time.Millisecond)

	h.Broadcast(Event{Type: "handle.status", HandleID: 2, Status: "running"})

	select {
	case e := <-c.send:
		t.Fatalf("unexpected event delivered to uninterested client: %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_SubscribeAllReceivesEverything(t *testing.T) {
	h := NewHub()
	go h.Run()

	c := &client{send: make(chan Event, 1), subscribe: map[uint64]bool{}, subscribeAll: true}
	h.register <- c
	time.Sleep(10 * time.Millisecond)

	h.Broadcast(Event{Type: "handle.status", HandleID: 99, Status: "queued"})

	select {
	case e := <-c.send:
		if e.HandleID != 99 {
			t.Fatalf("unexpected event: %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("subscribeAll client never received the event")
	}
}

func TestHub_UnregisterClosesSendChannel(t *testing.T) {
	h := NewHub()
	go h.Run()

	c := &client{send: make(chan Event, 1), subscribe: map[uint64]bool{}, subscribeAll: true}
	h.register <- c
	time.Sleep(10 * time.Millisecond)

	h.unregister <- c
	time.Sleep(10 * time.Millisecond)

	_, open := <-c.send
	if open {
		t.Fatal("expected send channel to be closed after unregister")
	}
}
