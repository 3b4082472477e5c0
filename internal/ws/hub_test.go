package ws

import (
	"encoding/json"
	"testing"
	"time"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub) *Client {
	return &Client{
		hub:  hub,
		send: make(chan []byte, 256),
	}
}

func TestHubRegistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub)

	// Register client
	hub.register <- client

	// Give hub time to process
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if !hub.clients[client] {
		t.Fatal("client not registered")
	}
}

func TestHubUnregistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub)

	// Register client
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	// Unregister client
	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if hub.clients[client] {
		t.Fatal("client still registered after unregister")
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client1 := mockClient(hub)
	client2 := mockClient(hub)
	client3 := mockClient(hub)

	// Register all clients
	hub.register <- client1
	hub.register <- client2
	hub.register <- client3
	time.Sleep(10 * time.Millisecond)

	// Broadcast event
	testPayload := json.RawMessage(`{"order_id":"test-123","status":"CONFIRMED"}`)
	event := Event{
		Type:    "order.updated",
		Payload: testPayload,
	}
	hub.Broadcast(event)

	// All three clients should receive the message
	clients := []*Client{client1, client2, client3}
	for i, client := range clients {
		select {
		case msg := <-client.send:
			var received Event
			if err := json.Unmarshal(msg, &received); err != nil {
				t.Fatalf("client%d: failed to unmarshal: %v", i+1, err)
			}
			if received.Type != "order.updated" {
				t.Errorf("client%d: expected type 'order.updated', got '%s'", i+1, received.Type)
			}
			if string(received.Payload) != string(testPayload) {
				t.Errorf("client%d: expected payload '%s', got '%s'", i+1, testPayload, received.Payload)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("client%d did not receive message", i+1)
		}
	}
}

func TestBroadcastSkipsUnregisteredClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	stay := mockClient(hub)
	leave := mockClient(hub)

	hub.register <- stay
	hub.register <- leave
	time.Sleep(10 * time.Millisecond)

	hub.unregister <- leave
	time.Sleep(10 * time.Millisecond)

	event := Event{
		Type:    "order.created",
		Payload: json.RawMessage(`{"order_id":"abc"}`),
	}
	hub.Broadcast(event)

	select {
	case <-stay.send:
		// Expected
	case <-time.After(100 * time.Millisecond):
		t.Fatal("remaining client did not receive message")
	}

	// The channel was closed on unregister, so a receive yields
	// immediately with ok=false rather than a queued message.
	select {
	case msg, ok := <-leave.send:
		if ok {
			t.Fatalf("unregistered client received message: %s", msg)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcastWithNoClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// Should not panic or block
	hub.Broadcast(Event{
		Type:    "order.created",
		Payload: json.RawMessage(`{"test":"data"}`),
	})
	time.Sleep(10 * time.Millisecond)
}
