package service

import (
	"strings"
	"testing"
	"time"
)

// ============================================================================
// Test Helpers
// ============================================================================

func newTestHub(t *testing.T) *StreamHub {
	t.Helper()
	hub := NewStreamHub()
	t.Cleanup(hub.Close)
	return hub
}

func receiveMessage(t *testing.T, sub *StreamSubscriber) *StreamMessage {
	t.Helper()
	select {
	case msg := <-sub.Messages:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for stream message")
		return nil
	}
}

// ============================================================================
// Subscribe / Publish
// ============================================================================

func TestStreamHub_PublishReachesEventSubscribers(t *testing.T) {
	t.Parallel()
	hub := newTestHub(t)

	sub := hub.Subscribe("event:bbq", "client-1")
	other := hub.Subscribe("event:gala", "client-2")

	hub.Publish(&StreamMessage{
		Type:    StreamEventUpdated,
		EventID: "event:bbq",
		Data:    map[string]string{"id": "event:bbq"},
	})

	msg := receiveMessage(t, sub)
	if msg.Type != StreamEventUpdated {
		t.Errorf("expected event.updated, got %s", msg.Type)
	}

	select {
	case unexpected := <-other.Messages:
		t.Errorf("subscriber of another event received %+v", unexpected)
	default:
	}
}

func TestStreamHub_UnsubscribeStopsDelivery(t *testing.T) {
	t.Parallel()
	hub := newTestHub(t)

	hub.Subscribe("event:bbq", "client-1")
	hub.Unsubscribe("event:bbq", "client-1")

	if n := hub.SubscriberCount("event:bbq"); n != 0 {
		t.Errorf("expected 0 subscribers after unsubscribe, got %d", n)
	}

	// Publishing to an event with no subscribers must not panic.
	hub.Publish(&StreamMessage{Type: StreamEventUpdated, EventID: "event:bbq"})
}

func TestStreamHub_SendToUserTargetsOneUser(t *testing.T) {
	t.Parallel()
	hub := newTestHub(t)

	alice := hub.SubscribeUser("user:alice", "client-1")
	bob := hub.SubscribeUser("user:bob", "client-2")

	hub.SendToUser("user:alice", &StreamMessage{
		Type: StreamNotification,
		Data: map[string]string{"message": "Voting closes soon"},
	})

	msg := receiveMessage(t, alice)
	if msg.Type != StreamNotification {
		t.Errorf("expected notification, got %s", msg.Type)
	}

	select {
	case unexpected := <-bob.Messages:
		t.Errorf("bob received alice's notification %+v", unexpected)
	default:
	}
}

// ============================================================================
// Heartbeats
// ============================================================================

func TestStreamHub_HeartbeatCarriesOwnEventID(t *testing.T) {
	t.Parallel()
	hub := newTestHub(t)

	bbq := hub.Subscribe("event:bbq", "client-1")
	gala := hub.Subscribe("event:gala", "client-2")

	hub.broadcastHeartbeat(time.Now())

	bbqMsg := receiveMessage(t, bbq)
	galaMsg := receiveMessage(t, gala)

	if bbqMsg.Type != StreamHeartbeat || galaMsg.Type != StreamHeartbeat {
		t.Fatalf("expected heartbeats, got %s and %s", bbqMsg.Type, galaMsg.Type)
	}
	if bbqMsg.EventID != "event:bbq" {
		t.Errorf("bbq subscriber got heartbeat for %q", bbqMsg.EventID)
	}
	if galaMsg.EventID != "event:gala" {
		t.Errorf("gala subscriber got heartbeat for %q", galaMsg.EventID)
	}
	if bbqMsg == galaMsg {
		t.Error("events must not share one heartbeat message")
	}
}

func TestStreamHub_HeartbeatSkipsFullBuffers(t *testing.T) {
	t.Parallel()
	hub := newTestHub(t)

	sub := hub.Subscribe("event:bbq", "client-1")
	for i := 0; i < cap(sub.Messages); i++ {
		hub.Publish(&StreamMessage{Type: StreamEventUpdated, EventID: "event:bbq"})
	}

	// Buffer is full; the heartbeat must drop, not block.
	done := make(chan struct{})
	go func() {
		hub.broadcastHeartbeat(time.Now())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("heartbeat broadcast blocked on a full subscriber buffer")
	}
}

// ============================================================================
// SSE Formatting
// ============================================================================

func TestStreamMessage_Format(t *testing.T) {
	t.Parallel()
	msg := &StreamMessage{
		Type: StreamEventUpdated,
		Data: map[string]string{"id": "event:bbq"},
	}

	got := msg.Format()
	if !strings.HasPrefix(got, "event: event.updated\n") {
		t.Errorf("expected event line, got %q", got)
	}
	if !strings.Contains(got, `data: {"id":"event:bbq"}`) {
		t.Errorf("expected data line, got %q", got)
	}
	if !strings.HasSuffix(got, "\n\n") {
		t.Error("SSE frames must end with a blank line")
	}
}
