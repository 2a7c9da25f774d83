package service

import (
	"encoding/json"
	"sync"
	"time"
)

// StreamType represents the type of a server-sent message
type StreamType string

const (
	// Event document changes
	StreamEventUpdated StreamType = "event.updated"
	StreamEventDeleted StreamType = "event.deleted"

	// User-directed messages
	StreamNotification StreamType = "notification"

	// System messages
	StreamHeartbeat StreamType = "heartbeat"
)

// StreamMessage is a server-sent message pushed to subscribed clients
type StreamMessage struct {
	Type    StreamType  `json:"type"`
	Data    interface{} `json:"data"`
	EventID string      `json:"-"` // Used for routing, not sent to client
}

// Format returns the SSE formatted string
func (m *StreamMessage) Format() string {
	data, _ := json.Marshal(m.Data)
	return "event: " + string(m.Type) + "\ndata: " + string(data) + "\n\n"
}

// StreamSubscriber represents a connected SSE client
type StreamSubscriber struct {
	ID       string
	EventID  string
	Messages chan *StreamMessage
	Done     chan struct{}
}

// StreamHub manages SSE subscriptions. Clients subscribe either to a
// single event document or to their own user channel; every accepted
// mutation is pushed to the event's subscribers so they can re-derive
// view state from a fresh snapshot.
type StreamHub struct {
	mu              sync.RWMutex
	subscribers     map[string]map[string]*StreamSubscriber // eventID -> subscriberID -> subscriber
	userSubscribers map[string]map[string]*StreamSubscriber // userID -> subscriberID -> subscriber
	heartbeat       *time.Ticker
	done            chan struct{}
}

// NewStreamHub creates a new stream hub
func NewStreamHub() *StreamHub {
	hub := &StreamHub{
		subscribers:     make(map[string]map[string]*StreamSubscriber),
		userSubscribers: make(map[string]map[string]*StreamSubscriber),
		done:            make(chan struct{}),
	}
	// Start heartbeat
	hub.heartbeat = time.NewTicker(30 * time.Second)
	go hub.sendHeartbeats()
	return hub
}

// Subscribe adds a new subscriber for an event
func (h *StreamHub) Subscribe(eventID, subscriberID string) *StreamSubscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &StreamSubscriber{
		ID:       subscriberID,
		EventID:  eventID,
		Messages: make(chan *StreamMessage, 100), // Buffer to prevent blocking
		Done:     make(chan struct{}),
	}

	if h.subscribers[eventID] == nil {
		h.subscribers[eventID] = make(map[string]*StreamSubscriber)
	}
	h.subscribers[eventID][subscriberID] = sub

	return sub
}

// Unsubscribe removes a subscriber
func (h *StreamHub) Unsubscribe(eventID, subscriberID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if eventSubs, ok := h.subscribers[eventID]; ok {
		if sub, ok := eventSubs[subscriberID]; ok {
			close(sub.Done)
			close(sub.Messages)
			delete(eventSubs, subscriberID)
		}
		if len(eventSubs) == 0 {
			delete(h.subscribers, eventID)
		}
	}
}

// Publish sends a message to all subscribers of an event
func (h *StreamHub) Publish(message *StreamMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	eventSubs, ok := h.subscribers[message.EventID]
	if !ok {
		return
	}

	for _, sub := range eventSubs {
		select {
		case sub.Messages <- message:
			// Message sent successfully
		default:
			// Buffer full, skip this subscriber
		}
	}
}

// SubscribeUser adds a new subscriber for a specific user's notifications
func (h *StreamHub) SubscribeUser(userID, subscriberID string) *StreamSubscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &StreamSubscriber{
		ID:       subscriberID,
		EventID:  "", // Not event-bound
		Messages: make(chan *StreamMessage, 100),
		Done:     make(chan struct{}),
	}

	if h.userSubscribers[userID] == nil {
		h.userSubscribers[userID] = make(map[string]*StreamSubscriber)
	}
	h.userSubscribers[userID][subscriberID] = sub

	return sub
}

// UnsubscribeUser removes a user subscriber
func (h *StreamHub) UnsubscribeUser(userID, subscriberID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if userSubs, ok := h.userSubscribers[userID]; ok {
		if sub, ok := userSubs[subscriberID]; ok {
			close(sub.Done)
			close(sub.Messages)
			delete(userSubs, subscriberID)
		}
		if len(userSubs) == 0 {
			delete(h.userSubscribers, userID)
		}
	}
}

// SendToUser sends a message to all subscribers of a specific user
func (h *StreamHub) SendToUser(userID string, message *StreamMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	userSubs, ok := h.userSubscribers[userID]
	if !ok {
		return
	}

	for _, sub := range userSubs {
		select {
		case sub.Messages <- message:
			// Message sent successfully
		default:
			// Buffer full, skip this subscriber
		}
	}
}

// sendHeartbeats sends periodic heartbeats to all subscribers
func (h *StreamHub) sendHeartbeats() {
	for {
		select {
		case <-h.heartbeat.C:
			h.broadcastHeartbeat(time.Now())
		case <-h.done:
			return
		}
	}
}

// broadcastHeartbeat queues one heartbeat per event. Each event gets its
// own message; a shared one would be mutated after pointers are already
// queued on subscriber channels.
func (h *StreamHub) broadcastHeartbeat(now time.Time) {
	timestamp := now.UTC().Format(time.RFC3339)

	h.mu.RLock()
	defer h.mu.RUnlock()

	for eventID, eventSubs := range h.subscribers {
		message := &StreamMessage{
			Type:    StreamHeartbeat,
			EventID: eventID,
			Data:    map[string]string{"timestamp": timestamp},
		}
		for _, sub := range eventSubs {
			select {
			case sub.Messages <- message:
			default:
			}
		}
	}
}

// Close stops the stream hub
func (h *StreamHub) Close() {
	close(h.done)
	h.heartbeat.Stop()

	h.mu.Lock()
	defer h.mu.Unlock()

	for eventID, eventSubs := range h.subscribers {
		for _, sub := range eventSubs {
			close(sub.Done)
			close(sub.Messages)
		}
		delete(h.subscribers, eventID)
	}
	for userID, userSubs := range h.userSubscribers {
		for _, sub := range userSubs {
			close(sub.Done)
			close(sub.Messages)
		}
		delete(h.userSubscribers, userID)
	}
}

// SubscriberCount returns the number of subscribers for an event
func (h *StreamHub) SubscriberCount(eventID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if eventSubs, ok := h.subscribers[eventID]; ok {
		return len(eventSubs)
	}
	return 0
}
