package service

import "sync"

// EventType defines the type of event
type EventType string

const (
	EventHandleCreated    EventType = "handle_created"
	EventHandleUpdated    EventType = "handle_updated"
	EventHandleDeleted    EventType = "handle_deleted"
	EventValuesDeleted    EventType = "values_deleted"
	EventPrefixRegistered EventType = "prefix_registered"
	EventSeedLoaded       EventType = "seed_loaded"
)

// Event represents an event that occurred in the system
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// HandlePayload is the payload of handle events
type HandlePayload struct {
	Handle  string   `json:"handle"`
	Indices []string `json:"indices,omitempty"`
	Values  int      `json:"values"`
}

// EventBus allows publishing and subscribing to events
type EventBus struct {
	mu          sync.RWMutex
	subscribers []chan<- Event
	onDrop      func(Event)
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make([]chan<- Event, 0),
	}
}

// OnDrop registers a callback invoked when a slow subscriber misses an event
func (eb *EventBus) OnDrop(fn func(Event)) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.onDrop = fn
}

// Subscribe adds a subscriber to receive events
func (eb *EventBus) Subscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers = append(eb.subscribers, ch)
}

// Publish sends an event to all subscribers without blocking
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is slow, skip
			if eb.onDrop != nil {
				eb.onDrop(event)
			}
		}
	}
}
