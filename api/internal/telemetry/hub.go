package telemetry

import (
	"sync"

	"github.com/reacthost/console/api/internal/core/domain"
)

// WizardTopic is the stream every dashboard client follows.
const WizardTopic = "wizard"

// Hub fans wizard events out to live dashboard streams.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string][]chan domain.WizardEvent // topic -> client channels
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string][]chan domain.WizardEvent),
	}
}

// Subscribe adds a client to a topic.
func (h *Hub) Subscribe(topic string) chan domain.WizardEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan domain.WizardEvent, 64) // slow clients must not block the simulator
	h.subscribers[topic] = append(h.subscribers[topic], ch)
	return ch
}

// Unsubscribe removes and closes a client channel.
func (h *Hub) Unsubscribe(topic string, ch chan domain.WizardEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subscribers[topic]
	for i, sub := range subs {
		if sub == ch {
			h.subscribers[topic] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}
	if len(h.subscribers[topic]) == 0 {
		delete(h.subscribers, topic)
	}
}

// Broadcast delivers event to every listener of topic. Full buffers drop.
func (h *Hub) Broadcast(topic string, event domain.WizardEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subscribers[topic] {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribers reports the number of live listeners on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[topic])
}
