// internal/realtime/hub.go
package realtime

import (
	"log/slog"
	"paycheck-tracker/internal/domain"
	"sync"
)

// Topic is one collection of one owner.
type Topic struct {
	Owner      string
	Collection domain.Collection
}

// Hub fans change signals out to everyone watching a topic.
//
// Each subscriber has a channel with a buffer of one. A signal sent while one
// is already pending is dropped, so a slow reader sees several changes as one
// and Notify never blocks.
type Hub struct {
	mu   sync.RWMutex
	subs map[Topic]map[chan struct{}]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[Topic]map[chan struct{}]struct{})}
}

// Subscribe registers interest in a topic. The returned cancel func must be
// called to release the subscription; it closes the channel.
func (h *Hub) Subscribe(owner string, c domain.Collection) (<-chan struct{}, func()) {
	t := Topic{Owner: owner, Collection: c}
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	if h.subs[t] == nil {
		h.subs[t] = make(map[chan struct{}]struct{})
	}
	h.subs[t][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[t], ch)
			if len(h.subs[t]) == 0 {
				delete(h.subs, t)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Notify signals every subscriber of the topic.
func (h *Hub) Notify(owner string, c domain.Collection) {
	t := Topic{Owner: owner, Collection: c}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[t] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	slog.Debug("Change signalled", "user_id", owner, "collection", c, "subscribers", len(h.subs[t]))
}

// Subscribers reports how many subscriptions a topic has.
func (h *Hub) Subscribers(owner string, c domain.Collection) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[Topic{Owner: owner, Collection: c}])
}

// NotifyAll signals every subscriber of every topic.
func (h *Hub) NotifyAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, subs := range h.subs {
		for ch := range subs {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
}
