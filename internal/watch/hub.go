// Package watch pushes account document updates to connected clients, so the
// UI observes quota consumption and subscription changes without polling.
package watch

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

const subscriberBuffer = 16

// Hub fans account document updates out to subscribers, keyed by account ID.
// It is the push-based observable over the account store: Subscribe yields a
// stream of document snapshots until the returned cancel func runs.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[chan []byte]struct{}
	logger zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		subs:   make(map[string]map[chan []byte]struct{}),
		logger: logger,
	}
}

// Subscribe registers interest in one account's document stream. The cancel
// func unregisters and closes the channel; it is safe to call twice.
func (h *Hub) Subscribe(accountID string) (<-chan []byte, func()) {
	ch := make(chan []byte, subscriberBuffer)

	h.mu.Lock()
	set, ok := h.subs[accountID]
	if !ok {
		set = make(map[chan []byte]struct{})
		h.subs[accountID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.subs[accountID]; ok {
				delete(set, ch)
				if len(set) == 0 {
					delete(h.subs, accountID)
				}
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish sends a document snapshot to every subscriber of the account.
// Subscribers with a full buffer miss this snapshot rather than block the
// publisher; a later snapshot supersedes it anyway.
func (h *Hub) Publish(accountID string, doc any) {
	data, err := json.Marshal(doc)
	if err != nil {
		h.logger.Error().Err(err).Msg("marshal account document")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[accountID] {
		select {
		case ch <- data:
		default:
		}
	}
}

// SubscriberCount returns the number of open subscriptions for an account.
func (h *Hub) SubscriberCount(accountID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[accountID])
}
