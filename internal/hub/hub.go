// Package hub fans call-event payloads out to live push subscribers.
package hub

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/callrouter/internal/metrics"
)

// Subscriber is one push-channel endpoint. Send is called from the
// broadcast path and must enforce its own bounded write deadline.
type Subscriber interface {
	ID() string
	Send(data []byte) error
	Close() error
}

// Hub maintains the live subscriber set. Delivery is at-most-once per
// subscriber per payload; a subscriber whose Send fails is closed and
// removed after the sweep, and never blocks delivery to the rest.
type Hub struct {
	log *logrus.Logger

	mu   sync.Mutex
	subs map[string]Subscriber
}

// New creates an empty Hub.
func New(log *logrus.Logger) *Hub {
	return &Hub{log: log, subs: make(map[string]Subscriber)}
}

// Subscribe adds a subscriber to the set.
func (h *Hub) Subscribe(s Subscriber) {
	h.mu.Lock()
	h.subs[s.ID()] = s
	total := len(h.subs)
	h.mu.Unlock()

	metrics.SubscribersConnected.Set(float64(total))
	h.log.WithFields(logrus.Fields{"subscriber": s.ID(), "total": total}).Info("subscriber added")
}

// Unsubscribe removes a subscriber. Idempotent; the caller owns the
// underlying connection.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	_, ok := h.subs[id]
	delete(h.subs, id)
	total := len(h.subs)
	h.mu.Unlock()

	if ok {
		metrics.SubscribersConnected.Set(float64(total))
		h.log.WithFields(logrus.Fields{"subscriber": id, "total": total}).Info("subscriber removed")
	}
}

// Broadcast pushes the payload to every subscriber and returns the
// number of successful deliveries. Failed subscribers are collected
// during the sweep and dropped afterwards.
func (h *Hub) Broadcast(data []byte) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	var failed []string
	delivered := 0
	for id, s := range h.subs {
		if err := s.Send(data); err != nil {
			h.log.WithError(err).WithField("subscriber", id).Warn("push failed, dropping subscriber")
			failed = append(failed, id)
			continue
		}
		delivered++
	}

	for _, id := range failed {
		h.subs[id].Close()
		delete(h.subs, id)
		metrics.SubscribersDropped.Inc()
	}
	if len(failed) > 0 {
		metrics.SubscribersConnected.Set(float64(len(h.subs)))
	}
	metrics.BroadcastsSent.Add(float64(delivered))
	return delivered
}

// Len returns the current subscriber count.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
