// Package gateway owns the call registry and glues the event pipeline
// together: classify, apply to the registry, fan out, route.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/callrouter/internal/ami"
	"github.com/sweeney/callrouter/internal/call"
	"github.com/sweeney/callrouter/internal/hub"
	"github.com/sweeney/callrouter/internal/metrics"
	"github.com/sweeney/callrouter/internal/publisher"
	"github.com/sweeney/callrouter/internal/registry"
	"github.com/sweeney/callrouter/internal/router"
)

// ErrNotConnected is returned by control operations when the AMI link
// is down. Callers fail fast; nothing is queued.
var ErrNotConnected = errors.New("asterisk link not connected")

// Link is the telephony control channel the gateway drives.
type Link interface {
	Connected() bool
	Send(a ami.Action) error
}

// Options wires a Gateway together. Link and Hub are required; Policy
// and Publisher are optional.
type Options struct {
	Logger      *logrus.Logger
	Link        Link
	Hub         *hub.Hub
	Policy      *router.Policy
	Publisher   publisher.Publisher
	Classifier  call.Classifier
	Host        string
	Port        int
	TopicPrefix string
}

// Gateway processes one AMI event at a time: the registry mutation, the
// subscriber broadcast and any routing decision happen as a single
// serialized step, so events for one call are always applied in link
// order and status reads never observe a half-applied event. Control
// operations share the same lock.
type Gateway struct {
	log        *logrus.Logger
	link       Link
	hub        *hub.Hub
	policy     *router.Policy
	pub        publisher.Publisher
	classifier call.Classifier
	host       string
	port       int
	prefix     string

	mu  sync.Mutex
	reg *registry.Registry
}

// New creates a Gateway with an empty registry.
func New(opts Options) *Gateway {
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.Classifier == (call.Classifier{}) {
		opts.Classifier = call.NewClassifier()
	}
	if opts.TopicPrefix == "" {
		opts.TopicPrefix = "callrouter"
	}
	return &Gateway{
		log:        opts.Logger,
		link:       opts.Link,
		hub:        opts.Hub,
		policy:     opts.Policy,
		pub:        opts.Publisher,
		classifier: opts.Classifier,
		host:       opts.Host,
		port:       opts.Port,
		prefix:     opts.TopicPrefix,
		reg:        registry.New(),
	}
}

// HandleEvent ingests one raw AMI event. All failures are handled here;
// a bad event or a failed delivery never disturbs the next event.
func (g *Gateway) HandleEvent(raw ami.Event) {
	if raw.IsResponse() || raw.Type() == "" {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	ev := g.classifier.Classify(raw)
	metrics.EventsProcessed.WithLabelValues(ev.EventType).Inc()

	created := false
	switch ev.EventType {
	case call.EventNewchannel:
		if ev.UniqueID != "" {
			created = g.reg.Upsert(ev)
		}
		g.log.WithFields(logrus.Fields{
			"call_type": ev.CallType,
			"caller_id": ev.CallerID,
			"extension": ev.Extension,
			"unique_id": ev.UniqueID,
		}).Info("new call")
	case call.EventNewstate:
		if ev.CallState == call.StateAnswered && ev.UniqueID != "" {
			g.reg.UpdateState(ev.UniqueID, call.StateAnswered)
			g.log.WithField("channel", ev.Channel).Info("call answered")
		}
	case call.EventHangup:
		if ev.UniqueID != "" {
			g.reg.Remove(ev.UniqueID)
		}
		g.log.WithField("channel", ev.Channel).Info("call ended")
	case call.EventDial:
		g.log.WithField("channel", ev.Channel).Debug("call dialing")
	}
	metrics.CallsActive.Set(float64(g.reg.Len()))

	g.broadcast(ev)

	// Routing fires once, on creation only. Replayed creation events
	// and later state changes never re-route.
	if created && g.policy != nil {
		g.policy.HandleNew(ev)
	}
}

func (g *Gateway) broadcast(ev call.Event) {
	data, err := json.Marshal(callEventMessage{Type: "call_event", Event: ev})
	if err != nil {
		g.log.WithError(err).Error("marshal call event")
		return
	}
	g.hub.Broadcast(data)

	if g.pub != nil && ev.UniqueID != "" {
		topic := fmt.Sprintf("%s/call/%s/%s", g.prefix, ev.UniqueID, ev.CallState)
		if err := g.pub.Publish(context.Background(), topic, data); err != nil {
			metrics.MQTTPublishErrors.Inc()
			g.log.WithError(err).WithField("topic", topic).Warn("mqtt mirror publish failed")
		}
	}
}

// Subscribe registers a push subscriber. The subscriber first receives
// a status snapshot and the active-call snapshot, then live events; the
// whole handover is atomic with event processing, so no live push can
// slip in between. A failed snapshot send aborts the subscription.
func (g *Gateway) Subscribe(s hub.Subscriber) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	statusData, err := g.statusPayloadLocked()
	if err != nil {
		return err
	}
	callsData, err := g.activeCallsPayloadLocked()
	if err != nil {
		return err
	}
	if err := s.Send(statusData); err != nil {
		return fmt.Errorf("sending status snapshot: %w", err)
	}
	if err := s.Send(callsData); err != nil {
		return fmt.Errorf("sending active-calls snapshot: %w", err)
	}

	g.hub.Subscribe(s)
	return nil
}

// Unsubscribe removes a push subscriber. Idempotent.
func (g *Gateway) Unsubscribe(id string) {
	g.hub.Unsubscribe(id)
}

// Originate asks the link to set up a call from one number to another.
// An empty context falls back to the internal dialplan context.
func (g *Gateway) Originate(to, from, context string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if context == "" {
		context = g.classifier.InternalContext
	}
	if !g.link.Connected() {
		metrics.AMIActions.WithLabelValues("Originate", "error").Inc()
		return ErrNotConnected
	}

	act := ami.NewAction("Originate",
		"Channel", "SIP/"+to,
		"Context", context,
		"Exten", to,
		"CallerID", from,
		"Priority", "1",
	)
	if err := g.link.Send(act); err != nil {
		metrics.AMIActions.WithLabelValues("Originate", "error").Inc()
		return fmt.Errorf("originate: %w", err)
	}

	metrics.AMIActions.WithLabelValues("Originate", "ok").Inc()
	g.log.WithFields(logrus.Fields{"to": to, "from": from, "context": context}).Info("originated call")
	return nil
}

// Hangup asks the link to terminate the given channel.
func (g *Gateway) Hangup(channel string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.link.Connected() {
		metrics.AMIActions.WithLabelValues("Hangup", "error").Inc()
		return ErrNotConnected
	}
	if err := g.link.Send(ami.NewAction("Hangup", "Channel", channel)); err != nil {
		metrics.AMIActions.WithLabelValues("Hangup", "error").Inc()
		return fmt.Errorf("hangup: %w", err)
	}

	metrics.AMIActions.WithLabelValues("Hangup", "ok").Inc()
	g.log.WithField("channel", channel).Info("hung up call")
	return nil
}

// Status returns a consistent read of the gateway's state.
func (g *Gateway) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.statusLocked()
}

// ActiveCalls returns the registry snapshot in insertion order.
func (g *Gateway) ActiveCalls() []call.Event {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reg.Snapshot()
}

// StatusPayload returns the status push message, serialized.
func (g *Gateway) StatusPayload() ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.statusPayloadLocked()
}

// ActiveCallsPayload returns the active-calls push message, serialized.
func (g *Gateway) ActiveCallsPayload() ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.activeCallsPayloadLocked()
}

func (g *Gateway) statusLocked() Status {
	return Status{
		Connected:   g.link.Connected(),
		Host:        g.host,
		Port:        g.port,
		ActiveCalls: g.reg.Len(),
		Subscribers: g.hub.Len(),
	}
}

func (g *Gateway) statusPayloadLocked() ([]byte, error) {
	data, err := json.Marshal(statusMessage{Type: "status", Data: g.statusLocked()})
	if err != nil {
		return nil, fmt.Errorf("marshal status: %w", err)
	}
	return data, nil
}

func (g *Gateway) activeCallsPayloadLocked() ([]byte, error) {
	data, err := json.Marshal(activeCallsMessage{Type: "active_calls", ActiveCalls: g.reg.Snapshot()})
	if err != nil {
		return nil, fmt.Errorf("marshal active calls: %w", err)
	}
	return data, nil
}
