// Package router decides what to do with newly observed calls.
package router

import (
	"github.com/sirupsen/logrus"

	"github.com/sweeney/callrouter/internal/ami"
	"github.com/sweeney/callrouter/internal/call"
	"github.com/sweeney/callrouter/internal/metrics"
)

// Commander issues outbound AMI actions on behalf of the policy.
type Commander interface {
	Connected() bool
	Send(a ami.Action) error
}

// Policy redirects newly observed GSM calls to a fixed destination
// extension. The redirect is best effort and fire-and-forget: a down
// link or a failed send is logged and dropped, never retried.
type Policy struct {
	link        Commander
	log         *logrus.Logger
	destination string
	context     string
}

// New creates a Policy routing to the given extension inside the given
// dialplan context.
func New(link Commander, destination, context string, log *logrus.Logger) *Policy {
	return &Policy{link: link, log: log, destination: destination, context: context}
}

// HandleNew runs once per newly created registry entry. Only incoming
// GSM calls are redirected; everything else passes through untouched.
func (p *Policy) HandleNew(ev call.Event) {
	if ev.CallType != call.TypeIncomingGSM {
		return
	}

	fields := logrus.Fields{
		"channel":   ev.Channel,
		"caller_id": ev.CallerID,
		"exten":     p.destination,
	}

	if !p.link.Connected() {
		p.log.WithFields(fields).Warn("link down, skipping redirect")
		metrics.AMIActions.WithLabelValues("Redirect", "error").Inc()
		return
	}

	act := ami.NewAction("Redirect",
		"Channel", ev.Channel,
		"Context", p.context,
		"Exten", p.destination,
		"Priority", "1",
	)
	if err := p.link.Send(act); err != nil {
		p.log.WithError(err).WithFields(fields).Error("redirect failed")
		metrics.AMIActions.WithLabelValues("Redirect", "error").Inc()
		return
	}

	metrics.AMIActions.WithLabelValues("Redirect", "ok").Inc()
	p.log.WithFields(fields).Info("routed incoming GSM call")
}
