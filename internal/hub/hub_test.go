package hub_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/callrouter/internal/hub"
)

// fakeSubscriber records deliveries and can be told to fail.
type fakeSubscriber struct {
	id string

	mu       sync.Mutex
	received [][]byte
	sendErr  error
	closed   bool
}

func newFakeSubscriber(id string) *fakeSubscriber {
	return &fakeSubscriber{id: id}
}

func (f *fakeSubscriber) ID() string { return f.id }

func (f *fakeSubscriber) Send(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	d := make([]byte, len(data))
	copy(d, data)
	f.received = append(f.received, d)
	return nil
}

func (f *fakeSubscriber) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSubscriber) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.received)
}

func (f *fakeSubscriber) fail() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendErr = errors.New("connection gone")
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	h := hub.New(quietLogger())
	subs := make([]*fakeSubscriber, 3)
	for i := range subs {
		subs[i] = newFakeSubscriber(fmt.Sprintf("s%d", i))
		h.Subscribe(subs[i])
	}

	delivered := h.Broadcast([]byte(`{"type":"call_event"}`))

	assert.Equal(t, 3, delivered)
	for _, s := range subs {
		assert.Equal(t, 1, s.count())
	}
}

func TestFailedSubscriberIsDroppedAfterSweep(t *testing.T) {
	h := hub.New(quietLogger())
	subs := make([]*fakeSubscriber, 4)
	for i := range subs {
		subs[i] = newFakeSubscriber(fmt.Sprintf("s%d", i))
		h.Subscribe(subs[i])
	}
	subs[1].fail()

	delivered := h.Broadcast([]byte("payload"))

	assert.Equal(t, 3, delivered, "one failure must not abort the others")
	assert.Equal(t, 3, h.Len())
	assert.True(t, subs[1].closed, "dropped subscriber must be closed")

	// The next broadcast only reaches the survivors.
	delivered = h.Broadcast([]byte("payload2"))
	assert.Equal(t, 3, delivered)
	for i, s := range subs {
		if i == 1 {
			assert.Equal(t, 0, s.count())
			continue
		}
		assert.Equal(t, 2, s.count())
	}
}

func TestDroppedSubscriberReceivesNothingFurther(t *testing.T) {
	h := hub.New(quietLogger())
	good := newFakeSubscriber("good")
	bad := newFakeSubscriber("bad")
	h.Subscribe(good)
	h.Subscribe(bad)
	bad.fail()

	h.Broadcast([]byte("one"))
	require.Equal(t, 1, h.Len())

	h.Broadcast([]byte("two"))
	assert.Equal(t, 2, good.count())
	assert.Equal(t, 0, bad.count())
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	h := hub.New(quietLogger())
	s := newFakeSubscriber("s1")
	h.Subscribe(s)

	h.Unsubscribe("s1")
	h.Unsubscribe("s1")
	h.Unsubscribe("never-subscribed")

	assert.Equal(t, 0, h.Len())
	assert.Equal(t, 0, h.Broadcast([]byte("x")))
}

func TestBroadcastWithNoSubscribers(t *testing.T) {
	h := hub.New(quietLogger())
	assert.Equal(t, 0, h.Broadcast([]byte("x")))
}
