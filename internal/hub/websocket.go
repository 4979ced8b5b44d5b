package hub

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WSSubscriber adapts a websocket connection to the Subscriber
// interface. Writes are serialized and carry a bounded deadline so one
// stalled client cannot wedge a broadcast; the transport layer also
// writes command replies through this type, sharing the same lock.
type WSSubscriber struct {
	id      string
	timeout time.Duration

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWSSubscriber wraps an upgraded connection.
func NewWSSubscriber(conn *websocket.Conn, timeout time.Duration) *WSSubscriber {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &WSSubscriber{id: uuid.NewString(), conn: conn, timeout: timeout}
}

func (s *WSSubscriber) ID() string {
	return s.id
}

func (s *WSSubscriber) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(s.timeout))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *WSSubscriber) Close() error {
	return s.conn.Close()
}
