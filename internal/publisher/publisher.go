// Package publisher is the secondary event sink: classified call events
// are mirrored to an MQTT broker next to the websocket fan-out.
package publisher

import "context"

// Publisher delivers a serialized call event to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Close() error
}
