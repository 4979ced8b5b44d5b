package ami

import "strconv"

// Event is a single AMI frame as an ordered list of key-value headers.
// Lookups on absent keys return the empty string; everything downstream
// relies on that defaulting instead of checking for presence.
type Event struct {
	headers []header
}

type header struct {
	Key   string
	Value string
}

// NewEvent builds an Event from alternating key-value pairs.
func NewEvent(kvs ...string) Event {
	e := Event{}
	for i := 0; i+1 < len(kvs); i += 2 {
		e.headers = append(e.headers, header{Key: kvs[i], Value: kvs[i+1]})
	}
	return e
}

// Get returns the value for the given key, or empty string if not found.
func (e Event) Get(key string) string {
	for _, h := range e.headers {
		if h.Key == key {
			return h.Value
		}
	}
	return ""
}

// GetInt returns the integer value for the given key, or 0 if not found/parseable.
func (e Event) GetInt(key string) int {
	v, _ := strconv.Atoi(e.Get(key))
	return v
}

// Type returns the Event header value (the AMI event name).
func (e Event) Type() string {
	return e.Get("Event")
}

// IsResponse returns true if this is an AMI action response rather than an event.
func (e Event) IsResponse() bool {
	return e.Get("Response") != ""
}

// Headers returns all headers as key-value pairs.
func (e Event) Headers() []header {
	return e.headers
}
