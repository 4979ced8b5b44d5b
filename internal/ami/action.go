package ami

import (
	"strings"

	"github.com/google/uuid"
)

// Action is an outbound AMI command. Fields keep their insertion order
// on the wire.
type Action struct {
	Name   string
	id     string
	fields []header
}

// NewAction builds an Action from alternating key-value pairs and
// assigns it a fresh ActionID.
func NewAction(name string, kvs ...string) Action {
	a := Action{Name: name, id: uuid.NewString()}
	for i := 0; i+1 < len(kvs); i += 2 {
		a.fields = append(a.fields, header{Key: kvs[i], Value: kvs[i+1]})
	}
	return a
}

// ID returns the ActionID sent with this action.
func (a Action) ID() string {
	return a.id
}

// Get returns the value of a field, or empty string if not set.
func (a Action) Get(key string) string {
	for _, f := range a.fields {
		if f.Key == key {
			return f.Value
		}
	}
	return ""
}

// Encode renders the action in AMI wire format, terminated by the
// blank line that marks end of block.
func (a Action) Encode() []byte {
	var b strings.Builder
	b.WriteString("Action: ")
	b.WriteString(a.Name)
	b.WriteString("\r\n")
	b.WriteString("ActionID: ")
	b.WriteString(a.id)
	b.WriteString("\r\n")
	for _, f := range a.fields {
		b.WriteString(f.Key)
		b.WriteString(": ")
		b.WriteString(f.Value)
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	return []byte(b.String())
}
