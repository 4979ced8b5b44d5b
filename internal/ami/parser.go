package ami

import (
	"bufio"
	"io"
	"strings"
)

// Parser reads an AMI byte stream and emits Events.
type Parser struct {
	scanner *bufio.Scanner
}

// NewParser creates a Parser that reads from the given reader.
func NewParser(r io.Reader) *Parser {
	return &Parser{scanner: bufio.NewScanner(r)}
}

// Next reads the next event from the stream.
// Returns the event and true if an event was read, or a zero Event and false at EOF.
func (p *Parser) Next() (Event, bool) {
	var headers []header

	for p.scanner.Scan() {
		// AMI terminates lines with \r\n
		line := strings.TrimRight(p.scanner.Text(), "\r")

		// Blank line closes the current event block
		if line == "" {
			if len(headers) > 0 {
				return Event{headers: headers}, true
			}
			continue
		}

		idx := strings.Index(line, ": ")
		if idx < 0 {
			// Lines without ": " (the login banner, continuation noise)
			// are skipped between events and kept with an empty key
			// inside one, so nothing upstream sends is ever lost.
			if len(headers) == 0 {
				continue
			}
			headers = append(headers, header{Key: "", Value: line})
			continue
		}

		headers = append(headers, header{Key: line[:idx], Value: line[idx+2:]})
	}

	// EOF with a pending, unterminated event
	if len(headers) > 0 {
		return Event{headers: headers}, true
	}
	return Event{}, false
}

// ParseBytes parses all events from a byte slice. Used by tests and the
// wiretap tool; the daemon streams via Next.
func ParseBytes(data []byte) []Event {
	p := NewParser(strings.NewReader(string(data)))
	var events []Event
	for {
		evt, ok := p.Next()
		if !ok {
			return events
		}
		events = append(events, evt)
	}
}
