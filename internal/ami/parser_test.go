package ami_test

import (
	"strings"
	"testing"

	"github.com/sweeney/callrouter/internal/ami"
)

// raw builds an AMI wire stream from lines, terminating each with \r\n.
func raw(lines ...string) []byte {
	return []byte(strings.Join(lines, "\r\n") + "\r\n")
}

func TestParseSingleEvent(t *testing.T) {
	events := ami.ParseBytes(raw(
		"Asterisk Call Manager/5.0.2",
		"Event: Newchannel",
		"Channel: GSM/1-00000001",
		"CallerIDNum: 15550001234",
		"Uniqueid: 1700000000.1",
		"Context: from-gsm",
		"",
	))

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	evt := events[0]
	if evt.Type() != "Newchannel" {
		t.Errorf("expected type Newchannel, got %q", evt.Type())
	}
	if evt.Get("Channel") != "GSM/1-00000001" {
		t.Errorf("expected Channel=GSM/1-00000001, got %q", evt.Get("Channel"))
	}
	if evt.Get("Uniqueid") != "1700000000.1" {
		t.Errorf("expected Uniqueid=1700000000.1, got %q", evt.Get("Uniqueid"))
	}
	if evt.Get("Missing") != "" {
		t.Errorf("expected empty value for absent key, got %q", evt.Get("Missing"))
	}
}

func TestParseMultipleEvents(t *testing.T) {
	events := ami.ParseBytes(raw(
		"Event: Newchannel",
		"Uniqueid: 1700000000.1",
		"",
		"Event: Newstate",
		"Uniqueid: 1700000000.1",
		"ChannelState: 6",
		"",
		"Event: Hangup",
		"Uniqueid: 1700000000.1",
		"Cause: 16",
		"",
	))

	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[1].GetInt("ChannelState") != 6 {
		t.Errorf("expected ChannelState=6, got %d", events[1].GetInt("ChannelState"))
	}
	if events[2].GetInt("Cause") != 16 {
		t.Errorf("expected Cause=16, got %d", events[2].GetInt("Cause"))
	}
}

func TestParseSkipsBannerBetweenEvents(t *testing.T) {
	events := ami.ParseBytes(raw(
		"Asterisk Call Manager/5.0.2",
		"some stray line",
		"Event: Hangup",
		"Uniqueid: 1.1",
		"",
	))

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Type() != "Hangup" {
		t.Errorf("expected Hangup, got %q", events[0].Type())
	}
}

func TestParseResponseBlock(t *testing.T) {
	events := ami.ParseBytes(raw(
		"Response: Success",
		"ActionID: abc-123",
		"Message: Authentication accepted",
		"",
	))

	if len(events) != 1 {
		t.Fatalf("expected 1 block, got %d", len(events))
	}
	if !events[0].IsResponse() {
		t.Error("expected block to be flagged as response")
	}
	if events[0].Type() != "" {
		t.Errorf("expected empty event type on response, got %q", events[0].Type())
	}
}

func TestParsePendingEventAtEOF(t *testing.T) {
	// No trailing blank line before the stream ends.
	events := ami.ParseBytes([]byte("Event: Hangup\r\nUniqueid: 1.2\r\n"))

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Get("Uniqueid") != "1.2" {
		t.Errorf("expected Uniqueid=1.2, got %q", events[0].Get("Uniqueid"))
	}
}

func TestParseEmptyStream(t *testing.T) {
	if events := ami.ParseBytes(nil); len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}

func TestNewEventRoundTrip(t *testing.T) {
	evt := ami.NewEvent("Event", "Newchannel", "Channel", "SIP/21-0001")
	if evt.Type() != "Newchannel" {
		t.Errorf("expected Newchannel, got %q", evt.Type())
	}
	if evt.Get("Channel") != "SIP/21-0001" {
		t.Errorf("expected SIP/21-0001, got %q", evt.Get("Channel"))
	}
}
