package call_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sweeney/callrouter/internal/ami"
	"github.com/sweeney/callrouter/internal/call"
)

func TestClassifyType(t *testing.T) {
	c := call.NewClassifier()

	tests := []struct {
		name    string
		channel string
		context string
		want    call.Type
	}{
		{"gsm channel marker", "GSM/1-00000001", "from-pstn", call.TypeIncomingGSM},
		{"gsm marker is case-insensitive", "gsm/2-00000004", "", call.TypeIncomingGSM},
		{"gsm context", "SIP/trunk-0001", "from-gsm", call.TypeIncomingGSM},
		{"trunk context", "SIP/trunk-0002", "from-bevatel", call.TypeSIPTrunk},
		{"internal context", "SIP/21-0003", "from-internal", call.TypeInternal},
		{"unknown context falls back to gsm", "SIP/21-0004", "unknown-ctx", call.TypeIncomingGSM},
		{"empty everything falls back to gsm", "", "", call.TypeIncomingGSM},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt := ami.NewEvent("Event", "Newchannel", "Channel", tt.channel, "Context", tt.context)
			assert.Equal(t, tt.want, c.Classify(evt).CallType)
		})
	}
}

func TestClassifyState(t *testing.T) {
	c := call.NewClassifier()

	tests := []struct {
		name         string
		eventType    string
		channelState string
		want         call.State
	}{
		{"new channel rings", "Newchannel", "", call.StateRinging},
		{"newstate up answers", "Newstate", "6", call.StateAnswered},
		{"newstate ringing stays ringing", "Newstate", "5", call.StateRinging},
		{"newstate empty stays ringing", "Newstate", "", call.StateRinging},
		{"hangup", "Hangup", "", call.StateHangup},
		{"dial defaults to ringing", "Dial", "", call.StateRinging},
		{"unknown event defaults to ringing", "VarSet", "", call.StateRinging},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt := ami.NewEvent("Event", tt.eventType, "ChannelState", tt.channelState)
			assert.Equal(t, tt.want, c.Classify(evt).CallState)
		})
	}
}

func TestClassifyCopiesFields(t *testing.T) {
	c := call.NewClassifier()
	evt := ami.NewEvent(
		"Event", "Newchannel",
		"Channel", "GSM/1-00000001",
		"CallerIDNum", "15550001234",
		"Extension", "1000",
		"Uniqueid", "1700000000.1",
		"Timestamp", "1700000000.123456",
		"Context", "from-gsm",
	)

	ev := c.Classify(evt)
	assert.Equal(t, "Newchannel", ev.EventType)
	assert.Equal(t, "GSM/1-00000001", ev.Channel)
	assert.Equal(t, "15550001234", ev.CallerID)
	assert.Equal(t, "1000", ev.Extension)
	assert.Equal(t, "1700000000.1", ev.UniqueID)
	assert.Equal(t, "1700000000.123456", ev.Timestamp)
	assert.Equal(t, call.StateRinging, ev.CallState)
	assert.Equal(t, call.TypeIncomingGSM, ev.CallType)
}

func TestClassifyAbsentFieldsDefaultToEmpty(t *testing.T) {
	ev := call.NewClassifier().Classify(ami.NewEvent("Event", "Hangup"))
	assert.Empty(t, ev.Channel)
	assert.Empty(t, ev.CallerID)
	assert.Empty(t, ev.Extension)
	assert.Empty(t, ev.UniqueID)
	assert.Empty(t, ev.Timestamp)
	assert.Equal(t, call.StateHangup, ev.CallState)
}
