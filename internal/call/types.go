// Package call defines the normalized call-event model and the
// classifier that derives it from raw AMI events.
package call

// State is the derived lifecycle state of a tracked call. Transitions
// run ringing -> answered -> hangup; hangup is terminal.
type State string

const (
	StateRinging  State = "ringing"
	StateAnswered State = "answered"
	StateHangup   State = "hangup"
)

// Type classifies where a call entered the system.
type Type string

const (
	TypeIncomingGSM Type = "incoming_gsm"
	TypeInternal    Type = "internal"
	TypeSIPTrunk    Type = "sip_trunk"
)

// AMI event names the pipeline acts on. Anything else still flows to
// subscribers but never touches the registry.
const (
	EventNewchannel = "Newchannel"
	EventNewstate   = "Newstate"
	EventDial       = "Dial"
	EventHangup     = "Hangup"
)

// channelStateUp is the AMI ChannelState code for an answered channel.
const channelStateUp = "6"

// Event is one normalized call event. EventType carries the raw
// upstream event name for display only; control flow keys off the
// derived CallState and CallType enums.
type Event struct {
	EventType string `json:"event_type"`
	Channel   string `json:"channel"`
	CallerID  string `json:"caller_id"`
	Extension string `json:"extension"`
	UniqueID  string `json:"unique_id"`
	Timestamp string `json:"timestamp"`
	CallState State  `json:"call_state"`
	CallType  Type   `json:"call_type"`
}
