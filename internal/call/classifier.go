package call

import (
	"strings"

	"github.com/sweeney/callrouter/internal/ami"
)

// Classifier derives a normalized Event from a raw AMI event. Absent
// headers degrade to empty strings; classification never fails.
type Classifier struct {
	// GSMMarker is matched case-insensitively against the channel name.
	GSMMarker       string
	GSMContext      string
	TrunkContext    string
	InternalContext string
}

// NewClassifier returns a Classifier with the stock dialplan names.
func NewClassifier() Classifier {
	return Classifier{
		GSMMarker:       "gsm",
		GSMContext:      "from-gsm",
		TrunkContext:    "from-bevatel",
		InternalContext: "from-internal",
	}
}

// Classify builds the normalized event for a raw AMI frame.
func (c Classifier) Classify(evt ami.Event) Event {
	return Event{
		EventType: evt.Type(),
		Channel:   evt.Get("Channel"),
		CallerID:  evt.Get("CallerIDNum"),
		Extension: evt.Get("Extension"),
		UniqueID:  evt.Get("Uniqueid"),
		Timestamp: evt.Get("Timestamp"),
		CallState: c.classifyState(evt.Type(), evt.Get("ChannelState")),
		CallType:  c.classifyType(evt.Get("Channel"), evt.Get("Context")),
	}
}

func (c Classifier) classifyType(channel, context string) Type {
	switch {
	case strings.Contains(strings.ToLower(channel), c.GSMMarker) || context == c.GSMContext:
		return TypeIncomingGSM
	case context == c.TrunkContext:
		return TypeSIPTrunk
	case context == c.InternalContext:
		return TypeInternal
	default:
		// Unrecognized contexts fall through to GSM. A production
		// taxonomy would grow an explicit unknown bucket instead.
		return TypeIncomingGSM
	}
}

func (c Classifier) classifyState(eventType, channelState string) State {
	switch {
	case eventType == EventHangup:
		return StateHangup
	case eventType == EventNewstate && channelState == channelStateUp:
		return StateAnswered
	default:
		return StateRinging
	}
}
