package gateway

import "github.com/sweeney/callrouter/internal/call"

// Status is the gateway state exposed to the status query and the
// status push message.
type Status struct {
	Connected   bool   `json:"connected"`
	Host        string `json:"host"`
	Port        int    `json:"port"`
	ActiveCalls int    `json:"active_calls"`
	Subscribers int    `json:"websocket_clients"`
}

// Push message envelopes. The type field selects the payload shape;
// call events inline their fields next to it.
type callEventMessage struct {
	Type string `json:"type"`
	call.Event
}

type statusMessage struct {
	Type string `json:"type"`
	Data Status `json:"data"`
}

type activeCallsMessage struct {
	Type        string       `json:"type"`
	ActiveCalls []call.Event `json:"active_calls"`
}
