package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/callrouter/internal/hub"
)

// wsCommand is an inbound websocket control message. Action selects the
// operation; the remaining fields are per-action parameters.
type wsCommand struct {
	Action  string `json:"action"`
	To      string `json:"to"`
	From    string `json:"from"`
	Context string `json:"context"`
	Channel string `json:"channel"`
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Error("websocket upgrade failed")
		return
	}

	sub := hub.NewWSSubscriber(conn, s.wsWriteTimeout)
	if err := s.gw.Subscribe(sub); err != nil {
		s.log.WithError(err).Warn("subscriber handshake failed")
		conn.Close()
		return
	}
	defer func() {
		s.gw.Unsubscribe(sub.ID())
		conn.Close()
	}()

	// Read loop: inbound frames are control commands. The read error
	// (client disconnect) ends the session and unsubscribes promptly.
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		s.handleCommand(sub, data)
	}
}

// handleCommand runs one inbound command and replies on the same
// connection. Malformed or unknown input yields an error message; the
// connection stays open.
func (s *Server) handleCommand(sub *hub.WSSubscriber, data []byte) {
	var cmd wsCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		s.sendError(sub, "unrecognized message")
		return
	}

	switch cmd.Action {
	case "status":
		payload, err := s.gw.StatusPayload()
		if err != nil {
			s.sendError(sub, "internal error")
			return
		}
		sub.Send(payload)

	case "active_calls":
		payload, err := s.gw.ActiveCallsPayload()
		if err != nil {
			s.sendError(sub, "internal error")
			return
		}
		sub.Send(payload)

	case "originate":
		if cmd.To == "" || cmd.From == "" {
			s.sendError(sub, "to and from are required")
			return
		}
		err := s.gw.Originate(cmd.To, cmd.From, cmd.Context)
		s.sendJSON(sub, map[string]any{
			"type":    "originate_response",
			"success": err == nil,
			"to":      cmd.To,
			"from":    cmd.From,
			"context": cmd.Context,
		})

	case "hangup":
		if cmd.Channel == "" {
			s.sendError(sub, "channel is required")
			return
		}
		err := s.gw.Hangup(cmd.Channel)
		s.sendJSON(sub, map[string]any{
			"type":    "hangup_response",
			"success": err == nil,
			"channel": cmd.Channel,
		})

	default:
		s.sendError(sub, "unknown action")
	}
}

func (s *Server) sendJSON(sub *hub.WSSubscriber, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.WithError(err).Error("marshal websocket reply")
		return
	}
	if err := sub.Send(data); err != nil {
		s.log.WithError(err).WithField("subscriber", sub.ID()).Debug("websocket reply failed")
	}
}

func (s *Server) sendError(sub *hub.WSSubscriber, msg string) {
	s.sendJSON(sub, map[string]string{
		"type":    "error",
		"message": msg,
	})
	s.log.WithFields(logrus.Fields{"subscriber": sub.ID(), "message": msg}).Debug("rejected websocket input")
}
