package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"signalrelay/internal/core"
)

type outcomeView struct {
	ChannelID string `json:"channel_id,omitempty"`
	Line      string `json:"line"`
	Parsed    bool   `json:"parsed"`
	Placed    bool   `json:"placed"`
	OrderID   uint64 `json:"order_id,omitempty"`
	Code      string `json:"code,omitempty"`
	Error     string `json:"error,omitempty"`
	Reply     string `json:"reply,omitempty"`
}

func viewOf(channelID string, o core.Outcome) outcomeView {
	v := outcomeView{
		ChannelID: channelID,
		Line:      o.Line,
		Parsed:    o.Parsed(),
		Placed:    o.Placed(),
		OrderID:   o.OrderID,
		Reply:     o.Reply(),
	}
	if o.Err != nil {
		v.Code = string(core.CodeOf(o.Err))
		v.Error = o.Err.Error()
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// GET /api/ping
func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Status)
}

// POST /api/messages {"channel_id","author_id","content"}
//
// Runs the content through the relay like a chat message would be, minus
// the chat replies, and returns the per-line outcomes.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ChannelID string `json:"channel_id"`
		AuthorID  string `json:"author_id"`
		Content   string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body.Content) == "" {
		http.Error(w, "content required", http.StatusBadRequest)
		return
	}
	if body.ChannelID == "" {
		body.ChannelID = "webhook"
	}
	msg := core.Message{ChannelID: body.ChannelID, AuthorID: body.AuthorID, Content: body.Content}
	// A caller hanging up must not abort an order already on its way to
	// the venue.
	outcomes := s.deps.Relay.Process(context.WithoutCancel(r.Context()), msg, nil)

	views := make([]outcomeView, 0, len(outcomes))
	for _, o := range outcomes {
		views = append(views, viewOf("", o))
	}
	writeJSON(w, http.StatusOK, map[string]any{"outcomes": views})
}
