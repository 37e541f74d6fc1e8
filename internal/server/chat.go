package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/themislegal/themis/internal/agent"
	"github.com/themislegal/themis/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// chatRequest is the incoming WebSocket message format.
type chatRequest struct {
	SessionID string `json:"session_id"` // empty starts a new session
	Content   string `json:"content"`
}

// chatEvent is the outgoing WebSocket message format. Type is "state",
// "response" or "error"; state events stream the turn's progress while
// tools run.
type chatEvent struct {
	Type          string `json:"type"`
	SessionID     string `json:"session_id"`
	State         string `json:"state,omitempty"`
	Content       string `json:"content,omitempty"`
	ToolCalls     int    `json:"tool_calls,omitempty"`
	TimelineAdded int    `json:"timeline_added,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("chat: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("chat: websocket read: %v", err)
			}
			return
		}

		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendChatError(conn, "", "invalid message format")
			continue
		}
		if req.Content == "" {
			s.sendChatError(conn, req.SessionID, "content is required")
			continue
		}

		s.handleChatMessage(conn, r, req)
	}
}

func (s *Server) handleChatMessage(conn *websocket.Conn, r *http.Request, req chatRequest) {
	var sess *session.Session
	if req.SessionID == "" {
		sess = session.New("")
	} else {
		var err error
		sess, err = s.store.Load(req.SessionID)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				s.sendChatError(conn, req.SessionID, "session not found")
			} else {
				s.sendChatError(conn, req.SessionID, err.Error())
			}
			return
		}
	}

	onState := func(st agent.State) {
		s.sendChatEvent(conn, chatEvent{
			Type:      "state",
			SessionID: sess.ID,
			State:     string(st),
		})
	}
	res, err := s.agent.RunWithObserver(r.Context(), sess, req.Content, onState)
	if err != nil {
		s.sendChatError(conn, sess.ID, err.Error())
		return
	}

	s.sendChatEvent(conn, chatEvent{
		Type:          "response",
		SessionID:     sess.ID,
		Content:       res.Reply,
		ToolCalls:     res.Stats.ToolCalls,
		TimelineAdded: res.Stats.TimelineAdded,
	})
}

func (s *Server) sendChatEvent(conn *websocket.Conn, ev chatEvent) {
	if err := conn.WriteJSON(ev); err != nil {
		log.Printf("chat: websocket write: %v", err)
	}
}

func (s *Server) sendChatError(conn *websocket.Conn, sessionID, message string) {
	s.sendChatEvent(conn, chatEvent{
		Type:      "error",
		SessionID: sessionID,
		Content:   message,
	})
}
