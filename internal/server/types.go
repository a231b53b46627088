// Package server defines the JSON frame types exchanged over the chat
// WebSocket, plus shared error helpers reused across session logic.
package server

import (
	"encoding/json"
	"strings"
	"time"
)

// inboundFrame is the client-to-server frame. Type is "join" or "message";
// Room and Text are required per type.
type inboundFrame struct {
	Type string `json:"type"`
	Room string `json:"room"`
	Text string `json:"text"`
}

// Notification announces a membership change to every member of a room.
type Notification struct {
	Type  string    `json:"type"`
	Event string    `json:"event"`
	User  string    `json:"user"`
	Room  string    `json:"room"`
	TS    time.Time `json:"ts"`
}

// ChatMessage carries one chat message to every member of a room.
type ChatMessage struct {
	Type string    `json:"type"`
	User string    `json:"user"`
	Text string    `json:"text"`
	Room string    `json:"room"`
	TS   time.Time `json:"ts"`
}

// ErrorFrame is sent to the offending sender only; the connection stays open.
type ErrorFrame struct {
	Error string `json:"error"`
}

func newNotification(event, user, room string) Notification {
	return Notification{
		Type:  "notification",
		Event: event,
		User:  user,
		Room:  room,
		TS:    time.Now().UTC(),
	}
}

func newChatMessage(user, text, room string) ChatMessage {
	return ChatMessage{
		Type: "message",
		User: user,
		Text: text,
		Room: room,
		TS:   time.Now().UTC(),
	}
}

func mustMarshal(v any) []byte {
	payload, err := json.Marshal(v)
	if err != nil {
		// Frame types contain only strings and timestamps; marshal cannot fail.
		panic(err)
	}
	return payload
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
