// Package server manages individual chat sessions, handling read/write
// pumps, frame dispatch, rate limiting, and lifecycle cleanup for each
// connection.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/relaychat/relay/internal/auth"
	"github.com/relaychat/relay/internal/config"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second

	// sendBuffer bounds the per-session outbound queue so a slow reader
	// cannot stall room broadcasts.
	sendBuffer = 256
)

// Session is the server-side state for one admitted connection, from
// admission to termination. It owns its joined-room set; all membership
// mutation goes through the registry.
type Session struct {
	id       string
	conn     *websocket.Conn
	send     chan []byte
	done     chan struct{}
	registry *Registry
	identity auth.Identity

	// rooms is touched only by the read goroutine.
	rooms map[string]struct{}

	maxMessageSize int64
	rateLimiter    *rateLimiter
	rateLimit      config.RateLimitConfig

	closeOnce sync.Once
	onClose   func(*Session)
}

// NewSession creates a session for an admitted connection. onClose, if set,
// runs once after cleanup completes.
func NewSession(conn *websocket.Conn, registry *Registry, identity auth.Identity, cfg *config.Config, onClose func(*Session)) *Session {
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}

	return &Session{
		id:             uuid.New().String(),
		conn:           conn,
		send:           make(chan []byte, sendBuffer),
		done:           make(chan struct{}),
		registry:       registry,
		identity:       identity,
		rooms:          make(map[string]struct{}),
		maxMessageSize: cfg.MaxMessageSize,
		rateLimiter:    newRateLimiter(cfg.RateLimit.Burst, cfg.RateLimit.RefillInterval),
		rateLimit:      cfg.RateLimit,
	}
}

// DisplayName returns the display name resolved at admission.
func (s *Session) DisplayName() string {
	return s.identity.DisplayName
}

// Deliver enqueues payload for the write pump without blocking. It reports
// false when the session is closed or its queue is full.
func (s *Session) Deliver(payload []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.send <- payload:
		return true
	default:
		return false
	}
}

// Run starts the read and write pumps and blocks until the session ends.
func (s *Session) Run() {
	go s.writePump()
	s.readPump()
}

// Close terminates the session from the server side.
func (s *Session) Close() {
	s.teardown()
}

// teardown runs the cleanup that cannot be skipped: unsubscribe everywhere,
// announce the departures, and release the transport. Safe to call from any
// goroutine; only the first call acts.
func (s *Session) teardown() {
	s.closeOnce.Do(func() {
		close(s.done)

		left := s.registry.LeaveAll(s)
		for _, room := range left {
			s.registry.Broadcast(room, mustMarshal(newNotification("leave", s.identity.DisplayName, room)))
		}

		if err := s.conn.Close(); err != nil && !isExpectedCloseError(err) {
			log.Printf("Error closing connection for %s: %v", s.identity.DisplayName, err)
		}

		if s.onClose != nil {
			s.onClose(s)
		}
	})
}

// setupReadConnection configures read deadlines and the pong handler.
func (s *Session) setupReadConnection() {
	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("Error setting initial read deadline for %s: %v", s.identity.DisplayName, err)
	}
	s.conn.SetPongHandler(func(string) error {
		if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("Error setting read deadline in pong handler for %s: %v", s.identity.DisplayName, err)
		}
		return nil
	})
}

// logReadError logs an appropriate message for the error that ended the read
// loop.
func (s *Session) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		log.Printf("Message from %s exceeded maximum size of %d bytes", s.identity.DisplayName, s.maxMessageSize)
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		log.Printf("Session %s disconnected: %v", s.identity.DisplayName, err)
	case errors.Is(err, io.EOF), isExpectedCloseError(err):
		log.Printf("Session %s connection closed: %v", s.identity.DisplayName, err)
	default:
		log.Printf("WebSocket read error from %s: %v", s.identity.DisplayName, err)
	}
}

func (s *Session) readPump() {
	defer s.teardown()

	s.setupReadConnection()

	for {
		_, rawFrame, err := s.conn.ReadMessage()
		if err != nil {
			s.logReadError(err)
			return
		}

		if s.rateLimiter != nil && !s.rateLimiter.allow() {
			log.Printf("Rate limit exceeded for %s (%d messages per %s); discarding frame",
				s.identity.DisplayName, s.rateLimit.Burst, s.rateLimit.RefillInterval)
			continue
		}

		s.handleFrame(rawFrame)
	}
}

// handleFrame dispatches one inbound frame. Protocol errors are reported to
// the sender only; they never terminate the session.
func (s *Session) handleFrame(rawFrame []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(rawFrame, &frame); err != nil {
		s.sendError("unknown_type")
		return
	}

	switch frame.Type {
	case "join":
		s.handleJoin(frame)
	case "message":
		s.handleMessage(frame)
	default:
		s.sendError("unknown_type")
	}
}

func (s *Session) handleJoin(frame inboundFrame) {
	if frame.Room == "" {
		s.sendError("room required")
		return
	}

	joined := s.registry.Join(frame.Room, s)
	s.rooms[frame.Room] = struct{}{}
	if !joined {
		// Already a member; no duplicate notification.
		return
	}

	s.registry.Broadcast(frame.Room, mustMarshal(newNotification("join", s.identity.DisplayName, frame.Room)))
}

func (s *Session) handleMessage(frame inboundFrame) {
	if frame.Room == "" || frame.Text == "" {
		s.sendError("room and text required")
		return
	}

	// Senders are not required to have joined the room first.
	s.registry.Broadcast(frame.Room, mustMarshal(newChatMessage(s.identity.DisplayName, frame.Text, frame.Room)))
}

func (s *Session) sendError(message string) {
	s.Deliver(mustMarshal(ErrorFrame{Error: message}))
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.teardown()
	}()

	for {
		select {
		case <-s.done:
			s.writeCloseMessage()
			return
		case payload := <-s.send:
			if !s.writeTextMessage(payload) {
				return
			}
		case <-ticker.C:
			if !s.writePing() {
				return
			}
		}
	}
}

// writeCloseMessage sends a close frame before the transport goes away.
func (s *Session) writeCloseMessage() {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return
	}
	if err := s.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil && !isExpectedCloseError(err) {
		log.Printf("Error writing close message to %s: %v", s.identity.DisplayName, err)
	}
}

// writeTextMessage writes payload plus any queued frames in one writer.
func (s *Session) writeTextMessage(payload []byte) bool {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		log.Printf("Error setting write deadline for %s: %v", s.identity.DisplayName, err)
		return false
	}

	w, err := s.conn.NextWriter(websocket.TextMessage)
	if err != nil {
		log.Printf("Error creating writer for %s: %v", s.identity.DisplayName, err)
		return false
	}

	if _, err := w.Write(payload); err != nil {
		log.Printf("Error writing message to %s: %v", s.identity.DisplayName, err)
		return false
	}

	queued := len(s.send)
	for i := 0; i < queued; i++ {
		if _, err := w.Write([]byte{'\n'}); err != nil {
			return false
		}
		if _, err := w.Write(<-s.send); err != nil {
			return false
		}
	}

	if err := w.Close(); err != nil {
		log.Printf("Error closing writer for %s: %v", s.identity.DisplayName, err)
		return false
	}
	return true
}

// writePing keeps the connection alive between frames.
func (s *Session) writePing() bool {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		log.Printf("Error setting write deadline for ping to %s: %v", s.identity.DisplayName, err)
		return false
	}
	if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		if !isExpectedCloseError(err) {
			log.Printf("Error writing ping message to %s: %v", s.identity.DisplayName, err)
		}
		return false
	}
	return true
}
