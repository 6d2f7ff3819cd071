package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"circuit-court/internal/trial"
)

// Client is one connected party: the creator's host display or one of the
// two participants. Writes go through a buffered send channel drained by a
// dedicated goroutine.
type Client struct {
	conn     *websocket.Conn
	send     chan []byte
	handle   string
	joinCode string
}

// Server is the event gateway: it upgrades connections, maps inbound frames
// to coordinator calls and delivers the resulting events to the session's
// room. Per-session delivery order is preserved by serializing the
// coordinator call and the delivery under a per-code lock.
type Server struct {
	coord    *trial.Coordinator
	upgrader websocket.Upgrader

	mu       sync.Mutex
	clients  map[string]*Client
	rooms    map[string]map[*Client]bool
	seqLocks map[string]*sync.Mutex
}

func NewServer(coord *trial.Coordinator) *Server {
	return &Server{
		coord:    coord,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:  map[string]*Client{},
		rooms:    map[string]map[*Client]bool{},
		seqLocks: map[string]*sync.Mutex{},
	}
}

func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := &Client{conn: conn, send: make(chan []byte, 16), handle: trial.NewHandle()}

	s.mu.Lock()
	s.clients[client.handle] = client
	s.mu.Unlock()

	go s.writeLoop(client)
	s.readLoop(client)
}

func (s *Server) readLoop(c *Client) {
	defer func() {
		s.unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var base InboundEnvelope
		if err := json.Unmarshal(msg, &base); err != nil {
			continue
		}
		switch base.Type {
		case TypeCreateSession:
			s.handleCreate(c)
		case TypeJoinGame:
			var join JoinGameMessage
			if err := json.Unmarshal(msg, &join); err != nil {
				continue
			}
			s.handleJoin(c, join)
		case TypeSubmitEvidence:
			var sub SubmitEvidenceMessage
			if err := json.Unmarshal(msg, &sub); err != nil {
				continue
			}
			s.handleSubmit(c, sub)
		}
	}
}

func (s *Server) writeLoop(c *Client) {
	for msg := range c.send {
		_ = c.conn.WriteMessage(websocket.TextMessage, msg)
	}
}

func (s *Server) handleCreate(c *Client) {
	joinCode, events := s.coord.CreateSession(c.handle)
	s.joinRoom(joinCode, c)
	s.deliver(joinCode, events)
}

func (s *Server) handleJoin(c *Client, join JoinGameMessage) {
	lock := s.sequenceLock(join.JoinCode)
	lock.Lock()
	defer lock.Unlock()

	events, err := s.coord.Join(context.Background(), join.JoinCode, c.handle)
	if err != nil {
		s.sendError(c, err)
		return
	}
	c.joinCode = join.JoinCode
	s.joinRoom(join.JoinCode, c)
	s.deliver(join.JoinCode, events)
}

func (s *Server) handleSubmit(c *Client, sub SubmitEvidenceMessage) {
	lock := s.sequenceLock(sub.JoinCode)
	lock.Lock()
	defer lock.Unlock()

	events, err := s.coord.Submit(context.Background(), sub.JoinCode, c.handle, sub.Text)
	if err != nil {
		s.sendError(c, err)
		return
	}
	s.deliver(sub.JoinCode, events)
}

// deliver fans the coordinator's ordered event list out to the room, or to a
// single handle when the event is addressed. Fire and forget: a slow client
// with a full send buffer drops frames rather than stalling the session.
func (s *Server) deliver(joinCode string, events []trial.Event) {
	for _, ev := range events {
		msg, err := json.Marshal(Envelope{Type: ev.Name, Data: ev.Payload})
		if err != nil {
			log.Error().Err(err).Str("event", ev.Name).Msg("marshal event")
			continue
		}
		if ev.To != "" {
			s.mu.Lock()
			target := s.clients[ev.To]
			s.mu.Unlock()
			if target != nil {
				safeSend(target.send, msg)
			}
			continue
		}
		s.mu.Lock()
		members := make([]*Client, 0, len(s.rooms[joinCode]))
		for member := range s.rooms[joinCode] {
			members = append(members, member)
		}
		s.mu.Unlock()
		for _, member := range members {
			safeSend(member.send, msg)
		}
	}
}

func (s *Server) sendError(c *Client, err error) {
	msg, _ := json.Marshal(Envelope{Type: trial.EventError, Data: trial.ErrorPayload{Message: errorMessage(err)}})
	safeSend(c.send, msg)
}

func (s *Server) joinRoom(joinCode string, c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := s.rooms[joinCode]
	if room == nil {
		room = map[*Client]bool{}
		s.rooms[joinCode] = room
	}
	room[c] = true
}

// sequenceLock returns the per-session lock serializing request handling and
// event delivery, so events for one session always go out in the order the
// coordinator emitted them.
func (s *Server) sequenceLock(joinCode string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock := s.seqLocks[joinCode]
	if lock == nil {
		lock = &sync.Mutex{}
		s.seqLocks[joinCode] = lock
	}
	return lock
}

func (s *Server) unregister(c *Client) {
	s.mu.Lock()
	delete(s.clients, c.handle)
	for joinCode, room := range s.rooms {
		if room[c] {
			delete(room, c)
			if len(room) == 0 {
				delete(s.rooms, joinCode)
				delete(s.seqLocks, joinCode)
			}
		}
	}
	s.mu.Unlock()
	safeClose(c.send)
}

func safeClose(ch chan []byte) {
	defer func() {
		_ = recover()
	}()
	close(ch)
}

func safeSend(ch chan []byte, msg []byte) {
	defer func() {
		_ = recover()
	}()
	select {
	case ch <- msg:
	default:
	}
}

// errorMessage maps coordinator errors to the client-facing texts.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, trial.ErrInvalidCode):
		return "Invalid join code."
	case errors.Is(err, trial.ErrSessionFull):
		return "Game is already full."
	case errors.Is(err, trial.ErrUnknownParticipant):
		return "Player role not found."
	case errors.Is(err, trial.ErrNotYourTurn):
		return "Not your turn."
	case errors.Is(err, trial.ErrGameConcluded):
		return "Game is already concluded."
	default:
		return "Internal error."
	}
}
