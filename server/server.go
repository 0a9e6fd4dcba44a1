// Package server implements the proximity broadcast server.
//
// Each websocket connection gets a session. Position updates flow
// through the Engine, which mutates the session store and returns the
// events to deliver: a location broadcast on every update, plus a pair
// of proximity alerts whenever two clients come within 100 meters. The
// Server fans those events out to the connected clients.
package server

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"nearby.live/cache"
	"nearby.live/geo"
)

type envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type client struct {
	id     string
	events chan *envelope
	kill   chan bool
}

// Server owns the engine and the set of connected clients, and routes
// engine events to their recipients.
type Server struct {
	engine   *Engine
	presence *cache.Presence
	log      zerolog.Logger

	mtx     sync.RWMutex
	clients map[string]*client
}

func New(log zerolog.Logger, presence *cache.Presence) *Server {
	return &Server{
		engine:   NewEngine(),
		presence: presence,
		log:      log,
		clients:  make(map[string]*client),
	}
}

func (s *Server) register(id string) *client {
	c := &client{
		id:     id,
		events: make(chan *envelope, 16),
		kill:   make(chan bool),
	}

	s.mtx.Lock()
	s.clients[id] = c
	s.mtx.Unlock()

	return c
}

func (s *Server) unregister(id string) {
	s.mtx.Lock()
	delete(s.clients, id)
	s.mtx.Unlock()
}

// Deliver routes engine events to their recipients. Sends never block;
// a client that cannot keep up misses the event. Events addressed to an
// id no longer connected are dropped silently.
func (s *Server) Deliver(events []Event) {
	for _, ev := range events {
		env := &envelope{Event: ev.Name, Data: ev.Payload}

		if ev.To != Broadcast {
			s.mtx.RLock()
			c, ok := s.clients[ev.To]
			s.mtx.RUnlock()
			if !ok {
				continue
			}
			select {
			case c.events <- env:
			default:
			}
			continue
		}

		s.mtx.RLock()
		all := make([]*client, 0, len(s.clients))
		for _, c := range s.clients {
			all = append(all, c)
		}
		s.mtx.RUnlock()

		for _, c := range all {
			select {
			case c.events <- env:
			default:
			}
		}
	}
}

func (s *Server) connect(id string) error {
	if err := s.engine.Connect(id); err != nil {
		return err
	}
	s.log.Info().Str("session", id).Msg("connected")
	return nil
}

func (s *Server) update(ctx context.Context, id string, pos geo.Position) error {
	events, err := s.engine.Update(id, pos)
	if err != nil {
		return err
	}

	// every event before the final broadcast is one side of an alert pair
	if nearby := (len(events) - 1) / 2; nearby > 0 {
		s.log.Info().Str("session", id).Int("nearby", nearby).
			Str("cell", geo.Cell(pos)).Msg("proximity alert")
	}

	s.Deliver(events)
	s.presence.Set(ctx, id, pos)

	return nil
}

func (s *Server) disconnect(id string) {
	events := s.engine.Disconnect(id)
	s.unregister(id)
	s.Deliver(events)
	s.presence.Delete(context.Background(), id)
	s.log.Info().Str("session", id).Msg("disconnected")
}

// Close tells every connected client to shut down.
func (s *Server) Close() {
	s.mtx.RLock()
	all := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		all = append(all, c)
	}
	s.mtx.RUnlock()

	for _, c := range all {
		close(c.kill)
	}
}
