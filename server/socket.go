package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"nearby.live/geo"
)

const (
	// Time allowed to write a message to the client.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the client.
	pongWait = 60 * time.Second

	// Send pings to client with this period. Must be less than pongWait.
	pingPeriod = 15 * time.Second

	// Maximum message size allowed from client.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// check if the request is for websockets
func IsWebSocket(r *http.Request) bool {
	contains := func(key, val string) bool {
		vv := strings.Split(r.Header.Get(key), ",")
		for _, v := range vv {
			if val == strings.ToLower(strings.TrimSpace(v)) {
				return true
			}
		}
		return false
	}

	if contains("Connection", "upgrade") && contains("Upgrade", "websocket") {
		return true
	}

	return false
}

// frame is one inbound client message.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// wirePosition uses pointers so a missing coordinate is
// distinguishable from zero.
type wirePosition struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// ServeWebSocket upgrades the connection, assigns it a session and
// runs the read/write loops until it drops.
func (s *Server) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	// session id lives exactly as long as this connection
	id := uuid.New().String()

	if err := s.connect(id); err != nil {
		s.log.Error().Err(err).Str("session", id).Msg("session create failed")
		conn.Close()
		return
	}

	st := &stream{
		ctx:    r.Context(),
		conn:   conn,
		id:     id,
		client: s.register(id),
		server: s,
	}

	st.run()
}

type stream struct {
	// request context
	ctx context.Context
	// the websocket connection.
	conn *websocket.Conn
	// session id for this connection
	id string
	// registered hub client
	client *client
	// the server
	server *Server
}

func (s *stream) run() {
	defer func() {
		s.server.disconnect(s.id)
		s.conn.Close()
	}()

	// to cancel everything
	stopCtx, cancel := context.WithCancel(context.Background())

	// wait for things to exist
	wg := sync.WaitGroup{}
	wg.Add(2)

	// establish the loops
	go s.serverToClientLoop(cancel, &wg, stopCtx)
	go s.clientToServerLoop(cancel, &wg, stopCtx)
	wg.Wait()
}

func (s *stream) clientToServerLoop(cancel context.CancelFunc, wg *sync.WaitGroup, stopCtx context.Context) {
	defer func() {
		cancel()
		wg.Done()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error { s.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		select {
		case <-stopCtx.Done():
			return
		default:
		}

		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.server.log.Debug().Err(err).Str("session", s.id).Msg("read failed")
			}
			return
		}

		s.handle(msg)
	}
}

// handle parses one inbound frame. Bad frames are dropped without
// touching the session; the connection stays up.
func (s *stream) handle(msg []byte) {
	var f frame
	if err := json.Unmarshal(msg, &f); err != nil {
		s.server.log.Warn().Str("session", s.id).Msg("malformed frame")
		return
	}

	switch f.Event {
	case "sendLocation":
		var p wirePosition
		if err := json.Unmarshal(f.Data, &p); err != nil || p.Lat == nil || p.Lon == nil {
			s.server.log.Warn().Str("session", s.id).Msg("malformed position")
			return
		}
		if err := s.server.update(s.ctx, s.id, geo.Position{Lat: *p.Lat, Lon: *p.Lon}); err != nil {
			s.server.log.Warn().Err(err).Str("session", s.id).Msg("update rejected")
		}
	default:
		s.server.log.Debug().Str("session", s.id).Str("event", f.Event).Msg("ignoring event")
	}
}

func (s *stream) serverToClientLoop(cancel context.CancelFunc, wg *sync.WaitGroup, stopCtx context.Context) {
	defer func() {
		s.conn.Close()
		cancel()
		wg.Done()
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-stopCtx.Done():
			return
		case <-s.ctx.Done():
			return
		case <-s.client.kill:
			s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case env := <-s.client.events:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			w, err := s.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			b, _ := json.Marshal(env)
			if _, err := w.Write(b); err != nil {
				return
			}
			if err := w.Close(); err != nil {
				return
			}
		}
	}
}
