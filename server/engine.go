package server

import (
	"sync"

	"nearby.live/geo"
)

const (
	// Broadcast addresses an event to every connected client.
	Broadcast = "all"

	// Two clients at or under this many meters apart trigger an alert.
	proximityMeters = 100
)

// Event names on the wire.
const (
	EventLocationUpdate = "locationUpdate"
	EventProximityAlert = "proximityAlert"
	EventRemoveMarker   = "removeMarker"
)

// Event is one outbound message for the transport layer to deliver.
// To is a session id, or Broadcast for everyone.
type Event struct {
	To      string
	Name    string
	Payload interface{}
}

// LocationUpdate announces a client's new position. Sent to everyone,
// the sender included.
type LocationUpdate struct {
	ID  string  `json:"id"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ProximityAlert tells a client another came within range. Path is the
// recent trail of the client named in From, not the recipient's own.
type ProximityAlert struct {
	From     string         `json:"from"`
	Distance int            `json:"distance"`
	Path     []geo.Position `json:"path"`
}

// SessionInfo describes one live session for the status endpoint.
type SessionInfo struct {
	ID       string        `json:"id"`
	Position *geo.Position `json:"position,omitempty"`
	Trail    int           `json:"trail"`
}

// Engine turns position updates into broadcast and proximity events.
// It owns the session store exclusively; a single mutex serialises
// every call end to end, so a scan never observes a concurrent
// mutation. The engine performs no I/O.
type Engine struct {
	mtx      sync.Mutex
	sessions *Sessions
}

func NewEngine() *Engine {
	return &Engine{
		sessions: NewSessions(),
	}
}

// Connect registers an empty session for id. Called by the transport
// before any update for that id.
func (e *Engine) Connect(id string) error {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	return e.sessions.Create(id)
}

// Update records a position for id and returns the events it causes:
// one alert pair per other client within proximityMeters, then a
// single location broadcast. A rejected update mutates nothing and
// produces no events.
func (e *Engine) Update(id string, pos geo.Position) ([]Event, error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	if err := e.sessions.Record(id, pos); err != nil {
		return nil, err
	}

	var events []Event

	for _, other := range e.sessions.All() {
		if other.ID == id {
			continue
		}

		d := geo.DistanceMeters(pos, other.Position)
		if d > proximityMeters {
			continue
		}

		// both sides hear about it, each shown the other's trail
		events = append(events, Event{
			To:   other.ID,
			Name: EventProximityAlert,
			Payload: ProximityAlert{
				From:     id,
				Distance: d,
				Path:     e.sessions.Trail(id),
			},
		})
		events = append(events, Event{
			To:   id,
			Name: EventProximityAlert,
			Payload: ProximityAlert{
				From:     other.ID,
				Distance: d,
				Path:     e.sessions.Trail(other.ID),
			},
		})
	}

	events = append(events, Event{
		To:   Broadcast,
		Name: EventLocationUpdate,
		Payload: LocationUpdate{
			ID:  id,
			Lat: pos.Lat,
			Lon: pos.Lon,
		},
	})

	return events, nil
}

// Disconnect evicts the session for id and announces the removal. The
// payload is the bare id.
func (e *Engine) Disconnect(id string) []Event {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	e.sessions.Remove(id)

	return []Event{{
		To:      Broadcast,
		Name:    EventRemoveMarker,
		Payload: id,
	}}
}

// Snapshot lists the live sessions for the status endpoint.
func (e *Engine) Snapshot() []SessionInfo {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	infos := make([]SessionInfo, 0, e.sessions.Len())
	for id, sess := range e.sessions.sessions {
		info := SessionInfo{ID: id, Trail: len(sess.Trail)}
		if sess.Current != nil {
			pos := *sess.Current
			info.Position = &pos
		}
		infos = append(infos, info)
	}
	return infos
}
