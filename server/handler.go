package server

import (
	"encoding/json"
	"net/http"
)

// ConnectHandler serves the websocket endpoint.
func (s *Server) ConnectHandler(w http.ResponseWriter, r *http.Request) {
	if !IsWebSocket(r) {
		http.Error(w, "Expected websocket connection", 400)
		return
	}

	s.ServeWebSocket(w, r)
}

// GetSessionsHandler returns the live session list as JSON.
func (s *Server) GetSessionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	b, _ := json.Marshal(s.engine.Snapshot())
	w.Header().Set("Content-Type", "application/json")
	w.Write(b)
}

// WithCors wraps a handler with CORS headers. An empty origins list
// allows everything.
func WithCors(origins []string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := "*"
		if len(origins) > 0 {
			origin = ""
			for _, o := range origins {
				if o == r.Header.Get("Origin") {
					origin = o
					break
				}
			}
		}

		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		// if options return immediately
		if r.Method == "OPTIONS" {
			return
		}

		h.ServeHTTP(w, r)
	})
}
