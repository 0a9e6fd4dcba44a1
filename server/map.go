package server

import (
	_ "embed"
	"net/http"
)

//go:embed map.html
var mapHTML []byte

// MapHandler serves the embedded live map client.
func MapHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Write(mapHTML)
}
