// Package api serves the local canvas viewer: a PNG of the current
// raster plus health and session stats. It reads client state and
// never mutates it.
package api

import (
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/doodleyaar/client/internal/client"
)

type API struct {
	client *client.Client
}

func New(c *client.Client) *API {
	return &API{client: c}
}

func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/health", a.healthHandler)
	r.Get("/stats", a.statsHandler)
	r.Get("/canvas.png", a.canvasHandler)
	return r
}

func jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func (a *API) healthHandler(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) statsHandler(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, a.client.Stats())
}

// canvasHandler writes the current frame composited onto white, the
// same way a saved drawing is exported.
func (a *API) canvasHandler(w http.ResponseWriter, r *http.Request) {
	frame := a.client.Snapshot()
	if frame == nil {
		http.Error(w, "no frame rendered yet", http.StatusServiceUnavailable)
		return
	}

	out := image.NewRGBA(frame.Bounds())
	draw.Draw(out, out.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), frame, image.Point{}, draw.Over)

	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, out); err != nil {
		log.Printf("Error encoding canvas PNG: %v", err)
	}
}
