package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/maptoolkit/maplibre-contour/internal/contour"
	"github.com/maptoolkit/maplibre-contour/internal/fetch"
	"github.com/maptoolkit/maplibre-contour/internal/tilejson"
)

// Server exposes the contour engine over HTTP.
type Server struct {
	engine   *contour.Engine
	defaults contour.Options
	name     string
	maxZoom  uint8
}

// New builds a server around an engine.
func New(engine *contour.Engine, defaults contour.Options, name string, maxZoom uint8) *Server {
	return &Server{
		engine:   engine,
		defaults: defaults,
		name:     name,
		maxZoom:  maxZoom,
	}
}

// ServeMux routes the tile endpoint plus its metadata documents.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.homeHandler)
	mux.HandleFunc("/tile.json", s.tileJSONHandler)
	mux.HandleFunc("/tiles/", s.tileHandler)
	return mux
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("contour tile server; tiles at /tiles/{z}/{x}/{y}.pbf\n"))
}

func (s *Server) tileJSONHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	doc := tilejson.ForContours(
		s.name,
		s.defaults.ContourLayer,
		s.defaults.ElevationKey,
		s.defaults.LevelKey,
		0, s.maxZoom,
		[]string{"/tiles/{z}/{x}/{y}.pbf"},
	)
	data, err := doc.JSON()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) tileHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	z, x, y, ok := parseTilePath(r.URL.Path)
	if !ok {
		http.Error(w, "want /tiles/{z}/{x}/{y}.pbf", http.StatusBadRequest)
		return
	}
	opts, err := contour.ParseOptionValues(r.URL.Query(), s.defaults)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := s.engine.FetchContourTile(r.Context(), z, x, y, opts)
	switch {
	case errors.Is(err, context.Canceled):
		return
	case errors.Is(err, fetch.ErrTimeout):
		http.Error(w, err.Error(), http.StatusGatewayTimeout)
		return
	case err != nil:
		log.Printf("tile %d/%d/%d: %v", z, x, y, err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	if len(data) == 0 {
		http.Error(w, "no data", http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/x-protobuf")
	if strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write(data)
		gz.Close()
		return
	}
	w.Write(data)
}

func parseTilePath(urlPath string) (z, x, y int, ok bool) {
	rest, found := strings.CutPrefix(urlPath, "/tiles/")
	if !found {
		return
	}
	rest, found = strings.CutSuffix(rest, ".pbf")
	if !found {
		return
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 {
		return
	}
	var err error
	if z, err = strconv.Atoi(parts[0]); err != nil {
		return
	}
	if x, err = strconv.Atoi(parts[1]); err != nil {
		return
	}
	if y, err = strconv.Atoi(parts[2]); err != nil {
		return
	}
	if z < 0 || z > 30 {
		return
	}
	bound := 1 << uint(z)
	if x < 0 || x >= bound || y < 0 || y >= bound {
		return
	}
	return z, x, y, true
}
