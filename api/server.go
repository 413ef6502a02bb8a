package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"tweakplay/catalog"
	"tweakplay/color"
	"tweakplay/editor"
	"tweakplay/events"
	"tweakplay/logger"
	"tweakplay/model"
	"tweakplay/playground"
	"tweakplay/theme"
)

// maxBody bounds JSON and CSS request bodies.
const maxBody = 1 << 20

type Server struct {
	pg          *playground.Playground
	themes      *theme.Handler
	ws          *WSConnectionManager
	log         *logger.Logger
	unsubscribe func()
}

// NewServer wires the HTTP API to a playground. Every bus event is pushed
// to connected WebSocket clients.
func NewServer(pg *playground.Playground, log *logger.Logger) *Server {
	s := &Server{
		pg:     pg,
		themes: theme.NewHandler(pg.Themes()),
		ws:     NewWSConnectionManager(log),
		log:    log.With("component", "api"),
	}
	s.unsubscribe = pg.Bus().Subscribe(s.broadcastEvent)
	return s
}

// Close detaches from the bus and drops every WebSocket client.
func (s *Server) Close() {
	s.unsubscribe()
	s.ws.CloseAll()
}

func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/themes", s.themes.HandleThemes)
	mux.HandleFunc("/api/theme", s.themes.HandleTheme)
	mux.HandleFunc("/api/theme/detect", s.themes.HandleDetect)
	mux.HandleFunc("/api/color", s.handleColor)
	mux.HandleFunc("/api/playground", s.handleState)
	mux.HandleFunc("/api/playground/theme", s.handleSetTheme)
	mux.HandleFunc("/api/playground/css", s.handleSetCSS)
	mux.HandleFunc("/api/playground/variables", s.handleUpdateVariable)
	mux.HandleFunc("/api/playground/dark", s.handleSetDark)
	mux.HandleFunc("/api/playground/component", s.handleSwitchComponent)
	mux.HandleFunc("/api/components", s.handleComponents)
	mux.HandleFunc("/api/components/", s.handleComponentByID)
	mux.HandleFunc("/api/files/", s.handleFiles)
	mux.HandleFunc("/api/cache", s.handleCacheAll)
	mux.HandleFunc("/api/cache/", s.handleCacheEntry)
	mux.HandleFunc("/api/sessions", s.handleSessions)
	mux.HandleFunc("/api/sessions/", s.handleSession)
	mux.HandleFunc("/api/events", s.handleEvents)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok"}
	writeJSON(w, http.StatusOK, resp)
}

// ---------- color ----------

type colorResponse struct {
	Input  string `json:"input"`
	Format string `json:"format"`
	Value  string `json:"value"`
	Hex    string `json:"hex"`
}

func (s *Server) handleColor(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	value := q.Get("value")
	if value == "" {
		http.Error(w, "missing value", http.StatusBadRequest)
		return
	}
	format := color.FormatHex
	if v := q.Get("format"); v != "" {
		f, ok := color.ParseFormat(v)
		if !ok {
			http.Error(w, "invalid format", http.StatusBadRequest)
			return
		}
		format = f
	}

	writeJSON(w, http.StatusOK, colorResponse{
		Input:  value,
		Format: string(format),
		Value:  color.Convert(value, format),
		Hex:    color.Swatch(value),
	})
}

// ---------- playground state ----------

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.pg.State())
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, http.MethodPost, &req) {
		return
	}
	s.pg.SetTheme(req.Name)
	writeJSON(w, http.StatusOK, s.pg.State())
}

func (s *Server) handleSetCSS(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CSS string `json:"css"`
	}
	if !decodeBody(w, r, http.MethodPost, &req) {
		return
	}
	s.pg.SetCustomCSS(req.CSS)
	writeJSON(w, http.StatusOK, s.pg.State())
}

func (s *Server) handleUpdateVariable(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Scope theme.Scope `json:"scope"`
		Key   string      `json:"key"`
		Value string      `json:"value"`
	}
	if !decodeBody(w, r, http.MethodPut, &req) {
		return
	}
	if _, err := s.pg.UpdateVariable(req.Scope, req.Key, req.Value); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.pg.State())
}

func (s *Server) handleSetDark(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Dark bool `json:"dark"`
	}
	if !decodeBody(w, r, http.MethodPost, &req) {
		return
	}
	s.pg.SetDark(req.Dark)
	writeJSON(w, http.StatusOK, s.pg.State())
}

func (s *Server) handleSwitchComponent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if !decodeBody(w, r, http.MethodPost, &req) {
		return
	}
	if err := s.pg.SwitchComponent(req.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.pg.State())
}

// ---------- components ----------

func (s *Server) handleComponents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pg.Catalog().List())
}

func (s *Server) handleComponentByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/components/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	comp, err := s.pg.Catalog().Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comp)
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	component, instance, ok := splitTarget(r.URL.Path, "/api/files/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	project, err := s.pg.Files(component, instance)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// ---------- edit cache ----------

func (s *Server) handleCacheAll(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.pg.Cache().Entries())

	case http.MethodDelete:
		n := s.pg.ClearCache()
		writeJSON(w, http.StatusOK, map[string]int{"cleared": n})

	default:
		w.Header().Set("Allow", http.MethodGet+", "+http.MethodDelete)
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCacheEntry(w http.ResponseWriter, r *http.Request) {
	component, instance, ok := splitTarget(r.URL.Path, "/api/cache/")
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		files, found := s.pg.Cache().Get(component, instance)
		if !found {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, files)

	case http.MethodPut:
		var files model.CachedFiles
		if !decodeBody(w, r, http.MethodPut, &files) {
			return
		}
		if err := s.pg.Store(component, instance, files); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		s.pg.Reset(component, instance)
		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", http.MethodGet+", "+http.MethodPut+", "+http.MethodDelete)
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// ---------- helpers ----------

func (s *Server) broadcastEvent(ev events.Event) {
	s.ws.Broadcast(ev)
}

// splitTarget parses "<prefix><component>[/<instance>]".
func splitTarget(path, prefix string) (component, instance string, ok bool) {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return "", "", false
	}
	component, instance, _ = strings.Cut(rest, "/")
	if strings.Contains(instance, "/") {
		return "", "", false
	}
	return component, instance, true
}

// decodeBody enforces method and decodes a bounded JSON body, replying on
// failure.
func decodeBody(w http.ResponseWriter, r *http.Request, method string, v any) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(v); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if errors.Is(err, editor.ErrClosed) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
