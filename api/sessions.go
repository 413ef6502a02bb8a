package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"

	"tweakplay/editcache"
	"tweakplay/editor"
	"tweakplay/model"
)

type sessionResponse struct {
	Component  string            `json:"component"`
	Instance   string            `json:"instance"`
	Status     editor.Status     `json:"status"`
	HasChanges bool              `json:"hasChanges"`
	Files      model.CachedFiles `json:"files,omitempty"`
}

func newSessionResponse(s *editor.Session, withFiles bool) sessionResponse {
	resp := sessionResponse{
		Component:  s.Component(),
		Instance:   s.Instance(),
		Status:     s.Status(),
		HasChanges: s.HasChanges(),
	}
	if withFiles {
		resp.Files = s.Files()
	}
	return resp
}

// saveSession is the hook of sessions opened over HTTP. The files are
// already persisted by the session itself.
func (s *Server) saveSession(component, instance string) editor.SaveFunc {
	return func(_ context.Context, files model.CachedFiles) error {
		size := 0
		for _, f := range files {
			size += len(f.Code)
		}
		s.log.WithFields(map[string]any{
			"target": component + "/" + instance,
			"files":  len(files),
			"size":   humanize.Bytes(uint64(size)),
		}).Info("session saved")
		return nil
	}
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	out := make([]sessionResponse, 0)
	for _, key := range s.pg.Sessions() {
		component, instance, _ := strings.Cut(key, "/")
		if sess, ok := s.pg.Session(component, instance); ok {
			out = append(out, newSessionResponse(sess, false))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleSession serves "/api/sessions/<component>[/<instance>]" and the
// actions "/api/sessions/<component>/<instance>/{save,reset}".
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/sessions/"), "/"), "/")
	if parts[0] == "" || len(parts) > 3 {
		http.NotFound(w, r)
		return
	}
	component := parts[0]
	var instance string
	if len(parts) > 1 {
		instance = parts[1]
	}
	if len(parts) == 3 {
		s.handleSessionAction(w, r, component, instance, parts[2])
		return
	}

	if r.Method == http.MethodPost {
		if instance == "" {
			instance = editcache.DefaultInstance
		}
		sess, err := s.pg.OpenSession(component, instance, s.saveSession(component, instance))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newSessionResponse(sess, true))
		return
	}

	sess, ok := s.pg.Session(component, instance)
	if !ok {
		http.Error(w, "session not open", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, newSessionResponse(sess, true))

	case http.MethodPatch:
		var req struct {
			Path string `json:"path"`
			Code string `json:"code"`
		}
		if !decodeBody(w, r, http.MethodPatch, &req) {
			return
		}
		if req.Path == "" {
			http.Error(w, "missing path", http.StatusBadRequest)
			return
		}
		if err := sess.Edit(req.Path, req.Code); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newSessionResponse(sess, false))

	case http.MethodPut:
		var files model.CachedFiles
		if !decodeBody(w, r, http.MethodPut, &files) {
			return
		}
		if err := sess.Replace(files); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newSessionResponse(sess, false))

	case http.MethodDelete:
		s.pg.CloseSession(component, instance)
		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", strings.Join([]string{
			http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete,
		}, ", "))
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSessionAction(w http.ResponseWriter, r *http.Request, component, instance, action string) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := s.pg.Session(component, instance)
	if !ok {
		http.Error(w, "session not open", http.StatusNotFound)
		return
	}

	switch action {
	case "save":
		if err := sess.Save(r.Context()); err != nil {
			writeError(w, err)
			return
		}
	case "reset":
		sess.Reset()
	default:
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess, true))
}
