package theme

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// maxDetectBody bounds the CSS accepted by HandleDetect.
const maxDetectBody = 1 << 20

// Handler handles theme-related HTTP requests.
type Handler struct {
	registry *Registry
}

// NewHandler creates a new theme handler.
func NewHandler(registry *Registry) *Handler {
	return &Handler{
		registry: registry,
	}
}

// HandleTheme serves the generated CSS for ?name=, falling back to the
// default theme.
func (h *Handler) HandleTheme(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		name = DefaultTheme
	}

	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = io.WriteString(w, h.registry.CSS(name))
}

// StyleSummary is the list entry returned by HandleThemes.
type StyleSummary struct {
	Name     string   `json:"name"`
	Display  string   `json:"display"`
	Swatches Swatches `json:"swatches"`
}

// Summaries lists every style with its display label and swatches.
func (h *Handler) Summaries() []StyleSummary {
	styles := h.registry.Styles()
	out := make([]StyleSummary, 0, len(styles))
	for _, s := range styles {
		display := s.Label
		if display == "" || display == s.Name {
			display = displayName(s.Name)
		}
		out = append(out, StyleSummary{
			Name:     s.Name,
			Display:  display,
			Swatches: PreviewOf(s.CSSVars),
		})
	}
	return out
}

// HandleThemes returns the available styles.
func (h *Handler) HandleThemes(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if err := json.NewEncoder(w).Encode(h.Summaries()); err != nil {
		http.Error(w, "failed to encode themes", http.StatusInternalServerError)
		return
	}
}

// HandleDetect reads CSS from the request body and reports the matching
// style name.
func (h *Handler) HandleDetect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxDetectBody))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"theme": h.registry.Detect(string(body))})
}

// displayName turns "rose-quartz" into "Rose Quartz".
func displayName(name string) string {
	parts := strings.Split(name, "-")
	for i, part := range parts {
		if len(part) > 0 {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, " ")
}
