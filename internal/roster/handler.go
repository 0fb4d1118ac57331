package roster

import (
	"encoding/json"
	"net/http"
)

// Handler serves the therapist roster.
type Handler struct {
	resolver *Resolver
}

// NewHandler creates a roster handler.
func NewHandler(resolver *Resolver) *Handler {
	if resolver == nil {
		resolver = NewResolver(nil)
	}
	return &Handler{resolver: resolver}
}

// List handles GET /roster requests.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"therapists": h.resolver.Roster(),
	})
}
