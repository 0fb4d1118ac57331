package tracking

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/physiohome/booking-platform/internal/appointments"
	"github.com/physiohome/booking-platform/pkg/logging"
)

// Handler streams tracking updates to the dashboard widget over a websocket.
type Handler struct {
	feed     *Feed
	logger   *logging.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates the websocket tracking handler. checkOrigin decides
// which browser origins may connect; nil allows same-origin only.
func NewHandler(feed *Feed, logger *logging.Logger, checkOrigin func(*http.Request) bool) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		feed:   feed,
		logger: logger.Component("tracking_ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// Stream handles GET /tracking/{id}/ws requests. The stream ends when the
// client disconnects, the appointment leaves the upcoming set, or tracking
// passes beyond the simulator-driven states.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sub, err := h.feed.Subscribe(r.Context(), id)
	if err != nil {
		if errors.Is(err, appointments.ErrNotFound) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		sub.Cancel()
		h.logger.Warn("websocket upgrade failed", "id", id, "error", err)
		return
	}
	defer conn.Close()
	defer sub.Cancel()

	// Read pump: drain client frames so close frames are processed, and
	// cancel the subscription the moment the peer goes away.
	go func() {
		defer sub.Cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for tr := range sub.Updates {
		if err := conn.WriteJSON(tr); err != nil {
			h.logger.Debug("websocket write failed", "id", id, "error", err)
			return
		}
	}
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "tracking ended"))
}
