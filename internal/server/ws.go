package server

import (
	"net/http"

	"github.com/massmedia0301/instakoo-place/internal/logging"
)

// handleListingWS streams stage events for one listing analysis. The client
// connects with ?url=<listing url> and receives one JSON message per stage;
// the final message is either the done event carrying the full diagnosis or a
// failed event carrying the user-facing error.
func (s *Server) handleListingWS(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	ctx := r.Context()

	for ev := range s.orchestrator.StartListingAnalysis(ctx, url) {
		if err := conn.WriteJSON(ev); err != nil {
			// Client disconnected; r.Context cancellation tears the
			// analysis down and emits never block, so just leave.
			s.logger.Debug("websocket client gone",
				logging.Field{Key: "error", Value: err.Error()})
			return
		}
	}
}
