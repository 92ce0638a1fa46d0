package web

import (
	"context"
	"net/http"
	"time"
)

// HealthResponse reports store reachability.
type HealthResponse struct {
	OK        bool      `json:"ok"`
	Timestamp time.Time `json:"timestamp"`
	Uploads   int       `json:"active_uploads"`
}

// handleHealth pings the store with a short timeout. 503 when unreachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := HealthResponse{
		OK:        true,
		Timestamp: time.Now().UTC(),
		Uploads:   s.service.UploadStatus().Active,
	}

	status := http.StatusOK
	if err := s.service.Ping(ctx); err != nil {
		resp.OK = false
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
