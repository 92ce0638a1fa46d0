package web

import (
	"net/http"
)

// handleUsersPage renders the users table. Edits and deletes are sent from
// the page to the JSON API.
func (s *Server) handleUsersPage(w http.ResponseWriter, r *http.Request) {
	users, err := s.service.ListUsers(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := usersPage(users).Render(r.Context(), w); err != nil {
		s.respondError(w, r, err)
	}
}
