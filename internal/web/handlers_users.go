package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/crudimport/internal/core"
)

// handleListUsers returns every user ordered by id.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.service.ListUsers(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in core.CreateUserInput
	if err := decodeJSON(r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}

	u, err := s.service.CreateUser(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// handleUpdateUser applies a partial update; omitted fields are unchanged.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var patch core.UserPatch
	if err := decodeJSON(r, &patch); err != nil {
		s.respondError(w, r, err)
		return
	}

	u, err := s.service.UpdateUser(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.service.DeleteUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
