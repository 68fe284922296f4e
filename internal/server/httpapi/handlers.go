package httpapi

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/userdir/internal/server/services"
)

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Warn(r.Context(), "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// GET /users
func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	all, err := s.dir.ListAll(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewsOf(all))
}

// POST /users
func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Username == "" {
		s.writeError(w, r, errNoUsername)
		return
	}

	acc, err := s.dir.Create(r.Context(), services.Candidate{
		Username: req.Username,
		Password: req.Password,
		Birthday: req.Birthday,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/users/%d", acc.ID))
	writeJSON(w, http.StatusCreated, viewOf(acc))
}

// GET /users/{id}
func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	acc, err := s.dir.FindByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(acc))
}

// HEAD /users/{id}
func (s *Server) accountExists(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		w.WriteHeader(statusFor(err))
		return
	}

	if err := s.dir.RequireExists(r.Context(), id); err != nil {
		w.WriteHeader(statusFor(err))
		return
	}
	w.WriteHeader(http.StatusOK)
}

// GET /users_name/{username}
func (s *Server) getAccountByUsername(w http.ResponseWriter, r *http.Request) {
	username, err := pathUsername(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	acc, err := s.dir.FindByUsername(r.Context(), username)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(acc))
}

// PUT /users/{id}
func (s *Server) togglePresence(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.dir.TogglePresence(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PUT /users/{id}/username
func (s *Server) updateUsername(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	username, err := decodeUsername(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.dir.UpdateUsername(r.Context(), id, username); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PUT /users/{id}/birthday
func (s *Server) updateBirthday(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	birthday, err := decodeBirthday(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.dir.UpdateBirthday(r.Context(), id, birthday); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PUT /users_name/{username}
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	username, err := pathUsername(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	acc, err := s.dir.Login(r.Context(), username, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(acc))
}
