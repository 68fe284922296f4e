package httpapi

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.requestLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/users", s.listAccounts)
	r.Post("/users", s.createAccount)
	r.Get("/users/{id}", s.getAccount)
	r.Head("/users/{id}", s.accountExists)
	r.Put("/users/{id}", s.togglePresence)
	r.Put("/users/{id}/username", s.updateUsername)
	r.Put("/users/{id}/birthday", s.updateBirthday)

	r.Get("/users_name/{username}", s.getAccountByUsername)
	r.Put("/users_name/{username}", s.login)

	return r
}
