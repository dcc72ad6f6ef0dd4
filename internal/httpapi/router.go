package httpapi

import (
	"net/http"

	"github.com/authcore-dev/authd/internal/admin"
	"github.com/authcore-dev/authd/internal/issuer"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// Server holds the dependencies behind authd's HTTP surface: token
// issuance and the administrative JSON-RPC-style endpoints.
type Server struct {
	Issuer *issuer.Handler
	Admin  *admin.Handlers
}

// Routes wires authd's full HTTP surface behind the standard
// middleware stack: request ID, real IP, correlation ID, structured
// request logging, and panic recovery.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(CorrelationMiddleware)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Post("/oauth/token", s.Issuer.ServeHTTP)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/internal.createWorkspace", s.Admin.CreateWorkspace)
		r.Post("/internal.createRootClient", s.Admin.CreateRootClient)

		r.Post("/apis.createApi", s.Admin.CreateAPI)

		r.Post("/clients.createClient", s.Admin.CreateClient)
		r.Get("/clients.getClient", s.Admin.GetClient)
		r.Post("/clients.rotateSecret", s.Admin.RotateSecret)

		r.Post("/tokens.verifyToken", s.Admin.VerifyToken)
	})

	log.Info().Msg("HTTP routes registered")
	return r
}
