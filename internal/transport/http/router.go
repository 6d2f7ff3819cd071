package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"circuit-court/internal/trial"
	"circuit-court/internal/ws"
)

// NewRouter wires the health check, the WebSocket gateway and the read-only
// public API.
func NewRouter(st *trial.Store, gateway *ws.Server) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", healthHandler())

	// The gateway upgrade stays outside the request logger: the connection
	// is long-lived and the logger would only ever see the hijack.
	r.Get("/ws", gateway.HandleWS)

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Get("/public/sessions", listSessionsHandler(st))
		r.Get("/public/sessions/{join_code}", sessionDetailHandler(st))
	})
	return r
}

func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}
}
