package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"circuit-court/internal/trial"
)

// listSessionsHandler returns a summary of every live session, without
// transcripts.
func listSessionsHandler(st *trial.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions := st.List()
		views := make([]trial.View, 0, len(sessions))
		for _, s := range sessions {
			views = append(views, s.Snapshot(false))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"sessions": views})
	}
}

func sessionDetailHandler(st *trial.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := st.Get(chi.URLParam(r, "join_code"))
		if err != nil {
			WriteHTTPError(w, http.StatusNotFound, "session_not_found")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s.Snapshot(true))
	}
}

func WriteHTTPError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": code})
}
