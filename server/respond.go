package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nettee/synphora/artifact"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// writeStoreError maps a store failure to a response. Only not-found is
// reported as such; other failures are logged and hidden behind a 500.
func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, artifact.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Artifact not found")
		return
	}
	s.log.Error("artifact store failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}

// maxBodyBytes bounds JSON bodies and uploads.
const maxBodyBytes = 10 << 20
