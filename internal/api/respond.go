package api

import (
	"encoding/json"
	"net/http"

	"fitsync/internal/errs"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Type   string `json:"type"`
	Detail string `json:"detail"`
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, ErrorResponse{Type: code, Detail: detail})
}

// writeServiceError maps a service failure onto a status code: not found
// is 404, upstream timeouts 504, unreachable upstreams 502 and everything
// else, auth failures included, 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := errs.HTTPStatus(err)
	code := errs.Code(err)
	h.logger.Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"kind", errs.KindOf(err).String(),
		"error", err,
	)

	detail := err.Error()
	if code == "auth_failure" {
		detail = "Auth failure"
	}
	writeError(w, status, code, detail)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
