package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/theirongolddev/afkmon/internal/apperr"
	"github.com/theirongolddev/afkmon/internal/logging"
)

type successEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type errorEnvelope struct {
	Success bool           `json:"success"`
	Error   string         `json:"error"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, successEnvelope{Success: true, Data: data})
}

// statusFor maps an error kind to its HTTP status.
func statusFor(k apperr.Kind) int {
	switch k {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConnection:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Service) writeError(w http.ResponseWriter, r *http.Request, err error) {
	env := errorEnvelope{Error: "internal server error", Code: apperr.CodeInternal}

	var ae *apperr.Error
	if errors.As(err, &ae) {
		env.Error = ae.Message
		env.Code = ae.Code
		env.Details = ae.Details
	}

	status := statusFor(apperr.KindOf(err))
	log := logging.FromContext(r.Context(), s.log)
	if status >= http.StatusInternalServerError {
		log.Error(err, "request failed", "method", r.Method, "path", r.URL.Path)
	} else {
		log.V(1).Info("request rejected", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	}

	writeJSON(w, status, env)
}
