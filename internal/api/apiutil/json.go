package apiutil

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

const maxRequestBodyBytes = 1 << 20

// DecodeJSON reads a bounded JSON request body into dst, rejecting
// unknown fields.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		WriteError(w, r, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// WriteJSON serializes v with the given status.
func WriteJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write JSON response")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// WriteError writes a JSON error envelope.
func WriteError(w http.ResponseWriter, r *http.Request, status int, message string) {
	WriteJSON(w, r, status, errorResponse{Error: message})
}
