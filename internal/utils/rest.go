package utils

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the envelope for every error body the API returns.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RespondWithError writes message as a JSON error envelope with the given
// status code.
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Error: message})
}

// RespondWithJSON marshals payload and writes it with the given status code.
// Marshalling happens before the header is written so an encoding failure can
// still produce a 500.
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, err = w.Write(body)
	return err
}
