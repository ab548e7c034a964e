package handlers

import (
	"encoding/json"
	"net/http"
)

// envelope is the uniform response wrapper for every RPC answer
type envelope struct {
	Success bool        `json:"success"`
	Status  int         `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Error   *errBody    `json:"error,omitempty"`
}

type errBody struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// respondJSON writes a success envelope
func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(envelope{
		Success: true,
		Status:  http.StatusOK,
		Data:    data,
	})
}

// respondError writes a failure envelope with the given status
func respondError(w http.ResponseWriter, status int, message, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{
		Success: false,
		Status:  status,
		Error:   &errBody{Message: message, Detail: detail},
	})
}
