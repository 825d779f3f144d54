package middleware

import (
	"encoding/json"
	"net/http"
)

type messageBody struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

func writeMessage(w http.ResponseWriter, status int, msg string, details ...string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(messageBody{Message: msg, Details: details})
}
