// Package httpjson provides the uniform JSON response helpers every HTTP
// controller in the marketplace writes through.
package httpjson

import (
	"encoding/json"
	"net/http"
)

// errorBody is the wire shape of WriteError's response.
type errorBody struct {
	Error string `json:"error"`
}

// WriteJSON writes v as a JSON body with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a {"error": msg} body with the given status code.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, errorBody{Error: msg})
}
