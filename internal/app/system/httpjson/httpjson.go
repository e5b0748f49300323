// Package httpjson holds the small request/response helpers shared by all
// API handlers: decode a JSON body with a size cap, write a JSON value, and
// write the uniform error envelope {"error": "..."}.
package httpjson

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Request bodies larger than this are rejected outright.
const maxBodyBytes = 1 << 20 // 1 MiB

// Decode reads the request body into dst, rejecting unknown fields and
// oversized payloads.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	// A second value means trailing garbage after the JSON document.
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// Write serializes v as JSON with the given status code.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes the uniform error envelope.
func Error(w http.ResponseWriter, status int, msg string) {
	Write(w, status, map[string]string{"error": msg})
}

// BadRequest is a shorthand for a 400 with a message.
func BadRequest(w http.ResponseWriter, msg string) {
	Error(w, http.StatusBadRequest, msg)
}

// Unprocessable reports a validation failure (well-formed request, invalid
// content).
func Unprocessable(w http.ResponseWriter, msg string) {
	Error(w, http.StatusUnprocessableEntity, msg)
}

// ServerError hides internal detail from clients; the handler logs the
// underlying error.
func ServerError(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, "internal error")
}
