// Package httpx provides JSON response utilities shared by all HTTP handlers.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/kirana-pos/kirana/internal/shared"
)

// Envelope is the standard success response body.
type Envelope struct {
	Success    bool               `json:"success"`
	Data       any                `json:"data,omitempty"`
	Message    string             `json:"message,omitempty"`
	Pagination *shared.Pagination `json:"pagination,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorEnvelope is the standard error response body.
type ErrorEnvelope struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// OK sends a success envelope with data.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// Created sends a success envelope with 201 status.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, Envelope{Success: true, Data: data})
}

// OKMessage sends a success acknowledgement without data.
func OKMessage(w http.ResponseWriter, message string) {
	JSON(w, http.StatusOK, Envelope{Success: true, Message: message})
}

// OKPage sends a success envelope with data and pagination metadata.
func OKPage(w http.ResponseWriter, data any, p shared.Pagination) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data, Pagination: &p})
}

// DecodeJSON decodes a JSON request body into the target struct. Fields not
// declared on the target are rejected, not silently dropped.
func DecodeJSON(r *http.Request, target any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}
