package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"hrops/internal/platform/requestctx"
)

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta accompanies list payloads.
type Meta struct {
	Total       int `json:"total"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
}

type Envelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Data      any    `json:"data,omitempty"`
	Meta      *Meta  `json:"meta,omitempty"`
	Error     *Error `json:"error,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("write json failed", "err", err)
	}
}

func requestID(r *http.Request) string {
	return requestctx.GetRequestID(r.Context())
}

func Success(w http.ResponseWriter, r *http.Request, data any) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data, RequestID: requestID(r)})
}

func SuccessMessage(w http.ResponseWriter, r *http.Request, message string, data any) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data, RequestID: requestID(r)})
}

func Created(w http.ResponseWriter, r *http.Request, data any) {
	WriteJSON(w, http.StatusCreated, Envelope{Success: true, Data: data, RequestID: requestID(r)})
}

func CreatedMessage(w http.ResponseWriter, r *http.Request, message string, data any) {
	WriteJSON(w, http.StatusCreated, Envelope{Success: true, Message: message, Data: data, RequestID: requestID(r)})
}

// Paginated writes a list payload with total/totalPages/currentPage meta.
// page is 1-based.
func Paginated(w http.ResponseWriter, r *http.Request, data any, total, page, limit int) {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	WriteJSON(w, http.StatusOK, Envelope{
		Success:   true,
		Data:      data,
		Meta:      &Meta{Total: total, TotalPages: totalPages, CurrentPage: page},
		RequestID: requestID(r),
	})
}

func Fail(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	WriteJSON(w, status, Envelope{Success: false, Error: &Error{Code: code, Message: message}, RequestID: requestID(r)})
}

func FailWithDetails(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	WriteJSON(w, status, Envelope{Success: false, Data: details, Error: &Error{Code: code, Message: message}, RequestID: requestID(r)})
}
