package httpapi

import (
	"encoding/json"
	"net/http"
)

// Result envelope around every JSON body. Code repeats the HTTP status.
type Result[T any] struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Result  T      `json:"result"`
}

const (
	resultTypeSuccess = "success"
	resultTypeError   = "error"
)

func respond[T any](w http.ResponseWriter, status int, result T) {
	writeJSON(w, status, Result[T]{
		Code:    status,
		Type:    resultTypeSuccess,
		Message: http.StatusText(status),
		Result:  result,
	})
}

func respondError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Result[any]{
		Code:    status,
		Type:    resultTypeError,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
