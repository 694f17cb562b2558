package core

import (
	"encoding/json"
	"net/http"

	"prison-events/internal/types"
)

// errorResponse is the envelope for all error responses.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JSON writes a JSON response with the given status code and body.
func JSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(errorResponse{Error: errorDetail{
			Code:    string(types.ErrCodeInternalUnexpected),
			Message: "failed to marshal response",
		}})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// Error writes a structured error response.
func Error(w http.ResponseWriter, status int, code types.ErrorCode, message string) {
	JSON(w, status, errorResponse{Error: errorDetail{
		Code:    string(code),
		Message: message,
	}})
}
