package web

// errors.go maps service errors to JSON responses.
//
// Every error is logged with its technical text and the request ID, and the
// client receives the user message from core.MapError with its code. The
// HTTP status is derived from the code.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/orderenhancer/internal/core"
	"github.com/JonMunkholm/orderenhancer/internal/logging"
)

var errRateLimited = errors.New("rate limit exceeded")

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes the mapped user message.
// A zero statusCode derives the status from the error code.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)
	if statusCode == 0 {
		statusCode = statusFor(userMsg.Code)
	}

	logger := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if statusCode >= http.StatusInternalServerError {
		logger.Error("request error", args...)
	} else {
		logger.Warn("request error", args...)
	}

	respondErrorJSON(w, userMsg, statusCode)
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

// statusFor maps a user message code to an HTTP status.
func statusFor(code string) int {
	switch {
	case code == "FILE001":
		return http.StatusNotFound
	case code == "FILE002", code == "EXP001", strings.HasPrefix(code, "GRID"):
		return http.StatusBadRequest
	case code == "FILE003", code == "FILE004":
		return http.StatusUnprocessableEntity
	case code == "EXP002":
		return http.StatusServiceUnavailable
	case code == "EXP004", code == "DB003":
		return http.StatusGatewayTimeout
	case code == "RATE001":
		return http.StatusTooManyRequests
	case strings.HasPrefix(code, "DB"):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
