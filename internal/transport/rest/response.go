package rest

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"duestrack/internal/domain"
)

type APIResponse struct {
	ErrorCode int         `json:"error_code"`
	Status    string      `json:"status"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
}

func Response(w http.ResponseWriter, message string, data interface{}, errorCode int, status string, httpStatus int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	response := APIResponse{
		ErrorCode: errorCode,
		Status:    status,
		Message:   message,
		Data:      data,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("[HTTP] write response error: %v", err)
	}
}

func Success(w http.ResponseWriter, message string, data interface{}) {
	Response(w, message, data, 0, "success", http.StatusOK)
}

func SuccessCreated(w http.ResponseWriter, message string, data interface{}) {
	Response(w, message, data, 0, "success", http.StatusCreated)
}

func Error(w http.ResponseWriter, message string, errorCode int, httpStatus int) {
	Response(w, message, nil, errorCode, "error", httpStatus)
}

func ErrorBadRequest(w http.ResponseWriter, message string) {
	Error(w, message, 400, http.StatusBadRequest)
}

func ErrorUnauthorized(w http.ResponseWriter, message string) {
	Error(w, message, 401, http.StatusUnauthorized)
}

func ErrorForbidden(w http.ResponseWriter, message string) {
	Error(w, message, 403, http.StatusForbidden)
}

func ErrorNotFound(w http.ResponseWriter, message string) {
	Error(w, message, 404, http.StatusNotFound)
}

func ErrorConflict(w http.ResponseWriter, message string) {
	Error(w, message, 409, http.StatusConflict)
}

func ErrorInternal(w http.ResponseWriter, message string) {
	Error(w, message, 500, http.StatusInternalServerError)
}

// ErrorFrom maps the core error taxonomy onto HTTP statuses. Anything
// outside the taxonomy is a 500 with a generic message; the detail goes to
// the log, not the client.
func ErrorFrom(w http.ResponseWriter, err error) {
	var (
		verr *domain.ValidationError
		aerr *domain.AuthorizationError
		perr *domain.PreconditionError
		nerr *domain.NotFoundError
	)

	switch {
	case errors.As(err, &verr):
		ErrorBadRequest(w, verr.Error())
	case errors.As(err, &aerr):
		ErrorForbidden(w, authMessage(aerr.Reason))
	case errors.As(err, &perr):
		ErrorConflict(w, perr.Error())
	case errors.As(err, &nerr):
		ErrorNotFound(w, nerr.Error())
	default:
		log.Printf("[HTTP] internal error: %v", err)
		ErrorInternal(w, "internal error")
	}
}

func authMessage(reason string) string {
	switch reason {
	case "cross-department":
		return "not allowed for another department"
	case "role-insufficient":
		return "your role does not permit this action"
	default:
		return "forbidden"
	}
}
