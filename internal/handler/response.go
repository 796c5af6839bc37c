package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"mydrive/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[HTTP] failed to encode response: %v", err)
	}
}

// writeError переводит доменные ошибки в HTTP-статусы. Неопознанная
// ошибка логируется целиком, наружу уходит только общий текст.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, domain.ErrAccessDenied):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "access denied"})
	case errors.Is(err, domain.ErrQuotaExceeded):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "storage quota exceeded"})
	case errors.Is(err, domain.ErrDuplicateName):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "name already exists"})
	case errors.Is(err, domain.ErrDuplicateShare):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "already shared with this user"})
	case errors.Is(err, domain.ErrUserExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "user already exists"})
	case errors.Is(err, domain.ErrSelfShare):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "cannot share with yourself"})
	case errors.Is(err, domain.ErrUnknownUser):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown user"})
	case errors.Is(err, domain.ErrRootDirectory):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "operation not allowed on root directory"})
	case errors.Is(err, domain.ErrInvalidName):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid name"})
	case errors.Is(err, domain.ErrInvalidPath):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid relative path"})
	case errors.Is(err, domain.ErrIntegrity):
		log.Printf("[HTTP] integrity error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	default:
		log.Printf("[HTTP] internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
