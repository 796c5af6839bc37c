package handler

import (
	"net/http"

	"mydrive/internal/auth"
	"mydrive/internal/service"
)

type UserHandler struct {
	userService  *service.UserService
	quotaService *service.QuotaService
	tokens       *auth.TokenIssuer
}

func NewUserHandler(
	userService *service.UserService,
	quotaService *service.QuotaService,
	tokens *auth.TokenIssuer,
) *UserHandler {
	return &UserHandler{
		userService:  userService,
		quotaService: quotaService,
		tokens:       tokens,
	}
}

// Me возвращает профиль текущего пользователя
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := h.tokens.VerifyToken(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// GetQuota возвращает сводку по занятому месту
func (h *UserHandler) GetQuota(w http.ResponseWriter, r *http.Request) {
	userID, err := h.tokens.VerifyToken(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	info, err := h.quotaService.GetQuotaInfo(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, info)
}
