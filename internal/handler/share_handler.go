package handler

import (
	"encoding/json"
	"net/http"

	"mydrive/internal/auth"
	"mydrive/internal/domain"
	"mydrive/internal/service"
)

type ShareHandler struct {
	shareService *service.ShareService
	tokens       *auth.TokenIssuer
}

func NewShareHandler(shareService *service.ShareService, tokens *auth.TokenIssuer) *ShareHandler {
	return &ShareHandler{
		shareService: shareService,
		tokens:       tokens,
	}
}

type shareRequest struct {
	ItemType   domain.ItemType        `json:"item_type"`
	ItemID     string                 `json:"item_id"`
	Username   string                 `json:"username"`
	Permission domain.PermissionLevel `json:"permission"`
}

// ShareItem выдаёт грант на файл или папку
func (h *ShareHandler) ShareItem(w http.ResponseWriter, r *http.Request) {
	userID, err := h.tokens.VerifyToken(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req shareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	item, err := h.shareService.ShareItem(
		r.Context(),
		userID,
		req.ItemType,
		req.ItemID,
		req.Username,
		req.Permission,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, item)
}

// SharedWithMe возвращает гранты, выданные текущему пользователю
func (h *ShareHandler) SharedWithMe(w http.ResponseWriter, r *http.Request) {
	userID, err := h.tokens.VerifyToken(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	items, err := h.shareService.SharedWithMe(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, items)
}

// SharedByMe возвращает гранты, выданные текущим пользователем
func (h *ShareHandler) SharedByMe(w http.ResponseWriter, r *http.Request) {
	userID, err := h.tokens.VerifyToken(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	items, err := h.shareService.SharedByMe(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, items)
}

// Revoke отзывает выданный грант
func (h *ShareHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	userID, err := h.tokens.VerifyToken(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	shareID, err := parsePathID(r, "shareID")
	if err != nil {
		http.Error(w, "Invalid share ID", http.StatusBadRequest)
		return
	}

	if err := h.shareService.Revoke(r.Context(), userID, shareID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}
