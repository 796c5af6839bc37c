package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"mydrive/internal/auth"
	"mydrive/internal/service"
)

type DirectoryHandler struct {
	directoryService *service.DirectoryService
	tokens           *auth.TokenIssuer
}

func NewDirectoryHandler(directoryService *service.DirectoryService, tokens *auth.TokenIssuer) *DirectoryHandler {
	return &DirectoryHandler{
		directoryService: directoryService,
		tokens:           tokens,
	}
}

func parsePathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

type createDirectoryRequest struct {
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id"`
}

// CreateDirectory создаёт папку (в корне, если parent_id не указан)
func (h *DirectoryHandler) CreateDirectory(w http.ResponseWriter, r *http.Request) {
	userID, err := h.tokens.VerifyToken(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req createDirectoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	dir, err := h.directoryService.Create(r.Context(), userID, req.ParentID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dir)
}

// GetRoot возвращает содержимое корневой папки пользователя
func (h *DirectoryHandler) GetRoot(w http.ResponseWriter, r *http.Request) {
	userID, err := h.tokens.VerifyToken(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	root, err := h.directoryService.GetRoot(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	content, err := h.directoryService.GetContent(r.Context(), userID, root.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, content)
}

// GetContent возвращает папку с подпапками и файлами
func (h *DirectoryHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	userID, err := h.tokens.VerifyToken(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	directoryID, err := parsePathID(r, "directoryID")
	if err != nil {
		http.Error(w, "Invalid directory ID", http.StatusBadRequest)
		return
	}

	content, err := h.directoryService.GetContent(r.Context(), userID, directoryID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, content)
}

// GetPath возвращает полный путь папки от корня
func (h *DirectoryHandler) GetPath(w http.ResponseWriter, r *http.Request) {
	userID, err := h.tokens.VerifyToken(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	directoryID, err := parsePathID(r, "directoryID")
	if err != nil {
		http.Error(w, "Invalid directory ID", http.StatusBadRequest)
		return
	}

	// Путь раскрывает имена папок-предков, поэтому требует тех же прав,
	// что и просмотр содержимого
	if _, err := h.directoryService.GetContent(r.Context(), userID, directoryID); err != nil {
		writeError(w, err)
		return
	}

	path, err := h.directoryService.FullPath(r.Context(), directoryID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

// RenameDirectory меняет имя папки
func (h *DirectoryHandler) RenameDirectory(w http.ResponseWriter, r *http.Request) {
	userID, err := h.tokens.VerifyToken(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	directoryID, err := parsePathID(r, "directoryID")
	if err != nil {
		http.Error(w, "Invalid directory ID", http.StatusBadRequest)
		return
	}

	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.directoryService.Rename(r.Context(), userID, directoryID, req.NewName); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "renamed"})
}

// DeleteDirectory удаляет папку со всем содержимым
func (h *DirectoryHandler) DeleteDirectory(w http.ResponseWriter, r *http.Request) {
	userID, err := h.tokens.VerifyToken(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	directoryID, err := parsePathID(r, "directoryID")
	if err != nil {
		http.Error(w, "Invalid directory ID", http.StatusBadRequest)
		return
	}

	if err := h.directoryService.Delete(r.Context(), userID, directoryID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
