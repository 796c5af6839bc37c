package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"mydrive/internal/auth"
	"mydrive/internal/domain"
	"mydrive/internal/service"
)

const maxUploadMemory = 100 << 20 // 100MB

type FileHandler struct {
	fileService *service.FileService
	tokens      *auth.TokenIssuer
}

func NewFileHandler(fileService *service.FileService, tokens *auth.TokenIssuer) *FileHandler {
	return &FileHandler{
		fileService: fileService,
		tokens:      tokens,
	}
}

// UploadResult представляет результат загрузки одного файла
type UploadResult struct {
	Name  string       `json:"name"`
	File  *domain.File `json:"file,omitempty"`
	Error string       `json:"error,omitempty"`
}

// MultiUploadResponse представляет ответ на множественную загрузку
type MultiUploadResponse struct {
	Results []UploadResult `json:"results"`
}

// parseDirectoryID читает необязательный directory_id из формы
func parseDirectoryID(r *http.Request) (*int64, error) {
	raw := r.FormValue("directory_id")
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid directory ID: %w", err)
	}
	return &id, nil
}

// UploadFile обрабатывает загрузку одного или нескольких файлов в папку
func (h *FileHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	userID, err := h.tokens.VerifyToken(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	directoryID, err := parseDirectoryID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		http.Error(w, "No files uploaded", http.StatusBadRequest)
		return
	}

	results := make([]UploadResult, 0, len(files))
	for _, fileHeader := range files {
		part, err := fileHeader.Open()
		if err != nil {
			results = append(results, UploadResult{Name: fileHeader.Filename, Error: err.Error()})
			continue
		}

		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			results = append(results, UploadResult{Name: fileHeader.Filename, Error: err.Error()})
			continue
		}

		uploaded, err := h.fileService.Upload(
			r.Context(),
			userID,
			directoryID,
			fileHeader.Filename,
			fileHeader.Header.Get("Content-Type"),
			data,
		)
		if err != nil {
			log.Printf("[UploadFile] %q failed for user %d: %v", fileHeader.Filename, userID, err)
			results = append(results, UploadResult{Name: fileHeader.Filename, Error: err.Error()})
			continue
		}

		results = append(results, UploadResult{Name: uploaded.Name, File: uploaded})
	}

	writeJSON(w, http.StatusOK, MultiUploadResponse{Results: results})
}

// UploadFolder обрабатывает загрузку дерева файлов. Относительный путь
// каждой части берётся из одноимённого поля relative_paths; если поле
// не передано, путём считается имя файла из multipart-заголовка.
func (h *FileHandler) UploadFolder(w http.ResponseWriter, r *http.Request) {
	userID, err := h.tokens.VerifyToken(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	directoryID, err := parseDirectoryID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		http.Error(w, "No files uploaded", http.StatusBadRequest)
		return
	}
	paths := r.MultipartForm.Value["relative_paths"]

	entries := make([]domain.FolderEntry, 0, len(files))
	for i, fileHeader := range files {
		relativePath := fileHeader.Filename
		if i < len(paths) && paths[i] != "" {
			relativePath = paths[i]
		}

		part, err := fileHeader.Open()
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to read %s", fileHeader.Filename), http.StatusBadRequest)
			return
		}

		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to read %s", fileHeader.Filename), http.StatusBadRequest)
			return
		}

		entries = append(entries, domain.FolderEntry{
			RelativePath: relativePath,
			MIMEType:     fileHeader.Header.Get("Content-Type"),
			Data:         data,
		})
	}

	folderResults, err := h.fileService.UploadFolder(r.Context(), userID, directoryID, entries)
	if err != nil {
		writeError(w, err)
		return
	}

	results := make([]UploadResult, 0, len(folderResults))
	for _, fr := range folderResults {
		result := UploadResult{Name: fr.RelativePath, File: fr.File}
		if fr.Err != nil {
			result.Error = fr.Err.Error()
		}
		results = append(results, result)
	}

	writeJSON(w, http.StatusOK, MultiUploadResponse{Results: results})
}

// DownloadFile отдаёт содержимое файла
func (h *FileHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	userID, err := h.tokens.VerifyToken(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	fileID, err := uuid.Parse(chi.URLParam(r, "fileID"))
	if err != nil {
		http.Error(w, "Invalid file ID", http.StatusBadRequest)
		return
	}

	download, err := h.fileService.Download(r.Context(), userID, fileID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", download.File.MIMEType)
	w.Header().Set("Content-Length", strconv.FormatInt(download.File.SizeBytes, 10))
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(download.File.Name)))

	if _, err := w.Write(download.Data); err != nil {
		log.Printf("[DownloadFile] failed to write response for %s: %v", fileID, err)
	}
}

type renameRequest struct {
	NewName string `json:"new_name"`
}

// RenameFile меняет имя файла
func (h *FileHandler) RenameFile(w http.ResponseWriter, r *http.Request) {
	userID, err := h.tokens.VerifyToken(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	fileID, err := uuid.Parse(chi.URLParam(r, "fileID"))
	if err != nil {
		http.Error(w, "Invalid file ID", http.StatusBadRequest)
		return
	}

	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.fileService.Rename(r.Context(), userID, fileID, req.NewName); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "renamed"})
}

// DeleteFile удаляет файл и освобождает квоту
func (h *FileHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	userID, err := h.tokens.VerifyToken(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	fileID, err := uuid.Parse(chi.URLParam(r, "fileID"))
	if err != nil {
		http.Error(w, "Invalid file ID", http.StatusBadRequest)
		return
	}

	if err := h.fileService.Delete(r.Context(), userID, fileID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
