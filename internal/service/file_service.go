package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"

	"mydrive/internal/domain"
	"mydrive/internal/service/s3"
)

const (
	maxFileSize = 100 * 1024 * 1024 // 100MB максимальный размер файла
)

var errBlobStore = errors.New("blob storage operation failed")

// FileService связывает метаданные файлов, блоб-хранилище и квоту.
// Порядок загрузки: резерв квоты → запись блоба → запись метаданных;
// любой сбой после резерва компенсируется обратным Release.
type FileService struct {
	fileStore   FileStore
	dirStore    DirectoryStore
	shareStore  ShareStore
	blobStore   s3.Storage
	permissions *PermissionService
	quota       *QuotaService
}

func NewFileService(
	fileStore FileStore,
	dirStore DirectoryStore,
	shareStore ShareStore,
	blobStore s3.Storage,
	permissions *PermissionService,
	quota *QuotaService,
) *FileService {
	return &FileService{
		fileStore:   fileStore,
		dirStore:    dirStore,
		shareStore:  shareStore,
		blobStore:   blobStore,
		permissions: permissions,
		quota:       quota,
	}
}

// storageKey формирует непрозрачный ключ блоба. Логическое имя файла
// в ключе не участвует, поэтому path traversal через имя невозможен.
func storageKey(ownerID int64, fileID uuid.UUID) string {
	return fmt.Sprintf("drive_files/%d/%s", ownerID, fileID.String())
}

func validateFileName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: empty name", domain.ErrInvalidName)
	}
	if strings.Contains(name, "/") || strings.Contains(name, "\\") {
		return fmt.Errorf("%w: %q contains a path separator", domain.ErrInvalidName, name)
	}
	if name == "." || name == ".." {
		return fmt.Errorf("%w: %q", domain.ErrInvalidName, name)
	}
	return nil
}

// resolveTargetDirectory возвращает папку назначения: либо указанную,
// либо корневую папку владельца. Загружать можно только в свои папки.
func (s *FileService) resolveTargetDirectory(ctx context.Context, ownerID int64, directoryID *int64) (*domain.Directory, error) {
	if directoryID == nil {
		root, err := s.dirStore.GetRoot(ctx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("failed to get root directory: %w", err)
		}
		return root, nil
	}

	dir, err := s.dirStore.GetByID(ctx, *directoryID)
	if err != nil {
		return nil, err
	}
	if dir.OwnerID != ownerID {
		return nil, domain.ErrAccessDenied
	}

	return dir, nil
}

// Upload загружает файл в папку пользователя (в корень, если папка не указана)
func (s *FileService) Upload(
	ctx context.Context,
	ownerID int64,
	directoryID *int64,
	name string,
	mimeType string,
	data []byte,
) (*domain.File, error) {
	dir, err := s.resolveTargetDirectory(ctx, ownerID, directoryID)
	if err != nil {
		return nil, err
	}

	return s.uploadInto(ctx, ownerID, dir, name, mimeType, data)
}

// uploadInto - общая часть одиночной и пакетной загрузки. Папка уже
// разрешена и принадлежит владельцу.
func (s *FileService) uploadInto(
	ctx context.Context,
	ownerID int64,
	dir *domain.Directory,
	name string,
	mimeType string,
	data []byte,
) (*domain.File, error) {
	if err := validateFileName(name); err != nil {
		return nil, err
	}

	size := int64(len(data))
	if size > maxFileSize {
		return nil, fmt.Errorf("file size %d exceeds maximum allowed %d", size, maxFileSize)
	}

	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	// Резервируем место до записи блоба
	ok, err := s.quota.Reserve(ctx, ownerID, size)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve quota: %w", err)
	}
	if !ok {
		return nil, domain.ErrQuotaExceeded
	}

	fileID := uuid.New()
	key := storageKey(ownerID, fileID)

	if err := s.blobStore.UploadBytes(ctx, key, data); err != nil {
		// Запись блоба не состоялась - возвращаем резерв
		if relErr := s.quota.Release(ctx, ownerID, size); relErr != nil {
			log.Printf("[Upload] failed to roll back quota reservation for user %d: %v", ownerID, relErr)
		}
		return nil, fmt.Errorf("%w: %v", errBlobStore, err)
	}

	dirID := dir.ID
	file := &domain.File{
		ID:          fileID,
		Name:        strings.TrimSpace(name),
		MIMEType:    mimeType,
		SizeBytes:   size,
		StorageKey:  key,
		OwnerID:     ownerID,
		DirectoryID: &dirID,
	}

	if err := s.fileStore.Create(ctx, file); err != nil {
		// Метаданные не записались - убираем блоб и возвращаем резерв
		if delErr := s.blobStore.DeleteObject(ctx, key); delErr != nil {
			log.Printf("[Upload] failed to delete blob %s after metadata error: %v", key, delErr)
		}
		if relErr := s.quota.Release(ctx, ownerID, size); relErr != nil {
			log.Printf("[Upload] failed to roll back quota reservation for user %d: %v", ownerID, relErr)
		}
		return nil, fmt.Errorf("failed to store file metadata: %w", err)
	}

	log.Printf("[Upload] stored file %s (%d bytes) for user %d", file.ID, size, ownerID)
	return file, nil
}

// Download возвращает файл и его содержимое; требуется доступ уровня view
func (s *FileService) Download(ctx context.Context, userID int64, fileID uuid.UUID) (*domain.FileDownload, error) {
	file, err := s.fileStore.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.permissions.CanAccess(ctx, userID, domain.ItemTypeFile, fileID.String(), domain.PermissionView)
	if err != nil {
		return nil, fmt.Errorf("failed to check permissions: %w", err)
	}
	if !allowed {
		return nil, domain.ErrAccessDenied
	}

	body, err := s.blobStore.GetObject(ctx, file.StorageKey)
	if err != nil {
		if errors.Is(err, s3.ErrObjectNotFound) {
			// Метаданные есть, блоба нет - рассинхронизация хранилищ
			log.Printf("[Download] blob missing for file %s (key %s)", file.ID, file.StorageKey)
			return nil, fmt.Errorf("file content is missing: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %v", errBlobStore, err)
	}
	defer body.Close()

	buf := bytes.NewBuffer(make([]byte, 0, file.SizeBytes))
	if _, err := io.Copy(buf, body); err != nil {
		return nil, fmt.Errorf("error reading from blob storage: %w", err)
	}

	return &domain.FileDownload{
		File: file,
		Data: buf.Bytes(),
	}, nil
}

// Rename меняет логическое имя файла. Только владелец: гранты уровня
// edit прав на переименование не дают.
func (s *FileService) Rename(ctx context.Context, userID int64, fileID uuid.UUID, newName string) error {
	file, err := s.fileStore.GetByID(ctx, fileID)
	if err != nil {
		return err
	}
	if file.OwnerID != userID {
		return domain.ErrAccessDenied
	}

	if err := validateFileName(newName); err != nil {
		return err
	}

	return s.fileStore.Rename(ctx, fileID, strings.TrimSpace(newName))
}

// Delete удаляет файл. Только владелец - как и переименование.
func (s *FileService) Delete(ctx context.Context, userID int64, fileID uuid.UUID) error {
	file, err := s.fileStore.GetByID(ctx, fileID)
	if err != nil {
		return err
	}
	if file.OwnerID != userID {
		return domain.ErrAccessDenied
	}

	return s.deleteOwned(ctx, file)
}

// deleteOwned удаляет файл без проверки прав (они уже проверены).
// Порядок: блоб → квота → метаданные → гранты. Неудачное удаление блоба
// не блокирует освобождение квоты, иначе пользователь платил бы за
// недоступный файл; осиротевший блоб - меньшее зло.
func (s *FileService) deleteOwned(ctx context.Context, file *domain.File) error {
	if err := s.blobStore.DeleteObject(ctx, file.StorageKey); err != nil {
		log.Printf("[DeleteFile] failed to delete blob %s: %v", file.StorageKey, err)
	}

	if err := s.quota.Release(ctx, file.OwnerID, file.SizeBytes); err != nil {
		return fmt.Errorf("failed to release quota: %w", err)
	}

	if err := s.fileStore.Delete(ctx, file.ID); err != nil {
		return err
	}

	// Гранты на удалённый файл больше не имеют смысла
	if err := s.shareStore.DeleteByItem(ctx, domain.ItemTypeFile, file.ID.String()); err != nil {
		log.Printf("[DeleteFile] failed to prune shares for file %s: %v", file.ID, err)
	}

	return nil
}

// ListByDirectory возвращает файлы папки; требуется доступ уровня view
func (s *FileService) ListByDirectory(ctx context.Context, userID int64, directoryID int64) ([]domain.File, error) {
	if _, err := s.dirStore.GetByID(ctx, directoryID); err != nil {
		return nil, err
	}

	allowed, err := s.permissions.CanAccess(
		ctx,
		userID,
		domain.ItemTypeDirectory,
		fmt.Sprintf("%d", directoryID),
		domain.PermissionView,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to check permissions: %w", err)
	}
	if !allowed {
		return nil, domain.ErrAccessDenied
	}

	return s.fileStore.ListByDirectory(ctx, directoryID)
}

func (s *FileService) ListByOwner(ctx context.Context, ownerID int64) ([]domain.File, error) {
	return s.fileStore.ListByOwner(ctx, ownerID)
}

func (s *FileService) GetByID(ctx context.Context, fileID uuid.UUID) (*domain.File, error) {
	return s.fileStore.GetByID(ctx, fileID)
}

// UploadFolder выполняет пакетную загрузку с относительными путями.
// Недостающие промежуточные папки создаются find-or-create, поэтому
// записи с общим префиксом пути не плодят дубликатов. Политика
// best-effort: сбой одной записи не прерывает остальные, но попадает
// в результат этой записи.
func (s *FileService) UploadFolder(
	ctx context.Context,
	ownerID int64,
	directoryID *int64,
	entries []domain.FolderEntry,
) ([]domain.FolderEntryResult, error) {
	parent, err := s.resolveTargetDirectory(ctx, ownerID, directoryID)
	if err != nil {
		return nil, err
	}

	results := make([]domain.FolderEntryResult, 0, len(entries))
	for _, entry := range entries {
		file, err := s.materializeEntry(ctx, ownerID, parent, entry)
		if err != nil {
			log.Printf("[UploadFolder] entry %q failed: %v", entry.RelativePath, err)
		}
		results = append(results, domain.FolderEntryResult{
			RelativePath: entry.RelativePath,
			File:         file,
			Err:          err,
		})
	}

	return results, nil
}

// splitRelativePath нормализует разделители и отбрасывает пустые сегменты
func splitRelativePath(relativePath string) ([]string, error) {
	normalized := strings.ReplaceAll(relativePath, "\\", "/")

	var segments []string
	for _, seg := range strings.Split(normalized, "/") {
		if seg == "" {
			continue
		}
		if seg == "." || seg == ".." {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidPath, relativePath)
		}
		segments = append(segments, seg)
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidPath, relativePath)
	}

	return segments, nil
}

func (s *FileService) materializeEntry(
	ctx context.Context,
	ownerID int64,
	parent *domain.Directory,
	entry domain.FolderEntry,
) (*domain.File, error) {
	segments, err := splitRelativePath(entry.RelativePath)
	if err != nil {
		return nil, err
	}

	// Все сегменты кроме последнего - имена папок
	cursor := parent
	for _, segment := range segments[:len(segments)-1] {
		cursor, err = s.findOrCreateChild(ctx, ownerID, cursor, segment)
		if err != nil {
			return nil, err
		}
	}

	// Имя файла берётся из пути, а не из входного payload
	leaf := segments[len(segments)-1]
	return s.uploadInto(ctx, ownerID, cursor, leaf, entry.MIMEType, entry.Data)
}

func (s *FileService) findOrCreateChild(
	ctx context.Context,
	ownerID int64,
	parent *domain.Directory,
	name string,
) (*domain.Directory, error) {
	child, err := s.dirStore.FindChild(ctx, parent.ID, ownerID, name)
	if err == nil {
		return child, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up directory %q: %w", name, err)
	}

	parentID := parent.ID
	created := &domain.Directory{
		Name:     name,
		OwnerID:  ownerID,
		ParentID: &parentID,
	}

	err = s.dirStore.Create(ctx, created)
	if err == nil {
		return created, nil
	}

	// Параллельная запись успела создать папку первой - переиспользуем её
	if errors.Is(err, domain.ErrDuplicateName) {
		return s.dirStore.FindChild(ctx, parent.ID, ownerID, name)
	}

	return nil, fmt.Errorf("failed to create directory %q: %w", name, err)
}
