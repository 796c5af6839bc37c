package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"mydrive/internal/domain"
)

// DirectoryService управляет деревом папок пользователя
type DirectoryService struct {
	dirStore    DirectoryStore
	fileStore   FileStore
	shareStore  ShareStore
	files       *FileService
	permissions *PermissionService
}

func NewDirectoryService(
	dirStore DirectoryStore,
	fileStore FileStore,
	shareStore ShareStore,
	files *FileService,
	permissions *PermissionService,
) *DirectoryService {
	return &DirectoryService{
		dirStore:    dirStore,
		fileStore:   fileStore,
		shareStore:  shareStore,
		files:       files,
		permissions: permissions,
	}
}

// Create создаёт папку. Без parentID папка создаётся в корне владельца.
func (s *DirectoryService) Create(ctx context.Context, ownerID int64, parentID *int64, name string) (*domain.Directory, error) {
	if err := validateFileName(name); err != nil {
		return nil, err
	}

	var parent *domain.Directory
	var err error
	if parentID == nil {
		parent, err = s.dirStore.GetRoot(ctx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("failed to get root directory: %w", err)
		}
	} else {
		parent, err = s.dirStore.GetByID(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if parent.OwnerID != ownerID {
			return nil, domain.ErrAccessDenied
		}
	}

	pid := parent.ID
	dir := &domain.Directory{
		Name:     strings.TrimSpace(name),
		OwnerID:  ownerID,
		ParentID: &pid,
	}

	if err := s.dirStore.Create(ctx, dir); err != nil {
		return nil, err
	}

	log.Printf("[CreateDirectory] created %q (id %d) for user %d", dir.Name, dir.ID, ownerID)
	return dir, nil
}

// GetRoot возвращает корневую папку пользователя
func (s *DirectoryService) GetRoot(ctx context.Context, ownerID int64) (*domain.Directory, error) {
	return s.dirStore.GetRoot(ctx, ownerID)
}

func (s *DirectoryService) GetByID(ctx context.Context, id int64) (*domain.Directory, error) {
	return s.dirStore.GetByID(ctx, id)
}

// GetContent возвращает папку вместе с подпапками и файлами.
// Требуется доступ уровня view (владение или грант, в том числе
// унаследованный от папки-предка).
func (s *DirectoryService) GetContent(ctx context.Context, userID int64, directoryID int64) (*domain.DirectoryContent, error) {
	dir, err := s.dirStore.GetByID(ctx, directoryID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.permissions.CanAccess(
		ctx,
		userID,
		domain.ItemTypeDirectory,
		strconv.FormatInt(directoryID, 10),
		domain.PermissionView,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to check permissions: %w", err)
	}
	if !allowed {
		return nil, domain.ErrAccessDenied
	}

	subdirs, err := s.dirStore.ListChildren(ctx, directoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subdirectories: %w", err)
	}

	files, err := s.fileStore.ListByDirectory(ctx, directoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return &domain.DirectoryContent{
		Directory:      *dir,
		Subdirectories: subdirs,
		Files:          files,
	}, nil
}

// Rename переименовывает папку. Только владелец; корень переименовать нельзя.
func (s *DirectoryService) Rename(ctx context.Context, userID int64, directoryID int64, newName string) error {
	dir, err := s.dirStore.GetByID(ctx, directoryID)
	if err != nil {
		return err
	}
	if dir.OwnerID != userID {
		return domain.ErrAccessDenied
	}
	if dir.IsRoot() {
		return domain.ErrRootDirectory
	}

	if err := validateFileName(newName); err != nil {
		return err
	}

	return s.dirStore.Rename(ctx, directoryID, strings.TrimSpace(newName))
}

// Delete удаляет папку вместе со всем содержимым. Только владелец;
// корневую папку удалить нельзя. Файлы удаляются с освобождением квоты
// и зачисткой грантов, затем папки снизу вверх.
func (s *DirectoryService) Delete(ctx context.Context, userID int64, directoryID int64) error {
	dir, err := s.dirStore.GetByID(ctx, directoryID)
	if err != nil {
		return err
	}
	if dir.OwnerID != userID {
		return domain.ErrAccessDenied
	}
	if dir.IsRoot() {
		return domain.ErrRootDirectory
	}

	subtree, err := s.collectSubtree(ctx, directoryID)
	if err != nil {
		return err
	}

	for _, dirID := range subtree {
		files, err := s.fileStore.ListByDirectory(ctx, dirID)
		if err != nil {
			return fmt.Errorf("failed to list files in directory %d: %w", dirID, err)
		}
		for i := range files {
			if err := s.files.deleteOwned(ctx, &files[i]); err != nil {
				return fmt.Errorf("failed to delete file %s: %w", files[i].ID, err)
			}
		}
	}

	// Папки удаляем от листьев к корню поддерева
	for i := len(subtree) - 1; i >= 0; i-- {
		dirID := subtree[i]
		if err := s.dirStore.Delete(ctx, dirID); err != nil {
			return fmt.Errorf("failed to delete directory %d: %w", dirID, err)
		}
		if err := s.shareStore.DeleteByItem(ctx, domain.ItemTypeDirectory, strconv.FormatInt(dirID, 10)); err != nil {
			log.Printf("[DeleteDirectory] failed to prune shares for directory %d: %v", dirID, err)
		}
	}

	log.Printf("[DeleteDirectory] user %d removed directory %d (%d directories total)", userID, directoryID, len(subtree))
	return nil
}

// collectSubtree обходит поддерево в ширину и возвращает ID папок в
// порядке от корня поддерева к листьям. Повторное посещение папки
// означает цикл и повреждённое дерево.
func (s *DirectoryService) collectSubtree(ctx context.Context, rootID int64) ([]int64, error) {
	visited := map[int64]bool{rootID: true}
	order := []int64{rootID}

	queue := []int64{rootID}
	for len(queue) > 0 {
		if len(order) > maxTreeDepth*maxTreeDepth {
			return nil, fmt.Errorf("directory subtree too large: %w", domain.ErrIntegrity)
		}

		current := queue[0]
		queue = queue[1:]

		children, err := s.dirStore.ListChildren(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("failed to list children of %d: %w", current, err)
		}
		for _, child := range children {
			if visited[child.ID] {
				return nil, fmt.Errorf("cycle at directory %d: %w", child.ID, domain.ErrIntegrity)
			}
			visited[child.ID] = true
			order = append(order, child.ID)
			queue = append(queue, child.ID)
		}
	}

	return order, nil
}

// FullPath строит путь папки от корня, например "Root/docs/reports".
// Подъём итеративный с тем же пределом глубины, что и проверка прав.
func (s *DirectoryService) FullPath(ctx context.Context, directoryID int64) (string, error) {
	var segments []string

	visited := make(map[int64]bool)
	currentID := directoryID
	for depth := 0; depth < maxTreeDepth; depth++ {
		if visited[currentID] {
			return "", fmt.Errorf("cycle at directory %d: %w", currentID, domain.ErrIntegrity)
		}
		visited[currentID] = true

		dir, err := s.dirStore.GetByID(ctx, currentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return "", fmt.Errorf("broken parent chain at %d: %w", currentID, domain.ErrIntegrity)
			}
			return "", err
		}

		segments = append(segments, dir.Name)
		if dir.ParentID == nil {
			break
		}
		currentID = *dir.ParentID
	}

	// Сегменты собраны от листа к корню
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}

	return strings.Join(segments, "/"), nil
}
