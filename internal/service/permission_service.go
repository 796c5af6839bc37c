package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/google/uuid"

	"mydrive/internal/domain"
)

// maxTreeDepth ограничивает подъём по цепочке родителей. Циклов в дереве
// быть не может (инвариант конструирования), но обход обязан оставаться
// конечным даже на повреждённых данных.
const maxTreeDepth = 256

// PermissionService решает, имеет ли пользователь доступ к ресурсу:
// владение, прямой грант или грант, унаследованный от папки-предка.
type PermissionService struct {
	fileStore  FileStore
	dirStore   DirectoryStore
	shareStore ShareStore
}

func NewPermissionService(
	fileStore FileStore,
	dirStore DirectoryStore,
	shareStore ShareStore,
) *PermissionService {
	return &PermissionService{
		fileStore:  fileStore,
		dirStore:   dirStore,
		shareStore: shareStore,
	}
}

// GetItemOwner получает ID владельца ресурса
func (s *PermissionService) GetItemOwner(
	ctx context.Context,
	itemType domain.ItemType,
	itemID string,
) (int64, error) {
	switch itemType {
	case domain.ItemTypeFile:
		fileID, err := uuid.Parse(itemID)
		if err != nil {
			return 0, fmt.Errorf("invalid file ID %q: %w", itemID, domain.ErrNotFound)
		}
		file, err := s.fileStore.GetByID(ctx, fileID)
		if err != nil {
			return 0, err
		}
		return file.OwnerID, nil

	case domain.ItemTypeDirectory:
		dirID, err := strconv.ParseInt(itemID, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid directory ID %q: %w", itemID, domain.ErrNotFound)
		}
		dir, err := s.dirStore.GetByID(ctx, dirID)
		if err != nil {
			return 0, err
		}
		return dir.OwnerID, nil

	default:
		return 0, fmt.Errorf("unsupported item type: %s", itemType)
	}
}

// CanAccess проверяет доступ пользователя к ресурсу для требуемого уровня.
// Порядок: владелец → прямой грант на файл → подъём по папкам-предкам.
// На подъёме решает ПЕРВЫЙ найденный грант: уровни по предкам не
// комбинируются, после первого совпадения подъём прекращается.
func (s *PermissionService) CanAccess(
	ctx context.Context,
	userID int64,
	itemType domain.ItemType,
	itemID string,
	required domain.PermissionLevel,
) (bool, error) {
	switch itemType {
	case domain.ItemTypeFile:
		fileID, err := uuid.Parse(itemID)
		if err != nil {
			return false, fmt.Errorf("invalid file ID %q: %w", itemID, domain.ErrNotFound)
		}

		file, err := s.fileStore.GetByID(ctx, fileID)
		if err != nil {
			return false, err
		}

		// Владелец имеет полные права
		if file.OwnerID == userID {
			return true, nil
		}

		// Прямой грант на сам файл
		grant, err := s.shareStore.GetGrant(ctx, domain.ItemTypeFile, itemID, userID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return false, fmt.Errorf("failed to get file grant: %w", err)
		}
		if grant != nil && grant.Permission.Allows(required) {
			return true, nil
		}

		// Файл вне папки не может унаследовать грант
		if file.DirectoryID == nil {
			return false, nil
		}

		return s.walkAncestors(ctx, userID, *file.DirectoryID, required)

	case domain.ItemTypeDirectory:
		dirID, err := strconv.ParseInt(itemID, 10, 64)
		if err != nil {
			return false, fmt.Errorf("invalid directory ID %q: %w", itemID, domain.ErrNotFound)
		}

		dir, err := s.dirStore.GetByID(ctx, dirID)
		if err != nil {
			return false, err
		}

		if dir.OwnerID == userID {
			return true, nil
		}

		return s.walkAncestors(ctx, userID, dirID, required)

	default:
		return false, fmt.Errorf("unsupported item type: %s", itemType)
	}
}

// walkAncestors поднимается от папки startID к корню и ищет грант
// пользователя. Обход итеративный и ограниченный: обнаруженный цикл
// означает отказ в доступе плюс ошибку целостности.
func (s *PermissionService) walkAncestors(
	ctx context.Context,
	userID int64,
	startID int64,
	required domain.PermissionLevel,
) (bool, error) {
	visited := make(map[int64]bool)

	currentID := startID
	for depth := 0; depth < maxTreeDepth; depth++ {
		if visited[currentID] {
			log.Printf("[Permissions] cycle detected in directory chain at %d", currentID)
			return false, fmt.Errorf("cycle at directory %d: %w", currentID, domain.ErrIntegrity)
		}
		visited[currentID] = true

		dir, err := s.dirStore.GetByID(ctx, currentID)
		if err != nil {
			return false, fmt.Errorf("failed to get ancestor directory: %w", err)
		}

		grant, err := s.shareStore.GetGrant(
			ctx,
			domain.ItemTypeDirectory,
			strconv.FormatInt(currentID, 10),
			userID,
		)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return false, fmt.Errorf("failed to get directory grant: %w", err)
		}
		if grant != nil {
			// Первое совпадение решает исход
			return grant.Permission.Allows(required), nil
		}

		if dir.ParentID == nil {
			return false, nil
		}
		currentID = *dir.ParentID
	}

	log.Printf("[Permissions] ancestor walk exceeded %d levels starting at %d", maxTreeDepth, startID)
	return false, fmt.Errorf("directory chain too deep: %w", domain.ErrIntegrity)
}
