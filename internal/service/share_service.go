package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"mydrive/internal/domain"
)

// ShareService управляет грантами доступа к файлам и папкам
type ShareService struct {
	shareStore  ShareStore
	userStore   UserStore
	permissions *PermissionService
}

func NewShareService(
	shareStore ShareStore,
	userStore UserStore,
	permissions *PermissionService,
) *ShareService {
	return &ShareService{
		shareStore:  shareStore,
		userStore:   userStore,
		permissions: permissions,
	}
}

// ShareItem выдаёт пользователю username грант уровня permission на ресурс.
// Делиться может только владелец; выданный грант переделегировать нельзя.
func (s *ShareService) ShareItem(
	ctx context.Context,
	ownerID int64,
	itemType domain.ItemType,
	itemID string,
	username string,
	permission domain.PermissionLevel,
) (*domain.SharedItem, error) {
	if !itemType.Valid() {
		return nil, fmt.Errorf("invalid item type: %s", itemType)
	}
	if !permission.Valid() {
		return nil, fmt.Errorf("invalid permission level: %s", permission)
	}

	actualOwner, err := s.permissions.GetItemOwner(ctx, itemType, itemID)
	if err != nil {
		return nil, err
	}
	if actualOwner != ownerID {
		return nil, domain.ErrAccessDenied
	}

	grantee, err := s.userStore.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("user %q: %w", username, domain.ErrUnknownUser)
		}
		return nil, fmt.Errorf("failed to look up user %q: %w", username, err)
	}

	if grantee.ID == ownerID {
		return nil, domain.ErrSelfShare
	}

	item := &domain.SharedItem{
		ItemType:     itemType,
		ItemID:       itemID,
		OwnerID:      ownerID,
		SharedWithID: grantee.ID,
		Permission:   permission,
	}

	if err := s.shareStore.Create(ctx, item); err != nil {
		return nil, err
	}

	log.Printf("[Share] user %d granted %s on %s %s to user %d", ownerID, permission, itemType, itemID, grantee.ID)
	return item, nil
}

// Revoke отзывает грант. Отзывать может только выдавший его владелец.
func (s *ShareService) Revoke(ctx context.Context, ownerID int64, shareID int64) error {
	item, err := s.shareStore.GetByID(ctx, shareID)
	if err != nil {
		return err
	}
	if item.OwnerID != ownerID {
		return domain.ErrAccessDenied
	}

	return s.shareStore.Delete(ctx, shareID)
}

// SharedWithMe возвращает гранты, выданные пользователю. Гранты на уже
// удалённые ресурсы пропускаются: зачистка при удалении best-effort,
// поэтому висячие записи возможны.
func (s *ShareService) SharedWithMe(ctx context.Context, userID int64) ([]domain.SharedItem, error) {
	items, err := s.shareStore.ListSharedWith(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shares: %w", err)
	}

	return s.filterDangling(ctx, items), nil
}

// SharedByMe возвращает гранты, выданные пользователем
func (s *ShareService) SharedByMe(ctx context.Context, ownerID int64) ([]domain.SharedItem, error) {
	items, err := s.shareStore.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shares: %w", err)
	}

	return s.filterDangling(ctx, items), nil
}

// ListByItem возвращает гранты на конкретный ресурс; доступно только владельцу
func (s *ShareService) ListByItem(
	ctx context.Context,
	userID int64,
	itemType domain.ItemType,
	itemID string,
) ([]domain.SharedItem, error) {
	actualOwner, err := s.permissions.GetItemOwner(ctx, itemType, itemID)
	if err != nil {
		return nil, err
	}
	if actualOwner != userID {
		return nil, domain.ErrAccessDenied
	}

	return s.shareStore.ListByItem(ctx, itemType, itemID)
}

func (s *ShareService) filterDangling(ctx context.Context, items []domain.SharedItem) []domain.SharedItem {
	result := make([]domain.SharedItem, 0, len(items))
	for _, item := range items {
		if _, err := s.permissions.GetItemOwner(ctx, item.ItemType, item.ItemID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				log.Printf("[Share] skipping dangling grant %d on %s %s", item.ID, item.ItemType, item.ItemID)
				continue
			}
			log.Printf("[Share] failed to resolve grant %d target: %v", item.ID, err)
			continue
		}
		result = append(result, item)
	}
	return result
}
