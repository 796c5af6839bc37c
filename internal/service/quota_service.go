package service

import (
	"context"
	"fmt"

	"mydrive/internal/domain"
)

// QuotaService ведёт учёт занятого места. Reserve вызывается строго до
// записи блоба, Release - строго после его удаления; компенсация при
// сбое записи лежит на вызывающем (FileService).
type QuotaService struct {
	quotaStore QuotaStore
}

func NewQuotaService(quotaStore QuotaStore) *QuotaService {
	return &QuotaService{quotaStore: quotaStore}
}

// Reserve резервирует bytes; true означает, что инкремент зафиксирован.
// При нехватке места состояние не меняется.
func (s *QuotaService) Reserve(ctx context.Context, userID int64, bytes int64) (bool, error) {
	if bytes < 0 {
		return false, fmt.Errorf("cannot reserve negative bytes: %d", bytes)
	}
	if bytes == 0 {
		return true, nil
	}

	ok, err := s.quotaStore.Reserve(ctx, userID, bytes)
	if err != nil {
		return false, fmt.Errorf("failed to reserve storage: %w", err)
	}

	return ok, nil
}

// Release освобождает bytes; счётчик не опускается ниже нуля
func (s *QuotaService) Release(ctx context.Context, userID int64, bytes int64) error {
	if bytes < 0 {
		return fmt.Errorf("cannot release negative bytes: %d", bytes)
	}
	if bytes == 0 {
		return nil
	}

	if err := s.quotaStore.Release(ctx, userID, bytes); err != nil {
		return fmt.Errorf("failed to release storage: %w", err)
	}

	return nil
}

func (s *QuotaService) GetQuotaInfo(ctx context.Context, userID int64) (*domain.QuotaInfo, error) {
	user, err := s.quotaStore.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	info := &domain.QuotaInfo{
		TotalSpace:     user.StorageLimit,
		UsedSpace:      user.StorageUsed,
		AvailableSpace: user.StorageLimit - user.StorageUsed,
	}
	if user.StorageLimit > 0 {
		info.UsagePercent = float64(user.StorageUsed) / float64(user.StorageLimit) * 100
	}

	return info, nil
}
