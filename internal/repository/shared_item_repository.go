package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"mydrive/internal/domain"
)

type SharedItemRepository struct {
	db *sqlx.DB
}

func NewSharedItemRepository(db *sqlx.DB) *SharedItemRepository {
	return &SharedItemRepository{db: db}
}

func (r *SharedItemRepository) Create(ctx context.Context, item *domain.SharedItem) error {
	query := `
        INSERT INTO shared_items (item_type, item_id, owner_id, shared_with_id, permission_level)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING share_id, created_at`

	err := r.db.QueryRowContext(
		ctx,
		query,
		item.ItemType,
		item.ItemID,
		item.OwnerID,
		item.SharedWithID,
		item.Permission,
	).Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		// Уникальный индекс (item_type, item_id, shared_with_id):
		// повторный грант отклоняется, а не объединяется
		if isUniqueViolation(err) {
			return domain.ErrDuplicateShare
		}
		return fmt.Errorf("failed to create shared item: %w", err)
	}

	return nil
}

func (r *SharedItemRepository) GetByID(ctx context.Context, id int64) (*domain.SharedItem, error) {
	var item domain.SharedItem
	query := `SELECT * FROM shared_items WHERE share_id = $1`

	err := r.db.GetContext(ctx, &item, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get shared item: %w", err)
	}

	return &item, nil
}

// GetGrant возвращает прямой грант пользователя на ресурс, если он есть
func (r *SharedItemRepository) GetGrant(ctx context.Context, itemType domain.ItemType, itemID string, sharedWithID int64) (*domain.SharedItem, error) {
	var item domain.SharedItem
	query := `
        SELECT * FROM shared_items
        WHERE item_type = $1 AND item_id = $2 AND shared_with_id = $3
        LIMIT 1`

	err := r.db.GetContext(ctx, &item, query, itemType, itemID, sharedWithID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get grant: %w", err)
	}

	return &item, nil
}

func (r *SharedItemRepository) ListByItem(ctx context.Context, itemType domain.ItemType, itemID string) ([]domain.SharedItem, error) {
	var items []domain.SharedItem
	query := `
        SELECT * FROM shared_items
        WHERE item_type = $1 AND item_id = $2`

	err := r.db.SelectContext(ctx, &items, query, itemType, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shares by item: %w", err)
	}

	return items, nil
}

func (r *SharedItemRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.SharedItem, error) {
	var items []domain.SharedItem
	query := `SELECT * FROM shared_items WHERE owner_id = $1 ORDER BY created_at DESC`

	err := r.db.SelectContext(ctx, &items, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shares by owner: %w", err)
	}

	return items, nil
}

func (r *SharedItemRepository) ListSharedWith(ctx context.Context, userID int64) ([]domain.SharedItem, error) {
	var items []domain.SharedItem
	query := `SELECT * FROM shared_items WHERE shared_with_id = $1 ORDER BY created_at DESC`

	err := r.db.SelectContext(ctx, &items, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shares for user: %w", err)
	}

	return items, nil
}

func (r *SharedItemRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM shared_items WHERE share_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete shared item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// DeleteByItem удаляет все гранты на ресурс; вызывается при удалении
// самого ресурса, чтобы не оставлять висячие записи
func (r *SharedItemRepository) DeleteByItem(ctx context.Context, itemType domain.ItemType, itemID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM shared_items WHERE item_type = $1 AND item_id = $2`,
		itemType, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete shares for item: %w", err)
	}

	return nil
}
