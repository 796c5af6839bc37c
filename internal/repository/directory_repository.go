package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"mydrive/internal/domain"
)

type DirectoryRepository struct {
	db *sqlx.DB
}

func NewDirectoryRepository(db *sqlx.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

func (r *DirectoryRepository) Create(ctx context.Context, dir *domain.Directory) error {
	query := `
        INSERT INTO directories (directory_name, owner_id, parent_directory_id)
        VALUES ($1, $2, $3)
        RETURNING directory_id, created_at, updated_at`

	err := r.db.QueryRowContext(
		ctx,
		query,
		dir.Name,
		dir.OwnerID,
		dir.ParentID,
	).Scan(&dir.ID, &dir.CreatedAt, &dir.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateName
		}
		return fmt.Errorf("failed to create directory: %w", err)
	}

	return nil
}

func (r *DirectoryRepository) GetByID(ctx context.Context, id int64) (*domain.Directory, error) {
	var dir domain.Directory
	query := `SELECT * FROM directories WHERE directory_id = $1`

	err := r.db.GetContext(ctx, &dir, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get directory: %w", err)
	}

	return &dir, nil
}

func (r *DirectoryRepository) GetRoot(ctx context.Context, ownerID int64) (*domain.Directory, error) {
	var dir domain.Directory
	query := `
        SELECT * FROM directories
        WHERE owner_id = $1 AND parent_directory_id IS NULL
        LIMIT 1`

	err := r.db.GetContext(ctx, &dir, query, ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get root directory: %w", err)
	}

	return &dir, nil
}

// FindChild ищет папку с данным именем непосредственно под родителем
func (r *DirectoryRepository) FindChild(ctx context.Context, parentID int64, ownerID int64, name string) (*domain.Directory, error) {
	var dir domain.Directory
	query := `
        SELECT * FROM directories
        WHERE parent_directory_id = $1 AND owner_id = $2 AND directory_name = $3
        LIMIT 1`

	err := r.db.GetContext(ctx, &dir, query, parentID, ownerID, name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find child directory: %w", err)
	}

	return &dir, nil
}

func (r *DirectoryRepository) ListChildren(ctx context.Context, parentID int64) ([]domain.Directory, error) {
	var dirs []domain.Directory
	query := `
        SELECT * FROM directories
        WHERE parent_directory_id = $1
        ORDER BY directory_name`

	err := r.db.SelectContext(ctx, &dirs, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subdirectories: %w", err)
	}

	return dirs, nil
}

func (r *DirectoryRepository) Rename(ctx context.Context, id int64, newName string) error {
	query := `
        UPDATE directories
        SET directory_name = $1,
            updated_at = CURRENT_TIMESTAMP
        WHERE directory_id = $2`

	result, err := r.db.ExecContext(ctx, query, newName, id)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateName
		}
		return fmt.Errorf("failed to rename directory: %w", err)
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

func (r *DirectoryRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM directories WHERE directory_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete directory: %w", err)
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
