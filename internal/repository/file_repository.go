package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"mydrive/internal/domain"
)

type FileRepository struct {
	db *sqlx.DB
}

func NewFileRepository(db *sqlx.DB) *FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) Create(ctx context.Context, file *domain.File) error {
	query := `
        INSERT INTO files (file_id, file_name, mime_type, size_bytes, storage_key, owner_id, directory_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(
		ctx,
		query,
		file.ID,
		file.Name,
		file.MIMEType,
		file.SizeBytes,
		file.StorageKey,
		file.OwnerID,
		file.DirectoryID,
	).Scan(&file.CreatedAt, &file.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	return nil
}

func (r *FileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.File, error) {
	var file domain.File
	query := `SELECT * FROM files WHERE file_id = $1`

	err := r.db.GetContext(ctx, &file, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get file: %w", err)
	}

	return &file, nil
}

func (r *FileRepository) ListByDirectory(ctx context.Context, directoryID int64) ([]domain.File, error) {
	var files []domain.File
	query := `SELECT * FROM files WHERE directory_id = $1 ORDER BY file_name`

	err := r.db.SelectContext(ctx, &files, query, directoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return files, nil
}

func (r *FileRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.File, error) {
	var files []domain.File
	query := `SELECT * FROM files WHERE owner_id = $1 ORDER BY file_name`

	err := r.db.SelectContext(ctx, &files, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files by owner: %w", err)
	}

	return files, nil
}

func (r *FileRepository) Rename(ctx context.Context, id uuid.UUID, newName string) error {
	query := `
        UPDATE files
        SET file_name = $1,
            updated_at = CURRENT_TIMESTAMP
        WHERE file_id = $2`

	result, err := r.db.ExecContext(ctx, query, newName, id)
	if err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
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

func (r *FileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE file_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
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
