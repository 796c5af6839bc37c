package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"mydrive/internal/domain"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create создает пользователя и его корневую папку одной транзакцией:
// пользователь без корневой папки существовать не должен.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
        INSERT INTO users (username, password_hash, email, full_name, storage_used, storage_limit)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING user_id, created_at, updated_at`

	err = tx.QueryRowContext(
		ctx,
		query,
		user.Username,
		user.PasswordHash,
		user.Email,
		user.FullName,
		user.StorageUsed,
		user.StorageLimit,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	// Корневая папка - единственная папка пользователя без родителя
	_, err = tx.ExecContext(ctx, `
        INSERT INTO directories (directory_name, owner_id, parent_directory_id)
        VALUES ($1, $2, NULL)
    `, "Root", user.ID)
	if err != nil {
		return fmt.Errorf("failed to create root directory: %w", err)
	}

	return tx.Commit()
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	query := `SELECT * FROM users WHERE user_id = $1`

	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	query := `SELECT * FROM users WHERE username = $1`

	err := r.db.GetContext(ctx, &user, query, username)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return &user, nil
}

// Reserve атомарно резервирует bytes в квоте пользователя. Условный UPDATE
// выполняет проверку и инкремент одним оператором, поэтому параллельные
// загрузки одного пользователя не могут прочитать устаревшее значение.
func (r *UserRepository) Reserve(ctx context.Context, userID int64, bytes int64) (bool, error) {
	query := `
        UPDATE users
        SET storage_used = storage_used + $2,
            updated_at = CURRENT_TIMESTAMP
        WHERE user_id = $1
          AND storage_used + $2 <= storage_limit`

	result, err := r.db.ExecContext(ctx, query, userID, bytes)
	if err != nil {
		return false, fmt.Errorf("failed to reserve storage: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows > 0 {
		return true, nil
	}

	// Отличаем превышение квоты от несуществующего пользователя
	var exists bool
	err = r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM users WHERE user_id = $1)`, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	if !exists {
		return false, domain.ErrNotFound
	}

	return false, nil
}

// Release освобождает bytes квоты, не опускаясь ниже нуля
func (r *UserRepository) Release(ctx context.Context, userID int64, bytes int64) error {
	query := `
        UPDATE users
        SET storage_used = GREATEST(0, storage_used - $2),
            updated_at = CURRENT_TIMESTAMP
        WHERE user_id = $1`

	result, err := r.db.ExecContext(ctx, query, userID, bytes)
	if err != nil {
		return fmt.Errorf("failed to release storage: %w", err)
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
