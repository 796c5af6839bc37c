package service

import (
	"context"

	"github.com/google/uuid"

	"mydrive/internal/domain"
)

// Интерфейсы хранилищ, которыми пользуются сервисы. Реализуются
// репозиториями в internal/repository; в тестах подменяются
// in-memory реализациями.

type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// QuotaStore - учёт квоты. Reserve обязан выполнять проверку и инкремент
// атомарно относительно других Reserve/Release того же пользователя.
type QuotaStore interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	Reserve(ctx context.Context, userID int64, bytes int64) (bool, error)
	Release(ctx context.Context, userID int64, bytes int64) error
}

type DirectoryStore interface {
	Create(ctx context.Context, dir *domain.Directory) error
	GetByID(ctx context.Context, id int64) (*domain.Directory, error)
	GetRoot(ctx context.Context, ownerID int64) (*domain.Directory, error)
	FindChild(ctx context.Context, parentID int64, ownerID int64, name string) (*domain.Directory, error)
	ListChildren(ctx context.Context, parentID int64) ([]domain.Directory, error)
	Rename(ctx context.Context, id int64, newName string) error
	Delete(ctx context.Context, id int64) error
}

type FileStore interface {
	Create(ctx context.Context, file *domain.File) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.File, error)
	ListByDirectory(ctx context.Context, directoryID int64) ([]domain.File, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.File, error)
	Rename(ctx context.Context, id uuid.UUID, newName string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ShareStore interface {
	Create(ctx context.Context, item *domain.SharedItem) error
	GetByID(ctx context.Context, id int64) (*domain.SharedItem, error)
	GetGrant(ctx context.Context, itemType domain.ItemType, itemID string, sharedWithID int64) (*domain.SharedItem, error)
	ListByItem(ctx context.Context, itemType domain.ItemType, itemID string) ([]domain.SharedItem, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.SharedItem, error)
	ListSharedWith(ctx context.Context, userID int64) ([]domain.SharedItem, error)
	Delete(ctx context.Context, id int64) error
	DeleteByItem(ctx context.Context, itemType domain.ItemType, itemID string) error
}
