package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"mydrive/internal/domain"
)

// UserService - регистрация и аутентификация пользователей
type UserService struct {
	userStore UserStore
}

func NewUserService(userStore UserStore) *UserService {
	return &UserService{userStore: userStore}
}

// Register создаёт пользователя вместе с его корневой папкой и квотой
// по умолчанию. Пароль хранится только как bcrypt-хеш.
func (s *UserService) Register(ctx context.Context, username, password, email, fullName string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Email:        strings.TrimSpace(email),
		FullName:     strings.TrimSpace(fullName),
		StorageUsed:  0,
		StorageLimit: domain.DefaultStorageLimit,
	}

	if err := s.userStore.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("[Register] created user %q (id %d)", user.Username, user.ID)
	return user, nil
}

// Authenticate проверяет пару логин/пароль. Неизвестный логин и неверный
// пароль дают один и тот же ответ, чтобы не раскрывать существование
// учётной записи.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.userStore.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrAccessDenied
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrAccessDenied
	}

	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.userStore.GetByID(ctx, id)
}
