package domain

import "time"

// DefaultStorageLimit - лимит хранилища по умолчанию для нового пользователя (5GB)
const DefaultStorageLimit int64 = 5368709120

type User struct {
	ID           int64     `json:"id" db:"user_id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Email        string    `json:"email" db:"email"`
	FullName     string    `json:"full_name" db:"full_name"`
	StorageUsed  int64     `json:"storage_used" db:"storage_used"`
	StorageLimit int64     `json:"storage_limit" db:"storage_limit"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type QuotaInfo struct {
	TotalSpace     int64   `json:"total_space"`
	UsedSpace      int64   `json:"used_space"`
	AvailableSpace int64   `json:"available_space"`
	UsagePercent   float64 `json:"usage_percent"`
}
