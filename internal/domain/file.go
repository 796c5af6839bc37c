package domain

import (
	"time"

	"github.com/google/uuid"
)

// File представляет файл пользователя. StorageKey - непрозрачный ключ блоба
// в хранилище, никак не связанный с логическим именем файла.
type File struct {
	ID          uuid.UUID `json:"id" db:"file_id"`
	Name        string    `json:"name" db:"file_name"`
	MIMEType    string    `json:"mime_type" db:"mime_type"`
	SizeBytes   int64     `json:"size_bytes" db:"size_bytes"`
	StorageKey  string    `json:"-" db:"storage_key"`
	OwnerID     int64     `json:"owner_id" db:"owner_id"`
	DirectoryID *int64    `json:"directory_id,omitempty" db:"directory_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type FileDownload struct {
	File *File
	Data []byte
}

// FolderEntry - один элемент пакетной загрузки папки:
// относительный путь внутри целевой папки плюс содержимое файла.
type FolderEntry struct {
	RelativePath string
	MIMEType     string
	Data         []byte
}

// FolderEntryResult - результат загрузки одного элемента пакета.
// Политика пакетной загрузки best-effort: ошибка элемента не прерывает
// остальные, но обязательно возвращается вызывающему.
type FolderEntryResult struct {
	RelativePath string `json:"relative_path"`
	File         *File  `json:"file,omitempty"`
	Err          error  `json:"-"`
}
