package domain

import "time"

// Directory представляет папку пользователя. Папки образуют лес:
// у каждого пользователя ровно одна корневая папка (ParentID == nil).
type Directory struct {
	ID        int64     `json:"id" db:"directory_id"`
	Name      string    `json:"name" db:"directory_name"`
	OwnerID   int64     `json:"owner_id" db:"owner_id"`
	ParentID  *int64    `json:"parent_id,omitempty" db:"parent_directory_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsRoot сообщает, является ли папка корневой
func (d *Directory) IsRoot() bool {
	return d.ParentID == nil
}

type DirectoryContent struct {
	Directory      Directory   `json:"directory"`
	Subdirectories []Directory `json:"subdirectories"`
	Files          []File      `json:"files"`
}
