package domain

import "time"

type ItemType string
type PermissionLevel string

const (
	ItemTypeFile      ItemType = "file"
	ItemTypeDirectory ItemType = "directory"

	PermissionView PermissionLevel = "view"
	PermissionEdit PermissionLevel = "edit"
)

func (t ItemType) Valid() bool {
	return t == ItemTypeFile || t == ItemTypeDirectory
}

// rank задаёт порядок уровней доступа: edit строго выше view
func (p PermissionLevel) rank() int {
	switch p {
	case PermissionView:
		return 1
	case PermissionEdit:
		return 2
	default:
		return 0
	}
}

// Allows сообщает, достаточен ли уровень p для требуемого уровня required
func (p PermissionLevel) Allows(required PermissionLevel) bool {
	return p.rank() >= required.rank() && p.rank() > 0
}

func (p PermissionLevel) Valid() bool {
	return p == PermissionView || p == PermissionEdit
}

// SharedItem представляет прямой грант доступа к файлу или папке.
// На пару (itemType, itemId, sharedWith) допускается не более одного гранта.
// Грант на папку наследуется всеми её потомками; грант на файл действует
// только на этот файл.
type SharedItem struct {
	ID           int64           `json:"id" db:"share_id"`
	ItemType     ItemType        `json:"item_type" db:"item_type"`
	ItemID       string          `json:"item_id" db:"item_id"`
	OwnerID      int64           `json:"owner_id" db:"owner_id"`
	SharedWithID int64           `json:"shared_with_id" db:"shared_with_id"`
	Permission   PermissionLevel `json:"permission_level" db:"permission_level"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}
