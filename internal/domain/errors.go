package domain

import "errors"

// Ошибки доменного уровня. Хендлеры отображают их в HTTP-статусы,
// сервисы оборачивают через fmt.Errorf("...: %w", err).
var (
	ErrNotFound       = errors.New("resource not found")
	ErrAccessDenied   = errors.New("access denied")
	ErrQuotaExceeded  = errors.New("not enough storage space")
	ErrDuplicateName  = errors.New("name already exists")
	ErrDuplicateShare = errors.New("item is already shared with this user")
	ErrSelfShare      = errors.New("cannot share with yourself")
	ErrUnknownUser    = errors.New("user does not exist")
	ErrUserExists     = errors.New("username or email is already taken")
	ErrRootDirectory  = errors.New("root directory cannot be modified")
	ErrInvalidName    = errors.New("invalid name")
	ErrInvalidPath    = errors.New("invalid relative path")
	// ErrIntegrity сигнализирует о нарушении инварианта дерева папок
	// (обнаружен цикл в цепочке родителей)
	ErrIntegrity = errors.New("directory tree integrity fault")
)
