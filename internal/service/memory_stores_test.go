package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"mydrive/internal/domain"
	"mydrive/internal/service/s3"
)

// In-memory реализации хранилищ для тестов сервисного слоя.
// Повторяют контракт репозиториев: те же доменные ошибки,
// те же ограничения уникальности.

type memUserStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]domain.User

	// Регистрация создаёт корневую папку вместе с пользователем,
	// как это делает транзакция в репозитории
	dirs *memDirectoryStore
}

func newMemUserStore(dirs *memDirectoryStore) *memUserStore {
	return &memUserStore{
		nextID: 1,
		users:  make(map[int64]domain.User),
		dirs:   dirs,
	}
}

func (s *memUserStore) Create(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username {
			return domain.ErrUserExists
		}
	}

	user.ID = s.nextID
	s.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = *user

	if s.dirs != nil {
		root := &domain.Directory{Name: "Root", OwnerID: user.ID}
		if err := s.dirs.Create(context.Background(), root); err != nil {
			delete(s.users, user.ID)
			return err
		}
	}

	return nil
}

func (s *memUserStore) GetByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &user, nil
}

func (s *memUserStore) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			user := u
			return &user, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memUserStore) Reserve(_ context.Context, userID int64, bytes int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return false, domain.ErrNotFound
	}
	if user.StorageUsed+bytes > user.StorageLimit {
		return false, nil
	}

	user.StorageUsed += bytes
	s.users[userID] = user
	return true, nil
}

func (s *memUserStore) Release(_ context.Context, userID int64, bytes int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return domain.ErrNotFound
	}

	user.StorageUsed -= bytes
	if user.StorageUsed < 0 {
		user.StorageUsed = 0
	}
	s.users[userID] = user
	return nil
}

type memDirectoryStore struct {
	mu     sync.Mutex
	nextID int64
	dirs   map[int64]domain.Directory
}

func newMemDirectoryStore() *memDirectoryStore {
	return &memDirectoryStore{
		nextID: 1,
		dirs:   make(map[int64]domain.Directory),
	}
}

func (s *memDirectoryStore) Create(_ context.Context, dir *domain.Directory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.dirs {
		if d.OwnerID != dir.OwnerID {
			continue
		}
		if dir.ParentID == nil && d.ParentID == nil {
			return domain.ErrDuplicateName
		}
		if dir.ParentID != nil && d.ParentID != nil &&
			*d.ParentID == *dir.ParentID && d.Name == dir.Name {
			return domain.ErrDuplicateName
		}
	}

	dir.ID = s.nextID
	s.nextID++
	dir.CreatedAt = time.Now()
	dir.UpdatedAt = dir.CreatedAt
	s.dirs[dir.ID] = *dir
	return nil
}

func (s *memDirectoryStore) GetByID(_ context.Context, id int64) (*domain.Directory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir, ok := s.dirs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &dir, nil
}

func (s *memDirectoryStore) GetRoot(_ context.Context, ownerID int64) (*domain.Directory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.dirs {
		if d.OwnerID == ownerID && d.ParentID == nil {
			dir := d
			return &dir, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memDirectoryStore) FindChild(_ context.Context, parentID int64, ownerID int64, name string) (*domain.Directory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.dirs {
		if d.OwnerID == ownerID && d.ParentID != nil && *d.ParentID == parentID && d.Name == name {
			dir := d
			return &dir, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memDirectoryStore) ListChildren(_ context.Context, parentID int64) ([]domain.Directory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []domain.Directory
	for _, d := range s.dirs {
		if d.ParentID != nil && *d.ParentID == parentID {
			result = append(result, d)
		}
	}
	return result, nil
}

func (s *memDirectoryStore) Rename(_ context.Context, id int64, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir, ok := s.dirs[id]
	if !ok {
		return domain.ErrNotFound
	}
	dir.Name = newName
	dir.UpdatedAt = time.Now()
	s.dirs[id] = dir
	return nil
}

func (s *memDirectoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.dirs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.dirs, id)
	return nil
}

// setParent переустанавливает родителя напрямую, мимо инвариантов.
// Нужен только тестам на повреждённые деревья.
func (s *memDirectoryStore) setParent(id int64, parentID *int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.dirs[id]
	dir.ParentID = parentID
	s.dirs[id] = dir
}

type memFileStore struct {
	mu    sync.Mutex
	files map[uuid.UUID]domain.File
}

func newMemFileStore() *memFileStore {
	return &memFileStore{files: make(map[uuid.UUID]domain.File)}
}

func (s *memFileStore) Create(_ context.Context, file *domain.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file.CreatedAt = time.Now()
	file.UpdatedAt = file.CreatedAt
	s.files[file.ID] = *file
	return nil
}

func (s *memFileStore) GetByID(_ context.Context, id uuid.UUID) (*domain.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.files[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &file, nil
}

func (s *memFileStore) ListByDirectory(_ context.Context, directoryID int64) ([]domain.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []domain.File
	for _, f := range s.files {
		if f.DirectoryID != nil && *f.DirectoryID == directoryID {
			result = append(result, f)
		}
	}
	return result, nil
}

func (s *memFileStore) ListByOwner(_ context.Context, ownerID int64) ([]domain.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []domain.File
	for _, f := range s.files {
		if f.OwnerID == ownerID {
			result = append(result, f)
		}
	}
	return result, nil
}

func (s *memFileStore) Rename(_ context.Context, id uuid.UUID, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.files[id]
	if !ok {
		return domain.ErrNotFound
	}
	file.Name = newName
	file.UpdatedAt = time.Now()
	s.files[id] = file
	return nil
}

func (s *memFileStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.files, id)
	return nil
}

type memShareStore struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]domain.SharedItem
}

func newMemShareStore() *memShareStore {
	return &memShareStore{
		nextID: 1,
		items:  make(map[int64]domain.SharedItem),
	}
}

func (s *memShareStore) Create(_ context.Context, item *domain.SharedItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.items {
		if existing.ItemType == item.ItemType &&
			existing.ItemID == item.ItemID &&
			existing.SharedWithID == item.SharedWithID {
			return domain.ErrDuplicateShare
		}
	}

	item.ID = s.nextID
	s.nextID++
	item.CreatedAt = time.Now()
	s.items[item.ID] = *item
	return nil
}

func (s *memShareStore) GetByID(_ context.Context, id int64) (*domain.SharedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &item, nil
}

func (s *memShareStore) GetGrant(_ context.Context, itemType domain.ItemType, itemID string, sharedWithID int64) (*domain.SharedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.items {
		if item.ItemType == itemType && item.ItemID == itemID && item.SharedWithID == sharedWithID {
			grant := item
			return &grant, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memShareStore) ListByItem(_ context.Context, itemType domain.ItemType, itemID string) ([]domain.SharedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []domain.SharedItem
	for _, item := range s.items {
		if item.ItemType == itemType && item.ItemID == itemID {
			result = append(result, item)
		}
	}
	return result, nil
}

func (s *memShareStore) ListByOwner(_ context.Context, ownerID int64) ([]domain.SharedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []domain.SharedItem
	for _, item := range s.items {
		if item.OwnerID == ownerID {
			result = append(result, item)
		}
	}
	return result, nil
}

func (s *memShareStore) ListSharedWith(_ context.Context, userID int64) ([]domain.SharedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []domain.SharedItem
	for _, item := range s.items {
		if item.SharedWithID == userID {
			result = append(result, item)
		}
	}
	return result, nil
}

func (s *memShareStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *memShareStore) DeleteByItem(_ context.Context, itemType domain.ItemType, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, item := range s.items {
		if item.ItemType == itemType && item.ItemID == itemID {
			delete(s.items, id)
		}
	}
	return nil
}

type memObject struct {
	io.ReadCloser
	size int64
}

func (o *memObject) ContentLength() int64 { return o.size }

type memBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte

	failUploads bool
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: make(map[string][]byte)}
}

func (s *memBlobStore) UploadBytes(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failUploads {
		return fmt.Errorf("simulated blob store failure")
	}

	stored := make([]byte, len(data))
	copy(stored, data)
	s.blobs[key] = stored
	return nil
}

func (s *memBlobStore) GetObject(_ context.Context, key string) (s3.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.blobs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", s3.ErrObjectNotFound, key)
	}

	return &memObject{
		ReadCloser: io.NopCloser(bytes.NewReader(data)),
		size:       int64(len(data)),
	}, nil
}

func (s *memBlobStore) DeleteObject(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.blobs, key)
	return nil
}

func (s *memBlobStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

// testEnv собирает весь сервисный слой поверх in-memory хранилищ
type testEnv struct {
	users  *memUserStore
	dirs   *memDirectoryStore
	files  *memFileStore
	shares *memShareStore
	blobs  *memBlobStore

	userService      *UserService
	quotaService     *QuotaService
	permissions      *PermissionService
	fileService      *FileService
	directoryService *DirectoryService
	shareService     *ShareService
}

func newTestEnv() *testEnv {
	dirs := newMemDirectoryStore()
	users := newMemUserStore(dirs)
	files := newMemFileStore()
	shares := newMemShareStore()
	blobs := newMemBlobStore()

	permissions := NewPermissionService(files, dirs, shares)
	quota := NewQuotaService(users)
	fileService := NewFileService(files, dirs, shares, blobs, permissions, quota)

	return &testEnv{
		users:            users,
		dirs:             dirs,
		files:            files,
		shares:           shares,
		blobs:            blobs,
		userService:      NewUserService(users),
		quotaService:     quota,
		permissions:      permissions,
		fileService:      fileService,
		directoryService: NewDirectoryService(dirs, files, shares, fileService, permissions),
		shareService:     NewShareService(shares, users, permissions),
	}
}

// newUser регистрирует пользователя и возвращает его вместе с корневой папкой
func (e *testEnv) newUser(ctx context.Context, username string) (*domain.User, *domain.Directory, error) {
	user, err := e.userService.Register(ctx, username, "correct-horse-battery", username+"@example.com", username)
	if err != nil {
		return nil, nil, err
	}
	root, err := e.dirs.GetRoot(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, root, nil
}
