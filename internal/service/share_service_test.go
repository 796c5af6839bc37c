package service

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mydrive/internal/domain"
)

func TestShareFileAndListings(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	owner, _, err := env.newUser(ctx, "alice")
	require.NoError(t, err)
	reader, _, err := env.newUser(ctx, "bob")
	require.NoError(t, err)

	file, err := env.fileService.Upload(ctx, owner.ID, nil, "doc.txt", "", []byte("x"))
	require.NoError(t, err)

	item, err := env.shareService.ShareItem(ctx, owner.ID, domain.ItemTypeFile, file.ID.String(), "bob", domain.PermissionView)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, item.OwnerID)
	assert.Equal(t, reader.ID, item.SharedWithID)

	withMe, err := env.shareService.SharedWithMe(ctx, reader.ID)
	require.NoError(t, err)
	require.Len(t, withMe, 1)
	assert.Equal(t, item.ID, withMe[0].ID)

	byMe, err := env.shareService.SharedByMe(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, byMe, 1)
}

func TestShareRequiresOwnership(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	owner, _, err := env.newUser(ctx, "alice")
	require.NoError(t, err)
	stranger, _, err := env.newUser(ctx, "mallory")
	require.NoError(t, err)
	_, _, err = env.newUser(ctx, "bob")
	require.NoError(t, err)

	file, err := env.fileService.Upload(ctx, owner.ID, nil, "doc.txt", "", []byte("x"))
	require.NoError(t, err)

	_, err = env.shareService.ShareItem(ctx, stranger.ID, domain.ItemTypeFile, file.ID.String(), "bob", domain.PermissionView)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
}

func TestGranteeCannotRedelegate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	owner, _, err := env.newUser(ctx, "alice")
	require.NoError(t, err)
	editor, _, err := env.newUser(ctx, "bob")
	require.NoError(t, err)
	_, _, err = env.newUser(ctx, "carol")
	require.NoError(t, err)

	file, err := env.fileService.Upload(ctx, owner.ID, nil, "doc.txt", "", []byte("x"))
	require.NoError(t, err)

	_, err = env.shareService.ShareItem(ctx, owner.ID, domain.ItemTypeFile, file.ID.String(), "bob", domain.PermissionEdit)
	require.NoError(t, err)

	// Даже с edit-грантом bob не может делиться чужим файлом
	_, err = env.shareService.ShareItem(ctx, editor.ID, domain.ItemTypeFile, file.ID.String(), "carol", domain.PermissionView)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
}

func TestDuplicateShareRejected(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	owner, _, err := env.newUser(ctx, "alice")
	require.NoError(t, err)
	_, _, err = env.newUser(ctx, "bob")
	require.NoError(t, err)

	file, err := env.fileService.Upload(ctx, owner.ID, nil, "doc.txt", "", []byte("x"))
	require.NoError(t, err)

	_, err = env.shareService.ShareItem(ctx, owner.ID, domain.ItemTypeFile, file.ID.String(), "bob", domain.PermissionView)
	require.NoError(t, err)

	_, err = env.shareService.ShareItem(ctx, owner.ID, domain.ItemTypeFile, file.ID.String(), "bob", domain.PermissionEdit)
	assert.ErrorIs(t, err, domain.ErrDuplicateShare)
}

func TestSelfShareRejected(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	owner, _, err := env.newUser(ctx, "alice")
	require.NoError(t, err)

	file, err := env.fileService.Upload(ctx, owner.ID, nil, "doc.txt", "", []byte("x"))
	require.NoError(t, err)

	_, err = env.shareService.ShareItem(ctx, owner.ID, domain.ItemTypeFile, file.ID.String(), "alice", domain.PermissionView)
	assert.ErrorIs(t, err, domain.ErrSelfShare)
}

func TestShareWithUnknownUser(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	owner, _, err := env.newUser(ctx, "alice")
	require.NoError(t, err)

	file, err := env.fileService.Upload(ctx, owner.ID, nil, "doc.txt", "", []byte("x"))
	require.NoError(t, err)

	_, err = env.shareService.ShareItem(ctx, owner.ID, domain.ItemTypeFile, file.ID.String(), "nobody", domain.PermissionView)
	assert.ErrorIs(t, err, domain.ErrUnknownUser)
}

func TestShareValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	owner, _, err := env.newUser(ctx, "alice")
	require.NoError(t, err)
	_, _, err = env.newUser(ctx, "bob")
	require.NoError(t, err)

	file, err := env.fileService.Upload(ctx, owner.ID, nil, "doc.txt", "", []byte("x"))
	require.NoError(t, err)

	_, err = env.shareService.ShareItem(ctx, owner.ID, "movie", file.ID.String(), "bob", domain.PermissionView)
	assert.Error(t, err)

	_, err = env.shareService.ShareItem(ctx, owner.ID, domain.ItemTypeFile, file.ID.String(), "bob", "admin")
	assert.Error(t, err)
}

func TestRevoke(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	owner, _, err := env.newUser(ctx, "alice")
	require.NoError(t, err)
	reader, _, err := env.newUser(ctx, "bob")
	require.NoError(t, err)

	file, err := env.fileService.Upload(ctx, owner.ID, nil, "doc.txt", "", []byte("x"))
	require.NoError(t, err)

	item, err := env.shareService.ShareItem(ctx, owner.ID, domain.ItemTypeFile, file.ID.String(), "bob", domain.PermissionView)
	require.NoError(t, err)

	// Получатель гранта не может отозвать его сам
	assert.ErrorIs(t, env.shareService.Revoke(ctx, reader.ID, item.ID), domain.ErrAccessDenied)

	require.NoError(t, env.shareService.Revoke(ctx, owner.ID, item.ID))

	allowed, err := env.permissions.CanAccess(ctx, reader.ID, domain.ItemTypeFile, file.ID.String(), domain.PermissionView)
	require.NoError(t, err)
	assert.False(t, allowed, "access must disappear with the grant")
}

func TestShareDirectoryGrant(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	owner, _, err := env.newUser(ctx, "alice")
	require.NoError(t, err)
	reader, _, err := env.newUser(ctx, "bob")
	require.NoError(t, err)

	dir, err := env.directoryService.Create(ctx, owner.ID, nil, "docs")
	require.NoError(t, err)

	_, err = env.shareService.ShareItem(ctx, owner.ID, domain.ItemTypeDirectory, strconv.FormatInt(dir.ID, 10), "bob", domain.PermissionView)
	require.NoError(t, err)

	content, err := env.directoryService.GetContent(ctx, reader.ID, dir.ID)
	require.NoError(t, err)
	assert.Equal(t, dir.ID, content.Directory.ID)
}

func TestDanglingGrantsAreSkipped(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	owner, _, err := env.newUser(ctx, "alice")
	require.NoError(t, err)
	reader, _, err := env.newUser(ctx, "bob")
	require.NoError(t, err)

	file, err := env.fileService.Upload(ctx, owner.ID, nil, "doc.txt", "", []byte("x"))
	require.NoError(t, err)

	item, err := env.shareService.ShareItem(ctx, owner.ID, domain.ItemTypeFile, file.ID.String(), "bob", domain.PermissionView)
	require.NoError(t, err)

	// Удаляем файл мимо сервиса, имитируя уцелевший висячий грант
	require.NoError(t, env.files.Delete(ctx, file.ID))
	_, err = env.shares.GetByID(ctx, item.ID)
	require.NoError(t, err)

	withMe, err := env.shareService.SharedWithMe(ctx, reader.ID)
	require.NoError(t, err)
	assert.Empty(t, withMe)
}
