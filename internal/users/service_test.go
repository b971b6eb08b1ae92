package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/lensretail-backend/pkg/config"
	"github.com/angelmondragon/lensretail-backend/pkg/db/dbtest"
	"github.com/angelmondragon/lensretail-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/lensretail-backend/pkg/errors"
	"github.com/angelmondragon/lensretail-backend/pkg/pagination"
	"github.com/angelmondragon/lensretail-backend/pkg/security"
)

var testPasswordConfig = config.PasswordConfig{ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 8, ArgonKeyLen: 16}

func newTestService(t *testing.T) (Service, *Repository) {
	t.Helper()
	repo := NewRepository(dbtest.Open(t))
	svc, err := NewService(repo, testPasswordConfig)
	require.NoError(t, err)
	return svc, repo
}

func TestCreateUser(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, CreateInput{Email: " Admin@Lens.Example ", Password: "s3cretpass", Name: "Asha", Role: "Admin"})
	require.NoError(t, err)
	assert.Equal(t, "admin@lens.example", user.Email)
	assert.Equal(t, enums.UserRoleAdmin, user.Role)
	assert.True(t, user.IsActive)

	stored, err := repo.FindByEmail(ctx, "admin@lens.example")
	require.NoError(t, err)
	ok, err := security.VerifyPassword("s3cretpass", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.Create(ctx, CreateInput{Email: "admin@lens.example", Password: "s3cretpass", Name: "Dup", Role: "sales"})
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())

	_, err = svc.Create(ctx, CreateInput{Email: "x@lens.example", Password: "short", Name: "Weak", Role: "sales"})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.Create(ctx, CreateInput{Email: "y@lens.example", Password: "s3cretpass", Name: "Odd", Role: "owner"})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	inactive := false
	disabled, err := svc.Create(ctx, CreateInput{Email: "z@lens.example", Password: "s3cretpass", Name: "Off", Role: "store", IsActive: &inactive})
	require.NoError(t, err)
	got, err := svc.Get(ctx, disabled.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestUpdateListAndResetPassword(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, CreateInput{Email: "sales@lens.example", Password: "s3cretpass", Name: "Ravi", Role: "sales"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{Email: "store@lens.example", Password: "s3cretpass", Name: "Meena", Role: "store"})
	require.NoError(t, err)

	role := "manager"
	active := false
	updated, err := svc.Update(ctx, user.ID, UpdateInput{Role: &role, IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleManager, updated.Role)
	assert.False(t, updated.IsActive)

	managers := enums.UserRoleManager
	page, err := svc.List(ctx, pagination.Params{}, Filter{Role: &managers})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, user.ID, page.Items[0].ID)

	page, err = svc.List(ctx, pagination.Params{Search: "meena"}, Filter{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	require.NoError(t, svc.ResetPassword(ctx, user.ID, "n3wpassword"))
	stored, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	ok, err := security.VerifyPassword("n3wpassword", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	err = svc.ResetPassword(ctx, uuid.New(), "n3wpassword")
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	_, err = svc.Get(ctx, uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
