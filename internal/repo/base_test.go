package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/lensretail-backend/pkg/db/dbtest"
	"github.com/angelmondragon/lensretail-backend/pkg/db/models"
	"github.com/angelmondragon/lensretail-backend/pkg/pagination"
)

func TestBaseDBBindsContext(t *testing.T) {
	conn := dbtest.Open(t)
	base := NewBase(conn)

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "counter-3")
	bound := base.DB(ctx)
	require.NotNil(t, bound.Statement)
	assert.Equal(t, ctx, bound.Statement.Context)

	assert.Same(t, conn, base.DB(nil))
}

func TestPageCountsAndOrders(t *testing.T) {
	conn := dbtest.Open(t)
	base := NewBase(conn)
	ctx := context.Background()

	for _, name := range []string{"Crizal", "Blue UV", "Hard Coat", "Crizal Prevencia", "Mirror"} {
		require.NoError(t, conn.Create(&models.Coating{Name: name, IsActive: true}).Error)
	}

	rows, total, err := Page[models.Coating](ctx, base, pagination.Params{Page: 2, Limit: 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, rows, 2)
	assert.Equal(t, "Hard Coat", rows[0].Name)

	filtered, total, err := Page[models.Coating](ctx, base, pagination.Params{Page: 1, Limit: 10}, func(db *gorm.DB) *gorm.DB {
		return db.Where("LOWER(name) LIKE ?", "%crizal%")
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, filtered, 2)

	empty, total, err := Page[models.Coating](ctx, base, pagination.Params{}, func(db *gorm.DB) *gorm.DB {
		return db.Where("name = ?", "none")
	})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, empty)
}

func TestExists(t *testing.T) {
	conn := dbtest.Open(t)
	base := NewBase(conn)
	require.NoError(t, conn.Create(&models.Coating{Name: "Crizal", IsActive: true}).Error)

	ok, err := Exists[models.Coating](context.Background(), base, "name = ?", "Crizal")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Exists[models.Coating](context.Background(), base, "name = ?", "Nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFindByIDAndSoftDelete(t *testing.T) {
	conn := dbtest.Open(t)
	base := NewBase(conn)
	ctx := context.Background()

	coating := models.Coating{Name: "Crizal", IsActive: true}
	require.NoError(t, conn.Create(&coating).Error)

	found, err := FindByID[models.Coating](ctx, base, coating.ID)
	require.NoError(t, err)
	assert.Equal(t, "Crizal", found.Name)

	require.NoError(t, SoftDelete[models.Coating](ctx, base, coating.ID, map[string]any{"is_active": false}))

	_, err = FindByID[models.Coating](ctx, base, coating.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var raw models.Coating
	require.NoError(t, conn.Unscoped().First(&raw, coating.ID).Error)
	assert.False(t, raw.IsActive)
	assert.True(t, raw.DeletedAt.Valid)

	err = SoftDelete[models.Coating](ctx, base, coating.ID, map[string]any{"is_active": false})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestFirstMatchesCondition(t *testing.T) {
	conn := dbtest.Open(t)
	base := NewBase(conn)
	ctx := context.Background()

	for _, name := range []string{"Polycarbonate", "Trivex"} {
		require.NoError(t, conn.Create(&models.Coating{Name: name, IsActive: true}).Error)
	}

	found, err := First[models.Coating](ctx, base, nil, "name = ?", "Trivex")
	require.NoError(t, err)
	assert.Equal(t, "Trivex", found.Name)

	_, err = First[models.Coating](ctx, base, nil, "name = ?", "Glass")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
