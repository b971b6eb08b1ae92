package vendors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/lensretail-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/lensretail-backend/pkg/errors"
	"github.com/angelmondragon/lensretail-backend/pkg/pagination"
)

func p(v string) *string { return &v }

func TestVendorLifecycle(t *testing.T) {
	svc, err := NewService(NewRepository(dbtest.Open(t)))
	require.NoError(t, err)
	ctx := context.Background()

	v, err := svc.Create(ctx, Input{VendorCode: p("v001"), Name: p("Lens Supply Co"), Email: p(" Sales@LensSupply.IN "), GSTIN: p("27aapfu0939f1zv")})
	require.NoError(t, err)
	assert.Equal(t, "V001", v.VendorCode)
	require.NotNil(t, v.Email)
	assert.Equal(t, "sales@lenssupply.in", *v.Email)
	assert.Equal(t, "27AAPFU0939F1ZV", *v.GSTIN)

	_, err = svc.Create(ctx, Input{VendorCode: p("V001"), Name: p("Other")})
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())

	_, err = svc.Create(ctx, Input{VendorCode: p("V002"), Name: p("Other"), GSTIN: p("123")})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.Create(ctx, Input{VendorCode: p("V003"), Name: p("Other"), Email: p("not-an-email")})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	updated, err := svc.Update(ctx, v.ID, Input{Email: p(""), ContactPerson: p("Ravi")})
	require.NoError(t, err)
	assert.Nil(t, updated.Email)
	assert.Equal(t, "Ravi", *updated.ContactPerson)

	list, err := svc.List(ctx, pagination.Params{Search: "supply"}, nil)
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)

	require.NoError(t, svc.Delete(ctx, v.ID))
	_, err = svc.Get(ctx, v.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
