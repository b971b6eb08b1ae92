package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/lensretail-backend/internal/discounts/editor"
	"github.com/angelmondragon/lensretail-backend/pkg/types"
)

type fakeStore struct {
	applied      []types.ApplyDiscountsRequest
	reloadBroken bool
}

func (f *fakeStore) Hierarchy(ctx context.Context, customerID int64) (*types.PriceHierarchy, error) {
	if f.reloadBroken && len(f.applied) > 0 {
		return nil, errors.New("gateway timeout")
	}
	return &types.PriceHierarchy{
		Brands: []types.HierarchyBrand{{
			ID:   1,
			Name: "Essilor",
			Products: []types.HierarchyProduct{{
				ID:          10,
				LensName:    "Varilux Comfort",
				ProductCode: "VRX-CMF",
				PriceRecords: []types.HierarchyPriceRecord{
					{ID: 100, Price: decimal.NewFromInt(1500), Coating: types.HierarchyCoating{ID: 5, Name: "Crizal"}},
					{ID: 101, Price: decimal.NewFromInt(2000), Coating: types.HierarchyCoating{ID: 6, Name: "Blue UV"}},
				},
			}},
		}},
	}, nil
}

func (f *fakeStore) ApplyDiscounts(ctx context.Context, req types.ApplyDiscountsRequest) (*types.ApplyDiscountsResult, error) {
	f.applied = append(f.applied, req)
	return &types.ApplyDiscountsResult{Affected: len(req.Discounts)}, nil
}

func runScript(t *testing.T, store *fakeStore, script ...string) string {
	t.Helper()
	ed, err := editor.New(store, nil)
	require.NoError(t, err)

	var out bytes.Buffer
	sh := newShell(ed, &out)
	require.NoError(t, sh.Run(context.Background(), strings.NewReader(strings.Join(script, "\n"))))
	return out.String()
}

func TestShellCascadesAndSaves(t *testing.T) {
	store := &fakeStore{}
	out := runScript(t, store,
		"load 7",
		"brand 1 10",
		"coating 1 10 5 100 20",
		"expand",
		"show",
		"save",
		"quit",
	)

	assert.Contains(t, out, "loaded 1 brands for customer 7")
	assert.Contains(t, out, "1500.00 -> 1200.00")
	assert.Contains(t, out, "2000.00 -> 1800.00")
	assert.Contains(t, out, "saved 2 overrides")

	require.Len(t, store.applied, 1)
	req := store.applied[0]
	assert.Equal(t, int64(7), req.CustomerID)
	require.Len(t, req.Discounts, 2)
	assert.True(t, req.Discounts[0].Discount.Equal(decimal.NewFromInt(20)))
	assert.True(t, req.Discounts[1].Discount.Equal(decimal.NewFromInt(10)))
}

func TestShellRejectsOutOfRangeDiscount(t *testing.T) {
	store := &fakeStore{}
	out := runScript(t, store, "load 7", "brand 1 150", "pending", "save")

	assert.Contains(t, out, "error: discount must be at most 100")
	assert.Contains(t, out, "no pending edits")
	assert.Contains(t, out, editor.ErrNothingToSave.Error())
	assert.Empty(t, store.applied)
}

func TestShellResetDiscardsEditsWithoutSaving(t *testing.T) {
	store := &fakeStore{}
	out := runScript(t, store, "load 7", "product 1 10 5", "reset", "pending")

	assert.Contains(t, out, "unsaved changes discarded")
	assert.Contains(t, out, "no pending edits")
	assert.Empty(t, store.applied)
}

func TestShellReportsSaveWhenReloadFails(t *testing.T) {
	store := &fakeStore{reloadBroken: true}
	out := runScript(t, store, "load 7", "brand 1 10", "save")

	require.Len(t, store.applied, 1)
	assert.Contains(t, out, "saved 2 overrides")
	assert.Contains(t, out, "warning: "+editor.ErrReloadFailed.Error())
	assert.Contains(t, out, "run load 7 to refresh")
	assert.NotContains(t, out, "error:")
}

func TestShellReportsUsageErrors(t *testing.T) {
	out := runScript(t, &fakeStore{}, "brand 1", "load abc", "bogus")

	assert.Contains(t, out, "usage: brand <brandId> <percent>")
	assert.Contains(t, out, `invalid id "abc"`)
	assert.Contains(t, out, `unknown command "bogus"`)
}
