package controllers

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/lensretail-backend/api/validators"
	"github.com/angelmondragon/lensretail-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/lensretail-backend/pkg/errors"
	"github.com/angelmondragon/lensretail-backend/pkg/logger"
)

type brandBody struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type productBody struct {
	BrandID     *int64  `json:"brand_id,omitempty" validate:"omitempty,gt=0"`
	LensName    *string `json:"lens_name,omitempty" validate:"omitempty,max=150"`
	ProductCode *string `json:"product_code,omitempty" validate:"omitempty,max=50"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type masterBody struct {
	Name            *string          `json:"name,omitempty" validate:"omitempty,max=100"`
	Description     *string          `json:"description,omitempty" validate:"omitempty,max=500"`
	RefractiveIndex *decimal.Decimal `json:"refractive_index,omitempty"`
	IsActive        *bool            `json:"is_active,omitempty"`
}

type priceRecordBody struct {
	ProductID *int64           `json:"product_id,omitempty" validate:"omitempty,gt=0"`
	CoatingID *int64           `json:"coating_id,omitempty" validate:"omitempty,gt=0"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	IsActive  *bool            `json:"is_active,omitempty"`
}

var errUnknownCatalogKind = pkgerrors.New(pkgerrors.CodeNotFound, "unknown catalog entity")

// catalogWrite decodes the body for kind and runs create (id == 0) or update.
func catalogWrite(ctx context.Context, svc catalog.Service, kind catalog.Kind, id int64, r *http.Request) (any, error) {
	switch {
	case kind == catalog.KindBrand:
		var body brandBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		input := catalog.BrandInput{Name: body.Name, Description: body.Description, IsActive: body.IsActive}
		if id == 0 {
			return svc.CreateBrand(ctx, input)
		}
		return svc.UpdateBrand(ctx, id, input)
	case kind == catalog.KindProduct:
		var body productBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		input := catalog.ProductInput{
			BrandID:     body.BrandID,
			LensName:    body.LensName,
			ProductCode: body.ProductCode,
			Description: body.Description,
			IsActive:    body.IsActive,
		}
		if id == 0 {
			return svc.CreateProduct(ctx, input)
		}
		return svc.UpdateProduct(ctx, id, input)
	case kind.IsMaster():
		var body masterBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		input := catalog.MasterInput{
			Name:            body.Name,
			Description:     body.Description,
			RefractiveIndex: body.RefractiveIndex,
			IsActive:        body.IsActive,
		}
		if id == 0 {
			return svc.CreateMaster(ctx, kind, input)
		}
		return svc.UpdateMaster(ctx, kind, id, input)
	case kind == catalog.KindPriceRecord:
		var body priceRecordBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		input := catalog.PriceRecordInput{ProductID: body.ProductID, CoatingID: body.CoatingID, Price: body.Price, IsActive: body.IsActive}
		if id == 0 {
			return svc.CreatePriceRecord(ctx, input)
		}
		return svc.UpdatePriceRecord(ctx, id, input)
	}
	return nil, errUnknownCatalogKind
}

func catalogHandler(svc catalog.Service, logg *logger.Logger, fn endpoint) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, "catalog")
	}
	return serve(logg, fn)
}

func CatalogCreate(svc catalog.Service, kind catalog.Kind, logg *logger.Logger) http.HandlerFunc {
	return catalogHandler(svc, logg, func(r *http.Request) (int, any, error) {
		out, err := catalogWrite(r.Context(), svc, kind, 0, r)
		return http.StatusCreated, out, err
	})
}

func CatalogUpdate(svc catalog.Service, kind catalog.Kind, logg *logger.Logger) http.HandlerFunc {
	return catalogHandler(svc, logg, func(r *http.Request) (int, any, error) {
		id, err := pathInt64(r, "id")
		if err != nil {
			return 0, nil, err
		}
		out, err := catalogWrite(r.Context(), svc, kind, id, r)
		return http.StatusOK, out, err
	})
}

func CatalogGet(svc catalog.Service, kind catalog.Kind, logg *logger.Logger) http.HandlerFunc {
	return catalogHandler(svc, logg, func(r *http.Request) (int, any, error) {
		id, err := pathInt64(r, "id")
		if err != nil {
			return 0, nil, err
		}
		ctx := r.Context()
		switch {
		case kind == catalog.KindBrand:
			out, err := svc.GetBrand(ctx, id)
			return http.StatusOK, out, err
		case kind == catalog.KindProduct:
			out, err := svc.GetProduct(ctx, id)
			return http.StatusOK, out, err
		case kind.IsMaster():
			out, err := svc.GetMaster(ctx, kind, id)
			return http.StatusOK, out, err
		case kind == catalog.KindPriceRecord:
			out, err := svc.GetPriceRecord(ctx, id)
			return http.StatusOK, out, err
		}
		return 0, nil, errUnknownCatalogKind
	})
}

// CatalogList pages through one catalog entity. Products accept brand_id;
// price records accept product_id and coating_id.
func CatalogList(svc catalog.Service, kind catalog.Kind, logg *logger.Logger) http.HandlerFunc {
	return catalogHandler(svc, logg, func(r *http.Request) (int, any, error) {
		params, err := pageParams(r)
		if err != nil {
			return 0, nil, err
		}
		ctx := r.Context()
		switch {
		case kind == catalog.KindBrand:
			page, err := svc.ListBrands(ctx, params)
			return http.StatusOK, page, err
		case kind == catalog.KindProduct:
			brandID, err := validators.ParseQueryInt64(r, "brand_id")
			if err != nil {
				return 0, nil, err
			}
			page, err := svc.ListProducts(ctx, params, catalog.ProductFilter{BrandID: brandID})
			return http.StatusOK, page, err
		case kind.IsMaster():
			page, err := svc.ListMasters(ctx, kind, params)
			return http.StatusOK, page, err
		case kind == catalog.KindPriceRecord:
			productID, err := validators.ParseQueryInt64(r, "product_id")
			if err != nil {
				return 0, nil, err
			}
			coatingID, err := validators.ParseQueryInt64(r, "coating_id")
			if err != nil {
				return 0, nil, err
			}
			page, err := svc.ListPriceRecords(ctx, params, catalog.PriceRecordFilter{ProductID: productID, CoatingID: coatingID})
			return http.StatusOK, page, err
		}
		return 0, nil, errUnknownCatalogKind
	})
}

func CatalogDelete(svc catalog.Service, kind catalog.Kind, logg *logger.Logger) http.HandlerFunc {
	return catalogHandler(svc, logg, func(r *http.Request) (int, any, error) {
		id, err := pathInt64(r, "id")
		if err != nil {
			return 0, nil, err
		}
		return http.StatusNoContent, nil, svc.Delete(r.Context(), kind, id)
	})
}
