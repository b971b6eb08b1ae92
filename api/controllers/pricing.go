package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/lensretail-backend/api/validators"
	"github.com/angelmondragon/lensretail-backend/internal/pricing"
	"github.com/angelmondragon/lensretail-backend/pkg/logger"
	"github.com/angelmondragon/lensretail-backend/pkg/types"
)

func pricingHandler(svc pricing.Service, logg *logger.Logger, fn endpoint) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, "pricing")
	}
	return serve(logg, fn)
}

// perCustomer reads {customerId} and hands it to call.
func perCustomer(svc pricing.Service, logg *logger.Logger, call func(ctx context.Context, customerID int64) (any, error)) http.HandlerFunc {
	return pricingHandler(svc, logg, func(r *http.Request) (int, any, error) {
		customerID, err := pathInt64(r, "customerId")
		if err != nil {
			return 0, nil, err
		}
		out, err := call(r.Context(), customerID)
		return http.StatusOK, out, err
	})
}

// PriceHierarchy serves the brand -> product -> coating tree for one customer.
func PriceHierarchy(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return perCustomer(svc, logg, func(ctx context.Context, customerID int64) (any, error) {
		return svc.Hierarchy(ctx, customerID)
	})
}

// ApplyDiscounts persists one batch of discount overrides.
func ApplyDiscounts(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return pricingHandler(svc, logg, func(r *http.Request) (int, any, error) {
		var body types.ApplyDiscountsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return 0, nil, err
		}
		result, err := svc.ApplyDiscounts(r.Context(), body)
		return http.StatusOK, result, err
	})
}

func ListPriceOverrides(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return perCustomer(svc, logg, func(ctx context.Context, customerID int64) (any, error) {
		return svc.ListOverrides(ctx, customerID)
	})
}

func ClearPriceOverrides(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return perCustomer(svc, logg, func(ctx context.Context, customerID int64) (any, error) {
		removed, err := svc.ClearOverrides(ctx, customerID)
		return map[string]int64{"removed": removed}, err
	})
}
