package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/lensretail-backend/api/validators"
	"github.com/angelmondragon/lensretail-backend/internal/saleorders"
	"github.com/angelmondragon/lensretail-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/lensretail-backend/pkg/errors"
	"github.com/angelmondragon/lensretail-backend/pkg/logger"
)

const dateLayout = "2006-01-02"

type createSaleOrderBody struct {
	CustomerID           int64                  `json:"customer_id" validate:"required,gt=0"`
	OrderDate            *string                `json:"order_date,omitempty"`
	ExpectedDeliveryDate *string                `json:"expected_delivery_date,omitempty"`
	Remarks              *string                `json:"remarks,omitempty" validate:"omitempty,max=1000"`
	Items                []saleorders.ItemInput `json:"items" validate:"required,min=1"`
}

type saleOrderStatusBody struct {
	Status string `json:"status" validate:"required"`
}

func parseDateField(field string, raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	value := strings.TrimSpace(*raw)
	if t, err := time.Parse(dateLayout, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, field+" must be a date (YYYY-MM-DD)").
			WithDetails(map[string]string{field: "must be a date (YYYY-MM-DD)"})
	}
	return &t, nil
}

func saleOrderHandler(svc saleorders.Service, logg *logger.Logger, fn endpoint) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, "sale order")
	}
	return serve(logg, fn)
}

func SaleOrderCreate(svc saleorders.Service, logg *logger.Logger) http.HandlerFunc {
	return saleOrderHandler(svc, logg, func(r *http.Request) (int, any, error) {
		var body createSaleOrderBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return 0, nil, err
		}
		orderDate, err := parseDateField("order_date", body.OrderDate)
		if err != nil {
			return 0, nil, err
		}
		delivery, err := parseDateField("expected_delivery_date", body.ExpectedDeliveryDate)
		if err != nil {
			return 0, nil, err
		}
		order, err := svc.Create(r.Context(), saleorders.CreateInput{
			CustomerID:           body.CustomerID,
			OrderDate:            orderDate,
			ExpectedDeliveryDate: delivery,
			Remarks:              body.Remarks,
			Items:                body.Items,
			CreatedBy:            actorID(r),
		})
		return http.StatusCreated, order, err
	})
}

func SaleOrderGet(svc saleorders.Service, logg *logger.Logger) http.HandlerFunc {
	return saleOrderHandler(svc, logg, func(r *http.Request) (int, any, error) {
		id, err := pathInt64(r, "id")
		if err != nil {
			return 0, nil, err
		}
		order, err := svc.Get(r.Context(), id)
		return http.StatusOK, order, err
	})
}

// SaleOrderList accepts status, customer_id, from and to filters.
func SaleOrderList(svc saleorders.Service, logg *logger.Logger) http.HandlerFunc {
	return saleOrderHandler(svc, logg, func(r *http.Request) (int, any, error) {
		params, err := pageParams(r)
		if err != nil {
			return 0, nil, err
		}
		filter, err := saleOrderFilter(r)
		if err != nil {
			return 0, nil, err
		}
		page, err := svc.List(r.Context(), params, filter)
		return http.StatusOK, page, err
	})
}

func saleOrderFilter(r *http.Request) (saleorders.Filter, error) {
	var (
		filter saleorders.Filter
		err    error
	)
	if filter.Status, err = saleOrderStatus(r.URL.Query().Get("status"), true); err != nil {
		return filter, err
	}
	if filter.CustomerID, err = validators.ParseQueryInt64(r, "customer_id"); err != nil {
		return filter, err
	}
	if filter.From, err = validators.ParseQueryDate(r, "from"); err != nil {
		return filter, err
	}
	filter.To, err = validators.ParseQueryDate(r, "to")
	return filter, err
}

// saleOrderStatus returns nil for a blank value when optional is set.
func saleOrderStatus(raw string, optional bool) (*enums.SaleOrderStatus, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" && optional {
		return nil, nil
	}
	status, err := enums.ParseSaleOrderStatus(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status").
			WithDetails(map[string]string{"status": "unknown sale order status"})
	}
	return &status, nil
}

func SaleOrderUpdateStatus(svc saleorders.Service, logg *logger.Logger) http.HandlerFunc {
	return saleOrderHandler(svc, logg, func(r *http.Request) (int, any, error) {
		id, err := pathInt64(r, "id")
		if err != nil {
			return 0, nil, err
		}
		var body saleOrderStatusBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return 0, nil, err
		}
		status, err := saleOrderStatus(body.Status, false)
		if err != nil {
			return 0, nil, err
		}
		order, err := svc.UpdateStatus(r.Context(), id, *status)
		return http.StatusOK, order, err
	})
}

func SaleOrderCancel(svc saleorders.Service, logg *logger.Logger) http.HandlerFunc {
	return saleOrderHandler(svc, logg, func(r *http.Request) (int, any, error) {
		id, err := pathInt64(r, "id")
		if err != nil {
			return 0, nil, err
		}
		order, err := svc.Cancel(r.Context(), id)
		return http.StatusOK, order, err
	})
}
