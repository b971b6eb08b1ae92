package saleorders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/lensretail-backend/pkg/db/models"
	"github.com/angelmondragon/lensretail-backend/pkg/enums"
)

// CreateInput opens a draft sale order.
type CreateInput struct {
	CustomerID           int64
	OrderDate            *time.Time
	ExpectedDeliveryDate *time.Time
	Remarks              *string
	Items                []ItemInput
	CreatedBy            *uuid.UUID
}

// ItemInput is one lens line. UnitPrice defaults to the customer's effective price.
type ItemInput struct {
	PriceRecordID int64            `json:"price_record_id"`
	MaterialID    *int64           `json:"material_id,omitempty"`
	TintingID     *int64           `json:"tinting_id,omitempty"`
	Quantity      int              `json:"quantity"`
	UnitPrice     *decimal.Decimal `json:"unit_price,omitempty"`
	Right         EyeInput         `json:"right"`
	Left          EyeInput         `json:"left"`
}

// Filter narrows the order list. Dates are inclusive calendar days.
type Filter struct {
	Status     *enums.SaleOrderStatus
	CustomerID *int64
	From       *time.Time
	To         *time.Time
}

type ItemDTO struct {
	ID            int64           `json:"id"`
	PriceRecordID int64           `json:"price_record_id"`
	ProductID     int64           `json:"product_id"`
	ProductName   string          `json:"product_name,omitempty"`
	CoatingID     int64           `json:"coating_id"`
	CoatingName   string          `json:"coating_name,omitempty"`
	MaterialID    *int64          `json:"material_id,omitempty"`
	TintingID     *int64          `json:"tinting_id,omitempty"`
	Quantity      int             `json:"quantity"`
	BasePrice     decimal.Decimal `json:"base_price"`
	DiscountRate  decimal.Decimal `json:"discount_rate"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	LineTotal     decimal.Decimal `json:"line_total"`
	Right         EyeInput        `json:"right"`
	Left          EyeInput        `json:"left"`
}

type OrderDTO struct {
	ID                   int64                 `json:"id"`
	OrderNo              string                `json:"order_no"`
	CustomerID           int64                 `json:"customer_id"`
	CustomerName         string                `json:"customer_name,omitempty"`
	OrderDate            time.Time             `json:"order_date"`
	ExpectedDeliveryDate *time.Time            `json:"expected_delivery_date,omitempty"`
	Status               enums.SaleOrderStatus `json:"status"`
	Remarks              *string               `json:"remarks,omitempty"`
	Subtotal             decimal.Decimal       `json:"subtotal"`
	DiscountTotal        decimal.Decimal       `json:"discount_total"`
	Total                decimal.Decimal       `json:"total"`
	CreatedBy            *uuid.UUID            `json:"created_by,omitempty"`
	Items                []ItemDTO             `json:"items,omitempty"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`
}

func toEye(p models.Prescription) EyeInput {
	return EyeInput{Sph: fromNullable(p.Sph), Cyl: fromNullable(p.Cyl), Axis: p.Axis, Add: fromNullable(p.Add)}
}

func toPrescription(e EyeInput) models.Prescription {
	return models.Prescription{Sph: nullable(e.Sph), Cyl: nullable(e.Cyl), Axis: e.Axis, Add: nullable(e.Add)}
}

func toDTO(o models.SaleOrder) OrderDTO {
	dto := OrderDTO{
		ID:                   o.ID,
		OrderNo:              o.OrderNo,
		CustomerID:           o.CustomerID,
		OrderDate:            o.OrderDate,
		ExpectedDeliveryDate: o.ExpectedDeliveryDate,
		Status:               o.Status,
		Remarks:              o.Remarks,
		Subtotal:             o.Subtotal,
		DiscountTotal:        o.DiscountTotal,
		Total:                o.Total,
		CreatedBy:            o.CreatedBy,
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
	}
	if o.Customer != nil {
		dto.CustomerName = o.Customer.Name
	}
	if len(o.Items) > 0 {
		dto.Items = make([]ItemDTO, 0, len(o.Items))
	}
	for _, it := range o.Items {
		item := ItemDTO{
			ID:            it.ID,
			PriceRecordID: it.PriceRecordID,
			ProductID:     it.ProductID,
			CoatingID:     it.CoatingID,
			MaterialID:    it.MaterialID,
			TintingID:     it.TintingID,
			Quantity:      it.Quantity,
			BasePrice:     it.BasePrice,
			DiscountRate:  it.DiscountRate,
			UnitPrice:     it.UnitPrice,
			LineTotal:     it.LineTotal,
			Right:         toEye(it.Right),
			Left:          toEye(it.Left),
		}
		if rec := it.PriceRecord; rec != nil {
			if rec.Product != nil {
				item.ProductName = rec.Product.LensName
			}
			if rec.Coating != nil {
				item.CoatingName = rec.Coating.Name
			}
		}
		dto.Items = append(dto.Items, item)
	}
	return dto
}
