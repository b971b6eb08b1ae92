package customers

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/lensretail-backend/pkg/db/models"
	"github.com/angelmondragon/lensretail-backend/pkg/enums"
)

// Input creates or updates a customer. Nil fields are left unchanged on update.
type Input struct {
	CustomerCode *string
	Name         *string
	ShopName     *string
	Phone        *string
	Email        *string
	Address      *string
	CreditLimit  *decimal.Decimal
	Status       *string
}

type CustomerDTO struct {
	ID              int64              `json:"id"`
	CustomerCode    string             `json:"customer_code"`
	Name            string             `json:"name"`
	ShopName        *string            `json:"shop_name,omitempty"`
	Phone           *string            `json:"phone,omitempty"`
	Email           *string            `json:"email,omitempty"`
	Address         *string            `json:"address,omitempty"`
	CreditLimit     decimal.Decimal    `json:"credit_limit"`
	Status          enums.RecordStatus `json:"status"`
	HasPriceMapping bool               `json:"hasPriceMapping"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

func toDTO(m models.Customer, hasMapping bool) CustomerDTO {
	return CustomerDTO{
		ID:              m.ID,
		CustomerCode:    m.CustomerCode,
		Name:            m.Name,
		ShopName:        m.ShopName,
		Phone:           m.Phone,
		Email:           m.Email,
		Address:         m.Address,
		CreditLimit:     m.CreditLimit,
		Status:          m.Status,
		HasPriceMapping: hasMapping,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
