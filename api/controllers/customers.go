package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/lensretail-backend/internal/customers"
	"github.com/angelmondragon/lensretail-backend/pkg/enums"
	"github.com/angelmondragon/lensretail-backend/pkg/logger"
)

type customerBody struct {
	CustomerCode *string          `json:"customer_code,omitempty"`
	Name         *string          `json:"name,omitempty" validate:"omitempty,max=150"`
	ShopName     *string          `json:"shop_name,omitempty" validate:"omitempty,max=150"`
	Phone        *string          `json:"phone,omitempty" validate:"omitempty,max=20"`
	Email        *string          `json:"email,omitempty"`
	Address      *string          `json:"address,omitempty" validate:"omitempty,max=500"`
	CreditLimit  *decimal.Decimal `json:"credit_limit,omitempty"`
	Status       *string          `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
}

func (b customerBody) input() customers.Input {
	return customers.Input{
		CustomerCode: b.CustomerCode,
		Name:         b.Name,
		ShopName:     b.ShopName,
		Phone:        b.Phone,
		Email:        b.Email,
		Address:      b.Address,
		CreditLimit:  b.CreditLimit,
		Status:       b.Status,
	}
}

func customerResource(svc customers.Service, logg *logger.Logger) resource[customers.Input, customers.CustomerDTO, *enums.RecordStatus] {
	return resource[customers.Input, customers.CustomerDTO, *enums.RecordStatus]{
		name:   "customer",
		svc:    svc,
		logg:   logg,
		decode: decodeInput[customers.Input, customerBody],
		filter: statusQuery,
	}
}

func CustomerCreate(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return customerResource(svc, logg).create()
}

func CustomerGet(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return customerResource(svc, logg).get()
}

func CustomerList(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return customerResource(svc, logg).list()
}

func CustomerUpdate(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return customerResource(svc, logg).update()
}

func CustomerDelete(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return customerResource(svc, logg).remove()
}
