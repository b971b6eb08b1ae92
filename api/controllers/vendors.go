package controllers

import (
	"net/http"

	"github.com/angelmondragon/lensretail-backend/internal/vendors"
	"github.com/angelmondragon/lensretail-backend/pkg/enums"
	"github.com/angelmondragon/lensretail-backend/pkg/logger"
)

type vendorBody struct {
	VendorCode    *string `json:"vendor_code,omitempty"`
	Name          *string `json:"name,omitempty" validate:"omitempty,max=150"`
	ContactPerson *string `json:"contact_person,omitempty" validate:"omitempty,max=100"`
	Email         *string `json:"email,omitempty"`
	Phone         *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	GSTIN         *string `json:"gstin,omitempty"`
	Address       *string `json:"address,omitempty" validate:"omitempty,max=500"`
	Status        *string `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
}

func (b vendorBody) input() vendors.Input {
	return vendors.Input{
		VendorCode:    b.VendorCode,
		Name:          b.Name,
		ContactPerson: b.ContactPerson,
		Email:         b.Email,
		Phone:         b.Phone,
		GSTIN:         b.GSTIN,
		Address:       b.Address,
		Status:        b.Status,
	}
}

func vendorResource(svc vendors.Service, logg *logger.Logger) resource[vendors.Input, vendors.VendorDTO, *enums.RecordStatus] {
	return resource[vendors.Input, vendors.VendorDTO, *enums.RecordStatus]{
		name:   "vendor",
		svc:    svc,
		logg:   logg,
		decode: decodeInput[vendors.Input, vendorBody],
		filter: statusQuery,
	}
}

func VendorCreate(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return vendorResource(svc, logg).create()
}

func VendorGet(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return vendorResource(svc, logg).get()
}

func VendorList(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return vendorResource(svc, logg).list()
}

func VendorUpdate(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return vendorResource(svc, logg).update()
}

func VendorDelete(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return vendorResource(svc, logg).remove()
}
