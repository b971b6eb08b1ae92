package controllers

import (
	"net/http"

	"github.com/angelmondragon/lensretail-backend/internal/locations"
	"github.com/angelmondragon/lensretail-backend/pkg/enums"
	"github.com/angelmondragon/lensretail-backend/pkg/logger"
)

type locationBody struct {
	LocationCode *string `json:"location_code,omitempty"`
	Name         *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Address      *string `json:"address,omitempty" validate:"omitempty,max=500"`
	Status       *string `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
}

func (b locationBody) input() locations.Input {
	return locations.Input{LocationCode: b.LocationCode, Name: b.Name, Address: b.Address, Status: b.Status}
}

func locationResource(svc locations.Service, logg *logger.Logger) resource[locations.Input, locations.LocationDTO, *enums.RecordStatus] {
	return resource[locations.Input, locations.LocationDTO, *enums.RecordStatus]{
		name:   "location",
		svc:    svc,
		logg:   logg,
		decode: decodeInput[locations.Input, locationBody],
		filter: statusQuery,
	}
}

func LocationCreate(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return locationResource(svc, logg).create()
}

func LocationGet(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return locationResource(svc, logg).get()
}

func LocationList(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return locationResource(svc, logg).list()
}

func LocationUpdate(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return locationResource(svc, logg).update()
}

func LocationDelete(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return locationResource(svc, logg).remove()
}
