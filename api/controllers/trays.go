package controllers

import (
	"net/http"

	"github.com/angelmondragon/lensretail-backend/api/validators"
	"github.com/angelmondragon/lensretail-backend/internal/trays"
	"github.com/angelmondragon/lensretail-backend/pkg/logger"
)

type trayBody struct {
	TrayCode   *string `json:"tray_code,omitempty"`
	LocationID *int64  `json:"location_id,omitempty" validate:"omitempty,gt=0"`
	Name       *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Capacity   *int    `json:"capacity,omitempty"`
	Status     *string `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
}

func (b trayBody) input() trays.Input {
	return trays.Input{TrayCode: b.TrayCode, LocationID: b.LocationID, Name: b.Name, Capacity: b.Capacity, Status: b.Status}
}

func trayResource(svc trays.Service, logg *logger.Logger) resource[trays.Input, trays.TrayDTO, trays.Filter] {
	return resource[trays.Input, trays.TrayDTO, trays.Filter]{
		name:   "tray",
		svc:    svc,
		logg:   logg,
		decode: decodeInput[trays.Input, trayBody],
		filter: trayFilter,
	}
}

func TrayCreate(svc trays.Service, logg *logger.Logger) http.HandlerFunc {
	return trayResource(svc, logg).create()
}

func TrayGet(svc trays.Service, logg *logger.Logger) http.HandlerFunc {
	return trayResource(svc, logg).get()
}

func TrayList(svc trays.Service, logg *logger.Logger) http.HandlerFunc {
	return trayResource(svc, logg).list()
}

func TrayUpdate(svc trays.Service, logg *logger.Logger) http.HandlerFunc {
	return trayResource(svc, logg).update()
}

func TrayDelete(svc trays.Service, logg *logger.Logger) http.HandlerFunc {
	return trayResource(svc, logg).remove()
}

func trayFilter(r *http.Request) (trays.Filter, error) {
	var (
		filter trays.Filter
		err    error
	)
	if filter.Status, err = statusQuery(r); err != nil {
		return filter, err
	}
	filter.LocationID, err = validators.ParseQueryInt64(r, "location_id")
	return filter, err
}
