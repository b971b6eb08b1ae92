package trays

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/lensretail-backend/internal/locations"
	"github.com/angelmondragon/lensretail-backend/pkg/db"
	"github.com/angelmondragon/lensretail-backend/pkg/db/models"
	"github.com/angelmondragon/lensretail-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/lensretail-backend/pkg/errors"
	"github.com/angelmondragon/lensretail-backend/pkg/pagination"
)

type trayRepository interface {
	Create(ctx context.Context, tray *models.Tray) error
	Save(ctx context.Context, tray *models.Tray) error
	FindByID(ctx context.Context, id int64) (*models.Tray, error)
	LocationExists(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, params pagination.Params, filter Filter) ([]models.Tray, int64, error)
	Delete(ctx context.Context, id int64) error
}

// Service exposes tray operations.
type Service interface {
	Create(ctx context.Context, input Input) (*TrayDTO, error)
	Get(ctx context.Context, id int64) (*TrayDTO, error)
	List(ctx context.Context, params pagination.Params, filter Filter) (pagination.Result[TrayDTO], error)
	Update(ctx context.Context, id int64, input Input) (*TrayDTO, error)
	Delete(ctx context.Context, id int64) error
}

type service struct {
	repo trayRepository
}

func NewService(repo trayRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tray repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input Input) (*TrayDTO, error) {
	if input.TrayCode == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tray_code is required")
	}
	code, err := locations.NormalizeCode("tray_code", *input.TrayCode)
	if err != nil {
		return nil, err
	}
	if input.LocationID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location_id is required")
	}
	if err := s.requireLocation(ctx, *input.LocationID); err != nil {
		return nil, err
	}
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	capacity := 1
	if input.Capacity != nil {
		capacity = *input.Capacity
	}
	if err := validateCapacity(capacity); err != nil {
		return nil, err
	}
	status := enums.RecordStatusActive
	if input.Status != nil {
		if status, err = enums.ParseRecordStatus(strings.ToLower(strings.TrimSpace(*input.Status))); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "status must be active or inactive")
		}
	}

	tray := models.Tray{
		TrayCode:   code,
		LocationID: *input.LocationID,
		Name:       strings.TrimSpace(*input.Name),
		Capacity:   capacity,
		Status:     status,
	}
	if err := s.repo.Create(ctx, &tray); err != nil {
		return nil, db.MapWriteError(err, "create tray", "tray code already exists")
	}
	return s.Get(ctx, tray.ID)
}

func (s *service) Get(ctx context.Context, id int64) (*TrayDTO, error) {
	tray, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapFind(err)
	}
	dto := toDTO(*tray)
	return &dto, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filter Filter) (pagination.Result[TrayDTO], error) {
	rows, total, err := s.repo.List(ctx, params, filter)
	if err != nil {
		return pagination.Result[TrayDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list trays")
	}
	return pagination.Map(pagination.NewResult(rows, params, total), toDTO), nil
}

func (s *service) Update(ctx context.Context, id int64, input Input) (*TrayDTO, error) {
	tray, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapFind(err)
	}
	if input.TrayCode != nil {
		if tray.TrayCode, err = locations.NormalizeCode("tray_code", *input.TrayCode); err != nil {
			return nil, err
		}
	}
	if input.LocationID != nil && *input.LocationID != tray.LocationID {
		if err := s.requireLocation(ctx, *input.LocationID); err != nil {
			return nil, err
		}
		tray.LocationID = *input.LocationID
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
		}
		tray.Name = name
	}
	if input.Capacity != nil {
		if err := validateCapacity(*input.Capacity); err != nil {
			return nil, err
		}
		tray.Capacity = *input.Capacity
	}
	if input.Status != nil {
		if tray.Status, err = enums.ParseRecordStatus(strings.ToLower(strings.TrimSpace(*input.Status))); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "status must be active or inactive")
		}
	}
	tray.Location = nil
	if err := s.repo.Save(ctx, tray); err != nil {
		return nil, db.MapWriteError(err, "update tray", "tray code already exists")
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapFind(err)
	}
	return nil
}

func (s *service) requireLocation(ctx context.Context, id int64) error {
	ok, err := s.repo.LocationExists(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup location")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
	}
	return nil
}

func validateCapacity(capacity int) error {
	if capacity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "capacity must be at least 1").
			WithDetails(map[string]any{"capacity": capacity, "min": 1})
	}
	return nil
}

func mapFind(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "tray not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tray")
}
