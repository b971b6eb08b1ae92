package locations

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/lensretail-backend/pkg/db"
	"github.com/angelmondragon/lensretail-backend/pkg/db/models"
	"github.com/angelmondragon/lensretail-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/lensretail-backend/pkg/errors"
	"github.com/angelmondragon/lensretail-backend/pkg/pagination"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9-]{2,20}$`)

// NormalizeCode uppercases and validates a location or tray code.
func NormalizeCode(field, raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if !codePattern.MatchString(code) {
		return "", pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be 2-20 letters, digits or dashes", field).
			WithDetails(map[string]string{field: "must be 2-20 letters, digits or dashes"})
	}
	return code, nil
}

type locationRepository interface {
	Create(ctx context.Context, loc *models.Location) error
	Save(ctx context.Context, loc *models.Location) error
	FindByID(ctx context.Context, id int64) (*models.Location, error)
	List(ctx context.Context, params pagination.Params, status *enums.RecordStatus) ([]models.Location, int64, error)
	CountTrays(ctx context.Context, id int64) (int64, error)
	Delete(ctx context.Context, id int64) error
}

// Service exposes location operations.
type Service interface {
	Create(ctx context.Context, input Input) (*LocationDTO, error)
	Get(ctx context.Context, id int64) (*LocationDTO, error)
	List(ctx context.Context, params pagination.Params, status *enums.RecordStatus) (pagination.Result[LocationDTO], error)
	Update(ctx context.Context, id int64, input Input) (*LocationDTO, error)
	Delete(ctx context.Context, id int64) error
}

type service struct {
	repo locationRepository
}

func NewService(repo locationRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("location repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input Input) (*LocationDTO, error) {
	if input.LocationCode == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location_code is required")
	}
	code, err := NormalizeCode("location_code", *input.LocationCode)
	if err != nil {
		return nil, err
	}
	name, err := requireName(input.Name)
	if err != nil {
		return nil, err
	}
	status, err := parseStatus(input.Status, enums.RecordStatusActive)
	if err != nil {
		return nil, err
	}

	loc := models.Location{LocationCode: code, Name: name, Address: trim(input.Address), Status: status}
	if err := s.repo.Create(ctx, &loc); err != nil {
		return nil, db.MapWriteError(err, "create location", "location code already exists")
	}
	dto := toDTO(loc)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, id int64) (*LocationDTO, error) {
	loc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapFind(err)
	}
	dto := toDTO(*loc)
	return &dto, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, status *enums.RecordStatus) (pagination.Result[LocationDTO], error) {
	rows, total, err := s.repo.List(ctx, params, status)
	if err != nil {
		return pagination.Result[LocationDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list locations")
	}
	return pagination.Map(pagination.NewResult(rows, params, total), toDTO), nil
}

func (s *service) Update(ctx context.Context, id int64, input Input) (*LocationDTO, error) {
	loc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapFind(err)
	}
	if input.LocationCode != nil {
		if loc.LocationCode, err = NormalizeCode("location_code", *input.LocationCode); err != nil {
			return nil, err
		}
	}
	if input.Name != nil {
		if loc.Name, err = requireName(input.Name); err != nil {
			return nil, err
		}
	}
	if input.Address != nil {
		loc.Address = trim(input.Address)
	}
	if input.Status != nil {
		if loc.Status, err = parseStatus(input.Status, loc.Status); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Save(ctx, loc); err != nil {
		return nil, db.MapWriteError(err, "update location", "location code already exists")
	}
	dto := toDTO(*loc)
	return &dto, nil
}

// Delete soft-deletes the location. Locations still holding trays cannot be removed.
func (s *service) Delete(ctx context.Context, id int64) error {
	trays, err := s.repo.CountTrays(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count trays")
	}
	if trays > 0 {
		return pkgerrors.Newf(pkgerrors.CodeConflict, "location still has %d tray(s)", trays)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapFind(err)
	}
	return nil
}

func requireName(name *string) (string, error) {
	if name == nil || strings.TrimSpace(*name) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	trimmed := strings.TrimSpace(*name)
	if len(trimmed) > 100 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "name must be at most 100 characters")
	}
	return trimmed, nil
}

func parseStatus(raw *string, fallback enums.RecordStatus) (enums.RecordStatus, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return fallback, nil
	}
	status, err := enums.ParseRecordStatus(strings.ToLower(strings.TrimSpace(*raw)))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "status must be active or inactive")
	}
	return status, nil
}

func trim(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func mapFind(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load location")
}
