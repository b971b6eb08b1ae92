package vendors

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/angelmondragon/lensretail-backend/pkg/db"
	"github.com/angelmondragon/lensretail-backend/pkg/db/models"
	"github.com/angelmondragon/lensretail-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/lensretail-backend/pkg/errors"
	"github.com/angelmondragon/lensretail-backend/pkg/pagination"
)

var (
	gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z0-9]{13}$`)
	validate     = validator.New()
)

type vendorRepository interface {
	Create(ctx context.Context, v *models.Vendor) error
	Save(ctx context.Context, v *models.Vendor) error
	FindByID(ctx context.Context, id int64) (*models.Vendor, error)
	List(ctx context.Context, params pagination.Params, status *enums.RecordStatus) ([]models.Vendor, int64, error)
	Delete(ctx context.Context, id int64) error
}

// Service exposes vendor operations.
type Service interface {
	Create(ctx context.Context, input Input) (*VendorDTO, error)
	Get(ctx context.Context, id int64) (*VendorDTO, error)
	List(ctx context.Context, params pagination.Params, status *enums.RecordStatus) (pagination.Result[VendorDTO], error)
	Update(ctx context.Context, id int64, input Input) (*VendorDTO, error)
	Delete(ctx context.Context, id int64) error
}

type service struct {
	repo vendorRepository
}

func NewService(repo vendorRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vendor repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input Input) (*VendorDTO, error) {
	var v models.Vendor
	v.Status = enums.RecordStatusActive
	if input.VendorCode == nil || strings.TrimSpace(*input.VendorCode) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor_code is required")
	}
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if err := apply(&v, input); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &v); err != nil {
		return nil, db.MapWriteError(err, "create vendor", "vendor code already exists")
	}
	dto := toDTO(v)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, id int64) (*VendorDTO, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapFind(err)
	}
	dto := toDTO(*v)
	return &dto, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, status *enums.RecordStatus) (pagination.Result[VendorDTO], error) {
	rows, total, err := s.repo.List(ctx, params, status)
	if err != nil {
		return pagination.Result[VendorDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendors")
	}
	return pagination.Map(pagination.NewResult(rows, params, total), toDTO), nil
}

func (s *service) Update(ctx context.Context, id int64, input Input) (*VendorDTO, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapFind(err)
	}
	if err := apply(v, input); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, v); err != nil {
		return nil, db.MapWriteError(err, "update vendor", "vendor code already exists")
	}
	dto := toDTO(*v)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapFind(err)
	}
	return nil
}

func apply(v *models.Vendor, in Input) error {
	if in.VendorCode != nil {
		code := strings.ToUpper(strings.TrimSpace(*in.VendorCode))
		if code == "" || len(code) > 20 {
			return pkgerrors.New(pkgerrors.CodeValidation, "vendor_code must be 1-20 characters")
		}
		v.VendorCode = code
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
		}
		v.Name = name
	}
	if in.ContactPerson != nil {
		v.ContactPerson = optional(*in.ContactPerson)
	}
	if in.Email != nil {
		email, err := NormalizeEmail(*in.Email)
		if err != nil {
			return err
		}
		v.Email = email
	}
	if in.Phone != nil {
		v.Phone = optional(*in.Phone)
	}
	if in.GSTIN != nil {
		gstin := optional(strings.ToUpper(*in.GSTIN))
		if gstin != nil && !gstinPattern.MatchString(*gstin) {
			return pkgerrors.New(pkgerrors.CodeValidation, "gstin must be 15 characters starting with a 2-digit state code")
		}
		v.GSTIN = gstin
	}
	if in.Address != nil {
		v.Address = optional(*in.Address)
	}
	if in.Status != nil {
		status, err := enums.ParseRecordStatus(strings.ToLower(strings.TrimSpace(*in.Status)))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "status must be active or inactive")
		}
		v.Status = status
	}
	return nil
}

// NormalizeEmail lowercases and checks an optional email. Empty input clears it.
func NormalizeEmail(raw string) (*string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return nil, nil
	}
	if err := validate.Var(trimmed, "email,max=255"); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email must be a valid email")
	}
	return &trimmed, nil
}

func optional(v string) *string {
	t := strings.TrimSpace(v)
	if t == "" {
		return nil
	}
	return &t
}

func mapFind(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
}
