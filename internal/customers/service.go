package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/lensretail-backend/internal/vendors"
	"github.com/angelmondragon/lensretail-backend/pkg/db"
	"github.com/angelmondragon/lensretail-backend/pkg/db/models"
	"github.com/angelmondragon/lensretail-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/lensretail-backend/pkg/errors"
	"github.com/angelmondragon/lensretail-backend/pkg/pagination"
)

type customerRepository interface {
	Create(ctx context.Context, c *models.Customer) error
	Save(ctx context.Context, c *models.Customer) error
	FindByID(ctx context.Context, id int64) (*models.Customer, error)
	List(ctx context.Context, params pagination.Params, status *enums.RecordStatus) ([]models.Customer, int64, error)
	CustomersWithMappings(ctx context.Context, ids []int64) (map[int64]bool, error)
	CountDependents(ctx context.Context, id int64) (int64, int64, error)
	Delete(ctx context.Context, id int64) error
}

// Service exposes customer operations.
type Service interface {
	Create(ctx context.Context, input Input) (*CustomerDTO, error)
	Get(ctx context.Context, id int64) (*CustomerDTO, error)
	List(ctx context.Context, params pagination.Params, status *enums.RecordStatus) (pagination.Result[CustomerDTO], error)
	Update(ctx context.Context, id int64, input Input) (*CustomerDTO, error)
	Delete(ctx context.Context, id int64) error
}

type service struct {
	repo customerRepository
}

func NewService(repo customerRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input Input) (*CustomerDTO, error) {
	if input.CustomerCode == nil || strings.TrimSpace(*input.CustomerCode) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer_code is required")
	}
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	c := models.Customer{Status: enums.RecordStatusActive, CreditLimit: decimal.Zero}
	if err := apply(&c, input); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &c); err != nil {
		return nil, db.MapWriteError(err, "create customer", "customer code already exists")
	}
	dto := toDTO(c, false)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, id int64) (*CustomerDTO, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapFind(err)
	}
	mapped, err := s.repo.CustomersWithMappings(ctx, []int64{c.ID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check price mappings")
	}
	dto := toDTO(*c, mapped[c.ID])
	return &dto, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, status *enums.RecordStatus) (pagination.Result[CustomerDTO], error) {
	rows, total, err := s.repo.List(ctx, params, status)
	if err != nil {
		return pagination.Result[CustomerDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}
	ids := make([]int64, 0, len(rows))
	for _, c := range rows {
		ids = append(ids, c.ID)
	}
	mapped, err := s.repo.CustomersWithMappings(ctx, ids)
	if err != nil {
		return pagination.Result[CustomerDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check price mappings")
	}
	return pagination.Map(pagination.NewResult(rows, params, total), func(c models.Customer) CustomerDTO {
		return toDTO(c, mapped[c.ID])
	}), nil
}

func (s *service) Update(ctx context.Context, id int64, input Input) (*CustomerDTO, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapFind(err)
	}
	if err := apply(c, input); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, db.MapWriteError(err, "update customer", "customer code already exists")
	}
	return s.Get(ctx, id)
}

// Delete soft-deletes a customer that has no sale orders and no price overrides.
func (s *service) Delete(ctx context.Context, id int64) error {
	orders, mappings, err := s.repo.CountDependents(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check customer dependents")
	}
	if orders > 0 || mappings > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "customer has sale orders or price mappings").
			WithDetails(map[string]any{"sale_orders": orders, "price_mappings": mappings})
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapFind(err)
	}
	return nil
}

func apply(c *models.Customer, in Input) error {
	if in.CustomerCode != nil {
		code := strings.ToUpper(strings.TrimSpace(*in.CustomerCode))
		if code == "" || len(code) > 20 {
			return pkgerrors.New(pkgerrors.CodeValidation, "customer_code must be 1-20 characters")
		}
		c.CustomerCode = code
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
		}
		c.Name = name
	}
	if in.ShopName != nil {
		c.ShopName = optional(*in.ShopName)
	}
	if in.Phone != nil {
		c.Phone = optional(*in.Phone)
	}
	if in.Email != nil {
		email, err := vendors.NormalizeEmail(*in.Email)
		if err != nil {
			return err
		}
		c.Email = email
	}
	if in.Address != nil {
		c.Address = optional(*in.Address)
	}
	if in.CreditLimit != nil {
		if in.CreditLimit.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "credit_limit must be at least 0")
		}
		c.CreditLimit = in.CreditLimit.Round(2)
	}
	if in.Status != nil {
		status, err := enums.ParseRecordStatus(strings.ToLower(strings.TrimSpace(*in.Status)))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "status must be active or inactive")
		}
		c.Status = status
	}
	return nil
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
		return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
}
