package main

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/lensretail-backend/internal/catalog"
	"github.com/angelmondragon/lensretail-backend/internal/customers"
	"github.com/angelmondragon/lensretail-backend/internal/users"
	pkgerrors "github.com/angelmondragon/lensretail-backend/pkg/errors"
	"github.com/angelmondragon/lensretail-backend/pkg/logger"
)

type seedProduct struct {
	name   string
	code   string
	prices []int64
}

// essilorSample is the brand used in the discount editor walkthrough: two
// products, each priced for the same two coatings.
var essilorSample = struct {
	brand    string
	coatings []string
	products []seedProduct
}{
	brand:    "Essilor",
	coatings: []string{"Crizal Sapphire", "Blue UV Capture"},
	products: []seedProduct{
		{name: "Varilux Comfort", code: "ESS-VRX-CMF", prices: []int64{1500, 2000}},
		{name: "Eyezen Start", code: "ESS-EZN-STR", prices: []int64{5000, 6500}},
	},
}

type seeder struct {
	users     users.Service
	catalog   catalog.Service
	customers customers.Service
	logg      *logger.Logger
}

type adminAccount struct {
	Email    string
	Password string
	Name     string
}

func (s *seeder) run(ctx context.Context, admin adminAccount) error {
	if err := s.seedAdmin(ctx, admin); err != nil {
		return err
	}
	if err := s.seedCatalog(ctx); err != nil {
		return err
	}
	return s.seedCustomer(ctx)
}

func (s *seeder) seedAdmin(ctx context.Context, admin adminAccount) error {
	role := "admin"
	created, err := s.users.Create(ctx, users.CreateInput{
		Email:    admin.Email,
		Password: admin.Password,
		Name:     admin.Name,
		Role:     role,
	})
	if alreadySeeded(err) {
		s.logg.Info(s.logg.WithField(ctx, "email", admin.Email), "seed.admin_exists")
		return nil
	}
	if err != nil {
		return fmt.Errorf("seeding admin user: %w", err)
	}
	s.logg.Info(s.logg.WithUserID(ctx, created.ID.String()), "seed.admin_created")
	return nil
}

func (s *seeder) seedCatalog(ctx context.Context) error {
	brand, err := s.catalog.CreateBrand(ctx, catalog.BrandInput{Name: &essilorSample.brand})
	if alreadySeeded(err) {
		s.logg.Info(ctx, "seed.catalog_exists")
		return nil
	}
	if err != nil {
		return fmt.Errorf("seeding brand: %w", err)
	}

	coatingIDs := make([]int64, 0, len(essilorSample.coatings))
	for _, name := range essilorSample.coatings {
		coating, err := s.catalog.CreateMaster(ctx, catalog.KindCoating, catalog.MasterInput{Name: &name})
		if err != nil {
			return fmt.Errorf("seeding coating %s: %w", name, err)
		}
		coatingIDs = append(coatingIDs, coating.ID)
	}

	material := "Polycarbonate"
	index := decimal.RequireFromString("1.59")
	if _, err := s.catalog.CreateMaster(ctx, catalog.KindMaterial, catalog.MasterInput{Name: &material, RefractiveIndex: &index}); err != nil && !alreadySeeded(err) {
		return fmt.Errorf("seeding material: %w", err)
	}
	tint := "Grey Gradient"
	if _, err := s.catalog.CreateMaster(ctx, catalog.KindTinting, catalog.MasterInput{Name: &tint}); err != nil && !alreadySeeded(err) {
		return fmt.Errorf("seeding tinting: %w", err)
	}

	records := 0
	for _, sample := range essilorSample.products {
		product, err := s.catalog.CreateProduct(ctx, catalog.ProductInput{
			BrandID:     &brand.ID,
			LensName:    &sample.name,
			ProductCode: &sample.code,
		})
		if err != nil {
			return fmt.Errorf("seeding product %s: %w", sample.code, err)
		}
		for i, amount := range sample.prices {
			price := decimal.NewFromInt(amount)
			if _, err := s.catalog.CreatePriceRecord(ctx, catalog.PriceRecordInput{
				ProductID: &product.ID,
				CoatingID: &coatingIDs[i],
				Price:     &price,
			}); err != nil {
				return fmt.Errorf("seeding price record %s/%d: %w", sample.code, coatingIDs[i], err)
			}
			records++
		}
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"brand_id": brand.ID, "price_records": records}), "seed.catalog_created")
	return nil
}

func (s *seeder) seedCustomer(ctx context.Context) error {
	code := "CUST-001"
	name := "Vision Care Opticals"
	limit := decimal.NewFromInt(50000)
	_, err := s.customers.Create(ctx, customers.Input{CustomerCode: &code, Name: &name, CreditLimit: &limit})
	if alreadySeeded(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("seeding customer: %w", err)
	}
	s.logg.Info(s.logg.WithField(ctx, "customer_code", code), "seed.customer_created")
	return nil
}

func alreadySeeded(err error) bool {
	typed := pkgerrors.As(err)
	return typed != nil && typed.Code() == pkgerrors.CodeConflict
}
