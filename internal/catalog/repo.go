package catalog

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/lensretail-backend/internal/repo"
	"github.com/angelmondragon/lensretail-backend/pkg/db/models"
	"github.com/angelmondragon/lensretail-backend/pkg/pagination"
)

// Repository handles lens catalog persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to catalog operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create inserts any catalog model.
func (r *Repository) Create(ctx context.Context, row any) error {
	return r.DB(ctx).Create(row).Error
}

// Save writes every column of an existing catalog model.
func (r *Repository) Save(ctx context.Context, row any) error {
	if row == nil {
		return fmt.Errorf("row is required")
	}
	return r.DB(ctx).Save(row).Error
}

func (r *Repository) FindBrand(ctx context.Context, id int64) (*models.LensBrand, error) {
	return repo.FindByID[models.LensBrand](ctx, r.Base, id)
}

func (r *Repository) FindProduct(ctx context.Context, id int64) (*models.LensProduct, error) {
	return repo.FindByID[models.LensProduct](ctx, r.Base, id, "Brand")
}

func (r *Repository) FindCoating(ctx context.Context, id int64) (*models.Coating, error) {
	return repo.FindByID[models.Coating](ctx, r.Base, id)
}

func (r *Repository) FindMaterial(ctx context.Context, id int64) (*models.LensMaterial, error) {
	return repo.FindByID[models.LensMaterial](ctx, r.Base, id)
}

func (r *Repository) FindTinting(ctx context.Context, id int64) (*models.LensTinting, error) {
	return repo.FindByID[models.LensTinting](ctx, r.Base, id)
}

func (r *Repository) FindPriceRecord(ctx context.Context, id int64) (*models.LensPriceRecord, error) {
	return repo.FindByID[models.LensPriceRecord](ctx, r.Base, id, "Product", "Coating")
}

func (r *Repository) ListBrands(ctx context.Context, params pagination.Params) ([]models.LensBrand, int64, error) {
	return repo.Page[models.LensBrand](ctx, r.Base, params, searchColumns(params, "name"))
}

func (r *Repository) ListProducts(ctx context.Context, params pagination.Params, filter ProductFilter) ([]models.LensProduct, int64, error) {
	search := searchColumns(params, "lens_name", "product_code")
	return repo.Page[models.LensProduct](ctx, r.Base, params, func(db *gorm.DB) *gorm.DB {
		if filter.BrandID != nil {
			db = db.Where("brand_id = ?", *filter.BrandID)
		}
		return search(db)
	}, "Brand")
}

func (r *Repository) ListCoatings(ctx context.Context, params pagination.Params) ([]models.Coating, int64, error) {
	return repo.Page[models.Coating](ctx, r.Base, params, searchColumns(params, "name"))
}

func (r *Repository) ListMaterials(ctx context.Context, params pagination.Params) ([]models.LensMaterial, int64, error) {
	return repo.Page[models.LensMaterial](ctx, r.Base, params, searchColumns(params, "name"))
}

func (r *Repository) ListTintings(ctx context.Context, params pagination.Params) ([]models.LensTinting, int64, error) {
	return repo.Page[models.LensTinting](ctx, r.Base, params, searchColumns(params, "name"))
}

func (r *Repository) ListPriceRecords(ctx context.Context, params pagination.Params, filter PriceRecordFilter) ([]models.LensPriceRecord, int64, error) {
	return repo.Page[models.LensPriceRecord](ctx, r.Base, params, func(db *gorm.DB) *gorm.DB {
		if filter.ProductID != nil {
			db = db.Where("product_id = ?", *filter.ProductID)
		}
		if filter.CoatingID != nil {
			db = db.Where("coating_id = ?", *filter.CoatingID)
		}
		return db
	}, "Product", "Coating")
}

// CountDependents returns how many live rows reference the entity, which
// blocks its deletion.
func (r *Repository) CountDependents(ctx context.Context, kind Kind, id int64) (int64, error) {
	var (
		model  any
		column string
	)
	switch kind {
	case KindBrand:
		model, column = &models.LensProduct{}, "brand_id"
	case KindProduct:
		model, column = &models.LensPriceRecord{}, "product_id"
	case KindCoating:
		model, column = &models.LensPriceRecord{}, "coating_id"
	case KindPriceRecord:
		model, column = &models.PriceMapping{}, "price_id"
	default:
		return 0, nil
	}
	var count int64
	err := r.DB(ctx).Model(model).Where(column+" = ?", id).Count(&count).Error
	return count, err
}

// Delete soft-deletes the entity and marks it inactive.
func (r *Repository) Delete(ctx context.Context, kind Kind, id int64) error {
	deactivate := map[string]any{"is_active": false}
	switch kind {
	case KindBrand:
		return repo.SoftDelete[models.LensBrand](ctx, r.Base, id, deactivate)
	case KindProduct:
		return repo.SoftDelete[models.LensProduct](ctx, r.Base, id, deactivate)
	case KindCoating:
		return repo.SoftDelete[models.Coating](ctx, r.Base, id, deactivate)
	case KindMaterial:
		return repo.SoftDelete[models.LensMaterial](ctx, r.Base, id, deactivate)
	case KindTinting:
		return repo.SoftDelete[models.LensTinting](ctx, r.Base, id, deactivate)
	case KindPriceRecord:
		return repo.SoftDelete[models.LensPriceRecord](ctx, r.Base, id, deactivate)
	}
	return fmt.Errorf("unknown catalog kind %q", kind)
}

func searchColumns(params pagination.Params, columns ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if params.Normalize().Search == "" || len(columns) == 0 {
			return db
		}
		pattern := params.LikePattern()
		cond := db.Session(&gorm.Session{NewDB: true})
		for i, col := range columns {
			clauseText := fmt.Sprintf("LOWER(%s) LIKE ?", col)
			if i == 0 {
				cond = cond.Where(clauseText, pattern)
			} else {
				cond = cond.Or(clauseText, pattern)
			}
		}
		return db.Where(cond)
	}
}
