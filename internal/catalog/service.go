package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/lensretail-backend/pkg/db"
	"github.com/angelmondragon/lensretail-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/lensretail-backend/pkg/errors"
	"github.com/angelmondragon/lensretail-backend/pkg/pagination"
)

// Kind names a catalog entity for the shared delete path and master endpoints.
type Kind string

const (
	KindBrand       Kind = "brand"
	KindProduct     Kind = "product"
	KindCoating     Kind = "coating"
	KindMaterial    Kind = "material"
	KindTinting     Kind = "tinting"
	KindPriceRecord Kind = "price_record"
)

// IsMaster reports whether kind is one of the simple named masters.
func (k Kind) IsMaster() bool {
	return k == KindCoating || k == KindMaterial || k == KindTinting
}

type catalogRepository interface {
	Create(ctx context.Context, row any) error
	Save(ctx context.Context, row any) error
	FindBrand(ctx context.Context, id int64) (*models.LensBrand, error)
	FindProduct(ctx context.Context, id int64) (*models.LensProduct, error)
	FindCoating(ctx context.Context, id int64) (*models.Coating, error)
	FindMaterial(ctx context.Context, id int64) (*models.LensMaterial, error)
	FindTinting(ctx context.Context, id int64) (*models.LensTinting, error)
	FindPriceRecord(ctx context.Context, id int64) (*models.LensPriceRecord, error)
	ListBrands(ctx context.Context, params pagination.Params) ([]models.LensBrand, int64, error)
	ListProducts(ctx context.Context, params pagination.Params, filter ProductFilter) ([]models.LensProduct, int64, error)
	ListCoatings(ctx context.Context, params pagination.Params) ([]models.Coating, int64, error)
	ListMaterials(ctx context.Context, params pagination.Params) ([]models.LensMaterial, int64, error)
	ListTintings(ctx context.Context, params pagination.Params) ([]models.LensTinting, int64, error)
	ListPriceRecords(ctx context.Context, params pagination.Params, filter PriceRecordFilter) ([]models.LensPriceRecord, int64, error)
	CountDependents(ctx context.Context, kind Kind, id int64) (int64, error)
	Delete(ctx context.Context, kind Kind, id int64) error
}

// Service exposes lens catalog operations.
type Service interface {
	CreateBrand(ctx context.Context, input BrandInput) (*BrandDTO, error)
	GetBrand(ctx context.Context, id int64) (*BrandDTO, error)
	ListBrands(ctx context.Context, params pagination.Params) (pagination.Result[BrandDTO], error)
	UpdateBrand(ctx context.Context, id int64, input BrandInput) (*BrandDTO, error)

	CreateProduct(ctx context.Context, input ProductInput) (*ProductDTO, error)
	GetProduct(ctx context.Context, id int64) (*ProductDTO, error)
	ListProducts(ctx context.Context, params pagination.Params, filter ProductFilter) (pagination.Result[ProductDTO], error)
	UpdateProduct(ctx context.Context, id int64, input ProductInput) (*ProductDTO, error)

	CreateMaster(ctx context.Context, kind Kind, input MasterInput) (*MasterDTO, error)
	GetMaster(ctx context.Context, kind Kind, id int64) (*MasterDTO, error)
	ListMasters(ctx context.Context, kind Kind, params pagination.Params) (pagination.Result[MasterDTO], error)
	UpdateMaster(ctx context.Context, kind Kind, id int64, input MasterInput) (*MasterDTO, error)

	CreatePriceRecord(ctx context.Context, input PriceRecordInput) (*PriceRecordDTO, error)
	GetPriceRecord(ctx context.Context, id int64) (*PriceRecordDTO, error)
	ListPriceRecords(ctx context.Context, params pagination.Params, filter PriceRecordFilter) (pagination.Result[PriceRecordDTO], error)
	UpdatePriceRecord(ctx context.Context, id int64, input PriceRecordInput) (*PriceRecordDTO, error)

	Delete(ctx context.Context, kind Kind, id int64) error
}

type service struct {
	repo catalogRepository
}

// NewService builds the catalog service. Listeners are told about every
// successful write that changes the price hierarchy.
func NewService(repo catalogRepository, listeners ...ChangeListener) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	var svc Service = &service{repo: repo}
	if len(listeners) > 0 {
		svc = &notifying{Service: svc, listeners: listeners}
	}
	return svc, nil
}

const (
	maxNameLength = 150
	maxCodeLength = 50
)

var maxPrice = decimal.NewFromInt(10_000_000)

func (s *service) CreateBrand(ctx context.Context, input BrandInput) (*BrandDTO, error) {
	name, err := requiredText("name", input.Name, 100)
	if err != nil {
		return nil, err
	}
	brand := models.LensBrand{Name: name, Description: trimOptional(input.Description), IsActive: true}
	if err := s.repo.Create(ctx, &brand); err != nil {
		return nil, db.MapWriteError(err, "create brand", "brand name already exists")
	}
	if err := s.applyActive(ctx, &brand, &brand.IsActive, input.IsActive); err != nil {
		return nil, err
	}
	dto := toBrandDTO(brand)
	return &dto, nil
}

func (s *service) GetBrand(ctx context.Context, id int64) (*BrandDTO, error) {
	brand, err := s.repo.FindBrand(ctx, id)
	if err != nil {
		return nil, mapFindError(err, KindBrand)
	}
	dto := toBrandDTO(*brand)
	return &dto, nil
}

func (s *service) ListBrands(ctx context.Context, params pagination.Params) (pagination.Result[BrandDTO], error) {
	rows, total, err := s.repo.ListBrands(ctx, params)
	if err != nil {
		return pagination.Result[BrandDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list brands")
	}
	return pagination.Map(pagination.NewResult(rows, params, total), toBrandDTO), nil
}

func (s *service) UpdateBrand(ctx context.Context, id int64, input BrandInput) (*BrandDTO, error) {
	brand, err := s.repo.FindBrand(ctx, id)
	if err != nil {
		return nil, mapFindError(err, KindBrand)
	}
	if input.Name != nil {
		if brand.Name, err = requiredText("name", input.Name, 100); err != nil {
			return nil, err
		}
	}
	if input.Description != nil {
		brand.Description = trimOptional(input.Description)
	}
	if input.IsActive != nil {
		brand.IsActive = *input.IsActive
	}
	if err := s.repo.Save(ctx, brand); err != nil {
		return nil, db.MapWriteError(err, "update brand", "brand name already exists")
	}
	dto := toBrandDTO(*brand)
	return &dto, nil
}

func (s *service) CreateProduct(ctx context.Context, input ProductInput) (*ProductDTO, error) {
	if input.BrandID == nil || *input.BrandID <= 0 {
		return nil, fieldError("brand_id", "is required")
	}
	brand, err := s.repo.FindBrand(ctx, *input.BrandID)
	if err != nil {
		return nil, mapFindError(err, KindBrand)
	}
	lensName, err := requiredText("lens_name", input.LensName, maxNameLength)
	if err != nil {
		return nil, err
	}
	code, err := requiredText("product_code", input.ProductCode, maxCodeLength)
	if err != nil {
		return nil, err
	}

	product := models.LensProduct{
		BrandID:     brand.ID,
		LensName:    lensName,
		ProductCode: strings.ToUpper(code),
		Description: trimOptional(input.Description),
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, &product); err != nil {
		return nil, db.MapWriteError(err, "create product", "product code already exists")
	}
	if err := s.applyActive(ctx, &product, &product.IsActive, input.IsActive); err != nil {
		return nil, err
	}
	product.Brand = brand
	dto := toProductDTO(product)
	return &dto, nil
}

func (s *service) GetProduct(ctx context.Context, id int64) (*ProductDTO, error) {
	product, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		return nil, mapFindError(err, KindProduct)
	}
	dto := toProductDTO(*product)
	return &dto, nil
}

func (s *service) ListProducts(ctx context.Context, params pagination.Params, filter ProductFilter) (pagination.Result[ProductDTO], error) {
	rows, total, err := s.repo.ListProducts(ctx, params, filter)
	if err != nil {
		return pagination.Result[ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return pagination.Map(pagination.NewResult(rows, params, total), toProductDTO), nil
}

func (s *service) UpdateProduct(ctx context.Context, id int64, input ProductInput) (*ProductDTO, error) {
	product, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		return nil, mapFindError(err, KindProduct)
	}
	if input.BrandID != nil && *input.BrandID != product.BrandID {
		brand, err := s.repo.FindBrand(ctx, *input.BrandID)
		if err != nil {
			return nil, mapFindError(err, KindBrand)
		}
		product.BrandID = brand.ID
		product.Brand = brand
	}
	if input.LensName != nil {
		if product.LensName, err = requiredText("lens_name", input.LensName, maxNameLength); err != nil {
			return nil, err
		}
	}
	if input.ProductCode != nil {
		code, err := requiredText("product_code", input.ProductCode, maxCodeLength)
		if err != nil {
			return nil, err
		}
		product.ProductCode = strings.ToUpper(code)
	}
	if input.Description != nil {
		product.Description = trimOptional(input.Description)
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	brand := product.Brand
	product.Brand = nil
	if err := s.repo.Save(ctx, product); err != nil {
		return nil, db.MapWriteError(err, "update product", "product code already exists")
	}
	product.Brand = brand
	dto := toProductDTO(*product)
	return &dto, nil
}

func (s *service) CreateMaster(ctx context.Context, kind Kind, input MasterInput) (*MasterDTO, error) {
	if !kind.IsMaster() {
		return nil, unknownKind(kind)
	}
	name, err := requiredText("name", input.Name, 100)
	if err != nil {
		return nil, err
	}
	desc := trimOptional(input.Description)
	conflict := fmt.Sprintf("%s name already exists", kind)

	var dto MasterDTO
	switch kind {
	case KindCoating:
		row := models.Coating{Name: name, Description: desc, IsActive: true}
		if err := s.repo.Create(ctx, &row); err != nil {
			return nil, db.MapWriteError(err, "create coating", conflict)
		}
		if err := s.applyActive(ctx, &row, &row.IsActive, input.IsActive); err != nil {
			return nil, err
		}
		dto = coatingDTO(row)
	case KindMaterial:
		row := models.LensMaterial{Name: name, Description: desc, IsActive: true}
		if err := setRefractiveIndex(&row, input.RefractiveIndex); err != nil {
			return nil, err
		}
		if err := s.repo.Create(ctx, &row); err != nil {
			return nil, db.MapWriteError(err, "create material", conflict)
		}
		if err := s.applyActive(ctx, &row, &row.IsActive, input.IsActive); err != nil {
			return nil, err
		}
		dto = materialDTO(row)
	case KindTinting:
		row := models.LensTinting{Name: name, Description: desc, IsActive: true}
		if err := s.repo.Create(ctx, &row); err != nil {
			return nil, db.MapWriteError(err, "create tinting", conflict)
		}
		if err := s.applyActive(ctx, &row, &row.IsActive, input.IsActive); err != nil {
			return nil, err
		}
		dto = tintingDTO(row)
	}
	return &dto, nil
}

func (s *service) GetMaster(ctx context.Context, kind Kind, id int64) (*MasterDTO, error) {
	var dto MasterDTO
	switch kind {
	case KindCoating:
		row, err := s.repo.FindCoating(ctx, id)
		if err != nil {
			return nil, mapFindError(err, kind)
		}
		dto = coatingDTO(*row)
	case KindMaterial:
		row, err := s.repo.FindMaterial(ctx, id)
		if err != nil {
			return nil, mapFindError(err, kind)
		}
		dto = materialDTO(*row)
	case KindTinting:
		row, err := s.repo.FindTinting(ctx, id)
		if err != nil {
			return nil, mapFindError(err, kind)
		}
		dto = tintingDTO(*row)
	default:
		return nil, unknownKind(kind)
	}
	return &dto, nil
}

func (s *service) ListMasters(ctx context.Context, kind Kind, params pagination.Params) (pagination.Result[MasterDTO], error) {
	var (
		result pagination.Result[MasterDTO]
		total  int64
		err    error
	)
	switch kind {
	case KindCoating:
		var rows []models.Coating
		if rows, total, err = s.repo.ListCoatings(ctx, params); err == nil {
			result = pagination.Map(pagination.NewResult(rows, params, total), coatingDTO)
		}
	case KindMaterial:
		var rows []models.LensMaterial
		if rows, total, err = s.repo.ListMaterials(ctx, params); err == nil {
			result = pagination.Map(pagination.NewResult(rows, params, total), materialDTO)
		}
	case KindTinting:
		var rows []models.LensTinting
		if rows, total, err = s.repo.ListTintings(ctx, params); err == nil {
			result = pagination.Map(pagination.NewResult(rows, params, total), tintingDTO)
		}
	default:
		return result, unknownKind(kind)
	}
	if err != nil {
		return pagination.Result[MasterDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("list %ss", kind))
	}
	return result, nil
}

func (s *service) UpdateMaster(ctx context.Context, kind Kind, id int64, input MasterInput) (*MasterDTO, error) {
	var name string
	if input.Name != nil {
		var err error
		if name, err = requiredText("name", input.Name, 100); err != nil {
			return nil, err
		}
	}
	conflict := fmt.Sprintf("%s name already exists", kind)
	op := fmt.Sprintf("update %s", kind)

	var dto MasterDTO
	switch kind {
	case KindCoating:
		row, err := s.repo.FindCoating(ctx, id)
		if err != nil {
			return nil, mapFindError(err, kind)
		}
		applyMasterFields(&row.Name, &row.Description, &row.IsActive, name, input)
		if err := s.repo.Save(ctx, row); err != nil {
			return nil, db.MapWriteError(err, op, conflict)
		}
		dto = coatingDTO(*row)
	case KindMaterial:
		row, err := s.repo.FindMaterial(ctx, id)
		if err != nil {
			return nil, mapFindError(err, kind)
		}
		applyMasterFields(&row.Name, &row.Description, &row.IsActive, name, input)
		if input.RefractiveIndex != nil {
			if err := setRefractiveIndex(row, input.RefractiveIndex); err != nil {
				return nil, err
			}
		}
		if err := s.repo.Save(ctx, row); err != nil {
			return nil, db.MapWriteError(err, op, conflict)
		}
		dto = materialDTO(*row)
	case KindTinting:
		row, err := s.repo.FindTinting(ctx, id)
		if err != nil {
			return nil, mapFindError(err, kind)
		}
		applyMasterFields(&row.Name, &row.Description, &row.IsActive, name, input)
		if err := s.repo.Save(ctx, row); err != nil {
			return nil, db.MapWriteError(err, op, conflict)
		}
		dto = tintingDTO(*row)
	default:
		return nil, unknownKind(kind)
	}
	return &dto, nil
}

func (s *service) CreatePriceRecord(ctx context.Context, input PriceRecordInput) (*PriceRecordDTO, error) {
	if input.ProductID == nil || *input.ProductID <= 0 {
		return nil, fieldError("product_id", "is required")
	}
	if input.CoatingID == nil || *input.CoatingID <= 0 {
		return nil, fieldError("coating_id", "is required")
	}
	price, err := validatePrice(input.Price)
	if err != nil {
		return nil, err
	}
	product, err := s.repo.FindProduct(ctx, *input.ProductID)
	if err != nil {
		return nil, mapFindError(err, KindProduct)
	}
	coating, err := s.repo.FindCoating(ctx, *input.CoatingID)
	if err != nil {
		return nil, mapFindError(err, KindCoating)
	}

	record := models.LensPriceRecord{ProductID: product.ID, CoatingID: coating.ID, Price: price, IsActive: true}
	if err := s.repo.Create(ctx, &record); err != nil {
		return nil, db.MapWriteError(err, "create price record", "a price already exists for this product and coating")
	}
	if err := s.applyActive(ctx, &record, &record.IsActive, input.IsActive); err != nil {
		return nil, err
	}
	record.Product = product
	record.Coating = coating
	dto := toPriceRecordDTO(record)
	return &dto, nil
}

func (s *service) GetPriceRecord(ctx context.Context, id int64) (*PriceRecordDTO, error) {
	record, err := s.repo.FindPriceRecord(ctx, id)
	if err != nil {
		return nil, mapFindError(err, KindPriceRecord)
	}
	dto := toPriceRecordDTO(*record)
	return &dto, nil
}

func (s *service) ListPriceRecords(ctx context.Context, params pagination.Params, filter PriceRecordFilter) (pagination.Result[PriceRecordDTO], error) {
	rows, total, err := s.repo.ListPriceRecords(ctx, params, filter)
	if err != nil {
		return pagination.Result[PriceRecordDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list price records")
	}
	return pagination.Map(pagination.NewResult(rows, params, total), toPriceRecordDTO), nil
}

// UpdatePriceRecord changes the base price or active flag. The (product,
// coating) pair is the record's identity and cannot be moved.
func (s *service) UpdatePriceRecord(ctx context.Context, id int64, input PriceRecordInput) (*PriceRecordDTO, error) {
	record, err := s.repo.FindPriceRecord(ctx, id)
	if err != nil {
		return nil, mapFindError(err, KindPriceRecord)
	}
	if (input.ProductID != nil && *input.ProductID != record.ProductID) ||
		(input.CoatingID != nil && *input.CoatingID != record.CoatingID) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product and coating of a price record cannot change")
	}
	if input.Price != nil {
		if record.Price, err = validatePrice(input.Price); err != nil {
			return nil, err
		}
	}
	if input.IsActive != nil {
		record.IsActive = *input.IsActive
	}

	product, coating := record.Product, record.Coating
	record.Product, record.Coating = nil, nil
	if err := s.repo.Save(ctx, record); err != nil {
		return nil, db.MapWriteError(err, "update price record", "a price already exists for this product and coating")
	}
	record.Product, record.Coating = product, coating
	dto := toPriceRecordDTO(*record)
	return &dto, nil
}

// Delete soft-deletes the entity unless live rows still depend on it.
func (s *service) Delete(ctx context.Context, kind Kind, id int64) error {
	dependents, err := s.repo.CountDependents(ctx, kind, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("check %s dependents", kind))
	}
	if dependents > 0 {
		return pkgerrors.Newf(pkgerrors.CodeConflict, "%s is still referenced by %d record(s)", kind, dependents).
			WithDetails(map[string]any{"dependents": dependents})
	}
	if err := s.repo.Delete(ctx, kind, id); err != nil {
		return mapFindError(err, kind)
	}
	return nil
}

// applyActive honours an explicit is_active=false on create. The column
// defaults to true, so a zero bool would otherwise be ignored by the insert.
func (s *service) applyActive(ctx context.Context, row any, field *bool, requested *bool) error {
	if requested == nil || *requested {
		return nil
	}
	*field = false
	if err := s.repo.Save(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate record")
	}
	return nil
}

func applyMasterFields(name *string, desc **string, active *bool, newName string, input MasterInput) {
	if newName != "" {
		*name = newName
	}
	if input.Description != nil {
		*desc = trimOptional(input.Description)
	}
	if input.IsActive != nil {
		*active = *input.IsActive
	}
}

func setRefractiveIndex(row *models.LensMaterial, idx *decimal.Decimal) error {
	if idx == nil {
		return nil
	}
	if idx.LessThan(decimal.NewFromInt(1)) || idx.GreaterThan(decimal.NewFromInt(2)) {
		return fieldError("refractive_index", "must be between 1 and 2")
	}
	row.RefractiveIndex = decimal.NewNullDecimal(*idx)
	return nil
}

func validatePrice(price *decimal.Decimal) (decimal.Decimal, error) {
	if price == nil {
		return decimal.Zero, fieldError("price", "is required")
	}
	if !price.IsPositive() {
		return decimal.Zero, fieldError("price", "must be greater than 0")
	}
	if price.GreaterThanOrEqual(maxPrice) {
		return decimal.Zero, fieldError("price", "is too large")
	}
	return price.Round(2), nil
}

func requiredText(field string, value *string, max int) (string, error) {
	if value == nil {
		return "", fieldError(field, "is required")
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return "", fieldError(field, "is required")
	}
	if len(trimmed) > max {
		return "", fieldError(field, fmt.Sprintf("must be at most %d characters", max))
	}
	return trimmed, nil
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func fieldError(field, msg string) error {
	return pkgerrors.Newf(pkgerrors.CodeValidation, "%s %s", field, msg).
		WithDetails(map[string]string{field: msg})
}

func mapFindError(err error, kind Kind) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "%s not found", strings.ReplaceAll(string(kind), "_", " "))
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("load %s", kind))
}

func unknownKind(kind Kind) error {
	return pkgerrors.Newf(pkgerrors.CodeNotFound, "unknown catalog type %q", kind)
}
