package saleorders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/lensretail-backend/internal/discounts/editor"
	"github.com/angelmondragon/lensretail-backend/pkg/db"
	"github.com/angelmondragon/lensretail-backend/pkg/db/models"
	"github.com/angelmondragon/lensretail-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/lensretail-backend/pkg/errors"
	"github.com/angelmondragon/lensretail-backend/pkg/logger"
	"github.com/angelmondragon/lensretail-backend/pkg/pagination"
)

const (
	maxItems       = 50
	maxQuantity    = 1000
	orderNoRetries = 3
)

type orderRepository interface {
	FindCustomer(ctx context.Context, id int64) (*models.Customer, error)
	FindPriceRecords(ctx context.Context, ids []int64) (map[int64]models.LensPriceRecord, error)
	CustomerRates(ctx context.Context, customerID int64, priceIDs []int64) (map[int64]decimal.Decimal, error)
	MaterialExists(ctx context.Context, id int64) (bool, error)
	TintingExists(ctx context.Context, id int64) (bool, error)
	NextOrderNo(ctx context.Context, day time.Time) (string, error)
	Create(ctx context.Context, order *models.SaleOrder) error
	FindByID(ctx context.Context, id int64) (*models.SaleOrder, error)
	List(ctx context.Context, params pagination.Params, filter Filter) ([]models.SaleOrder, int64, error)
	UpdateStatus(ctx context.Context, id int64, from, to enums.SaleOrderStatus) (bool, error)
}

// Service manages prescription lens sale orders.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*OrderDTO, error)
	Get(ctx context.Context, id int64) (*OrderDTO, error)
	List(ctx context.Context, params pagination.Params, filter Filter) (pagination.Result[OrderDTO], error)
	UpdateStatus(ctx context.Context, id int64, status enums.SaleOrderStatus) (*OrderDTO, error)
	Cancel(ctx context.Context, id int64) (*OrderDTO, error)
}

type service struct {
	repo orderRepository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo orderRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sale order repository required")
	}
	return &service{repo: repo, logg: logg, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*OrderDTO, error) {
	if input.CustomerID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer_id is required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	if len(input.Items) > maxItems {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "at most %d items per order", maxItems)
	}

	now := s.now().UTC()
	orderDate := now
	if input.OrderDate != nil {
		orderDate = input.OrderDate.UTC()
	}
	if input.ExpectedDeliveryDate != nil && startOfDay(*input.ExpectedDeliveryDate).Before(startOfDay(orderDate)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expected_delivery_date cannot be before order_date")
	}

	customer, err := s.repo.FindCustomer(ctx, input.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	if customer.Status != enums.RecordStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "customer is inactive")
	}

	items, err := s.priceItems(ctx, customer.ID, input.Items)
	if err != nil {
		return nil, err
	}

	order := &models.SaleOrder{
		CustomerID:           customer.ID,
		OrderDate:            orderDate,
		ExpectedDeliveryDate: input.ExpectedDeliveryDate,
		Status:               enums.SaleOrderStatusDraft,
		Remarks:              trimOptional(input.Remarks),
		CreatedBy:            input.CreatedBy,
		Items:                items,
	}
	order.Subtotal, order.DiscountTotal, order.Total = totals(items)

	if err := s.insert(ctx, order); err != nil {
		return nil, err
	}
	s.info(ctx, "sale order created", map[string]any{"order_no": order.OrderNo, "customer_id": customer.ID, "items": len(items)})
	return s.Get(ctx, order.ID)
}

// insert allocates an order number, retrying when a concurrent insert took it.
func (s *service) insert(ctx context.Context, order *models.SaleOrder) error {
	var lastErr error
	for attempt := 0; attempt < orderNoRetries; attempt++ {
		orderNo, err := s.repo.NextOrderNo(ctx, order.OrderDate)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
		}
		order.OrderNo = orderNo
		order.ID = 0
		err = s.repo.Create(ctx, order)
		if err == nil {
			return nil
		}
		if !db.IsUniqueViolation(err, "") {
			return db.MapWriteError(err, "create sale order", "sale order conflicts with existing data")
		}
		lastErr = err
	}
	return pkgerrors.Wrap(pkgerrors.CodeConflict, lastErr, "could not allocate an order number")
}

func (s *service) priceItems(ctx context.Context, customerID int64, inputs []ItemInput) ([]models.SaleOrderItem, error) {
	ids := make([]int64, 0, len(inputs))
	for _, in := range inputs {
		ids = append(ids, in.PriceRecordID)
	}
	records, err := s.repo.FindPriceRecords(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load price records")
	}
	rates, err := s.repo.CustomerRates(ctx, customerID, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer discounts")
	}

	var problems error
	items := make([]models.SaleOrderItem, 0, len(inputs))
	for i, in := range inputs {
		label := fmt.Sprintf("items[%d]", i)
		record, ok := records[in.PriceRecordID]
		if !ok {
			problems = multierr.Append(problems, fmt.Errorf("%s.price_record_id %d not found", label, in.PriceRecordID))
			continue
		}
		if in.Quantity < 1 || in.Quantity > maxQuantity {
			problems = multierr.Append(problems, fmt.Errorf("%s.quantity must be between 1 and %d", label, maxQuantity))
		}
		problems = multierr.Append(problems, in.Right.Validate(label+".right"))
		problems = multierr.Append(problems, in.Left.Validate(label+".left"))
		if err := s.checkOptional(ctx, label+".material_id", in.MaterialID, s.repo.MaterialExists); err != nil {
			if pkgerrors.As(err) != nil {
				return nil, err
			}
			problems = multierr.Append(problems, err)
		}
		if err := s.checkOptional(ctx, label+".tinting_id", in.TintingID, s.repo.TintingExists); err != nil {
			if pkgerrors.As(err) != nil {
				return nil, err
			}
			problems = multierr.Append(problems, err)
		}

		rate := rates[record.ID]
		unit := editor.ComputeDiscountedPrice(record.Price, rate)
		if in.UnitPrice != nil {
			if in.UnitPrice.IsNegative() {
				problems = multierr.Append(problems, fmt.Errorf("%s.unit_price must be at least 0", label))
			}
			unit = in.UnitPrice.Round(2)
		}
		items = append(items, models.SaleOrderItem{
			PriceRecordID: record.ID,
			ProductID:     record.ProductID,
			CoatingID:     record.CoatingID,
			MaterialID:    in.MaterialID,
			TintingID:     in.TintingID,
			Quantity:      in.Quantity,
			BasePrice:     record.Price,
			DiscountRate:  rate,
			UnitPrice:     unit,
			LineTotal:     unit.Mul(decimal.NewFromInt(int64(in.Quantity))).Round(2),
			Right:         toPrescription(in.Right),
			Left:          toPrescription(in.Left),
		})
	}
	if problems != nil {
		return nil, validationError(problems)
	}
	return items, nil
}

func (s *service) checkOptional(ctx context.Context, field string, id *int64, exists func(context.Context, int64) (bool, error)) error {
	if id == nil {
		return nil
	}
	ok, err := exists(ctx, *id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check "+field)
	}
	if !ok {
		return fmt.Errorf("%s %d not found", field, *id)
	}
	return nil
}

func (s *service) Get(ctx context.Context, id int64) (*OrderDTO, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toDTO(*order)
	return &dto, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filter Filter) (pagination.Result[OrderDTO], error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return pagination.Result[OrderDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "to must not be before from")
	}
	rows, total, err := s.repo.List(ctx, params, filter)
	if err != nil {
		return pagination.Result[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sale orders")
	}
	return pagination.Map(pagination.NewResult(rows, params, total), toDTO), nil
}

// UpdateStatus advances the order along the status table.
func (s *service) UpdateStatus(ctx context.Context, id int64, status enums.SaleOrderStatus) (*OrderDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown status")
	}
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(status) {
		return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot move order from %s to %s", order.Status, status).
			WithDetails(map[string]any{"from": order.Status, "to": status})
	}
	moved, err := s.repo.UpdateStatus(ctx, id, order.Status, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update sale order status")
	}
	if !moved {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
	}
	s.info(ctx, "sale order status changed", map[string]any{"order_no": order.OrderNo, "from": order.Status, "to": status})
	return s.Get(ctx, id)
}

func (s *service) Cancel(ctx context.Context, id int64) (*OrderDTO, error) {
	return s.UpdateStatus(ctx, id, enums.SaleOrderStatusCancelled)
}

func (s *service) load(ctx context.Context, id int64) (*models.SaleOrder, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale order")
	}
	return order, nil
}

func (s *service) info(ctx context.Context, msg string, fields map[string]any) {
	if s.logg == nil {
		return
	}
	s.logg.Info(s.logg.WithFields(ctx, fields), msg)
}

func totals(items []models.SaleOrderItem) (subtotal, discount, total decimal.Decimal) {
	for _, it := range items {
		qty := decimal.NewFromInt(int64(it.Quantity))
		subtotal = subtotal.Add(it.BasePrice.Mul(qty))
		total = total.Add(it.LineTotal)
	}
	subtotal = subtotal.Round(2)
	total = total.Round(2)
	return subtotal, subtotal.Sub(total), total
}

func validationError(problems error) error {
	errs := multierr.Errors(problems)
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	message := "invalid sale order items"
	if len(msgs) == 1 {
		message = msgs[0]
	}
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(map[string]any{"items": msgs})
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
