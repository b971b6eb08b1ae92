package catalog

import "context"

// ChangeListener is told when brands, products, coatings or price records
// change. The pricing service uses it to retire cached hierarchies.
type ChangeListener interface {
	CatalogChanged(ctx context.Context)
}

// notifying forwards every call to Service and fires the listeners after
// writes that show up in a customer's price hierarchy. Materials and
// tintings do not.
type notifying struct {
	Service
	listeners []ChangeListener
}

func inHierarchy(kind Kind) bool {
	switch kind {
	case KindBrand, KindProduct, KindCoating, KindPriceRecord:
		return true
	}
	return false
}

func (n *notifying) fire(ctx context.Context, err error) {
	if err != nil {
		return
	}
	for _, l := range n.listeners {
		l.CatalogChanged(ctx)
	}
}

func (n *notifying) CreateBrand(ctx context.Context, input BrandInput) (*BrandDTO, error) {
	dto, err := n.Service.CreateBrand(ctx, input)
	n.fire(ctx, err)
	return dto, err
}

func (n *notifying) UpdateBrand(ctx context.Context, id int64, input BrandInput) (*BrandDTO, error) {
	dto, err := n.Service.UpdateBrand(ctx, id, input)
	n.fire(ctx, err)
	return dto, err
}

func (n *notifying) CreateProduct(ctx context.Context, input ProductInput) (*ProductDTO, error) {
	dto, err := n.Service.CreateProduct(ctx, input)
	n.fire(ctx, err)
	return dto, err
}

func (n *notifying) UpdateProduct(ctx context.Context, id int64, input ProductInput) (*ProductDTO, error) {
	dto, err := n.Service.UpdateProduct(ctx, id, input)
	n.fire(ctx, err)
	return dto, err
}

func (n *notifying) CreateMaster(ctx context.Context, kind Kind, input MasterInput) (*MasterDTO, error) {
	dto, err := n.Service.CreateMaster(ctx, kind, input)
	if inHierarchy(kind) {
		n.fire(ctx, err)
	}
	return dto, err
}

func (n *notifying) UpdateMaster(ctx context.Context, kind Kind, id int64, input MasterInput) (*MasterDTO, error) {
	dto, err := n.Service.UpdateMaster(ctx, kind, id, input)
	if inHierarchy(kind) {
		n.fire(ctx, err)
	}
	return dto, err
}

func (n *notifying) CreatePriceRecord(ctx context.Context, input PriceRecordInput) (*PriceRecordDTO, error) {
	dto, err := n.Service.CreatePriceRecord(ctx, input)
	n.fire(ctx, err)
	return dto, err
}

func (n *notifying) UpdatePriceRecord(ctx context.Context, id int64, input PriceRecordInput) (*PriceRecordDTO, error) {
	dto, err := n.Service.UpdatePriceRecord(ctx, id, input)
	n.fire(ctx, err)
	return dto, err
}

func (n *notifying) Delete(ctx context.Context, kind Kind, id int64) error {
	err := n.Service.Delete(ctx, kind, id)
	if inHierarchy(kind) {
		n.fire(ctx, err)
	}
	return err
}
