package editor

import "github.com/shopspring/decimal"

// Origin records which editor action produced a pending edit.
type Origin string

const (
	OriginBrand     Origin = "brand"
	OriginProduct   Origin = "product"
	OriginCoating   Origin = "coating"
	OriginPersisted Origin = "persisted"
)

// PendingEdit is an override candidate for a single coating price record.
type PendingEdit struct {
	BrandID   int64
	ProductID int64
	CoatingID int64
	PriceID   int64
	Discount  decimal.Decimal
	Origin    Origin
}

// PendingEdits maps price record id to its pending edit and remembers the
// order in which records were first touched. Overwriting a key keeps its
// original position.
type PendingEdits struct {
	order []int64
	byID  map[int64]PendingEdit
}

func NewPendingEdits() *PendingEdits {
	return &PendingEdits{byID: make(map[int64]PendingEdit)}
}

func (p *PendingEdits) Set(edit PendingEdit) {
	if _, ok := p.byID[edit.PriceID]; !ok {
		p.order = append(p.order, edit.PriceID)
	}
	p.byID[edit.PriceID] = edit
}

func (p *PendingEdits) Get(priceID int64) (PendingEdit, bool) {
	edit, ok := p.byID[priceID]
	return edit, ok
}

func (p *PendingEdits) Len() int {
	return len(p.order)
}

// Entries returns the edits in first-touched order.
func (p *PendingEdits) Entries() []PendingEdit {
	out := make([]PendingEdit, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.byID[id])
	}
	return out
}

func (p *PendingEdits) Clear() {
	p.order = nil
	p.byID = make(map[int64]PendingEdit)
}

// HasUnsaved reports whether any edit did not come from the store.
func (p *PendingEdits) HasUnsaved() bool {
	for _, edit := range p.byID {
		if edit.Origin != OriginPersisted {
			return true
		}
	}
	return false
}
