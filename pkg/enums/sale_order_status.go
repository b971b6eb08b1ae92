package enums

import "fmt"

// SaleOrderStatus tracks a sale order through the lab and counter.
type SaleOrderStatus string

const (
	SaleOrderStatusDraft     SaleOrderStatus = "draft"
	SaleOrderStatusConfirmed SaleOrderStatus = "confirmed"
	SaleOrderStatusInProcess SaleOrderStatus = "in_process"
	SaleOrderStatusReady     SaleOrderStatus = "ready"
	SaleOrderStatusDelivered SaleOrderStatus = "delivered"
	SaleOrderStatusCancelled SaleOrderStatus = "cancelled"
)

var validSaleOrderStatuses = []SaleOrderStatus{
	SaleOrderStatusDraft,
	SaleOrderStatusConfirmed,
	SaleOrderStatusInProcess,
	SaleOrderStatusReady,
	SaleOrderStatusDelivered,
	SaleOrderStatusCancelled,
}

var saleOrderTransitions = map[SaleOrderStatus][]SaleOrderStatus{
	SaleOrderStatusDraft:     {SaleOrderStatusConfirmed, SaleOrderStatusCancelled},
	SaleOrderStatusConfirmed: {SaleOrderStatusInProcess, SaleOrderStatusCancelled},
	SaleOrderStatusInProcess: {SaleOrderStatusReady, SaleOrderStatusCancelled},
	SaleOrderStatusReady:     {SaleOrderStatusDelivered},
}

// String implements fmt.Stringer.
func (s SaleOrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SaleOrderStatus.
func (s SaleOrderStatus) IsValid() bool {
	for _, candidate := range validSaleOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s SaleOrderStatus) IsTerminal() bool {
	return len(saleOrderTransitions[s]) == 0
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s SaleOrderStatus) CanTransitionTo(next SaleOrderStatus) bool {
	for _, candidate := range saleOrderTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseSaleOrderStatus converts raw input into a SaleOrderStatus.
func ParseSaleOrderStatus(value string) (SaleOrderStatus, error) {
	for _, candidate := range validSaleOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sale order status %q", value)
}
