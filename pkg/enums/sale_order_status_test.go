package enums

import "testing"

func TestSaleOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to SaleOrderStatus
		ok       bool
	}{
		{SaleOrderStatusDraft, SaleOrderStatusConfirmed, true},
		{SaleOrderStatusDraft, SaleOrderStatusReady, false},
		{SaleOrderStatusConfirmed, SaleOrderStatusInProcess, true},
		{SaleOrderStatusInProcess, SaleOrderStatusReady, true},
		{SaleOrderStatusReady, SaleOrderStatusDelivered, true},
		{SaleOrderStatusReady, SaleOrderStatusCancelled, false},
		{SaleOrderStatusDelivered, SaleOrderStatusCancelled, false},
		{SaleOrderStatusCancelled, SaleOrderStatusDraft, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.ok {
			t.Fatalf("%s -> %s: expected %v got %v", tc.from, tc.to, tc.ok, got)
		}
	}
	if !SaleOrderStatusDelivered.IsTerminal() || !SaleOrderStatusCancelled.IsTerminal() {
		t.Fatal("delivered and cancelled must be terminal")
	}
	if SaleOrderStatusDraft.IsTerminal() {
		t.Fatal("draft must not be terminal")
	}
}

func TestParseEnums(t *testing.T) {
	if _, err := ParseUserRole("admin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseUserRole("owner"); err == nil {
		t.Fatal("owner is not a back-office role")
	}
	if _, err := ParseRecordStatus("inactive"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseRecordStatus("archived"); err == nil {
		t.Fatal("expected invalid status")
	}
	if _, err := ParseSaleOrderStatus("in_process"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !AuditActionApplyDiscounts.IsValid() {
		t.Fatal("apply_discounts must be valid")
	}
}
