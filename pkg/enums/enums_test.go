package enums

import "testing"

func TestParsePrintLocation(t *testing.T) {
	for _, loc := range PrintLocations() {
		got, err := ParsePrintLocation(loc.String())
		if err != nil || got != loc {
			t.Fatalf("expected %s to round trip, got %q err=%v", loc, got, err)
		}
	}
	if _, err := ParsePrintLocation("sleeve"); err == nil {
		t.Fatal("expected error for unknown location")
	}
}

func TestPrintLocationsReturnsCopy(t *testing.T) {
	locs := PrintLocations()
	locs[0] = "sleeve"
	if PrintLocations()[0] != PrintLocationFront {
		t.Fatal("mutating returned slice must not affect the canonical list")
	}
}

func TestPendingOrderStatusTerminal(t *testing.T) {
	tests := map[PendingOrderStatus]bool{
		PendingOrderStatusAwaitingPayment: false,
		PendingOrderStatusPaymentFailed:   false,
		PendingOrderStatusPaid:            true,
		PendingOrderStatusExpired:         true,
	}
	for status, want := range tests {
		if status.IsTerminal() != want {
			t.Fatalf("status %s terminal expected %v", status, want)
		}
	}
}

func TestParseRejectsUnknownValues(t *testing.T) {
	if _, err := ParseDiscountType("bogo"); err == nil {
		t.Fatal("expected discount type error")
	}
	if _, err := ParsePaymentStyle("split"); err == nil {
		t.Fatal("expected payment style error")
	}
	if _, err := ParseOutboxEventType("order_created"); err == nil {
		t.Fatal("expected outbox event type error")
	}
	if !PaymentStyleEveryonePays.IsValid() || !DiscountTypeFixed.IsValid() {
		t.Fatal("expected known values to be valid")
	}
}

func TestParseOutboxDLQErrorReason(t *testing.T) {
	if got, err := ParseOutboxDLQErrorReason("unroutable"); err != nil || got != OutboxDLQReasonUnroutable {
		t.Fatalf("expected unroutable, got %q err=%v", got, err)
	}
	if _, err := ParseOutboxDLQErrorReason("timeout"); err == nil {
		t.Fatal("expected error for unknown reason")
	}
}
