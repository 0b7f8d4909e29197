package enums

import "fmt"

// PendingOrderStatus tracks a pending order between checkout submission and
// deposit confirmation.
type PendingOrderStatus string

const (
	PendingOrderStatusAwaitingPayment PendingOrderStatus = "pending_payment"
	PendingOrderStatusPaid            PendingOrderStatus = "paid"
	PendingOrderStatusPaymentFailed   PendingOrderStatus = "payment_failed"
	PendingOrderStatusExpired         PendingOrderStatus = "expired"
)

var validPendingOrderStatuses = []PendingOrderStatus{
	PendingOrderStatusAwaitingPayment,
	PendingOrderStatusPaid,
	PendingOrderStatusPaymentFailed,
	PendingOrderStatusExpired,
}

func (s PendingOrderStatus) String() string {
	return string(s)
}

func (s PendingOrderStatus) IsValid() bool {
	for _, candidate := range validPendingOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further payment events can change the status.
func (s PendingOrderStatus) IsTerminal() bool {
	return s == PendingOrderStatusPaid || s == PendingOrderStatusExpired
}

func ParsePendingOrderStatus(value string) (PendingOrderStatus, error) {
	for _, candidate := range validPendingOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pending order status %q", value)
}

// OrderStatus is the lifecycle of a materialized order.
type OrderStatus string

const (
	OrderStatusRequested    OrderStatus = "requested"
	OrderStatusDepositPaid  OrderStatus = "deposit_paid"
	OrderStatusInProduction OrderStatus = "in_production"
	OrderStatusShipped      OrderStatus = "shipped"
	OrderStatusCanceled     OrderStatus = "canceled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusRequested,
	OrderStatusDepositPaid,
	OrderStatusInProduction,
	OrderStatusShipped,
	OrderStatusCanceled,
}

func (s OrderStatus) String() string {
	return string(s)
}

func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
