package wizard

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/teeforge-backend/internal/orderconfig"
	"github.com/angelmondragon/teeforge-backend/internal/pricing"
	"github.com/angelmondragon/teeforge-backend/pkg/enums"
	"github.com/angelmondragon/teeforge-backend/pkg/types"
)

type stubQuoter struct {
	calls int
	total decimal.Decimal
}

func (s *stubQuoter) Quote(_ context.Context, lines []pricing.QuoteLine, _ types.PrintConfig) (types.Quote, error) {
	s.calls++
	qty := 0
	for _, l := range lines {
		qty += l.Quantity
	}
	deposit, balance := pricing.Deposit(s.total, decimal.RequireFromString("0.5"), decimal.RequireFromString("0.5"))
	return types.Quote{Total: s.total, DepositAmount: deposit, BalanceDue: balance, TotalQuantity: qty}, nil
}

func (s *stubQuoter) ApplyDiscount(q types.Quote, d pricing.Discount) (types.AppliedDiscount, error) {
	calc, _ := pricing.NewCalculator(pricing.DefaultSchedule())
	return calc.ApplyDiscount(q, d)
}

func (s *stubQuoter) MinimumQuantity() int { return 24 }

type stubResolver struct {
	minimum decimal.Decimal
}

func (s *stubResolver) Resolve(_ context.Context, code string, subtotal decimal.Decimal) (*pricing.Discount, error) {
	if code != "SAVE10" || subtotal.LessThan(s.minimum) {
		return nil, nil
	}
	return &pricing.Discount{Code: code, Type: enums.DiscountTypePercentage, Value: decimal.NewFromInt(10)}, nil
}

func TestRefreshQuoteBelowMinimumClears(t *testing.T) {
	t.Parallel()

	q := &stubQuoter{total: decimal.NewFromInt(500)}
	r, _ := NewQuoteRefresher(q, &stubResolver{})
	st := readyState(t)
	st.SetQuote(types.Quote{})
	id := st.GarmentIDs()[0]
	_ = st.SetQuantity(id, "black", "M", orderconfig.Quantity(10))

	if err := r.RefreshQuote(context.Background(), st); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if st.Quote != nil || q.calls != 0 {
		t.Fatalf("expected quote cleared without pricing call")
	}
}

func TestRefreshQuoteReappliesDiscount(t *testing.T) {
	t.Parallel()

	q := &stubQuoter{total: decimal.NewFromInt(500)}
	r, _ := NewQuoteRefresher(q, &stubResolver{})
	st := readyState(t)

	if err := r.RefreshQuote(context.Background(), st); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	applied, err := r.ApplyDiscountCode(context.Background(), st, "SAVE10")
	if err != nil || !applied {
		t.Fatalf("expected discount to apply, got %v / %v", applied, err)
	}
	if !st.Discount.DepositAmount.Equal(decimal.NewFromInt(225)) {
		t.Fatalf("expected deposit 225, got %s", st.Discount.DepositAmount)
	}

	q.total = decimal.NewFromInt(1000)
	if err := r.RefreshQuote(context.Background(), st); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if st.Discount == nil || !st.Discount.DiscountAmount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected discount re-applied to new total, got %+v", st.Discount)
	}
}

func TestRefreshQuoteDropsDiscountThatNoLongerApplies(t *testing.T) {
	t.Parallel()

	q := &stubQuoter{total: decimal.NewFromInt(500)}
	resolver := &stubResolver{minimum: decimal.NewFromInt(400)}
	r, _ := NewQuoteRefresher(q, resolver)
	st := readyState(t)
	_ = r.RefreshQuote(context.Background(), st)
	if applied, _ := r.ApplyDiscountCode(context.Background(), st, "SAVE10"); !applied {
		t.Fatal("expected discount to apply")
	}

	q.total = decimal.NewFromInt(300)
	if err := r.RefreshQuote(context.Background(), st); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if st.Discount != nil {
		t.Fatalf("expected discount cleared, got %+v", st.Discount)
	}
}
