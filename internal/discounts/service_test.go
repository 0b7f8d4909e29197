package discounts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/teeforge-backend/pkg/db/models"
	"github.com/angelmondragon/teeforge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
)

type stubRepo struct {
	row       *models.DiscountCode
	findErr   error
	increment bool
	incErr    error
	incCalls  int
}

func (s *stubRepo) FindByCode(context.Context, string) (*models.DiscountCode, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.row, nil
}

func (s *stubRepo) IncrementUse(context.Context, *gorm.DB, uuid.UUID) (bool, error) {
	s.incCalls++
	return s.increment, s.incErr
}

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, repo *stubRepo) *Service {
	t.Helper()
	svc, err := NewService(repo, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func save10() *models.DiscountCode {
	return &models.DiscountCode{
		ID:       uuid.New(),
		Code:     "SAVE10",
		Type:     enums.DiscountTypePercentage,
		Value:    decimal.NewFromInt(10),
		IsActive: true,
	}
}

func TestValidateActiveCode(t *testing.T) {
	t.Parallel()

	row := save10()
	svc := newTestService(t, &stubRepo{row: row})

	res, err := svc.Validate(context.Background(), "save10", decimal.NewFromInt(500))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Valid || res.DiscountCodeID == nil || *res.DiscountCodeID != row.ID {
		t.Fatalf("expected valid result, got %+v", res)
	}
	d := res.Discount()
	if d.Type != enums.DiscountTypePercentage || !d.Value.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected pricing discount %+v", d)
	}
}

func TestValidateIneligibleCodes(t *testing.T) {
	t.Parallel()

	past := fixedNow.Add(-time.Hour)
	future := fixedNow.Add(time.Hour)
	one := 1
	minimum := decimal.NewFromInt(1000)

	cases := map[string]func(*models.DiscountCode){
		"inactive":    func(r *models.DiscountCode) { r.IsActive = false },
		"expired":     func(r *models.DiscountCode) { r.ExpiresAt = &past },
		"not started": func(r *models.DiscountCode) { r.StartsAt = &future },
		"capped":      func(r *models.DiscountCode) { r.MaxUses = &one; r.UsedCount = 1 },
		"min total":   func(r *models.DiscountCode) { r.MinSubtotal = &minimum },
		"bad type":    func(r *models.DiscountCode) { r.Type = "bogus" },
	}
	for name, mutate := range cases {
		row := save10()
		mutate(row)
		svc := newTestService(t, &stubRepo{row: row})
		res, err := svc.Validate(context.Background(), "SAVE10", decimal.NewFromInt(500))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if res.Valid || res.Reason == "" {
			t.Fatalf("%s: expected invalid result with reason, got %+v", name, res)
		}
	}
}

func TestValidateUnknownAndErrors(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubRepo{findErr: gorm.ErrRecordNotFound})
	res, err := svc.Validate(context.Background(), "NOPE", decimal.NewFromInt(10))
	if err != nil || res.Valid {
		t.Fatalf("expected invalid result without error, got %+v / %v", res, err)
	}
	if d, err := svc.Resolve(context.Background(), "NOPE", decimal.NewFromInt(10)); err != nil || d != nil {
		t.Fatalf("expected nil discount, got %+v / %v", d, err)
	}

	svc = newTestService(t, &stubRepo{findErr: errors.New("db down")})
	_, err = svc.Validate(context.Background(), "SAVE10", decimal.NewFromInt(10))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}

	_, err = svc.Validate(context.Background(), "  ", decimal.NewFromInt(10))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRecordUse(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{increment: false}
	svc := newTestService(t, repo)
	if err := svc.RecordUse(context.Background(), nil, uuid.New()); err != nil {
		t.Fatalf("expected capped increment to be tolerated, got %v", err)
	}
	if repo.incCalls != 1 {
		t.Fatalf("expected one increment call, got %d", repo.incCalls)
	}

	repo.incErr = errors.New("boom")
	if err := svc.RecordUse(context.Background(), nil, uuid.New()); err == nil {
		t.Fatal("expected error from repository to surface")
	}
}
