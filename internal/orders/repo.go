package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/teeforge-backend/pkg/db/models"
	"github.com/angelmondragon/teeforge-backend/pkg/enums"
)

// Repository defines persistence operations for pending orders and orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreatePendingOrder(ctx context.Context, pending *models.PendingOrder) error
	SetPaymentIntent(ctx context.Context, pendingOrderID uuid.UUID, paymentIntentID string) error
	FindPendingOrder(ctx context.Context, id uuid.UUID) (*models.PendingOrder, error)
	FindPendingOrderByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.PendingOrder, error)
	LockPendingOrder(ctx context.Context, id uuid.UUID) (*models.PendingOrder, error)
	TransitionPendingOrder(ctx context.Context, id uuid.UUID, from []enums.PendingOrderStatus, to enums.PendingOrderStatus, orderID *uuid.UUID) (bool, error)
	ListExpiredPendingOrders(ctx context.Context, now time.Time, limit int) ([]models.PendingOrder, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindOrderByPendingOrder(ctx context.Context, pendingOrderID uuid.UUID) (*models.Order, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreatePendingOrder(ctx context.Context, pending *models.PendingOrder) error {
	if pending.ID == uuid.Nil {
		pending.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(pending).Error
}

func (r *repository) SetPaymentIntent(ctx context.Context, pendingOrderID uuid.UUID, paymentIntentID string) error {
	res := r.db.WithContext(ctx).
		Model(&models.PendingOrder{}).
		Where("id = ?", pendingOrderID).
		Update("payment_intent_id", paymentIntentID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) FindPendingOrder(ctx context.Context, id uuid.UUID) (*models.PendingOrder, error) {
	var pending models.PendingOrder
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&pending).Error; err != nil {
		return nil, err
	}
	return &pending, nil
}

func (r *repository) FindPendingOrderByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.PendingOrder, error) {
	var pending models.PendingOrder
	err := r.db.WithContext(ctx).
		Where("payment_intent_id = ?", paymentIntentID).
		First(&pending).Error
	if err != nil {
		return nil, err
	}
	return &pending, nil
}

// LockPendingOrder reads the row FOR UPDATE on postgres. Call it inside a
// transaction.
func (r *repository) LockPendingOrder(ctx context.Context, id uuid.UUID) (*models.PendingOrder, error) {
	query := r.db.WithContext(ctx).Where("id = ?", id)
	if r.db.Dialector != nil && r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var pending models.PendingOrder
	if err := query.First(&pending).Error; err != nil {
		return nil, err
	}
	return &pending, nil
}

// TransitionPendingOrder moves the row to status `to` only while it is in one
// of the `from` statuses. It reports whether the row changed.
func (r *repository) TransitionPendingOrder(ctx context.Context, id uuid.UUID, from []enums.PendingOrderStatus, to enums.PendingOrderStatus, orderID *uuid.UUID) (bool, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	if orderID != nil {
		updates["order_id"] = *orderID
	}
	res := r.db.WithContext(ctx).
		Model(&models.PendingOrder{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ListExpiredPendingOrders(ctx context.Context, now time.Time, limit int) ([]models.PendingOrder, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []models.PendingOrder
	err := r.db.WithContext(ctx).
		Where("status IN ? AND expires_at < ?", []enums.PendingOrderStatus{
			enums.PendingOrderStatusAwaitingPayment,
			enums.PendingOrderStatusPaymentFailed,
		}, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindOrderByPendingOrder(ctx context.Context, pendingOrderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("pending_order_id = ?", pendingOrderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}
