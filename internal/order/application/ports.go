package application

import (
	"context"

	"github.com/mesero-labs/mesero/internal/order/domain"
)

type Repository interface {
	RecentPending(ctx context.Context, customerID int64) (*domain.Order, error)
	Get(ctx context.Context, orderID int64) (*domain.Order, error)
	GetByCode(ctx context.Context, customerID int64, code string) (*domain.Order, error)
	CreateDraft(ctx context.Context, customerID int64, req domain.ChangeRequest) (*domain.Order, error)
	ApplyPlan(ctx context.Context, orderID int64, plan Plan) error
	RecomputeTotals(ctx context.Context, orderID int64) (int64, error)
	Finalize(ctx context.Context, customerID int64, code string) (*domain.Order, error)
	SetDelivery(ctx context.Context, orderID int64, m domain.DeliveryMethod) error
	SetPaymentMethod(ctx context.Context, orderID int64, m domain.PaymentMethod) error
	SetDeliveryQuote(ctx context.Context, orderID int64, feeCents int64, etaMinutes int, distanceKM float64) error
	SetPaymentRef(ctx context.Context, orderID int64, externalID string) error
	MarkPaid(ctx context.Context, orderID int64) error
}
