package application

import (
	"context"
	"log/slog"

	"github.com/mesero-labs/mesero/internal/order/domain"
)

// Service orchestrates draft creation and mutation of in-progress orders.
// Every mutation ends with a totals recompute over the live line rows so the
// subtotal can never drift from the lines.
type Service struct {
	log  *slog.Logger
	repo Repository
}

func NewService(log *slog.Logger, repo Repository) *Service {
	return &Service{log: log, repo: repo}
}

// Draft creates a new temporary order from the first item description.
func (s *Service) Draft(ctx context.Context, customerID int64, req domain.ChangeRequest) (*domain.Order, error) {
	o, err := s.repo.CreateDraft(ctx, customerID, req)
	if err != nil {
		return nil, err
	}
	s.log.Info("order drafted",
		"customer_id", customerID, "code", o.Code, "lines", len(o.Lines), "subtotal_cents", o.ItemsSubtotal)
	return o, nil
}

// Mutate reconciles a change request against the customer's recent pending
// order and applies the resulting plan transactionally.
func (s *Service) Mutate(ctx context.Context, customerID int64, req domain.ChangeRequest) (*domain.Order, error) {
	o, err := s.repo.RecentPending(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrNoMatchingOrder
	}

	plan, err := Reconcile(o.Lines, req)
	if err != nil {
		return nil, err
	}
	for _, sk := range plan.Skipped {
		s.log.Warn("change referenced no existing line, skipped",
			"customer_id", customerID, "code", o.Code, "catalog_item_id", sk.Matched.ID, "intent", req.Intent)
	}
	if plan.Empty() {
		return s.repo.Get(ctx, o.ID)
	}

	if err := s.repo.ApplyPlan(ctx, o.ID, plan); err != nil {
		return nil, err
	}
	if _, err := s.repo.RecomputeTotals(ctx, o.ID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, o.ID)
}

// Confirm flips the order out of its temporary state. Confirming an already
// confirmed order is a no-op returning the same order.
func (s *Service) Confirm(ctx context.Context, customerID int64, code string) (*domain.Order, error) {
	o, err := s.repo.Finalize(ctx, customerID, code)
	if err != nil {
		return nil, err
	}
	s.log.Info("order confirmed", "customer_id", customerID, "code", o.Code)
	return o, nil
}

// Thin passthroughs so the dialogue layer only ever talks to the service.

func (s *Service) RecentPending(ctx context.Context, customerID int64) (*domain.Order, error) {
	return s.repo.RecentPending(ctx, customerID)
}

func (s *Service) GetByCode(ctx context.Context, customerID int64, code string) (*domain.Order, error) {
	return s.repo.GetByCode(ctx, customerID, code)
}

func (s *Service) SetDelivery(ctx context.Context, orderID int64, m domain.DeliveryMethod) error {
	return s.repo.SetDelivery(ctx, orderID, m)
}

func (s *Service) SetPaymentMethod(ctx context.Context, orderID int64, m domain.PaymentMethod) error {
	return s.repo.SetPaymentMethod(ctx, orderID, m)
}

func (s *Service) SetDeliveryQuote(ctx context.Context, orderID int64, feeCents int64, etaMinutes int, distanceKM float64) error {
	return s.repo.SetDeliveryQuote(ctx, orderID, feeCents, etaMinutes, distanceKM)
}

func (s *Service) SetPaymentRef(ctx context.Context, orderID int64, externalID string) error {
	return s.repo.SetPaymentRef(ctx, orderID, externalID)
}

func (s *Service) MarkPaid(ctx context.Context, orderID int64) error {
	return s.repo.MarkPaid(ctx, orderID)
}
